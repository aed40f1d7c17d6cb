package reconciliation

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"school-finance-backend/internal/apperrors"
	"school-finance-backend/internal/importer"
	"school-finance-backend/internal/lock"
	"school-finance-backend/internal/models"
	"school-finance-backend/internal/repository"
	"school-finance-backend/internal/repository/memory"
	"school-finance-backend/internal/services/finance"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	store    *memory.Store
	locker   *lock.LocalLocker
	svc      *ReconciliationService
	finance  *finance.Service
	schoolID uuid.UUID
	term     *models.Term
	alice    *models.Student
	bob      *models.Student
	invoice  *models.Invoice // Alice's first term invoice, 50000.00
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	schoolID := uuid.New()

	class := &models.ClassRoom{ID: uuid.New(), SchoolID: schoolID, Name: "JSS1"}
	require.NoError(t, store.CreateClassRoom(ctx, class))
	term := &models.Term{ID: uuid.New(), SchoolID: schoolID, Name: "First Term", IsActive: true}
	require.NoError(t, store.CreateTerm(ctx, term))
	require.NoError(t, store.CreateFeeStructure(ctx, &models.FeeStructure{
		SchoolID: schoolID, ClassRoomID: class.ID, TermID: term.ID,
		TuitionFee: decimal.RequireFromString("45000.00"), OtherFees: decimal.RequireFromString("5000.00"),
	}))

	newStudent := func(adm, first, last string) *models.Student {
		st := &models.Student{ID: uuid.New(), SchoolID: schoolID, ClassRoomID: class.ID,
			AdmissionNumber: adm, FirstName: first, LastName: last, IsActive: true}
		require.NoError(t, store.CreateStudent(ctx, st))
		return st
	}
	alice := newStudent("ADM-1", "Alice", "Johnson")
	bob := newStudent("ADM-2", "Bob", "Smith")

	fin := finance.NewService(store, zap.NewNop())
	invoice, _, err := fin.GenerateInvoice(ctx, schoolID, alice.ID, term.ID)
	require.NoError(t, err)

	locker := lock.NewLocalLocker()
	return &fixture{
		store:    store,
		locker:   locker,
		svc:      NewReconciliationService(store, locker, zap.NewNop(), Options{Workers: 4, LockTTL: time.Minute}),
		finance:  fin,
		schoolID: schoolID,
		term:     term,
		alice:    alice,
		bob:      bob,
		invoice:  invoice,
	}
}

func (f *fixture) importRows(t *testing.T, rows ...importer.Row) *ImportResult {
	t.Helper()
	res, err := f.svc.ImportTransactions(context.Background(), f.schoolID, "statement.csv", rows)
	require.NoError(t, err)
	return res
}

func row(ref, amount, narration string) importer.Row {
	return importer.Row{
		Date:      time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC),
		Amount:    decimal.RequireFromString(amount),
		Reference: ref,
		Narration: narration,
	}
}

func (f *fixture) transaction(t *testing.T, ref string) *models.BankTransaction {
	t.Helper()
	txs, err := f.store.ListBankTransactions(context.Background(), f.schoolID, repository.TransactionFilter{})
	require.NoError(t, err)
	for _, tx := range txs {
		if tx.Reference == ref {
			return &tx
		}
	}
	t.Fatalf("transaction %s not found", ref)
	return nil
}

func (f *fixture) payments(t *testing.T) []models.Payment {
	t.Helper()
	payments, err := f.store.ListPayments(context.Background(), f.schoolID, repository.PaymentFilter{})
	require.NoError(t, err)
	return payments
}

func (f *fixture) credits(t *testing.T) []models.LedgerEntry {
	t.Helper()
	entries, err := f.store.ListLedgerEntries(context.Background(), f.schoolID, repository.LedgerFilter{EntryType: models.EntryCredit})
	require.NoError(t, err)
	return entries
}

func TestExactNameAndBalanceAutoMatches(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.importRows(t, row("TX-A", "50000.00", "Payment for Alice Johnson First Term"))

	run, err := f.svc.RunMatching(ctx, f.schoolID)
	require.NoError(t, err)
	require.Len(t, run.Logs, 1)

	entry := run.Logs[0]
	assert.Equal(t, models.StatusAutoMatched, entry.Status)
	assert.Equal(t, 100.0, entry.ConfidenceScore)
	assert.Equal(t, f.alice.ID, *entry.MatchedStudentID)
	assert.Equal(t, f.invoice.ID, *entry.InvoiceID)
	require.NotNil(t, entry.PaymentID)
	assert.Equal(t, "TX-A", entry.TransactionReference)
	assert.Contains(t, string(entry.MatchDetails), `"amount_matched":true`)

	invoice, err := f.store.GetInvoice(ctx, f.schoolID, f.invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoicePaid, invoice.Status)
	assert.True(t, invoice.Balance.IsZero())

	tx := f.transaction(t, "TX-A")
	assert.True(t, tx.Matched)
	require.NotNil(t, tx.ConfidenceScore)
	assert.Equal(t, 100.0, *tx.ConfidenceScore)

	payments := f.payments(t)
	require.Len(t, payments, 1)
	assert.Equal(t, models.MethodBankTransfer, payments[0].Method)
	assert.Equal(t, "TX-A", payments[0].Reference)
	assert.True(t, payments[0].Matched)
	assert.Len(t, f.credits(t), 1)

	assert.Equal(t, 1, run.Batch.AutoMatchedCount)
	assert.Equal(t, models.BatchCompleted, run.Batch.Status)
}

func TestPartialNameGoesToManualReview(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.importRows(t, row("TX-B", "12345.00", "Alice J. school fees"))

	run, err := f.svc.RunMatching(ctx, f.schoolID)
	require.NoError(t, err)
	require.Len(t, run.Logs, 1)

	entry := run.Logs[0]
	assert.Equal(t, models.StatusManualReview, entry.Status)
	assert.Greater(t, entry.ConfidenceScore, 60.0)
	assert.Less(t, entry.ConfidenceScore, 85.0)
	assert.Equal(t, f.alice.ID, *entry.MatchedStudentID)
	assert.Nil(t, entry.PaymentID)

	assert.Empty(t, f.payments(t))
	assert.False(t, f.transaction(t, "TX-B").Matched)
}

func TestUnknownPayerIsUnmatched(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.importRows(t, row("TX-C", "50000.00", "Unknown Payer Fees"))

	run, err := f.svc.RunMatching(ctx, f.schoolID)
	require.NoError(t, err)
	require.Len(t, run.Logs, 1)
	assert.Equal(t, models.StatusUnmatched, run.Logs[0].Status)
	assert.Less(t, run.Logs[0].ConfidenceScore, 60.0)

	assert.Empty(t, f.credits(t))
	assert.Empty(t, f.payments(t))
}

func TestEmptyStudentPool(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	otherSchool := uuid.New()
	_, err := f.svc.ImportTransactions(ctx, otherSchool, "s.csv", []importer.Row{row("TX-X", "10.00", "Alice Johnson")})
	require.NoError(t, err)

	run, err := f.svc.RunMatching(ctx, otherSchool)
	require.NoError(t, err)
	require.Len(t, run.Logs, 1)
	assert.Equal(t, models.StatusUnmatched, run.Logs[0].Status)
	assert.Equal(t, 0.0, run.Logs[0].ConfidenceScore)
	assert.Nil(t, run.Logs[0].MatchedStudentID)

	// Alice belongs to another school and must never be considered.
	assert.Empty(t, f.payments(t))
}

func TestApproveMatchTwice(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.importRows(t, row("TX-D", "20000.00", "Alice J. school fees"))

	in := ApproveInput{StudentID: f.alice.ID, InvoiceID: &f.invoice.ID, PerformedBy: "bursar-1"}
	payment, err := f.svc.ApproveMatch(ctx, f.schoolID, "TX-D", in)
	require.NoError(t, err)
	assert.Equal(t, "20000.00", payment.Amount.StringFixed(2))

	_, err = f.svc.ApproveMatch(ctx, f.schoolID, "TX-D", in)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindAlreadyMatched))

	assert.Len(t, f.payments(t), 1)
	assert.Len(t, f.credits(t), 1)

	invoice, err := f.store.GetInvoice(ctx, f.schoolID, f.invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, "30000.00", invoice.Balance.StringFixed(2))
	assert.Equal(t, models.InvoicePartial, invoice.Status)

	audits := f.store.AuditLogs(f.schoolID)
	require.Len(t, audits, 1)
	assert.Equal(t, "bursar-1", audits[0].PerformedBy)
	assert.Equal(t, models.AuditActionApprove, audits[0].Action)
}

func TestApproveMatchRejectsForeignInvoice(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.importRows(t, row("TX-E", "100.00", "Bob Smith"))

	_, err := f.svc.ApproveMatch(ctx, f.schoolID, "TX-E", ApproveInput{StudentID: f.bob.ID, InvoiceID: &f.invoice.ID})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	_, err = f.svc.ApproveMatch(ctx, f.schoolID, "NOPE", ApproveInput{StudentID: f.bob.ID})
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))

	assert.False(t, f.transaction(t, "TX-E").Matched)
	assert.Empty(t, f.payments(t))
}

func TestCreatePaymentFromMatchIsNoOpWhenMatched(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.importRows(t, row("TX-F", "50.00", "Bob Smith"))
	tx := f.transaction(t, "TX-F")

	first, err := f.svc.CreatePaymentFromMatch(ctx, f.schoolID, tx.ID, f.bob.ID, nil)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Nil(t, first.InvoiceID)

	second, err := f.svc.CreatePaymentFromMatch(ctx, f.schoolID, tx.ID, f.bob.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, second)
	assert.Len(t, f.payments(t), 1)
	assert.Len(t, f.credits(t), 1)
}

func TestReimportUpdatesInPlace(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.importRows(t, row("TX-G", "100.00", "first narration"))
	original := f.transaction(t, "TX-G")

	res := f.importRows(t, row("TX-G", "150.00", "corrected narration"), row("TX-H", "10.00", "new"))
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, 1, res.Created)

	txs, err := f.store.ListBankTransactions(ctx, f.schoolID, repository.TransactionFilter{})
	require.NoError(t, err)
	assert.Len(t, txs, 2)

	updated := f.transaction(t, "TX-G")
	assert.Equal(t, original.ID, updated.ID)
	assert.Equal(t, "150.00", updated.Amount.StringFixed(2))
	assert.Equal(t, "corrected narration", updated.Narration)
	assert.Equal(t, res.Batch.ID, *updated.ImportBatchID)
}

func TestReimportLeavesMatchedRowAlone(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.importRows(t, row("TX-A", "50000.00", "Payment for Alice Johnson First Term"))
	_, err := f.svc.RunMatching(ctx, f.schoolID)
	require.NoError(t, err)

	res := f.importRows(t, row("TX-A", "1.00", "rewritten"))
	assert.Equal(t, 1, res.Skipped)

	tx := f.transaction(t, "TX-A")
	assert.True(t, tx.Matched)
	assert.Equal(t, "50000.00", tx.Amount.StringFixed(2))
}

func TestImportSkipsDebitRows(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	csv := "date,amount,reference,narration\n" +
		"2024-01-15,50000.00,TX-1,Payment for Alice Johnson First Term\n" +
		"2024-01-15,-250.00,TX-2,SMS alert charges\n" +
		"2024-01-16,0.00,TX-3,reversal\n"

	res, err := f.svc.ImportFile(ctx, f.schoolID, "statement.csv", strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 2, res.Skipped)
	assert.Equal(t, 3, res.Batch.TotalTransactions)
	assert.Equal(t, 1, res.Batch.ProcessedCount)

	txs, err := f.store.ListBankTransactions(ctx, f.schoolID, repository.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "TX-1", txs[0].Reference)

	run, err := f.svc.RunMatching(ctx, f.schoolID)
	require.NoError(t, err)
	require.Len(t, run.Logs, 1)
	assert.Equal(t, models.StatusAutoMatched, run.Logs[0].Status)
}

func TestImportFileIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	csv := "date,amount,reference,narration\n" +
		"2024-01-15,100.00,TX-1,ok\n" +
		"2024-01-16,not-money,TX-2,broken\n"

	_, err := f.svc.ImportFile(ctx, f.schoolID, "statement.csv", strings.NewReader(csv))
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	txs, err := f.store.ListBankTransactions(ctx, f.schoolID, repository.TransactionFilter{})
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestRunMatchingContinuesPastFailures(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	// A manual payment already owns the reference, so materializing TX-A collides.
	_, err := f.finance.RecordPayment(ctx, f.schoolID, finance.RecordPaymentInput{
		StudentID: f.bob.ID,
		Amount:    decimal.RequireFromString("5.00"),
		Method:    models.MethodCash,
		Reference: "TX-A",
	})
	require.NoError(t, err)

	f.importRows(t,
		row("TX-A", "50000.00", "Payment for Alice Johnson First Term"),
		row("TX-C", "10.00", "Unknown Payer Fees"),
	)

	run, err := f.svc.RunMatching(ctx, f.schoolID)
	require.NoError(t, err)
	require.Len(t, run.Logs, 1)
	assert.Equal(t, "TX-C", run.Logs[0].TransactionReference)
	assert.Equal(t, 1, run.Batch.FailedCount)

	// The failed unit left nothing behind.
	tx := f.transaction(t, "TX-A")
	assert.False(t, tx.Matched)
	assert.Nil(t, tx.ConfidenceScore)
	logs, err := f.svc.ListLogs(ctx, f.schoolID, repository.LogFilter{})
	require.NoError(t, err)
	assert.Len(t, logs, 1)

	invoice, err := f.store.GetInvoice(ctx, f.schoolID, f.invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceUnpaid, invoice.Status)
}

func TestRunMatchingPreservesInputOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var rows []importer.Row
	for i := 0; i < 12; i++ {
		r := row(uuid.NewString(), "10.00", "Bob Smith")
		r.Date = r.Date.Add(time.Duration(i) * time.Hour)
		rows = append(rows, r)
	}
	f.importRows(t, rows...)

	run, err := f.svc.RunMatching(ctx, f.schoolID)
	require.NoError(t, err)
	require.Len(t, run.Logs, len(rows))
	for i, entry := range run.Logs {
		assert.Equal(t, rows[i].Reference, entry.TransactionReference)
	}
}

func TestRunMatchingRefusesOverlappingRun(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	release, err := f.locker.Acquire(ctx, runLockKey(f.schoolID), time.Minute)
	require.NoError(t, err)

	_, err = f.svc.RunMatching(ctx, f.schoolID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeMatchingInProgress))

	// Other schools are unaffected.
	_, err = f.svc.RunMatching(ctx, uuid.New())
	assert.NoError(t, err)

	release()
	_, err = f.svc.RunMatching(ctx, f.schoolID)
	assert.NoError(t, err)
}

func TestConcurrentRunsNeverDoubleMaterialize(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.importRows(t, row("TX-A", "50000.00", "Payment for Alice Johnson First Term"))

	// Separate lockers model runs that bypass the run lock; the row-level guard must still hold.
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc := NewReconciliationService(f.store, lock.NewLocalLocker(), zap.NewNop(), Options{Workers: 2})
			_, err := svc.RunMatching(ctx, f.schoolID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Len(t, f.payments(t), 1)
	assert.Len(t, f.credits(t), 1)

	logs, err := f.svc.ListLogs(ctx, f.schoolID, repository.LogFilter{Status: models.StatusAutoMatched})
	require.NoError(t, err)
	assert.Len(t, logs, 1)

	invoice, err := f.store.GetInvoice(ctx, f.schoolID, f.invoice.ID)
	require.NoError(t, err)
	assert.True(t, invoice.Balance.IsZero())
}

func TestBatchBookkeeping(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	imported := f.importRows(t,
		row("TX-A", "50000.00", "Payment for Alice Johnson First Term"),
		row("TX-B", "12345.00", "Alice J. school fees"),
		row("TX-C", "10.00", "Unknown Payer Fees"),
	)

	batch, err := f.svc.GetBatch(ctx, f.schoolID, imported.Batch.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BatchImport, batch.Kind)
	assert.Equal(t, 3, batch.TotalTransactions)
	assert.Equal(t, 3, batch.ProcessedCount)
	assert.NotNil(t, batch.CompletedAt)

	run, err := f.svc.RunMatching(ctx, f.schoolID)
	require.NoError(t, err)
	batch, err = f.svc.GetBatch(ctx, f.schoolID, run.Batch.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BatchMatching, batch.Kind)
	assert.Equal(t, 1, batch.AutoMatchedCount)
	assert.Equal(t, 1, batch.ManualReviewCount)
	assert.Equal(t, 1, batch.UnmatchedCount)
	assert.Equal(t, models.BatchCompleted, batch.Status)

	_, err = f.svc.GetBatch(ctx, uuid.New(), run.Batch.ID)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

// settlingStore settles the invoice found by the balance lookup with another payment before the
// lookup returns, the interleaving of a second worker committing between lookup and lock.
type settlingStore struct {
	repository.Store
	once *sync.Once
}

func (s settlingStore) WithTx(ctx context.Context, fn func(tx repository.Store) error) error {
	return s.Store.WithTx(ctx, func(tx repository.Store) error {
		return fn(settlingStore{Store: tx, once: s.once})
	})
}

func (s settlingStore) FindOpenInvoiceByBalance(ctx context.Context, schoolID, studentID uuid.UUID, amount decimal.Decimal) (*models.Invoice, error) {
	inv, err := s.Store.FindOpenInvoiceByBalance(ctx, schoolID, studentID, amount)
	if err != nil {
		return nil, err
	}
	var applyErr error
	s.once.Do(func() {
		invoiceID, sid := inv.ID, studentID
		applyErr = finance.ApplyPayment(ctx, s.Store, &models.Payment{
			ID:              uuid.New(),
			SchoolID:        schoolID,
			StudentID:       &sid,
			InvoiceID:       &invoiceID,
			Amount:          inv.Balance,
			Method:          models.MethodCash,
			Reference:       "CASH-1",
			TransactionDate: time.Now(),
			Matched:         true,
		})
	})
	return inv, applyErr
}

func TestInvoiceSettledAfterLookupIsNotCreditedTwice(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.importRows(t, row("TX-A", "50000.00", "Alice J. school fees"))

	store := settlingStore{Store: f.store, once: &sync.Once{}}
	svc := NewReconciliationService(store, f.locker, zap.NewNop(), Options{Workers: 1, LockTTL: time.Minute})
	run, err := svc.RunMatching(ctx, f.schoolID)
	require.NoError(t, err)
	require.Len(t, run.Logs, 1)

	// Without the balance boost the partial name stays below the auto threshold.
	entry := run.Logs[0]
	assert.Equal(t, models.StatusManualReview, entry.Status)
	assert.Less(t, entry.ConfidenceScore, 85.0)
	assert.Equal(t, f.alice.ID, *entry.MatchedStudentID)
	assert.Nil(t, entry.InvoiceID)
	assert.Nil(t, entry.PaymentID)
	assert.Contains(t, string(entry.MatchDetails), `"amount_matched":false`)
	assert.False(t, f.transaction(t, "TX-A").Matched)

	invoice, err := f.store.GetInvoice(ctx, f.schoolID, f.invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoicePaid, invoice.Status)
	assert.Equal(t, "0.00", invoice.Balance.StringFixed(2))

	payments := f.payments(t)
	require.Len(t, payments, 1)
	assert.Equal(t, "CASH-1", payments[0].Reference)
	assert.Len(t, f.credits(t), 1)
}
