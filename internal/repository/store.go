package repository

import (
	"context"

	"school-finance-backend/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Store is the data-access boundary. Every read and write names the school it is scoped to;
// implementations must never return rows belonging to another school.
//
// Lookups that find nothing return an apperrors NotFound error. Unique violations return Conflict.
type Store interface {
	// WithTx runs fn inside one transaction. Calling WithTx on a transactional Store joins
	// the outer transaction.
	WithTx(ctx context.Context, fn func(tx Store) error) error

	CreateSchool(ctx context.Context, school *models.School) error
	GetSchool(ctx context.Context, schoolID uuid.UUID) (*models.School, error)

	CreateParent(ctx context.Context, parent *models.Parent) error
	ListParents(ctx context.Context, schoolID uuid.UUID) ([]models.Parent, error)
	CreateClassRoom(ctx context.Context, room *models.ClassRoom) error
	ListClassRooms(ctx context.Context, schoolID uuid.UUID) ([]models.ClassRoom, error)
	CreateTerm(ctx context.Context, term *models.Term) error
	GetTerm(ctx context.Context, schoolID, termID uuid.UUID) (*models.Term, error)
	ListTerms(ctx context.Context, schoolID uuid.UUID) ([]models.Term, error)

	CreateStudent(ctx context.Context, student *models.Student) error
	GetStudent(ctx context.Context, schoolID, studentID uuid.UUID) (*models.Student, error)
	// ListStudents returns students ordered by id ascending.
	ListStudents(ctx context.Context, schoolID uuid.UUID, filter StudentFilter) ([]models.Student, error)

	CreateFeeStructure(ctx context.Context, fee *models.FeeStructure) error
	FindFeeStructure(ctx context.Context, schoolID, classRoomID, termID uuid.UUID) (*models.FeeStructure, error)
	ListFeeStructures(ctx context.Context, schoolID uuid.UUID) ([]models.FeeStructure, error)

	CreateInvoice(ctx context.Context, invoice *models.Invoice) error
	GetInvoice(ctx context.Context, schoolID, invoiceID uuid.UUID) (*models.Invoice, error)
	// LockInvoice reads the invoice holding an exclusive row lock until the transaction ends.
	LockInvoice(ctx context.Context, schoolID, invoiceID uuid.UUID) (*models.Invoice, error)
	FindInvoice(ctx context.Context, schoolID, studentID, termID uuid.UUID) (*models.Invoice, error)
	// FindOpenInvoiceByBalance returns the oldest unpaid or partial invoice of the student whose
	// balance equals amount exactly, holding an exclusive row lock until the transaction ends.
	FindOpenInvoiceByBalance(ctx context.Context, schoolID, studentID uuid.UUID, amount decimal.Decimal) (*models.Invoice, error)
	// SaveInvoiceBalance persists amount paid, balance and status in one update.
	SaveInvoiceBalance(ctx context.Context, invoice *models.Invoice) error
	ListInvoices(ctx context.Context, schoolID uuid.UUID, filter InvoiceFilter) ([]models.Invoice, error)

	CreatePayment(ctx context.Context, payment *models.Payment) error
	SumMatchedPayments(ctx context.Context, schoolID, invoiceID uuid.UUID) (decimal.Decimal, error)
	ListPayments(ctx context.Context, schoolID uuid.UUID, filter PaymentFilter) ([]models.Payment, error)

	AppendLedgerEntry(ctx context.Context, entry *models.LedgerEntry) error
	ListLedgerEntries(ctx context.Context, schoolID uuid.UUID, filter LedgerFilter) ([]models.LedgerEntry, error)

	CreateBankTransaction(ctx context.Context, tx *models.BankTransaction) error
	// UpdateBankTransaction rewrites amount, narration, date and import batch of an unmatched row.
	UpdateBankTransaction(ctx context.Context, tx *models.BankTransaction) error
	GetBankTransaction(ctx context.Context, schoolID, id uuid.UUID) (*models.BankTransaction, error)
	// LockBankTransactionByReference reads the row by its per-school reference under an exclusive lock.
	LockBankTransactionByReference(ctx context.Context, schoolID uuid.UUID, reference string) (*models.BankTransaction, error)
	LockBankTransaction(ctx context.Context, schoolID, id uuid.UUID) (*models.BankTransaction, error)
	// ListUnmatchedTransactions returns matched=false rows ordered by transaction date, then creation.
	ListUnmatchedTransactions(ctx context.Context, schoolID uuid.UUID) ([]models.BankTransaction, error)
	// MarkTransactionMatched flips matched false -> true. It returns false when the row was already matched.
	MarkTransactionMatched(ctx context.Context, schoolID, id uuid.UUID) (bool, error)
	SetTransactionConfidence(ctx context.Context, schoolID, id uuid.UUID, score float64) error
	ListBankTransactions(ctx context.Context, schoolID uuid.UUID, filter TransactionFilter) ([]models.BankTransaction, error)

	CreateReconciliationLog(ctx context.Context, log *models.ReconciliationLog) error
	ListReconciliationLogs(ctx context.Context, schoolID uuid.UUID, filter LogFilter) ([]models.ReconciliationLog, error)

	CreateBatch(ctx context.Context, batch *models.ReconciliationBatch) error
	UpdateBatch(ctx context.Context, batch *models.ReconciliationBatch) error
	GetBatch(ctx context.Context, schoolID, batchID uuid.UUID) (*models.ReconciliationBatch, error)

	CreateMatchAuditLog(ctx context.Context, entry *models.MatchAuditLog) error

	TermRevenue(ctx context.Context, schoolID, termID uuid.UUID) (decimal.Decimal, error)
	OutstandingBalance(ctx context.Context, schoolID uuid.UUID) (decimal.Decimal, error)
	// OutstandingByStudent sums invoice balances per student. Students without invoices are absent.
	OutstandingByStudent(ctx context.Context, schoolID uuid.UUID) ([]StudentBalance, error)
	RevenueByClass(ctx context.Context, schoolID, termID uuid.UUID) ([]ClassRevenue, error)
}

type StudentFilter struct {
	ActiveOnly  bool
	ClassRoomID *uuid.UUID
}

type InvoiceFilter struct {
	StudentID *uuid.UUID
	TermID    *uuid.UUID
	Status    models.InvoiceStatus
}

type PaymentFilter struct {
	StudentID *uuid.UUID
	InvoiceID *uuid.UUID
	Method    models.PaymentMethod
}

type LedgerFilter struct {
	StudentID *uuid.UUID
	InvoiceID *uuid.UUID
	EntryType models.EntryType
}

type TransactionFilter struct {
	Matched *bool
}

type LogFilter struct {
	Status           models.ReconciliationStatus
	MatchedStudentID *uuid.UUID
	BatchID          *uuid.UUID
}

// StudentBalance is one student's summed invoice balance.
type StudentBalance struct {
	StudentID uuid.UUID       `json:"student_id"`
	Balance   decimal.Decimal `json:"balance"`
}

// ClassRevenue is one row of the revenue-by-class report.
type ClassRevenue struct {
	ClassName string          `json:"class_name"`
	Revenue   decimal.Decimal `json:"revenue"`
}
