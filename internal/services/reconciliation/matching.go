package reconciliation

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"school-finance-backend/internal/apperrors"
	"school-finance-backend/internal/lock"
	"school-finance-backend/internal/models"
	"school-finance-backend/internal/repository"
	"school-finance-backend/internal/services/matching"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type MatchRun struct {
	Batch *models.ReconciliationBatch `json:"batch"`
	Logs  []models.ReconciliationLog  `json:"logs"`
}

func runLockKey(schoolID uuid.UUID) string {
	return "reconciliation:matching:" + schoolID.String()
}

// RunMatching scores every unmatched transaction of the school against its active students.
// Each transaction is handled in its own database transaction; one failing does not affect the
// others and is left out of the returned logs. Logs follow the input transaction order.
func (s *ReconciliationService) RunMatching(ctx context.Context, schoolID uuid.UUID) (*MatchRun, error) {
	release, err := s.locker.Acquire(ctx, runLockKey(schoolID), s.lockTTL)
	if errors.Is(err, lock.ErrNotAcquired) {
		return nil, apperrors.New(apperrors.KindConflict, apperrors.CodeMatchingInProgress,
			"a matching run is already in progress for this school")
	}
	if err != nil {
		return nil, apperrors.Internal("acquire matching lock", err)
	}
	defer release()

	start := time.Now()
	batch := &models.ReconciliationBatch{
		ID:        uuid.New(),
		SchoolID:  schoolID,
		Kind:      models.BatchMatching,
		Status:    models.BatchProcessing,
		StartedAt: start,
		CreatedAt: start,
	}
	if err := s.store.CreateBatch(ctx, batch); err != nil {
		return nil, err
	}

	logs, failed, err := s.matchAll(ctx, schoolID, batch.ID)
	completed := time.Now()
	batch.CompletedAt = &completed
	if err != nil {
		batch.Status = models.BatchFailed
		if uerr := s.store.UpdateBatch(ctx, batch); uerr != nil {
			s.log.Error("failed to close batch", zap.String("batch_id", batch.ID.String()), zap.Error(uerr))
		}
		return nil, err
	}

	batch.FailedCount = failed
	batch.ProcessedCount = len(logs)
	batch.TotalTransactions = len(logs) + failed
	for _, l := range logs {
		switch l.Status {
		case models.StatusAutoMatched:
			batch.AutoMatchedCount++
		case models.StatusManualReview:
			batch.ManualReviewCount++
		default:
			batch.UnmatchedCount++
		}
	}
	batch.Status = models.BatchCompleted
	if err := s.store.UpdateBatch(ctx, batch); err != nil {
		return nil, err
	}

	s.log.Info("matching run completed",
		zap.String("school_id", schoolID.String()),
		zap.String("batch_id", batch.ID.String()),
		zap.Int("processed", batch.ProcessedCount),
		zap.Int("auto_matched", batch.AutoMatchedCount),
		zap.Int("manual_review", batch.ManualReviewCount),
		zap.Int("unmatched", batch.UnmatchedCount),
		zap.Int("failed", batch.FailedCount),
		zap.Duration("elapsed", completed.Sub(start)))

	return &MatchRun{Batch: batch, Logs: logs}, nil
}

func (s *ReconciliationService) candidatePool(ctx context.Context, schoolID uuid.UUID) ([]matching.Candidate, error) {
	students, err := s.store.ListStudents(ctx, schoolID, repository.StudentFilter{ActiveOnly: true})
	if err != nil {
		return nil, err
	}
	// ListStudents orders by id, which makes ties resolve to the lowest student id.
	pool := make([]matching.Candidate, 0, len(students))
	for _, st := range students {
		pool = append(pool, matching.Candidate{StudentID: st.ID, Name: st.FullName()})
	}
	return pool, nil
}

func (s *ReconciliationService) matchAll(ctx context.Context, schoolID, batchID uuid.UUID) ([]models.ReconciliationLog, int, error) {
	txs, err := s.store.ListUnmatchedTransactions(ctx, schoolID)
	if err != nil {
		return nil, 0, err
	}
	pool, err := s.candidatePool(ctx, schoolID)
	if err != nil {
		return nil, 0, err
	}

	results := make([]*models.ReconciliationLog, len(txs))
	var failed int32

	var g errgroup.Group
	g.SetLimit(s.workers)
	for i := range txs {
		i := i
		g.Go(func() error {
			entry, err := s.matchTransaction(ctx, schoolID, batchID, txs[i].ID, pool)
			if err != nil {
				atomic.AddInt32(&failed, 1)
				s.log.Warn("matching failed for transaction",
					zap.String("school_id", schoolID.String()),
					zap.String("reference", txs[i].Reference),
					zap.Error(err))
				return nil
			}
			results[i] = entry
			return nil
		})
	}
	_ = g.Wait()

	logs := make([]models.ReconciliationLog, 0, len(results))
	for _, entry := range results {
		if entry != nil {
			logs = append(logs, *entry)
		}
	}
	return logs, int(failed), nil
}

// matchTransaction scores, materializes and logs one transaction atomically. It returns a nil log
// when the transaction was matched by someone else since the run started.
func (s *ReconciliationService) matchTransaction(ctx context.Context, schoolID, batchID, txID uuid.UUID, pool []matching.Candidate) (*models.ReconciliationLog, error) {
	var entry *models.ReconciliationLog

	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		bt, err := tx.LockBankTransaction(ctx, schoolID, txID)
		if err != nil {
			return err
		}
		if bt.Matched {
			return nil
		}

		var invoice *models.Invoice
		result, err := matching.Evaluate(bt.Narration, pool, func(studentID uuid.UUID) (bool, error) {
			inv, err := tx.FindOpenInvoiceByBalance(ctx, schoolID, studentID, bt.Amount)
			if apperrors.Is(err, apperrors.KindNotFound) {
				return false, nil
			}
			if err != nil {
				return false, err
			}
			// A concurrent payment may have settled the invoice since it was found.
			locked, err := tx.LockInvoice(ctx, schoolID, inv.ID)
			if err != nil {
				return false, err
			}
			if !locked.IsOpen() || !locked.Balance.Equal(bt.Amount) {
				return false, nil
			}
			invoice = locked
			return true, nil
		})
		if err != nil {
			return err
		}

		var invoiceID, paymentID *uuid.UUID
		if invoice != nil {
			invoiceID = &invoice.ID
		}
		if result.Status == models.StatusAutoMatched {
			payment, err := createPaymentFromMatch(ctx, tx, bt, *result.StudentID, invoiceID)
			if err != nil {
				return err
			}
			if payment == nil {
				return nil
			}
			paymentID = &payment.ID
		}

		if err := tx.SetTransactionConfidence(ctx, schoolID, bt.ID, result.Confidence); err != nil {
			return err
		}

		details, err := json.Marshal(result)
		if err != nil {
			return apperrors.Internal("encode match details", err)
		}

		bid := batchID
		entry = &models.ReconciliationLog{
			ID:                   uuid.New(),
			SchoolID:             schoolID,
			BatchID:              &bid,
			BankTransactionID:    bt.ID,
			TransactionReference: bt.Reference,
			MatchedStudentID:     result.StudentID,
			InvoiceID:            invoiceID,
			PaymentID:            paymentID,
			ConfidenceScore:      result.Confidence,
			Status:               result.Status,
			MatchDetails:         details,
			ProcessedAt:          time.Now(),
		}
		return tx.CreateReconciliationLog(ctx, entry)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}
