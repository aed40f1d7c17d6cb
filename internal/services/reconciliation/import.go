package reconciliation

import (
	"context"
	"io"
	"time"

	"school-finance-backend/internal/apperrors"
	"school-finance-backend/internal/importer"
	"school-finance-backend/internal/models"
	"school-finance-backend/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ImportResult struct {
	Batch   *models.ReconciliationBatch `json:"batch"`
	Created int                         `json:"created"`
	Updated int                         `json:"updated"`
	// Skipped counts debit rows (amount <= 0) and rows whose reference is already matched; those rows
	// are left untouched.
	Skipped int `json:"skipped"`
}

// ImportFile parses a CSV or XLSX statement and imports it.
func (s *ReconciliationService) ImportFile(ctx context.Context, schoolID uuid.UUID, filename string, r io.Reader) (*ImportResult, error) {
	rows, err := importer.Parse(filename, r, s.loc)
	if err != nil {
		return nil, err
	}
	return s.ImportTransactions(ctx, schoolID, filename, rows)
}

// ImportTransactions upserts rows by (school, reference) in a single transaction. Unmatched rows are
// updated in place; matched rows are never rewritten. Debit rows are not payments and are skipped.
func (s *ReconciliationService) ImportTransactions(ctx context.Context, schoolID uuid.UUID, filename string, rows []importer.Row) (*ImportResult, error) {
	result := &ImportResult{}
	start := time.Now()

	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		result.Created, result.Updated, result.Skipped = 0, 0, 0

		batch := &models.ReconciliationBatch{
			ID:                uuid.New(),
			SchoolID:          schoolID,
			Kind:              models.BatchImport,
			Filename:          filename,
			TotalTransactions: len(rows),
			Status:            models.BatchProcessing,
			StartedAt:         start,
			CreatedAt:         start,
		}
		if err := tx.CreateBatch(ctx, batch); err != nil {
			return err
		}
		batchID := batch.ID

		for _, row := range rows {
			if !row.Amount.IsPositive() {
				result.Skipped++
				continue
			}
			existing, err := tx.LockBankTransactionByReference(ctx, schoolID, row.Reference)
			switch {
			case err == nil && existing.Matched:
				result.Skipped++
			case err == nil:
				existing.Amount = row.Amount
				existing.Narration = row.Narration
				existing.TransactionDate = row.Date
				existing.ImportBatchID = &batchID
				if err := tx.UpdateBankTransaction(ctx, existing); err != nil {
					return err
				}
				result.Updated++
			case apperrors.Is(err, apperrors.KindNotFound):
				now := time.Now()
				if err := tx.CreateBankTransaction(ctx, &models.BankTransaction{
					ID:              uuid.New(),
					SchoolID:        schoolID,
					ImportBatchID:   &batchID,
					Amount:          row.Amount,
					Narration:       row.Narration,
					Reference:       row.Reference,
					TransactionDate: row.Date,
					CreatedAt:       now,
					UpdatedAt:       now,
				}); err != nil {
					return err
				}
				result.Created++
			default:
				return err
			}
		}

		completed := time.Now()
		batch.ProcessedCount = result.Created + result.Updated
		batch.Status = models.BatchCompleted
		batch.CompletedAt = &completed
		if err := tx.UpdateBatch(ctx, batch); err != nil {
			return err
		}
		result.Batch = batch
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("statement imported",
		zap.String("school_id", schoolID.String()),
		zap.String("batch_id", result.Batch.ID.String()),
		zap.String("filename", filename),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped))
	return result, nil
}
