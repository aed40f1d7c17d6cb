package repository

import (
	"context"
	"time"

	"school-finance-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"
)

func (s *GormStore) CreateBankTransaction(ctx context.Context, tx *models.BankTransaction) error {
	return writeError(s.conn(ctx).Create(tx).Error, "bank transaction")
}

func (s *GormStore) UpdateBankTransaction(ctx context.Context, tx *models.BankTransaction) error {
	tx.UpdatedAt = time.Now()
	err := s.conn(ctx).Model(&models.BankTransaction{}).
		Where("id = ? AND school_id = ? AND matched = ?", tx.ID, tx.SchoolID, false).
		Updates(map[string]interface{}{
			"amount":           tx.Amount,
			"narration":        tx.Narration,
			"transaction_date": tx.TransactionDate,
			"import_batch_id":  tx.ImportBatchID,
			"updated_at":       tx.UpdatedAt,
		}).Error
	return writeError(err, "bank transaction")
}

func (s *GormStore) GetBankTransaction(ctx context.Context, schoolID, id uuid.UUID) (*models.BankTransaction, error) {
	var tx models.BankTransaction
	if err := s.conn(ctx).First(&tx, "id = ? AND school_id = ?", id, schoolID).Error; err != nil {
		return nil, readError(err, "bank transaction", id)
	}
	return &tx, nil
}

func (s *GormStore) LockBankTransactionByReference(ctx context.Context, schoolID uuid.UUID, reference string) (*models.BankTransaction, error) {
	var tx models.BankTransaction
	err := s.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&tx, "school_id = ? AND reference = ?", schoolID, reference).Error
	if err != nil {
		return nil, readError(err, "bank transaction", reference)
	}
	return &tx, nil
}

func (s *GormStore) LockBankTransaction(ctx context.Context, schoolID, id uuid.UUID) (*models.BankTransaction, error) {
	var tx models.BankTransaction
	err := s.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&tx, "id = ? AND school_id = ?", id, schoolID).Error
	if err != nil {
		return nil, readError(err, "bank transaction", id)
	}
	return &tx, nil
}

func (s *GormStore) ListUnmatchedTransactions(ctx context.Context, schoolID uuid.UUID) ([]models.BankTransaction, error) {
	var txs []models.BankTransaction
	err := s.conn(ctx).
		Where("school_id = ? AND matched = ?", schoolID, false).
		Order("transaction_date ASC, created_at ASC, id ASC").
		Find(&txs).Error
	return txs, readError(err, "bank transaction", nil)
}

func (s *GormStore) MarkTransactionMatched(ctx context.Context, schoolID, id uuid.UUID) (bool, error) {
	result := s.conn(ctx).Model(&models.BankTransaction{}).
		Where("id = ? AND school_id = ? AND matched = ?", id, schoolID, false).
		Updates(map[string]interface{}{
			"matched":    true,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, writeError(result.Error, "bank transaction")
	}
	return result.RowsAffected == 1, nil
}

func (s *GormStore) SetTransactionConfidence(ctx context.Context, schoolID, id uuid.UUID, score float64) error {
	err := s.conn(ctx).Model(&models.BankTransaction{}).
		Where("id = ? AND school_id = ?", id, schoolID).
		Update("confidence_score", score).Error
	return writeError(err, "bank transaction")
}

func (s *GormStore) ListBankTransactions(ctx context.Context, schoolID uuid.UUID, filter TransactionFilter) ([]models.BankTransaction, error) {
	var txs []models.BankTransaction

	query := s.conn(ctx).Where("school_id = ?", schoolID)
	if filter.Matched != nil {
		query = query.Where("matched = ?", *filter.Matched)
	}

	err := query.Order("transaction_date DESC, id ASC").Find(&txs).Error
	return txs, readError(err, "bank transaction", nil)
}
