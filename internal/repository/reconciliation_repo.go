package repository

import (
	"context"

	"school-finance-backend/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func (s *GormStore) CreateReconciliationLog(ctx context.Context, log *models.ReconciliationLog) error {
	return writeError(s.conn(ctx).Create(log).Error, "reconciliation log")
}

func (s *GormStore) ListReconciliationLogs(ctx context.Context, schoolID uuid.UUID, filter LogFilter) ([]models.ReconciliationLog, error) {
	var logs []models.ReconciliationLog

	query := s.conn(ctx).Where("school_id = ?", schoolID)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.MatchedStudentID != nil {
		query = query.Where("matched_student_id = ?", *filter.MatchedStudentID)
	}
	if filter.BatchID != nil {
		query = query.Where("batch_id = ?", *filter.BatchID)
	}

	err := query.Order("processed_at DESC").Find(&logs).Error
	return logs, readError(err, "reconciliation log", nil)
}

// CreateBatch creates a new ReconciliationBatch in DB
func (s *GormStore) CreateBatch(ctx context.Context, batch *models.ReconciliationBatch) error {
	return writeError(s.conn(ctx).Create(batch).Error, "reconciliation batch")
}

func (s *GormStore) UpdateBatch(ctx context.Context, batch *models.ReconciliationBatch) error {
	err := s.conn(ctx).Model(&models.ReconciliationBatch{}).
		Where("id = ? AND school_id = ?", batch.ID, batch.SchoolID).
		Updates(map[string]interface{}{
			"total_transactions":  batch.TotalTransactions,
			"processed_count":     batch.ProcessedCount,
			"auto_matched_count":  batch.AutoMatchedCount,
			"manual_review_count": batch.ManualReviewCount,
			"unmatched_count":     batch.UnmatchedCount,
			"failed_count":        batch.FailedCount,
			"status":              batch.Status,
			"completed_at":        batch.CompletedAt,
		}).Error
	return writeError(err, "reconciliation batch")
}

func (s *GormStore) GetBatch(ctx context.Context, schoolID, batchID uuid.UUID) (*models.ReconciliationBatch, error) {
	var batch models.ReconciliationBatch
	if err := s.conn(ctx).First(&batch, "id = ? AND school_id = ?", batchID, schoolID).Error; err != nil {
		return nil, readError(err, "reconciliation batch", batchID)
	}
	return &batch, nil
}

func (s *GormStore) CreateMatchAuditLog(ctx context.Context, entry *models.MatchAuditLog) error {
	return writeError(s.conn(ctx).Create(entry).Error, "match audit log")
}

func (s *GormStore) TermRevenue(ctx context.Context, schoolID, termID uuid.UUID) (decimal.Decimal, error) {
	total, err := sum(s.conn(ctx).Model(&models.Payment{}).
		Joins("JOIN invoices ON invoices.id = payments.invoice_id").
		Where("payments.school_id = ? AND payments.matched = ? AND invoices.term_id = ?", schoolID, true, termID),
		"payments.amount")
	return total, readError(err, "payment", nil)
}

func (s *GormStore) OutstandingBalance(ctx context.Context, schoolID uuid.UUID) (decimal.Decimal, error) {
	total, err := sum(s.conn(ctx).Model(&models.Invoice{}).Where("school_id = ?", schoolID), "balance")
	return total, readError(err, "invoice", nil)
}

func (s *GormStore) OutstandingByStudent(ctx context.Context, schoolID uuid.UUID) ([]StudentBalance, error) {
	var rows []StudentBalance
	err := s.conn(ctx).Model(&models.Invoice{}).
		Select("student_id, COALESCE(SUM(balance), 0) AS balance").
		Where("school_id = ?", schoolID).
		Group("student_id").
		Order("student_id ASC").
		Find(&rows).Error
	return rows, readError(err, "invoice", nil)
}

func (s *GormStore) RevenueByClass(ctx context.Context, schoolID, termID uuid.UUID) ([]ClassRevenue, error) {
	var rows []ClassRevenue
	err := s.conn(ctx).Model(&models.Payment{}).
		Select("class_rooms.name AS class_name, COALESCE(SUM(payments.amount), 0) AS revenue").
		Joins("JOIN invoices ON invoices.id = payments.invoice_id").
		Joins("JOIN students ON students.id = payments.student_id").
		Joins("JOIN class_rooms ON class_rooms.id = students.class_room_id").
		Where("payments.school_id = ? AND payments.matched = ? AND invoices.term_id = ?", schoolID, true, termID).
		Group("class_rooms.name").
		Order("class_rooms.name ASC").
		Find(&rows).Error
	return rows, readError(err, "payment", nil)
}
