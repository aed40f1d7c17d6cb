package memory

import (
	"context"
	"sort"

	"school-finance-backend/internal/apperrors"
	"school-finance-backend/internal/models"
	"school-finance-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func (s *Store) CreateReconciliationLog(ctx context.Context, log *models.ReconciliationLog) error {
	defer s.guard()()
	newID(&log.ID)
	stamp(&log.ProcessedAt)
	s.db.st.logs = append(s.db.st.logs, *log)
	return nil
}

func (s *Store) ListReconciliationLogs(ctx context.Context, schoolID uuid.UUID, filter repository.LogFilter) ([]models.ReconciliationLog, error) {
	defer s.guard()()
	var logs []models.ReconciliationLog
	for _, log := range s.db.st.logs {
		if log.SchoolID != schoolID {
			continue
		}
		if filter.Status != "" && log.Status != filter.Status {
			continue
		}
		if filter.MatchedStudentID != nil && (log.MatchedStudentID == nil || *log.MatchedStudentID != *filter.MatchedStudentID) {
			continue
		}
		if filter.BatchID != nil && (log.BatchID == nil || *log.BatchID != *filter.BatchID) {
			continue
		}
		logs = append(logs, log)
	}
	sort.SliceStable(logs, func(i, j int) bool { return logs[i].ProcessedAt.After(logs[j].ProcessedAt) })
	return logs, nil
}

func (s *Store) CreateBatch(ctx context.Context, batch *models.ReconciliationBatch) error {
	defer s.guard()()
	newID(&batch.ID)
	stamp(&batch.CreatedAt)
	s.db.st.batches = append(s.db.st.batches, *batch)
	return nil
}

func (s *Store) UpdateBatch(ctx context.Context, batch *models.ReconciliationBatch) error {
	defer s.guard()()
	for i, stored := range s.db.st.batches {
		if stored.ID == batch.ID && stored.SchoolID == batch.SchoolID {
			s.db.st.batches[i] = *batch
			return nil
		}
	}
	return apperrors.NotFound("reconciliation batch", batch.ID)
}

func (s *Store) GetBatch(ctx context.Context, schoolID, batchID uuid.UUID) (*models.ReconciliationBatch, error) {
	defer s.guard()()
	for _, batch := range s.db.st.batches {
		if batch.ID == batchID && batch.SchoolID == schoolID {
			return &batch, nil
		}
	}
	return nil, apperrors.NotFound("reconciliation batch", batchID)
}

func (s *Store) CreateMatchAuditLog(ctx context.Context, entry *models.MatchAuditLog) error {
	defer s.guard()()
	newID(&entry.ID)
	stamp(&entry.CreatedAt)
	s.db.st.audits = append(s.db.st.audits, *entry)
	return nil
}

// AuditLogs returns the approval audit trail of a school. It is not part of
// repository.Store and exists for tests.
func (s *Store) AuditLogs(schoolID uuid.UUID) []models.MatchAuditLog {
	defer s.guard()()
	var out []models.MatchAuditLog
	for _, entry := range s.db.st.audits {
		if entry.SchoolID == schoolID {
			out = append(out, entry)
		}
	}
	return out
}

func (s *Store) termInvoices(schoolID, termID uuid.UUID) map[uuid.UUID]models.Invoice {
	invoices := make(map[uuid.UUID]models.Invoice)
	for _, invoice := range s.db.st.invoices {
		if invoice.SchoolID == schoolID && invoice.TermID == termID {
			invoices[invoice.ID] = invoice
		}
	}
	return invoices
}

func (s *Store) TermRevenue(ctx context.Context, schoolID, termID uuid.UUID) (decimal.Decimal, error) {
	defer s.guard()()
	invoices := s.termInvoices(schoolID, termID)
	total := decimal.Zero
	for _, payment := range s.db.st.payments {
		if payment.SchoolID != schoolID || !payment.Matched || payment.InvoiceID == nil {
			continue
		}
		if _, ok := invoices[*payment.InvoiceID]; ok {
			total = total.Add(payment.Amount)
		}
	}
	return total, nil
}

func (s *Store) OutstandingBalance(ctx context.Context, schoolID uuid.UUID) (decimal.Decimal, error) {
	defer s.guard()()
	total := decimal.Zero
	for _, invoice := range s.db.st.invoices {
		if invoice.SchoolID == schoolID {
			total = total.Add(invoice.Balance)
		}
	}
	return total, nil
}

func (s *Store) OutstandingByStudent(ctx context.Context, schoolID uuid.UUID) ([]repository.StudentBalance, error) {
	defer s.guard()()
	totals := make(map[uuid.UUID]decimal.Decimal)
	for _, invoice := range s.db.st.invoices {
		if invoice.SchoolID == schoolID {
			totals[invoice.StudentID] = totals[invoice.StudentID].Add(invoice.Balance)
		}
	}

	rows := make([]repository.StudentBalance, 0, len(totals))
	for id, balance := range totals {
		rows = append(rows, repository.StudentBalance{StudentID: id, Balance: balance})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].StudentID.String() < rows[j].StudentID.String() })
	return rows, nil
}

func (s *Store) RevenueByClass(ctx context.Context, schoolID, termID uuid.UUID) ([]repository.ClassRevenue, error) {
	defer s.guard()()
	invoices := s.termInvoices(schoolID, termID)

	classNames := make(map[uuid.UUID]string)
	for _, room := range s.db.st.classRooms {
		if room.SchoolID == schoolID {
			classNames[room.ID] = room.Name
		}
	}
	studentClass := make(map[uuid.UUID]string)
	for _, student := range s.db.st.students {
		if name, ok := classNames[student.ClassRoomID]; ok && student.SchoolID == schoolID {
			studentClass[student.ID] = name
		}
	}

	totals := make(map[string]decimal.Decimal)
	for _, payment := range s.db.st.payments {
		if payment.SchoolID != schoolID || !payment.Matched || payment.InvoiceID == nil || payment.StudentID == nil {
			continue
		}
		if _, ok := invoices[*payment.InvoiceID]; !ok {
			continue
		}
		name, ok := studentClass[*payment.StudentID]
		if !ok {
			continue
		}
		totals[name] = totals[name].Add(payment.Amount)
	}

	rows := make([]repository.ClassRevenue, 0, len(totals))
	for name, revenue := range totals {
		rows = append(rows, repository.ClassRevenue{ClassName: name, Revenue: revenue})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ClassName < rows[j].ClassName })
	return rows, nil
}
