package memory

import (
	"school-finance-backend/internal/models"
)

// state holds rows by value in insertion order.
type state struct {
	schools      []models.School
	parents      []models.Parent
	classRooms   []models.ClassRoom
	terms        []models.Term
	students     []models.Student
	fees         []models.FeeStructure
	invoices     []models.Invoice
	payments     []models.Payment
	ledger       []models.LedgerEntry
	transactions []models.BankTransaction
	logs         []models.ReconciliationLog
	batches      []models.ReconciliationBatch
	audits       []models.MatchAuditLog
}

func (s *state) clone() *state {
	return &state{
		schools:      append([]models.School(nil), s.schools...),
		parents:      append([]models.Parent(nil), s.parents...),
		classRooms:   append([]models.ClassRoom(nil), s.classRooms...),
		terms:        append([]models.Term(nil), s.terms...),
		students:     append([]models.Student(nil), s.students...),
		fees:         append([]models.FeeStructure(nil), s.fees...),
		invoices:     append([]models.Invoice(nil), s.invoices...),
		payments:     append([]models.Payment(nil), s.payments...),
		ledger:       append([]models.LedgerEntry(nil), s.ledger...),
		transactions: append([]models.BankTransaction(nil), s.transactions...),
		logs:         append([]models.ReconciliationLog(nil), s.logs...),
		batches:      append([]models.ReconciliationBatch(nil), s.batches...),
		audits:       append([]models.MatchAuditLog(nil), s.audits...),
	}
}
