package reports

import (
	"context"

	"school-finance-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Service struct {
	store repository.Store
}

func NewService(store repository.Store) *Service {
	return &Service{store: store}
}

type TermRevenue struct {
	TermID  uuid.UUID       `json:"term_id"`
	Term    string          `json:"term"`
	Revenue decimal.Decimal `json:"revenue"`
}

// TermRevenue sums matched payments applied to the term's invoices.
func (s *Service) TermRevenue(ctx context.Context, schoolID, termID uuid.UUID) (*TermRevenue, error) {
	term, err := s.store.GetTerm(ctx, schoolID, termID)
	if err != nil {
		return nil, err
	}
	revenue, err := s.store.TermRevenue(ctx, schoolID, termID)
	if err != nil {
		return nil, err
	}
	return &TermRevenue{TermID: term.ID, Term: term.Name, Revenue: revenue}, nil
}

// OutstandingBalances sums every invoice balance of the school. Overpaid invoices reduce the total.
func (s *Service) OutstandingBalances(ctx context.Context, schoolID uuid.UUID) (decimal.Decimal, error) {
	return s.store.OutstandingBalance(ctx, schoolID)
}

func (s *Service) RevenueByClass(ctx context.Context, schoolID, termID uuid.UUID) ([]repository.ClassRevenue, error) {
	if _, err := s.store.GetTerm(ctx, schoolID, termID); err != nil {
		return nil, err
	}
	rows, err := s.store.RevenueByClass(ctx, schoolID, termID)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []repository.ClassRevenue{}
	}
	return rows, nil
}
