package memory

import (
	"context"
	"sort"
	"time"

	"school-finance-backend/internal/apperrors"
	"school-finance-backend/internal/models"
	"school-finance-backend/internal/repository"

	"github.com/google/uuid"
)

func (s *Store) CreateBankTransaction(ctx context.Context, tx *models.BankTransaction) error {
	defer s.guard()()
	for _, existing := range s.db.st.transactions {
		if existing.SchoolID == tx.SchoolID && existing.Reference == tx.Reference {
			return apperrors.New(apperrors.KindConflict, apperrors.CodeDuplicateReference,
				"bank transaction reference already exists").WithContext("reference", tx.Reference)
		}
	}
	newID(&tx.ID)
	stamp(&tx.CreatedAt)
	stamp(&tx.UpdatedAt)
	s.db.st.transactions = append(s.db.st.transactions, *tx)
	return nil
}

func (s *Store) transactionIndex(schoolID, id uuid.UUID) int {
	for i, tx := range s.db.st.transactions {
		if tx.ID == id && tx.SchoolID == schoolID {
			return i
		}
	}
	return -1
}

func (s *Store) UpdateBankTransaction(ctx context.Context, tx *models.BankTransaction) error {
	defer s.guard()()
	i := s.transactionIndex(tx.SchoolID, tx.ID)
	if i < 0 {
		return apperrors.NotFound("bank transaction", tx.ID)
	}
	stored := &s.db.st.transactions[i]
	if stored.Matched {
		return nil
	}
	tx.UpdatedAt = time.Now()
	stored.Amount = tx.Amount
	stored.Narration = tx.Narration
	stored.TransactionDate = tx.TransactionDate
	stored.ImportBatchID = tx.ImportBatchID
	stored.UpdatedAt = tx.UpdatedAt
	return nil
}

func (s *Store) GetBankTransaction(ctx context.Context, schoolID, id uuid.UUID) (*models.BankTransaction, error) {
	defer s.guard()()
	i := s.transactionIndex(schoolID, id)
	if i < 0 {
		return nil, apperrors.NotFound("bank transaction", id)
	}
	tx := s.db.st.transactions[i]
	return &tx, nil
}

func (s *Store) LockBankTransactionByReference(ctx context.Context, schoolID uuid.UUID, reference string) (*models.BankTransaction, error) {
	defer s.guard()()
	for _, tx := range s.db.st.transactions {
		if tx.SchoolID == schoolID && tx.Reference == reference {
			return &tx, nil
		}
	}
	return nil, apperrors.NotFound("bank transaction", reference)
}

func (s *Store) LockBankTransaction(ctx context.Context, schoolID, id uuid.UUID) (*models.BankTransaction, error) {
	return s.GetBankTransaction(ctx, schoolID, id)
}

func (s *Store) ListUnmatchedTransactions(ctx context.Context, schoolID uuid.UUID) ([]models.BankTransaction, error) {
	defer s.guard()()
	var txs []models.BankTransaction
	for _, tx := range s.db.st.transactions {
		if tx.SchoolID == schoolID && !tx.Matched {
			txs = append(txs, tx)
		}
	}
	sort.SliceStable(txs, func(i, j int) bool {
		if !txs[i].TransactionDate.Equal(txs[j].TransactionDate) {
			return txs[i].TransactionDate.Before(txs[j].TransactionDate)
		}
		return txs[i].CreatedAt.Before(txs[j].CreatedAt)
	})
	return txs, nil
}

func (s *Store) MarkTransactionMatched(ctx context.Context, schoolID, id uuid.UUID) (bool, error) {
	defer s.guard()()
	i := s.transactionIndex(schoolID, id)
	if i < 0 {
		return false, nil
	}
	stored := &s.db.st.transactions[i]
	if stored.Matched {
		return false, nil
	}
	stored.Matched = true
	stored.UpdatedAt = time.Now()
	return true, nil
}

func (s *Store) SetTransactionConfidence(ctx context.Context, schoolID, id uuid.UUID, score float64) error {
	defer s.guard()()
	i := s.transactionIndex(schoolID, id)
	if i < 0 {
		return apperrors.NotFound("bank transaction", id)
	}
	s.db.st.transactions[i].ConfidenceScore = &score
	return nil
}

func (s *Store) ListBankTransactions(ctx context.Context, schoolID uuid.UUID, filter repository.TransactionFilter) ([]models.BankTransaction, error) {
	defer s.guard()()
	var txs []models.BankTransaction
	for _, tx := range s.db.st.transactions {
		if tx.SchoolID != schoolID {
			continue
		}
		if filter.Matched != nil && tx.Matched != *filter.Matched {
			continue
		}
		txs = append(txs, tx)
	}
	sort.SliceStable(txs, func(i, j int) bool { return txs[i].TransactionDate.After(txs[j].TransactionDate) })
	return txs, nil
}
