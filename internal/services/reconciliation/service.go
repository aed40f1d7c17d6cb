package reconciliation

import (
	"context"
	"runtime"
	"time"

	"school-finance-backend/internal/lock"
	"school-finance-backend/internal/models"
	"school-finance-backend/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Options struct {
	// Workers bounds how many transactions are matched concurrently.
	Workers int
	// LockTTL caps how long one matching run may hold the school's run lock.
	LockTTL time.Duration
	// Location is used for naive statement timestamps.
	Location *time.Location
}

type ReconciliationService struct {
	store   repository.Store
	locker  lock.Locker
	log     *zap.Logger
	workers int
	lockTTL time.Duration
	loc     *time.Location
}

func NewReconciliationService(store repository.Store, locker lock.Locker, log *zap.Logger, opts Options) *ReconciliationService {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 5 * time.Minute
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &ReconciliationService{
		store:   store,
		locker:  locker,
		log:     log.Named("reconciliation"),
		workers: opts.Workers,
		lockTTL: opts.LockTTL,
		loc:     opts.Location,
	}
}

func (s *ReconciliationService) GetBatch(ctx context.Context, schoolID, batchID uuid.UUID) (*models.ReconciliationBatch, error) {
	return s.store.GetBatch(ctx, schoolID, batchID)
}

func (s *ReconciliationService) ListTransactions(ctx context.Context, schoolID uuid.UUID, filter repository.TransactionFilter) ([]models.BankTransaction, error) {
	return s.store.ListBankTransactions(ctx, schoolID, filter)
}

func (s *ReconciliationService) ListLogs(ctx context.Context, schoolID uuid.UUID, filter repository.LogFilter) ([]models.ReconciliationLog, error) {
	return s.store.ListReconciliationLogs(ctx, schoolID, filter)
}
