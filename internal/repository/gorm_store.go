package repository

import (
	"context"
	"errors"
	"fmt"

	"school-finance-backend/internal/apperrors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

// GormStore implements Store on top of gorm and postgres.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) WithTx(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

func (s *GormStore) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// sumRow receives single-value aggregates.
type sumRow struct {
	Total decimal.Decimal
}

// sum evaluates COALESCE(SUM(expr), 0) over q.
func sum(q *gorm.DB, expr string) (decimal.Decimal, error) {
	var row sumRow
	err := q.Select("COALESCE(SUM(" + expr + "), 0) AS total").Find(&row).Error
	return row.Total, err
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// readError maps a lookup error onto the application taxonomy.
func readError(err error, entity string, id interface{}) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound(entity, id)
	}
	return apperrors.Internal(fmt.Sprintf("read %s", entity), err)
}

// writeError maps an insert/update error onto the application taxonomy.
func writeError(err error, entity string) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return apperrors.Conflict(entity, fmt.Sprintf("%s already exists", entity), err)
	}
	return apperrors.Internal(fmt.Sprintf("write %s", entity), err)
}
