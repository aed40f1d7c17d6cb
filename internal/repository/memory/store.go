// Package memory is an in-process implementation of repository.Store. It backs
// STORAGE_DRIVER=memory and the service tests.
package memory

import (
	"context"
	"sync"
	"time"

	"school-finance-backend/internal/repository"

	"github.com/google/uuid"
)

type database struct {
	mu sync.Mutex
	st *state
}

// Store keeps every table in memory behind a single mutex. Transactions hold the
// mutex for their whole duration and restore a snapshot when fn fails, so they
// are serializable.
type Store struct {
	db   *database
	inTx bool
}

var _ repository.Store = (*Store)(nil)

func New() *Store {
	return &Store{db: &database{st: &state{}}}
}

func (s *Store) WithTx(ctx context.Context, fn func(tx repository.Store) error) (err error) {
	if s.inTx {
		return fn(s)
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	snapshot := s.db.st.clone()
	defer func() {
		if r := recover(); r != nil {
			s.db.st = snapshot
			panic(r)
		}
		if err != nil {
			s.db.st = snapshot
		}
	}()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(&Store{db: s.db, inTx: true})
}

// guard locks the database unless the caller already holds it through WithTx.
func (s *Store) guard() func() {
	if s.inTx {
		return func() {}
	}
	s.db.mu.Lock()
	return s.db.mu.Unlock
}

func newID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func stamp(t *time.Time) {
	if t.IsZero() {
		*t = time.Now()
	}
}
