// Package memory keeps every repository in process memory. It backs the
// "memory" database driver and the service tests.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/timesheet"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/user"
	"github.com/google/uuid"
)

type txKey struct{}

// Store holds the tables. Transactions are serialized by txMu and roll back
// by restoring a snapshot; mu guards the maps themselves. Reads outside a
// transaction share txMu so they never observe uncommitted writes.
type Store struct {
	txMu sync.RWMutex
	mu   sync.RWMutex

	versions  map[string]timesheet.Version
	entries   map[string]timesheet.DayEntry
	documents map[string]timesheet.Document
	presets   map[string]timesheet.WorkingHoursPreset
	users     map[string]user.User

	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		versions:  make(map[string]timesheet.Version),
		entries:   make(map[string]timesheet.DayEntry),
		documents: make(map[string]timesheet.Document),
		presets:   make(map[string]timesheet.WorkingHoursPreset),
		users:     make(map[string]user.User),
		now:       time.Now,
	}
}

type snapshot struct {
	versions  map[string]timesheet.Version
	entries   map[string]timesheet.DayEntry
	documents map[string]timesheet.Document
	presets   map[string]timesheet.WorkingHoursPreset
}

func copyMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshot{
		versions:  copyMap(s.versions),
		entries:   copyMap(s.entries),
		documents: copyMap(s.documents),
		presets:   copyMap(s.presets),
	}
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.versions = snap.versions
	s.entries = snap.entries
	s.documents = snap.documents
	s.presets = snap.presets
}

func inTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(bool)
	return ok
}

// WithinTransaction implements timesheet.Transactor. Nested calls join the
// outer transaction.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if inTx(ctx) {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	defer func() {
		if p := recover(); p != nil {
			s.restore(snap)
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// write runs a mutation. Outside a transaction it still excludes running
// transactions so a rollback cannot discard it.
func (s *Store) write(ctx context.Context, fn func() error) error {
	if !inTx(ctx) {
		s.txMu.Lock()
		defer s.txMu.Unlock()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

func (s *Store) read(ctx context.Context, fn func()) {
	if !inTx(ctx) {
		s.txMu.RLock()
		defer s.txMu.RUnlock()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn()
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// PutUser adds or replaces a directory user.
func (s *Store) PutUser(u user.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	s.users[u.ID] = u
}

// Seed loads directory users, typically from the dev seed file.
func (s *Store) Seed(users []user.User) {
	for _, u := range users {
		s.PutUser(u)
	}
	slog.Info("memory store seeded", "users", len(users))
}

func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

func notFound(err error, what, id string) error {
	return fmt.Errorf("%w: %s %s", err, what, id)
}
