// Package memory provides an in-process ledger store. It keeps the same
// unit-of-work contract as the Postgres store: a Tx either commits all of its
// writes or none of them. It backs local runs without DATABASE_URL and the
// service test suites.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/jorgyvanlima/pdvc1/internal/domain"
	"github.com/jorgyvanlima/pdvc1/internal/port"
)

type accountKey struct {
	kind domain.AccountKind
	id   int64
}

// state is every table. All values are stored by value so a shallow map
// clone is a full snapshot.
type state struct {
	ids map[string]int64

	categories   map[int64]domain.FinancialCategory
	banks        map[int64]domain.BankAccount
	accounts     map[accountKey]domain.Account
	installments map[int64]domain.Installment
	transactions []domain.FinancialTransaction
	reports      map[int64]domain.DailyCashReport
	reportByDate map[string]int64
	alerts       map[int64]domain.PaymentAlert
	alertKeys    map[string]int64
	audit        []domain.AuditEntry
}

func newState() *state {
	return &state{
		ids:          make(map[string]int64),
		categories:   make(map[int64]domain.FinancialCategory),
		banks:        make(map[int64]domain.BankAccount),
		accounts:     make(map[accountKey]domain.Account),
		installments: make(map[int64]domain.Installment),
		reports:      make(map[int64]domain.DailyCashReport),
		reportByDate: make(map[string]int64),
		alerts:       make(map[int64]domain.PaymentAlert),
		alertKeys:    make(map[string]int64),
	}
}

func (s *state) clone() *state {
	return &state{
		ids:          maps.Clone(s.ids),
		categories:   maps.Clone(s.categories),
		banks:        maps.Clone(s.banks),
		accounts:     maps.Clone(s.accounts),
		installments: maps.Clone(s.installments),
		transactions: slices.Clone(s.transactions),
		reports:      maps.Clone(s.reports),
		reportByDate: maps.Clone(s.reportByDate),
		alerts:       maps.Clone(s.alerts),
		alertKeys:    maps.Clone(s.alertKeys),
		audit:        slices.Clone(s.audit),
	}
}

func (s *state) next(table string) int64 {
	s.ids[table]++
	return s.ids[table]
}

// Store is a mutex-guarded in-memory implementation of port.Store.
// Units of work are serialized, which gives the same guarantees as row
// locks plus a serializable commit.
type Store struct {
	mu sync.RWMutex
	st *state
}

var _ port.Store = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{st: newState()}
}

// Tx runs fn under the write lock and restores the snapshot taken before
// fn if it returns an error or panics.
func (s *Store) Tx(ctx context.Context, fn func(q port.Queries) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	defer func() {
		if p := recover(); p != nil {
			s.st = snapshot
			panic(p)
		}
		if err != nil {
			s.st = snapshot
		}
	}()
	return fn(&queries{st: s.st})
}

// View runs fn under the read lock. Writes through q from View are a bug.
func (s *Store) View(ctx context.Context, fn func(q port.Queries) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&queries{st: s.st})
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// AuditEntries returns every committed audit record in write order.
func (s *Store) AuditEntries() []domain.AuditEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.st.audit)
}
