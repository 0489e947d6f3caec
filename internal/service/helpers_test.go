package service_test

import (
	"context"
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/jorgyvanlima/pdvc1/internal/domain"
	"github.com/jorgyvanlima/pdvc1/internal/infra/memory"
	"github.com/jorgyvanlima/pdvc1/internal/infra/observability"
	"github.com/jorgyvanlima/pdvc1/internal/port"
	"github.com/jorgyvanlima/pdvc1/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const actor = "user-42"

// --- Fixture ---

type fixture struct {
	store     *memory.Store
	metrics   *observability.Metrics
	opts      service.Options
	now       time.Time
	today     time.Time
	registry  *service.RegistryService
	ledger    *service.LedgerService
	cash      *service.DailyCashService
	alerts    *service.AlertService
	dashboard *service.DashboardService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)

	now := time.Date(2025, time.March, 10, 14, 30, 0, 0, loc)
	f := &fixture{
		store:   memory.New(),
		metrics: observability.NewMetrics(),
		now:     now,
		today:   time.Date(2025, time.March, 10, 0, 0, 0, 0, loc),
		opts: service.Options{
			Location:      loc,
			DueSoonDays:   7,
			PageSize:      25,
			AlertPageSize: 50,
			Now:           func() time.Time { return now },
		},
	}
	f.build(nil)
	return f
}

// build wires the services on the fixture store, optionally with a sale fetcher.
func (f *fixture) build(sales port.SaleFetcher) {
	logger := zap.NewNop()
	f.registry = service.NewRegistryService(f.store, logger, f.opts)
	f.ledger = service.NewLedgerService(f.store, sales, f.metrics, logger, f.opts)
	f.cash = service.NewDailyCashService(f.store, f.metrics, logger, f.opts)
	f.alerts = service.NewAlertService(f.store, f.metrics, logger, f.opts)
	f.dashboard = service.NewDashboardService(f.store, f.metrics, logger, f.opts)
}

func (f *fixture) day(offset int) time.Time {
	return f.today.AddDate(0, 0, offset)
}

func (f *fixture) bank(t *testing.T, balance string) *domain.BankAccount {
	t.Helper()
	b, err := f.registry.CreateBankAccount(context.Background(), actor, &domain.CreateBankAccountRequest{
		Name:           "Operating",
		BankName:       "Banco do Brasil",
		InitialBalance: dec(balance),
	})
	require.NoError(t, err)
	return b
}

func (f *fixture) account(t *testing.T, kind domain.AccountKind, amount string, dueOffset int) *domain.AccountView {
	t.Helper()
	v, err := f.ledger.Create(context.Background(), kind, actor, &domain.CreateAccountRequest{
		Description: "Invoice",
		Amount:      dec(amount),
		DueDate:     f.day(dueOffset),
	})
	require.NoError(t, err)
	return v
}

func (f *fixture) balance(t *testing.T, id int64) decimal.Decimal {
	t.Helper()
	b, err := f.registry.GetBankAccount(context.Background(), id)
	require.NoError(t, err)
	return b.CurrentBalance
}

func (f *fixture) auditCount(table string, op domain.AuditOperation) int {
	n := 0
	for _, e := range f.store.AuditEntries() {
		if e.Table == table && e.Operation == op {
			n++
		}
	}
	return n
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ptr[T any](v T) *T {
	return &v
}

// requireDecimal compares amounts by value, ignoring the exponent.
func requireDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	require.Truef(t, dec(want).Equal(got), "expected %s, got %s %v", want, got.String(), msgAndArgs)
}

// --- Fakes ---

// failingAuditStore runs real units of work whose audit writes always fail.
type failingAuditStore struct {
	*memory.Store
}

func (s failingAuditStore) Tx(ctx context.Context, fn func(q port.Queries) error) error {
	return s.Store.Tx(ctx, func(q port.Queries) error {
		return fn(failingAudit{q})
	})
}

type failingAudit struct {
	port.Queries
}

var errAuditDown = errors.New("audit sink unavailable")

func (failingAudit) InsertAudit(context.Context, *domain.AuditEntry) error {
	return errAuditDown
}

type fakeSales struct {
	sales map[int64]*domain.SaleSummary
	calls int
}

func (f *fakeSales) GetSale(_ context.Context, id int64) (*domain.SaleSummary, error) {
	f.calls++
	sale, ok := f.sales[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "sale", ID: "missing"}
	}
	return sale, nil
}
