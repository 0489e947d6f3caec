// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"
	"time"

	"github.com/jorgyvanlima/pdvc1/internal/domain"

	"github.com/shopspring/decimal"
)

// SaleFetcher reads order summaries from the sales collaborator.
type SaleFetcher interface {
	GetSale(ctx context.Context, saleID int64) (*domain.SaleSummary, error)
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}

// Store opens units of work against the ledger's backing store.
// Tx runs fn atomically: if fn returns an error nothing it did is kept.
// View runs fn against a consistent read-only snapshot.
type Store interface {
	Tx(ctx context.Context, fn func(q Queries) error) error
	View(ctx context.Context, fn func(q Queries) error) error
	Ping(ctx context.Context) error
}

// Queries defines every data operation the ledger needs. Lookups return
// *domain.ErrNotFound when the row is absent; inserts that break a
// uniqueness rule return *domain.ErrDuplicate.
type Queries interface {
	// Categories
	ListCategories(ctx context.Context, t domain.CategoryType, activeOnly bool) ([]domain.FinancialCategory, error)
	GetCategory(ctx context.Context, id int64) (*domain.FinancialCategory, error)
	InsertCategory(ctx context.Context, c *domain.FinancialCategory) error
	SetCategoryActive(ctx context.Context, id int64, active bool) error

	// Bank accounts
	ListBankAccounts(ctx context.Context, activeOnly bool) ([]domain.BankAccount, error)
	GetBankAccount(ctx context.Context, id int64) (*domain.BankAccount, error)
	InsertBankAccount(ctx context.Context, b *domain.BankAccount) error
	// AdjustBankBalance adds delta to the balance in one relative update and
	// returns the new balance.
	AdjustBankBalance(ctx context.Context, id int64, delta decimal.Decimal) (decimal.Decimal, error)

	// Payables and receivables
	InsertAccount(ctx context.Context, a *domain.Account) error
	GetAccount(ctx context.Context, kind domain.AccountKind, id int64) (*domain.Account, error)
	// LockAccount reads the account and holds it until the unit of work ends.
	LockAccount(ctx context.Context, kind domain.AccountKind, id int64) (*domain.Account, error)
	UpdateAccount(ctx context.Context, a *domain.Account) error
	// DeleteAccount removes the account with its installments, attachments and alerts.
	DeleteAccount(ctx context.Context, kind domain.AccountKind, id int64) error
	ListAccounts(ctx context.Context, f domain.AccountFilter) ([]domain.Account, int, error)
	InsertAttachment(ctx context.Context, kind domain.AccountKind, accountID int64, att *domain.Attachment) error

	// Installments
	InsertInstallments(ctx context.Context, kind domain.AccountKind, accountID int64, items []domain.Installment) error
	ListInstallments(ctx context.Context, kind domain.AccountKind, accountID int64) ([]domain.Installment, error)
	SetInstallmentStatus(ctx context.Context, id int64, status domain.InstallmentStatus) error

	// Transactions (append-only)
	InsertTransaction(ctx context.Context, tx *domain.FinancialTransaction) error
	ListTransactions(ctx context.Context, f domain.TransactionFilter) ([]domain.FinancialTransaction, error)
	CountAccountTransactions(ctx context.Context, kind domain.AccountKind, accountID int64) (int, error)

	// Daily cash
	GetCashReport(ctx context.Context, date time.Time) (*domain.DailyCashReport, error)
	LockCashReport(ctx context.Context, date time.Time) (*domain.DailyCashReport, error)
	InsertCashReport(ctx context.Context, r *domain.DailyCashReport) error
	UpdateCashReport(ctx context.Context, r *domain.DailyCashReport) error
	ListCashReports(ctx context.Context, f domain.CashReportFilter) ([]domain.DailyCashReport, int, error)

	// Alerts
	InsertAlert(ctx context.Context, a *domain.PaymentAlert) error
	GetAlert(ctx context.Context, id int64) (*domain.PaymentAlert, error)
	UpdateAlert(ctx context.Context, a *domain.PaymentAlert) error
	ListAlerts(ctx context.Context, f domain.AlertFilter) ([]domain.PaymentAlert, int, error)
	// CountActiveAlerts groups unread, non-dismissed alerts by priority.
	CountActiveAlerts(ctx context.Context) (map[domain.AlertPriority]int, error)

	// Audit sink
	InsertAudit(ctx context.Context, e *domain.AuditEntry) error
}
