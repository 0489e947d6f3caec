package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/jorgyvanlima/pdvc1/internal/domain"
	"github.com/jorgyvanlima/pdvc1/internal/port"

	"github.com/shopspring/decimal"
)

// queries implements port.Queries over a state the caller already holds
// the lock for.
type queries struct {
	st *state
}

var _ port.Queries = (*queries)(nil)

func notFound(resource string, id int64) error {
	return &domain.ErrNotFound{Resource: resource, ID: strconv.FormatInt(id, 10)}
}

// paginate slices items for a 1-based page. A zero limit returns everything.
func paginate[T any](items []T, page, limit int) []T {
	if limit <= 0 {
		return items
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= len(items) {
		return []T{}
	}
	end := min(start+limit, len(items))
	return items[start:end]
}

// ============================================================
// Categories
// ============================================================

func (q *queries) ListCategories(_ context.Context, t domain.CategoryType, activeOnly bool) ([]domain.FinancialCategory, error) {
	out := []domain.FinancialCategory{}
	for _, c := range q.st.categories {
		if activeOnly && !c.Active {
			continue
		}
		if t != "" && c.Type != t {
			continue
		}
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b domain.FinancialCategory) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (q *queries) GetCategory(_ context.Context, id int64) (*domain.FinancialCategory, error) {
	c, ok := q.st.categories[id]
	if !ok {
		return nil, notFound("category", id)
	}
	return &c, nil
}

func (q *queries) InsertCategory(_ context.Context, c *domain.FinancialCategory) error {
	for _, existing := range q.st.categories {
		if existing.Name == c.Name && existing.Type == c.Type {
			return &domain.ErrDuplicate{Key: "category:" + string(c.Type) + ":" + c.Name}
		}
	}
	c.ID = q.st.next("categories")
	q.st.categories[c.ID] = *c
	return nil
}

func (q *queries) SetCategoryActive(_ context.Context, id int64, active bool) error {
	c, ok := q.st.categories[id]
	if !ok {
		return notFound("category", id)
	}
	c.Active = active
	q.st.categories[id] = c
	return nil
}

// ============================================================
// Bank accounts
// ============================================================

func (q *queries) ListBankAccounts(_ context.Context, activeOnly bool) ([]domain.BankAccount, error) {
	out := []domain.BankAccount{}
	for _, b := range q.st.banks {
		if activeOnly && !b.Active {
			continue
		}
		out = append(out, b)
	}
	slices.SortFunc(out, func(a, b domain.BankAccount) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (q *queries) GetBankAccount(_ context.Context, id int64) (*domain.BankAccount, error) {
	b, ok := q.st.banks[id]
	if !ok {
		return nil, notFound("bank account", id)
	}
	return &b, nil
}

func (q *queries) InsertBankAccount(_ context.Context, b *domain.BankAccount) error {
	b.ID = q.st.next("banks")
	q.st.banks[b.ID] = *b
	return nil
}

func (q *queries) AdjustBankBalance(_ context.Context, id int64, delta decimal.Decimal) (decimal.Decimal, error) {
	b, ok := q.st.banks[id]
	if !ok {
		return decimal.Zero, notFound("bank account", id)
	}
	b.CurrentBalance = b.CurrentBalance.Add(delta)
	q.st.banks[id] = b
	return b.CurrentBalance, nil
}

// ============================================================
// Payables and receivables
// ============================================================

func (q *queries) InsertAccount(_ context.Context, a *domain.Account) error {
	a.ID = q.st.next(string(a.Kind))
	for i := range a.Attachments {
		a.Attachments[i].ID = q.st.next("attachments")
	}
	stored := *a.Clone()
	q.st.accounts[accountKey{a.Kind, a.ID}] = stored
	return nil
}

func (q *queries) GetAccount(_ context.Context, kind domain.AccountKind, id int64) (*domain.Account, error) {
	a, ok := q.st.accounts[accountKey{kind, id}]
	if !ok {
		return nil, notFound(kind.Resource(), id)
	}
	return a.Clone(), nil
}

// LockAccount is GetAccount: the whole unit of work already holds the lock.
func (q *queries) LockAccount(ctx context.Context, kind domain.AccountKind, id int64) (*domain.Account, error) {
	return q.GetAccount(ctx, kind, id)
}

func (q *queries) UpdateAccount(_ context.Context, a *domain.Account) error {
	key := accountKey{a.Kind, a.ID}
	existing, ok := q.st.accounts[key]
	if !ok {
		return notFound(a.Kind.Resource(), a.ID)
	}
	stored := *a.Clone()
	stored.Attachments = existing.Attachments
	q.st.accounts[key] = stored
	return nil
}

func (q *queries) DeleteAccount(_ context.Context, kind domain.AccountKind, id int64) error {
	key := accountKey{kind, id}
	if _, ok := q.st.accounts[key]; !ok {
		return notFound(kind.Resource(), id)
	}
	delete(q.st.accounts, key)
	for iid, inst := range q.st.installments {
		if inst.Kind == kind && inst.AccountID == id {
			delete(q.st.installments, iid)
		}
	}
	for aid, al := range q.st.alerts {
		if al.Kind == kind && al.AccountID == id {
			delete(q.st.alerts, aid)
			delete(q.st.alertKeys, alertKey(&al))
		}
	}
	return nil
}

func (q *queries) ListAccounts(_ context.Context, f domain.AccountFilter) ([]domain.Account, int, error) {
	out := []domain.Account{}
	for key, a := range q.st.accounts {
		if key.kind != f.Kind {
			continue
		}
		if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, a.Status) {
			continue
		}
		if f.CounterpartyID != nil && (a.CounterpartyID == nil || *a.CounterpartyID != *f.CounterpartyID) {
			continue
		}
		if f.DueFrom != nil && a.DueDate.Before(*f.DueFrom) {
			continue
		}
		if f.DueBefore != nil && !a.DueDate.Before(*f.DueBefore) {
			continue
		}
		out = append(out, *a.Clone())
	}
	slices.SortFunc(out, func(a, b domain.Account) int {
		return cmp.Or(a.DueDate.Compare(b.DueDate), cmp.Compare(a.ID, b.ID))
	})
	return paginate(out, f.Page, f.Limit), len(out), nil
}

func (q *queries) InsertAttachment(_ context.Context, kind domain.AccountKind, accountID int64, att *domain.Attachment) error {
	key := accountKey{kind, accountID}
	a, ok := q.st.accounts[key]
	if !ok {
		return notFound(kind.Resource(), accountID)
	}
	att.ID = q.st.next("attachments")
	a.Attachments = append(slices.Clone(a.Attachments), *att)
	q.st.accounts[key] = a
	return nil
}

// ============================================================
// Installments
// ============================================================

func (q *queries) InsertInstallments(_ context.Context, kind domain.AccountKind, accountID int64, items []domain.Installment) error {
	for i := range items {
		items[i].ID = q.st.next("installments")
		items[i].Kind = kind
		items[i].AccountID = accountID
		q.st.installments[items[i].ID] = items[i]
	}
	return nil
}

func (q *queries) ListInstallments(_ context.Context, kind domain.AccountKind, accountID int64) ([]domain.Installment, error) {
	out := []domain.Installment{}
	for _, inst := range q.st.installments {
		if inst.Kind == kind && inst.AccountID == accountID {
			out = append(out, inst)
		}
	}
	slices.SortFunc(out, func(a, b domain.Installment) int { return cmp.Compare(a.Number, b.Number) })
	return out, nil
}

func (q *queries) SetInstallmentStatus(_ context.Context, id int64, status domain.InstallmentStatus) error {
	inst, ok := q.st.installments[id]
	if !ok {
		return notFound("installment", id)
	}
	inst.Status = status
	q.st.installments[id] = inst
	return nil
}

// ============================================================
// Transactions
// ============================================================

func (q *queries) InsertTransaction(_ context.Context, tx *domain.FinancialTransaction) error {
	tx.ID = q.st.next("transactions")
	q.st.transactions = append(q.st.transactions, *tx)
	return nil
}

func matchID(want, got *int64) bool {
	return want == nil || (got != nil && *got == *want)
}

func (q *queries) ListTransactions(_ context.Context, f domain.TransactionFilter) ([]domain.FinancialTransaction, error) {
	out := []domain.FinancialTransaction{}
	for _, tx := range q.st.transactions {
		if f.From != nil && tx.Date.Before(*f.From) {
			continue
		}
		if f.To != nil && !tx.Date.Before(*f.To) {
			continue
		}
		if f.Type != "" && tx.Type != f.Type {
			continue
		}
		if !matchID(f.BankAccountID, tx.BankAccountID) || !matchID(f.ReportID, tx.DailyCashReportID) {
			continue
		}
		if !matchID(f.PayableID, tx.PayableID) || !matchID(f.ReceivableID, tx.ReceivableID) {
			continue
		}
		out = append(out, tx)
	}
	slices.SortFunc(out, func(a, b domain.FinancialTransaction) int {
		return cmp.Or(b.Date.Compare(a.Date), cmp.Compare(b.ID, a.ID))
	})
	return out, nil
}

func (q *queries) CountAccountTransactions(_ context.Context, kind domain.AccountKind, accountID int64) (int, error) {
	n := 0
	for _, tx := range q.st.transactions {
		link := tx.PayableID
		if kind == domain.Receivable {
			link = tx.ReceivableID
		}
		if link != nil && *link == accountID {
			n++
		}
	}
	return n, nil
}

// ============================================================
// Daily cash
// ============================================================

func (q *queries) GetCashReport(_ context.Context, date time.Time) (*domain.DailyCashReport, error) {
	id, ok := q.st.reportByDate[domain.CivilDate(date)]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "daily cash report", ID: domain.CivilDate(date)}
	}
	r := q.st.reports[id]
	return &r, nil
}

func (q *queries) LockCashReport(ctx context.Context, date time.Time) (*domain.DailyCashReport, error) {
	return q.GetCashReport(ctx, date)
}

func (q *queries) InsertCashReport(_ context.Context, r *domain.DailyCashReport) error {
	day := domain.CivilDate(r.Date)
	if _, ok := q.st.reportByDate[day]; ok {
		return &domain.ErrDuplicate{Key: "daily_cash:" + day}
	}
	r.ID = q.st.next("reports")
	stored := *r
	stored.Transactions = nil
	q.st.reports[r.ID] = stored
	q.st.reportByDate[day] = r.ID
	return nil
}

func (q *queries) UpdateCashReport(_ context.Context, r *domain.DailyCashReport) error {
	if _, ok := q.st.reports[r.ID]; !ok {
		return notFound("daily cash report", r.ID)
	}
	stored := *r
	stored.Transactions = nil
	q.st.reports[r.ID] = stored
	return nil
}

func (q *queries) ListCashReports(_ context.Context, f domain.CashReportFilter) ([]domain.DailyCashReport, int, error) {
	out := []domain.DailyCashReport{}
	for _, r := range q.st.reports {
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		if f.From != nil && r.Date.Before(*f.From) {
			continue
		}
		if f.To != nil && r.Date.After(*f.To) {
			continue
		}
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b domain.DailyCashReport) int { return b.Date.Compare(a.Date) })
	return paginate(out, f.Page, f.Limit), len(out), nil
}

// ============================================================
// Alerts
// ============================================================

func alertKey(a *domain.PaymentAlert) string {
	return fmt.Sprintf("%s:%d:%s:%s", a.Kind, a.AccountID, a.Type, domain.CivilDate(a.AlertDay))
}

func (q *queries) InsertAlert(_ context.Context, a *domain.PaymentAlert) error {
	key := alertKey(a)
	if _, ok := q.st.alertKeys[key]; ok {
		return &domain.ErrDuplicate{Key: key}
	}
	a.ID = q.st.next("alerts")
	q.st.alerts[a.ID] = *a
	q.st.alertKeys[key] = a.ID
	return nil
}

func (q *queries) GetAlert(_ context.Context, id int64) (*domain.PaymentAlert, error) {
	a, ok := q.st.alerts[id]
	if !ok {
		return nil, notFound("payment alert", id)
	}
	return &a, nil
}

func (q *queries) UpdateAlert(_ context.Context, a *domain.PaymentAlert) error {
	if _, ok := q.st.alerts[a.ID]; !ok {
		return notFound("payment alert", a.ID)
	}
	q.st.alerts[a.ID] = *a
	return nil
}

func matchFlag(want *bool, got bool) bool {
	return want == nil || *want == got
}

func (q *queries) ListAlerts(_ context.Context, f domain.AlertFilter) ([]domain.PaymentAlert, int, error) {
	out := []domain.PaymentAlert{}
	for _, a := range q.st.alerts {
		if !matchFlag(f.Read, a.Read) || !matchFlag(f.Dismissed, a.Dismissed) {
			continue
		}
		if f.Priority != "" && a.Priority != f.Priority {
			continue
		}
		if f.Type != "" && a.Type != f.Type {
			continue
		}
		if f.Kind != "" && a.Kind != f.Kind {
			continue
		}
		if f.AccountID != nil && a.AccountID != *f.AccountID {
			continue
		}
		out = append(out, a)
	}
	slices.SortFunc(out, func(a, b domain.PaymentAlert) int {
		return cmp.Or(
			cmp.Compare(b.Priority.Rank(), a.Priority.Rank()),
			b.AlertDate.Compare(a.AlertDate),
			cmp.Compare(b.ID, a.ID),
		)
	})
	return paginate(out, f.Page, f.Limit), len(out), nil
}

func (q *queries) CountActiveAlerts(context.Context) (map[domain.AlertPriority]int, error) {
	out := make(map[domain.AlertPriority]int)
	for _, a := range q.st.alerts {
		if !a.Read && !a.Dismissed {
			out[a.Priority]++
		}
	}
	return out, nil
}

// ============================================================
// Audit
// ============================================================

func (q *queries) InsertAudit(_ context.Context, e *domain.AuditEntry) error {
	q.st.audit = append(q.st.audit, *e)
	return nil
}
