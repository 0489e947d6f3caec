package service

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/jorgyvanlima/pdvc1/internal/domain"
	"github.com/jorgyvanlima/pdvc1/internal/infra/observability"
	"github.com/jorgyvanlima/pdvc1/internal/port"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var dashboardTracer = otel.Tracer("service/dashboard")

const (
	defaultProjectionDays = 30
	maxProjectionDays     = 366
	defaultTopLimit       = 10
)

// DashboardService composes read-only rollups. It never mutates.
type DashboardService struct {
	store   port.Store
	metrics *observability.Metrics
	logger  *zap.Logger
	opts    Options
}

// NewDashboardService creates a new dashboard service.
func NewDashboardService(store port.Store, metrics *observability.Metrics, logger *zap.Logger, opts Options) *DashboardService {
	return &DashboardService{store: store, metrics: metrics, logger: logger, opts: opts.withDefaults()}
}

func (s *DashboardService) period(rng *domain.DateRange) (domain.DateRange, error) {
	if rng == nil {
		return domain.MonthRange(s.opts.now(), s.opts.Location), nil
	}
	out := domain.DateRange{Start: s.opts.day(rng.Start), End: s.opts.day(rng.End)}
	if out.End.Before(out.Start) {
		return out, &domain.ErrValidation{Field: "endDate", Message: "must not be before startDate"}
	}
	return out, nil
}

// ============================================================
// Overview - GET /v1/financial/dashboard/overview
// ============================================================

// Overview fans out the independent reads concurrently. Pending totals
// cover every open account; the cash flow covers the period, which
// defaults to the current month.
func (s *DashboardService) Overview(ctx context.Context, rng *domain.DateRange) (*domain.Overview, error) {
	ctx, span := dashboardTracer.Start(ctx, "DashboardService.Overview")
	defer span.End()
	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("dashboard.overview", time.Since(start)) }()

	period, err := s.period(rng)
	if err != nil {
		return nil, err
	}

	out := &domain.Overview{Period: period}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		out.AccountsPayable, err = s.ledgerOverview(gctx, domain.Payable)
		return err
	})
	g.Go(func() error {
		var err error
		out.AccountsReceivable, err = s.ledgerOverview(gctx, domain.Receivable)
		return err
	})
	g.Go(func() error {
		var reports []domain.DailyCashReport
		err := s.store.View(gctx, func(q port.Queries) error {
			var err error
			reports, _, err = q.ListCashReports(gctx, domain.CashReportFilter{From: &period.Start, To: &period.End})
			return err
		})
		if err != nil {
			return fmt.Errorf("cash summary: %w", err)
		}
		out.CashFlow = cashFlowOverview(domain.Summarize(reports))
		return nil
	})
	g.Go(func() error {
		var counts map[domain.AlertPriority]int
		err := s.store.View(gctx, func(q port.Queries) error {
			var err error
			counts, err = q.CountActiveAlerts(gctx)
			return err
		})
		if err != nil {
			return fmt.Errorf("alert counts: %w", err)
		}
		out.Alerts.ByPriority = make(map[domain.AlertPriority]int, len(domain.Priorities))
		for _, p := range domain.Priorities {
			out.Alerts.ByPriority[p] = counts[p]
			out.Alerts.Unread += counts[p]
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		s.logger.Error("dashboard overview failed", zap.Error(err))
		return nil, fmt.Errorf("dashboard overview: %w", err)
	}

	out.ProjectedBalance = out.AccountsReceivable.Total.Sub(out.AccountsPayable.Total)
	return out, nil
}

func (s *DashboardService) ledgerOverview(ctx context.Context, kind domain.AccountKind) (domain.LedgerOverview, error) {
	var items []domain.Account
	err := s.store.View(ctx, func(q port.Queries) error {
		var err error
		items, _, err = q.ListAccounts(ctx, domain.AccountFilter{Kind: kind, Statuses: domain.OpenStatuses})
		return err
	})
	if err != nil {
		return domain.LedgerOverview{}, fmt.Errorf("%s overview: %w", kind.Resource(), err)
	}

	today := s.opts.today()
	var out domain.LedgerOverview
	for _, a := range items {
		outstanding := a.Outstanding()
		out.Total = out.Total.Add(outstanding)
		out.Count++

		vs, _ := domain.Classify(a.DueDate, today, s.opts.DueSoonDays)
		switch vs {
		case domain.VirtualOverdue:
			out.Overdue.Total = out.Overdue.Total.Add(outstanding)
			out.Overdue.Count++
		case domain.VirtualDueToday, domain.VirtualDueSoon:
			out.DueSoon.Total = out.DueSoon.Total.Add(outstanding)
			out.DueSoon.Count++
		}
	}
	return out, nil
}

func cashFlowOverview(sum domain.CashSummary) domain.CashFlowOverview {
	return domain.CashFlowOverview{
		TotalIncome:  sum.TotalIncome,
		TotalExpense: sum.TotalExpense,
		NetFlow:      sum.NetFlow,
		ByMethod: map[domain.CashBucket]domain.MethodFlow{
			domain.BucketCash:  {Income: sum.CashIncome, Expense: sum.CashExpense},
			domain.BucketCard:  {Income: sum.CardIncome, Expense: sum.CardExpense},
			domain.BucketPix:   {Income: sum.PixIncome, Expense: sum.PixExpense},
			domain.BucketOther: {Income: sum.OtherIncome, Expense: sum.OtherExpense},
		},
	}
}

// ============================================================
// Projected cash flow
// ============================================================

// ProjectedCashFlow returns one bucket per calendar day from today through
// today+days. Open receivables add to a day's income and open payables to
// its expense; Balance is the running sum of net flow. Empty days stay in
// the series with zero amounts.
func (s *DashboardService) ProjectedCashFlow(ctx context.Context, days int) ([]domain.CashFlowDay, error) {
	ctx, span := dashboardTracer.Start(ctx, "DashboardService.ProjectedCashFlow")
	defer span.End()

	if days == 0 {
		days = defaultProjectionDays
	}
	if days < 0 || days > maxProjectionDays {
		return nil, &domain.ErrValidation{Field: "days", Message: fmt.Sprintf("must be between 1 and %d", maxProjectionDays)}
	}
	span.SetAttributes(attribute.Int("days", days))

	today := s.opts.today()
	end := today.AddDate(0, 0, days+1)

	var payables, receivables []domain.Account
	err := s.store.View(ctx, func(q port.Queries) error {
		var err error
		f := domain.AccountFilter{Kind: domain.Payable, Statuses: domain.OpenStatuses, DueFrom: &today, DueBefore: &end}
		if payables, _, err = q.ListAccounts(ctx, f); err != nil {
			return err
		}
		f.Kind = domain.Receivable
		receivables, _, err = q.ListAccounts(ctx, f)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("projected cash flow: %w", err)
	}

	buckets := make([]domain.CashFlowDay, days+1)
	for i := range buckets {
		buckets[i].Date = today.AddDate(0, 0, i)
	}
	for _, a := range receivables {
		i := domain.DaysBetween(today, a.DueDate)
		buckets[i].Income = buckets[i].Income.Add(a.Outstanding())
	}
	for _, a := range payables {
		i := domain.DaysBetween(today, a.DueDate)
		buckets[i].Expense = buckets[i].Expense.Add(a.Outstanding())
	}

	running := decimal.Zero
	for i := range buckets {
		buckets[i].NetFlow = buckets[i].Income.Sub(buckets[i].Expense)
		running = running.Add(buckets[i].NetFlow)
		buckets[i].Balance = running
	}
	return buckets, nil
}

// ============================================================
// Category analysis / top counterparties
// ============================================================

// CategoryAnalysis groups non-cancelled accounts due in the period by
// category. Payables feed Expenses and receivables feed Income.
func (s *DashboardService) CategoryAnalysis(ctx context.Context, rng *domain.DateRange) (*domain.CategoryAnalysis, error) {
	ctx, span := dashboardTracer.Start(ctx, "DashboardService.CategoryAnalysis")
	defer span.End()

	period, err := s.period(rng)
	if err != nil {
		return nil, err
	}

	var (
		payables, receivables []domain.Account
		categories            []domain.FinancialCategory
	)
	err = s.store.View(ctx, func(q port.Queries) error {
		var err error
		if payables, err = s.inPeriod(ctx, q, domain.Payable, period); err != nil {
			return err
		}
		if receivables, err = s.inPeriod(ctx, q, domain.Receivable, period); err != nil {
			return err
		}
		categories, err = q.ListCategories(ctx, "", false)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("category analysis: %w", err)
	}

	names := make(map[int64]domain.FinancialCategory, len(categories))
	for _, c := range categories {
		names[c.ID] = c
	}
	return &domain.CategoryAnalysis{
		Expenses: groupByCategory(payables, names, domain.CategoryExpense),
		Income:   groupByCategory(receivables, names, domain.CategoryIncome),
	}, nil
}

func (s *DashboardService) inPeriod(ctx context.Context, q port.Queries, kind domain.AccountKind, period domain.DateRange) ([]domain.Account, error) {
	end := period.EndExclusive()
	items, _, err := q.ListAccounts(ctx, domain.AccountFilter{
		Kind:      kind,
		Statuses:  []domain.AccountStatus{domain.StatusPending, domain.StatusPartiallyPaid, domain.StatusPaid},
		DueFrom:   &period.Start,
		DueBefore: &end,
	})
	return items, err
}

func groupByCategory(items []domain.Account, names map[int64]domain.FinancialCategory, fallback domain.CategoryType) []domain.CategoryTotal {
	idx := make(map[int64]int)
	uncategorized := -1
	out := []domain.CategoryTotal{}
	for _, a := range items {
		var i int
		switch {
		case a.CategoryID == nil:
			if uncategorized < 0 {
				uncategorized = len(out)
				out = append(out, domain.CategoryTotal{Category: domain.CategoryRef{Name: domain.UncategorizedName, Type: fallback}})
			}
			i = uncategorized
		default:
			var ok bool
			if i, ok = idx[*a.CategoryID]; !ok {
				ref := domain.CategoryRef{ID: a.CategoryID, Name: domain.UncategorizedName, Type: fallback}
				if c, found := names[*a.CategoryID]; found {
					ref.Name, ref.Type = c.Name, c.Type
				}
				i = len(out)
				idx[*a.CategoryID] = i
				out = append(out, domain.CategoryTotal{Category: ref})
			}
		}
		out[i].Total = out[i].Total.Add(a.Amount)
		out[i].Count++
	}
	slices.SortFunc(out, func(a, b domain.CategoryTotal) int {
		return cmp.Or(b.Total.Cmp(a.Total), cmp.Compare(a.Category.Name, b.Category.Name))
	})
	return out
}

// TopCounterparties ranks suppliers (payables) or customers (receivables)
// by total amount of non-cancelled accounts, optionally limited to accounts
// due in rng. Ties are broken by counterparty id.
func (s *DashboardService) TopCounterparties(ctx context.Context, kind domain.AccountKind, limit int, rng *domain.DateRange) ([]domain.CounterpartyTotal, error) {
	ctx, span := dashboardTracer.Start(ctx, "DashboardService.TopCounterparties")
	defer span.End()
	span.SetAttributes(attribute.String("account.kind", string(kind)))

	if err := validKind(kind); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultTopLimit
	}

	var items []domain.Account
	err := s.store.View(ctx, func(q port.Queries) error {
		if rng != nil {
			period, err := s.period(rng)
			if err != nil {
				return err
			}
			items, err = s.inPeriod(ctx, q, kind, period)
			return err
		}
		var err error
		items, _, err = q.ListAccounts(ctx, domain.AccountFilter{
			Kind:     kind,
			Statuses: []domain.AccountStatus{domain.StatusPending, domain.StatusPartiallyPaid, domain.StatusPaid},
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("top counterparties: %w", err)
	}

	idx := make(map[int64]int)
	out := []domain.CounterpartyTotal{}
	for _, a := range items {
		if a.CounterpartyID == nil {
			continue
		}
		i, ok := idx[*a.CounterpartyID]
		if !ok {
			i = len(out)
			idx[*a.CounterpartyID] = i
			out = append(out, domain.CounterpartyTotal{CounterpartyID: *a.CounterpartyID})
		}
		out[i].TotalAmount = out[i].TotalAmount.Add(a.Amount)
		out[i].AccountsCount++
	}
	slices.SortFunc(out, func(a, b domain.CounterpartyTotal) int {
		return cmp.Or(b.TotalAmount.Cmp(a.TotalAmount), cmp.Compare(a.CounterpartyID, b.CounterpartyID))
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ============================================================
// Stats - GET /v1/financial/stats
// ============================================================

// Stats is the compact summary: open balances, this month's cash flow and
// the active bank balances.
func (s *DashboardService) Stats(ctx context.Context) (*domain.FinancialStats, error) {
	ctx, span := dashboardTracer.Start(ctx, "DashboardService.Stats")
	defer span.End()

	month := domain.MonthRange(s.opts.now(), s.opts.Location)
	monthEnd := month.EndExclusive()

	out := &domain.FinancialStats{}
	err := s.store.View(ctx, func(q port.Queries) error {
		for _, kind := range []domain.AccountKind{domain.Payable, domain.Receivable} {
			items, _, err := q.ListAccounts(ctx, domain.AccountFilter{Kind: kind, Statuses: domain.OpenStatuses})
			if err != nil {
				return err
			}
			total := decimal.Zero
			for _, a := range items {
				total = total.Add(a.Outstanding())
			}
			if kind == domain.Payable {
				out.PayablesPending = total
			} else {
				out.ReceivablesPending = total
			}
		}

		txs, err := q.ListTransactions(ctx, domain.TransactionFilter{From: &month.Start, To: &monthEnd})
		if err != nil {
			return err
		}
		for _, tx := range txs {
			if tx.Type == domain.Income {
				out.IncomeMonth = out.IncomeMonth.Add(tx.Amount)
			} else {
				out.ExpenseMonth = out.ExpenseMonth.Add(tx.Amount)
			}
		}

		banks, err := q.ListBankAccounts(ctx, true)
		if err != nil {
			return err
		}
		out.Accounts = make([]domain.BankBalance, 0, len(banks))
		for _, b := range banks {
			out.Accounts = append(out.Accounts, domain.BankBalance{ID: b.ID, Name: b.Name, CurrentBalance: b.CurrentBalance})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("financial stats: %w", err)
	}
	return out, nil
}
