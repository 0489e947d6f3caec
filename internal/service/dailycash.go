package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jorgyvanlima/pdvc1/internal/domain"
	"github.com/jorgyvanlima/pdvc1/internal/infra/observability"
	"github.com/jorgyvanlima/pdvc1/internal/port"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var cashTracer = otel.Tracer("service/dailycash")

// DailyCashService reconciles the cash register, one report per calendar date.
type DailyCashService struct {
	store   port.Store
	metrics *observability.Metrics
	logger  *zap.Logger
	opts    Options
}

// NewDailyCashService creates a new daily cash service.
func NewDailyCashService(store port.Store, metrics *observability.Metrics, logger *zap.Logger, opts Options) *DailyCashService {
	return &DailyCashService{store: store, metrics: metrics, logger: logger, opts: opts.withDefaults()}
}

// dateOrToday normalizes an optional request date to a calendar day.
func (s *DailyCashService) dateOrToday(t time.Time) time.Time {
	if t.IsZero() {
		return s.opts.today()
	}
	return s.opts.day(t)
}

// recomputeReport re-sums every transaction linked to r and persists the
// totals. It is shared by register entries and settlements.
func recomputeReport(ctx context.Context, q port.Queries, r *domain.DailyCashReport, at time.Time) error {
	txs, err := q.ListTransactions(ctx, domain.TransactionFilter{ReportID: &r.ID})
	if err != nil {
		return err
	}
	r.Recompute(txs)
	r.UpdatedAt = at
	return q.UpdateCashReport(ctx, r)
}

// ============================================================
// Open - POST /v1/financial/daily-cash/open
// ============================================================

func (s *DailyCashService) Open(ctx context.Context, actorID string, req *domain.OpenCashRequest) (*domain.DailyCashReport, error) {
	ctx, span := cashTracer.Start(ctx, "DailyCashService.Open")
	defer span.End()

	if req.OpeningBalance.IsNegative() {
		return nil, &domain.ErrValidation{Field: "openingBalance", Message: "must not be negative"}
	}
	if !domain.IsMoney(req.OpeningBalance) {
		return nil, &domain.ErrValidation{Field: "openingBalance", Message: "must have at most 2 decimal places"}
	}
	date := s.dateOrToday(req.Date)
	span.SetAttributes(attribute.String("cash.date", domain.CivilDate(date)))

	now := s.opts.now()
	r := domain.NewDailyCashReport(date, req.OpeningBalance)
	r.CreatedAt, r.UpdatedAt = now, now

	err := s.store.Tx(ctx, func(q port.Queries) error {
		if err := q.InsertCashReport(ctx, r); err != nil {
			return err
		}
		return writeAudit(ctx, q, actorID, "fin_daily_cash_reports", r.ID, domain.AuditCreate, nil, r, now)
	})
	if err != nil {
		if isDuplicate(err) {
			return nil, &domain.ErrConflict{Message: fmt.Sprintf("daily cash for %s is already open", domain.CivilDate(date))}
		}
		return nil, fmt.Errorf("open daily cash %s: %w", domain.CivilDate(date), err)
	}

	s.logger.Info("daily cash opened",
		zap.String("date", domain.CivilDate(date)),
		zap.Stringer("opening_balance", r.OpeningBalance),
	)
	return r, nil
}

// ============================================================
// Record income / expense
// ============================================================

// RecordIncome registers an income on the date's register, opening a
// zero-balance register first when none exists.
func (s *DailyCashService) RecordIncome(ctx context.Context, actorID string, req *domain.RecordCashRequest) (*domain.FinancialTransaction, error) {
	ctx, span := cashTracer.Start(ctx, "DailyCashService.RecordIncome")
	defer span.End()
	return s.record(ctx, actorID, domain.Income, req)
}

// RecordExpense is RecordIncome for money leaving the register.
func (s *DailyCashService) RecordExpense(ctx context.Context, actorID string, req *domain.RecordCashRequest) (*domain.FinancialTransaction, error) {
	ctx, span := cashTracer.Start(ctx, "DailyCashService.RecordExpense")
	defer span.End()
	return s.record(ctx, actorID, domain.Expense, req)
}

func (s *DailyCashService) record(ctx context.Context, actorID string, t domain.TransactionType, req *domain.RecordCashRequest) (*domain.FinancialTransaction, error) {
	description := strings.TrimSpace(req.Description)
	if description == "" {
		return nil, &domain.ErrValidation{Field: "description", Message: "is required"}
	}
	if err := validMoney("amount", req.Amount); err != nil {
		return nil, err
	}
	if !req.PaymentMethod.Valid() {
		return nil, &domain.ErrValidation{Field: "paymentMethod", Message: fmt.Sprintf("unknown payment method %q", req.PaymentMethod)}
	}

	now := s.opts.now()
	date := s.dateOrToday(req.Date)
	at := date
	if domain.CivilDate(date) == domain.CivilDate(now) {
		at = now
	}

	tx := &domain.FinancialTransaction{
		Type:           t,
		Description:    description,
		Amount:         req.Amount,
		Date:           at,
		PaymentMethod:  req.PaymentMethod,
		CategoryID:     req.CategoryID,
		PayableID:      req.PayableID,
		ReceivableID:   req.ReceivableID,
		UserID:         actorID,
		Reference:      strings.TrimSpace(req.Reference),
		DocumentNumber: strings.TrimSpace(req.DocumentNumber),
		Note:           strings.TrimSpace(req.Note),
		CreatedAt:      now,
	}

	err := s.store.Tx(ctx, func(q port.Queries) error {
		r, err := q.LockCashReport(ctx, date)
		switch {
		case isNotFound(err):
			r = domain.NewDailyCashReport(date, decimal.Zero)
			r.CreatedAt, r.UpdatedAt = now, now
			if err := q.InsertCashReport(ctx, r); err != nil {
				return err
			}
			if err := writeAudit(ctx, q, actorID, "fin_daily_cash_reports", r.ID, domain.AuditCreate, nil, r, now); err != nil {
				return err
			}
		case err != nil:
			return err
		case r.Status == domain.CashClosed:
			return &domain.ErrConflict{Message: fmt.Sprintf("daily cash for %s is closed", domain.CivilDate(date))}
		}

		if tx.CategoryID != nil {
			if _, err := q.GetCategory(ctx, *tx.CategoryID); err != nil {
				return err
			}
		}
		if tx.PayableID != nil {
			if _, err := q.GetAccount(ctx, domain.Payable, *tx.PayableID); err != nil {
				return err
			}
		}
		if tx.ReceivableID != nil {
			if _, err := q.GetAccount(ctx, domain.Receivable, *tx.ReceivableID); err != nil {
				return err
			}
		}
		tx.DailyCashReportID = &r.ID
		if err := q.InsertTransaction(ctx, tx); err != nil {
			return err
		}
		if err := writeAudit(ctx, q, actorID, "fin_transactions", tx.ID, domain.AuditCreate, nil, tx, now); err != nil {
			return err
		}
		return recomputeReport(ctx, q, r, now)
	})
	if err != nil {
		return nil, fmt.Errorf("record %s on %s: %w", strings.ToLower(string(t)), domain.CivilDate(date), err)
	}

	s.logger.Info("daily cash entry recorded",
		zap.String("date", domain.CivilDate(date)),
		zap.String("type", string(t)),
		zap.Stringer("amount", tx.Amount),
		zap.String("method", string(tx.PaymentMethod)),
	)
	return tx, nil
}

// ============================================================
// Recompute / Close
// ============================================================

// Recompute rebuilds the date's totals from its transactions. Calling it
// again without new transactions leaves the report unchanged.
func (s *DailyCashService) Recompute(ctx context.Context, date time.Time) (*domain.DailyCashReport, error) {
	ctx, span := cashTracer.Start(ctx, "DailyCashService.Recompute")
	defer span.End()

	date = s.dateOrToday(date)
	var out *domain.DailyCashReport
	err := s.store.Tx(ctx, func(q port.Queries) error {
		r, err := q.LockCashReport(ctx, date)
		if err != nil {
			return err
		}
		if r.Status == domain.CashClosed {
			// closing balance is the counted amount; keep it
			out = r
			return nil
		}
		if err := recomputeReport(ctx, q, r, s.opts.now()); err != nil {
			return err
		}
		out = r
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("recompute daily cash %s: %w", domain.CivilDate(date), err)
	}
	return out, nil
}

// Close finalizes the register with the counted balance.
func (s *DailyCashService) Close(ctx context.Context, actorID string, req *domain.CloseCashRequest) (*domain.DailyCashReport, error) {
	ctx, span := cashTracer.Start(ctx, "DailyCashService.Close")
	defer span.End()

	if !domain.IsMoney(req.ActualBalance) {
		return nil, &domain.ErrValidation{Field: "actualBalance", Message: "must have at most 2 decimal places"}
	}
	date := s.dateOrToday(req.Date)
	span.SetAttributes(attribute.String("cash.date", domain.CivilDate(date)))

	now := s.opts.now()
	var out *domain.DailyCashReport
	err := s.store.Tx(ctx, func(q port.Queries) error {
		r, err := q.LockCashReport(ctx, date)
		if err != nil {
			return err
		}
		if r.Status == domain.CashClosed {
			return &domain.ErrConflict{Message: fmt.Sprintf("daily cash for %s is already closed", domain.CivilDate(date))}
		}
		old := *r
		r.Close(req.ActualBalance, actorID, strings.TrimSpace(req.Notes), now)
		r.UpdatedAt = now
		if err := q.UpdateCashReport(ctx, r); err != nil {
			return err
		}
		out = r
		return writeAudit(ctx, q, actorID, "fin_daily_cash_reports", r.ID, domain.AuditUpdate, &old, r, now)
	})
	if err != nil {
		return nil, fmt.Errorf("close daily cash %s: %w", domain.CivilDate(date), err)
	}

	s.metrics.IncrRegisterClosed()
	s.logger.Info("daily cash closed",
		zap.String("date", domain.CivilDate(date)),
		zap.Stringer("expected", out.ExpectedBalance),
		zap.Stringer("actual", out.ClosingBalance),
		zap.Stringer("difference", out.Difference),
	)
	return out, nil
}

// ============================================================
// Reads
// ============================================================

// FindByDate returns the date's report with the transactions behind it.
func (s *DailyCashService) FindByDate(ctx context.Context, date time.Time) (*domain.DailyCashReport, error) {
	ctx, span := cashTracer.Start(ctx, "DailyCashService.FindByDate")
	defer span.End()

	date = s.dateOrToday(date)
	var out *domain.DailyCashReport
	err := s.store.View(ctx, func(q port.Queries) error {
		r, err := q.GetCashReport(ctx, date)
		if err != nil {
			return err
		}
		if r.Transactions, err = q.ListTransactions(ctx, domain.TransactionFilter{ReportID: &r.ID}); err != nil {
			return err
		}
		out = r
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("find daily cash %s: %w", domain.CivilDate(date), err)
	}
	return out, nil
}

func (s *DailyCashService) List(ctx context.Context, f domain.CashReportFilter) (domain.Page[domain.DailyCashReport], error) {
	ctx, span := cashTracer.Start(ctx, "DailyCashService.List")
	defer span.End()

	if f.Status != "" && f.Status != domain.CashOpen && f.Status != domain.CashClosed {
		return domain.Page[domain.DailyCashReport]{}, &domain.ErrValidation{Field: "status", Message: "must be OPEN or CLOSED"}
	}
	f.Page, f.Limit = normalizePage(f.Page, f.Limit, s.opts.PageSize)

	var (
		items []domain.DailyCashReport
		total int
	)
	err := s.store.View(ctx, func(q port.Queries) error {
		var err error
		items, total, err = q.ListCashReports(ctx, f)
		return err
	})
	if err != nil {
		return domain.Page[domain.DailyCashReport]{}, fmt.Errorf("list daily cash: %w", err)
	}
	return domain.NewPage(items, total, f.Page, f.Limit), nil
}

// Summary sums report-level totals over an inclusive date range.
func (s *DailyCashService) Summary(ctx context.Context, rng domain.DateRange) (*domain.CashSummary, error) {
	ctx, span := cashTracer.Start(ctx, "DailyCashService.Summary")
	defer span.End()

	start, end := s.opts.day(rng.Start), s.opts.day(rng.End)
	if end.Before(start) {
		return nil, &domain.ErrValidation{Field: "endDate", Message: "must not be before startDate"}
	}

	var reports []domain.DailyCashReport
	err := s.store.View(ctx, func(q port.Queries) error {
		var err error
		reports, _, err = q.ListCashReports(ctx, domain.CashReportFilter{From: &start, To: &end})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("summarize daily cash: %w", err)
	}
	summary := domain.Summarize(reports)
	return &summary, nil
}
