package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jorgyvanlima/pdvc1/internal/domain"
	"github.com/jorgyvanlima/pdvc1/internal/infra/observability"
	"github.com/jorgyvanlima/pdvc1/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var alertTracer = otel.Tracer("service/alerts")

// AlertService raises and manages due-date alerts. Generation is run on
// demand by an operator or an outside scheduler.
type AlertService struct {
	store   port.Store
	metrics *observability.Metrics
	logger  *zap.Logger
	opts    Options
}

// NewAlertService creates a new alert service.
func NewAlertService(store port.Store, metrics *observability.Metrics, logger *zap.Logger, opts Options) *AlertService {
	return &AlertService{store: store, metrics: metrics, logger: logger, opts: opts.withDefaults()}
}

type alertCandidate struct {
	account  domain.Account
	typ      domain.AlertType
	priority domain.AlertPriority
}

// ============================================================
// Generate - POST /v1/financial/alerts/generate
// ============================================================

// Generate scans open payables and receivables. Accounts due exactly on
// one of the horizons get that horizon's alert; accounts already past due
// get an URGENT overdue alert. An alert already raised today for the same
// account and type is skipped, so running Generate twice is harmless.
func (s *AlertService) Generate(ctx context.Context, actorID string) (*domain.GenerationResult, error) {
	ctx, span := alertTracer.Start(ctx, "AlertService.Generate")
	defer span.End()

	today := s.opts.today()
	candidates, err := s.candidates(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("scan alert candidates: %w", err)
	}

	result := &domain.GenerationResult{ByType: make(map[domain.AlertType]int)}
	for _, c := range candidates {
		alert := &domain.PaymentAlert{
			Kind:      c.account.Kind,
			AccountID: c.account.ID,
			AlertDate: s.opts.now(),
			AlertDay:  today,
			DueDate:   c.account.DueDate,
			Amount:    c.account.Outstanding(),
			Type:      c.typ,
			Priority:  c.priority,
		}
		err := s.store.Tx(ctx, func(q port.Queries) error {
			if err := q.InsertAlert(ctx, alert); err != nil {
				return err
			}
			return writeAudit(ctx, q, actorID, "fin_payment_alerts", alert.ID, domain.AuditCreate, nil, alert, alert.AlertDate)
		})
		switch {
		case err == nil:
			result.Created++
			result.ByType[c.typ]++
			s.metrics.IncrAlertGenerated(c.typ)
		case isDuplicate(err):
			result.Skipped++
		default:
			return nil, fmt.Errorf("create %s alert for %s %d: %w", c.typ, c.account.Kind.Resource(), c.account.ID, err)
		}
	}

	span.SetAttributes(attribute.Int("alerts.created", result.Created), attribute.Int("alerts.skipped", result.Skipped))
	s.logger.Info("payment alerts generated",
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

func (s *AlertService) candidates(ctx context.Context, today time.Time) ([]alertCandidate, error) {
	var out []alertCandidate
	err := s.store.View(ctx, func(q port.Queries) error {
		for _, kind := range []domain.AccountKind{domain.Payable, domain.Receivable} {
			for _, h := range domain.AlertHorizons {
				from := today.AddDate(0, 0, h.Days)
				before := from.AddDate(0, 0, 1)
				items, _, err := q.ListAccounts(ctx, domain.AccountFilter{
					Kind:      kind,
					Statuses:  domain.OpenStatuses,
					DueFrom:   &from,
					DueBefore: &before,
				})
				if err != nil {
					return err
				}
				for _, a := range items {
					out = append(out, alertCandidate{account: a, typ: h.Type, priority: h.Priority})
				}
			}

			overdue, _, err := q.ListAccounts(ctx, domain.AccountFilter{
				Kind:      kind,
				Statuses:  domain.OpenStatuses,
				DueBefore: &today,
			})
			if err != nil {
				return err
			}
			for _, a := range overdue {
				out = append(out, alertCandidate{account: a, typ: domain.AlertOverdue, priority: domain.PriorityUrgent})
			}
		}
		return nil
	})
	return out, err
}

// ============================================================
// Reads
// ============================================================

// List returns alerts by priority, most urgent first, then newest first.
func (s *AlertService) List(ctx context.Context, f domain.AlertFilter) (domain.Page[domain.PaymentAlert], error) {
	ctx, span := alertTracer.Start(ctx, "AlertService.List")
	defer span.End()

	if f.Priority != "" && f.Priority.Rank() == 0 {
		return domain.Page[domain.PaymentAlert]{}, &domain.ErrValidation{Field: "priority", Message: fmt.Sprintf("unknown priority %q", f.Priority)}
	}
	f.Page, f.Limit = normalizePage(f.Page, f.Limit, s.opts.AlertPageSize)

	var (
		items []domain.PaymentAlert
		total int
	)
	err := s.store.View(ctx, func(q port.Queries) error {
		var err error
		items, total, err = q.ListAlerts(ctx, f)
		return err
	})
	if err != nil {
		return domain.Page[domain.PaymentAlert]{}, fmt.Errorf("list alerts: %w", err)
	}
	return domain.NewPage(items, total, f.Page, f.Limit), nil
}

// UnreadCount counts alerts that are neither read nor dismissed.
func (s *AlertService) UnreadCount(ctx context.Context) (int, error) {
	ctx, span := alertTracer.Start(ctx, "AlertService.UnreadCount")
	defer span.End()

	byPriority, err := s.ByPriority(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, c := range byPriority {
		n += c
	}
	return n, nil
}

// ByPriority groups active alerts by priority. Every priority is present.
func (s *AlertService) ByPriority(ctx context.Context) (map[domain.AlertPriority]int, error) {
	ctx, span := alertTracer.Start(ctx, "AlertService.ByPriority")
	defer span.End()

	var counts map[domain.AlertPriority]int
	err := s.store.View(ctx, func(q port.Queries) error {
		var err error
		counts, err = q.CountActiveAlerts(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("count alerts: %w", err)
	}

	out := make(map[domain.AlertPriority]int, len(domain.Priorities))
	for _, p := range domain.Priorities {
		out[p] = counts[p]
	}
	return out, nil
}

// ============================================================
// State flips
// ============================================================

// MarkAsRead flags the alert read. Marking it again changes nothing.
func (s *AlertService) MarkAsRead(ctx context.Context, actorID string, id int64) (*domain.PaymentAlert, error) {
	ctx, span := alertTracer.Start(ctx, "AlertService.MarkAsRead")
	defer span.End()
	span.SetAttributes(attribute.Int64("alert.id", id))

	return s.flip(ctx, actorID, id, func(a *domain.PaymentAlert, now time.Time) bool {
		if a.Read {
			return false
		}
		a.Read = true
		a.ReadAt = &now
		return true
	})
}

// Dismiss hides the alert from the active counts. Dismissing it again
// changes nothing.
func (s *AlertService) Dismiss(ctx context.Context, actorID string, id int64) (*domain.PaymentAlert, error) {
	ctx, span := alertTracer.Start(ctx, "AlertService.Dismiss")
	defer span.End()
	span.SetAttributes(attribute.Int64("alert.id", id))

	return s.flip(ctx, actorID, id, func(a *domain.PaymentAlert, _ time.Time) bool {
		if a.Dismissed {
			return false
		}
		a.Dismissed = true
		return true
	})
}

func (s *AlertService) flip(ctx context.Context, actorID string, id int64, apply func(*domain.PaymentAlert, time.Time) bool) (*domain.PaymentAlert, error) {
	var out *domain.PaymentAlert
	err := s.store.Tx(ctx, func(q port.Queries) error {
		a, err := q.GetAlert(ctx, id)
		if err != nil {
			return err
		}
		old := *a
		now := s.opts.now()
		out = a
		if !apply(a, now) {
			return nil
		}
		if err := q.UpdateAlert(ctx, a); err != nil {
			return err
		}
		return writeAudit(ctx, q, actorID, "fin_payment_alerts", id, domain.AuditUpdate, &old, a, now)
	})
	if err != nil {
		return nil, fmt.Errorf("update alert %d: %w", id, err)
	}
	return out, nil
}
