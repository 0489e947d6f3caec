package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jorgyvanlima/pdvc1/internal/domain"
	"github.com/jorgyvanlima/pdvc1/internal/infra/observability"
	"github.com/jorgyvanlima/pdvc1/internal/port"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var ledgerTracer = otel.Tracer("service/ledger")

// LedgerService runs the lifecycle of payables and receivables. Both kinds
// share one implementation; every method takes the kind it operates on.
type LedgerService struct {
	store   port.Store
	sales   port.SaleFetcher
	metrics *observability.Metrics
	logger  *zap.Logger
	opts    Options
}

// NewLedgerService creates a new ledger service. sales may be nil, in which
// case CreateFromSale fails with an external service error.
func NewLedgerService(
	store port.Store,
	sales port.SaleFetcher,
	metrics *observability.Metrics,
	logger *zap.Logger,
	opts Options,
) *LedgerService {
	return &LedgerService{store: store, sales: sales, metrics: metrics, logger: logger, opts: opts.withDefaults()}
}

func (s *LedgerService) view(a domain.Account) domain.AccountView {
	return domain.View(a, s.opts.today(), s.opts.DueSoonDays)
}

func (s *LedgerService) views(items []domain.Account) []domain.AccountView {
	out := make([]domain.AccountView, 0, len(items))
	for _, a := range items {
		out = append(out, s.view(a))
	}
	return out
}

func validKind(kind domain.AccountKind) error {
	if !kind.Valid() {
		return &domain.ErrValidation{Field: "kind", Message: "must be PAYABLE or RECEIVABLE"}
	}
	return nil
}

// ============================================================
// Create
// ============================================================

// Create persists a PENDING account together with its installment plan,
// its attachments and the audit record, all in one unit of work.
func (s *LedgerService) Create(ctx context.Context, kind domain.AccountKind, actorID string, req *domain.CreateAccountRequest) (*domain.AccountView, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.Create")
	defer span.End()
	defer s.observe("ledger.create", time.Now())
	span.SetAttributes(attribute.String("account.kind", string(kind)))

	if err := validKind(kind); err != nil {
		return nil, err
	}
	description := strings.TrimSpace(req.Description)
	if description == "" {
		return nil, &domain.ErrValidation{Field: "description", Message: "is required"}
	}
	if err := validMoney("amount", req.Amount); err != nil {
		return nil, err
	}
	if req.DueDate.IsZero() {
		return nil, &domain.ErrValidation{Field: "dueDate", Message: "is required"}
	}
	count := req.TotalInstallments
	if count == 0 {
		count = 1
	}

	due := s.opts.day(req.DueDate)
	plan, err := domain.GenerateInstallments(req.Amount, due, count)
	if err != nil {
		return nil, err
	}

	now := s.opts.now()
	a := &domain.Account{
		Kind:              kind,
		Description:       description,
		CounterpartyID:    req.CounterpartyID,
		CategoryID:        req.CategoryID,
		SaleID:            req.SaleID,
		Amount:            req.Amount,
		PaidAmount:        decimal.Zero,
		DueDate:           due,
		Status:            domain.StatusPending,
		DocumentNumber:    strings.TrimSpace(req.DocumentNumber),
		Note:              strings.TrimSpace(req.Note),
		TotalInstallments: count,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	for _, att := range req.Attachments {
		prepared, err := prepareAttachment(att, actorID, now)
		if err != nil {
			return nil, err
		}
		a.Attachments = append(a.Attachments, prepared)
	}

	err = s.store.Tx(ctx, func(q port.Queries) error {
		if a.CategoryID != nil {
			if _, err := q.GetCategory(ctx, *a.CategoryID); err != nil {
				return err
			}
		}
		if err := q.InsertAccount(ctx, a); err != nil {
			return err
		}
		if count > 1 {
			if err := q.InsertInstallments(ctx, kind, a.ID, plan); err != nil {
				return err
			}
		}
		return writeAudit(ctx, q, actorID, kind.Table(), a.ID, domain.AuditCreate, nil, a, now)
	})
	if err != nil {
		s.abort(span, "create", kind, 0, err)
		return nil, fmt.Errorf("create %s: %w", kind.Resource(), err)
	}

	s.logger.Info("ledger account created",
		zap.String("kind", string(kind)),
		zap.Int64("account_id", a.ID),
		zap.Stringer("amount", a.Amount),
		zap.Int("installments", count),
	)
	v := s.view(*a)
	return &v, nil
}

// prepareAttachment stamps upload metadata. A missing storage name is
// derived from a fresh uuid and the original extension.
func prepareAttachment(att domain.Attachment, actorID string, now time.Time) (domain.Attachment, error) {
	att.Path = strings.TrimSpace(att.Path)
	if att.Path == "" {
		return att, &domain.ErrValidation{Field: "attachments.path", Message: "is required"}
	}
	if att.Size < 0 {
		return att, &domain.ErrValidation{Field: "attachments.size", Message: "must not be negative"}
	}
	if strings.TrimSpace(att.Filename) == "" {
		att.Filename = uuid.NewString() + filepath.Ext(att.OriginalName)
	}
	if att.UploadedBy == "" {
		att.UploadedBy = actorID
	}
	att.CreatedAt = now
	return att, nil
}

// AddAttachment links an already-uploaded file to an account.
func (s *LedgerService) AddAttachment(ctx context.Context, kind domain.AccountKind, actorID string, id int64, att domain.Attachment) (*domain.Attachment, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.AddAttachment")
	defer span.End()
	span.SetAttributes(attribute.String("account.kind", string(kind)), attribute.Int64("account.id", id))

	if err := validKind(kind); err != nil {
		return nil, err
	}
	now := s.opts.now()
	prepared, err := prepareAttachment(att, actorID, now)
	if err != nil {
		return nil, err
	}

	err = s.store.Tx(ctx, func(q port.Queries) error {
		if _, err := q.GetAccount(ctx, kind, id); err != nil {
			return err
		}
		if err := q.InsertAttachment(ctx, kind, id, &prepared); err != nil {
			return err
		}
		return writeAudit(ctx, q, actorID, "fin_attachments", prepared.ID, domain.AuditCreate, nil, prepared, now)
	})
	if err != nil {
		return nil, fmt.Errorf("attach file to %s %d: %w", kind.Resource(), id, err)
	}
	return &prepared, nil
}

// ============================================================
// Reads
// ============================================================

// List returns a page of accounts ordered by due date, each with its
// derived virtual status.
func (s *LedgerService) List(ctx context.Context, f domain.AccountFilter) (domain.Page[domain.AccountView], error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.List")
	defer span.End()

	if err := validKind(f.Kind); err != nil {
		return domain.Page[domain.AccountView]{}, err
	}
	for _, st := range f.Statuses {
		if !st.Valid() {
			return domain.Page[domain.AccountView]{}, &domain.ErrValidation{Field: "status", Message: fmt.Sprintf("unknown status %q", st)}
		}
	}
	f.Page, f.Limit = normalizePage(f.Page, f.Limit, s.opts.PageSize)

	var (
		items []domain.Account
		total int
	)
	err := s.store.View(ctx, func(q port.Queries) error {
		var err error
		items, total, err = q.ListAccounts(ctx, f)
		return err
	})
	if err != nil {
		return domain.Page[domain.AccountView]{}, fmt.Errorf("list %s: %w", f.Kind.Resource(), err)
	}
	return domain.NewPage(s.views(items), total, f.Page, f.Limit), nil
}

// Get returns an account with its installments, transactions and alerts.
func (s *LedgerService) Get(ctx context.Context, kind domain.AccountKind, id int64) (*domain.AccountDetail, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.Get")
	defer span.End()
	span.SetAttributes(attribute.String("account.kind", string(kind)), attribute.Int64("account.id", id))

	if err := validKind(kind); err != nil {
		return nil, err
	}

	var detail domain.AccountDetail
	err := s.store.View(ctx, func(q port.Queries) error {
		a, err := q.GetAccount(ctx, kind, id)
		if err != nil {
			return err
		}
		detail.AccountView = s.view(*a)

		if detail.Installments, err = q.ListInstallments(ctx, kind, id); err != nil {
			return err
		}

		tf := domain.TransactionFilter{PayableID: &id}
		if kind == domain.Receivable {
			tf = domain.TransactionFilter{ReceivableID: &id}
		}
		if detail.Transactions, err = q.ListTransactions(ctx, tf); err != nil {
			return err
		}

		detail.Alerts, _, err = q.ListAlerts(ctx, domain.AlertFilter{Kind: kind, AccountID: &id})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get %s %d: %w", kind.Resource(), id, err)
	}
	return &detail, nil
}

// Overdue returns open accounts due before today.
func (s *LedgerService) Overdue(ctx context.Context, kind domain.AccountKind) ([]domain.AccountView, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.Overdue")
	defer span.End()

	if err := validKind(kind); err != nil {
		return nil, err
	}
	today := s.opts.today()
	items, err := s.listOpen(ctx, kind, nil, &today)
	if err != nil {
		return nil, fmt.Errorf("list overdue %s: %w", kind.Resource(), err)
	}
	return s.views(items), nil
}

// DueSoon returns open accounts due between today and today+days, both
// inclusive. A non-positive days uses the configured threshold. Accounts
// due today are included and carry the DUE_TODAY virtual status.
func (s *LedgerService) DueSoon(ctx context.Context, kind domain.AccountKind, days int) ([]domain.AccountView, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.DueSoon")
	defer span.End()

	if err := validKind(kind); err != nil {
		return nil, err
	}
	if days <= 0 {
		days = s.opts.DueSoonDays
	}
	span.SetAttributes(attribute.Int("days", days))

	today := s.opts.today()
	end := today.AddDate(0, 0, days+1)
	items, err := s.listOpen(ctx, kind, &today, &end)
	if err != nil {
		return nil, fmt.Errorf("list due-soon %s: %w", kind.Resource(), err)
	}
	return s.views(items), nil
}

// TotalPending sums the outstanding balance of open accounts, optionally
// limited to a due-date range.
func (s *LedgerService) TotalPending(ctx context.Context, kind domain.AccountKind, rng *domain.DateRange) (*domain.PendingTotal, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.TotalPending")
	defer span.End()

	if err := validKind(kind); err != nil {
		return nil, err
	}
	var from, before *time.Time
	if rng != nil {
		start, end := s.opts.day(rng.Start), s.opts.day(rng.End).AddDate(0, 0, 1)
		from, before = &start, &end
	}
	items, err := s.listOpen(ctx, kind, from, before)
	if err != nil {
		return nil, fmt.Errorf("total pending %s: %w", kind.Resource(), err)
	}

	out := &domain.PendingTotal{Total: decimal.Zero}
	for _, a := range items {
		out.Total = out.Total.Add(a.Outstanding())
	}
	out.Count = len(items)
	return out, nil
}

func (s *LedgerService) listOpen(ctx context.Context, kind domain.AccountKind, from, before *time.Time) ([]domain.Account, error) {
	var items []domain.Account
	err := s.store.View(ctx, func(q port.Queries) error {
		var err error
		items, _, err = q.ListAccounts(ctx, domain.AccountFilter{
			Kind:      kind,
			Statuses:  domain.OpenStatuses,
			DueFrom:   from,
			DueBefore: before,
		})
		return err
	})
	return items, err
}

// ListTransactions reads the cash-flow ledger, newest first.
func (s *LedgerService) ListTransactions(ctx context.Context, f domain.TransactionFilter) ([]domain.FinancialTransaction, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.ListTransactions")
	defer span.End()

	if f.Type != "" && f.Type != domain.Income && f.Type != domain.Expense {
		return nil, &domain.ErrValidation{Field: "type", Message: "must be INCOME or EXPENSE"}
	}

	var out []domain.FinancialTransaction
	err := s.store.View(ctx, func(q port.Queries) error {
		var err error
		out, err = q.ListTransactions(ctx, f)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return out, nil
}

// ============================================================
// Update / Delete
// ============================================================

// Update patches an open account. The only status change allowed is
// cancellation; settlement has its own operation.
func (s *LedgerService) Update(ctx context.Context, kind domain.AccountKind, actorID string, id int64, req *domain.UpdateAccountRequest) (*domain.AccountView, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.Update")
	defer span.End()
	span.SetAttributes(attribute.String("account.kind", string(kind)), attribute.Int64("account.id", id))

	if err := validKind(kind); err != nil {
		return nil, err
	}
	if req.Status != nil && *req.Status != domain.StatusCancelled {
		return nil, &domain.ErrValidation{Field: "status", Message: "only CANCELLED can be set directly"}
	}
	if req.Description != nil && strings.TrimSpace(*req.Description) == "" {
		return nil, &domain.ErrValidation{Field: "description", Message: "must not be empty"}
	}
	if req.Amount != nil {
		if err := validMoney("amount", *req.Amount); err != nil {
			return nil, err
		}
	}

	var updated *domain.Account
	err := s.store.Tx(ctx, func(q port.Queries) error {
		a, err := q.LockAccount(ctx, kind, id)
		if err != nil {
			return err
		}
		if !a.Status.Open() {
			return &domain.ErrConflict{Message: fmt.Sprintf("%s %d is %s and can no longer be changed", kind.Resource(), id, a.Status)}
		}
		old := a.Clone()

		if req.Description != nil {
			a.Description = strings.TrimSpace(*req.Description)
		}
		if req.CounterpartyID != nil {
			a.CounterpartyID = req.CounterpartyID
		}
		if req.CategoryID != nil {
			if _, err := q.GetCategory(ctx, *req.CategoryID); err != nil {
				return err
			}
			a.CategoryID = req.CategoryID
		}
		if req.Amount != nil && !req.Amount.Equal(a.Amount) {
			if a.TotalInstallments > 1 {
				return &domain.ErrValidation{Field: "amount", Message: "cannot change the amount of an installment plan"}
			}
			if req.Amount.LessThan(a.PaidAmount) {
				return &domain.ErrValidation{Field: "amount", Message: "must not be below the amount already settled"}
			}
			a.Amount = *req.Amount
		}
		if req.DueDate != nil {
			due := s.opts.day(*req.DueDate)
			if a.TotalInstallments > 1 && !due.Equal(a.DueDate) {
				return &domain.ErrValidation{Field: "dueDate", Message: "cannot move the due date of an installment plan"}
			}
			a.DueDate = due
		}
		if req.DocumentNumber != nil {
			a.DocumentNumber = strings.TrimSpace(*req.DocumentNumber)
		}
		if req.Note != nil {
			a.Note = strings.TrimSpace(*req.Note)
		}
		if req.Status != nil {
			a.Status = *req.Status
		}
		// Lowering the amount to what was already settled closes the account.
		if a.Status.Open() && a.PaidAmount.IsPositive() && !a.Outstanding().IsPositive() {
			a.Status = domain.StatusPaid
		}
		a.UpdatedAt = s.opts.now()

		if err := q.UpdateAccount(ctx, a); err != nil {
			return err
		}
		updated = a
		return writeAudit(ctx, q, actorID, kind.Table(), id, domain.AuditUpdate, old, a, a.UpdatedAt)
	})
	if err != nil {
		s.abort(span, "update", kind, id, err)
		return nil, fmt.Errorf("update %s %d: %w", kind.Resource(), id, err)
	}

	s.logger.Info("ledger account updated",
		zap.String("kind", string(kind)),
		zap.Int64("account_id", id),
		zap.String("status", string(updated.Status)),
	)
	v := s.view(*updated)
	return &v, nil
}

// Delete removes an account with its installments, attachments and alerts.
// Accounts that already produced ledger transactions cannot be deleted.
func (s *LedgerService) Delete(ctx context.Context, kind domain.AccountKind, actorID string, id int64) error {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("account.kind", string(kind)), attribute.Int64("account.id", id))

	if err := validKind(kind); err != nil {
		return err
	}

	err := s.store.Tx(ctx, func(q port.Queries) error {
		a, err := q.LockAccount(ctx, kind, id)
		if err != nil {
			return err
		}
		n, err := q.CountAccountTransactions(ctx, kind, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return &domain.ErrConflict{Message: fmt.Sprintf("%s %d has %d ledger transactions and cannot be deleted", kind.Resource(), id, n)}
		}
		if err := q.DeleteAccount(ctx, kind, id); err != nil {
			return err
		}
		return writeAudit(ctx, q, actorID, kind.Table(), id, domain.AuditDelete, a, nil, s.opts.now())
	})
	if err != nil {
		s.abort(span, "delete", kind, id, err)
		return fmt.Errorf("delete %s %d: %w", kind.Resource(), id, err)
	}

	s.logger.Info("ledger account deleted", zap.String("kind", string(kind)), zap.Int64("account_id", id))
	return nil
}

// ============================================================
// Settle - POST /v1/financial/payables/{id}/pay, receivables/{id}/receive
// ============================================================

// Settle records a payment against an account. In one unit of work it
// updates the account and its installments, appends the cash-flow
// transaction (linked to the day's open register, which is recomputed),
// adjusts the bank balance and writes the audit record.
func (s *LedgerService) Settle(ctx context.Context, kind domain.AccountKind, actorID string, id int64, req *domain.SettleRequest) (*domain.AccountView, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.Settle")
	defer span.End()
	defer s.observe("ledger.settle", time.Now())
	span.SetAttributes(
		attribute.String("account.kind", string(kind)),
		attribute.Int64("account.id", id),
		attribute.String("payment.method", string(req.PaymentMethod)),
	)

	if err := validKind(kind); err != nil {
		return nil, err
	}
	if !req.PaymentMethod.Valid() {
		s.metrics.RecordSettlement(kind, observability.OutcomeRejected, decimal.Zero)
		return nil, &domain.ErrValidation{Field: "paymentMethod", Message: fmt.Sprintf("unknown payment method %q", req.PaymentMethod)}
	}
	if req.Amount != nil {
		if err := validMoney("amount", *req.Amount); err != nil {
			s.metrics.RecordSettlement(kind, observability.OutcomeRejected, decimal.Zero)
			return nil, err
		}
	}

	now := s.opts.now()
	settledAt := now
	if req.Date != nil && !req.Date.IsZero() {
		settledAt = req.Date.In(s.opts.Location)
	}
	method := req.PaymentMethod

	var (
		settled *domain.Account
		amount  decimal.Decimal
	)
	err := s.store.Tx(ctx, func(q port.Queries) error {
		a, err := q.LockAccount(ctx, kind, id)
		if err != nil {
			return err
		}
		switch a.Status {
		case domain.StatusPaid:
			return &domain.ErrConflict{Message: fmt.Sprintf("%s %d is already settled", kind.Resource(), id)}
		case domain.StatusCancelled:
			return &domain.ErrConflict{Message: fmt.Sprintf("%s %d is cancelled", kind.Resource(), id)}
		}
		old := a.Clone()

		outstanding := a.Outstanding()
		if !outstanding.IsPositive() {
			return &domain.ErrConflict{Message: fmt.Sprintf("%s %d has nothing left to settle", kind.Resource(), id)}
		}
		amount = outstanding
		if req.Amount != nil {
			if req.Amount.GreaterThan(outstanding) {
				return &domain.ErrValidation{
					Field:   "amount",
					Message: fmt.Sprintf("exceeds the outstanding balance of %s", outstanding.StringFixed(domain.MoneyScale)),
				}
			}
			amount = *req.Amount
		}

		a.PaidAmount = a.PaidAmount.Add(amount)
		a.Status = domain.StatusPartiallyPaid
		if a.Outstanding().IsZero() {
			a.Status = domain.StatusPaid
		}
		a.SettledDate = &settledAt
		a.PaymentMethod = &method
		a.UpdatedAt = now
		if err := q.UpdateAccount(ctx, a); err != nil {
			return err
		}

		installments, err := q.ListInstallments(ctx, kind, id)
		if err != nil {
			return err
		}
		for _, i := range domain.ApplyPayments(installments, a.PaidAmount) {
			if err := q.SetInstallmentStatus(ctx, installments[i].ID, domain.InstallmentPaid); err != nil {
				return err
			}
		}

		tx := &domain.FinancialTransaction{
			Type:           kind.TransactionType(),
			Description:    settlementDescription(a),
			Amount:         amount,
			Date:           settledAt,
			PaymentMethod:  method,
			BankAccountID:  req.BankAccountID,
			CategoryID:     a.CategoryID,
			UserID:         actorID,
			DocumentNumber: a.DocumentNumber,
			CreatedAt:      now,
		}
		if kind == domain.Receivable {
			tx.ReceivableID = &a.ID
		} else {
			tx.PayableID = &a.ID
		}

		register, err := q.LockCashReport(ctx, s.opts.day(settledAt))
		switch {
		case err == nil && register.Status == domain.CashOpen:
			tx.DailyCashReportID = &register.ID
		case err == nil, isNotFound(err):
			register = nil
		default:
			return err
		}

		if err := q.InsertTransaction(ctx, tx); err != nil {
			return err
		}
		if register != nil {
			if err := recomputeReport(ctx, q, register, now); err != nil {
				return err
			}
		}

		if req.BankAccountID != nil {
			if _, err := q.AdjustBankBalance(ctx, *req.BankAccountID, kind.BalanceDelta(amount)); err != nil {
				return err
			}
		}

		settled = a
		return writeAudit(ctx, q, actorID, kind.Table(), id, domain.AuditUpdate, old, a, now)
	})
	if err != nil {
		outcome := observability.OutcomeError
		if isClientError(err) {
			outcome = observability.OutcomeRejected
		}
		s.metrics.RecordSettlement(kind, outcome, decimal.Zero)
		s.abort(span, "settle", kind, id, err)
		return nil, fmt.Errorf("settle %s %d: %w", kind.Resource(), id, err)
	}

	s.metrics.RecordSettlement(kind, observability.OutcomeSuccess, amount)
	s.logger.Info("ledger account settled",
		zap.String("kind", string(kind)),
		zap.Int64("account_id", id),
		zap.Stringer("amount", amount),
		zap.String("method", string(method)),
		zap.String("status", string(settled.Status)),
	)
	v := s.view(*settled)
	return &v, nil
}

func settlementDescription(a *domain.Account) string {
	if a.Kind == domain.Receivable {
		return fmt.Sprintf("Receipt of receivable #%d - %s", a.ID, a.Description)
	}
	return fmt.Sprintf("Payment of payable #%d - %s", a.ID, a.Description)
}

// ============================================================
// CreateFromSale - POST /v1/financial/receivables/from-sale
// ============================================================

// CreateFromSale opens a receivable due today for the grand total of a sale.
// The sale is read before the unit of work starts.
func (s *LedgerService) CreateFromSale(ctx context.Context, actorID string, saleID int64, installments int) (*domain.AccountView, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.CreateFromSale")
	defer span.End()
	span.SetAttributes(attribute.Int64("sale.id", saleID))

	if saleID <= 0 {
		return nil, &domain.ErrValidation{Field: "saleId", Message: "is required"}
	}
	if s.sales == nil {
		return nil, &domain.ErrExternalService{Service: "sales", Err: fmt.Errorf("sales collaborator not configured")}
	}

	sale, err := s.sales.GetSale(ctx, saleID)
	if err != nil {
		return nil, err
	}

	description := fmt.Sprintf("Sale #%d", sale.ID)
	if name := strings.TrimSpace(sale.CustomerName); name != "" {
		description += " - " + name
	}
	return s.Create(ctx, domain.Receivable, actorID, &domain.CreateAccountRequest{
		Description:       description,
		CounterpartyID:    sale.CustomerID,
		SaleID:            &sale.ID,
		Amount:            sale.GrandTotal,
		DueDate:           s.opts.today(),
		TotalInstallments: installments,
	})
}

// ============================================================
// helpers
// ============================================================

func (s *LedgerService) observe(operation string, start time.Time) {
	s.metrics.RecordRequestDuration(operation, time.Since(start))
}

func (s *LedgerService) abort(span trace.Span, op string, kind domain.AccountKind, id int64, err error) {
	span.RecordError(err)
	if isClientError(err) {
		return
	}
	span.SetStatus(codes.Error, err.Error())
	s.logger.Error("ledger unit of work aborted",
		zap.String("operation", op),
		zap.String("kind", string(kind)),
		zap.Int64("account_id", id),
		zap.Error(err),
	)
}
