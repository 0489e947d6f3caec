package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/jorgyvanlima/pdvc1/internal/domain"
	"github.com/jorgyvanlima/pdvc1/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Payables & Receivables Handlers
// ============================================================

// mountLedger registers the routes shared by payables and receivables.
// settleVerb is "pay" or "receive".
func mountLedger(r chi.Router, kind domain.AccountKind, settleVerb string, svc *service.LedgerService, loc *time.Location, logger *zap.Logger) {
	h := ledgerHandlers{svc: svc, kind: kind, base: "/v1/financial/" + strings.ToLower(string(kind)) + "s", loc: loc, logger: logger}

	r.Get("/", h.list())
	r.Post("/", h.create())
	r.Get("/reports/overdue", h.overdue())
	r.Get("/reports/due-soon", h.dueSoon())
	r.Get("/reports/total-pending", h.totalPending())
	r.Get("/{id}", h.get())
	r.Put("/{id}", h.update())
	r.Delete("/{id}", h.delete())
	r.Post("/{id}/"+settleVerb, h.settle(settleVerb))
	r.Post("/{id}/attachments", h.addAttachment())
}

type ledgerHandlers struct {
	svc    *service.LedgerService
	kind   domain.AccountKind
	base   string
	loc    *time.Location
	logger *zap.Logger
}

// accountBody is the wire shape of a create request. The counterparty is
// supplierId for payables and customerId for receivables.
type accountBody struct {
	Description       string              `json:"description"`
	SupplierID        *int64              `json:"supplierId,omitempty"`
	CustomerID        *int64              `json:"customerId,omitempty"`
	CategoryID        *int64              `json:"categoryId,omitempty"`
	SaleID            *int64              `json:"saleId,omitempty"`
	Amount            decimal.Decimal     `json:"amount"`
	DueDate           string              `json:"dueDate"`
	DocumentNumber    string              `json:"documentNumber,omitempty"`
	Note              string              `json:"note,omitempty"`
	TotalInstallments int                 `json:"totalInstallments,omitempty"`
	Attachments       []domain.Attachment `json:"attachments,omitempty"`
}

type accountPatch struct {
	Description    *string               `json:"description,omitempty"`
	SupplierID     *int64                `json:"supplierId,omitempty"`
	CustomerID     *int64                `json:"customerId,omitempty"`
	CategoryID     *int64                `json:"categoryId,omitempty"`
	Amount         *decimal.Decimal      `json:"amount,omitempty"`
	DueDate        *string               `json:"dueDate,omitempty"`
	DocumentNumber *string               `json:"documentNumber,omitempty"`
	Note           *string               `json:"note,omitempty"`
	Status         *domain.AccountStatus `json:"status,omitempty"`
}

type settleBody struct {
	PaymentMethod domain.PaymentMethod `json:"paymentMethod"`
	BankAccountID *int64               `json:"bankAccountId,omitempty"`
	Amount        *decimal.Decimal     `json:"amount,omitempty"`
	Date          string               `json:"date,omitempty"`
}

func (h ledgerHandlers) counterparty(supplier, customer *int64) *int64 {
	if h.kind == domain.Receivable {
		return customer
	}
	return supplier
}

func (h ledgerHandlers) counterpartyKey() string {
	if h.kind == domain.Receivable {
		return "customerId"
	}
	return "supplierId"
}

func (h ledgerHandlers) list() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET "+h.base)
		defer span.End()

		f := domain.AccountFilter{Kind: h.kind}
		f.Page, f.Limit = parsePagination(r)
		for _, s := range splitList(r.URL.Query().Get("status")) {
			st := domain.AccountStatus(strings.ToUpper(s))
			if !st.Valid() {
				handleServiceError(w, &domain.ErrValidation{Field: "status", Message: "unknown status " + s}, h.logger)
				return
			}
			f.Statuses = append(f.Statuses, st)
		}

		var err error
		if f.CounterpartyID, err = queryInt64(r, h.counterpartyKey()); err != nil {
			handleServiceError(w, err, h.logger)
			return
		}
		if f.DueFrom, err = queryDate(r, "dueFrom", h.loc); err != nil {
			handleServiceError(w, err, h.logger)
			return
		}
		dueTo, err := queryDate(r, "dueTo", h.loc)
		if err != nil {
			handleServiceError(w, err, h.logger)
			return
		}
		if dueTo != nil {
			before := dueTo.AddDate(0, 0, 1)
			f.DueBefore = &before
		}

		page, err := h.svc.List(ctx, f)
		if err != nil {
			handleServiceError(w, err, h.logger)
			return
		}
		writeJSON(w, http.StatusOK, page)
	}
}

func (h ledgerHandlers) create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST "+h.base)
		defer span.End()

		var body accountBody
		if err := decodeJSON(r, &body); err != nil {
			handleServiceError(w, err, h.logger)
			return
		}
		due, err := parseDate("dueDate", body.DueDate, h.loc)
		if err != nil {
			handleServiceError(w, err, h.logger)
			return
		}

		view, err := h.svc.Create(ctx, h.kind, ActorIDFromContext(ctx), &domain.CreateAccountRequest{
			Description:       body.Description,
			CounterpartyID:    h.counterparty(body.SupplierID, body.CustomerID),
			CategoryID:        body.CategoryID,
			SaleID:            body.SaleID,
			Amount:            body.Amount,
			DueDate:           due,
			DocumentNumber:    body.DocumentNumber,
			Note:              body.Note,
			TotalInstallments: body.TotalInstallments,
			Attachments:       body.Attachments,
		})
		if err != nil {
			handleServiceError(w, err, h.logger)
			return
		}
		writeJSON(w, http.StatusCreated, view)
	}
}

func (h ledgerHandlers) get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET "+h.base+"/{id}")
		defer span.End()

		id, err := pathID(r, "id")
		if err != nil {
			handleServiceError(w, err, h.logger)
			return
		}
		span.SetAttributes(attribute.Int64("account.id", id))

		detail, err := h.svc.Get(ctx, h.kind, id)
		if err != nil {
			handleServiceError(w, err, h.logger)
			return
		}
		writeJSON(w, http.StatusOK, detail)
	}
}

func (h ledgerHandlers) update() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT "+h.base+"/{id}")
		defer span.End()

		id, err := pathID(r, "id")
		if err != nil {
			handleServiceError(w, err, h.logger)
			return
		}
		var body accountPatch
		if err := decodeJSON(r, &body); err != nil {
			handleServiceError(w, err, h.logger)
			return
		}

		req := &domain.UpdateAccountRequest{
			Description:    body.Description,
			CounterpartyID: h.counterparty(body.SupplierID, body.CustomerID),
			CategoryID:     body.CategoryID,
			Amount:         body.Amount,
			DocumentNumber: body.DocumentNumber,
			Note:           body.Note,
			Status:         body.Status,
		}
		if body.DueDate != nil {
			due, err := parseDate("dueDate", *body.DueDate, h.loc)
			if err != nil {
				handleServiceError(w, err, h.logger)
				return
			}
			if due.IsZero() {
				handleServiceError(w, &domain.ErrValidation{Field: "dueDate", Message: "must not be empty"}, h.logger)
				return
			}
			req.DueDate = &due
		}

		view, err := h.svc.Update(ctx, h.kind, ActorIDFromContext(ctx), id, req)
		if err != nil {
			handleServiceError(w, err, h.logger)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func (h ledgerHandlers) delete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE "+h.base+"/{id}")
		defer span.End()

		id, err := pathID(r, "id")
		if err != nil {
			handleServiceError(w, err, h.logger)
			return
		}
		if err := h.svc.Delete(ctx, h.kind, ActorIDFromContext(ctx), id); err != nil {
			handleServiceError(w, err, h.logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h ledgerHandlers) settle(verb string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST "+h.base+"/{id}/"+verb)
		defer span.End()

		id, err := pathID(r, "id")
		if err != nil {
			handleServiceError(w, err, h.logger)
			return
		}
		span.SetAttributes(attribute.Int64("account.id", id))

		var body settleBody
		if err := decodeJSON(r, &body); err != nil {
			handleServiceError(w, err, h.logger)
			return
		}
		req := &domain.SettleRequest{
			PaymentMethod: body.PaymentMethod,
			BankAccountID: body.BankAccountID,
			Amount:        body.Amount,
		}
		date, err := parseDate("date", body.Date, h.loc)
		if err != nil {
			handleServiceError(w, err, h.logger)
			return
		}
		if !date.IsZero() {
			req.Date = &date
		}

		view, err := h.svc.Settle(ctx, h.kind, ActorIDFromContext(ctx), id, req)
		if err != nil {
			handleServiceError(w, err, h.logger)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func (h ledgerHandlers) addAttachment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST "+h.base+"/{id}/attachments")
		defer span.End()

		id, err := pathID(r, "id")
		if err != nil {
			handleServiceError(w, err, h.logger)
			return
		}
		var att domain.Attachment
		if err := decodeJSON(r, &att); err != nil {
			handleServiceError(w, err, h.logger)
			return
		}
		saved, err := h.svc.AddAttachment(ctx, h.kind, ActorIDFromContext(ctx), id, att)
		if err != nil {
			handleServiceError(w, err, h.logger)
			return
		}
		writeJSON(w, http.StatusCreated, saved)
	}
}

// ============================================================
// Reports
// ============================================================

func (h ledgerHandlers) overdue() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET "+h.base+"/reports/overdue")
		defer span.End()

		items, err := h.svc.Overdue(ctx, h.kind)
		if err != nil {
			handleServiceError(w, err, h.logger)
			return
		}
		writeJSON(w, http.StatusOK, items)
	}
}

func (h ledgerHandlers) dueSoon() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET "+h.base+"/reports/due-soon")
		defer span.End()

		days, err := queryInt(r, "days")
		if err != nil {
			handleServiceError(w, err, h.logger)
			return
		}
		items, err := h.svc.DueSoon(ctx, h.kind, days)
		if err != nil {
			handleServiceError(w, err, h.logger)
			return
		}
		writeJSON(w, http.StatusOK, items)
	}
}

func (h ledgerHandlers) totalPending() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET "+h.base+"/reports/total-pending")
		defer span.End()

		rng, err := queryRange(r, h.loc)
		if err != nil {
			handleServiceError(w, err, h.logger)
			return
		}
		total, err := h.svc.TotalPending(ctx, h.kind, rng)
		if err != nil {
			handleServiceError(w, err, h.logger)
			return
		}
		writeJSON(w, http.StatusOK, total)
	}
}

// ============================================================
// Sales linkage & transactions
// ============================================================

func createFromSaleHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/financial/receivables/from-sale")
		defer span.End()

		var body struct {
			SaleID            int64 `json:"saleId"`
			TotalInstallments int   `json:"totalInstallments,omitempty"`
		}
		if err := decodeJSON(r, &body); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if body.SaleID < 1 {
			handleServiceError(w, &domain.ErrValidation{Field: "saleId", Message: "is required"}, logger)
			return
		}
		span.SetAttributes(attribute.Int64("sale.id", body.SaleID))

		view, err := svc.CreateFromSale(ctx, ActorIDFromContext(ctx), body.SaleID, body.TotalInstallments)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, view)
	}
}

func listTransactionsHandler(svc *service.LedgerService, loc *time.Location, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/financial/transactions")
		defer span.End()

		rng, err := queryRange(r, loc)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		f := domain.TransactionFilter{Type: domain.TransactionType(strings.ToUpper(r.URL.Query().Get("type")))}
		if rng != nil {
			from, to := rng.Start, rng.EndExclusive()
			f.From, f.To = &from, &to
		}
		if f.BankAccountID, err = queryInt64(r, "bankAccountId"); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		txs, err := svc.ListTransactions(ctx, f)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if txs == nil {
			txs = []domain.FinancialTransaction{}
		}
		writeJSON(w, http.StatusOK, txs)
	}
}
