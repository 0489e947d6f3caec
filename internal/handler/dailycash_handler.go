package handler

import (
	"net/http"
	"time"

	"github.com/jorgyvanlima/pdvc1/internal/domain"
	"github.com/jorgyvanlima/pdvc1/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Daily Cash Handlers
// ============================================================

type openCashBody struct {
	Date           string          `json:"date,omitempty"`
	OpeningBalance decimal.Decimal `json:"openingBalance"`
}

type recordCashBody struct {
	Date           string               `json:"date,omitempty"`
	Description    string               `json:"description"`
	Amount         decimal.Decimal      `json:"amount"`
	PaymentMethod  domain.PaymentMethod `json:"paymentMethod"`
	CategoryID     *int64               `json:"categoryId,omitempty"`
	PayableID      *int64               `json:"accountsPayableId,omitempty"`
	ReceivableID   *int64               `json:"accountsReceivableId,omitempty"`
	Reference      string               `json:"reference,omitempty"`
	DocumentNumber string               `json:"documentNumber,omitempty"`
	Note           string               `json:"note,omitempty"`
}

type closeCashBody struct {
	Date          string           `json:"date,omitempty"`
	ActualBalance *decimal.Decimal `json:"actualBalance"`
	Notes         string           `json:"notes,omitempty"`
}

func openCashHandler(svc *service.DailyCashService, loc *time.Location, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/financial/daily-cash/open")
		defer span.End()

		var body openCashBody
		if err := decodeJSON(r, &body); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		date, err := parseDate("date", body.Date, loc)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		report, err := svc.Open(ctx, ActorIDFromContext(ctx), &domain.OpenCashRequest{Date: date, OpeningBalance: body.OpeningBalance})
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, report)
	}
}

func recordCashHandler(svc *service.DailyCashService, t domain.TransactionType, loc *time.Location, logger *zap.Logger) http.HandlerFunc {
	record, route := svc.RecordIncome, "POST /v1/financial/daily-cash/income"
	if t == domain.Expense {
		record, route = svc.RecordExpense, "POST /v1/financial/daily-cash/expense"
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), route)
		defer span.End()

		var body recordCashBody
		if err := decodeJSON(r, &body); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		date, err := parseDate("date", body.Date, loc)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		tx, err := record(ctx, ActorIDFromContext(ctx), &domain.RecordCashRequest{
			Date:           date,
			Description:    body.Description,
			Amount:         body.Amount,
			PaymentMethod:  body.PaymentMethod,
			CategoryID:     body.CategoryID,
			PayableID:      body.PayableID,
			ReceivableID:   body.ReceivableID,
			Reference:      body.Reference,
			DocumentNumber: body.DocumentNumber,
			Note:           body.Note,
		})
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, tx)
	}
}

func closeCashHandler(svc *service.DailyCashService, loc *time.Location, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/financial/daily-cash/close")
		defer span.End()

		var body closeCashBody
		if err := decodeJSON(r, &body); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if body.ActualBalance == nil {
			handleServiceError(w, &domain.ErrValidation{Field: "actualBalance", Message: "is required"}, logger)
			return
		}
		date, err := parseDate("date", body.Date, loc)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		report, err := svc.Close(ctx, ActorIDFromContext(ctx), &domain.CloseCashRequest{
			Date: date, ActualBalance: *body.ActualBalance, Notes: body.Notes,
		})
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

func getCashReportHandler(svc *service.DailyCashService, loc *time.Location, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/financial/daily-cash/{date}")
		defer span.End()

		date, err := parseDate("date", chi.URLParam(r, "date"), loc)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		span.SetAttributes(attribute.String("cash.date", chi.URLParam(r, "date")))

		report, err := svc.FindByDate(ctx, date)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

func recomputeCashHandler(svc *service.DailyCashService, loc *time.Location, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/financial/daily-cash/{date}/recompute")
		defer span.End()

		date, err := parseDate("date", chi.URLParam(r, "date"), loc)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		report, err := svc.Recompute(ctx, date)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

func listCashReportsHandler(svc *service.DailyCashService, loc *time.Location, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/financial/daily-cash")
		defer span.End()

		f := domain.CashReportFilter{Status: domain.CashStatus(r.URL.Query().Get("status"))}
		f.Page, f.Limit = parsePagination(r)
		rng, err := queryRange(r, loc)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if rng != nil {
			f.From, f.To = &rng.Start, &rng.End
		}

		page, err := svc.List(ctx, f)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, page)
	}
}

// cashSummaryHandler defaults to the current month when no range is given.
func cashSummaryHandler(svc *service.DailyCashService, loc *time.Location, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/financial/daily-cash/summary")
		defer span.End()

		rng, err := queryRange(r, loc)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if rng == nil {
			month := domain.MonthRange(time.Now(), loc)
			rng = &month
		}

		summary, err := svc.Summary(ctx, *rng)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}
