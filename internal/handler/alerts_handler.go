package handler

import (
	"net/http"
	"strings"

	"github.com/jorgyvanlima/pdvc1/internal/domain"
	"github.com/jorgyvanlima/pdvc1/internal/service"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Payment Alert Handlers
// ============================================================

func listAlertsHandler(svc *service.AlertService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/financial/alerts")
		defer span.End()

		q := r.URL.Query()
		f := domain.AlertFilter{
			Priority: domain.AlertPriority(strings.ToUpper(q.Get("priority"))),
			Type:     domain.AlertType(strings.ToUpper(q.Get("type"))),
			Kind:     domain.AccountKind(strings.ToUpper(q.Get("kind"))),
		}
		f.Page, f.Limit = parsePagination(r)

		var err error
		if f.Read, err = queryBool(r, "read"); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if f.Dismissed, err = queryBool(r, "dismissed"); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if f.AccountID, err = queryInt64(r, "accountId"); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		page, err := svc.List(ctx, f)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, page)
	}
}

func generateAlertsHandler(svc *service.AlertService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/financial/alerts/generate")
		defer span.End()

		result, err := svc.Generate(ctx, ActorIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		span.SetAttributes(attribute.Int("alerts.created", result.Created))
		writeJSON(w, http.StatusOK, result)
	}
}

func unreadCountHandler(svc *service.AlertService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/financial/alerts/unread-count")
		defer span.End()

		n, err := svc.UnreadCount(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"count": n})
	}
}

func alertsByPriorityHandler(svc *service.AlertService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/financial/alerts/by-priority")
		defer span.End()

		counts, err := svc.ByPriority(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, counts)
	}
}

func markAlertReadHandler(svc *service.AlertService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/financial/alerts/{id}/read")
		defer span.End()

		id, err := pathID(r, "id")
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		alert, err := svc.MarkAsRead(ctx, ActorIDFromContext(ctx), id)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, alert)
	}
}

func dismissAlertHandler(svc *service.AlertService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/financial/alerts/{id}/dismiss")
		defer span.End()

		id, err := pathID(r, "id")
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		alert, err := svc.Dismiss(ctx, ActorIDFromContext(ctx), id)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, alert)
	}
}
