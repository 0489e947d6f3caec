package handler

import (
	"net/http"
	"time"

	"github.com/jorgyvanlima/pdvc1/internal/domain"
	"github.com/jorgyvanlima/pdvc1/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Dashboard Handlers
// ============================================================

func overviewHandler(svc *service.DashboardService, loc *time.Location, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/financial/dashboard/overview")
		defer span.End()

		rng, err := queryRange(r, loc)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		overview, err := svc.Overview(ctx, rng)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, overview)
	}
}

func projectedCashFlowHandler(svc *service.DashboardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/financial/dashboard/projected-cash-flow")
		defer span.End()

		days, err := queryInt(r, "days")
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		flow, err := svc.ProjectedCashFlow(ctx, days)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, flow)
	}
}

func categoryAnalysisHandler(svc *service.DashboardService, loc *time.Location, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/financial/dashboard/category-analysis")
		defer span.End()

		rng, err := queryRange(r, loc)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		analysis, err := svc.CategoryAnalysis(ctx, rng)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, analysis)
	}
}

func topCounterpartiesHandler(svc *service.DashboardService, kind domain.AccountKind, loc *time.Location, logger *zap.Logger) http.HandlerFunc {
	route := "GET /v1/financial/dashboard/top-suppliers"
	if kind == domain.Receivable {
		route = "GET /v1/financial/dashboard/top-customers"
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), route)
		defer span.End()

		limit, err := queryInt(r, "limit")
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		rng, err := queryRange(r, loc)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		top, err := svc.TopCounterparties(ctx, kind, limit, rng)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, top)
	}
}

func statsHandler(svc *service.DashboardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/financial/stats")
		defer span.End()

		stats, err := svc.Stats(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}
