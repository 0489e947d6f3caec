package handler

import (
	"net/http"
	"time"

	"github.com/jorgyvanlima/pdvc1/internal/domain"
	"github.com/jorgyvanlima/pdvc1/internal/infra/observability"
	"github.com/jorgyvanlima/pdvc1/internal/port"
	"github.com/jorgyvanlima/pdvc1/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Services groups the use cases the router exposes.
type Services struct {
	Registry  *service.RegistryService
	Ledger    *service.LedgerService
	DailyCash *service.DailyCashService
	Alerts    *service.AlertService
	Dashboard *service.DashboardService
}

// Options configures request parsing and authentication.
type Options struct {
	// JWTSecret validates bearer tokens; empty disables token checks.
	JWTSecret string
	// Location interprets YYYY-MM-DD dates in requests.
	Location *time.Location
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(svcs Services, store port.Store, metrics *observability.Metrics, opts Options, logger *zap.Logger) http.Handler {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	loc := opts.Location

	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(store))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1/financial", func(r chi.Router) {
		r.Use(ActorMiddleware(opts.JWTSecret, logger))

		// =============================================
		// Categories & bank accounts
		// =============================================
		r.Get("/categories", listCategoriesHandler(svcs.Registry, logger))
		r.Post("/categories", createCategoryHandler(svcs.Registry, logger))
		r.Delete("/categories/{id}", deactivateCategoryHandler(svcs.Registry, logger))

		r.Get("/bank-accounts", listBankAccountsHandler(svcs.Registry, logger))
		r.Post("/bank-accounts", createBankAccountHandler(svcs.Registry, logger))
		r.Get("/bank-accounts/{id}", getBankAccountHandler(svcs.Registry, logger))

		// =============================================
		// Payables & receivables
		// =============================================
		r.Route("/payables", func(r chi.Router) {
			mountLedger(r, domain.Payable, "pay", svcs.Ledger, loc, logger)
		})
		r.Route("/receivables", func(r chi.Router) {
			r.Post("/from-sale", createFromSaleHandler(svcs.Ledger, logger))
			mountLedger(r, domain.Receivable, "receive", svcs.Ledger, loc, logger)
		})
		r.Get("/transactions", listTransactionsHandler(svcs.Ledger, loc, logger))

		// =============================================
		// Daily cash
		// =============================================
		r.Route("/daily-cash", func(r chi.Router) {
			r.Get("/", listCashReportsHandler(svcs.DailyCash, loc, logger))
			r.Post("/open", openCashHandler(svcs.DailyCash, loc, logger))
			r.Post("/income", recordCashHandler(svcs.DailyCash, domain.Income, loc, logger))
			r.Post("/expense", recordCashHandler(svcs.DailyCash, domain.Expense, loc, logger))
			r.Post("/close", closeCashHandler(svcs.DailyCash, loc, logger))
			r.Get("/summary", cashSummaryHandler(svcs.DailyCash, loc, logger))
			r.Get("/{date}", getCashReportHandler(svcs.DailyCash, loc, logger))
			r.Post("/{date}/recompute", recomputeCashHandler(svcs.DailyCash, loc, logger))
		})

		// =============================================
		// Payment alerts
		// =============================================
		r.Route("/alerts", func(r chi.Router) {
			r.Get("/", listAlertsHandler(svcs.Alerts, logger))
			r.Post("/generate", generateAlertsHandler(svcs.Alerts, logger))
			r.Get("/unread-count", unreadCountHandler(svcs.Alerts, logger))
			r.Get("/by-priority", alertsByPriorityHandler(svcs.Alerts, logger))
			r.Patch("/{id}/read", markAlertReadHandler(svcs.Alerts, logger))
			r.Patch("/{id}/dismiss", dismissAlertHandler(svcs.Alerts, logger))
		})

		// =============================================
		// Dashboard
		// =============================================
		r.Route("/dashboard", func(r chi.Router) {
			r.Get("/overview", overviewHandler(svcs.Dashboard, loc, logger))
			r.Get("/projected-cash-flow", projectedCashFlowHandler(svcs.Dashboard, logger))
			r.Get("/category-analysis", categoryAnalysisHandler(svcs.Dashboard, loc, logger))
			r.Get("/top-suppliers", topCounterpartiesHandler(svcs.Dashboard, domain.Payable, loc, logger))
			r.Get("/top-customers", topCounterpartiesHandler(svcs.Dashboard, domain.Receivable, loc, logger))
		})
		r.Get("/stats", statsHandler(svcs.Dashboard, logger))
		r.Get("/metrics", ledgerMetricsHandler(metrics))
	})

	return r
}

// ============================================================
// Operational
// ============================================================

func healthzHandler(store port.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().Format(time.RFC3339)
		services := []domain.ServiceHealth{
			{Name: "ledger-api", Status: "healthy", LastChecked: now},
		}

		overall := "healthy"
		if store != nil {
			start := time.Now()
			err := store.Ping(r.Context())
			status := "healthy"
			if err != nil {
				status = "unhealthy"
				overall = "unhealthy"
			}
			services = append(services, domain.ServiceHealth{
				Name: "store", Status: status, LatencyMs: time.Since(start).Milliseconds(), LastChecked: now,
			})
		}

		code := http.StatusOK
		if overall != "healthy" {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, domain.HealthStatus{Status: overall, Services: services})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func ledgerMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, metrics.Snapshot())
	}
}
