package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/jorgyvanlima/pdvc1/internal/domain"
	"github.com/jorgyvanlima/pdvc1/internal/handler"
	"github.com/jorgyvanlima/pdvc1/internal/infra/memory"
	"github.com/jorgyvanlima/pdvc1/internal/infra/observability"
	"github.com/jorgyvanlima/pdvc1/internal/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

type testServer struct {
	router http.Handler
	store  *memory.Store
}

func newTestServer(t *testing.T, secret string) *testServer {
	t.Helper()
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	opts := service.Options{Location: time.UTC, DueSoonDays: 7, Now: func() time.Time { return now }}
	store := memory.New()
	metrics := observability.NewMetrics()
	logger := zap.NewNop()

	svcs := handler.Services{
		Registry:  service.NewRegistryService(store, logger, opts),
		Ledger:    service.NewLedgerService(store, nil, metrics, logger, opts),
		DailyCash: service.NewDailyCashService(store, metrics, logger, opts),
		Alerts:    service.NewAlertService(store, metrics, logger, opts),
		Dashboard: service.NewDashboardService(store, metrics, logger, opts),
	}
	router := handler.NewRouter(svcs, store, metrics, handler.Options{JWTSecret: secret, Location: time.UTC}, logger)
	return &testServer{router: router, store: store}
}

func (s *testServer) do(t *testing.T, method, path, body string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, "")
	rec := s.do(t, http.MethodGet, "/healthz", "", nil)
	expectStatus(t, rec, http.StatusOK)

	var health domain.HealthStatus
	decodeBody(t, rec, &health)
	if health.Status != "healthy" || len(health.Services) != 2 {
		t.Errorf("unexpected health: %+v", health)
	}
}

func TestReadyz(t *testing.T) {
	s := newTestServer(t, "")
	expectStatus(t, s.do(t, http.MethodGet, "/readyz", "", nil), http.StatusOK)
}

func TestMetrics(t *testing.T) {
	s := newTestServer(t, "")
	expectStatus(t, s.do(t, http.MethodGet, "/metrics", "", nil), http.StatusOK)
	expectStatus(t, s.do(t, http.MethodGet, "/v1/financial/metrics", "", nil), http.StatusOK)
}

func TestPayableLifecycle(t *testing.T) {
	s := newTestServer(t, "")
	actor := http.Header{handler.ActorHeader: []string{"cashier-1"}}

	rec := s.do(t, http.MethodPost, "/v1/financial/bank-accounts",
		`{"name":"Operating","bankName":"Banco do Brasil","initialBalance":"1000"}`, actor)
	expectStatus(t, rec, http.StatusCreated)
	var bank domain.BankAccount
	decodeBody(t, rec, &bank)

	rec = s.do(t, http.MethodPost, "/v1/financial/payables",
		`{"description":"Supplier invoice","supplierId":3,"amount":"900","dueDate":"2025-03-15","totalInstallments":3}`, actor)
	expectStatus(t, rec, http.StatusCreated)
	var created struct {
		ID                int64  `json:"id"`
		SupplierID        int64  `json:"supplierId"`
		Status            string `json:"status"`
		VirtualStatus     string `json:"virtualStatus"`
		TotalInstallments int    `json:"totalInstallments"`
	}
	decodeBody(t, rec, &created)
	if created.SupplierID != 3 || created.TotalInstallments != 3 || created.VirtualStatus != "DUE_SOON" {
		t.Fatalf("unexpected payable: %+v", created)
	}

	rec = s.do(t, http.MethodGet, "/v1/financial/payables/"+itoa(created.ID), "", nil)
	expectStatus(t, rec, http.StatusOK)
	var detail struct {
		Installments []domain.Installment `json:"installments"`
	}
	decodeBody(t, rec, &detail)
	if len(detail.Installments) != 3 {
		t.Fatalf("expected 3 installments, got %d", len(detail.Installments))
	}

	pay := `{"paymentMethod":"PIX","bankAccountId":` + itoa(bank.ID) + `}`
	rec = s.do(t, http.MethodPost, "/v1/financial/payables/"+itoa(created.ID)+"/pay", pay, actor)
	expectStatus(t, rec, http.StatusOK)
	decodeBody(t, rec, &created)
	if created.Status != string(domain.StatusPaid) {
		t.Errorf("expected PAID, got %s", created.Status)
	}

	rec = s.do(t, http.MethodPost, "/v1/financial/payables/"+itoa(created.ID)+"/pay", pay, actor)
	expectStatus(t, rec, http.StatusConflict)

	rec = s.do(t, http.MethodGet, "/v1/financial/bank-accounts/"+itoa(bank.ID), "", nil)
	expectStatus(t, rec, http.StatusOK)
	decodeBody(t, rec, &bank)
	if !bank.CurrentBalance.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected balance 100, got %s", bank.CurrentBalance)
	}

	rec = s.do(t, http.MethodGet, "/v1/financial/transactions?type=expense", "", nil)
	expectStatus(t, rec, http.StatusOK)
	var txs []domain.FinancialTransaction
	decodeBody(t, rec, &txs)
	if len(txs) != 1 || !txs[0].Amount.Equal(decimal.NewFromInt(900)) || txs[0].UserID != "cashier-1" {
		t.Errorf("unexpected transactions: %+v", txs)
	}

	for _, e := range s.store.AuditEntries() {
		if e.ActorID != "cashier-1" {
			t.Errorf("audit entry %s attributed to %q", e.Table, e.ActorID)
		}
	}
}

func TestReceivableSettleRoute(t *testing.T) {
	s := newTestServer(t, "")

	rec := s.do(t, http.MethodPost, "/v1/financial/receivables",
		`{"description":"Order 12","customerId":8,"amount":"120.50","dueDate":"2025-03-01"}`, nil)
	expectStatus(t, rec, http.StatusCreated)
	var acc struct {
		ID            int64  `json:"id"`
		CustomerID    int64  `json:"customerId"`
		VirtualStatus string `json:"virtualStatus"`
	}
	decodeBody(t, rec, &acc)
	if acc.CustomerID != 8 || acc.VirtualStatus != "OVERDUE" {
		t.Fatalf("unexpected receivable: %+v", acc)
	}

	rec = s.do(t, http.MethodGet, "/v1/financial/receivables/reports/overdue", "", nil)
	expectStatus(t, rec, http.StatusOK)
	var overdue []json.RawMessage
	decodeBody(t, rec, &overdue)
	if len(overdue) != 1 {
		t.Errorf("expected 1 overdue receivable, got %d", len(overdue))
	}

	expectStatus(t, s.do(t, http.MethodPost, "/v1/financial/receivables/"+itoa(acc.ID)+"/pay", `{"paymentMethod":"CASH"}`, nil), http.StatusNotFound)
	expectStatus(t, s.do(t, http.MethodPost, "/v1/financial/receivables/"+itoa(acc.ID)+"/receive", `{"paymentMethod":"CASH"}`, nil), http.StatusOK)
}

func TestErrorMapping(t *testing.T) {
	s := newTestServer(t, "")

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		field  string
	}{
		{"malformed body", http.MethodPost, "/v1/financial/payables", `{`, http.StatusBadRequest, "body"},
		{"missing due date", http.MethodPost, "/v1/financial/payables", `{"description":"x","amount":"10"}`, http.StatusBadRequest, "dueDate"},
		{"bad date format", http.MethodPost, "/v1/financial/payables", `{"description":"x","amount":"10","dueDate":"10/03/2025"}`, http.StatusBadRequest, "dueDate"},
		{"non-numeric id", http.MethodGet, "/v1/financial/payables/abc", "", http.StatusBadRequest, "id"},
		{"unknown payable", http.MethodGet, "/v1/financial/payables/404", "", http.StatusNotFound, ""},
		{"unknown alert", http.MethodPatch, "/v1/financial/alerts/9/read", "", http.StatusNotFound, ""},
		{"half range", http.MethodGet, "/v1/financial/dashboard/overview?startDate=2025-03-01", "", http.StatusBadRequest, "endDate"},
		{"projection too long", http.MethodGet, "/v1/financial/dashboard/projected-cash-flow?days=400", "", http.StatusBadRequest, "days"},
		{"receivable from sale without collaborator", http.MethodPost, "/v1/financial/receivables/from-sale", `{"saleId":5}`, http.StatusBadGateway, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, tt.method, tt.path, tt.body, nil)
			expectStatus(t, rec, tt.status)
			if tt.field == "" {
				return
			}
			var body struct {
				Field string `json:"field"`
			}
			decodeBody(t, rec, &body)
			if body.Field != tt.field {
				t.Errorf("expected field %q, got %q", tt.field, body.Field)
			}
		})
	}
}

func TestDailyCashRoutes(t *testing.T) {
	s := newTestServer(t, "")

	expectStatus(t, s.do(t, http.MethodPost, "/v1/financial/daily-cash/open", `{"openingBalance":"100"}`, nil), http.StatusCreated)
	expectStatus(t, s.do(t, http.MethodPost, "/v1/financial/daily-cash/open", `{"openingBalance":"100"}`, nil), http.StatusConflict)
	expectStatus(t, s.do(t, http.MethodPost, "/v1/financial/daily-cash/income",
		`{"description":"Counter sales","amount":"50","paymentMethod":"CASH"}`, nil), http.StatusCreated)
	expectStatus(t, s.do(t, http.MethodPost, "/v1/financial/daily-cash/expense",
		`{"description":"Courier","amount":"20","paymentMethod":"PIX"}`, nil), http.StatusCreated)

	rec := s.do(t, http.MethodPost, "/v1/financial/daily-cash/close", `{"date":"2025-03-10"}`, nil)
	expectStatus(t, rec, http.StatusBadRequest)
	var failure struct {
		Field string `json:"field"`
	}
	decodeBody(t, rec, &failure)
	if failure.Field != "actualBalance" {
		t.Errorf("expected actualBalance to be reported, got %q", failure.Field)
	}
	expectStatus(t, s.do(t, http.MethodPost, "/v1/financial/daily-cash/income",
		`{"description":"Late sale","amount":"0.01","paymentMethod":"CASH"}`, nil), http.StatusCreated)
	expectStatus(t, s.do(t, http.MethodPost, "/v1/financial/daily-cash/expense",
		`{"description":"Rounding","amount":"0.01","paymentMethod":"CASH"}`, nil), http.StatusCreated)

	rec = s.do(t, http.MethodPost, "/v1/financial/daily-cash/close", `{"actualBalance":"125"}`, nil)
	expectStatus(t, rec, http.StatusOK)
	var report domain.DailyCashReport
	decodeBody(t, rec, &report)
	if !report.ExpectedBalance.Equal(decimal.NewFromInt(130)) || !report.Difference.Equal(decimal.NewFromInt(-5)) {
		t.Errorf("unexpected close: expected=%s difference=%s", report.ExpectedBalance, report.Difference)
	}

	rec = s.do(t, http.MethodGet, "/v1/financial/daily-cash/2025-03-10", "", nil)
	expectStatus(t, rec, http.StatusOK)
	decodeBody(t, rec, &report)
	if report.Status != domain.CashClosed || len(report.Transactions) != 4 {
		t.Errorf("unexpected report: status=%s transactions=%d", report.Status, len(report.Transactions))
	}

	rec = s.do(t, http.MethodGet, "/v1/financial/daily-cash?status=CLOSED", "", nil)
	expectStatus(t, rec, http.StatusOK)
	var page domain.Page[domain.DailyCashReport]
	decodeBody(t, rec, &page)
	if page.Total != 1 {
		t.Errorf("expected 1 closed register, got %d", page.Total)
	}

	expectStatus(t, s.do(t, http.MethodGet, "/v1/financial/daily-cash/2025-03-09", "", nil), http.StatusNotFound)
	expectStatus(t, s.do(t, http.MethodGet, "/v1/financial/daily-cash/summary?startDate=2025-03-01&endDate=2025-03-31", "", nil), http.StatusOK)
}

func TestAlertRoutes(t *testing.T) {
	s := newTestServer(t, "")
	for _, due := range []string{"2025-03-10", "2025-03-11", "2025-03-05"} {
		expectStatus(t, s.do(t, http.MethodPost, "/v1/financial/payables",
			`{"description":"rent","amount":"10","dueDate":"`+due+`"}`, nil), http.StatusCreated)
	}

	rec := s.do(t, http.MethodPost, "/v1/financial/alerts/generate", "", nil)
	expectStatus(t, rec, http.StatusOK)
	var result domain.GenerationResult
	decodeBody(t, rec, &result)
	if result.Created != 3 {
		t.Fatalf("expected 3 alerts, got %+v", result)
	}

	rec = s.do(t, http.MethodGet, "/v1/financial/alerts?priority=urgent", "", nil)
	expectStatus(t, rec, http.StatusOK)
	var page domain.Page[domain.PaymentAlert]
	decodeBody(t, rec, &page)
	if page.Total != 2 {
		t.Fatalf("expected 2 urgent alerts, got %d", page.Total)
	}

	expectStatus(t, s.do(t, http.MethodPatch, "/v1/financial/alerts/"+itoa(page.Items[0].ID)+"/read", "", nil), http.StatusOK)

	rec = s.do(t, http.MethodGet, "/v1/financial/alerts/unread-count", "", nil)
	expectStatus(t, rec, http.StatusOK)
	var count map[string]int
	decodeBody(t, rec, &count)
	if count["count"] != 2 {
		t.Errorf("expected 2 unread, got %v", count)
	}
}

func TestActorMiddleware_JWT(t *testing.T) {
	s := newTestServer(t, testSecret)
	body := `{"name":"Rent","type":"EXPENSE"}`

	expectStatus(t, s.do(t, http.MethodPost, "/v1/financial/categories", body, nil), http.StatusUnauthorized)
	expectStatus(t, s.do(t, http.MethodPost, "/v1/financial/categories", body,
		http.Header{"Authorization": []string{"Token abc"}}), http.StatusUnauthorized)
	expectStatus(t, s.do(t, http.MethodPost, "/v1/financial/categories", body,
		http.Header{"Authorization": []string{"Bearer " + signToken(t, "other-secret", "op-1", time.Hour)}}), http.StatusUnauthorized)
	expectStatus(t, s.do(t, http.MethodPost, "/v1/financial/categories", body,
		http.Header{"Authorization": []string{"Bearer " + signToken(t, testSecret, "op-1", -time.Minute)}}), http.StatusUnauthorized)

	rec := s.do(t, http.MethodPost, "/v1/financial/categories", body,
		http.Header{"Authorization": []string{"Bearer " + signToken(t, testSecret, "op-1", time.Hour)}})
	expectStatus(t, rec, http.StatusCreated)

	entries := s.store.AuditEntries()
	if len(entries) != 1 || entries[0].ActorID != "op-1" {
		t.Errorf("expected one audit entry by op-1, got %+v", entries)
	}

	// Operational endpoints stay public.
	expectStatus(t, s.do(t, http.MethodGet, "/healthz", "", nil), http.StatusOK)
}

func TestActorMiddleware_HeaderFallback(t *testing.T) {
	s := newTestServer(t, "")
	expectStatus(t, s.do(t, http.MethodPost, "/v1/financial/categories", `{"name":"Rent","type":"EXPENSE"}`, nil), http.StatusCreated)

	entries := s.store.AuditEntries()
	if len(entries) != 1 || entries[0].ActorID != "system" {
		t.Errorf("expected one audit entry by system, got %+v", entries)
	}
}

func signToken(t *testing.T, secret, sub string, ttl time.Duration) string {
	t.Helper()
	claims := handler.ActorClaims{
		Sub: sub,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
