package domain

// ============================================================
// Health & Metrics API Responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual dependency.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latencyMs"`
	LastChecked string `json:"lastChecked"`
}

// LedgerMetrics is returned by GET /v1/financial/metrics.
// Counters are cumulative since process start.
type LedgerMetrics struct {
	PayablesSettled     int64   `json:"payablesSettled"`
	ReceivablesSettled  int64   `json:"receivablesSettled"`
	SettlementsRejected int64   `json:"settlementsRejected"`
	AmountPaid          float64 `json:"amountPaid"`
	AmountReceived      float64 `json:"amountReceived"`
	AlertsGenerated     int64   `json:"alertsGenerated"`
	RegistersClosed     int64   `json:"registersClosed"`
	SalesErrors         int64   `json:"salesErrors"`
	SaleCacheHitRate    float64 `json:"saleCacheHitRate"`
	Period              string  `json:"period"`
}

// SuccessResponse wraps a successful action without an entity body.
type SuccessResponse struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}
