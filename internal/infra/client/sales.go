package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/jorgyvanlima/pdvc1/internal/domain"
	"github.com/jorgyvanlima/pdvc1/internal/infra/observability"
	"github.com/jorgyvanlima/pdvc1/internal/infra/resilience"
	"github.com/jorgyvanlima/pdvc1/internal/port"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("client")

const salesService = "sales"

// SalesClient reads order summaries from the sales collaborator API.
type SalesClient struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
	bulkhead   *resilience.Bulkhead
	cache      port.Cache[*domain.SaleSummary]
	metrics    *observability.Metrics
}

var _ port.SaleFetcher = (*SalesClient)(nil)

// NewSalesClient creates a new SalesClient. A nil cache disables caching.
func NewSalesClient(
	httpClient *http.Client,
	baseURL string,
	cb *gobreaker.CircuitBreaker,
	cfg resilience.Config,
	cache port.Cache[*domain.SaleSummary],
	metrics *observability.Metrics,
) *SalesClient {
	return &SalesClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		cb:         cb,
		cfg:        cfg,
		bulkhead:   resilience.NewBulkhead(cfg.MaxConcurrency),
		cache:      cache,
		metrics:    metrics,
	}
}

// GetSale fetches a sale summary with cache, bulkhead, circuit breaker,
// retry and tracing. A 404 is returned as *domain.ErrNotFound and is not retried.
func (c *SalesClient) GetSale(ctx context.Context, saleID int64) (*domain.SaleSummary, error) {
	ctx, span := tracer.Start(ctx, "SalesClient.GetSale")
	defer span.End()
	span.SetAttributes(attribute.Int64("sale.id", saleID))

	key := "sale:" + strconv.FormatInt(saleID, 10)
	if c.cache != nil {
		if sale, ok := c.cache.Get(key); ok {
			c.metrics.IncrCacheHit("sale")
			return sale, nil
		}
		c.metrics.IncrCacheMiss("sale")
	}

	if err := c.bulkhead.Acquire(ctx); err != nil {
		return nil, err
	}
	defer c.bulkhead.Release()

	result, err := c.cb.Execute(func() (any, error) {
		var sale domain.SaleSummary
		innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			url := fmt.Sprintf("%s/v1/sales/%d/summary", c.baseURL, saleID)
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return resilience.Permanent(err)
			}
			req.Header.Set("Accept", "application/json")

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode == http.StatusNotFound {
				return resilience.Permanent(&domain.ErrNotFound{Resource: "sale", ID: strconv.FormatInt(saleID, 10)})
			}
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("sales API returned status %d", resp.StatusCode)
			}

			if err := json.NewDecoder(resp.Body).Decode(&sale); err != nil {
				return resilience.Permanent(fmt.Errorf("decode sale %d: %w", saleID, err))
			}
			return nil
		})
		if innerErr != nil {
			return nil, innerErr
		}
		return &sale, nil
	})

	if err != nil {
		var notFound *domain.ErrNotFound
		if errors.As(err, &notFound) {
			return nil, notFound
		}
		c.metrics.IncrExternalError(salesService)
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &domain.ErrCircuitOpen{Service: salesService}
		}
		return nil, &domain.ErrExternalService{Service: salesService, Err: err}
	}

	sale := result.(*domain.SaleSummary)
	if c.cache != nil {
		c.cache.Set(key, sale)
	}
	return sale, nil
}

// IsNotFound reports whether err is a not-found answer; used to keep such
// answers from tripping the circuit breaker.
func IsNotFound(err error) bool {
	var notFound *domain.ErrNotFound
	return errors.As(err, &notFound)
}
