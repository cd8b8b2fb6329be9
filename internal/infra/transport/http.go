// Package transport implements port.Transport over net/http.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/boddenberg/cielo-gateway-go/internal/domain"
	"github.com/boddenberg/cielo-gateway-go/internal/infra/resilience"
	"github.com/boddenberg/cielo-gateway-go/internal/port"
)

var tracer = otel.Tracer("transport")

const maxResponseBytes = 1 << 20

// Client holds what every transport shares: the http.Client, the breaker
// and the bulkhead. Transports themselves are cheap and single-use.
type Client struct {
	service    string
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker
	bulkhead   *resilience.Bulkhead
	cfg        resilience.Config
	logger     *zap.Logger
}

// NewClient creates the shared transport client for service.
func NewClient(service string, httpClient *http.Client, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger) *Client {
	return &Client{
		service:    service,
		httpClient: httpClient,
		cb:         cb,
		bulkhead:   resilience.NewBulkhead(cfg.MaxConcurrency),
		cfg:        cfg,
		logger:     logger,
	}
}

// Factory returns a TransportFactory producing unopened HTTP transports.
func (c *Client) Factory() port.TransportFactory {
	return func() port.Transport {
		return &HTTPTransport{client: c}
	}
}

// Health reports the service status derived from the breaker state.
func (c *Client) Health() domain.ServiceHealth {
	status := "healthy"
	switch c.cb.State() {
	case gobreaker.StateHalfOpen:
		status = "degraded"
	case gobreaker.StateOpen:
		status = "unhealthy"
	}
	return domain.ServiceHealth{
		Name:        c.service,
		Status:      status,
		Breaker:     c.cb.State().String(),
		LastChecked: time.Now().Format(time.RFC3339),
	}
}

// HTTPTransport is one Open/Execute/Close cycle against an endpoint.
type HTTPTransport struct {
	client   *Client
	endpoint *url.URL
}

var _ port.Transport = (*HTTPTransport)(nil)

// Open validates and binds the endpoint.
func (t *HTTPTransport) Open(endpoint string) error {
	u, err := url.Parse(endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &domain.ErrValidation{Field: "endpoint", Message: fmt.Sprintf("invalid endpoint %q", endpoint)}
	}
	t.endpoint = u
	return nil
}

// Close releases the endpoint. Calling it twice is harmless.
func (t *HTTPTransport) Close() error {
	t.endpoint = nil
	return nil
}

// Execute sends fields with method. POST and PUT carry them as a
// form-encoded body, GET and DELETE as the query string.
func (t *HTTPTransport) Execute(ctx context.Context, fields url.Values, method string) (string, error) {
	if t.endpoint == nil {
		return "", &domain.ErrPrecondition{Operation: "transport.execute", Message: "transport is not open"}
	}
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete:
	default:
		return "", &domain.ErrValidation{Field: "method", Message: fmt.Sprintf("unsupported method %q", method)}
	}

	c := t.client
	ctx, span := tracer.Start(ctx, "HTTPTransport.Execute")
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("server.address", t.endpoint.Host),
	)

	if err := c.bulkhead.Acquire(ctx); err != nil {
		return "", &domain.ErrExternalService{Service: c.service, Err: err}
	}
	defer c.bulkhead.Release()

	var body string
	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			var innerErr error
			body, innerErr = t.do(ctx, fields, method)
			return innerErr
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Warn("transport call failed",
			zap.String("service", c.service),
			zap.String("host", t.endpoint.Host),
			zap.String("method", method),
			zap.Error(err),
		)

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", &domain.ErrExternalService{Service: c.service, Err: &domain.ErrCircuitOpen{Service: c.service}}
		}
		return "", &domain.ErrExternalService{Service: c.service, Err: err}
	}

	return body, nil
}

func (t *HTTPTransport) do(ctx context.Context, fields url.Values, method string) (string, error) {
	target := *t.endpoint
	var reqBody io.Reader

	encoded := fields.Encode()
	if method == http.MethodPost || method == http.MethodPut {
		reqBody = strings.NewReader(encoded)
	} else if encoded != "" {
		if target.RawQuery != "" {
			target.RawQuery += "&" + encoded
		} else {
			target.RawQuery = encoded
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reqBody)
	if err != nil {
		return "", resilience.Permanent(err)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("Accept", "application/xml, text/xml")

	resp, err := t.client.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", err
	}

	switch {
	case resp.StatusCode >= 500:
		return "", fmt.Errorf("%s returned status %d", t.client.service, resp.StatusCode)
	case resp.StatusCode >= 400:
		return "", resilience.Permanent(fmt.Errorf("%s returned status %d", t.client.service, resp.StatusCode))
	}

	return string(raw), nil
}
