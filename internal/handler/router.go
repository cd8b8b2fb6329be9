package handler

import (
	"net/http"

	"github.com/boddenberg/cielo-gateway-go/internal/domain"
	"github.com/boddenberg/cielo-gateway-go/internal/infra/observability"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// HealthReporter reports the health of an upstream dependency.
type HealthReporter interface {
	Health() domain.ServiceHealth
}

// NewRouter creates the HTTP router with all routes and middleware. A nil
// auth leaves the /v1 routes unauthenticated.
func NewRouter(gw Gateway, auth TokenValidator, health HealthReporter, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(health))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		if auth != nil {
			r.Use(JWTAuthMiddleware(auth, logger))
		}

		// POST /v1/tids
		r.Post("/tids", requestTIDHandler(gw, logger))

		// POST /v1/transactions
		// GET  /v1/transactions/{tid}
		r.Post("/transactions", createTransactionHandler(gw, logger))
		r.Get("/transactions/{tid}", queryHandler(gw, logger))

		// POST /v1/transactions/{tid}/authorization|capture|cancellation
		r.Post("/transactions/{tid}/authorization", authorizeHandler(gw, logger))
		r.Post("/transactions/{tid}/capture", captureHandler(gw, logger))
		r.Post("/transactions/{tid}/cancellation", cancelHandler(gw, logger))

		// GET /v1/metrics/gateway
		r.Get("/metrics/gateway", gatewayMetricsHandler(metrics))
	})

	return r
}

func healthzHandler(health HealthReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services := []domain.ServiceHealth{
			{Name: "gateway-api", Status: "healthy"},
		}
		if health != nil {
			services = append(services, health.Health())
		}

		overallStatus := "healthy"
		for _, s := range services {
			if s.Status == "unhealthy" {
				overallStatus = "unhealthy"
				break
			}
			if s.Status == "degraded" {
				overallStatus = "degraded"
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overallStatus,
			Services: services,
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func gatewayMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetGatewaySnapshot())
	}
}
