package observability

import (
	"time"

	"github.com/boddenberg/cielo-gateway-go/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Call outcomes used as the "outcome" label.
const (
	OutcomeSuccess        = "success"
	OutcomeProtocolError  = "protocol_error"
	OutcomeTransportError = "transport_error"
	OutcomeInvalid        = "invalid"
	OutcomeUnexpected     = "unexpected_document"
)

const (
	metricCalls    = "cielo_calls_total"
	metricDuration = "cielo_call_duration_seconds"
)

// Metrics holds all Prometheus metrics of the gateway.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	callsTotal     *prometheus.CounterVec
	callDuration   *prometheus.HistogramVec
	protocolErrors *prometheus.CounterVec
	externalErrors *prometheus.CounterVec
	cacheHits      *prometheus.CounterVec
	cacheMisses    *prometheus.CounterVec
	breakerState   *prometheus.GaugeVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// gateway metrics in it. A private registry lets tests build as many as
// they need.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		callsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricCalls,
				Help: "Calls to the authorization network by request kind and outcome.",
			},
			[]string{"kind", "outcome"},
		),
		callDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricDuration,
				Help:    "Round-trip duration of calls to the authorization network.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
		protocolErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cielo_protocol_errors_total",
				Help: "Error documents returned by the network, by code.",
			},
			[]string{"code"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cielo_external_errors_total",
				Help: "Transport failures by service.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cielo_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cielo_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		breakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "cielo_circuit_breaker_state",
				Help: "Circuit breaker state: 0 closed, 1 half-open, 2 open.",
			},
			[]string{"name"},
		),
	}
}

// RecordCall records one call and its duration.
func (m *Metrics) RecordCall(kind, outcome string, d time.Duration) {
	m.callsTotal.WithLabelValues(kind, outcome).Inc()
	m.callDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// IncrProtocolError counts an error document by its code.
func (m *Metrics) IncrProtocolError(code string) {
	m.protocolErrors.WithLabelValues(code).Inc()
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// SetBreakerState publishes a breaker state (gobreaker.State as int).
func (m *Metrics) SetBreakerState(name string, state int) {
	m.breakerState.WithLabelValues(name).Set(float64(state))
}

// GetGatewaySnapshot summarizes the cumulative call metrics for the
// GET /v1/metrics/gateway endpoint.
func (m *Metrics) GetGatewaySnapshot() *domain.GatewayMetrics {
	snap := &domain.GatewayMetrics{
		CallsByKind: map[string]int64{},
		Period:      "all_time",
	}

	families, err := m.Registry.Gather()
	if err != nil {
		return snap
	}

	var latencySum float64
	var latencyCount uint64
	for _, mf := range families {
		switch mf.GetName() {
		case metricCalls:
			for _, metric := range mf.GetMetric() {
				n := int64(metric.GetCounter().GetValue())
				snap.TotalCalls += n
				snap.CallsByKind[labelValue(metric, "kind")] += n

				switch labelValue(metric, "outcome") {
				case OutcomeSuccess:
					snap.SuccessfulCalls += n
				case OutcomeProtocolError:
					snap.ProtocolErrors += n
				case OutcomeTransportError:
					snap.TransportErrors += n
				}
			}
		case metricDuration:
			for _, metric := range mf.GetMetric() {
				latencySum += metric.GetHistogram().GetSampleSum()
				latencyCount += metric.GetHistogram().GetSampleCount()
			}
		}
	}

	if snap.TotalCalls > 0 {
		snap.ErrorRate = float64(snap.TotalCalls-snap.SuccessfulCalls) / float64(snap.TotalCalls)
	}
	if latencyCount > 0 {
		snap.AvgLatencyMs = latencySum / float64(latencyCount) * 1000
	}

	hits := getCounterValue(m.cacheHits, "query")
	misses := getCounterValue(m.cacheMisses, "query")
	if hits+misses > 0 {
		snap.CacheHitRate = hits / (hits + misses)
	}

	return snap
}

func labelValue(metric *dto.Metric, name string) string {
	for _, lp := range metric.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
