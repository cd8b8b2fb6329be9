package domain

// GatewayMetrics is the summary served by GET /v1/metrics/gateway.
type GatewayMetrics struct {
	TotalCalls      int64            `json:"total_calls"`
	SuccessfulCalls int64            `json:"successful_calls"`
	ProtocolErrors  int64            `json:"protocol_errors"`
	TransportErrors int64            `json:"transport_errors"`
	ErrorRate       float64          `json:"error_rate"`
	AvgLatencyMs    float64          `json:"avg_latency_ms"`
	CacheHitRate    float64          `json:"cache_hit_rate"`
	CallsByKind     map[string]int64 `json:"calls_by_kind"`
	Period          string           `json:"period"`
}
