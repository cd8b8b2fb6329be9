package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Mode selects the network environment.
type Mode string

const (
	ModeTest       Mode = "test"
	ModeProduction Mode = "production"
)

// Endpoints of the XML web service per mode.
const (
	TestEndpoint       = "https://qasecommerce.cielo.com.br/servicos/ecommwsec.do"
	ProductionEndpoint = "https://ecommerce.cbmp.com.br/servicos/ecommwsec.do"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// Authorization network
	Mode            Mode
	Endpoint        string // CIELO_ENDPOINT, overrides the mode's default
	AffiliationCode string
	AffiliationKey  string
	ReturnURL       string
	AutoCapture     bool
	ProtocolVersion string

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Cache
	QueryCacheTTL time.Duration

	// Observability
	OTLPEndpoint       string
	CardFingerprintKey string

	// JWT / Auth
	JWTSecret    string
	JWTAccessTTL time.Duration
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		Mode:            Mode(strings.ToLower(getEnv("CIELO_MODE", string(ModeTest)))),
		Endpoint:        getEnv("CIELO_ENDPOINT", ""),
		AffiliationCode: getEnv("CIELO_AFFILIATION_CODE", ""),
		AffiliationKey:  getEnv("CIELO_AFFILIATION_KEY", ""),
		ReturnURL:       getEnv("CIELO_RETURN_URL", ""),
		AutoCapture:     getEnvBool("CIELO_AUTO_CAPTURE", false),
		ProtocolVersion: getEnv("CIELO_PROTOCOL_VERSION", "1.1.0"),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 30*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 0),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 200*time.Millisecond),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 20),

		QueryCacheTTL: getEnvDuration("QUERY_CACHE_TTL", 30*time.Second),

		OTLPEndpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		CardFingerprintKey: getEnv("CARD_FINGERPRINT_KEY", ""),

		JWTSecret:    getEnv("JWT_SECRET", ""),
		JWTAccessTTL: getEnvDuration("JWT_ACCESS_TTL", 15*time.Minute),
	}
}

// CieloEndpoint returns the web service URL for the configured mode, or the
// explicit override.
func (c *Config) CieloEndpoint() (string, error) {
	if c.Endpoint != "" {
		return c.Endpoint, nil
	}
	switch c.Mode {
	case ModeTest:
		return TestEndpoint, nil
	case ModeProduction:
		return ProductionEndpoint, nil
	}
	return "", fmt.Errorf("unknown CIELO_MODE %q", c.Mode)
}

// Validate reports every setting that prevents the gateway from starting.
func (c *Config) Validate() error {
	var errs []error
	if _, err := c.CieloEndpoint(); err != nil {
		errs = append(errs, err)
	}
	if c.AffiliationCode == "" {
		errs = append(errs, errors.New("CIELO_AFFILIATION_CODE is required"))
	}
	if c.AffiliationKey == "" {
		errs = append(errs, errors.New("CIELO_AFFILIATION_KEY is required"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid PORT %d", c.Port))
	}
	if c.MaxRetries < 0 {
		errs = append(errs, errors.New("MAX_RETRIES must not be negative"))
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
