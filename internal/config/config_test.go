package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/boddenberg/cielo-gateway-go/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "CIELO_MODE", "CIELO_ENDPOINT", "MAX_RETRIES", "HTTP_TIMEOUT", "CIELO_AUTO_CAPTURE", "QUERY_CACHE_TTL"} {
		t.Setenv(k, "")
	}

	cfg := config.Load()

	if cfg.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Port)
	}
	if cfg.Mode != config.ModeTest {
		t.Errorf("expected test mode, got %s", cfg.Mode)
	}
	if cfg.MaxRetries != 0 {
		t.Errorf("expected no retries by default, got %d", cfg.MaxRetries)
	}
	if cfg.HTTPTimeout != 30*time.Second {
		t.Errorf("unexpected timeout %s", cfg.HTTPTimeout)
	}
	if cfg.AutoCapture {
		t.Error("expected auto capture off by default")
	}
	if cfg.ProtocolVersion != "1.1.0" {
		t.Errorf("unexpected version %s", cfg.ProtocolVersion)
	}

	endpoint, err := cfg.CieloEndpoint()
	if err != nil || endpoint != config.TestEndpoint {
		t.Errorf("expected test endpoint, got %q (%v)", endpoint, err)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("CIELO_MODE", "PRODUCTION")
	t.Setenv("CIELO_AUTO_CAPTURE", "true")
	t.Setenv("MAX_RETRIES", "2")
	t.Setenv("QUERY_CACHE_TTL", "1m")
	t.Setenv("CIELO_ENDPOINT", "")

	cfg := config.Load()

	endpoint, err := cfg.CieloEndpoint()
	if err != nil || endpoint != config.ProductionEndpoint {
		t.Errorf("expected production endpoint, got %q (%v)", endpoint, err)
	}
	if !cfg.AutoCapture || cfg.MaxRetries != 2 || cfg.QueryCacheTTL != time.Minute {
		t.Errorf("env not applied: %+v", cfg)
	}

	t.Setenv("CIELO_ENDPOINT", "http://localhost:9999/mock")
	if endpoint, _ := config.Load().CieloEndpoint(); endpoint != "http://localhost:9999/mock" {
		t.Errorf("expected override, got %q", endpoint)
	}
}

func TestValidate(t *testing.T) {
	cfg := &config.Config{Port: 8080, Mode: "staging"}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"CIELO_MODE", "CIELO_AFFILIATION_CODE", "CIELO_AFFILIATION_KEY"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %s in %q", want, err)
		}
	}

	cfg = &config.Config{Port: 8080, Mode: config.ModeTest, AffiliationCode: "1006993069", AffiliationKey: "k"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "CIELO_AFFILIATION_CODE=1006993069\nCIELO_AFFILIATION_KEY=\"from-file\"\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("CIELO_AFFILIATION_CODE", "")
	os.Unsetenv("CIELO_AFFILIATION_CODE")
	t.Setenv("CIELO_AFFILIATION_KEY", "from-env")

	if err := config.LoadDotEnv(path, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if got := os.Getenv("CIELO_AFFILIATION_CODE"); got != "1006993069" {
		t.Errorf("expected value from file, got %q", got)
	}
	if got := os.Getenv("CIELO_AFFILIATION_KEY"); got != "from-env" {
		t.Errorf("expected env to win, got %q", got)
	}
}
