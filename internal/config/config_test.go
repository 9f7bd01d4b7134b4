package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != DefaultPort {
		t.Errorf("Port = %q, want %q", cfg.Port, DefaultPort)
	}
	if cfg.VTBaseURL != DefaultVTBaseURL {
		t.Errorf("VTBaseURL = %q, want %q", cfg.VTBaseURL, DefaultVTBaseURL)
	}
	if cfg.ProviderTimeout != DefaultProviderTimeout {
		t.Errorf("ProviderTimeout = %v, want %v", cfg.ProviderTimeout, DefaultProviderTimeout)
	}
}

func TestProviderTimeoutOverride(t *testing.T) {
	t.Setenv("PROVIDER_TIMEOUT_MS", "1500")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ProviderTimeout != 1500*time.Millisecond {
		t.Errorf("ProviderTimeout = %v, want 1.5s", cfg.ProviderTimeout)
	}
}

func TestScanCacheTTLOverride(t *testing.T) {
	t.Setenv("SCAN_CACHE_TTL", "30m")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ScanCacheTTL != 30*time.Minute {
		t.Errorf("ScanCacheTTL = %v, want 30m", cfg.ScanCacheTTL)
	}
}

func TestProductionRequiresAdminSecret(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("ADMIN_SECRET", "")
	if _, err := Load(); err == nil {
		t.Error("Expected error for production without ADMIN_SECRET")
	}
}

func TestInvalidTimeoutFallsBack(t *testing.T) {
	t.Setenv("PROVIDER_TIMEOUT_MS", "not-a-number")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ProviderTimeout != DefaultProviderTimeout {
		t.Errorf("ProviderTimeout = %v, want default on bad input", cfg.ProviderTimeout)
	}
}
