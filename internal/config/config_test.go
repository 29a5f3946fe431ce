package config

import "testing"

func TestLoadDoesNotInjectWeakAuthDefaults(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")
	t.Setenv("MANAGER_PIN", "")

	cfg := Load()
	if cfg.AuthSecret != "" {
		t.Fatalf("expected empty AUTH_SECRET when unset, got %q", cfg.AuthSecret)
	}
	if cfg.ManagerPIN != "" {
		t.Fatalf("expected empty MANAGER_PIN when unset, got %q", cfg.ManagerPIN)
	}
}

func TestLoadDefaultsCupSKU(t *testing.T) {
	t.Setenv("CUP_SKU", "")

	cfg := Load()
	if cfg.CupSKU != "VASO-12" {
		t.Fatalf("expected default cup SKU VASO-12, got %q", cfg.CupSKU)
	}
}

func TestLoadReportTTLFallsBackOnGarbage(t *testing.T) {
	t.Setenv("REPORT_CACHE_TTL_SECONDS", "not-a-number")

	cfg := Load()
	if cfg.ReportTTLSeconds != 30 {
		t.Fatalf("expected report TTL fallback 30, got %d", cfg.ReportTTLSeconds)
	}
}
