package config

import (
	"testing"
	"time"
)

func TestFromEnvAppliesOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("MAX_CHUNK_SIZE", "2500")
	t.Setenv("EXPORT_RETENTION_HOURS", "24")
	t.Setenv("CLEANUP_KEEP_N", "10")
	t.Setenv("CLEANUP_ON_STARTUP", "false")

	cfg := FromEnv()

	if cfg.Server.Port != "9090" {
		t.Errorf("expected port override, got %q", cfg.Server.Port)
	}
	if cfg.Export.MaxChunkSize != 2500 {
		t.Errorf("expected chunk size override, got %d", cfg.Export.MaxChunkSize)
	}
	if cfg.Registry.RetentionHours != 24 {
		t.Errorf("expected retention override, got %d", cfg.Registry.RetentionHours)
	}
	if cfg.Registry.KeepLastN != 10 {
		t.Errorf("expected keep-n override, got %d", cfg.Registry.KeepLastN)
	}
	if cfg.Export.CleanupOnStart {
		t.Error("expected cleanup_on_startup=false to disable startup cleanup")
	}
}

func TestDefaultsMatchSpecEnvDefaults(t *testing.T) {
	cfg := Defaults()
	if cfg.Registry.RetentionHours != 168 {
		t.Errorf("expected default retention 168h, got %d", cfg.Registry.RetentionHours)
	}
	if cfg.Registry.KeepLastN != 5 {
		t.Errorf("expected default keep-n 5, got %d", cfg.Registry.KeepLastN)
	}
}

func TestToRegistryConfigConvertsUnits(t *testing.T) {
	cfg := Defaults()
	cfg.Registry.WarningMB = 100
	cfg.Registry.CleanupMB = 200

	rc := cfg.ToRegistryConfig()
	if rc.WarningBytes != 100*1024*1024 {
		t.Errorf("expected warning bytes conversion, got %d", rc.WarningBytes)
	}
	if rc.CleanupBytes != 200*1024*1024 {
		t.Errorf("expected cleanup bytes conversion, got %d", rc.CleanupBytes)
	}
	if rc.RetentionWindow != 168*time.Hour {
		t.Errorf("expected default retention window, got %v", rc.RetentionWindow)
	}
}

func TestEnvIntIgnoresGarbage(t *testing.T) {
	t.Setenv("MAX_CHUNK_SIZE", "not-a-number")
	cfg := FromEnv()
	if cfg.Export.MaxChunkSize != Defaults().Export.MaxChunkSize {
		t.Errorf("expected garbage env var to be ignored, got %d", cfg.Export.MaxChunkSize)
	}
}
