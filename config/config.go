// Package config holds the export engine's environment-driven settings,
// following the web example's plain-struct-plus-Defaults style.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/goliatone/go-export/export"
)

// Config is the export engine's full runtime configuration.
type Config struct {
	Server   ServerConfig
	Export   ExportConfig
	Registry RegistryConfig
	Gate     GateConfig
	DB       DBConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string
	Port string
}

// ExportConfig holds the Export Coordinator's tunables (spec §6.4).
type ExportConfig struct {
	ArtifactDir     string
	MaxChunkSize    int
	MaxMemoryMB     int
	RequestTimeout  time.Duration
	CleanupOnStart  bool
	CleanupOnExport bool
}

// RegistryConfig holds the Export Registry's tunables (spec §6.4).
type RegistryConfig struct {
	RetentionHours int
	KeepLastN      int
	WarningMB      int
	CleanupMB      int
	SweepInterval  time.Duration
}

// GateConfig holds the concurrency bounds from spec §5.
type GateConfig struct {
	MaxConcurrentExports      int
	MaxConcurrentLargeExports int
}

// DBConfig holds the Source Adapter's backing-store connection settings.
type DBConfig struct {
	Driver string
	DSN    string
}

// Defaults returns a Config with the spec §6.4 env-var defaults applied.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: "8080",
		},
		Export: ExportConfig{
			ArtifactDir:     "",
			MaxChunkSize:    10000,
			MaxMemoryMB:     512,
			RequestTimeout:  5 * time.Minute,
			CleanupOnStart:  true,
			CleanupOnExport: true,
		},
		Registry: RegistryConfig{
			RetentionHours: 168,
			KeepLastN:      5,
			WarningMB:      0,
			CleanupMB:      0,
			SweepInterval:  30 * time.Minute,
		},
		Gate: GateConfig{
			MaxConcurrentExports:      20,
			MaxConcurrentLargeExports: 3,
		},
		DB: DBConfig{
			Driver: "sqlite",
			DSN:    "file::memory:?cache=shared",
		},
	}
}

// FromEnv applies spec §6.4's environment overrides on top of Defaults.
func FromEnv() Config {
	cfg := Defaults()

	if host := os.Getenv("HOST"); host != "" {
		cfg.Server.Host = host
	}
	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.Port = port
	}
	if dir := os.Getenv("ARTIFACT_DIR"); dir != "" {
		cfg.Export.ArtifactDir = dir
	}
	if v := envInt("MAX_CHUNK_SIZE"); v > 0 {
		cfg.Export.MaxChunkSize = v
	}
	if v := envInt("MAX_MEMORY_MB"); v > 0 {
		cfg.Export.MaxMemoryMB = v
	}
	if v := envInt("REQUEST_TIMEOUT"); v > 0 {
		cfg.Export.RequestTimeout = time.Duration(v) * time.Second
	}
	if v, ok := envBool("CLEANUP_ON_STARTUP"); ok {
		cfg.Export.CleanupOnStart = v
	}
	if v, ok := envBool("CLEANUP_ON_EXPORT"); ok {
		cfg.Export.CleanupOnExport = v
	}

	if v := envInt("EXPORT_RETENTION_HOURS"); v > 0 {
		cfg.Registry.RetentionHours = v
	}
	if v := envInt("CLEANUP_KEEP_N"); v > 0 {
		cfg.Registry.KeepLastN = v
	}
	if v := envInt("STORAGE_WARNING_MB"); v > 0 {
		cfg.Registry.WarningMB = v
	}
	if v := envInt("STORAGE_CLEANUP_MB"); v > 0 {
		cfg.Registry.CleanupMB = v
	}
	if v := envInt("SWEEP_INTERVAL_MINUTES"); v > 0 {
		cfg.Registry.SweepInterval = time.Duration(v) * time.Minute
	}

	if v := envInt("MAX_CONCURRENT_EXPORTS"); v > 0 {
		cfg.Gate.MaxConcurrentExports = v
	}
	if v := envInt("MAX_CONCURRENT_LARGE_EXPORTS"); v > 0 {
		cfg.Gate.MaxConcurrentLargeExports = v
	}

	if driver := os.Getenv("DB_DRIVER"); driver != "" {
		cfg.DB.Driver = driver
	}
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		cfg.DB.DSN = dsn
	}

	return cfg
}

// ToRegistryConfig converts to the export package's RegistryConfig.
func (c Config) ToRegistryConfig() export.RegistryConfig {
	return export.RegistryConfig{
		RetentionWindow: time.Duration(c.Registry.RetentionHours) * time.Hour,
		KeepLastN:       c.Registry.KeepLastN,
		WarningBytes:    int64(c.Registry.WarningMB) * 1024 * 1024,
		CleanupBytes:    int64(c.Registry.CleanupMB) * 1024 * 1024,
		SweepInterval:   c.Registry.SweepInterval,
	}
}

// ToCoordinatorConfig converts to the export package's CoordinatorConfig.
func (c Config) ToCoordinatorConfig() export.CoordinatorConfig {
	return export.CoordinatorConfig{
		JobTimeout:      c.Export.RequestTimeout,
		RetentionWindow: time.Duration(c.Registry.RetentionHours) * time.Hour,
	}
}

func envInt(name string) int {
	raw := os.Getenv(name)
	if raw == "" {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return v
}

func envBool(name string) (bool, bool) {
	raw := os.Getenv(name)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
