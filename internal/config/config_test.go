package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dvloznov/spendscan/internal/recurrence"
)

var allKeys = []string{
	"PORT", "LOG_LEVEL", "GCS_BUCKET", "GCP_PROJECT", "BQ_DATASET", "BQ_TABLE",
	"GENAI_MODEL", "RULES_FILE", "RECURRENCE_STRATEGY", "NOTION_TOKEN",
	"NOTION_SUBSCRIPTIONS_DB", "NOTION_LEAKS_DB", "QUEUE_BUFFER", "QUEUE_WORKERS",
	"MAX_UPLOAD_BYTES",
}

// clearEnv unsets every config key for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allKeys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestNewConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := NewConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.RecurrenceStrategy != recurrence.StrategyWhitelist {
		t.Errorf("RecurrenceStrategy = %q", cfg.RecurrenceStrategy)
	}
	if cfg.QueueWorkers != 5 || cfg.QueueBuffer != 100 {
		t.Errorf("queue = %d workers, %d buffer", cfg.QueueWorkers, cfg.QueueBuffer)
	}
	if cfg.MaxUploadBytes != 10<<20 {
		t.Errorf("MaxUploadBytes = %d", cfg.MaxUploadBytes)
	}
	if cfg.BQDataset != "finance" || cfg.BQTable != "transactions" {
		t.Errorf("BigQuery table = %s.%s", cfg.BQDataset, cfg.BQTable)
	}
	if cfg.NotionEnabled() {
		t.Error("Notion should be disabled without a token")
	}
}

func TestNewConfig_FromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("RECURRENCE_STRATEGY", "interval")
	t.Setenv("QUEUE_WORKERS", "2")
	t.Setenv("NOTION_TOKEN", "secret")
	t.Setenv("NOTION_LEAKS_DB", "db-1")

	cfg, err := NewConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9090" || cfg.RecurrenceStrategy != "interval" || cfg.QueueWorkers != 2 {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if !cfg.NotionEnabled() {
		t.Error("Notion should be enabled")
	}
}

func TestNewConfig_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "unknown strategy", key: "RECURRENCE_STRATEGY", value: "magic"},
		{name: "non-numeric workers", key: "QUEUE_WORKERS", value: "many"},
		{name: "zero workers", key: "QUEUE_WORKERS", value: "0"},
		{name: "negative buffer", key: "QUEUE_BUFFER", value: "-1"},
		{name: "zero upload size", key: "MAX_UPLOAD_BYTES", value: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			if _, err := NewConfig(); err == nil {
				t.Errorf("expected error for %s=%q", tt.key, tt.value)
			}
		})
	}
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("QUEUE_WORKERS=7\nGCS_BUCKET=statements\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	// godotenv.Load sets variables outside t.Setenv, so clean them up here.
	t.Cleanup(func() {
		os.Unsetenv("QUEUE_WORKERS")
		os.Unsetenv("GCS_BUCKET")
	})

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.QueueWorkers != 7 || cfg.GCSBucket != "statements" {
		t.Errorf("env file not applied: %+v", cfg)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("missing env file should be ignored, got %v", err)
	}
}

func TestConfig_Rules(t *testing.T) {
	cfg := &Config{}
	set, err := cfg.Rules()
	if err != nil || set == nil {
		t.Fatalf("default rules: %v", err)
	}

	cfg.RulesFile = filepath.Join(t.TempDir(), "nope.yaml")
	if _, err := cfg.Rules(); err == nil {
		t.Error("expected error for missing rules file")
	}
}
