package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/dvloznov/spendscan/internal/recurrence"
	"github.com/dvloznov/spendscan/internal/rules"
)

// Config holds application configuration
type Config struct {
	Port     string
	LogLevel string

	GCSBucket  string
	GCPProject string
	BQDataset  string
	BQTable    string

	GenAIModel         string
	RulesFile          string
	RecurrenceStrategy string

	NotionToken           string
	NotionSubscriptionsDB string
	NotionLeaksDB         string

	QueueBuffer    int
	QueueWorkers   int
	MaxUploadBytes int64
}

const (
	defaultQueueBuffer    = 100
	defaultQueueWorkers   = 5
	defaultMaxUploadBytes = 10 << 20
)

// Load seeds the environment from envFile (a missing file is ignored) and
// then reads the configuration from it.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("Load: reading %s: %w", envFile, err)
		}
	}
	return NewConfig()
}

// NewConfig loads configuration from environment variables
func NewConfig() (*Config, error) {
	cfg := &Config{
		Port:                  getEnv("PORT", "8080"),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		GCSBucket:             getEnv("GCS_BUCKET", ""),
		GCPProject:            getEnv("GCP_PROJECT", ""),
		BQDataset:             getEnv("BQ_DATASET", "finance"),
		BQTable:               getEnv("BQ_TABLE", "transactions"),
		GenAIModel:            getEnv("GENAI_MODEL", "gemini-2.5-flash"),
		RulesFile:             getEnv("RULES_FILE", ""),
		RecurrenceStrategy:    getEnv("RECURRENCE_STRATEGY", recurrence.StrategyWhitelist),
		NotionToken:           getEnv("NOTION_TOKEN", ""),
		NotionSubscriptionsDB: getEnv("NOTION_SUBSCRIPTIONS_DB", ""),
		NotionLeaksDB:         getEnv("NOTION_LEAKS_DB", ""),
	}

	var err error
	if cfg.QueueBuffer, err = getEnvInt("QUEUE_BUFFER", defaultQueueBuffer); err != nil {
		return nil, err
	}
	if cfg.QueueWorkers, err = getEnvInt("QUEUE_WORKERS", defaultQueueWorkers); err != nil {
		return nil, err
	}
	maxUpload, err := getEnvInt("MAX_UPLOAD_BYTES", defaultMaxUploadBytes)
	if err != nil {
		return nil, err
	}
	cfg.MaxUploadBytes = int64(maxUpload)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the services cannot start with.
func (c *Config) Validate() error {
	switch c.RecurrenceStrategy {
	case recurrence.StrategyWhitelist, recurrence.StrategyInterval:
	default:
		return fmt.Errorf("RECURRENCE_STRATEGY %q is not one of %q, %q",
			c.RecurrenceStrategy, recurrence.StrategyWhitelist, recurrence.StrategyInterval)
	}
	if c.QueueBuffer <= 0 {
		return fmt.Errorf("QUEUE_BUFFER must be positive, got %d", c.QueueBuffer)
	}
	if c.QueueWorkers <= 0 {
		return fmt.Errorf("QUEUE_WORKERS must be positive, got %d", c.QueueWorkers)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", c.MaxUploadBytes)
	}
	return nil
}

// Rules returns the rule set named by RulesFile, or the built-in tables.
func (c *Config) Rules() (*rules.Set, error) {
	if c.RulesFile == "" {
		return rules.Default(), nil
	}
	set, err := rules.LoadFile(c.RulesFile)
	if err != nil {
		return nil, fmt.Errorf("Rules: %w", err)
	}
	return set, nil
}

// NotionEnabled reports whether the Notion export is configured.
func (c *Config) NotionEnabled() bool {
	return c.NotionToken != "" && (c.NotionSubscriptionsDB != "" || c.NotionLeaksDB != "")
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}
