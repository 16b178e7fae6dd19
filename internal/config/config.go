package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the radar service.
type Config struct {
	// Upstream data sources
	PumpAPIURL        string // pump.fun frontend API base URL
	DexScreenerAPIURL string // DexScreener API base URL

	// Storage
	MySQLDSN string // MySQL DSN for the radar database

	// Loop cadence
	ScrapeInterval     int // seconds between ingestion ticks
	AlertCheckInterval int // seconds between alert sweeps
	ScrapeLimit        int // listings fetched per ingestion tick
	EnrichLimit        int // tokens enriched with market data per tick
	SnapshotLimit      int // snapshots loaded per sweep

	// HTTP surfaces
	APIPort     string // operational API port
	MetricsPort string // Prometheus metrics port ("" disables)

	// Logging
	LogDir      string   // Directory for log files (default: "logs")
	ESEnabled   bool     // Enable shipping logs to Elasticsearch
	ESAddresses []string // ES endpoints, e.g. []string{"http://localhost:9200"}
	ESIndex     string   // Index name for logs

	// Kafka event publishing
	KafkaEnabled bool
	KafkaBrokers []string
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		PumpAPIURL:        getEnv("PUMP_API_URL", "https://frontend-api-v3.pump.fun"),
		DexScreenerAPIURL: getEnv("DEXSCREENER_API_URL", "https://api.dexscreener.com"),
		MySQLDSN:          getEnv("MYSQL_DSN", ""),

		ScrapeInterval:     getEnvInt("SCRAPE_INTERVAL", 30),
		AlertCheckInterval: getEnvInt("ALERT_CHECK_INTERVAL", 60),
		ScrapeLimit:        getEnvInt("SCRAPE_LIMIT", 48),
		EnrichLimit:        getEnvInt("ENRICH_LIMIT", 20),
		SnapshotLimit:      getEnvInt("SNAPSHOT_LIMIT", 1000),

		APIPort:     getEnv("API_PORT", "8080"),
		MetricsPort: getEnv("METRICS_PORT", "9090"),

		LogDir:      getEnv("LOG_DIR", "logs"),
		ESEnabled:   getEnvBool("ES_ENABLED", false),
		ESAddresses: getEnvSlice("ES_ADDRESSES", []string{"http://localhost:9200"}),
		ESIndex:     getEnv("ES_INDEX", "token-radar-logs"),

		KafkaEnabled: getEnvBool("KAFKA_ENABLED", false),
		KafkaBrokers: getEnvSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
	}

	return config, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns true if the env var is set to "1", "true", "yes" (case-insensitive)
func getEnvBool(key string, defaultValue bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	}
	return defaultValue
}

// getEnvInt returns an integer from an env var; if empty or invalid, returns defaultValue
func getEnvInt(key string, defaultValue int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return defaultValue
}

// getEnvSlice returns a slice from a comma-separated env var; if empty, returns defaultSlice
func getEnvSlice(key string, defaultSlice []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultSlice
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return defaultSlice
	}
	return out
}
