package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Allocation source kinds.
const (
	SourceDrive = "drive"
	SourceS3    = "s3"
)

// Config holds every runtime setting of the rebalancer. All values come
// from the environment (optionally seeded from a .env file).
type Config struct {
	// Alpaca credentials.
	AlpacaKey     string
	AlpacaSecret  string
	AlpacaBaseURL string

	// Strategy selection.
	SymphonyName string

	// Allocation source.
	AllocationSource   string // "drive" or "s3"
	SymphonyCSVURL     string // Drive share URL of the allocation sheet
	ServiceAccountFile string // Google service-account credentials JSON
	S3Endpoint         string
	S3Region           string
	S3Bucket           string
	S3Key              string
	S3AccessKey        string
	S3SecretKey        string

	// Sizing and execution.
	CashWeight        float64
	OrderFillTimeout  time.Duration
	OrderPollInterval time.Duration

	// Scheduling. Empty means run once and exit.
	Schedule string

	// Logging.
	LogLevel  string
	LogPretty bool
}

// Load reads configuration from the environment. A .env file is honored
// when present so local runs match the deployed environment. Missing
// required keys fail the whole load; no partial config is returned.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AlpacaKey:          os.Getenv("APCA_API_KEY_ID"),
		AlpacaSecret:       os.Getenv("APCA_API_SECRET_KEY"),
		AlpacaBaseURL:      os.Getenv("APCA_API_BASE_URL"),
		SymphonyName:       os.Getenv("SYMPHONY_NAME"),
		AllocationSource:   getEnvOrDefault("ALLOCATION_SOURCE", SourceDrive),
		SymphonyCSVURL:     os.Getenv("SYMPHONY_CSV_URL"),
		ServiceAccountFile: os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"),
		S3Endpoint:         os.Getenv("S3_ENDPOINT"),
		S3Region:           getEnvOrDefault("S3_REGION", "us-east-1"),
		S3Bucket:           os.Getenv("S3_BUCKET"),
		S3Key:              os.Getenv("S3_KEY"),
		S3AccessKey:        os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:        os.Getenv("S3_SECRET_KEY"),
		Schedule:           os.Getenv("REBALANCE_SCHEDULE"),
		LogLevel:           getEnvOrDefault("LOG_LEVEL", "info"),
		LogPretty:          getEnvAsBool("LOG_PRETTY", false),
	}

	var missing []string
	for key, val := range map[string]string{
		"APCA_API_KEY_ID":     cfg.AlpacaKey,
		"APCA_API_SECRET_KEY": cfg.AlpacaSecret,
		"APCA_API_BASE_URL":   cfg.AlpacaBaseURL,
		"SYMPHONY_NAME":       cfg.SymphonyName,
	} {
		if val == "" {
			missing = append(missing, key)
		}
	}

	switch cfg.AllocationSource {
	case SourceDrive:
		if cfg.SymphonyCSVURL == "" {
			missing = append(missing, "SYMPHONY_CSV_URL")
		}
		if cfg.ServiceAccountFile == "" {
			missing = append(missing, "GOOGLE_SERVICE_ACCOUNT_FILE")
		}
	case SourceS3:
		if cfg.S3Bucket == "" {
			missing = append(missing, "S3_BUCKET")
		}
		if cfg.S3Key == "" {
			missing = append(missing, "S3_KEY")
		}
	default:
		return nil, fmt.Errorf("config: unknown ALLOCATION_SOURCE %q (want %q or %q)",
			cfg.AllocationSource, SourceDrive, SourceS3)
	}

	cashWeight, err := getRequiredFloat("CASH_WEIGHT")
	if err != nil {
		missing = append(missing, "CASH_WEIGHT")
	}
	cfg.CashWeight = cashWeight

	timeoutSec, err := getRequiredInt("ORDER_FILL_TIMEOUT_SEC")
	if err != nil {
		missing = append(missing, "ORDER_FILL_TIMEOUT_SEC")
	}
	cfg.OrderFillTimeout = time.Duration(timeoutSec) * time.Second
	cfg.OrderPollInterval = time.Duration(getEnvAsInt("ORDER_POLL_INTERVAL_SEC", 3)) * time.Second

	if len(missing) > 0 {
		return nil, fmt.Errorf("config: missing required environment variables: %s",
			strings.Join(missing, ", "))
	}

	if cfg.CashWeight < 0 {
		return nil, fmt.Errorf("config: CASH_WEIGHT must be non-negative, got %f", cfg.CashWeight)
	}
	if cfg.OrderFillTimeout <= 0 {
		return nil, fmt.Errorf("config: ORDER_FILL_TIMEOUT_SEC must be positive, got %s", cfg.OrderFillTimeout)
	}

	return cfg, nil
}

// Masked returns a value suitable for logging secrets: only the last four
// characters are kept visible.
func Masked(val string) string {
	if len(val) <= 4 {
		return "***"
	}
	return "***" + val[len(val)-4:]
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	v, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getEnvAsInt(key string, fallback int) int {
	v, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getRequiredFloat(key string) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, fmt.Errorf("config: %s is not set", key)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("config: invalid float for %s: %w", key, err)
	}
	return f, nil
}

func getRequiredInt(key string) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, fmt.Errorf("config: %s is not set", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: invalid integer for %s: %w", key, err)
	}
	return n, nil
}
