package config

import (
	"os"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()

	required := map[string]string{
		"APCA_API_KEY_ID":             "test_key",
		"APCA_API_SECRET_KEY":         "test_secret",
		"APCA_API_BASE_URL":           "https://paper-api.alpaca.markets",
		"SYMPHONY_NAME":               "Risk Parity v2",
		"SYMPHONY_CSV_URL":            "https://drive.google.com/open?id=abc123",
		"GOOGLE_SERVICE_ACCOUNT_FILE": "service_account.json",
		"CASH_WEIGHT":                 "0.95",
		"ORDER_FILL_TIMEOUT_SEC":      "120",
	}
	for k, v := range required {
		t.Setenv(k, v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	optionals := []string{
		"ALLOCATION_SOURCE",
		"ORDER_POLL_INTERVAL_SEC",
		"LOG_LEVEL",
		"LOG_PRETTY",
		"REBALANCE_SCHEDULE",
	}
	for _, k := range optionals {
		os.Unsetenv(k)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.AllocationSource != SourceDrive {
		t.Errorf("Expected AllocationSource %q, got %q", SourceDrive, cfg.AllocationSource)
	}
	if cfg.OrderPollInterval != 3*time.Second {
		t.Errorf("Expected OrderPollInterval 3s, got %s", cfg.OrderPollInterval)
	}
	if cfg.OrderFillTimeout != 120*time.Second {
		t.Errorf("Expected OrderFillTimeout 120s, got %s", cfg.OrderFillTimeout)
	}
	if cfg.CashWeight != 0.95 {
		t.Errorf("Expected CashWeight 0.95, got %f", cfg.CashWeight)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("Expected LogLevel 'info', got %q", cfg.LogLevel)
	}
	if cfg.LogPretty {
		t.Error("Expected LogPretty false by default")
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	setRequiredEnv(t)
	os.Unsetenv("CASH_WEIGHT")
	os.Unsetenv("SYMPHONY_NAME")

	if _, err := Load(); err == nil {
		t.Fatal("Expected error for missing required variables, got nil")
	}
}

func TestLoad_S3SourceValidation(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ALLOCATION_SOURCE", SourceS3)

	// Drive keys alone are not enough for the s3 source.
	os.Unsetenv("S3_BUCKET")
	os.Unsetenv("S3_KEY")
	if _, err := Load(); err == nil {
		t.Fatal("Expected error when S3 source selected without bucket/key")
	}

	t.Setenv("S3_BUCKET", "allocations")
	t.Setenv("S3_KEY", "symphonies/latest.csv")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.S3Region != "us-east-1" {
		t.Errorf("Expected default region us-east-1, got %q", cfg.S3Region)
	}
}

func TestLoad_UnknownSource(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ALLOCATION_SOURCE", "ftp")

	if _, err := Load(); err == nil {
		t.Fatal("Expected error for unknown allocation source")
	}
}

func TestLoad_RejectsNegativeCashWeight(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CASH_WEIGHT", "-0.5")

	if _, err := Load(); err == nil {
		t.Fatal("Expected error for negative cash weight")
	}
}

func TestMasked(t *testing.T) {
	if got := Masked("supersecretkey"); got != "***tkey" {
		t.Errorf("Expected '***tkey', got %q", got)
	}
	if got := Masked("abc"); got != "***" {
		t.Errorf("Expected '***' for short value, got %q", got)
	}
}
