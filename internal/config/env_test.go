package config

import (
	"os"
	"testing"
	"time"
)

func TestGetEnv(t *testing.T) {
	// Test default value
	result := GetEnv("TEST_NONEXISTENT_VAR", "default")
	if result != "default" {
		t.Errorf("Expected 'default', got %q", result)
	}

	// Test with set value
	os.Setenv("TEST_GET_ENV", "custom")
	defer os.Unsetenv("TEST_GET_ENV")

	result = GetEnv("TEST_GET_ENV", "default")
	if result != "custom" {
		t.Errorf("Expected 'custom', got %q", result)
	}
}

func TestGetIntEnv(t *testing.T) {
	// Test default value
	result := GetIntEnv("TEST_NONEXISTENT_INT", 42)
	if result != 42 {
		t.Errorf("Expected 42, got %d", result)
	}

	// Test with valid int
	os.Setenv("TEST_INT_ENV", "123")
	defer os.Unsetenv("TEST_INT_ENV")

	result = GetIntEnv("TEST_INT_ENV", 42)
	if result != 123 {
		t.Errorf("Expected 123, got %d", result)
	}

	// Test with invalid int (should return default)
	os.Setenv("TEST_INVALID_INT", "not-a-number")
	defer os.Unsetenv("TEST_INVALID_INT")

	result = GetIntEnv("TEST_INVALID_INT", 42)
	if result != 42 {
		t.Errorf("Expected 42 for invalid int, got %d", result)
	}
}

func TestGetSecondsEnv(t *testing.T) {
	defaultTTL := 3600 * time.Second

	// Test default value
	result := GetSecondsEnv("TEST_NONEXISTENT_SECS", defaultTTL)
	if result != defaultTTL {
		t.Errorf("Expected %v, got %v", defaultTTL, result)
	}

	// Test with valid seconds count
	os.Setenv("TEST_SECS_ENV", "300")
	defer os.Unsetenv("TEST_SECS_ENV")

	result = GetSecondsEnv("TEST_SECS_ENV", defaultTTL)
	if result != 300*time.Second {
		t.Errorf("Expected 300s, got %v", result)
	}

	// Test with zero (explicit zero is respected)
	os.Setenv("TEST_SECS_ZERO", "0")
	defer os.Unsetenv("TEST_SECS_ZERO")

	result = GetSecondsEnv("TEST_SECS_ZERO", defaultTTL)
	if result != 0 {
		t.Errorf("Expected 0, got %v", result)
	}

	// Test with negative seconds (should return default)
	os.Setenv("TEST_SECS_NEGATIVE", "-5")
	defer os.Unsetenv("TEST_SECS_NEGATIVE")

	result = GetSecondsEnv("TEST_SECS_NEGATIVE", defaultTTL)
	if result != defaultTTL {
		t.Errorf("Expected %v for negative seconds, got %v", defaultTTL, result)
	}

	// Test with duration string (invalid for this helper, should return default)
	os.Setenv("TEST_SECS_DURATION", "30s")
	defer os.Unsetenv("TEST_SECS_DURATION")

	result = GetSecondsEnv("TEST_SECS_DURATION", defaultTTL)
	if result != defaultTTL {
		t.Errorf("Expected %v for non-integer value, got %v", defaultTTL, result)
	}
}

func TestGetDurationEnv(t *testing.T) {
	defaultDuration := 5 * time.Second

	// Test default value
	result := GetDurationEnv("TEST_NONEXISTENT_DURATION", defaultDuration)
	if result != defaultDuration {
		t.Errorf("Expected %v, got %v", defaultDuration, result)
	}

	// Test with valid duration
	os.Setenv("TEST_DURATION_ENV", "30s")
	defer os.Unsetenv("TEST_DURATION_ENV")

	result = GetDurationEnv("TEST_DURATION_ENV", defaultDuration)
	if result != 30*time.Second {
		t.Errorf("Expected 30s, got %v", result)
	}

	// Test with milliseconds
	os.Setenv("TEST_DURATION_MS", "100ms")
	defer os.Unsetenv("TEST_DURATION_MS")

	result = GetDurationEnv("TEST_DURATION_MS", defaultDuration)
	if result != 100*time.Millisecond {
		t.Errorf("Expected 100ms, got %v", result)
	}

	// Test with invalid duration (should return default)
	os.Setenv("TEST_INVALID_DURATION", "not-a-duration")
	defer os.Unsetenv("TEST_INVALID_DURATION")

	result = GetDurationEnv("TEST_INVALID_DURATION", defaultDuration)
	if result != defaultDuration {
		t.Errorf("Expected %v for invalid duration, got %v", defaultDuration, result)
	}
}

func TestGetSecretFile(t *testing.T) {
	// Test empty path
	result := GetSecretFile("")
	if result != "" {
		t.Errorf("Expected empty string for empty path, got %q", result)
	}

	// Test nonexistent file
	result = GetSecretFile("/nonexistent/path/to/secret")
	if result != "" {
		t.Errorf("Expected empty string for nonexistent file, got %q", result)
	}

	// Test with actual file
	tmpFile, err := os.CreateTemp("", "secret-test")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	secretValue := "my-secret-value"
	if _, err := tmpFile.WriteString(secretValue + "\n"); err != nil {
		t.Fatalf("Failed to write to temp file: %v", err)
	}
	tmpFile.Close()

	result = GetSecretFile(tmpFile.Name())
	if result != secretValue {
		t.Errorf("Expected %q, got %q", secretValue, result)
	}
}

func TestLoadServiceConfigDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "METRICS_PORT", "API_KEY_FILE",
		"SHUTDOWN_GRACE", "TERMINATE_GRACE", "SHUTDOWN_DRAIN_WAIT",
	} {
		os.Unsetenv(key)
	}

	cfg := LoadServiceConfig()

	if cfg.Port != "8000" {
		t.Errorf("Expected default port 8000, got %q", cfg.Port)
	}
	if cfg.MetricsPort != "9090" {
		t.Errorf("Expected default metrics port 9090, got %q", cfg.MetricsPort)
	}
	if cfg.ShutdownGrace != 10*time.Second {
		t.Errorf("Expected default shutdown grace 10s, got %v", cfg.ShutdownGrace)
	}
	if cfg.TerminateGrace != 2*time.Second {
		t.Errorf("Expected default terminate grace 2s, got %v", cfg.TerminateGrace)
	}
	if cfg.ShutdownDrainWait != 0 {
		t.Errorf("Expected no drain wait by default, got %v", cfg.ShutdownDrainWait)
	}
	if cfg.APIKey != "" {
		t.Errorf("Expected no API key by default, got %q", cfg.APIKey)
	}
}

func TestLoadServiceConfigFromEnv(t *testing.T) {
	os.Setenv("PORT", "8123")
	os.Setenv("SHUTDOWN_GRACE", "250ms")
	os.Setenv("TERMINATE_GRACE", "50ms")
	defer func() {
		for _, key := range []string{"PORT", "SHUTDOWN_GRACE", "TERMINATE_GRACE"} {
			os.Unsetenv(key)
		}
	}()

	cfg := LoadServiceConfig()

	if cfg.Port != "8123" {
		t.Errorf("Expected port 8123, got %q", cfg.Port)
	}
	if cfg.ShutdownGrace != 250*time.Millisecond {
		t.Errorf("Expected 250ms shutdown grace, got %v", cfg.ShutdownGrace)
	}
	if cfg.TerminateGrace != 50*time.Millisecond {
		t.Errorf("Expected 50ms terminate grace, got %v", cfg.TerminateGrace)
	}
}
