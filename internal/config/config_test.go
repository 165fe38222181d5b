package config

import (
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "HOST", "APP_ENV", "MAX_IMAGE_SIZE_MB", "CROP_TIMEOUT_SECONDS",
		"MIN_CONFIDENCE", "HISTORY_DB_PATH", "AWS_BUCKET_NAME", "AWS_REGION",
	} {
		t.Setenv(key, "")
	}
}

func TestNewDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := New()
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if cfg.Port != 8000 {
		t.Errorf("Port = %d, want 8000", cfg.Port)
	}
	if cfg.Host != "0.0.0.0" {
		t.Errorf("Host = %q, want 0.0.0.0", cfg.Host)
	}
	if cfg.Environment != "development" {
		t.Errorf("Environment = %q, want development", cfg.Environment)
	}
	if cfg.MaxImageSizeMB != 10 {
		t.Errorf("MaxImageSizeMB = %d, want 10", cfg.MaxImageSizeMB)
	}
	if cfg.CropTimeout != 3*time.Second {
		t.Errorf("CropTimeout = %v, want 3s", cfg.CropTimeout)
	}
	if cfg.MinConfidence != 0 {
		t.Errorf("MinConfidence = %v, want 0", cfg.MinConfidence)
	}
	if cfg.HistoryDBPath == "" {
		t.Error("HistoryDBPath is empty")
	}
	if cfg.S3Bucket != "" {
		t.Errorf("S3Bucket = %q, want empty", cfg.S3Bucket)
	}
}

func TestNewReadsEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("APP_ENV", "production")
	t.Setenv("CROP_TIMEOUT_SECONDS", "7")
	t.Setenv("MIN_CONFIDENCE", "0.5")
	t.Setenv("AWS_BUCKET_NAME", "cards")
	t.Setenv("AWS_REGION", "eu-central-1")

	cfg, err := New()
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if cfg.Environment != "production" {
		t.Errorf("Environment = %q, want production", cfg.Environment)
	}
	if cfg.CropTimeout != 7*time.Second {
		t.Errorf("CropTimeout = %v, want 7s", cfg.CropTimeout)
	}
	if cfg.MinConfidence != 0.5 {
		t.Errorf("MinConfidence = %v, want 0.5", cfg.MinConfidence)
	}
	if cfg.S3Bucket != "cards" || cfg.S3Region != "eu-central-1" {
		t.Errorf("s3 settings = %q/%q", cfg.S3Bucket, cfg.S3Region)
	}
}

func TestNewRejectsInvalidValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "sandbox")

	if _, err := New(); err == nil {
		t.Error("unknown environment should fail validation")
	}

	clearEnv(t)
	t.Setenv("PORT", "70000")

	if _, err := New(); err == nil {
		t.Error("out-of-range port should fail validation")
	}
}

func TestEnvHelpersIgnoreMalformedValues(t *testing.T) {
	t.Setenv("SOME_INT", "not-a-number")
	if got := envInt("SOME_INT", 42); got != 42 {
		t.Errorf("envInt fell through to %d, want fallback 42", got)
	}

	t.Setenv("SOME_FLOAT", "abc")
	if got := envFloat("SOME_FLOAT", 0.25); got != 0.25 {
		t.Errorf("envFloat fell through to %v, want fallback 0.25", got)
	}
}
