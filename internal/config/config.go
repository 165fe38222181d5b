package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the service configuration, loaded once at startup from
// environment variables (a .env file is read by the entrypoint before
// this runs). Pipeline-level thresholds are explicit per-invocation
// values in the detection package; only service concerns live here.
type Config struct {
	Port        int    `validate:"min=1,max=65535"`
	Host        string `validate:"required"`
	Environment string `validate:"oneof=development staging production test"`

	// MaxImageSizeMB bounds the accepted upload size.
	MaxImageSizeMB int `validate:"min=1"`

	// CropTimeout is the wall-clock budget for one detection run. The
	// pipeline has no timeout awareness of its own; the API layer
	// enforces this around each invocation.
	CropTimeout time.Duration `validate:"min=1s"`

	// MinConfidence overrides the pipeline acceptance threshold when
	// positive; zero keeps the pipeline default.
	MinConfidence float64 `validate:"gte=0,lt=1"`

	// HistoryDBPath locates the sqlite scan-history database.
	HistoryDBPath string `validate:"required"`

	// S3Bucket enables object-storage upload of crops when non-empty.
	S3Bucket string
	S3Region string
}

// New builds the configuration from the environment, applying defaults
// for anything unset, and validates it.
func New() (Config, error) {
	cfg := Config{
		Port:           envInt("PORT", 8000),
		Host:           envStr("HOST", "0.0.0.0"),
		Environment:    envStr("APP_ENV", "development"),
		MaxImageSizeMB: envInt("MAX_IMAGE_SIZE_MB", 10),
		CropTimeout:    time.Duration(envInt("CROP_TIMEOUT_SECONDS", 3)) * time.Second,
		MinConfidence:  envFloat("MIN_CONFIDENCE", 0),
		HistoryDBPath:  envStr("HISTORY_DB_PATH", "./storage/scans.db"),
		S3Bucket:       os.Getenv("AWS_BUCKET_NAME"),
		S3Region:       os.Getenv("AWS_REGION"),
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
