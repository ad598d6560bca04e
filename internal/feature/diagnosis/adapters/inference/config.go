// Package inference provides a client for the remote MRI classification service.
package inference

import (
	"os"
	"strconv"
	"time"
)

const (
	// DefaultFileField is the multipart field name carrying the image.
	DefaultFileField = "file"
	// DefaultTimeout bounds a single classification request.
	DefaultTimeout = 30 * time.Second
	// MaxResponseBytes caps the response body read from the service.
	MaxResponseBytes = 1 << 20
)

// Config holds configuration for the inference service client.
type Config struct {
	URL        string        // Classification endpoint (e.g., "http://localhost:8000/classify")
	Token      string        // Optional bearer token
	FileField  string        // Multipart field name for the image
	Timeout    time.Duration // HTTP request timeout
	RateLimit  int           // Maximum calls per minute (0 = unlimited)
	Normalizer NormalizeOptions
}

// LoadConfig loads inference configuration from environment variables.
func LoadConfig() Config {
	cfg := Config{
		URL:       os.Getenv("INFERENCE_URL"),
		Token:     os.Getenv("INFERENCE_TOKEN"),
		FileField: DefaultFileField,
		Timeout:   DefaultTimeout,
	}
	if v := os.Getenv("INFERENCE_FILE_FIELD"); v != "" {
		cfg.FileField = v
	}
	if v, err := time.ParseDuration(os.Getenv("INFERENCE_TIMEOUT")); err == nil && v > 0 {
		cfg.Timeout = v
	}
	if v, err := strconv.Atoi(os.Getenv("INFERENCE_RATE_LIMIT")); err == nil && v > 0 {
		cfg.RateLimit = v
	}
	return cfg
}
