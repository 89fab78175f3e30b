package config

import (
	"fmt"
	"os"
	"time"
)

type Config struct {
	DatabaseURL string // SCREEND_DATABASE_URL (required)
	HTTPAddr    string // SCREEND_HTTP_ADDR (default ":8080")
	NATSURL     string // SCREEND_NATS_URL (optional, empty = no live sync)
	AuthToken   string // SCREEND_AUTH_TOKEN (optional, empty = operator auth disabled)

	// TokenTTL is the default lifetime of issued capability links.
	TokenTTL time.Duration // SCREEND_TOKEN_TTL (default 24h)

	// Audio artifact storage
	AudioS3Bucket   string // SCREEND_AUDIO_S3_BUCKET (enables uploads when set)
	AudioS3Endpoint string // SCREEND_AUDIO_S3_ENDPOINT (custom endpoint for MinIO)
	AudioS3Region   string // SCREEND_AUDIO_S3_REGION (default "us-east-1")
	AudioS3Prefix   string // SCREEND_AUDIO_S3_PREFIX (default "screening")
}

func Load() (*Config, error) {
	c := &Config{
		DatabaseURL:     os.Getenv("SCREEND_DATABASE_URL"),
		HTTPAddr:        envOrDefault("SCREEND_HTTP_ADDR", ":8080"),
		NATSURL:         os.Getenv("SCREEND_NATS_URL"),
		AuthToken:       os.Getenv("SCREEND_AUTH_TOKEN"),
		AudioS3Bucket:   os.Getenv("SCREEND_AUDIO_S3_BUCKET"),
		AudioS3Endpoint: os.Getenv("SCREEND_AUDIO_S3_ENDPOINT"),
		AudioS3Region:   envOrDefault("SCREEND_AUDIO_S3_REGION", "us-east-1"),
		AudioS3Prefix:   envOrDefault("SCREEND_AUDIO_S3_PREFIX", "screening"),
	}
	if c.DatabaseURL == "" {
		return nil, fmt.Errorf("SCREEND_DATABASE_URL is required")
	}

	ttlStr := envOrDefault("SCREEND_TOKEN_TTL", "24h")
	d, err := time.ParseDuration(ttlStr)
	if err != nil {
		return nil, fmt.Errorf("SCREEND_TOKEN_TTL: %w", err)
	}
	if d <= 0 {
		return nil, fmt.Errorf("SCREEND_TOKEN_TTL must be positive")
	}
	c.TokenTTL = d

	return c, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
