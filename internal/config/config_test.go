package config

import (
	"testing"
	"time"
)

var allEnvVars = []string{
	"SCREEND_DATABASE_URL", "SCREEND_HTTP_ADDR", "SCREEND_NATS_URL",
	"SCREEND_AUTH_TOKEN", "SCREEND_TOKEN_TTL", "SCREEND_AUDIO_S3_BUCKET",
	"SCREEND_AUDIO_S3_ENDPOINT", "SCREEND_AUDIO_S3_REGION", "SCREEND_AUDIO_S3_PREFIX",
}

func clearAllEnv(t *testing.T) {
	t.Helper()
	for _, key := range allEnvVars {
		t.Setenv(key, "")
	}
}

func TestLoad(t *testing.T) {
	for _, tc := range []struct {
		name         string
		env          map[string]string
		wantErr      bool
		wantHTTPAddr string
		wantNATSURL  string
		wantTTL      time.Duration
	}{
		{
			name:    "MissingDatabaseURL",
			env:     map[string]string{},
			wantErr: true,
		},
		{
			name:         "Defaults",
			env:          map[string]string{"SCREEND_DATABASE_URL": "postgres://localhost/screend"},
			wantHTTPAddr: ":8080",
			wantTTL:      24 * time.Hour,
		},
		{
			name: "Custom",
			env: map[string]string{
				"SCREEND_DATABASE_URL": "postgres://db:5432/screend",
				"SCREEND_HTTP_ADDR":    ":3000",
				"SCREEND_NATS_URL":     "nats://localhost:4222",
				"SCREEND_TOKEN_TTL":    "45m",
			},
			wantHTTPAddr: ":3000",
			wantNATSURL:  "nats://localhost:4222",
			wantTTL:      45 * time.Minute,
		},
		{
			name: "BadTTL",
			env: map[string]string{
				"SCREEND_DATABASE_URL": "postgres://localhost/screend",
				"SCREEND_TOKEN_TTL":    "soon",
			},
			wantErr: true,
		},
		{
			name: "NegativeTTL",
			env: map[string]string{
				"SCREEND_DATABASE_URL": "postgres://localhost/screend",
				"SCREEND_TOKEN_TTL":    "-1h",
			},
			wantErr: true,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			clearAllEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if cfg.HTTPAddr != tc.wantHTTPAddr {
				t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, tc.wantHTTPAddr)
			}
			if cfg.NATSURL != tc.wantNATSURL {
				t.Errorf("NATSURL = %q, want %q", cfg.NATSURL, tc.wantNATSURL)
			}
			if cfg.TokenTTL != tc.wantTTL {
				t.Errorf("TokenTTL = %v, want %v", cfg.TokenTTL, tc.wantTTL)
			}
		})
	}
}

func TestLoadS3Defaults(t *testing.T) {
	clearAllEnv(t)
	t.Setenv("SCREEND_DATABASE_URL", "postgres://localhost/screend")
	t.Setenv("SCREEND_AUDIO_S3_BUCKET", "recordings")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AudioS3Region != "us-east-1" {
		t.Errorf("AudioS3Region = %q, want us-east-1", cfg.AudioS3Region)
	}
	if cfg.AudioS3Prefix != "screening" {
		t.Errorf("AudioS3Prefix = %q, want screening", cfg.AudioS3Prefix)
	}
}
