package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "secret")
		t.Setenv("DB_USER", "desk")
		t.Setenv("DB_NAME", "inquiries")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "8080", cfg.Port)
		assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
		assert.Equal(t, 5, cfg.RateLimit)
		assert.Equal(t, time.Minute, cfg.RateWindow)
		assert.Equal(t, 587, cfg.SMTP.Port)
		assert.Equal(t, "local", cfg.Storage)
		assert.Nil(t, cfg.TrustedProxies)
		assert.Equal(t, "host=localhost user=desk password= dbname=inquiries port=5432 sslmode=disable", cfg.Database.DSN())
	})

	t.Run("DatabaseURLWins", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "secret")
		t.Setenv("DATABASE_URL", "postgres://desk@db/inquiries")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "postgres://desk@db/inquiries", cfg.Database.DSN())
	})

	t.Run("Overrides", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "secret")
		t.Setenv("JWT_TTL", "2h")
		t.Setenv("PUBLIC_RATE_LIMIT", "20")
		t.Setenv("CORS_ORIGINS", "https://desk.example.lk, http://localhost:3000")
		t.Setenv("TRUSTED_PROXIES", "10.0.0.1,10.0.0.2")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 2*time.Hour, cfg.JWTTTL)
		assert.Equal(t, 20, cfg.RateLimit)
		assert.Equal(t, []string{"https://desk.example.lk", "http://localhost:3000"}, cfg.CORSOrigins)
		assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, cfg.TrustedProxies)
	})

	t.Run("Invalid", func(t *testing.T) {
		tests := map[string]map[string]string{
			"MissingSecret":   {"JWT_SECRET": ""},
			"BadTTL":          {"JWT_SECRET": "s", "JWT_TTL": "a day"},
			"UnknownStorage":  {"JWT_SECRET": "s", "STORAGE_DRIVER": "ftp"},
			"S3WithoutBucket": {"JWT_SECRET": "s", "STORAGE_DRIVER": "s3", "CLOUDFLARE_BUCKET_NAME": ""},
			"ZeroLimit":       {"JWT_SECRET": "s", "PUBLIC_RATE_LIMIT": "0"},
		}
		for name, env := range tests {
			t.Run(name, func(t *testing.T) {
				for k, v := range env {
					t.Setenv(k, v)
				}
				_, err := Load()
				assert.Error(t, err)
			})
		}
	})
}

func TestR2S3Config(t *testing.T) {
	r2 := &R2Config{AccountID: "abc123", BucketName: "desk", Region: "auto"}
	s3 := r2.S3Config()
	assert.Equal(t, "https://abc123.r2.cloudflarestorage.com", s3.Endpoint)
	assert.Equal(t, "desk", s3.BucketName)
}
