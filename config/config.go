package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/inquiry-desk/api-go/notify"
	"github.com/inquiry-desk/api-go/storage"
	"github.com/joho/godotenv"
)

type DatabaseConfig struct {
	URL      string
	Host     string
	User     string
	Password string
	Name     string
	Port     string
	SSLMode  string
}

// DSN prefers DATABASE_URL and otherwise assembles a key/value DSN.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode)
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AppConfig struct {
	Port       string
	Database   DatabaseConfig
	JWTSecret  string
	JWTTTL     time.Duration
	Storage    string
	UploadDir  string
	R2         *R2Config
	SMTP       notify.SMTPConfig
	Redis      RedisConfig
	RateLimit  int
	RateWindow time.Duration
	// TrustedProxies may set X-Forwarded-For. Empty means the client IP is
	// always the connection's remote address.
	TrustedProxies []string
	CORSOrigins    []string
}

// Load reads configuration from the environment, after a .env file when one
// exists.
func Load() (*AppConfig, error) {
	// Missing .env is fine outside development.
	_ = godotenv.Load()

	cfg := &AppConfig{
		Port: getEnv("PORT", "8080"),
		Database: DatabaseConfig{
			URL:      os.Getenv("DATABASE_URL"),
			Host:     getEnv("DB_HOST", "localhost"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     os.Getenv("DB_NAME"),
			Port:     getEnv("DB_PORT", "5432"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		JWTSecret: os.Getenv("JWT_SECRET"),
		Storage:   strings.ToLower(getEnv("STORAGE_DRIVER", "local")),
		UploadDir: getEnv("UPLOAD_DIR", "uploads"),
		R2:        GetR2Config(),
		SMTP: notify.SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Username: os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASS"),
			From:     os.Getenv("APP_EMAIL"),
			AppName:  getEnv("APP_NAME", "Inquiry Desk"),
			ResetURL: os.Getenv("RESET_PASSWORD_URL"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
		TrustedProxies: splitList(os.Getenv("TRUSTED_PROXIES")),
		CORSOrigins:    splitList(os.Getenv("CORS_ORIGINS")),
	}

	var err error
	if cfg.JWTTTL, err = getDuration("JWT_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.RateWindow, err = getDuration("PUBLIC_RATE_WINDOW", time.Minute); err != nil {
		return nil, err
	}
	if cfg.RateLimit, err = getInt("PUBLIC_RATE_LIMIT", 5); err != nil {
		return nil, err
	}
	if cfg.Redis.DB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.SMTP.Port, err = getInt("SMTP_PORT", 587); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	switch c.Storage {
	case "local":
	case "s3":
		if c.R2.BucketName == "" {
			return fmt.Errorf("CLOUDFLARE_BUCKET_NAME is required for s3 storage")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage)
	}
	if c.RateLimit < 1 {
		return fmt.Errorf("PUBLIC_RATE_LIMIT must be positive")
	}
	return nil
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	Region          string
}

func GetR2Config() *R2Config {
	return &R2Config{
		AccountID:       os.Getenv("CLOUDFLARE_ACCOUNT_ID"),
		AccessKeyID:     os.Getenv("CLOUDFLARE_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("CLOUDFLARE_SECRET_ACCESS_KEY"),
		BucketName:      os.Getenv("CLOUDFLARE_BUCKET_NAME"),
		Region:          "auto",
	}
}

func (r *R2Config) S3Config() storage.S3Config {
	return storage.S3Config{
		Endpoint:        fmt.Sprintf("https://%s.r2.cloudflarestorage.com", r.AccountID),
		AccessKeyID:     r.AccessKeyID,
		SecretAccessKey: r.SecretAccessKey,
		BucketName:      r.BucketName,
		Region:          r.Region,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
