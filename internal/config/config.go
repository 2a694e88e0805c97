package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// JWTSecretMinBytes はHMAC-SHA256署名鍵の最小バイト数。
// HS256は256ビット鍵を要求するため、32バイト未満の鍵は設定エラーとして扱う。
const JWTSecretMinBytes = 32

// JWTTTLMinSeconds はトークン有効期間の下限（秒）。
// 失効リストを持たない設計のため、極端に短いTTLのみ許容しない。
const JWTTTLMinSeconds = 60

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// JWT
	JWTSecret     string
	JWTIssuer     string
	JWTTTLSeconds int

	// Password hashing
	BcryptCost int

	// Feed
	MaxPageSize int

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string

	// Logging
	LogLevel string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合、または値が制約を満たさない場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// 鍵長が不足した署名鍵は運用ミスであり、黙って受け入れない
	if len(cfg.JWTSecret) < JWTSecretMinBytes {
		return nil, fmt.Errorf("JWT_SECRET must be at least %d bytes, got %d", JWTSecretMinBytes, len(cfg.JWTSecret))
	}

	// Optional fields with defaults
	cfg.JWTIssuer = getEnvString("JWT_ISSUER", "socialwall")
	cfg.JWTTTLSeconds = getEnvInt("JWT_TTL_SECONDS", 3600)
	cfg.BcryptCost = getEnvInt("BCRYPT_COST", bcrypt.DefaultCost)
	cfg.MaxPageSize = getEnvInt("MAX_PAGE_SIZE", 50)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:5173")
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")

	if cfg.JWTTTLSeconds < JWTTTLMinSeconds {
		return nil, fmt.Errorf("JWT_TTL_SECONDS must be at least %d, got %d", JWTTTLMinSeconds, cfg.JWTTTLSeconds)
	}

	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		return nil, fmt.Errorf("BCRYPT_COST must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, cfg.BcryptCost)
	}

	if cfg.MaxPageSize < 1 {
		return nil, fmt.Errorf("MAX_PAGE_SIZE must be at least 1, got %d", cfg.MaxPageSize)
	}

	return cfg, nil
}

// TokenTTL はトークン有効期間をtime.Durationで返す。
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.JWTTTLSeconds) * time.Second
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}
