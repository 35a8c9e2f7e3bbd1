package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port   string
	Env    string // development, staging, production
	Server ServerConfig

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// External APIs
	KIS   KISConfig
	Upbit UpbitConfig
	Naver NaverConfig

	// Engine
	Engine EngineConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// ServerConfig holds HTTP server timeouts. The write timeout must stay
// above the screening enrichment deadline (ENGINE_ENRICH_TIMEOUT) or
// long screens get cut off mid-response.
type ServerConfig struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	URL      string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// KISConfig holds KIS (한국투자증권) API configuration.
// KIS is the executable broker: the only account with order-placing access.
type KISConfig struct {
	AppKey    string
	AppSecret string
	AccountNo string
	BaseURL   string
	IsVirtual bool // 모의투자 여부
}

// UpbitConfig holds Upbit public API configuration
type UpbitConfig struct {
	BaseURL string
	WsURL   string
}

// NaverConfig holds Naver Finance configuration
type NaverConfig struct {
	BaseURL string
}

// EngineConfig tunes the reconciliation and decision engine
type EngineConfig struct {
	PricePrecision    int32         // order-price decimal places
	EnrichConcurrency int64         // max in-flight enrichment fetches
	EnrichTimeout     time.Duration // whole-batch enrichment deadline
	QuoteCacheTTL     time.Duration
	CandidateCacheTTL time.Duration
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8091"),
		Env:  getEnv("ENV", "development"),
		Server: ServerConfig{
			ReadTimeout:  getEnvAsDuration("SERVER_READ_TIMEOUT", "15s"),
			WriteTimeout: getEnvAsDuration("SERVER_WRITE_TIMEOUT", "60s"),
			IdleTimeout:  getEnvAsDuration("SERVER_IDLE_TIMEOUT", "60s"),
		},

		// Database
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			Name:            getEnv("DB_NAME", "folio"),
			User:            getEnv("DB_USER", "folio"),
			Password:        getEnv("DB_PASSWORD", ""),
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
		},

		// External APIs
		KIS: KISConfig{
			AppKey:    getEnv("KIS_APP_KEY", ""),
			AppSecret: getEnv("KIS_APP_SECRET", ""),
			AccountNo: getEnv("KIS_ACCOUNT_NO", ""),
			BaseURL:   getEnv("KIS_BASE_URL", "https://openapi.koreainvestment.com:9443"),
			IsVirtual: getEnvAsBool("KIS_IS_VIRTUAL", false),
		},

		Upbit: UpbitConfig{
			BaseURL: getEnv("UPBIT_BASE_URL", "https://api.upbit.com/v1"),
			WsURL:   getEnv("UPBIT_WS_URL", "wss://api.upbit.com/websocket/v1"),
		},

		Naver: NaverConfig{
			BaseURL: getEnv("NAVER_BASE_URL", "https://finance.naver.com"),
		},

		// Engine
		Engine: EngineConfig{
			PricePrecision:    int32(getEnvAsInt("ENGINE_PRICE_PRECISION", 2)),
			EnrichConcurrency: int64(getEnvAsInt("ENGINE_ENRICH_CONCURRENCY", 10)),
			EnrichTimeout:     getEnvAsDuration("ENGINE_ENRICH_TIMEOUT", "30s"),
			QuoteCacheTTL:     getEnvAsDuration("ENGINE_QUOTE_CACHE_TTL", "1m"),
			CandidateCacheTTL: getEnvAsDuration("ENGINE_CANDIDATE_CACHE_TTL", "10m"),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "debug"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Engine.PricePrecision < 0 {
		return fmt.Errorf("ENGINE_PRICE_PRECISION must be >= 0")
	}
	if c.Engine.EnrichConcurrency <= 0 {
		return fmt.Errorf("ENGINE_ENRICH_CONCURRENCY must be positive")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
			filepath.Join(exeDir, "..", "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
