package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: every environment variable is read here and nowhere else
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// External services
	Telegram TelegramConfig
	TWSE     TWSEConfig
	MOPS     MOPSConfig

	// Strategy
	Strategy StrategyConfig

	// Execution context (CI / manual / scheduler)
	Execution ExecutionConfig

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
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
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// TelegramConfig holds the report delivery settings
type TelegramConfig struct {
	BotToken string
	ChatID   string
	BaseURL  string
}

// Enabled reports whether both credentials are present
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != ""
}

// TWSEConfig holds the exchange endpoints for daily prices
type TWSEConfig struct {
	BaseURL     string // 上市
	TPExBaseURL string // 上櫃
}

// MOPSConfig holds the Market Observation Post System endpoint settings
type MOPSConfig struct {
	BaseURL string
	Markets []string // sii (上市), otc (上櫃)
}

// StrategyConfig points at the YAML rule set and its runtime knobs
type StrategyConfig struct {
	ConfigPath string
	Timezone   string
	Workers    int
}

// ExecutionConfig describes where the run was triggered from
type ExecutionConfig struct {
	Mode         string // manual, scheduler, github
	RunID        string // GITHUB_RUN_ID
	Repository   string // GITHUB_REPOSITORY
	ForceWeekend bool
}

// RunURL returns the CI run link when the bot runs in GitHub Actions
func (e ExecutionConfig) RunURL() string {
	if e.RunID == "" || e.Repository == "" {
		return ""
	}
	return fmt.Sprintf("https://github.com/%s/actions/runs/%s", e.Repository, e.RunID)
}

// Load reads configuration from environment variables
// ⭐ SSOT: the only function that calls os.Getenv()
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Telegram: TelegramConfig{
			BotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
			ChatID:   getEnv("TELEGRAM_CHAT_ID", ""),
			BaseURL:  getEnv("TELEGRAM_BASE_URL", "https://api.telegram.org"),
		},

		TWSE: TWSEConfig{
			BaseURL:     getEnv("TWSE_BASE_URL", "https://www.twse.com.tw"),
			TPExBaseURL: getEnv("TPEX_BASE_URL", "https://www.tpex.org.tw"),
		},

		MOPS: MOPSConfig{
			BaseURL: getEnv("MOPS_BASE_URL", "https://mops.twse.com.tw"),
			Markets: getEnvAsList("MOPS_MARKETS", []string{"sii", "otc"}),
		},

		Strategy: StrategyConfig{
			ConfigPath: getEnv("STRATEGY_CONFIG", "config/strategy/second_high_v2.yaml"),
			Timezone:   getEnv("STRATEGY_TZ", "Asia/Taipei"),
			Workers:    getEnvAsInt("STRATEGY_WORKERS", 4),
		},

		Execution: ExecutionConfig{
			Mode:         getEnv("EXECUTION_MODE", "manual"),
			RunID:        getEnv("GITHUB_RUN_ID", ""),
			Repository:   getEnv("GITHUB_REPOSITORY", ""),
			ForceWeekend: getEnvAsBool("FORCE_WEEKEND", false),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

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

	if c.Strategy.Workers < 1 {
		return fmt.Errorf("STRATEGY_WORKERS must be >= 1")
	}

	if _, err := time.LoadLocation(c.Strategy.Timezone); err != nil {
		return fmt.Errorf("STRATEGY_TZ is not a valid location: %w", err)
	}

	return nil
}

// Location returns the strategy timezone, falling back to UTC+8
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Strategy.Timezone)
	if err != nil {
		return time.FixedZone("CST", 8*60*60)
	}
	return loc
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
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

	value, err := strconv.ParseBool(strings.ToLower(valueStr))
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

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	parts := strings.Split(valueStr, ",")
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			values = append(values, p)
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}
