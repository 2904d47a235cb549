package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"cxls/pkg/logger"
)

type Config struct {
	App   *AppConfig
	Store *StoreConfig
	Redis *RedisConfig
	Auth  *AuthConfig
	Rate  *RateConfig
}

type AppConfig struct {
	Name        string
	Env         string
	Port        string
	LogFilePath string
	BinFilePath string
}

type StoreConfig struct {
	// Driver selects the snapshot store: "bolt" (embedded file) or
	// "postgres" (single-row JSONB).
	Driver string
	Path   string

	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string

	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       string
	Channel  string
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  int // hours
}

type RateConfig struct {
	// FiatRate is the static exchange rate used to freeze the fiat
	// value of a payment at request time.
	FiatRate decimal.Decimal
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		logger.Error("failed, No .env file found")
	}

	return &Config{
		App:   LoadAppConfig(),
		Store: LoadStoreConfig(),
		Redis: LoadRedisConfig(),
		Auth:  LoadAuthConfig(),
		Rate:  LoadRateConfig(),
	}
}

func LoadAppConfig() *AppConfig {
	return &AppConfig{
		Name:        getEnv("APP_NAME", "cxls"),
		Env:         getEnv("APP_ENV", "development"),
		Port:        getEnv("APP_PORT", "8080"),
		LogFilePath: getEnv("APP_LOG_FILE", "logs/app.log"),
		BinFilePath: getEnv("APP_BIN_FILE", "./bin/cxls"),
	}
}

func LoadStoreConfig() *StoreConfig {
	return &StoreConfig{
		Driver: getEnv("STORE_DRIVER", "bolt"),
		Path:   getEnv("STORE_PATH", "data/ledger.db"),

		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", "password"),
		Name:     getEnv("DB_NAME", "cxls"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),

		MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
		MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
		ConnMaxLifetime: getEnvAsInt("DB_CONN_MAX_LIFETIME", 3600),
	}
}

func LoadRedisConfig() *RedisConfig {
	return &RedisConfig{
		Enabled:  getEnv("REDIS_ENABLED", "false") == "true",
		Host:     getEnv("REDIS_HOST", "localhost"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnv("REDIS_DB", "0"),
		Channel:  getEnv("REDIS_BROADCAST_CHANNEL", "cxls:events"),
	}
}

func LoadAuthConfig() *AuthConfig {
	return &AuthConfig{
		JWTSecret: getEnv("AUTH_JWT_SECRET", "dev-secret-change-me"),
		TokenTTL:  getEnvAsInt("AUTH_TOKEN_TTL_HOURS", 72),
	}
}

func LoadRateConfig() *RateConfig {
	raw := getEnv("FIAT_RATE", "1.85")
	rate, err := decimal.NewFromString(raw)
	if err != nil {
		logger.Errorf("invalid FIAT_RATE %q, falling back to 1", raw)
		rate = decimal.NewFromInt(1)
	}
	return &RateConfig{FiatRate: rate}
}

// =========================================================

func GetAppPort() string {
	return getEnv("APP_PORT", "8080")
}

func GetAppEnv() string {
	return getEnv("APP_ENV", "development")
}

func GetAppBinFile() string {
	return getEnv("APP_BIN_FILE", "./bin/cxls")
}

//============================================================

// getEnv returns the value of the environment variable or a default value if not set
func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// getEnvAsInt returns the value of the environment variable as an integer or a default value if not set
func getEnvAsInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}
