package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Redis     RedisConfig
	CORS      CORSConfig
	Model     ModelConfig
	Log       LogConfig
	RateLimit RateLimitConfig
	Contact   ContactConfig
	Analytics AnalyticsConfig
}

type ServerConfig struct {
	Port            int
	Mode            string
	ReadTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	AutoMigrate  bool
	MaxOpenConns int
	MaxIdleConns int
}

func (d DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

type JWTConfig struct {
	Secret      string
	ExpiryHours int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins string
}

type ModelConfig struct {
	Path   string
	Layout string
}

type LogConfig struct {
	Level  string
	Format string
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

type ContactConfig struct {
	ListAdminOnly bool
}

type AnalyticsConfig struct {
	// WarmInterval controls how often the cached feature ranking is rebuilt.
	// Zero disables the background refresh.
	WarmInterval time.Duration
}

// LoadConfig reads the environment, after merging an optional .env file from
// the working directory. Variables already set in the environment win.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	serverPort, err := getIntEnv("SERVER_PORT", 8000)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}
	readTimeout, err := getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_READ_TIMEOUT: %w", err)
	}
	shutdownTimeout, err := getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_SHUTDOWN_TIMEOUT: %w", err)
	}

	dbPort, err := getIntEnv("DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	autoMigrate, err := getBoolEnv("DB_AUTO_MIGRATE", true)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_AUTO_MIGRATE: %w", err)
	}
	maxOpen, err := getIntEnv("DB_MAX_OPEN_CONNS", 20)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_OPEN_CONNS: %w", err)
	}
	maxIdle, err := getIntEnv("DB_MAX_IDLE_CONNS", 5)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_IDLE_CONNS: %w", err)
	}

	jwtExpiry, err := getIntEnv("JWT_EXPIRY_HOURS", 24)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_EXPIRY_HOURS: %w", err)
	}

	redisEnabled, err := getBoolEnv("REDIS_ENABLED", true)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_ENABLED: %w", err)
	}
	redisPort, err := getIntEnv("REDIS_PORT", 6379)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_PORT: %w", err)
	}
	redisDB, err := getIntEnv("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	rateRequests, err := getIntEnv("RATE_LIMIT_REQUESTS", 60)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_REQUESTS: %w", err)
	}
	rateWindow, err := getDurationEnv("RATE_LIMIT_WINDOW", time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_WINDOW: %w", err)
	}

	contactAdminOnly, err := getBoolEnv("CONTACT_LIST_ADMIN_ONLY", false)
	if err != nil {
		return nil, fmt.Errorf("invalid CONTACT_LIST_ADMIN_ONLY: %w", err)
	}

	warmInterval, err := getDurationEnv("ANALYTICS_WARM_INTERVAL", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid ANALYTICS_WARM_INTERVAL: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            serverPort,
			Mode:            getEnv("GIN_MODE", "release"),
			ReadTimeout:     readTimeout,
			ShutdownTimeout: shutdownTimeout,
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         dbPort,
			User:         getEnv("DB_USER", "houseprice"),
			Password:     getEnv("DB_PASSWORD", "houseprice_dev_password"),
			Name:         getEnv("DB_NAME", "houseprice"),
			SSLMode:      getEnv("DB_SSLMODE", "disable"),
			AutoMigrate:  autoMigrate,
			MaxOpenConns: maxOpen,
			MaxIdleConns: maxIdle,
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", "change-me-in-production"),
			ExpiryHours: jwtExpiry,
		},
		Redis: RedisConfig{
			Enabled:  redisEnabled,
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     redisPort,
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
		Model: ModelConfig{
			Path:   resolveModelPath(getEnv("MODEL_PATH", filepath.Join("models", "random_forest.json"))),
			Layout: getEnv("MODEL_FEATURE_LAYOUT", "kc_house_15"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		RateLimit: RateLimitConfig{
			Requests: rateRequests,
			Window:   rateWindow,
		},
		Contact: ContactConfig{
			ListAdminOnly: contactAdminOnly,
		},
		Analytics: AnalyticsConfig{
			WarmInterval: warmInterval,
		},
	}

	return cfg, nil
}

// resolveModelPath anchors relative artifact paths at the directory holding
// the running binary, so the service finds its model regardless of cwd.
func resolveModelPath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	exe, err := os.Executable()
	if err != nil {
		return p
	}
	return filepath.Join(filepath.Dir(exe), p)
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getIntEnv(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func getBoolEnv(key string, fallback bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	return strconv.ParseBool(value)
}

func getDurationEnv(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	return time.ParseDuration(value)
}
