package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Booking  BookingConfig
	Sweeper  SweeperConfig
	Log      LogConfig
	// AdminToken guards the /admin routes. Empty disables them.
	AdminToken string
}

type ServerConfig struct {
	Host string
	Port int
}

type StoreConfig struct {
	Driver     string
	SQLitePath string
}

type PostgresConfig struct {
	User     string
	Password string
	Name     string
	Host     string
	Port     int
	SSLMode  string
	MaxConns int32
}

// RedisConfig is optional. An empty Addr runs without cache, limiter,
// idempotency keys and sweep lease.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func (c RedisConfig) Enabled() bool { return c.Addr != "" }

type BookingConfig struct {
	ArrivalGrace       time.Duration
	MaxHoldDuration    time.Duration
	MaxAttempts        int
	RateLimitPerMinute int
	IdempotencyTTL     time.Duration
}

type SweeperConfig struct {
	Interval time.Duration
	Batch    int
	Mode     string
}

type LogConfig struct {
	Level  string
	Format string
}

func New() (*Config, error) {
	const op = "config.New"

	_ = godotenv.Load()

	serverPort, err := intEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	serverCfg := ServerConfig{
		Host: stringEnv("SERVER_HOST", "localhost"),
		Port: serverPort,
	}

	storeCfg := StoreConfig{
		Driver:     strings.ToLower(stringEnv("STORE_DRIVER", DriverPostgres)),
		SQLitePath: stringEnv("SQLITE_PATH", "park.db"),
	}

	var postgresCfg PostgresConfig
	switch storeCfg.Driver {
	case DriverPostgres:
		postgresCfg, err = postgresFromEnv()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	case DriverSQLite:
	default:
		return nil, fmt.Errorf("%s: invalid STORE_DRIVER %q", op, storeCfg.Driver)
	}

	redisDB, err := intEnv("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	redisCfg := RedisConfig{
		Addr:     os.Getenv("REDIS_ADDR"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       redisDB,
	}

	bookingCfg, err := bookingFromEnv()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	sweeperCfg, err := sweeperFromEnv()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Config{
		Server:     serverCfg,
		Store:      storeCfg,
		Postgres:   postgresCfg,
		Redis:      redisCfg,
		Booking:    bookingCfg,
		Sweeper:    sweeperCfg,
		Log:        LogConfig{Level: stringEnv("LOG_LEVEL", "info"), Format: stringEnv("LOG_FORMAT", "text")},
		AdminToken: os.Getenv("ADMIN_TOKEN"),
	}, nil
}

func postgresFromEnv() (PostgresConfig, error) {
	port, err := intEnv("POSTGRES_PORT", 5432)
	if err != nil {
		return PostgresConfig{}, err
	}

	maxConns, err := intEnv("POSTGRES_MAX_CONNS", 0)
	if err != nil {
		return PostgresConfig{}, err
	}

	user := os.Getenv("POSTGRES_USER")
	if user == "" {
		return PostgresConfig{}, fmt.Errorf("missing POSTGRES_USER")
	}

	password := os.Getenv("POSTGRES_PASSWORD")
	if password == "" {
		return PostgresConfig{}, fmt.Errorf("missing POSTGRES_PASSWORD")
	}

	name := os.Getenv("POSTGRES_DB")
	if name == "" {
		return PostgresConfig{}, fmt.Errorf("missing POSTGRES_DB")
	}

	return PostgresConfig{
		User:     user,
		Password: password,
		Name:     name,
		Host:     stringEnv("POSTGRES_HOST", "localhost"),
		Port:     port,
		SSLMode:  stringEnv("POSTGRES_SSLMODE", "disable"),
		MaxConns: int32(maxConns),
	}, nil
}

func bookingFromEnv() (BookingConfig, error) {
	var (
		cfg BookingConfig
		err error
	)

	if cfg.ArrivalGrace, err = durationEnv("ARRIVAL_GRACE", 3*time.Minute); err != nil {
		return cfg, err
	}
	if cfg.MaxHoldDuration, err = durationEnv("MAX_HOLD_DURATION", 24*time.Hour); err != nil {
		return cfg, err
	}
	if cfg.MaxAttempts, err = intEnv("HOLD_MAX_ATTEMPTS", 3); err != nil {
		return cfg, err
	}
	if cfg.RateLimitPerMinute, err = intEnv("HOLD_RATE_LIMIT_PER_MINUTE", 10); err != nil {
		return cfg, err
	}
	if cfg.IdempotencyTTL, err = durationEnv("IDEMPOTENCY_TTL", 2*time.Hour); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func sweeperFromEnv() (SweeperConfig, error) {
	var (
		cfg SweeperConfig
		err error
	)

	if cfg.Interval, err = durationEnv("SWEEP_INTERVAL", time.Minute); err != nil {
		return cfg, err
	}
	if cfg.Interval <= 0 {
		return cfg, fmt.Errorf("invalid SWEEP_INTERVAL: must be positive")
	}
	if cfg.Batch, err = intEnv("SWEEP_BATCH", 500); err != nil {
		return cfg, err
	}
	cfg.Mode = stringEnv("CHECKIN_MODE", "confirmed")
	return cfg, nil
}

func stringEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
