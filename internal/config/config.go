package config

import (
	"os"
	"strconv"
	"time"

	"care-companion-go/pkg/logger"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort string
	Env      string
	Cache    CacheConfig
	Schedule ScheduleConfig
	Notify   NotifyConfig
	DB       DBConfig
}

type CacheConfig struct {
	TTL      time.Duration
	Capacity int
	Backend  string
	FilePath string
	Redis    RedisConfig
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type ScheduleConfig struct {
	SchedulesFile        string
	ElderlySchedulesFile string
}

type NotifyConfig struct {
	Enabled  bool
	Interval time.Duration
}

type DBConfig struct {
	DSN             string
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	TimeZone        string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

func Load(log logger.Logger) (Config, error) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return Config{}, err
		}
		log.Debug("dotenv: no .env file found")
	}

	return Config{
		HTTPPort: getEnv("HTTP_PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		Cache: CacheConfig{
			TTL:      getEnvDuration("CACHE_TTL", 5*time.Minute),
			Capacity: getEnvInt("CACHE_CAPACITY", 100),
			Backend:  getEnv("CACHE_BACKEND", "file"),
			FilePath: getEnv("CACHE_FILE", "data/cache.json"),
			Redis: RedisConfig{
				Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
				Password: getEnv("REDIS_PASSWORD", ""),
				DB:       getEnvInt("REDIS_CACHE_DB", 0),
			},
		},
		Schedule: ScheduleConfig{
			SchedulesFile:        getEnv("SCHEDULES_FILE", "data/schedules.json"),
			ElderlySchedulesFile: getEnv("ELDERLY_SCHEDULES_FILE", "data/elderly_schedules.json"),
		},
		Notify: NotifyConfig{
			Enabled:  getEnvBool("NOTIFY_ENABLED", true),
			Interval: getEnvDuration("NOTIFY_INTERVAL", time.Minute),
		},
		DB: DBConfig{
			DSN:             getEnv("DB_DSN", ""),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			Name:            getEnv("DB_NAME", "care_companion"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			TimeZone:        getEnv("DB_TIMEZONE", "UTC"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
	}, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func (c DBConfig) GetDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=" + c.TimeZone
}
