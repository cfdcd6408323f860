package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// HTTP
	HTTPPort    string
	CORSOrigins []string

	// Record store: memory, sqlite, postgres or redis
	StoreDriver string
	SQLitePath  string

	// PostgreSQL
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBMaxConns int32

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	// Alert thresholds
	SpeedLimit       float64
	LowFuelThreshold float64
	LowFuelSeverity  string

	// Analytics
	AnalyticsWindowHours float64

	// InfluxDB mirror, disabled when InfluxURL is empty
	InfluxURL    string
	InfluxToken  string
	InfluxOrg    string
	InfluxBucket string

	// MinIO archive uploads
	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOUseTLS    bool
	MinIOBucket    string
}

// Load reads an optional .env file, then the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		Logger().Println("No .env file found, relying on system environment variables")
	}

	return &Config{
		HTTPPort:             getEnv("HTTP_PORT", "8080"),
		CORSOrigins:          splitList(getEnv("CORS_ORIGINS", "http://localhost,http://localhost:3000,http://127.0.0.1,http://127.0.0.1:3000")),
		StoreDriver:          getEnv("STORE_DRIVER", "sqlite"),
		SQLitePath:           getEnv("SQLITE_PATH", "fleet_telemetry.db"),
		DBHost:               getEnv("DB_HOST", "localhost"),
		DBPort:               getEnv("DB_PORT", "5432"),
		DBUser:               getEnv("DB_USER", "fleet_user"),
		DBPassword:           getEnv("DB_PASSWORD", "fleet_password"),
		DBName:               getEnv("DB_NAME", "fleetdb"),
		DBMaxConns:           int32(getEnvInt("DB_MAX_CONNS", 10)),
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:        getEnv("REDIS_PASSWORD", ""),
		RedisDB:              getEnvInt("REDIS_DB", 0),
		RedisPrefix:          getEnv("REDIS_PREFIX", "fleet"),
		SpeedLimit:           getEnvFloat("ALERT_SPEED_LIMIT", 100),
		LowFuelThreshold:     getEnvFloat("ALERT_LOW_FUEL_THRESHOLD", 20),
		LowFuelSeverity:      getEnv("ALERT_LOW_FUEL_SEVERITY", "MEDIUM"),
		AnalyticsWindowHours: getEnvFloat("ANALYTICS_WINDOW_HOURS", 24),
		InfluxURL:            getEnv("INFLUX_URL", ""),
		InfluxToken:          getEnv("INFLUX_TOKEN", ""),
		InfluxOrg:            getEnv("INFLUX_ORG", ""),
		InfluxBucket:         getEnv("INFLUX_BUCKET", "telemetry"),
		MinIOEndpoint:        getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:       getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:       getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseTLS:          getEnvBool("MINIO_USE_TLS", false),
		MinIOBucket:          getEnv("MINIO_BUCKET", "fleet-archive"),
	}
}

// PostgresDSN builds the pgx connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?pool_max_conns=%d",
		c.DBUser,
		c.DBPassword,
		c.DBHost,
		c.DBPort,
		c.DBName,
		c.DBMaxConns,
	)
}

// AnalyticsWindow is the trailing window used by fleet analytics.
func (c *Config) AnalyticsWindow() time.Duration {
	return time.Duration(c.AnalyticsWindowHours * float64(time.Hour))
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
