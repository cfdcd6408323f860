package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("ALERT_SPEED_LIMIT", "")

	cfg := Load()

	assert.Equal(t, "sqlite", cfg.StoreDriver)
	assert.Equal(t, 100.0, cfg.SpeedLimit)
	assert.Equal(t, 20.0, cfg.LowFuelThreshold)
	assert.Equal(t, "MEDIUM", cfg.LowFuelSeverity)
	assert.Equal(t, 24*time.Hour, cfg.AnalyticsWindow())
	assert.Contains(t, cfg.CORSOrigins, "http://localhost:3000")
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "redis")
	t.Setenv("ALERT_LOW_FUEL_THRESHOLD", "15")
	t.Setenv("ALERT_LOW_FUEL_SEVERITY", "CRITICAL")
	t.Setenv("ANALYTICS_WINDOW_HOURS", "12")
	t.Setenv("REDIS_DB", "not-a-number")
	t.Setenv("MINIO_USE_TLS", "true")
	t.Setenv("CORS_ORIGINS", " https://a.example , ,https://b.example")

	cfg := Load()

	assert.Equal(t, "redis", cfg.StoreDriver)
	assert.Equal(t, 15.0, cfg.LowFuelThreshold)
	assert.Equal(t, "CRITICAL", cfg.LowFuelSeverity)
	assert.Equal(t, 12*time.Hour, cfg.AnalyticsWindow())
	assert.Equal(t, 0, cfg.RedisDB)
	assert.True(t, cfg.MinIOUseTLS)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestPostgresDSN(t *testing.T) {
	cfg := &Config{DBUser: "u", DBPassword: "p", DBHost: "h", DBPort: "5432", DBName: "fleet", DBMaxConns: 4}
	assert.Equal(t, "postgres://u:p@h:5432/fleet?pool_max_conns=4", cfg.PostgresDSN())
}
