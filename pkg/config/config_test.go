package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, "ecofinds", cfg.DBName)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiresIn)
	assert.Equal(t, "marketplace-api", cfg.OTELServiceName)
}

func TestGetDSN(t *testing.T) {
	cfg := &Config{
		DBHost:     "db.internal",
		DBPort:     "3307",
		DBUser:     "app",
		DBPassword: "pw",
		DBName:     "ecofinds",
	}
	assert.Equal(t, "app:pw@tcp(db.internal:3307)/ecofinds?parseTime=true&charset=utf8mb4", cfg.GetDSN())
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("TEST_TTL", "30m")
	assert.Equal(t, 30*time.Minute, getEnvDuration("TEST_TTL", time.Hour))

	t.Setenv("TEST_TTL", "24")
	assert.Equal(t, 24*time.Hour, getEnvDuration("TEST_TTL", time.Hour))

	t.Setenv("TEST_TTL", "nonsense")
	assert.Equal(t, time.Hour, getEnvDuration("TEST_TTL", time.Hour))
}
