package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("SERVER_PORT", "8080")
	t.Setenv("DB_DRIVER", "POSTGRES")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("DB_USER", "testuser")
	t.Setenv("DB_PASSWORD", "testpass")
	t.Setenv("DB_NAME", "testdb")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("ACCESS_TOKEN_SECRET", "access")
	t.Setenv("ACCESS_TOKEN_EXPIRY", "5m")
	t.Setenv("REFRESH_TOKEN_SECRET", "refresh")
	t.Setenv("REFRESH_TOKEN_EXPIRY", "48h")
	t.Setenv("COOKIE_SECURE", "false")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, DriverPostgres, cfg.DBDriver)
	assert.Equal(t, "db", cfg.DBHost)
	assert.Equal(t, "5433", cfg.DBPort)
	assert.Equal(t, "testuser", cfg.DBUser)
	assert.Equal(t, "testpass", cfg.DBPassword)
	assert.Equal(t, "testdb", cfg.DBName)
	assert.Equal(t, "cache:6380", cfg.RedisAddr())
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, "access", cfg.AccessTokenSecret)
	assert.Equal(t, 5*time.Minute, cfg.AccessTokenExpiry)
	assert.Equal(t, "refresh", cfg.RefreshTokenSecret)
	assert.Equal(t, 48*time.Hour, cfg.RefreshTokenExpiry)
	assert.False(t, cfg.CookieSecure)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Contains(t, cfg.PostgresDSN(), "host=db")
	assert.Contains(t, cfg.PostgresDSN(), "dbname=testdb")
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("ACCESS_TOKEN_EXPIRY", "not-a-duration")
	t.Setenv("REFRESH_TOKEN_EXPIRY", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.ServerPort)
	assert.Equal(t, DriverMongo, cfg.DBDriver)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenExpiry)
	assert.Equal(t, 240*time.Hour, cfg.RefreshTokenExpiry)
	assert.True(t, cfg.CookieSecure)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			DBDriver:           DriverMongo,
			AccessTokenSecret:  "a",
			RefreshTokenSecret: "r",
		}
	}

	assert.NoError(t, valid().Validate())

	cfg := valid()
	cfg.AccessTokenSecret = defaultAccessSecret
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.RefreshTokenSecret = ""
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.RefreshTokenSecret = cfg.AccessTokenSecret
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.DBDriver = "sqlite"
	assert.Error(t, cfg.Validate())
}
