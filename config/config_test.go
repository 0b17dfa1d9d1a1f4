package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDefaults(t *testing.T) {
	var c AppConfig
	applyDefaults(&c)

	assert.Equal(t, "5000", c.AppPort)
	assert.Equal(t, 24, c.JWTExpiryHours)
	assert.Equal(t, 10, c.BcryptCost)
	assert.Equal(t, "mysql", c.DBDriver)
	assert.Equal(t, "3306", c.DBPort)
	assert.Equal(t, []string{"*"}, c.AllowedOrigins)
	assert.Equal(t, 60, c.RateLimitPerMinute)

	pg := AppConfig{DBDriver: "postgres"}
	applyDefaults(&pg)
	assert.Equal(t, "5432", pg.DBPort)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "5")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	c := AppConfig{AppPort: "5000", RateLimitPerMinute: 60}
	applyEnvOverrides(&c)

	assert.Equal(t, "8081", c.AppPort)
	assert.Equal(t, "s3cret", c.JWTSecret)
	assert.Equal(t, "sqlite", c.DBDriver)
	assert.True(t, c.RedisEnabled)
	assert.Equal(t, 5, c.RateLimitPerMinute)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.AllowedOrigins)
}

func TestLoadJSONConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"app": {"AppPort": "7000", "JWTSecret": "from-file", "AllowedOrigins": ["https://a.example"]},
		"database": {"Driver": "sqlite", "SQLitePath": "tmp/app.db"}
	}`), 0o600))

	var c AppConfig
	require.NoError(t, loadJSONConfig(path, &c))
	require.NoError(t, loadJSONConfig(filepath.Join(t.TempDir(), "missing.json"), &AppConfig{}))
	assert.Equal(t, "7000", c.AppPort)
	assert.Equal(t, "from-file", c.JWTSecret)
	assert.Equal(t, []string{"https://a.example"}, c.AllowedOrigins)
	assert.Equal(t, "sqlite", c.DBDriver)
	assert.Equal(t, "tmp/app.db", c.SQLitePath)
}

func TestOpenDatabaseSQLite(t *testing.T) {
	cfg := AppConfig{DBDriver: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "nested", "app.db"), LogLevel: "silent"}
	conn, err := OpenDatabase(cfg)
	require.NoError(t, err)
	require.NoError(t, Migrate(conn))

	for _, table := range []string{"users", "grievances", "comments", "grievance_likes"} {
		assert.True(t, conn.Migrator().HasTable(table), table)
	}

	_, err = OpenDatabase(AppConfig{DBDriver: "oracle"})
	assert.Error(t, err)
}
