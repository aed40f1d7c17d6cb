package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", DriverMemory)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, 4, cfg.MatchWorkers)
	assert.Equal(t, 5*time.Minute, cfg.MatchLockTTL)
	assert.Equal(t, 120, cfg.MaxRequestsPerMin)
	assert.Equal(t, "Africa/Lagos", cfg.Location().String())
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins())
	assert.False(t, cfg.IsProduction())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", DriverPostgres)
	t.Setenv("DATABASE_URL", "postgres://localhost/finance")
	t.Setenv("MATCH_WORKERS", "8")
	t.Setenv("MATCH_LOCK_TTL", "90s")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.MatchWorkers)
	assert.Equal(t, 90*time.Second, cfg.MatchLockTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins())
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			StorageDriver:  DriverMemory,
			SchoolTimezone: "Africa/Lagos",
			MatchWorkers:   2,
			MatchLockTTL:   time.Minute,
		}
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
		errMsg string
	}{
		{"valid", func(c *Config) {}, ""},
		{"unknown driver", func(c *Config) { c.StorageDriver = "mongo" }, "unknown STORAGE_DRIVER"},
		{"postgres without url", func(c *Config) { c.StorageDriver = DriverPostgres }, "DATABASE_URL is required"},
		{"zero workers", func(c *Config) { c.MatchWorkers = 0 }, "MATCH_WORKERS"},
		{"zero ttl", func(c *Config) { c.MatchLockTTL = 0 }, "MATCH_LOCK_TTL"},
		{"bad timezone", func(c *Config) { c.SchoolTimezone = "Mars/Olympus" }, "SCHOOL_TIMEZONE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
