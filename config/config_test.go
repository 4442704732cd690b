package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"STORE_DRIVER", "POINTS_EASY", "POINTS_MEDIUM", "POINTS_HARD", "POINTS_CLAMP_ZERO", "JWT_EXPIRATION_TIME", "KAFKA_BROKERS"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, DriverFile, cfg.Store.Driver)
	assert.Equal(t, 10, cfg.Points.Easy)
	assert.Equal(t, 20, cfg.Points.Medium)
	assert.Equal(t, 30, cfg.Points.Hard)
	assert.True(t, cfg.Points.ClampAtZero)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiration)
	assert.Empty(t, cfg.KafkaBrokers)
	require.NoError(t, cfg.Validate())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("POINTS_EASY", "5")
	t.Setenv("POINTS_MEDIUM", "10")
	t.Setenv("POINTS_HARD", "15")
	t.Setenv("POINTS_CLAMP_ZERO", "false")
	t.Setenv("JWT_EXPIRATION_TIME", "3600")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")

	cfg := Load()

	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, PointsConfig{Easy: 5, Medium: 10, Hard: 15, ClampAtZero: false, FocusBonusMinutes: 25, FocusBonusPoints: 5}, cfg.Points)
	assert.Equal(t, time.Hour, cfg.JWTExpiration)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{name: "unknown driver", mutate: func(c *Config) { c.Store.Driver = "cassandra" }, wantErr: true},
		{name: "jsonbin without key", mutate: func(c *Config) { c.Store.Driver = DriverJSONBin; c.Store.JSONBin.BinID = "bin" }, wantErr: true},
		{name: "postgres without url", mutate: func(c *Config) { c.Store.Driver = DriverPostgres }, wantErr: true},
		{name: "production with default secret", mutate: func(c *Config) { c.Env = "production" }, wantErr: true},
		{name: "negative points", mutate: func(c *Config) { c.Points.Hard = -1 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{
				Env:           "test",
				Store:         StoreConfig{Driver: DriverMemory},
				JWTSecret:     DefaultJWTSecret,
				JWTExpiration: time.Hour,
				Points:        PointsConfig{Easy: 10, Medium: 20, Hard: 30},
			}
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env")))

	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("STUDYROUTE_DOTENV_PROBE=loaded\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("STUDYROUTE_DOTENV_PROBE") })

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "loaded", os.Getenv("STUDYROUTE_DOTENV_PROBE"))
}
