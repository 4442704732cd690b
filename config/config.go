// Package config loads runtime settings from the environment (and .env when present).
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dododo1295/studyroute/utils"

	"github.com/joho/godotenv"
)

const DefaultJWTSecret = "dev-secret-change-me"

type PointsConfig struct {
	Easy              int
	Medium            int
	Hard              int
	ClampAtZero       bool
	FocusBonusMinutes int
	FocusBonusPoints  int
}

type Config struct {
	Env         string
	Port        string
	LogLevel    string
	CORSOrigins []string

	Store StoreConfig

	RedisURL string

	JWTSecret     string
	JWTIssuer     string
	JWTExpiration time.Duration

	KafkaBrokers []string
	KafkaTopic   string

	Points PointsConfig
}

// LoadDotEnv reads .env into the process environment. A missing file is fine;
// a malformed one is not.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

// Load reads environment variables into Config, applying defaults for local dev.
func Load() Config {
	return Config{
		Env:         utils.GetEnvAsString("GO_ENV", "development"),
		Port:        utils.GetEnvAsString("PORT", "8080"),
		LogLevel:    utils.GetEnvAsString("LOG_LEVEL", ""),
		CORSOrigins: utils.GetEnvAsSlice("CORS_ORIGINS", []string{"http://localhost:5173", "http://localhost:3000"}),

		Store: LoadStoreConfig(),

		RedisURL: utils.GetEnvAsString("REDIS_URL", ""),

		JWTSecret:     utils.GetEnvAsString("JWT_SECRET_KEY", DefaultJWTSecret),
		JWTIssuer:     utils.GetEnvAsString("JWT_ISSUER", "studyroute"),
		JWTExpiration: utils.GetEnvAsDuration("JWT_EXPIRATION_TIME", 24*time.Hour),

		KafkaBrokers: utils.GetEnvAsSlice("KAFKA_BROKERS", nil),
		KafkaTopic:   utils.GetEnvAsString("KAFKA_TOPIC", "studyroute.progress"),

		Points: PointsConfig{
			Easy:              utils.GetEnvAsInt("POINTS_EASY", 10),
			Medium:            utils.GetEnvAsInt("POINTS_MEDIUM", 20),
			Hard:              utils.GetEnvAsInt("POINTS_HARD", 30),
			ClampAtZero:       utils.GetEnvAsBool("POINTS_CLAMP_ZERO", true),
			FocusBonusMinutes: utils.GetEnvAsInt("FOCUS_BONUS_MINUTES", 25),
			FocusBonusPoints:  utils.GetEnvAsInt("FOCUS_BONUS_POINTS", 5),
		},
	}
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Validate rejects settings the server cannot run with.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case DriverMemory, DriverFile, DriverMongo, DriverSQLite:
	case DriverJSONBin:
		if c.Store.JSONBin.BinID == "" || c.Store.JSONBin.MasterKey == "" {
			return errors.New("jsonbin driver needs JSONBIN_BIN_ID and JSONBIN_MASTER_KEY")
		}
	case DriverPostgres:
		if c.Store.DatabaseURL == "" {
			return errors.New("postgres driver needs DATABASE_URL")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}

	if c.IsProduction() && c.JWTSecret == DefaultJWTSecret {
		return errors.New("JWT_SECRET_KEY must be set in production")
	}
	if c.JWTExpiration <= 0 {
		return errors.New("JWT_EXPIRATION_TIME must be positive")
	}
	p := c.Points
	if p.Easy < 0 || p.Medium < 0 || p.Hard < 0 || p.FocusBonusPoints < 0 {
		return errors.New("point values must not be negative")
	}
	return nil
}
