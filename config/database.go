package config

import (
	"time"

	"github.com/dododo1295/studyroute/utils"
)

// Store drivers understood by repository.Open.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverJSONBin  = "jsonbin"
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type MongoConfig struct {
	URI             string
	DatabaseName    string
	UsersCollection string
	MaxPoolSize     uint64
	MinPoolSize     uint64
	MaxConnIdleTime time.Duration
	RetryWrites     bool
}

type JSONBinConfig struct {
	BaseURL   string
	BinID     string
	MasterKey string
	Timeout   time.Duration
}

type StoreConfig struct {
	Driver      string
	DataFile    string // file driver
	DatabaseURL string // postgres DSN or sqlite path
	Mongo       MongoConfig
	JSONBin     JSONBinConfig
}

func LoadStoreConfig() StoreConfig {
	return StoreConfig{
		Driver:      utils.GetEnvAsString("STORE_DRIVER", DriverFile),
		DataFile:    utils.GetEnvAsString("DATA_FILE", "data/database.json"),
		DatabaseURL: utils.GetEnvAsString("DATABASE_URL", ""),
		Mongo: MongoConfig{
			URI:             utils.GetEnvAsString("MONGO_URI", "mongodb://localhost:27017"),
			DatabaseName:    utils.GetEnvAsString("MONGO_DB", "studyroute"),
			UsersCollection: utils.GetEnvAsString("USERS_COLLECTION", "users"),
			MaxPoolSize:     utils.GetEnvAsUint64("MONGO_MAX_POOL_SIZE", 100),
			MinPoolSize:     utils.GetEnvAsUint64("MONGO_MIN_POOL_SIZE", 10),
			MaxConnIdleTime: time.Duration(utils.GetEnvAsInt("MONGO_MAX_CONN_IDLE_TIME", 60)) * time.Second,
			RetryWrites:     utils.GetEnvAsBool("MONGO_RETRY_WRITES", true),
		},
		JSONBin: JSONBinConfig{
			BaseURL:   utils.GetEnvAsString("JSONBIN_URL", "https://api.jsonbin.io/v3"),
			BinID:     utils.GetEnvAsString("JSONBIN_BIN_ID", ""),
			MasterKey: utils.GetEnvAsString("JSONBIN_MASTER_KEY", ""),
			Timeout:   utils.GetEnvAsDuration("JSONBIN_TIMEOUT", 10*time.Second),
		},
	}
}
