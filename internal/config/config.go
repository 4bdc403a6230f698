package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server       ServerConfig
	MongoDB      MongoDBConfig
	Storage      StorageConfig
	JWT          JWTConfig
	RabbitMQ     RabbitMQConfig
	Gamification GamificationConfig
	Cache        CacheConfig
	Scheduler    SchedulerConfig
	LogLevel     string
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port         string
	AllowedHosts []string
}

// MongoDBConfig holds MongoDB-specific configuration
type MongoDBConfig struct {
	URI      string
	Database string
}

// StorageConfig selects the repository backend: mongodb or memory
type StorageConfig struct {
	Driver string
}

// JWTConfig holds JWT-specific configuration
type JWTConfig struct {
	Secret    string
	ExpiresIn int
}

// RabbitMQConfig holds the notification broker settings. An empty URL disables publishing.
type RabbitMQConfig struct {
	URL      string
	Exchange string
}

// GamificationConfig holds the check-in and lucky draw settings
type GamificationConfig struct {
	Day7Scope  string
	RandomSeed int64
}

// CacheConfig sizes the reward catalog cache
type CacheConfig struct {
	RewardCatalogBytes int
	RewardTTLSeconds   int
}

// SchedulerConfig holds cron specs for background jobs
type SchedulerConfig struct {
	RedemptionExpirySpec string
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Set defaults
	setDefaults()

	// Read configuration
	if err := viper.ReadInConfig(); err != nil {
		// It's okay if config file is not found, we'll use environment variables
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Unmarshal configuration
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case "mongodb", "memory":
	default:
		return fmt.Errorf("storage driver must be mongodb or memory, got %q", c.Storage.Driver)
	}
	switch c.Gamification.Day7Scope {
	case "merchant", "global":
	default:
		return fmt.Errorf("day 7 scope must be merchant or global, got %q", c.Gamification.Day7Scope)
	}
	if c.JWT.ExpiresIn <= 0 {
		return errors.New("JWT expiry must be positive")
	}
	return nil
}

// setDefaults sets default values for configuration. Every key needs a
// default so AutomaticEnv can override it during Unmarshal.
func setDefaults() {
	viper.SetDefault("Server.Port", "4000")
	viper.SetDefault("Server.AllowedHosts", []string{"http://localhost:3000"})
	viper.SetDefault("MongoDB.URI", "mongodb://localhost:27017/?replicaSet=rs0")
	viper.SetDefault("MongoDB.Database", "loyalty")
	viper.SetDefault("Storage.Driver", "mongodb")
	viper.SetDefault("JWT.Secret", "")
	viper.SetDefault("JWT.ExpiresIn", 24*60*60) // 24 hours
	viper.SetDefault("RabbitMQ.URL", "")
	viper.SetDefault("RabbitMQ.Exchange", "loyalty.notifications")
	viper.SetDefault("Gamification.Day7Scope", "merchant")
	viper.SetDefault("Gamification.RandomSeed", 0)
	viper.SetDefault("Cache.RewardCatalogBytes", 8*1024*1024)
	viper.SetDefault("Cache.RewardTTLSeconds", 300)
	viper.SetDefault("Scheduler.RedemptionExpirySpec", "@every 15m")
	viper.SetDefault("LogLevel", "info")
}
