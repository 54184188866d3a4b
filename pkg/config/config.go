package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	// API settings
	APIHost string `mapstructure:"api_host"`
	Port    int    `mapstructure:"port"`

	// Store settings
	StoreDriver    string        `mapstructure:"store_driver"` // "mongo" or "sqlite"
	MongoURI       string        `mapstructure:"mongo_uri"`
	MongoDatabase  string        `mapstructure:"mongo_database"`
	SQLitePath     string        `mapstructure:"sqlite_path"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`

	// Request handling
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	BcryptCost      int           `mapstructure:"bcrypt_cost"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	SwaggerEnabled  bool          `mapstructure:"swagger_enabled"`

	// Logging settings
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	DevMode bool `mapstructure:"dev_mode"`

	ConfigPath string
}

const (
	EnvPrefix = "USERSAPI"

	DriverMongo  = "mongo"
	DriverSQLite = "sqlite"

	DefaultAPIHost         = "0.0.0.0"
	DefaultPort            = 2100
	DefaultStoreDriver     = DriverMongo
	DefaultMongoURI        = "mongodb://localhost:27017/usersInfo"
	DefaultMongoDatabase   = "usersInfo"
	DefaultSQLitePath      = "usersapi.sqlite3"
	DefaultConnectTimeout  = 10 * time.Second
	DefaultRequestTimeout  = 10 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultBcryptCost      = 10
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"
)

// Load reads configuration from the optional YAML file at configPath and
// the environment. Environment variables win over the file.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("api_host", DefaultAPIHost)
	v.SetDefault("port", DefaultPort)
	v.SetDefault("store_driver", DefaultStoreDriver)
	v.SetDefault("mongo_uri", DefaultMongoURI)
	v.SetDefault("mongo_database", "")
	v.SetDefault("sqlite_path", DefaultSQLitePath)
	v.SetDefault("connect_timeout", DefaultConnectTimeout)
	v.SetDefault("request_timeout", DefaultRequestTimeout)
	v.SetDefault("shutdown_timeout", DefaultShutdownTimeout)
	v.SetDefault("bcrypt_cost", DefaultBcryptCost)
	v.SetDefault("cors_origins", []string{})
	v.SetDefault("swagger_enabled", true)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("log_format", DefaultLogFormat)
	v.SetDefault("dev_mode", false)

	// Allow environment variable overrides
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	// PORT and MONGO_URI are honoured without the prefix as well
	if err := v.BindEnv("port", "PORT", EnvPrefix+"_PORT"); err != nil {
		return nil, fmt.Errorf("failed to bind port env: %w", err)
	}
	if err := v.BindEnv("mongo_uri", "MONGO_URI", EnvPrefix+"_MONGO_URI"); err != nil {
		return nil, fmt.Errorf("failed to bind mongo_uri env: %w", err)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.ConfigPath = configPath
	cfg.CORSOrigins = splitOrigins(cfg.CORSOrigins)

	if cfg.MongoDatabase == "" {
		cfg.MongoDatabase = databaseFromURI(cfg.MongoURI)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// splitOrigins flattens comma separated entries coming from a single env var
func splitOrigins(origins []string) []string {
	var out []string
	for _, o := range origins {
		for _, part := range strings.Split(o, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// databaseFromURI returns the database named in the URI path, if any
func databaseFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return DefaultMongoDatabase
	}
	if name := strings.Trim(u.Path, "/"); name != "" {
		return name
	}
	return DefaultMongoDatabase
}

func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}

	switch c.StoreDriver {
	case DriverMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("mongo_uri is required for the mongo store")
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("sqlite_path is required for the sqlite store")
		}
	default:
		return fmt.Errorf("store_driver must be '%s' or '%s'", DriverMongo, DriverSQLite)
	}

	if c.ConnectTimeout <= 0 {
		return fmt.Errorf("connect_timeout must be positive")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown_timeout must be positive")
	}

	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("bcrypt_cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error")
	}

	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("log_format must be 'text' or 'json'")
	}

	return nil
}

// Addr returns the listen address for the HTTP server
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.APIHost, c.Port)
}

func (c *Config) IsDevMode() bool {
	return c.DevMode
}
