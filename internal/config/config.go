package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"clinicbook/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverDynamoDB = "dynamodb"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Store      StoreConfig      `yaml:"store"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	DynamoDB   DynamoDBConfig   `yaml:"dynamodb"`
	Backup     BackupConfig     `yaml:"backup"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	API        APIConfig        `yaml:"api"`
	Auth       AuthConfig       `yaml:"auth"`
	Notify     NotifyConfig     `yaml:"notify"`
	Seed       SeedConfig       `yaml:"seed"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

// StoreConfig selects the persistent store backing the booking collection.
type StoreConfig struct {
	Driver   string `yaml:"driver"`
	Key      string `yaml:"key"`
	Location string `yaml:"location"`
	// Failover wraps the primary driver with an in-memory fallback.
	Failover bool `yaml:"failover"`
}

type DatabaseConfig struct {
	Path     string         `yaml:"path"`
	Postgres PostgresConfig `yaml:"postgres"`
}

type PostgresConfig struct {
	URL             string        `yaml:"url"`
	Table           string        `yaml:"table"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type DynamoDBConfig struct {
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
	Table    string `yaml:"table"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type APIConfig struct {
	HTTP      APIHTTPConfig      `yaml:"http"`
	GRPC      APIGRPCConfig      `yaml:"grpc"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIHTTPConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

type APIGRPCConfig struct {
	Enabled    bool `yaml:"enabled"`
	Port       int  `yaml:"port"`
	Reflection bool `yaml:"reflection"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type AuthConfig struct {
	AdminKey   string        `yaml:"admin_key"`
	SessionTTL time.Duration `yaml:"session_ttl"`
	Header     string        `yaml:"header"`
}

type NotifyConfig struct {
	Enabled             bool          `yaml:"enabled"`
	BookingLatency      time.Duration `yaml:"booking_latency"`
	ConfirmationLatency time.Duration `yaml:"confirmation_latency"`
	MaxRetries          int           `yaml:"max_retries"`
	InitialDelay        time.Duration `yaml:"initial_delay"`
	MaxDelay            time.Duration `yaml:"max_delay"`
}

// SeedConfig enables demo data on an empty store. File is optional YAML.
type SeedConfig struct {
	Enabled bool   `yaml:"enabled"`
	File    string `yaml:"file"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional; variables from it feed ${VAR} expansion below
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverMemory:
	case DriverRedis:
		if c.Redis.Address == "" {
			return errors.New("redis address is required for redis store")
		}
	case DriverSQLite:
		if c.Database.Path == "" {
			return errors.New("database path is required for sqlite store")
		}
	case DriverPostgres:
		if c.Database.Postgres.URL == "" {
			return errors.New("postgres url is required for postgres store")
		}
	case DriverDynamoDB:
		if c.DynamoDB.Table == "" {
			return errors.New("dynamodb table is required for dynamodb store")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}

	if c.Store.Key == c.Auth.AdminKey {
		return errors.New("store key and admin key must differ")
	}

	if _, err := c.Location(); err != nil {
		return fmt.Errorf("store location: %w", err)
	}

	if c.Backup.Enabled && c.Store.Driver != DriverSQLite {
		return errors.New("backup is only supported for the sqlite store")
	}

	return nil
}

// Location resolves the time zone bookings are interpreted in.
func (c *Config) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.Store.Location)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "clinicbook"
	}
	if c.Store.Driver == "" {
		c.Store.Driver = DriverMemory
	}
	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	if c.Store.Key == "" {
		c.Store.Key = models.DefaultBookingsKey
	}
	if c.Database.Postgres.Table == "" {
		c.Database.Postgres.Table = "kv_store"
	}
	if c.DynamoDB.Region == "" {
		c.DynamoDB.Region = "us-east-1"
	}

	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.API.GRPC.Port == 0 {
		c.API.GRPC.Port = 8081
	}
	if c.API.RateLimit.RPS == 0 {
		c.API.RateLimit.RPS = models.RateLimitRPS
	}
	if c.API.RateLimit.Burst == 0 {
		c.API.RateLimit.Burst = models.RateLimitBurst
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}

	if c.Auth.AdminKey == "" {
		c.Auth.AdminKey = models.DefaultAdminKey
	}
	if c.Auth.SessionTTL == 0 {
		c.Auth.SessionTTL = models.DefaultSessionTTL * time.Second
	}
	if c.Auth.Header == "" {
		c.Auth.Header = "Authorization"
	}

	if c.Notify.BookingLatency == 0 {
		c.Notify.BookingLatency = 350 * time.Millisecond
	}
	if c.Notify.ConfirmationLatency == 0 {
		c.Notify.ConfirmationLatency = 250 * time.Millisecond
	}
	if c.Notify.MaxRetries == 0 {
		c.Notify.MaxRetries = 3
	}

	if c.Backup.Enabled && c.Backup.StoragePath == "" {
		c.Backup.StoragePath = "./backups"
	}
}
