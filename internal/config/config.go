package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "BOOKING"

// DevJWTSecret is the signing secret used when none is configured. It is only
// accepted in development.
const DevJWTSecret = "tripxl-dev-only-jwt-secret"

// ServiceConfig holds all configuration for the booking service.
type ServiceConfig struct {
	Port          string         `mapstructure:"service_port"`
	AppEnv        string         `mapstructure:"app_env"`
	DBConfig      DatabaseConfig `mapstructure:"db"`
	JWTConfig     JWTConfig      `mapstructure:"jwt"`
	KafkaConfig   KafkaConfig    `mapstructure:"kafka"`
	RedisConfig   RedisConfig    `mapstructure:"redis"`
	RoutingConfig RoutingConfig  `mapstructure:"routing"`
	FuelConfig    FuelConfig     `mapstructure:"fuel"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

// JWTConfig holds token verification settings.
type JWTConfig struct {
	Secret    string        `mapstructure:"secret"`
	AccessTTL time.Duration `mapstructure:"access_ttl"`
}

// KafkaConfig holds broker settings.
type KafkaConfig struct {
	Brokers     []string `mapstructure:"brokers"`
	GroupPrefix string   `mapstructure:"group_prefix"`
}

// RedisConfig holds the route cache connection.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// RoutingConfig selects and tunes the routing provider.
// Empty coordinate order and separators mean the provider's own defaults.
type RoutingConfig struct {
	Provider            string        `mapstructure:"provider"`
	BaseURL             string        `mapstructure:"base_url"`
	APIKey              string        `mapstructure:"api_key"`
	CoordinateOrder     string        `mapstructure:"coordinate_order"`
	PairSeparator       string        `mapstructure:"pair_separator"`
	CoordinateSeparator string        `mapstructure:"coordinate_separator"`
	Timeout             time.Duration `mapstructure:"timeout"`
	RateLimitPerSec     float64       `mapstructure:"rate_limit_per_sec"`
	RateBurst           int           `mapstructure:"rate_burst"`
	CacheTTL            time.Duration `mapstructure:"cache_ttl"`
}

// FuelConfig holds fuel price ingestion and costing settings.
type FuelConfig struct {
	IngestKey          string  `mapstructure:"ingest_key"`
	DefaultConsumption float64 `mapstructure:"default_consumption"`
}

// Addr returns the listen address for the HTTP server.
func (c *ServiceConfig) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

// Load reads configuration from BOOKING_* environment variables, optionally
// layered over the YAML file named by BOOKING_CONFIG_FILE.
func Load() (*ServiceConfig, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file := os.Getenv(envPrefix + "_CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	var cfg ServiceConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service_port", "8004")
	v.SetDefault("app_env", "development")

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", "5432")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "postgres")
	v.SetDefault("db.name", "tripxl_booking")
	v.SetDefault("db.sslmode", "disable")

	v.SetDefault("jwt.secret", DevJWTSecret)
	v.SetDefault("jwt.access_ttl", 15*time.Minute)

	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.group_prefix", "tripxl-")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("routing.provider", "geoapify")
	v.SetDefault("routing.base_url", "")
	v.SetDefault("routing.api_key", "")
	v.SetDefault("routing.coordinate_order", "")
	v.SetDefault("routing.pair_separator", "")
	v.SetDefault("routing.coordinate_separator", "")
	v.SetDefault("routing.timeout", 8*time.Second)
	v.SetDefault("routing.rate_limit_per_sec", 0.0)
	v.SetDefault("routing.rate_burst", 5)
	v.SetDefault("routing.cache_ttl", 15*time.Minute)

	v.SetDefault("fuel.ingest_key", "")
	v.SetDefault("fuel.default_consumption", 9.0)
}

func (c *ServiceConfig) validate() error {
	if c.JWTConfig.Secret == "" {
		return fmt.Errorf("%s_JWT_SECRET must not be empty", envPrefix)
	}
	if c.AppEnv != "development" && c.JWTConfig.Secret == DevJWTSecret {
		return fmt.Errorf("%s_JWT_SECRET is required outside development", envPrefix)
	}
	if c.RoutingConfig.Timeout <= 0 {
		return fmt.Errorf("routing timeout must be positive, got %s", c.RoutingConfig.Timeout)
	}
	switch c.RoutingConfig.CoordinateOrder {
	case "", "lnglat", "latlng":
	default:
		return fmt.Errorf("invalid routing coordinate order %q (want lnglat or latlng)", c.RoutingConfig.CoordinateOrder)
	}
	if c.FuelConfig.DefaultConsumption <= 0 {
		return fmt.Errorf("fuel default consumption must be positive")
	}
	return nil
}
