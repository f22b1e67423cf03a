package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// DefaultConfigFileName is read from the working directory when present.
const DefaultConfigFileName = "armory.toml"

type Config struct {
	AppEnv   string         `toml:"app_env"`
	Port     string         `toml:"port"`
	LogLevel string         `toml:"log_level"`
	Database DatabaseConfig `toml:"database"`
	JWT      JWTConfig      `toml:"jwt"`
	Redis    RedisConfig    `toml:"redis"`
	Ledger   LedgerConfig   `toml:"ledger"`
	Admin    AdminConfig    `toml:"admin"`
}

type DatabaseConfig struct {
	Driver     string `toml:"driver"` // postgres | sqlite
	URL        string `toml:"url"`
	Host       string `toml:"host"`
	User       string `toml:"user"`
	Password   string `toml:"password"`
	Name       string `toml:"name"`
	Port       string `toml:"port"`
	TimeZone   string `toml:"timezone"`
	SQLitePath string `toml:"sqlite_path"`
	LogQueries bool   `toml:"log_queries"`
}

type JWTConfig struct {
	Secret string   `toml:"secret"`
	TTL    Duration `toml:"ttl"`
}

type RedisConfig struct {
	Address  string   `toml:"address"` // empty disables the metrics cache
	Password string   `toml:"password"`
	DB       int      `toml:"db"`
	TTL      Duration `toml:"metrics_ttl"`
}

type LedgerConfig struct {
	OpTimeout  Duration `toml:"op_timeout"`
	MaxRetries int      `toml:"max_retries"`
}

type AdminConfig struct {
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// Duration lets TOML files carry values like "5s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// LoadError represents an error that occurred while loading configuration.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading config from %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

func Default() *Config {
	return &Config{
		AppEnv:   "development",
		Port:     "3000",
		LogLevel: "info",
		Database: DatabaseConfig{
			Driver:     "postgres",
			TimeZone:   "UTC",
			SQLitePath: "armory.db",
		},
		JWT:    JWTConfig{Secret: "change-me-in-production", TTL: Duration{24 * time.Hour}},
		Redis:  RedisConfig{TTL: Duration{time.Minute}},
		Ledger: LedgerConfig{OpTimeout: Duration{10 * time.Second}, MaxRetries: 3},
		Admin:  AdminConfig{Username: "admin", Password: "admin123"},
	}
}

// Load builds the configuration from defaults, an optional TOML file and the
// environment (a .env file is loaded first). Environment values win.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		if _, err := os.Stat(DefaultConfigFileName); err == nil {
			path = DefaultConfigFileName
		}
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, &LoadError{Source: path, Err: err}
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, &LoadError{Source: ".env", Err: err}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, &LoadError{Source: "environment", Err: err}
	}
	if err := cfg.Validate(); err != nil {
		return nil, &LoadError{Source: "validation", Err: err}
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.AppEnv, "APP_ENV")
	setString(&c.Port, "PORT")
	setString(&c.LogLevel, "LOG_LEVEL")

	setString(&c.Database.Driver, "DB_DRIVER")
	setString(&c.Database.URL, "DATABASE_URL")
	setString(&c.Database.Host, "DB_HOST")
	setString(&c.Database.User, "DB_USER")
	setString(&c.Database.Password, "DB_PASSWORD")
	setString(&c.Database.Name, "DB_NAME")
	setString(&c.Database.Port, "DB_PORT")
	setString(&c.Database.TimeZone, "DB_TIMEZONE")
	setString(&c.Database.SQLitePath, "SQLITE_PATH")
	if err := setBool(&c.Database.LogQueries, "DB_LOG_QUERIES"); err != nil {
		return err
	}

	setString(&c.JWT.Secret, "JWT_SECRET")
	if err := setDuration(&c.JWT.TTL, "JWT_TTL"); err != nil {
		return err
	}

	setString(&c.Redis.Address, "REDIS_ADDRESS")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	if err := setInt(&c.Redis.DB, "REDIS_DB"); err != nil {
		return err
	}
	if err := setDuration(&c.Redis.TTL, "METRICS_CACHE_TTL"); err != nil {
		return err
	}

	if err := setDuration(&c.Ledger.OpTimeout, "LEDGER_OP_TIMEOUT"); err != nil {
		return err
	}
	if err := setInt(&c.Ledger.MaxRetries, "LEDGER_MAX_RETRIES"); err != nil {
		return err
	}

	setString(&c.Admin.Username, "ADMIN_USERNAME")
	setString(&c.Admin.Password, "ADMIN_PASSWORD")
	return nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET must not be empty")
	}
	if c.Ledger.OpTimeout.Duration <= 0 {
		return errors.New("LEDGER_OP_TIMEOUT must be positive")
	}
	if c.Ledger.MaxRetries < 0 {
		return errors.New("LEDGER_MAX_RETRIES must not be negative")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = b
	return nil
}

func setDuration(dst *Duration, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	dst.Duration = d
	return nil
}
