package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Oracle   OracleConfig   `json:"oracle"`
	Schema   SchemaConfig   `json:"schema"`
	Cache    CacheConfig    `json:"cache"`
	Logging  LoggingConfig  `json:"logging"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	ListenAddr  string `json:"listen_addr"  env:"SERVER_ADDR"         envDefault:":8000"`
	ReadTimeout string `json:"read_timeout" env:"SERVER_READ_TIMEOUT" envDefault:"30s"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Path            string `json:"path"               env:"DB_PATH"               envDefault:"~/.local/share/aisavvy/database.db"`
	MaxConnections  int    `json:"max_connections"    env:"DB_MAX_CONNECTIONS"    envDefault:"10"`
	MaxIdleConns    int    `json:"max_idle_conns"     env:"DB_MAX_IDLE_CONNS"     envDefault:"5"`
	ConnMaxLifetime string `json:"conn_max_lifetime"  env:"DB_CONN_MAX_LIFETIME"  envDefault:"30m"`
	ConnMaxIdleTime string `json:"conn_max_idle_time" env:"DB_CONN_MAX_IDLE_TIME" envDefault:"5m"`
	QueryTimeout    string `json:"query_timeout"      env:"DB_QUERY_TIMEOUT"      envDefault:"30s"`
}

// OracleConfig represents text-generation backend configuration
type OracleConfig struct {
	Provider string `json:"provider" env:"ORACLE_PROVIDER" envDefault:"ollama"`
	Model    string `json:"model"    env:"ORACLE_MODEL"    envDefault:"gemma:2b"`
	BaseURL  string `json:"base_url" env:"ORACLE_BASE_URL" envDefault:"http://localhost:11434"`
	APIKey   string `json:"api_key,omitempty" env:"ORACLE_API_KEY"`
	Timeout  string `json:"timeout"  env:"ORACLE_TIMEOUT"  envDefault:"60s"`
}

// SchemaConfig controls the startup schema snapshot
type SchemaConfig struct {
	Namespace      string   `json:"namespace"        env:"SCHEMA_NAMESPACE"        envDefault:"main"`
	HintColumns    []string `json:"hint_columns"     env:"SCHEMA_HINT_COLUMNS"     envSeparator:","`
	HintSampleSize int      `json:"hint_sample_size" env:"SCHEMA_HINT_SAMPLE_SIZE" envDefault:"20"`
}

// CacheConfig controls response memoization
type CacheConfig struct {
	Enabled   bool `json:"enabled"    env:"CACHE_ENABLED"    envDefault:"true"`
	NoResults bool `json:"no_results" env:"CACHE_NO_RESULTS" envDefault:"true"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `json:"level"  env:"LOG_LEVEL"  envDefault:"info"`   // debug, info, warn, error
	Format string `json:"format" env:"LOG_FORMAT" envDefault:"text"`   // text, json
	Output string `json:"output" env:"LOG_OUTPUT" envDefault:"stdout"` // stdout, stderr
}

const envPrefix = "AISAVVY_"

// LoadConfig loads configuration with defaults < config file < environment
// precedence. The env library applies envDefault values even over pre-filled
// fields, so each layer is resolved separately and merged explicitly.
func LoadConfig() (*Config, error) {
	config := &Config{}

	// Defaults only: an empty environment leaves just the envDefault values
	if err := env.ParseWithOptions(config, env.Options{
		Prefix:      envPrefix,
		Environment: map[string]string{},
	}); err != nil {
		return nil, fmt.Errorf("failed to apply configuration defaults: %w", err)
	}

	configPath := getConfigPath()
	if _, err := os.Stat(configPath); err == nil {
		if err := loadConfigFromFile(config, configPath); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := applyEnvOverrides(config); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	config.Database.Path = expandPath(config.Database.Path)

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// applyEnvOverrides copies over only the fields whose environment variable
// is actually set, leaving file and default values alone everywhere else
func applyEnvOverrides(config *Config) error {
	parsed := &Config{}
	if err := env.ParseWithOptions(parsed, env.Options{Prefix: envPrefix}); err != nil {
		return err
	}

	var copySet func(target, source reflect.Value, structType reflect.Type)
	copySet = func(target, source reflect.Value, structType reflect.Type) {
		for i := range structType.NumField() {
			field := structType.Field(i)

			key, tagged := field.Tag.Lookup("env")
			if !tagged && field.Type.Kind() == reflect.Struct {
				copySet(target.Field(i), source.Field(i), field.Type)
				continue
			}

			if !tagged {
				continue
			}

			if _, ok := os.LookupEnv(envPrefix + key); ok {
				target.Field(i).Set(source.Field(i))
			}
		}
	}

	copySet(reflect.ValueOf(config).Elem(), reflect.ValueOf(parsed).Elem(), reflect.TypeOf(Config{}))

	return nil
}

// getConfigPath returns the path to the configuration file
func getConfigPath() string {
	if path := os.Getenv("AISAVVY_CONFIG"); path != "" {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "config.json"
	}

	return filepath.Join(home, ".config", "aisavvy", "config.json")
}

// loadConfigFromFile loads configuration from a JSON file
func loadConfigFromFile(config *Config, configPath string) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// expandPath expands a leading ~ to the user home directory
func expandPath(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(home, path[2:])
}

// validateConfig validates the loaded configuration
func validateConfig(config *Config) error {
	if config.Server.ListenAddr == "" {
		return fmt.Errorf("server listen address is required")
	}

	if config.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}

	if config.Database.MaxConnections < 1 {
		return fmt.Errorf("database max_connections must be at least 1")
	}

	for name, value := range map[string]string{
		"server.read_timeout":         config.Server.ReadTimeout,
		"database.conn_max_lifetime":  config.Database.ConnMaxLifetime,
		"database.conn_max_idle_time": config.Database.ConnMaxIdleTime,
		"database.query_timeout":      config.Database.QueryTimeout,
		"oracle.timeout":              config.Oracle.Timeout,
	} {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid duration for %s: %w", name, err)
		}
	}

	switch config.Oracle.Provider {
	case "ollama", "openai":
	default:
		return fmt.Errorf("unsupported oracle provider: %s", config.Oracle.Provider)
	}

	if config.Oracle.Provider == "openai" && config.Oracle.APIKey == "" {
		return fmt.Errorf("oracle API key is required for the openai provider")
	}

	for _, hint := range config.Schema.HintColumns {
		if !strings.Contains(hint, ".") {
			return fmt.Errorf("hint column %q must be in table.column form", hint)
		}
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	return nil
}

// MustDuration parses a duration string that has already passed validation
func MustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		panic(fmt.Sprintf("invalid duration %q: %v", value, err))
	}

	return d
}
