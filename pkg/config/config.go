package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

const (
	DefaultAPIBaseURL = "https://baso-music.io.vn/apis/"
	DefaultSocketURL  = "wss://baso-music.io.vn/apis/chat"
	DefaultPageSize   = 20
)

type Config struct {
	APIBaseURL     string        `yaml:"api_base_url"`
	SocketURL      string        `yaml:"socket_url"`
	DBPath         string        `yaml:"db_path"`
	StoreKey       string        `yaml:"store_key"`
	LogLevel       string        `yaml:"log_level"`
	NATSURL        string        `yaml:"nats_url"`
	PageSize       int           `yaml:"page_size"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return &Config{
		APIBaseURL:     DefaultAPIBaseURL,
		SocketURL:      DefaultSocketURL,
		DBPath:         filepath.Join(home, ".spark", "spark.db"),
		LogLevel:       "info",
		PageSize:       DefaultPageSize,
		RequestTimeout: 30 * time.Second,
	}
}

// DefaultPath is $HOME/.spark.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".spark.yaml"
	}
	return filepath.Join(home, ".spark.yaml")
}

// Load layers defaults, the YAML file at path, a .env file in the working
// directory and SPARK_* environment variables, in that order. An empty path
// means DefaultPath, which may be missing. An explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if err := cfg.mergeFile(path); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	// .env is optional
	_ = godotenv.Load()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.APIBaseURL = getEnv("SPARK_API_BASE_URL", c.APIBaseURL)
	c.SocketURL = getEnv("SPARK_SOCKET_URL", c.SocketURL)
	c.DBPath = getEnv("SPARK_DB_PATH", c.DBPath)
	c.StoreKey = getEnv("SPARK_STORE_KEY", c.StoreKey)
	c.LogLevel = getEnv("SPARK_LOG_LEVEL", c.LogLevel)
	c.NATSURL = getEnv("SPARK_NATS_URL", c.NATSURL)
	c.PageSize = getEnvAsInt("SPARK_PAGE_SIZE", c.PageSize)
	c.RequestTimeout = getEnvAsDuration("SPARK_REQUEST_TIMEOUT", c.RequestTimeout)
}

func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("api_base_url is required")
	}
	if c.SocketURL == "" {
		return fmt.Errorf("socket_url is required")
	}
	if c.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}
	if c.PageSize <= 0 {
		c.PageSize = DefaultPageSize
	}
	if c.StoreKey != "" {
		if _, err := c.StoreKeyBytes(); err != nil {
			return err
		}
	}
	return nil
}

// StoreKeyBytes decodes the at-rest key. A nil slice means sealing is off.
func (c *Config) StoreKeyBytes() ([]byte, error) {
	if c.StoreKey == "" {
		return nil, nil
	}
	decoded, err := hex.DecodeString(c.StoreKey)
	if err != nil {
		return nil, fmt.Errorf("store_key must be a valid hex string: %w", err)
	}
	if len(decoded) != 32 {
		return nil, fmt.Errorf("store_key must be exactly 32 bytes (64 hex characters), got %d bytes", len(decoded))
	}
	return decoded, nil
}

// SaveToFile writes c as YAML with owner-only permissions.
func SaveToFile(c *Config, path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
