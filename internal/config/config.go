package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Config represents runtime configuration for both front ends.
type Config struct {
	BasicConfig BasicConfig               `json:"basic_config"`
	Databases   map[string]DatabaseConfig `json:"databases"`
	Providers   map[string]ProviderConfig `json:"providers"`
	Redis       RedisConfig               `json:"redis"`
}

type BasicConfig struct {
	APIAddress     string   `json:"api_address"`
	UIAddress      string   `json:"ui_address"`
	AllowedOrigins []string `json:"allowed_origins"`
	Provider       string   `json:"provider"`
	SessionTTL     int      `json:"session_ttl_minutes"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Username string `json:"username"`
	Password string `json:"password"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	DBName   string `json:"db_name"`
	Params   string `json:"params"`
}

type ProviderConfig struct {
	BaseURL string `json:"base_url"`
	Model   string `json:"model"`
	APIKey  string `json:"api_key"`
}

type RedisConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

const (
	DefaultAPIAddress = ":8000"
	DefaultUIAddress  = ":8090"
	DefaultProvider   = "gemini"
)

// Load reads configuration from the provided path (defaults to config.json).
// A missing file is not an error: the service then runs on defaults plus
// environment variables, which is enough for the single-credential setup.
func Load(path string) (*Config, error) {
	// Pick up a local .env first so key material can live outside the config file.
	_ = godotenv.Load()

	if path == "" {
		path = os.Getenv("MEETSCRIBE_CONFIG")
	}
	if path == "" {
		path = "config.json"
	}

	cfg := &Config{}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	file, err := os.Open(absPath)
	switch {
	case err == nil:
		defer file.Close()
		if err := json.NewDecoder(file).Decode(cfg); err != nil {
			return nil, fmt.Errorf("decode config %s: %w", absPath, err)
		}
	case os.IsNotExist(err):
		// run on defaults
	default:
		return nil, fmt.Errorf("open config %s: %w", absPath, err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.BasicConfig.APIAddress == "" {
		c.BasicConfig.APIAddress = DefaultAPIAddress
	}
	if c.BasicConfig.UIAddress == "" {
		c.BasicConfig.UIAddress = DefaultUIAddress
	}
	if c.BasicConfig.Provider == "" {
		c.BasicConfig.Provider = DefaultProvider
	}
	if len(c.BasicConfig.AllowedOrigins) == 0 {
		c.BasicConfig.AllowedOrigins = []string{
			"http://localhost:5173",
			"http://localhost:5174",
			"http://localhost:3000",
		}
	}
	if c.Databases == nil {
		c.Databases = map[string]DatabaseConfig{}
	}
	if _, ok := c.Databases["sqlite3"]; !ok {
		c.Databases["sqlite3"] = DatabaseConfig{DSN: "meetings.db"}
	}
	if c.Providers == nil {
		c.Providers = map[string]ProviderConfig{}
	}
}

// applyEnv lets the usual provider key variables override file values so a
// bare GEMINI_API_KEY in the environment is all a demo deployment needs.
func (c *Config) applyEnv() {
	for provider, envKey := range map[string]string{
		"gemini": "GEMINI_API_KEY",
		"openai": "OPENAI_API_KEY",
		"claude": "ANTHROPIC_API_KEY",
	} {
		if v := os.Getenv(envKey); v != "" {
			pc := c.Providers[provider]
			pc.APIKey = v
			c.Providers[provider] = pc
		}
	}
}

// DBType returns the configured database driver, defaulting to sqlite3.
func DBType() string {
	if t := os.Getenv("MEETSCRIBE_DB"); t != "" {
		return t
	}
	return "sqlite3"
}
