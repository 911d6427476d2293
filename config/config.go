package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"intent-swap/pkg/wallet"
)

// Config holds the application configuration
type Config struct {
	SolveDelay   time.Duration
	ExecuteDelay time.Duration
	ConnectDelay time.Duration
	WalletFile   string
	LogLevel     string
	LogFormat    string
	Server       ServerConfig
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Port        int
	Environment string
	RateLimit   RateLimitConfig
}

// RateLimitConfig allows Requests per Per for each client IP
type RateLimitConfig struct {
	Enabled  bool
	Requests int
	Per      time.Duration
}

var globalConfig *Config

// Load reads configuration from environment variables and config file
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".intent-swap")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME")
	v.AddConfigPath(".")

	// Set default values
	v.SetDefault("solve_delay", "1500ms")
	v.SetDefault("execute_delay", "2000ms")
	v.SetDefault("connect_delay", "1500ms")
	v.SetDefault("wallet_file", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.rate_limit.enabled", true)
	v.SetDefault("server.rate_limit.requests", 20)
	v.SetDefault("server.rate_limit.per", "1s")

	// Read from environment variables, e.g. INTENT_SWAP_SERVER_PORT
	v.SetEnvPrefix("INTENT_SWAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		SolveDelay:   v.GetDuration("solve_delay"),
		ExecuteDelay: v.GetDuration("execute_delay"),
		ConnectDelay: v.GetDuration("connect_delay"),
		WalletFile:   v.GetString("wallet_file"),
		LogLevel:     v.GetString("log_level"),
		LogFormat:    v.GetString("log_format"),
		Server: ServerConfig{
			Port:        v.GetInt("server.port"),
			Environment: v.GetString("server.environment"),
			RateLimit: RateLimitConfig{
				Enabled:  v.GetBool("server.rate_limit.enabled"),
				Requests: v.GetInt("server.rate_limit.requests"),
				Per:      v.GetDuration("server.rate_limit.per"),
			},
		},
	}

	if cfg.WalletFile == "" {
		path, err := wallet.DefaultStoragePath()
		if err != nil {
			return nil, err
		}
		cfg.WalletFile = path
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	globalConfig = cfg
	return cfg, nil
}

// Validate checks the loaded values
func (c *Config) Validate() error {
	if c.SolveDelay < 0 || c.ExecuteDelay < 0 || c.ConnectDelay < 0 {
		return fmt.Errorf("simulated delays must not be negative")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if c.Server.RateLimit.Enabled {
		if c.Server.RateLimit.Requests <= 0 {
			return fmt.Errorf("rate limit requests must be greater than 0")
		}
		if c.Server.RateLimit.Per <= 0 {
			return fmt.Errorf("rate limit period must be greater than 0")
		}
	}
	return nil
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Get returns the global configuration
func Get() *Config {
	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
			os.Exit(1)
		}
		return cfg
	}
	return globalConfig
}

// Set updates the global configuration
func Set(cfg *Config) {
	globalConfig = cfg
}
