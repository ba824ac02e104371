package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Env is the environment-supplied part of the configuration.
type Env struct {
	DSN         string `mapstructure:"REFLOAD_DSN"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	RedisURL    string `mapstructure:"REDIS_URL"`
	LogFormat   string `mapstructure:"REFLOAD_LOG_FORMAT"`
	LogLevel    string `mapstructure:"REFLOAD_LOG_LEVEL"`
	HTTPAddr    string `mapstructure:"REFLOAD_HTTP_ADDR"`
	ConfigPath  string `mapstructure:"REFLOAD_CONFIG"`
}

// LoadEnv reads the environment (and a .env file when present).
func LoadEnv() (*Env, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("REFLOAD_LOG_FORMAT", "text")
	v.SetDefault("REFLOAD_LOG_LEVEL", "info")
	v.SetDefault("REFLOAD_HTTP_ADDR", ":8080")

	for _, key := range []string{
		"REFLOAD_DSN",
		"DATABASE_URL",
		"REDIS_URL",
		"REFLOAD_LOG_FORMAT",
		"REFLOAD_LOG_LEVEL",
		"REFLOAD_HTTP_ADDR",
		"REFLOAD_CONFIG",
	} {
		_ = v.BindEnv(key)
	}

	// .env is optional
	_ = v.ReadInConfig()

	env := &Env{}
	if err := v.Unmarshal(env); err != nil {
		return nil, fmt.Errorf("unmarshal env: %w", err)
	}
	return env, nil
}

// Apply copies environment values into c where c has no value yet, so
// flags take precedence.
func (e *Env) Apply(c *Config) {
	if c.DSN == "" {
		c.DSN = e.DSN
	}
	if c.DSN == "" {
		c.DSN = e.DatabaseURL
	}
	if c.RedisURL == "" {
		c.RedisURL = e.RedisURL
	}
	if c.LogFormat == "" {
		c.LogFormat = e.LogFormat
	}
	if c.LogLevel == "" {
		c.LogLevel = e.LogLevel
	}
	if c.HTTPAddr == "" {
		c.HTTPAddr = e.HTTPAddr
	}
	if c.ConfigPath == "" {
		c.ConfigPath = e.ConfigPath
	}
}
