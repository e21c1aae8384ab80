package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds process configuration, sourced from the environment
type Config struct {
	Env              string
	Port             string
	DatabaseURL      string
	JWTSecret        string
	CORSOrigins      string
	AllowAnonymousWS bool
}

// Load reads configuration from the environment with sane defaults.
// DATABASE_URL and JWT_SECRET are required.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("ENV", "development")
	v.SetDefault("PORT", "8080")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")

	c := &Config{
		Env:         v.GetString("ENV"),
		Port:        v.GetString("PORT"),
		DatabaseURL: v.GetString("DATABASE_URL"),
		JWTSecret:   v.GetString("JWT_SECRET"),
		CORSOrigins: v.GetString("CORS_ORIGINS"),
	}

	// Anonymous socket admission is a policy switch: a dev/demo affordance,
	// off in production unless explicitly enabled.
	if v.IsSet("ALLOW_ANONYMOUS_WS") {
		c.AllowAnonymousWS = v.GetBool("ALLOW_ANONYMOUS_WS")
	} else {
		c.AllowAnonymousWS = c.Env != "production"
	}

	if c.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}
	if c.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is not set")
	}

	return c, nil
}

// IsDevelopment reports whether the process runs with the dev profile
func (c *Config) IsDevelopment() bool {
	return c.Env != "production"
}
