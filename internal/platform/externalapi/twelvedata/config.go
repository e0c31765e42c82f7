// Package twelvedata provides a client for the Twelve Data stock market API.
package twelvedata

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds configuration for the Twelve Data API client.
type Config struct {
	TwelveDataAPIKey string        `envconfig:"TWELVE_DATA_API_KEY"`
	BaseURL          string        `envconfig:"TWELVE_DATA_BASE_URL" default:"https://api.twelvedata.com"`
	Timeout          time.Duration `envconfig:"TWELVE_DATA_TIMEOUT" default:"10s"`
}

// LoadConfig loads Twelve Data configuration from environment variables.
// Malformed values fall back to the defaults.
func LoadConfig() Config {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{BaseURL: "https://api.twelvedata.com", Timeout: 10 * time.Second}
	}
	return cfg
}
