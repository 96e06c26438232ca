package coupon

import "time"

// Config represents the configuration for the coupon client
type Config struct {
	// BaseURL is the scheme and host of the coupon endpoint
	BaseURL string

	// Path is appended to BaseURL, "/api/apply-coupon" when empty
	Path string

	// Timeout bounds one round trip, 10s when zero
	Timeout time.Duration
}

const (
	defaultPath    = "/api/apply-coupon"
	defaultTimeout = 10 * time.Second
)

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrInvalidConfig
	}
	if c.Timeout < 0 {
		return ErrInvalidConfig
	}
	return nil
}
