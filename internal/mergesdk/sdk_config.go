package mergesdk

import (
	"fmt"
	"time"

	"github.com/mergebox/mergebox/internal/utils"
)

const (
	DefaultBaseURL = "http://127.0.0.1:5000"
)

// Config is the configuration for the SDK
type Config struct {
	BaseURL string        // BaseURL is required
	Timeout time.Duration // Timeout is optional, zero means no client side timeout
	Debug   bool          // Debug dumps requests and responses to stdout
}

func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrNoServerURL
	}

	if err := utils.ValidateURL(c.BaseURL); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidServerURL, err)
	}

	if c.Timeout < 0 {
		return fmt.Errorf("sdk: timeout must not be negative")
	}

	c.BaseURL = utils.NormalizeURL(c.BaseURL)
	return nil
}
