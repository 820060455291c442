package forumclient

import (
	"fmt"
	"net/url"
	"time"
)

// Config configures a forum API client
type Config struct {
	// BaseURL is the server root, e.g. http://localhost:8080. The /api/v1
	// prefix is added by the client.
	BaseURL string

	// Token is the bearer token sent on every request. Empty for anonymous reads.
	Token string

	// Timeout bounds each HTTP request. Zero means 30 seconds.
	Timeout time.Duration
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("%w: base URL is required", ErrInvalidConfig)
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Host == "" {
		return fmt.Errorf("%w: base URL %q is not absolute", ErrInvalidConfig, c.BaseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidConfig, u.Scheme)
	}
	return nil
}
