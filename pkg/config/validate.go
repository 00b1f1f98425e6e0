package config

import (
	"fmt"
	"net/url"
	"time"

	"review-scraper/pkg/utils"
)

// Default retryable statuses: rate limiting plus the transient 5xx family
var defaultRetryStatuses = []int{429, 500, 502, 503, 504}

// Validate checks AppConfig fields and applies sensible defaults.
// Returns collected warnings and any fatal error.
// Modifies receiver in place to apply defaults.
func (c *AppConfig) Validate() (warnings []string, err error) {
	// StorefrontBaseURL
	if c.StorefrontBaseURL == "" {
		c.StorefrontBaseURL = "https://apps.shopify.com"
	} else {
		parsed, parseErr := url.ParseRequestURI(c.StorefrontBaseURL)
		if parseErr != nil || parsed.Host == "" {
			return warnings, fmt.Errorf("%w: storefront_base_url %q is not an absolute URL",
				utils.ErrConfigValidation, c.StorefrontBaseURL)
		}
		// Trailing slash would produce double slashes when joining paths
		if c.StorefrontBaseURL[len(c.StorefrontBaseURL)-1] == '/' {
			c.StorefrontBaseURL = c.StorefrontBaseURL[:len(c.StorefrontBaseURL)-1]
		}
	}

	// UserAgent
	if c.UserAgent == "" {
		c.UserAgent = "review-scraper/1.0"
	}

	// MaxRetries: 4 retries after the initial attempt = 5 attempts total.
	// An explicit 0 disables retries; only the unset (nil) field defaults
	if c.MaxRetries == nil {
		defaultRetries := 4
		c.MaxRetries = &defaultRetries
	} else if *c.MaxRetries < 0 {
		warnings = append(warnings, "max_retries cannot be negative, setting to 0")
		*c.MaxRetries = 0
	}

	// Retry delays (only if retries enabled)
	if *c.MaxRetries > 0 {
		if c.InitialRetryDelay <= 0 {
			c.InitialRetryDelay = 1 * time.Second
		}
		if c.MaxRetryDelay <= 0 {
			c.MaxRetryDelay = 30 * time.Second
		}
	}

	// InitialRetryDelay > MaxRetryDelay check
	if c.InitialRetryDelay > c.MaxRetryDelay && c.MaxRetryDelay > 0 {
		warnings = append(warnings, fmt.Sprintf(
			"initial_retry_delay (%v) > max_retry_delay (%v), using max_retry_delay for initial",
			c.InitialRetryDelay, c.MaxRetryDelay))
		c.InitialRetryDelay = c.MaxRetryDelay
	}

	// RetryStatuses
	if len(c.RetryStatuses) == 0 {
		c.RetryStatuses = append([]int(nil), defaultRetryStatuses...)
	}
	for _, status := range c.RetryStatuses {
		if status < 100 || status > 599 {
			return warnings, fmt.Errorf("%w: retry_statuses contains invalid HTTP status %d",
				utils.ErrConfigValidation, status)
		}
	}

	// Pacing delay bounds
	if c.MinPageDelay < 0 {
		warnings = append(warnings, "min_page_delay cannot be negative, setting to 0")
		c.MinPageDelay = 0
	}
	if c.MinPageDelay == 0 && c.MaxPageDelay == 0 {
		c.MinPageDelay = 1200 * time.Millisecond
		c.MaxPageDelay = 3 * time.Second
	}
	if c.MaxPageDelay < c.MinPageDelay {
		warnings = append(warnings, fmt.Sprintf(
			"max_page_delay (%v) < min_page_delay (%v), using min_page_delay for both",
			c.MaxPageDelay, c.MinPageDelay))
		c.MaxPageDelay = c.MinPageDelay
	}

	// OutputDir
	if c.OutputDir == "" {
		c.OutputDir = "."
	}

	// HTTPClientSettings defaults
	c.validateHTTPClientSettings()

	return warnings, nil
}

// validateHTTPClientSettings applies defaults for the shared HTTP client
func (c *AppConfig) validateHTTPClientSettings() {
	s := &c.HTTPClientSettings
	if s.Timeout <= 0 {
		s.Timeout = 30 * time.Second
	}
	if s.MaxIdleConns <= 0 {
		s.MaxIdleConns = 20
	}
	if s.MaxIdleConnsPerHost <= 0 {
		s.MaxIdleConnsPerHost = 4
	}
	if s.IdleConnTimeout <= 0 {
		s.IdleConnTimeout = 90 * time.Second
	}
	if s.TLSHandshakeTimeout <= 0 {
		s.TLSHandshakeTimeout = 10 * time.Second
	}
	if s.DialerTimeout <= 0 {
		s.DialerTimeout = 15 * time.Second
	}
	if s.DialerKeepAlive <= 0 {
		s.DialerKeepAlive = 30 * time.Second
	}
}
