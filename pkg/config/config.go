package config

import "time"

// AppConfig holds the global application configuration
type AppConfig struct {
	StorefrontBaseURL string `yaml:"storefront_base_url,omitempty"` // Root used to resolve relative app links
	UserAgent         string `yaml:"user_agent,omitempty"`

	// Retry policy for review-page fetches. MaxRetries counts retries after
	// the initial attempt; nil means unset, so an explicit 0 disables retries
	MaxRetries        *int          `yaml:"max_retries,omitempty"`
	InitialRetryDelay time.Duration `yaml:"initial_retry_delay,omitempty"`
	MaxRetryDelay     time.Duration `yaml:"max_retry_delay,omitempty"`
	RetryStatuses     []int         `yaml:"retry_statuses,omitempty"` // HTTP statuses worth retrying

	// Pacing delay between consecutive page fetches for one app
	MinPageDelay time.Duration `yaml:"min_page_delay,omitempty"`
	MaxPageDelay time.Duration `yaml:"max_page_delay,omitempty"`

	RespectRobots bool   `yaml:"respect_robots,omitempty"` // Consult robots.txt before paging an app
	OutputDir     string `yaml:"output_dir,omitempty"`     // Where the CSV export lands

	HTTPClientSettings HTTPClientConfig `yaml:"http_client_settings,omitempty"`
}

// HTTPClientConfig holds settings for the shared HTTP client
type HTTPClientConfig struct {
	Timeout             time.Duration `yaml:"timeout,omitempty"`                 // Overall request timeout
	MaxIdleConns        int           `yaml:"max_idle_conns,omitempty"`          // Max total idle connections
	MaxIdleConnsPerHost int           `yaml:"max_idle_conns_per_host,omitempty"` // Max idle connections per host
	IdleConnTimeout     time.Duration `yaml:"idle_conn_timeout,omitempty"`       // Timeout for idle connections
	TLSHandshakeTimeout time.Duration `yaml:"tls_handshake_timeout,omitempty"`   // Timeout for TLS handshake
	DialerTimeout       time.Duration `yaml:"dialer_timeout,omitempty"`          // Connection dial timeout
	DialerKeepAlive     time.Duration `yaml:"dialer_keep_alive,omitempty"`       // TCP keep-alive interval
}

// Default creates an AppConfig with every field at its validated default
func Default() *AppConfig {
	cfg := &AppConfig{}
	cfg.Validate() // Defaults applied in place; zero config produces no fatal error
	return cfg
}
