package utils

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// timeoutError mimics a net.Error timeout from the dialer
type timeoutError struct{}

func (timeoutError) Error() string   { return "dial tcp: i/o timed out" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

// retryWrap builds the exact error shape the fetcher produces when a request
// exhausts its retries
func retryWrap(last error) error {
	return fmt.Errorf("%w: %w", ErrRetryFailed, last)
}

func TestCategorizeError_RetryExhausted(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "server status exhausted",
			err:      retryWrap(fmt.Errorf("%w: status 503 503 Service Unavailable", ErrServerHTTPError)),
			expected: "RetryFailed_HTTPServer",
		},
		{
			name:     "rate limit exhausted",
			err:      retryWrap(fmt.Errorf("%w: status 429 429 Too Many Requests", ErrClientHTTPError)),
			expected: "RetryFailed_HTTPClient",
		},
		{
			name:     "dial timeout exhausted",
			err:      retryWrap(timeoutError{}),
			expected: "RetryFailed_NetworkTimeout",
		},
		{
			name:     "connection refused exhausted",
			err:      retryWrap(errors.New("dial tcp 127.0.0.1:443: connect: connection refused")),
			expected: "RetryFailed_ConnectionRefused",
		},
		{
			name:     "dns failure exhausted",
			err:      retryWrap(errors.New("dial tcp: lookup apps.example.com: no such host")),
			expected: "RetryFailed_DNSLookup",
		},
		{
			name:     "unrecognized cause exhausted",
			err:      retryWrap(errors.New("write: broken pipe")),
			expected: "RetryFailed_NetworkOther",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CategorizeError(tt.err))
		})
	}
}

func TestCategorizeError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"nil", nil, "None"},
		{"not found", fmt.Errorf("%w: status 404 404 Not Found", ErrClientHTTPError), "HTTP_404"},
		{"forbidden", fmt.Errorf("%w: status 403 403 Forbidden", ErrClientHTTPError), "HTTP_403"},
		{"generic client error", fmt.Errorf("%w: status 410 410 Gone", ErrClientHTTPError), "HTTP_4xx"},
		{"server error direct", fmt.Errorf("%w: status 501 501 Not Implemented", ErrServerHTTPError), "HTTP_5xx"},
		{"robots", ErrRobotsDisallowed, "Policy_Robots"},
		{"html parsing", fmt.Errorf("%w: HTML: unexpected EOF", ErrParsing), "Content_ParsingHTML"},
		{"date parsing", fmt.Errorf("%w: review date %q", ErrParsing, "yesterday"), "Content_ParsingDate"},
		{"locator", fmt.Errorf("%w: %q is not an absolute URL", ErrInvalidLocator, "x"), "Input_Locator"},
		{"window", fmt.Errorf("%w: from before until", ErrInvalidWindow), "Input_DateWindow"},
		{"context canceled", fmt.Errorf("fetch: %w", context.Canceled), "System_ContextCanceled"},
		{"unknown", errors.New("something else entirely"), "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CategorizeError(tt.err))
		})
	}
}
