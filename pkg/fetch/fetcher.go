package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"review-scraper/pkg/config"
	"review-scraper/pkg/utils"
)

// RetryPolicy governs how the Fetcher retries transient failures. It is a
// value passed in at construction so tests can run with instant backoff and
// a fake status predicate.
type RetryPolicy struct {
	MaxRetries   int            // Retries after the initial attempt
	InitialDelay time.Duration  // First backoff delay; doubles each retry
	MaxDelay     time.Duration  // Backoff cap
	RetryStatus  func(int) bool // Reports whether an HTTP status is worth retrying
}

// PolicyFromConfig builds the retry policy the configuration describes
func PolicyFromConfig(cfg *config.AppConfig) RetryPolicy {
	retryable := make(map[int]bool, len(cfg.RetryStatuses))
	for _, status := range cfg.RetryStatuses {
		retryable[status] = true
	}
	maxRetries := 0
	if cfg.MaxRetries != nil {
		maxRetries = *cfg.MaxRetries
	}
	return RetryPolicy{
		MaxRetries:   maxRetries,
		InitialDelay: cfg.InitialRetryDelay,
		MaxDelay:     cfg.MaxRetryDelay,
		RetryStatus:  func(status int) bool { return retryable[status] },
	}
}

// idempotent reports whether a request method is safe to retry
func idempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// Fetcher handles making HTTP requests with configured retry logic, using an underlying http.Client
type Fetcher struct {
	client    *http.Client
	policy    RetryPolicy
	userAgent string
	log       *logrus.Logger
}

// NewFetcher creates a new Fetcher instance
func NewFetcher(client *http.Client, policy RetryPolicy, userAgent string, log *logrus.Logger) *Fetcher {
	return &Fetcher{
		client:    client,
		policy:    policy,
		userAgent: userAgent,
		log:       log,
	}
}

// Get fetches url and returns the response body bytes. It is the convenience
// wrapper the pager and robots checker use; retry handling lives in
// FetchWithRetry
func (f *Fetcher) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrRequestCreation, err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.FetchWithRetry(req, ctx)
	if err != nil {
		// 4xx responses come back alongside the error; nothing useful in the body here
		if resp != nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrResponseBodyRead, err)
	}
	return body, nil
}

// FetchWithRetry performs an HTTP request associated with the provided context.
// It implements a retry mechanism with exponential backoff and jitter for transient
// network errors and the policy's retryable HTTP status codes. Non-idempotent
// methods get a single attempt regardless of policy
func (f *Fetcher) FetchWithRetry(req *http.Request, ctx context.Context) (*http.Response, error) {
	var lastErr error              // Stores the error from the *last* failed attempt in the loop
	var currentResp *http.Response // Stores the response from the *current* attempt (potentially failed)

	reqLog := f.log.WithField("url", req.URL.String())

	maxRetries := f.policy.MaxRetries
	if !idempotent(req.Method) {
		maxRetries = 0
	}

	// Retry loop: Try up to maxRetries+1 times (initial attempt + retries)
	for attempt := 0; attempt <= maxRetries; attempt++ {

		// --- Context Check ---
		// Check if the context has been cancelled *before* making the attempt or sleeping
		select {
		case <-ctx.Done():
			reqLog.Warnf("Context cancelled before attempt %d: %v", attempt, ctx.Err())
			if lastErr != nil {
				return nil, fmt.Errorf("context cancelled (%v) during retry backoff after error: %w", ctx.Err(), lastErr)
			}
			return nil, fmt.Errorf("context cancelled before first attempt: %w", ctx.Err())
		default:
			// Context is still active, proceed with the attempt
		}

		// --- Exponential Backoff Delay ---
		// Apply delay only *before* retry attempts (not before the first attempt)
		if attempt > 0 {
			// Calculate delay: initial * 2^(attempt-1), capped by MaxDelay
			backoff := float64(f.policy.InitialDelay) * math.Pow(2, float64(attempt-1))
			delay := time.Duration(backoff)
			if delay <= 0 || delay > f.policy.MaxDelay {
				delay = f.policy.MaxDelay
			}

			// Add jitter: +/- 10% of the calculated delay to help avoid thundering herd
			var jitter time.Duration
			if delay > 0 {
				jitter = time.Duration(rand.Int63n(int64(delay)/5)) - (delay / 10)
			}
			finalDelay := delay + jitter
			if finalDelay < 0 {
				finalDelay = 0
			}

			reqLog.WithFields(logrus.Fields{"attempt": attempt, "max_retries": maxRetries, "delay": finalDelay}).Warn("Retrying request...")

			// Wait for the calculated delay, but respect context cancellation during the wait
			select {
			case <-time.After(finalDelay):
				// Sleep completed normally
			case <-ctx.Done():
				reqLog.Warnf("Context cancelled during retry sleep: %v", ctx.Err())
				if lastErr != nil {
					return nil, fmt.Errorf("context cancelled (%v) during retry delay after error: %w", ctx.Err(), lastErr)
				}
				return nil, fmt.Errorf("context cancelled during retry delay: %w", ctx.Err())
			}
		}

		// --- Perform HTTP Request ---
		reqWithCtx := req.WithContext(ctx)
		currentResp, lastErr = f.client.Do(reqWithCtx)

		// --- Handle Network-Level Errors ---
		// Errors occurring before getting an HTTP response (DNS, TCP, TLS errors etc.)
		if lastErr != nil {
			// Check specifically for context cancellation/timeout during the HTTP call itself
			if errors.Is(lastErr, context.Canceled) || errors.Is(lastErr, context.DeadlineExceeded) {
				reqLog.Warnf("Context cancelled/timed out during HTTP request execution: %v", lastErr)
				if currentResp != nil {
					io.Copy(io.Discard, currentResp.Body)
					currentResp.Body.Close()
				}
				// Do not retry context errors. Return the context error directly
				return nil, lastErr
			}

			// Log other network errors and proceed to retry
			reqLog.WithField("attempt", attempt).Errorf("Network error: %v", lastErr)
			if currentResp != nil {
				io.Copy(io.Discard, currentResp.Body)
				currentResp.Body.Close()
			}
			continue // Go to the next retry attempt for network errors
		}

		// --- Handle HTTP Status Codes ---
		statusCode := currentResp.StatusCode
		resLog := reqLog.WithFields(logrus.Fields{"status_code": statusCode, "status": currentResp.Status, "attempt": attempt})

		switch {
		case statusCode >= 200 && statusCode < 300:
			// Success (2xx)! Return the response immediately - Caller must close body
			resLog.Debug("Successfully fetched")
			return currentResp, nil

		case f.policy.RetryStatus != nil && f.policy.RetryStatus(statusCode):
			// Transient per policy (429 and the 5xx family by default)
			resLog.Warn("Retryable status, retrying...")
			if statusCode >= 500 {
				lastErr = fmt.Errorf("%w: status %d %s", utils.ErrServerHTTPError, statusCode, currentResp.Status)
			} else {
				lastErr = fmt.Errorf("%w: status %d %s", utils.ErrClientHTTPError, statusCode, currentResp.Status)
			}
			// Must drain and close the body before the next retry attempt
			io.Copy(io.Discard, currentResp.Body)
			currentResp.Body.Close()
			continue // Go to the next retry attempt

		case statusCode >= 400 && statusCode < 500:
			// Client errors outside the retry set are not retryable (e.g. 404, 403)
			resLog.Warn("Client error (4xx), not retrying")
			// Return the response object (caller might want to inspect headers/body)
			// *** Caller MUST close currentResp.Body in this case ***
			return currentResp, fmt.Errorf("%w: status %d %s", utils.ErrClientHTTPError, statusCode, currentResp.Status)

		case statusCode >= 500:
			// 5xx outside the retry set (e.g. 501 Not Implemented)
			resLog.Warn("Server error outside retry set, not retrying")
			return currentResp, fmt.Errorf("%w: status %d %s", utils.ErrServerHTTPError, statusCode, currentResp.Status)

		default:
			// Other non-2xx statuses (e.g. 3xx if redirects were disabled)
			resLog.Warnf("Non-retryable/unexpected status: %d", statusCode)
			// *** Caller MUST close currentResp.Body in this case ***
			return currentResp, fmt.Errorf("%w: status %d %s", utils.ErrOtherHTTPError, statusCode, currentResp.Status)
		}
	}

	// --- All Retries Failed ---
	reqLog.Errorf("All %d fetch attempts failed. Last error: %v", maxRetries+1, lastErr)
	if currentResp != nil {
		io.Copy(io.Discard, currentResp.Body)
		currentResp.Body.Close()
	}

	if lastErr != nil {
		if errors.Is(lastErr, context.Canceled) || errors.Is(lastErr, context.DeadlineExceeded) {
			return nil, lastErr // Return the context error directly
		}
		// Wrap the last HTTP/network error with the ErrRetryFailed sentinel
		return nil, fmt.Errorf("%w: %w", utils.ErrRetryFailed, lastErr)
	}

	// Theoretically unreachable if maxRetries >= 0
	return nil, utils.ErrRetryFailed
}
