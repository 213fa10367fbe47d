package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"
)

// Retry and backoff constants.
const (
	maxRetries     = 5
	baseBackoff    = 1 * time.Second
	maxBackoff     = 60 * time.Second
	backoffFactor  = 2.0
	jitterFraction = 0.25
	userAgent      = "idroplink-go/0.1"
)

// Client is an HTTP client for the idrop.link backend API.
// It handles request construction, auth header injection, retry with
// exponential backoff, and error classification. Tokens are passed per
// call; the client itself holds no auth state.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger

	// sleepFunc is called to wait between retries. Defaults to timeSleep.
	// Tests override this to avoid real delays.
	sleepFunc func(ctx context.Context, d time.Duration) error
}

// Option configures a Client.
type Option func(*Client)

// WithSleepFunc overrides the wait between retries. Tests use this to
// avoid real delays.
func WithSleepFunc(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) {
		c.sleepFunc = fn
	}
}

// NewClient creates an API client.
// baseURL is typically "http://www.idrop.link/api/v1".
func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	c := &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
		sleepFunc:  timeSleep,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// retryableMethod reports whether a request may be replayed. POSTs create
// server-side state; replaying one after a lost response could register a
// duplicate account or drop, so they are sent exactly once.
func retryableMethod(method string) bool {
	return method != http.MethodPost
}

// do executes a request against the API with retry on transport errors and
// retryable HTTP statuses for idempotent methods; POSTs are never replayed.
// body is a full byte slice (not a reader) so each retry attempt can replay
// it. token is sent raw in the Authorization header when non-empty; the
// backend uses no "Bearer " prefix. On non-2xx the response body is
// consumed and returned as an *Error carrying the backend's "message"
// field. The caller owns the response body on success.
func (c *Client) do(
	ctx context.Context, method, path, token, contentType string, body []byte,
) (*http.Response, error) {
	url := c.baseURL + path

	var attempt int
	for {
		resp, err := c.doOnce(ctx, method, url, token, contentType, body)
		if err != nil {
			// Context cancellation is not retryable.
			if ctx.Err() != nil {
				return nil, fmt.Errorf("api: request canceled: %w", ctx.Err())
			}

			if retryableMethod(method) && attempt < maxRetries {
				backoff := c.calcBackoff(attempt)
				c.logger.Warn("retrying after network error",
					slog.String("method", method),
					slog.String("path", path),
					slog.Int("attempt", attempt+1),
					slog.Duration("backoff", backoff),
					slog.String("error", err.Error()),
				)

				if sleepErr := c.sleepFunc(ctx, backoff); sleepErr != nil {
					return nil, fmt.Errorf("api: request canceled: %w", sleepErr)
				}

				attempt++

				continue
			}

			return nil, fmt.Errorf("%w: %s %s failed after %d attempts: %v",
				ErrTransport, method, path, attempt+1, err)
		}

		// 2xx — success.
		if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
			c.logger.Debug("request succeeded",
				slog.String("method", method),
				slog.String("path", path),
				slog.Int("status", resp.StatusCode),
			)

			return resp, nil
		}

		errBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		if readErr != nil {
			errBody = nil
		}

		if retryableMethod(method) && isRetryable(resp.StatusCode) && attempt < maxRetries {
			backoff := c.retryBackoff(resp, attempt)
			c.logger.Warn("retrying after HTTP error",
				slog.String("method", method),
				slog.String("path", path),
				slog.Int("status", resp.StatusCode),
				slog.Int("attempt", attempt+1),
				slog.Duration("backoff", backoff),
			)

			if err := c.sleepFunc(ctx, backoff); err != nil {
				return nil, fmt.Errorf("api: request canceled: %w", err)
			}

			attempt++

			continue
		}

		apiErr := &Error{
			StatusCode: resp.StatusCode,
			Message:    extractMessage(errBody),
			Err:        classifyStatus(resp.StatusCode),
		}

		if attempt > 0 {
			c.logger.Error("request failed after retries",
				slog.String("method", method),
				slog.String("path", path),
				slog.Int("status", resp.StatusCode),
				slog.Int("attempts", attempt+1),
			)
		}

		return nil, apiErr
	}
}

// doJSON executes a request whose body (if any) is JSON-encoded from v,
// then decodes the 2xx response body into out (when out is non-nil).
func (c *Client) doJSON(ctx context.Context, method, path, token string, v, out any) error {
	var (
		body        []byte
		contentType string
		err         error
	)

	if v != nil {
		body, err = json.Marshal(v)
		if err != nil {
			return fmt.Errorf("api: encoding request body: %w", err)
		}

		contentType = "application/json"
	}

	resp, err := c.do(ctx, method, path, token, contentType, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		// Drain body to reuse connection.
		_, _ = io.Copy(io.Discard, resp.Body) //nolint:errcheck // best effort
		return nil
	}

	if decErr := json.NewDecoder(resp.Body).Decode(out); decErr != nil {
		return fmt.Errorf("%w: decoding %s %s response: %v", ErrMalformedResponse, method, path, decErr)
	}

	return nil
}

// doOnce executes a single HTTP request (no retry).
func (c *Client) doOnce(
	ctx context.Context, method, url, token, contentType string, body []byte,
) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	if token != "" {
		req.Header.Set("Authorization", token)
	}

	req.Header.Set("User-Agent", userAgent)

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	return c.httpClient.Do(req)
}

// extractMessage pulls the "message" field out of an error response body.
// Returns "" when the body is not JSON or carries no message.
func extractMessage(body []byte) string {
	var parsed struct {
		Message string `json:"message"`
	}

	if err := json.Unmarshal(body, &parsed); err != nil {
		return ""
	}

	return parsed.Message
}

// retryBackoff returns the backoff duration for a retryable response.
// For 429 responses with a Retry-After header, that value is used.
func (c *Client) retryBackoff(resp *http.Response, attempt int) time.Duration {
	if resp.StatusCode == http.StatusTooManyRequests {
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if seconds, err := strconv.Atoi(ra); err == nil && seconds > 0 {
				return time.Duration(seconds) * time.Second
			}
		}
	}

	return c.calcBackoff(attempt)
}

// calcBackoff computes exponential backoff with ±25% jitter.
func (c *Client) calcBackoff(attempt int) time.Duration {
	backoff := float64(baseBackoff) * math.Pow(backoffFactor, float64(attempt))
	if backoff > float64(maxBackoff) {
		backoff = float64(maxBackoff)
	}

	jitter := backoff * jitterFraction * (rand.Float64()*2 - 1) //nolint:gosec // jitter does not need crypto rand
	backoff += jitter

	return time.Duration(backoff)
}

// timeSleep waits for the given duration or until the context is canceled.
// It is the default sleepFunc for Client.
func timeSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
