// Package http is the transport used by the validator. It issues GET
// requests against a base URL and retries while the server rate limits.
package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fivetwenty-io/optimade-validator/internal/constants"
	"github.com/fivetwenty-io/optimade-validator/pkg/optimade"
	"github.com/hashicorp/go-retryablehttp"
)

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	URL        string
}

// Client performs requests against a single base URL. It remembers the URL
// of the last request it issued and is not safe for concurrent use.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	retryClient *retryablehttp.Client
	logger      Logger
	debug       bool
	userAgent   string
	maxAttempts int
	retryWait   time.Duration
	timeout     time.Duration
	lastRequest string
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used for rate-limit notices and debug output.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug enables request/response logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithTimeout bounds every attempt. Zero disables the timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithRetryConfig sets the total number of attempts made while the server
// answers 429 and the fixed wait between them.
func WithRetryConfig(maxAttempts int, wait time.Duration) Option {
	return func(c *Client) {
		if maxAttempts > 0 {
			c.maxAttempts = maxAttempts
		}

		if wait >= 0 {
			c.retryWait = wait
		}
	}
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a client for baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	client := &Client{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		userAgent:   constants.UserAgentPrefix + "dev",
		maxAttempts: constants.DefaultMaxAttempts,
		retryWait:   constants.DefaultRetryWait,
		timeout:     constants.DefaultHTTPTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: client.timeout}
	}

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = client.httpClient
	retryClient.Logger = nil
	// RetryMax counts retries, not attempts.
	retryClient.RetryMax = client.maxAttempts - 1
	retryClient.RetryWaitMin = client.retryWait
	retryClient.RetryWaitMax = client.retryWait
	retryClient.CheckRetry = client.checkRetry
	retryClient.Backoff = client.backoff
	retryClient.ErrorHandler = client.handleGiveUp
	client.retryClient = retryClient

	return client
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// LastRequestURL returns the URL of the most recent request, or "" if no
// request was issued yet.
func (c *Client) LastRequestURL() string {
	return c.lastRequest
}

// URL builds the fully qualified URL of path.
func (c *Client) URL(path string) string {
	return c.baseURL + "/" + strings.TrimPrefix(path, "/")
}

// Get requests path relative to the base URL. Every status other than 429
// is returned unmodified with a nil error; interpreting it is the caller's
// job. A request that cannot be made at all yields *optimade.ResponseError.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	url := c.URL(path)
	c.lastRequest = url

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method": http.MethodGet,
			"url":    url,
		})
	}

	resp, err := c.retryClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if errors.Is(err, optimade.ErrRetriesExhausted) {
			return nil, err
		}

		return nil, &optimade.ResponseError{Endpoint: path, Message: "Request failed", Cause: err}
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &optimade.ResponseError{
			Endpoint:   path,
			StatusCode: resp.StatusCode,
			Message:    "Reading response body failed",
			Cause:      err,
		}
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"url":         url,
			"status_code": resp.StatusCode,
			"bytes":       len(body),
		})
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
		URL:        url,
	}, nil
}

// checkRetry retries on 429 only. Transport errors are not retried.
func (c *Client) checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	if err != nil || resp == nil {
		return false, err
	}

	return resp.StatusCode == constants.HTTPStatusTooManyRequests, nil
}

// handleGiveUp is called by retryablehttp once no further attempt will be
// made and the last attempt did not succeed.
func (c *Client) handleGiveUp(resp *http.Response, err error, numTries int) (*http.Response, error) {
	if err != nil {
		if resp != nil {
			_ = resp.Body.Close()
		}

		return nil, err
	}

	if resp != nil && resp.StatusCode == constants.HTTPStatusTooManyRequests {
		_ = resp.Body.Close()

		return nil, fmt.Errorf("%w (%d attempts)", optimade.ErrRetriesExhausted, numTries)
	}

	return resp, nil
}

// backoff waits a constant minWait. retryablehttp only asks for a wait when
// another attempt follows, so the notice is never logged after the last one.
func (c *Client) backoff(minWait, _ time.Duration, _ int, resp *http.Response) time.Duration {
	if c.logger != nil {
		fields := map[string]interface{}{}
		if resp != nil && resp.Request != nil {
			fields["url"] = resp.Request.URL.String()
		}

		c.logger.Info(fmt.Sprintf("Hit rate limit, sleeping for %s...", minWait), fields)
	}

	return minWait
}
