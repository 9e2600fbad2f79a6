// Package jira is a read-only client for the Jira Cloud REST API v3.
package jira

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

const (
	apiPath = "/rest/api/3/"

	// DefaultRetryMax gives five attempts in total.
	DefaultRetryMax = 4
	// DefaultRetryAfter is used when a 429 carries no usable Retry-After.
	DefaultRetryAfter = 10 * time.Second
	// DefaultRequestDelay is the pause before each comment fetch.
	DefaultRequestDelay = 100 * time.Millisecond
)

// Logger abstracts logging so callers can plug in logrus or anything else
// with the same methods.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Debugf(string, ...interface{}) {}

// Client issues authenticated GET requests with rate-limit handling.
type Client struct {
	cfg          Config
	http         *retryablehttp.Client
	log          Logger
	requestDelay time.Duration
}

type Option func(*Client)

// WithBackoff replaces the wait computation between 429 retries.
func WithBackoff(b retryablehttp.Backoff) Option {
	return func(c *Client) { c.http.Backoff = b }
}

// WithRetryMax sets how many retries follow the first attempt.
func WithRetryMax(n int) Option {
	return func(c *Client) { c.http.RetryMax = n }
}

// WithRequestDelay sets the pause before each per-ticket comment fetch.
func WithRequestDelay(d time.Duration) Option {
	return func(c *Client) { c.requestDelay = d }
}

// WithLogger routes client and retry logging to l.
func WithLogger(l Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
			c.http.Logger = leveledLogger{l}
		}
	}
}

// WithProxy sends every request through an HTTP proxy. TLS verification is
// disabled so intercepting proxies work.
func WithProxy(proxyURL *url.URL) Option {
	return func(c *Client) {
		if proxyURL == nil {
			return
		}
		c.http.HTTPClient.Transport = &http.Transport{
			Proxy:           http.ProxyURL(proxyURL),
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
}

// NewClient builds a client for cfg.
func NewClient(cfg Config, opts ...Option) *Client {
	rc := retryablehttp.NewClient()
	rc.Logger = leveledLogger{nopLogger{}}
	rc.RetryMax = DefaultRetryMax
	rc.CheckRetry = retryOnRateLimit
	rc.Backoff = RateLimitBackoff
	rc.ErrorHandler = rateLimitExhausted

	c := &Client{
		cfg:          cfg,
		http:         rc,
		log:          nopLogger{},
		requestDelay: DefaultRequestDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get fetches {BaseURL}/rest/api/3/{endpoint} and returns the body of a 2xx
// response. 401 and 403 fail at once; 429 is retried; anything else is an
// *APIError.
func (c *Client) Get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	u := c.cfg.BaseURL + apiPath + strings.TrimLeft(endpoint, "/")
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.cfg.Email, c.cfg.APIToken)
	req.Header.Set("Accept", "application/json")

	c.log.Debugf("GET %s", u)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response from %s: %w", u, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, &APIError{StatusCode: resp.StatusCode, URL: u, Err: ErrUnauthorized}
	case resp.StatusCode == http.StatusForbidden:
		return nil, &APIError{StatusCode: resp.StatusCode, URL: u, Err: ErrForbidden}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &APIError{StatusCode: resp.StatusCode, URL: u, Body: string(body)}
	}
	return body, nil
}

func retryOnRateLimit(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return false, err
	}
	return resp.StatusCode == http.StatusTooManyRequests, nil
}

// RateLimitBackoff waits for the larger of the server's Retry-After hint
// (10s when absent) and 2^attempt seconds.
func RateLimitBackoff(_, _ time.Duration, attemptNum int, resp *http.Response) time.Duration {
	suggested := DefaultRetryAfter
	if resp != nil {
		if s, err := strconv.Atoi(strings.TrimSpace(resp.Header.Get("Retry-After"))); err == nil && s >= 0 {
			suggested = time.Duration(s) * time.Second
		}
	}
	exp := time.Duration(math.Pow(2, float64(attemptNum))) * time.Second
	if exp > suggested {
		return exp
	}
	return suggested
}

// rateLimitExhausted runs when the retry loop gives up, either because every
// attempt was rate limited or because retryOnRateLimit returned an error.
func rateLimitExhausted(resp *http.Response, err error, numTries int) (*http.Response, error) {
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return nil, err
	}
	if resp == nil {
		return nil, fmt.Errorf("giving up after %d attempt(s)", numTries)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return nil, &APIError{
		StatusCode: resp.StatusCode,
		URL:        resp.Request.URL.String(),
		Body:       string(body),
		Err:        fmt.Errorf("%w after %d attempts", ErrRateLimited, numTries),
	}
}

// leveledLogger adapts Logger to retryablehttp.LeveledLogger.
type leveledLogger struct {
	l Logger
}

func (a leveledLogger) Error(msg string, kv ...interface{}) { a.l.Errorf("%s%s", msg, formatKV(kv)) }
func (a leveledLogger) Info(msg string, kv ...interface{})  { a.l.Debugf("%s%s", msg, formatKV(kv)) }
func (a leveledLogger) Debug(msg string, kv ...interface{}) { a.l.Debugf("%s%s", msg, formatKV(kv)) }
func (a leveledLogger) Warn(msg string, kv ...interface{})  { a.l.Warnf("%s%s", msg, formatKV(kv)) }

func formatKV(kv []interface{}) string {
	var b strings.Builder
	for i := 0; i+1 < len(kv); i += 2 {
		fmt.Fprintf(&b, " %v=%v", kv[i], kv[i+1])
	}
	return b.String()
}
