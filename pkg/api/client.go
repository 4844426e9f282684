package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrymomot/caronakit/pkg/logger"
	"github.com/dmitrymomot/caronakit/pkg/metrics"
)

const (
	defaultUserAgent = "caronakit/1.0"
	maxBodySize      = 1 << 20
	maxErrorBody     = 200
)

// Client talks to the carona REST backend. It is safe for concurrent use.
type Client struct {
	base       *url.URL
	token      string
	timeout    time.Duration
	maxRetries int
	retryDelay time.Duration
	userAgent  string

	http          *http.Client
	logger        *slog.Logger
	metrics       *metrics.Collectors
	breaker       *Breaker
	customBreaker bool
	now           func() time.Time
}

// New creates a client for cfg.BaseURL.
func New(cfg Config, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, errors.Join(ErrInvalidURL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" || base.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, cfg.BaseURL)
	}

	c := &Client{
		base:       base,
		token:      cfg.Token,
		timeout:    cfg.Timeout,
		maxRetries: max(cfg.MaxRetries, 0),
		retryDelay: cfg.RetryDelay,
		userAgent:  defaultUserAgent,
		http: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger: slog.Default(),
		now:    time.Now,
	}
	if c.timeout <= 0 {
		c.timeout = DefaultConfig().Timeout
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(logger.Component("api"))
	if !c.customBreaker {
		c.breaker = NewBreaker(cfg.BreakerFailures, 2, cfg.BreakerRecovery, c.breakerChanged)
	}
	return c, nil
}

// BreakerState reports the circuit breaker state.
func (c *Client) BreakerState() BreakerState {
	return c.breaker.State()
}

func (c *Client) breakerChanged(s BreakerState) {
	c.metrics.SetCircuitOpen(s == BreakerOpen)
	c.logger.LogAttrs(context.Background(), slog.LevelWarn, "api circuit breaker changed",
		logger.State(s.String()),
	)
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.base
	u.Path = c.base.Path + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// do runs one logical call with retries. op names the call in logs and
// metrics. 4xx responses do not count against the breaker.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values) ([]byte, error) {
	start := time.Now()
	if !c.breaker.Allow() {
		c.metrics.ObserveAPI(op, metrics.APIRejected, 0)
		return nil, ErrCircuitOpen
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			t := time.NewTimer(retryDelay(c.retryDelay, attempt))
			select {
			case <-ctx.Done():
				t.Stop()
				c.metrics.ObserveAPI(op, metrics.APIFailure, time.Since(start))
				return nil, errors.Join(ErrRequestFailed, lastErr, ctx.Err())
			case <-t.C:
			}
		}

		body, status, err := c.attempt(ctx, method, path, query)
		if err == nil {
			c.breaker.Success()
			c.metrics.ObserveAPI(op, metrics.APISuccess, time.Since(start))
			return body, nil
		}
		lastErr = err

		if !retryable(status) || ctx.Err() != nil {
			break
		}
		c.logger.LogAttrs(ctx, slog.LevelDebug, "retrying api call",
			slog.String("operation", op),
			slog.Int("attempt", attempt+1),
			logger.Error(err),
		)
	}

	switch status := StatusCode(lastErr); {
	case ctx.Err() != nil:
	case status >= 400 && status < 500:
		c.breaker.Success()
	default:
		c.breaker.Failure()
	}
	c.metrics.ObserveAPI(op, metrics.APIFailure, time.Since(start))
	return nil, lastErr
}

func (c *Client) attempt(ctx context.Context, method, path string, query url.Values) ([]byte, int, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, method, c.endpoint(path, query), nil)
	if err != nil {
		return nil, 0, errors.Join(ErrRequestFailed, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %s %s: %w", ErrRequestFailed, method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: read body: %w", ErrRequestFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.ReplaceAll(string(bytes.TrimSpace(body)), "\n", " ")
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody] + "..."
		}
		return nil, resp.StatusCode, &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       msg,
		}
	}
	return body, resp.StatusCode, nil
}

// decodeAny decodes body keeping numbers as json.Number.
func decodeAny(body []byte) (any, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, errors.Join(ErrDecode, err)
	}
	return v, nil
}
