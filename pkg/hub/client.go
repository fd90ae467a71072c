package hub

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	errs "ckpthub/pkg/errors"
	"ckpthub/pkg/logger"
	"ckpthub/pkg/ratelimit"
	"ckpthub/pkg/retry"
)

// UserAgent is sent with every request
const UserAgent = "ckpthub/1.0"

// maxErrorBody bounds how much of an error response is read
const maxErrorBody = 4 << 10

type authMode int

const (
	authBearer authMode = iota
	authBasic
	authNone
)

// Options configures a Client
type Options struct {
	Endpoint string
	Token    string
	// Timeout bounds each HTTP request. Zero means no timeout.
	Timeout time.Duration
	// MaxRetries is the number of retries after the first attempt of an
	// idempotent request. Commits are never retried.
	MaxRetries int
	// Backoff overrides the per-error-kind backoff used between retries
	Backoff    retry.BackoffStrategy
	Limiter    ratelimit.Limiter
	Logger     logger.Logger
	HTTPClient *http.Client
}

// Client talks to a model hub over its HTTP API
type Client struct {
	httpClient *http.Client
	endpoint   string
	token      string
	logger     logger.Logger
	limiter    ratelimit.Limiter
	maxRetries int
	backoff    retry.BackoffStrategy
}

// NewClient creates a new hub client
func NewClient(opts Options) *Client {
	endpoint := strings.TrimRight(opts.Endpoint, "/")
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	log := opts.Logger
	if log == nil {
		log = logger.GetLogger()
	}

	maxRetries := opts.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	return &Client{
		httpClient: httpClient,
		endpoint:   endpoint,
		token:      opts.Token,
		logger:     log.WithField("component", "hub"),
		limiter:    opts.Limiter,
		maxRetries: maxRetries,
		backoff:    opts.Backoff,
	}
}

// Endpoint returns the base URL the client talks to
func (c *Client) Endpoint() string {
	return c.endpoint
}

// retryConfig builds a fresh retry configuration for one logical call
func (c *Client) retryConfig() *retry.Config {
	backoff := c.backoff
	if backoff == nil {
		backoff = retry.NewErrorTypeBackoff()
	}
	return &retry.Config{
		MaxAttempts: c.maxRetries + 1,
		Backoff:     backoff,
		RetryIf:     retry.DefaultRetryIf,
		Logger:      c.logger,
	}
}

// newRequest creates an HTTP request with the common headers set
func (c *Client) newRequest(ctx context.Context, method, url string, body io.Reader, auth authMode) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, errs.New(errs.ErrorTypeBadRequest, 0, "failed to create request: %v", err)
	}

	req.Header.Set("User-Agent", UserAgent)
	if c.token != "" {
		switch auth {
		case authBearer:
			req.Header.Set("Authorization", "Bearer "+c.token)
		case authBasic:
			req.SetBasicAuth("USER", c.token)
		}
	}
	return req, nil
}

// doRequest sends req once, paced by the limiter, and returns the body and
// headers of a successful response.
func (c *Client) doRequest(req *http.Request) ([]byte, http.Header, error) {
	ctx := req.Context()
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, nil, err
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": time.Since(start),
		})
		return nil, nil, errs.New(errs.ErrorTypeNetwork, 0, "request failed: %v", err)
	}
	defer resp.Body.Close()

	logger.LogRequest(c.logger, req.Method, req.URL.String(), resp.StatusCode, time.Since(start))

	if err := c.checkResponseStatus(resp); err != nil {
		return nil, nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, errs.New(errs.ErrorTypeNetwork, resp.StatusCode, "failed to read response body: %v", err)
	}
	return body, resp.Header, nil
}

// checkResponseStatus turns a non-2xx response into a typed error carrying
// the server's message.
func (c *Client) checkResponseStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := resp.Header.Get("X-Error-Message")
	if msg == "" {
		var eb errorBody
		if json.Unmarshal(raw, &eb) == nil && eb.Error != "" {
			msg = eb.Error
		}
	}
	if msg == "" {
		msg = strings.TrimSpace(string(raw))
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	return errs.New(errs.TypeForStatus(resp.StatusCode), resp.StatusCode, "%s", msg)
}

// sendJSON sends in as a JSON body and decodes the response into out.
// It does not retry.
func (c *Client) sendJSON(ctx context.Context, method, url string, in, out interface{}, contentType string, auth authMode) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return errs.New(errs.ErrorTypeBadRequest, 0, "failed to encode request: %v", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := c.newRequest(ctx, method, url, body, auth)
	if err != nil {
		return err
	}
	if contentType == "" {
		contentType = "application/json"
	}
	if in != nil {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", contentType)

	raw, _, err := c.doRequest(req)
	if err != nil {
		return err
	}
	return c.decode(url, raw, out)
}

// decode unmarshals a JSON response body into out
func (c *Client) decode(url string, raw []byte, out interface{}) error {
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}

	if err := json.Unmarshal(raw, out); err != nil {
		preview := string(raw)
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          url,
			"error":        err.Error(),
			"body_preview": preview,
		})
		return errs.New(errs.ErrorTypeParsing, 0, "failed to parse JSON: %v", err)
	}
	return nil
}

// callJSON is sendJSON with retries for idempotent calls
func (c *Client) callJSON(ctx context.Context, method, url string, in, out interface{}, contentType string, auth authMode) error {
	return retry.Do(ctx, func() error {
		return c.sendJSON(ctx, method, url, in, out, contentType, auth)
	}, c.retryConfig())
}
