// Package api is the REST client of the note-taker server. It implements
// workspace.Persistence on top of the /api/v1 resources.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"note-taker/internal/credentials"
	"note-taker/internal/workspace"

	"github.com/avast/retry-go"
	"resty.dev/v3"
)

// ErrUnauthorized is matched by errors for 401 responses.
var ErrUnauthorized = errors.New("unauthorized: sign in again")

// StatusError is a non-2xx response of the server.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("response error %d", e.Status)
	}
	return fmt.Sprintf("response error %d: %s", e.Status, e.Message)
}

// Is lets callers match the workspace taxonomy.
func (e *StatusError) Is(target error) bool {
	switch target {
	case workspace.ErrNotFound:
		return e.Status == http.StatusNotFound
	case workspace.ErrValidation:
		return e.Status == http.StatusBadRequest || e.Status == http.StatusUnprocessableEntity || e.Status == http.StatusConflict
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	}
	return false
}

// retryable reports whether the request may be sent again after e. A POST
// creates something server-side, so it is only resent when the rate limiter
// rejected it before any handler ran.
func (e *StatusError) retryable(method string) bool {
	switch e.Status {
	case http.StatusTooManyRequests:
		return true
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return method != http.MethodPost
	}
	return false
}

// Options configures a Client.
type Options struct {
	BaseURL       string
	Timeout       time.Duration
	RetryAttempts uint
	// RetryDelay is the base of the exponential backoff.
	RetryDelay  time.Duration
	Credentials credentials.Store
	Logger      *slog.Logger
}

// Client talks to the server on behalf of the signed-in user.
type Client struct {
	httpClient       *resty.Client
	creds            credentials.Store
	maxRetryAttempts uint
	retryDelay       time.Duration
	log              *slog.Logger
}

// New builds a Client; credentials may be nil for sign-in only use.
func New(opts Options) *Client {
	client := resty.New()
	client.SetBaseURL(opts.BaseURL)
	client.SetHeader("Content-Type", "application/json")
	client.SetHeader("Accept", "application/json")
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}

	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	delay := opts.RetryDelay
	if delay <= 0 {
		delay = 200 * time.Millisecond
	}

	return &Client{
		httpClient:       client,
		creds:            opts.Credentials,
		maxRetryAttempts: opts.RetryAttempts,
		retryDelay:       delay,
		log:              log,
	}
}

// Close releases idle connections.
func (c *Client) Close() error {
	return c.httpClient.Close()
}

type errorBody struct {
	Error string `json:"error"`
}

// do runs one request with retries. build returns a fresh request each attempt.
func (c *Client) do(ctx context.Context, method, path string, build func(r *resty.Request)) error {
	return retry.Do(
		func() error {
			err := c.once(ctx, method, path, build)
			if err == nil {
				return nil
			}
			var se *StatusError
			if errors.As(err, &se) && !se.retryable(method) {
				return retry.Unrecoverable(err)
			}
			if se == nil && method == http.MethodPost {
				// the server may have handled it before the connection broke
				return retry.Unrecoverable(err)
			}
			if ctx.Err() != nil {
				return retry.Unrecoverable(err)
			}
			return err
		},
		retry.Context(ctx),
		retry.Attempts(c.maxRetryAttempts+1),
		retry.Delay(c.retryDelay),
		retry.LastErrorOnly(true),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			return retry.BackOffDelay(n, err, config)
		}),
		retry.OnRetry(func(n uint, err error) {
			c.log.Debug("retrying request", "method", method, "path", path, "attempt", n+1, "error", err)
		}),
	)
}

func (c *Client) once(ctx context.Context, method, path string, build func(r *resty.Request)) error {
	req := c.httpClient.R().SetContext(ctx)
	if c.creds != nil {
		if cred, ok := c.creds.Current(); ok {
			req.SetAuthToken(cred.Token)
		}
	}
	if build != nil {
		build(req)
	}

	res, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if res.IsError() {
		var body errorBody
		_ = json.Unmarshal([]byte(res.String()), &body)
		return &StatusError{Status: res.StatusCode(), Message: body.Error}
	}
	return nil
}
