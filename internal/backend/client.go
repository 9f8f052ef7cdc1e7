// Package backend talks to the storefront's persistence API over JSON/HTTP.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var (
	ErrNotFound    = errors.New("backend: not found")
	ErrUnavailable = errors.New("backend: unavailable")
)

const maxBodyBytes = 4 << 20

// APIError is a non-success answer from the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend: status %d: %s", e.Status, e.Message)
}

type Config struct {
	BaseURL string
	Timeout time.Duration
	// MaxFailures consecutive transport or 5xx failures open the breaker.
	MaxFailures uint32
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
}

type Client struct {
	baseURL string
	http    *http.Client
	cb      *gobreaker.CircuitBreaker[response]
	log     zerolog.Logger
}

type response struct {
	status int
	body   []byte
}

// serverError makes the breaker count a 5xx answer as a failure while the
// caller still gets to read the body.
type serverError struct {
	resp response
}

func (e *serverError) Error() string {
	return fmt.Sprintf("backend returned %d", e.resp.status)
}

func NewClient(cfg Config, log zerolog.Logger) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	if cfg.OpenTimeout == 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	log = log.With().Str("component", "backend").Logger()

	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		log: log,
	}
	maxFailures := cfg.MaxFailures
	c.cb = gobreaker.NewCircuitBreaker[response](gobreaker.Settings{
		Name:        "backend",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})
	return c
}

// BreakerState exposes the breaker for health reporting.
func (c *Client) BreakerState() gobreaker.State {
	return c.cb.State()
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (response, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return response{}, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
	}
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	resp, err := c.cb.Execute(func() (response, error) {
		var rd io.Reader
		if payload != nil {
			rd = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, target, rd)
		if err != nil {
			return response{}, err
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		res, err := c.http.Do(req)
		if err != nil {
			return response{}, err
		}
		defer res.Body.Close()
		data, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
		if err != nil {
			return response{}, err
		}
		r := response{status: res.StatusCode, body: data}
		if res.StatusCode >= http.StatusInternalServerError {
			return r, &serverError{resp: r}
		}
		return r, nil
	})

	var se *serverError
	switch {
	case errors.As(err, &se):
		c.log.Warn().Str("method", method).Str("path", path).Int("status", se.resp.status).Msg("backend server error")
		return se.resp, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return response{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	case err != nil:
		return response{}, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

// decode unmarshals a response body. Empty bodies leave v untouched.
func decode(r response, v any) error {
	if len(bytes.TrimSpace(r.body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.body, v); err != nil {
		return fmt.Errorf("decode backend response: %w", err)
	}
	return nil
}

type messageBody struct {
	Message string `json:"message"`
}

func apiError(r response) error {
	var m messageBody
	_ = decode(r, &m)
	if r.status == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, m.Message)
	}
	if m.Message == "" {
		m.Message = http.StatusText(r.status)
	}
	return &APIError{Status: r.status, Message: m.Message}
}
