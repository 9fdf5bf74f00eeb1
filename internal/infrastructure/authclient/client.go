package authclient

import (
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

	"github.com/redeclipse/mastersession/internal/core/domain"
)

const (
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 1 << 20
)

// ErrMalformedResponse is returned when the server reply is not the expected
// JSON document.
var ErrMalformedResponse = errors.New("malformed response")

// Config captures the settings for talking to the master server.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// HTTPClient overrides the default client, mainly for tests.
	HTTPClient *http.Client
}

// Client implements ports.AuthClient over HTTP. Requests are form-encoded and
// replies are decoded whatever their status code, since the server reports
// error kinds in the body.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	log     zerolog.Logger
}

func New(cfg Config, log zerolog.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("parse base url: unsupported scheme %q", base.Scheme)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{baseURL: base, http: hc, log: log}, nil
}

// Session looks up the profile behind token.
func (c *Client) Session(ctx context.Context, token string) (*domain.AuthResponse, error) {
	var resp domain.AuthResponse
	if err := c.do(ctx, http.MethodGet, "/user", url.Values{"token": {token}}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Login(ctx context.Context, username, password string) (*domain.AuthResponse, error) {
	var resp domain.AuthResponse
	form := url.Values{"username": {username}, "password": {password}}
	if err := c.do(ctx, http.MethodPost, "/user/login", form, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Logout asks the server to invalidate token. The reply body is ignored.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/user/logout", url.Values{"token": {token}}, nil)
}

func (c *Client) Register(ctx context.Context, username, password, email string) (*domain.RegisterResponse, error) {
	var resp domain.RegisterResponse
	form := url.Values{"username": {username}, "password": {password}, "email": {email}}
	if err := c.do(ctx, http.MethodPost, "/user/register", form, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, form url.Values, out any) error {
	endpoint := c.baseURL.JoinPath(path)

	var body io.Reader
	if method == http.MethodGet {
		endpoint.RawQuery = form.Encode()
	} else {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", res.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("master server exchange")

	if out == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, maxBodyBytes))
		return nil
	}

	data, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%s %s: read body: %w", method, path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s %s: status %d: %w", method, path, res.StatusCode, ErrMalformedResponse)
	}
	return nil
}
