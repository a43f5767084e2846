package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/samber/oops"
	"golang.org/x/net/publicsuffix"

	"github.com/zhouzirui/faq-assistant/internal/config"
)

const maxResponseBytes = 4 << 20

// Options configures a Client.
type Options struct {
	BaseURL    string
	Production bool
	Timeout    time.Duration
	// Jar is shared between clients that must see the same login cookie.
	Jar    http.CookieJar
	Logger *slog.Logger
}

// Client issues JSON calls against one API base URL.
type Client struct {
	base       string
	production bool
	http       *http.Client
	logger     *slog.Logger
}

// New builds a client. A cookie jar is created when none is given.
func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.BaseURL) == "" {
		return nil, oops.In("api").Errorf("base url is required")
	}

	jar := opts.Jar
	if jar == nil {
		var err error
		jar, err = cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, oops.In("api").Wrapf(err, "create cookie jar")
		}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = config.DefaultTimeout
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		base:       strings.TrimRight(opts.BaseURL, "/"),
		production: opts.Production,
		http:       &http.Client{Timeout: timeout, Jar: jar},
		logger:     logger.With("component", "api"),
	}, nil
}

// NewFromConfig resolves the API base from the environment once and builds
// a client for it.
func NewFromConfig(cfg config.ClientConfig) (*Client, error) {
	client, err := New(Options{
		BaseURL:    config.ResolveAPIBase(cfg.Env),
		Production: cfg.Env.IsProduction(),
		Timeout:    cfg.Timeout,
	})
	if err != nil {
		return nil, err
	}

	client.logger.Info("API configuration", "environment", cfg.Env.Info())
	return client, nil
}

// WithTimeout returns a copy using timeout and the same cookie jar.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	clone := *c
	clone.http = &http.Client{Timeout: timeout, Jar: c.http.Jar, Transport: c.http.Transport}
	return &clone
}

// BaseURL returns the resolved API base.
func (c *Client) BaseURL() string { return c.base }

// Timeout returns the per-call timeout.
func (c *Client) Timeout() time.Duration { return c.http.Timeout }

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &Error{Op: op, Kind: KindClient, Err: oops.In("api").With("op", op).Wrapf(err, "encode request")}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return &Error{Op: op, Kind: KindClient, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.production {
		req.Header.Set("X-Requested-With", "XMLHttpRequest")
	}

	c.logger.Debug("API request", "method", method, "url", req.URL.String())

	resp, err := c.http.Do(req)
	if err != nil {
		apiErr := transportError(op, err)
		c.logger.Error("Network error - no response received", "op", op, "url", req.URL.String(), "kind", apiErr.Kind, "err", err)
		return apiErr
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		apiErr := transportError(op, err)
		c.logger.Error("Failed to read response body", "op", op, "err", err)
		return apiErr
	}

	c.logger.Debug("API response", "status", resp.StatusCode, "url", req.URL.String())

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := statusError(op, resp.StatusCode, errorMessage(raw))
		if apiErr.Kind == KindUnauthorized {
			c.logger.Info("401 Unauthorized - user needs to login", "op", op)
		} else {
			c.logger.Error("API error", "op", op, "status", resp.StatusCode, "message", apiErr.Message)
		}
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{
			Op:   op,
			Kind: KindDecode,
			Err:  oops.In("api").With("op", op).With("status", resp.StatusCode).Wrapf(err, "decode response"),
		}
	}
	return nil
}

func errorMessage(raw []byte) string {
	var body errorBody
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Error != "" {
			return body.Error
		}
		if body.Message != "" {
			return body.Message
		}
	}
	text := strings.TrimSpace(string(raw))
	if len(text) > 200 {
		text = text[:200]
	}
	return text
}
