// Package remote discovers refs on an HTTP remote and fetches the objects
// they reach. It only supplies verified objects and ref hashes; applying
// them to a repository is the caller's job.
package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// UserAgent is sent with every request unless overridden.
const UserAgent = "minigit/0.1"

// Response limits per endpoint type.
const (
	responseLimitRefs   = 8 << 20  // 8MB
	responseLimitObject = 32 << 20 // 32MB
)

// ClientOptions configures the HTTP client.
type ClientOptions struct {
	Timeout     time.Duration // HTTP client timeout (default 30s)
	MaxAttempts int           // retry attempts (default 3)
	UserAgent   string
	HTTPClient  *http.Client // replaces the default client when set
}

// Client talks to HTTP remotes.
type Client struct {
	httpClient  *http.Client
	userAgent   string
	token       string
	maxAttempts int
	logger      *slog.Logger
}

// NewClient creates a client. Zero-value or negative fields in opts
// receive defaults. A bearer token is read from MINIGIT_TOKEN; otherwise
// URL userinfo is sent as basic auth.
func NewClient(opts ClientOptions) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.UserAgent == "" {
		opts.UserAgent = UserAgent
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{
		httpClient:  hc,
		userAgent:   opts.UserAgent,
		token:       strings.TrimSpace(os.Getenv("MINIGIT_TOKEN")),
		maxAttempts: opts.MaxAttempts,
		logger:      slog.New(slog.DiscardHandler),
	}
}

// SetLogger attaches a logger for request tracing.
func (c *Client) SetLogger(logger *slog.Logger) {
	if logger != nil {
		c.logger = logger
	}
}

// DiscoverRefs fetches and parses <remoteURL>/info/refs.
func (c *Client) DiscoverRefs(ctx context.Context, remoteURL string) (*Advertisement, error) {
	base, err := normalizeURL(remoteURL)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"info/refs?service=git-upload-pack", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Git-Protocol", "version=2")
	req.Header.Set("Accept-Encoding", "zstd, identity")

	body, err := c.get(req, responseLimitRefs)
	if err != nil {
		return nil, fmt.Errorf("discover refs: %w", err)
	}
	adv, err := ParseAdvertisement(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("discover refs from %s: %w", remoteURL, err)
	}
	c.logger.Debug("discovered refs", "url", remoteURL, "refs", len(adv.Refs))
	return adv, nil
}

// get performs req with retries and returns the (decoded) body of a 2xx
// response.
func (c *Client) get(req *http.Request, maxBytes int64) ([]byte, error) {
	c.applyAuth(req)
	c.logger.Debug("remote request", "method", req.Method, "url", redact(req.URL))
	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &StatusError{Code: resp.StatusCode, Method: req.Method, Path: req.URL.Path, Message: msg}
	}
	if isZstdEncoded(resp.Header.Get("Content-Encoding")) {
		body, err = decompressZstd(body)
		if err != nil {
			return nil, fmt.Errorf("decompress response: %w", err)
		}
	}
	return body, nil
}

// retryBackoff is the pause before the second attempt; it doubles after
// each further one.
var retryBackoff = time.Second

// do sends a bodiless request up to maxAttempts times. Transport errors,
// 429 and 5xx are retried; the last failing response is returned as-is so
// get can turn it into a StatusError.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	wait := retryBackoff
	var lastErr error
	for attempt := 1; ; attempt++ {
		resp, err := c.httpClient.Do(req)
		retryable := err != nil || resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		if !retryable || attempt >= c.maxAttempts {
			if err != nil {
				return nil, err
			}
			return resp, nil
		}
		if err != nil {
			lastErr = err
		} else {
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Debug("retrying remote request", "url", redact(req.URL), "attempt", attempt, "err", lastErr, "wait", wait)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		wait *= 2
	}
}

func (c *Client) applyAuth(req *http.Request) {
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
		return
	}
	if u := req.URL.User; u != nil {
		pass, _ := u.Password()
		req.SetBasicAuth(u.Username(), pass)
	}
}

// StatusError is a non-2xx response from the remote.
type StatusError struct {
	Code    int
	Method  string
	Path    string
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("remote request failed (%s %s): %d %s", e.Method, e.Path, e.Code, e.Message)
}

// normalizeURL checks that raw is an absolute http(s) URL and returns it
// with a trailing slash.
func normalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("remote URL is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse remote URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("remote URL %q: unsupported scheme %q", raw, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("remote URL %q must include a host", raw)
	}
	u.RawQuery, u.Fragment = "", ""
	s := u.String()
	if !strings.HasSuffix(s, "/") {
		s += "/"
	}
	return s, nil
}

func redact(u *url.URL) string {
	if u.User == nil {
		return u.String()
	}
	clean := *u
	clean.User = url.User("***")
	return clean.String()
}
