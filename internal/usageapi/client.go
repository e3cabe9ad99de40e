// Package usageapi is a read-only client for the Claude OAuth usage and
// profile endpoints.
package usageapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/janekbaraniewski/tokencat/internal/version"
)

const (
	DefaultBaseURL = "https://api.anthropic.com"
	usagePath      = "/api/oauth/usage"
	profilePath    = "/api/oauth/profile"

	betaHeader     = "anthropic-beta"
	betaOAuthValue = "oauth-2025-04-20"

	defaultRequestTimeout = 10 * time.Second
	maxBodyBytes          = 1 << 20
)

type Options struct {
	BaseURL       string
	ClientVersion string
	HTTPClient    *http.Client
	Logger        *zap.Logger
}

// Client holds no per-request state and is safe for concurrent use.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
	logger    *zap.Logger
}

func New(opts Options) *Client {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: defaultRequestTimeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:   base,
		userAgent: version.UserAgent(opts.ClientVersion),
		http:      hc,
		logger:    logger,
	}
}

func (c *Client) FetchUsage(ctx context.Context, token string) (*UsagePayload, error) {
	var usage UsagePayload
	if err := c.get(ctx, usagePath, token, &usage); err != nil {
		return nil, err
	}
	return &usage, nil
}

func (c *Client) FetchProfile(ctx context.Context, token string) (*ProfilePayload, error) {
	var profile ProfilePayload
	if err := c.get(ctx, profilePath, token, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *Client) get(ctx context.Context, path, token string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return &Error{Kind: KindNetwork, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(betaHeader, betaOAuthValue)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("usage api request failed", zap.String("path", path), zap.Error(err))
		return &Error{Kind: KindNetwork, Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug("usage api response",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return &Error{Kind: KindUnauthorized, StatusCode: resp.StatusCode}
	case http.StatusForbidden:
		return &Error{Kind: KindForbidden, StatusCode: resp.StatusCode}
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Debug("unexpected status body", zap.String("path", path), zap.ByteString("body", body))
		return &Error{Kind: KindUnexpectedStatus, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &Error{Kind: KindNetwork, Err: fmt.Errorf("reading response: %w", err)}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &Error{Kind: KindDecoding, Err: fmt.Errorf("parsing %s response: %w", path, err)}
	}
	return nil
}

// IsCanceled reports whether err comes from the caller's own context
// rather than from the transport.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}
