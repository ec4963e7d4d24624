package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"

	"github.com/GriffinCanCode/AgentOS/electron/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/AgentOS/electron/internal/target"
)

// Config configures a Client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	RetryCount int
	RetryWait  time.Duration
}

// DefaultConfig returns settings for a local target.
func DefaultConfig() Config {
	return Config{
		BaseURL:    "http://127.0.0.1:9333",
		Timeout:    5 * time.Second,
		RetryCount: 2,
		RetryWait:  200 * time.Millisecond,
	}
}

// Client queries one target server.
type Client struct {
	resty *resty.Client
}

type sessionsResponse struct {
	Sessions []target.SessionInfo `json:"sessions"`
}

// New creates a client for cfg.BaseURL.
func New(cfg Config) *Client {
	r := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(cfg.RetryWait).
		SetHeader("User-Agent", "electronctl/1.0").
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal)
	return &Client{resty: r}
}

func (c *Client) request(ctx context.Context) *resty.Request {
	req := c.resty.R().SetContext(ctx)
	if traceID := tracing.GetTraceID(ctx); traceID != "" {
		req.SetHeader(tracing.TraceHeader, string(traceID))
	}
	return req
}

// Health returns nil when the target reports ok.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.request(ctx).Get("/healthz")
	if err != nil {
		return fmt.Errorf("health: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("health: %s", resp.Status())
	}
	return nil
}

// Sessions lists the controllers connected to the target.
func (c *Client) Sessions(ctx context.Context) ([]target.SessionInfo, error) {
	var out sessionsResponse
	resp, err := c.request(ctx).SetResult(&out).Get("/sessions")
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("list sessions: %s", resp.Status())
	}
	return out.Sessions, nil
}

// Metrics returns the Prometheus text exposition.
func (c *Client) Metrics(ctx context.Context) (string, error) {
	resp, err := c.request(ctx).Get("/metrics")
	if err != nil {
		return "", fmt.Errorf("metrics: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("metrics: %s", resp.Status())
	}
	return resp.String(), nil
}
