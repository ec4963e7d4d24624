package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

// ReadyOptions configures WaitReady.
type ReadyOptions struct {
	Attempts int
	MinWait  time.Duration
	MaxWait  time.Duration
	Logger   *zap.Logger
}

// WaitReady polls a target health endpoint until it answers 200 OK.
func WaitReady(ctx context.Context, healthURL string, opts ReadyOptions) error {
	client := retryablehttp.NewClient()
	client.RetryMax = opts.Attempts
	if client.RetryMax == 0 {
		client.RetryMax = 10
	}
	if opts.MinWait > 0 {
		client.RetryWaitMin = opts.MinWait
	} else {
		client.RetryWaitMin = 100 * time.Millisecond
	}
	if opts.MaxWait > 0 {
		client.RetryWaitMax = opts.MaxWait
	} else {
		client.RetryWaitMax = 2 * time.Second
	}
	if opts.Logger != nil {
		client.Logger = leveledLogger{opts.Logger.Sugar()}
	} else {
		client.Logger = nil
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, healthURL, nil)
	if err != nil {
		return fmt.Errorf("health request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("target not ready at %s: %w", healthURL, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("target not ready at %s: status %s", healthURL, resp.Status)
	}
	return nil
}

type leveledLogger struct {
	s *zap.SugaredLogger
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.s.Errorw(msg, kv...) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.s.Infow(msg, kv...) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.s.Warnw(msg, kv...) }
