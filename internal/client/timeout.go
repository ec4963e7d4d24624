package client

import (
	"sync"
	"time"
)

// TimeoutSettings resolves the timeout of one wait.
//
// An explicit per-call override always wins, including an override of zero.
// Zero, whether configured or overridden, means the wait has no deadline.
type TimeoutSettings struct {
	mu             sync.RWMutex
	defaultTimeout time.Duration
}

// NewTimeoutSettings creates settings with the given default.
func NewTimeoutSettings(defaultTimeout time.Duration) *TimeoutSettings {
	if defaultTimeout < 0 {
		defaultTimeout = 0
	}
	return &TimeoutSettings{defaultTimeout: defaultTimeout}
}

// SetDefault replaces the default timeout.
func (t *TimeoutSettings) SetDefault(d time.Duration) {
	if d < 0 {
		d = 0
	}
	t.mu.Lock()
	t.defaultTimeout = d
	t.mu.Unlock()
}

// Default returns the configured default.
func (t *TimeoutSettings) Default() time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.defaultTimeout
}

// Timeout returns the effective timeout for a wait.
func (t *TimeoutSettings) Timeout(override *time.Duration) time.Duration {
	if override != nil {
		if *override < 0 {
			return 0
		}
		return *override
	}
	return t.Default()
}

// Duration returns a pointer to d, for per-call overrides.
func Duration(d time.Duration) *time.Duration {
	return &d
}
