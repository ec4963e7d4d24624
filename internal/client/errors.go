package client

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrTimeout matches every *TimeoutError.
	ErrTimeout = errors.New("timeout")
	// ErrTargetClosed aborts a wait or call because the application closed.
	ErrTargetClosed = errors.New("electron application closed")
	// ErrDisposed is returned by calls on objects whose session ended.
	ErrDisposed = errors.New("object has been disposed")
	// ErrConnectionClosed fails calls still in flight when the transport ends.
	ErrConnectionClosed = errors.New("connection closed")
	// ErrWaiterDisposed settles a wait that was disposed before resolving.
	ErrWaiterDisposed = errors.New("waiter disposed")
	// ErrUnknownObject is returned when a payload references an unregistered GUID.
	ErrUnknownObject = errors.New("unknown remote object")
)

// RemoteCallError reports a call the target rejected, or one the channel
// could not deliver.
type RemoteCallError struct {
	Type    string
	Method  string
	Name    string
	Message string
	Stack   string

	cause error
}

func (e *RemoteCallError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s.%s: %s: %s", e.Type, e.Method, e.Name, e.Message)
	}
	return fmt.Sprintf("%s.%s: %s", e.Type, e.Method, e.Message)
}

// Unwrap returns the transport error, if any.
func (e *RemoteCallError) Unwrap() error {
	return e.cause
}

// TimeoutError reports an event wait that exceeded its deadline.
type TimeoutError struct {
	Event   string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout %s exceeded while waiting for event %q", e.Timeout, e.Event)
}

// Is makes errors.Is(err, ErrTimeout) hold.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// SerializationError reports a value that cannot cross the process boundary.
type SerializationError struct {
	Path   string
	Reason string
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("value at %s is not serializable: %s", e.Path, e.Reason)
}
