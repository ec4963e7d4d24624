package sandbox

import (
	"errors"
	"fmt"
	"time"

	"github.com/dop251/goja"

	"github.com/GriffinCanCode/AgentOS/electron/internal/protocol"
)

var (
	ErrClosed         = errors.New("sandbox runtime is closed")
	ErrPendingPromise = errors.New("promise did not settle")
	ErrNotFunction    = errors.New("expression is not a function")
)

// Config defines sandbox configuration
type Config struct {
	Timeout       time.Duration // Execution timeout, zero disables it
	EnableConsole bool          // Capture console.log/warn/error
	MaxCallStack  int           // Maximum call stack depth
}

// DefaultConfig returns the configuration used by the target.
func DefaultConfig() Config {
	return Config{
		Timeout:       5 * time.Second,
		EnableConsole: true,
		MaxCallStack:  1024,
	}
}

// Request is one evaluation.
type Request struct {
	Expression string
	IsFunction bool
	// Receiver names a bound value passed as the first parameter.
	Receiver string
	// This is passed as the first parameter when Receiver is empty.
	This goja.Value
	// Arg is passed as the second parameter of a function expression.
	Arg protocol.SerializedArgument
	// Handles resolves handle references in Arg.
	Handles []goja.Value
}

// LogEntry represents console output
type LogEntry struct {
	Level   string    // log, warn, error, info
	Message string    // Log message
	Time    time.Time // Timestamp
}

// ScriptError is an exception thrown by evaluated code.
type ScriptError struct {
	Name    string
	Message string
	Stack   string
}

func (e *ScriptError) Error() string {
	if e.Name == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Name, e.Message)
}
