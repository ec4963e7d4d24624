package transport

import (
	"context"
	"errors"

	"github.com/GriffinCanCode/AgentOS/electron/internal/protocol"
)

// ErrClosed is returned once a transport has been closed.
var ErrClosed = errors.New("transport closed")

// Transport moves messages in both directions.
type Transport interface {
	Send(ctx context.Context, msg *protocol.Message) error
	Receive() (*protocol.Message, error)
	Close() error
}
