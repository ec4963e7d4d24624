package transport

import (
	"context"
	"sync"

	"github.com/GriffinCanCode/AgentOS/electron/internal/protocol"
)

const pipeBuffer = 64

// PipeEnd is one side of an in-memory transport pair.
type PipeEnd struct {
	in     <-chan []byte
	out    chan<- []byte
	closed chan struct{}
	once   *sync.Once
}

// Pipe returns two connected ends. Closing either end closes both.
func Pipe() (*PipeEnd, *PipeEnd) {
	ab := make(chan []byte, pipeBuffer)
	ba := make(chan []byte, pipeBuffer)
	closed := make(chan struct{})
	once := &sync.Once{}

	a := &PipeEnd{in: ba, out: ab, closed: closed, once: once}
	b := &PipeEnd{in: ab, out: ba, closed: closed, once: once}
	return a, b
}

// Send encodes msg and hands it to the other end.
func (p *PipeEnd) Send(ctx context.Context, msg *protocol.Message) error {
	data, err := protocol.EncodeMessage(msg)
	if err != nil {
		return err
	}

	select {
	case <-p.closed:
		return ErrClosed
	default:
	}

	select {
	case p.out <- data:
		return nil
	case <-p.closed:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Receive returns the next message. Messages already queued are delivered
// before ErrClosed.
func (p *PipeEnd) Receive() (*protocol.Message, error) {
	select {
	case data := <-p.in:
		return protocol.DecodeMessage(data)
	default:
	}

	select {
	case data := <-p.in:
		return protocol.DecodeMessage(data)
	case <-p.closed:
		return nil, ErrClosed
	}
}

// Close closes both ends.
func (p *PipeEnd) Close() error {
	p.once.Do(func() { close(p.closed) })
	return nil
}
