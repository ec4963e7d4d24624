package transport

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/GriffinCanCode/AgentOS/electron/internal/protocol"
)

// MaxFrameSize bounds a single stream frame.
const MaxFrameSize = 64 << 20

// Stream frames messages over a byte stream.
type Stream struct {
	rwc io.ReadWriteCloser

	writeMu sync.Mutex
	header  [4]byte

	closeOnce sync.Once
	closeErr  error
}

// NewStream wraps rwc.
func NewStream(rwc io.ReadWriteCloser) *Stream {
	return &Stream{rwc: rwc}
}

// Send writes one frame. The context only guards the wait for the write lock.
func (s *Stream) Send(ctx context.Context, msg *protocol.Message) error {
	data, err := protocol.EncodeMessage(msg)
	if err != nil {
		return err
	}
	if len(data) > MaxFrameSize {
		return fmt.Errorf("frame of %d bytes exceeds %d", len(data), MaxFrameSize)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	binary.LittleEndian.PutUint32(s.header[:], uint32(len(data)))
	if _, err := s.rwc.Write(s.header[:]); err != nil {
		return s.wrap(err)
	}
	if _, err := s.rwc.Write(data); err != nil {
		return s.wrap(err)
	}
	return nil
}

// Receive reads one frame.
func (s *Stream) Receive() (*protocol.Message, error) {
	var header [4]byte
	if _, err := io.ReadFull(s.rwc, header[:]); err != nil {
		return nil, s.wrap(err)
	}
	size := binary.LittleEndian.Uint32(header[:])
	if size > MaxFrameSize {
		return nil, fmt.Errorf("frame of %d bytes exceeds %d", size, MaxFrameSize)
	}

	data := make([]byte, size)
	if _, err := io.ReadFull(s.rwc, data); err != nil {
		return nil, s.wrap(err)
	}
	return protocol.DecodeMessage(data)
}

// Close closes the underlying stream.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.rwc.Close()
	})
	return s.closeErr
}

func (s *Stream) wrap(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
		return fmt.Errorf("%w: %v", ErrClosed, err)
	}
	return err
}
