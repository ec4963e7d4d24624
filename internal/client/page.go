package client

import (
	"context"
	"sync"

	"github.com/GriffinCanCode/AgentOS/electron/internal/protocol"
)

// Page is one window of the application.
type Page struct {
	RemoteObject

	mu     sync.Mutex
	closed bool
}

func newPage(c *Connection, parent *RemoteObject, guid string, iface *protocol.Interface, initializer map[string]interface{}) *Page {
	p := &Page{}
	p.init(c, p, parent, protocol.TypePage, guid, iface, initializer)

	p.channel.On(protocol.EventClose, func(interface{}) {
		p.markClosed()
	})
	p.addDisposeHook(p.markClosed)
	return p
}

func (p *Page) markClosed() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()
	p.Emit(protocol.EventClose, p)
}

// URL returns the URL the window was opened with.
func (p *Page) URL() string {
	return p.initString("url")
}

// IsClosed reports whether the window closed.
func (p *Page) IsClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Title returns the current window title.
func (p *Page) Title(ctx context.Context) (string, error) {
	res, err := p.Call(ctx, "title", nil)
	if err != nil {
		return "", err
	}
	return res["value"].(string), nil
}

// Close closes the window.
func (p *Page) Close(ctx context.Context) error {
	if p.IsClosed() {
		return nil
	}
	_, err := p.Call(ctx, "close", nil)
	return err
}
