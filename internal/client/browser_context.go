package client

import (
	"context"
	"sync"

	"github.com/GriffinCanCode/AgentOS/electron/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/electron/internal/protocol"
)

// BrowserContext groups the windows of one application.
type BrowserContext struct {
	RemoteObject

	mu     sync.Mutex
	pages  []*Page
	closed bool
}

func newBrowserContext(c *Connection, parent *RemoteObject, guid string, iface *protocol.Interface, initializer map[string]interface{}) *BrowserContext {
	bc := &BrowserContext{}
	bc.init(c, bc, parent, protocol.TypeBrowserContext, guid, iface, initializer)

	bc.channel.On(protocol.EventPage, func(payload interface{}) {
		page, ok := pageFromPayload(payload)
		if !ok {
			bc.logger.Warn("push without a page", logging.Event(protocol.EventPage))
			return
		}
		bc.mu.Lock()
		bc.pages = append(bc.pages, page)
		bc.mu.Unlock()

		page.Once(protocol.EventClose, func(interface{}) {
			bc.removePage(page)
		})
		bc.Emit(protocol.EventPage, page)
	})
	bc.channel.On(protocol.EventClose, func(interface{}) {
		bc.markClosed()
	})
	bc.addDisposeHook(bc.markClosed)
	return bc
}

func (bc *BrowserContext) removePage(page *Page) {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	for i, p := range bc.pages {
		if p == page {
			bc.pages = append(bc.pages[:i:i], bc.pages[i+1:]...)
			return
		}
	}
}

func (bc *BrowserContext) markClosed() {
	bc.mu.Lock()
	if bc.closed {
		bc.mu.Unlock()
		return
	}
	bc.closed = true
	bc.mu.Unlock()
	bc.Emit(protocol.EventClose, bc)
}

// Pages returns the open windows of this context.
func (bc *BrowserContext) Pages() []*Page {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	out := make([]*Page, len(bc.pages))
	copy(out, bc.pages)
	return out
}

// Close closes every window of the context.
func (bc *BrowserContext) Close(ctx context.Context) error {
	bc.mu.Lock()
	closed := bc.closed
	bc.mu.Unlock()
	if closed {
		return nil
	}
	_, err := bc.Call(ctx, "close", nil)
	return err
}

// pageFromPayload extracts the "page" entry of a decoded push. The schema
// resolves any registered object, so the type is checked here.
func pageFromPayload(payload interface{}) (*Page, bool) {
	params, _ := payload.(map[string]interface{})
	page, ok := params["page"].(*Page)
	return page, ok && page != nil
}
