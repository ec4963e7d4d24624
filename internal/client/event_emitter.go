package client

import "sync"

// ListenerID identifies one registration on an EventEmitter.
type ListenerID uint64

// Handler receives an event payload.
type Handler func(payload interface{})

// Emitter is the subscription half of an EventEmitter.
type Emitter interface {
	On(event string, handler Handler) ListenerID
	Off(event string, id ListenerID)
}

type listener struct {
	id      ListenerID
	handler Handler
	once    bool
}

// EventEmitter dispatches named events to handlers in registration order.
// Handlers run synchronously on the emitting goroutine, outside the lock.
type EventEmitter struct {
	mu        sync.Mutex
	nextID    ListenerID
	listeners map[string][]listener
}

// On registers handler for event.
func (e *EventEmitter) On(event string, handler Handler) ListenerID {
	return e.add(event, handler, false)
}

// Once registers handler for the next occurrence of event only.
func (e *EventEmitter) Once(event string, handler Handler) ListenerID {
	return e.add(event, handler, true)
}

func (e *EventEmitter) add(event string, handler Handler, once bool) ListenerID {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.listeners == nil {
		e.listeners = make(map[string][]listener)
	}
	e.nextID++
	e.listeners[event] = append(e.listeners[event], listener{id: e.nextID, handler: handler, once: once})
	return e.nextID
}

// Off removes one registration. Unknown ids are ignored.
func (e *EventEmitter) Off(event string, id ListenerID) {
	e.mu.Lock()
	defer e.mu.Unlock()

	list := e.listeners[event]
	for i, l := range list {
		if l.id == id {
			e.listeners[event] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(e.listeners[event]) == 0 {
		delete(e.listeners, event)
	}
}

// Emit invokes the handlers registered when Emit was called and reports
// whether there were any.
func (e *EventEmitter) Emit(event string, payload interface{}) bool {
	e.mu.Lock()
	list := e.listeners[event]
	snapshot := make([]listener, len(list))
	copy(snapshot, list)

	kept := list[:0:0]
	for _, l := range list {
		if !l.once {
			kept = append(kept, l)
		}
	}
	if len(kept) == 0 {
		delete(e.listeners, event)
	} else {
		e.listeners[event] = kept
	}
	e.mu.Unlock()

	for _, l := range snapshot {
		l.handler(payload)
	}
	return len(snapshot) > 0
}

// ListenerCount returns the number of handlers registered for event.
func (e *EventEmitter) ListenerCount(event string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.listeners[event])
}

// RemoveAllListeners drops every registration.
func (e *EventEmitter) RemoveAllListeners() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = nil
}
