// Package transport carries protocol messages between a controller and a
// target.
//
// Three implementations share one contract (Send, Receive, Close):
//   - Pipe: an in-memory pair, used by tests and in-process targets
//   - Stream: 4-byte little-endian length prefix + JSON over any
//     io.ReadWriteCloser, e.g. the stdio pipes of a child process
//   - WebSocket: one JSON text frame per message over gorilla/websocket
//
// Receive must only be called from one goroutine. Send is safe for
// concurrent use.
package transport
