/*
Package target implements a simulated Electron target: the remote side of
the controller protocol.

A Session serves one controller over any transport. It owns the object
tree, pushes __create__ and __dispose__ notifications as objects come and
go, and emits the window, page and close events a real application would.
Each launched application gets its own sandbox runtime acting as the main
process scripting context, with an electron module exposing app and
BrowserWindow.

Server exposes sessions over WebSocket with gin:

	GET /ws       protocol endpoint, one session per connection
	GET /healthz  readiness check
	GET /metrics  Prometheus metrics

Sessions also expose hooks (OpenWindow, CloseApplication) that simulate
events originating in the application, for tests and demos.
*/
package target
