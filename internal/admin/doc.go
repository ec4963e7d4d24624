// Package admin reads the target server's HTTP endpoints: health, live
// sessions and metrics. It never touches the WebSocket session channel.
package admin
