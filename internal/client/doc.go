// Package client drives an out-of-process Electron target through local
// proxies of remote objects.
//
// A Connection owns the transport, a registry mapping GUIDs to proxies and a
// single dispatch goroutine. Every server push is handled on that goroutine in
// arrival order: __create__ builds a proxy under its parent, __dispose__ tears
// down a subtree, and any other push is decoded by the object's schema and fed
// to its listeners. Callers block only on their own response or Waiter.
//
// Object tree:
//
//	Root
//	└── Electron
//	    ├── BrowserContext
//	    │   └── Page (one per window)
//	    └── ElectronApplication
//	        └── JSHandle (evaluation results)
//
// Example Usage:
//
//	conn, err := client.Connect(ctx, tr, client.WithLogger(logger))
//	app, err := conn.Electron().Launch(ctx, "/opt/app/app")
//	win, err := app.FirstWindow(ctx)
//	title, err := win.Title(ctx)
//	v, err := app.Evaluate(ctx, "(app, n) => n * 2", 21)
//	err = app.Close(ctx)
package client
