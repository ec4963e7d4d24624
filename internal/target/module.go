package target

import (
	"os"
	"runtime"

	"github.com/dop251/goja"
)

const simulatedVersion = "0.0.0-sim"

// electronModule builds the value passed to application-level functions.
// Callbacks run inside an evaluation, with the session lock already held.
func (s *Session) electronModule(app *application) func(vm *goja.Runtime) goja.Value {
	return func(vm *goja.Runtime) goja.Value {
		appObj := vm.NewObject()
		_ = appObj.Set("getName", func() string { return app.name })
		_ = appObj.Set("getVersion", func() string { return simulatedVersion })
		_ = appObj.Set("getAppPath", func() string { return app.cwd })
		_ = appObj.Set("isReady", func() bool { return true })
		_ = appObj.Set("quit", func() { app.quitting = true })

		describe := func(page *object) *goja.Object {
			w := vm.NewObject()
			_ = w.Set("id", page.window.id)
			_ = w.Set("title", page.window.title)
			_ = w.Set("url", page.window.url)
			_ = w.Set("getTitle", func() string { return page.window.title })
			_ = w.Set("setTitle", func(title string) { page.window.title = title })
			_ = w.Set("close", func() { s.closeWindow(page) })
			return w
		}

		browserWindow := vm.ToValue(func(call goja.ConstructorCall) *goja.Object {
			title, url := app.name, "about:blank"
			if opts, ok := call.Argument(0).(*goja.Object); ok {
				if v := opts.Get("title"); v != nil && !goja.IsUndefined(v) {
					title = v.String()
				}
				if v := opts.Get("url"); v != nil && !goja.IsUndefined(v) {
					url = v.String()
				}
			}
			page, err := s.openWindow(app, url, title)
			if err != nil {
				panic(vm.NewGoError(err))
			}
			return describe(page)
		}).(*goja.Object)

		_ = browserWindow.Set("getAllWindows", func() []interface{} {
			out := make([]interface{}, 0, len(app.windows))
			for _, page := range app.windows {
				out = append(out, describe(page))
			}
			return out
		})
		_ = browserWindow.Set("fromId", func(id int) goja.Value {
			page, err := app.findWindow(id)
			if err != nil {
				return goja.Null()
			}
			return describe(page)
		})

		module := vm.NewObject()
		_ = module.Set("app", appObj)
		_ = module.Set("BrowserWindow", browserWindow)
		return module
	}
}

// processModule exposes the launch parameters as the process global.
func processModule(app *application) func(vm *goja.Runtime) goja.Value {
	return func(vm *goja.Runtime) goja.Value {
		argv := append([]interface{}{app.executable}, toInterfaces(app.args)...)
		env := vm.NewObject()
		for k, v := range app.env {
			_ = env.Set(k, v)
		}

		process := vm.NewObject()
		_ = process.Set("argv", vm.NewArray(argv...))
		_ = process.Set("env", env)
		_ = process.Set("platform", runtime.GOOS)
		_ = process.Set("pid", os.Getpid())
		_ = process.Set("cwd", func() string { return app.cwd })
		return process
	}
}

func toInterfaces(in []string) []interface{} {
	out := make([]interface{}, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
