package target

import (
	"errors"
	"fmt"
	"time"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/electron/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/electron/internal/protocol"
	"github.com/GriffinCanCode/AgentOS/electron/internal/sandbox"
)

var errTargetClosed = errors.New("target page, context or browser has been closed")

// call routes a decoded request. Called with mu held.
func (s *Session) call(obj *object, method string, params map[string]interface{}) (map[string]interface{}, error) {
	switch obj.typ {
	case protocol.TypeRoot:
		return s.initialize()
	case protocol.TypeElectron:
		return s.launch(params)
	}

	app := obj.app
	if app == nil || app.closed {
		return nil, errTargetClosed
	}

	result, err := s.callApplication(app, obj, method, params)
	// app.quit() only flags the request; the scripting context cannot be
	// closed while it is evaluating.
	if app.quitting {
		s.closeApplication(app)
	}
	return result, err
}

func (s *Session) callApplication(app *application, obj *object, method string, params map[string]interface{}) (map[string]interface{}, error) {
	switch obj.typ {
	case protocol.TypeElectronApplication:
		switch method {
		case "newBrowserWindow":
			return s.newBrowserWindow(app, params)
		case "evaluateExpression":
			return s.evaluateValue(app, sandbox.Request{Receiver: "electron"}, params)
		case "evaluateExpressionHandle":
			return s.evaluateHandle(app, sandbox.Request{Receiver: "electron"}, params)
		case "close":
			s.closeApplication(app)
			return nil, nil
		}
	case protocol.TypeBrowserContext:
		if method == "close" {
			s.closeApplication(app)
			return nil, nil
		}
	case protocol.TypePage:
		switch method {
		case "title":
			return map[string]interface{}{"value": obj.window.title}, nil
		case "close":
			s.closeWindow(obj)
			return nil, nil
		}
	case protocol.TypeJSHandle:
		switch method {
		case "evaluateExpression":
			defer s.refreshPreview(obj)
			return s.evaluateValue(app, sandbox.Request{This: obj.value}, params)
		case "evaluateExpressionHandle":
			defer s.refreshPreview(obj)
			return s.evaluateHandle(app, sandbox.Request{This: obj.value}, params)
		case "getProperty":
			v, err := app.runtime.Property(obj.value, params["name"].(string))
			if err != nil {
				return nil, err
			}
			handle, err := s.newHandle(app, v)
			if err != nil {
				return nil, err
			}
			return map[string]interface{}{"handle": handle}, nil
		case "jsonValue":
			value, err := app.runtime.Serialize(obj.value)
			if err != nil {
				return nil, err
			}
			return map[string]interface{}{"value": value}, nil
		case "dispose":
			s.dispose(obj)
			return nil, nil
		}
	}
	return nil, fmt.Errorf("%w: %s.%s", protocol.ErrUnknownMethod, obj.typ, method)
}

func (s *Session) initialize() (map[string]interface{}, error) {
	if s.electron == nil {
		electron, err := s.create(s.root, protocol.TypeElectron, nil, nil)
		if err != nil {
			return nil, err
		}
		s.electron = electron
	}
	return map[string]interface{}{"electron": s.electron}, nil
}

func (s *Session) launch(params map[string]interface{}) (map[string]interface{}, error) {
	executable := params["executablePath"].(string)
	if executable == "" {
		return nil, errors.New("executablePath must not be empty")
	}
	args, _ := params["args"].([]string)
	cwd, _ := params["cwd"].(string)
	env, _ := params["env"].(map[string]string)

	app := newApplication(executable, args, cwd, env)

	rt, err := sandbox.New(sandbox.Config{
		Timeout:       s.opts.ScriptTimeout,
		EnableConsole: true,
		MaxCallStack:  sandbox.DefaultConfig().MaxCallStack,
	})
	if err != nil {
		return nil, fmt.Errorf("start scripting context: %w", err)
	}
	if err := rt.Bind("electron", s.electronModule(app)); err != nil {
		return nil, err
	}
	if err := rt.Bind("process", processModule(app)); err != nil {
		return nil, err
	}
	app.runtime = rt

	context, err := s.create(s.electron, protocol.TypeBrowserContext, nil, app)
	if err != nil {
		return nil, err
	}
	appObj, err := s.create(s.electron, protocol.TypeElectronApplication, map[string]interface{}{"context": context}, app)
	if err != nil {
		return nil, err
	}
	app.context = context
	app.obj = appObj
	s.apps = append(s.apps, app)

	logger := s.logger.ForObject(appObj.typ, appObj.guid)
	if timeout, ok := params["timeout"].(float64); ok {
		logger = logger.With(zap.Duration("launch_timeout", time.Duration(timeout)*time.Millisecond))
	}
	logger.Info("application launched", zap.String("executable", executable), zap.Strings("args", args))

	if !s.opts.ManualWindows {
		app.windowTimer = time.AfterFunc(s.opts.WindowDelay, func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.closed || app.closed {
				return
			}
			if _, err := s.openWindow(app, app.mainURL(), app.name); err != nil {
				logger.Error("open first window", zap.Error(err))
			}
		})
	}
	return map[string]interface{}{"electronApplication": appObj}, nil
}

func (s *Session) newBrowserWindow(app *application, params map[string]interface{}) (map[string]interface{}, error) {
	title, url := app.name, "about:blank"

	options, err := app.runtime.Export(params["arg"].(protocol.SerializedArgument), nil)
	if err != nil {
		return nil, err
	}
	if m, ok := options.(map[string]interface{}); ok {
		if v, ok := m["title"].(string); ok {
			title = v
		}
		if v, ok := m["url"].(string); ok {
			url = v
		}
	}

	page, err := s.openWindow(app, url, title)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"page": page}, nil
}

// openWindow creates a page under the application's context and emits the
// context page event followed by the application window event.
func (s *Session) openWindow(app *application, url, title string) (*object, error) {
	page, err := s.create(app.context, protocol.TypePage, map[string]interface{}{"url": url, "title": title}, app)
	if err != nil {
		return nil, err
	}
	app.nextWindowID++
	page.window = &window{id: app.nextWindowID, url: url, title: title}
	app.windows = append(app.windows, page)

	s.emit(app.context, protocol.EventPage, map[string]interface{}{"page": page})
	s.emit(app.obj, protocol.EventWindow, map[string]interface{}{"page": page})
	return page, nil
}

func (s *Session) closeWindow(page *object) {
	if page.window == nil || page.window.closed {
		return
	}
	page.window.closed = true
	page.app.removeWindow(page)
	s.emit(page, protocol.EventClose, nil)
	s.dispose(page)
}

// closeApplication emits close for every window, the context and the
// application, then disposes the subtree.
func (s *Session) closeApplication(app *application) {
	if app.closed {
		return
	}
	app.closed = true
	if app.windowTimer != nil {
		app.windowTimer.Stop()
	}

	for _, page := range app.windows {
		page.window.closed = true
		s.emit(page, protocol.EventClose, nil)
	}
	app.windows = nil

	s.emit(app.context, protocol.EventClose, nil)
	s.emit(app.obj, protocol.EventClose, nil)
	s.dispose(app.obj)
	s.dispose(app.context)
	app.runtime.Close()

	s.logger.Info("application closed", logging.GUID(app.obj.guid))
}

func (s *Session) evaluate(app *application, req sandbox.Request, params map[string]interface{}) (goja.Value, error) {
	req.Expression = params["expression"].(string)
	req.IsFunction, _ = params["isFunction"].(bool)
	req.Arg = params["arg"].(protocol.SerializedArgument)

	handles, err := s.argumentHandles(app, req.Arg)
	if err != nil {
		return nil, err
	}
	req.Handles = handles

	start := time.Now()
	v, err := app.runtime.Evaluate(s.ctx, req)
	if s.metrics != nil {
		s.metrics.RecordScript(time.Since(start))
	}
	for _, entry := range app.runtime.DrainConsole() {
		s.logger.Debug("console", zap.String("level", entry.Level), zap.String("message", entry.Message))
	}
	return v, err
}

func (s *Session) evaluateValue(app *application, req sandbox.Request, params map[string]interface{}) (map[string]interface{}, error) {
	v, err := s.evaluate(app, req, params)
	if err != nil {
		return nil, err
	}
	value, err := app.runtime.Serialize(v)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"value": value}, nil
}

func (s *Session) evaluateHandle(app *application, req sandbox.Request, params map[string]interface{}) (map[string]interface{}, error) {
	v, err := s.evaluate(app, req, params)
	if err != nil {
		return nil, err
	}
	if app.quitting || app.closed {
		return nil, errTargetClosed
	}
	handle, err := s.newHandle(app, v)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"handle": handle}, nil
}

func (s *Session) newHandle(app *application, v goja.Value) (*object, error) {
	preview := app.runtime.Preview(v)
	handle, err := s.create(app.obj, protocol.TypeJSHandle, map[string]interface{}{"preview": preview}, app)
	if err != nil {
		return nil, err
	}
	handle.value = v
	handle.preview = preview
	return handle, nil
}

// refreshPreview pushes previewUpdated when evaluation changed the value.
func (s *Session) refreshPreview(handle *object) {
	if handle.app.closed {
		return
	}
	if _, ok := s.objects[handle.guid]; !ok {
		return
	}
	preview := handle.app.runtime.Preview(handle.value)
	if preview == handle.preview {
		return
	}
	handle.preview = preview
	s.emit(handle, protocol.EventPreviewUpdated, map[string]interface{}{"preview": preview})
}

// argumentHandles resolves handle references of an argument to values of
// the application's runtime.
func (s *Session) argumentHandles(app *application, arg protocol.SerializedArgument) ([]goja.Value, error) {
	out := make([]goja.Value, len(arg.Handles))
	for i, ref := range arg.Handles {
		obj, ok := s.objects[ref.GUID]
		if !ok {
			return nil, fmt.Errorf("handle %q was disposed", ref.GUID)
		}
		if obj.typ != protocol.TypeJSHandle {
			return nil, fmt.Errorf("%s cannot be passed as an argument", obj.typ)
		}
		if obj.app != app {
			return nil, fmt.Errorf("handle %q belongs to another application", ref.GUID)
		}
		out[i] = obj.value
	}
	return out, nil
}
