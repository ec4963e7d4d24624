package target

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dop251/goja"

	"github.com/GriffinCanCode/AgentOS/electron/internal/protocol"
	"github.com/GriffinCanCode/AgentOS/electron/internal/sandbox"
)

// object is the target-side half of a remote object.
type object struct {
	guid     string
	typ      string
	parent   *object
	children map[string]*object

	app     *application // owning application, nil for root and Electron
	window  *window      // Page only
	value   goja.Value   // JSHandle only
	preview string       // JSHandle only
}

func (o *object) Ref() protocol.ObjectRef { return protocol.ObjectRef{GUID: o.guid} }

type window struct {
	id     int
	url    string
	title  string
	closed bool
}

type application struct {
	obj     *object
	context *object
	runtime *sandbox.Runtime

	name       string
	executable string
	args       []string
	cwd        string
	env        map[string]string

	windows      []*object
	nextWindowID int
	windowTimer  *time.Timer
	quitting     bool
	closed       bool
}

func newApplication(executable string, args []string, cwd string, env map[string]string) *application {
	name := strings.TrimSuffix(filepath.Base(executable), filepath.Ext(executable))
	if cwd == "" {
		cwd = filepath.Dir(executable)
	}
	return &application{
		name:       name,
		executable: executable,
		args:       args,
		cwd:        cwd,
		env:        env,
	}
}

func (a *application) mainURL() string {
	return "file://" + filepath.ToSlash(filepath.Join(a.cwd, "index.html"))
}

func (a *application) removeWindow(page *object) {
	for i, w := range a.windows {
		if w == page {
			a.windows = append(a.windows[:i], a.windows[i+1:]...)
			return
		}
	}
}

func (a *application) findWindow(id int) (*object, error) {
	for _, w := range a.windows {
		if w.window.id == id {
			return w, nil
		}
	}
	return nil, fmt.Errorf("no window with id %d", id)
}
