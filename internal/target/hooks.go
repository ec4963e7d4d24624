package target

import (
	"fmt"

	"github.com/GriffinCanCode/AgentOS/electron/internal/protocol"
)

// Applications returns the GUIDs of running applications in launch order.
func (s *Session) Applications() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.apps))
	for _, app := range s.apps {
		if !app.closed {
			out = append(out, app.obj.guid)
		}
	}
	return out
}

// OpenWindow simulates the application opening a window on its own and
// returns the page GUID.
func (s *Session) OpenWindow(appGUID, url, title string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, err := s.application(appGUID)
	if err != nil {
		return "", err
	}
	page, err := s.openWindow(app, url, title)
	if err != nil {
		return "", err
	}
	return page.guid, nil
}

// CloseApplication simulates the application exiting on its own.
func (s *Session) CloseApplication(appGUID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, err := s.application(appGUID)
	if err != nil {
		return err
	}
	s.closeApplication(app)
	return nil
}

func (s *Session) application(guid string) (*application, error) {
	obj, ok := s.objects[guid]
	if !ok || obj.typ != protocol.TypeElectronApplication {
		return nil, fmt.Errorf("no running application %q", guid)
	}
	if obj.app.closed {
		return nil, errTargetClosed
	}
	return obj.app, nil
}
