package client

import (
	"fmt"

	"github.com/GriffinCanCode/AgentOS/electron/internal/protocol"
)

// createObject builds the proxy announced by a __create__ push under parent.
func (c *Connection) createObject(parent *RemoteObject, params protocol.CreateParams) (Object, error) {
	if c.known(params.GUID) {
		return nil, fmt.Errorf("guid %q already used", params.GUID)
	}
	iface, err := protocol.Lookup(params.Type)
	if err != nil {
		return nil, err
	}
	initializer, err := iface.Initializer.Decode(params.Initializer, c.resolve)
	if err != nil {
		return nil, fmt.Errorf("initializer of %s: %w", params.Type, err)
	}

	var obj Object
	switch params.Type {
	case protocol.TypeElectron:
		obj = newElectron(c, parent, params.GUID, iface, initializer)
	case protocol.TypeElectronApplication:
		obj = newElectronApplication(c, parent, params.GUID, iface, initializer)
	case protocol.TypeBrowserContext:
		obj = newBrowserContext(c, parent, params.GUID, iface, initializer)
	case protocol.TypePage:
		obj = newPage(c, parent, params.GUID, iface, initializer)
	case protocol.TypeJSHandle:
		obj = newJSHandle(c, parent, params.GUID, iface, initializer)
	default:
		return nil, fmt.Errorf("%w: %q cannot be created by the target", protocol.ErrUnknownType, params.Type)
	}
	obj.remote().logger.Debug("created")
	return obj, nil
}
