package client

import (
	"context"
	"fmt"

	"github.com/GriffinCanCode/AgentOS/electron/internal/protocol"
)

// Root is the parent of every other object. Its GUID is the empty string.
type Root struct {
	RemoteObject
}

func newRoot(c *Connection) *Root {
	iface, err := protocol.Lookup(protocol.TypeRoot)
	if err != nil {
		panic(err)
	}
	r := &Root{}
	r.init(c, r, nil, protocol.TypeRoot, "", iface, map[string]interface{}{})
	return r
}

func (r *Root) initialize(ctx context.Context) (*Electron, error) {
	res, err := r.Call(ctx, "initialize", map[string]interface{}{"sdkLanguage": "go"})
	if err != nil {
		return nil, err
	}
	electron, ok := res["electron"].(*Electron)
	if !ok {
		return nil, fmt.Errorf("initialize returned %T, want *Electron", res["electron"])
	}
	return electron, nil
}
