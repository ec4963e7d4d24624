// Package protocol defines the wire contract between the controller and an
// Electron target.
//
// The contract has three parts:
//   - Message: request, response and push envelopes keyed by object GUID
//   - SerializedValue / SerializedArgument: JSON-safe values that may carry
//     references to remote objects
//   - Interface: the closed dispatch table of methods, events and initializer
//     fields for every remote object type
//
// The byte format of the transport is not part of this package; transports
// frame Message values however they like and use Marshal/Unmarshal for the
// JSON body.
//
// Example Usage:
//
//	iface, ok := protocol.Lookup(protocol.TypeElectronApplication)
//	method, ok := iface.Method("evaluateExpression")
//	if err := method.Validate(params); err != nil {
//	    return err
//	}
package protocol
