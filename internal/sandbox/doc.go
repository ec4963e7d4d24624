/*
Package sandbox provides the scripting context of a simulated Electron main
process.

# Overview

Each launched application owns one Runtime: a goja VM whose global scope
persists between evaluations, the way a real main process keeps its state.
Evaluation follows the controller's protocol:

  - an expression is run as a script and its completion value returned
  - a function expression is called with a receiver and one argument;
    for an application the receiver is the electron module, for a handle
    it is the handle's value

Values cross the boundary through the protocol's serialized form. Handles in
an argument are resolved by the caller and passed in as goja values.

# Limits

  - Timeout interrupts runaway scripts; the VM is reusable afterwards
  - require, process, module and exports are removed from the global scope
  - Promises settle only through microtasks; there is no timer loop, so a
    promise still pending when the call returns is an error

# Usage Example

	rt, err := New(DefaultConfig())
	if err != nil {
		return err
	}
	rt.Bind("electron", func(vm *goja.Runtime) goja.Value { return module(vm) })

	v, err := rt.Evaluate(ctx, Request{
		Expression: "({app}) => app.getName()",
		IsFunction: true,
		Receiver:   "electron",
	})
*/
package sandbox
