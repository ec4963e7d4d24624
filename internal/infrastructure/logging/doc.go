// Package logging provides structured logging for the controller and the
// simulated target using uber/zap.
//
// Two encodings are available:
//   - Production: JSON lines for machine parsing
//   - Development: colored console output
//
// Remote-object code logs with a small set of shared field helpers so that
// every line about one object can be correlated:
//
//	logger := logging.NewDefault().Named("client")
//	logger.Debug("call", logging.GUID(guid), logging.Method("launch"))
//	logger.Warn("push for unknown object", logging.GUID(guid), logging.Event(method))
package logging
