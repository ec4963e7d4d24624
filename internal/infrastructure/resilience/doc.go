/*
Package resilience guards a message channel with a circuit breaker.

# Overview

A controller talks to its target over a single channel. When that channel
starts failing at the transport level (broken pipe, closed socket), every
further send would fail the same way after paying the full I/O cost. The
breaker counts consecutive send failures and, once tripped, rejects sends
immediately until a cool-down elapses.

Remote errors are not transport failures: a call the target answered with an
error still counts as a successful send.

# Usage

	breaker := resilience.New("channel", resilience.Settings{
		Threshold: 3,
		Cooldown:  5 * time.Second,
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Warn("channel breaker", zap.Stringer("from", from), zap.Stringer("to", to))
		},
	})

	err := breaker.Do(func() error {
		return transport.Send(ctx, msg)
	})

# States

	Closed --[threshold failures]-> Open --[cooldown]-> Half-Open --[success]-> Closed
	                                                        |
	                                                    [failure]
	                                                        v
	                                                       Open
*/
package resilience
