/*
Package resilience provides the circuit breaker guarding edge-function calls.

# Overview

Edge functions are the only remote dependency an intent execution can
touch. When an edge deployment degrades, the breaker fails those
intents fast instead of letting every submission hang on a dead
endpoint.

# Usage

	breaker := resilience.New("lead-capture", resilience.Settings{
		FailureThreshold: 5,
		Cooldown:         30 * time.Second,
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Warn("edge breaker state change", zap.String("fn", name))
		},
	})

	err := breaker.Do(func() error {
		return invoker.post(ctx, fn, body)
	})

# States

	Closed --[failures]-> Open --[cooldown]-> Half-Open --[probes ok]-> Closed
	                                            |
	                                       [failure]
	                                            v
	                                          Open
*/
package resilience
