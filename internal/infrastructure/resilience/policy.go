package resilience

import "time"

// Policy configures retry and circuit-breaker behavior for one outbound
// dependency.
type Policy struct {
	MaxAttempts int
	// InitialBackoff is multiplied by BackoffMultiplier after every
	// failed attempt. A multiplier of 1 gives a fixed delay.
	InitialBackoff    time.Duration
	BackoffMultiplier float64
	MaxBackoff        time.Duration

	// Breaker settings. BreakerEnabled false means attempts go straight
	// to the call.
	BreakerEnabled      bool
	BreakerMaxFailures  uint32
	BreakerOpenInterval time.Duration
}

// FixedRetry is the policy for the vector index writes: a small number
// of attempts with a constant pause, no breaker.
func FixedRetry(attempts int, backoff time.Duration) Policy {
	return Policy{
		MaxAttempts:       attempts,
		InitialBackoff:    backoff,
		BackoffMultiplier: 1,
		MaxBackoff:        backoff,
	}
}

// RemoteCall is the default policy for LLM and embedding providers.
func RemoteCall() Policy {
	return Policy{
		MaxAttempts:         3,
		InitialBackoff:      500 * time.Millisecond,
		BackoffMultiplier:   2,
		MaxBackoff:          5 * time.Second,
		BreakerEnabled:      true,
		BreakerMaxFailures:  5,
		BreakerOpenInterval: 30 * time.Second,
	}
}
