// Package retry provides the backoff policy for task execution attempts.
package retry

import (
	"math/rand/v2"
	"time"
)

// Defaults applied by DefaultConfig.
const (
	DefaultMaxRetries   = 3
	DefaultBaseDelay    = 1 * time.Second
	DefaultMaxDelay     = 60 * time.Second
	DefaultJitterFactor = 0.1
)

// Config holds retry behavior for the task executor.
// It is constructed once at executor creation and never mutated.
type Config struct {
	// MaxRetries is the number of retries after the initial attempt.
	MaxRetries int

	// BaseDelay is the delay before the first retry.
	BaseDelay time.Duration

	// MaxDelay caps the exponential growth of the delay.
	MaxDelay time.Duration

	// JitterFactor in [0,1) scales the random jitter added to each delay.
	JitterFactor float64
}

// DefaultConfig returns the standard retry configuration.
func DefaultConfig() Config {
	return Config{
		MaxRetries:   DefaultMaxRetries,
		BaseDelay:    DefaultBaseDelay,
		MaxDelay:     DefaultMaxDelay,
		JitterFactor: DefaultJitterFactor,
	}
}

// Delay returns the backoff before the retry following the given attempt.
// Attempts are 0-indexed. The base delay doubles per attempt up to MaxDelay,
// then a fresh uniform jitter draw in [0, delay*JitterFactor) is added so
// concurrent retries spread out.
func (c Config) Delay(attempt int) time.Duration {
	delay := c.BaseDelay
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= c.MaxDelay || delay <= 0 {
			delay = c.MaxDelay
			break
		}
	}
	if delay > c.MaxDelay {
		delay = c.MaxDelay
	}

	jitter := time.Duration(float64(delay) * c.JitterFactor * rand.Float64())
	return delay + jitter
}
