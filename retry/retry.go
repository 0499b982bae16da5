package retry

import (
	"context"
	"math/rand"
	"time"
)

// Config defines exponential backoff behavior.
type Config struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	JitterFactor float64 // 0.0-1.0; +/- fraction of the delay
}

// DefaultConfig suits contended document writes: short first delay, doubling,
// capped low so a busy table resolves within a request timeout.
func DefaultConfig() *Config {
	return &Config{
		MaxRetries:   5,
		InitialDelay: 20 * time.Millisecond,
		MaxDelay:     500 * time.Millisecond,
		Multiplier:   2.0,
		JitterFactor: 0.2,
	}
}

// jittered spreads concurrent retriers apart so they do not collide on the
// same document again in lockstep.
func jittered(delay time.Duration, factor float64) time.Duration {
	if factor <= 0 {
		return delay
	}
	offset := float64(delay) * factor * (rand.Float64()*2 - 1)
	return time.Duration(float64(delay) + offset)
}

// Do runs fn until it succeeds, returns a non-retryable error, exhausts the
// budget, or ctx is done. retryable decides which errors are worth another
// attempt; a nil retryable retries everything.
func Do(ctx context.Context, cfg *Config, fn func() error, retryable func(error) bool) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	var lastErr error
	delay := cfg.InitialDelay

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if retryable != nil && !retryable(err) {
			return err
		}
		lastErr = err

		if attempt < cfg.MaxRetries {
			select {
			case <-time.After(jittered(delay, cfg.JitterFactor)):
				delay = time.Duration(float64(delay) * cfg.Multiplier)
				if delay > cfg.MaxDelay {
					delay = cfg.MaxDelay
				}
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return lastErr
}
