// Package retry wraps fallible operations with bounded
// exponential-backoff-with-jitter retries.
package retry

import (
	"errors"
	"log"
	"math/rand"
	"time"
)

type Policy int

const (
	// TransientOnly stops retrying as soon as the error reports itself as
	// non-transient. Deterministic failures (parse, validation) replay
	// identically, so retrying them only burns attempts.
	TransientOnly Policy = iota
	// All retries every failure regardless of kind.
	All
)

const (
	DefaultMaxAttempts = 5
	DefaultBaseDelay   = 2 * time.Second
)

// Controller retries an operation up to MaxAttempts times. Between attempt
// k (0-indexed) and k+1 it sleeps BaseDelay*2^k plus a uniform [0,1) second
// jitter. The final attempt's error is returned unmodified.
type Controller struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Policy      Policy

	// Sleep and Jitter are injectable for tests. Nil means time.Sleep and
	// rand.Float64.
	Sleep  func(time.Duration)
	Jitter func() float64
}

func (c Controller) Do(op func() error) error {
	max := c.MaxAttempts
	if max <= 0 {
		max = DefaultMaxAttempts
	}
	base := c.BaseDelay
	if base <= 0 {
		base = DefaultBaseDelay
	}
	sleep := c.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	jitter := c.Jitter
	if jitter == nil {
		jitter = rand.Float64
	}

	var err error
	for attempt := 0; attempt < max; attempt++ {
		err = op()
		if err == nil {
			return nil
		}
		if c.Policy == TransientOnly && !IsTransient(err) {
			return err
		}
		if attempt == max-1 {
			break
		}
		delay := base<<uint(attempt) + time.Duration(jitter()*float64(time.Second))
		log.Printf("attempt %d failed: %v; retrying in %.2fs", attempt+1, err, delay.Seconds())
		sleep(delay)
	}
	return err
}

type transienter interface {
	Transient() bool
}

// IsTransient reports whether err is worth retrying. Errors that do not
// classify themselves are assumed transient.
func IsTransient(err error) bool {
	var t transienter
	if errors.As(err, &t) {
		return t.Transient()
	}
	return true
}
