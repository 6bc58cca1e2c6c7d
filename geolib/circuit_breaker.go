package geolib

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"
)

type circuitBreakerCallback func(context.Context) (*http.Response, error)

type circuitBreakerState uint8

const (
	circuitBreakerStateClosed circuitBreakerState = iota
	circuitBreakerStateHalfOpened
	circuitBreakerStateOpened
)

// circuitBreaker stops calling a provider after a series of failures.
//
// There are no background timers: every transition is evaluated on Do
// against a clock. Opened breaker lets a single trial request through
// after halfOpenTimeout. Failures older than resetFailuresTimeout are
// forgotten.
type circuitBreaker struct {
	mutex sync.Mutex
	now   func() time.Time

	state        circuitBreakerState
	failures     uint32
	failuresFrom time.Time
	openedAt     time.Time
	trialRunning bool

	openThreshold        uint32
	halfOpenTimeout      time.Duration
	resetFailuresTimeout time.Duration
}

func (c *circuitBreaker) Do(ctx context.Context, callback circuitBreakerCallback) (*http.Response, error) {
	trial, err := c.acquire()
	if err != nil {
		return nil, err
	}

	resp, err := callback(ctx)

	if ctxErr := ctx.Err(); ctxErr != nil {
		flushResponse(resp)
		c.release(trial)

		return nil, ctxErr
	}

	c.report(trial, err)

	return resp, err
}

func (c *circuitBreaker) acquire() (bool, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := c.now()

	switch c.state {
	case circuitBreakerStateClosed:
		if c.failures > 0 && now.Sub(c.failuresFrom) >= c.resetFailuresTimeout {
			c.failures = 0
		}

		return false, nil
	case circuitBreakerStateOpened:
		if now.Sub(c.openedAt) < c.halfOpenTimeout {
			return false, ErrCircuitBreakerOpened
		}

		c.state = circuitBreakerStateHalfOpened
	}

	if c.trialRunning {
		return false, ErrCircuitBreakerOpened
	}

	c.trialRunning = true

	return true, nil
}

func (c *circuitBreaker) release(trial bool) {
	if !trial {
		return
	}

	c.mutex.Lock()
	c.trialRunning = false
	c.mutex.Unlock()
}

func (c *circuitBreaker) report(trial bool, err error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if trial {
		c.trialRunning = false
	}

	switch {
	case errors.Is(err, ErrCircuitBreakerIgnore):
		return
	case err == nil:
		if trial || c.state == circuitBreakerStateClosed {
			c.state = circuitBreakerStateClosed
			c.failures = 0
		}

		return
	case trial:
		c.open()

		return
	case c.state != circuitBreakerStateClosed:
		return
	}

	if c.failures == 0 {
		c.failuresFrom = c.now()
	}

	c.failures++

	if c.failures > c.openThreshold {
		c.open()
	}
}

func (c *circuitBreaker) open() {
	c.state = circuitBreakerStateOpened
	c.openedAt = c.now()
	c.failures = 0
}

func newCircuitBreaker(openThreshold uint32,
	halfOpenTimeout, resetFailuresTimeout time.Duration) *circuitBreaker {
	return &circuitBreaker{
		now:                  time.Now,
		openThreshold:        openThreshold,
		halfOpenTimeout:      halfOpenTimeout,
		resetFailuresTimeout: resetFailuresTimeout,
	}
}
