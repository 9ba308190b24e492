package circuit_breaker

import (
	"errors"
	"sync"
	"time"
)

type Status uint8

const (
	Closed   Status = 1
	Open     Status = 2
	HalfOpen Status = 3
)

func (s Status) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	}
	return "unknown"
}

var ErrOpenCB = errors.New("circuit breaker is open")

type CircuitBreaker interface {
	Call(service func() error) error
	State() Status
	Reset()
}

type circuitBreaker struct {
	mu    sync.Mutex
	state Status

	// ring of the last len(window) outcomes, true means failed
	window []bool
	pos    int

	// share of failures in window that opens the breaker
	threshold float64
	// how long Open lasts before a trial call is let through
	cooldown time.Duration
	openedAt time.Time

	// consecutive successes needed in HalfOpen to close
	recoveryRequests int
	successCount     int
}

func New(recordLength int, cooldown time.Duration, threshold float64, recoveryRequests int) CircuitBreaker {
	if recordLength <= 0 {
		recordLength = 1
	}
	return &circuitBreaker{
		state:            Closed,
		window:           make([]bool, recordLength),
		threshold:        threshold,
		cooldown:         cooldown,
		recoveryRequests: recoveryRequests,
	}
}

func (cb *circuitBreaker) Call(service func() error) error {
	if !cb.allow() {
		return ErrOpenCB
	}
	err := service()
	cb.record(err != nil)
	return err
}

func (cb *circuitBreaker) allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state != Open {
		return true
	}
	if time.Since(cb.openedAt) <= cb.cooldown {
		return false
	}
	cb.state = HalfOpen
	cb.successCount = 0
	return true
}

func (cb *circuitBreaker) record(failed bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case HalfOpen:
		if failed {
			cb.trip()
			return
		}
		cb.successCount++
		if cb.successCount >= cb.recoveryRequests {
			cb.reset()
		}
	case Closed:
		cb.window[cb.pos] = failed
		cb.pos = (cb.pos + 1) % len(cb.window)
		if cb.failureRate() >= cb.threshold {
			cb.trip()
		}
	}
}

func (cb *circuitBreaker) failureRate() float64 {
	fails := 0
	for _, failed := range cb.window {
		if failed {
			fails++
		}
	}
	return float64(fails) / float64(len(cb.window))
}

func (cb *circuitBreaker) trip() {
	cb.state = Open
	cb.successCount = 0
	cb.openedAt = time.Now()
}

func (cb *circuitBreaker) State() Status {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *circuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.reset()
}

func (cb *circuitBreaker) reset() {
	for i := range cb.window {
		cb.window[i] = false
	}
	cb.pos = 0
	cb.successCount = 0
	cb.state = Closed
}
