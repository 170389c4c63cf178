package typing

import (
	"sync"
	"time"
)

// ManualTicker is a Ticker advanced by explicit Tick calls.
// It is used to drive animations deterministically in tests.
type ManualTicker struct {
	ch      chan time.Time
	mu      sync.Mutex
	stopped bool
	created chan struct{}
}

// NewManualTicker creates a ManualTicker
func NewManualTicker() *ManualTicker {
	return &ManualTicker{
		ch:      make(chan time.Time),
		created: make(chan struct{}, 1),
	}
}

// Func returns a TickerFunc that hands out this ticker
func (m *ManualTicker) Func() TickerFunc {
	return func(time.Duration) Ticker {
		select {
		case m.created <- struct{}{}:
		default:
		}
		return m
	}
}

// Started is signalled when an Animator takes the ticker
func (m *ManualTicker) Started() <-chan struct{} {
	return m.created
}

// C implements Ticker
func (m *ManualTicker) C() <-chan time.Time {
	return m.ch
}

// Stop implements Ticker
func (m *ManualTicker) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
}

// Stopped reports whether Stop was called
func (m *ManualTicker) Stopped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped
}

// Tick delivers one tick, blocking until the consumer receives it
func (m *ManualTicker) Tick() {
	m.ch <- time.Now()
}
