// Package typing reveals a bot reply one character at a time.
//
// The reveal policy is a pure step function (Advance). Time is supplied from
// outside: the chat screen drives steps with tea.Tick, while Animator drives
// them with a Ticker for line-oriented output.
package typing

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"
)

// DefaultInterval is the delay between revealed characters
const DefaultInterval = 50 * time.Millisecond

// Advance returns buffer extended by the next character of full and whether
// the whole of full is now revealed. A buffer that is not a prefix of full
// restarts the reveal.
func Advance(buffer, full string) (string, bool) {
	if !strings.HasPrefix(full, buffer) {
		buffer = ""
	}
	if len(buffer) >= len(full) {
		return full, true
	}
	_, size := utf8.DecodeRuneInString(full[len(buffer):])
	next := full[:len(buffer)+size]
	return next, len(next) == len(full)
}

// Animation tracks the reveal of one reply
type Animation struct {
	full   string
	buffer string
	done   bool
}

// NewAnimation starts a reveal of full with an empty buffer.
// An empty reply is done from the start.
func NewAnimation(full string) *Animation {
	return &Animation{full: full, done: full == ""}
}

// Step reveals one more character and reports whether the reveal finished
func (a *Animation) Step() bool {
	if a.done {
		return true
	}
	a.buffer, a.done = Advance(a.buffer, a.full)
	return a.done
}

// Buffer returns the revealed prefix
func (a *Animation) Buffer() string {
	return a.buffer
}

// Full returns the complete reply
func (a *Animation) Full() string {
	return a.full
}

// Done reports whether every character has been revealed
func (a *Animation) Done() bool {
	return a.done
}

// Steps returns the number of Step calls a reply needs
func Steps(full string) int {
	return utf8.RuneCountInString(full)
}

// Ticker delivers ticks until stopped
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFunc creates a Ticker firing every d
type TickerFunc func(d time.Duration) Ticker

type timeTicker struct {
	t *time.Ticker
}

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// NewTimeTicker wraps time.NewTicker
func NewTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

// Animator drives an Animation from a Ticker
type Animator struct {
	interval  time.Duration
	newTicker TickerFunc
}

// AnimatorOption configures an Animator
type AnimatorOption func(*Animator)

// WithTicker replaces the clock, e.g. with a manual ticker in tests
func WithTicker(f TickerFunc) AnimatorOption {
	return func(a *Animator) {
		a.newTicker = f
	}
}

// NewAnimator creates an Animator revealing one character per interval
func NewAnimator(interval time.Duration, opts ...AnimatorOption) *Animator {
	if interval <= 0 {
		interval = DefaultInterval
	}
	a := &Animator{
		interval:  interval,
		newTicker: NewTimeTicker,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Interval returns the delay between characters
func (a *Animator) Interval() time.Duration {
	return a.interval
}

// Run reveals full, calling onFrame with every buffer state starting with
// the empty one. It stops the ticker before returning. Cancelling ctx
// aborts the reveal with ctx.Err().
func (a *Animator) Run(ctx context.Context, full string, onFrame func(buffer string)) error {
	anim := NewAnimation(full)
	onFrame(anim.Buffer())
	if anim.Done() {
		return nil
	}

	return a.Drive(ctx, func() bool {
		done := anim.Step()
		onFrame(anim.Buffer())
		return done
	})
}

// Drive calls step once per tick until step reports done or ctx ends
func (a *Animator) Drive(ctx context.Context, step func() bool) error {
	ticker := a.newTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C():
			if step() {
				return nil
			}
		}
	}
}
