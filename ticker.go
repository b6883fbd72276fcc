// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package conduit

import (
	"sync"
	"time"

	"code.hybscloud.com/atomix"
)

// Ticker is the periodic-dispatch collaborator the fan-out queue relies on
// to run its maintenance sweep. It is deliberately a trivial, swappable
// collaborator rather than core engineering, but a minimal concrete
// implementation is provided so [NewFanOut] has a sensible default.
//
// Register schedules fn to be invoked repeatedly on a thread distinct from
// any producer or consumer goroutine, at an unspecified but
// progress-making rate. Unregister ensures fn will not be invoked again
// after it returns; it is safe to call concurrently with an
// already-in-flight invocation, which is allowed to complete.
type Ticker interface {
	Register(fn func()) Token
	Unregister(token Token)
}

// Token identifies a callback registered with a [Ticker].
type Token uint64

// PeriodicTicker is the default [Ticker]: a single background goroutine
// that sweeps a registry of callbacks at a fixed interval, tolerating a
// panic from any one of them without interrupting the others.
type PeriodicTicker struct {
	interval time.Duration

	mu      sync.Mutex
	fns     map[Token]func()
	nextTok atomix.Uint64

	closeOnce sync.Once
	done      chan struct{}

	// OnPanic, if set, receives the recovered value whenever a registered
	// callback panics. It is invoked from the ticker's own goroutine, so
	// it must not block or register/unregister callbacks synchronously.
	OnPanic func(recovered any)
}

// NewPeriodicTicker starts a ticker that sweeps its registry every
// interval. A non-positive interval ticks as fast as the runtime
// scheduler allows.
func NewPeriodicTicker(interval time.Duration) *PeriodicTicker {
	t := &PeriodicTicker{
		interval: interval,
		fns:      make(map[Token]func()),
		done:     make(chan struct{}),
	}
	go t.run()
	return t
}

// Register schedules fn for repeated invocation and returns a token that
// can later be passed to Unregister.
func (t *PeriodicTicker) Register(fn func()) Token {
	tok := Token(t.nextTok.AddAcqRel(1))
	t.mu.Lock()
	t.fns[tok] = fn
	t.mu.Unlock()
	return tok
}

// Unregister ensures token will not be invoked again. Unregistering an
// unknown token is a no-op, not an error.
func (t *PeriodicTicker) Unregister(token Token) {
	t.mu.Lock()
	delete(t.fns, token)
	t.mu.Unlock()
}

// Close stops the ticker's goroutine. It returns without waiting: callbacks
// of a sweep already under way may still run, and none runs after that
// sweep ends.
func (t *PeriodicTicker) Close() {
	t.closeOnce.Do(func() { close(t.done) })
}

func (t *PeriodicTicker) run() {
	for {
		select {
		case <-t.done:
			return
		default:
		}

		t.mu.Lock()
		tokens := make([]Token, 0, len(t.fns))
		for tok := range t.fns {
			tokens = append(tokens, tok)
		}
		t.mu.Unlock()

		// Each callback runs under mu and only if still registered, so once
		// Unregister returns, any in-flight invocation has finished and no
		// new one starts.
		for _, tok := range tokens {
			t.mu.Lock()
			if fn, ok := t.fns[tok]; ok {
				t.invoke(fn)
			}
			t.mu.Unlock()
		}

		if t.interval > 0 {
			select {
			case <-t.done:
				return
			case <-time.After(t.interval):
			}
		}
	}
}

// invoke runs fn, recovering a panic so one misbehaving callback never
// stops the sweep of the others.
func (t *PeriodicTicker) invoke(fn func()) {
	defer func() {
		if r := recover(); r != nil && t.OnPanic != nil {
			t.OnPanic(r)
		}
	}()
	fn()
}

var (
	defaultTickerOnce sync.Once
	defaultTicker     *PeriodicTicker
)

// DefaultTicker returns a process-wide [PeriodicTicker] singleton, started
// lazily on first use. It is a convenience accessor for test ergonomics
// and simple programs that do not need to own their own ticker.
func DefaultTicker() *PeriodicTicker {
	defaultTickerOnce.Do(func() {
		defaultTicker = NewPeriodicTicker(time.Millisecond)
	})
	return defaultTicker
}
