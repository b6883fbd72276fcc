// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package conduit

import (
	"sync"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// FanOut is a multi-producer multi-consumer queue in which every
// subscriber sees every committed element, in the same order.
//
// Producers reserve and commit through a shared commitBarrier exactly as
// MPSC does, but the full-check compares against a minimum-tail M rather
// than any single consumer's progress: M is the slowest subscriber's
// cursor as of the last maintenance tick, recomputed by a periodic sweep
// registered with a [Ticker] rather than on every push. This keeps the
// producer fast path lock-free and free of any per-subscriber scan, at
// the cost of back-pressure relief being granular to tick frequency: size
// the ring to tolerate roughly push_rate * tick_interval excess entries
// even when every subscriber is keeping up.
//
// A stuck subscriber that never advances its cursor, and never calls
// Unsubscribe, starves every producer forever. That is by design: the
// only escape hatch is Unsubscribe.
type FanOut[T any] struct {
	barrier commitBarrier
	buf     *packedBuffer[T]
	n       uint64

	minTail Padded[atomix.Uint64]

	mu      sync.Mutex
	handles []*Handle[T]

	ticker    Ticker
	tickToken Token
}

// Handle is a subscriber's private cursor into a [FanOut] queue. Handles
// are owned by the queue that created them; a caller never constructs one
// directly.
type Handle[T any] struct {
	queue      *FanOut[T]
	cursor     atomix.Uint64
	subscribed atomix.Bool
}

// FanOutOption configures [NewFanOut].
type FanOutOption func(*fanOutConfig)

type fanOutConfig struct {
	ticker Ticker
}

// WithTicker overrides the [Ticker] collaborator a [FanOut] queue
// registers its maintenance sweep with. Without this option, NewFanOut
// uses [DefaultTicker].
func WithTicker(t Ticker) FanOutOption {
	return func(c *fanOutConfig) { c.ticker = t }
}

// NewFanOut creates a fan-out queue with at least minLines cache lines
// and a capacity of at least minElements (usable capacity is Cap()-1),
// using the pow2 sizing policy.
func NewFanOut[T any](minLines, minElements int, opts ...FanOutOption) *FanOut[T] {
	return NewFanOutSized[T](minLines, minElements, SizePow2, opts...)
}

// NewFanOutSized creates a fan-out queue with an explicit sizing policy.
func NewFanOutSized[T any](minLines, minElements int, policy SizingPolicy, opts ...FanOutOption) *FanOut[T] {
	cfg := fanOutConfig{ticker: DefaultTicker()}
	for _, opt := range opts {
		opt(&cfg)
	}

	buf := newPackedBuffer[T](minLines, minElements, policy)
	q := &FanOut[T]{
		buf:    buf,
		n:      uint64(buf.Len()),
		ticker: cfg.ticker,
	}
	q.tickToken = q.ticker.Register(q.tick)
	return q
}

// Cap returns the ring's flat capacity N (usable capacity is Cap()-1).
func (q *FanOut[T]) Cap() int {
	return int(q.n)
}

// Size returns the number of elements committed but not yet pruned below
// the last-computed minimum tail.
func (q *FanOut[T]) Size() int {
	return int(q.barrier.committed() - q.minTail.Value.LoadAcquire())
}

// Close unregisters this queue's maintenance sweep from its ticker. After
// Close, M no longer advances, so any producer currently spinning on a
// full ring spins forever; Close is for shutting the queue down, not for
// transient pauses.
func (q *FanOut[T]) Close() {
	q.ticker.Unregister(q.tickToken)
}

// Push adds an element, visible to every current and future subscriber
// once committed. It busy-waits while the ring is full relative to the
// slowest subscriber as of the last maintenance tick.
func (q *FanOut[T]) Push(v T) {
	i := q.barrier.reserve()
	sw := spin.Wait{}
	for i-q.minTail.Value.LoadRelaxed() >= q.n-1 {
		sw.Once()
	}
	*q.buf.at(i) = v
	q.barrier.commit(i)
}

// Subscribe registers a new subscriber and returns its handle. The
// handle's cursor starts at the barrier's current committed index, so a
// late subscriber sees only future elements, never history, and is never
// blamed by the minimum-tail computation for holding a slot it never saw.
func (q *FanOut[T]) Subscribe() *Handle[T] {
	q.mu.Lock()
	defer q.mu.Unlock()

	h := &Handle[T]{queue: q}
	h.cursor.StoreRelaxed(q.barrier.committed())
	h.subscribed.StoreRelease(true)
	q.handles = append(q.handles, h)
	return h
}

// tick is the maintenance sweep registered with the queue's ticker. It
// recomputes the minimum tail across subscribed handles and prunes any
// handle that has unsubscribed since the last sweep.
func (q *FanOut[T]) tick() {
	q.mu.Lock()
	defer q.mu.Unlock()

	m := q.barrier.committed()
	alive := q.handles[:0]
	for _, h := range q.handles {
		if h.subscribed.LoadAcquire() {
			if c := h.cursor.LoadAcquire(); c < m {
				m = c
			}
			alive = append(alive, h)
		}
	}
	q.handles = alive
	q.minTail.Value.StoreRelease(m)
}

// Pop removes the next element this handle has not yet seen, copying it
// into out. Returns false if the handle has caught up to the barrier's
// committed index. Pop copies rather than moves: every subscriber
// independently materializes the same committed sequence, so element
// types handled by FanOut must be copyable.
func (h *Handle[T]) Pop(out *T) bool {
	t := h.cursor.LoadRelaxed()
	r := h.queue.barrier.committed()
	if t >= r {
		return false
	}
	*out = *h.queue.buf.at(t)
	h.cursor.StoreRelease(t + 1)
	return true
}

// Subscribed reports whether this handle is still subscribed.
func (h *Handle[T]) Subscribed() bool {
	return h.subscribed.LoadAcquire()
}

// Unsubscribe marks this handle as no longer subscribed. The handle is
// not removed from the queue's registry immediately; the next maintenance
// tick prunes it and lets the minimum tail advance past it.
func (h *Handle[T]) Unsubscribe() {
	h.subscribed.StoreRelease(false)
}

// Tail returns the handle's current cursor (the index of the next element
// this handle has not yet popped).
func (h *Handle[T]) Tail() uint64 {
	return h.cursor.LoadAcquire()
}
