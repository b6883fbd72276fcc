// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package conduit

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// SPSC is a single-producer single-consumer bounded ring queue.
//
// It uses the cache-packed buffer directly with two counters: a published
// head, which only the producer writes and which it reloads relaxed as its
// own write position, and a consumer tail. There is no
// commit barrier because there is only one producer, so reservation and
// commit collapse into a single store.
//
// Usable capacity is Cap()-1: one slot is always left vacant so a full
// ring and an empty ring are distinguishable by head == tail vs.
// head - tail == capacity-1.
type SPSC[T any] struct {
	_    pad
	head atomix.Uint64 // published write index (producer writes, consumer reads)
	_    pad
	tail atomix.Uint64 // consumer index
	_    pad
	buf  *packedBuffer[T]
	n    uint64 // capacity
}

// NewSPSC creates an SPSC ring with at least minLines cache lines and a
// capacity of at least minElements (usable capacity is Cap()-1). See
// [NewSPSCSized] to control the sizing policy directly; NewSPSC uses the
// pow2 policy so index mapping reduces to bit masks.
func NewSPSC[T any](minLines, minElements int) *SPSC[T] {
	return NewSPSCSized[T](minLines, minElements, SizePow2)
}

// NewSPSCSized creates an SPSC ring with an explicit sizing policy.
func NewSPSCSized[T any](minLines, minElements int, policy SizingPolicy) *SPSC[T] {
	buf := newPackedBuffer[T](minLines, minElements, policy)
	return &SPSC[T]{buf: buf, n: uint64(buf.Len())}
}

// Cap returns the ring's flat capacity N (usable capacity is Cap()-1).
func (q *SPSC[T]) Cap() int {
	return int(q.n)
}

// Size returns the number of elements currently queued. May transiently
// read as low as 0 or as high as Cap()-1, never more.
func (q *SPSC[T]) Size() int {
	return int(q.head.LoadAcquire() - q.tail.LoadAcquire())
}

// Push adds an element to the ring (producer only). It busy-waits while
// the ring is full (usable capacity Cap()-1 already occupied).
func (q *SPSC[T]) Push(v T) {
	sw := spin.Wait{}
	h := q.head.LoadRelaxed()
	for h-q.tail.LoadRelaxed() >= q.n-1 {
		sw.Once()
	}
	*q.buf.at(h) = v
	q.head.StoreRelease(h + 1)
}

// Pop removes and returns an element (consumer only). Returns false if
// the ring is currently empty; never blocks.
func (q *SPSC[T]) Pop(out *T) bool {
	t := q.tail.LoadRelaxed()
	h := q.head.LoadAcquire()
	if t >= h {
		return false
	}
	*out = *q.buf.at(t)
	var zero T
	*q.buf.at(t) = zero
	q.tail.StoreRelease(t + 1)
	return true
}
