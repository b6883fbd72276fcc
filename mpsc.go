// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package conduit

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// MPSC is a multi-producer single-consumer bounded ring queue.
//
// Producers reserve a slot from a shared commitBarrier, write it, and
// commit; the single consumer reads the barrier's committed index as its
// upper bound. Two producers whose reservations return iA < iB always
// become visible to the consumer in that order: a slow writer at iA
// blocks visibility of iB even if B finished writing first. That is the
// explicit price of in-order delivery under multiple producers.
type MPSC[T any] struct {
	barrier commitBarrier
	_       pad
	tail    atomix.Uint64 // single consumer's index
	_       pad
	buf     *packedBuffer[T]
	n       uint64
}

// NewMPSC creates an MPSC ring with at least minLines cache lines and a
// capacity of at least minElements (usable capacity is Cap()-1), using the
// pow2 sizing policy.
func NewMPSC[T any](minLines, minElements int) *MPSC[T] {
	return NewMPSCSized[T](minLines, minElements, SizePow2)
}

// NewMPSCSized creates an MPSC ring with an explicit sizing policy.
func NewMPSCSized[T any](minLines, minElements int, policy SizingPolicy) *MPSC[T] {
	buf := newPackedBuffer[T](minLines, minElements, policy)
	return &MPSC[T]{buf: buf, n: uint64(buf.Len())}
}

// Cap returns the ring's flat capacity N (usable capacity is Cap()-1).
func (q *MPSC[T]) Cap() int {
	return int(q.n)
}

// Size returns the number of committed-but-unconsumed elements.
func (q *MPSC[T]) Size() int {
	return int(q.barrier.committed() - q.tail.LoadAcquire())
}

// Push adds an element to the ring (multiple producers safe). It
// busy-waits while the ring is full, measured as the distance from the
// consumer's tail to this producer's own reserved index: every earlier
// reservation counts as occupying the ring, whether or not its producer
// has written it yet.
func (q *MPSC[T]) Push(v T) {
	i := q.barrier.reserve()
	sw := spin.Wait{}
	for i-q.tail.LoadRelaxed() >= q.n-1 {
		sw.Once()
	}
	*q.buf.at(i) = v
	q.barrier.commit(i)
}

// Pop removes and returns an element (single consumer only). Returns
// false if nothing has committed past the consumer's tail yet.
func (q *MPSC[T]) Pop(out *T) bool {
	t := q.tail.LoadRelaxed()
	r := q.barrier.committed()
	if t >= r {
		return false
	}
	*out = *q.buf.at(t)
	var zero T
	*q.buf.at(t) = zero
	q.tail.StoreRelease(t + 1)
	return true
}
