// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package conduit

import (
	"sync/atomic"

	"code.hybscloud.com/atomix"
)

// Vector is a single-producer, multi-consumer append-only container:
// elements appended to it live forever, and readers iterating it observe
// a stable prefix of the producer's insertion order.
//
// The producer is external; Vector does not enforce single-producer
// access via locking, exactly as the cache-packed containers in this
// package leave their own cardinality constraints to the caller.
//
// Every backing array Vector ever allocates is pre-sized to its full
// capacity at creation and never resized in place: after the array is
// published, only the slot at the published size is written (before the
// size is advanced past it), slots below the published size never change,
// and the array's own length/capacity are never mutated. That is what makes the read path safe without a lock —
// a reader's slice header never changes under it.
type Vector[T any] struct {
	active atomic.Pointer[[]T]
	size   atomix.Uint64

	// graveyard retains every backing array that was ever active, so an
	// iterator holding a stale array pointer keeps valid data. The
	// producer is its sole mutator; readers never touch it.
	graveyard []*[]T
}

// NewVector creates a Vector with the given initial capacity (at least 1).
func NewVector[T any](initialCapacity int) *Vector[T] {
	if initialCapacity < 1 {
		initialCapacity = 1
	}
	arr := make([]T, initialCapacity)
	v := &Vector[T]{graveyard: make([]*[]T, 0, 1)}
	v.active.Store(&arr)
	v.graveyard = append(v.graveyard, &arr)
	return v
}

// Size returns the published number of elements (consumer-safe).
func (v *Vector[T]) Size() int {
	return int(v.size.LoadAcquire())
}

// Capacity returns the current backing array's length.
func (v *Vector[T]) Capacity() int {
	return len(*v.active.Load())
}

// Reserve grows the backing array so its capacity is at least n, without
// changing the published size. Producer-only.
func (v *Vector[T]) Reserve(n int) {
	old := v.active.Load()
	if len(*old) >= n {
		return
	}
	size := v.size.LoadRelaxed()
	na := make([]T, n)
	copy(na, (*old)[:size])
	v.graveyard = append(v.graveyard, &na)
	v.active.Store(&na)
}

// Resize grows the published size to n, default-constructing any newly
// exposed slots. Resize never shrinks: if n is below the current size it
// returns [ErrShrink] and leaves the vector unchanged. Producer-only.
func (v *Vector[T]) Resize(n int) error {
	size := v.size.LoadRelaxed()
	if uint64(n) < size {
		return ErrShrink
	}
	v.Reserve(n)
	v.size.StoreRelease(uint64(n))
	return nil
}

// EmplaceBack constructs a new element in place via init and appends it,
// returning the index at which it was appended. The returned index is a
// stable reference: because growth can relocate the backing array,
// Vector hands out index-carrying references rather than raw pointers
// (see [Vector.At] and [VectorIterator]) so that a reference always
// survives a grow. Producer-only.
func (v *Vector[T]) EmplaceBack(init func(*T)) uint64 {
	size := v.size.LoadRelaxed()
	old := v.active.Load()

	if size >= uint64(len(*old)) {
		newCap := len(*old) * 2
		if newCap == 0 {
			newCap = 1
		}
		na := make([]T, newCap)
		copy(na, (*old)[:size])
		init(&na[size])
		v.graveyard = append(v.graveyard, &na)
		v.active.Store(&na)
	} else {
		init(&(*old)[size])
	}

	v.size.StoreRelease(size + 1)
	return size
}

// PushBack appends x, returning the index at which it was appended.
// Producer-only.
func (v *Vector[T]) PushBack(x T) uint64 {
	return v.EmplaceBack(func(p *T) { *p = x })
}

// DropOld discards every backing array except the current one. The
// caller warrants there is no live [VectorIterator] or [Vector.At] call
// referencing a dropped array: calling DropOld while one exists is
// unsafe, and the caller is responsible for knowing no such call is in
// flight. Producer-only.
func (v *Vector[T]) DropOld() {
	cur := v.active.Load()
	v.graveyard = v.graveyard[:0]
	v.graveyard = append(v.graveyard, cur)
}

// At performs an indexed read, returning (value, true) if i is below the
// currently published size, or (zero, false) otherwise.
//
// At reads the active pointer, then the size, then re-reads the pointer
// and retries on mismatch. Without the re-read, a reader could in
// principle pair a stale (smaller) backing array with a size published
// against a newer, larger one — growth publishes the pointer before the
// size, so a racing reader can observe a pointer/size pair from two
// different generations. Trusting the graveyard to make any array "big
// enough" instead of retrying does not hold when a grow is triggered by
// an array that was exactly full, so At always retries instead.
func (v *Vector[T]) At(i uint64) (T, bool) {
	for {
		p1 := v.active.Load()
		sz := v.size.LoadAcquire()
		p2 := v.active.Load()
		if p1 != p2 {
			continue
		}
		if i >= sz {
			var zero T
			return zero, false
		}
		return (*p1)[i], true
	}
}

// VectorIterator is a forward iterator over a [Vector]. It never caches a
// backing array pointer: every Next call performs an indexed read and keeps
// only the element value, which Value returns, so iterators are naturally
// stable across reallocations.
type VectorIterator[T any] struct {
	v   *Vector[T]
	idx uint64
	cur T
}

// Iter returns a forward iterator starting at index 0.
func (v *Vector[T]) Iter() *VectorIterator[T] {
	return &VectorIterator[T]{v: v}
}

// Next advances the iterator and reports whether a value is available.
func (it *VectorIterator[T]) Next() bool {
	v, ok := it.v.At(it.idx)
	if !ok {
		return false
	}
	it.cur = v
	it.idx++
	return true
}

// Value returns the element most recently made available by Next.
func (it *VectorIterator[T]) Value() T {
	return it.cur
}
