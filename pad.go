// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package conduit

import (
	"math/bits"
	"unsafe"
)

// cacheLine is the assumed cache line size in bytes. Real hardware may in
// practice sit on larger lines; 64 is the conservative target used
// throughout this package.
const cacheLine = 64

// pad is cache line padding placed after an atomic counter field to prevent
// false sharing between adjacent fields of the same struct.
type pad [cacheLine]byte

// padShort pads out a struct that already carries one 8-byte field up to a
// full cache line.
type padShort [cacheLine - 8]byte

// Padded wraps a value so that it is alone on its own cache line. It carries
// no behavioral contract beyond alignment: two Padded cells touched by
// different goroutines never share a line.
//
// The pads on either side are flat cacheLine-sized fields rather than ones
// sized from unsafe.Sizeof(T): Go does not treat unsafe.Sizeof of a type
// parameter as a constant expression, so an array bound cannot be derived
// from it. A flat pad is conservative for large T (the struct may span more
// than two lines) but correct for every T, and every concrete use in this
// package wraps a machine word (a counter or a cursor).
type Padded[T any] struct {
	_     pad
	Value T
	_     pad
}

// SizingPolicy controls how newPackedBuffer rounds its requested bounds
// into a concrete (lines, elementsPerLine) shape.
type SizingPolicy int

const (
	// SizeExact fills each line with floor(cacheLine/sizeof(T)) elements
	// and picks the smallest line count that satisfies the requested
	// bounds, with no power-of-two constraint.
	SizeExact SizingPolicy = iota

	// SizePow2 rounds the line count up and the elements-per-line down to
	// powers of two, enabling bit-mask indexing instead of modulo/div.
	// Elements-per-line rounds down, not up, so a line's live elements
	// never exceed cacheLine bytes.
	SizePow2
)

// packedBuffer is a cache-packed buffer of element type T.
//
// It exposes a flat index space [0, N) whose underlying storage places
// consecutive flat indices on different cache lines: index i maps to
// line (i mod L) and to generation ((i div L) mod E) within that line, so
// two producers writing to indices i and i+1 touch different lines
// whenever L >= 2.
//
// Each line's live E elements occupy at most cacheLine bytes (E is
// capped at floor(cacheLine/elemBytes), rounded further down to a power
// of two under the pow2 policy — never up, since exceeding cacheLine
// would pack two generations' worth of data into more than one physical
// line). The lines themselves are not stored E-elements-apart, though:
// they are stored lineStride-elements-apart, where lineStride is the
// smallest element count whose byte span is both >= a live line's span
// and an exact multiple of cacheLine. That makes the byte distance
// between any two lines a whole number of cache lines regardless of
// where the backing slice's own first byte happens to fall, so two
// different lines' live bytes can never land in the same physical
// cache line even though Go gives no way to force the slice's base
// address itself onto a cache-line boundary.
type packedBuffer[T any] struct {
	data       []T
	lines      uint64 // L
	perLine    uint64 // E, live elements per line
	lineStride uint64 // physical elements between consecutive lines, >= E
	size       uint64 // N = L * E (logical flat capacity)
	pow2       bool
	lineMask   uint64 // L-1, valid only when pow2
	lineShift  uint   // log2(L), valid only when pow2
	elemMask   uint64 // E-1, valid only when pow2
}

// newPackedBuffer allocates a cache-packed buffer holding at least
// minElements elements and at least minLines cache lines, per policy.
func newPackedBuffer[T any](minLines, minElements int, policy SizingPolicy) *packedBuffer[T] {
	if minLines < 1 {
		minLines = 1
	}
	if minElements < 0 {
		minElements = 0
	}

	var zero T
	elemBytes := uint64(sizeofT(zero))
	if elemBytes == 0 {
		elemBytes = 1
	}
	perLine := cacheLine / elemBytes
	if perLine == 0 {
		perLine = 1
	}

	b := &packedBuffer[T]{pow2: policy == SizePow2}

	switch policy {
	case SizePow2:
		lines := nextPow2(uint64(minLines))
		perLine = prevPow2(perLine)
		for lines*perLine < uint64(minElements) {
			lines *= 2
		}
		b.lines = lines
		b.perLine = perLine
		b.lineMask = lines - 1
		b.elemMask = perLine - 1
		b.lineShift = uint(bits.TrailingZeros64(lines))
	default: // SizeExact
		lines := uint64(minLines)
		for lines*perLine < uint64(minElements) {
			lines++
		}
		b.lines = lines
		b.perLine = perLine
	}

	b.lineStride = cacheLine / gcd(cacheLine, elemBytes)
	b.size = b.lines * b.perLine
	b.data = make([]T, b.lines*b.lineStride)
	return b
}

// split maps a flat index into (line, generation-within-line).
func (b *packedBuffer[T]) split(i uint64) (line, gen uint64) {
	if b.pow2 {
		line = i & b.lineMask
		gen = (i >> b.lineShift) & b.elemMask
		return
	}
	line = i % b.lines
	gen = (i / b.lines) % b.perLine
	return
}

// physical maps a flat index to its position in the backing slice. Lines
// are lineStride elements apart rather than perLine elements apart; see
// the packedBuffer doc comment for why the gap is necessary.
func (b *packedBuffer[T]) physical(i uint64) uint64 {
	line, gen := b.split(i)
	return line*b.lineStride + gen
}

// at returns a pointer to the slot for flat index i. Any 64-bit index is
// accepted: the buffer maps it into its period of Len() slots, so callers
// pass raw monotonic counters without reducing them first.
func (b *packedBuffer[T]) at(i uint64) *T {
	return &b.data[b.physical(i)]
}

// Len returns the flat capacity N of the buffer.
func (b *packedBuffer[T]) Len() int {
	return int(b.size)
}

// sizeofT returns the size in bytes of T, via a representative zero value.
// unsafe.Sizeof of a type-parameter-typed value is not a constant expression
// in Go, so this cannot feed an array bound, but it is exactly what the
// buffer's runtime elements-per-line computation needs.
func sizeofT[T any](zero T) uintptr {
	return unsafe.Sizeof(zero)
}

// nextPow2 rounds n up to the next power of two (n >= 1 returns >= 1).
func nextPow2(n uint64) uint64 {
	if n <= 1 {
		return 1
	}
	return 1 << uint(bits.Len64(n-1))
}

// prevPow2 rounds n down to the previous power of two (n <= 1 returns 1).
// Used for the pow2 elements-per-line policy: rounding up here would let
// E*elemBytes exceed cacheLine, packing more than one line's worth of
// data into a single physical line.
func prevPow2(n uint64) uint64 {
	if n <= 1 {
		return 1
	}
	return 1 << uint(bits.Len64(n)-1)
}

// gcd returns the greatest common divisor of a and b (b == 0 returns a).
func gcd(a, b uint64) uint64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
