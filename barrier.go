// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package conduit

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// commitBarrier is the reserve/commit primitive backing every
// multi-producer container in this package.
//
// A monotonic write head W is incremented by producers to claim slots; a
// monotonic read head R is advanced only once the contiguous prefix of
// reservations up to an index has all been committed. A slot becomes
// visible to consumers only after the producer that owns it has finished
// writing it AND every earlier-reserved slot has also committed, which
// yields strict FIFO delivery in reservation order at the cost of a slow
// writer blocking visibility of everything reserved after it.
type commitBarrier struct {
	_ pad
	w atomix.Uint64
	_ pad
	r atomix.Uint64
	_ pad
}

// reserve claims the next slot and returns its index. Safe for concurrent
// callers; each returned index is unique.
func (b *commitBarrier) reserve() uint64 {
	return b.w.AddAcqRel(1) - 1
}

// committed returns the read head: the first index not yet visible to
// consumers. Everything strictly below this index has committed.
func (b *commitBarrier) committed() uint64 {
	return b.r.LoadAcquire()
}

// commit advances the read head from index to index+1. It busy-waits if
// earlier-reserved slots have not yet committed, since the CAS only
// succeeds when the read head equals index.
//
// Observing the read head already >= index+1 when the CAS fails is not an
// error: because reserve hands out unique indices and the read head only
// moves forward, this is reachable only if the CAS was spuriously lost
// while another caller (there is at most one legitimate owner of index,
// but a weak CAS can still fail spuriously against itself) advanced it in
// the meantime. It is treated as a normal early exit.
func (b *commitBarrier) commit(index uint64) {
	sw := spin.Wait{}
	for {
		if b.r.CompareAndSwapAcqRel(index, index+1) {
			return
		}
		if b.r.LoadAcquire() >= index+1 {
			return
		}
		sw.Once()
	}
}
