// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package conduit_test

import (
	"sync"
	"testing"
	"time"

	"code.hybscloud.com/conduit"
)

func TestMPSCBasic(t *testing.T) {
	q := conduit.NewMPSC[int](1, 8)
	usable := q.Cap() - 1

	for i := 0; i < usable; i++ {
		q.Push(i)
	}

	var v int
	for i := 0; i < usable; i++ {
		if !q.Pop(&v) {
			t.Fatalf("Pop(%d): got false, want true", i)
		}
		if v != i {
			t.Fatalf("Pop(%d): got %d, want %d", i, v, i)
		}
	}
	if q.Pop(&v) {
		t.Fatal("Pop on empty ring: got true, want false")
	}
}

// TestMPSCBackPressure fills a capacity-8 ring (usable 7) with 0..6, then
// starts a producer pushing 999: it must not complete within 10ms since
// the ring is full. Popping one element frees a slot, the producer
// completes, and the remaining pops yield 1,2,3,4,5,6,999.
func TestMPSCBackPressure(t *testing.T) {
	if conduit.RaceEnabled {
		t.Skip("skip: concurrent atomix access triggers race detector false positives")
	}
	q := conduit.NewMPSC[int](1, 8)
	if q.Cap() != 8 {
		t.Fatalf("Cap: got %d, want 8", q.Cap())
	}

	for i := 0; i < 7; i++ {
		q.Push(i)
	}

	pushed := make(chan struct{})
	go func() {
		q.Push(999)
		close(pushed)
	}()

	select {
	case <-pushed:
		t.Fatal("Push on full ring returned before a Pop freed a slot")
	case <-time.After(10 * time.Millisecond):
	}

	var v int
	if !q.Pop(&v) || v != 0 {
		t.Fatalf("first Pop: got (%d, %v), want (0, true)", v, true)
	}

	<-pushed

	want := []int{1, 2, 3, 4, 5, 6, 999}
	for i, w := range want {
		if !q.Pop(&v) {
			t.Fatalf("Pop(%d): got false, want true", i)
		}
		if v != w {
			t.Fatalf("Pop(%d): got %d, want %d", i, v, w)
		}
	}
}

// TestMPSCManyProducersOneConsumer runs 8 producers pushing 20000 items
// each into a ring sized for at least 160000 usable slots; the consumer
// must receive the exact multiset of produced values with no duplicates
// and no losses.
func TestMPSCManyProducersOneConsumer(t *testing.T) {
	if conduit.RaceEnabled {
		t.Skip("skip: concurrent atomix access triggers race detector false positives")
	}
	const producers = 8
	const perProducer = 20000
	const total = producers * perProducer

	q := conduit.NewMPSC[int](1, total*2)

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Push(id*perProducer + i)
			}
		}(p)
	}

	received := make(map[int]int, total)
	var v int
	for i := 0; i < total; i++ {
		for !q.Pop(&v) {
		}
		received[v]++
	}
	wg.Wait()

	if len(received) != total {
		t.Fatalf("got %d distinct values, want %d", len(received), total)
	}
	for val, count := range received {
		if count != 1 {
			t.Fatalf("value %d received %d times, want 1", val, count)
		}
	}
}
