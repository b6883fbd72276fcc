// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package conduit provides lock-free in-process message-passing
// containers for low-latency pipelines on shared-memory multi-core
// hardware.
//
// Four containers are offered, differing only in producer/consumer
// cardinality:
//
//   - SPSC: Single-Producer Single-Consumer bounded ring
//   - MPSC: Multi-Producer Single-Consumer bounded ring
//   - FanOut: Multi-Producer Multi-Consumer, every subscriber sees every
//     element
//   - Vector: Single-Producer Multi-Consumer append-only, elements live
//     forever
//
// # Quick Start
//
//	q := conduit.NewSPSC[Event](1, 1024)
//	f := conduit.NewFanOut[Request](1, 4096)
//	v := conduit.NewVector[LogEntry](64)
//
// # Basic Usage
//
// The ring queues share the same push/pop shape:
//
//	q := conduit.NewMPSC[int](1, 1024)
//
//	// Push busy-waits while the ring is full rather than returning an
//	// error: there is no non-blocking overflow signal in this package.
//	q.Push(42)
//
//	var v int
//	if q.Pop(&v) {
//	    // use v
//	}
//
// # Common Patterns
//
// Pipeline Stage (SPSC):
//
//	q := conduit.NewSPSC[Data](1, 1024)
//
//	go func() { // Producer
//	    for data := range input {
//	        q.Push(data) // blocks while full
//	    }
//	}()
//
//	go func() { // Consumer
//	    var data Data
//	    for {
//	        if q.Pop(&data) {
//	            process(data)
//	        }
//	    }
//	}()
//
// Event Aggregation (MPSC):
//
//	q := conduit.NewMPSC[Event](1, 4096)
//
//	for sensor := range slices.Values(sensors) {
//	    go func(s Sensor) {
//	        for ev := range s.Events() {
//	            q.Push(ev)
//	        }
//	    }(sensor)
//	}
//
// Broadcast (FanOut):
//
//	f := conduit.NewFanOut[Tick](1, 4096)
//
//	// Every subscriber independently receives every pushed value.
//	sub := f.Subscribe()
//	defer sub.Unsubscribe()
//
//	go func() {
//	    var tick Tick
//	    for {
//	        if sub.Pop(&tick) {
//	            handle(tick)
//	        }
//	    }
//	}()
//
//	f.Push(Tick{})
//
// Append-Only Log (Vector):
//
//	v := conduit.NewVector[LogEntry](64)
//
//	idx := v.PushBack(entry) // producer only
//
//	// Concurrent readers can iterate at any time; the iterator never
//	// caches a backing pointer, so it survives growth.
//	for it := v.Iter(); it.Next(); {
//	    fmt.Println(it.Value())
//	}
//
// # Sizing
//
// Ring constructors take (minLines, minElements): the cache-packed
// buffer backing each ring allocates enough cache lines and
// elements-per-line to satisfy both bounds. By default both are powers of
// two: the line count rounds up and elements-per-line rounds down so a
// line's elements fit in one cache line (see [SizingPolicy] and the *Sized
// constructors for the exact-fit policy). Cap() is at least minElements,
// and usable capacity is Cap()-1; one slot is always left vacant so a full
// ring and an empty ring remain distinguishable.
//
// # Thread Safety
//
//   - SPSC: one producer goroutine, one consumer goroutine.
//   - MPSC: multiple producer goroutines, one consumer goroutine.
//   - FanOut: multiple producer goroutines; each [Handle] may only be
//     driven from one consumer goroutine at a time, but different
//     handles are independent.
//   - Vector: one producer goroutine for all mutating calls; any number
//     of concurrent readers.
//
// Violating these constraints causes undefined behavior, not a detected
// error.
//
// # Blocking and Back-pressure
//
// Push busy-waits (spinning with a pause hint between attempts) when a
// ring is full; there is no timeout and no non-blocking overflow signal.
// Pop never blocks: it returns false immediately when nothing is
// available. FanOut.Push is bounded by the slowest subscriber only as of
// the last maintenance tick (see [FanOut] and [Ticker]), so a stuck
// subscriber that never unsubscribes starves every producer forever.
//
// # Race Detection
//
// Go's race detector tracks explicit synchronization primitives (mutex,
// channel, WaitGroup) but cannot observe the happens-before relationships
// this package establishes through acquire/release atomics on separate
// variables. [RaceEnabled] lets tests skip concurrency scenarios that
// would otherwise produce false positives under -race.
package conduit
