// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package conduit_test

import (
	"sync/atomic"
	"testing"
	"time"

	"code.hybscloud.com/conduit"
)

func TestPeriodicTickerInvokesRegistered(t *testing.T) {
	ticker := conduit.NewPeriodicTicker(time.Millisecond)
	defer ticker.Close()

	var calls atomic.Int64
	token := ticker.Register(func() { calls.Add(1) })
	defer ticker.Unregister(token)

	retryWithTimeout(t, time.Second, func() bool { return calls.Load() > 2 }, "registered callback was never invoked repeatedly")
}

func TestPeriodicTickerUnregisterStopsInvocation(t *testing.T) {
	ticker := conduit.NewPeriodicTicker(time.Millisecond)
	defer ticker.Close()

	var calls atomic.Int64
	token := ticker.Register(func() { calls.Add(1) })

	retryWithTimeout(t, time.Second, func() bool { return calls.Load() > 0 }, "callback never ran before unregister")
	ticker.Unregister(token)

	seen := calls.Load()
	time.Sleep(20 * time.Millisecond)
	if calls.Load() > seen+1 {
		// allow at most one in-flight invocation to complete after Unregister returns
		t.Fatalf("callback kept running after Unregister: before=%d after=%d", seen, calls.Load())
	}
}

func TestPeriodicTickerUnregisterUnknownTokenIsNoop(t *testing.T) {
	ticker := conduit.NewPeriodicTicker(time.Millisecond)
	defer ticker.Close()

	ticker.Unregister(conduit.Token(999999))
}

func TestPeriodicTickerToleratesPanic(t *testing.T) {
	ticker := conduit.NewPeriodicTicker(time.Millisecond)
	defer ticker.Close()

	var panics atomic.Int64
	ticker.OnPanic = func(recovered any) { panics.Add(1) }

	ticker.Register(func() { panic("boom") })

	var calls atomic.Int64
	ticker.Register(func() { calls.Add(1) })

	retryWithTimeout(t, time.Second, func() bool { return calls.Load() > 2 && panics.Load() > 0 }, "a panicking callback stopped the sweep of other callbacks")
}

func TestDefaultTickerIsSingleton(t *testing.T) {
	a := conduit.DefaultTicker()
	b := conduit.DefaultTicker()
	if a != b {
		t.Fatal("DefaultTicker returned different instances across calls")
	}
}
