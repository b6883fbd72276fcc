// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package conduit_test

import (
	"fmt"

	"code.hybscloud.com/conduit"
)

// ExampleNewSPSC demonstrates a basic SPSC ring for a pipeline stage.
func ExampleNewSPSC() {
	q := conduit.NewSPSC[int](1, 8)

	for i := 1; i <= 5; i++ {
		q.Push(i * 10)
	}

	var v int
	for range 5 {
		q.Pop(&v)
		fmt.Println(v)
	}

	// Output:
	// 10
	// 20
	// 30
	// 40
	// 50
}

// ExampleVector demonstrates the append-only vector: appended elements
// live forever and an iterator never caches a backing pointer.
func ExampleVector() {
	v := conduit.NewVector[string](2)
	v.PushBack("first")
	v.PushBack("second")
	v.PushBack("third")

	for it := v.Iter(); it.Next(); {
		fmt.Println(it.Value())
	}

	// Output:
	// first
	// second
	// third
}
