// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package conduit

import "errors"

// ErrShrink is returned by [Vector.Resize] when the requested size is
// smaller than the vector's current published size.
//
// The append-only vector never shrinks: Resize below the current size is
// a recoverable failure that leaves the vector's state unchanged, not a
// panic and not a silent truncation.
var ErrShrink = errors.New("conduit: vector cannot shrink")
