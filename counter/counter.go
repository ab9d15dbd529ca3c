// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package counter - shared counts updated from many goroutines
package counter

import (
	"sync/atomic"
)

// Counter - the zero value is ready to use and must not be copied
type Counter struct {
	n atomic.Uint64
}

// Increment - returns the new value
func (c *Counter) Increment() uint64 {
	return c.n.Add(1)
}

// Decrement - returns the new value; callers keep it paired with Increment
func (c *Counter) Decrement() uint64 {
	return c.n.Add(^uint64(0))
}

// Uint64 - current value
func (c *Counter) Uint64() uint64 {
	return c.n.Load()
}

// Reset - back to zero, returns the value it had
func (c *Counter) Reset() uint64 {
	return c.n.Swap(0)
}
