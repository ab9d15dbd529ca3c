// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ratelimit

import (
	"golang.org/x/time/rate"

	"github.com/bitmark-inc/ledgerd/fault"
)

// New - limiter for one connection; a non-positive rate disables limiting
func New(perSecond int, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

// Limit - admit a single request without waiting
func Limit(limiter *rate.Limiter) error {
	if !limiter.Allow() {
		return fault.TooManyRequests
	}
	return nil
}
