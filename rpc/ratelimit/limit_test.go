// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ratelimit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/ledgerd/fault"
	"github.com/bitmark-inc/ledgerd/rpc/ratelimit"
)

func TestLimit(t *testing.T) {
	limiter := ratelimit.New(1, 3)

	for i := 0; i < 3; i += 1 {
		assert.Nil(t, ratelimit.Limit(limiter), "%d: request refused within burst", i)
	}
	assert.Equal(t, fault.TooManyRequests, ratelimit.Limit(limiter), "request allowed beyond burst")
}

func TestUnlimited(t *testing.T) {
	limiter := ratelimit.New(0, 0)

	for i := 0; i < 1000; i += 1 {
		assert.Nil(t, ratelimit.Limit(limiter), "%d: request refused", i)
	}
}
