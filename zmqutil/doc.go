// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package zmqutil - ZeroMQ sockets owned by a single goroutine
//
// A zmq socket must not be used from more than one goroutine, so each
// Channel runs a poll loop that performs every send and receive; other
// goroutines talk to it through Go channels.
package zmqutil
