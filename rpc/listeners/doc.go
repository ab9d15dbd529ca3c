// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package listeners - the listening socket shared by the REST and
// WebSocket servers
//
// A Server listens with SO_REUSEPORT so every worker process can bind
// the same port. When serving fails the server is shut down and a new
// listen is attempted after a delay that starts at five seconds and
// doubles up to five minutes; a successful listen resets the delay.
//
// Shutdown(true) is permanent and always succeeds, even when another
// shutdown is already in progress. Shutdown(false) while closing
// returns fault.AlreadyClosing.
package listeners
