// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package websocket

type keepalive interface {
	open() bool
	confirmAlive() bool // report and clear the alive flag
	ping()
	terminate()
}

// each tick checks a share of the connections not yet checked in the
// current window, so every connection is checked about once per window
type sweep struct {
	window    int
	remaining int
	pending   []keepalive
}

func newSweep(window int) *sweep {
	return &sweep{
		window:    window,
		remaining: window,
	}
}

func (s *sweep) tick(all func() []keepalive) {
	s.remaining -= 1
	if s.remaining <= 0 {
		s.pending = all()
		s.remaining = s.window
	}

	// ceil(pending / remaining)
	n := (len(s.pending) + s.remaining - 1) / s.remaining
	for i := 0; i < n; i += 1 {
		last := len(s.pending) - 1
		k := s.pending[last]
		s.pending = s.pending[:last]

		if !k.open() {
			continue
		}
		if !k.confirmAlive() {
			k.terminate()
			continue
		}
		k.ping()
	}
}
