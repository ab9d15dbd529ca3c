// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package websocket

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeConnection struct {
	closed     bool
	alive      bool
	pings      int
	terminated int
}

func (f *fakeConnection) open() bool {
	return !f.closed
}

func (f *fakeConnection) confirmAlive() bool {
	alive := f.alive
	f.alive = false
	return alive
}

func (f *fakeConnection) ping() {
	f.pings += 1
}

func (f *fakeConnection) terminate() {
	f.terminated += 1
	f.closed = true
}

func TestSweepChecksEachConnectionOncePerWindow(t *testing.T) {
	connections := []*fakeConnection{{alive: true}, {alive: true}, {alive: true}, {alive: true}}
	all := func() []keepalive {
		list := make([]keepalive, 0, len(connections))
		for _, c := range connections {
			list = append(list, c)
		}
		return list
	}

	s := newSweep(3)

	// first window only loads the set on its last tick
	s.tick(all)
	s.tick(all)
	for i, c := range connections {
		assert.Equal(t, 0, c.pings, "%d: pinged before window", i)
	}

	s.tick(all)
	s.tick(all)
	s.tick(all)
	for i, c := range connections {
		assert.Equal(t, 1, c.pings, "%d: pings in window", i)
		assert.Equal(t, 0, c.terminated, "%d: terminated", i)
	}

	// one connection answers, the rest stay silent
	connections[0].alive = true

	s.tick(all)
	s.tick(all)
	s.tick(all)
	assert.Equal(t, 2, connections[0].pings, "responsive connection not pinged")
	assert.Equal(t, 0, connections[0].terminated, "responsive connection terminated")
	for i, c := range connections[1:] {
		assert.Equal(t, 1, c.terminated, "%d: silent connection kept", i+1)
	}
}

func TestSweepSkipsClosed(t *testing.T) {
	closed := &fakeConnection{closed: true}
	s := newSweep(1)
	s.tick(func() []keepalive {
		return []keepalive{closed}
	})
	assert.Equal(t, 0, closed.pings, "closed connection pinged")
	assert.Equal(t, 0, closed.terminated, "closed connection terminated")
}
