// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package listeners

import (
	"context"
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// ListenFunc - opens the raw TCP listener
type ListenFunc func(network string, address string) (net.Listener, error)

// ReusePort - listen allowing other processes to bind the same address
func ReusePort(network string, address string) (net.Listener, error) {
	lc := net.ListenConfig{
		Control: func(network string, address string, c syscall.RawConn) error {
			var opErr error
			err := c.Control(func(fd uintptr) {
				opErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
			})
			if nil != err {
				return err
			}
			return opErr
		},
	}
	return lc.Listen(context.Background(), network, address)
}
