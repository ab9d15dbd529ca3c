// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package background - start and stop long running goroutines
//
// Each process runs until its shutdown channel is closed; Stop closes
// every channel and then waits for all processes to return.
package background

import (
	"sync"
)

// Process - type signature for background process
type Process interface {
	Run(args interface{}, shutdown <-chan struct{})
}

// Processes - list of processes to start
type Processes []Process

// T - handle type
type T struct {
	shutdown []chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
}

// Start - start up a set of background processes
func Start(processes Processes, args interface{}) *T {

	register := &T{
		shutdown: make([]chan struct{}, len(processes)),
	}

	for i, p := range processes {
		shutdown := make(chan struct{})
		register.shutdown[i] = shutdown
		register.wg.Add(1)
		go func(p Process) {
			defer register.wg.Done()
			p.Run(args, shutdown)
		}(p)
	}
	return register
}

// Stop - stop a set of background processes, safe to call more than once
func (t *T) Stop() {
	t.once.Do(func() {
		for _, shutdown := range t.shutdown {
			close(shutdown)
		}
	})
	t.wg.Wait()
}
