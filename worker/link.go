// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package worker

import (
	"sync"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/ledgerd/jsoncodec"
	"github.com/bitmark-inc/ledgerd/supervisor"
	"github.com/bitmark-inc/ledgerd/zmqutil"
)

// Link - the worker's view of its supervisor
type Link interface {
	Report(memory float64) error
	Shutdown() <-chan struct{}
	Close()
}

type dealerLink struct {
	log      *logger.L
	channel  *zmqutil.Channel
	shutdown chan struct{}
	once     sync.Once
}

// Connect - DEALER end of the supervisor channel
func Connect(endpoint string, id int) (Link, error) {
	log := logger.New("worker")
	c, err := zmqutil.NewDealer(log, endpoint, supervisor.Identity(id))
	if nil != err {
		return nil, err
	}
	l := &dealerLink{
		log:      log,
		channel:  c,
		shutdown: make(chan struct{}),
	}
	go l.receive()
	return l, nil
}

func (l *dealerLink) receive() {
	for frames := range l.channel.Incoming() {
		if 1 == len(frames) && supervisor.ShutdownMessage == string(frames[0]) {
			l.log.Info("shutdown requested by supervisor")
			l.once.Do(func() {
				close(l.shutdown)
			})
			continue
		}
		l.log.Warnf("unknown message: %d frames", len(frames))
	}
}

// Report - send current heap use
func (l *dealerLink) Report(memory float64) error {
	data, err := jsoncodec.Marshal(supervisor.Report{
		Type:   supervisor.ReportType,
		Memory: memory,
	})
	if nil != err {
		return err
	}
	return l.channel.Send(data)
}

// Shutdown - closed when the supervisor asks this worker to exit
func (l *dealerLink) Shutdown() <-chan struct{} {
	return l.shutdown
}

func (l *dealerLink) Close() {
	l.channel.Close()
}
