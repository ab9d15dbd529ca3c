// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package supervisor

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/ledgerd/zmqutil"
)

// ShutdownMessage - supervisor to worker
const ShutdownMessage = "shutdown"

const identityPrefix = "worker-"

// Message - payload received from one worker
type Message struct {
	Worker  int
	Payload []byte
}

// Channel - message path between supervisor and workers
type Channel interface {
	Send(worker int, payload []byte) error
	Messages() <-chan Message
	Close()
}

// Endpoint - ipc address for a supervisor process
func Endpoint(dataDirectory string, pid int) string {
	return "ipc://" + filepath.Join(dataDirectory, fmt.Sprintf("ledgerd-%d.ipc", pid))
}

// Identity - socket identity of a worker
func Identity(id int) string {
	return identityPrefix + strconv.Itoa(id)
}

func parseIdentity(identity string) (int, bool) {
	if !strings.HasPrefix(identity, identityPrefix) {
		return 0, false
	}
	id, err := strconv.Atoi(strings.TrimPrefix(identity, identityPrefix))
	return id, nil == err
}

// zmq ROUTER side
type routerChannel struct {
	log      *logger.L
	channel  *zmqutil.Channel
	messages chan Message
}

// NewChannel - bind the supervisor end
func NewChannel(endpoint string) (Channel, error) {
	log := logger.New("supervisor")
	c, err := zmqutil.NewRouter(log, endpoint)
	if nil != err {
		return nil, err
	}
	r := &routerChannel{
		log:      log,
		channel:  c,
		messages: make(chan Message, 100),
	}
	go r.translate()
	return r, nil
}

func (r *routerChannel) translate() {
	defer close(r.messages)
	for frames := range r.channel.Incoming() {
		if 2 != len(frames) {
			r.log.Warnf("malformed message: %d frames", len(frames))
			continue
		}
		id, ok := parseIdentity(string(frames[0]))
		if !ok {
			r.log.Warnf("message from unknown peer: %q", frames[0])
			continue
		}
		r.messages <- Message{Worker: id, Payload: frames[1]}
	}
}

func (r *routerChannel) Send(worker int, payload []byte) error {
	return r.channel.Send([]byte(Identity(worker)), payload)
}

func (r *routerChannel) Messages() <-chan Message {
	return r.messages
}

func (r *routerChannel) Close() {
	r.channel.Close()
}
