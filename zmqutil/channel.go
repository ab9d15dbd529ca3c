// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package zmqutil

import (
	"sync"
	"time"

	"github.com/bitmark-inc/logger"
	zmq "github.com/pebbe/zmq4"

	"github.com/bitmark-inc/ledgerd/fault"
)

const (
	pollInterval   = 10 * time.Millisecond
	incomingBuffer = 100
)

type outgoing struct {
	frames [][]byte
	result chan error
}

// Channel - a socket and the goroutine that owns it
type Channel struct {
	log      *logger.L
	socket   *zmq.Socket
	outgoing chan outgoing
	incoming chan [][]byte
	closing  chan struct{}
	done     chan struct{}
	once     sync.Once
}

// NewRouter - bind a ROUTER socket; sends to an unknown peer fail
// instead of being dropped
func NewRouter(log *logger.L, endpoint string) (*Channel, error) {
	socket, err := zmq.NewSocket(zmq.ROUTER)
	if nil != err {
		return nil, err
	}
	if err = socket.SetRouterMandatory(1); nil != err {
		goto failure
	}
	if err = socket.SetLinger(0); nil != err {
		goto failure
	}
	if err = socket.Bind(endpoint); nil != err {
		goto failure
	}
	return start(log, socket), nil

failure:
	socket.Close()
	return nil, err
}

// NewDealer - connect a DEALER socket with a fixed identity
func NewDealer(log *logger.L, endpoint string, identity string) (*Channel, error) {
	socket, err := zmq.NewSocket(zmq.DEALER)
	if nil != err {
		return nil, err
	}
	if err = socket.SetIdentity(identity); nil != err {
		goto failure
	}
	if err = socket.SetLinger(0); nil != err {
		goto failure
	}
	if err = socket.Connect(endpoint); nil != err {
		goto failure
	}
	return start(log, socket), nil

failure:
	socket.Close()
	return nil, err
}

func start(log *logger.L, socket *zmq.Socket) *Channel {
	c := &Channel{
		log:      log,
		socket:   socket,
		outgoing: make(chan outgoing),
		incoming: make(chan [][]byte, incomingBuffer),
		closing:  make(chan struct{}),
		done:     make(chan struct{}),
	}
	go c.loop()
	return c
}

// Incoming - received multipart messages; closed when the channel is
func (c *Channel) Incoming() <-chan [][]byte {
	return c.incoming
}

// Send - queue one multipart message and wait for the result
func (c *Channel) Send(frames ...[]byte) error {
	item := outgoing{
		frames: frames,
		result: make(chan error, 1),
	}
	select {
	case c.outgoing <- item:
	case <-c.done:
		return fault.WorkerChannelNotConnected
	}
	return <-item.result
}

// Close - stop the loop and close the socket
func (c *Channel) Close() {
	c.once.Do(func() {
		close(c.closing)
	})
	<-c.done
}

func (c *Channel) loop() {
	defer close(c.done)
	defer close(c.incoming)
	defer c.socket.Close()

	poller := zmq.NewPoller()
	poller.Add(c.socket, zmq.POLLIN)

	for {
		select {
		case <-c.closing:
			return
		case item := <-c.outgoing:
			_, err := c.socket.SendMessageDontwait(toInterfaces(item.frames)...)
			item.result <- err
			continue
		default:
		}

		polled, err := poller.Poll(pollInterval)
		if nil != err {
			if zmq.ETERM == zmq.AsErrno(err) {
				return
			}
			c.log.Debugf("poll error: %s", err)
			continue
		}
		if 0 == len(polled) {
			continue
		}

		frames, err := c.socket.RecvMessageBytes(zmq.DONTWAIT)
		if nil != err {
			c.log.Debugf("receive error: %s", err)
			continue
		}
		select {
		case c.incoming <- frames:
		default:
			c.log.Warnf("incoming queue full, message dropped")
		}
	}
}

func toInterfaces(frames [][]byte) []interface{} {
	parts := make([]interface{}, len(frames))
	for i, f := range frames {
		parts[i] = f
	}
	return parts
}
