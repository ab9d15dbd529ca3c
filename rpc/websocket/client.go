// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/bitmark-inc/ledgerd/dispatch"
	"github.com/bitmark-inc/ledgerd/fault"
	"github.com/bitmark-inc/ledgerd/jsoncodec"
	"github.com/bitmark-inc/ledgerd/report"
	"github.com/bitmark-inc/ledgerd/rpc/ratelimit"
)

type requestFrame struct {
	ID   json.RawMessage `json:"id"`
	Type json.RawMessage `json:"type"`
	Data json.RawMessage `json:"data"`
}

type responseFrame struct {
	ID   string      `json:"id"`
	Data interface{} `json:"data,omitempty"`
}

type errorFrame struct {
	ID    string `json:"id,omitempty"`
	Error string `json:"error"`
}

type pushFrame struct {
	PushType string      `json:"pushType"`
	Data     interface{} `json:"data"`
}

type client struct {
	handler *Handler
	conn    *websocket.Conn
	unit    *dispatch.Unit
	limiter *rate.Limiter

	ctx    context.Context
	cancel context.CancelFunc

	// frames are written only by writeLoop
	outgoing chan []byte
	stop     chan struct{}

	alive  int32
	closed int32
	done   sync.Once
}

func newClient(h *Handler, conn *websocket.Conn) *client {
	ctx, cancel := context.WithCancel(context.Background())
	c := &client{
		handler: h,
		conn:    conn,
		limiter: ratelimit.New(h.config.RateLimit, h.config.RateBurst),
		ctx:      ctx,
		cancel:   cancel,
		outgoing: make(chan []byte, sendQueueSize),
		stop:     make(chan struct{}),
		alive:    1,
	}
	conn.SetReadLimit(maximumFrameSize)
	conn.SetPongHandler(func(string) error {
		atomic.StoreInt32(&c.alive, 1)
		return nil
	})
	return c
}

func (c *client) readLoop() {
	for {
		_, message, err := c.conn.ReadMessage()
		if nil != err {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				c.handler.log.Debugf("read error: %s", err)
			}
			c.terminate()
			return
		}
		go c.handle(message)
	}
}

func (c *client) writeLoop() {
	for {
		select {
		case <-c.stop:
			return
		case buffer := <-c.outgoing:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, buffer); nil != err {
				c.handler.log.Warnf("failed to send message: %s", err)
				c.terminate()
				return
			}
		}
	}
}

func (c *client) handle(message []byte) {
	defer report.Recover(c.handler.log)

	if !jsoncodec.Valid(message) {
		c.sendError("", fault.InvalidJSON)
		return
	}

	var request requestFrame
	if nil != jsoncodec.Unmarshal(message, &request) {
		c.sendError("", fault.MissingID)
		return
	}
	id, ok := jsonString(request.ID)
	if !ok {
		c.sendError("", fault.MissingID)
		return
	}
	requestType, ok := jsonString(request.Type)
	if !ok {
		c.sendError(id, fault.MissingType)
		return
	}

	if err := ratelimit.Limit(c.limiter); nil != err {
		c.sendError(id, err)
		return
	}

	var data []byte
	if 0 != len(request.Data) && "null" != string(request.Data) {
		data = request.Data
	}

	if !c.open() {
		return
	}

	result, err := c.unit.Dispatch(c.ctx, requestType, data)
	if nil != err {
		c.sendError(id, err)
		return
	}
	_ = c.send(responseFrame{ID: id, Data: result})
}

// only a json string is accepted, not null or any other type
func jsonString(raw json.RawMessage) (string, bool) {
	if 0 == len(raw) || '"' != raw[0] {
		return "", false
	}
	var s string
	if nil != jsoncodec.Unmarshal(raw, &s) {
		return "", false
	}
	return s, true
}

func (c *client) sendError(id string, err error) {
	_ = c.send(errorFrame{ID: id, Error: report.Scrub(err.Error())})
}

func (c *client) send(frame interface{}) error {
	if 0 != atomic.LoadInt32(&c.closed) {
		return fault.ConnectionClosed
	}

	buffer, err := jsoncodec.Marshal(frame)
	if nil != err {
		c.handler.log.Errorf("marshal frame error: %s", err)
		return err
	}

	select {
	case c.outgoing <- buffer:
		return nil
	case <-c.stop:
		return fault.ConnectionClosed
	default:
		c.handler.log.Warnf("send queue full: %s", c.conn.RemoteAddr())
		c.terminate()
		return fault.SendQueueFull
	}
}

// keepalive interface

func (c *client) open() bool {
	return 0 == atomic.LoadInt32(&c.closed)
}

func (c *client) confirmAlive() bool {
	return 1 == atomic.SwapInt32(&c.alive, 0)
}

func (c *client) ping() {
	deadline := time.Now().Add(writeTimeout)
	if err := c.conn.WriteControl(websocket.PingMessage, nil, deadline); nil != err {
		c.terminate()
	}
}

// send a close frame then terminate
func (c *client) close(code int, text string) {
	deadline := time.Now().Add(writeTimeout)
	_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), deadline)
	c.terminate()
}

func (c *client) terminate() {
	c.done.Do(func() {
		atomic.StoreInt32(&c.closed, 1)
		close(c.stop)
		c.cancel()
		_ = c.conn.Close()
		if c.handler.remove(c) {
			c.unit.Terminate()
		}
		c.handler.log.Debugf("disconnected  clients: %d", c.handler.Clients())
	})
}
