// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package dispatch

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/bitmark-inc/ledgerd/fault"
	"github.com/bitmark-inc/ledgerd/transaction"
)

// MessageHandler - answer one request; data is the raw JSON request
// data and may be nil
type MessageHandler func(ctx context.Context, u *Unit, data []byte) (interface{}, error)

// UpdateHandler - called for each transaction the unit is notified of
type UpdateHandler func(u *Unit, record *transaction.Record, reason transaction.UpdateReason)

// TerminationHandler - called once when the unit is torn down
type TerminationHandler func(u *Unit)

// Pusher - the owning protocol handler's push path
type Pusher interface {
	SendPush(u *Unit, pushType string, data interface{}) error
}

// Unit - one dispatch instance
type Unit struct {
	sync.RWMutex

	version string
	pusher  Pusher
	client  interface{}

	messageHandlers     map[string]MessageHandler
	updateHandlers      []UpdateHandler
	terminationHandlers []TerminationHandler

	terminate  sync.Once
	terminated atomic.Bool
}

// NewUnit - an empty unit with no handlers
func NewUnit(version string, pusher Pusher, client interface{}) *Unit {
	return &Unit{
		version:         version,
		pusher:          pusher,
		client:          client,
		messageHandlers: make(map[string]MessageHandler),
	}
}

// Version - the API version the unit was created for
func (u *Unit) Version() string {
	return u.version
}

// Client - the connection object given by the protocol handler
func (u *Unit) Client() interface{} {
	return u.client
}

// RegisterMessageHandler - set the handler for a request type,
// replacing any earlier one
func (u *Unit) RegisterMessageHandler(requestType string, fn MessageHandler) {
	u.Lock()
	defer u.Unlock()
	u.messageHandlers[requestType] = fn
}

// RegisterUpdateHandler - add a handler for transaction updates
func (u *Unit) RegisterUpdateHandler(fn UpdateHandler) {
	u.Lock()
	defer u.Unlock()
	u.updateHandlers = append(u.updateHandlers, fn)
}

// RegisterTerminationHandler - add a handler run on termination
func (u *Unit) RegisterTerminationHandler(fn TerminationHandler) {
	u.Lock()
	defer u.Unlock()
	u.terminationHandlers = append(u.terminationHandlers, fn)
}

// Dispatch - run the handler registered for a request type
func (u *Unit) Dispatch(ctx context.Context, requestType string, data []byte) (interface{}, error) {
	if u.terminated.Load() {
		return nil, fault.ConnectionClosed
	}

	u.RLock()
	fn, ok := u.messageHandlers[requestType]
	u.RUnlock()

	if !ok {
		return nil, fault.UnknownType(requestType)
	}
	return fn(ctx, u, data)
}

// ReceiveUpdate - pass a transaction update to every update handler
func (u *Unit) ReceiveUpdate(record *transaction.Record, reason transaction.UpdateReason) {
	u.RLock()
	handlers := append([]UpdateHandler(nil), u.updateHandlers...)
	u.RUnlock()

	for _, fn := range handlers {
		fn(u, record, reason)
	}
}

// Push - send unsolicited data to the client
func (u *Unit) Push(pushType string, data interface{}) error {
	if nil == u.pusher {
		return fault.PushNotSupported
	}
	return u.pusher.SendPush(u, pushType, data)
}

// Terminated - true from the start of the first Terminate call
func (u *Unit) Terminated() bool {
	return u.terminated.Load()
}

// Terminate - run the termination handlers in registration order;
// only the first call has any effect
//
// the unit is marked before the handlers run, so a handler still in
// Dispatch cannot register it anywhere that checks Terminated
func (u *Unit) Terminate() {
	u.terminate.Do(func() {
		u.terminated.Store(true)

		u.RLock()
		handlers := append([]TerminationHandler(nil), u.terminationHandlers...)
		u.RUnlock()

		for _, fn := range handlers {
			fn(u)
		}
	})
}
