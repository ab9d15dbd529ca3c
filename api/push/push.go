// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package push - subscriptions that keep pushing finalised
// transactions to a connection until it closes
package push

import (
	"context"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/ledgerd/dispatch"
	"github.com/bitmark-inc/ledgerd/fault"
	"github.com/bitmark-inc/ledgerd/jsoncodec"
	"github.com/bitmark-inc/ledgerd/notifier"
	"github.com/bitmark-inc/ledgerd/transaction"
)

// request types
const (
	AllPushRequest     = "allPush"
	AddressPushRequest = "addressPush"
)

// push types
const (
	AllPush     = "all"
	AddressPush = "address"
)

// Watcher - listener registration on the notifier
type Watcher interface {
	AddListener(l notifier.Listener, key notifier.Key)
	RemoveListener(l notifier.Listener)
}

type addressArguments struct {
	Address *string `json:"address"`
}

// Handlers - the push subscription capability
type Handlers struct {
	log     *logger.L
	watcher Watcher
}

// New - subscriptions registered with the given notifier
func New(watcher Watcher) *Handlers {
	return &Handlers{
		log:     logger.New("api"),
		watcher: watcher,
	}
}

// Capability - register the subscription handlers on a unit
func (h *Handlers) Capability(u *dispatch.Unit) {
	u.RegisterTerminationHandler(func(u *dispatch.Unit) {
		h.watcher.RemoveListener(u)
	})
	u.RegisterUpdateHandler(h.update)
	u.RegisterMessageHandler(AllPushRequest, h.allPush)
	u.RegisterMessageHandler(AddressPushRequest, h.addressPush)
}

func (h *Handlers) update(u *dispatch.Unit, r *transaction.Record, reason transaction.UpdateReason) {
	pushType := ""
	switch reason {
	case transaction.ReasonGlobal:
		pushType = AllPush
	case transaction.ReasonAddress:
		pushType = AddressPush
	default:
		return
	}
	if err := u.Push(pushType, r.Response()); nil != err {
		h.log.Warnf("push %s: %x  error: %s", pushType, r.ID, err)
	}
}

func (h *Handlers) allPush(ctx context.Context, u *dispatch.Unit, data []byte) (interface{}, error) {
	h.watcher.AddListener(u, notifier.GlobalKey)
	return nil, nil
}

func (h *Handlers) addressPush(ctx context.Context, u *dispatch.Unit, data []byte) (interface{}, error) {
	var arguments addressArguments
	if nil == data || nil != jsoncodec.Unmarshal(data, &arguments) || nil == arguments.Address || "" == *arguments.Address {
		return nil, fault.MissingParameters
	}
	h.watcher.AddListener(u, notifier.AddressKey(*arguments.Address))
	return nil, nil
}
