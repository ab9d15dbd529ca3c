// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package basic - the request types every API version offers:
// process, contracts, transaction, txStatus and time
package basic

import (
	"context"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/patrickmn/go-cache"

	"github.com/bitmark-inc/ledgerd/dispatch"
	"github.com/bitmark-inc/ledgerd/notifier"
	"github.com/bitmark-inc/ledgerd/storage"
	"github.com/bitmark-inc/ledgerd/transaction"
)

// request types
const (
	ProcessRequest     = "process"
	ContractsRequest   = "contracts"
	TransactionRequest = "transaction"
	TxStatusRequest    = "txStatus"
	TimeRequest        = "time"
)

// TransactionPush - push type for a finalised watched transaction
const TransactionPush = "transaction"

const (
	contractsKey        = "contracts"
	contractsExpiration = time.Minute
	cleanupInterval     = 5 * time.Minute
)

// Store - queries used by the basic handlers
type Store interface {
	InsertTransaction(ctx context.Context, e *transaction.Envelope, createTs *int64) error
	Contracts(ctx context.Context) ([]storage.Contract, error)
	Transaction(ctx context.Context, id []byte) (*transaction.Record, error)
	TransactionStatus(ctx context.Context, id []byte) (transaction.Status, bool, error)
	LatestBlockTime(ctx context.Context) (int64, bool, error)
}

// Watcher - listener registration on the notifier
type Watcher interface {
	AddListener(l notifier.Listener, key notifier.Key)
	RemoveListener(l notifier.Listener)
}

// Handlers - shared state of the basic capability
type Handlers struct {
	log     *logger.L
	store   Store
	watcher Watcher
	cache   *cache.Cache
}

// New - handlers backed by a store and a notifier
func New(store Store, watcher Watcher) *Handlers {
	return &Handlers{
		log:     logger.New("api"),
		store:   store,
		watcher: watcher,
		cache:   cache.New(contractsExpiration, cleanupInterval),
	}
}

// Capability - register the basic handlers on a unit
func (h *Handlers) Capability(u *dispatch.Unit) {
	u.RegisterTerminationHandler(func(u *dispatch.Unit) {
		h.watcher.RemoveListener(u)
	})
	u.RegisterUpdateHandler(h.update)
	u.RegisterMessageHandler(ContractsRequest, h.contracts)
	u.RegisterMessageHandler(ProcessRequest, h.process)
	u.RegisterMessageHandler(TimeRequest, h.time)
	u.RegisterMessageHandler(TransactionRequest, h.transaction)
	u.RegisterMessageHandler(TxStatusRequest, h.txStatus)
}

// a watched transaction was finalised
func (h *Handlers) update(u *dispatch.Unit, r *transaction.Record, reason transaction.UpdateReason) {
	if transaction.ReasonID != reason {
		return
	}
	if err := u.Push(TransactionPush, r.Response()); nil != err {
		h.log.Warnf("push transaction: %x  error: %s", r.ID, err)
	}
}
