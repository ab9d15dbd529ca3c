// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package basic

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"

	"github.com/patrickmn/go-cache"

	"github.com/bitmark-inc/ledgerd/dispatch"
	"github.com/bitmark-inc/ledgerd/fault"
	"github.com/bitmark-inc/ledgerd/jsoncodec"
	"github.com/bitmark-inc/ledgerd/notifier"
	"github.com/bitmark-inc/ledgerd/report"
	"github.com/bitmark-inc/ledgerd/transaction"
)

// largest integer a JavaScript client can represent exactly
const maxSafeInteger = 1<<53 - 1

type processArguments struct {
	Base64Tx *string `json:"base64tx"`
	CreateTs *int64  `json:"createTs"`
}

type txArguments struct {
	TxID *string `json:"txId"`
	Push *bool   `json:"push"`
}

// Contract - client view of a contract
type Contract struct {
	Type        string          `json:"type"`
	Hash        string          `json:"hash"`
	Version     string          `json:"version"`
	Description string          `json:"description"`
	Template    json.RawMessage `json:"template"`
}

func (h *Handlers) process(ctx context.Context, u *dispatch.Unit, data []byte) (interface{}, error) {
	var arguments processArguments
	if nil == data || nil != jsoncodec.Unmarshal(data, &arguments) || nil == arguments.Base64Tx {
		return nil, fault.MissingParameters
	}
	if nil != arguments.CreateTs && (*arguments.CreateTs > maxSafeInteger || *arguments.CreateTs < -maxSafeInteger) {
		return nil, fault.MissingParameters
	}
	tx, err := base64.StdEncoding.DecodeString(*arguments.Base64Tx)
	if nil != err {
		return nil, fault.MissingParameters
	}

	envelope, err := transaction.ParseEnvelope(tx)
	if nil != err {
		return nil, err
	}

	err = h.store.InsertTransaction(ctx, envelope, arguments.CreateTs)
	if fault.TransactionExists == err {
		return nil, err
	}
	if nil != err {
		h.log.Warnf("failed to store transaction: %s", report.Scrub(err.Error()))
		return nil, fault.StoreTransactionFailed
	}
	return nil, nil
}

func (h *Handlers) contracts(ctx context.Context, u *dispatch.Unit, data []byte) (interface{}, error) {
	if cached, ok := h.cache.Get(contractsKey); ok {
		return cached, nil
	}

	rows, err := h.store.Contracts(ctx)
	if nil != err {
		h.log.Warnf("failed to retrieve contracts: %s", report.Scrub(err.Error()))
		return nil, fault.ContractsRetrieveFailed
	}

	contracts := make([]Contract, 0, len(rows))
	for _, row := range rows {
		contracts = append(contracts, Contract{
			Type:        row.Type,
			Hash:        hex.EncodeToString(row.Hash),
			Version:     row.Version,
			Description: row.Description,
			Template:    json.RawMessage(row.Template),
		})
	}
	h.cache.Set(contractsKey, contracts, cache.DefaultExpiration)
	return contracts, nil
}

// decode the transaction request and its binary id
func parseTxArguments(data []byte) (id []byte, push bool, err error) {
	var arguments txArguments
	if nil == data || nil != jsoncodec.Unmarshal(data, &arguments) || nil == arguments.TxID {
		return nil, false, fault.MissingParameters
	}
	id, err = hex.DecodeString(*arguments.TxID)
	if nil != err {
		return nil, false, fault.MissingParameters
	}
	return id, nil != arguments.Push && *arguments.Push, nil
}

func (h *Handlers) transaction(ctx context.Context, u *dispatch.Unit, data []byte) (interface{}, error) {
	id, push, err := parseTxArguments(data)
	if nil != err {
		return nil, err
	}

	r, err := h.store.Transaction(ctx, id)
	if nil != err {
		h.log.Warnf("failed to retrieve transaction: %s", report.Scrub(err.Error()))
		return nil, fault.TransactionRetrieveFailed
	}

	if nil == r || !r.Status.IsFinal() {
		if push {
			h.watcher.AddListener(u, notifier.TransactionKey(id))
		}
		return nil, nil
	}
	return r.Response(), nil
}

func (h *Handlers) txStatus(ctx context.Context, u *dispatch.Unit, data []byte) (interface{}, error) {
	id, push, err := parseTxArguments(data)
	if nil != err {
		return nil, err
	}

	status, found, err := h.store.TransactionStatus(ctx, id)
	if nil != err {
		h.log.Warnf("failed to retrieve transaction status: %s", report.Scrub(err.Error()))
		return nil, fault.TransactionStatusFailed
	}

	if !found || !status.IsFinal() {
		if push {
			h.watcher.AddListener(u, notifier.TransactionKey(id))
		}
		return nil, nil
	}
	return status, nil
}

func (h *Handlers) time(ctx context.Context, u *dispatch.Unit, data []byte) (interface{}, error) {
	ts, found, err := h.store.LatestBlockTime(ctx)
	if nil != err {
		h.log.Warnf("unable to retrieve latest block: %s", report.Scrub(err.Error()))
		return nil, fault.BlockRetrieveFailed
	}
	if !found {
		return nil, fault.BlocksNotFound
	}
	return ts, nil
}
