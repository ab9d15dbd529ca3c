// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package transaction

import (
	"encoding/hex"
)

// Record - one row of the transactions table
//
// the processed fields are all nil until the processor finalises the row
type Record struct {
	ID           []byte
	Version      int
	ContractHash []byte
	ValidTill    int64
	Payload      string
	PublicKey    []byte
	Signature    []byte
	Status       Status
	CreateTs     *int64

	Sender          *string
	ContractType    *string
	Message         *string
	BlockID         *int64
	PositionInBlock *int64
	ProcessedTs     *int64
	Receiver        *string
	Extra1          *string
	Extra2          *string
}

// Response - the client facing form of a record
type Response struct {
	ID           string `json:"id"`
	Version      int    `json:"version"`
	ContractHash string `json:"contractHash"`
	ValidTill    int64  `json:"validTill"`
	Payload      string `json:"payload"`
	PublicKey    string `json:"publicKey"`
	Signature    string `json:"signature"`
	Status       Status `json:"status"`
	CreateTs     *int64 `json:"createTs"`

	Sender          *string `json:"sender"`
	ContractType    *string `json:"contractType"`
	Message         *string `json:"message"`
	BlockID         *int64  `json:"blockId"`
	PositionInBlock *int64  `json:"positionInBlock"`
	ProcessedTs     *int64  `json:"processedTs"`
	Receiver        *string `json:"receiver"`
	Extra1          *string `json:"extra1"`
	Extra2          *string `json:"extra2"`
}

// Response - convert binary fields to hex for clients
func (r *Record) Response() *Response {
	return &Response{
		ID:              hex.EncodeToString(r.ID),
		Version:         r.Version,
		ContractHash:    hex.EncodeToString(r.ContractHash),
		ValidTill:       r.ValidTill,
		Payload:         r.Payload,
		PublicKey:       hex.EncodeToString(r.PublicKey),
		Signature:       hex.EncodeToString(r.Signature),
		Status:          r.Status,
		CreateTs:        r.CreateTs,
		Sender:          r.Sender,
		ContractType:    r.ContractType,
		Message:         r.Message,
		BlockID:         r.BlockID,
		PositionInBlock: r.PositionInBlock,
		ProcessedTs:     r.ProcessedTs,
		Receiver:        r.Receiver,
		Extra1:          r.Extra1,
		Extra2:          r.Extra2,
	}
}
