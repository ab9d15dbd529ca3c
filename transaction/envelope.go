// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package transaction

import (
	"encoding/binary"
	"math"
	"strings"

	"github.com/bitmark-inc/ledgerd/fault"
)

// envelope layout
const (
	versionOffset      = 4
	idOffset           = 5
	contractHashOffset = 21
	validTillOffset    = 53
	payloadOffset      = 61

	IDLength           = contractHashOffset - idOffset
	ContractHashLength = validTillOffset - contractHashOffset
	SignatureLength    = 64
	PublicKeyLength    = 33

	trailerLength = SignatureLength + PublicKeyLength

	MinimumEnvelopeLength = payloadOffset + trailerLength
	MaximumEnvelopeLength = MinimumEnvelopeLength + 100000
)

// Envelope - a client submitted transaction split into its fields
type Envelope struct {
	Version      byte
	ID           []byte
	ContractHash []byte
	ValidTill    int64
	Payload      string
	Signature    []byte
	PublicKey    []byte
}

// ParseEnvelope - split a binary transaction at its fixed offsets
//
// the first four bytes are not interpreted; invalid UTF-8 in the payload
// is replaced, not rejected
func ParseEnvelope(tx []byte) (*Envelope, error) {
	n := len(tx)
	if n < MinimumEnvelopeLength || n > MaximumEnvelopeLength {
		return nil, fault.InvalidTransactionFormat
	}

	// the store column is a signed bigint
	validTill := binary.BigEndian.Uint64(tx[validTillOffset:payloadOffset])
	if validTill > math.MaxInt64 {
		return nil, fault.InvalidTransactionFormat
	}

	payload := strings.ToValidUTF8(string(tx[payloadOffset:n-trailerLength]), "\uFFFD")

	return &Envelope{
		Version:      tx[versionOffset],
		ID:           clone(tx[idOffset:contractHashOffset]),
		ContractHash: clone(tx[contractHashOffset:validTillOffset]),
		ValidTill:    int64(validTill),
		Payload:      payload,
		Signature:    clone(tx[n-trailerLength : n-PublicKeyLength]),
		PublicKey:    clone(tx[n-PublicKeyLength:]),
	}, nil
}

func clone(b []byte) []byte {
	c := make([]byte, len(b))
	copy(c, b)
	return c
}
