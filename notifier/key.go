// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package notifier

import (
	"encoding/hex"
)

type keyKind int

const (
	transactionKind keyKind = iota
	addressKind
	globalKind
)

// Key - what a listener is waiting for
//
// kinds are kept apart so an address can never collide with the
// string form of a transaction id
type Key struct {
	kind  keyKind
	value string
}

// GlobalKey - matches every transaction
var GlobalKey = Key{kind: globalKind}

// TransactionKey - one shot watch on a single transaction id
func TransactionKey(id []byte) Key {
	return Key{kind: transactionKind, value: hex.EncodeToString(id)}
}

// AddressKey - persistent watch on a sender or receiver address
func AddressKey(address string) Key {
	return Key{kind: addressKind, value: address}
}

func (k Key) String() string {
	switch k.kind {
	case transactionKind:
		return "transaction:" + k.value
	case addressKind:
		return "address:" + k.value
	default:
		return "global"
	}
}
