// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package transaction_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/ledgerd/jsoncodec"
	"github.com/bitmark-inc/ledgerd/transaction"
)

func TestStatusIsFinal(t *testing.T) {
	items := []struct {
		status transaction.Status
		final  bool
	}{
		{transaction.New, false},
		{transaction.ProcessingAccepted, false},
		{transaction.ProcessingRejected, false},
		{transaction.Invalid, true},
		{transaction.Accepted, true},
		{transaction.Rejected, true},
	}
	for _, item := range items {
		assert.Equal(t, item.final, item.status.IsFinal(), "status: %s", item.status)
	}
}

func TestResponse(t *testing.T) {
	ts := int64(1500)
	sender := "alice"
	r := &transaction.Record{
		ID:           []byte{0xab, 0xcd},
		Version:      1,
		ContractHash: []byte{0x01},
		ValidTill:    0,
		Payload:      "{}",
		PublicKey:    []byte{0x02},
		Signature:    []byte{0x03},
		Status:       transaction.Accepted,
		Sender:       &sender,
		ProcessedTs:  &ts,
	}

	buffer, err := jsoncodec.Marshal(r.Response())
	assert.Nil(t, err, "marshal error")
	assert.JSONEq(t, `{
		"id":"abcd","version":1,"contractHash":"01","validTill":0,"payload":"{}",
		"publicKey":"02","signature":"03","status":"accepted","createTs":null,
		"sender":"alice","contractType":null,"message":null,"blockId":null,
		"positionInBlock":null,"processedTs":1500,"receiver":null,"extra1":null,"extra2":null
	}`, string(buffer), "wrong response")
}
