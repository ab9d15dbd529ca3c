// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package jsoncodec_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/ledgerd/jsoncodec"
)

type frame struct {
	ID   string          `json:"id,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

func TestRawMessagePassThrough(t *testing.T) {
	var f frame
	err := jsoncodec.Unmarshal([]byte(`{"id":"7","data":{"txId":"ab"}}`), &f)
	assert.Nil(t, err, "unmarshal error")
	assert.Equal(t, "7", f.ID, "wrong id")
	assert.JSONEq(t, `{"txId":"ab"}`, string(f.Data), "wrong data")

	out, err := jsoncodec.Marshal(frame{ID: "8"})
	assert.Nil(t, err, "marshal error")
	assert.Equal(t, `{"id":"8"}`, string(out), "empty data not omitted")
}

func TestValid(t *testing.T) {
	assert.True(t, jsoncodec.Valid([]byte(`{"a":[1,2]}`)), "object rejected")
	assert.False(t, jsoncodec.Valid([]byte(`{"a":`)), "truncated accepted")
}

func TestEncode(t *testing.T) {
	buf := &bytes.Buffer{}
	assert.Nil(t, jsoncodec.Encode(buf, map[string]int{"x": 1}), "encode error")
	assert.Equal(t, "{\"x\":1}\n", buf.String(), "wrong encoding")
}
