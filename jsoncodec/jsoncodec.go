// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package jsoncodec - JSON encoding for every wire format of the daemon
package jsoncodec

import (
	"io"

	"github.com/bytedance/sonic"
)

var defaultConfig = sonic.ConfigStd

// Marshal - encode a value
func Marshal(v interface{}) ([]byte, error) {
	return defaultConfig.Marshal(v)
}

// Unmarshal - decode into a value
func Unmarshal(data []byte, v interface{}) error {
	return defaultConfig.Unmarshal(data, v)
}

// Valid - check that data is a single well formed JSON value
func Valid(data []byte) bool {
	return defaultConfig.Valid(data)
}

// Encode - write a value followed by a newline
func Encode(w io.Writer, v interface{}) error {
	return defaultConfig.NewEncoder(w).Encode(v)
}
