// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package transaction - ledger transaction records as stored by the
// processor, the binary envelope submitted by clients and the shape
// returned to clients
package transaction
