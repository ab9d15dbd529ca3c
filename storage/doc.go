// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package storage - read and insert access to the ledger tables
//
// The tables are populated by a separate processor; this daemon only
// inserts new client transactions and reads everything else.  The
// database handle is opened on first use and discarded after a
// connection level error so the next query reconnects.
package storage
