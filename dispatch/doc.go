// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package dispatch - per connection or per request routing units
//
// A Unit is created by a protocol handler for each websocket
// connection or REST request.  An API version is a Factory: an
// ordered list of capabilities, each of which registers message,
// update and termination handlers on a freshly created unit.
package dispatch
