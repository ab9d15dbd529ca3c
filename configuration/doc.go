// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package configuration - daemon settings
//
// Settings are read from a Lua file (most of base Lua is available
// such as os.getenv), then from a .env file and LEDGERD_* environment
// variables which take precedence.  The result is validated once and
// must be treated as read only.
package configuration
