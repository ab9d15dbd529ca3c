// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package worker - one worker process of the cluster
//
// A worker owns a transaction notifier, the REST and websocket
// protocol handlers for the configured ports and, when TLS is enabled,
// a certificate watcher. It reports its memory use to the supervisor
// after each poll and shuts down on SIGINT, SIGTERM or the
// supervisor's shutdown message, whichever comes first.
package worker
