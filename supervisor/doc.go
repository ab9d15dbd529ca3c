// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package supervisor - keeps a set of worker processes alive
//
// All supervisor state is owned by the goroutine running Run; process
// exits, worker messages, timers and shutdown requests arrive as events.
//
// restart rules:
//
//   exit code 50..59       restart after BackoffDelay (30s)
//   any other exit         restart after RestartDelay (1s)
//   during shutdown        never restarted
//
// A worker reporting more memory than the ceiling, or missing three
// consecutive health checks, is asked to shut down and killed if it is
// still running HardKillDelay (10s) later.
package supervisor
