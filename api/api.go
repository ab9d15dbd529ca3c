// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package api - the named API constructors a configuration may
// assign to an API version
package api

import (
	"sort"

	"github.com/bitmark-inc/ledgerd/api/basic"
	"github.com/bitmark-inc/ledgerd/api/push"
	"github.com/bitmark-inc/ledgerd/dispatch"
	"github.com/bitmark-inc/ledgerd/notifier"
)

// constructor names
const (
	Basic = "basic"
	Push  = "push"
)

// Names - every constructor a configuration may refer to
func Names() []string {
	names := []string{Basic, Push}
	sort.Strings(names)
	return names
}

// Constructors - the capability sets for each name, sharing one store
// and one notifier
func Constructors(store basic.Store, n *notifier.Notifier) map[string]dispatch.Constructor {
	b := basic.New(store, n)
	p := push.New(n)
	return map[string]dispatch.Constructor{
		Basic: func() []dispatch.Capability {
			return []dispatch.Capability{b.Capability}
		},
		Push: func() []dispatch.Capability {
			return []dispatch.Capability{b.Capability, p.Capability}
		},
	}
}
