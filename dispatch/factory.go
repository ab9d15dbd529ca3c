// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package dispatch

import (
	"fmt"

	"github.com/bitmark-inc/ledgerd/fault"
)

// Capability - adds a set of handlers to a new unit
type Capability func(u *Unit)

// Factory - builds units for one API version
type Factory struct {
	version      string
	capabilities []Capability
}

// NewFactory - capabilities are applied in order so a later one may
// replace a message handler registered by an earlier one
func NewFactory(version string, capabilities ...Capability) *Factory {
	return &Factory{
		version:      version,
		capabilities: append([]Capability(nil), capabilities...),
	}
}

// With - a new factory with extra capabilities appended
func (f *Factory) With(capabilities ...Capability) *Factory {
	all := make([]Capability, 0, len(f.capabilities)+len(capabilities))
	all = append(all, f.capabilities...)
	all = append(all, capabilities...)
	return &Factory{
		version:      f.version,
		capabilities: all,
	}
}

// Version - API version served by this factory
func (f *Factory) Version() string {
	return f.version
}

// New - a unit with every capability applied
func (f *Factory) New(pusher Pusher, client interface{}) *Unit {
	u := NewUnit(f.version, pusher, client)
	for _, c := range f.capabilities {
		c(u)
	}
	return u
}

// Constructor - named API: the capabilities for a version
type Constructor func() []Capability

// Registry - API version to factory, built once at start
type Registry struct {
	factories map[string]*Factory
}

// NewRegistry - resolve every configured version (version → constructor
// name) against the available constructors
func NewRegistry(api map[string]string, constructors map[string]Constructor) (*Registry, error) {
	r := &Registry{
		factories: make(map[string]*Factory, len(api)),
	}
	for version, name := range api {
		constructor, ok := constructors[name]
		if !ok {
			return nil, fmt.Errorf("api %q: %q: %w", version, name, fault.APINameUnknown)
		}
		r.factories[version] = NewFactory(version, constructor()...)
	}
	return r, nil
}

// Lookup - factory for a version
func (r *Registry) Lookup(version string) (*Factory, bool) {
	f, ok := r.factories[version]
	return f, ok
}
