// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package api_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/ledgerd/api"
	"github.com/bitmark-inc/ledgerd/api/basic/mocks"
	"github.com/bitmark-inc/ledgerd/api/push"
	"github.com/bitmark-inc/ledgerd/dispatch"
	"github.com/bitmark-inc/ledgerd/fault"
	"github.com/bitmark-inc/ledgerd/fixtures"
	"github.com/bitmark-inc/ledgerd/notifier"
)

func TestMain(m *testing.M) {
	fixtures.SetupTestLogger()
	rc := m.Run()
	fixtures.TeardownTestLogger()
	os.Exit(rc)
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"basic", "push"}, api.Names(), "names")
}

func TestRegistry(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	n := notifier.New(nil, time.Second, nil)
	constructors := api.Constructors(mocks.NewMockStore(ctl), n)

	registry, err := dispatch.NewRegistry(map[string]string{"v1": "basic", "v2": "push"}, constructors)
	assert.Nil(t, err, "registry error")

	v1, ok := registry.Lookup("v1")
	assert.True(t, ok, "v1 missing")
	_, err = v1.New(nil, nil).Dispatch(context.Background(), push.AllPushRequest, nil)
	assert.True(t, fault.IsErrUnknownType(err), "basic api answered allPush")

	v2, ok := registry.Lookup("v2")
	assert.True(t, ok, "v2 missing")
	_, err = v2.New(nil, nil).Dispatch(context.Background(), push.AllPushRequest, nil)
	assert.Nil(t, err, "push api allPush error")
	assert.Equal(t, 1, n.ListenerCount(notifier.GlobalKey), "global listener")

	_, ok = registry.Lookup("v3")
	assert.False(t, ok, "v3 found")
}

func TestRegistryUnknownName(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	constructors := api.Constructors(mocks.NewMockStore(ctl), notifier.New(nil, time.Second, nil))
	_, err := dispatch.NewRegistry(map[string]string{"v1": "surf"}, constructors)
	assert.True(t, errors.Is(err, fault.APINameUnknown), "wrong error: %v", err)
}
