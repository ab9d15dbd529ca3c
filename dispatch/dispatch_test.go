// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package dispatch_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/ledgerd/dispatch"
	"github.com/bitmark-inc/ledgerd/fault"
	"github.com/bitmark-inc/ledgerd/transaction"
)

type pushed struct {
	pushType string
	data     interface{}
}

type testPusher struct {
	pushes []pushed
}

func (p *testPusher) SendPush(u *dispatch.Unit, pushType string, data interface{}) error {
	p.pushes = append(p.pushes, pushed{pushType, data})
	return nil
}

func echo(ctx context.Context, u *dispatch.Unit, data []byte) (interface{}, error) {
	return string(data), nil
}

func TestDispatch(t *testing.T) {
	u := dispatch.NewUnit("v1", nil, "conn")
	u.RegisterMessageHandler("echo", echo)

	result, err := u.Dispatch(context.Background(), "echo", []byte(`{"a":1}`))
	assert.Nil(t, err, "dispatch error")
	assert.Equal(t, `{"a":1}`, result, "wrong result")

	_, err = u.Dispatch(context.Background(), "missing", nil)
	assert.True(t, fault.IsErrUnknownType(err), "unknown type not reported")
	assert.Equal(t, "Invalid type: missing", err.Error(), "wrong message")

	assert.Equal(t, "v1", u.Version(), "version")
	assert.Equal(t, "conn", u.Client(), "client")
}

func TestReregisterOverwrites(t *testing.T) {
	u := dispatch.NewUnit("v1", nil, nil)
	u.RegisterMessageHandler("x", echo)
	u.RegisterMessageHandler("x", func(ctx context.Context, u *dispatch.Unit, data []byte) (interface{}, error) {
		return nil, errors.New("second")
	})

	_, err := u.Dispatch(context.Background(), "x", nil)
	assert.Equal(t, "second", err.Error(), "handler not replaced")
}

func TestHandlerSeesUnit(t *testing.T) {
	u := dispatch.NewUnit("v1", nil, "client-7")
	u.RegisterMessageHandler("who", func(ctx context.Context, u *dispatch.Unit, data []byte) (interface{}, error) {
		return u.Client(), nil
	})

	result, _ := u.Dispatch(context.Background(), "who", nil)
	assert.Equal(t, "client-7", result, "handler not bound to unit")
}

func TestUpdateHandlers(t *testing.T) {
	p := &testPusher{}
	u := dispatch.NewUnit("v1", p, nil)

	var reasons []transaction.UpdateReason
	u.RegisterUpdateHandler(func(u *dispatch.Unit, r *transaction.Record, reason transaction.UpdateReason) {
		reasons = append(reasons, reason)
	})
	u.RegisterUpdateHandler(func(u *dispatch.Unit, r *transaction.Record, reason transaction.UpdateReason) {
		_ = u.Push("transaction", string(r.ID))
	})

	u.ReceiveUpdate(&transaction.Record{ID: []byte("t1")}, transaction.ReasonAddress)

	assert.Equal(t, []transaction.UpdateReason{transaction.ReasonAddress}, reasons, "update handler not called")
	assert.Equal(t, []pushed{{"transaction", "t1"}}, p.pushes, "push not forwarded")
}

func TestPushWithoutPusher(t *testing.T) {
	u := dispatch.NewUnit("v1", nil, nil)
	assert.Equal(t, fault.PushNotSupported, u.Push("x", nil), "push accepted")
}

func TestTerminate(t *testing.T) {
	u := dispatch.NewUnit("v1", nil, nil)

	var order []int
	u.RegisterTerminationHandler(func(*dispatch.Unit) { order = append(order, 1) })
	u.RegisterTerminationHandler(func(*dispatch.Unit) { order = append(order, 2) })

	u.Terminate()
	u.Terminate()

	assert.Equal(t, []int{1, 2}, order, "wrong termination order or repeated")
}

func TestTerminatedRefusesDispatch(t *testing.T) {
	u := dispatch.NewUnit("v1", nil, nil)
	u.RegisterMessageHandler("echo", echo)

	seen := false
	u.RegisterTerminationHandler(func(u *dispatch.Unit) { seen = u.Terminated() })

	assert.False(t, u.Terminated(), "terminated before Terminate")
	_, err := u.Dispatch(context.Background(), "echo", nil)
	assert.Nil(t, err, "dispatch before Terminate")

	u.Terminate()

	assert.True(t, seen, "not marked before termination handlers")
	assert.True(t, u.Terminated(), "not terminated")
	_, err = u.Dispatch(context.Background(), "echo", nil)
	assert.Equal(t, fault.ConnectionClosed, err, "dispatch after Terminate")
}

func TestFactory(t *testing.T) {
	base := func(u *dispatch.Unit) {
		u.RegisterMessageHandler("a", echo)
		u.RegisterMessageHandler("b", echo)
	}
	extra := func(u *dispatch.Unit) {
		u.RegisterMessageHandler("b", func(ctx context.Context, u *dispatch.Unit, data []byte) (interface{}, error) {
			return "extended", nil
		})
	}

	f := dispatch.NewFactory("v2", base)
	g := f.With(extra)

	u := f.New(nil, nil)
	result, _ := u.Dispatch(context.Background(), "b", []byte("x"))
	assert.Equal(t, "x", result, "base factory modified")

	u = g.New(nil, nil)
	result, _ = u.Dispatch(context.Background(), "b", nil)
	assert.Equal(t, "extended", result, "later capability did not win")
	result, _ = u.Dispatch(context.Background(), "a", []byte("y"))
	assert.Equal(t, "y", result, "base capability lost")
	assert.Equal(t, "v2", u.Version(), "version")
}

func TestRegistry(t *testing.T) {
	constructors := map[string]dispatch.Constructor{
		"basic": func() []dispatch.Capability {
			return []dispatch.Capability{func(u *dispatch.Unit) { u.RegisterMessageHandler("time", echo) }}
		},
	}

	r, err := dispatch.NewRegistry(map[string]string{"v1": "basic"}, constructors)
	assert.Nil(t, err, "registry error")

	f, ok := r.Lookup("v1")
	assert.True(t, ok, "v1 missing")
	assert.Equal(t, "v1", f.Version(), "wrong version")

	_, ok = r.Lookup("v2")
	assert.False(t, ok, "v2 present")

	_, err = dispatch.NewRegistry(map[string]string{"v1": "surf"}, constructors)
	assert.True(t, errors.Is(err, fault.APINameUnknown), "unknown constructor accepted")
}
