// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package zmqutil_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/ledgerd/fault"
	"github.com/bitmark-inc/ledgerd/fixtures"
	"github.com/bitmark-inc/ledgerd/zmqutil"
)

func TestMain(m *testing.M) {
	fixtures.SetupTestLogger()
	rc := m.Run()
	fixtures.TeardownTestLogger()
	os.Exit(rc)
}

func receive(t *testing.T, c *zmqutil.Channel) [][]byte {
	select {
	case frames := <-c.Incoming():
		return frames
	case <-time.After(5 * time.Second):
		t.Fatal("nothing received")
	}
	return nil
}

func TestRouterDealer(t *testing.T) {
	log := logger.New(fixtures.LogCategory)
	endpoint := "ipc://" + filepath.Join(t.TempDir(), "test.ipc")

	router, err := zmqutil.NewRouter(log, endpoint)
	require.Nil(t, err, "router")
	defer router.Close()

	dealer, err := zmqutil.NewDealer(log, endpoint, "worker-1")
	require.Nil(t, err, "dealer")
	defer dealer.Close()

	require.Nil(t, dealer.Send([]byte("report")), "dealer send")
	frames := receive(t, router)
	require.Equal(t, 2, len(frames), "frame count")
	assert.Equal(t, "worker-1", string(frames[0]), "identity")
	assert.Equal(t, "report", string(frames[1]), "payload")

	require.Nil(t, router.Send([]byte("worker-1"), []byte("shutdown")), "router send")
	frames = receive(t, dealer)
	assert.Equal(t, [][]byte{[]byte("shutdown")}, frames, "dealer received")
}

func TestRouterUnknownPeer(t *testing.T) {
	log := logger.New(fixtures.LogCategory)
	endpoint := "ipc://" + filepath.Join(t.TempDir(), "test.ipc")

	router, err := zmqutil.NewRouter(log, endpoint)
	require.Nil(t, err, "router")
	defer router.Close()

	assert.NotNil(t, router.Send([]byte("worker-9"), []byte("shutdown")), "send to unknown peer")
}

func TestSendAfterClose(t *testing.T) {
	log := logger.New(fixtures.LogCategory)
	endpoint := "ipc://" + filepath.Join(t.TempDir(), "test.ipc")

	router, err := zmqutil.NewRouter(log, endpoint)
	require.Nil(t, err, "router")
	router.Close()
	router.Close()

	assert.Equal(t, fault.WorkerChannelNotConnected, router.Send([]byte("x")), "send after close")
	_, ok := <-router.Incoming()
	assert.False(t, ok, "incoming still open")
}
