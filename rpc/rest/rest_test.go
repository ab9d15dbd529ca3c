// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rest_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/ledgerd/api/basic"
	"github.com/bitmark-inc/ledgerd/api/basic/mocks"
	"github.com/bitmark-inc/ledgerd/dispatch"
	"github.com/bitmark-inc/ledgerd/fault"
	"github.com/bitmark-inc/ledgerd/fixtures"
	"github.com/bitmark-inc/ledgerd/jsoncodec"
	"github.com/bitmark-inc/ledgerd/notifier"
	"github.com/bitmark-inc/ledgerd/rpc/rest"
)

type testRegistry map[string]*dispatch.Factory

func (r testRegistry) Lookup(version string) (*dispatch.Factory, bool) {
	f, ok := r[version]
	return f, ok
}

// echo returns its request data, fail returns an error, push tries to push
func testCapability(terminated chan<- struct{}) dispatch.Capability {
	return func(u *dispatch.Unit) {
		u.RegisterMessageHandler("echo", func(ctx context.Context, u *dispatch.Unit, data []byte) (interface{}, error) {
			if nil == data {
				return nil, nil
			}
			var v interface{}
			_ = jsoncodec.Unmarshal(data, &v)
			return v, nil
		})
		u.RegisterMessageHandler("fail", func(ctx context.Context, u *dispatch.Unit, data []byte) (interface{}, error) {
			return nil, fault.ContractsRetrieveFailed
		})
		u.RegisterMessageHandler("push", func(ctx context.Context, u *dispatch.Unit, data []byte) (interface{}, error) {
			return "done", u.Push("all", "data")
		})
		u.RegisterTerminationHandler(func(u *dispatch.Unit) {
			select {
			case terminated <- struct{}{}:
			default:
			}
		})
	}
}

func TestMain(m *testing.M) {
	fixtures.SetupTestLogger()
	rc := m.Run()
	fixtures.TeardownTestLogger()
	os.Exit(rc)
}

func setup(t *testing.T) (*httptest.Server, chan struct{}) {
	terminated := make(chan struct{}, 1)
	h := rest.New(rest.Configuration{Address: "127.0.0.1:0"}, testRegistry{
		"v1": dispatch.NewFactory("v1", testCapability(terminated)),
	})
	return httptest.NewServer(h), terminated
}

func do(t *testing.T, method string, target string, body io.Reader) (int, string, http.Header) {
	request, err := http.NewRequest(method, target, body)
	require.Nil(t, err, "new request")
	response, err := http.DefaultClient.Do(request)
	require.Nil(t, err, "request")
	defer response.Body.Close()
	buffer, _ := io.ReadAll(response.Body)
	return response.StatusCode, string(buffer), response.Header
}

func TestCORSOptions(t *testing.T) {
	server, _ := setup(t)
	defer server.Close()

	status, body, header := do(t, http.MethodOptions, server.URL+"/v1/echo", nil)
	assert.Equal(t, http.StatusOK, status, "status")
	assert.Equal(t, "", body, "body")
	assert.Equal(t, "*", header.Get("Access-Control-Allow-Origin"), "origin")
	assert.Equal(t, "POST, GET", header.Get("Access-Control-Allow-Methods"), "methods")
	assert.Equal(t, "origin, content-type, accept", header.Get("Access-Control-Allow-Headers"), "headers")
	assert.Equal(t, "86400", header.Get("Access-Control-Max-Age"), "max age")
}

func TestErrors(t *testing.T) {
	server, _ := setup(t)
	defer server.Close()

	items := []struct {
		method string
		path   string
		body   string
		status int
		text   string
	}{
		{http.MethodGet, "/", "", http.StatusBadRequest, "Missing api version or request type."},
		{http.MethodGet, "/v1", "", http.StatusBadRequest, "Missing api version or request type."},
		{http.MethodGet, "/v9/echo", "", http.StatusNotImplemented, "Api version missing or not supported."},
		{http.MethodPut, "/v1/echo", "", http.StatusMethodNotAllowed, "Invalid request method."},
		{http.MethodGet, "/v1/echo?" + url.PathEscape("{bad"), "", http.StatusBadRequest, "Invalid request json."},
		{http.MethodPost, "/v1/echo", "{bad", http.StatusBadRequest, "Invalid request json."},
		{http.MethodPost, "/v1/fail", "", http.StatusInternalServerError, "Failed to retrieve contracts."},
		{http.MethodPost, "/v1/missing", "", http.StatusInternalServerError, "Invalid type: missing"},
	}
	for i, item := range items {
		var body io.Reader
		if "" != item.body {
			body = strings.NewReader(item.body)
		}
		status, text, header := do(t, item.method, server.URL+item.path, body)
		assert.Equal(t, item.status, status, "%d: status", i)
		assert.Equal(t, item.text, text, "%d: text", i)
		assert.Equal(t, "*", header.Get("Access-Control-Allow-Origin"), "%d: cors", i)
	}
}

func TestGetQuery(t *testing.T) {
	server, terminated := setup(t)
	defer server.Close()

	query := url.PathEscape(`{"txId":"ab cd"}`)
	status, body, header := do(t, http.MethodGet, server.URL+"/prefix/v1/echo?"+query, nil)
	assert.Equal(t, http.StatusOK, status, "status")
	assert.Equal(t, `{"txId":"ab cd"}`, body, "body")
	assert.Equal(t, "application/json", header.Get("Content-Type"), "content type")

	select {
	case <-terminated:
	case <-time.After(time.Second):
		t.Error("unit not terminated after response")
	}
}

func TestPostBody(t *testing.T) {
	server, _ := setup(t)
	defer server.Close()

	status, body, _ := do(t, http.MethodPost, server.URL+"/v1/echo", strings.NewReader(`[1,2,3]`))
	assert.Equal(t, http.StatusOK, status, "status")
	assert.Equal(t, `[1,2,3]`, body, "body")

	status, body, _ = do(t, http.MethodPost, server.URL+"/v1/echo", nil)
	assert.Equal(t, http.StatusOK, status, "empty status")
	assert.Equal(t, "", body, "empty body")
}

func TestPayloadTooLarge(t *testing.T) {
	server, _ := setup(t)
	defer server.Close()

	large := `"` + strings.Repeat("x", rest.MaximumBodySize) + `"`
	status, body, _ := do(t, http.MethodPost, server.URL+"/v1/echo", strings.NewReader(large))
	assert.Equal(t, http.StatusRequestEntityTooLarge, status, "status")
	assert.Equal(t, "Payload too large.", body, "body")
}

func TestPushIsAnError(t *testing.T) {
	server, _ := setup(t)
	defer server.Close()

	status, body, _ := do(t, http.MethodGet, server.URL+"/v1/push", nil)
	assert.Equal(t, http.StatusInternalServerError, status, "status")
	assert.Equal(t, fault.PushNotSupported.Error(), body, "body")
}

func TestShortTransaction(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	store := mocks.NewMockStore(ctl)
	store.EXPECT().LatestBlockTime(gomock.Any()).Return(int64(42), true, nil).Times(1)

	n := notifier.New(nil, time.Second, nil)
	h := rest.New(rest.Configuration{Address: "127.0.0.1:0"}, testRegistry{
		"v1": dispatch.NewFactory("v1", basic.New(store, n).Capability),
	})
	server := httptest.NewServer(h)
	defer server.Close()

	transport := &http.Transport{MaxConnsPerHost: 1}
	client := &http.Client{Transport: transport}
	defer transport.CloseIdleConnections()

	tx := base64.StdEncoding.EncodeToString(make([]byte, 100))
	response, err := client.Post(server.URL+"/v1/process", "application/json", bytes.NewBufferString(`{"base64tx":"`+tx+`"}`))
	require.Nil(t, err, "post")
	body, _ := io.ReadAll(response.Body)
	response.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, response.StatusCode, "status")
	assert.Equal(t, "Invalid transaction format.", string(body), "body")

	// the same connection serves the next request
	response, err = client.Get(server.URL + "/v1/time")
	require.Nil(t, err, "get")
	body, _ = io.ReadAll(response.Body)
	response.Body.Close()
	assert.Equal(t, http.StatusOK, response.StatusCode, "status")
	assert.Equal(t, "42", string(body), "body")
}

func TestListenAndShutdown(t *testing.T) {
	h := rest.New(rest.Configuration{Address: "127.0.0.1:0"}, testRegistry{
		"v1": dispatch.NewFactory("v1", testCapability(make(chan struct{}, 1))),
	})
	h.Start()
	require.NotNil(t, h.Addr(), "not listening")

	status, body, _ := do(t, http.MethodPost, "http://"+h.Addr().String()+"/v1/echo", strings.NewReader(`"hi"`))
	assert.Equal(t, http.StatusOK, status, "status")
	assert.Equal(t, `"hi"`, body, "body")

	assert.Nil(t, h.Shutdown(true), "shutdown")
	assert.Nil(t, h.Shutdown(true), "repeated shutdown")
	assert.Equal(t, 0, h.InFlight(), "in flight")
}
