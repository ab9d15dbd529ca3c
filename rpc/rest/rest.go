// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package rest - request/response protocol handler
//
//   GET  /{version}/{type}[?{url-encoded json}]
//   POST /{version}/{type}  with a json body
//
// Every request gets its own dispatch unit which is terminated as soon
// as the response is written. Pushes are not possible.
package rest

import (
	"crypto/tls"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/bitmark-inc/logger"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/bitmark-inc/ledgerd/dispatch"
	"github.com/bitmark-inc/ledgerd/fault"
	"github.com/bitmark-inc/ledgerd/jsoncodec"
	"github.com/bitmark-inc/ledgerd/report"
	"github.com/bitmark-inc/ledgerd/rpc/listeners"
)

// MaximumBodySize - larger POST bodies are refused
const MaximumBodySize = 1000000

// Registry - API version lookup
type Registry interface {
	Lookup(version string) (*dispatch.Factory, bool)
}

// Configuration - listening parameters
type Configuration struct {
	Address string
	TLS     *tls.Config
}

// Handler - the REST protocol handler
type Handler struct {
	log      *logger.L
	versions Registry
	inFlight *xsync.MapOf[*dispatch.Unit, struct{}]
	server   *listeners.Server
}

// New - handler for the given versions; call Start to listen
func New(configuration Configuration, versions Registry) *Handler {
	h := &Handler{
		log:      logger.New("rest"),
		versions: versions,
		inFlight: xsync.NewMapOf[*dispatch.Unit, struct{}](),
	}
	h.server = listeners.New(listeners.Configuration{
		Name:         "rest",
		Address:      configuration.Address,
		TLS:          configuration.TLS,
		Handler:      h,
		CloseClients: h.terminateAll,
	})
	return h
}

// Start - begin listening
func (h *Handler) Start() {
	h.server.Start()
}

// Addr - bound address, nil while not listening
func (h *Handler) Addr() net.Addr {
	return h.server.Addr()
}

// Shutdown - stop listening and terminate in-flight units
func (h *Handler) Shutdown(permanent bool) error {
	return h.server.Shutdown(permanent)
}

// InFlight - number of requests being processed
func (h *Handler) InFlight() int {
	return h.inFlight.Size()
}

func (h *Handler) terminateAll() {
	h.inFlight.Range(func(u *dispatch.Unit, _ struct{}) bool {
		u.Terminate()
		h.inFlight.Delete(u)
		return true
	})
}

func setCORS(header http.Header) {
	header.Set("Access-Control-Allow-Origin", "*")
	header.Set("Access-Control-Allow-Methods", "POST, GET")
	header.Set("Access-Control-Allow-Headers", "origin, content-type, accept")
	header.Set("Access-Control-Max-Age", "86400")
}

// ServeHTTP - implements http.Handler
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer report.Recover(h.log)

	setCORS(w.Header())

	if http.MethodOptions == r.Method {
		w.WriteHeader(http.StatusOK)
		return
	}

	if nil == r.URL {
		sendError(w, http.StatusBadRequest, fault.MissingURL)
		return
	}

	parts := splitPath(r.URL.Path)
	if len(parts) < 2 {
		sendError(w, http.StatusBadRequest, fault.MissingVersionOrType)
		return
	}

	version := parts[len(parts)-2]
	requestType := parts[len(parts)-1]
	factory, ok := h.versions.Lookup(version)
	if !ok {
		sendError(w, http.StatusNotImplemented, fault.InvalidAPIVersion)
		return
	}

	var data []byte
	switch r.Method {
	case http.MethodGet:
		if "" == r.URL.RawQuery {
			break
		}
		query, err := url.PathUnescape(r.URL.RawQuery)
		if nil != err || !jsoncodec.Valid([]byte(query)) {
			sendError(w, http.StatusBadRequest, fault.InvalidRequestJSON)
			return
		}
		data = []byte(query)

	case http.MethodPost:
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaximumBodySize))
		if nil != err {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				sendError(w, http.StatusRequestEntityTooLarge, fault.PayloadTooLarge)
				return
			}
			h.log.Debugf("read body error: %s", err)
			sendError(w, http.StatusBadRequest, fault.InvalidRequestJSON)
			return
		}
		if 0 != len(body) {
			if !jsoncodec.Valid(body) {
				sendError(w, http.StatusBadRequest, fault.InvalidRequestJSON)
				return
			}
			data = body
		}

	default:
		sendError(w, http.StatusMethodNotAllowed, fault.InvalidRequestMethod)
		return
	}

	u := factory.New(h, r)
	h.inFlight.Store(u, struct{}{})
	defer func() {
		u.Terminate()
		h.inFlight.Delete(u)
	}()

	result, err := u.Dispatch(r.Context(), requestType, data)
	if nil != err {
		h.log.Debugf("%s/%s error: %s", version, requestType, err)
		sendError(w, http.StatusInternalServerError, err)
		return
	}
	h.sendResponse(w, result)
}

// SendPush - implements dispatch.Pusher; a REST request has no
// connection to push through
func (h *Handler) SendPush(u *dispatch.Unit, pushType string, data interface{}) error {
	h.log.Errorf("push: %s attempted on a rest request", pushType)
	return fault.PushNotSupported
}

func (h *Handler) sendResponse(w http.ResponseWriter, result interface{}) {
	if nil == result {
		w.WriteHeader(http.StatusOK)
		return
	}
	buffer, err := jsoncodec.Marshal(result)
	if nil != err {
		h.log.Errorf("marshal response error: %s", err)
		sendError(w, http.StatusInternalServerError, fault.InvalidJSON)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buffer)
}

func sendError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(report.Scrub(err.Error())))
}

// non-empty path segments
func splitPath(path string) []string {
	return strings.FieldsFunc(path, func(r rune) bool {
		return '/' == r
	})
}
