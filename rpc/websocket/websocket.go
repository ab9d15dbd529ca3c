// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package websocket - long lived connection protocol handler
//
// The last path segment of the upgrade request selects the API
// version. Frames are json:
//
//   request  {"id": string, "type": string, "data": any}
//   response {"id": string, "data": any}
//   error    {"id": string, "error": string}
//   push     {"pushType": string, "data": any}
package websocket

import (
	"crypto/tls"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/gorilla/websocket"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/bitmark-inc/ledgerd/counter"
	"github.com/bitmark-inc/ledgerd/dispatch"
	"github.com/bitmark-inc/ledgerd/fault"
	"github.com/bitmark-inc/ledgerd/report"
	"github.com/bitmark-inc/ledgerd/rpc/listeners"
)

// close codes
const (
	CloseUnsupported = 4100
	CloseGoingAway   = websocket.CloseGoingAway
)

// ShutdownMessage - close text sent with CloseGoingAway
const ShutdownMessage = "Server shutting down/restarting."

const (
	maximumFrameSize = 1000000
	writeTimeout     = 10 * time.Second
	sweepInterval    = time.Second
	defaultTimeout   = 60
	sendQueueSize    = 256
)

// Registry - API version lookup
type Registry interface {
	Lookup(version string) (*dispatch.Factory, bool)
}

// Configuration - listening and per-connection parameters
type Configuration struct {
	Address   string
	TLS       *tls.Config
	Timeout   int // seconds between keepalive checks of one connection
	RateLimit int // requests per second, 0 is unlimited
	RateBurst int
}

// Handler - the websocket protocol handler
type Handler struct {
	log      *logger.L
	versions Registry
	config   Configuration
	upgrader websocket.Upgrader
	clients  *xsync.MapOf[*client, struct{}]
	count    counter.Counter
	server   *listeners.Server
}

// New - handler for the given versions; call Start to listen and run
// the handler as a background process for keepalive
func New(configuration Configuration, versions Registry) *Handler {
	if configuration.Timeout <= 0 {
		configuration.Timeout = defaultTimeout
	}
	h := &Handler{
		log:      logger.New("websocket"),
		versions: versions,
		config:   configuration,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool {
				return true
			},
		},
		clients: xsync.NewMapOf[*client, struct{}](),
	}
	h.server = listeners.New(listeners.Configuration{
		Name:         "websocket",
		Address:      configuration.Address,
		TLS:          configuration.TLS,
		Handler:      h,
		CloseClients: h.closeAll,
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

// Shutdown - close every connection with 1001 and stop listening
func (h *Handler) Shutdown(permanent bool) error {
	return h.server.Shutdown(permanent)
}

// Clients - number of open connections
func (h *Handler) Clients() int {
	return int(h.count.Uint64())
}

// ServeHTTP - upgrade and run one connection
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer report.Recover(h.log)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if nil != err {
		h.log.Debugf("upgrade error: %s", err)
		return
	}

	parts := strings.FieldsFunc(r.URL.Path, func(r rune) bool {
		return '/' == r
	})
	var factory *dispatch.Factory
	ok := false
	if 0 != len(parts) {
		factory, ok = h.versions.Lookup(parts[len(parts)-1])
	}
	if !ok {
		deadline := time.Now().Add(writeTimeout)
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(CloseUnsupported, fault.VersionNotSupported.Error()), deadline)
		_ = conn.Close()
		return
	}

	c := newClient(h, conn)
	c.unit = factory.New(h, c)
	h.clients.Store(c, struct{}{})
	h.count.Increment()
	h.log.Debugf("connected: %s  clients: %d", conn.RemoteAddr(), h.Clients())

	go c.writeLoop()
	c.readLoop()
}

// SendPush - implements dispatch.Pusher; queues the frame without
// blocking and terminates a client whose queue is full
func (h *Handler) SendPush(u *dispatch.Unit, pushType string, data interface{}) error {
	c, ok := u.Client().(*client)
	if !ok {
		return fault.PushNotSupported
	}
	return c.send(pushFrame{PushType: pushType, Data: data})
}

// drop a client from the registry; true only for the first caller
func (h *Handler) remove(c *client) bool {
	if _, loaded := h.clients.LoadAndDelete(c); !loaded {
		return false
	}
	h.count.Decrement()
	return true
}

func (h *Handler) closeAll() {
	h.clients.Range(func(c *client, _ struct{}) bool {
		c.close(CloseGoingAway, ShutdownMessage)
		return true
	})
}

func (h *Handler) snapshot() []keepalive {
	all := make([]keepalive, 0, h.clients.Size())
	h.clients.Range(func(c *client, _ struct{}) bool {
		all = append(all, c)
		return true
	})
	return all
}

// Run - keepalive sweep, implements background.Process
func (h *Handler) Run(args interface{}, shutdown <-chan struct{}) {
	s := newSweep(h.config.Timeout)
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

loop:
	for {
		select {
		case <-shutdown:
			break loop
		case <-ticker.C:
			s.tick(h.snapshot)
		}
	}
	h.log.Info("keepalive stopped")
}
