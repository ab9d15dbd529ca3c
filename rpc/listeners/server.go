// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package listeners

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/ledgerd/fault"
)

const (
	defaultInitialBackoff = 5 * time.Second
	defaultMaximumBackoff = 300 * time.Second
	drainTimeout          = 30 * time.Second
	readHeaderTimeout     = 10 * time.Second
	maxHeaderBytes        = 1 << 20
)

// Configuration - one listening server
type Configuration struct {
	Name    string
	Address string
	TLS     *tls.Config // nil for plain TCP
	Handler http.Handler

	// called during shutdown to close connections the http server no
	// longer tracks, e.g. upgraded websockets
	CloseClients func()

	Listen         ListenFunc    // default ReusePort
	InitialBackoff time.Duration // default 5s
	MaximumBackoff time.Duration // default 300s
}

// Server - an http server that re-listens after failures
type Server struct {
	sync.Mutex

	log    *logger.L
	config Configuration

	server   *http.Server
	address  net.Addr
	backoff  time.Duration
	closing  bool
	stopped  bool
	stop     chan struct{}
	stopOnce sync.Once
}

// New - create a server; nothing is opened until Start
func New(config Configuration) *Server {
	if nil == config.Listen {
		config.Listen = ReusePort
	}
	if config.InitialBackoff <= 0 {
		config.InitialBackoff = defaultInitialBackoff
	}
	if config.MaximumBackoff < config.InitialBackoff {
		config.MaximumBackoff = defaultMaximumBackoff
	}
	return &Server{
		log:     logger.New(config.Name),
		config:  config,
		backoff: config.InitialBackoff,
		stop:    make(chan struct{}),
	}
}

// Start - listen and serve in the background; a failed listen is
// retried with backoff
func (s *Server) Start() {
	s.Lock()
	defer s.Unlock()

	if s.stopped || nil != s.server {
		return
	}
	s.listen()
}

// Addr - bound address, nil while not listening
func (s *Server) Addr() net.Addr {
	s.Lock()
	defer s.Unlock()
	return s.address
}

// must hold lock
func (s *Server) listen() {
	l, err := s.config.Listen("tcp", s.config.Address)
	if nil != err {
		s.log.Errorf("listen: %s  error: %s", s.config.Address, err)
		s.retry()
		return
	}
	s.backoff = s.config.InitialBackoff
	s.address = l.Addr()

	if nil != s.config.TLS {
		l = tls.NewListener(l, s.config.TLS)
	}

	server := &http.Server{
		Handler:           s.config.Handler,
		ReadHeaderTimeout: readHeaderTimeout,
		MaxHeaderBytes:    maxHeaderBytes,
	}
	s.server = server

	s.log.Infof("listening on: %s  tls: %t", s.address, nil != s.config.TLS)
	go s.serve(server, l)
}

func (s *Server) serve(server *http.Server, l net.Listener) {
	err := server.Serve(l)
	if errors.Is(err, http.ErrServerClosed) {
		return
	}

	s.log.Errorf("serve error: %s", err)
	if nil != s.Shutdown(false) {
		return
	}

	s.Lock()
	defer s.Unlock()
	if !s.stopped && nil == s.server {
		s.retry()
	}
}

// must hold lock
func (s *Server) retry() {
	delay := s.backoff
	s.backoff *= 2
	if s.backoff > s.config.MaximumBackoff {
		s.backoff = s.config.MaximumBackoff
	}

	s.log.Infof("listen again in: %s", delay)
	go func() {
		select {
		case <-s.stop:
			return
		case <-time.After(delay):
		}

		s.Lock()
		defer s.Unlock()
		if s.stopped || s.closing || nil != s.server {
			return
		}
		s.listen()
	}()
}

// Shutdown - close the listener and all clients; permanent prevents
// any later re-listen
func (s *Server) Shutdown(permanent bool) error {
	s.Lock()
	if s.closing {
		if permanent {
			s.markStopped()
		}
		s.Unlock()
		if permanent {
			return nil
		}
		return fault.AlreadyClosing
	}
	if permanent {
		s.markStopped()
	}
	s.closing = true
	server := s.server
	s.server = nil
	s.address = nil
	s.Unlock()

	if nil != s.config.CloseClients {
		s.config.CloseClients()
	}

	if nil != server {
		ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
		err := server.Shutdown(ctx)
		cancel()
		if nil != err {
			s.log.Warnf("drain error: %s", err)
			_ = server.Close()
		}
	}

	s.Lock()
	s.closing = false
	s.Unlock()

	if permanent {
		s.log.Info("stopped")
	}
	return nil
}

// must hold lock
func (s *Server) markStopped() {
	s.stopped = true
	s.stopOnce.Do(func() {
		close(s.stop)
	})
}
