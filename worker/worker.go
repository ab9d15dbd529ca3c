// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package worker

import (
	"crypto/tls"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/ledgerd/api"
	"github.com/bitmark-inc/ledgerd/api/basic"
	"github.com/bitmark-inc/ledgerd/background"
	"github.com/bitmark-inc/ledgerd/configuration"
	"github.com/bitmark-inc/ledgerd/dispatch"
	"github.com/bitmark-inc/ledgerd/notifier"
	"github.com/bitmark-inc/ledgerd/report"
	"github.com/bitmark-inc/ledgerd/rpc/certificate"
	"github.com/bitmark-inc/ledgerd/rpc/rest"
	"github.com/bitmark-inc/ledgerd/rpc/websocket"
)

type protocolHandler interface {
	Start()
	Shutdown(permanent bool) error
}

// Worker - runtime of one worker process
type Worker struct {
	log       *logger.L
	link      Link
	notifier  *notifier.Notifier
	rest      *rest.Handler
	websocket *websocket.Handler
	handlers  []protocolHandler
	processes background.Processes
	running   *background.T
	once      sync.Once
}

// New - build everything the configuration asks for; nothing is
// listening until Run
func New(config *configuration.Configuration, store basic.Store, source notifier.Source, link Link) (*Worker, error) {
	log := logger.New("worker")

	w := &Worker{
		log:  log,
		link: link,
	}

	w.notifier = notifier.New(source, time.Duration(config.UpdateInterval)*time.Second, w.reportMemory)
	w.processes = append(w.processes, w.notifier)

	registry, err := dispatch.NewRegistry(config.API, api.Constructors(store, w.notifier))
	if nil != err {
		return nil, err
	}

	var tlsConfig *tls.Config
	if config.TLS.Enabled {
		certificates, err := certificate.NewStore(config.TLS.Certificate, config.TLS.PrivateKey)
		if nil != err {
			return nil, err
		}
		log.Infof("certificate SHA3 fingerprint: %x", certificates.Fingerprint())
		tlsConfig = certificates.TLSConfig()
		w.processes = append(w.processes, certificate.NewWatcher(certificates, certificate.DefaultSettle))
	}

	if 0 != config.WebSocket.Port {
		w.websocket = websocket.New(websocket.Configuration{
			Address:   fmt.Sprintf(":%d", config.WebSocket.Port),
			TLS:       tlsConfig,
			Timeout:   config.WebSocket.Timeout,
			RateLimit: int(config.WebSocket.RateLimit),
			RateBurst: config.WebSocket.RateBurst,
		}, registry)
		w.handlers = append(w.handlers, w.websocket)
		w.processes = append(w.processes, w.websocket)
	}

	if 0 != config.REST.Port {
		w.rest = rest.New(rest.Configuration{
			Address: fmt.Sprintf(":%d", config.REST.Port),
			TLS:     tlsConfig,
		}, registry)
		w.handlers = append(w.handlers, w.rest)
	}

	return w, nil
}

func (w *Worker) reportMemory(memory float64) {
	if err := w.link.Report(memory); nil != err {
		w.log.Warnf("report memory error: %s", err)
	}
}

// Start - launch background processes and begin listening
func (w *Worker) Start() {
	w.running = background.Start(w.processes, nil)
	for _, h := range w.handlers {
		h.Start()
	}
	w.log.Infof("started: %d protocol handlers", len(w.handlers))
}

// Run - start, then wait for a signal or the supervisor's request and
// shut down; returns the process exit code
func (w *Worker) Run(signals <-chan os.Signal) int {
	defer report.Recover(w.log)

	w.Start()

	select {
	case sig := <-signals:
		w.log.Infof("received signal: %v", sig)
	case <-w.link.Shutdown():
		w.log.Info("received shutdown message")
	}

	w.Shutdown()
	return 0
}

// Shutdown - permanently close every protocol handler concurrently then
// stop the background processes; only the first call has any effect
func (w *Worker) Shutdown() {
	w.once.Do(func() {
		w.log.Info("shutting down…")

		var wg sync.WaitGroup
		for _, h := range w.handlers {
			wg.Add(1)
			go func(h protocolHandler) {
				defer wg.Done()
				if err := h.Shutdown(true); nil != err {
					w.log.Debugf("handler shutdown error: %s", err)
				}
			}(h)
		}
		wg.Wait()

		if nil != w.running {
			w.running.Stop()
		}
		w.log.Info("finished")
	})
}
