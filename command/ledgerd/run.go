// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bitmark-inc/exitwithstatus"
	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/ledgerd/configuration"
	"github.com/bitmark-inc/ledgerd/report"
	"github.com/bitmark-inc/ledgerd/storage"
	"github.com/bitmark-inc/ledgerd/supervisor"
	"github.com/bitmark-inc/ledgerd/worker"
)

const metricsReadTimeout = 10 * time.Second

// master process: fork workers and keep them running
func runSupervisor(program string, log *logger.L, theConfiguration *configuration.Configuration) int {

	// optional PID file
	// use if not running under a supervisor program like daemon(8)
	if "" != theConfiguration.PidFile {
		lockFile, err := os.OpenFile(theConfiguration.PidFile, os.O_WRONLY|os.O_EXCL|os.O_CREATE, os.ModeExclusive|0600)
		if err != nil {
			if os.IsExist(err) {
				exitwithstatus.Message("%s: another instance is already running", program)
			}
			exitwithstatus.Message("%s: PID file: %q creation failed, error: %s", program, theConfiguration.PidFile, err)
		}
		fmt.Fprintf(lockFile, "%d\n", os.Getpid())
		lockFile.Close()
		defer os.Remove(theConfiguration.PidFile)
	}

	endpoint := supervisor.Endpoint(theConfiguration.DataDirectory, os.Getpid())
	channel, err := supervisor.NewChannel(endpoint)
	if nil != err {
		log.Criticalf("channel: %q  error: %s", endpoint, err)
		exitwithstatus.Message("%s: channel: %q  error: %s", program, endpoint, err)
	}
	defer os.Remove(strings.TrimPrefix(endpoint, "ipc://"))
	defer channel.Close()

	executable, err := os.Executable()
	if nil != err {
		exitwithstatus.Message("%s: cannot locate executable: %s", program, err)
	}

	spawner := &supervisor.ExecSpawner{
		Path:     executable,
		Args:     os.Args[1:],
		Endpoint: endpoint,
	}

	config := supervisor.DefaultConfig(theConfiguration.Workers, float64(theConfiguration.MaximumMemory))
	s := supervisor.New(config, spawner, channel)

	if "" != theConfiguration.Metrics {
		mux := http.NewServeMux()
		mux.Handle("/metrics", s.MetricsHandler())
		server := &http.Server{
			Addr:              theConfiguration.Metrics,
			Handler:           mux,
			ReadHeaderTimeout: metricsReadTimeout,
		}
		go func() {
			defer report.Recover(log)
			log.Infof("metrics listener on: %s", theConfiguration.Metrics)
			if err := server.ListenAndServe(); nil != err && http.ErrServerClosed != err {
				report.Error(log, "metrics listener", err)
			}
		}()
		defer server.Close()
	}

	// SIGINT asks workers to exit, SIGTERM also kills those that do not
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		for sig := range ch {
			log.Infof("received signal: %v", sig)
			s.Shutdown(syscall.SIGTERM == sig)
		}
	}()
	defer signal.Stop(ch)

	return s.Run()
}

// worker process: serve until told to stop
func runWorker(log *logger.L, id int, theConfiguration *configuration.Configuration) int {
	endpoint, ok := os.LookupEnv(supervisor.ChannelVariable)
	if !ok {
		exitwithstatus.Message("worker: %d  %s is not set", id, supervisor.ChannelVariable)
	}

	// handle signals before anything listens
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(ch)

	link, err := worker.Connect(endpoint, id)
	if nil != err {
		log.Criticalf("connect: %q  error: %s", endpoint, err)
		exitwithstatus.Message("worker: %d  connect: %q  error: %s", id, endpoint, err)
	}
	defer link.Close()

	store := storage.New(theConfiguration.Database)
	defer store.Close()

	w, err := worker.New(theConfiguration, store, store, link)
	if nil != err {
		log.Criticalf("worker setup error: %s", err)
		exitwithstatus.Message("worker: %d  setup error: %s", id, err)
	}

	return w.Run(ch)
}
