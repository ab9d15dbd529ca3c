// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package supervisor

import (
	"runtime"
	"sort"
	"strconv"
	"syscall"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/ledgerd/fault"
	"github.com/bitmark-inc/ledgerd/jsoncodec"
	"github.com/bitmark-inc/ledgerd/report"
)

// Report - worker to supervisor heartbeat
type Report struct {
	Type   string  `json:"type"`
	Memory float64 `json:"memory"`
}

// ReportType - value of Report.Type
const ReportType = "report"

// exit codes a worker may use to ask for a longer pause before restart
const (
	BackoffFirstCode = 50
	BackoffLastCode  = 59
)

const maximumMissed = 2

// Config - supervisor parameters
type Config struct {
	Workers          int     // > 0 absolute, otherwise added to the CPU count
	MaximumMemory    float64 // MB
	HealthInterval   time.Duration
	HardKillDelay    time.Duration
	RestartDelay     time.Duration
	BackoffDelay     time.Duration
	ForkRetry        time.Duration
	ForkRetryMaximum time.Duration
	PollInterval     time.Duration
}

// DefaultConfig - standard timings
func DefaultConfig(workers int, maximumMemory float64) Config {
	return Config{
		Workers:          workers,
		MaximumMemory:    maximumMemory,
		HealthInterval:   10 * time.Second,
		HardKillDelay:    10 * time.Second,
		RestartDelay:     time.Second,
		BackoffDelay:     30 * time.Second,
		ForkRetry:        5 * time.Second,
		ForkRetryMaximum: 300 * time.Second,
		PollInterval:     500 * time.Millisecond,
	}
}

// WorkerCount - number of workers to run for a configured value
func WorkerCount(workers int, cpus int) int {
	if workers > 0 {
		return workers
	}
	n := cpus + workers
	if n < 1 {
		return 1
	}
	return n
}

type eventKind int

const (
	spawnEvent eventKind = iota
	exitEvent
	hardKillEvent
	shutdownEvent
)

type event struct {
	kind  eventKind
	id    int
	code  int
	retry time.Duration
	hard  bool
}

type worker struct {
	id          int
	process     Process
	missed      int
	terminating bool
	reason      string
}

// Supervisor - process supervisor
type Supervisor struct {
	log     *logger.L
	config  Config
	spawner Spawner
	channel Channel
	metrics *metrics

	workers      map[int]*worker
	nextID       int
	shuttingDown bool
	graceful     bool

	events  chan event
	stopped chan struct{}
}

// New - create a supervisor; nothing starts until Run
func New(config Config, spawner Spawner, channel Channel) *Supervisor {
	return &Supervisor{
		log:      logger.New("supervisor"),
		config:   config,
		spawner:  spawner,
		channel:  channel,
		metrics:  newMetrics(),
		workers:  make(map[int]*worker),
		graceful: true,
		events:   make(chan event, 16),
		stopped:  make(chan struct{}),
	}
}

// Shutdown - begin a cluster wide shutdown; hard also kills workers
// that have not exited after the hard kill delay
func (s *Supervisor) Shutdown(hard bool) {
	s.post(event{kind: shutdownEvent, hard: hard})
}

func (s *Supervisor) post(e event) {
	select {
	case s.events <- e:
	case <-s.stopped:
	}
}

func (s *Supervisor) after(d time.Duration, e event) {
	time.AfterFunc(d, func() {
		s.post(e)
	})
}

// Run - start the workers and supervise them until a shutdown
// completes; returns the process exit code
func (s *Supervisor) Run() int {
	defer close(s.stopped)

	count := WorkerCount(s.config.Workers, runtime.NumCPU())
	s.log.Infof("starting: %d workers", count)
	for i := 0; i < count; i += 1 {
		s.spawn(s.config.ForkRetry)
	}

	health := time.NewTicker(s.config.HealthInterval)
	defer health.Stop()

	var poll <-chan time.Time
	messages := s.channel.Messages()

	for {
		select {
		case e := <-s.events:
			s.handle(e)

		case m, ok := <-messages:
			if !ok {
				messages = nil
				continue
			}
			s.message(m)

		case <-health.C:
			s.healthCheck()

		case <-poll:
			if 0 == len(s.workers) {
				s.log.Info("shutdown completed")
				if s.graceful {
					return 0
				}
				return 1
			}
		}

		if s.shuttingDown && nil == poll {
			ticker := time.NewTicker(s.config.PollInterval)
			defer ticker.Stop()
			poll = ticker.C
		}
	}
}

func (s *Supervisor) handle(e event) {
	switch e.kind {
	case spawnEvent:
		s.spawn(e.retry)

	case exitEvent:
		s.exited(e.id, e.code)

	case hardKillEvent:
		w, ok := s.workers[e.id]
		if !ok {
			return
		}
		s.graceful = false
		s.metrics.hardKills.Inc()
		report.Fatal(s.log, "hard killing worker", fault.ProcessError(Identity(w.id)+" did not shut down, is a handler stuck in a loop?"))
		if err := w.process.Kill(); nil != err {
			s.log.Errorf("kill: %s  error: %s", Identity(w.id), err)
		}

	case shutdownEvent:
		if s.shuttingDown {
			return
		}
		s.log.Infof("shutting down  hard: %t", e.hard)
		s.shuttingDown = true
		s.graceful = true
		for _, id := range s.workerIDs() {
			s.shutdownWorker(id, e.hard)
		}
	}
}

func (s *Supervisor) spawn(retry time.Duration) {
	if s.shuttingDown {
		return
	}

	s.nextID += 1
	id := s.nextID
	process, err := s.spawner.Spawn(id)
	if nil != err {
		next := retry * 3 / 2
		if next > s.config.ForkRetryMaximum {
			next = s.config.ForkRetryMaximum
		}
		report.Warn(s.log, "failed to start worker: "+err.Error()+"  retry in: "+retry.String())
		s.after(retry, event{kind: spawnEvent, retry: next})
		return
	}

	s.workers[id] = &worker{
		id:      id,
		process: process,
		reason:  reasonExit,
	}
	s.metrics.workers.Set(float64(len(s.workers)))
	s.log.Infof("started: %s  pid: %d", Identity(id), process.Pid())

	go func() {
		code := process.Wait()
		s.post(event{kind: exitEvent, id: id, code: code})
	}()
}

func (s *Supervisor) exited(id int, code int) {
	w, ok := s.workers[id]
	if !ok {
		return
	}
	delete(s.workers, id)
	s.metrics.workers.Set(float64(len(s.workers)))
	s.metrics.exited(id)

	if 0 == code {
		s.log.Infof("%s  pid: %d  exited", Identity(id), w.process.Pid())
	} else {
		s.log.Infof("%s  pid: %d  died with code: %d", Identity(id), w.process.Pid(), code)
		report.Error(s.log, "worker died", fault.ProcessError("exit code: "+strconv.Itoa(code)))
	}

	if s.shuttingDown {
		return
	}

	s.metrics.restarts.WithLabelValues(w.reason).Inc()
	delay := s.config.RestartDelay
	if code >= BackoffFirstCode && code <= BackoffLastCode {
		delay = s.config.BackoffDelay
	}
	s.log.Infof("restart in: %s", delay)
	s.after(delay, event{kind: spawnEvent, retry: s.config.ForkRetry})
}

func (s *Supervisor) message(m Message) {
	w, ok := s.workers[m.Worker]
	if !ok {
		s.log.Warnf("message from unknown %s", Identity(m.Worker))
		return
	}

	var r Report
	if nil != jsoncodec.Unmarshal(m.Payload, &r) || ReportType != r.Type || r.Memory <= 0 {
		s.log.Infof("%s sent an unknown message: %q", Identity(w.id), m.Payload)
		report.Warn(s.log, "worker sent an unknown message")
		return
	}

	w.missed = 0
	s.metrics.reported(w.id, r.Memory)
	if r.Memory > s.config.MaximumMemory && !w.terminating {
		s.log.Warnf("%s using too much memory: %.1f MB  restarting", Identity(w.id), r.Memory)
		w.reason = reasonMemory
		s.shutdownWorker(w.id, true)
	}
}

func (s *Supervisor) healthCheck() {
	for _, id := range s.workerIDs() {
		w := s.workers[id]
		if w.missed > maximumMissed {
			if !w.terminating {
				report.Error(s.log, "worker failed to report, restarting", fault.ProcessError(Identity(id)))
				w.reason = reasonHeartbeat
				s.shutdownWorker(id, true)
			}
		} else if w.missed > 0 {
			s.metrics.missed.Inc()
			s.log.Warnf("%s failed to report", Identity(id))
		}
		w.missed += 1
	}
}

// ask a worker to exit; hard schedules a kill
func (s *Supervisor) shutdownWorker(id int, hard bool) {
	w, ok := s.workers[id]
	if !ok {
		report.Error(s.log, "shutdown worker", fault.UnknownWorker)
		return
	}
	w.terminating = true

	if err := s.channel.Send(id, []byte(ShutdownMessage)); nil != err {
		// not connected yet or already gone: the signal has the same effect
		s.log.Debugf("send shutdown: %s  error: %s", Identity(id), err)
		if err := w.process.Signal(syscall.SIGTERM); nil != err {
			s.log.Debugf("signal: %s  error: %s", Identity(id), err)
		}
	}

	if hard {
		s.after(s.config.HardKillDelay, event{kind: hardKillEvent, id: id})
	}
}

func (s *Supervisor) workerIDs() []int {
	ids := make([]int, 0, len(s.workers))
	for id := range s.workers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
