// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package supervisor

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// restart reasons
const (
	reasonExit      = "exit"
	reasonMemory    = "memory"
	reasonHeartbeat = "heartbeat"
)

type metrics struct {
	registry  *prometheus.Registry
	workers   prometheus.Gauge
	restarts  *prometheus.CounterVec
	memory    *prometheus.GaugeVec
	missed    prometheus.Counter
	hardKills prometheus.Counter
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		workers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ledgerd",
			Subsystem: "supervisor",
			Name:      "workers",
			Help:      "Number of running worker processes.",
		}),
		restarts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ledgerd",
			Subsystem: "supervisor",
			Name:      "restarts_total",
			Help:      "Worker restarts by reason.",
		}, []string{"reason"}),
		memory: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "ledgerd",
			Subsystem: "supervisor",
			Name:      "worker_memory_megabytes",
			Help:      "Heap in use last reported by each worker.",
		}, []string{"worker"}),
		missed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ledgerd",
			Subsystem: "supervisor",
			Name:      "missed_heartbeats_total",
			Help:      "Health checks that found no report since the previous check.",
		}),
		hardKills: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ledgerd",
			Subsystem: "supervisor",
			Name:      "hard_kills_total",
			Help:      "Workers killed after not shutting down in time.",
		}),
	}
	m.registry.MustRegister(m.workers, m.restarts, m.memory, m.missed, m.hardKills)
	return m
}

func (m *metrics) reported(id int, memory float64) {
	m.memory.WithLabelValues(strconv.Itoa(id)).Set(memory)
}

func (m *metrics) exited(id int) {
	m.memory.DeleteLabelValues(strconv.Itoa(id))
}

// MetricsHandler - prometheus exposition of the supervisor metrics
func (s *Supervisor) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{})
}
