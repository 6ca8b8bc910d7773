/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package metrics exposes the runtime's Prometheus instrumentation. It is an
// ambient concern (§9): no Non-goal in the spec excludes observability.
// The app package updates every collector here except BytesReadTotal and
// BytesWrittenTotal, which are registered but not updated anywhere in this
// module.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "diesel"

// Metrics groups every counter/gauge the runtime updates. Register it once
// against a prometheus.Registerer (or use NewDefault to hang off the global
// default registry).
type Metrics struct {
	LoopsRunning          prometheus.Gauge
	LoopsForkedTotal      prometheus.Counter
	ConnectionsOpen       prometheus.Gauge
	BytesReadTotal        prometheus.Counter
	BytesWrittenTotal     prometheus.Counter
	KeepAliveRestartTotal prometheus.Counter
	ConnectErrorsTotal    prometheus.Counter
}

// New constructs Metrics and registers every collector against reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		LoopsRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "loops_running",
			Help:      "Number of Loops currently in the application's running set.",
		}),
		LoopsForkedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loops_forked_total",
			Help:      "Total Loops created via AddLoop, Fork or ForkChild.",
		}),
		ConnectionsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections_open",
			Help:      "Number of Connections currently bound to a live socket.",
		}),
		BytesReadTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_read_total",
			Help:      "Total bytes read off all sockets.",
		}),
		BytesWrittenTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_written_total",
			Help:      "Total bytes written to all sockets.",
		}),
		KeepAliveRestartTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "keepalive_restarts_total",
			Help:      "Total Loop restarts triggered by keep_alive after termination.",
		}),
		ConnectErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connect_errors_total",
			Help:      "Total Connect() failures, including timeouts.",
		}),
	}

	reg.MustRegister(
		m.LoopsRunning,
		m.LoopsForkedTotal,
		m.ConnectionsOpen,
		m.BytesReadTotal,
		m.BytesWrittenTotal,
		m.KeepAliveRestartTotal,
		m.ConnectErrorsTotal,
	)
	return m
}

// NewDefault registers against prometheus.DefaultRegisterer.
func NewDefault() *Metrics {
	return New(prometheus.DefaultRegisterer)
}
