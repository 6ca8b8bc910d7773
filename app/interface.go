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

// Package app is the runtime glue of §4.5: it owns the hub, the running set
// of Loops, and the wait index, and it drives each Loop's suspend/resume
// handshake so that exactly one Loop's user code executes at any instant.
package app

import (
	"net"

	"github.com/sirupsen/logrus"

	"github.com/nabbar/diesel/conn"
	"github.com/nabbar/diesel/hub"
	"github.com/nabbar/diesel/loop"
	"github.com/nabbar/diesel/metrics"
)

// Application is the runhub of §4.5.
type Application interface {
	// AddLoop creates a new Loop running fn, enqueues its first wake for
	// the next hub turn, and registers it in the running set.
	AddLoop(fn loop.Func) loop.Loop
	// Hub exposes the underlying event hub, e.g. so callers can Register
	// listening sockets directly.
	Hub() hub.Hub
	// BindConnection wraps an already-connected socket (typically one just
	// accept()-ed by a listener Loop) as a conn.Connection hooked into this
	// application's input-waiter and connection-closed dispatch, the same
	// way Connect does for outbound sockets.
	BindConnection(sock net.Conn) conn.Connection
	// Running reports the number of Loops currently in the running set.
	Running() int
	// Run drives the reactor until Stop is called. Blocks the caller.
	Run() error
	// Stop requests a shutdown; Run returns once the reactor drains.
	Stop()
}

// Config wires an Application's collaborators. Hub and Log may be left nil,
// in which case defaults are constructed; a nil Metrics disables
// instrumentation.
type Config struct {
	Hub     hub.Hub
	Log     *logrus.Entry
	Metrics *metrics.Metrics
}

// New builds an Application from cfg.
func New(cfg Config) Application {
	if cfg.Hub == nil {
		cfg.Hub = hub.New(cfg.Log)
	}
	if cfg.Log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		cfg.Log = logrus.NewEntry(l)
	}
	return &application{
		hub:          cfg.Hub,
		log:          cfg.Log,
		metrics:      cfg.Metrics,
		waits:        make(map[string]map[*loopImpl]*waiter),
		running:      make(map[uint64]*loopImpl),
		inputWaiters: make(map[conn.Connection]*inputWaiter),
	}
}
