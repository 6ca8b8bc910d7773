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

// Package hub is the external collaborator described in the diesel core's
// event loop integration point: it delivers readiness edges for registered
// file descriptors, runs timers, and serializes arbitrary work onto a single
// reactor goroutine so that at most one piece of loop code ever runs at a
// time (§5).
package hub

import (
	"net"
	"time"
)

// EdgeHandler is invoked on the reactor goroutine when a registered
// descriptor becomes readable, writable, or errors. It never blocks.
type EdgeHandler func()

// Timer is a handle returned by CallLater; Cancel is idempotent and safe to
// call after the timer has already fired.
type Timer interface {
	Cancel()
}

// Hub is the reactor contract. Register/Unregister/EnableWrite/DisableWrite
// may be called from any goroutine; the edge handlers themselves always run
// on the hub's single reactor goroutine.
type Hub interface {
	// Register begins watching conn for readability and, once EnableWrite
	// has been called, writability. onReadable fires whenever data may be
	// available; onWritable fires whenever the socket can accept more
	// bytes; onError fires once when the descriptor becomes unusable.
	Register(conn net.Conn, onReadable, onWritable, onError EdgeHandler) error
	// Unregister stops watching conn. Idempotent.
	Unregister(conn net.Conn)
	// EnableWrite arms the write-readiness pump for conn. Connections
	// should only be armed while their outbound pipeline is non-empty.
	EnableWrite(conn net.Conn)
	// DisableWrite disarms the write-readiness pump for conn.
	DisableWrite(conn net.Conn)
	// CallLater schedules fn to run on the reactor goroutine after d.
	CallLater(d time.Duration, fn func()) Timer
	// Schedule runs fn on the reactor goroutine as soon as it is free, on
	// a later turn than the caller's.
	Schedule(fn func())
	// RunInThread offloads fn to a new worker goroutine and delivers its
	// result back onto the reactor goroutine via done, matching the
	// original Loop.thread primitive's "blocking call off the reactor"
	// contract.
	RunInThread(fn func() (interface{}, error), done func(interface{}, error))
	// Run blocks the calling goroutine, driving the reactor until Stop has
	// been called and every queued task has run.
	Run() error
	// Stop requests the reactor to shut down; Run returns once drained.
	Stop()
}
