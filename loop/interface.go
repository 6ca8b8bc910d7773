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

// Package loop implements the suspendable execution context of §4.4. Each
// Loop runs its user callable on its own goroutine; suspending primitives
// hand control back to a single driving goroutine (the application's
// reactor turn) via a strict request/resume handshake, so that at most one
// Loop's user code ever executes at a time — emulating the original
// cooperative-coroutine scheduler without locks (§5).
package loop

import (
	"net"
	"time"

	"github.com/nabbar/diesel/buffer"
	"github.com/nabbar/diesel/conn"
	"github.com/nabbar/diesel/tlsdial"
)

// Tag identifies which source woke a First call.
type Tag string

const (
	TagSleep    Tag = "sleep"
	TagReceive  Tag = "receive"
	TagUntil    Tag = "until"
	TagUntilEOL Tag = "until_eol"
	TagWait     Tag = "wait-"
)

// FirstRequest describes the sources armed by a single First call. At most
// one of Receive/Until/UntilEOL may be set, matching §4.4's "at most one of
// the three input forms".
type FirstRequest struct {
	Sleep     time.Duration
	HasSleep  bool
	Waits     []string
	Receive   int
	HasUntil  bool
	Until     []byte
	UntilEOL  bool
}

// Result is what First resumes with: which source fired, and its payload.
type Result struct {
	Tag   Tag
	Event string // set when Tag == TagWait
	Value []byte
	Fired interface{} // set when Tag == TagWait, the value passed to Fire
}

// Func is a Loop's user body. Returning a nil error ends the Loop cleanly;
// dierr.ErrTerminateLoop (or anything matching it via errors.Is) does the
// same. Any other error is logged with the Loop's stack context and also
// ends the Loop.
type Func func(l Loop) error

// Loop is the suspendable execution context of §4.4. All methods are valid
// only from the goroutine running this Loop's own Func.
type Loop interface {
	// Input installs term on the top-of-stack Connection's buffer. If
	// already satisfied it returns synchronously; otherwise it suspends
	// until fed.
	Input(term buffer.Term) ([]byte, error)
	// Receive is shorthand for Input(buffer.ByteCount(n)).
	Receive(n int) ([]byte, error)
	// Until is shorthand for Input(buffer.Delimiter(delim)).
	Until(delim []byte) ([]byte, error)
	// UntilEOL is shorthand for Until using conn.EOL.
	UntilEOL() ([]byte, error)
	// Send enqueues payload on the top-of-stack Connection's pipeline at
	// priority and enables its writable edge. Never suspends.
	Send(payload []byte, priority int)
	// Sleep suspends for seconds; seconds <= 0 yields to the scheduler and
	// resumes on the next turn.
	Sleep(seconds float64) error
	// Wait registers interest in event and suspends until Fire(event, v)
	// delivers a value.
	Wait(event string) (interface{}, error)
	// Fire delivers value to every Loop currently waiting on event. Never
	// suspends.
	Fire(event string, value interface{})
	// Thread asks the hub to run fn on a worker goroutine and suspends
	// until it completes.
	Thread(fn func() (interface{}, error)) (interface{}, error)
	// First arms at most one input source plus an optional sleep plus
	// zero-or-more waits, and resumes with whichever fires first.
	First(req FirstRequest) (Result, error)
	// Connect registers sock (an already dialed net.Conn, e.g. from
	// net.DialTimeout) with the hub and suspends until its first writable
	// edge, an error edge, or timeout; with tlsCfg set it then runs the TLS
	// handshake before resuming. On success the bound Connection is pushed
	// onto the Loop's stack.
	Connect(sock net.Conn, timeout time.Duration, tlsCfg *tlsdial.Config) (conn.Connection, error)
	// Fork creates a new unparented Loop running fn and registers it with
	// the application. Never suspends.
	Fork(fn Func) Loop
	// ForkChild is Fork, additionally parenting the child so it is
	// notified if this Loop terminates first.
	ForkChild(fn Func) Loop
	// Label replaces the Loop's human-readable name, shown in logs.
	Label(text string)

	// PushConnection pushes c onto the connection stack; client call
	// wrappers use this on entry (§6).
	PushConnection(c conn.Connection)
	// PopConnection pops and returns the top-of-stack Connection.
	PopConnection() conn.Connection
	// Top returns the top-of-stack Connection without popping it, or nil
	// if the stack is empty.
	Top() conn.Connection

	// ID is a stable identifier for logging and metrics.
	ID() uint64
	// KeepAlive marks the Loop to restart itself 0.5s after it would
	// otherwise terminate, per §4.4's run lifecycle.
	KeepAlive(keep bool)
}
