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

// Package conn binds a non-blocking net.Conn to a buffer.Buffer and a
// pipeline.Pipeline, and drives them from hub readiness edges, per §4.3 of
// the diesel core.
package conn

import (
	"net"
	"strings"

	"github.com/nabbar/diesel/buffer"
	"github.com/nabbar/diesel/hub"
	"github.com/nabbar/diesel/pipeline"
)

// DefaultBufferSize is the chunk size used for each recv() call against the
// underlying socket.
const DefaultBufferSize = 32 * 1024

// EOL is the line terminator diesel's until_eol primitive looks for.
const EOL = byte('\n')

// State enumerates the lifecycle a Connection passes through. Values are
// stable and safe to log or export as metric labels.
type State uint8

const (
	StateNew State = iota
	StateReading
	StateWriting
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateReading:
		return "reading"
	case StateWriting:
		return "writing"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ErrorFilter normalizes the noisy errors net.Conn returns once a socket is
// already gone: "use of closed network connection" collapses to nil (nothing
// actionable); everything else, peer resets included, passes through
// unchanged.
func ErrorFilter(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "use of closed network connection") {
		return nil
	}
	return err
}

// Connection is the stateful binding of §4.3: a socket, a receive Buffer,
// a send Pipeline, and the bookkeeping to keep exactly one shutdown from
// ever running twice.
type Connection interface {
	// Buffer is the receive-side accumulator fed by socket reads.
	Buffer() buffer.Buffer
	// Pipeline is the send-side queue drained by socket writes.
	Pipeline() pipeline.Pipeline
	// State reports the current lifecycle state.
	State() State
	// RemoteAddr mirrors net.Conn.RemoteAddr for logging/metrics.
	RemoteAddr() net.Addr
	// Send enqueues payload at priority for delivery, arming the writable
	// edge if the pipeline was empty.
	Send(payload []byte, priority int)
	// Close requests a graceful shutdown: already-queued Pipeline bytes are
	// flushed to the socket before Shutdown(false) runs, matching the
	// original's Connection.close() (pipeline.close_request() + enable
	// writable). Safe to call more than once.
	Close()
	// Shutdown closes the underlying socket and unregisters it from the
	// hub immediately, discarding any unflushed Pipeline bytes. Safe to
	// call more than once; only the first call has effect. remote
	// indicates whether the close was observed to originate from the
	// peer: per §4.3, a waiting Input/First is only woken with
	// ConnectionClosed when remote is true — a local Shutdown(false)
	// (including via Close's eventual flush-then-close) is a planned
	// teardown the caller already knows about and does not need to be
	// told about again via its own wakeup.
	Shutdown(remote bool)
}

// New binds sock to h and begins watching its readiness edges. onReadable is
// invoked (on the hub's reactor goroutine) after every Feed into Buffer();
// match is the chunk removed by a satisfied term and ok reports whether one
// matched on this edge, mirroring buffer.Buffer.Feed's own return shape so
// callers do not need to re-run Check(). onClosed fires exactly once when
// the connection is shut down, from whichever side triggered it: remote
// reports whether the peer (rather than this side) initiated the close, and
// residual carries whatever bytes were still buffered and unconsumed at
// that moment (§7/§8's "residual buffer bytes attached").
func New(h hub.Hub, sock net.Conn, onReadable func(match []byte, ok bool), onClosed func(remote bool, residual []byte)) Connection {
	c := &connection{
		hub:      h,
		sock:     sock,
		buf:      buffer.New(),
		pipe:     pipeline.New(),
		state:    StateNew,
		onRead:   onReadable,
		onClosed: onClosed,
	}
	c.start()
	return c
}
