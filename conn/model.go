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

package conn

import (
	"errors"
	"io"
	"net"

	"github.com/nabbar/diesel/buffer"
	"github.com/nabbar/diesel/hub"
	"github.com/nabbar/diesel/pipeline"
)

// connection is not safe for concurrent use: like Buffer and Pipeline, it is
// only ever touched from the single reactor goroutine (§5) — either
// directly, by an edge handler the hub scheduled, or indirectly, by Loop
// code the reactor resumed and is blocked waiting on.
type connection struct {
	hub  hub.Hub
	sock net.Conn
	buf  buffer.Buffer
	pipe pipeline.Pipeline

	state State

	onRead   func(match []byte, ok bool)
	onClosed func(remote bool, residual []byte)

	closed bool
}

func (c *connection) start() {
	c.state = StateReading
	_ = c.hub.Register(c.sock, c.onReadableEdge, c.onWritableEdge, c.onErrorEdge)
}

func (c *connection) Buffer() buffer.Buffer     { return c.buf }
func (c *connection) Pipeline() pipeline.Pipeline { return c.pipe }
func (c *connection) State() State              { return c.state }
func (c *connection) RemoteAddr() net.Addr      { return c.sock.RemoteAddr() }

func (c *connection) Send(payload []byte, priority int) {
	if c.closed || len(payload) == 0 {
		return
	}
	wasEmpty := c.pipe.Empty()
	c.pipe.Add(payload, priority)
	if wasEmpty {
		c.state = StateWriting
		c.hub.EnableWrite(c.sock)
	}
}

// Close requests a graceful shutdown: queued Pipeline bytes are flushed to
// the socket before the underlying teardown runs. If nothing is queued,
// onWritableEdge observes ErrCloseRequested on its very next turn and tears
// down immediately.
func (c *connection) Close() {
	if c.closed {
		return
	}
	c.pipe.CloseRequest()
	c.hub.EnableWrite(c.sock)
}

func (c *connection) Shutdown(remote bool) {
	if c.closed {
		return
	}
	c.closed = true
	c.state = StateClosing
	residual := c.buf.Pop()
	c.hub.DisableWrite(c.sock)
	c.hub.Unregister(c.sock)
	_ = c.sock.Close()
	c.state = StateClosed
	if c.onClosed != nil {
		c.onClosed(remote, residual)
	}
}

func (c *connection) onReadableEdge() {
	if c.closed {
		return
	}
	chunk := make([]byte, DefaultBufferSize)
	n, err := c.sock.Read(chunk)
	if n > 0 {
		match, ok := c.buf.Feed(chunk[:n])
		if c.onRead != nil {
			c.onRead(match, ok)
		}
	}
	if err != nil {
		if errors.Is(err, io.EOF) {
			c.Shutdown(true)
			return
		}
		if f := ErrorFilter(err); f != nil {
			c.Shutdown(true)
			return
		}
		c.Shutdown(false)
		return
	}
}

func (c *connection) onWritableEdge() {
	if c.closed {
		return
	}
	data, err := c.pipe.Read(DefaultBufferSize)
	if errors.Is(err, pipeline.ErrCloseRequested) {
		c.Shutdown(false)
		return
	}
	if len(data) == 0 {
		c.hub.DisableWrite(c.sock)
		c.state = StateReading
		return
	}
	n, werr := c.sock.Write(data)
	if n > 0 && n < len(data) {
		c.pipe.Backup(data[n:])
	}
	if werr != nil {
		if f := ErrorFilter(werr); f != nil {
			c.Shutdown(true)
			return
		}
		c.Shutdown(false)
		return
	}
	if c.pipe.Empty() {
		c.hub.DisableWrite(c.sock)
		c.state = StateReading
	}
}

func (c *connection) onErrorEdge() {
	c.Shutdown(true)
}
