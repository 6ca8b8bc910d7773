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

package conn_test

import (
	"net"
	"testing"
	"time"

	"github.com/nabbar/diesel/conn"
	"github.com/nabbar/diesel/hub"
)

// fakeHub drives edge handlers synchronously under test control, instead of
// off a real netpoller, so Connection logic can be exercised deterministically.
type fakeHub struct {
	onReadable func()
	onWritable func()
	onError    func()
	writeArmed bool
}

func (f *fakeHub) Register(c net.Conn, r, w, e func()) error {
	f.onReadable, f.onWritable, f.onError = r, w, e
	return nil
}
func (f *fakeHub) Unregister(net.Conn)   {}
func (f *fakeHub) EnableWrite(net.Conn)  { f.writeArmed = true }
func (f *fakeHub) DisableWrite(net.Conn) { f.writeArmed = false }
func (f *fakeHub) CallLater(time.Duration, func()) hub.Timer {
	return hubTimer{}
}
func (f *fakeHub) Schedule(fn func())                                       { fn() }
func (f *fakeHub) RunInThread(fn func() (interface{}, error), done func(interface{}, error)) {
	v, err := fn()
	done(v, err)
}
func (f *fakeHub) Run() error { return nil }
func (f *fakeHub) Stop()      {}

type hubTimer struct{}

func (hubTimer) Cancel() {}

func TestSend_ArmsWriteOnlyWhenPipelineWasEmpty(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	fh := &fakeHub{}
	c := conn.New(fh, server, nil, nil)

	c.Send([]byte("hello"), 5)
	if !fh.writeArmed {
		t.Fatal("Send on an empty pipeline must arm the write edge")
	}
}

func TestWritableEdge_DrainsQueuedDataToSocket(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	fh := &fakeHub{}
	c := conn.New(fh, server, nil, nil)
	c.Send([]byte("payload"), 5)

	readDone := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 64)
		n, _ := client.Read(buf)
		readDone <- buf[:n]
	}()

	fh.onWritable()

	select {
	case got := <-readDone:
		if string(got) != "payload" {
			t.Fatalf("client read %q, want %q", got, "payload")
		}
	case <-time.After(time.Second):
		t.Fatal("client never received the written payload")
	}
	if fh.writeArmed {
		t.Fatal("write edge should disarm once the pipeline drains")
	}
}

func TestReadableEdge_FeedsBufferAndInvokesCallback(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	fh := &fakeHub{}
	type notification struct {
		match []byte
		ok    bool
	}
	notified := make(chan notification, 1)
	c := conn.New(fh, server, func(match []byte, ok bool) {
		notified <- notification{match, ok}
	}, nil)

	go client.Write([]byte("ping"))
	fh.onReadable()

	select {
	case n := <-notified:
		if n.ok {
			t.Fatalf("no term installed yet, expected ok=false, got match %q", n.match)
		}
	case <-time.After(time.Second):
		t.Fatal("onReadable callback never fired")
	}
	if c.Buffer().Len() != len("ping") {
		t.Fatalf("buffer len = %d, want %d", c.Buffer().Len(), len("ping"))
	}
}

func TestShutdown_IsIdempotentAndReportsRemote(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	fh := &fakeHub{}
	var gotRemote bool
	calls := 0
	c := conn.New(fh, server, nil, func(remote bool, residual []byte) {
		calls++
		gotRemote = remote
	})

	c.Shutdown(true)
	c.Shutdown(true)

	if calls != 1 {
		t.Fatalf("onClosed called %d times, want 1", calls)
	}
	if !gotRemote {
		t.Fatal("onClosed remote = false, want true")
	}
	if c.State() != conn.StateClosed {
		t.Fatalf("state = %v, want closed", c.State())
	}
}

// TestShutdown_AttachesResidualBufferedBytes covers spec §7/§8: bytes fed
// into Buffer but never consumed by a satisfied term must be handed back on
// the onClosed callback.
func TestShutdown_AttachesResidualBufferedBytes(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	fh := &fakeHub{}
	c := conn.New(fh, server, func([]byte, bool) {}, func(remote bool, residual []byte) {
		if string(residual) != "partial" {
			t.Fatalf("residual = %q, want %q", residual, "partial")
		}
	})

	go client.Write([]byte("partial"))
	fh.onReadable()
	c.Shutdown(true)
}

// TestClose_FlushesQueuedDataBeforeShutdown covers the send-then-return
// pattern of spec §3/§4.3: bytes already queued via Send must reach the
// socket before the connection tears itself down, instead of being
// discarded by an immediate hard Shutdown.
func TestClose_FlushesQueuedDataBeforeShutdown(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	fh := &fakeHub{}
	closed := make(chan struct{}, 1)
	c := conn.New(fh, server, nil, func(remote bool, residual []byte) {
		closed <- struct{}{}
	})

	c.Send([]byte("flush-me"), 5)
	c.Close()

	readDone := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 64)
		n, _ := client.Read(buf)
		readDone <- buf[:n]
	}()

	// The first writable edge flushes the queued bytes to the socket.
	fh.onWritable()

	select {
	case got := <-readDone:
		if string(got) != "flush-me" {
			t.Fatalf("client read %q, want %q", got, "flush-me")
		}
	case <-time.After(time.Second):
		t.Fatal("client never received the queued payload")
	}

	// The next writable edge finds the queue drained, observes
	// ErrCloseRequested and tears the connection down.
	fh.onWritable()

	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("onClosed never fired after the queue drained")
	}
	if c.State() != conn.StateClosed {
		t.Fatalf("state = %v, want closed", c.State())
	}
}

func TestClose_WithNothingQueuedClosesOnNextWritableTurn(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	fh := &fakeHub{}
	var gotRemote bool
	closed := make(chan struct{}, 1)
	c := conn.New(fh, server, nil, func(remote bool, residual []byte) {
		gotRemote = remote
		closed <- struct{}{}
	})

	c.Close()
	fh.onWritable()

	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("onClosed never fired")
	}
	if gotRemote {
		t.Fatal("onClosed remote = true, want false for a local Close")
	}
}
