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

package app_test

import (
	"net"
	"testing"
	"time"

	"github.com/nabbar/diesel/app"
	"github.com/nabbar/diesel/loop"
)

func newTestApp(t *testing.T) app.Application {
	t.Helper()
	a := app.New(app.Config{})
	go func() {
		if err := a.Run(); err != nil {
			t.Logf("hub run: %v", err)
		}
	}()
	t.Cleanup(a.Stop)
	return a
}

func TestAddLoop_SleepThenTerminatesCleanly(t *testing.T) {
	a := newTestApp(t)

	done := make(chan error, 1)
	a.AddLoop(func(l loop.Loop) error {
		if err := l.Sleep(0.01); err != nil {
			done <- err
			return err
		}
		done <- nil
		return nil
	})

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("loop never woke from Sleep")
	}
}

func TestWaitFire_DeliversValueToWaiter(t *testing.T) {
	a := newTestApp(t)

	received := make(chan interface{}, 1)
	ready := make(chan struct{})
	a.AddLoop(func(l loop.Loop) error {
		close(ready)
		v, err := l.Wait("ping")
		if err != nil {
			return err
		}
		received <- v
		return nil
	})

	<-ready
	// Give the waiter Loop a turn to register before firing; Fire only
	// reaches waiters registered at the instant it runs.
	time.Sleep(20 * time.Millisecond)

	a.AddLoop(func(l loop.Loop) error {
		l.Fire("ping", 7)
		return nil
	})

	select {
	case v := <-received:
		if v.(int) != 7 {
			t.Fatalf("got %v, want 7", v)
		}
	case <-time.After(time.Second):
		t.Fatal("waiter never woke from Fire")
	}
}

func TestForkChild_NotifiedWhenParentTerminates(t *testing.T) {
	a := newTestApp(t)

	childErr := make(chan error, 1)
	childReady := make(chan struct{})
	a.AddLoop(func(l loop.Loop) error {
		l.ForkChild(func(cl loop.Loop) error {
			close(childReady)
			_, err := cl.Wait("never-fired")
			childErr <- err
			return err
		})
		// Wait until the child has reached its own suspension point before
		// this Loop terminates, so the driving goroutine isn't asked to
		// resume a child still mid-flight toward its first request.
		<-childReady
		time.Sleep(20 * time.Millisecond)
		return nil
	})

	select {
	case err := <-childErr:
		if err == nil {
			t.Fatal("expected child to observe parent death")
		}
	case <-time.After(time.Second):
		t.Fatal("child never woke after parent termination")
	}
}

// TestConnectAndBindConnection_RoundTrip exercises Connect (client side) and
// BindConnection (server side) against a real TCP loopback listener, since
// the hub's readiness pump requires a genuine syscall.Conn.
func TestConnectAndBindConnection_RoundTrip(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	a := newTestApp(t)

	serverGotLine := make(chan string, 1)
	accepted := make(chan net.Conn, 1)
	go func() {
		c, aerr := ln.Accept()
		if aerr != nil {
			return
		}
		accepted <- c
	}()

	a.AddLoop(func(l loop.Loop) error {
		sock := <-accepted
		c := a.BindConnection(sock)
		l.PushConnection(c)
		line, rerr := l.UntilEOL()
		if rerr != nil {
			return rerr
		}
		serverGotLine <- string(line)
		return nil
	})

	clientDone := make(chan error, 1)
	a.AddLoop(func(l loop.Loop) error {
		sock, derr := net.Dial("tcp", ln.Addr().String())
		if derr != nil {
			clientDone <- derr
			return derr
		}
		c, cerr := l.Connect(sock, time.Second, nil)
		if cerr != nil {
			clientDone <- cerr
			return cerr
		}
		_ = c
		l.Send([]byte("hello diesel\n"), 5)
		clientDone <- nil
		return nil
	})

	select {
	case err := <-clientDone:
		if err != nil {
			t.Fatalf("client loop failed: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("client loop never completed")
	}

	select {
	case line := <-serverGotLine:
		if line != "hello diesel\n" {
			t.Fatalf("got %q, want %q", line, "hello diesel\n")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server loop never received the line")
	}
}

// TestRemoteClose_WakesWaiterWithConnectionClosed covers §4.3/§7: a peer
// that closes mid-read must wake the waiting UntilEOL with ConnectionClosed,
// not leave it blocked forever.
func TestRemoteClose_WakesWaiterWithConnectionClosed(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	a := newTestApp(t)

	accepted := make(chan net.Conn, 1)
	go func() {
		c, aerr := ln.Accept()
		if aerr != nil {
			return
		}
		accepted <- c
	}()

	serverDone := make(chan error, 1)
	a.AddLoop(func(l loop.Loop) error {
		sock := <-accepted
		c := a.BindConnection(sock)
		l.PushConnection(c)
		_, rerr := l.UntilEOL()
		serverDone <- rerr
		return rerr
	})

	sock, derr := net.Dial("tcp", ln.Addr().String())
	if derr != nil {
		t.Fatalf("dial: %v", derr)
	}
	if _, werr := sock.Write([]byte("partial, no newline")); werr != nil {
		t.Fatalf("write: %v", werr)
	}
	_ = sock.Close()

	select {
	case err := <-serverDone:
		if err == nil {
			t.Fatal("expected ConnectionClosed once the peer hangs up mid-read")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server loop was never woken by the remote close")
	}
}
