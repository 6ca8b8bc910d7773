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

// Package client is the user-facing wrapper pattern of §6: a Dial helper
// that performs the steps of diesel's Client.__init__ (resolve, connect)
// against a Loop, plus a generic Call decorator that enforces the
// push-body-pop connection-stack discipline every client wrapper in the
// original relies on.
package client

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/nabbar/diesel/conn"
	"github.com/nabbar/diesel/dierr"
	"github.com/nabbar/diesel/dnsresolve"
	"github.com/nabbar/diesel/loop"
	"github.com/nabbar/diesel/tlsdial"
)

// Client is a resolved, connected peer bound to the Loop that dialed it. It
// mirrors diesel's Client base class: a thin holder around the Connection
// returned by Loop.Connect, tracking whether it is still usable.
type Client struct {
	Conn      conn.Connection
	connected bool
}

// Connected reports whether the underlying Connection is still usable. Per
// spec.md's flagged Open Question, this reflects only whether Shutdown has
// been observed locally; it is not re-derived from the socket's live state.
func (c *Client) Connected() bool {
	return c.connected
}

// Dial resolves addr's host, dials it, and drives l.Connect to completion,
// pushing the resulting Connection onto l's stack and returning a Client
// wrapping it. The blocking resolve+dial pair runs via l.Thread so the
// calling Loop suspends exactly like any other thread() call rather than
// stalling its own goroutine on raw I/O.
func Dial(l loop.Loop, network, addr string, timeout time.Duration, tlsCfg *tlsdial.Config) (*Client, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, dierr.New(dierr.KindClientConnectionError, "client: dial: invalid address", err)
	}

	v, err := l.Thread(func() (interface{}, error) {
		ip, rerr := dnsresolve.Resolve(context.Background(), host)
		if rerr != nil {
			return nil, rerr
		}
		sock, derr := net.DialTimeout(network, net.JoinHostPort(ip.String(), port), timeout)
		if derr != nil {
			return nil, derr
		}
		return sock, nil
	})
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, dierr.New(dierr.KindClientConnectionTimeout, "client: dial timed out", err)
		}
		return nil, dierr.New(dierr.KindClientConnectionError, "client: dial failed", err)
	}

	sock := v.(net.Conn)
	c, err := l.Connect(sock, timeout, tlsCfg)
	if err != nil {
		return nil, err
	}
	return &Client{Conn: c, connected: true}, nil
}

// Call is the generic expression of diesel's call descriptor: it pushes
// c.Conn onto l's connection stack, runs body, and pops it on exit
// regardless of outcome, returning a ClientConnectionError if c is not
// currently connected.
func Call[T any](l loop.Loop, c *Client, body func() (T, error)) (T, error) {
	var zero T
	if !c.Connected() {
		return zero, dierr.New(dierr.KindClientConnectionError, "client: call on a disconnected client", nil)
	}
	l.PushConnection(c.Conn)
	defer func() {
		l.PopConnection()
	}()
	v, err := body()
	if err != nil {
		if e, ok := err.(*dierr.Error); ok && e.Kind() == dierr.KindConnectionClosed {
			c.connected = false
		}
	}
	return v, err
}

// Close requests a graceful shutdown of the underlying Connection, flushing
// any bytes already queued via Send before the socket is torn down, and
// marks c disconnected. Idempotent, matching Connection.Close.
func (c *Client) Close() {
	if c.Conn != nil {
		c.Conn.Close()
	}
	c.connected = false
}
