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

package app

import (
	"net"
	"time"

	"github.com/nabbar/diesel/conn"
	"github.com/nabbar/diesel/dierr"
	"github.com/nabbar/diesel/hub"
	"github.com/nabbar/diesel/tlsdial"
)

// BindConnection is the exported Application entry point for wrapping an
// already-accepted inbound socket, e.g. one returned by a listener Loop's
// accept() call.
func (a *application) BindConnection(sock net.Conn) conn.Connection {
	return a.bindConnection(sock)
}

// bindConnection wraps sock as a conn.Connection whose readiness edges feed
// this application's input-waiter and connection-closed dispatch.
func (a *application) bindConnection(sock net.Conn) conn.Connection {
	var c conn.Connection
	c = conn.New(a.hub, sock,
		func(match []byte, ok bool) {
			if ok {
				a.onInputReady(c, match)
			}
		},
		func(remote bool, residual []byte) {
			a.onConnectionClosed(c, remote, residual)
		},
	)
	if a.metrics != nil {
		a.metrics.ConnectionsOpen.Inc()
	}
	return c
}

// armConnect implements §4.4's connect(client, ip, sock, timeout) procedure.
func (a *application) armConnect(l *loopImpl, sock net.Conn, timeout time.Duration, tlsCfg *tlsdial.Config) {
	var tm hub.Timer
	finished := false

	fail := func(err error) {
		if finished {
			return
		}
		finished = true
		a.hub.Unregister(sock)
		if tm != nil {
			tm.Cancel()
		}
		_ = sock.Close()
		if a.metrics != nil {
			a.metrics.ConnectErrorsTotal.Inc()
		}
		a.resume(l, resumeValue{err: err})
	}
	succeed := func(c conn.Connection) {
		if finished {
			return
		}
		finished = true
		if tm != nil {
			tm.Cancel()
		}
		a.resume(l, resumeValue{val: c})
	}

	if timeout > 0 {
		tm = a.hub.CallLater(timeout, func() {
			fail(dierr.New(dierr.KindClientConnectionTimeout, "connect: timed out", nil))
		})
	}

	err := a.hub.Register(sock,
		func() {
			fail(dierr.New(dierr.KindClientConnectionError, "connect: unexpected read before handshake", nil))
		},
		func() {
			a.hub.Unregister(sock)
			if tm != nil {
				tm.Cancel()
				tm = nil
			}
			if tlsCfg != nil {
				herr := tlsdial.AsyncHandshake(a.hub, sock, tlsCfg, func(tc net.Conn, herr error) {
					if herr != nil {
						fail(dierr.New(dierr.KindClientConnectionError, "connect: tls handshake failed", herr))
						return
					}
					succeed(a.bindConnection(tc))
				})
				if herr != nil {
					fail(dierr.New(dierr.KindClientConnectionError, "connect: tls handshake setup failed", herr))
				}
				return
			}
			succeed(a.bindConnection(sock))
		},
		func() {
			fail(dierr.New(dierr.KindClientConnectionError, "connect: error edge", nil))
		},
	)
	if err != nil {
		fail(err)
		return
	}
	a.hub.EnableWrite(sock)
}
