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

package tlsdial

import (
	"crypto/tls"
	"net"

	"github.com/nabbar/diesel/hub"
)

// AsyncHandshake is the TLS handshake contract of §6:
// ssl_async_handshake(tls_sock, hub, finish_cb). It wraps sock in a
// *tls.Conn and drives the handshake via h.RunInThread, so the caller's
// Loop suspends exactly as it would for any other thread() call; finish is
// invoked on the reactor goroutine with either the ready *tls.Conn or the
// handshake error.
func AsyncHandshake(h hub.Hub, sock net.Conn, cfg *Config, finish func(net.Conn, error)) error {
	tlsCfg, err := cfg.ClientConfig()
	if err != nil {
		return err
	}

	tlsConn := tls.Client(sock, tlsCfg)
	h.RunInThread(func() (interface{}, error) {
		if err := tlsConn.Handshake(); err != nil {
			return nil, err
		}
		return tlsConn, nil
	}, func(v interface{}, err error) {
		if err != nil {
			finish(nil, err)
			return
		}
		finish(v.(net.Conn), nil)
	})
	return nil
}
