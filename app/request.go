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

	"github.com/nabbar/diesel/buffer"
	"github.com/nabbar/diesel/conn"
	"github.com/nabbar/diesel/loop"
	"github.com/nabbar/diesel/tlsdial"
)

// reqKind discriminates the suspending primitive a Loop is blocked on.
type reqKind int

const (
	reqInput reqKind = iota
	reqSleep
	reqWait
	reqThread
	reqFirst
	reqConnect
	reqTerminated
)

// request is what a Loop goroutine hands the driving goroutine across
// reqCh when it suspends (or terminates).
type request struct {
	kind reqKind

	// reqInput
	term       buffer.Term
	targetConn conn.Connection

	// reqSleep
	sleepDur time.Duration

	// reqWait
	waitEvent string

	// reqThread
	threadFn func() (interface{}, error)

	// reqFirst
	first loop.FirstRequest

	// reqConnect
	connSock    net.Conn
	connTimeout time.Duration
	connTLS     *tlsdial.Config

	// reqTerminated
	err error
}

// resumeValue is what the driving goroutine hands back across resumeCh to
// wake a suspended Loop.
type resumeValue struct {
	val interface{}
	err error
}
