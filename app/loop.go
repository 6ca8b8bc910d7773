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
	"github.com/nabbar/diesel/dierr"
	"github.com/nabbar/diesel/loop"
	"github.com/nabbar/diesel/tlsdial"
)

// loopImpl is the concrete loop.Loop. It is touched from two goroutines by
// design: its own (running fn) and the driving goroutine (the reactor, or
// whichever goroutine is currently threading a resume() call on its
// behalf) — but never both at once, since the driving side blocks on reqCh
// immediately after handing control to fn via resumeCh.
type loopImpl struct {
	id  uint64
	app *application
	fn  loop.Func

	reqCh    chan request
	resumeCh chan resumeValue

	connStack []conn.Connection
	keepAlive bool
	label     string

	parent   *loopImpl
	children map[*loopImpl]struct{}

	// cleanup holds the teardown actions for whatever source(s) are
	// currently armed; runCleanup applies the wakeup rule of §4.4 before
	// every resumption.
	cleanup []func()
}

func (l *loopImpl) suspend(req request) (interface{}, error) {
	l.reqCh <- req
	rv := <-l.resumeCh
	return rv.val, rv.err
}

func (l *loopImpl) runCleanup() {
	for _, fn := range l.cleanup {
		fn()
	}
	l.cleanup = l.cleanup[:0]
}

// runBody executes fn on this Loop's own goroutine and funnels its outcome
// into a terminated request, picked up by whichever goroutine is currently
// blocked reading reqCh.
func (l *loopImpl) runBody() {
	var err error
	func() {
		defer func() {
			if rec := recover(); rec != nil {
				err = dierr.New(dierr.KindProgrammerError, "loop: panic in body", asError(rec))
			}
		}()
		err = l.fn(l)
	}()
	l.reqCh <- request{kind: reqTerminated, err: err}
}

func asError(v interface{}) error {
	if e, ok := v.(error); ok {
		return e
	}
	return dierr.New(dierr.KindProgrammerError, "loop: non-error panic value", nil)
}

func (l *loopImpl) Input(term buffer.Term) ([]byte, error) {
	c := l.Top()
	if c == nil {
		return nil, dierr.New(dierr.KindProgrammerError, "input: no connection on stack", nil)
	}
	if err := c.Buffer().SetTerm(term); err != nil {
		return nil, err
	}
	if chunk, ok := c.Buffer().Check(); ok {
		c.Buffer().ClearTerm()
		return chunk, nil
	}
	v, err := l.suspend(request{kind: reqInput, term: term, targetConn: c})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (l *loopImpl) Receive(n int) ([]byte, error) {
	return l.Input(buffer.ByteCount(n))
}

func (l *loopImpl) Until(delim []byte) ([]byte, error) {
	return l.Input(buffer.Delimiter(delim))
}

func (l *loopImpl) UntilEOL() ([]byte, error) {
	return l.Until([]byte{conn.EOL})
}

func (l *loopImpl) Send(payload []byte, priority int) {
	c := l.Top()
	if c == nil {
		return
	}
	c.Send(payload, priority)
}

func (l *loopImpl) Sleep(seconds float64) error {
	d := time.Duration(seconds * float64(time.Second))
	_, err := l.suspend(request{kind: reqSleep, sleepDur: d})
	return err
}

func (l *loopImpl) Wait(event string) (interface{}, error) {
	return l.suspend(request{kind: reqWait, waitEvent: event})
}

func (l *loopImpl) Fire(event string, value interface{}) {
	l.app.fire(event, value)
}

func (l *loopImpl) Thread(fn func() (interface{}, error)) (interface{}, error) {
	return l.suspend(request{kind: reqThread, threadFn: fn})
}

func (l *loopImpl) First(req loop.FirstRequest) (loop.Result, error) {
	tag, term, hasInput := firstInputTerm(req)
	if hasInput {
		c := l.Top()
		if c == nil {
			return loop.Result{}, dierr.New(dierr.KindProgrammerError, "first: no connection on stack", nil)
		}
		if err := c.Buffer().SetTerm(term); err != nil {
			return loop.Result{}, err
		}
		if chunk, ok := c.Buffer().Check(); ok {
			c.Buffer().ClearTerm()
			return loop.Result{Tag: tag, Value: chunk}, nil
		}
	}
	v, err := l.suspend(request{kind: reqFirst, first: req})
	if err != nil {
		return loop.Result{}, err
	}
	return v.(loop.Result), nil
}

func firstInputTerm(req loop.FirstRequest) (loop.Tag, buffer.Term, bool) {
	switch {
	case req.UntilEOL:
		return loop.TagUntilEOL, buffer.Delimiter([]byte{conn.EOL}), true
	case req.HasUntil:
		return loop.TagUntil, buffer.Delimiter(req.Until), true
	case req.Receive > 0:
		return loop.TagReceive, buffer.ByteCount(req.Receive), true
	default:
		return "", buffer.Term{}, false
	}
}

func (l *loopImpl) Connect(sock net.Conn, timeout time.Duration, tlsCfg *tlsdial.Config) (conn.Connection, error) {
	v, err := l.suspend(request{kind: reqConnect, connSock: sock, connTimeout: timeout, connTLS: tlsCfg})
	if err != nil {
		return nil, err
	}
	c := v.(conn.Connection)
	l.PushConnection(c)
	return c, nil
}

func (l *loopImpl) Fork(fn loop.Func) loop.Loop {
	return l.app.addLoopFrom(fn, nil)
}

func (l *loopImpl) ForkChild(fn loop.Func) loop.Loop {
	return l.app.addLoopFrom(fn, l)
}

func (l *loopImpl) Label(text string) {
	l.label = text
}

func (l *loopImpl) PushConnection(c conn.Connection) {
	l.connStack = append(l.connStack, c)
}

func (l *loopImpl) PopConnection() conn.Connection {
	if len(l.connStack) == 0 {
		return nil
	}
	c := l.connStack[len(l.connStack)-1]
	l.connStack = l.connStack[:len(l.connStack)-1]
	return c
}

func (l *loopImpl) Top() conn.Connection {
	if len(l.connStack) == 0 {
		return nil
	}
	return l.connStack[len(l.connStack)-1]
}

func (l *loopImpl) ID() uint64 {
	return l.id
}

func (l *loopImpl) KeepAlive(keep bool) {
	l.keepAlive = keep
}
