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
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nabbar/diesel/conn"
	"github.com/nabbar/diesel/dierr"
	"github.com/nabbar/diesel/hub"
	"github.com/nabbar/diesel/loop"
	"github.com/nabbar/diesel/metrics"
)

// keepAliveDelay is the fixed restart backoff of §4.4's run lifecycle.
const keepAliveDelay = 500 * time.Millisecond

// inputWaiter is a pending Input/First-input registration against a single
// Connection. Only one may exist per Connection at a time, mirroring
// Buffer's single-active-term invariant.
type inputWaiter struct {
	loop    *loopImpl
	deliver func(match []byte)
}

// waiter is a pending Wait/First-wait registration against an event name.
type waiter struct {
	loop   *loopImpl
	notify func(value interface{})
}

// application is the concrete Application: the runhub of §4.5.
type application struct {
	hub     hub.Hub
	log     *logrus.Entry
	metrics *metrics.Metrics

	idSeq uint64

	running map[uint64]*loopImpl

	waits        map[string]map[*loopImpl]*waiter
	inputWaiters map[conn.Connection]*inputWaiter
}

func (a *application) Hub() hub.Hub { return a.hub }

func (a *application) Running() int { return len(a.running) }

func (a *application) Run() error { return a.hub.Run() }

func (a *application) Stop() { a.hub.Stop() }

func (a *application) AddLoop(fn loop.Func) loop.Loop {
	return a.addLoopFrom(fn, nil)
}

// addLoopFrom creates l, starts its goroutine, and schedules its first
// drive for the next hub turn, matching §4.5's add_loop contract. parent
// may be nil for an unparented Fork.
func (a *application) addLoopFrom(fn loop.Func, parent *loopImpl) *loopImpl {
	id := atomic.AddUint64(&a.idSeq, 1)
	l := &loopImpl{
		id:       id,
		app:      a,
		fn:       fn,
		reqCh:    make(chan request),
		resumeCh: make(chan resumeValue),
		parent:   parent,
	}
	if parent != nil {
		if parent.children == nil {
			parent.children = make(map[*loopImpl]struct{})
		}
		parent.children[l] = struct{}{}
	}
	if a.metrics != nil {
		a.metrics.LoopsForkedTotal.Inc()
	}

	go l.runBody()
	a.hub.Schedule(func() { a.start(l) })
	return l
}

// start is the first drive of a (newly created or keep-alive-restarted)
// Loop: insert it into the running set and block until its first request.
func (a *application) start(l *loopImpl) {
	a.running[l.id] = l
	if a.metrics != nil {
		a.metrics.LoopsRunning.Set(float64(len(a.running)))
	}
	req := <-l.reqCh
	a.handleRequest(l, req)
}

// resume applies the wakeup rule, delivers rv, and blocks until l's next
// request — either a new suspension or termination.
func (a *application) resume(l *loopImpl, rv resumeValue) {
	l.runCleanup()
	l.resumeCh <- rv
	req := <-l.reqCh
	a.handleRequest(l, req)
}

func (a *application) handleRequest(l *loopImpl, req request) {
	switch req.kind {
	case reqSleep:
		a.armSleep(l, req.sleepDur)
	case reqWait:
		a.registerWait(l, req.waitEvent)
	case reqThread:
		a.armThread(l, req.threadFn)
	case reqInput:
		a.armInput(l, req.targetConn, "")
	case reqFirst:
		a.armFirst(l, req.first)
	case reqConnect:
		a.armConnect(l, req.connSock, req.connTimeout, req.connTLS)
	case reqTerminated:
		a.terminate(l, req.err)
	}
}

func (a *application) armSleep(l *loopImpl, d time.Duration) {
	if d <= 0 {
		a.hub.Schedule(func() { a.resume(l, resumeValue{val: true}) })
		return
	}
	tm := a.hub.CallLater(d, func() { a.resume(l, resumeValue{val: true}) })
	l.cleanup = append(l.cleanup, tm.Cancel)
}

func (a *application) armThread(l *loopImpl, fn func() (interface{}, error)) {
	a.hub.RunInThread(fn, func(v interface{}, err error) {
		a.resume(l, resumeValue{val: v, err: err})
	})
}

// armInput registers l as the sole waiter for c's currently-installed term.
// tag is unused for the plain Input primitive (kept as a parameter for
// symmetry with armFirst's input arm, which wraps the match in a Result).
func (a *application) armInput(l *loopImpl, c conn.Connection, _ loop.Tag) {
	a.inputWaiters[c] = &inputWaiter{
		loop: l,
		deliver: func(match []byte) {
			a.resume(l, resumeValue{val: match})
		},
	}
	l.cleanup = append(l.cleanup, func() {
		if iw := a.inputWaiters[c]; iw != nil && iw.loop == l {
			delete(a.inputWaiters, c)
		}
		c.Buffer().ClearTerm()
	})
}

func (a *application) registerWait(l *loopImpl, event string) {
	a.registerWaitFn(l, event, func(v interface{}) {
		a.resume(l, resumeValue{val: v})
	})
}

func (a *application) registerWaitFn(l *loopImpl, event string, notify func(interface{})) {
	if a.waits[event] == nil {
		a.waits[event] = make(map[*loopImpl]*waiter)
	}
	a.waits[event][l] = &waiter{loop: l, notify: notify}
	l.cleanup = append(l.cleanup, func() { a.clearWait(l, event) })
}

func (a *application) clearWait(l *loopImpl, event string) {
	group := a.waits[event]
	if group == nil {
		return
	}
	delete(group, l)
	if len(group) == 0 {
		delete(a.waits, event)
	}
}

// fire is Loop.Fire's implementation (§4.5's wait index): it delivers value
// to exactly the Loops registered as waiters at this instant, and only
// those; later registrations for the same event do not observe it.
func (a *application) fire(event string, value interface{}) {
	group := a.waits[event]
	if group == nil {
		return
	}
	delete(a.waits, event)
	for _, w := range group {
		w.notify(value)
	}
}

func (a *application) armFirst(l *loopImpl, req loop.FirstRequest) {
	fired := false
	resolve := func(res loop.Result) {
		if fired {
			return
		}
		fired = true
		a.resume(l, resumeValue{val: res})
	}
	resolveErr := func(err error) {
		if fired {
			return
		}
		fired = true
		a.resume(l, resumeValue{err: err})
	}

	if req.HasSleep {
		if req.Sleep <= 0 {
			a.hub.Schedule(func() { resolve(loop.Result{Tag: loop.TagSleep}) })
		} else {
			tm := a.hub.CallLater(req.Sleep, func() { resolve(loop.Result{Tag: loop.TagSleep}) })
			l.cleanup = append(l.cleanup, tm.Cancel)
		}
	}

	for _, ev := range req.Waits {
		ev := ev
		a.registerWaitFn(l, ev, func(v interface{}) {
			resolve(loop.Result{Tag: loop.TagWait, Event: ev, Fired: v})
		})
	}

	tag, _, hasInput := firstInputTerm(req)
	if hasInput {
		c := l.Top()
		if c == nil {
			resolveErr(dierr.New(dierr.KindProgrammerError, "first: no connection on stack", nil))
			return
		}
		a.inputWaiters[c] = &inputWaiter{
			loop: l,
			deliver: func(match []byte) {
				resolve(loop.Result{Tag: tag, Value: match})
			},
		}
		l.cleanup = append(l.cleanup, func() {
			if iw := a.inputWaiters[c]; iw != nil && iw.loop == l {
				delete(a.inputWaiters, c)
			}
			c.Buffer().ClearTerm()
		})
	}
}

// onInputReady is wired as every bound Connection's onReadable callback; it
// delivers a satisfied term to whichever Loop is currently waiting on it, if
// any. A match with nobody waiting is simply dropped — the buffer invariant
// guarantees at most one term is active per Connection at a time.
func (a *application) onInputReady(c conn.Connection, match []byte) {
	iw := a.inputWaiters[c]
	if iw == nil {
		return
	}
	delete(a.inputWaiters, c)
	iw.deliver(match)
}

// onConnectionClosed is wired as every bound Connection's onClosed
// callback. Per §4.3, a blocked input waiter is only woken here when the
// close originated with the peer (remote); a local Shutdown/Close is a
// planned teardown the initiating Loop already knows about. residual
// carries whatever bytes were still buffered and unconsumed at the moment
// of closure and is attached to the delivered ConnectionClosed error.
func (a *application) onConnectionClosed(c conn.Connection, remote bool, residual []byte) {
	if a.metrics != nil {
		a.metrics.ConnectionsOpen.Dec()
	}
	iw := a.inputWaiters[c]
	if iw == nil {
		return
	}
	if !remote {
		return
	}
	delete(a.inputWaiters, c)
	a.resume(iw.loop, resumeValue{err: dierr.NewConnectionClosed("connection closed", residual)})
}

// terminate implements §4.4's Loop run lifecycle epilogue: close a single
// retained connection, notify children, and either retire the Loop or
// schedule its keep_alive restart.
func (a *application) terminate(l *loopImpl, err error) {
	if c := l.Top(); c != nil {
		c.Close()
	}
	if err != nil && !dierr.IsTerminateLoop(err) {
		a.log.WithField("loop", l.id).WithField("label", l.label).WithError(err).Error("loop: body failed")
	}

	for child := range l.children {
		a.resume(child, resumeValue{err: dierr.ErrParentDied})
	}

	delete(a.running, l.id)
	if a.metrics != nil {
		a.metrics.LoopsRunning.Set(float64(len(a.running)))
	}
	if l.parent != nil && l.parent.children != nil {
		delete(l.parent.children, l)
	}

	if l.keepAlive && !dierr.IsTerminateLoop(err) {
		if a.metrics != nil {
			a.metrics.KeepAliveRestartTotal.Inc()
		}
		a.hub.CallLater(keepAliveDelay, func() {
			l.connStack = nil
			l.children = nil
			l.cleanup = nil
			go l.runBody()
			a.start(l)
		})
	}
}
