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

package hub

import (
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrNotSyscallConn is returned by Register when conn does not expose a raw
// file descriptor (SyscallConn), which the read/write readiness pumps need.
var ErrNotSyscallConn = errors.New("hub: connection does not support SyscallConn")

// watch tracks the pumps driving one registered net.Conn.
type watch struct {
	conn       net.Conn
	onReadable EdgeHandler
	onWritable EdgeHandler
	onError    EdgeHandler

	writeArm chan struct{}
	removed  atomic.Bool
	errOnce  sync.Once
}

// reactor is the concrete Hub. Scheduling uses an unbounded FIFO guarded by
// a sync.Cond rather than a fixed-size channel, so CallLater/Schedule/edge
// pumps never block the goroutines that feed them.
type reactor struct {
	log *logrus.Entry

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []func()
	closed bool

	watches sync.Map // net.Conn -> *watch
}

// New returns a Hub ready to Run. log may be nil, in which case a disabled
// logrus logger is used.
func New(log *logrus.Entry) Hub {
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = logrus.NewEntry(l)
	}
	r := &reactor{log: log}
	r.cond = sync.NewCond(&r.mu)
	return r
}

func (r *reactor) Register(conn net.Conn, onReadable, onWritable, onError EdgeHandler) error {
	sc, ok := conn.(syscall.Conn)
	if !ok {
		return ErrNotSyscallConn
	}
	w := &watch{
		conn:       conn,
		onReadable: onReadable,
		onWritable: onWritable,
		onError:    onError,
		writeArm:   make(chan struct{}, 1),
	}
	r.watches.Store(conn, w)

	go r.readPump(sc, w)
	go r.writePump(sc, w)
	return nil
}

func (r *reactor) Unregister(conn net.Conn) {
	if v, ok := r.watches.LoadAndDelete(conn); ok {
		v.(*watch).removed.Store(true)
	}
}

func (r *reactor) EnableWrite(conn net.Conn) {
	v, ok := r.watches.Load(conn)
	if !ok {
		return
	}
	w := v.(*watch)
	select {
	case w.writeArm <- struct{}{}:
	default:
	}
}

func (r *reactor) DisableWrite(conn net.Conn) {
	v, ok := r.watches.Load(conn)
	if !ok {
		return
	}
	w := v.(*watch)
	select {
	case <-w.writeArm:
	default:
	}
}

// readPump parks on the netpoller until conn is readable, without consuming
// any bytes, then hands the edge to the reactor goroutine. It repeats until
// the watch is removed or the socket errors.
func (r *reactor) readPump(sc syscall.Conn, w *watch) {
	waitReadable := func(uintptr) bool { return true }
	for {
		if w.removed.Load() {
			return
		}
		rc, err := sc.SyscallConn()
		if err != nil {
			r.fireError(w)
			return
		}
		if err := rc.Read(waitReadable); err != nil {
			if w.removed.Load() {
				return
			}
			r.fireError(w)
			return
		}
		if w.removed.Load() {
			return
		}
		r.Schedule(func() {
			if !w.removed.Load() {
				w.onReadable()
			}
		})
	}
}

// writePump waits for EnableWrite before parking on writability, so a
// connection with nothing queued never spins on a perpetually-writable fd.
func (r *reactor) writePump(sc syscall.Conn, w *watch) {
	waitWritable := func(uintptr) bool { return true }
	for {
		if w.removed.Load() {
			return
		}
		<-w.writeArm
		if w.removed.Load() {
			return
		}
		rc, err := sc.SyscallConn()
		if err != nil {
			r.fireError(w)
			return
		}
		if err := rc.Write(waitWritable); err != nil {
			if w.removed.Load() {
				return
			}
			r.fireError(w)
			return
		}
		if w.removed.Load() {
			return
		}
		r.Schedule(func() {
			if !w.removed.Load() {
				w.onWritable()
			}
		})
	}
}

func (r *reactor) fireError(w *watch) {
	w.errOnce.Do(func() {
		r.Schedule(func() {
			if !w.removed.Load() {
				w.onError()
			}
		})
	})
}

func (r *reactor) CallLater(d time.Duration, fn func()) Timer {
	tm := &timerHandle{}
	tm.t = time.AfterFunc(d, func() {
		if tm.cancelled.Load() {
			return
		}
		r.Schedule(func() {
			if !tm.cancelled.Load() {
				fn()
			}
		})
	})
	return tm
}

func (r *reactor) Schedule(fn func()) {
	r.mu.Lock()
	r.queue = append(r.queue, fn)
	r.cond.Signal()
	r.mu.Unlock()
}

func (r *reactor) RunInThread(fn func() (interface{}, error), done func(interface{}, error)) {
	go func() {
		v, err := fn()
		r.Schedule(func() { done(v, err) })
	}()
}

func (r *reactor) Run() error {
	for {
		r.mu.Lock()
		for len(r.queue) == 0 && !r.closed {
			r.cond.Wait()
		}
		if len(r.queue) == 0 && r.closed {
			r.mu.Unlock()
			return nil
		}
		fn := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()

		r.runTask(fn)
	}
}

// runTask isolates a single task so a panicking edge handler cannot take
// down the whole reactor goroutine; it is logged and the reactor continues.
func (r *reactor) runTask(fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.WithField("panic", rec).Error("hub: recovered panic in scheduled task")
		}
	}()
	fn()
}

func (r *reactor) Stop() {
	r.mu.Lock()
	r.closed = true
	r.cond.Broadcast()
	r.mu.Unlock()
}

type timerHandle struct {
	t         *time.Timer
	cancelled atomic.Bool
}

func (tm *timerHandle) Cancel() {
	tm.cancelled.Store(true)
	tm.t.Stop()
}
