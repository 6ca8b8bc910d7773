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

// Package dierr is the error taxonomy of the diesel runtime: a small,
// closed set of kinds a Loop can raise or observe, each carrying an
// optional parent error and, for ConnectionClosed, residual buffered bytes.
package dierr

import (
	"errors"
	"fmt"
)

// Kind classifies the error taxonomy a Loop can raise or observe.
type Kind uint8

const (
	// KindConnectionClosed: operation on a closed Connection, or a resume
	// delivered to a Loop whose top-of-stack Connection closed while
	// waiting.
	KindConnectionClosed Kind = iota
	// KindClientConnectionError: connect failed pre-handshake or during
	// handshake.
	KindClientConnectionError
	// KindClientConnectionTimeout: timeout elapsed before connect completed.
	KindClientConnectionTimeout
	// KindParentDied: delivered to a child Loop when its parent terminates.
	KindParentDied
	// KindTerminateLoop: internal clean-exit signal, not a failure.
	KindTerminateLoop
	// KindKeepAlive: advisory marker used by keep-alive restart logic.
	KindKeepAlive
	// KindProgrammerError: operating without a connection on the stack, or
	// any other invariant violation that is never retried.
	KindProgrammerError
)

func (k Kind) String() string {
	switch k {
	case KindConnectionClosed:
		return "connection closed"
	case KindClientConnectionError:
		return "client connection error"
	case KindClientConnectionTimeout:
		return "client connection timeout"
	case KindParentDied:
		return "parent died"
	case KindTerminateLoop:
		return "terminate loop"
	case KindKeepAlive:
		return "keep alive"
	case KindProgrammerError:
		return "programmer error"
	default:
		return "unknown diesel error"
	}
}

// Error is the concrete error type for every Kind above. It is comparable
// by Kind via errors.Is, wraps an optional parent via errors.Unwrap, and
// carries residual bytes for ConnectionClosed per spec.
type Error struct {
	kind     Kind
	msg      string
	parent   error
	residual []byte
}

func (e *Error) Error() string {
	if e.msg == "" {
		return e.kind.String()
	}
	if e.parent != nil {
		return fmt.Sprintf("%s: %s: %s", e.kind, e.msg, e.parent)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.msg)
}

// Unwrap exposes the wrapped parent error, if any, to errors.Unwrap/As.
func (e *Error) Unwrap() error {
	return e.parent
}

// Is reports whether target is a *Error of the same Kind, so call sites can
// use errors.Is(err, dierr.New(dierr.KindConnectionClosed, "", nil)) style
// sentinels, or more simply errors.Is(err, dierr.ErrConnectionClosed).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.kind == e.kind
}

// Kind returns the classification of this error.
func (e *Error) Kind() Kind {
	return e.kind
}

// Residual returns the buffered bytes salvaged at the moment a
// ConnectionClosed error was raised, if any.
func (e *Error) Residual() []byte {
	return e.residual
}

// New builds an Error of the given kind with a message and optional parent.
func New(kind Kind, msg string, parent error) *Error {
	return &Error{kind: kind, msg: msg, parent: parent}
}

// NewConnectionClosed builds a ConnectionClosed error carrying residual
// buffered bytes, as surfaced by shutdown(remote=true) in spec §4.3.
func NewConnectionClosed(msg string, residual []byte) *Error {
	return &Error{kind: KindConnectionClosed, msg: msg, residual: residual}
}

// Sentinels usable directly with errors.Is for the zero-argument cases.
var (
	ErrConnectionClosed         = New(KindConnectionClosed, "", nil)
	ErrClientConnectionError    = New(KindClientConnectionError, "", nil)
	ErrClientConnectionTimeout  = New(KindClientConnectionTimeout, "", nil)
	ErrParentDied               = New(KindParentDied, "", nil)
	ErrTerminateLoop            = New(KindTerminateLoop, "", nil)
	ErrKeepAlive                = New(KindKeepAlive, "", nil)
	ErrProgrammerError          = New(KindProgrammerError, "", nil)
)

// IsTerminateLoop reports whether err is, or wraps, the clean-exit sentinel.
func IsTerminateLoop(err error) bool {
	return errors.Is(err, ErrTerminateLoop)
}
