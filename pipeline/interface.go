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

// Package pipeline implements the send-side priority queue described in the
// diesel runtime's core: outbound byte chunks ordered by (priority,
// insertion), with a soft close-requested marker that a drained read()
// turns into a distinct "close requested" condition.
package pipeline

import "errors"

// ErrCloseRequested is returned by Read when the pipeline is empty and
// close-requested is set. It is a distinct condition from "no data yet".
var ErrCloseRequested = errors.New("pipeline: close requested")

// DefaultPriority is the priority used by Loop.Send when none is given,
// matching spec §4.4's send(payload, priority=5).
const DefaultPriority = 5

// Pipeline is the send-side queue of §4.2. Not safe for concurrent use: per
// spec §5 it is touched only from the single reactor goroutine.
type Pipeline interface {
	// Add enqueues payload at the given priority (lower value = higher
	// precedence; equal priority is FIFO).
	Add(payload []byte, priority int)
	// Read dequeues up to n bytes, splitting the front entry if needed. If
	// the pipeline is empty and close-requested is set, it returns
	// ErrCloseRequested instead of data.
	Read(n int) ([]byte, error)
	// Backup re-prepends bytes at the highest precedence so the next Read
	// returns them first.
	Backup(data []byte)
	// CloseRequest sets the close-requested flag.
	CloseRequest()
	// Empty reports whether no bytes remain queued.
	Empty() bool
}

// New returns an empty Pipeline with no close request pending.
func New() Pipeline {
	return &pipe{}
}
