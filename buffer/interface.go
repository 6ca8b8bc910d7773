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

// Package buffer implements the receive-side byte accumulator described in
// the diesel runtime's core: bytes accumulate until a pending match term
// (a delimiter or a byte count) is satisfied, at which point the matched
// chunk is emitted and removed.
package buffer

// Term is a pending match criterion installed on a Buffer. Exactly one of
// Delim or Size is meaningful, selected by Kind.
type Term struct {
	Kind  TermKind
	Delim []byte
	Size  int
}

// TermKind discriminates the two forms a Term can take.
type TermKind uint8

const (
	// TermNone means no term is installed.
	TermNone TermKind = iota
	// TermDelim matches up to and including a delimiter byte-string.
	TermDelim
	// TermSize matches exactly N bytes.
	TermSize
)

// Delimiter builds a delimiter Term.
func Delimiter(delim []byte) Term {
	return Term{Kind: TermDelim, Delim: append([]byte(nil), delim...)}
}

// ByteCount builds a byte-count Term. size must be positive.
func ByteCount(size int) Term {
	return Term{Kind: TermSize, Size: size}
}

// Buffer is the receive-side accumulator of §4.1. It is not safe for
// concurrent use: per spec §5, it is touched only from the single
// scheduler/reactor goroutine.
type Buffer interface {
	// Feed appends data; if a term is active and now satisfied, it returns
	// the matched chunk (removed from the buffer) and true. Otherwise it
	// returns (nil, false).
	Feed(data []byte) ([]byte, bool)
	// SetTerm installs term. It fails if a different term is already
	// active.
	SetTerm(term Term) error
	// Check returns the match for the current term if already satisfied.
	Check() ([]byte, bool)
	// ClearTerm discards the active term without discarding buffered bytes.
	ClearTerm()
	// Pop returns and clears all buffered bytes.
	Pop() []byte
	// Len reports the number of bytes currently buffered.
	Len() int
}

// New returns an empty Buffer with no active term.
func New() Buffer {
	return &buf{}
}
