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

package buffer

import (
	"bytes"
	"fmt"
)

type buf struct {
	data []byte
	term Term
}

func (b *buf) Feed(data []byte) ([]byte, bool) {
	b.data = append(b.data, data...)
	return b.match()
}

func (b *buf) SetTerm(term Term) error {
	if b.term.Kind != TermNone && !termEqual(b.term, term) {
		return fmt.Errorf("buffer: term already active")
	}
	b.term = term
	return nil
}

func (b *buf) Check() ([]byte, bool) {
	return b.match()
}

func (b *buf) ClearTerm() {
	b.term = Term{}
}

func (b *buf) Pop() []byte {
	out := b.data
	b.data = nil
	b.term = Term{}
	return out
}

func (b *buf) Len() int {
	return len(b.data)
}

// match is the greedy, earliest-position matcher for the active term. It
// removes the matched prefix from the buffer on success.
func (b *buf) match() ([]byte, bool) {
	switch b.term.Kind {
	case TermDelim:
		idx := bytes.Index(b.data, b.term.Delim)
		if idx < 0 {
			return nil, false
		}
		end := idx + len(b.term.Delim)
		chunk := append([]byte(nil), b.data[:end]...)
		b.data = b.data[end:]
		b.term = Term{}
		return chunk, true
	case TermSize:
		if len(b.data) < b.term.Size {
			return nil, false
		}
		chunk := append([]byte(nil), b.data[:b.term.Size]...)
		b.data = b.data[b.term.Size:]
		b.term = Term{}
		return chunk, true
	default:
		return nil, false
	}
}

func termEqual(a, b Term) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case TermDelim:
		return bytes.Equal(a.Delim, b.Delim)
	case TermSize:
		return a.Size == b.Size
	default:
		return true
	}
}
