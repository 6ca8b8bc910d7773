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

package pipeline

// entry is one queued chunk awaiting delivery.
type entry struct {
	payload  []byte
	priority int
	seq      int
}

type pipe struct {
	// front holds bytes pushed back via Backup; always drained before
	// entries, most-recent backup first.
	front []byte
	// entries is kept sorted by (priority, seq) ascending on every Add, so
	// Read always pulls from entries[0].
	entries      []entry
	seq          int
	closeRequest bool
}

func (p *pipe) Add(payload []byte, priority int) {
	if len(payload) == 0 {
		return
	}
	cp := append([]byte(nil), payload...)
	e := entry{payload: cp, priority: priority, seq: p.seq}
	p.seq++

	// Stable insertion: find the first entry with a strictly greater
	// priority and insert before it.
	idx := len(p.entries)
	for i, ex := range p.entries {
		if ex.priority > priority {
			idx = i
			break
		}
	}
	p.entries = append(p.entries, entry{})
	copy(p.entries[idx+1:], p.entries[idx:])
	p.entries[idx] = e
}

func (p *pipe) Read(n int) ([]byte, error) {
	if p.Empty() {
		if p.closeRequest {
			return nil, ErrCloseRequested
		}
		return nil, nil
	}

	out := make([]byte, 0, n)
	if len(p.front) > 0 {
		take := min(n, len(p.front))
		out = append(out, p.front[:take]...)
		p.front = p.front[take:]
	}

	for len(out) < n && len(p.entries) > 0 {
		head := &p.entries[0]
		remaining := n - len(out)
		if remaining >= len(head.payload) {
			out = append(out, head.payload...)
			p.entries = p.entries[1:]
		} else {
			out = append(out, head.payload[:remaining]...)
			head.payload = head.payload[remaining:]
		}
	}
	return out, nil
}

func (p *pipe) Backup(data []byte) {
	if len(data) == 0 {
		return
	}
	cp := append([]byte(nil), data...)
	p.front = append(cp, p.front...)
}

func (p *pipe) CloseRequest() {
	p.closeRequest = true
}

func (p *pipe) Empty() bool {
	return len(p.front) == 0 && len(p.entries) == 0
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
