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

package pipeline_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/nabbar/diesel/pipeline"
)

func TestRead_PriorityThenInsertionOrder(t *testing.T) {
	p := pipeline.New()
	p.Add([]byte("low"), 9)
	p.Add([]byte("first-high"), 1)
	p.Add([]byte("second-high"), 1)

	out, err := p.Read(64)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	want := "first-highsecond-highlow"
	if string(out) != want {
		t.Fatalf("Read = %q, want %q", out, want)
	}
}

func TestRead_SplitsFrontEntry(t *testing.T) {
	p := pipeline.New()
	p.Add([]byte("abcdef"), pipeline.DefaultPriority)

	first, err := p.Read(3)
	if err != nil || string(first) != "abc" {
		t.Fatalf("Read(3) = %q, %v; want \"abc\", nil", first, err)
	}
	if p.Empty() {
		t.Fatalf("pipeline should still hold the unread suffix")
	}
	second, err := p.Read(64)
	if err != nil || string(second) != "def" {
		t.Fatalf("Read(64) = %q, %v; want \"def\", nil", second, err)
	}
	if !p.Empty() {
		t.Fatalf("pipeline should be drained")
	}
}

func TestBackup_TakesPrecedenceOverQueuedData(t *testing.T) {
	p := pipeline.New()
	p.Add([]byte("queued"), 0)
	p.Backup([]byte("pushed-back"))

	out, err := p.Read(64)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(out, []byte("pushed-backqueued")) {
		t.Fatalf("Read = %q, want backup before queued data", out)
	}
}

func TestBackup_MultipleCallsStackMostRecentFirst(t *testing.T) {
	p := pipeline.New()
	p.Backup([]byte("older"))
	p.Backup([]byte("newer"))

	out, err := p.Read(64)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(out, []byte("newerolder")) {
		t.Fatalf("Read = %q, want %q", out, "newerolder")
	}
}

func TestRead_EmptyWithoutCloseRequestReturnsNothing(t *testing.T) {
	p := pipeline.New()
	out, err := p.Read(16)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if out != nil {
		t.Fatalf("Read = %q, want nil", out)
	}
}

func TestRead_EmptyWithCloseRequestSignalsClose(t *testing.T) {
	p := pipeline.New()
	p.Add([]byte("x"), pipeline.DefaultPriority)
	p.CloseRequest()

	// Data queued before the close request still comes out first.
	out, err := p.Read(16)
	if err != nil || string(out) != "x" {
		t.Fatalf("Read = %q, %v; want \"x\", nil", out, err)
	}

	_, err = p.Read(16)
	if !errors.Is(err, pipeline.ErrCloseRequested) {
		t.Fatalf("Read on drained+close-requested pipeline: err = %v, want ErrCloseRequested", err)
	}
}

func TestEmpty(t *testing.T) {
	p := pipeline.New()
	if !p.Empty() {
		t.Fatalf("fresh pipeline should be empty")
	}
	p.Add([]byte("a"), pipeline.DefaultPriority)
	if p.Empty() {
		t.Fatalf("pipeline with queued data should not be empty")
	}
}
