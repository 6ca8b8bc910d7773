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

package main

import (
	"net"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nabbar/diesel/app"
)

func TestServeOnAndDial_EchoesOneLine(t *testing.T) {
	log := newLogger(0)
	log.Logger.SetLevel(logrus.PanicLevel)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	a := app.New(app.Config{Log: log})
	go a.Run()
	defer a.Stop()

	serveErr := make(chan error, 1)
	go func() { serveErr <- serveOn(a, ln) }()

	done := make(chan error, 1)
	go func() { done <- dial(a, log, ln.Addr().String(), time.Second) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("dial failed: %v", err)
		}
	case err := <-serveErr:
		t.Fatalf("server stopped unexpectedly: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("round trip never completed")
	}
}

func TestNewRootCommand_RequiresListenOrDial(t *testing.T) {
	root := newRootCommand()
	root.SetArgs([]string{})
	err := root.Execute()
	if err == nil {
		t.Fatal("expected an error when neither --listen nor --dial is given")
	}
}
