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

// Command lineecho is the worked example of spec.md §8.1: a server Loop
// that echoes each newline-terminated line it receives, and a client Loop
// that dials it, sends one line, and prints the echo.
package main

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nabbar/diesel/app"
	"github.com/nabbar/diesel/client"
	"github.com/nabbar/diesel/loop"
	"github.com/nabbar/diesel/metrics"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:   "lineecho",
		Short: "A line-echo server/client pair demonstrating the diesel runtime",
	}

	root.PersistentFlags().String("listen", "", "address to listen on, e.g. 127.0.0.1:9999")
	root.PersistentFlags().String("dial", "", "address to dial, e.g. 127.0.0.1:9999")
	root.PersistentFlags().Duration("timeout", 5*time.Second, "connect timeout for --dial")
	root.PersistentFlags().Int("verbose", 0, "log verbosity level: 0 info, 1 debug, 2 or more trace")
	_ = v.BindPFlags(root.PersistentFlags())

	root.RunE = func(cmd *cobra.Command, args []string) error {
		return runLineEcho(v)
	}

	return root
}

func runLineEcho(v *viper.Viper) error {
	log := newLogger(v.GetInt("verbose"))
	a := app.New(app.Config{Log: log, Metrics: metrics.NewDefault()})

	go func() {
		if err := a.Run(); err != nil {
			log.WithError(err).Error("lineecho: reactor stopped")
		}
	}()
	defer a.Stop()

	switch {
	case v.GetString("listen") != "":
		return serve(a, log, v.GetString("listen"))
	case v.GetString("dial") != "":
		return dial(a, log, v.GetString("dial"), v.GetDuration("timeout"))
	default:
		return fmt.Errorf("lineecho: one of --listen or --dial is required")
	}
}

func newLogger(verbose int) *logrus.Entry {
	l := logrus.New()
	switch {
	case verbose >= 2:
		l.SetLevel(logrus.TraceLevel)
	case verbose == 1:
		l.SetLevel(logrus.DebugLevel)
	default:
		l.SetLevel(logrus.InfoLevel)
	}
	return logrus.NewEntry(l)
}

// serve binds addr and runs the accept loop until it fails or the listener
// is closed by the caller.
func serve(a app.Application, log *logrus.Entry, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("lineecho: listen: %w", err)
	}
	defer ln.Close()
	log.WithField("addr", ln.Addr().String()).Info("lineecho: listening")

	return serveOn(a, ln)
}

// serveOn runs the accept loop as a Loop per spec.md §8.1 against an
// already-bound listener: each accept() is offloaded via Thread
// (net.Listener.Accept blocks, and Thread is exactly the primitive diesel
// provides for blocking calls off the reactor), and each accepted socket is
// handed to its own forked Loop to echo lines until the peer disconnects.
func serveOn(a app.Application, ln net.Listener) error {
	stopped := make(chan error, 1)
	a.AddLoop(func(l loop.Loop) error {
		l.Label("lineecho: acceptor")
		for {
			v, aerr := l.Thread(func() (interface{}, error) {
				return ln.Accept()
			})
			if aerr != nil {
				stopped <- aerr
				return aerr
			}
			sock := v.(net.Conn)
			a.AddLoop(func(cl loop.Loop) error {
				return echoSession(a, cl, sock)
			})
		}
	})

	return <-stopped
}

// echoSession is the per-connection worker: until(eol), send back, repeat.
func echoSession(a app.Application, l loop.Loop, sock net.Conn) error {
	l.Label(fmt.Sprintf("lineecho: session %s", sock.RemoteAddr()))
	c := a.BindConnection(sock)
	l.PushConnection(c)
	defer l.PopConnection()

	for {
		line, err := l.UntilEOL()
		if err != nil {
			return err
		}
		l.Send(line, 5)
	}
}

func dial(a app.Application, log *logrus.Entry, addr string, timeout time.Duration) error {
	done := make(chan error, 1)
	a.AddLoop(func(l loop.Loop) error {
		l.Label("lineecho: client")
		c, err := client.Dial(l, "tcp", addr, timeout, nil)
		if err != nil {
			done <- err
			return err
		}
		defer c.Close()

		echoed, err := client.Call(l, c, func() ([]byte, error) {
			l.Send([]byte("hello diesel\n"), 5)
			return l.UntilEOL()
		})
		if err != nil {
			done <- err
			return err
		}
		log.WithField("echo", string(echoed)).Info("lineecho: received echo")
		done <- nil
		return nil
	})

	return <-done
}
