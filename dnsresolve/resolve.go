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

// Package dnsresolve implements the DNS resolver provider contract of §6:
// resolve(name) -> IPv4 address or raise.
package dnsresolve

import (
	"context"
	"fmt"
	"net"
)

// Resolve looks up name and returns its first IPv4 address. It is meant to
// be called from within a Loop.Thread callback, since net.Resolver's lookup
// performs blocking I/O.
func Resolve(ctx context.Context, name string) (net.IP, error) {
	if ip := net.ParseIP(name); ip != nil {
		if v4 := ip.To4(); v4 != nil {
			return v4, nil
		}
	}

	var resolver net.Resolver
	addrs, err := resolver.LookupIP(ctx, "ip4", name)
	if err != nil {
		return nil, fmt.Errorf("dnsresolve: %s: %w", name, err)
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("dnsresolve: %s: no IPv4 address found", name)
	}
	return addrs[0], nil
}
