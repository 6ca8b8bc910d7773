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

// Package tlsdial provides the client-side half of the TLS handshake
// contract of §6: wrapping an already-connected socket and driving its
// handshake off the reactor, via hub.RunInThread, so the Loop that asked for
// it suspends exactly like any other `thread()` call.
package tlsdial

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"

	libval "github.com/go-playground/validator/v10"
)

// Config mirrors the validated-config pattern used throughout the teacher
// codebase's certificates package, pared down to what a diesel client
// connect() needs to drive a handshake.
type Config struct {
	ServerName         string `mapstructure:"serverName" json:"serverName" yaml:"serverName" toml:"serverName" validate:"required"`
	RootCAPEM          []byte `mapstructure:"rootCAPem" json:"rootCAPem" yaml:"rootCAPem" toml:"rootCAPem"`
	VersionMin         uint16 `mapstructure:"versionMin" json:"versionMin" yaml:"versionMin" toml:"versionMin" validate:"omitempty,min=769"`
	VersionMax         uint16 `mapstructure:"versionMax" json:"versionMax" yaml:"versionMax" toml:"versionMax" validate:"omitempty,min=769"`
	InsecureSkipVerify bool   `mapstructure:"insecureSkipVerify" json:"insecureSkipVerify" yaml:"insecureSkipVerify" toml:"insecureSkipVerify"`
}

// Validate runs struct-tag validation, matching the teacher's
// go-playground/validator based Config.Validate pattern. When
// InsecureSkipVerify is set it returns nil without validating.
func (c *Config) Validate() error {
	if c.InsecureSkipVerify {
		return nil
	}
	if er := libval.New().Struct(c); er != nil {
		if _, ok := er.(*libval.InvalidValidationError); ok {
			return er
		}
		for _, e := range er.(libval.ValidationErrors) {
			return fmt.Errorf("tlsdial: field %q fails constraint %q", e.StructNamespace(), e.ActualTag())
		}
	}
	return nil
}

// ClientConfig builds a *tls.Config for an outbound handshake.
func (c *Config) ClientConfig() (*tls.Config, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	cfg := &tls.Config{
		ServerName:         c.ServerName,
		InsecureSkipVerify: c.InsecureSkipVerify,
		MinVersion:         c.VersionMin,
		MaxVersion:         c.VersionMax,
	}

	if len(c.RootCAPEM) > 0 {
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(c.RootCAPEM) {
			return nil, fmt.Errorf("tlsdial: no certificate could be parsed from rootCAPem")
		}
		cfg.RootCAs = pool
	}

	return cfg, nil
}
