// SPDX-License-Identifier: AGPL-3.0-or-later
package server

import (
	"io"
	"net"
	"os"
	"strings"
	"time"

	"github.com/flowd-org/sigdesk/internal/bridge"
	"github.com/flowd-org/sigdesk/internal/verify"
)

const (
	defaultBindAddress     = "127.0.0.1:8080"
	defaultLogMode         = "text"
	defaultShutdownTimeout = 15 * time.Second
	defaultMaxBodyBytes    = 1 << 20
)

// Config carries serve-mode runtime settings derived from CLI flags, env vars
// and the config file.
type Config struct {
	Bind              string
	Dev               bool
	Log               string
	Version           string
	StdOut            io.Writer
	StdErr            io.Writer
	ShutdownTimeout   time.Duration
	MaxBodyBytes      int64
	MetricsEnabled    bool
	MetricsConfigured bool
	Verifier          verify.Verifier
	Bridge            *bridge.Registry
}

// normalize applies defaults when values are not supplied.
func (c Config) normalize() Config {
	if c.Bind == "" {
		c.Bind = defaultBindAddress
	}
	if c.Log == "" {
		c.Log = defaultLogMode
	}
	if c.Version == "" {
		c.Version = "dev"
	}
	if c.StdOut == nil {
		c.StdOut = os.Stdout
	}
	if c.StdErr == nil {
		c.StdErr = os.Stderr
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = defaultShutdownTimeout
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = defaultMaxBodyBytes
	}
	if !c.MetricsConfigured {
		c.MetricsEnabled = true
	}
	if c.Bridge == nil {
		c.Bridge = bridge.NewDefault(bridge.Services{Verifier: c.Verifier})
	}
	return c
}

// isLoopbackAddress reports whether bind only listens on the local host.
func isLoopbackAddress(bind string) bool {
	host := bind
	if strings.Contains(bind, ":") {
		parsedHost, _, err := net.SplitHostPort(bind)
		if err == nil {
			host = parsedHost
		}
	}
	if host == "" || host == "*" {
		return false
	}
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	return ip.IsLoopback()
}
