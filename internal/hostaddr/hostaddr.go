// Copyright (c) 2026 Hostwarden Team
// Hostwarden - TOFU host key verification for SSH remotes
// This source code is licensed under the MIT license found in the LICENSE file.

// Package hostaddr parses remote locators (URL form, scp-like form, or bare
// hostnames) into a host/port pair and renders the canonical trust-store key.
package hostaddr

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
)

// DefaultSSHPort is the port assumed when a locator does not name one.
const DefaultSSHPort = "22"

// ErrInvalidLocator is returned for locators that cannot be reduced to a host.
var ErrInvalidLocator = errors.New("invalid host locator")

// Parse extracts (host, port) from a remote locator. Supported forms:
//
//	ssh://user@host:port/path
//	user@host:path   (scp-like; the part after ':' is a path, not a port)
//	user@host
//	host:port
//	host
//
// port is empty when the locator does not name one.
func Parse(locator string) (host, port string, err error) {
	s := strings.TrimSpace(locator)
	if s == "" {
		return "", "", ErrInvalidLocator
	}

	if strings.Contains(s, "://") {
		u, perr := url.Parse(s)
		if perr != nil || u.Hostname() == "" {
			return "", "", ErrInvalidLocator
		}
		return u.Hostname(), u.Port(), nil
	}

	// Strip the user@ prefix of scp-like syntax.
	if at := strings.Index(s, "@"); at >= 0 {
		s = s[at+1:]
	}
	if s == "" {
		return "", "", ErrInvalidLocator
	}

	if colon := strings.Index(s, ":"); colon >= 0 {
		host = s[:colon]
		rest := s[colon+1:]
		// "host:2222" names a port; "host:repo/path.git" is an scp-like path.
		if isPort(rest) {
			port = rest
		}
	} else {
		host = s
	}

	if host == "" || strings.ContainsAny(host, " /") {
		return "", "", ErrInvalidLocator
	}
	return host, port, nil
}

// Canonical renders the trust-store key for a host/port pair. The default
// SSH port and an unspecified port collapse to the same key, so locators
// differing only by an explicit ":22" normalize identically.
func Canonical(host, port string) string {
	if port == "" || port == DefaultSSHPort {
		return host
	}
	return host + ":" + port
}

func isPort(s string) bool {
	n, err := strconv.Atoi(s)
	return err == nil && n > 0 && n <= 65535
}
