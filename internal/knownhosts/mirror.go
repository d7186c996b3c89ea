// Copyright (c) 2026 Hostwarden Team
// Hostwarden - TOFU host key verification for SSH remotes
// This source code is licensed under the MIT license found in the LICENSE file.

// Package knownhosts maintains the flat known_hosts mirror file consumed by
// external SSH-capable tools (git, ssh) that cannot query the trust store
// directly. The file is a derived cache: the database stays authoritative,
// and a resync rewrites the file from it wholesale.
package knownhosts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hostwarden/hostwarden/internal/model"
)

// HostLister is the slice of the trust store the mirror needs for a resync.
type HostLister interface {
	GetAllTrustedHosts() ([]model.TrustedHost, error)
}

// Mirror owns one known_hosts file. Only this subsystem writes it; external
// edits are tolerated until the next resync overwrites them.
type Mirror struct {
	path  string
	store HostLister
}

// NewMirror returns a mirror for the file at path, fed from store.
func NewMirror(path string, store HostLister) *Mirror {
	return &Mirror{path: path, store: store}
}

// Path returns the mirror file location, for handing to external tools
// (e.g. ssh -o UserKnownHostsFile=...).
func (m *Mirror) Path() string { return m.path }

// EnsureFile creates the parent directory and an empty mirror file with mode
// 0600 when absent. An existing file is left untouched.
func (m *Mirror) EnsureFile() error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0o700); err != nil {
		return fmt.Errorf("failed to create known_hosts directory: %w", err)
	}
	f, err := os.OpenFile(m.path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o600)
	if err != nil {
		if os.IsExist(err) {
			return nil
		}
		return fmt.Errorf("failed to create known_hosts file: %w", err)
	}
	return f.Close()
}

// Resync rewrites the file from the trust store, one raw key line per
// trusted host. Run once at startup and after bulk changes so the file
// reflects the store even if it was deleted or hand-edited.
func (m *Mirror) Resync() error {
	hosts, err := m.store.GetAllTrustedHosts()
	if err != nil {
		return fmt.Errorf("failed to list trusted hosts: %w", err)
	}
	var b strings.Builder
	for _, h := range hosts {
		b.WriteString(h.PublicKey)
		b.WriteString("\n")
	}
	if err := os.WriteFile(m.path, []byte(b.String()), 0o600); err != nil {
		return fmt.Errorf("failed to write known_hosts file: %w", err)
	}
	return nil
}

// Append adds a single raw key line, the common case when one new host was
// just trusted. A missing file is created with mode 0600.
func (m *Mirror) Append(publicKey string) error {
	f, err := os.OpenFile(m.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open known_hosts file: %w", err)
	}
	defer func() { _ = f.Close() }()
	if _, err := f.WriteString(publicKey + "\n"); err != nil {
		return fmt.Errorf("failed to append to known_hosts file: %w", err)
	}
	return nil
}
