// Copyright (c) 2026 Hostwarden Team
// Hostwarden - TOFU host key verification for SSH remotes
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"time"

	"github.com/hostwarden/hostwarden/internal/model"
)

// Store defines the interface for all database operations in Hostwarden.
// This allows for multiple database backends to be implemented.
type Store interface {
	// Trusted host methods
	GetTrustedHost(host string) (*model.TrustedHost, error)
	UpsertTrustedHost(host, keyType, publicKey string, now time.Time) error
	GetAllTrustedHosts() ([]model.TrustedHost, error)

	// Audit log methods
	GetAllAuditLogEntries() ([]model.AuditLogEntry, error)
	LogAction(action string, details string) error
}

// GetTrustedHost returns the trusted record for a canonical host, or nil
// when the host has never been accepted.
func GetTrustedHost(host string) (*model.TrustedHost, error) {
	return store.GetTrustedHost(host)
}

// UpsertTrustedHost records (or overwrites) the trusted key for a host.
func UpsertTrustedHost(host, keyType, publicKey string, now time.Time) error {
	return store.UpsertTrustedHost(host, keyType, publicKey, now)
}

// GetAllTrustedHosts returns every trusted host record.
func GetAllTrustedHosts() ([]model.TrustedHost, error) {
	return store.GetAllTrustedHosts()
}

// GetAllAuditLogEntries returns the audit trail, newest first.
func GetAllAuditLogEntries() ([]model.AuditLogEntry, error) {
	return store.GetAllAuditLogEntries()
}

// LogAction appends an entry to the audit trail.
func LogAction(action, details string) error {
	return store.LogAction(action, details)
}
