// Copyright (c) 2026 Hostwarden Team
// Hostwarden - TOFU host key verification for SSH remotes
// This source code is licensed under the MIT license found in the LICENSE file.
package model

// BackupData is a container for all data exported by `hostwarden backup`.
type BackupData struct {
	// SchemaVersion helps in handling migrations during restore.
	SchemaVersion int `json:"schema_version"`

	TrustedHosts    []TrustedHost   `json:"trusted_hosts"`
	AuditLogEntries []AuditLogEntry `json:"audit_log_entries"`
}
