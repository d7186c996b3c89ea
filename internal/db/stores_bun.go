// Copyright (c) 2026 Hostwarden Team
// Hostwarden - TOFU host key verification for SSH remotes
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"fmt"
	"time"

	"github.com/hostwarden/hostwarden/internal/model"
	"github.com/uptrace/bun"
)

// BunStore is the consolidated bun-backed Store implementation used for all
// supported database engines. It delegates operations to centralized Bun
// helpers in this package.
type BunStore struct {
	bun *bun.DB
}

// BunDB returns the underlying *bun.DB for advanced callers.
func (s *BunStore) BunDB() *bun.DB { return s.bun }

func (s *BunStore) GetTrustedHost(host string) (*model.TrustedHost, error) {
	return GetTrustedHostBun(s.bun, host)
}

func (s *BunStore) UpsertTrustedHost(host, keyType, publicKey string, now time.Time) error {
	return UpsertTrustedHostBun(s.bun, host, keyType, publicKey, now)
}

func (s *BunStore) GetAllTrustedHosts() ([]model.TrustedHost, error) {
	return GetAllTrustedHostsBun(s.bun)
}

func (s *BunStore) GetAllAuditLogEntries() ([]model.AuditLogEntry, error) {
	return GetAllAuditLogEntriesBun(s.bun)
}

func (s *BunStore) LogAction(action string, details string) error {
	return LogActionBun(s.bun, action, details)
}

// ExportForBackup snapshots the full store contents for `hostwarden backup`.
func (s *BunStore) ExportForBackup() (*model.BackupData, error) {
	return ExportDataForBackupBun(s.bun)
}

// RestoreFromBackup upserts every trusted host from a backup snapshot.
// Audit entries are not re-imported; a single restore action is logged
// instead so the trail reflects what actually happened on this database.
func (s *BunStore) RestoreFromBackup(data *model.BackupData) error {
	for _, th := range data.TrustedHosts {
		created := time.UnixMilli(th.CreatedAt)
		if err := UpsertTrustedHostBun(s.bun, th.Host, th.KeyType, th.PublicKey, created); err != nil {
			return fmt.Errorf("failed to restore host %s: %w", th.Host, err)
		}
	}
	return s.LogAction("RESTORE_BACKUP", fmt.Sprintf("hosts: %d", len(data.TrustedHosts)))
}
