package db

import (
	"context"
	"database/sql"
	"errors"
	"os/user"
	"strings"
	"time"

	"github.com/hostwarden/hostwarden/internal/model"
	"github.com/uptrace/bun"
)

// TrustedHostModel maps the `trusted_hosts` table for Bun queries.
type TrustedHostModel struct {
	bun.BaseModel `bun:"table:trusted_hosts"`
	Host          string `bun:"host,pk"`
	KeyType       string `bun:"key_type"`
	PublicKey     string `bun:"public_key"`
	CreatedAt     int64  `bun:"created_at"`
	UpdatedAt     int64  `bun:"updated_at"`
}

// AuditLogModel maps the audit_log table.
type AuditLogModel struct {
	bun.BaseModel `bun:"table:audit_log"`
	ID            int    `bun:"id,pk,autoincrement"`
	Timestamp     string `bun:"timestamp"`
	Username      string `bun:"username"`
	Action        string `bun:"action"`
	Details       string `bun:"details"`
}

// --- Mapping helpers (centralized conversions) ---
func trustedHostModelToModel(m TrustedHostModel) model.TrustedHost {
	return model.TrustedHost{
		Host:      m.Host,
		KeyType:   m.KeyType,
		PublicKey: m.PublicKey,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func auditLogModelToModel(a AuditLogModel) model.AuditLogEntry {
	return model.AuditLogEntry{
		ID:        a.ID,
		Timestamp: a.Timestamp,
		Username:  a.Username,
		Action:    a.Action,
		Details:   a.Details,
	}
}

// GetTrustedHostBun returns the trusted host row for a canonical host, or
// nil when no row exists.
func GetTrustedHostBun(bdb *bun.DB, host string) (*model.TrustedHost, error) {
	ctx := context.Background()
	var th TrustedHostModel
	err := bdb.NewSelect().Model(&th).Where("host = ?", host).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	m := trustedHostModelToModel(th)
	return &m, nil
}

// UpsertTrustedHostBun inserts a trusted host row, or overwrites key_type,
// public_key and updated_at when the host already exists. created_at is
// preserved across overwrites. The select-then-write pair runs in one
// transaction to stay portable across all three engines.
func UpsertTrustedHostBun(bdb *bun.DB, host, keyType, publicKey string, now time.Time) error {
	ctx := context.Background()
	millis := now.UnixMilli()
	err := WithTx(ctx, bdb, func(ctx context.Context, tx bun.Tx) error {
		var existing TrustedHostModel
		err := tx.NewSelect().Model(&existing).Where("host = ?", host).Limit(1).Scan(ctx)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		if errors.Is(err, sql.ErrNoRows) {
			_, err = tx.NewInsert().Model(&TrustedHostModel{
				Host:      host,
				KeyType:   keyType,
				PublicKey: publicKey,
				CreatedAt: millis,
				UpdatedAt: millis,
			}).Exec(ctx)
			return err
		}
		_, err = ExecRaw(ctx, tx,
			"UPDATE trusted_hosts SET key_type = ?, public_key = ?, updated_at = ? WHERE host = ?",
			keyType, publicKey, millis, host)
		return err
	})
	return MapDBError(err)
}

// GetAllTrustedHostsBun returns all trusted hosts ordered by host.
func GetAllTrustedHostsBun(bdb *bun.DB) ([]model.TrustedHost, error) {
	ctx := context.Background()
	var ths []TrustedHostModel
	if err := bdb.NewSelect().Model(&ths).OrderExpr("host").Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]model.TrustedHost, 0, len(ths))
	for _, th := range ths {
		out = append(out, trustedHostModelToModel(th))
	}
	return out, nil
}

// GetAllAuditLogEntriesBun retrieves audit log entries ordered by timestamp desc.
func GetAllAuditLogEntriesBun(bdb *bun.DB) ([]model.AuditLogEntry, error) {
	ctx := context.Background()
	var entries []AuditLogModel
	if err := bdb.NewSelect().Model(&entries).OrderExpr("timestamp DESC, id DESC").Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]model.AuditLogEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, auditLogModelToModel(e))
	}
	return out, nil
}

// LogActionBun inserts an audit log entry with the current OS user.
func LogActionBun(bdb *bun.DB, action string, details string) error {
	ctx := context.Background()
	curUser, err := user.Current()
	username := "unknown"
	if err == nil {
		if parts := strings.Split(curUser.Username, `\`); len(parts) > 1 {
			username = parts[1]
		} else {
			username = curUser.Username
		}
	}
	_, err = ExecRaw(ctx, bdb, "INSERT INTO audit_log (username, action, details) VALUES (?, ?, ?)", username, action, details)
	return MapDBError(err)
}

// ExportDataForBackupBun exports all tables' data into a model.BackupData
// using a Bun transaction so the snapshot is consistent.
func ExportDataForBackupBun(bdb *bun.DB) (*model.BackupData, error) {
	ctx := context.Background()
	var backup *model.BackupData
	err := WithTx(ctx, bdb, func(ctx context.Context, tx bun.Tx) error {
		backup = &model.BackupData{SchemaVersion: 1}

		var ths []TrustedHostModel
		if err := tx.NewSelect().Model(&ths).OrderExpr("host").Scan(ctx); err != nil {
			return err
		}
		for _, th := range ths {
			backup.TrustedHosts = append(backup.TrustedHosts, trustedHostModelToModel(th))
		}

		var entries []AuditLogModel
		if err := tx.NewSelect().Model(&entries).OrderExpr("id").Scan(ctx); err != nil {
			return err
		}
		for _, e := range entries {
			backup.AuditLogEntries = append(backup.AuditLogEntries, auditLogModelToModel(e))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return backup, nil
}
