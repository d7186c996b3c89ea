// Copyright (c) 2026 Hostwarden Team
// Hostwarden - TOFU host key verification for SSH remotes
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

// newTestDB initializes the package-level store against a fresh in-memory
// sqlite database and restores the previous store when the test ends.
func newTestDB(t *testing.T) string {
	t.Helper()
	prev := store
	t.Cleanup(func() { store = prev })

	dsn := "file:test_" + t.Name() + "?mode=memory&cache=shared"
	if err := InitDB("sqlite", dsn); err != nil {
		t.Fatalf("InitDB failed: %v", err)
	}
	return dsn
}

func TestInitDB_MigrationsApplied(t *testing.T) {
	dsn := newTestDB(t)

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("failed to open sql.DB for inspection: %v", err)
	}
	defer func() { _ = sqlDB.Close() }()

	for _, table := range []string{"schema_migrations", "trusted_hosts", "audit_log"} {
		var name string
		err := sqlDB.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name = ?", table).Scan(&name)
		if err != nil {
			t.Fatalf("expected table %s after migrations: %v", table, err)
		}
	}
}

func TestInitDB_MigrationsIdempotent(t *testing.T) {
	dsn := newTestDB(t)
	// A second InitDB against the same database must skip applied versions.
	if err := InitDB("sqlite", dsn); err != nil {
		t.Fatalf("re-running InitDB failed: %v", err)
	}
}

func TestNew_InstallsDefaultStore(t *testing.T) {
	prev := store
	t.Cleanup(func() { store = prev })

	store = nil
	if IsInitialized() {
		t.Fatalf("IsInitialized reported true with no store")
	}

	s, err := New("sqlite", "file:test_"+t.Name()+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if s == nil {
		t.Fatalf("New returned a nil store")
	}
	if !IsInitialized() {
		t.Fatalf("IsInitialized reported false after New")
	}
	if DefaultStore() != s {
		t.Fatalf("DefaultStore does not return the store New installed")
	}
}

func TestQueryRawInto(t *testing.T) {
	newTestDB(t)

	now := time.Now()
	for _, host := range []string{"a.example.com", "b.example.com"} {
		if err := UpsertTrustedHost(host, "ssh-ed25519", host+" ssh-ed25519 AAAA", now); err != nil {
			t.Fatalf("upsert %s failed: %v", host, err)
		}
	}

	bs, ok := DefaultStore().(*BunStore)
	if !ok {
		t.Fatalf("store is not *BunStore")
	}
	var count int
	if err := QueryRawInto(context.Background(), bs.BunDB(), &count, "SELECT COUNT(*) FROM trusted_hosts"); err != nil {
		t.Fatalf("QueryRawInto failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}
}

func TestGetTrustedHost_AbsentIsNilNil(t *testing.T) {
	newTestDB(t)

	th, err := GetTrustedHost("nobody.example.com")
	if err != nil {
		t.Fatalf("GetTrustedHost returned error: %v", err)
	}
	if th != nil {
		t.Fatalf("expected nil for an unknown host, got %+v", th)
	}
}

func TestUpsertTrustedHost_InsertAndLookup(t *testing.T) {
	newTestDB(t)

	now := time.Now()
	if err := UpsertTrustedHost("git.example.com", "ssh-ed25519", "git.example.com ssh-ed25519 AAAA1", now); err != nil {
		t.Fatalf("UpsertTrustedHost failed: %v", err)
	}

	th, err := GetTrustedHost("git.example.com")
	if err != nil {
		t.Fatalf("GetTrustedHost returned error: %v", err)
	}
	if th == nil {
		t.Fatalf("trusted host not found after upsert")
	}
	if th.KeyType != "ssh-ed25519" || th.PublicKey != "git.example.com ssh-ed25519 AAAA1" {
		t.Fatalf("unexpected row: %+v", th)
	}
	if th.CreatedAt != now.UnixMilli() || th.UpdatedAt != now.UnixMilli() {
		t.Fatalf("timestamps = (%d, %d), want %d", th.CreatedAt, th.UpdatedAt, now.UnixMilli())
	}
}

func TestUpsertTrustedHost_OverwritePreservesCreatedAt(t *testing.T) {
	newTestDB(t)

	created := time.Now().Add(-time.Hour)
	if err := UpsertTrustedHost("git.example.com", "ssh-rsa", "git.example.com ssh-rsa AAAA1", created); err != nil {
		t.Fatalf("initial upsert failed: %v", err)
	}

	rotated := time.Now()
	if err := UpsertTrustedHost("git.example.com", "ssh-ed25519", "git.example.com ssh-ed25519 AAAA2", rotated); err != nil {
		t.Fatalf("overwrite upsert failed: %v", err)
	}

	th, err := GetTrustedHost("git.example.com")
	if err != nil {
		t.Fatalf("GetTrustedHost returned error: %v", err)
	}
	if th.KeyType != "ssh-ed25519" || th.PublicKey != "git.example.com ssh-ed25519 AAAA2" {
		t.Fatalf("overwrite did not replace key material: %+v", th)
	}
	if th.CreatedAt != created.UnixMilli() {
		t.Fatalf("created_at = %d, want original %d", th.CreatedAt, created.UnixMilli())
	}
	if th.UpdatedAt != rotated.UnixMilli() {
		t.Fatalf("updated_at = %d, want %d", th.UpdatedAt, rotated.UnixMilli())
	}

	// Still exactly one row for the host.
	hosts, err := GetAllTrustedHosts()
	if err != nil {
		t.Fatalf("GetAllTrustedHosts failed: %v", err)
	}
	if len(hosts) != 1 {
		t.Fatalf("expected 1 row after overwrite, got %d", len(hosts))
	}
}

func TestGetAllTrustedHosts_OrderedByHost(t *testing.T) {
	newTestDB(t)

	now := time.Now()
	for _, host := range []string{"c.example.com", "a.example.com", "b.example.com:2222"} {
		if err := UpsertTrustedHost(host, "ssh-ed25519", host+" ssh-ed25519 AAAA", now); err != nil {
			t.Fatalf("upsert %s failed: %v", host, err)
		}
	}

	hosts, err := GetAllTrustedHosts()
	if err != nil {
		t.Fatalf("GetAllTrustedHosts failed: %v", err)
	}
	want := []string{"a.example.com", "b.example.com:2222", "c.example.com"}
	if len(hosts) != len(want) {
		t.Fatalf("got %d hosts, want %d", len(hosts), len(want))
	}
	for i, h := range hosts {
		if h.Host != want[i] {
			t.Fatalf("hosts[%d] = %s, want %s", i, h.Host, want[i])
		}
	}
}

func TestLogAction_AppendsAuditEntries(t *testing.T) {
	newTestDB(t)

	if err := LogAction("TRUST_HOST", "host: git.example.com, key_type: ssh-ed25519"); err != nil {
		t.Fatalf("LogAction failed: %v", err)
	}
	if err := LogAction("VERIFY_DENIED", "host: evil.example.com"); err != nil {
		t.Fatalf("LogAction failed: %v", err)
	}

	entries, err := GetAllAuditLogEntries()
	if err != nil {
		t.Fatalf("GetAllAuditLogEntries failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d audit entries, want 2", len(entries))
	}
	// Newest first.
	if entries[0].Action != "VERIFY_DENIED" || entries[1].Action != "TRUST_HOST" {
		t.Fatalf("unexpected order: %s, %s", entries[0].Action, entries[1].Action)
	}
	for _, e := range entries {
		if e.Username == "" {
			t.Fatalf("audit entry has no username: %+v", e)
		}
		if e.Timestamp == "" {
			t.Fatalf("audit entry has no timestamp: %+v", e)
		}
	}
}

func TestBackupRestore_RoundTrip(t *testing.T) {
	newTestDB(t)

	created := time.Now().Add(-24 * time.Hour)
	if err := UpsertTrustedHost("a.example.com", "ssh-ed25519", "a.example.com ssh-ed25519 AAAA1", created); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if err := UpsertTrustedHost("b.example.com", "ssh-rsa", "b.example.com ssh-rsa AAAA2", created); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if err := LogAction("TRUST_HOST", "host: a.example.com"); err != nil {
		t.Fatalf("LogAction failed: %v", err)
	}

	src, ok := DefaultStore().(*BunStore)
	if !ok {
		t.Fatalf("store is not *BunStore")
	}
	data, err := src.ExportForBackup()
	if err != nil {
		t.Fatalf("ExportForBackup failed: %v", err)
	}
	if len(data.TrustedHosts) != 2 {
		t.Fatalf("backup holds %d hosts, want 2", len(data.TrustedHosts))
	}
	if len(data.AuditLogEntries) != 1 {
		t.Fatalf("backup holds %d audit entries, want 1", len(data.AuditLogEntries))
	}

	// Restore into a second, empty database.
	target, err := NewStoreFromDSN("sqlite", "file:test_"+t.Name()+"_target?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("failed to open target store: %v", err)
	}
	bunTarget, ok := target.(*BunStore)
	if !ok {
		t.Fatalf("target store is not *BunStore")
	}
	if err := bunTarget.RestoreFromBackup(data); err != nil {
		t.Fatalf("RestoreFromBackup failed: %v", err)
	}

	hosts, err := target.GetAllTrustedHosts()
	if err != nil {
		t.Fatalf("GetAllTrustedHosts on target failed: %v", err)
	}
	if len(hosts) != 2 {
		t.Fatalf("restored %d hosts, want 2", len(hosts))
	}
	if hosts[0].CreatedAt != created.UnixMilli() {
		t.Fatalf("restore lost created_at: %d, want %d", hosts[0].CreatedAt, created.UnixMilli())
	}

	// The restore itself is audited; the source trail is not copied over.
	entries, err := target.GetAllAuditLogEntries()
	if err != nil {
		t.Fatalf("GetAllAuditLogEntries on target failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Action != "RESTORE_BACKUP" {
		t.Fatalf("unexpected target audit trail: %+v", entries)
	}
}
