// Copyright (c) 2026 Hostwarden Team
// Hostwarden - TOFU host key verification for SSH remotes
// This source code is licensed under the MIT license found in the LICENSE file.

// Package db implements the durable trust store for Hostwarden: the
// authoritative mapping from canonical host to accepted public key, plus the
// audit trail of trust decisions. SQLite, PostgreSQL and MySQL are supported
// through Bun with embedded SQL migrations.
package db
