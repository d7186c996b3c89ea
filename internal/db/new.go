// Copyright (c) 2026 Hostwarden Team
// Hostwarden - TOFU host key verification for SSH remotes
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import "fmt"

// New opens a bun-backed Store for the given dbType and dsn, runs pending
// migrations, and installs the store as the package-level default used by
// the helper functions and DefaultStore.
func New(dbType, dsn string) (Store, error) {
	s, err := NewStoreFromDSN(dbType, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}
	store = s
	return s, nil
}
