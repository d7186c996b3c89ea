// Copyright (c) 2026 Hostwarden Team
// Hostwarden - TOFU host key verification for SSH remotes
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"errors"
	"testing"
)

func TestMapDBError(t *testing.T) {
	if got := MapDBError(nil); got != nil {
		t.Fatalf("MapDBError(nil) = %v, want nil", got)
	}

	duplicates := []error{
		errors.New("UNIQUE constraint failed: trusted_hosts.host"),
		errors.New("ERROR: duplicate key value violates unique constraint (SQLSTATE 23505)"),
		errors.New("Error 1062: Duplicate entry 'git.example.com' for key 'PRIMARY'"),
	}
	for _, err := range duplicates {
		if got := MapDBError(err); !errors.Is(got, ErrDuplicate) {
			t.Fatalf("MapDBError(%v) = %v, want ErrDuplicate", err, got)
		}
	}

	other := errors.New("connection refused")
	if got := MapDBError(other); got != other {
		t.Fatalf("MapDBError passed through = %v, want original error", got)
	}
}
