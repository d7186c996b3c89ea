// Copyright (c) 2026 Hostwarden Team
// Hostwarden - TOFU host key verification for SSH remotes
// This source code is licensed under the MIT license found in the LICENSE file.

package hostaddr

import (
	"errors"
	"testing"
)

func TestParse_LocatorForms(t *testing.T) {
	tests := []struct {
		name     string
		locator  string
		wantHost string
		wantPort string
	}{
		{"bare host", "example.com", "example.com", ""},
		{"host with port", "example.com:2222", "example.com", "2222"},
		{"user at host", "git@example.com", "example.com", ""},
		{"scp-like path", "git@example.com:repo.git", "example.com", ""},
		{"scp-like nested path", "git@example.com:team/repo.git", "example.com", ""},
		{"user at host with port", "git@example.com:2222", "example.com", "2222"},
		{"ssh url", "ssh://example.com/repo", "example.com", ""},
		{"ssh url with user and port", "ssh://git@example.com:2222/repo", "example.com", "2222"},
		{"ssh url default port omitted", "ssh://git@example.com/repo.git", "example.com", ""},
		{"surrounding whitespace", "  example.com  ", "example.com", ""},
		{"numeric path not a port", "example.com:70000", "example.com", ""},
		{"port zero is a path", "example.com:0", "example.com", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, port, err := Parse(tt.locator)
			if err != nil {
				t.Fatalf("Parse(%q) returned error: %v", tt.locator, err)
			}
			if host != tt.wantHost || port != tt.wantPort {
				t.Fatalf("Parse(%q) = (%q, %q), want (%q, %q)", tt.locator, host, port, tt.wantHost, tt.wantPort)
			}
		})
	}
}

func TestParse_InvalidLocators(t *testing.T) {
	for _, locator := range []string{"", "   ", "@", "git@", "://nohost", "ssh://", "bad host:22"} {
		if _, _, err := Parse(locator); !errors.Is(err, ErrInvalidLocator) {
			t.Fatalf("Parse(%q) = %v, want ErrInvalidLocator", locator, err)
		}
	}
}

func TestCanonical_DefaultPortCollapses(t *testing.T) {
	tests := []struct {
		host, port, want string
	}{
		{"example.com", "", "example.com"},
		{"example.com", "22", "example.com"},
		{"example.com", "2222", "example.com:2222"},
	}
	for _, tt := range tests {
		if got := Canonical(tt.host, tt.port); got != tt.want {
			t.Fatalf("Canonical(%q, %q) = %q, want %q", tt.host, tt.port, got, tt.want)
		}
	}
}

func TestCanonical_EquivalentLocatorsShareOneKey(t *testing.T) {
	// Every way of spelling the same endpoint must land on the same
	// trust-store key, otherwise a host would be prompted for twice.
	locators := []string{"git@example.com:repo.git", "ssh://git@example.com/repo", "example.com", "example.com:22"}
	want := "example.com"
	for _, locator := range locators {
		host, port, err := Parse(locator)
		if err != nil {
			t.Fatalf("Parse(%q) returned error: %v", locator, err)
		}
		if got := Canonical(host, port); got != want {
			t.Fatalf("Canonical key for %q = %q, want %q", locator, got, want)
		}
	}
}
