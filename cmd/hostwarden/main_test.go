// Copyright (c) 2026 Hostwarden Team
// Hostwarden - TOFU host key verification for SSH remotes
// This source code is licensed under the MIT license found in the LICENSE file.

package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hostwarden/hostwarden/internal/db"
	"github.com/hostwarden/hostwarden/internal/knownhosts"
	"github.com/hostwarden/hostwarden/internal/model"
	"github.com/hostwarden/hostwarden/internal/verify"
)

func newPromptService(t *testing.T, responder *promptResponder) *verify.Service {
	t.Helper()
	store, err := db.NewStoreFromDSN("sqlite", "file:test_cli_"+t.Name()+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	mirror := knownhosts.NewMirror(filepath.Join(t.TempDir(), "known_hosts"), store)
	return verify.New(store, nil, mirror, responder, time.Minute)
}

func TestPromptResponder_Decisions(t *testing.T) {
	tests := []struct {
		name   string
		answer string
		want   bool
	}{
		{"yes", "y\n", true},
		{"yes long", "YES\n", true},
		{"no", "n\n", false},
		{"empty defaults to no", "\n", false},
		{"garbage defaults to no", "maybe\n", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			responder := &promptResponder{in: strings.NewReader(tt.answer), out: &out}
			svc := newPromptService(t, responder)
			responder.svc = svc

			req := model.VerificationRequest{
				ID:          "req-1",
				Host:        "git.example.com",
				KeyType:     "ssh-ed25519",
				Fingerprint: "git.example.com ssh-ed25519 AAAAC3NzaC1lZDI1NTE5AAAAIOMqqnkVzrm0SdG6UOoqKLsabgH5C9okWi0dh2l9GKJl",
				RequestID:   "req-1",
				Action:      "verify",
			}
			done := svc.Registry().Register(req, time.Minute)
			if err := responder.Broadcast(req); err != nil {
				t.Fatalf("Broadcast failed: %v", err)
			}

			select {
			case accepted := <-done:
				if accepted != tt.want {
					t.Fatalf("answer %q resolved %v, want %v", tt.answer, accepted, tt.want)
				}
			case <-time.After(time.Second):
				t.Fatalf("no decision delivered")
			}

			prompt := out.String()
			if !strings.Contains(prompt, "git.example.com") {
				t.Errorf("prompt does not name the host: %q", prompt)
			}
			if !strings.Contains(prompt, "SHA256:") {
				t.Errorf("prompt does not show the fingerprint: %q", prompt)
			}
		})
	}
}

func TestRootCmd_HasVerificationSurface(t *testing.T) {
	cmd := newRootCmd()
	want := []string{"init", "verify", "trust", "hosts", "audit", "resync", "backup", "restore", "maintain"}
	for _, name := range want {
		found := false
		for _, sub := range cmd.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("root command is missing subcommand %q", name)
		}
	}
}
