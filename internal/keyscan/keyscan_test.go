// Copyright (c) 2026 Hostwarden Team
// Hostwarden - TOFU host key verification for SSH remotes
// This source code is licensed under the MIT license found in the LICENSE file.

package keyscan_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hostwarden/hostwarden/internal/keyscan"
	"github.com/hostwarden/hostwarden/internal/testutil"
)

const (
	ed25519Line = "git.example.com ssh-ed25519 AAAAC3NzaC1lZDI1NTE5AAAAIOMqqnkVzrm0SdG6UOoqKLsabgH5C9okWi0dh2l9GKJl"
	rsaLine     = "git.example.com ssh-rsa AAAAB3NzaC1yc2EAAAADAQABAAABgQDexampleonly"
)

func TestFetch_ReturnsFirstMatchingLine(t *testing.T) {
	runner := &testutil.FakeRunner{Result: keyscan.Result{
		Stdout: "# git.example.com:22 SSH-2.0-OpenSSH_9.6\n" + ed25519Line + "\n" + rsaLine + "\n",
	}}
	f := keyscan.NewFetcher(runner, "", 0)

	line, err := f.Fetch(context.Background(), "git.example.com", "")
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if line != ed25519Line {
		t.Fatalf("Fetch = %q, want first matching line %q", line, ed25519Line)
	}
}

func TestFetch_BracketedLineForNonDefaultPort(t *testing.T) {
	bracketed := "[git.example.com]:2222 ssh-ed25519 AAAAC3NzaC1lZDI1NTE5AAAAIOMqqnkVzrm0SdG6UOoqKLsabgH5C9okWi0dh2l9GKJl"
	runner := &testutil.FakeRunner{Result: keyscan.Result{Stdout: bracketed + "\n"}}
	f := keyscan.NewFetcher(runner, "ssh-keyscan", time.Second)

	line, err := f.Fetch(context.Background(), "git.example.com", "2222")
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if line != bracketed {
		t.Fatalf("Fetch = %q, want %q", line, bracketed)
	}

	calls := runner.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 probe invocation, got %d", len(calls))
	}
	want := []string{"ssh-keyscan", "-t", keyscan.DefaultAlgorithms, "-p", "2222", "git.example.com"}
	if len(calls[0]) != len(want) {
		t.Fatalf("probe args = %v, want %v", calls[0], want)
	}
	for i := range want {
		if calls[0][i] != want[i] {
			t.Fatalf("probe args = %v, want %v", calls[0], want)
		}
	}
}

func TestFetch_NoMatchingLine(t *testing.T) {
	runner := &testutil.FakeRunner{Result: keyscan.Result{
		Stdout: "other.example.com ssh-ed25519 AAAAC3NzaC1lZDI1NTE5AAAAIOMqexample\n",
	}}
	f := keyscan.NewFetcher(runner, "", 0)

	if _, err := f.Fetch(context.Background(), "git.example.com", ""); !errors.Is(err, keyscan.ErrNoHostKey) {
		t.Fatalf("Fetch = %v, want ErrNoHostKey", err)
	}
}

func TestFetch_RunnerFailureCollapsesToNoHostKey(t *testing.T) {
	runner := &testutil.FakeRunner{Err: errors.New("exec: ssh-keyscan: not found")}
	f := keyscan.NewFetcher(runner, "", 0)

	if _, err := f.Fetch(context.Background(), "git.example.com", ""); !errors.Is(err, keyscan.ErrNoHostKey) {
		t.Fatalf("Fetch = %v, want ErrNoHostKey", err)
	}
}

func TestFetch_NonZeroExitWithUsableOutput(t *testing.T) {
	// ssh-keyscan exits non-zero when one requested algorithm is refused,
	// while still printing perfectly good lines for the others.
	runner := &testutil.FakeRunner{Result: keyscan.Result{
		ExitCode: 1,
		Stdout:   ed25519Line + "\n",
		Stderr:   "git.example.com: no matching host key type found\n",
	}}
	f := keyscan.NewFetcher(runner, "", 0)

	line, err := f.Fetch(context.Background(), "git.example.com", "")
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if line != ed25519Line {
		t.Fatalf("Fetch = %q, want %q", line, ed25519Line)
	}
}

func TestFetch_DefaultPortUsesPlainPrefixOnly(t *testing.T) {
	// ssh-keyscan prints the bare-host form for port 22 even when -p was
	// passed explicitly, so the bracketed prefix must not be required.
	runner := &testutil.FakeRunner{Result: keyscan.Result{Stdout: ed25519Line + "\n"}}
	f := keyscan.NewFetcher(runner, "", 0)

	line, err := f.Fetch(context.Background(), "git.example.com", "22")
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if line != ed25519Line {
		t.Fatalf("Fetch = %q, want %q", line, ed25519Line)
	}
}

func TestFetch_CRLFOutput(t *testing.T) {
	runner := &testutil.FakeRunner{Result: keyscan.Result{Stdout: ed25519Line + "\r\n"}}
	f := keyscan.NewFetcher(runner, "", 0)

	line, err := f.Fetch(context.Background(), "git.example.com", "")
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if line != ed25519Line {
		t.Fatalf("Fetch = %q, want %q (trailing CR not stripped?)", line, ed25519Line)
	}
}
