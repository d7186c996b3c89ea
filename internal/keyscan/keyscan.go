// Copyright (c) 2026 Hostwarden Team
// Hostwarden - TOFU host key verification for SSH remotes
// This source code is licensed under the MIT license found in the LICENSE file.

// Package keyscan retrieves a remote host's public key by invoking an
// external ssh-keyscan style probe and picking the matching line out of its
// output. The probe runs behind the Runner seam so tests (and alternative
// execution mechanisms) can substitute their own process execution.
package keyscan

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"github.com/hostwarden/hostwarden/internal/logging"
)

// DefaultAlgorithms is the algorithm list requested from the probe.
const DefaultAlgorithms = "ed25519,rsa,ecdsa"

// DefaultTimeout bounds a single probe invocation. ssh-keyscan can hang on
// filtered ports, so the fetcher always applies a hard cap.
const DefaultTimeout = 10 * time.Second

// ErrNoHostKey is returned when the probe produced no usable key line for
// the target host: unreachable host, spawn failure, or unparseable output.
var ErrNoHostKey = errors.New("no host key found")

// Result is the outcome of one probe invocation. The probe commonly exits
// non-zero while still emitting valid key lines, so ExitCode is recorded but
// never treated as a failure by itself.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Runner executes an external command and captures its output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Result, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run executes name with args and returns the captured output. A non-zero
// exit status is reported through Result.ExitCode, not as an error.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	if err != nil {
		return res, err
	}
	return res, nil
}

// Fetcher probes remote hosts for their public key.
type Fetcher struct {
	runner  Runner
	binary  string
	timeout time.Duration
}

// NewFetcher returns a Fetcher using the given runner and probe binary.
// Empty binary or non-positive timeout fall back to "ssh-keyscan" and
// DefaultTimeout.
func NewFetcher(runner Runner, binary string, timeout time.Duration) *Fetcher {
	if binary == "" {
		binary = "ssh-keyscan"
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Fetcher{runner: runner, binary: binary, timeout: timeout}
}

// Fetch invokes the probe for host (and optional port) and returns the first
// stdout line belonging to the target: a line starting with the bare host,
// or with the bracketed "[host]:port" form when a non-default port is used.
// First match wins; no algorithm preference is imposed beyond the order the
// probe emitted. Every failure mode collapses to ErrNoHostKey so callers
// treat the verification as failed rather than trusted.
func (f *Fetcher) Fetch(ctx context.Context, host, port string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	args := []string{"-t", DefaultAlgorithms}
	if port != "" {
		args = append(args, "-p", port)
	}
	args = append(args, host)

	res, err := f.runner.Run(ctx, f.binary, args...)
	if err != nil {
		logging.Debugf("keyscan: probe %s failed to run: %v", f.binary, err)
		return "", ErrNoHostKey
	}
	if res.ExitCode != 0 {
		// Informational only; ssh-keyscan exits non-zero when any requested
		// algorithm is unavailable even though usable lines were printed.
		logging.Debugf("keyscan: probe exited %d for %s (stderr: %s)", res.ExitCode, host, strings.TrimSpace(res.Stderr))
	}

	prefixes := []string{host + " "}
	if port != "" && port != "22" {
		prefixes = append(prefixes, "["+host+"]:"+port+" ")
	}
	for _, line := range strings.Split(strings.TrimRight(res.Stdout, "\n"), "\n") {
		line = strings.TrimRight(line, "\r")
		for _, p := range prefixes {
			if strings.HasPrefix(line, p) {
				return line, nil
			}
		}
	}
	return "", ErrNoHostKey
}
