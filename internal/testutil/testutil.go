// Copyright (c) 2026 Hostwarden Team
// Hostwarden - TOFU host key verification for SSH remotes
// This source code is licensed under the MIT license found in the LICENSE file.

package testutil

import (
	"context"
	"sync"

	"github.com/hostwarden/hostwarden/internal/keyscan"
	"github.com/hostwarden/hostwarden/internal/model"
)

// FakeRunner is a scripted process-execution collaborator used by tests to
// avoid spawning a real ssh-keyscan.
type FakeRunner struct {
	Result keyscan.Result
	Err    error

	mu    sync.Mutex
	calls [][]string
}

// Run records the invocation and returns the scripted result.
func (f *FakeRunner) Run(ctx context.Context, name string, args ...string) (keyscan.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]string{name}, args...))
	f.mu.Unlock()
	return f.Result, f.Err
}

// Calls returns every recorded invocation, command name first.
func (f *FakeRunner) Calls() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]string, len(f.calls))
	copy(out, f.calls)
	return out
}

// FakeBroadcaster captures verification requests instead of delivering them
// anywhere. OnBroadcast, when set, runs in its own goroutine so it can call
// back into the service (e.g. Respond) the way a real operator channel would.
type FakeBroadcaster struct {
	Err         error
	OnBroadcast func(req model.VerificationRequest)

	mu       sync.Mutex
	requests []model.VerificationRequest
}

// Broadcast records req and triggers the OnBroadcast hook.
func (f *FakeBroadcaster) Broadcast(req model.VerificationRequest) error {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	if f.OnBroadcast != nil {
		go f.OnBroadcast(req)
	}
	return nil
}

// Requests returns every captured request.
func (f *FakeBroadcaster) Requests() []model.VerificationRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.VerificationRequest, len(f.requests))
	copy(out, f.requests)
	return out
}
