// Copyright (c) 2026 Hostwarden Team
// Hostwarden - TOFU host key verification for SSH remotes
// This source code is licensed under the MIT license found in the LICENSE file.

// Package registry holds the in-memory correlation table of in-flight
// verification requests: request id -> the broadcast snapshot, a single-use
// result channel, and a timeout timer. Timeouts resolve as rejection, so an
// unanswered prompt can never leave a host implicitly trusted.
package registry

import (
	"sync"
	"time"

	"github.com/hostwarden/hostwarden/internal/model"
)

type pendingRequest struct {
	req   model.VerificationRequest
	done  chan bool
	timer *time.Timer
}

// Registry is a mutex-guarded map of pending verification requests. It is
// explicitly constructed and owned by one verification service instance;
// multiple independent registries can coexist in a process.
type Registry struct {
	mu      sync.Mutex
	pending map[string]*pendingRequest
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{pending: make(map[string]*pendingRequest)}
}

// Register stores req keyed by its ID, arms the timeout, and returns the
// channel the caller awaits. Exactly one value is ever delivered: the
// operator decision, or false when the timeout fires first.
func (r *Registry) Register(req model.VerificationRequest, timeout time.Duration) <-chan bool {
	p := &pendingRequest{req: req, done: make(chan bool, 1)}
	r.mu.Lock()
	p.timer = time.AfterFunc(timeout, func() { r.Resolve(req.ID, false) })
	r.pending[req.ID] = p
	r.mu.Unlock()
	return p.done
}

// Resolve fulfills the pending request with the given decision and removes
// it. It reports false when id is unknown: already resolved, timed out, or
// never registered. Duplicate resolutions are therefore harmless no-ops.
func (r *Registry) Resolve(id string, accepted bool) bool {
	r.mu.Lock()
	p, ok := r.pending[id]
	if ok {
		delete(r.pending, id)
	}
	r.mu.Unlock()
	if !ok {
		return false
	}
	p.timer.Stop()
	p.done <- accepted
	return true
}

// Get returns a copy of the pending request for id, if still in flight.
func (r *Registry) Get(id string) (model.VerificationRequest, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pending[id]
	if !ok {
		return model.VerificationRequest{}, false
	}
	return p.req, true
}

// Len reports the number of in-flight requests.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}
