// Copyright (c) 2026 Hostwarden Team
// Hostwarden - TOFU host key verification for SSH remotes
// This source code is licensed under the MIT license found in the LICENSE file.

// Package verify implements the trust-on-first-use verification flow: check
// the trust store, probe unknown hosts for their key, hand the decision to
// an operator channel, and persist accepted keys to the store and the
// known_hosts mirror. Every ambiguous outcome (timeout, probe failure,
// broadcast failure) resolves to "not trusted".
package verify

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/hostwarden/hostwarden/internal/db"
	"github.com/hostwarden/hostwarden/internal/hostaddr"
	"github.com/hostwarden/hostwarden/internal/knownhosts"
	"github.com/hostwarden/hostwarden/internal/logging"
	"github.com/hostwarden/hostwarden/internal/model"
	"github.com/hostwarden/hostwarden/internal/registry"
	"github.com/hostwarden/hostwarden/internal/sshkey"
)

// DefaultTimeout is how long a verification waits for an operator decision.
const DefaultTimeout = 120 * time.Second

// ErrRequestNotFound is returned by Respond for ids that are unknown,
// already resolved, or expired.
var ErrRequestNotFound = errors.New("verification request not found")

// Audit action tokens recorded in the trust store's audit log.
const (
	actionTrustHost     = "TRUST_HOST"
	actionAutoTrustHost = "AUTO_TRUST_HOST"
	actionVerifyDenied  = "VERIFY_DENIED"
)

// Fetcher retrieves the raw host-key line for a host.
type Fetcher interface {
	Fetch(ctx context.Context, host, port string) (string, error)
}

// Broadcaster delivers a verification request to whatever channel reaches an
// operator. The transport is not this package's concern.
type Broadcaster interface {
	Broadcast(req model.VerificationRequest) error
}

// Service orchestrates host verification. It exclusively owns its registry
// and the mirror; nothing else mutates them.
type Service struct {
	store    db.Store
	fetcher  Fetcher
	mirror   *knownhosts.Mirror
	registry *registry.Registry
	notifier Broadcaster
	timeout  time.Duration
}

// New constructs a Service. A non-positive timeout falls back to
// DefaultTimeout.
func New(store db.Store, fetcher Fetcher, mirror *knownhosts.Mirror, notifier Broadcaster, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Service{
		store:    store,
		fetcher:  fetcher,
		mirror:   mirror,
		registry: registry.New(),
		notifier: notifier,
		timeout:  timeout,
	}
}

// Registry exposes the pending-request table, mainly for tests and status
// inspection.
func (s *Service) Registry() *registry.Registry { return s.registry }

// Initialize prepares the known_hosts mirror: the file is created if absent
// and rewritten from the store, so after a crash or manual deletion the
// mirror matches the database before any verification is served.
func (s *Service) Initialize() error {
	if err := s.mirror.EnsureFile(); err != nil {
		return err
	}
	return s.mirror.Resync()
}

// Verify checks whether the host named by locator is trusted, running the
// full TOFU round trip when it is not: probe the host key, broadcast a
// verification request, and await the operator decision or timeout. The
// returned bool is the only success signal; probe failures, rejections and
// timeouts all come back as false with detail in the logs. The error is
// non-nil only for malformed locators, which never reach the network.
func (s *Service) Verify(ctx context.Context, locator string) (bool, error) {
	host, port, err := hostaddr.Parse(locator)
	if err != nil {
		return false, err
	}
	canonical := hostaddr.Canonical(host, port)

	// Fast path: already trusted, no probe, no prompt.
	trusted, err := s.store.GetTrustedHost(canonical)
	if err != nil {
		// Degrade to "not yet trusted"; the slow path will re-prompt.
		logging.Errorf("verify: trust store lookup for %s failed: %v", canonical, err)
	}
	if trusted != nil {
		return true, nil
	}

	keyLine, err := s.fetcher.Fetch(ctx, host, port)
	if err != nil {
		logging.Infof("verify: no host key for %s: %v", canonical, err)
		return false, nil
	}
	// The probe output is untrusted network data; a line that does not even
	// carry host/algorithm/material never reaches the operator or the store.
	if _, _, _, err := sshkey.Parse(keyLine); err != nil {
		logging.Infof("verify: unusable host key line for %s: %v", canonical, err)
		return false, nil
	}

	id, err := newRequestID()
	if err != nil {
		logging.Errorf("verify: failed to generate request id: %v", err)
		return false, nil
	}
	req := model.VerificationRequest{
		ID:          id,
		Host:        canonical,
		KeyType:     sshkey.KeyType(keyLine),
		Fingerprint: keyLine,
		Timestamp:   time.Now().UnixMilli(),
		RequestID:   id,
		Action:      "verify",
	}

	done := s.registry.Register(req, s.timeout)
	if err := s.notifier.Broadcast(req); err != nil {
		// Nobody will ever answer this request; fail it now instead of
		// holding the caller until the timeout.
		logging.Errorf("verify: broadcast for %s failed: %v", canonical, err)
		s.registry.Resolve(id, false)
	}

	var accepted bool
	select {
	case accepted = <-done:
	case <-ctx.Done():
		s.registry.Resolve(id, false)
		accepted = <-done
	}

	if !accepted {
		if err := s.store.LogAction(actionVerifyDenied, "host: "+canonical); err != nil {
			logging.Errorf("verify: audit log write failed: %v", err)
		}
		return false, nil
	}

	// The decision binds to the key line that was broadcast, not whatever
	// the store holds by now.
	s.persist(canonical, req.KeyType, keyLine, actionTrustHost)
	return true, nil
}

// AutoAccept fetches the host key and persists it without an operator round
// trip. It is a conscious bypass for non-interactive contexts and is never
// used as a fallback from a failed or timed-out Verify.
func (s *Service) AutoAccept(ctx context.Context, locator string) error {
	host, port, err := hostaddr.Parse(locator)
	if err != nil {
		return err
	}
	canonical := hostaddr.Canonical(host, port)

	keyLine, err := s.fetcher.Fetch(ctx, host, port)
	if err != nil {
		return err
	}
	if _, _, _, err := sshkey.Parse(keyLine); err != nil {
		return fmt.Errorf("unusable host key line for %s: %w", canonical, err)
	}
	s.persist(canonical, sshkey.KeyType(keyLine), keyLine, actionAutoTrustHost)
	return nil
}

// Respond delivers an operator decision for a pending request id. Unknown,
// expired, or already-resolved ids return ErrRequestNotFound; duplicate
// responses are harmless.
func (s *Service) Respond(id string, accepted bool) error {
	if !s.registry.Resolve(id, accepted) {
		return ErrRequestNotFound
	}
	return nil
}

// persist records the accepted key. Failures are logged, not returned: the
// operator's decision stands even when the durable write degrades, and a
// later resync repairs the mirror.
func (s *Service) persist(canonical, keyType, keyLine, action string) {
	if err := s.store.UpsertTrustedHost(canonical, keyType, keyLine, time.Now()); err != nil {
		logging.Errorf("verify: failed to persist trusted host %s: %v", canonical, err)
		return
	}
	if err := s.store.LogAction(action, "host: "+canonical+", key_type: "+keyType); err != nil {
		logging.Errorf("verify: audit log write failed: %v", err)
	}
	if err := s.mirror.Append(keyLine); err != nil {
		logging.Errorf("verify: known_hosts mirror append for %s failed: %v", canonical, err)
	}
}

// newRequestID creates an unguessable 128-bit request token.
func newRequestID() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
