// Copyright (c) 2026 Hostwarden Team
// Hostwarden - TOFU host key verification for SSH remotes
// This source code is licensed under the MIT license found in the LICENSE file.

// Package sshkey parses raw SSH host-key lines and derives display
// fingerprints from them. Key material is otherwise treated as opaque; no
// cryptographic validation happens here.
package sshkey
