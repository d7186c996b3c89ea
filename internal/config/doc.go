// Copyright (c) 2026 Hostwarden Team
// Hostwarden - TOFU host key verification for SSH remotes
// This source code is licensed under the MIT license found in the LICENSE file.

// Package config resolves Hostwarden's runtime configuration from defaults,
// YAML config files, HOSTWARDEN_* environment variables and CLI flags, in
// ascending order of precedence.
package config
