package model

import "fmt"

// TrustedHost is a host whose public key has been accepted by an operator
// (or auto-accepted). One row exists per canonical host; re-accepting a
// rotated key overwrites the key material but keeps CreatedAt.
type TrustedHost struct {
	// Host is the canonical store key: "hostname", or "hostname:port" when
	// the port is not the SSH default.
	Host      string `json:"host"`
	KeyType   string `json:"key_type"`
	PublicKey string `json:"public_key"`
	// CreatedAt and UpdatedAt are epoch milliseconds.
	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`
}

// String returns the host together with its key algorithm.
func (h TrustedHost) String() string {
	return fmt.Sprintf("%s (%s)", h.Host, h.KeyType)
}

// VerificationRequest is the payload broadcast to the operator channel when
// a host needs an interactive trust decision. IP and IsKeyChanged are
// reserved; nothing populates them yet.
type VerificationRequest struct {
	ID           string `json:"id"`
	Host         string `json:"host"`
	IP           string `json:"ip"`
	KeyType      string `json:"keyType"`
	Fingerprint  string `json:"fingerprint"`
	Timestamp    int64  `json:"timestamp"`
	IsKeyChanged bool   `json:"isKeyChanged"`
	RequestID    string `json:"requestId"`
	Action       string `json:"action"`
}

// AuditLogEntry represents a single, timestamped record of a trust decision
// or administrative action.
type AuditLogEntry struct {
	ID        int    `json:"id"`
	Timestamp string `json:"timestamp"`
	Username  string `json:"username"`
	Action    string `json:"action"`
	Details   string `json:"details"`
}
