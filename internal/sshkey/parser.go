package sshkey

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/ssh"
)

// UnknownKeyType is the algorithm token recorded when a key line carries no
// recognizable second field.
const UnknownKeyType = "UNKNOWN"

// Parse splits a raw host-key line (as emitted by ssh-keyscan, i.e.
// "host keytype base64material") into its components.
func Parse(rawLine string) (host, algorithm, keyData string, err error) {
	fields := strings.Fields(rawLine)
	if len(fields) == 0 {
		err = fmt.Errorf("empty line")
		return
	}
	host = fields[0]
	if len(fields) < 3 {
		err = fmt.Errorf("invalid host key format: expected host, algorithm and key data")
		return
	}
	algorithm = fields[1]
	keyData = fields[2]
	return
}

// KeyType returns the algorithm token of a raw host-key line, or
// UnknownKeyType when the line has no second field.
func KeyType(rawLine string) string {
	fields := strings.Fields(rawLine)
	if len(fields) < 2 {
		return UnknownKeyType
	}
	return fields[1]
}

// Fingerprint computes the SHA256 fingerprint of the key material in a raw
// host-key line, in the same "SHA256:..." form OpenSSH prints.
func Fingerprint(rawLine string) (string, error) {
	fields := strings.Fields(rawLine)
	if len(fields) < 3 {
		return "", fmt.Errorf("invalid host key format: %q", rawLine)
	}
	// ParseAuthorizedKey wants "keytype base64 [comment]"; drop the host field.
	pub, _, _, _, err := ssh.ParseAuthorizedKey([]byte(strings.Join(fields[1:], " ")))
	if err != nil {
		return "", fmt.Errorf("failed to parse public key: %w", err)
	}
	return ssh.FingerprintSHA256(pub), nil
}
