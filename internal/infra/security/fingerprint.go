package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

const fingerprintLength = 16

// FingerprintInput carries the request metadata a device fingerprint is
// derived from.
type FingerprintInput struct {
	UserAgent      string
	AcceptLanguage string
	AcceptEncoding string
	IP             string
}

// DeviceFingerprint derives a stable 16-hex-character digest from request
// metadata. It is deterministic and side-effect free. Collisions across
// similar browsers on the same network are expected; the value enriches
// session records for display and audit and is never authentication evidence.
func DeviceFingerprint(in FingerprintInput) string {
	fields := []string{
		orUnknown(in.UserAgent),
		orUnknown(in.AcceptLanguage),
		orUnknown(in.AcceptEncoding),
		orUnknown(in.IP),
	}

	sum := sha256.Sum256([]byte(strings.Join(fields, ":")))
	return hex.EncodeToString(sum[:])[:fingerprintLength]
}

// GenerateSessionID returns a fresh high-entropy session identifier:
// 32 random bytes, hex-encoded to 64 characters.
func GenerateSessionID() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func orUnknown(v string) string {
	if strings.TrimSpace(v) == "" {
		return "unknown"
	}
	return v
}
