package value

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Fingerprint computes a content address for v under a domain prefix.
// Format: hex(SHA256(domain + 0x00 + canonical(v))).
// The null separator prevents domain/data boundary ambiguity.
func Fingerprint(domain string, v Value) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}

	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(canonical)
	return hex.EncodeToString(h.Sum(nil)), nil
}
