package queryir

import (
	"fmt"

	"github.com/riwaq/riwaq-go/value"
)

// DomainRequest separates request fingerprints from other content addresses.
const DomainRequest = "riwaq/request/v1"

// Fingerprint computes a content address for a request. Two requests that
// encode to the same envelope share a fingerprint regardless of key order
// in Update values. The bridge logs it to correlate host calls.
func Fingerprint(r Request) (string, error) {
	data, err := MarshalRequest(r)
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	v, err := value.Unmarshal(data)
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	return value.Fingerprint(DomainRequest, v)
}
