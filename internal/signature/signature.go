package signature

import (
	"crypto/sha256"
	"encoding/base64"
)

// Sign concatenates the parts in the exact order given, with no separator,
// hashes the UTF-8 bytes with SHA-256 and returns the standard base64
// encoding of the digest.
//
// The field order is protocol-defined and differs between the payment,
// refund and callback call sites; callers own the ordering.
func Sign(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
	}
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}
