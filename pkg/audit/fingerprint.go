package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Fingerprint returns a stable hex-encoded hash of an argument object.
// json.Marshal emits object keys in sorted order, so two logically
// identical argument maps always fingerprint identically regardless of Go
// map iteration order.
func Fingerprint(args map[string]any) string {
	b, err := json.Marshal(args)
	if err != nil {
		b = []byte(err.Error())
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
