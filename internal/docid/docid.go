// Package docid derives deterministic document ids from document content.
package docid

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
)

// SHA1 returns the lowercase hex SHA-1 of body. Same body always yields the
// same id, so re-importing a corpus overwrites earlier exports.
func SHA1(body string) string {
	sum := sha1.Sum([]byte(body))
	return hex.EncodeToString(sum[:])
}

// IsSHA1 reports whether id looks like a hex SHA-1 digest.
func IsSHA1(id string) bool {
	if len(id) != sha1.Size*2 {
		return false
	}
	_, err := hex.DecodeString(strings.ToLower(id))
	return err == nil
}
