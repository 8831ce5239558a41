package sharedsecret

import (
	"crypto/hmac"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
)

// ComputeExpectedCode returns the code a client needs to present to log in as userId:
// the lowercase hex HMAC-SHA512 of the user id, keyed with the shared secret.
func ComputeExpectedCode(userId, sharedSecret string) string {
	m := hmac.New(sha512.New, []byte(sharedSecret))
	m.Write([]byte(userId))
	return hex.EncodeToString(m.Sum(nil))
}

// IsValidCode compares the expected and presented codes in constant time.
//
// Codes of a different length are never equal. ConstantTimeCompare only leaks the lengths,
// and the length of the expected code is public anyway (it's always a hex SHA-512 digest).
func IsValidCode(expected, presented string) bool {
	return subtle.ConstantTimeCompare([]byte(expected), []byte(presented)) == 1
}
