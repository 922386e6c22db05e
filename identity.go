package main

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
)

// deriveSignature hashes a credential pair into the pseudonymous
// leaderboard identity: SHA-256("user:pass"), lowercase hex. One-way;
// no credential is ever stored.
func deriveSignature(user, pass string) string {
	sum := sha256.Sum256([]byte(user + ":" + pass))
	return hex.EncodeToString(sum[:])
}

// credentials pulls the Basic auth pair off a request. ok is false
// when either half is missing; the caller treats that request as
// unauthenticated.
func credentials(r *http.Request) (user, pass string, ok bool) {
	user, pass, ok = r.BasicAuth()
	if user == "" || pass == "" {
		return "", "", false
	}
	return user, pass, ok
}

// hashSHA256 renders the hex digest of arbitrary bytes; used for the
// backup passkey comparison.
func hashSHA256(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
