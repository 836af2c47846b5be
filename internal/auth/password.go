// Package auth holds the credential primitives: bcrypt password hashing and the
// signed JWTs handed out at login.
package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is bcrypt's input limit; longer passwords are rejected rather
// than silently truncated.
const MaxPasswordBytes = 72

// HashCost is the bcrypt work factor for new hashes. Existing hashes carry their
// own cost, so lowering it (tests use bcrypt.MinCost) never breaks verification.
var HashCost = bcrypt.DefaultCost

// HashPassword returns a bcrypt hash of password at HashCost.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), HashCost)
	if err != nil {
		return "", fmt.Errorf("auth: hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether password matches the stored bcrypt hash.
func VerifyPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
