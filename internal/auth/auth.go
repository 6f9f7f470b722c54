// Package auth holds the credential primitives shared by the auth use cases:
// password hashing, opaque token generation and the user-facing error table.
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	// SessionTTL is the default lifetime of a sign-in session.
	SessionTTL = 7 * 24 * time.Hour

	// ResetTTL is how long a password-reset token stays valid.
	ResetTTL = time.Hour

	tokenBytes = 32
)

// HashCost is the bcrypt cost; tests lower it to bcrypt.MinCost.
var HashCost = bcrypt.DefaultCost

// HashPassword returns the bcrypt hash of pw.
func HashPassword(pw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), HashCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrWeakPassword
		}
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword returns ErrInvalidCredentials when pw does not match hash.
func CheckPassword(hash, pw string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// NewToken returns a URL-safe random token for sessions and reset links.
func NewToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
