// Package utils holds small helpers shared across handlers.
package utils

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/aura-webinar/storefront/pkg/errs"
)

// MaxPasswordBytes is the longest password bcrypt hashes without truncation.
const MaxPasswordBytes = 72

// PasswordCost is the bcrypt work factor for stored passwords.
const PasswordCost = 12

// ErrPasswordTooLong is returned for passwords bcrypt would truncate.
var ErrPasswordTooLong = errs.WithKind(errs.Validation, "password must be at most 72 bytes")

// HashPassword hashes a plain password using bcrypt.
func HashPassword(password string) (string, error) {
	if len(password) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		return "", errs.Wrap(err, "hash password")
	}
	return string(hash), nil
}

// CheckPassword compares a plain password with its stored hash.
func CheckPassword(plain, hashed string) bool {
	if hashed == "" || len(plain) > MaxPasswordBytes {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}
