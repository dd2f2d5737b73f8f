// package crypto hashes the secrets the server stores. Only channel passwords are
// stored here; user credentials belong to the login service that issues tokens.
package crypto

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// HashChannelPassword returns the bcrypt hash stored on a protected channel.
// An empty password means the channel is unprotected and hashes to "".
func HashChannelPassword(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	return string(hashed), err
}

// CheckChannelPassword reports whether plaintext opens a channel protected by hashed.
// An unprotected channel accepts anything.
func CheckChannelPassword(hashed, plaintext string) (bool, error) {
	if hashed == "" {
		return true, nil
	}
	err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plaintext))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return err == nil, err
}
