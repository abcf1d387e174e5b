package auth

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength applies to every password set through this service.
const MinPasswordLength = 8

var hashCost = bcrypt.DefaultCost

// dummyHash is compared against when no account matches, so unknown emails
// take roughly as long as wrong passwords.
var dummyHash = sync.OnceValue(func() []byte {
	h, _ := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), hashCost)
	return h
})

func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// ComparePassword returns nil when password matches hash. An empty hash never
// matches.
func ComparePassword(hash, password string) error {
	if hash == "" {
		return bcrypt.ErrMismatchedHashAndPassword
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
