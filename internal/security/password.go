package security

import (
	"crypto/rand"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

// Hash password hashes a plain text password with bcrypt.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)

	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// helper that compares a bcrypt hash with a plaintext password.

func CheckPassword(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}

const base36 = "abcdefghijklmnopqrstuvwxyz0123456789"

// RandomBase36 returns n characters drawn from [a-z0-9] using crypto/rand.
// Used for placeholder secrets on federated accounts and username suffixes.
func RandomBase36(n int) (string, error) {
	out := make([]byte, n)

	max := big.NewInt(int64(len(base36)))

	for i := range out {
		idx, err := rand.Int(rand.Reader, max)

		if err != nil {
			return "", err
		}

		out[i] = base36[idx.Int64()]
	}

	return string(out), nil
}

// GenerateSecret produces a 16-char random secret. Accounts created through
// federated signin get a hash of one of these so the data model never has an
// empty credential; the secret itself is discarded.
func GenerateSecret() (string, error) {
	return RandomBase36(16)
}
