package utils

import "golang.org/x/crypto/bcrypt"

// CheckAPIKey compares a presented service API key against the bcrypt
// hash held in configuration. Only the hash is ever stored or deployed.
func CheckAPIKey(key, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) == nil
}

// HashAPIKey generates the bcrypt hash for a new service API key.
func HashAPIKey(key string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
