package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"fmt"
	"strings"
)

// Stored credential field sizes. Both are exact: anything else is malformed.
const (
	HashSize = sha512.Size // 64
	SaltSize = 128
)

// Credential is the stored form of a password: an HMAC-SHA512 digest of the
// password keyed with a random salt.
type Credential struct {
	Hash []byte
	Salt []byte
}

// WellFormed reports whether both fields have their exact sizes.
func (c Credential) WellFormed() bool {
	return len(c.Hash) == HashSize && len(c.Salt) == SaltSize
}

// NewCredential derives a storable credential from a plaintext password
// using a fresh random salt.
func NewCredential(password string) (Credential, error) {
	if err := checkPassword(password); err != nil {
		return Credential{}, err
	}

	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return Credential{}, fmt.Errorf("generating salt: %w", err)
	}

	return Credential{Hash: keyedHash(password, salt), Salt: salt}, nil
}

// VerifyCredential reports whether password matches the stored credential.
// A mismatch is not an error. A credential of the wrong shape is, and is
// never compared.
func VerifyCredential(password string, cred Credential) (bool, error) {
	if err := checkPassword(password); err != nil {
		return false, err
	}
	if !cred.WellFormed() {
		return false, newError(KindMalformedCredential, "hash/salt are %d/%d bytes, want %d/%d",
			len(cred.Hash), len(cred.Salt), HashSize, SaltSize)
	}

	candidate := keyedHash(password, cred.Salt)

	return subtle.ConstantTimeCompare(cred.Hash, candidate) == 1, nil
}

// decoyCredential is verified against when a login names no account, so the
// unknown-user path does the same HMAC work as a wrong password.
var decoyCredential = Credential{Hash: make([]byte, HashSize), Salt: make([]byte, SaltSize)}

func keyedHash(password string, salt []byte) []byte {
	mac := hmac.New(sha512.New, salt)
	mac.Write([]byte(password)) //nolint:errcheck // hash.Hash writes never fail
	return mac.Sum(nil)
}

func checkPassword(password string) error {
	if strings.TrimSpace(password) == "" {
		return newError(KindInvalidInput, "password must not be blank")
	}
	return nil
}
