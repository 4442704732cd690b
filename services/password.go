package services

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2 parameters for new hashes. Stored hashes carry their own parameters.
const (
	memory      = 64 * 1024
	iterations  = 3
	parallelism = 2
	keyLength   = 32
	saltLength  = 16
)

var ErrMalformedHash = errors.New("malformed password hash")

// HashPassword returns an argon2id hash in PHC string format:
// $argon2id$v=19$m=65536,t=3,p=2$<salt>$<hash>
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", errors.New("failed to generate salt")
	}

	hash := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, keyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, memory, iterations, parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash)), nil
}

// IsHashed reports whether stored is a PHC argon2id hash.
func IsHashed(stored string) bool {
	return strings.HasPrefix(stored, "$argon2id$")
}

// VerifyPassword checks provided against stored. needsRehash is set when the
// stored value is a legacy format (plaintext or bare salt$hash) that should be
// replaced by a fresh HashPassword result after a successful login.
func VerifyPassword(stored, provided string) (match bool, needsRehash bool, err error) {
	switch {
	case IsHashed(stored):
		match, err = verifyPHC(stored, provided)
		return match, false, err
	case isLegacySaltHash(stored):
		match, err = verifyLegacySaltHash(stored, provided)
		return match, true, err
	default:
		// plaintext record from an older store
		match = subtle.ConstantTimeCompare([]byte(stored), []byte(provided)) == 1
		return match, true, nil
	}
}

func verifyPHC(stored, provided string) (bool, error) {
	parts := strings.Split(stored, "$")
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, hash
	if len(parts) != 6 {
		return false, ErrMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false, ErrMalformedHash
	}

	var m, t uint32
	var p uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &m, &t, &p); err != nil {
		return false, ErrMalformedHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, ErrMalformedHash
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, ErrMalformedHash
	}

	got := argon2.IDKey([]byte(provided), salt, t, m, p, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

// isLegacySaltHash matches the older "<salt>$<hash>" encoding.
func isLegacySaltHash(stored string) bool {
	parts := strings.Split(stored, "$")
	if len(parts) != 2 {
		return false
	}
	salt, err1 := base64.RawStdEncoding.DecodeString(parts[0])
	hash, err2 := base64.RawStdEncoding.DecodeString(parts[1])
	return err1 == nil && err2 == nil && len(salt) == saltLength && len(hash) == keyLength
}

func verifyLegacySaltHash(stored, provided string) (bool, error) {
	parts := strings.Split(stored, "$")
	salt, err := base64.RawStdEncoding.DecodeString(parts[0])
	if err != nil {
		return false, ErrMalformedHash
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[1])
	if err != nil {
		return false, ErrMalformedHash
	}
	got := argon2.IDKey([]byte(provided), salt, iterations, memory, parallelism, keyLength)
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}
