package services

import (
	"crypto/rand"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/argon2"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("secret1")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=65536,t=3,p=2$"))
	assert.True(t, IsHashed(hash))
	assert.NotContains(t, hash, "secret1")

	again, err := HashPassword("secret1")
	require.NoError(t, err)
	assert.NotEqual(t, hash, again, "salts must differ")
}

func TestVerifyPassword(t *testing.T) {
	hash, err := HashPassword("secret1")
	require.NoError(t, err)

	legacySalt := make([]byte, saltLength)
	_, err = rand.Read(legacySalt)
	require.NoError(t, err)
	legacyKey := argon2.IDKey([]byte("secret1"), legacySalt, iterations, memory, parallelism, keyLength)
	legacy := base64.RawStdEncoding.EncodeToString(legacySalt) + "$" + base64.RawStdEncoding.EncodeToString(legacyKey)

	tests := []struct {
		name       string
		stored     string
		provided   string
		wantMatch  bool
		wantRehash bool
		wantErr    bool
	}{
		{name: "argon2id match", stored: hash, provided: "secret1", wantMatch: true},
		{name: "argon2id mismatch", stored: hash, provided: "secret2"},
		{name: "legacy salt$hash match", stored: legacy, provided: "secret1", wantMatch: true, wantRehash: true},
		{name: "legacy salt$hash mismatch", stored: legacy, provided: "nope", wantRehash: true},
		{name: "plaintext match", stored: "secret1", provided: "secret1", wantMatch: true, wantRehash: true},
		{name: "plaintext mismatch", stored: "secret1", provided: "Secret1", wantRehash: true},
		{name: "truncated hash", stored: "$argon2id$v=19$m=65536,t=3,p=2$abc", provided: "secret1", wantErr: true},
		{name: "bad version", stored: strings.Replace(hash, "v=19", "v=16", 1), provided: "secret1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			match, rehash, err := VerifyPassword(tt.stored, tt.provided)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedHash)
				assert.False(t, match)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMatch, match)
			assert.Equal(t, tt.wantRehash, rehash)
		})
	}
}
