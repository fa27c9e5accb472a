package auth

import (
	"strings"
	"testing"

	"chat-relay/errors"

	"github.com/stretchr/testify/require"
)

func Test_Hash_And_Compare_Password(t *testing.T) {
	req := require.New(t)

	hash, err := HashPassword("S3cret-pass")
	req.NoError(err)
	req.True(strings.HasPrefix(hash, "$argon2id$"))

	match, err := ComparePassword("S3cret-pass", hash)
	req.NoError(err)
	req.True(match)

	match, err = ComparePassword("wrong-pass", hash)
	req.NoError(err)
	req.False(match)
}

func Test_Hashes_Are_Salted(t *testing.T) {
	req := require.New(t)

	first, err := HashPassword("S3cret-pass")
	req.NoError(err)
	second, err := HashPassword("S3cret-pass")
	req.NoError(err)
	req.NotEqual(first, second)
}

func Test_Compare_Rejects_Malformed_Hash(t *testing.T) {
	req := require.New(t)

	_, err := ComparePassword("whatever", "plainly-not-a-hash")
	req.Error(err)
}

func Test_Validate_Register(t *testing.T) {
	req := require.New(t)

	req.NoError(ValidateRegister(RegisterRequest{Username: "alice", Password: "S3cret-pass", Pin: "1234"}))
	req.Error(ValidateRegister(RegisterRequest{Username: "a", Password: "S3cret-pass", Pin: "1234"}))
	req.Error(ValidateRegister(RegisterRequest{Username: "alice", Password: "short", Pin: "1234"}))
	req.Error(ValidateRegister(RegisterRequest{Username: "alice", Password: "S3cret-pass", Pin: "12ab"}))
}

func Test_Password_Complexity(t *testing.T) {
	req := require.New(t)

	tests := []struct {
		name     string
		password string
	}{
		{"no uppercase", "s3cret-pass"},
		{"no lowercase", "S3CRET-PASS"},
		{"no number", "Secret-pass"},
		{"no special", "S3cretpass"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRegister(RegisterRequest{Username: "alice", Password: tt.password, Pin: "1234"})
			req.ErrorIs(err, errors.ErrInvalidPassword)
		})
	}
}
