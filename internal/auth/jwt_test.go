package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func TestJWTSigner_IssueAndVerify(t *testing.T) {
	signer, err := NewJWTSigner(testSecret, "portal", time.Hour)
	require.NoError(t, err)

	principalID := uuid.Must(uuid.NewV7())

	token, err := signer.Issue(principalID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := signer.Verify(token)
	require.NoError(t, err)
	require.Equal(t, principalID, got)
}

func TestJWTSigner_RejectsExpired(t *testing.T) {
	signer, err := NewJWTSigner(testSecret, "portal", time.Millisecond)
	require.NoError(t, err)

	token, err := signer.Issue(uuid.Must(uuid.NewV7()))
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	_, err = signer.Verify(token)
	require.Error(t, err)
}

func TestJWTSigner_RejectsWrongSecret(t *testing.T) {
	signer, err := NewJWTSigner(testSecret, "portal", time.Hour)
	require.NoError(t, err)

	other, err := NewJWTSigner([]byte("ffffffffffffffffffffffffffffffff"), "portal", time.Hour)
	require.NoError(t, err)

	token, err := signer.Issue(uuid.Must(uuid.NewV7()))
	require.NoError(t, err)

	_, err = other.Verify(token)
	require.Error(t, err)
}

func TestJWTSigner_RejectsWrongIssuer(t *testing.T) {
	signer, err := NewJWTSigner(testSecret, "portal", time.Hour)
	require.NoError(t, err)

	other, err := NewJWTSigner(testSecret, "someone-else", time.Hour)
	require.NoError(t, err)

	token, err := other.Issue(uuid.Must(uuid.NewV7()))
	require.NoError(t, err)

	_, err = signer.Verify(token)
	require.Error(t, err)
}

func TestNewJWTSigner_RejectsShortSecret(t *testing.T) {
	_, err := NewJWTSigner([]byte("too-short"), "portal", time.Hour)
	require.Error(t, err)
}
