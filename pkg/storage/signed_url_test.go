package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignedURLRoundTrip(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)

	token, expiresAt, err := signer.Generate("doc-1", "ab/cd.pdf")
	require.NoError(t, err)
	require.True(t, expiresAt.After(time.Now()))

	docID, ref, _, err := signer.Parse(token)
	require.NoError(t, err)
	require.Equal(t, "doc-1", docID)
	require.Equal(t, "ab/cd.pdf", ref)
}

func TestSignedURLTampered(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)

	token, _, err := signer.Generate("doc-1", "ab/cd.pdf")
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	parts[0] = "doc-2"
	_, _, _, err = signer.Parse(strings.Join(parts, "."))
	require.Error(t, err)
}

func TestSignedURLExpired(t *testing.T) {
	signer := NewSignedURLSigner("secret", -time.Minute)
	signer.ttl = -time.Minute

	token, _, err := signer.Generate("doc-1", "ab/cd.pdf")
	require.NoError(t, err)

	_, _, _, err = signer.Parse(token)
	require.Error(t, err)
	require.Contains(t, err.Error(), "expired")
}

func TestSignedURLRequiresSecret(t *testing.T) {
	signer := NewSignedURLSigner("", time.Minute)
	_, _, err := signer.Generate("doc-1", "ab/cd.pdf")
	require.Error(t, err)
}
