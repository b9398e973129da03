package app

import (
	"encoding/base64"
	"encoding/pem"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSmtpPassword(t *testing.T) {
	password, err := GenerateSmtpPassword()

	require.NoError(t, err)
	assert.Len(t, password, 20)
	for _, r := range password {
		assert.Contains(t, smtpPasswordAlphabet, string(r))
	}
}

func TestGenerateSmtpPassword_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		password, err := GenerateSmtpPassword()
		require.NoError(t, err)
		assert.False(t, seen[password], "generated the same password twice")
		seen[password] = true
	}
}

func TestDeriveSmtpUsername(t *testing.T) {
	assert.Equal(t, "planning_alerts_15", DeriveSmtpUsername("Planning Alerts", 15))
	assert.Equal(t, "book_store_2", DeriveSmtpUsername("Book Store", 2))
	assert.Equal(t, "cuttlefish_1", DeriveSmtpUsername("Cuttlefish", 1))
}

func TestGenerateDkimKeypair(t *testing.T) {
	privateKey, publicKey, err := GenerateDkimKeypair()

	require.NoError(t, err)

	block, rest := pem.Decode([]byte(privateKey))
	require.NotNil(t, block)
	assert.Equal(t, "RSA PRIVATE KEY", block.Type)
	assert.Empty(t, strings.TrimSpace(string(rest)))

	// the public key goes into a DNS TXT record as plain base64
	_, err = base64.StdEncoding.DecodeString(publicKey)
	assert.NoError(t, err)
}

func TestGenerateDkimKeypair_DistinctPerCall(t *testing.T) {
	first, _, err := GenerateDkimKeypair()
	require.NoError(t, err)
	second, _, err := GenerateDkimKeypair()
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}
