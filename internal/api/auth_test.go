package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueToken_RoundTrip(t *testing.T) {
	token, err := IssueToken("secret", 42, true, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken("secret", token)
	require.NoError(t, err)

	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.True(t, claims.Admin)
}

func TestIssueToken_MissingSecret(t *testing.T) {
	_, err := IssueToken("", 1, false, time.Hour)

	assert.Error(t, err)
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, err := IssueToken("secret", 1, false, time.Hour)
	require.NoError(t, err)

	_, err = ParseToken("another", token)

	assert.Error(t, err)
}

func TestParseToken_Expired(t *testing.T) {
	token, err := IssueToken("secret", 1, false, -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken("secret", token)

	assert.Error(t, err)
}

func TestClaims_BadSubject(t *testing.T) {
	claims := &Claims{}
	claims.Subject = "leo"

	_, err := claims.UserID()

	assert.Error(t, err)
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", bearerToken("Bearer abc"))
	assert.Equal(t, "abc", bearerToken("bearer abc"))
	assert.Equal(t, "", bearerToken("Basic abc"))
	assert.Equal(t, "", bearerToken(""))
}
