package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminTokenRoundTrip(t *testing.T) {
	tok, exp, err := IssueAdminToken("s3cret", time.Hour, time.Now())
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := ParseAdminToken("s3cret", tok)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, claims.Role)
}

func TestAdminTokenRejects(t *testing.T) {
	tok, _, err := IssueAdminToken("s3cret", time.Hour, time.Now())
	require.NoError(t, err)

	_, err = ParseAdminToken("other", tok)
	assert.Error(t, err)

	expired, _, err := IssueAdminToken("s3cret", time.Hour, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)
	_, err = ParseAdminToken("s3cret", expired)
	assert.Error(t, err)

	_, _, err = IssueAdminToken("", time.Hour, time.Now())
	assert.Error(t, err)
}
