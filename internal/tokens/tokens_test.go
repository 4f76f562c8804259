package tokens

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndValidate(t *testing.T) {
	svc := NewService("test-secret", 24)
	assignmentID := uuid.New()

	token, err := svc.Issue(assignmentID, "ad-42")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, assignmentID, claims.AssignmentID)
	assert.Equal(t, "ad-42", claims.AdID)
}

func TestValidateRejectsGarbage(t *testing.T) {
	svc := NewService("test-secret", 24)

	for _, tok := range []string{"", "not-a-token", "a.b.c"} {
		_, err := svc.Validate(tok)
		assert.ErrorIs(t, err, ErrInvalidToken, "token %q", tok)
	}
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	token, err := NewService("secret-a", 24).Issue(uuid.New(), "ad-1")
	require.NoError(t, err)

	_, err = NewService("secret-b", 24).Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsExpired(t *testing.T) {
	svc := NewService("test-secret", -1)
	token, err := svc.Issue(uuid.New(), "ad-1")
	require.NoError(t, err)

	_, err = svc.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokensAreUnique(t *testing.T) {
	svc := NewService("test-secret", 24)
	id := uuid.New()

	a, err := svc.Issue(id, "ad-1")
	require.NoError(t, err)
	b, err := svc.Issue(id, "ad-1")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}