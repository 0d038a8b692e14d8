package helpers

import (
	"testing"

	"bitbucket.org/skilr/backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordRoundtrip(t *testing.T) {
	hashed, err := HashPassword("correct horse battery")
	require.NoError(t, err)
	require.NotEqual(t, "correct horse battery", hashed)

	assert.True(t, AuthenticateHashedPassword(hashed, "correct horse battery"))
	assert.False(t, AuthenticateHashedPassword(hashed, "wrong password"))
}

func TestGenerateAndParseToken(t *testing.T) {
	account := &models.Account{
		ID:        7,
		Firstname: "Ada",
		Lastname:  "Obi",
		Email:     "ada@example.com",
		Roles:     []models.Role{{ID: 2, Name: "client"}},
	}

	token, err := GenerateToken(account, "test-secret")
	require.NoError(t, err)

	claims, ok := ParserTokenUnverified(token)
	require.True(t, ok)

	user, ok := claims["u"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "ada@example.com", user["email"])
	assert.Equal(t, float64(7), user["i"])
}

func TestContains(t *testing.T) {
	assert.True(t, Contains([]int{1, 2}, 2))
	assert.False(t, Contains([]int{1, 2}, 3))
	assert.False(t, Contains(nil, 1))
}

func TestRemoveAccents(t *testing.T) {
	assert.Equal(t, "Jose Nunez", RemoveAccents("José Núñez"))
	assert.Equal(t, "plain", RemoveAccents("plain"))
}
