package middlewares

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuthErrorMessage(t *testing.T) {
	assert.Equal(t, "Invalid email or password. Please try again.", AuthErrorMessage(AuthCodeInvalidCredential))
	assert.Equal(t, "This email is already registered. Please sign in instead.", AuthErrorMessage(AuthCodeEmailInUse))

	// Unknown codes fall through to the generic message.
	assert.Equal(t, "Something went wrong. Please try again.", AuthErrorMessage("auth/quota-exceeded"))
	assert.Equal(t, "Something went wrong. Please try again.", AuthErrorMessage(""))
}
