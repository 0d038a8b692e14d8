package db

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCheckoutReference(t *testing.T) {
	reference := GenerateCheckoutReference(7)

	parts := strings.Split(reference, "-")
	require.Len(t, parts, 3)
	assert.Equal(t, "SKILR", parts[0])
	assert.Equal(t, "7", parts[1])

	_, err := strconv.ParseInt(parts[2], 10, 64)
	assert.NoError(t, err)
}

func TestGenerateCheckoutReferenceUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		reference := GenerateCheckoutReference(7)
		assert.False(t, seen[reference], "reference %s repeated", reference)
		seen[reference] = true
	}
}
