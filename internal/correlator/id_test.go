package correlator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCorrelationID_Shape(t *testing.T) {
	id, err := NewCorrelationID()
	require.NoError(t, err)

	assert.Len(t, id, idLength)
	for _, c := range id {
		assert.True(t, strings.ContainsRune(idAlphabet, c), "unexpected character %q", c)
	}
}

func TestNewCorrelationID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id, err := NewCorrelationID()
		require.NoError(t, err)
		assert.False(t, seen[id], "duplicate id generated: %s", id)
		seen[id] = true
	}
}
