package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	for _, format := range []string{"", "json", "console"} {
		log, err := New("info", format)
		require.NoError(t, err, format)
		assert.True(t, log.Enabled())
		assert.False(t, log.V(1).Enabled())
	}

	log, err := New("debug", "json")
	require.NoError(t, err)
	assert.True(t, log.V(1).Enabled())
}

func TestNewRejects(t *testing.T) {
	_, err := New("loud", "json")
	assert.Error(t, err)
	_, err = New("info", "xml")
	assert.Error(t, err)
}
