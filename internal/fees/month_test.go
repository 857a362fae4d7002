package fees

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMonthName(t *testing.T) {
	m, err := ParseMonthName(" marzo ")
	require.NoError(t, err)
	assert.Equal(t, Month(3), m)
	assert.Equal(t, "MARZO", m.String())
	assert.Equal(t, "Marzo", m.Title())

	_, err = ParseMonthName("MARCH")
	assert.ErrorIs(t, err, ErrInvalidMonth)
}

func TestMonthFromID(t *testing.T) {
	m, err := MonthFromID(12)
	require.NoError(t, err)
	assert.Equal(t, "DICIEMBRE", m.String())

	_, err = MonthFromID(0)
	assert.ErrorIs(t, err, ErrInvalidMonth)
	_, err = MonthFromID(13)
	assert.ErrorIs(t, err, ErrInvalidMonth)
}

func TestNameAndIDAgree(t *testing.T) {
	for id := 1; id <= 12; id++ {
		fromID, err := MonthFromID(id)
		require.NoError(t, err)
		fromName, err := ParseMonthName(fromID.String())
		require.NoError(t, err)
		assert.Equal(t, fromID, fromName)
	}
}
