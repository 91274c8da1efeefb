package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCivilDate(t *testing.T) {
	ny, err := LoadLocation("America/New_York")
	require.NoError(t, err)

	// 22:30 in New York on the 3rd is already the 4th in UTC.
	late := time.Date(2024, 5, 3, 22, 30, 0, 0, ny)
	assert.Equal(t, time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC), CivilDate(late))
	assert.Equal(t, time.Date(2024, 5, 4, 0, 0, 0, 0, time.UTC), CivilDate(late.UTC()))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), d)
	assert.Equal(t, "2024-02-29", FormatDate(d))

	_, err = ParseDate("29/02/2024")
	assert.Error(t, err)
}

func TestLoadLocation(t *testing.T) {
	loc, err := LoadLocation("")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	_, err = LoadLocation("Mars/Olympus_Mons")
	assert.Error(t, err)
}

func TestFormatDatePtr(t *testing.T) {
	assert.Equal(t, "", FormatDatePtr(nil))
	d := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-01-02", FormatDatePtr(&d))
}
