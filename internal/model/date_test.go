package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateSeparators(t *testing.T) {
	want := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"2026-03-01", "2026.03.01", "2026/03/01", " 01.03.2026 ", "01/03/2026"} {
		got, err := ParseDate(in)
		require.NoError(t, err, in)
		assert.True(t, want.Equal(got), in)
	}
}

func TestParseDateRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "tomorrow", "2026-13-01", "2026-02-30", "1.3.26"} {
		_, err := ParseDate(in)
		assert.ErrorIs(t, err, ErrInvalid, in)
	}
}

func TestDaysBetween(t *testing.T) {
	loc := time.FixedZone("MSK", 3*3600)
	a := time.Date(2026, 1, 1, 23, 30, 0, 0, loc)
	b := time.Date(2026, 1, 16, 0, 10, 0, 0, loc)
	assert.Equal(t, 15, DaysBetween(a, b))
	assert.Equal(t, -15, DaysBetween(b, a))
}
