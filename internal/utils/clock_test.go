package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		input       string
		expected    int
		expectError bool
	}{
		{input: "00:00", expected: 0},
		{input: "08:30", expected: 510},
		{input: "23:59", expected: 1439},
		{input: "8:30", expectError: true},
		{input: "24:00", expectError: true},
		{input: "12:60", expectError: true},
		{input: "", expectError: true},
		{input: "12h30", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			minutes, err := ParseClock(tt.input)
			if tt.expectError {
				assert.ErrorIs(t, err, ErrInvalidClock)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, minutes)
		})
	}
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "09:05", FormatClock(545))
	assert.Equal(t, "00:00", FormatClock(minutesPerDay))
	assert.Equal(t, "23:00", FormatClock(-60))
}

func TestText(t *testing.T) {
	assert.Equal(t, "jane@example.com", NormalizeEmail("  Jane@Example.COM "))
	assert.True(t, IsBlank(" \t"))
	assert.False(t, IsBlank(" x "))
	assert.Equal(t, "abc", CleanUTF8("a\x00b\xffc"))
	assert.Equal(t, "déjà", CleanUTF8("déjà"))
}
