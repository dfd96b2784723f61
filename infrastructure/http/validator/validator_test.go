package validator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("admin@vendora.io"))
	assert.False(t, ValidateEmail(""))
	assert.False(t, ValidateEmail("admin@"))
	assert.False(t, ValidateEmail("admin vendora.io"))
}

func TestValidateID(t *testing.T) {
	assert.True(t, ValidateID("8d3b5bd0-6a55-4c59-9a7c-0a8d1ad2f0b7"))
	assert.False(t, ValidateID("42"))
}

func TestParseBool(t *testing.T) {
	for _, v := range []string{"true", "1", "YES", " on "} {
		b, ok := ParseBool(v)
		assert.True(t, ok, v)
		assert.True(t, b, v)
	}
	b, ok := ParseBool("false")
	assert.True(t, ok)
	assert.False(t, b)

	_, ok = ParseBool("maybe")
	assert.False(t, ok)
}

func TestParseTime(t *testing.T) {
	ts, ok := ParseTime("2024-03-01T10:00:00+02:00")
	assert.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC), ts)

	ts, ok = ParseTime("2024-03-01")
	assert.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), ts)

	_, ok = ParseTime("yesterday")
	assert.False(t, ok)
}
