package roomid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateProducesValidID(t *testing.T) {
	id := Generate()
	assert.True(t, Valid(id))
	assert.Len(t, id, 5)
}

func TestValidRejectsWrongLength(t *testing.T) {
	assert.False(t, Valid("AB"))
	assert.False(t, Valid("ABCDEF"))
}

func TestValidRejectsLowercase(t *testing.T) {
	assert.False(t, Valid("abcde"))
}

func TestParseReturnsErrorForInvalid(t *testing.T) {
	_, err := Parse("!!!!!")
	assert.Error(t, err)
}

func TestParseReturnsValueForValid(t *testing.T) {
	got, err := Parse("AB12C")
	assert.NoError(t, err)
	assert.Equal(t, "AB12C", got)
}
