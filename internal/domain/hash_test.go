package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHash32(t *testing.T) {
	assert.Equal(t, int64(0), Hash32(""))
	assert.Equal(t, int64(96354), Hash32("abc"))
	assert.Equal(t, int64(2147483648), Hash32("polygenelubricants"))
	assert.Equal(t, Hash32("AYB-1:done"), Hash32("AYB-1:done"))
}
