package yeast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNowDistinctWithinSameMillisecond(t *testing.T) {
	Reset()

	a := at(1000)
	b := at(1000)

	assert.NotEqual(t, a, b)
	assert.Less(t, a, b, "second call within the same ms must be lexicographically greater")
}

func TestNowMonotonicAcrossMilliseconds(t *testing.T) {
	Reset()

	a := at(1000)
	b := at(1001)

	assert.NotEqual(t, a, b)
	assert.Less(t, a, b)
}

func TestEncodeZero(t *testing.T) {
	assert.Equal(t, "0", encode(0))
}
