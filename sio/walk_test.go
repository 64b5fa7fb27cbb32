package sio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractAttachmentsMultipleNested(t *testing.T) {
	args := []any{
		map[string]any{
			"a": Bytes([]byte("one")),
			"b": []any{Bytes([]byte("two")), "plain"},
		},
		Bytes([]byte("three")),
	}

	newArgs, atts := ExtractAttachments(args)
	require.Len(t, atts, 3)
	assert.Equal(t, "one", string(atts[0]))
	assert.Equal(t, "two", string(atts[1]))
	assert.Equal(t, "three", string(atts[2]))

	top := newArgs[0].(map[string]any)
	assert.Equal(t, Placeholder{Num: 0}, top["a"])
	nested := top["b"].([]any)
	assert.Equal(t, Placeholder{Num: 1}, nested[0])
	assert.Equal(t, "plain", nested[1])
	assert.Equal(t, Placeholder{Num: 2}, newArgs[1])
}

func TestExtractAttachmentsEmptyBlobBecomesNull(t *testing.T) {
	newArgs, atts := ExtractAttachments([]any{Bytes(nil)})
	assert.Empty(t, atts)
	assert.Nil(t, newArgs[0])
}

func TestSubstitutePlaceholderReplacesOnlyMatchingIndex(t *testing.T) {
	v := map[string]any{
		"_placeholder": true,
		"num":          float64(1),
	}
	out, ok := SubstitutePlaceholder(v, 0, []byte("nope"))
	assert.False(t, ok)
	assert.Equal(t, v, out)

	out, ok = SubstitutePlaceholder(v, 1, []byte("yes"))
	assert.True(t, ok)
	assert.Equal(t, []byte("yes"), out)
}

func TestSubstitutePlaceholderWalksNestedStructures(t *testing.T) {
	tree := []any{
		map[string]any{
			"leaf": map[string]any{"_placeholder": true, "num": float64(0)},
		},
		"untouched",
	}

	out, ok := SubstitutePlaceholder(tree, 0, []byte("DATA"))
	require.True(t, ok)

	outList := out.([]any)
	outMap := outList[0].(map[string]any)
	assert.Equal(t, []byte("DATA"), outMap["leaf"])
	assert.Equal(t, "untouched", outList[1])
}
