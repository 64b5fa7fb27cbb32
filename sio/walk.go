package sio

import (
	"io"
	"sort"
)

// BinaryInput marks a value passed to Emit as an explicit binary blob
// (spec.md §9 "Binary-stream inputs to emit"): the caller opts in rather
// than relying on type sniffing.
type BinaryInput struct {
	bytes []byte
}

// Bytes wraps b as an explicit binary attachment.
func Bytes(b []byte) BinaryInput { return BinaryInput{bytes: b} }

// AutoDetect is the compatibility adapter: given an arbitrary value, it
// recognizes []byte and io.Reader values as binary blobs the same way the
// teacher implementation's type-sniffing did, draining an io.Reader fully.
// Every other value is returned unchanged.
func AutoDetect(v any) (any, error) {
	switch t := v.(type) {
	case BinaryInput:
		return t, nil
	case []byte:
		return Bytes(t), nil
	case io.Reader:
		data, err := io.ReadAll(t)
		if err != nil {
			return nil, err
		}
		return Bytes(data), nil
	default:
		return v, nil
	}
}

// ExtractAttachments walks args depth-first (array elements in order, object
// values in alphabetical key order) replacing every BinaryInput leaf with a Placeholder
// numbered in the order encountered, and collecting the drained bytes.
// Empty blobs become nil (JSON null) rather than a placeholder, matching
// spec.md §4.3 ("Empty streams become null"). A new tree is returned;
// args is never mutated in place (spec.md §9).
func ExtractAttachments(args []any) (newArgs []any, attachments [][]byte) {
	v, atts := walkExtract(args, nil)
	return v.([]any), atts
}

func walkExtract(v any, atts [][]byte) (any, [][]byte) {
	switch t := v.(type) {
	case BinaryInput:
		if len(t.bytes) == 0 {
			return nil, atts
		}
		idx := len(atts)
		atts = append(atts, t.bytes)
		return Placeholder{Num: idx}, atts
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			var newItem any
			newItem, atts = walkExtract(item, atts)
			out[i] = newItem
		}
		return out, atts
	case map[string]any:
		out := make(map[string]any, len(t))
		for _, k := range sortedKeys(t) {
			var newItem any
			newItem, atts = walkExtract(t[k], atts)
			out[k] = newItem
		}
		return out, atts
	default:
		return v, atts
	}
}

// sortedKeys returns m's keys in the same order encoding/json uses when
// marshaling a map (alphabetical), so attachment numbering during
// extraction lines up with the key order a reader would see in the
// emitted JSON text.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SubstitutePlaceholder walks v depth-first, replacing the first
// Placeholder (decoded generically as map[string]any per
// isPlaceholder) whose num equals idx with data, and reports whether a
// substitution was made. Used once per incoming attachment frame, per
// spec.md §4.3 step 3.
func SubstitutePlaceholder(v any, idx int, data []byte) (any, bool) {
	if num, ok := isPlaceholder(v); ok && num == idx {
		return data, true
	}
	switch t := v.(type) {
	case []any:
		out := make([]any, len(t))
		substituted := false
		for i, item := range t {
			if !substituted {
				var ok bool
				item, ok = SubstitutePlaceholder(item, idx, data)
				substituted = substituted || ok
			}
			out[i] = item
		}
		return out, substituted
	case map[string]any:
		out := make(map[string]any, len(t))
		substituted := false
		for k, item := range t {
			if !substituted {
				var ok bool
				item, ok = SubstitutePlaceholder(item, idx, data)
				substituted = substituted || ok
			}
			out[k] = item
		}
		return out, substituted
	default:
		return v, false
	}
}
