package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    map[string]any
		expected string
	}{
		{"empty object", map[string]any{}, `{}`},
		{"string", map[string]any{"a": "hello"}, `{"a":"hello"}`},
		{"int", map[string]any{"n": 42}, `{"n":42}`},
		{"int64", map[string]any{"n": int64(-9223372036854775808)}, `{"n":-9223372036854775808}`},
		{"bool", map[string]any{"t": true, "f": false}, `{"f":false,"t":true}`},
		{"nested", map[string]any{"z": map[string]any{"b": 1, "a": 2}, "a": 3}, `{"a":3,"z":{"a":2,"b":1}}`},
		{"array keeps order", map[string]any{"l": []any{"b", "a", 1, map[string]any{"y": true, "x": false}}}, `{"l":["b","a",1,{"x":false,"y":true}]}`},
		{"string slice", map[string]any{"urls": []string{"https://b", "https://a"}}, `{"urls":["https://b","https://a"]}`},
		{"empty slices", map[string]any{"a": []any{}, "s": []string{}}, `{"a":[],"s":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalUTF16Ordering(t *testing.T) {
	// U+E000 sorts before U+10000 in UTF-8 but after it in UTF-16
	// (0xE000 > 0xD800 surrogate).
	obj := map[string]any{
		"\uE000":     1,
		"\U00010000": 2,
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, "{\"\U00010000\":2,\"\uE000\":1}", string(result))
}

func TestMarshalCanonicalNoHTMLEscape(t *testing.T) {
	result, err := MarshalCanonical(map[string]any{"url": "https://a/?x=1&y=<2>"})
	require.NoError(t, err)
	assert.Equal(t, `{"url":"https://a/?x=1&y=<2>"}`, string(result))
}

func TestMarshalCanonicalNFC(t *testing.T) {
	decomposed := "e\u0301"
	composed := "\u00e9"

	a, err := MarshalCanonical(map[string]any{"s": decomposed})
	require.NoError(t, err)
	b, err := MarshalCanonical(map[string]any{"s": composed})
	require.NoError(t, err)
	assert.Equal(t, string(b), string(a))

	// The stored payload keeps the bytes as given.
	raw, err := marshalSorted(map[string]any{"s": decomposed}, false)
	require.NoError(t, err)
	assert.NotEqual(t, string(b), string(raw))
}

func TestMarshalCanonicalNonUTF8(t *testing.T) {
	result, err := MarshalCanonical(map[string]any{"s": "a\xff", "l": []string{"\xfe", "ok"}})
	require.NoError(t, err)
	assert.Equal(t, `{"l":[{"base64":"/g=="},"ok"],"s":{"base64":"Yf8="}}`, string(result))
}

func TestMarshalCanonicalRejects(t *testing.T) {
	tests := []struct {
		name  string
		input map[string]any
	}{
		{"null", map[string]any{"a": nil}},
		{"float", map[string]any{"a": 1.5}},
		{"int slice", map[string]any{"a": []int{1}}},
		{"null in array", map[string]any{"a": []any{nil}}},
		{"nested null", map[string]any{"a": map[string]any{"b": nil}}},
		{"non-UTF-8 key", map[string]any{"\xff": "a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MarshalCanonical(tt.input)
			assert.Error(t, err)
		})
	}
}
