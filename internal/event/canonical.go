package event

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical encodes a flat or nested map as canonical JSON:
//   - object keys sorted by UTF-16 code units
//   - no HTML escaping
//   - strings NFC normalized
//   - strings that are not valid UTF-8 written as {"base64":"..."}
//   - only string, bool, integer, array and nested map values; no null,
//     no floats
func MarshalCanonical(m map[string]any) ([]byte, error) {
	return marshalSorted(m, true)
}

func marshalSorted(m map[string]any, normalize bool) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeObject(&buf, m, normalize); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeObject(buf *bytes.Buffer, m map[string]any, normalize bool) error {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)

	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if !utf8.ValidString(k) {
			return fmt.Errorf("key %q: not valid UTF-8", k)
		}
		if err := writeString(buf, k, normalize); err != nil {
			return fmt.Errorf("key %q: %w", k, err)
		}
		buf.WriteByte(':')
		if err := writeValue(buf, m[k], normalize); err != nil {
			return fmt.Errorf("value for key %q: %w", k, err)
		}
	}
	buf.WriteByte('}')
	return nil
}

func writeValue(buf *bytes.Buffer, v any, normalize bool) error {
	switch val := v.(type) {
	case nil:
		return fmt.Errorf("null is forbidden in canonical JSON")
	case string:
		return writeString(buf, val, normalize)
	case bool:
		buf.WriteString(strconv.FormatBool(val))
	case int:
		buf.WriteString(strconv.Itoa(val))
	case int64:
		buf.WriteString(strconv.FormatInt(val, 10))
	case map[string]any:
		return writeObject(buf, val, normalize)
	case []any:
		return writeArray(buf, val, normalize)
	case []string:
		items := make([]any, len(val))
		for i, s := range val {
			items[i] = s
		}
		return writeArray(buf, items, normalize)
	case float32, float64:
		return fmt.Errorf("floats are forbidden in canonical JSON: %v", val)
	default:
		return fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
	return nil
}

func writeArray(buf *bytes.Buffer, items []any, normalize bool) error {
	buf.WriteByte('[')
	for i, v := range items {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeValue(buf, v, normalize); err != nil {
			return fmt.Errorf("index %d: %w", i, err)
		}
	}
	buf.WriteByte(']')
	return nil
}

// bytesKey wraps string values that JSON cannot carry byte-for-byte.
const bytesKey = "base64"

func writeString(buf *bytes.Buffer, s string, normalize bool) error {
	if !utf8.ValidString(s) {
		buf.WriteString(`{"` + bytesKey + `":"`)
		buf.WriteString(base64.StdEncoding.EncodeToString([]byte(s)))
		buf.WriteString(`"}`)
		return nil
	}
	if normalize {
		s = norm.NFC.String(s)
	}
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	// Encoder appends a newline.
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte{'\n'}))
	return nil
}

// compareUTF16 orders strings by UTF-16 code units rather than UTF-8 bytes.
func compareUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	for i := 0; i < len(a16) && i < len(b16); i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}
	return len(a16) - len(b16)
}
