package canon

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces RFC 8785 canonical JSON for a Value.
// This is the ONLY serialization that may be used for fixture identity
// matching and for the persisted fixture text.
//
// Properties:
//  1. Object keys sorted by UTF-16 code units (not UTF-8 bytes)
//  2. No HTML escaping (< > & are NOT escaped)
//  3. Strings are NFC normalized at the serialization boundary
//  4. Numbers rendered per ECMA-262 Number::toString (shortest round-trip)
//  5. No whitespace
//
// Structurally identical values marshal to byte-identical output across
// runs and across process invocations.
func MarshalCanonical(v Value) ([]byte, error) {
	return appendCanonical(nil, v)
}

func appendCanonical(buf []byte, v Value) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("canon: nil Value (use canon.Null{})")
	case Null:
		return append(buf, "null"...), nil
	case Bool:
		if val {
			return append(buf, "true"...), nil
		}
		return append(buf, "false"...), nil
	case Int:
		return strconv.AppendInt(buf, int64(val), 10), nil
	case Float:
		return appendCanonicalFloat(buf, float64(val))
	case String:
		return appendCanonicalString(buf, string(val)), nil
	case Array:
		return appendCanonicalArray(buf, val)
	case Object:
		return appendCanonicalObject(buf, val)
	default:
		return nil, fmt.Errorf("canon: unsupported Value type %T", v)
	}
}

func appendCanonicalArray(buf []byte, arr Array) ([]byte, error) {
	buf = append(buf, '[')
	var err error
	for i, elem := range arr {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf, err = appendCanonical(buf, elem)
		if err != nil {
			return nil, fmt.Errorf("array[%d]: %w", i, err)
		}
	}
	return append(buf, ']'), nil
}

func appendCanonicalObject(buf []byte, obj Object) ([]byte, error) {
	buf = append(buf, '{')
	var err error
	for i, k := range obj.SortedKeys() {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = appendCanonicalString(buf, k)
		buf = append(buf, ':')
		buf, err = appendCanonical(buf, obj[k])
		if err != nil {
			return nil, fmt.Errorf("value for key %q: %w", k, err)
		}
	}
	return append(buf, '}'), nil
}

// appendCanonicalString applies RFC 8785 §3.2.2.2 string escaping:
//   - " → \" and \ → \\
//   - U+0008 \b, U+0009 \t, U+000A \n, U+000C \f, U+000D \r
//   - other control chars U+0000-U+001F → \u00xx, lowercase hex
//   - everything else raw UTF-8 (no HTML escaping, no  /  escapes)
//
// Strings are NFC normalized first so that visually identical inputs
// produce identical fixture keys.
func appendCanonicalString(buf []byte, s string) []byte {
	s = norm.NFC.String(s)
	buf = append(buf, '"')
	for i := 0; i < len(s); i++ {
		b := s[i]
		switch {
		case b == '"':
			buf = append(buf, '\\', '"')
		case b == '\\':
			buf = append(buf, '\\', '\\')
		case b == '\b':
			buf = append(buf, '\\', 'b')
		case b == '\t':
			buf = append(buf, '\\', 't')
		case b == '\n':
			buf = append(buf, '\\', 'n')
		case b == '\f':
			buf = append(buf, '\\', 'f')
		case b == '\r':
			buf = append(buf, '\\', 'r')
		case b < 0x20:
			buf = append(buf, '\\', 'u', '0', '0', hexDigit(b>>4), hexDigit(b&0x0F))
		default:
			// Raw byte: multi-byte UTF-8 sequences pass through verbatim.
			buf = append(buf, b)
		}
	}
	return append(buf, '"')
}

func hexDigit(b byte) byte {
	if b < 10 {
		return '0' + b
	}
	return 'a' + (b - 10)
}

// appendCanonicalFloat renders a float per ECMA-262 Number::toString as
// required by RFC 8785. strconv's shortest round-trip digits are the same
// digits ECMA produces; only the layout rules differ, applied below.
func appendCanonicalFloat(buf []byte, f float64) ([]byte, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("canon: non-finite number %v is forbidden", f)
	}
	if f == 0 {
		// Both +0 and -0 serialize as "0".
		return append(buf, '0'), nil
	}

	negative := f < 0
	if negative {
		f = -f
	}

	// Shortest round-trip digits and decimal exponent from strconv
	// ('e' format: d.dddde±XX).
	mant := strconv.FormatFloat(f, 'e', -1, 64)
	eIdx := strings.IndexByte(mant, 'e')
	digits := strings.Replace(mant[:eIdx], ".", "", 1)
	exp10, err := strconv.Atoi(mant[eIdx+1:])
	if err != nil {
		return nil, fmt.Errorf("canon: parse exponent of %q: %w", mant, err)
	}

	// n is the position of the decimal point relative to the digit string:
	// value = 0.digits × 10^n.
	n := exp10 + 1
	k := len(digits)

	if negative {
		buf = append(buf, '-')
	}

	switch {
	case k <= n && n <= 21:
		// Integer with trailing zeros.
		buf = append(buf, digits...)
		for i := 0; i < n-k; i++ {
			buf = append(buf, '0')
		}
	case 0 < n && n <= 21:
		// Fixed point, decimal inside the digit string.
		buf = append(buf, digits[:n]...)
		buf = append(buf, '.')
		buf = append(buf, digits[n:]...)
	case -6 < n && n <= 0:
		// 0.000…digits
		buf = append(buf, '0', '.')
		for i := 0; i < -n; i++ {
			buf = append(buf, '0')
		}
		buf = append(buf, digits...)
	default:
		// Exponential notation: d.ddd e±X without zero padding.
		buf = append(buf, digits[0])
		if k > 1 {
			buf = append(buf, '.')
			buf = append(buf, digits[1:]...)
		}
		buf = append(buf, 'e')
		exp := n - 1
		if exp >= 0 {
			buf = append(buf, '+')
		}
		buf = strconv.AppendInt(buf, int64(exp), 10)
	}

	return buf, nil
}
