package canon

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// FromGo converts an arbitrary Go value into the Value model.
//
// Fast paths cover the types callers actually pass (primitives, []any,
// map[string]any). Anything else is bridged through encoding/json, so
// structs with json tags serialize the way their authors intended.
func FromGo(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case bool:
		return Bool(val), nil
	case string:
		return String(val), nil
	case int:
		return Int(val), nil
	case int8:
		return Int(val), nil
	case int16:
		return Int(val), nil
	case int32:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case uint:
		return uintValue(uint64(val))
	case uint8:
		return Int(val), nil
	case uint16:
		return Int(val), nil
	case uint32:
		return Int(val), nil
	case uint64:
		return uintValue(val)
	case float32:
		return Float(val), nil
	case float64:
		return Float(val), nil
	case json.Number:
		return numberToValue(val)
	case []any:
		arr := make(Array, len(val))
		for i, elem := range val {
			cv, err := FromGo(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			arr[i] = cv
		}
		return arr, nil
	case map[string]any:
		obj := make(Object, len(val))
		for k, elem := range val {
			cv, err := FromGo(elem)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			obj[k] = cv
		}
		return obj, nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("canon: value of type %T is not serializable: %w", v, err)
		}
		return Unmarshal(data)
	}
}

// uintValue guards the unsigned conversions: a value past MaxInt64 has no
// exact representation in the model, and wrapping or rounding it would
// corrupt fixtures silently.
func uintValue(v uint64) (Value, error) {
	if v > math.MaxInt64 {
		return nil, fmt.Errorf("canon: unsigned value %d overflows int64", v)
	}
	return Int(v), nil
}

// FromGoSlice converts a slice of Go values into an Array.
// This is the default input conversion for intercepted call arguments.
func FromGoSlice(vs []any) (Array, error) {
	arr := make(Array, len(vs))
	for i, v := range vs {
		cv, err := FromGo(v)
		if err != nil {
			return nil, fmt.Errorf("arg[%d]: %w", i, err)
		}
		arr[i] = cv
	}
	return arr, nil
}

// ToGo converts a Value back to plain Go types:
// nil, bool, int64, float64, string, []any, map[string]any.
func ToGo(v Value) any {
	switch val := v.(type) {
	case Null:
		return nil
	case Bool:
		return bool(val)
	case Int:
		return int64(val)
	case Float:
		return float64(val)
	case String:
		return string(val)
	case Array:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = ToGo(elem)
		}
		return out
	case Object:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = ToGo(elem)
		}
		return out
	default:
		// Sealed interface: unreachable for well-formed Values.
		return nil
	}
}

// Unmarshal parses JSON text into the Value model. Numbers are decoded
// through json.Number so integers keep full int64 precision.
func Unmarshal(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("canon: parse: %w", err)
	}
	// Reject trailing content after the first value.
	if dec.More() {
		return nil, fmt.Errorf("canon: trailing data after JSON value")
	}
	return fromDecoded(raw)
}

func fromDecoded(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case bool:
		return Bool(val), nil
	case string:
		return String(val), nil
	case json.Number:
		return numberToValue(val)
	case []any:
		arr := make(Array, len(val))
		for i, elem := range val {
			cv, err := fromDecoded(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			arr[i] = cv
		}
		return arr, nil
	case map[string]any:
		obj := make(Object, len(val))
		for k, elem := range val {
			cv, err := fromDecoded(elem)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			obj[k] = cv
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("canon: unexpected decoded type %T", v)
	}
}

// numberToValue keeps a JSON number as Int when it is a plain integer
// literal that fits in int64, and falls back to Float otherwise.
func numberToValue(n json.Number) (Value, error) {
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		if i, err := n.Int64(); err == nil {
			return Int(i), nil
		}
	}
	f, err := n.Float64()
	if err != nil {
		return nil, fmt.Errorf("canon: number %q: %w", s, err)
	}
	return Float(f), nil
}

// Equal reports whether two Values are canonically identical, i.e. their
// canonical serializations are byte-equal.
func Equal(a, b Value) bool {
	ab, errA := MarshalCanonical(a)
	bb, errB := MarshalCanonical(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}
