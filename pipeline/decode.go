package pipeline

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrDecode matches every *DecodeError.
var ErrDecode = errors.New("decode upstream payload")

// DecodeError reports which decode stage rejected an upstream payload.
// Stage 1 is the payload itself; stage 2 is a JSON string nested inside it.
type DecodeError struct {
	Stage int
	Raw   string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("JSON decode error (stage %d): %v", e.Stage, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// DecodeObject decodes an upstream payload into an object. A payload that is
// a JSON string holding serialized JSON is decoded a second time.
func DecodeObject(raw json.RawMessage) (map[string]any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, &DecodeError{Stage: 1, Err: errors.New("empty payload")}
	}

	var first any
	if err := decodeNumbers(trimmed, &first); err != nil {
		return nil, &DecodeError{Stage: 1, Raw: string(trimmed), Err: err}
	}

	switch v := first.(type) {
	case map[string]any:
		return v, nil
	case string:
		inner := StripFences(v)
		var second any
		if err := decodeNumbers([]byte(inner), &second); err != nil {
			return nil, &DecodeError{Stage: 2, Raw: inner, Err: err}
		}
		obj, ok := second.(map[string]any)
		if !ok {
			return nil, &DecodeError{Stage: 2, Raw: inner, Err: fmt.Errorf("expected object, got %s", kindOf(second))}
		}
		return obj, nil
	default:
		return nil, &DecodeError{Stage: 1, Raw: string(trimmed), Err: fmt.Errorf("expected object, got %s", kindOf(first))}
	}
}

func decodeNumbers(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("trailing data after JSON value")
	}
	return nil
}

// StripFences removes a surrounding markdown code fence.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "array"
	case string:
		return "string"
	case json.Number:
		return "number"
	case bool:
		return "boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// coerceString turns any scalar into trimmed text. Objects and arrays are re-encoded.
func coerceString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(b)
	}
}

// CoerceStringList always yields a list: a scalar becomes a one-element list,
// a missing or blank value becomes an empty one.
func CoerceStringList(v any) []string {
	switch val := v.(type) {
	case nil:
		return []string{}
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s := coerceString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		if s := coerceString(val); s != "" {
			return []string{s}
		}
		return []string{}
	}
}

// coerceInt accepts numbers and numeric strings, rounding fractions.
// The second result is false when v held no usable number.
func coerceInt(v any) (int, bool) {
	var f float64
	switch val := v.(type) {
	case json.Number:
		parsed, err := val.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case float64:
		f = val
	case int:
		return val, true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(val), "%"), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(math.Round(f)), true
}
