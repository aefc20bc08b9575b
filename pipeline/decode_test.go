package pipeline

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeObject(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		raw       string
		wantKey   string
		wantStage int
	}{
		{name: "native object", raw: `{"summary":"ok"}`, wantKey: "summary"},
		{name: "double encoded", raw: `"{\"summary\":\"ok\"}"`, wantKey: "summary"},
		{name: "double encoded with fences", raw: "\"```json\\n{\\\"summary\\\":\\\"ok\\\"}\\n```\"", wantKey: "summary"},
		{name: "empty", raw: "   ", wantStage: 1},
		{name: "broken json", raw: `{"summary":`, wantStage: 1},
		{name: "array", raw: `["a"]`, wantStage: 1},
		{name: "string holding garbage", raw: `"not json"`, wantStage: 2},
		{name: "string holding array", raw: `"[1,2]"`, wantStage: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			obj, err := DecodeObject(json.RawMessage(tt.raw))
			if tt.wantStage == 0 {
				require.NoError(t, err)
				assert.Contains(t, obj, tt.wantKey)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrDecode))
			var decodeErr *DecodeError
			require.True(t, errors.As(err, &decodeErr))
			assert.Equal(t, tt.wantStage, decodeErr.Stage)
		})
	}
}

func TestCoerceStringList(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{}, CoerceStringList(nil))
	assert.Equal(t, []string{"Go"}, CoerceStringList("Go"))
	assert.Equal(t, []string{}, CoerceStringList("  "))
	assert.Equal(t, []string{"Go", "SQL"}, CoerceStringList([]any{"Go", " ", "SQL"}))
	assert.Equal(t, []string{"42"}, CoerceStringList(json.Number("42")))
}

func TestCoerceInt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in     any
		want   int
		wantOK bool
	}{
		{in: json.Number("85"), want: 85, wantOK: true},
		{in: json.Number("72.6"), want: 73, wantOK: true},
		{in: "64", want: 64, wantOK: true},
		{in: "90%", want: 90, wantOK: true},
		{in: 150.0, want: 150, wantOK: true},
		{in: "high", want: 0, wantOK: false},
		{in: nil, want: 0, wantOK: false},
	}

	for _, tt := range tests {
		got, ok := coerceInt(tt.in)
		assert.Equal(t, tt.want, got, "input %v", tt.in)
		assert.Equal(t, tt.wantOK, ok, "input %v", tt.in)
	}
}

func TestStripFences(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `{"a":1}`, StripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripFences("```\n{\"a\":1}```"))
	assert.Equal(t, `{"a":1}`, StripFences(`  {"a":1} `))
}
