package openai

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "plain object",
			in:   `{"quotes": []}`,
			want: `{"quotes": []}`,
		},
		{
			name: "fenced with language tag",
			in:   "```json\n{\"quotes\": []}\n```",
			want: `{"quotes": []}`,
		},
		{
			name: "fenced without language tag",
			in:   "```\n{\"a\": 1}\n```",
			want: `{"a": 1}`,
		},
		{
			name: "leading prose",
			in:   "Here are the quotes you asked for:\n{\"quotes\": []}",
			want: `{"quotes": []}`,
		},
		{
			name: "trailing prose",
			in:   "{\"quotes\": []}\nLet me know if you need more.",
			want: `{"quotes": []}`,
		},
		{
			name: "array document",
			in:   "result: [1, 2, 3] done",
			want: `[1, 2, 3]`,
		},
		{
			name: "no json at all",
			in:   "I could not find any quotes.",
			want: "I could not find any quotes.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractJSON(tt.in))
		})
	}
}

func TestRepairJSON(t *testing.T) {
	t.Run("missing opening key quote", func(t *testing.T) {
		broken := `{"text": "a quote", speaker": "P1"}`
		fixed := repairJSON(broken)
		assert.True(t, json.Valid([]byte(fixed)), "repaired: %s", fixed)
	})

	t.Run("trailing comma in object", func(t *testing.T) {
		broken := `{"a": 1, "b": 2,}`
		fixed := repairJSON(broken)
		assert.True(t, json.Valid([]byte(fixed)), "repaired: %s", fixed)
	})

	t.Run("trailing comma in array", func(t *testing.T) {
		broken := `{"quotes": [1, 2, ]}`
		fixed := repairJSON(broken)
		assert.True(t, json.Valid([]byte(fixed)), "repaired: %s", fixed)
	})

	t.Run("valid json untouched", func(t *testing.T) {
		valid := `{"quotes": [{"text": "hello, world", "confidence": 0.9}]}`
		assert.Equal(t, valid, repairJSON(valid))
	})

	t.Run("string values with commas preserved", func(t *testing.T) {
		valid := `{"text": "first, second, third"}`
		fixed := repairJSON(valid)
		var m map[string]string
		assert.NoError(t, json.Unmarshal([]byte(fixed), &m))
		assert.Equal(t, "first, second, third", m["text"])
	})
}
