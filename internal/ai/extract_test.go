package ai_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/tripweaver/backend/internal/ai"
)

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "bare object",
			in:   `{"a": 1}`,
			want: `{"a": 1}`,
		},
		{
			name: "object surrounded by prose",
			in:   `Sure! Here is your itinerary: {"a": 1} Let me know if you need changes.`,
			want: `{"a": 1}`,
		},
		{
			name: "fenced block with json tag",
			in:   "Here you go:\n```json\n{\"a\": 1}\n```\nEnjoy!",
			want: `{"a": 1}`,
		},
		{
			name: "fenced block without tag",
			in:   "```\n{\"a\": 1}\n```",
			want: `{"a": 1}`,
		},
		{
			name: "nested objects",
			in:   `{"itinerary": {"days": [{"day_number": 1}]}}`,
			want: `{"itinerary": {"days": [{"day_number": 1}]}}`,
		},
		{
			name: "braces inside string values",
			in:   `{"title": "dinner at {the} brasserie"}`,
			want: `{"title": "dinner at {the} brasserie"}`,
		},
		{
			name: "escaped quotes inside strings",
			in:   `{"title": "the \"blue\" lagoon"}`,
			want: `{"title": "the \"blue\" lagoon"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ai.ExtractJSONObject(tt.in)

			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestExtractJSONObject_noObject(t *testing.T) {
	for _, in := range []string{
		"",
		"no json here",
		"unbalanced { brace",
		`[1, 2, 3]`,
	} {
		_, err := ai.ExtractJSONObject(in)
		assert.Error(t, err, "input %q", in)
	}
}
