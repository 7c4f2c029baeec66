package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{
			name: "bare object",
			in:   `{"name": "x"}`,
			want: `{"name": "x"}`,
			ok:   true,
		},
		{
			name: "json fence",
			in:   "```json\n{\"a\": 1}\n```",
			want: `{"a": 1}`,
			ok:   true,
		},
		{
			name: "anonymous fence",
			in:   "```\n{\"a\": 1}\n```",
			want: `{"a": 1}`,
			ok:   true,
		},
		{
			name: "prose around object",
			in:   "Sure, here it is: {\"a\": 1} hope that helps",
			want: `{"a": 1}`,
			ok:   true,
		},
		{
			name: "prose before fence",
			in:   "The rubric follows.\n```json\n{\"a\": {\"b\": 2}}\n```\nDone.",
			want: `{"a": {"b": 2}}`,
			ok:   true,
		},
		{
			name: "no object",
			in:   "I could not find a rubric in this document.",
			ok:   false,
		},
		{
			name: "unclosed object",
			in:   `{"a": 1`,
			ok:   false,
		},
		{
			name: "empty",
			in:   "",
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractJSONObject(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
