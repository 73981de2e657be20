package chunker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "collapses space runs",
			input: "hello    world\tagain",
			want:  "hello world again",
		},
		{
			name:  "collapses blank lines",
			input: "para one\n\n\n\n\npara two",
			want:  "para one\n\npara two",
		},
		{
			name:  "trims surrounding whitespace",
			input: "  \n text \n  ",
			want:  "text",
		},
		{
			name:  "strips spaces around line breaks",
			input: "line one   \n   line two",
			want:  "line one\nline two",
		},
		{
			name:  "carriage returns treated as spaces",
			input: "a\r\nb",
			want:  "a\nb",
		},
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
		{
			name:  "whitespace only",
			input: " \t\n\n ",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.input)
			assert.Equal(t, tt.want, got)

			// Normalisation must be idempotent.
			assert.Equal(t, got, Normalize(got))
		})
	}
}
