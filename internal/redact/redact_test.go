package redact

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		leak  string
		keeps string
	}{
		{
			name:  "bearer header",
			in:    "Authorization: Bearer abcdefghijklmnop",
			leak:  "abcdefghijklmnop",
			keeps: "Bearer [REDACTED]",
		},
		{
			name:  "json api key",
			in:    `{"api_key": "0123456789abcdef"}`,
			leak:  "0123456789abcdef",
			keeps: "api_key",
		},
		{
			name:  "openai style key",
			in:    "invalid key sk-proj-ABCDEFGHIJKLMNOPQRST given",
			leak:  "ABCDEFGHIJKLMNOPQRST",
			keeps: "invalid key",
		},
		{
			name:  "plain text untouched",
			in:    "upstream overloaded",
			keeps: "upstream overloaded",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out := String(tc.in)
			if tc.leak != "" {
				assert.NotContains(t, out, tc.leak)
			}
			assert.Contains(t, out, tc.keeps)
		})
	}
}

func TestError(t *testing.T) {
	assert.Equal(t, "", Error(nil))
	assert.NotContains(t, Error(errors.New("token=supersecretvalue")), "supersecretvalue")
}
