// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"testing"

	"github.com/pdiddy/library-index/pkg/types"
)

func TestNewUnknownBackend(t *testing.T) {
	if _, err := New(types.ConversionConfig{Backend: "tika"}); err == nil {
		t.Error("New() accepted unknown backend, want error")
	}
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain line", "hello", "hello"},
		{
			"trailing whitespace stripped",
			"line one  \t\nline two\f\n",
			"line one\nline two",
		},
		{
			"repeated blank lines collapsed",
			"a\n\n\n\nb",
			"a\n\nb",
		},
		{
			"single blank line kept",
			"a\n\nb",
			"a\n\nb",
		},
		{
			"leading and trailing blanks trimmed",
			"\n\nbody\n\n",
			"body",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanText(tt.in); got != tt.want {
				t.Errorf("cleanText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
