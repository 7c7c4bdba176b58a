package textutil_test

import (
	"testing"

	"fingersatz/internal/textutil"
)

func TestDisplayTitle(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"underscored filename", "moonlight_sonata.musicxml", "Moonlight Sonata"},
		{"object store uri", "s3://scores-input/uploads/gymnopedie-no1.musicxml", "Gymnopedie No1"},
		{"inline marker", "inline score", "Inline Score"},
		{"dotted stem", "wtc.book1.prelude.mxl", "Wtc Book1 Prelude"},
		{"mixed separators", "  chopin - op_28  .musicxml", "Chopin Op 28"},
		{"unicode", "für_elise.musicxml", "Für Elise"},
		{"empty", "", "Untitled Score"},
		{"only separators", "___.musicxml", "Untitled Score"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := textutil.DisplayTitle(tc.input); got != tc.want {
				t.Fatalf("DisplayTitle(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}
