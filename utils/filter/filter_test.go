package filter

import "testing"

func TestFold(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"The Matrix", "the matrix"},
		{"  Amélie  ", "amelie"},
		{"Spider-Man: No Way Home", "spider man no way home"},
		{"Léon: The Professional (1994)", "leon the professional 1994"},
		{"", ""},
		{"!!!", ""},
	}

	for _, test := range tests {
		if got := Fold(test.in); got != test.expected {
			t.Errorf("Fold(%q) = %q, expected %q", test.in, got, test.expected)
		}
	}
}
