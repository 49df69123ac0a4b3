package textutil

import "testing"

func TestSanitizeSegment(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Invoices", "Invoices"},
		{"  Tax: 2026  ", "Tax- 2026"},
		{"a/b", "a-b"},
		{"what?", "what"},
		{"..hidden", "hidden"},
		{"<|>", ""},
	}
	for _, tc := range cases {
		if got := SanitizeSegment(tc.in); got != tc.want {
			t.Errorf("SanitizeSegment(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
