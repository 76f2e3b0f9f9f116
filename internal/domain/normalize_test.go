package domain

import "testing"

func TestNormalizeText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "trim spaces", input: "  acme  ", want: "acme"},
		{name: "lowercase", input: "Acme Corp", want: "acme corp"},
		{name: "compress multiple spaces", input: "acme   corp", want: "acme corp"},
		{name: "empty string", input: "", want: ""},
		{name: "only spaces", input: "   ", want: ""},
		{name: "hebrew preserved", input: " שלום ", want: "שלום"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := NormalizeText(tt.input); got != tt.want {
				t.Errorf("NormalizeText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	t.Parallel()

	if got := NormalizeEmail("  Dana@Example.COM "); got != "dana@example.com" {
		t.Errorf("NormalizeEmail = %q", got)
	}
}

func TestValidEmail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		email string
		want  bool
	}{
		{"dana@example.com", true},
		{"a.b+tag@sub.example.co.il", true},
		{"", false},
		{"no-at-sign", false},
		{"dana@localhost", false},
		{"Dana <dana@example.com>", false},
		{"dana @example.com", false},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			t.Parallel()
			if got := ValidEmail(tt.email); got != tt.want {
				t.Errorf("ValidEmail(%q) = %v, want %v", tt.email, got, tt.want)
			}
		})
	}
}
