package fuzzy

import "testing"

func TestFold(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "lowercases",
			input:    "The Beatles",
			expected: "the beatles",
		},
		{
			name:     "strips diacritics",
			input:    "Beyoncé",
			expected: "beyonce",
		},
		{
			name:     "squeezes punctuation and whitespace",
			input:    "AC/DC  -  Back   In Black!",
			expected: "ac dc back in black",
		},
		{
			name:     "trims",
			input:    "  rosalía  ",
			expected: "rosalia",
		},
		{
			name:     "empty",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Fold(tt.input); got != tt.expected {
				t.Errorf("Fold(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestEqual(t *testing.T) {
	if !Equal("Dua Lipa", "dua lipa") {
		t.Error("case difference should fold equal")
	}
	if !Equal("Björk", "Bjork") {
		t.Error("diacritic difference should fold equal")
	}
	if Equal("Dua Lipa", "Doja Cat") {
		t.Error("different strings should not fold equal")
	}
}
