package utils

import (
	"strings"
	"testing"
)

func TestGenerateShortCode(t *testing.T) {
	code, err := GenerateShortCode()
	if err != nil {
		t.Fatalf("GenerateShortCode() error = %v", err)
	}

	if len(code) != ShortCodeLength {
		t.Errorf("GenerateShortCode() length = %d, want %d", len(code), ShortCodeLength)
	}

	for _, char := range code {
		if !strings.ContainsRune(Alphabet, char) {
			t.Errorf("GenerateShortCode() contains invalid character: %c", char)
		}
	}
}

func TestGenerateShortCodeWithLength(t *testing.T) {
	tests := []struct {
		name   string
		length int
	}{
		{"length 1", 1},
		{"length 4", 4},
		{"length 8", 8},
		{"length 12", 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, err := GenerateShortCodeWithLength(tt.length)
			if err != nil {
				t.Errorf("GenerateShortCodeWithLength(%d) error = %v", tt.length, err)
				return
			}

			if len(code) != tt.length {
				t.Errorf("GenerateShortCodeWithLength(%d) length = %d, want %d", tt.length, len(code), tt.length)
			}

			for _, char := range code {
				if !strings.ContainsRune(Alphabet, char) {
					t.Errorf("GenerateShortCodeWithLength(%d) contains invalid character: %c", tt.length, char)
				}
			}
		})
	}
}

func TestGenerateShortCodeWithLength_Invalid(t *testing.T) {
	if _, err := GenerateShortCodeWithLength(-1); err == nil {
		t.Error("GenerateShortCodeWithLength(-1) expected error, got nil")
	}
}

func TestAlphabetSize(t *testing.T) {
	if len(Alphabet) < 36 {
		t.Errorf("alphabet has %d symbols, want at least 36", len(Alphabet))
	}

	seen := make(map[rune]bool)
	for _, char := range Alphabet {
		if seen[char] {
			t.Errorf("alphabet contains duplicate symbol %c", char)
		}
		seen[char] = true
	}
}

func TestGenerateShortCodeCoversAlphabet(t *testing.T) {
	seen := make(map[rune]bool)

	for i := 0; i < 2000; i++ {
		code, err := GenerateShortCode()
		if err != nil {
			t.Fatalf("GenerateShortCode() error = %v", err)
		}
		for _, char := range code {
			seen[char] = true
		}
	}

	if len(seen) != len(Alphabet) {
		t.Errorf("12000 draws hit %d of %d symbols", len(seen), len(Alphabet))
	}
}
