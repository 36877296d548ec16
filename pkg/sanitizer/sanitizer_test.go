package sanitizer

import "testing"

func TestTrimAndNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"only spaces", "   ", ""},
		{"leading and trailing", "  Ana García  ", "Ana García"},
		{"internal runs collapsed", "Ana   \t García", "Ana García"},
		{"case preserved", "McGregor", "McGregor"},
		{"idempotent", "Ana García", "Ana García"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrimAndNormalize(tt.input); got != tt.expected {
				t.Errorf("TrimAndNormalize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSanitizePhone(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"spanish mobile without prefix", "612345678", "+34612345678"},
		{"spanish mobile with prefix", "+34 612 345 678", "+34612345678"},
		{"uk number with prefix", "+44 7911 123456", "+447911123456"},
		{"garbage", "not-a-phone", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizePhone(tt.input); got != tt.expected {
				t.Errorf("SanitizePhone(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSanitizeEmail(t *testing.T) {
	if got := SanitizeEmail("  Ana.Garcia@Example.COM "); got != "ana.garcia@example.com" {
		t.Errorf("unexpected email normalization: %q", got)
	}
}
