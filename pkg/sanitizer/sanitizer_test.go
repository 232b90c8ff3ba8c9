package sanitizer

import "testing"

func TestTrimAndNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"only spaces", "   ", ""},
		{"leading and trailing", "  Shefali Jain  ", "Shefali Jain"},
		{"internal runs collapse", "Juhu \t Showroom,   Mumbai", "Juhu Showroom, Mumbai"},
		{"tabs and newlines", "Worli\nSea Face", "Worli Sea Face"},
		{"already clean", "Airport Road", "Airport Road"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrimAndNormalize(tt.input); got != tt.want {
				t.Errorf("TrimAndNormalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
