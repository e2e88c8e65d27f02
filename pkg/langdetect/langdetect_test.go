package langdetect

import "testing"

func TestContainsArabic(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"What are the symptoms of diabetes?", false},
		{"ما هي أعراض مرض السكري؟", true},
		{"Mixed text مع عربي", true},
		{"", false},
		{"12345 !?", false},
	}
	for _, tt := range tests {
		if got := ContainsArabic(tt.text); got != tt.want {
			t.Errorf("ContainsArabic(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestLanguage(t *testing.T) {
	if got := Language("hello"); got != "en" {
		t.Errorf("Language(hello) = %q, want en", got)
	}
	if got := Language("مرحبا"); got != "ar" {
		t.Errorf("Language(مرحبا) = %q, want ar", got)
	}
}
