package sanitize

import (
	"strings"
	"testing"
)

func TestValue(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"plain", "normal", "normal"},
		{"trims", "  uniform\t", "uniform"},
		{"newline injection", "normal\n{\"status\":\"success\"}", `normal {"status":"success"}`},
		{"collapses whitespace", "famille \r\n\t amis", "famille amis"},
		{"drops control chars", "nor\x00m\x1bal", "normal"},
		{"drops DEL", "amis\x7f", "amis"},
		{"keeps accents", "Pas de lien direct é", "Pas de lien direct é"},
		{"invalid utf8", "ami\xffs", "amis"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Value(tt.input); got != tt.want {
				t.Errorf("Value(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestValue_Truncates(t *testing.T) {
	long := strings.Repeat("é", MaxValueLength+10)
	got := Value(long)

	if !strings.HasSuffix(got, "...") {
		t.Errorf("truncated value %q should end with ...", got)
	}
	if n := len([]rune(strings.TrimSuffix(got, "..."))); n != MaxValueLength {
		t.Errorf("kept %d runes, want %d", n, MaxValueLength)
	}

	exact := strings.Repeat("a", MaxValueLength)
	if got := Value(exact); got != exact {
		t.Errorf("value at the limit was changed: %q", got)
	}
}

func TestChoice(t *testing.T) {
	tests := map[string]string{
		"Famille":    "famille",
		" AMIS \n":   "amis",
		"2":          "2",
		"Ennemi\x00": "ennemi",
	}
	for input, want := range tests {
		if got := Choice(input); got != want {
			t.Errorf("Choice(%q) = %q, want %q", input, got, want)
		}
	}
}
