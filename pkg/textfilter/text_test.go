package textfilter

import "testing"

func TestTruncate(t *testing.T) {
	tests := []struct {
		input    string
		limit    int
		expected string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"abcdefghij", 5, "abcde..."},
		{"ééééé", 3, "ééé..."},
		{"anything", 0, ""},
	}
	for _, tt := range tests {
		if got := Truncate(tt.input, tt.limit); got != tt.expected {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.input, tt.limit, got, tt.expected)
		}
	}
}

func TestTitleName(t *testing.T) {
	tests := map[string]string{
		"ilse":             "Ilse",
		"  ILSE   marrow ": "Ilse Marrow",
		"tomas McAllister": "Tomas McAllister",
		"a\tb\x07c":        "A Bc",
		"":                 "",
	}
	for in, want := range tests {
		if got := TitleName(in); got != want {
			t.Errorf("TitleName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestJoin(t *testing.T) {
	if got := Join(nil, "and"); got != "" {
		t.Errorf("Expected empty, got %q", got)
	}
	if got := Join([]string{"a"}, "and"); got != "a" {
		t.Errorf("Expected a, got %q", got)
	}
	if got := Join([]string{"a", "b", "c"}, "and"); got != "a, b and c" {
		t.Errorf("Expected 'a, b and c', got %q", got)
	}
}
