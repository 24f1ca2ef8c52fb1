package quoting

import "testing"

func TestDoubleQuote(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple", "projects", `"projects"`},
		{"empty", "", `""`},
		{"with double quote", `us"ers`, `"us""ers"`},
		{"multiple double quotes", `a"b"c`, `"a""b""c"`},
		{"only double quote", `"`, `""""`},
		{"with space", "my table", `"my table"`},
		{"injection attempt", `projects"."embeddings`, `"projects"".""embeddings"`},
		{"backslash", `us\ers`, `"us\ers"`},
		{"unicode", "caf\u00e9", "\"caf\u00e9\""},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got := DoubleQuote(tt.input)
			if got != tt.want {
				t.Errorf("DoubleQuote(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestBacktick(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple", "projects", "`projects`"},
		{"empty", "", "``"},
		{"with backtick", "us`ers", "`us``ers`"},
		{"multiple backticks", "a`b`c", "`a``b``c`"},
		{"only backtick", "`", "````"},
		{"with space", "my table", "`my table`"},
		{"injection attempt", "projects`.`embeddings", "`projects``.``embeddings`"},
		{"backslash", `us\ers`, "`us\\ers`"},
		{"unicode", "caf\u00e9", "`caf\u00e9`"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got := Backtick(tt.input)
			if got != tt.want {
				t.Errorf("Backtick(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestEscapeLikePattern(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "automotive", "automotive"},
		{"percent", "100%", `100\%`},
		{"underscore", "snake_case", `snake\_case`},
		{"backslash first", `a\%`, `a\\\%`},
		{"all three", `%_\`, `\%\_\\`},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got := EscapeLikePattern(tt.input)
			if got != tt.want {
				t.Errorf("EscapeLikePattern(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsBareIdentifier(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input string
		want  bool
	}{
		{"projects", true},
		{"_private", true},
		{"project_refs2", true},
		{"", false},
		{"2fast", false},
		{"my table", false},
		{`pro"jects`, false},
		{"projects;--", false},
		{"caf\u00e9", false},
	}
	for _, tt := range tests {
		if got := IsBareIdentifier(tt.input); got != tt.want {
			t.Errorf("IsBareIdentifier(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestSingleQuote(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"escape char", `\`, `'\'`},
		{"with quote", "O'Brien", `'O''Brien'`},
		{"empty", "", `''`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := SingleQuote(tt.input); got != tt.want {
				t.Errorf("SingleQuote(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestMySQLString(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"escape char", `\`, `_utf8mb4 X'5C'`},
		{"with quote", "O'Brien", `'O''Brien'`},
		{"quote and backslash", `\'`, `_utf8mb4 X'5C27'`},
		{"plain", "acme", `'acme'`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := MySQLString(tt.input); got != tt.want {
				t.Errorf("MySQLString(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
