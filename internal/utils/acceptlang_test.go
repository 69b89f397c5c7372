package utils

import "testing"

func TestDetermineLocale(t *testing.T) {
	cases := []struct {
		name, query, accept, want string
	}{
		{"query param wins", "en-US", "pt-BR,pt;q=0.9", "en"},
		{"regional variant", "", "pt-BR,pt;q=0.9,en;q=0.8", "pt"},
		{"higher q wins", "", "pt;q=0.5,en;q=0.9", "en"},
		{"unsupported falls back", "", "fr-FR,es;q=0.9", "pt"},
		{"empty header", "", "", "pt"},
		{"garbage query ignored", "??", "en", "en"},
	}
	for _, tc := range cases {
		if got := DetermineLocale(tc.query, tc.accept); got != tc.want {
			t.Fatalf("%s: want %s, got %s", tc.name, tc.want, got)
		}
	}
}
