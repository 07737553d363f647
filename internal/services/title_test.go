package services

import (
	"testing"
	"unicode/utf8"

	"golang.org/x/text/language"
)

func TestTitler_Choose(t *testing.T) {
	tt := titler{maxLen: 60, locale: language.English}

	cases := []struct {
		name, suggested, prompt, want string
	}{
		{"model suggestion wins", "  Finding   Peace  ", "anything", "Finding Peace"},
		{"keyword fallback", "", "how do I forgive my brother?", "Forgive Brother"},
		{"default when nothing usable", "   ", "?? !!", DefaultTitle},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tt.choose(tc.suggested, tc.prompt); got != tc.want {
				t.Fatalf("choose(%q,%q) = %q; want %q", tc.suggested, tc.prompt, got, tc.want)
			}
		})
	}
}

func TestTitler_ClipAndDefaults(t *testing.T) {
	tt := titler{maxLen: 5}
	if got := tt.choose("Beatitudes Explained", ""); got != "Beati" {
		t.Fatalf("clip = %q", got)
	}

	long := ""
	for i := 0; i < 100; i++ {
		long += "é"
	}
	if n := utf8.RuneCountInString(titler{}.clip(long)); n != defaultTitleMaxLen {
		t.Fatalf("default clip length = %d", n)
	}
}

func TestTitler_FromPrompt_CapsWordCount(t *testing.T) {
	got := titler{}.fromPrompt("grace mercy hope faith love joy peace patience")
	if got != "Grace Mercy Hope Faith Love Joy" {
		t.Fatalf("fromPrompt = %q", got)
	}
}
