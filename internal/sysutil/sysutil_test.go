package sysutil

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"trace":     zerolog.TraceLevel,
		"  DeBuG  ": zerolog.DebugLevel,
		"info":      zerolog.InfoLevel,
		"":          zerolog.InfoLevel,
		"warning":   zerolog.WarnLevel,
		"error":     zerolog.ErrorLevel,
		"fatal":     zerolog.FatalLevel,
		"panic":     zerolog.PanicLevel,
		"off":       zerolog.Disabled,
		"verbose":   zerolog.InfoLevel,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v; want %v", in, got, want)
		}
	}
}

func TestSetLogLevel(t *testing.T) {
	orig := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(orig) })

	SetLogLevel("error")
	if zerolog.GlobalLevel() != zerolog.ErrorLevel {
		t.Fatalf("global level = %v", zerolog.GlobalLevel())
	}
}

func TestParseBool(t *testing.T) {
	cases := []struct {
		in        string
		value, ok bool
	}{
		{"1", true, true},
		{" Yes ", true, true},
		{"on", true, true},
		{"0", false, true},
		{"OFF", false, true},
		{"n", false, true},
		{"", false, false},
		{"maybe", false, false},
	}
	for _, tc := range cases {
		v, ok := ParseBool(tc.in)
		if v != tc.value || ok != tc.ok {
			t.Fatalf("ParseBool(%q) = %v,%v; want %v,%v", tc.in, v, ok, tc.value, tc.ok)
		}
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := FirstNonEmpty("", "  ", " Ada ", "Grace"); got != "Ada" {
		t.Fatalf("got %q", got)
	}
	if got := FirstNonEmpty(" ", ""); got != "" {
		t.Fatalf("all blank: got %q", got)
	}
	if got := FirstNonEmpty(); got != "" {
		t.Fatalf("no args: got %q", got)
	}
}
