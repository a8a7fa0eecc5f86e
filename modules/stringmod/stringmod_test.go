package stringmod_test

import (
	"bytes"
	"testing"

	"github.com/emberlang/ember"
	"github.com/emberlang/ember/modules/stringmod"
)

func run(t *testing.T, src string) ember.Value {
	t.Helper()
	resolver := ember.NewHostNamespace(stringmod.Namespace())
	s, err := ember.NewScript(resolver, &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}
	v, err := s.Run(src)
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func TestStringLenAndCase(t *testing.T) {
	v := run(t, `
		import string
		string.len("hello") .. ":" .. string.upper("hello")
	`)
	if v.Str() != "5:HELLO" {
		t.Fatalf("got %q", v.Str())
	}
}

func TestStringSplitAndJoin(t *testing.T) {
	v := run(t, `
		import string
		parts = string.split("a,b,c", ",")
		string.join(parts, "-")
	`)
	if v.Str() != "a-b-c" {
		t.Fatalf("got %q", v.Str())
	}
}

func TestStringContainsPrefixSuffix(t *testing.T) {
	v := run(t, `
		import string
		string.contains("hello world", "wor") && string.hasPrefix("hello", "he") && string.hasSuffix("hello", "lo")
	`)
	if !v.Bool() {
		t.Fatal("expected all three predicates to hold")
	}
}

func TestStringParseRoundTrip(t *testing.T) {
	v := run(t, `
		import string
		n = string.parseInt("42")
		string.fromInt(n + 1)
	`)
	if v.Str() != "43" {
		t.Fatalf("got %q", v.Str())
	}
}

func TestStringParseIntErrorPropagates(t *testing.T) {
	resolver := ember.NewHostNamespace(stringmod.Namespace())
	s, err := ember.NewScript(resolver, &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}
	_, err = s.Run(`
		import string
		string.parseInt("not a number")
	`)
	if err == nil {
		t.Fatal("expected an error for an unparseable integer")
	}
}

func TestStringRepeatAndIndex(t *testing.T) {
	v := run(t, `
		import string
		string.repeat("ab", 3) .. ":" .. string.index("hello", "ll")
	`)
	if v.Str() != "ababab:2" {
		t.Fatalf("got %q", v.Str())
	}
}
