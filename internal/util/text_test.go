package util

import (
	"reflect"
	"testing"
)

func TestNormalizeWhitespace(t *testing.T) {
	if got := NormalizeWhitespace("  a\t b\n\nc  "); got != "a b c" {
		t.Fatalf("got %q", got)
	}
	if got := NormalizeWhitespace(" \n\t "); got != "" {
		t.Fatalf("got %q", got)
	}
}

func TestNonBlankLines(t *testing.T) {
	in := "one\n\n  two  \n\nthree\nfour"
	if got := NonBlankLines(in, 3); !reflect.DeepEqual(got, []string{"one", "two", "three"}) {
		t.Fatalf("got %v", got)
	}
	if got := NonBlankLines(in, 0); len(got) != 4 {
		t.Fatalf("uncapped got %v", got)
	}
	if got := NonBlankLines("", 5); got != nil {
		t.Fatalf("got %v", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("hello", 10); got != "hello" {
		t.Fatalf("got %q", got)
	}
	if got := Truncate("hello world", 5); got != "hello..." {
		t.Fatalf("got %q", got)
	}
	// Rune-aware: never cuts inside a multibyte character.
	if got := Truncate("🚀🚀🚀🚀", 2); got != "🚀🚀..." {
		t.Fatalf("got %q", got)
	}
}

func TestContainsAnyCaseInsensitive(t *testing.T) {
	if !ContainsAnyCaseInsensitive("According To a study", []string{"according to"}) {
		t.Fatal("expected match")
	}
	if ContainsAnyCaseInsensitive("nothing here", []string{"percent", "%"}) {
		t.Fatal("unexpected match")
	}
}
