package source_test

import (
	"errors"
	"testing"

	"github.com/bcause-lang/bcause/pkg/source"
)

func newReader(s string) *source.Reader {
	return source.NewReader([]byte(s), 0)
}

func TestSkipWhitespaceLeavesFirstNonBlank(t *testing.T) {
	r := newReader("  \t\n  x")
	r.SkipWhitespace()
	c, ok := r.Next()
	if !ok || c != 'x' {
		t.Fatalf("got %q, %v; want 'x', true", c, ok)
	}
}

func TestReadIdentifier(t *testing.T) {
	cases := map[string]string{
		"  foo_bar":  "foo",
		"abc123 def": "abc123",
		"123abc":     "",
		"":           "",
		" _foo":      "",
	}
	for input, want := range cases {
		got := newReader(input).ReadIdentifier()
		if got != want {
			t.Errorf("ReadIdentifier(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestReadIdentifierUnderscoreNotFirstChar(t *testing.T) {
	r := newReader("_foo")
	if got := r.ReadIdentifier(); got != "" {
		t.Fatalf("got %q, want empty (underscore is not alphabetic)", got)
	}
	c, ok := r.Next()
	if !ok || c != '_' {
		t.Fatalf("leading byte was consumed; got %q, %v", c, ok)
	}
}

func TestReadNumber(t *testing.T) {
	r := newReader("  42;")
	if got := r.ReadNumber(); got != 42 {
		t.Fatalf("got %d, want 42", got)
	}
	c, ok := r.Next()
	if !ok || c != ';' {
		t.Fatalf("trailing byte not pushed back correctly: %q, %v", c, ok)
	}
}

func TestReadNumberNoDigitsEOF(t *testing.T) {
	if got := newReader("").ReadNumber(); got != source.EOF {
		t.Fatalf("got %d, want EOF", got)
	}
}

func TestReadNumberNoDigitsNonDigit(t *testing.T) {
	r := newReader("x")
	if got := r.ReadNumber(); got != 0 {
		t.Fatalf("got %d, want 0", got)
	}
	c, ok := r.Next()
	if !ok || c != 'x' {
		t.Fatalf("non-digit byte was consumed instead of pushed back")
	}
}

func TestReadCharEmpty(t *testing.T) {
	r := newReader("'")
	got, err := r.ReadChar(8)
	if err != nil || got != 0 {
		t.Fatalf("ReadChar('') = %d, %v; want 0, nil", got, err)
	}
}

func TestReadCharPacksLittleEndian(t *testing.T) {
	// 'ab' -> 'a' | ('b' << 8)
	r := newReader("ab'")
	got, err := r.ReadChar(8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := int64('a') | int64('b')<<8
	if got != want {
		t.Fatalf("got %d, want %d", got, want)
	}
}

func TestReadCharEscapes(t *testing.T) {
	cases := map[string]int64{
		"*0'": 0,
		"*e'": 0,
		"*n'": '\n',
		"*t'": '\t',
		"*('": '(',
		"*)'": ')',
		"**'": '*',
		"*''": '\'',
		"*\"'": '"',
	}
	for input, want := range cases {
		got, err := newReader(input).ReadChar(8)
		if err != nil {
			t.Errorf("ReadChar(%q): unexpected error %v", input, err)
			continue
		}
		if got != want {
			t.Errorf("ReadChar(%q) = %d, want %d", input, got, want)
		}
	}
}

func TestReadCharBadEscape(t *testing.T) {
	_, err := newReader("*q'").ReadChar(8)
	var badEscape *source.BadEscapeError
	if !errors.As(err, &badEscape) {
		t.Fatalf("got %v, want *BadEscapeError", err)
	}
	if badEscape.Escape != 'q' {
		t.Fatalf("got escape %q, want 'q'", badEscape.Escape)
	}
}

func TestReadCharUnclosedAtWordSize(t *testing.T) {
	// 9 bytes with word size 8: the 9th byte must be the closer.
	_, err := newReader("012345678").ReadChar(8)
	if !errors.Is(err, source.ErrUnclosedChar) {
		t.Fatalf("got %v, want ErrUnclosedChar", err)
	}
}

func TestReadCharEOF(t *testing.T) {
	_, err := newReader("ab").ReadChar(8)
	if !errors.Is(err, source.ErrEOF) {
		t.Fatalf("got %v, want ErrEOF", err)
	}
}

func TestUngetRestoresByte(t *testing.T) {
	r := newReader("xy")
	c, _ := r.Next()
	r.Unget(c)
	c2, ok := r.Next()
	if !ok || c2 != c {
		t.Fatalf("Unget did not restore the byte: got %q", c2)
	}
}

// Ungetting several bytes without an intervening Next (as the else-keyword
// lookahead does on a failed match) must replay all of them, in reverse
// order, not just the most recent one.
func TestUngetMultipleBytesWithoutInterveningNext(t *testing.T) {
	r := newReader("abcde")
	var read []byte
	for i := 0; i < 3; i++ {
		c, ok := r.Next()
		if !ok {
			t.Fatalf("unexpected EOF reading byte %d", i)
		}
		read = append(read, c)
	}
	for i := len(read) - 1; i >= 0; i-- {
		r.Unget(read[i])
	}
	for i, want := range read {
		c, ok := r.Next()
		if !ok || c != want {
			t.Fatalf("byte %d: got %q, %v; want %q, true", i, c, ok, want)
		}
	}
	c, ok := r.Next()
	if !ok || c != 'd' {
		t.Fatalf("stream position after replay: got %q, %v; want 'd', true", c, ok)
	}
}

func TestPosTracksPendingBytes(t *testing.T) {
	r := newReader("ab\ncd")
	r.Next() // 'a' at line 1, col 1
	r.Next() // 'b' at line 1, col 2
	c, _ := r.Next()
	r.Unget(c) // '\n', originally read at line 1, col 3
	pos := r.Pos()
	if pos.Line != 1 || pos.Column != 3 {
		t.Fatalf("got line %d col %d, want line 1 col 3", pos.Line, pos.Column)
	}
}
