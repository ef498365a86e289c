// Package source implements the lexical primitives of the compiler: a
// byte-level reader with multi-byte push-back, and the whitespace,
// identifier, number and character-literal readers built on top of it.
// There is no token stream — scanning, parsing and emission are fused, so
// these primitives are called directly from the declaration/statement/
// expression producers in pkg/emit.
package source

import (
	"errors"
	"fmt"

	"github.com/bcause-lang/bcause/pkg/token"
)

// EOF is the sentinel returned by ReadNumber when no digits were read and
// end-of-file was hit, distinguishing "no digits, saw EOF" from "no digits,
// saw a non-digit" (which returns 0 with the non-digit pushed back).
const EOF = -1

// Reader is a byte source with a push-back stack and running line/column
// counters, scoped to one input file. Most callers unget at most one byte
// at a time, matching the reference compiler's single-slot ungetc, but the
// else-keyword lookahead (pkg/emit's matchElse) ungets up to five bytes in
// one go when the match fails, so the stack must hold more than one slot.
type Reader struct {
	data      []byte
	fileIndex int
	pos       int
	line      int
	column    int

	// pending holds bytes pushed back via Unget, most-recently-ungotten
	// last; Next drains it before reading from data. pendingPos holds the
	// matching position for each entry in pending.
	pending    []byte
	pendingPos []token.Pos

	// history records the position of each byte as it's read fresh from
	// data, most-recent last, so Unget can recover a byte's true original
	// position instead of approximating it from the reader's current
	// line/column. Next repopulates it when replaying a pending byte, so
	// a byte can be ungotten, re-read and ungotten again without losing
	// position accuracy.
	history []token.Pos
}

// NewReader wraps the full contents of one input file for scanning.
func NewReader(data []byte, fileIndex int) *Reader {
	return &Reader{data: data, fileIndex: fileIndex, line: 1, column: 1}
}

// Pos returns the position of the byte that will be returned by the next
// call to Next.
func (r *Reader) Pos() token.Pos {
	if n := len(r.pendingPos); n > 0 {
		return r.pendingPos[n-1]
	}
	return token.Pos{FileIndex: r.fileIndex, Line: r.line, Column: r.column}
}

// Next returns the next byte and true, or 0 and false at end of file.
func (r *Reader) Next() (byte, bool) {
	if n := len(r.pending); n > 0 {
		c := r.pending[n-1]
		pos := r.pendingPos[n-1]
		r.pending = r.pending[:n-1]
		r.pendingPos = r.pendingPos[:n-1]
		r.history = append(r.history, pos)
		return c, true
	}
	if r.pos >= len(r.data) {
		return 0, false
	}
	c := r.data[r.pos]
	r.pos++
	r.history = append(r.history, token.Pos{FileIndex: r.fileIndex, Line: r.line, Column: r.column})
	if c == '\n' {
		r.line++
		r.column = 1
	} else {
		r.column++
	}
	return c, true
}

// Unget pushes a byte back onto the stream. Ungetting several bytes in a
// row without an intervening Next (as the else lookahead does on a failed
// match) is supported: Next drains them in reverse order, last-ungotten
// first, exactly matching a stack of ungetc calls.
func (r *Reader) Unget(c byte) {
	var pos token.Pos
	if n := len(r.history); n > 0 {
		pos = r.history[n-1]
		r.history = r.history[:n-1]
	} else {
		// Ungetting a byte this reader never recorded reading (shouldn't
		// happen in practice); fall back to the current position.
		pos = token.Pos{FileIndex: r.fileIndex, Line: r.line, Column: r.column}
	}
	r.pending = append(r.pending, c)
	r.pendingPos = append(r.pendingPos, pos)
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

// IsAlpha reports whether c is an ASCII letter.
func IsAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// IsAlnum reports whether c is an ASCII letter or digit.
func IsAlnum(c byte) bool {
	return IsAlpha(c) || (c >= '0' && c <= '9')
}

// IsDigit reports whether c is an ASCII decimal digit.
func IsDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// SkipWhitespace consumes a run of whitespace and pushes back the first
// non-whitespace byte it finds. Comments are not recognized.
func (r *Reader) SkipWhitespace() {
	for {
		c, ok := r.Next()
		if !ok {
			return
		}
		if !isSpace(c) {
			r.Unget(c)
			return
		}
	}
}

// ReadIdentifier skips whitespace, then reads the longest run whose first
// byte is alphabetic and whose following bytes are alphanumeric. Returns ""
// if no identifier was present.
func (r *Reader) ReadIdentifier() string {
	r.SkipWhitespace()
	var buf []byte
	for {
		c, ok := r.Next()
		if !ok {
			break
		}
		if (len(buf) == 0 && !IsAlpha(c)) || (len(buf) > 0 && !IsAlnum(c)) {
			r.Unget(c)
			break
		}
		buf = append(buf, c)
	}
	return string(buf)
}

// ReadNumber skips whitespace, then reads a run of decimal digits,
// accumulating in base ten (overflow wraps silently, matching a C `long`).
// Returns EOF if no digits were read and end-of-file was hit; returns 0 if
// no digits were read but a non-digit byte was seen (pushed back).
func (r *Reader) ReadNumber() int64 {
	r.SkipWhitespace()
	var num int64
	read := 0
	sawEOF := false
	for {
		c, ok := r.Next()
		if !ok {
			sawEOF = true
			break
		}
		if !IsDigit(c) {
			r.Unget(c)
			break
		}
		read++
		num = num*10 + int64(c-'0')
	}
	if read == 0 && sawEOF {
		return EOF
	}
	return num
}

// ErrEOF is returned by ReadChar when end of file is hit before the literal
// closes.
var ErrEOF = errors.New("unexpected end of file")

// ErrUnclosedChar is returned when wordSize bytes were read without a
// closing quote and the following byte isn't one either.
var ErrUnclosedChar = errors.New("unclosed char literal")

// BadEscapeError is returned for an unrecognized `*x` escape selector.
type BadEscapeError struct{ Escape byte }

func (e *BadEscapeError) Error() string {
	return fmt.Sprintf("undefined escape character '*%c'", e.Escape)
}

// ReadChar reads a character literal's body, called just after the opening
// quote has been consumed. It packs up to wordSize bytes little-endian into
// the result word, decoding `*x` escapes per the language's escape table.
func (r *Reader) ReadChar(wordSize int) (int64, error) {
	var value int64

	for i := 0; i < wordSize; i++ {
		c, ok := r.Next()
		if !ok {
			return 0, ErrEOF
		}
		if c == '\'' {
			return value, nil
		}

		if c == '*' {
			esc, ok := r.Next()
			if !ok {
				return 0, ErrEOF
			}
			switch esc {
			case '0', 'e':
				c = 0
			case '(', ')', '*', '\'', '"':
				c = esc
			case 't':
				c = '\t'
			case 'n':
				c = '\n'
			default:
				return 0, &BadEscapeError{Escape: esc}
			}
		}

		value |= int64(c) << uint(i*8)
	}

	c, ok := r.Next()
	if !ok {
		return 0, ErrEOF
	}
	if c != '\'' {
		return 0, ErrUnclosedChar
	}
	return value, nil
}
