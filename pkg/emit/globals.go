package emit

import (
	"fmt"

	"github.com/bcause-lang/bcause/pkg/config"
	"github.com/bcause-lang/bcause/pkg/diag"
	"github.com/bcause-lang/bcause/pkg/source"
)

// compileGlobal emits a global scalar's .data record (spec §4.3). A bare
// `;` reserves one zeroed word; otherwise a comma-separated ival list
// follows, terminated by `;`.
func (c *Compiler) compileGlobal(r *source.Reader, id string) {
	c.out.WriteString(dataHeader(id))

	ch, ok := r.Next()
	if ok && ch == ';' {
		fmt.Fprintf(&c.out, "  .zero %d\n", config.WordSize)
		return
	}
	if ok {
		r.Unget(ch)
	}
	c.compileIvalList(r)
}

// compileVector emits a vector's .data record (spec §4.3). An optional
// decimal size between the already-consumed '[' and ']' is used only when
// the initializer list is empty, to size a .zero reservation.
func (c *Compiler) compileVector(r *source.Reader, id string) {
	var size int64

	r.SkipWhitespace()
	ch, ok := r.Next()
	if !ok || ch != ']' {
		if ok {
			r.Unget(ch)
		}
		size = r.ReadNumber()
		if size == source.EOF {
			diag.Error(r.Pos(), "unexpected end of file, expect vector size after '['")
		}
		r.SkipWhitespace()
		mustByte(r, ']', "expect ']' after vector size")
	}

	c.out.WriteString(dataHeader(id))

	r.SkipWhitespace()
	ch, ok = r.Next()
	if ok && ch == ';' {
		if n := config.WordSize * size; n != 0 {
			fmt.Fprintf(&c.out, "  .zero %d\n", n)
		}
		return
	}
	if ok {
		r.Unget(ch)
	}
	c.compileIvalList(r)
}

// compileIvalList parses one or more comma-separated ivals, each emitting
// exactly one `.long`, followed by a required terminating `;`.
func (c *Compiler) compileIvalList(r *source.Reader) {
	var ch byte
	var ok bool
	for {
		r.SkipWhitespace()
		c.compileIval(r)
		r.SkipWhitespace()
		ch, ok = r.Next()
		if !ok || ch != ',' {
			break
		}
	}
	if !ok || ch != ';' {
		diag.Error(r.Pos(), "expect ';' at end of declaration")
	}
}

// compileIval emits a single .long directive for one ival: an identifier
// (symbolic reference), a character literal, or a decimal integer. The
// directive is always `.long`, even though word size is 8 — this mismatch
// is inherited from the reference compiler, see DESIGN.md.
func (c *Compiler) compileIval(r *source.Reader) {
	ch, ok := r.Next()
	if !ok {
		diag.Error(r.Pos(), "unexpected end of file, expect ival")
	}

	switch {
	case source.IsAlpha(ch):
		r.Unget(ch)
		id := r.ReadIdentifier()
		fmt.Fprintf(&c.out, "  .long %s\n", id)

	case ch == '\'':
		value, err := r.ReadChar(config.WordSize)
		if err != nil {
			diag.Error(r.Pos(), "%s", err.Error())
		}
		fmt.Fprintf(&c.out, "  .long %d\n", uint64(value))

	default:
		r.Unget(ch)
		value := r.ReadNumber()
		if value == source.EOF {
			diag.Error(r.Pos(), "unexpected end of file, expect ival")
		}
		fmt.Fprintf(&c.out, "  .long %d\n", uint64(value))
	}
}
