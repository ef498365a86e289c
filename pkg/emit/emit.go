// Package emit is the compiler's core: the declaration dispatcher, the
// global/vector/function producers, the recursive-descent statement
// producer and the expression producer. There is no AST — each producer
// reads directly from a pkg/source.Reader and writes x86-64 GNU assembly
// directly to the shared output buffer as it recognizes constructs.
package emit

import (
	"fmt"
	"strings"

	"github.com/bcause-lang/bcause/pkg/config"
	"github.com/bcause-lang/bcause/pkg/diag"
	"github.com/bcause-lang/bcause/pkg/source"
)

// Compiler holds the state that must persist across an entire compilation
// unit: the accumulated assembly output and the statement-id counter, which
// is never reset between functions or between input files, so that every
// label emitted across a whole run is unique.
type Compiler struct {
	out    strings.Builder
	stmtID int64
}

// New returns a Compiler ready to compile one or more files into a single
// shared assembly buffer.
func New() *Compiler {
	return &Compiler{}
}

// Output returns the assembly accumulated so far.
func (c *Compiler) Output() string { return c.out.String() }

func (c *Compiler) nextStmtID() int64 {
	id := c.stmtID
	c.stmtID++
	return id
}

// switchCtx carries the innermost enclosing switch's id and its ordered,
// append-only case-value list through statement recursion. nil means "not
// currently inside a switch". A nested switch replaces it wholesale rather
// than extending it, so a case always belongs to its innermost switch.
type switchCtx struct {
	id    int64
	cases *[]int64
}

// mustByte reads one byte and fails with msg if it isn't want (end of file
// counts as a mismatch). It performs no whitespace skipping — callers skip
// whitespace explicitly at the same points the reference compiler does.
func mustByte(r *source.Reader, want byte, msg string) {
	c, ok := r.Next()
	if !ok || c != want {
		diag.Error(r.Pos(), "%s", msg)
	}
}

// CompileFile runs the top-level declaration dispatcher (spec §4.2) over
// one input file, appending emitted assembly to the compiler's shared
// output. Repeatedly reads an identifier, emits its .globl directive, then
// dispatches on the following byte to the function, vector or global-scalar
// producer.
func (c *Compiler) CompileFile(r *source.Reader) {
	for {
		id := r.ReadIdentifier()
		if id == "" {
			break
		}
		fmt.Fprintf(&c.out, ".globl %s\n", id)

		r.SkipWhitespace()
		ch, ok := r.Next()
		switch {
		case !ok:
			diag.Error(r.Pos(), "unexpected end of file after declaration")
		case ch == '(':
			c.compileFunction(r, id)
		case ch == '[':
			c.compileVector(r, id)
		default:
			r.Unget(ch)
			c.compileGlobal(r, id)
		}
	}

	if _, ok := r.Next(); ok {
		diag.Error(r.Pos(), "expect identifier at top level")
	}
}

// compileFunction emits the prologue/return-label/epilogue scaffolding and
// delegates the body to the statement producer (spec §4.4). Invoked after
// the declaration dispatcher has already consumed the opening '('.
func (c *Compiler) compileFunction(r *source.Reader, id string) {
	fmt.Fprintf(&c.out, ".text\n.type %s, @function\n%s:\n", id, id)

	mustByte(r, ')', "expect ')' after function declaration")

	c.out.WriteString("  push %rbp\n  mov %rsp, %rbp\n")

	c.compileStatement(r, id, nil)

	fmt.Fprintf(&c.out, ".L.return.%s:\n  mov %%rbp, %%rsp\n  pop %%rbp\n  ret\n", id)
}

func dataHeader(id string) string {
	return fmt.Sprintf(".data\n.type %s, @object\n.align %d\n%s:\n", id, config.WordSize, id)
}
