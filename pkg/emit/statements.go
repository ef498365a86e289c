package emit

import (
	"fmt"

	"github.com/bcause-lang/bcause/pkg/config"
	"github.com/bcause-lang/bcause/pkg/diag"
	"github.com/bcause-lang/bcause/pkg/source"
)

// compileStatement is the recursive-descent statement producer (spec §4.6).
// fn names the enclosing function, for the return label. sw is the
// innermost enclosing switch's context, or nil outside any switch.
func (c *Compiler) compileStatement(r *source.Reader, fn string, sw *switchCtx) {
	r.SkipWhitespace()
	ch, ok := r.Next()

	switch {
	case !ok:
		diag.Error(r.Pos(), "unexpected end of file, expect statement")

	case ch == '{':
		c.compileBlock(r, fn, sw)

	case ch == ';':
		// null statement

	case source.IsAlpha(ch):
		r.Unget(ch)
		c.compileIdentStatement(r, fn, sw)

	default:
		diag.Error(r.Pos(), "unexpected character, expect statement")
	}
}

// compileBlock reads statements until the matching '}', which the caller has
// already recognized is open (the '{' itself is already consumed).
func (c *Compiler) compileBlock(r *source.Reader, fn string, sw *switchCtx) {
	for {
		r.SkipWhitespace()
		ch, ok := r.Next()
		if !ok {
			diag.Error(r.Pos(), "unexpected end of file, expect '}'")
		}
		if ch == '}' {
			return
		}
		r.Unget(ch)
		c.compileStatement(r, fn, sw)
	}
}

// compileIdentStatement reads the identifier that opened this statement and
// branches to the matching keyword producer, or treats it as a label if it
// names none of them.
func (c *Compiler) compileIdentStatement(r *source.Reader, fn string, sw *switchCtx) {
	id := r.ReadIdentifier()

	switch id {
	case "goto":
		c.compileGoto(r)
	case "return":
		c.compileReturn(r, fn)
	case "if":
		c.compileIf(r, fn)
	case "while":
		c.compileWhile(r, fn)
	case "switch":
		c.compileSwitch(r, fn)
	case "case":
		c.compileCase(r, fn, sw)
	default:
		r.SkipWhitespace()
		mustByte(r, ':', "expect ':' after label")
		fmt.Fprintf(&c.out, ".L.label.%s:\n", id)
		c.compileStatement(r, fn, sw)
	}
}

func (c *Compiler) compileGoto(r *source.Reader) {
	label := r.ReadIdentifier()
	if label == "" {
		diag.Error(r.Pos(), "expect label name after 'goto'")
	}
	r.SkipWhitespace()
	mustByte(r, ';', "expect ';' after 'goto' statement")
	fmt.Fprintf(&c.out, "  jmp .L.label.%s\n", label)
}

func (c *Compiler) compileReturn(r *source.Reader, fn string) {
	r.SkipWhitespace()
	ch, ok := r.Next()
	if ok && ch == ';' {
		fmt.Fprintf(&c.out, "  jmp .L.return.%s\n", fn)
		return
	}
	if !ok || ch != '(' {
		diag.Error(r.Pos(), "expect ';' or '(' after 'return'")
	}

	c.compileExpr(r, "%rax")
	r.SkipWhitespace()
	mustByte(r, ')', "expect ')' after return expression")
	r.SkipWhitespace()
	mustByte(r, ';', "expect ';' after return statement")
	fmt.Fprintf(&c.out, "  jmp .L.return.%s\n", fn)
}

// compileIf implements the if/else form, including the five-byte lookahead
// that disambiguates a trailing 'else'. The then- and else-branches are
// compiled with no enclosing switch context, matching the reference
// compiler's literal argument passing for nested statements of these forms.
func (c *Compiler) compileIf(r *source.Reader, fn string) {
	id := c.nextStmtID()

	r.SkipWhitespace()
	mustByte(r, '(', "expect '(' after 'if'")
	c.compileExpr(r, "%rax")
	r.SkipWhitespace()
	mustByte(r, ')', "expect ')' after if condition")

	fmt.Fprintf(&c.out, "  cmp $0, %%rax\n  je .L.else.%d\n", id)
	c.compileStatement(r, fn, nil)
	fmt.Fprintf(&c.out, "  jmp .L.end.%d\n.L.else.%d:\n", id, id)

	r.SkipWhitespace()
	if c.matchElse(r) {
		c.compileStatement(r, fn, nil)
	}
	fmt.Fprintf(&c.out, ".L.end.%d:\n", id)
}

// matchElse attempts to recognize the literal sequence "else" followed by a
// non-alphanumeric byte (or end of file). On any mismatch every byte read is
// pushed back, in reverse order, so the next statement or declaration parser
// sees exactly what this one saw.
func (c *Compiler) matchElse(r *source.Reader) bool {
	const keyword = "else"

	var read []byte
	for i := 0; i < len(keyword); i++ {
		ch, ok := r.Next()
		if !ok || ch != keyword[i] {
			if ok {
				read = append(read, ch)
			}
			unreadAll(r, read)
			return false
		}
		read = append(read, ch)
	}

	ch, ok := r.Next()
	if ok && source.IsAlnum(ch) {
		read = append(read, ch)
		unreadAll(r, read)
		return false
	}
	if ok {
		r.Unget(ch)
	}
	return true
}

func unreadAll(r *source.Reader, bytes []byte) {
	for i := len(bytes) - 1; i >= 0; i-- {
		r.Unget(bytes[i])
	}
}

func (c *Compiler) compileWhile(r *source.Reader, fn string) {
	id := c.nextStmtID()

	fmt.Fprintf(&c.out, ".L.start.%d:\n", id)
	r.SkipWhitespace()
	mustByte(r, '(', "expect '(' after 'while'")
	c.compileExpr(r, "%rax")
	r.SkipWhitespace()
	mustByte(r, ')', "expect ')' after while condition")

	fmt.Fprintf(&c.out, "  cmp $0, %%rax\n  je .L.end.%d\n", id)
	c.compileStatement(r, fn, nil)
	fmt.Fprintf(&c.out, "  jmp .L.start.%d\n.L.end.%d:\n", id, id)
}

// compileSwitch evaluates the selector once, jumps straight to the dispatch
// table, compiles the body to collect case labels and values into a fresh
// context, then emits the table from the values collected in source order.
func (c *Compiler) compileSwitch(r *source.Reader, fn string) {
	id := c.nextStmtID()

	c.compileExpr(r, "%rax")
	fmt.Fprintf(&c.out, "  jmp .L.cmp.%d\n.L.stmts.%d:\n", id, id)

	cases := []int64{}
	c.compileStatement(r, fn, &switchCtx{id: id, cases: &cases})

	fmt.Fprintf(&c.out, "  jmp .L.end.%d\n.L.cmp.%d:\n", id, id)
	for _, v := range cases {
		fmt.Fprintf(&c.out, "  cmp $%d, %%rax\n  je .L.case.%d.%d\n", v, id, v)
	}
	fmt.Fprintf(&c.out, ".L.end.%d:\n", id)
}

// compileCase is only valid nested inside a switch body. It records its
// constant value in the enclosing switch's case list so the dispatch table
// built by compileSwitch can target it.
func (c *Compiler) compileCase(r *source.Reader, fn string, sw *switchCtx) {
	if sw == nil {
		diag.Error(r.Pos(), "unexpected ‘case’ outside of ‘switch’ statements")
	}

	r.SkipWhitespace()
	ch, ok := r.Next()
	if !ok {
		diag.Error(r.Pos(), "unexpected end of file, expect case value")
	}

	var value int64
	switch {
	case ch == '\'':
		v, err := r.ReadChar(config.WordSize)
		if err != nil {
			diag.Error(r.Pos(), "%s", err.Error())
		}
		value = v
	case source.IsDigit(ch):
		r.Unget(ch)
		value = r.ReadNumber()
	default:
		diag.Error(r.Pos(), "unexpected character, expect case value")
	}

	r.SkipWhitespace()
	mustByte(r, ':', "expect ':' after case value")

	*sw.cases = append(*sw.cases, value)
	fmt.Fprintf(&c.out, ".L.case.%d.%d:\n", sw.id, value)

	c.compileStatement(r, fn, sw)
}
