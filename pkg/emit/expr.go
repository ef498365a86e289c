package emit

import (
	"fmt"

	"github.com/bcause-lang/bcause/pkg/config"
	"github.com/bcause-lang/bcause/pkg/diag"
	"github.com/bcause-lang/bcause/pkg/source"
)

// compileExpr loads a single literal into reg (spec §4.5). The grammar is
// intentionally minimal: a character literal or a decimal integer, nothing
// else. Zero loads via the `xor` idiom rather than `mov $0`.
func (c *Compiler) compileExpr(r *source.Reader, reg string) {
	r.SkipWhitespace()
	ch, ok := r.Next()
	if !ok {
		diag.Error(r.Pos(), "unexpected end of file, expect expression")
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
		diag.Error(r.Pos(), "unexpected character, expect expression")
	}

	if value == 0 {
		fmt.Fprintf(&c.out, "  xor %s, %s\n", reg, reg)
	} else {
		fmt.Fprintf(&c.out, "  mov $%d, %s\n", value, reg)
	}
}
