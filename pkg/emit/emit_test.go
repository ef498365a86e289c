package emit_test

import (
	"testing"

	"github.com/bcause-lang/bcause/pkg/emit"
	"github.com/bcause-lang/bcause/pkg/source"
)

func compile(t *testing.T, src string) string {
	t.Helper()
	c := emit.New()
	c.CompileFile(source.NewReader([]byte(src), 0))
	return c.Output()
}

func TestEmptyFunctionReturn(t *testing.T) {
	got := compile(t, "main() { return; }")
	want := `.globl main
.text
.type main, @function
main:
  push %rbp
  mov %rsp, %rbp
  jmp .L.return.main
.L.return.main:
  mov %rbp, %rsp
  pop %rbp
  ret
`
	if got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestScalarAndVectorGlobals(t *testing.T) {
	got := compile(t, "x 42; v[3] 1, 2, 3; z;")
	want := `.globl x
.data
.type x, @object
.align 8
x:
  .long 42
.globl v
.data
.type v, @object
.align 8
v:
  .long 1
  .long 2
  .long 3
.globl z
.data
.type z, @object
.align 8
z:
  .zero 8
`
	if got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestCharacterPacking(t *testing.T) {
	got := compile(t, "c 'ab';")
	want := `.globl c
.data
.type c, @object
.align 8
c:
  .long 25185
`
	if got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestEmptyVectorReservesNothing(t *testing.T) {
	got := compile(t, "v[];")
	want := `.globl v
.data
.type v, @object
.align 8
v:
`
	if got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

// The switch selector in this fixture is a literal, not an identifier —
// the expression grammar accepts only integer and character literals, so a
// bare variable reference (as a more informal statement of this scenario
// might suggest) would not actually parse.
func TestSwitchDispatchTable(t *testing.T) {
	got := compile(t, "f() { switch 1 { case 1: return; case 2: return; } }")
	want := `.globl f
.text
.type f, @function
f:
  push %rbp
  mov %rsp, %rbp
  mov $1, %rax
  jmp .L.cmp.0
.L.stmts.0:
.L.case.0.1:
  jmp .L.return.f
.L.case.0.2:
  jmp .L.return.f
  jmp .L.end.0
.L.cmp.0:
  cmp $1, %rax
  je .L.case.0.1
  cmp $2, %rax
  je .L.case.0.2
.L.end.0:
.L.return.f:
  mov %rbp, %rsp
  pop %rbp
  ret
`
	if got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestIfElse(t *testing.T) {
	got := compile(t, "f() { if(1) return; else return; }")
	want := `.globl f
.text
.type f, @function
f:
  push %rbp
  mov %rsp, %rbp
  mov $1, %rax
  cmp $0, %rax
  je .L.else.0
  jmp .L.return.f
  jmp .L.end.0
.L.else.0:
  jmp .L.return.f
.L.end.0:
.L.return.f:
  mov %rbp, %rsp
  pop %rbp
  ret
`
	if got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestIfZeroSkipsBody(t *testing.T) {
	got := compile(t, "f() { if(0) goto skipped; }")
	want := `.globl f
.text
.type f, @function
f:
  push %rbp
  mov %rsp, %rbp
  xor %rax, %rax
  cmp $0, %rax
  je .L.else.0
  jmp .L.label.skipped
  jmp .L.end.0
.L.else.0:
.L.end.0:
.L.return.f:
  mov %rbp, %rsp
  pop %rbp
  ret
`
	if got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestGotoAndLabel(t *testing.T) {
	got := compile(t, "f() { goto done; done: return; }")
	want := `.globl f
.text
.type f, @function
f:
  push %rbp
  mov %rsp, %rbp
  jmp .L.label.done
.L.label.done:
  jmp .L.return.f
.L.return.f:
  mov %rbp, %rsp
  pop %rbp
  ret
`
	if got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

// A failed else-match pushes back more than one byte (matchElse, statements.go).
// These two fixtures exercise that multi-byte pushback: the label that
// immediately follows an if-without-else must come back byte-for-byte,
// not truncated by a single-slot unget buffer.
func TestLabelAfterIfWithoutElseIsNotCorrupted(t *testing.T) {
	got := compile(t, "f() { if(1) return; end: return; }")
	want := `.globl f
.text
.type f, @function
f:
  push %rbp
  mov %rsp, %rbp
  mov $1, %rax
  cmp $0, %rax
  je .L.else.0
  jmp .L.return.f
  jmp .L.end.0
.L.else.0:
.L.end.0:
.L.label.end:
  jmp .L.return.f
.L.return.f:
  mov %rbp, %rsp
  pop %rbp
  ret
`
	if got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestLabelStartingWithElseIsNotCorrupted(t *testing.T) {
	got := compile(t, "f() { if(1) return; elsewhere: return; }")
	want := `.globl f
.text
.type f, @function
f:
  push %rbp
  mov %rsp, %rbp
  mov $1, %rax
  cmp $0, %rax
  je .L.else.0
  jmp .L.return.f
  jmp .L.end.0
.L.else.0:
.L.end.0:
.L.label.elsewhere:
  jmp .L.return.f
.L.return.f:
  mov %rbp, %rsp
  pop %rbp
  ret
`
	if got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestStmtIDsAreMonotonicAcrossFunctions(t *testing.T) {
	got := compile(t, "f() { if(1) return; } g() { if(1) return; }")
	want := `.globl f
.text
.type f, @function
f:
  push %rbp
  mov %rsp, %rbp
  mov $1, %rax
  cmp $0, %rax
  je .L.else.0
  jmp .L.return.f
  jmp .L.end.0
.L.else.0:
.L.end.0:
.L.return.f:
  mov %rbp, %rsp
  pop %rbp
  ret
.globl g
.text
.type g, @function
g:
  push %rbp
  mov %rsp, %rbp
  mov $1, %rax
  cmp $0, %rax
  je .L.else.1
  jmp .L.return.g
  jmp .L.end.1
.L.else.1:
.L.end.1:
.L.return.g:
  mov %rbp, %rsp
  pop %rbp
  ret
`
	if got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}
