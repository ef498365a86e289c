// Package diag renders compiler diagnostics the way the reference
// implementation does: "<prog>: error: <message>", bold white for the
// program name, bold red for the "error:" tag, reset afterward, plus (as an
// addition over the original C diagnostics, which carry no position at all)
// the offending source line with a caret underneath when a position is
// available.
package diag

import (
	"fmt"
	"os"
	"strings"

	"github.com/bcause-lang/bcause/pkg/token"
)

const (
	boldWhite = "\033[1;37m"
	boldRed   = "\033[1;31m"
	green     = "\033[32m"
	reset     = "\033[0m"
)

// ProgName is the program name reported in every diagnostic, set once by
// the driver from os.Args[0]'s base name.
var ProgName = "bcause"

// File records one compiled source file for caret-pointing diagnostics.
type File struct {
	Name    string
	Content []byte
}

var sourceFiles []File

// SetSourceFiles installs the set of files compiled in this run so that
// later diagnostics can quote source lines.
func SetSourceFiles(files []File) { sourceFiles = files }

func locate(pos token.Pos) (name string, ok bool) {
	if pos.FileIndex < 0 || pos.FileIndex >= len(sourceFiles) {
		return "", false
	}
	return sourceFiles[pos.FileIndex].Name, true
}

func printSourceLine(w *os.File, pos token.Pos) {
	if pos.Line <= 0 {
		return
	}
	if pos.FileIndex < 0 || pos.FileIndex >= len(sourceFiles) {
		return
	}
	content := sourceFiles[pos.FileIndex].Content

	lineStart, lineNum := 0, pos.Line
	for i := 0; i < len(content); i++ {
		if lineNum <= 1 {
			break
		}
		if content[i] == '\n' {
			lineNum--
			lineStart = i + 1
		}
	}
	lineEnd := len(content)
	for i := lineStart; i < len(content); i++ {
		if content[i] == '\n' {
			lineEnd = i
			break
		}
	}

	fmt.Fprintf(w, "  %s\n", string(content[lineStart:lineEnd]))
	col := pos.Column
	if col < 1 {
		col = 1
	}
	fmt.Fprintf(w, "  %s%s^%s\n", strings.Repeat(" ", col-1), green, reset)
}

// Error prints a fatal diagnostic to stderr and terminates the process with
// exit code 1, matching the reference compiler's eprintf-then-exit idiom.
func Error(pos token.Pos, format string, args ...interface{}) {
	report(pos, format, args...)
	os.Exit(1)
}

// Report prints a non-fatal diagnostic, for the handful of cases (a missing
// -o argument) where the reference compiler prints an error but keeps going.
func Report(pos token.Pos, format string, args ...interface{}) {
	report(pos, format, args...)
}

func report(pos token.Pos, format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s%s:%s ", boldWhite, ProgName, reset)
	if name, ok := locate(pos); ok && pos.Line > 0 {
		fmt.Fprintf(os.Stderr, "%s%s:%d:%d:%s ", boldWhite, name, pos.Line, pos.Column, reset)
	}
	fmt.Fprintf(os.Stderr, "%serror:%s ", boldRed, reset)
	fmt.Fprintf(os.Stderr, format, args...)
	fmt.Fprintln(os.Stderr)
	printSourceLine(os.Stderr, pos)
}
