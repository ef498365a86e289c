// Package cli is a small flag-formatting helper used by the driver to print
// usage and help text in the columnar, terminal-width-aware style the
// reference tooling uses. Actual argument parsing lives in the driver
// itself (package main), since the compiler's option grammar has a few
// quirks — a missing `-o` filename is reported but not fatal — that don't
// fit a generic flag-parsing library cleanly.
package cli

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// IndentState tracks nested indentation levels when building help text, so
// deeper sections (a flag's wrapped usage line, say) line up under their
// parent without the caller hand-counting spaces.
type IndentState struct {
	levels   []uint8
	baseUnit uint8
}

// NewIndentState returns an IndentState starting at level 0 with a 4-space
// unit per level.
func NewIndentState() *IndentState {
	return &IndentState{levels: []uint8{0}, baseUnit: 4}
}

func (is *IndentState) Push() {
	is.levels = append(is.levels, is.levels[len(is.levels)-1]+1)
}

func (is *IndentState) Pop() {
	if len(is.levels) > 1 {
		is.levels = is.levels[:len(is.levels)-1]
	}
}

func (is *IndentState) AtLevel(level int) string {
	return strings.Repeat(" ", int(is.baseUnit*uint8(level)))
}

// OptionLine describes one entry in the options table printed by Usage and
// HelpPage.
type OptionLine struct {
	Flag  string // e.g. "-o <file>"
	Usage string
}

// App carries the fixed, non-positional text of a program's --help output.
type App struct {
	Name        string
	Synopsis    string
	Description string
	Authors     []string
	Repository  string
	Options     []OptionLine
}

// Usage prints the short usage summary: a usage line, the options table and
// a pointer to --help.
func (a *App) Usage(w *os.File) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Usage: %s <options> [input.b] ...\n", a.Name)
	sb.WriteString(a.optionsTable())
	fmt.Fprintf(&sb, "\nRun '%s --help' for more information.\n", a.Name)
	fmt.Fprint(w, sb.String())
}

// HelpPage prints the full --help output.
func (a *App) HelpPage(w *os.File) {
	indent := NewIndentState()
	var sb strings.Builder

	fmt.Fprintf(&sb, "%sCopyright (c) %s\n", indent.AtLevel(1), strings.Join(a.Authors, ", "))
	if a.Repository != "" {
		fmt.Fprintf(&sb, "%sFor more details refer to %s\n", indent.AtLevel(1), a.Repository)
	}
	if a.Synopsis != "" {
		sb.WriteString("\n")
		fmt.Fprintf(&sb, "%sSynopsis\n%s%s %s\n", indent.AtLevel(1), indent.AtLevel(2), a.Name, a.Synopsis)
	}
	if a.Description != "" {
		sb.WriteString("\n")
		fmt.Fprintf(&sb, "%sDescription\n%s%s\n", indent.AtLevel(1), indent.AtLevel(2), a.Description)
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "%sOptions\n", indent.AtLevel(1))
	sb.WriteString(a.optionsTable())

	fmt.Fprint(w, sb.String())
}

func (a *App) optionsTable() string {
	termWidth := getTerminalWidth()
	indent := NewIndentState()

	flagWidth := 0
	for _, opt := range a.Options {
		if len(opt.Flag) > flagWidth {
			flagWidth = len(opt.Flag)
		}
	}

	var sb strings.Builder
	for _, opt := range a.Options {
		lines := wrapText(opt.Usage, termWidth-flagWidth-len(indent.AtLevel(2))-2)
		if len(lines) == 0 {
			lines = []string{""}
		}
		fmt.Fprintf(&sb, "%s%-*s  %s\n", indent.AtLevel(2), flagWidth, opt.Flag, lines[0])
		for _, cont := range lines[1:] {
			fmt.Fprintf(&sb, "%s%s  %s\n", indent.AtLevel(2), strings.Repeat(" ", flagWidth), cont)
		}
	}
	return sb.String()
}

func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width < 20 {
		return 80
	}
	return width
}

func wrapText(text string, maxWidth int) []string {
	if maxWidth <= 0 {
		return []string{text}
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	var current strings.Builder
	for _, word := range words {
		if current.Len() > 0 && current.Len()+1+len(word) > maxWidth {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}
