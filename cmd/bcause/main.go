// Command bcause compiles one or more B source files to x86-64 GNU assembly
// and, unless told otherwise, drives `as` and `ld` to produce an object file
// or a statically linked executable.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/bcause-lang/bcause/pkg/cli"
	"github.com/bcause-lang/bcause/pkg/config"
	"github.com/bcause-lang/bcause/pkg/diag"
	"github.com/bcause-lang/bcause/pkg/emit"
	"github.com/bcause-lang/bcause/pkg/source"
	"github.com/bcause-lang/bcause/pkg/token"
)

const version = "0.1"

func main() {
	progName := filepath.Base(os.Args[0])
	diag.ProgName = progName

	app := &cli.App{
		Name:        progName,
		Synopsis:    "[options] file...",
		Description: "A single-pass compiler for a minimal, pre-standard B-family language, emitting x86-64 GNU assembly directly with no intermediate representation.",
		Authors:     []string{"bcause contributors"},
		Repository:  "<https://github.com/bcause-lang/bcause>",
		Options: []cli.OptionLine{
			{Flag: "--help", Usage: "Display this information."},
			{Flag: "--version", Usage: "Display compiler version information."},
			{Flag: "-o <file>", Usage: "Place the output into <file>."},
			{Flag: "-S", Usage: "Compile only; do not assemble or link."},
			{Flag: "-c", Usage: "Compile and assemble, but do not link."},
		},
	}

	args := config.NewArgs(progName)

	rawArgs := os.Args[1:]
	for i := 0; i < len(rawArgs); i++ {
		arg := rawArgs[i]
		switch {
		case arg == "--help":
			app.HelpPage(os.Stdout)
			return
		case arg == "--version":
			printVersion(progName)
			return
		case arg == "-o":
			if i+1 >= len(rawArgs) {
				diag.Report(token.Pos{}, "missing filename after '%s'", arg)
				break
			}
			i++
			args.Output = rawArgs[i]
		case arg == "-S":
			args.Assemble = false
			args.Link = false
		case arg == "-c":
			args.Link = false
		case strings.HasPrefix(arg, "-"):
			fmt.Fprintf(os.Stderr, "%s: error: unrecognized command-line option '%s'\n", progName, arg)
			os.Exit(1)
		default:
			args.Inputs = append(args.Inputs, arg)
		}
	}

	if len(args.Inputs) == 0 {
		fmt.Fprintf(os.Stderr, "%s: error: no input files\ncompilation terminated.\n", progName)
		os.Exit(1)
	}

	if err := compile(args); err != nil {
		fmt.Fprintf(os.Stderr, "%s: error: %s\n", progName, err)
		os.Exit(1)
	}
}

func printVersion(progName string) {
	fmt.Printf("%s %s\n", progName, version)
	fmt.Println("Copyright (C) 2026 bcause contributors")
	fmt.Println("This is free software; see the source for copying conditions.")
	fmt.Println("There is NO warranty.")
}

// compile runs the declaration dispatcher over every `.b` input file into a
// shared compiler instance, then hands the result to the driver glue (spec
// §4.7): write the assembly, and conditionally invoke `as` and `ld`.
func compile(args *config.Args) error {
	c := emit.New()
	var files []diag.File

	for _, path := range args.Inputs {
		if !strings.HasSuffix(path, ".b") {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("%s: %w\ncompilation terminated.", path, err)
		}
		files = append(files, diag.File{Name: path, Content: data})
		diag.SetSourceFiles(files)

		c.CompileFile(source.NewReader(data, len(files)-1))
	}

	if err := os.WriteFile(config.AsmFile, []byte(c.Output()), 0644); err != nil {
		return fmt.Errorf("cannot open file '%s': %w", config.AsmFile, err)
	}

	if args.Assemble {
		if err := runSubprocess("as", config.AsmFile, "-o", config.ObjFile); err != nil {
			return err
		}
		os.Remove(config.AsmFile)
	}

	if args.Link {
		if err := runSubprocess("ld", "-static", "-nostdlib", config.ObjFile,
			"-L.", "-L/lib64", "-L/usr/local/lib64", "-lb", "-o", args.Output); err != nil {
			return err
		}
		os.Remove(config.ObjFile)
	}

	return nil
}

func runSubprocess(name string, argv ...string) error {
	cmd := exec.Command(name, argv...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return fmt.Errorf("error running %s (exit code %d)", name, exitErr.ExitCode())
		}
		return fmt.Errorf("error executing '%s': %w", name, err)
	}
	return nil
}
