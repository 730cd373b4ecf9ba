// Package cmd wires the compiler into a single-command CLI: one of three
// mutually exclusive mode flags selects whether standard input is echoed
// back as its parsed AST, its lowered IR, or its validated lowered IR
// (spec §6's Compiler CLI).
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/kr/pretty"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/CindyWang1997/makergame/ast"
	"github.com/CindyWang1997/makergame/ir"
	"github.com/CindyWang1997/makergame/loader"
	"github.com/CindyWang1997/makergame/lower"
	"github.com/CindyWang1997/makergame/sema"
)

// Command builds the root cli.Command. Exposed as a function (rather than a
// package-level var) so tests can construct and Run it against a fake
// stdin/stdout without touching the process-global os.Stdin.
func Command(version string) *cli.Command {
	return &cli.Command{
		Name:    "makergame",
		Usage:   "Compiler for the object-lifecycle game-scripting language",
		Version: version,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "a", Usage: "print the parsed AST"},
			&cli.BoolFlag{Name: "l", Usage: "print the lowered IR without final validation"},
			&cli.BoolFlag{Name: "c", Usage: "print the lowered IR after validating it (default)"},
		},
		Action: action,
	}
}

func action(ctx context.Context, cmd *cli.Command) error {
	mode, err := resolveMode(cmd)
	if err != nil {
		return err
	}
	src, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("reading standard input: %w", err)
	}
	out, err := Run(mode, string(src))
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}

// Mode selects one of the CLI's three output forms.
type Mode int

const (
	ModeAST Mode = iota
	ModeIR
	ModeIRValidated
)

func resolveMode(cmd *cli.Command) (Mode, error) {
	a, l, c := cmd.Bool("a"), cmd.Bool("l"), cmd.Bool("c")
	count := 0
	for _, b := range []bool{a, l, c} {
		if b {
			count++
		}
	}
	if count > 1 {
		return 0, fmt.Errorf("-a, -l and -c are mutually exclusive")
	}
	switch {
	case a:
		return ModeAST, nil
	case l:
		return ModeIR, nil
	default:
		return ModeIRValidated, nil
	}
}

// Run executes the full pipeline (load, namespace-resolve, analyze, lower,
// emit) and renders the result in the requested Mode. Opened files are
// resolved relative to the process's working directory.
func Run(mode Mode, src string) (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	prog, files, err := loader.Load(src, wd)
	if err != nil {
		return "", err
	}

	if mode == ModeAST {
		return astOutput(prog.Root), nil
	}

	an := sema.New(prog, files)
	if err := an.Analyze(loader.MainPath); err != nil {
		return "", err
	}

	reg, err := lower.Build(an, an.AllObjectTypes())
	if err != nil {
		return "", err
	}

	mod, err := ir.Build(prog, an, reg)
	if err != nil {
		return "", err
	}

	if mode == ModeIRValidated {
		if err := mod.Validate(); err != nil {
			return "", fmt.Errorf("invalid lowered module: %w", err)
		}
	}
	return mod.String(), nil
}

// astOutput renders the parsed namespace tree for `-a` in kr/pretty's
// multi-line `%# v` form. The terminal branch goes through pretty.Sprint and
// the piped branch through pretty.Formatter; both produce the same text.
func astOutput(root *ast.Namespace) string {
	if term.IsTerminal(int(os.Stdout.Fd())) {
		return pretty.Sprint(root) + "\n"
	}
	return fmt.Sprintf("%# v\n", pretty.Formatter(root))
}
