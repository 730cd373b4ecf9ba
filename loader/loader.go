// Package loader assembles an *ast.Program from a main source buffer (read
// from standard input by the CLI) plus every file it transitively reaches
// through `namespace N = open "path";` declarations, and injects the
// standard namespace the semantic analyzer and lowerer both assume is
// present.
package loader

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/CindyWang1997/makergame/ast"
	"github.com/CindyWang1997/makergame/nsresolve"
	"github.com/CindyWang1997/makergame/parser"
)

//go:embed std.mg
var stdSource string

// StdPath is the key std.mg is stored under in the Files table, matching
// nsresolve.StdModulePath.
const StdPath = nsresolve.StdModulePath

// MainPath is the synthetic path attributed to the stdin buffer.
const MainPath = "<stdin>"

// Load parses src as the program's root namespace, resolves every `open`
// file it reaches relative to baseDir, injects std, and returns the
// assembled program together with the resolver's file table.
func Load(src, baseDir string) (*ast.Program, nsresolve.Files, error) {
	root, err := parser.Parse(src)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", MainPath, err)
	}

	files := nsresolve.Files{}
	stdNS, err := parser.Parse(stdSource)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", StdPath, err)
	}
	files[StdPath] = stdNS

	prog := &ast.Program{Root: root, Files: files}

	ld := &ldr{baseDir: baseDir, files: files}
	if err := ld.openAll(root, MainPath); err != nil {
		return nil, nil, err
	}

	if err := nsresolve.Prepare(files, prog, MainPath, StdPath); err != nil {
		return nil, nil, err
	}
	return prog, files, nil
}

type ldr struct {
	baseDir string
	files   nsresolve.Files
}

// openAll walks ns's Inner declarations, rewriting every FileRef path
// (resolved relative to baseDir) to its absolute form, reading and parsing
// each target from disk that isn't already loaded, and recursing into both
// Concrete and newly-loaded File namespaces. The std path is left as is.
func (l *ldr) openAll(ns *ast.Namespace, from string) error {
	for i, in := range ns.Inner {
		switch ref := in.Ref.(type) {
		case ast.ConcreteRef:
			if err := l.openAll(ref.NS, from); err != nil {
				return err
			}
		case ast.FileRef:
			if ref.Path == StdPath {
				continue
			}
			full := ref.Path
			if !filepath.IsAbs(full) {
				full = filepath.Join(l.baseDir, ref.Path)
			}
			if abs, err := filepath.Abs(full); err == nil {
				full = abs
			}
			ns.Inner[i].Ref = ast.FileRef{Path: full}
			if _, ok := l.files[full]; ok {
				continue
			}
			data, err := os.ReadFile(full)
			if err != nil {
				return fmt.Errorf("%s: cannot open %q: %w", from, ref.Path, err)
			}
			fileNS, err := parser.Parse(string(data))
			if err != nil {
				return fmt.Errorf("%s: %w", ref.Path, err)
			}
			l.files[full] = fileNS
			if err := l.openAll(fileNS, full); err != nil {
				return err
			}
		case ast.AliasRef:
			// No file to load; resolved lazily by nsresolve.Resolve.
		}
	}
	return nil
}
