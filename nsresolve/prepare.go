package nsresolve

import (
	"fmt"

	"github.com/CindyWang1997/makergame/ast"
)

// StdModulePath is the key the standard namespace's source file is stored
// under. Unlike other file paths, the loader keeps it as the literal
// "std.mg" rather than resolving it to an absolute form.
const StdModulePath = "std.mg"

// Prepare walks the namespace/file graph reachable from prog.Root, injecting
// the private `std` entry (spec §4.1) into every namespace whose active
// forbidden-files set does not already contain stdPath, and detects
// circular `open` file dependencies. It mutates the program in place and
// must run once, before any Resolve calls, so that `std::...` chains are
// resolvable everywhere.
func Prepare(files Files, prog *ast.Program, rootPath, stdPath string) error {
	p := &preparer{files: files, stdPath: stdPath, visited: make(map[*ast.Namespace]bool)}
	return p.walk(prog.Root, rootPath, map[string]bool{rootPath: true})
}

type preparer struct {
	files   Files
	stdPath string
	visited map[*ast.Namespace]bool
}

func (p *preparer) walk(ns *ast.Namespace, file string, forbidden map[string]bool) error {
	if p.visited[ns] {
		return nil
	}
	p.visited[ns] = true

	p.injectStd(ns, forbidden)

	for _, in := range ns.Inner {
		switch ref := in.Ref.(type) {
		case ast.ConcreteRef:
			if err := p.walk(ref.NS, file, forbidden); err != nil {
				return err
			}
		case ast.FileRef:
			if forbidden[ref.Path] {
				return fmt.Errorf("%s: circular file dependency on %q", file, ref.Path)
			}
			fileNS, ok := p.files[ref.Path]
			if !ok {
				return fmt.Errorf("%s: cannot find required file %q", file, ref.Path)
			}
			next := make(map[string]bool, len(forbidden)+1)
			for k := range forbidden {
				next[k] = true
			}
			next[ref.Path] = true
			if err := p.walk(fileNS, ref.Path, next); err != nil {
				return err
			}
		case ast.AliasRef:
			// No graph edge to follow; the chain is resolved lazily by Resolve.
		}
	}
	return nil
}

// injectStd adds a private `std` entry unless stdPath is already in the
// active forbidden set (we are inside std.mg's own inclusion chain) or the
// namespace already declares one (idempotent re-Prepare).
func (p *preparer) injectStd(ns *ast.Namespace, forbidden map[string]bool) {
	if forbidden[p.stdPath] {
		return
	}
	for _, in := range ns.Inner {
		if in.Name == "std" {
			return
		}
	}
	ns.Inner = append(ns.Inner, ast.InnerNamespace{
		Name:    "std",
		Private: true,
		Ref:     ast.FileRef{Path: p.stdPath},
	})
}
