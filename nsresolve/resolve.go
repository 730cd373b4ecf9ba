// Package nsresolve implements the namespace resolver (spec §4.1): given a
// namespace chain, it walks the Concrete/Alias/File graph declared by
// `namespace` entries and returns the concrete namespace the chain denotes,
// enforcing privacy and rejecting resolution loops.
package nsresolve

import (
	"fmt"
	"strings"

	"github.com/CindyWang1997/makergame/ast"
)

// Files maps an absolute source path to the root namespace parsed from it.
// The caller (an external parser, per spec §1) is responsible for populating
// this; the resolver only reads it when it follows a File namespace entry.
type Files map[string]*ast.Namespace

// Resolve answers "which concrete namespace does chain refer to, starting
// the walk at top?" Loop detection state is local to one call: resolving
// the same chain a second time (e.g. nested inside another resolver
// invocation) starts a fresh record.
func Resolve(files Files, top *ast.Namespace, chain []string, allowPrivate bool) (*ast.Namespace, error) {
	seen := newSeenSet()
	return resolveWithin(files, top, top, chain, allowPrivate, seen)
}

// seenSet records (namespace-identity, residual-chain) pairs visited during
// one top-level Resolve call.
type seenSet struct {
	byNS map[*ast.Namespace]map[string]bool
}

func newSeenSet() *seenSet { return &seenSet{byNS: make(map[*ast.Namespace]map[string]bool)} }

func (s *seenSet) seenBefore(ns *ast.Namespace, chain []string) bool {
	key := strings.Join(chain, "::")
	inner, ok := s.byNS[ns]
	if !ok {
		return false
	}
	return inner[key]
}

func (s *seenSet) record(ns *ast.Namespace, chain []string) {
	key := strings.Join(chain, "::")
	inner, ok := s.byNS[ns]
	if !ok {
		inner = make(map[string]bool)
		s.byNS[ns] = inner
	}
	inner[key] = true
}

func resolveWithin(files Files, originalTop, cur *ast.Namespace, chain []string, allowPrivate bool, seen *seenSet) (*ast.Namespace, error) {
	if len(chain) == 0 {
		return cur, nil
	}

	if seen.seenBefore(cur, chain) {
		return nil, fmt.Errorf("namespace %q never resolves", strings.Join(chain, "::"))
	}
	seen.record(cur, chain)

	seg := chain[0]
	rest := chain[1:]

	entry, ok := findInner(cur, seg)
	if !ok {
		return nil, fmt.Errorf("unrecognized namespace %q", seg)
	}
	if entry.Private && !allowPrivate {
		return nil, fmt.Errorf("attempted access to private namespace %q", seg)
	}

	switch ref := entry.Ref.(type) {
	case ast.ConcreteRef:
		return resolveWithin(files, originalTop, ref.NS, rest, false, seen)
	case ast.AliasRef:
		// Aliases cross privacy walls once: the remainder is resolved from
		// the original top of this resolution with allow_private=true.
		newChain := make([]string, 0, len(ref.Chain)+len(rest))
		newChain = append(newChain, ref.Chain...)
		newChain = append(newChain, rest...)
		return resolveWithin(files, originalTop, originalTop, newChain, true, seen)
	case ast.FileRef:
		fileNS, ok := files[ref.Path]
		if !ok {
			return nil, fmt.Errorf("cannot find required file %q", ref.Path)
		}
		// Entering a file starts a fresh resolution: a new original top and
		// a new loop-detection record.
		return Resolve(files, fileNS, rest, false)
	default:
		return nil, fmt.Errorf("unrecognized namespace reference kind for %q", seg)
	}
}

// findInner looks up name among ns's declared inner namespaces, in
// declaration order, returning the first match.
func findInner(ns *ast.Namespace, name string) (ast.InnerNamespace, bool) {
	for _, in := range ns.Inner {
		if in.Name == name {
			return in, true
		}
	}
	return ast.InnerNamespace{}, false
}
