package nsresolve_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CindyWang1997/makergame/ast"
	"github.com/CindyWang1997/makergame/nsresolve"
)

func TestPrepareInjectsStdEverywhere(t *testing.T) {
	stdRoot := &ast.Namespace{}
	inner := &ast.Namespace{}
	root := &ast.Namespace{Inner: []ast.InnerNamespace{{Name: "inner", Ref: ast.ConcreteRef{NS: inner}}}}
	prog := &ast.Program{Root: root, Files: map[string]*ast.Namespace{"std.mg": stdRoot}}
	files := nsresolve.Files{"std.mg": stdRoot}

	require.NoError(t, nsresolve.Prepare(files, prog, "main.mg", "std.mg"))

	ns, err := nsresolve.Resolve(files, root, []string{"std"}, true)
	require.NoError(t, err)
	assert.Same(t, stdRoot, ns)

	ns, err = nsresolve.Resolve(files, inner, []string{"std"}, true)
	require.NoError(t, err)
	assert.Same(t, stdRoot, ns)
}

func TestPrepareDoesNotReinjectStdIntoItself(t *testing.T) {
	stdRoot := &ast.Namespace{}
	prog := &ast.Program{Root: stdRoot, Files: map[string]*ast.Namespace{"std.mg": stdRoot}}
	files := nsresolve.Files{"std.mg": stdRoot}

	require.NoError(t, nsresolve.Prepare(files, prog, "std.mg", "std.mg"))

	for _, in := range stdRoot.Inner {
		assert.NotEqual(t, "std", in.Name, "std.mg must not declare itself as a std child")
	}
}

func TestPrepareDetectsCircularFileDependency(t *testing.T) {
	a := &ast.Namespace{}
	b := &ast.Namespace{}
	a.Inner = []ast.InnerNamespace{{Name: "b", Ref: ast.FileRef{Path: "/b.mg"}}}
	b.Inner = []ast.InnerNamespace{{Name: "a", Ref: ast.FileRef{Path: "/a.mg"}}}

	files := nsresolve.Files{"/a.mg": a, "/b.mg": b}
	prog := &ast.Program{Root: a, Files: map[string]*ast.Namespace{"/a.mg": a, "/b.mg": b}}

	err := nsresolve.Prepare(files, prog, "/a.mg", "std.mg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circular file dependency")
}
