package nsresolve_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CindyWang1997/makergame/ast"
	"github.com/CindyWang1997/makergame/nsresolve"
)

func TestResolveEmptyChainReturnsTop(t *testing.T) {
	top := &ast.Namespace{}
	got, err := nsresolve.Resolve(nil, top, nil, false)
	require.NoError(t, err)
	assert.Same(t, top, got)
}

func TestResolveUnrecognizedNamespace(t *testing.T) {
	top := &ast.Namespace{}
	_, err := nsresolve.Resolve(nil, top, []string{"missing"}, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unrecognized namespace")
}

func TestResolvePrivacyViolation(t *testing.T) {
	inner := &ast.Namespace{}
	top := &ast.Namespace{Inner: []ast.InnerNamespace{
		{Name: "secret", Private: true, Ref: ast.ConcreteRef{NS: inner}},
	}}
	_, err := nsresolve.Resolve(nil, top, []string{"secret"}, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "private")
}

func TestResolveConcreteAllowsPrivateWithFlag(t *testing.T) {
	inner := &ast.Namespace{}
	top := &ast.Namespace{Inner: []ast.InnerNamespace{
		{Name: "secret", Private: true, Ref: ast.ConcreteRef{NS: inner}},
	}}
	got, err := nsresolve.Resolve(nil, top, []string{"secret"}, true)
	require.NoError(t, err)
	assert.Same(t, inner, got)
}

func TestResolveConcreteRecursionIsNotPrivate(t *testing.T) {
	// secret is public, so the first segment resolves; recursion into
	// Concrete(secret) continues with allow_private=false, so looking up
	// the private deeper namespace fails.
	deeper := &ast.Namespace{}
	inner := &ast.Namespace{Inner: []ast.InnerNamespace{
		{Name: "deeper", Private: true, Ref: ast.ConcreteRef{NS: deeper}},
	}}
	top := &ast.Namespace{Inner: []ast.InnerNamespace{
		{Name: "secret", Private: false, Ref: ast.ConcreteRef{NS: inner}},
	}}
	_, err := nsresolve.Resolve(nil, top, []string{"secret", "deeper"}, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "private")
}

func TestResolveAliasCrossesPrivacyOnce(t *testing.T) {
	target := &ast.Namespace{}
	top := &ast.Namespace{}
	top.Inner = []ast.InnerNamespace{
		{Name: "hidden", Private: true, Ref: ast.ConcreteRef{NS: target}},
		{Name: "pub", Private: false, Ref: ast.AliasRef{Chain: []string{"hidden"}}},
	}
	got, err := nsresolve.Resolve(nil, top, []string{"pub"}, false)
	require.NoError(t, err)
	assert.Same(t, target, got)
}

func TestResolveAliasCycleDetected(t *testing.T) {
	top := &ast.Namespace{}
	top.Inner = []ast.InnerNamespace{
		{Name: "a", Private: false, Ref: ast.AliasRef{Chain: []string{"b"}}},
		{Name: "b", Private: false, Ref: ast.AliasRef{Chain: []string{"a"}}},
	}
	_, err := nsresolve.Resolve(nil, top, []string{"a"}, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "never resolves")
}

func TestResolveFileRef(t *testing.T) {
	fileRoot := &ast.Namespace{}
	files := nsresolve.Files{"/abs/other.mg": fileRoot}
	top := &ast.Namespace{Inner: []ast.InnerNamespace{
		{Name: "other", Private: false, Ref: ast.FileRef{Path: "/abs/other.mg"}},
	}}
	got, err := nsresolve.Resolve(files, top, []string{"other"}, false)
	require.NoError(t, err)
	assert.Same(t, fileRoot, got)
}

// TestResolveDeepHomonymousNestingIsNotACycle mirrors spec scenario 5:
// declaring `object A : S::A { }` inside four nested `namespace S { ... }`
// layers must not trip loop detection, because each layer is a distinct
// *ast.Namespace even though every segment is named "S".
func TestResolveDeepHomonymousNestingIsNotACycle(t *testing.T) {
	s4 := &ast.Namespace{}
	s3 := &ast.Namespace{Inner: []ast.InnerNamespace{{Name: "S", Ref: ast.ConcreteRef{NS: s4}}}}
	s2 := &ast.Namespace{Inner: []ast.InnerNamespace{{Name: "S", Ref: ast.ConcreteRef{NS: s3}}}}
	s1 := &ast.Namespace{Inner: []ast.InnerNamespace{{Name: "S", Ref: ast.ConcreteRef{NS: s2}}}}
	top := &ast.Namespace{Inner: []ast.InnerNamespace{{Name: "S", Ref: ast.ConcreteRef{NS: s1}}}}

	got, err := nsresolve.Resolve(nil, top, []string{"S", "S", "S", "S"}, false)
	require.NoError(t, err)
	assert.Same(t, s4, got)
}
