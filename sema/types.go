package sema

import (
	"fmt"

	"github.com/CindyWang1997/makergame/ast"
)

// CheckAssign implements check_assign(expected, rvalue, actual) from spec
// §4.2: it returns the (possibly Conv-wrapped) expression to substitute for
// rvalue, or an error if the assignment is illegal.
//
//   - expected == actual: passes through unchanged.
//   - (Float, Int) or (Int, Float): wrapped in an explicit Conv.
//   - (Object p, Object c) where p is an ancestor of c, or c is none:
//     wrapped in an explicit Conv.
//   - otherwise: illegal assignment.
func (a *Analyzer) CheckAssign(expected ast.Type, rvalue ast.Expr, actual ast.Type) (ast.Expr, error) {
	if expected.Equal(actual) {
		return rvalue, nil
	}
	if expected.Kind == ast.KindFloat && actual.Kind == ast.KindInt {
		return a.factory.Conv(expected, rvalue, actual), nil
	}
	if expected.Kind == ast.KindInt && actual.Kind == ast.KindFloat {
		return a.factory.Conv(expected, rvalue, actual), nil
	}
	if expected.Kind == ast.KindObject && actual.Kind == ast.KindObject {
		if actual.IsNone() || a.isAncestor(expected, actual) {
			return a.factory.Conv(expected, rvalue, actual), nil
		}
	}
	return nil, fmt.Errorf("illegal assignment %s = %s", expected, actual)
}

// isAncestor reports whether p is an ancestor of (or equal to) c, by
// consulting the inheritance chains the analyzer has already resolved.
func (a *Analyzer) isAncestor(p, c ast.Type) bool {
	if p.Equal(c) {
		return true
	}
	chain := a.inheritanceChain(c)
	for _, t := range chain {
		if t.Equal(p) {
			return true
		}
	}
	return false
}

// commonAncestor returns the nearest type that is an ancestor of (or equal
// to) both a and b, used by `==`/`!=` widening between two object operands.
// It returns (type, true) when at least one of a, b is the other's ancestor
// or none.
func (an *Analyzer) commonAncestor(a, b ast.Type) (ast.Type, bool) {
	if b.IsNone() {
		return a, true
	}
	if a.IsNone() {
		return b, true
	}
	if an.isAncestor(a, b) {
		return a, true
	}
	if an.isAncestor(b, a) {
		return b, true
	}
	return ast.Type{}, false
}

// binaryNumericResult applies the mixed int/float promotion rule shared by
// arithmetic, equality and ordering operators: (Int,Int) stays Int;
// (Float,Float) stays Float; a mixed pair promotes the Int side to Float.
func binaryNumericResult(l, r ast.Type) (result ast.Type, convLeft, convRight bool, ok bool) {
	if !l.IsNumeric() || !r.IsNumeric() {
		return ast.Type{}, false, false, false
	}
	if l.Kind == r.Kind {
		return l, false, false, true
	}
	// Exactly one side is Int, the other Float.
	return ast.Float(), l.Kind == ast.KindInt, r.Kind == ast.KindInt, true
}
