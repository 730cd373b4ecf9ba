package sema

import "github.com/CindyWang1997/makergame/ast"

// ValueDecl is what a name resolves to on the value side of a scope: a
// global, a local, a formal parameter, or (via `this`/member sugar) a
// member access target.
type ValueDecl struct {
	Type  ast.Type
	Chain []string // declaring namespace chain, re-qualifies the type at use sites
}

// FuncDecl is what a name resolves to on the function side of a scope.
type FuncDecl struct {
	Fn    *ast.Function
	Chain []string // declaring namespace chain
}

// Scope is a (value_scope, function_scope) pair, chained to a parent for
// block nesting. Namespace-level scopes have a nil parent; function bodies
// and nested blocks chain to their enclosing scope.
type Scope struct {
	parent *Scope
	values map[string]ValueDecl
	funcs  map[string]FuncDecl
}

// NewScope creates a scope chained to parent (nil for a namespace's own
// flat scope).
func NewScope(parent *Scope) *Scope {
	return &Scope{parent: parent, values: make(map[string]ValueDecl), funcs: make(map[string]FuncDecl)}
}

// DeclareValue adds name to this scope's value side. It rejects `this` and
// `super`, and rejects a name already declared in THIS scope (shadowing an
// outer scope's name is fine; shadowing within the same block is not).
func (s *Scope) DeclareValue(name string, d ValueDecl) error {
	if name == "this" || name == "super" {
		return errReserved(name)
	}
	if _, dup := s.values[name]; dup {
		return errDuplicateValue(name)
	}
	s.values[name] = d
	return nil
}

// DeclareFunc adds name to this scope's function side, subject to the same
// reserved-name and same-scope-duplicate rules as DeclareValue.
func (s *Scope) DeclareFunc(name string, d FuncDecl) error {
	if name == "this" || name == "super" {
		return errReserved(name)
	}
	if _, dup := s.funcs[name]; dup {
		return errDuplicateFunc(name)
	}
	s.funcs[name] = d
	return nil
}

// LookupValue walks the scope chain outward, returning the nearest binding.
func (s *Scope) LookupValue(name string) (ValueDecl, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if d, ok := sc.values[name]; ok {
			return d, true
		}
	}
	return ValueDecl{}, false
}

// LookupFunc walks the scope chain outward, returning the nearest binding.
func (s *Scope) LookupFunc(name string) (FuncDecl, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if d, ok := sc.funcs[name]; ok {
			return d, true
		}
	}
	return FuncDecl{}, false
}

// Child creates a nested scope for a block, method or loop body.
func (s *Scope) Child() *Scope { return NewScope(s) }
