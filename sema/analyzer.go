// Package sema implements the semantic analyzer (spec §4.2): namespace-level
// scope construction from `using` closures, duplicate and reserved-name
// rejection, inheritance chain resolution, expression and statement type
// checking, lvalue enforcement, and for-loop desugaring. It rewrites the AST
// in place via ast.Factory, inserting explicit Conv nodes so the lowerer
// never has to re-derive an implicit conversion.
package sema

import (
	"fmt"

	"github.com/CindyWang1997/makergame/ast"
	"github.com/CindyWang1997/makergame/nsresolve"
)

// Analyzer holds the state threaded through one Analyze call: the program
// being checked, the file each diagnostic should be attributed to, and the
// object registry inheritance resolution consults.
type Analyzer struct {
	prog    *ast.Program
	files   nsresolve.Files
	factory *ast.Factory
	file    string

	objects map[string]*objEntry

	// loopDepth tracks nested while/for/foreach bodies so `break` can be
	// rejected outside a loop.
	loopDepth int
}

// ctx is the per-function checking context: the lexical scope plus whatever
// `this` resolves to (selfType, valid only when hasSelf) and the declared
// return type `return` statements are checked against.
type ctx struct {
	scope      *Scope
	hasSelf    bool
	selfType   ast.Type
	returnType ast.Type
	nsChain    []string
}

func (c *ctx) child() *ctx {
	cp := *c
	cp.scope = c.scope.Child()
	return &cp
}

// New creates an Analyzer for prog. files is the resolver's file table
// (already Prepare'd: std injected, no unresolved file cycles).
func New(prog *ast.Program, files nsresolve.Files) *Analyzer {
	a := &Analyzer{
		prog:    prog,
		files:   files,
		factory: ast.NewFactory(),
		objects: make(map[string]*objEntry),
	}
	return a
}

// Analyze runs the full semantic pass over the program: it builds the object
// registry, then walks the root namespace and its inline (Concrete)
// children checking globals, free functions and game objects; namespaces
// loaded from other files are not walked. It returns the first error encountered (analysis is
// fail-fast, per the language's all-errors-fatal policy).
func (a *Analyzer) Analyze(file string) error {
	a.file = file
	a.collectObjects(a.prog.Root, nil)
	if err := a.checkInheritanceGraph(); err != nil {
		return err
	}
	return a.checkNamespace(a.prog.Root, nil)
}

// checkInheritanceGraph eagerly resolves every registered object's chain so
// a cycle or dangling parent is reported before any function body is
// checked against it.
func (a *Analyzer) checkInheritanceGraph() error {
	for _, entry := range a.objects {
		t := ast.Object(entry.Chain, entry.Obj.Name)
		if _, err := a.inheritanceChainErr(t); err != nil {
			return a.wrap(entry.Obj.Line, err)
		}
	}
	return nil
}

// checkNamespace validates one namespace's own declarations (globals, free
// functions, game objects) and recurses into its Concrete children.
func (a *Analyzer) checkNamespace(ns *ast.Namespace, chain []string) error {
	scope, err := a.buildScope(ns, chain, map[*ast.Namespace]bool{})
	if err != nil {
		return err
	}

	for i := range ns.Globals {
		if err := a.checkGlobal(scope, chain, &ns.Globals[i]); err != nil {
			return err
		}
	}
	for _, nf := range ns.Functions {
		if err := a.checkFunction(&ctx{scope: scope, nsChain: chain}, nf.Fn); err != nil {
			return err
		}
	}
	for _, no := range ns.Objects {
		if err := a.checkObject(scope, no.Obj, chain); err != nil {
			return err
		}
	}
	for _, in := range ns.Inner {
		if cr, ok := in.Ref.(ast.ConcreteRef); ok {
			childChain := append(append([]string{}, chain...), in.Name)
			if err := a.checkNamespace(cr.NS, childChain); err != nil {
				return err
			}
		}
	}
	return nil
}

// buildScope constructs ns's flat (value_scope, function_scope) pair: the
// transitive closure of its `using` imports (public and private alike, per
// the analyzer's resolution of the spec's open question on private-using
// visibility — see DESIGN.md) folded with ns's own globals and functions,
// which are added last into the same scope; an own name that repeats an
// imported one is reported as a duplicate declaration.
func (a *Analyzer) buildScope(ns *ast.Namespace, chain []string, visited map[*ast.Namespace]bool) (*Scope, error) {
	scope := NewScope(nil)
	if visited[ns] {
		return scope, nil
	}
	visited[ns] = true

	for _, u := range ns.Uses {
		target, err := nsresolve.Resolve(a.files, ns, u.Chain, true)
		if err != nil {
			return nil, a.wrap(u.Line, fmt.Errorf("cannot resolve using %q: %w", joinChain(u.Chain), err))
		}
		imported, err := a.buildScope(target, u.Chain, visited)
		if err != nil {
			return nil, err
		}
		for name, d := range imported.values {
			scope.values[name] = d
		}
		for name, d := range imported.funcs {
			scope.funcs[name] = d
		}
	}

	for _, g := range ns.Globals {
		if err := scope.DeclareValue(g.Name, ValueDecl{Type: g.Type, Chain: chain}); err != nil {
			return nil, a.wrap(g.Line, err)
		}
	}
	for _, nf := range ns.Functions {
		if err := scope.DeclareFunc(nf.Name, FuncDecl{Fn: nf.Fn, Chain: chain}); err != nil {
			return nil, a.wrap(nf.Fn.Line, err)
		}
	}
	return scope, nil
}

func (a *Analyzer) checkGlobal(scope *Scope, chain []string, g *ast.Global) error {
	if g.Init == nil {
		return nil
	}
	c := &ctx{scope: scope, nsChain: chain}
	if err := a.checkExpr(c, g.Init); err != nil {
		return err
	}
	conv, err := a.CheckAssign(g.Type, g.Init, g.Init.ExprType())
	if err != nil {
		return a.wrap(g.Line, err)
	}
	g.Init = conv
	return nil
}

// checkObject validates one game object's methods and events against its
// own scope plus the object's accumulated members, with `this` bound to
// selfType for the duration of each body.
func (a *Analyzer) checkObject(nsScope *Scope, obj *ast.GameObject, chain []string) error {
	if err := checkObjectOwnDuplicates(obj); err != nil {
		return a.wrap(obj.Line, err)
	}

	selfType := ast.Object(chain, obj.Name)
	objScope := nsScope.Child()
	for _, m := range a.accumulatedMembers(selfType) {
		if err := objScope.DeclareValue(m.Name, ValueDecl{Type: m.Type, Chain: chain}); err != nil {
			return a.wrap(obj.Line, err)
		}
	}
	for _, m := range a.accumulatedMethods(selfType) {
		if err := objScope.DeclareFunc(m.Name, FuncDecl{Fn: m.Fn, Chain: m.Chain}); err != nil {
			return a.wrap(obj.Line, err)
		}
	}

	base := &ctx{scope: objScope, hasSelf: true, selfType: selfType, nsChain: chain}
	for _, nf := range obj.Methods {
		if err := a.checkFunction(base, nf.Fn); err != nil {
			return err
		}
	}
	for _, ev := range obj.Events {
		if err := a.checkFunction(base, ev.Fn); err != nil {
			return err
		}
	}
	return nil
}

// checkObjectOwnDuplicates rejects a duplicate member, method, or event
// name declared twice on the SAME object — accumulatedMethods folds the
// whole inheritance chain by name (child overrides parent), which would
// otherwise silently swallow a same-object duplicate instead of rejecting
// it.
func checkObjectOwnDuplicates(obj *ast.GameObject) error {
	members := map[string]bool{}
	for _, m := range obj.Members {
		if members[m.Name] {
			return fmt.Errorf("duplicate member %q on object %q", m.Name, obj.Name)
		}
		members[m.Name] = true
	}
	methods := map[string]bool{}
	for _, nf := range obj.Methods {
		if methods[nf.Name] {
			return fmt.Errorf("duplicate method %q on object %q", nf.Name, obj.Name)
		}
		methods[nf.Name] = true
	}
	events := map[string]bool{}
	for _, ev := range obj.Events {
		if events[ev.Name] {
			return fmt.Errorf("duplicate event %q on object %q", ev.Name, obj.Name)
		}
		events[ev.Name] = true
	}
	return nil
}

func joinChain(chain []string) string {
	out := ""
	for i, c := range chain {
		if i > 0 {
			out += "::"
		}
		out += c
	}
	return out
}
