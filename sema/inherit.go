package sema

import (
	"fmt"
	"strings"

	"github.com/CindyWang1997/makergame/ast"
)

// objEntry is one registered game object: its declaration plus the
// namespace chain it was declared under, both relative to Program.Root
// (every namespace chain embedded in a Type resolves from there, since
// Prepare injects `std` into Root too — see DESIGN.md).
type objEntry struct {
	Obj   *ast.GameObject
	Chain []string
}

func objKey(chain []string, name string) string {
	return strings.Join(chain, "::") + "#" + name
}

// rootObject is the synthetic root every object ultimately inherits from:
// { vtable_ptr, general_list_node, id } at the lowering layer; at the AST
// layer it is simply an object with no members and no-op events.
var rootObject = &ast.GameObject{
	Name: "object",
	Events: []ast.Event{
		{Name: "create", Fn: &ast.Function{ReturnType: ast.Void()}},
		{Name: "step", Fn: &ast.Function{ReturnType: ast.Void()}},
		{Name: "draw", Fn: &ast.Function{ReturnType: ast.Void()}},
		{Name: "destroy", Fn: &ast.Function{ReturnType: ast.Void()}},
	},
}

// collectObjects walks the Concrete-nested namespace tree and registers
// every declared game object by its absolute chain.
func (a *Analyzer) collectObjects(ns *ast.Namespace, chain []string) {
	for _, no := range ns.Objects {
		key := objKey(chain, no.Name)
		a.objects[key] = &objEntry{Obj: no.Obj, Chain: chain}
	}
	for _, in := range ns.Inner {
		if cr, ok := in.Ref.(ast.ConcreteRef); ok {
			a.collectObjects(cr.NS, append(append([]string{}, chain...), in.Name))
		}
	}
}

// lookupObject finds the registered declaration for an object type.
func (a *Analyzer) lookupObject(t ast.Type) (*objEntry, bool) {
	if t.Kind != ast.KindObject {
		return nil, false
	}
	if t.Name == "object" && len(t.Chain) == 0 {
		return &objEntry{Obj: rootObject}, true
	}
	e, ok := a.objects[objKey(t.Chain, t.Name)]
	return e, ok
}

// inheritanceChain returns t's ancestors, eldest first, NOT including t
// itself. Cycle detection uses declaration identity (*ast.GameObject).
func (a *Analyzer) inheritanceChain(t ast.Type) []ast.Type {
	chain, _ := a.inheritanceChainErr(t)
	return chain
}

func (a *Analyzer) inheritanceChainErr(t ast.Type) ([]ast.Type, error) {
	if t.IsNone() {
		return nil, nil
	}
	entry, ok := a.lookupObject(t)
	if !ok {
		return nil, fmt.Errorf("unknown object type %s", t)
	}
	var ancestors []ast.Type
	seen := map[*ast.GameObject]bool{entry.Obj: true}
	cur := entry
	for cur.Obj.Parent != nil {
		parentType := ast.Object(cur.Obj.Parent.Chain, cur.Obj.Parent.Name)
		parentEntry, ok := a.lookupObject(parentType)
		if !ok {
			return nil, fmt.Errorf("unknown parent %s", parentType)
		}
		if seen[parentEntry.Obj] {
			return nil, fmt.Errorf("inheritance cycle detected at %s", parentType)
		}
		seen[parentEntry.Obj] = true
		ancestors = append(ancestors, parentType)
		cur = parentEntry
	}
	// cur is now the eldest ancestor with Parent == nil; it implicitly
	// inherits from the synthetic root, unless it IS the synthetic root.
	if cur.Obj != rootObject {
		ancestors = append(ancestors, ast.Object(nil, "object"))
	}

	// Reverse to eldest-first.
	for i, j := 0, len(ancestors)-1; i < j; i, j = i+1, j-1 {
		ancestors[i], ancestors[j] = ancestors[j], ancestors[i]
	}
	return ancestors, nil
}

// fullChain returns t's inheritance chain INCLUDING t itself, eldest first
// (the glossary's "inheritance chain").
func (a *Analyzer) fullChain(t ast.Type) []ast.Type {
	return append(a.inheritanceChain(t), t)
}

// accumulatedMembers returns t's members in child-overrides-parent order:
// walking the full chain eldest-to-youngest and overwriting by name.
func (a *Analyzer) accumulatedMembers(t ast.Type) []ast.Member {
	byName := map[string]ast.Member{}
	var order []string
	for _, anc := range a.fullChain(t) {
		entry, ok := a.lookupObject(anc)
		if !ok {
			continue
		}
		for _, m := range entry.Obj.Members {
			if _, exists := byName[m.Name]; !exists {
				order = append(order, m.Name)
			}
			byName[m.Name] = m
		}
	}
	out := make([]ast.Member, 0, len(order))
	for _, n := range order {
		out = append(out, byName[n])
	}
	return out
}

// lookupMember finds a member's re-qualified type, and the chain of the
// object that declared it, by walking the inheritance chain child-to-parent
// (most derived definition wins).
func (a *Analyzer) lookupMember(t ast.Type, name string) (ast.Type, []string, bool) {
	chain := a.fullChain(t)
	for i := len(chain) - 1; i >= 0; i-- {
		entry, ok := a.lookupObject(chain[i])
		if !ok {
			continue
		}
		for _, m := range entry.Obj.Members {
			if m.Name == name {
				return ast.Requalify(m.Type, entry.Chain), entry.Chain, true
			}
		}
	}
	return ast.Type{}, nil, false
}

// methodEntry pairs a method with the namespace chain of the object that
// declared it, so its formal/return types re-qualify correctly wherever
// the method is called from.
type methodEntry struct {
	Name  string
	Fn    *ast.Function
	Chain []string
}

// accumulatedMethods returns t's methods in child-overrides-parent order,
// walking the full chain eldest-to-youngest and overwriting by name — the
// function-side analogue of accumulatedMembers. This is what lets an
// object's own event/method bodies call an ancestor's method unqualified,
// the way `compute()` inside a child's `create` event reaches a method
// declared only on its parent.
func (a *Analyzer) accumulatedMethods(t ast.Type) []methodEntry {
	byName := map[string]methodEntry{}
	var order []string
	for _, anc := range a.fullChain(t) {
		entry, ok := a.lookupObject(anc)
		if !ok {
			continue
		}
		for _, nf := range entry.Obj.Methods {
			if _, exists := byName[nf.Name]; !exists {
				order = append(order, nf.Name)
			}
			byName[nf.Name] = methodEntry{Name: nf.Name, Fn: nf.Fn, Chain: entry.Chain}
		}
	}
	out := make([]methodEntry, 0, len(order))
	for _, n := range order {
		out = append(out, byName[n])
	}
	return out
}

// lookupMethod finds a method by walking the inheritance chain
// child-to-parent; the most derived definition wins (virtual dispatch).
func (a *Analyzer) lookupMethod(t ast.Type, name string) (*ast.Function, []string, bool) {
	chain := a.fullChain(t)
	for i := len(chain) - 1; i >= 0; i-- {
		entry, ok := a.lookupObject(chain[i])
		if !ok {
			continue
		}
		for _, m := range entry.Obj.Methods {
			if m.Name == name {
				return m.Fn, entry.Chain, true
			}
		}
	}
	return nil, nil, false
}

// FullChain exposes fullChain for downstream passes (object-model lowering,
// IR emission) that need an object type's ancestry including itself.
func (a *Analyzer) FullChain(t ast.Type) []ast.Type { return a.fullChain(t) }

// Members exposes accumulatedMembers for downstream passes.
func (a *Analyzer) Members(t ast.Type) []ast.Member { return a.accumulatedMembers(t) }

// Methods returns t's own declared methods only; methods inherited from
// its ancestors are not included.
func (a *Analyzer) Methods(t ast.Type) []ast.NamedFunction {
	entry, ok := a.lookupObject(t)
	if !ok {
		return nil
	}
	return entry.Obj.Methods
}

// Events returns t's own declared events (not inherited; dispatch for
// step/draw/destroy goes through the vtable, and create is found by a
// nearest-ancestor walk over each type's own events).
func (a *Analyzer) Events(t ast.Type) []ast.Event {
	entry, ok := a.lookupObject(t)
	if !ok {
		return nil
	}
	return entry.Obj.Events
}

// ObjectChain returns the declaring namespace chain recorded for t.
func (a *Analyzer) ObjectChain(t ast.Type) []string {
	entry, ok := a.lookupObject(t)
	if !ok {
		return nil
	}
	return entry.Chain
}

// AllObjectTypes returns every registered concrete object type (excluding
// the synthetic root), in an unspecified order; callers that need
// determinism should sort the result.
func (a *Analyzer) AllObjectTypes() []ast.Type {
	out := make([]ast.Type, 0, len(a.objects))
	for _, e := range a.objects {
		out = append(out, ast.Object(e.Chain, e.Obj.Name))
	}
	return out
}

// NearestCreate exposes nearestCreate to other packages. The IR emitter's
// create expansion does its own nearest-ancestor walk and does not call it.
func (a *Analyzer) NearestCreate(t ast.Type) *ast.Function { return a.nearestCreate(t) }

// LookupMethod exposes lookupMethod for the IR emitter's virtual dispatch
// lowering.
func (a *Analyzer) LookupMethod(t ast.Type, name string) (*ast.Function, []string, bool) {
	return a.lookupMethod(t, name)
}

// nearestCreate walks the inheritance chain youngest-to-oldest and returns
// the nearest ancestor's (or t's own) `create` event. The synthetic root's
// no-arg create is the base case, so this always succeeds for a
// well-formed object type.
func (a *Analyzer) nearestCreate(t ast.Type) *ast.Function {
	chain := a.fullChain(t)
	for i := len(chain) - 1; i >= 0; i-- {
		entry, ok := a.lookupObject(chain[i])
		if !ok {
			continue
		}
		if fn := entry.Obj.Event("create"); fn != nil {
			return fn
		}
	}
	return rootObject.Event("create")
}
