// Package lower implements object-model lowering (spec §4.3): it turns the
// analyzer's object registry into concrete struct layouts, per-type
// vtables, and the two intrusive linked-list shapes (type list, general
// list) that `create`, `destroy` and `foreach` compile down to. The IR
// emitter consumes a Registry to expand those surface constructs into
// explicit field and pointer operations.
package lower

import (
	"fmt"

	"github.com/CindyWang1997/makergame/ast"
	"github.com/CindyWang1997/makergame/internal/mangle"
	"github.com/CindyWang1997/makergame/sema"
)

// Field is one slot of a Layout, in emission order.
type Field struct {
	Name string
	Type ast.Type
}

// Layout is one concrete object type's struct shape: the root prefix
// (vtable pointer, general list node, id), then each ancestor's own type
// list node and members, parent-first, ending with the type's own members.
type Layout struct {
	TypeName string // mangled
	Type     ast.Type
	Fields   []Field // includes RootField/TypeListNodeField markers by convention, see below
}

// The root prefix is present, by convention, as the first three fields of
// every Layout: vtable_ptr, general_list_node, id. Each type in the chain,
// the root object included, then contributes one type-list-node field
// (named "<type>_node") followed by the members it adds, in parent-to-child
// order.
const (
	FieldVtablePtr       = "vtable_ptr"
	FieldGeneralListNode = "general_list_node"
	FieldID              = "id"
)

// Vtable is a concrete type's static dispatch table. create is deliberately
// absent: it is never virtual (spec §4.3).
type Vtable struct {
	TypeName  string // mangled
	StepFn    string // mangled label of the nearest ancestor's step (the root object always supplies one)
	DrawFn    string
	DestroyFn string
}

// Registry holds every concrete type's Layout and Vtable, keyed by mangled
// type name, plus the analyzer it was built from (needed to resolve event
// dispatch targets during IR emission).
type Registry struct {
	Analyzer *sema.Analyzer
	Layouts  map[string]*Layout
	Vtables  map[string]*Vtable
	order    []string // deterministic emission order, mangled names
}

// Order returns the mangled type names in the deterministic order they were
// registered (root-to-leaf namespace/object traversal order).
func (r *Registry) Order() []string { return r.order }

// Build walks every object type the analyzer registered and computes its
// Layout and Vtable. Types must already have passed inheritance-cycle
// checking (sema.Analyzer.Analyze does this before lowering ever runs).
func Build(a *sema.Analyzer, types []ast.Type) (*Registry, error) {
	reg := &Registry{Analyzer: a, Layouts: make(map[string]*Layout), Vtables: make(map[string]*Vtable)}
	for _, t := range types {
		if err := reg.buildOne(t); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func (r *Registry) buildOne(t ast.Type) error {
	name := mangle.Type(r.Analyzer.ObjectChain(t), t.Name)
	if _, ok := r.Layouts[name]; ok {
		return nil
	}

	var fields []Field
	fields = append(fields, Field{Name: FieldVtablePtr}, Field{Name: FieldGeneralListNode}, Field{Name: FieldID, Type: ast.Int()})

	chain := r.Analyzer.FullChain(t) // ancestors eldest-first, then t itself
	seenMembers := map[string]bool{}
	// Each ancestor contributes its type-list node followed by the members
	// it adds, so a parent's layout is a prefix of its child's. A member
	// name that a descendant redeclares keeps the single slot where it
	// first appears in the chain.
	for _, anc := range chain {
		ancName := mangle.Type(r.Analyzer.ObjectChain(anc), anc.Name)
		fields = append(fields, Field{Name: ancName + "_node"})
		for _, m := range ancMembersDeclaredOn(r.Analyzer, anc) {
			if seenMembers[m.Name] {
				continue
			}
			seenMembers[m.Name] = true
			fields = append(fields, Field{Name: m.Name, Type: m.Type})
		}
	}

	r.Layouts[name] = &Layout{TypeName: name, Type: t, Fields: fields}
	r.Vtables[name] = r.buildVtable(name, t, chain)
	r.order = append(r.order, name)
	return nil
}

// ancMembersDeclaredOn returns anc's accumulated members (its own plus
// everything it inherits). Called once per ancestor in buildOne's chain
// walk, so a shared grandparent's members are produced redundantly by more
// than one call; seenMembers in the caller dedupes them back down to one
// field per name, in the eldest-to-youngest order the outer loop visits
// ancestors in.
func ancMembersDeclaredOn(a *sema.Analyzer, t ast.Type) []ast.Member {
	return a.Members(t)
}

func (r *Registry) buildVtable(name string, t ast.Type, chain []ast.Type) *Vtable {
	vt := &Vtable{TypeName: name}
	for i := len(chain) - 1; i >= 0; i-- {
		anc := chain[i]
		for _, ev := range r.Analyzer.Events(anc) {
			label := mangle.Func(r.Analyzer.ObjectChain(anc), anc.Name, "event_"+ev.Name)
			switch ev.Name {
			case "step":
				if vt.StepFn == "" {
					vt.StepFn = label
				}
			case "draw":
				if vt.DrawFn == "" {
					vt.DrawFn = label
				}
			case "destroy":
				if vt.DestroyFn == "" {
					vt.DestroyFn = label
				}
			}
		}
	}
	return vt
}

// Layout looks up a concrete type's layout by its ast.Type.
func (r *Registry) Layout(a *sema.Analyzer, t ast.Type) (*Layout, error) {
	name := mangle.Type(a.ObjectChain(t), t.Name)
	l, ok := r.Layouts[name]
	if !ok {
		return nil, fmt.Errorf("no layout registered for %s", t)
	}
	return l, nil
}
