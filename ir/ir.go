// Package ir implements the IR emitter (spec §4.4): it builds a
// control-flow graph per function with mangled labels, expanding
// `create`/`destroy`/`foreach` into the explicit heap, vtable and
// intrusive-list operations spec §4.3 describes, then prints the result as
// text for the compiler's `-l`/`-c` CLI modes.
package ir

import "github.com/CindyWang1997/makergame/ast"

// Instr is one instruction inside a Block.
type Instr interface{ instr() }

// Param is one function parameter.
type Param struct {
	Name string
	Type ast.Type
}

// Module is the whole program after lowering: one Function per free
// function, method and event handler, plus the global dispatch entry
// points (global_create, global_step, global_draw).
type Module struct {
	Functions []*Function
}

// Function is one emitted function: a mangled label, its CFG, and a
// trailing-terminator guarantee (every Block ends in a Terminator after
// Build returns).
type Function struct {
	Label      string
	Params     []Param
	ReturnType ast.Type
	Blocks     []*Block
	Extern     bool // true for pass-through extern declarations: no Blocks
}

// Block is one basic block: straight-line instructions plus exactly one
// terminator.
type Block struct {
	Label string
	Instr []Instr
	Term  Terminator
}

// Terminator is a Block's control transfer.
type Terminator interface{ term() }

// Jump unconditionally transfers to Target.
type Jump struct{ Target string }

func (Jump) term() {}

// CondJump transfers to Then if Cond is true, Else otherwise.
type CondJump struct {
	Cond       Value
	Then, Else string
}

func (CondJump) term() {}

// Return terminates the function, optionally with a value.
type Return struct{ Value Value }

func (Return) term() {}

// Unreachable marks a block the CFG builder knows cannot be entered (the
// synthetic successor after an unconditional break or return, per spec
// §4.4's "declares an unreachable successor block").
type Unreachable struct{}

func (Unreachable) term() {}

// Value is an operand reference: either a materialized temporary (from a
// prior instruction) or a source-level expression evaluated in place.
// Expr is kept as an ast.Expr (already fully typed and Conv-annotated by
// sema) rather than further reduced, so literals, identifiers and operator
// trees print exactly as the analyzer left them.
type Value struct {
	Temp string   // non-empty if this value is a prior instruction's result
	Expr ast.Expr // used when Temp == ""
}

func TempValue(name string) Value { return Value{Temp: name} }
func ExprValue(e ast.Expr) Value  { return Value{Expr: e} }

// --- Instructions ---

// Eval evaluates Expr for its side effects (a bare ExprStmt) or binds it to
// Dst ("" for no binding).
type Eval struct {
	Dst  string
	Expr ast.Expr
}

func (Eval) instr() {}

// DeclareLocal introduces a stack slot for a `T x;`/`T x = v;` declaration.
type DeclareLocal struct {
	Name string
	Type ast.Type
	Init Value // zero Value (Temp=="", Expr==nil) for no initializer
}

func (DeclareLocal) instr() {}

// Assign stores Value into Target (an lvalue: identifier, member, or
// subscript — already validated by sema's lvalue rule).
type Assign struct {
	Target ast.Expr
	Value  Value
}

func (Assign) instr() {}

// Alloc heap-allocates one instance of the named (mangled) layout and binds
// it to Dst as a root_ptr.
type Alloc struct {
	Dst        string
	LayoutName string
}

func (Alloc) instr() {}

// InitField zeroes/initializes Field of the object at Recv's root_ptr.
type InitField struct {
	Recv  string
	Field string
	Value Value
}

func (InitField) instr() {}

// ListInsertFront splices the node at (Recv, NodeField) immediately after
// the head sentinel of the named list (a type list or "general").
type ListInsertFront struct {
	Recv      string
	NodeField string
	ListName  string
}

func (ListInsertFront) instr() {}

// ListUnlink removes the node at (Recv, NodeField) from the named list.
type ListUnlink struct {
	Recv      string
	NodeField string
	ListName  string
}

func (ListUnlink) instr() {}

// NextID loads, increments and stores the process-wide id counter, binding
// the post-increment value to Dst (so the first id issued is 1).
type NextID struct{ Dst string }

func (NextID) instr() {}

// MakeRef constructs the (id, root_ptr) reference value bound to Dst.
type MakeRef struct {
	Dst  string
	ID   string // temp holding the id
	Root string // temp holding the root_ptr
}

func (MakeRef) instr() {}

// CallDirect calls a statically-known (non-virtual) function label: used
// for create events (never virtual) and `super.m(...)` dispatch.
type CallDirect struct {
	Dst   string // "" if the call's value is discarded
	Label string
	Args  []Value
}

func (CallDirect) instr() {}

// CallVirtual loads Event from Recv's vtable slot and calls it: used for
// step/draw/destroy dispatch and ordinary (non-super) method calls.
type CallVirtual struct {
	Dst   string
	Recv  string
	Event string // "step", "draw", "destroy", or a method's declared (unmangled) name
	Args  []Value
}

func (CallVirtual) instr() {}

// LoadField reads Field off Recv's root_ptr into Dst.
type LoadField struct {
	Dst   string
	Recv  string
	Field string
}

func (LoadField) instr() {}

// StoreField writes Value into Field off Recv's root_ptr.
type StoreField struct {
	Recv  string
	Field string
	Value Value
}

func (StoreField) instr() {}

// IterBegin starts a foreach(T x) traversal: Cursor is bound to the type
// list's head sentinel (spec §4.3's two-cursor iteration starts here).
type IterBegin struct {
	Cursor   string
	TypeList string
}

func (IterBegin) instr() {}

// IterAdvance moves Cursor to the next non-destroyed node (skipping zero-id
// nodes per the lazy-destruction rule) and binds HasNext (bool) and, when
// true, Elem (the live (id, root_ptr) reference) for the loop body.
type IterAdvance struct {
	HasNext string
	Elem    string
	Cursor  string
}

func (IterAdvance) instr() {}

// ReapStep walks the general list once: unlinking and freeing any node
// whose id is zero, otherwise invoking Event through its vtable. This is
// the body global_step/global_draw repeat per live object.
type ReapStep struct {
	Cursor string
	Event  string // "step" or "draw"
}

func (ReapStep) instr() {}
