package ir

import (
	"fmt"

	"github.com/CindyWang1997/makergame/ast"
	"github.com/CindyWang1997/makergame/internal/mangle"
	"github.com/CindyWang1997/makergame/lower"
	"github.com/CindyWang1997/makergame/sema"
)

// Build walks prog's namespace tree and emits one Function per free
// function, object method and event, plus global_create/global_step/
// global_draw. prog must already have passed sema.Analyzer.Analyze, and
// reg must have been built from the same analyzer.
func Build(prog *ast.Program, a *sema.Analyzer, reg *lower.Registry) (*Module, error) {
	b := &builder{analyzer: a, reg: reg, mod: &Module{}}
	b.emitRootDefaults()
	if err := b.walkNamespace(prog.Root, nil); err != nil {
		return nil, err
	}
	if err := b.emitGlobalDispatch(); err != nil {
		return nil, err
	}
	return b.mod, nil
}

// emitRootDefaults backs the synthetic root object's no-op
// create/step/draw/destroy with real functions: the root is never a
// declared ast.GameObject walkNamespace visits on its own, but any object
// whose whole ancestry never overrides one of these events still dispatches
// to it (vtable fallback, or the create expression's nearest-ancestor
// lookup landing on the root, spec §4.3).
func (b *builder) emitRootDefaults() {
	root := ast.Object(nil, "object")
	for _, name := range []string{"event_create", "event_step", "event_draw", "event_destroy"} {
		label := mangle.Func(nil, "object", name)
		b.mod.Functions = append(b.mod.Functions, &Function{
			Label:      label,
			Params:     []Param{{Name: "this", Type: root}},
			ReturnType: ast.Void(),
			Blocks:     []*Block{{Label: "entry", Term: Return{}}},
		})
	}
}

type builder struct {
	analyzer *sema.Analyzer
	reg      *lower.Registry
	mod      *Module

	tempN, blockN int
}

func (b *builder) fresh(prefix string) string {
	b.tempN++
	return fmt.Sprintf("%%%s%d", prefix, b.tempN)
}

func (b *builder) freshLabel(prefix string) string {
	b.blockN++
	return fmt.Sprintf("%s%d", prefix, b.blockN)
}

func (b *builder) walkNamespace(ns *ast.Namespace, chain []string) error {
	for _, nf := range ns.Functions {
		fn, err := b.buildFunction(mangle.Func(chain, "", nf.Name), nf.Fn, nil, false)
		if err != nil {
			return err
		}
		b.mod.Functions = append(b.mod.Functions, fn)
	}
	for _, no := range ns.Objects {
		t := ast.Object(chain, no.Name)
		for _, m := range no.Obj.Methods {
			fn, err := b.buildFunction(mangle.Func(chain, no.Name, m.Name), m.Fn, &t, false)
			if err != nil {
				return err
			}
			b.mod.Functions = append(b.mod.Functions, fn)
		}
		for _, ev := range no.Obj.Events {
			fn, err := b.buildFunction(mangle.Func(chain, no.Name, "event_"+ev.Name), ev.Fn, &t, ev.Name == "destroy")
			if err != nil {
				return err
			}
			b.mod.Functions = append(b.mod.Functions, fn)
		}
	}
	for _, in := range ns.Inner {
		if cr, ok := in.Ref.(ast.ConcreteRef); ok {
			if err := b.walkNamespace(cr.NS, append(append([]string{}, chain...), in.Name)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *builder) buildFunction(label string, fn *ast.Function, self *ast.Type, isDestroy bool) (*Function, error) {
	out := &Function{Label: label, ReturnType: fn.ReturnType}
	for _, f := range fn.Formals {
		out.Params = append(out.Params, Param{Name: f.Name, Type: f.Type})
	}
	if self != nil {
		out.Params = append([]Param{{Name: "this", Type: *self}}, out.Params...)
	}
	if fn.Block == nil {
		out.Extern = true
		return out, nil
	}

	fb := &funcBuilder{builder: b, fn: out}
	fb.cur = fb.newBlock("entry")

	if isDestroy && self != nil {
		epilogue := fb.freshLabel("destroy_epilogue")
		fb.returnTarget = epilogue
		if err := fb.emitBlock(fn.Block); err != nil {
			return nil, err
		}
		if fb.cur.Term == nil {
			fb.cur.Term = Jump{Target: epilogue}
		}
		if err := fb.emitDestroyEpilogue(epilogue, *self); err != nil {
			return nil, err
		}
		return out, nil
	}

	if err := fb.emitBlock(fn.Block); err != nil {
		return nil, err
	}
	fb.terminateFallthrough(fn.ReturnType)
	return out, nil
}

// emitDestroyEpilogue builds the post-work every destroy event runs after
// its own user code (spec §4.3's "destroy event post-work"): unlink the
// receiver from self's own type list, then dispatch directly into the
// parent's destroy event, so the chain recurses all the way to the
// synthetic root's no-op destroy.
func (fb *funcBuilder) emitDestroyEpilogue(label string, self ast.Type) error {
	blk := fb.namedBlock(label)
	fb.cur = blk

	layout, err := fb.reg.Layout(fb.analyzer, self)
	if err != nil {
		return err
	}
	fb.emit(ListUnlink{Recv: "this", NodeField: layout.TypeName + "_node", ListName: layout.TypeName})

	chain := fb.analyzer.FullChain(self) // eldest-first, ends with self
	if len(chain) >= 2 {
		parent := chain[len(chain)-2]
		parentLabel := mangle.Func(fb.analyzer.ObjectChain(parent), parent.Name, "event_destroy")
		fb.emit(CallDirect{Label: parentLabel, Args: []Value{ExprValue(&ast.IdentExpr{Name: "this"})}})
	}

	blk.Term = Return{}
	return nil
}

// funcBuilder threads per-function state (the in-progress block list and
// the break-target stack) through statement emission.
type funcBuilder struct {
	*builder
	fn           *Function
	cur          *Block
	breakStack   []string
	returnTarget string // non-empty redirects ReturnStmt to a Jump, used by destroy events' epilogue
}

func (fb *funcBuilder) newBlock(prefix string) *Block {
	blk := &Block{Label: fb.freshLabel(prefix)}
	fb.fn.Blocks = append(fb.fn.Blocks, blk)
	return blk
}

func (fb *funcBuilder) terminateFallthrough(ret ast.Type) {
	if fb.cur.Term != nil {
		return
	}
	if ret.Equal(ast.Void()) {
		fb.cur.Term = Return{}
	} else {
		fb.cur.Term = Return{Value: ExprValue(zeroValueExpr(ret))}
	}
}

func zeroValueExpr(t ast.Type) ast.Expr {
	switch t.Kind {
	case ast.KindInt:
		return &ast.IntLit{BaseExpr: ast.BaseExpr{Type: t}}
	case ast.KindFloat:
		return &ast.FloatLit{BaseExpr: ast.BaseExpr{Type: t}}
	case ast.KindBool:
		return &ast.BoolLit{BaseExpr: ast.BaseExpr{Type: t}}
	case ast.KindString:
		return &ast.StringLit{BaseExpr: ast.BaseExpr{Type: t}}
	default:
		return &ast.NoneLit{BaseExpr: ast.BaseExpr{Type: t}}
	}
}

func (fb *funcBuilder) emitBlock(body []ast.Statement) error {
	for _, s := range body {
		if fb.cur.Term != nil {
			// Statements after an unconditional break/return are
			// unreachable; the parser permits them, so terminate the
			// block here instead of emitting dead control flow for them
			// (spec §4.4's "declares an unreachable successor block").
			fb.cur = fb.newBlock("dead")
			fb.cur.Term = Unreachable{}
			return nil
		}
		if err := fb.emitStmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (fb *funcBuilder) emitStmt(s ast.Statement) error {
	switch st := s.(type) {
	case *ast.VarDeclStmt:
		var v Value
		if st.Init != nil {
			var err error
			v, err = fb.lowerValue(st.Init)
			if err != nil {
				return err
			}
		}
		fb.emit(DeclareLocal{Name: st.Name, Type: st.Type, Init: v})
		return nil
	case *ast.ExprStmt:
		return fb.lowerEffect(st.X)
	case *ast.ReturnStmt:
		var v Value
		if st.Value != nil {
			var err error
			v, err = fb.lowerValue(st.Value)
			if err != nil {
				return err
			}
		}
		if fb.returnTarget != "" {
			// A destroy event's user code must run its post-work (unlink
			// + parent dispatch) no matter where it returns from, so an
			// explicit early return jumps to the epilogue block instead
			// of terminating the function here (spec §4.3).
			fb.cur.Term = Jump{Target: fb.returnTarget}
			return nil
		}
		fb.cur.Term = Return{Value: v}
		return nil
	case *ast.BreakStmt:
		if len(fb.breakStack) == 0 {
			return fmt.Errorf("ir: break outside loop reached emitter")
		}
		fb.cur.Term = Jump{Target: fb.breakStack[len(fb.breakStack)-1]}
		return nil
	case *ast.IfStmt:
		return fb.emitIf(st)
	case *ast.WhileStmt:
		return fb.emitWhile(st)
	case *ast.ForeachStmt:
		return fb.emitForeach(st)
	case *ast.BlockStmt:
		return fb.emitBlock(st.Body)
	case *ast.ForStmt:
		return fmt.Errorf("ir: ForStmt must be desugared before emission")
	default:
		return fmt.Errorf("ir: unhandled statement type %T", s)
	}
}

func (fb *funcBuilder) emitIf(st *ast.IfStmt) error {
	cond, err := fb.lowerValue(st.Cond)
	if err != nil {
		return err
	}
	thenLabel := fb.freshLabel("if_then")
	mergeLabel := fb.freshLabel("if_merge")
	elseLabel := mergeLabel
	if st.Else != nil {
		elseLabel = fb.freshLabel("if_else")
	}
	fb.cur.Term = CondJump{Cond: cond, Then: thenLabel, Else: elseLabel}

	thenBlock := fb.namedBlock(thenLabel)
	fb.cur = thenBlock
	if err := fb.emitBlock(st.Then); err != nil {
		return err
	}
	if fb.cur.Term == nil {
		fb.cur.Term = Jump{Target: mergeLabel}
	}

	if st.Else != nil {
		elseBlock := fb.namedBlock(elseLabel)
		fb.cur = elseBlock
		if err := fb.emitBlock(st.Else); err != nil {
			return err
		}
		if fb.cur.Term == nil {
			fb.cur.Term = Jump{Target: mergeLabel}
		}
	}

	fb.cur = fb.namedBlock(mergeLabel)
	return nil
}

func (fb *funcBuilder) emitWhile(st *ast.WhileStmt) error {
	predLabel := fb.freshLabel("while_pred")
	bodyLabel := fb.freshLabel("while_body")
	mergeLabel := fb.freshLabel("while_merge")

	fb.cur.Term = Jump{Target: predLabel}

	predBlock := fb.namedBlock(predLabel)
	fb.cur = predBlock
	cond, err := fb.lowerValue(st.Cond)
	if err != nil {
		return err
	}
	fb.cur.Term = CondJump{Cond: cond, Then: bodyLabel, Else: mergeLabel}

	bodyBlock := fb.namedBlock(bodyLabel)
	fb.cur = bodyBlock
	fb.breakStack = append(fb.breakStack, mergeLabel)
	err = fb.emitBlock(st.Body)
	fb.breakStack = fb.breakStack[:len(fb.breakStack)-1]
	if err != nil {
		return err
	}
	if fb.cur.Term == nil {
		fb.cur.Term = Jump{Target: predLabel}
	}

	fb.cur = fb.namedBlock(mergeLabel)
	return nil
}

func (fb *funcBuilder) emitForeach(st *ast.ForeachStmt) error {
	layout, err := fb.reg.Layout(fb.analyzer, st.ObjectType)
	if err != nil {
		return err
	}
	cursor := fb.fresh("cur")
	fb.emit(IterBegin{Cursor: cursor, TypeList: layout.TypeName})

	predLabel := fb.freshLabel("foreach_pred")
	bodyLabel := fb.freshLabel("foreach_body")
	mergeLabel := fb.freshLabel("foreach_merge")
	fb.cur.Term = Jump{Target: predLabel}

	predBlock := fb.namedBlock(predLabel)
	fb.cur = predBlock
	hasNext := fb.fresh("has")
	elem := fb.fresh("elem")
	fb.emit(IterAdvance{HasNext: hasNext, Elem: elem, Cursor: cursor})
	fb.cur.Term = CondJump{Cond: TempValue(hasNext), Then: bodyLabel, Else: mergeLabel}

	bodyBlock := fb.namedBlock(bodyLabel)
	fb.cur = bodyBlock
	fb.emit(DeclareLocal{Name: st.VarName, Type: st.ObjectType, Init: TempValue(elem)})
	fb.breakStack = append(fb.breakStack, mergeLabel)
	err = fb.emitBlock(st.Body)
	fb.breakStack = fb.breakStack[:len(fb.breakStack)-1]
	if err != nil {
		return err
	}
	if fb.cur.Term == nil {
		fb.cur.Term = Jump{Target: predLabel}
	}

	fb.cur = fb.namedBlock(mergeLabel)
	return nil
}

// namedBlock registers a Block under a label already minted by freshLabel,
// used so the CFG's edges (Jump/CondJump targets) agree with the blocks
// that actually get appended to the function.
func (fb *funcBuilder) namedBlock(label string) *Block {
	blk := &Block{Label: label}
	fb.fn.Blocks = append(fb.fn.Blocks, blk)
	return blk
}

func (fb *funcBuilder) emit(i Instr) {
	fb.cur.Instr = append(fb.cur.Instr, i)
}

// lowerValue lowers e for use as an operand (a var-decl initializer, return
// value, or assignment RHS), emitting whatever instructions e requires and
// returning a reference to its result.
func (fb *funcBuilder) lowerValue(e ast.Expr) (Value, error) {
	switch x := e.(type) {
	case *ast.CreateExpr:
		return fb.lowerCreate(x)
	case *ast.DestroyExpr:
		if err := fb.lowerDestroy(x.X); err != nil {
			return Value{}, err
		}
		return Value{}, nil
	case *ast.DeleteExpr:
		if err := fb.lowerDestroy(x.X); err != nil {
			return Value{}, err
		}
		return Value{}, nil
	case *ast.MethodCallExpr:
		return fb.lowerMethodCall(x)
	case *ast.CallExpr:
		return fb.lowerCall(x)
	case *ast.BinaryExpr:
		if (x.Op == "==" || x.Op == "!=") && x.Left.ExprType().Kind == ast.KindObject && x.Right.ExprType().Kind == ast.KindObject {
			return fb.lowerObjectEquality(x)
		}
		return ExprValue(e), nil
	default:
		return ExprValue(e), nil
	}
}

// lowerObjectEquality expands object ==/!= into a comparison of the
// operands' id fields: spec §4.3's reference type defines object equality
// as "equality of the id fields", not a comparison of the root_ptr.
func (fb *funcBuilder) lowerObjectEquality(x *ast.BinaryExpr) (Value, error) {
	lrecv := fb.fresh("recv")
	fb.emit(Eval{Dst: lrecv, Expr: x.Left})
	lid := fb.fresh("id")
	fb.emit(LoadField{Dst: lid, Recv: lrecv, Field: lower.FieldID})

	rrecv := fb.fresh("recv")
	fb.emit(Eval{Dst: rrecv, Expr: x.Right})
	rid := fb.fresh("id")
	fb.emit(LoadField{Dst: rid, Recv: rrecv, Field: lower.FieldID})

	dst := fb.fresh("eq")
	cmp := &ast.BinaryExpr{
		BaseExpr: ast.BaseExpr{Type: ast.Bool()},
		Op:       x.Op,
		Left:     &ast.IdentExpr{Name: lid},
		Right:    &ast.IdentExpr{Name: rid},
	}
	fb.emit(Eval{Dst: dst, Expr: cmp})
	return TempValue(dst), nil
}

// lowerEffect lowers e used purely for its side effects (an ExprStmt). It
// only falls through to a bare Eval instruction for expression kinds
// lowerValue leaves untouched (ExprValue passthrough); CreateExpr,
// DestroyExpr/DeleteExpr, MethodCallExpr and CallExpr already emit their
// own instructions inside lowerValue, so their result is simply discarded.
func (fb *funcBuilder) lowerEffect(e ast.Expr) error {
	switch x := e.(type) {
	case *ast.AssignExpr:
		v, err := fb.lowerValue(x.Value)
		if err != nil {
			return err
		}
		fb.emit(Assign{Target: x.Target, Value: v})
		return nil
	case *ast.CompoundAssignExpr, *ast.IncDecExpr:
		fb.emit(Eval{Expr: e})
		return nil
	case *ast.CreateExpr, *ast.DestroyExpr, *ast.DeleteExpr, *ast.MethodCallExpr, *ast.CallExpr:
		_, err := fb.lowerValue(e)
		return err
	default:
		// BinaryExpr between two objects needs lowerValue's id-equality
		// expansion; everything else lowerValue leaves as an ExprValue
		// passthrough, so this collapses to the old bare Eval for them.
		v, err := fb.lowerValue(e)
		if err != nil {
			return err
		}
		if v.Temp == "" {
			fb.emit(Eval{Expr: v.Expr})
		}
		return nil
	}
}

func (fb *funcBuilder) lowerCreate(x *ast.CreateExpr) (Value, error) {
	t := x.ExprType()
	layout, err := fb.reg.Layout(fb.analyzer, t)
	if err != nil {
		return Value{}, err
	}
	root := fb.fresh("root")
	fb.emit(Alloc{Dst: root, LayoutName: layout.TypeName})

	chain := fb.analyzer.FullChain(t) // eldest-first, ends with t itself
	for _, anc := range chain {
		ancLayout, err := fb.reg.Layout(fb.analyzer, anc)
		if err != nil {
			return Value{}, err
		}
		nodeField := ancLayout.TypeName + "_node"
		fb.emit(InitField{Recv: root, Field: nodeField})
		fb.emit(ListInsertFront{Recv: root, NodeField: nodeField, ListName: ancLayout.TypeName})
	}
	fb.emit(InitField{Recv: root, Field: lower.FieldGeneralListNode})
	fb.emit(ListInsertFront{Recv: root, NodeField: lower.FieldGeneralListNode, ListName: "general"})

	id := fb.fresh("id")
	fb.emit(NextID{Dst: id})
	fb.emit(StoreField{Recv: root, Field: lower.FieldVtablePtr, Value: ExprValue(vtableRefExpr(layout.TypeName))})
	fb.emit(StoreField{Recv: root, Field: lower.FieldID, Value: TempValue(id)})

	ref := fb.fresh("ref")
	fb.emit(MakeRef{Dst: ref, ID: id, Root: root})

	// The ancestor that actually receives the user-supplied arguments is
	// the nearest one (walking from t back toward the root) that declares
	// its own create — exactly the ancestor spec §4.3's create expression
	// calls "the type's own create event" when t itself doesn't declare
	// one. The synthetic root always qualifies as a fallback (its no-arg
	// create is backed by emitRootDefaults).
	nearestIdx := len(chain) - 1
	for i := len(chain) - 1; i >= 0; i-- {
		if ancOwnCreate(fb.analyzer, chain[i]) != nil {
			nearestIdx = i
			break
		}
	}

	args := make([]Value, 0, len(x.Args))
	for _, a := range x.Args {
		args = append(args, ExprValue(a))
	}
	for i, anc := range chain {
		if i >= nearestIdx {
			break
		}
		if create := ancOwnCreate(fb.analyzer, anc); create != nil {
			label := mangle.Func(fb.analyzer.ObjectChain(anc), anc.Name, "event_create")
			fb.emit(CallDirect{Label: label, Args: append([]Value{TempValue(ref)}, zeroArgs(create)...)})
		}
	}
	nearest := chain[nearestIdx]
	createLabel := mangle.Func(fb.analyzer.ObjectChain(nearest), nearest.Name, "event_create")
	fb.emit(CallDirect{Label: createLabel, Args: append([]Value{TempValue(ref)}, args...)})

	return TempValue(ref), nil
}

func zeroArgs(fn *ast.Function) []Value {
	out := make([]Value, len(fn.Formals))
	for i, f := range fn.Formals {
		out[i] = ExprValue(zeroValueExpr(f.Type))
	}
	return out
}

func ancOwnCreate(a *sema.Analyzer, t ast.Type) *ast.Function {
	for _, ev := range a.Events(t) {
		if ev.Name == "create" {
			return ev.Fn
		}
	}
	return nil
}

// vtableRefExpr is a placeholder expression naming a type's static vtable,
// printed as-is by the textual emitter.
func vtableRefExpr(typeName string) ast.Expr {
	return &ast.StringLit{Value: "&vtable_" + typeName}
}

func (fb *funcBuilder) lowerDestroy(target ast.Expr) error {
	recv := fb.fresh("recv")
	fb.emit(Eval{Dst: recv, Expr: target})
	fb.emit(CallVirtual{Recv: recv, Event: "destroy"})
	fb.emit(StoreField{Recv: recv, Field: lower.FieldID, Value: ExprValue(&ast.IntLit{Value: 0})})
	return nil
}

func (fb *funcBuilder) lowerMethodCall(x *ast.MethodCallExpr) (Value, error) {
	recv := fb.fresh("recv")
	fb.emit(Eval{Dst: recv, Expr: x.Recv})

	args := make([]Value, 0, len(x.Args))
	for _, a := range x.Args {
		args = append(args, ExprValue(a))
	}

	dst := ""
	if !x.ExprType().Equal(ast.Void()) {
		dst = fb.fresh("ret")
	}
	if ident, ok := x.Recv.(*ast.IdentExpr); ok && ident.Name == "super" {
		_, chain, ok := fb.analyzer.LookupMethod(x.Recv.ExprType(), x.Name)
		if !ok {
			return Value{}, fmt.Errorf("ir: super method %q not found", x.Name)
		}
		label := mangle.Func(chain, x.Recv.ExprType().Name, x.Name)
		fb.emit(CallDirect{Dst: dst, Label: label, Args: append([]Value{TempValue(recv)}, args...)})
	} else {
		fb.emit(CallVirtual{Dst: dst, Recv: recv, Event: x.Name, Args: args})
	}
	if dst == "" {
		return Value{}, nil
	}
	return TempValue(dst), nil
}

func (fb *funcBuilder) lowerCall(x *ast.CallExpr) (Value, error) {
	label := mangle.Func(x.ResolvedChain, "", x.Name)
	args := make([]Value, 0, len(x.Args))
	for _, a := range x.Args {
		args = append(args, ExprValue(a))
	}
	dst := ""
	if !x.ExprType().Equal(ast.Void()) {
		dst = fb.fresh("ret")
	}
	fb.emit(CallDirect{Dst: dst, Label: label, Args: args})
	if dst == "" {
		return Value{}, nil
	}
	return TempValue(dst), nil
}

// emitGlobalDispatch emits global_create (invokes `create main`) and
// global_step/global_draw (walk the general list dispatching through each
// live object's vtable, reaping dead nodes as they're encountered).
func (b *builder) emitGlobalDispatch() error {
	mainType, ok := b.findMain()
	if !ok {
		return fmt.Errorf("missing entry point: no %q object in the root namespace", "main")
	}

	createFn := &Function{Label: "global_create", ReturnType: ast.Void()}
	entry := &Block{Label: "entry"}
	createFn.Blocks = []*Block{entry}
	createExpr := &ast.CreateExpr{Chain: nil, Name: mainType.Name}
	createExpr.SetExprType(mainType)
	fb := &funcBuilder{builder: b, fn: createFn, cur: entry}
	if _, err := fb.lowerCreate(createExpr); err != nil {
		return err
	}
	entry.Term = Return{}
	b.mod.Functions = append(b.mod.Functions, createFn)

	for _, event := range []string{"step", "draw"} {
		fn := &Function{Label: "global_" + event, ReturnType: ast.Void()}
		blk := &Block{Label: "entry"}
		fn.Blocks = []*Block{blk}
		blk.Instr = append(blk.Instr, ReapStep{Cursor: "general", Event: event})
		blk.Term = Return{}
		b.mod.Functions = append(b.mod.Functions, fn)
	}
	return nil
}

func (b *builder) findMain() (ast.Type, bool) {
	for _, no := range b.analyzer.AllObjectTypes() {
		if len(b.analyzer.ObjectChain(no)) == 0 && no.Name == "main" {
			return no, true
		}
	}
	return ast.Type{}, false
}
