package sema

import (
	"fmt"

	"github.com/CindyWang1997/makergame/ast"
	"github.com/CindyWang1997/makergame/nsresolve"
)

// checkExpr type-checks e in place, recording its resolved type via
// SetExprType and rewriting any sub-expression that needs an explicit
// conversion. It returns the first error found underneath e.
func (a *Analyzer) checkExpr(c *ctx, e ast.Expr) error {
	switch x := e.(type) {
	case *ast.IntLit:
		x.SetExprType(ast.Int())
	case *ast.FloatLit:
		x.SetExprType(ast.Float())
	case *ast.BoolLit:
		x.SetExprType(ast.Bool())
	case *ast.StringLit:
		x.SetExprType(ast.String())
	case *ast.NoneLit:
		x.SetExprType(ast.NoneType())
	case *ast.ArrayLit:
		return a.checkArrayLit(c, x)
	case *ast.IdentExpr:
		return a.checkIdent(c, x)
	case *ast.CallExpr:
		return a.checkCall(c, x)
	case *ast.MemberExpr:
		return a.checkMember(c, x)
	case *ast.MethodCallExpr:
		return a.checkMethodCall(c, x)
	case *ast.IndexExpr:
		return a.checkIndex(c, x)
	case *ast.CreateExpr:
		return a.checkCreate(c, x)
	case *ast.DestroyExpr:
		return a.checkDestroyLike(c, x.X, x)
	case *ast.DeleteExpr:
		return a.checkDestroyLike(c, x.X, x)
	case *ast.BinaryExpr:
		return a.checkBinary(c, x)
	case *ast.UnaryExpr:
		return a.checkUnary(c, x)
	case *ast.AssignExpr:
		return a.checkAssignExpr(c, x)
	case *ast.CompoundAssignExpr:
		return a.checkCompoundAssign(c, x)
	case *ast.IncDecExpr:
		return a.checkIncDec(c, x)
	case *ast.ConvExpr:
		// Already resolved by an earlier pass; nothing to do.
		return a.checkExpr(c, x.X)
	default:
		return fmt.Errorf("sema: unhandled expression type %T", e)
	}
	return nil
}

func (a *Analyzer) checkArrayLit(c *ctx, x *ast.ArrayLit) error {
	var elemType ast.Type
	for i, el := range x.Elements {
		if err := a.checkExpr(c, el); err != nil {
			return err
		}
		if i == 0 {
			elemType = el.ExprType()
			continue
		}
		conv, err := a.CheckAssign(elemType, el, el.ExprType())
		if err != nil {
			return fmt.Errorf("array literal element %d: %w", i, err)
		}
		x.Elements[i] = conv
	}
	x.SetExprType(ast.Array(elemType, len(x.Elements)))
	return nil
}

func (a *Analyzer) checkIdent(c *ctx, x *ast.IdentExpr) error {
	if x.Name == "this" {
		if !c.hasSelf {
			return fmt.Errorf("%q used outside an object context", "this")
		}
		x.SetExprType(c.selfType)
		return nil
	}
	if x.Name == "super" {
		if !c.hasSelf {
			return fmt.Errorf("%q used outside an object context", "super")
		}
		parents := a.inheritanceChain(c.selfType)
		if len(parents) == 0 {
			return fmt.Errorf("%q has no superclass", c.selfType)
		}
		x.SetExprType(parents[len(parents)-1])
		return nil
	}
	d, ok := c.scope.LookupValue(x.Name)
	if !ok {
		return fmt.Errorf("undeclared identifier %q", x.Name)
	}
	x.DeclChain = d.Chain
	x.SetExprType(ast.Requalify(d.Type, d.Chain))
	return nil
}

func (a *Analyzer) checkCall(c *ctx, x *ast.CallExpr) error {
	var fn *ast.Function
	var resolved []string
	if len(x.Chain) == 0 {
		d, ok := c.scope.LookupFunc(x.Name)
		if !ok {
			return fmt.Errorf("call to undeclared function %q", x.Name)
		}
		fn, resolved = d.Fn, d.Chain
	} else {
		target, err := nsresolve.Resolve(a.files, a.prog.Root, x.Chain, true)
		if err != nil {
			return fmt.Errorf("cannot resolve %s: %w", joinChain(x.Chain), err)
		}
		found := false
		for _, nf := range target.Functions {
			if nf.Name == x.Name {
				fn, found = nf.Fn, true
				break
			}
		}
		if !found {
			return fmt.Errorf("%s has no function %q", joinChain(x.Chain), x.Name)
		}
		resolved = x.Chain
	}
	if err := a.checkArgs(c, x.Args, fn.Formals); err != nil {
		return err
	}
	x.ResolvedChain = resolved
	x.SetExprType(fn.ReturnType)
	return nil
}

func (a *Analyzer) checkArgs(c *ctx, args []ast.Expr, formals []ast.Formal) error {
	if len(args) != len(formals) {
		return fmt.Errorf("expected %d argument(s), got %d", len(formals), len(args))
	}
	for i := range args {
		if err := a.checkExpr(c, args[i]); err != nil {
			return err
		}
		conv, err := a.CheckAssign(formals[i].Type, args[i], args[i].ExprType())
		if err != nil {
			return fmt.Errorf("argument %d: %w", i+1, err)
		}
		args[i] = conv
	}
	return nil
}

func (a *Analyzer) checkMember(c *ctx, x *ast.MemberExpr) error {
	if err := a.checkExpr(c, x.Recv); err != nil {
		return err
	}
	recvType := x.Recv.ExprType()
	if recvType.Kind != ast.KindObject || recvType.IsNone() {
		return fmt.Errorf("member access %q on non-object type %s", x.Name, recvType)
	}
	t, owner, ok := a.lookupMember(recvType, x.Name)
	if !ok {
		return fmt.Errorf("%s has no member %q", recvType, x.Name)
	}
	x.DeclChain = owner
	x.SetExprType(t)
	return nil
}

func (a *Analyzer) checkMethodCall(c *ctx, x *ast.MethodCallExpr) error {
	if err := a.checkExpr(c, x.Recv); err != nil {
		return err
	}
	recvType := x.Recv.ExprType()
	if ident, ok := x.Recv.(*ast.IdentExpr); ok && ident.Name == "super" {
		fn, _, ok := a.lookupMethod(recvType, x.Name)
		if !ok {
			return fmt.Errorf("%s has no method %q", recvType, x.Name)
		}
		if err := a.checkArgs(c, x.Args, fn.Formals); err != nil {
			return err
		}
		x.SetExprType(fn.ReturnType)
		return nil
	}
	if recvType.Kind != ast.KindObject || recvType.IsNone() {
		return fmt.Errorf("method call %q on non-object type %s", x.Name, recvType)
	}
	fn, _, ok := a.lookupMethod(recvType, x.Name)
	if !ok {
		return fmt.Errorf("%s has no method %q", recvType, x.Name)
	}
	if err := a.checkArgs(c, x.Args, fn.Formals); err != nil {
		return err
	}
	x.SetExprType(fn.ReturnType)
	return nil
}

func (a *Analyzer) checkIndex(c *ctx, x *ast.IndexExpr) error {
	if err := a.checkExpr(c, x.Array); err != nil {
		return err
	}
	if err := a.checkExpr(c, x.Index); err != nil {
		return err
	}
	arrType := x.Array.ExprType()
	if arrType.Kind != ast.KindArray {
		return fmt.Errorf("cannot index non-array type %s", arrType)
	}
	if x.Index.ExprType().Kind != ast.KindInt {
		return fmt.Errorf("array index must be int, got %s", x.Index.ExprType())
	}
	x.SetExprType(*arrType.Elem)
	return nil
}

func (a *Analyzer) checkCreate(c *ctx, x *ast.CreateExpr) error {
	chain := x.Chain
	if len(chain) == 0 {
		chain = c.nsChain
	}
	t := ast.Object(chain, x.Name)
	if _, ok := a.lookupObject(t); !ok {
		return fmt.Errorf("create of unknown object type %s", t)
	}
	fn := a.nearestCreate(t)
	if err := a.checkArgs(c, x.Args, fn.Formals); err != nil {
		return err
	}
	x.SetExprType(t)
	return nil
}

func (a *Analyzer) checkDestroyLike(c *ctx, target ast.Expr, self ast.Expr) error {
	if err := a.checkExpr(c, target); err != nil {
		return err
	}
	if target.ExprType().Kind != ast.KindObject {
		return fmt.Errorf("cannot destroy non-object type %s", target.ExprType())
	}
	self.SetExprType(ast.Void())
	return nil
}

func (a *Analyzer) checkBinary(c *ctx, x *ast.BinaryExpr) error {
	if err := a.checkExpr(c, x.Left); err != nil {
		return err
	}
	if err := a.checkExpr(c, x.Right); err != nil {
		return err
	}
	lt, rt := x.Left.ExprType(), x.Right.ExprType()

	switch x.Op {
	case "+", "-", "*", "/":
		if lt.Kind == ast.KindString && rt.Kind == ast.KindString && x.Op == "+" {
			x.SetExprType(ast.String())
			return nil
		}
		result, convL, convR, ok := binaryNumericResult(lt, rt)
		if !ok {
			return fmt.Errorf("illegal operand types for %q: %s, %s", x.Op, lt, rt)
		}
		if convL {
			x.Left = a.factory.Conv(ast.Float(), x.Left, lt)
		}
		if convR {
			x.Right = a.factory.Conv(ast.Float(), x.Right, rt)
		}
		x.SetExprType(result)
		return nil
	case "<", "<=", ">", ">=":
		_, convL, convR, ok := binaryNumericResult(lt, rt)
		if !ok {
			return fmt.Errorf("illegal operand types for %q: %s, %s", x.Op, lt, rt)
		}
		if convL {
			x.Left = a.factory.Conv(ast.Float(), x.Left, lt)
		}
		if convR {
			x.Right = a.factory.Conv(ast.Float(), x.Right, rt)
		}
		x.SetExprType(ast.Bool())
		return nil
	case "==", "!=":
		if lt.IsNumeric() && rt.IsNumeric() {
			_, convL, convR, _ := binaryNumericResult(lt, rt)
			if convL {
				x.Left = a.factory.Conv(ast.Float(), x.Left, lt)
			}
			if convR {
				x.Right = a.factory.Conv(ast.Float(), x.Right, rt)
			}
			x.SetExprType(ast.Bool())
			return nil
		}
		if lt.Kind == ast.KindObject && rt.Kind == ast.KindObject {
			common, ok := a.commonAncestor(lt, rt)
			if !ok {
				return fmt.Errorf("cannot compare unrelated object types %s, %s", lt, rt)
			}
			if !common.Equal(lt) {
				x.Left = a.factory.Conv(common, x.Left, lt)
			}
			if !common.Equal(rt) {
				x.Right = a.factory.Conv(common, x.Right, rt)
			}
			x.SetExprType(ast.Bool())
			return nil
		}
		// Every other operand pairing is rejected outright, equal-typed or
		// not: spec §4.2 says plainly "Bool/bool is not accepted", and
		// leaves string/string and every other non-numeric, non-object
		// comparison as unsupported rather than silently allowed.
		return fmt.Errorf("cannot compare %s and %s", lt, rt)
	case "&&", "||":
		if lt.Kind != ast.KindBool || rt.Kind != ast.KindBool {
			return fmt.Errorf("operator %q requires bool operands, got %s, %s", x.Op, lt, rt)
		}
		x.SetExprType(ast.Bool())
		return nil
	default:
		return fmt.Errorf("unknown binary operator %q", x.Op)
	}
}

func (a *Analyzer) checkUnary(c *ctx, x *ast.UnaryExpr) error {
	if err := a.checkExpr(c, x.X); err != nil {
		return err
	}
	t := x.X.ExprType()
	switch x.Op {
	case "-":
		if !t.IsNumeric() {
			return fmt.Errorf("unary %q requires a numeric operand, got %s", x.Op, t)
		}
		x.SetExprType(t)
	case "!":
		if t.Kind != ast.KindBool {
			return fmt.Errorf("unary %q requires a bool operand, got %s", x.Op, t)
		}
		x.SetExprType(ast.Bool())
	default:
		return fmt.Errorf("unknown unary operator %q", x.Op)
	}
	return nil
}

// checkLvalue enforces the lvalue rule: only an identifier path, a member
// access, or a subscript may be assigned to. `this` and `super` themselves
// (not a member access through them) are rejected.
func (a *Analyzer) checkLvalue(x ast.Expr) error {
	switch v := x.(type) {
	case *ast.IdentExpr:
		if v.Name == "this" || v.Name == "super" {
			return fmt.Errorf("%q is not assignable", v.Name)
		}
		return nil
	case *ast.MemberExpr, *ast.IndexExpr:
		return nil
	default:
		return fmt.Errorf("invalid assignment target")
	}
}

func (a *Analyzer) checkAssignExpr(c *ctx, x *ast.AssignExpr) error {
	if err := a.checkExpr(c, x.Target); err != nil {
		return err
	}
	if err := a.checkLvalue(x.Target); err != nil {
		return err
	}
	if err := a.checkExpr(c, x.Value); err != nil {
		return err
	}
	conv, err := a.CheckAssign(x.Target.ExprType(), x.Value, x.Value.ExprType())
	if err != nil {
		return err
	}
	x.Value = conv
	x.SetExprType(x.Target.ExprType())
	return nil
}

func (a *Analyzer) checkCompoundAssign(c *ctx, x *ast.CompoundAssignExpr) error {
	if err := a.checkExpr(c, x.Target); err != nil {
		return err
	}
	if err := a.checkLvalue(x.Target); err != nil {
		return err
	}
	if err := a.checkExpr(c, x.Value); err != nil {
		return err
	}
	tt, vt := x.Target.ExprType(), x.Value.ExprType()
	if tt.Kind == ast.KindString && vt.Kind == ast.KindString && x.Op == "+=" {
		x.SetExprType(tt)
		return nil
	}
	result, convL, convR, ok := binaryNumericResult(tt, vt)
	if !ok {
		return fmt.Errorf("illegal operand types for %q: %s, %s", x.Op, tt, vt)
	}
	if convL && !tt.Equal(result) {
		return fmt.Errorf("cannot %s into narrower type %s", x.Op, tt)
	}
	if convR {
		x.Value = a.factory.Conv(tt, x.Value, vt)
	}
	x.SetExprType(tt)
	return nil
}

func (a *Analyzer) checkIncDec(c *ctx, x *ast.IncDecExpr) error {
	if err := a.checkExpr(c, x.Target); err != nil {
		return err
	}
	if err := a.checkLvalue(x.Target); err != nil {
		return err
	}
	if !x.Target.ExprType().IsNumeric() {
		return fmt.Errorf("operator %q requires a numeric lvalue, got %s", x.Op, x.Target.ExprType())
	}
	x.SetExprType(x.Target.ExprType())
	return nil
}
