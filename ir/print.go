package ir

import (
	"fmt"
	"strings"

	"github.com/CindyWang1997/makergame/ast"
)

// String renders the whole module as the textual form the CLI's `-l`/`-c`
// modes print.
func (m *Module) String() string {
	var b strings.Builder
	for i, fn := range m.Functions {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(fn.String())
	}
	return b.String()
}

func (fn *Function) String() string {
	var b strings.Builder
	params := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = p.Name + " " + p.Type.String()
	}
	fmt.Fprintf(&b, "func %s(%s) %s", fn.Label, strings.Join(params, ", "), fn.ReturnType)
	if fn.Extern {
		b.WriteString(" extern\n")
		return b.String()
	}
	b.WriteString(" {\n")
	for _, blk := range fn.Blocks {
		b.WriteString(blk.String())
	}
	b.WriteString("}\n")
	return b.String()
}

func (blk *Block) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s:\n", blk.Label)
	for _, in := range blk.Instr {
		fmt.Fprintf(&b, "  %s\n", instrString(in))
	}
	fmt.Fprintf(&b, "  %s\n", termString(blk.Term))
	return b.String()
}

func valueString(v Value) string {
	if v.Temp != "" {
		return v.Temp
	}
	if v.Expr == nil {
		return "void"
	}
	return exprString(v.Expr)
}

func instrString(in Instr) string {
	switch x := in.(type) {
	case Eval:
		if x.Dst != "" {
			return fmt.Sprintf("%s = eval %s", x.Dst, exprString(x.Expr))
		}
		return fmt.Sprintf("eval %s", exprString(x.Expr))
	case DeclareLocal:
		if x.Init.Temp == "" && x.Init.Expr == nil {
			return fmt.Sprintf("local %s %s", x.Name, x.Type)
		}
		return fmt.Sprintf("local %s %s = %s", x.Name, x.Type, valueString(x.Init))
	case Assign:
		return fmt.Sprintf("store %s = %s", exprString(x.Target), valueString(x.Value))
	case Alloc:
		return fmt.Sprintf("%s = alloc %s", x.Dst, x.LayoutName)
	case InitField:
		return fmt.Sprintf("initfield %s.%s = %s", x.Recv, x.Field, valueString(x.Value))
	case ListInsertFront:
		return fmt.Sprintf("list_insert_front %s, %s.%s", x.ListName, x.Recv, x.NodeField)
	case ListUnlink:
		return fmt.Sprintf("list_unlink %s, %s.%s", x.ListName, x.Recv, x.NodeField)
	case NextID:
		return fmt.Sprintf("%s = next_id", x.Dst)
	case MakeRef:
		return fmt.Sprintf("%s = ref(%s, %s)", x.Dst, x.ID, x.Root)
	case CallDirect:
		return fmt.Sprintf("%scall_direct %s(%s)", dstPrefix(x.Dst), x.Label, valuesString(x.Args))
	case CallVirtual:
		return fmt.Sprintf("%scall_virtual %s.%s(%s)", dstPrefix(x.Dst), x.Recv, x.Event, valuesString(x.Args))
	case LoadField:
		return fmt.Sprintf("%s = loadfield %s.%s", x.Dst, x.Recv, x.Field)
	case StoreField:
		return fmt.Sprintf("storefield %s.%s = %s", x.Recv, x.Field, valueString(x.Value))
	case IterBegin:
		return fmt.Sprintf("%s = iter_begin %s", x.Cursor, x.TypeList)
	case IterAdvance:
		return fmt.Sprintf("%s, %s = iter_advance %s", x.HasNext, x.Elem, x.Cursor)
	case ReapStep:
		return fmt.Sprintf("reap_step %s, %s", x.Cursor, x.Event)
	default:
		return fmt.Sprintf("<unknown instr %T>", in)
	}
}

func dstPrefix(dst string) string {
	if dst == "" {
		return ""
	}
	return dst + " = "
}

func valuesString(vs []Value) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = valueString(v)
	}
	return strings.Join(parts, ", ")
}

func termString(t Terminator) string {
	switch x := t.(type) {
	case Jump:
		return fmt.Sprintf("jump %s", x.Target)
	case CondJump:
		return fmt.Sprintf("if %s then %s else %s", valueString(x.Cond), x.Then, x.Else)
	case Return:
		if x.Value.Temp == "" && x.Value.Expr == nil {
			return "return"
		}
		return fmt.Sprintf("return %s", valueString(x.Value))
	case Unreachable:
		return "unreachable"
	default:
		return fmt.Sprintf("<unknown terminator %T>", t)
	}
}

// exprString renders an already-typed ast.Expr tree as it would appear in
// source, used to keep the IR's textual form readable without a separate
// expression IR.
func exprString(e ast.Expr) string {
	switch x := e.(type) {
	case *ast.IntLit:
		return fmt.Sprintf("%d", x.Value)
	case *ast.FloatLit:
		return fmt.Sprintf("%g", x.Value)
	case *ast.BoolLit:
		return fmt.Sprintf("%t", x.Value)
	case *ast.StringLit:
		return fmt.Sprintf("%q", x.Value)
	case *ast.NoneLit:
		return "none"
	case *ast.ArrayLit:
		parts := make([]string, len(x.Elements))
		for i, el := range x.Elements {
			parts[i] = exprString(el)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *ast.IdentExpr:
		return x.Name
	case *ast.CallExpr:
		parts := make([]string, len(x.Args))
		for i, a := range x.Args {
			parts[i] = exprString(a)
		}
		prefix := ""
		if len(x.Chain) > 0 {
			prefix = strings.Join(x.Chain, "::") + "::"
		}
		return fmt.Sprintf("%s%s(%s)", prefix, x.Name, strings.Join(parts, ", "))
	case *ast.MemberExpr:
		return exprString(x.Recv) + "." + x.Name
	case *ast.MethodCallExpr:
		parts := make([]string, len(x.Args))
		for i, a := range x.Args {
			parts[i] = exprString(a)
		}
		return fmt.Sprintf("%s.%s(%s)", exprString(x.Recv), x.Name, strings.Join(parts, ", "))
	case *ast.IndexExpr:
		return fmt.Sprintf("%s[%s]", exprString(x.Array), exprString(x.Index))
	case *ast.CreateExpr:
		parts := make([]string, len(x.Args))
		for i, a := range x.Args {
			parts[i] = exprString(a)
		}
		return fmt.Sprintf("create %s(%s)", x.Name, strings.Join(parts, ", "))
	case *ast.DestroyExpr:
		return "destroy " + exprString(x.X)
	case *ast.DeleteExpr:
		return "delete " + exprString(x.X)
	case *ast.BinaryExpr:
		return fmt.Sprintf("(%s %s %s)", exprString(x.Left), x.Op, exprString(x.Right))
	case *ast.UnaryExpr:
		return x.Op + exprString(x.X)
	case *ast.AssignExpr:
		return fmt.Sprintf("%s = %s", exprString(x.Target), exprString(x.Value))
	case *ast.CompoundAssignExpr:
		return fmt.Sprintf("%s %s %s", exprString(x.Target), x.Op, exprString(x.Value))
	case *ast.IncDecExpr:
		if x.Prefix {
			return x.Op + exprString(x.Target)
		}
		return exprString(x.Target) + x.Op
	case *ast.ConvExpr:
		return fmt.Sprintf("conv<%s>(%s)", x.To, exprString(x.X))
	default:
		return fmt.Sprintf("<unknown expr %T>", e)
	}
}
