package sema

import (
	"fmt"

	"github.com/CindyWang1997/makergame/ast"
)

// checkFunction type-checks fn's body, if any (extern declarations carry a
// nil Block and are accepted unchecked).
func (a *Analyzer) checkFunction(c *ctx, fn *ast.Function) error {
	if fn.Block == nil {
		return nil
	}
	fc := c.child()
	fc.returnType = fn.ReturnType
	for _, f := range fn.Formals {
		if err := fc.scope.DeclareValue(f.Name, ValueDecl{Type: f.Type}); err != nil {
			return a.wrap(fn.Line, err)
		}
	}
	return a.checkBlock(fc, fn.Block)
}

// checkBlock type-checks every statement of body in sequence, rewriting
// elements in place (for-loop desugaring, Conv insertion).
func (a *Analyzer) checkBlock(c *ctx, body []ast.Statement) error {
	for i := range body {
		replacement, err := a.checkStmt(c, body[i])
		if err != nil {
			return err
		}
		if replacement != nil {
			body[i] = replacement
		}
	}
	return nil
}

func (a *Analyzer) checkStmt(c *ctx, s ast.Statement) (ast.Statement, error) {
	switch st := s.(type) {
	case *ast.VarDeclStmt:
		return nil, a.checkVarDecl(c, st)
	case *ast.ExprStmt:
		return nil, a.checkExpr(c, st.X)
	case *ast.ReturnStmt:
		return nil, a.checkReturn(c, st)
	case *ast.BreakStmt:
		if a.loopDepth == 0 {
			return nil, a.wrap(st.SourceLine, fmt.Errorf("break used outside a loop"))
		}
		return nil, nil
	case *ast.IfStmt:
		return nil, a.checkIf(c, st)
	case *ast.WhileStmt:
		return nil, a.checkWhile(c, st)
	case *ast.ForStmt:
		desugared := a.factory.DesugarFor(st)
		if err := a.checkBlockStmt(c, desugared); err != nil {
			return nil, err
		}
		return desugared, nil
	case *ast.ForeachStmt:
		return nil, a.checkForeach(c, st)
	case *ast.BlockStmt:
		return nil, a.checkBlockStmt(c, st)
	default:
		return nil, fmt.Errorf("sema: unhandled statement type %T", s)
	}
}

func (a *Analyzer) checkVarDecl(c *ctx, st *ast.VarDeclStmt) error {
	if st.Init != nil {
		if err := a.checkExpr(c, st.Init); err != nil {
			return a.wrap(st.SourceLine, err)
		}
		conv, err := a.CheckAssign(st.Type, st.Init, st.Init.ExprType())
		if err != nil {
			return a.wrap(st.SourceLine, err)
		}
		st.Init = conv
	}
	if err := c.scope.DeclareValue(st.Name, ValueDecl{Type: st.Type}); err != nil {
		return a.wrap(st.SourceLine, err)
	}
	return nil
}

func (a *Analyzer) checkReturn(c *ctx, st *ast.ReturnStmt) error {
	if st.Value == nil {
		if !c.returnType.Equal(ast.Void()) {
			return a.wrap(st.SourceLine, fmt.Errorf("missing return value, expected %s", c.returnType))
		}
		return nil
	}
	if err := a.checkExpr(c, st.Value); err != nil {
		return a.wrap(st.SourceLine, err)
	}
	conv, err := a.CheckAssign(c.returnType, st.Value, st.Value.ExprType())
	if err != nil {
		return a.wrap(st.SourceLine, err)
	}
	st.Value = conv
	return nil
}

func (a *Analyzer) checkIf(c *ctx, st *ast.IfStmt) error {
	if err := a.checkExpr(c, st.Cond); err != nil {
		return a.wrap(st.SourceLine, err)
	}
	if st.Cond.ExprType().Kind != ast.KindBool {
		return a.wrap(st.SourceLine, fmt.Errorf("if condition must be bool, got %s", st.Cond.ExprType()))
	}
	if err := a.checkBlock(c.child(), st.Then); err != nil {
		return err
	}
	if st.Else != nil {
		if err := a.checkBlock(c.child(), st.Else); err != nil {
			return err
		}
	}
	return nil
}

func (a *Analyzer) checkWhile(c *ctx, st *ast.WhileStmt) error {
	if err := a.checkExpr(c, st.Cond); err != nil {
		return a.wrap(st.SourceLine, err)
	}
	if st.Cond.ExprType().Kind != ast.KindBool {
		return a.wrap(st.SourceLine, fmt.Errorf("while condition must be bool, got %s", st.Cond.ExprType()))
	}
	a.loopDepth++
	err := a.checkBlock(c.child(), st.Body)
	a.loopDepth--
	return err
}

func (a *Analyzer) checkForeach(c *ctx, st *ast.ForeachStmt) error {
	if _, ok := a.lookupObject(st.ObjectType); !ok {
		return a.wrap(st.SourceLine, fmt.Errorf("foreach over unknown object type %s", st.ObjectType))
	}
	body := c.child()
	if err := body.scope.DeclareValue(st.VarName, ValueDecl{Type: st.ObjectType}); err != nil {
		return a.wrap(st.SourceLine, err)
	}
	a.loopDepth++
	err := a.checkBlock(body, st.Body)
	a.loopDepth--
	return err
}

func (a *Analyzer) checkBlockStmt(c *ctx, st *ast.BlockStmt) error {
	return a.checkBlock(c.child(), st.Body)
}
