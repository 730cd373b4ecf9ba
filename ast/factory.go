package ast

// Factory centralizes AST node construction for the passes that rewrite the
// tree (currently only semantic analysis). Using it keeps the
// shallow-copy-and-replace pattern that pass relies on in one place.
type Factory struct{}

// NewFactory returns a new Factory.
func NewFactory() *Factory { return &Factory{} }

// Conv wraps rvalue in an explicit conversion node. Callers must only call
// this when check_assign has determined a conversion is legal; Conv itself
// performs no validation.
func (f *Factory) Conv(to Type, rvalue Expr, from Type) *ConvExpr {
	return &ConvExpr{BaseExpr: BaseExpr{Type: to}, To: to, X: rvalue, From: from}
}

// DesugarFor rewrites `for(init; cond; step) body` into
// `{ init; while(cond) { body; step; } }`, per the language's for-loop
// semantics. A nil Init, Cond or Step is simply omitted.
func (f *Factory) DesugarFor(src *ForStmt) *BlockStmt {
	var outer []Statement
	if src.Init != nil {
		outer = append(outer, src.Init)
	}
	whileBody := append(append([]Statement{}, src.Body...), stepStmt(src.Step)...)
	cond := src.Cond
	if cond == nil {
		cond = &BoolLit{Value: true}
	}
	outer = append(outer, &WhileStmt{BaseStmt: src.BaseStmt, Cond: cond, Body: whileBody})
	return &BlockStmt{BaseStmt: src.BaseStmt, Body: outer}
}

func stepStmt(step Statement) []Statement {
	if step == nil {
		return nil
	}
	return []Statement{step}
}
