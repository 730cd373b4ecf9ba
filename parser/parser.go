package parser

import (
	"fmt"

	"github.com/CindyWang1997/makergame/ast"
)

// Parser drives a recursive-descent parse over a pre-tokenized buffer.
// Tokenizing up front (rather than streaming from the lexer) keeps
// lookahead trivial at the cost of holding the whole token list in memory,
// which is fine for the source sizes this language targets.
type Parser struct {
	toks []token
	pos  int
}

// Parse reads one source file and returns its root namespace.
func Parse(src string) (*ast.Namespace, error) {
	lx := newLexer(src)
	var toks []token
	for {
		tok, err := lx.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.kind == tEOF {
			break
		}
	}
	p := &Parser{toks: toks}
	ns, err := p.parseNamespaceBody(true)
	if err != nil {
		return nil, err
	}
	return ns, nil
}

func (p *Parser) cur() token  { return p.toks[p.pos] }
func (p *Parser) advance() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) at(kind tokenKind, text string) bool {
	t := p.cur()
	return t.kind == kind && (text == "" || t.text == text)
}

func (p *Parser) atSym(s string) bool { return p.at(tSymbol, s) }
func (p *Parser) atKw(s string) bool  { return p.at(tKeyword, s) }

func (p *Parser) expectSym(s string) error {
	if !p.atSym(s) {
		return p.errf("expected %q, got %q", s, p.cur().text)
	}
	p.advance()
	return nil
}

func (p *Parser) expectKw(s string) error {
	if !p.atKw(s) {
		return p.errf("expected keyword %q, got %q", s, p.cur().text)
	}
	p.advance()
	return nil
}

func (p *Parser) expectIdent() (string, error) {
	if p.cur().kind != tIdent {
		return "", p.errf("expected identifier, got %q", p.cur().text)
	}
	t := p.advance()
	return t.text, nil
}

func (p *Parser) errf(format string, args ...interface{}) error {
	return fmt.Errorf("line %d: %s", p.cur().line, fmt.Sprintf(format, args...))
}

// --- namespace bodies ---

// parseNamespaceBody consumes declarations until `}` (or EOF if top is true).
func (p *Parser) parseNamespaceBody(top bool) (*ast.Namespace, error) {
	ns := &ast.Namespace{}
	for {
		if p.cur().kind == tEOF {
			if !top {
				return nil, p.errf("unexpected end of file, expected '}'")
			}
			return ns, nil
		}
		if !top && p.atSym("}") {
			return ns, nil
		}

		private := false
		if p.atKw("private") {
			private = true
			p.advance()
		} else if p.atKw("public") {
			p.advance()
		}

		switch {
		case p.atKw("using"):
			p.advance()
			chain, err := p.parseChain()
			if err != nil {
				return nil, err
			}
			line := p.cur().line
			if err := p.expectSym(";"); err != nil {
				return nil, err
			}
			ns.Uses = append(ns.Uses, ast.UsingImport{Private: private, Chain: chain, Line: line})

		case p.atKw("namespace"):
			p.advance()
			name, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			line := p.cur().line
			inner, err := p.parseInnerNamespaceRef()
			if err != nil {
				return nil, err
			}
			ns.Inner = append(ns.Inner, ast.InnerNamespace{Name: name, Private: private, Ref: inner, Line: line})

		case p.atKw("object"):
			p.advance()
			obj, err := p.parseObject()
			if err != nil {
				return nil, err
			}
			ns.Objects = append(ns.Objects, ast.NamedObject{Name: obj.Name, Obj: obj})

		case p.atKw("extern"):
			p.advance()
			nf, err := p.parseExternFunction()
			if err != nil {
				return nil, err
			}
			ns.Functions = append(ns.Functions, nf)

		default:
			decl, err := p.parseGlobalOrFunction()
			if err != nil {
				return nil, err
			}
			switch d := decl.(type) {
			case ast.Global:
				ns.Globals = append(ns.Globals, d)
			case ast.NamedFunction:
				ns.Functions = append(ns.Functions, d)
			}
		}
	}
}

// parseInnerNamespaceRef parses the three namespace-declaration variants:
// `{ ... }` (concrete), `= chain;` (alias), `= open "path";` (file). The
// bare form `open "path";` is accepted for the file variant as well.
func (p *Parser) parseInnerNamespaceRef() (ast.NamespaceRef, error) {
	switch {
	case p.atSym("{"):
		p.advance()
		inner, err := p.parseNamespaceBody(false)
		if err != nil {
			return nil, err
		}
		if err := p.expectSym("}"); err != nil {
			return nil, err
		}
		return ast.ConcreteRef{NS: inner}, nil

	case p.atSym("="):
		p.advance()
		if p.atKw("open") {
			return p.parseInnerNamespaceRef()
		}
		chain, err := p.parseChain()
		if err != nil {
			return nil, err
		}
		if err := p.expectSym(";"); err != nil {
			return nil, err
		}
		return ast.AliasRef{Chain: chain}, nil

	case p.atKw("open"):
		p.advance()
		if p.cur().kind != tString {
			return nil, p.errf("expected string literal path after 'open'")
		}
		path := p.advance().text
		if err := p.expectSym(";"); err != nil {
			return nil, err
		}
		return ast.FileRef{Path: path}, nil

	default:
		return nil, p.errf("expected '{', '=' or 'open' in namespace declaration")
	}
}

// parseChain parses `a::b::c`.
func (p *Parser) parseChain() ([]string, error) {
	first, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	chain := []string{first}
	for p.atSym("::") {
		p.advance()
		next, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		chain = append(chain, next)
	}
	return chain, nil
}

// --- objects ---

func (p *Parser) parseObject() (*ast.GameObject, error) {
	line := p.cur().line
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	obj := &ast.GameObject{Name: name, Line: line}

	if p.atSym(":") {
		p.advance()
		chain, err := p.parseChain()
		if err != nil {
			return nil, err
		}
		obj.Parent = &ast.ParentRef{Chain: chain[:len(chain)-1], Name: chain[len(chain)-1]}
	}

	if err := p.expectSym("{"); err != nil {
		return nil, err
	}
	for !p.atSym("}") {
		switch {
		case p.atKw("event"):
			p.advance()
			ev, err := p.parseEvent()
			if err != nil {
				return nil, err
			}
			obj.Events = append(obj.Events, ev)
		default:
			typ, err := p.parseType()
			if err != nil {
				return nil, err
			}
			name, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			if p.atSym("(") {
				fn, err := p.parseFunctionRest(typ)
				if err != nil {
					return nil, err
				}
				fn.GameObj = obj.Name
				obj.Methods = append(obj.Methods, ast.NamedFunction{Name: name, Fn: fn})
			} else {
				if err := p.expectSym(";"); err != nil {
					return nil, err
				}
				obj.Members = append(obj.Members, ast.Member{Name: name, Type: typ})
			}
		}
	}
	if err := p.expectSym("}"); err != nil {
		return nil, err
	}
	return obj, nil
}

var eventNames = map[string]bool{"create": true, "step": true, "draw": true, "destroy": true}

func (p *Parser) parseEvent() (ast.Event, error) {
	var name string
	switch {
	case p.atKw("create"):
		name = "create"
		p.advance()
	case p.atKw("destroy"):
		name = "destroy"
		p.advance()
	default:
		if p.cur().kind != tIdent || !eventNames[p.cur().text] {
			return ast.Event{}, p.errf("expected event name, got %q", p.cur().text)
		}
		name = p.advance().text
	}
	line := p.cur().line
	if err := p.expectSym("("); err != nil {
		return ast.Event{}, err
	}
	formals, err := p.parseFormals()
	if err != nil {
		return ast.Event{}, err
	}
	body, err := p.parseBlockStmts()
	if err != nil {
		return ast.Event{}, err
	}
	return ast.Event{Name: name, Fn: &ast.Function{ReturnType: ast.Void(), Formals: formals, Block: body, Line: line}}, nil
}

// --- free functions / globals ---

func (p *Parser) parseExternFunction() (ast.NamedFunction, error) {
	typ, err := p.parseType()
	if err != nil {
		return ast.NamedFunction{}, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return ast.NamedFunction{}, err
	}
	line := p.cur().line
	if err := p.expectSym("("); err != nil {
		return ast.NamedFunction{}, err
	}
	formals, err := p.parseFormals()
	if err != nil {
		return ast.NamedFunction{}, err
	}
	if err := p.expectSym(";"); err != nil {
		return ast.NamedFunction{}, err
	}
	return ast.NamedFunction{Name: name, Fn: &ast.Function{ReturnType: typ, Formals: formals, Block: nil, Line: line}}, nil
}

func (p *Parser) parseGlobalOrFunction() (interface{}, error) {
	typ, err := p.parseType()
	if err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	line := p.cur().line
	if p.atSym("(") {
		fn, err := p.parseFunctionRest(typ)
		if err != nil {
			return nil, err
		}
		return ast.NamedFunction{Name: name, Fn: fn}, nil
	}
	g := ast.Global{Name: name, Type: typ, Line: line}
	if p.atSym("=") {
		p.advance()
		init, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		g.Init = init
	}
	if err := p.expectSym(";"); err != nil {
		return nil, err
	}
	return g, nil
}

// parseFunctionRest parses `(formals) { body }` after the return type and
// name have already been consumed, with cur() positioned at `(`.
func (p *Parser) parseFunctionRest(ret ast.Type) (*ast.Function, error) {
	line := p.cur().line
	if err := p.expectSym("("); err != nil {
		return nil, err
	}
	formals, err := p.parseFormals()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlockStmts()
	if err != nil {
		return nil, err
	}
	return &ast.Function{ReturnType: ret, Formals: formals, Block: body, Line: line}, nil
}

func (p *Parser) parseFormals() ([]ast.Formal, error) {
	var formals []ast.Formal
	if p.atSym(")") {
		p.advance()
		return formals, nil
	}
	for {
		typ, err := p.parseType()
		if err != nil {
			return nil, err
		}
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		formals = append(formals, ast.Formal{Name: name, Type: typ})
		if p.atSym(",") {
			p.advance()
			continue
		}
		break
	}
	if err := p.expectSym(")"); err != nil {
		return nil, err
	}
	return formals, nil
}

// --- types ---

func (p *Parser) parseType() (ast.Type, error) {
	var base ast.Type
	switch {
	case p.atKw("int"):
		p.advance()
		base = ast.Int()
	case p.atKw("bool"):
		p.advance()
		base = ast.Bool()
	case p.atKw("float"):
		p.advance()
		base = ast.Float()
	case p.atKw("string"):
		p.advance()
		base = ast.String()
	case p.atKw("void"):
		p.advance()
		base = ast.Void()
	case p.atKw("sprite"):
		p.advance()
		base = ast.Sprite()
	case p.atKw("sound"):
		p.advance()
		base = ast.Sound()
	case p.cur().kind == tIdent:
		chain, err := p.parseChain()
		if err != nil {
			return ast.Type{}, err
		}
		base = ast.Object(chain[:len(chain)-1], chain[len(chain)-1])
	default:
		return ast.Type{}, p.errf("expected a type, got %q", p.cur().text)
	}
	for p.atSym("[") {
		p.advance()
		if p.cur().kind != tInt {
			return ast.Type{}, p.errf("expected array length, got %q", p.cur().text)
		}
		n, err := parseIntLiteral(p.advance().text)
		if err != nil {
			return ast.Type{}, err
		}
		if err := p.expectSym("]"); err != nil {
			return ast.Type{}, err
		}
		base = ast.Array(base, int(n))
	}
	return base, nil
}

// --- statements ---

func (p *Parser) parseBlockStmts() ([]ast.Statement, error) {
	if err := p.expectSym("{"); err != nil {
		return nil, err
	}
	var stmts []ast.Statement
	for !p.atSym("}") {
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	p.advance()
	return stmts, nil
}

func (p *Parser) parseStmt() (ast.Statement, error) {
	line := p.cur().line
	switch {
	case p.atSym("{"):
		body, err := p.parseBlockStmts()
		if err != nil {
			return nil, err
		}
		return &ast.BlockStmt{BaseStmt: ast.BaseStmt{SourceLine: line}, Body: body}, nil

	case p.atKw("return"):
		p.advance()
		if p.atSym(";") {
			p.advance()
			return &ast.ReturnStmt{BaseStmt: ast.BaseStmt{SourceLine: line}}, nil
		}
		v, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expectSym(";"); err != nil {
			return nil, err
		}
		return &ast.ReturnStmt{BaseStmt: ast.BaseStmt{SourceLine: line}, Value: v}, nil

	case p.atKw("break"):
		p.advance()
		if err := p.expectSym(";"); err != nil {
			return nil, err
		}
		return &ast.BreakStmt{BaseStmt: ast.BaseStmt{SourceLine: line}}, nil

	case p.atKw("if"):
		return p.parseIf()

	case p.atKw("while"):
		p.advance()
		if err := p.expectSym("("); err != nil {
			return nil, err
		}
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expectSym(")"); err != nil {
			return nil, err
		}
		body, err := p.parseStmtAsBlock()
		if err != nil {
			return nil, err
		}
		return &ast.WhileStmt{BaseStmt: ast.BaseStmt{SourceLine: line}, Cond: cond, Body: body}, nil

	case p.atKw("for"):
		return p.parseFor()

	case p.atKw("foreach"):
		return p.parseForeach()

	case p.isTypeStart() || p.looksLikeObjectDecl():
		return p.parseVarDecl()

	default:
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expectSym(";"); err != nil {
			return nil, err
		}
		return &ast.ExprStmt{BaseStmt: ast.BaseStmt{SourceLine: line}, X: x}, nil
	}
}

// isTypeStart reports whether the current token can only begin a
// primitive type, used to disambiguate a local `T x;` declaration from a
// bare expression statement.
func (p *Parser) isTypeStart() bool {
	t := p.cur()
	if t.kind != tKeyword {
		return false
	}
	switch t.text {
	case "int", "bool", "float", "string", "sprite", "sound":
		return true
	}
	return false
}

// looksLikeObjectDecl disambiguates a local declaration of an object type
// (`enemy e = ...;`, possibly array- or chain-qualified) from an
// expression statement that merely starts with an identifier (a call, a
// member access, an assignment). It looks ahead over a full type
// production without consuming any tokens permanently.
func (p *Parser) looksLikeObjectDecl() bool {
	save := p.pos
	defer func() { p.pos = save }()

	if p.cur().kind != tIdent {
		return false
	}
	p.advance()
	for p.atSymAny("::") {
		p.advance()
		if p.cur().kind != tIdent {
			return false
		}
		p.advance()
	}
	for p.atSymAny("[") {
		p.advance()
		if p.cur().kind != tInt {
			return false
		}
		p.advance()
		if !p.atSymAny("]") {
			return false
		}
		p.advance()
	}
	return p.cur().kind == tIdent
}

func (p *Parser) parseVarDecl() (ast.Statement, error) {
	line := p.cur().line
	typ, err := p.parseType()
	if err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	v := &ast.VarDeclStmt{BaseStmt: ast.BaseStmt{SourceLine: line}, Name: name, Type: typ}
	if p.atSym("=") {
		p.advance()
		init, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		v.Init = init
	}
	if err := p.expectSym(";"); err != nil {
		return nil, err
	}
	return v, nil
}

// parseStmtAsBlock accepts either a `{ ... }` block or a single statement
// and normalizes it to a statement slice.
func (p *Parser) parseStmtAsBlock() ([]ast.Statement, error) {
	if p.atSym("{") {
		return p.parseBlockStmts()
	}
	s, err := p.parseStmt()
	if err != nil {
		return nil, err
	}
	return []ast.Statement{s}, nil
}

func (p *Parser) parseIf() (ast.Statement, error) {
	line := p.cur().line
	p.advance()
	if err := p.expectSym("("); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expectSym(")"); err != nil {
		return nil, err
	}
	then, err := p.parseStmtAsBlock()
	if err != nil {
		return nil, err
	}
	stmt := &ast.IfStmt{BaseStmt: ast.BaseStmt{SourceLine: line}, Cond: cond, Then: then}
	if p.atKw("else") {
		p.advance()
		if p.atKw("if") {
			elseif, err := p.parseIf()
			if err != nil {
				return nil, err
			}
			stmt.Else = []ast.Statement{elseif}
		} else {
			els, err := p.parseStmtAsBlock()
			if err != nil {
				return nil, err
			}
			stmt.Else = els
		}
	}
	return stmt, nil
}

func (p *Parser) parseFor() (ast.Statement, error) {
	line := p.cur().line
	p.advance()
	if err := p.expectSym("("); err != nil {
		return nil, err
	}
	f := &ast.ForStmt{BaseStmt: ast.BaseStmt{SourceLine: line}}
	if !p.atSym(";") {
		if p.isTypeStart() || p.looksLikeObjectDecl() {
			init, err := p.parseVarDecl()
			if err != nil {
				return nil, err
			}
			f.Init = init
		} else {
			x, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expectSym(";"); err != nil {
				return nil, err
			}
			f.Init = &ast.ExprStmt{BaseStmt: ast.BaseStmt{SourceLine: line}, X: x}
		}
	} else {
		p.advance()
	}
	if !p.atSym(";") {
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		f.Cond = cond
	}
	if err := p.expectSym(";"); err != nil {
		return nil, err
	}
	if !p.atSym(")") {
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		f.Step = &ast.ExprStmt{BaseStmt: ast.BaseStmt{SourceLine: line}, X: x}
	}
	if err := p.expectSym(")"); err != nil {
		return nil, err
	}
	body, err := p.parseStmtAsBlock()
	if err != nil {
		return nil, err
	}
	f.Body = body
	return f, nil
}

func (p *Parser) parseForeach() (ast.Statement, error) {
	line := p.cur().line
	p.advance()
	if err := p.expectSym("("); err != nil {
		return nil, err
	}
	typ, err := p.parseType()
	if err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expectSym(")"); err != nil {
		return nil, err
	}
	body, err := p.parseStmtAsBlock()
	if err != nil {
		return nil, err
	}
	return &ast.ForeachStmt{BaseStmt: ast.BaseStmt{SourceLine: line}, VarName: name, ObjectType: typ, Body: body}, nil
}

// --- expressions (precedence climbing) ---

// Precedence levels, low to high: assignment, ||, &&, equality, relational,
// additive, multiplicative, unary, postfix, primary.

func (p *Parser) parseExpr() (ast.Expr, error) { return p.parseAssign() }

func (p *Parser) parseAssign() (ast.Expr, error) {
	left, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	switch {
	case p.atSym("="):
		p.advance()
		rhs, err := p.parseAssign()
		if err != nil {
			return nil, err
		}
		return &ast.AssignExpr{Target: left, Value: rhs}, nil
	case p.atSym("+=") || p.atSym("-=") || p.atSym("*=") || p.atSym("/="):
		op := p.advance().text
		rhs, err := p.parseAssign()
		if err != nil {
			return nil, err
		}
		return &ast.CompoundAssignExpr{Op: op, Target: left, Value: rhs}, nil
	}
	return left, nil
}

func (p *Parser) atSymAny(s string) bool { return p.cur().kind == tSymbol && p.cur().text == s }

func (p *Parser) parseOr() (ast.Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.atSymAny("||") {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Op: "||", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (ast.Expr, error) {
	left, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for p.atSymAny("&&") {
		p.advance()
		right, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Op: "&&", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseEquality() (ast.Expr, error) {
	left, err := p.parseRelational()
	if err != nil {
		return nil, err
	}
	for p.atSymAny("==") || p.atSymAny("!=") {
		op := p.advance().text
		right, err := p.parseRelational()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseRelational() (ast.Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for p.atSymAny("<") || p.atSymAny("<=") || p.atSymAny(">") || p.atSymAny(">=") {
		op := p.advance().text
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAdditive() (ast.Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.atSymAny("+") || p.atSymAny("-") {
		op := p.advance().text
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseMultiplicative() (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.atSymAny("*") || p.atSymAny("/") {
		op := p.advance().text
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	switch {
	case p.atSymAny("!") || p.atSymAny("-"):
		op := p.advance().text
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Op: op, X: x}, nil
	case p.atSymAny("++") || p.atSymAny("--"):
		op := p.advance().text
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.IncDecExpr{Op: op, Prefix: true, Target: x}, nil
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() (ast.Expr, error) {
	x, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.atSymAny("."):
			p.advance()
			name, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			if p.atSymAny("(") {
				args, err := p.parseArgs()
				if err != nil {
					return nil, err
				}
				x = &ast.MethodCallExpr{Recv: x, Name: name, Args: args}
			} else {
				x = &ast.MemberExpr{Recv: x, Name: name}
			}
		case p.atSymAny("["):
			p.advance()
			idx, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expectSym("]"); err != nil {
				return nil, err
			}
			x = &ast.IndexExpr{Array: x, Index: idx}
		case p.atSymAny("++") || p.atSymAny("--"):
			op := p.advance().text
			x = &ast.IncDecExpr{Op: op, Prefix: false, Target: x}
		default:
			return x, nil
		}
	}
}

func (p *Parser) parseArgs() ([]ast.Expr, error) {
	if err := p.expectSym("("); err != nil {
		return nil, err
	}
	var args []ast.Expr
	if p.atSymAny(")") {
		p.advance()
		return args, nil
	}
	for {
		a, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		if p.atSymAny(",") {
			p.advance()
			continue
		}
		break
	}
	if err := p.expectSym(")"); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	t := p.cur()
	switch {
	case t.kind == tInt:
		p.advance()
		n, err := parseIntLiteral(t.text)
		if err != nil {
			return nil, err
		}
		return &ast.IntLit{Value: n}, nil

	case t.kind == tFloat:
		p.advance()
		f, err := parseFloatLiteral(t.text)
		if err != nil {
			return nil, err
		}
		return &ast.FloatLit{Value: f}, nil

	case t.kind == tString:
		p.advance()
		return &ast.StringLit{Value: t.text}, nil

	case p.atKw("true"):
		p.advance()
		return &ast.BoolLit{Value: true}, nil

	case p.atKw("false"):
		p.advance()
		return &ast.BoolLit{Value: false}, nil

	case p.atKw("none"):
		p.advance()
		return &ast.NoneLit{}, nil

	case p.atKw("this"):
		p.advance()
		return &ast.IdentExpr{Name: "this"}, nil

	case p.atKw("super"):
		p.advance()
		return &ast.IdentExpr{Name: "super"}, nil

	case p.atKw("create"):
		p.advance()
		chain, err := p.parseChain()
		if err != nil {
			return nil, err
		}
		args, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		return &ast.CreateExpr{Chain: chain[:len(chain)-1], Name: chain[len(chain)-1], Args: args}, nil

	case p.atKw("destroy"):
		p.advance()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.DestroyExpr{X: x}, nil

	case p.atKw("delete"):
		p.advance()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.DeleteExpr{X: x}, nil

	case p.atSymAny("["):
		p.advance()
		var elems []ast.Expr
		if !p.atSymAny("]") {
			for {
				e, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				elems = append(elems, e)
				if p.atSymAny(",") {
					p.advance()
					continue
				}
				break
			}
		}
		if err := p.expectSym("]"); err != nil {
			return nil, err
		}
		return &ast.ArrayLit{Elements: elems}, nil

	case p.atSymAny("("):
		p.advance()
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expectSym(")"); err != nil {
			return nil, err
		}
		return x, nil

	case t.kind == tIdent:
		chain, err := p.parseChain()
		if err != nil {
			return nil, err
		}
		if p.atSymAny("(") {
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			return &ast.CallExpr{Chain: chain[:len(chain)-1], Name: chain[len(chain)-1], Args: args}, nil
		}
		if len(chain) > 1 {
			return nil, p.errf("qualified name %v used outside a call", chain)
		}
		return &ast.IdentExpr{Name: chain[0]}, nil

	default:
		return nil, p.errf("unexpected token %q", t.text)
	}
}
