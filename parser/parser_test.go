package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CindyWang1997/makergame/ast"
	"github.com/CindyWang1997/makergame/parser"
)

func TestParseGlobalAndFreeFunction(t *testing.T) {
	ns, err := parser.Parse(`
		int counter = 0;
		int add(int a, int b) { return a + b; }
	`)
	require.NoError(t, err)
	require.Len(t, ns.Globals, 1)
	assert.Equal(t, "counter", ns.Globals[0].Name)
	assert.Equal(t, ast.Int(), ns.Globals[0].Type)

	require.Len(t, ns.Functions, 1)
	fn := ns.Functions[0]
	assert.Equal(t, "add", fn.Name)
	assert.Equal(t, ast.Int(), fn.Fn.ReturnType)
	require.Len(t, fn.Fn.Formals, 2)
	require.Len(t, fn.Fn.Block, 1)
	_, ok := fn.Fn.Block[0].(*ast.ReturnStmt)
	assert.True(t, ok)
}

func TestParseExternFunctionHasNilBlock(t *testing.T) {
	ns, err := parser.Parse(`extern void log(string s);`)
	require.NoError(t, err)
	require.Len(t, ns.Functions, 1)
	assert.Nil(t, ns.Functions[0].Fn.Block)
}

func TestParseObjectWithParentAndEvents(t *testing.T) {
	ns, err := parser.Parse(`
		object enemy : main {
			int hp;
			event create() { hp = 10; }
			event step() {
				if (hp <= 0) {
					destroy this;
				}
			}
		}
	`)
	require.NoError(t, err)
	require.Len(t, ns.Objects, 1)
	obj := ns.Objects[0].Obj
	assert.Equal(t, "enemy", obj.Name)
	require.NotNil(t, obj.Parent)
	assert.Equal(t, "main", obj.Parent.Name)
	require.Len(t, obj.Members, 1)
	assert.Equal(t, "hp", obj.Members[0].Name)
	require.NotNil(t, obj.Event("create"))
	require.NotNil(t, obj.Event("step"))
}

func TestParseUsingAndNamespaceVariants(t *testing.T) {
	ns, err := parser.Parse(`
		using util;
		private using std::print;
		namespace util { int helper() { return 1; } }
		private namespace alias = other::chain;
		namespace ext = open "extra.mg";
	`)
	require.NoError(t, err)
	require.Len(t, ns.Uses, 2)
	assert.False(t, ns.Uses[0].Private)
	assert.True(t, ns.Uses[1].Private)
	assert.Equal(t, []string{"std", "print"}, ns.Uses[1].Chain)

	require.Len(t, ns.Inner, 3)
	_, concrete := ns.Inner[0].Ref.(ast.ConcreteRef)
	assert.True(t, concrete)

	alias, ok := ns.Inner[1].Ref.(ast.AliasRef)
	require.True(t, ok)
	assert.Equal(t, []string{"other", "chain"}, alias.Chain)
	assert.True(t, ns.Inner[1].Private)

	file, ok := ns.Inner[2].Ref.(ast.FileRef)
	require.True(t, ok)
	assert.Equal(t, "extra.mg", file.Path)
}

func TestParseForDesugarLeavesForStmtIntact(t *testing.T) {
	ns, err := parser.Parse(`
		void run() {
			for (int i = 0; i < 10; i += 1) {
				std::print::s("x");
			}
		}
	`)
	require.NoError(t, err)
	body := ns.Functions[0].Fn.Block
	require.Len(t, body, 1)
	forStmt, ok := body[0].(*ast.ForStmt)
	require.True(t, ok)
	require.NotNil(t, forStmt.Init)
	require.NotNil(t, forStmt.Cond)
	require.NotNil(t, forStmt.Step)
}

func TestParseExpressionPrecedence(t *testing.T) {
	ns, err := parser.Parse(`int x = 1 + 2 * 3;`)
	require.NoError(t, err)
	bin, ok := ns.Globals[0].Init.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "+", bin.Op)
	right, ok := bin.Right.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "*", right.Op)
}

func TestParseCreateMethodCallAndForeach(t *testing.T) {
	ns, err := parser.Parse(`
		void spawn() {
			enemy e = create enemy(5);
			e.attack(3);
			foreach (enemy x) {
				x.step();
			}
		}
	`)
	require.NoError(t, err)
	body := ns.Functions[0].Fn.Block
	require.Len(t, body, 3)

	decl, ok := body[0].(*ast.VarDeclStmt)
	require.True(t, ok)
	create, ok := decl.Init.(*ast.CreateExpr)
	require.True(t, ok)
	assert.Equal(t, "enemy", create.Name)
	require.Len(t, create.Args, 1)

	exprStmt, ok := body[1].(*ast.ExprStmt)
	require.True(t, ok)
	_, ok = exprStmt.X.(*ast.MethodCallExpr)
	assert.True(t, ok)

	fe, ok := body[2].(*ast.ForeachStmt)
	require.True(t, ok)
	assert.Equal(t, "x", fe.VarName)
	assert.Equal(t, "enemy", fe.ObjectType.Name)
}

func TestParseArrayLiteralAndIndex(t *testing.T) {
	ns, err := parser.Parse(`
		int get(int[3] xs) {
			return xs[0] + xs[1];
		}
		int[3] nums = [1, 2, 3];
	`)
	require.NoError(t, err)
	require.Equal(t, ast.KindArray, ns.Functions[0].Fn.Formals[0].Type.Kind)
	arr, ok := ns.Globals[0].Init.(*ast.ArrayLit)
	require.True(t, ok)
	assert.Len(t, arr.Elements, 3)
}

func TestParseUnterminatedStringIsError(t *testing.T) {
	_, err := parser.Parse(`string s = "oops;`)
	require.Error(t, err)
}

func TestParseMissingSemicolonIsError(t *testing.T) {
	_, err := parser.Parse(`int x = 1`)
	require.Error(t, err)
}
