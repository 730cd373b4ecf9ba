package lower_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CindyWang1997/makergame/ast"
	"github.com/CindyWang1997/makergame/internal/mangle"
	"github.com/CindyWang1997/makergame/loader"
	"github.com/CindyWang1997/makergame/lower"
	"github.com/CindyWang1997/makergame/sema"
)

func build(t *testing.T, src string) (*sema.Analyzer, *lower.Registry) {
	t.Helper()
	prog, files, err := loader.Load(src, ".")
	require.NoError(t, err)
	an := sema.New(prog, files)
	require.NoError(t, an.Analyze(loader.MainPath))
	reg, err := lower.Build(an, an.AllObjectTypes())
	require.NoError(t, err)
	return an, reg
}

func fieldNames(l *lower.Layout) []string {
	names := make([]string, len(l.Fields))
	for i, f := range l.Fields {
		names[i] = f.Name
	}
	return names
}

func TestLayoutIncludesRootPrefixAndOwnMembers(t *testing.T) {
	an, reg := build(t, `
		object main {
			int score;
			event create() { }
		}
	`)
	l, err := reg.Layout(an, ast.Object(nil, "main"))
	require.NoError(t, err)

	names := fieldNames(l)
	assert.Equal(t, []string{
		lower.FieldVtablePtr, lower.FieldGeneralListNode, lower.FieldID,
		"object_node", "main_node", "score",
	}, names)
}

func TestLayoutAccumulatesParentMembersBeforeOwn(t *testing.T) {
	an, reg := build(t, `
		object parent {
			int hp;
		}
		object child : parent {
			int mana;
			event create() { }
		}
	`)
	l, err := reg.Layout(an, ast.Object(nil, "child"))
	require.NoError(t, err)

	names := fieldNames(l)
	assert.Equal(t, []string{
		lower.FieldVtablePtr, lower.FieldGeneralListNode, lower.FieldID,
		"object_node", "parent_node", "hp", "child_node", "mana",
	}, names)
}

func TestLayoutDeduplicatesSharedAncestorMembers(t *testing.T) {
	// grandparent -> parent -> child; grandparent's members must appear
	// exactly once even though accumulatedMembers is re-walked per ancestor.
	an, reg := build(t, `
		object grandparent {
			int gx;
		}
		object parent : grandparent {
			int px;
		}
		object child : parent {
			int cx;
			event create() { }
		}
	`)
	l, err := reg.Layout(an, ast.Object(nil, "child"))
	require.NoError(t, err)

	names := fieldNames(l)
	seen := map[string]int{}
	for _, n := range names {
		seen[n]++
	}
	assert.Equal(t, 1, seen["gx"])
	assert.Equal(t, 1, seen["px"])
	assert.Equal(t, 1, seen["cx"])
}

func TestVtableInheritsAncestorEventWhenNotOverridden(t *testing.T) {
	an, reg := build(t, `
		object parent {
			event step() { std::print::s("tick"); }
		}
		object child : parent {
			event create() { }
		}
	`)
	vt, ok := reg.Vtables[mangleType(an, "child")]
	require.True(t, ok)
	assert.NotEmpty(t, vt.StepFn)
	assert.Contains(t, vt.StepFn, "parent")
}

func TestVtableOverrideWinsOverAncestor(t *testing.T) {
	an, reg := build(t, `
		object parent {
			event step() { std::print::s("parent"); }
		}
		object child : parent {
			event step() { std::print::s("child"); }
		}
	`)
	vt, ok := reg.Vtables[mangleType(an, "child")]
	require.True(t, ok)
	assert.Contains(t, vt.StepFn, "child")
}

func TestVtableNeverDispatchesCreate(t *testing.T) {
	// create is never virtual (spec §4.3): no vtable slot's label ever
	// names a create handler, and the Vtable type has no Create field at all.
	_, reg := build(t, `
		object parent {
			event create() { std::print::s("parent create"); }
		}
		object child : parent {
			event create() { std::print::s("child create"); }
		}
	`)
	for _, vt := range reg.Vtables {
		for _, label := range []string{vt.StepFn, vt.DrawFn, vt.DestroyFn} {
			assert.NotContains(t, label, "create")
		}
	}
}

func mangleType(an *sema.Analyzer, name string) string {
	t := ast.Object(nil, name)
	return mangle.Type(an.ObjectChain(t), name)
}
