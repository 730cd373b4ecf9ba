package ir_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CindyWang1997/makergame/ir"
	"github.com/CindyWang1997/makergame/loader"
	"github.com/CindyWang1997/makergame/lower"
	"github.com/CindyWang1997/makergame/sema"
)

func buildModule(t *testing.T, src string) (*ir.Module, error) {
	t.Helper()
	prog, files, err := loader.Load(src, ".")
	require.NoError(t, err)
	an := sema.New(prog, files)
	require.NoError(t, an.Analyze(loader.MainPath))
	reg, err := lower.Build(an, an.AllObjectTypes())
	require.NoError(t, err)
	return ir.Build(prog, an, reg)
}

func TestBuildMissingMainIsRejected(t *testing.T) {
	_, err := buildModule(t, `object helper { }`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing entry point")
}

func TestBuildEmitsGlobalDispatchEntryPoints(t *testing.T) {
	mod, err := buildModule(t, `
		object main {
			event create() { std::print::s("hi"); }
		}
	`)
	require.NoError(t, err)
	require.NoError(t, mod.Validate())

	var labels []string
	for _, fn := range mod.Functions {
		labels = append(labels, fn.Label)
	}
	assert.Contains(t, labels, "global_create")
	assert.Contains(t, labels, "global_step")
	assert.Contains(t, labels, "global_draw")
}

func TestBuildExternFunctionHasNoBlocks(t *testing.T) {
	mod, err := buildModule(t, `
		object main {
			event create() { std::print::s("hi"); }
		}
	`)
	require.NoError(t, err)

	for _, fn := range mod.Functions {
		if fn.Label == "std__print__s" {
			assert.True(t, fn.Extern)
			assert.Empty(t, fn.Blocks)
			return
		}
	}
	t.Fatal("std__print__s not found in module")
}

func TestBuildMethodCallLowersToCallDirect(t *testing.T) {
	mod, err := buildModule(t, `
		object parent {
			void compute() { std::print::s("parent"); }
		}
		object child : parent {
			event create() {
				compute();
			}
		}
		object main {
			event create() { create child(); }
		}
	`)
	require.NoError(t, err)
	require.NoError(t, mod.Validate())
	assert.Contains(t, mod.String(), "call_direct")
}

func TestBuildEveryFunctionValidatesStructurally(t *testing.T) {
	mod, err := buildModule(t, `
		object counter {
			int n;
			void tick() {
				if (n < 10) {
					n = n + 1;
				} else {
					n = 0;
				}
			}
		}
		object main {
			event create() {
				counter c = create counter();
				c.tick();
			}
		}
	`)
	require.NoError(t, err)
	assert.NoError(t, mod.Validate())
}

func TestBuildDestroyEventUnlinksAndChainsToParent(t *testing.T) {
	mod, err := buildModule(t, `
		object parent {
			event destroy() { std::print::s("parent gone"); }
		}
		object child : parent {
			event destroy() { std::print::s("child gone"); }
		}
		object main {
			event create() {
				child c = create child();
				destroy c;
			}
		}
	`)
	require.NoError(t, err)
	require.NoError(t, mod.Validate())

	var destroyFn *ir.Function
	for _, fn := range mod.Functions {
		if fn.Label == "child__event_destroy" {
			destroyFn = fn
		}
	}
	require.NotNil(t, destroyFn, "child__event_destroy not found in module")

	text := destroyFn.String()
	assert.Contains(t, text, "list_unlink child")
	assert.Contains(t, text, "call_direct parent__event_destroy")
}

func TestBuildDeadCodeAfterReturnIsUnreachable(t *testing.T) {
	mod, err := buildModule(t, `
		object counter {
			int n;
			void tick() {
				return;
				n = 1;
			}
		}
		object main {
			event create() {
				counter c = create counter();
				c.tick();
			}
		}
	`)
	require.NoError(t, err)
	require.NoError(t, mod.Validate())
	assert.Contains(t, mod.String(), "unreachable")
}

func TestBuildObjectEqualityLowersToIDFieldComparison(t *testing.T) {
	mod, err := buildModule(t, `
		object helper { }
		object main {
			event create() {
				helper a = create helper();
				helper b = create helper();
				bool same = a == b;
			}
		}
	`)
	require.NoError(t, err)
	require.NoError(t, mod.Validate())

	var createFn *ir.Function
	for _, fn := range mod.Functions {
		if fn.Label == "main__event_create" {
			createFn = fn
		}
	}
	require.NotNil(t, createFn, "main__event_create not found in module")
	assert.Contains(t, createFn.String(), "loadfield")
}

func TestValidateRejectsHandwrittenDanglingJump(t *testing.T) {
	mod := &ir.Module{Functions: []*ir.Function{{
		Label: "broken",
		Blocks: []*ir.Block{{
			Label: "entry",
			Term:  ir.Jump{Target: "nowhere"},
		}},
	}}}
	err := mod.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "undeclared block")
}
