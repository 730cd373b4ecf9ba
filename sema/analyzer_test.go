package sema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CindyWang1997/makergame/ast"
	"github.com/CindyWang1997/makergame/loader"
	"github.com/CindyWang1997/makergame/sema"
)

func analyze(t *testing.T, src string) (*sema.Analyzer, error) {
	t.Helper()
	prog, files, err := loader.Load(src, ".")
	require.NoError(t, err)
	an := sema.New(prog, files)
	return an, an.Analyze(loader.MainPath)
}

func TestAnalyzeInheritedMethodCallsResolveUnqualified(t *testing.T) {
	src := `
		object parent {
			int x;
			void compute() { std::print::s("parent"); }
		}
		object child : parent {
			event create() {
				x = 3;
				compute();
			}
		}
	`
	_, err := analyze(t, src)
	require.NoError(t, err)
}

func TestAnalyzeDuplicateMethodOnSameObjectIsRejected(t *testing.T) {
	src := `
		object thing {
			void compute() { }
			void compute() { }
		}
	`
	_, err := analyze(t, src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate method "compute"`)
}

func TestAnalyzeDuplicateMemberOnSameObjectIsRejected(t *testing.T) {
	src := `
		object thing {
			int x;
			int x;
		}
	`
	_, err := analyze(t, src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate member "x"`)
}

func TestAnalyzeOverrideAcrossChainIsNotADuplicate(t *testing.T) {
	// A child redeclaring a name its parent also declares is an override,
	// not a same-object duplicate, and must not trip checkObjectOwnDuplicates.
	src := `
		object parent {
			void compute() { std::print::s("parent"); }
		}
		object child : parent {
			void compute() { std::print::s("child"); }
			event create() { compute(); }
		}
	`
	_, err := analyze(t, src)
	require.NoError(t, err)
}

func TestAnalyzeIllegalAssignmentIsRejected(t *testing.T) {
	src := `
		object main {
			event create() {
				int x;
				x = true;
			}
		}
	`
	_, err := analyze(t, src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "illegal assignment int = bool")
}

func TestAnalyzeBoolEqualityIsRejected(t *testing.T) {
	src := `
		object main {
			event create() {
				bool a;
				bool b;
				bool c;
				c = a == b;
			}
		}
	`
	_, err := analyze(t, src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot compare bool and bool")
}

func TestAnalyzeStringEqualityIsRejected(t *testing.T) {
	src := `
		object main {
			event create() {
				string a;
				string b;
				bool c;
				c = a == b;
			}
		}
	`
	_, err := analyze(t, src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot compare string and string")
}

func TestAnalyzeNumericEqualityStillAccepted(t *testing.T) {
	src := `
		object main {
			event create() {
				int a;
				float b;
				bool c;
				c = a == b;
			}
		}
	`
	_, err := analyze(t, src)
	require.NoError(t, err)
}

func TestAnalyzeInheritanceCycleIsRejected(t *testing.T) {
	src := `
		object a : b { }
		object b : a { }
	`
	_, err := analyze(t, src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}

func TestAnalyzeUnknownParentIsRejected(t *testing.T) {
	src := `object child : nonexistent { }`
	_, err := analyze(t, src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown parent")
}

func TestAnalyzeBreakOutsideLoopIsRejected(t *testing.T) {
	src := `
		object main {
			event create() {
				break;
			}
		}
	`
	_, err := analyze(t, src)
	require.Error(t, err)
}

func TestAnalyzeVirtualDispatchResolvesToMostDerived(t *testing.T) {
	src := `
		object parent {
			event step() { std::print::s("parent step"); }
		}
		object child : parent {
			event step() { std::print::s("child step"); }
		}
		object main {
			event create() { create child(); }
		}
	`
	an, err := analyze(t, src)
	require.NoError(t, err)

	childType := ast.Object(nil, "child")
	_, _, ok := an.LookupMethod(childType, "step")
	require.False(t, ok, "step is declared as an event, not a method; LookupMethod must not see it")

	events := an.Events(childType)
	require.Len(t, events, 1)
	assert.Equal(t, "step", events[0].Name)
}
