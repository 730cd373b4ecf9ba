package cmd_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CindyWang1997/makergame/cmd"
)

func TestRunStdPrintAndGameEnd(t *testing.T) {
	src := `
		object main {
			event create() {
				std::print::s("success");
				std::game::end();
			}
		}
	`
	out, err := cmd.Run(cmd.ModeIRValidated, src)
	require.NoError(t, err)
	assert.Contains(t, out, "call_direct")
	assert.Contains(t, out, `"success"`)
	assert.Contains(t, out, "global_create")
}

func TestRunIllegalAssignmentIsRejected(t *testing.T) {
	src := `
		object main {
			event create() {
				int x;
				x = true;
			}
		}
	`
	_, err := cmd.Run(cmd.ModeIRValidated, src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "illegal assignment int = bool")
}

func TestRunMissingMainIsRejected(t *testing.T) {
	src := `object helper { }`
	_, err := cmd.Run(cmd.ModeIRValidated, src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing entry point")
}

func TestRunInheritanceOverride(t *testing.T) {
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
		object main {
			event create() { create child(); }
		}
	`
	out, err := cmd.Run(cmd.ModeIRValidated, src)
	require.NoError(t, err)
	assert.Contains(t, out, "func ")
}

func TestRunASTModeDoesNotRequireAnalysis(t *testing.T) {
	// A program that would fail semantic analysis (void member) should
	// still print under -a, since -a never runs the analyzer.
	src := `object main { void broken; }`
	out, err := cmd.Run(cmd.ModeAST, src)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}
