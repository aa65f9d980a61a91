package codegen_test

import (
	"strings"
	"testing"

	"github.com/lithammer/dedent"
	"github.com/stretchr/testify/require"

	"github.com/rrscript/rrc/internal/codegen"
	"github.com/rrscript/rrc/internal/hir"
	"github.com/rrscript/rrc/internal/lower"
	"github.com/rrscript/rrc/internal/optimize"
	"github.com/rrscript/rrc/internal/rrparser"
)

func compile(t *testing.T, src string, level optimize.Level) string {
	t.Helper()
	mod, err := rrparser.Parse("test.rr", dedent.Dedent(src))
	require.NoError(t, err)

	hirMod, err := lower.New().Lower(mod, hir.ModuleID(0), src)
	require.NoError(t, err)

	hirMod = optimize.Optimize(hirMod, level)

	out, err := codegen.Emit(hirMod, codegen.Options{IncludeRuntime: false})
	require.NoError(t, err)
	return out
}

func TestArithmeticAndPrintRoundTrip(t *testing.T) {
	out := compile(t, `
		main <- function() {
			x <- 1L
			dx <- 2L
			print(x + dx)
		}
		print(main())
	`, optimize.O0)

	require.Contains(t, out, "main <- function() {")
	require.Contains(t, out, "x <- 1L")
	require.Contains(t, out, "dx <- 2L")
	require.Contains(t, out, "print((x + dx))")
	require.Contains(t, out, "print(main())")
}

// Conditions are emitted bare under --no-runtime (IncludeRuntime: false, as
// compile() always uses): rr_bool is only defined in the runtime preamble,
// so a generated program meant to run without it cannot reference rr_bool
// or it would fail under a vanilla interpreter.
func TestSingleLineControlForms(t *testing.T) {
	out := compile(t, `
		main <- function() {
			x <- 1L
			if x > 0L print(x)
			while x > 0L x = x - 1L
		}
	`, optimize.O0)

	require.Contains(t, out, "if ((x > 0L))")
	require.Contains(t, out, "while ((x > 0L))")
	require.NotContains(t, out, "rr_bool")
}

// With the runtime preamble included, conditions are guarded by rr_bool.
func TestConditionsAreGuardedByRrBoolWhenRuntimeIncluded(t *testing.T) {
	mod, err := rrparser.Parse("test.rr", dedent.Dedent(`
		main <- function() {
			x <- 1L
			if x > 0L print(x)
			while x > 0L x = x - 1L
		}
	`))
	require.NoError(t, err)
	hirMod, err := lower.New().Lower(mod, hir.ModuleID(0), "")
	require.NoError(t, err)
	hirMod = optimize.Optimize(hirMod, optimize.O0)
	out, err := codegen.Emit(hirMod, codegen.Options{IncludeRuntime: true})
	require.NoError(t, err)

	require.Contains(t, out, "if (rr_bool((x > 0L)))")
	require.Contains(t, out, "while (rr_bool((x > 0L)))")
}

// TestSiblingStatementNotAbsorbed is the idx.cube scenario: a single-line
// if with no else must not swallow the following statement, even when a
// dotted identifier follows on the next line.
func TestSiblingStatementNotAbsorbed(t *testing.T) {
	out := compile(t, `
		main <- function() {
			idx <- 1L
			if idx > 0L print(idx)
			idx.cube <- idx * idx * idx
			print(idx.cube)
		}
	`, optimize.O0)

	require.Contains(t, out, "idx.cube <-")
	require.Contains(t, out, "print(idx.cube)")
}

func TestNoReexpansionOnLaterUse(t *testing.T) {
	out := compile(t, `
		main <- function(x, dx) {
			x = x + dx
			print(x)
		}
	`, optimize.O2)

	// x and dx are parameters, so x's value after the assignment is never
	// re-derivable as a literal or single local (its RHS is a Binary): O2
	// must leave the later use as a bare reference, never re-synthesizing
	// "(.arg_x + .arg_dx)" a second time.
	require.Equal(t, 1, strings.Count(out, "(.arg_x + .arg_dx)"))
	require.Contains(t, out, "print(.arg_x)")
}

func TestIfElseDoesNotReexpandOnEitherPath(t *testing.T) {
	out := compile(t, `
		main <- function(x: i64, dx: i64) {
			x = x + dx
			if x > 0L {
				print(x)
			} else {
				print(x)
			}
		}
	`, optimize.O2)

	require.Equal(t, 1, strings.Count(out, ".arg_x + .arg_dx"))
}

func TestCanonicalRangeEmitsAsColonSeq(t *testing.T) {
	out := compile(t, `
		main <- function(n: i64) {
			for i in 1L..n {
				print(i)
			}
		}
	`, optimize.O0)

	require.Contains(t, out, "for (i in 1L:.arg_n) {")
}

func TestCompoundAssignmentLowersToReadThenOp(t *testing.T) {
	out := compile(t, `
		main <- function() {
			total <- 0L
			total += 5L
		}
	`, optimize.O0)

	require.Contains(t, out, "total <- (total + 5L)")
}

func TestIndexReadAndWriteRouteThroughRuntimeHelpers(t *testing.T) {
	out := compile(t, `
		main <- function(v) {
			let first = v[1L]
			v[1L] = first
		}
	`, optimize.O0)

	require.Contains(t, out, `rr_index1_read(.arg_v, 1L, "index")`)
	require.Contains(t, out, `rr_index1_write(1L, "index")`)
}

func TestMultiDimIndexReadRoutesPerAxis(t *testing.T) {
	out := compile(t, `
		main <- function(m) {
			let cell = m[1L, 2L]
		}
	`, optimize.O0)

	require.Contains(t, out, `m[rr_index1_write(1L, "index"), rr_index1_write(2L, "index")]`)
}

func TestRecordAndArrayLiteralsEmitListAndC(t *testing.T) {
	out := compile(t, `
		main <- function() {
			let a = [1L, 2L, 3L]
			let r = { x: 1L, y: 2L }
		}
	`, optimize.O0)

	require.Contains(t, out, "c(1L, 2L, 3L)")
	require.Contains(t, out, "list(x = 1L, y = 2L)")
}

func TestConstantFoldingAtO1(t *testing.T) {
	out := compile(t, `
		main <- function() {
			print(2L + 3L)
		}
	`, optimize.O1)

	require.Contains(t, out, "print(5L)")
}

func TestDeadLetEliminationAtO1(t *testing.T) {
	out := compile(t, `
		main <- function() {
			let unused = 42L
			print(1L)
		}
	`, optimize.O1)

	require.NotContains(t, out, "unused")
}
