package codegen_test

import (
	"os"
	"os/exec"
	"path/filepath"
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

// rscriptPath mirrors original_source's rscript_path(): RRSCRIPT overrides
// the interpreter binary; an empty/unset value falls back to "Rscript" on
// PATH.
func rscriptPath() string {
	if p := strings.TrimSpace(os.Getenv("RRSCRIPT")); p != "" {
		return p
	}
	return "Rscript"
}

func rscriptAvailable(path string) bool {
	return exec.Command(path, "--version").Run() == nil
}

// TestEmittedProgramRunsUnderRscript compiles a full program (with the
// runtime preamble included) and executes it with the actual target
// interpreter, skipping when one isn't available on the host — the same
// accommodation original_source's integration tests make for environments
// with no R installation.
func TestEmittedProgramRunsUnderRscript(t *testing.T) {
	path := rscriptPath()
	if !rscriptAvailable(path) {
		t.Skipf("skipping: %s not available", path)
	}

	src := dedent.Dedent(`
		fn square(x: i64) -> i64 = x * x

		main <- function() {
			total <- 0L
			for i in 1L..5L {
				total += square(i)
			}
			print(total)
		}
		main()
	`)

	mod, err := rrparser.Parse("t.rr", src)
	require.NoError(t, err)
	hirMod, err := lower.New().Lower(mod, hir.ModuleID(0), src)
	require.NoError(t, err)
	hirMod = optimize.Optimize(hirMod, optimize.O2)
	out, err := codegen.Emit(hirMod, codegen.Options{IncludeRuntime: true})
	require.NoError(t, err)

	dir := t.TempDir()
	scriptPath := filepath.Join(dir, "program.R")
	require.NoError(t, os.WriteFile(scriptPath, []byte(out), 0o644))

	result, err := exec.Command(path, "--vanilla", scriptPath).Output()
	require.NoError(t, err)

	// 1^2 + 2^2 + 3^2 + 4^2 + 5^2 == 55
	require.Contains(t, string(result), "55")
}
