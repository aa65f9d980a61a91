package runtime

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// Every substring here is load-bearing: downstream emitted code calls these
// names and relies on this exact control flow (strict-mode routing,
// mark-suppression short-circuit).
func TestPreambleContainsRequiredSubstrings(t *testing.T) {
	required := []string{
		"if (!is.logical(x)) rr_type_error",
		"rr_index1_read_strict <- function",
		".rr_env$strict_index_read <-",
		"if (.rr_env$strict_index_read)",
		".rr_env$runtime_mode <-",
		".rr_env$fast_runtime <-",
		".rr_env$enable_marks <-",
		"if (!.rr_env$enable_marks) return(invisible(NULL))",
	}
	for _, s := range required {
		require.Contains(t, Preamble, s)
	}
}

func TestPreambleIsDedented(t *testing.T) {
	for _, line := range strings.Split(Preamble, "\n") {
		require.False(t, strings.HasPrefix(line, "\t\t"), "preamble line retained raw double-tab indentation: %q", line)
	}
}

func TestPreambleDoesNotStartWithBlankLine(t *testing.T) {
	require.False(t, strings.HasPrefix(Preamble, "\n"), "leading blank line from the raw string literal must be stripped")
}
