// Package runtime holds the static target-dialect preamble emitted ahead
// of every compiled module unless --no-runtime is set, following the
// builtin/gen static-asset pattern: one indented Go string literal,
// dedented at init the way the teacher's cst.go dedents heredoc bodies.
package runtime

import "github.com/lithammer/dedent"

// Preamble defines the 1-based indexing helpers, the boolean condition
// guard, process-local mode switches, and the marking no-op path that
// generated code may call into.
var Preamble = dedent.Dedent(rawPreamble)[1:]

const rawPreamble = `
	.rr_env <- new.env(parent = emptyenv())
	.rr_env$runtime_mode <- "default"
	.rr_env$fast_runtime <- FALSE
	.rr_env$enable_marks <- FALSE
	.rr_env$strict_index_read <- FALSE

	rr_type_error <- function(msg) {
	  stop(paste0("rr: type error: ", msg), call. = FALSE)
	}

	rr_bool <- function(x) {
	  if (!is.logical(x)) rr_type_error("expected a logical scalar")
	  if (length(x) != 1 || is.na(x)) rr_type_error("expected a logical scalar")
	  x
	}

	rr_mark <- function(label) {
	  if (!.rr_env$enable_marks) return(invisible(NULL))
	  message(sprintf("[rr] %s", label))
	  invisible(NULL)
	}

	rr_index1_write <- function(idx, label) {
	  if (!is.numeric(idx) || length(idx) != 1 || is.na(idx) || idx < 1) {
	    rr_type_error(sprintf("%s: index must be a positive integer", label))
	  }
	  as.integer(idx)
	}

	rr_index1_read_strict <- function(base, idx, label = "index") {
	  checked <- rr_index1_write(idx, label)
	  if (checked > length(base)) rr_type_error(sprintf("%s: out of bounds", label))
	  base[[checked]]
	}

	rr_index1_read <- function(base, idx, label = "index") {
	  if (.rr_env$strict_index_read) {
	    return(rr_index1_read_strict(base, idx, label = label))
	  }
	  base[[rr_index1_write(idx, label)]]
	}
`
