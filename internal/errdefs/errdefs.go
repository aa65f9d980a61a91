// Package errdefs builds span-carrying, typed errors for each compiler
// stage, mirroring the teacher's errdefs package (one constructor per
// diagnosable condition, each wrapping a *diagnostic.SpanError).
package errdefs

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/rrscript/rrc/internal/ast"
	"github.com/rrscript/rrc/internal/diagnostic"
	"github.com/rrscript/rrc/internal/hir"
)

func WithDuplicateParam(fn *ast.Function, dup *ast.Param) error {
	return dup.WithError(
		fmt.Errorf("duplicate parameter %q in function %q", dup.Name.Name, fn.Name.Name),
		dup.Spanf(diagnostic.Primary, "duplicate parameter"),
		fn.Name.Spanf(diagnostic.Secondary, "in this function"),
	)
}

func WithMalformedLValue(target ast.Expr) error {
	return target.WithError(
		fmt.Errorf("invalid assignment target"),
		target.Spanf(diagnostic.Primary, "not a local, global, index, or field expression"),
	)
}

func WithUnsupportedDefault(param *ast.Param) error {
	return param.Default.WithError(
		fmt.Errorf("unsupported default expression for parameter %q", param.Name.Name),
		param.Default.Spanf(diagnostic.Primary, "defaults must be literal"),
	)
}

func WithUnresolvedType(annot *ast.TypeAnnot) error {
	return annot.WithError(
		fmt.Errorf("unresolved type annotation %q", annot.Keyword),
		annot.Spanf(diagnostic.Primary, "expected one of f64, float, double, i64, int, bool, logical, char, string"),
	)
}

// WithInternalErrorf reports a failure anchored to a surface AST node
// while lowering: a statement, expression or operator the lowerer does
// not support (for example a nested function literal).
func WithInternalErrorf(node ast.Node, format string, a ...interface{}) error {
	return node.WithError(
		fmt.Errorf(format, a...),
		node.Spanf(diagnostic.Primary, format, a...),
	)
}

// WithHIRInternalErrorf reports an invariant violation discovered while
// walking HIR (optimizer or codegen), anchored to the offending node's
// surface span.
func WithHIRInternalErrorf(span hir.Span, format string, a ...interface{}) error {
	err := fmt.Errorf(format, a...)
	return diagnostic.WithError(err, span.Pos, span.End,
		diagnostic.Spanf(diagnostic.Primary, format, a...))
}

// Wrap annotates err with a short prefix, mirroring errdefs.WithAbort's use
// of github.com/pkg/errors for cause-chain preservation.
func Wrap(err error, stage string) error {
	return errors.Wrapf(err, "%s error", stage)
}
