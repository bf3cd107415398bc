// Package diag formats the error kinds the core surfaces to callers
// (spec §7). It plays the role the teacher's internal/errors package
// plays for a text-source compiler — rendering context around a failure
// point — but since Pine's inputs are already-parsed Expression values
// rather than source text, the "context" here is a summarized offending
// Value and the list-index path that reached it, not a line/column caret.
package diag

import (
	"fmt"
	"strings"

	"github.com/pine-vm/pine/internal/value"
)

// Kind discriminates the error kinds spec'd in §7.
type Kind string

const (
	KindParseExpression        Kind = "ParseExpressionError"
	KindUnknownKernel          Kind = "UnknownKernel"
	KindLimitExceeded          Kind = "LimitExceeded"
	KindInvalidInstruction     Kind = "InvalidInstruction"
	KindReturnBeforeAssignment Kind = "ReturnBeforeAssignment"
)

// ParseExpressionError reports that a Value could not be decoded as an
// Expression: an unknown tag, a missing or extra field, or (wrapped
// separately as UnknownKernelError below) an unknown kernel name.
type ParseExpressionError struct {
	Reason               string
	OffendingValueSummary string
}

func (e *ParseExpressionError) Error() string {
	return fmt.Sprintf("pine: parse expression: %s (value: %s)", e.Reason, e.OffendingValueSummary)
}

func (e *ParseExpressionError) Kind() Kind { return KindParseExpression }

// NewParseExpressionError builds a ParseExpressionError, summarizing the
// offending value the same bounded way internal/value.Summary does, so a
// deeply nested or very large Value can't blow up a diagnostic message.
func NewParseExpressionError(reason string, offending *value.Value) *ParseExpressionError {
	return &ParseExpressionError{
		Reason:               reason,
		OffendingValueSummary: value.Summary(offending, 200),
	}
}

// UnknownKernelError reports a KernelApplication naming an unregistered
// kernel. Raised only at parse time, per spec: at runtime all kernels
// that survived parsing are resolved.
type UnknownKernelError struct {
	Name string
}

func (e *UnknownKernelError) Error() string {
	return fmt.Sprintf("pine: unknown kernel %q", e.Name)
}

func (e *UnknownKernelError) Kind() Kind { return KindUnknownKernel }

// LimitExceeded reports that parseAndEvalCount exceeded the configured
// cap for a top-level evaluation.
type LimitExceeded struct {
	Limit, Observed int
}

func (e *LimitExceeded) Error() string {
	return fmt.Sprintf("pine: parse-and-eval limit exceeded: limit=%d observed=%d", e.Limit, e.Observed)
}

func (e *LimitExceeded) Kind() Kind { return KindLimitExceeded }

// InvalidInstruction reports an internal invariant violation in lowered
// code (e.g. a StackReference with a non-negative offset). This is a
// programmer error in the lowerer, not a user-triggerable condition, and
// tests should treat it as fatal rather than as an expected-failure case.
type InvalidInstruction struct {
	Reason string
}

func (e *InvalidInstruction) Error() string {
	return fmt.Sprintf("pine: invalid instruction: %s", e.Reason)
}

func (e *InvalidInstruction) Kind() Kind { return KindInvalidInstruction }

// ReturnBeforeAssignment reports that a frame reached Return without any
// Eval having stored a value.
type ReturnBeforeAssignment struct{}

func (e *ReturnBeforeAssignment) Error() string {
	return "pine: return before any value was assigned in frame"
}

func (e *ReturnBeforeAssignment) Kind() Kind { return KindReturnBeforeAssignment }

// Diagnostic is Pine's analogue of the teacher's CompilerError: instead of
// a source line and column it carries the list-index Path that reached
// the failure and a bounded ValueSummary of the offending Value, since
// Pine has no source text to render a caret under.
type Diagnostic struct {
	Kind         Kind
	Message      string
	Path         []int
	ValueSummary string
}

// NewDiagnostic builds a Diagnostic from any of the error kinds above,
// summarizing offending so the rendered report stays bounded regardless
// of how large or deep the failing Value is.
func NewDiagnostic(kind Kind, message string, path []int, offending *value.Value) Diagnostic {
	d := Diagnostic{Kind: kind, Message: message, Path: append([]int(nil), path...)}
	if offending != nil {
		d.ValueSummary = value.Summary(offending, 200)
	}
	return d
}

// Format renders d the way CompilerError.Format renders a source error:
// a header naming where the failure occurred, followed by the message.
// Path takes the place of line:column since Pine's inputs have no source
// positions, only a list-index route into the environment or expression
// tree.
func (d Diagnostic) Format() string {
	var sb strings.Builder
	if len(d.Path) == 0 {
		sb.WriteString(fmt.Sprintf("[%s] at root\n", d.Kind))
	} else {
		sb.WriteString(fmt.Sprintf("[%s] at path %v\n", d.Kind, d.Path))
	}
	sb.WriteString(d.Message)
	if d.ValueSummary != "" {
		sb.WriteString(fmt.Sprintf(" (value: %s)", d.ValueSummary))
	}
	return sb.String()
}

// FormatDiagnostics aggregates several Diagnostics into one report, the
// way the teacher's FormatErrors aggregates several CompilerErrors.
func FormatDiagnostics(diags []Diagnostic) string {
	if len(diags) == 0 {
		return ""
	}
	if len(diags) == 1 {
		return diags[0].Format()
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("evaluation failed with %d diagnostic(s):\n\n", len(diags)))
	for i, d := range diags {
		sb.WriteString(fmt.Sprintf("[%d of %d] ", i+1, len(diags)))
		sb.WriteString(d.Format())
		if i < len(diags)-1 {
			sb.WriteString("\n\n")
		}
	}
	return sb.String()
}
