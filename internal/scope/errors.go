package scope

import "fmt"

// Diagnostic is an early-error report (spec §4.4 "early-error reports
// for duplicate lexical declarations, let shadowing a function
// parameter, reserved-word use in strict contexts, etc."). The
// compiler surfaces these as SyntaxErrors before ever generating
// bytecode.
type Diagnostic struct {
	Message string
	Span    Span
}

// Span mirrors ast.Span without importing internal/ast here, since
// Diagnostic is also constructed by code that only has raw offsets.
type Span struct{ Start, End int }

func (d Diagnostic) Error() string {
	return fmt.Sprintf("%s (%d:%d)", d.Message, d.Span.Start, d.Span.End)
}

func (a *Analyzer) errorf(span Span, format string, args ...any) {
	a.diagnostics = append(a.diagnostics, Diagnostic{Message: fmt.Sprintf(format, args...), Span: span})
}
