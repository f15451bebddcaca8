// Package errors provides structured error types for the aspect linker.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the declaration and layer involved, a location path,
// and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseResolve, errors.KindUnknownLayer).
//		Decl("Account.Deposit").
//		Layer("Audit").
//		Detail("placeholder names a layer outside the layer order").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.UnknownLayer(errors.PhaseResolve, "Audit")
//	err := errors.Syntax(12, "expected ')'")
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
