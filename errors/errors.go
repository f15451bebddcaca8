package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseParse     Phase = "parse"     // program text parsing
	PhaseLoad      Phase = "load"      // manifest and config loading
	PhaseIntroduce Phase = "introduce" // member and override introduction
	PhaseResolve   Phase = "resolve"   // aspect reference resolution
	PhaseAnalyze   Phase = "analyze"   // body and control-flow analysis
	PhaseRewrite   Phase = "rewrite"   // disposition and splicing
	PhaseCleanup   Phase = "cleanup"   // block flattening
	PhaseEval      Phase = "eval"      // program interpretation
)

// Kind categorizes the error
type Kind string

const (
	KindUnknownLayer      Kind = "unknown_layer"
	KindMissingChainEntry Kind = "missing_chain_entry"
	KindUnsupportedShape  Kind = "unsupported_shape"
	KindUnhandledKind     Kind = "unhandled_kind"
	KindInsertionPoint    Kind = "insertion_point"
	KindInvalidInput      Kind = "invalid_input"
	KindSyntax            Kind = "syntax"
	KindNotFound          Kind = "not_found"
	KindUnsupported       Kind = "unsupported"
	KindRuntime           Kind = "runtime"
	KindCanceled          Kind = "canceled"
)

// Error is the structured error type used throughout the linker
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Decl   string
	Layer  string
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Decl != "" || e.Layer != "" {
		b.WriteString(": ")
		switch {
		case e.Decl != "" && e.Layer != "":
			b.WriteString("declaration ")
			b.WriteString(e.Decl)
			b.WriteString(", layer ")
			b.WriteString(e.Layer)
		case e.Decl != "":
			b.WriteString("declaration ")
			b.WriteString(e.Decl)
		default:
			b.WriteString("layer ")
			b.WriteString(e.Layer)
		}
	}

	if e.Detail != "" {
		if e.Decl != "" || e.Layer != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the location path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Decl sets the declaration the error is about
func (b *Builder) Decl(name string) *Builder {
	b.err.Decl = name
	return b
}

// Layer sets the aspect layer id
func (b *Builder) Layer(id string) *Builder {
	b.err.Layer = id
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// UnknownLayer creates an error for a layer id missing from the layer order
func UnknownLayer(phase Phase, layer string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnknownLayer,
		Layer:  layer,
		Detail: "layer is not part of the layer order",
		Value:  layer,
	}
}

// MissingChainEntry creates an error for a reference whose target is not in
// the override chain registry
func MissingChainEntry(phase Phase, decl, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindMissingChainEntry,
		Decl:   decl,
		Detail: detail,
	}
}

// UnsupportedShape creates an error for a reference site the inliner cannot splice
func UnsupportedShape(decl, detail string) *Error {
	return &Error{
		Phase:  PhaseRewrite,
		Kind:   KindUnsupportedShape,
		Decl:   decl,
		Detail: detail,
	}
}

// UnhandledKind creates an error for a declaration kind a phase does not handle
func UnhandledKind(phase Phase, decl string, kind any) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnhandledKind,
		Decl:   decl,
		Detail: fmt.Sprintf("unhandled declaration kind %v", kind),
		Value:  kind,
	}
}

// InsertionPoint creates an error for an introduction that cannot be placed
func InsertionPoint(layer, target, detail string) *Error {
	return &Error{
		Phase:  PhaseIntroduce,
		Kind:   KindInsertionPoint,
		Decl:   target,
		Layer:  layer,
		Detail: detail,
	}
}

// Syntax creates a parse error at a source line
func Syntax(line int, detail string) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindSyntax,
		Path:   []string{fmt.Sprintf("line %d", line)},
		Detail: detail,
		Value:  line,
	}
}

// NotFound creates a lookup failure error
func NotFound(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: what,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Path:   path,
		Detail: detail,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
