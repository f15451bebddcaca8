// Package analysis collects every placeholder of the intermediate program,
// resolves it and records the facts the rewriting driver decides on: which
// body references which, in what call shape, and whether a body has a
// simple exit.
//
// Bodies are keyed by declaration, accessor and semantic. An overridden root
// owns two bodies per accessor: its original implementation and a
// synthesized public body that forwards to the head of the chain. Every
// other declaration owns one body per accessor.
package analysis

import (
	"fmt"

	"github.com/wippyai/aspect-linker/aspect"
	"github.com/wippyai/aspect-linker/ast"
	"github.com/wippyai/aspect-linker/linker/internal/inline"
	"github.com/wippyai/aspect-linker/linker/internal/introduce"
	"github.com/wippyai/aspect-linker/linker/internal/resolve"
)

// Semantic distinguishes the bodies linked for one declaration accessor.
type Semantic uint8

const (
	// SemanticDefault is the body of a chain entry or of a declaration that
	// takes no part in any chain.
	SemanticDefault Semantic = iota
	// SemanticOriginal is the pre-aspect implementation of a root.
	SemanticOriginal
	// SemanticPublic is the externally visible body of a root.
	SemanticPublic
)

func (s Semantic) String() string {
	switch s {
	case SemanticDefault:
		return "default"
	case SemanticOriginal:
		return "original"
	case SemanticPublic:
		return "public"
	}
	return fmt.Sprintf("semantic(%d)", uint8(s))
}

// Key identifies a body.
type Key struct {
	Decl     ast.TrackingID
	Accessor ast.AccessorKind
	Semantic Semantic
}

func (k Key) String() string {
	return fmt.Sprintf("%d/%s/%s", k.Decl, k.Accessor, k.Semantic)
}

// Body is one linkable body. Block belongs to the intermediate program or was
// synthesized here; it is never modified after Run returns.
type Body struct {
	Key  Key
	Decl introduce.Declaration

	// Root is the chain root the body belongs to, zero when the declaration
	// takes no part in a chain.
	Root ast.TrackingID

	Block      *ast.Block
	Params     []ast.Param
	Options    aspect.Options
	Refs       []*Reference
	SimpleExit bool
	Synthetic  bool
}

// Participating reports whether the body belongs to an override chain.
func (b *Body) Participating() bool { return b.Root != 0 }

// Name returns "Type.Member" with the accessor appended for accessors.
func (b *Body) Name() string {
	if b.Key.Accessor == ast.AccessorNone {
		return b.Decl.Name()
	}
	return b.Decl.Name() + "." + b.Key.Accessor.String()
}

// Reference is a resolved placeholder.
type Reference struct {
	// Site is the placeholder; its pointer identifies the site in clones.
	Site *ast.AspectRef
	// Ref is the placeholder with its accessor inferred.
	Ref ast.AspectRef

	From       Key
	Expr       ast.Expr
	Stmt       ast.Stmt
	Referenced introduce.Declaration
	Target     resolve.Target

	// To is the body the reference runs when Linked.
	To     Key
	Linked bool

	// Shape is nil when the site is not a supported call shape.
	Shape inline.Shape
	Args  []string

	// Counted is false for references that keep their target alive without
	// being a place to inline it (final references).
	Counted bool

	// Untouched references keep the expression as written.
	Untouched bool
}

// Inlineable reports whether the referenced body may be spliced at this site.
func (r *Reference) Inlineable() bool {
	return r.Linked && r.Counted && !r.Untouched && r.Shape != nil && r.To != r.From
}

// Severity of a diagnostic.
type Severity uint8

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Diagnostic is a recoverable problem reported to the user.
type Diagnostic struct {
	Code        string
	Severity    Severity
	Message     string
	Declaration string
}

// CodeBaseReceiver is reported for a base invocation on a receiver other than
// the implicit one.
const CodeBaseReceiver = "AL0001"

// BackingField returns the name of the field holding the value of an
// auto-implemented property or field-like event.
func BackingField(name string) string {
	return "__" + name + "_BackingField"
}

// Registry is the frozen result of Run.
type Registry struct {
	bodies map[Key]*Body
	order  []Key
	diags  []Diagnostic
}

// Body returns the body with the given key.
func (r *Registry) Body(k Key) (*Body, bool) {
	b, ok := r.bodies[k]
	return b, ok
}

// Bodies returns every body in program order.
func (r *Registry) Bodies() []*Body {
	out := make([]*Body, len(r.order))
	for i, k := range r.order {
		out[i] = r.bodies[k]
	}
	return out
}

// Diagnostics returns the diagnostics reported during analysis.
func (r *Registry) Diagnostics() []Diagnostic {
	return append([]Diagnostic(nil), r.diags...)
}
