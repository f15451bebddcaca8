// Package resolve links aspect placeholders to the declaration version they
// must call.
//
// It defines the resolved targets (chain entries, original implementations,
// public declarations, ancestor members) and a Resolver that is pure over the
// frozen chain registry and the layer order.
package resolve

import (
	"github.com/wippyai/aspect-linker/ast"
	"github.com/wippyai/aspect-linker/linker/internal/introduce"
)

// Target is the declaration version a placeholder resolves to.
// Target implementations describe how the linked reference must be emitted.
type Target interface {
	isTarget()
}

// ChainEntry is an override introduced by an aspect layer.
type ChainEntry struct {
	Entry *introduce.IntroducedMember
}

func (ChainEntry) isTarget() {}

// OriginalBody is the pre-aspect implementation of an overridden root.
type OriginalBody struct {
	Root introduce.Declaration
}

func (OriginalBody) isTarget() {}

// PublicDecl is the externally visible declaration of a root; calling it
// runs the outermost version of the chain.
type PublicDecl struct {
	Root      introduce.Declaration
	Outermost *introduce.IntroducedMember // nil when no override declares the accessor
}

func (PublicDecl) isTarget() {}

// BaseMember is a same-signature member of an ancestor type.
type BaseMember struct {
	Type   *ast.TypeDecl
	Member ast.Member
}

func (BaseMember) isTarget() {}

// Unchanged keeps the reference as written.
type Unchanged struct {
	Decl introduce.Declaration
}

func (Unchanged) isTarget() {}

// Semantic reports whether a target runs a chain version or the original body.
type Semantic uint8

const (
	SemanticDefault Semantic = iota
	SemanticOriginal
)

func (s Semantic) String() string {
	if s == SemanticOriginal {
		return "original"
	}
	return "default"
}

// SemanticOf returns the semantic of a target.
func SemanticOf(t Target) Semantic {
	if _, ok := t.(OriginalBody); ok {
		return SemanticOriginal
	}
	return SemanticDefault
}

// Describe renders a target for diagnostics and explain output.
func Describe(t Target) string {
	switch v := t.(type) {
	case ChainEntry:
		return v.Entry.Declaration().Name() + " (" + string(v.Entry.Layer) + ")"
	case OriginalBody:
		return v.Root.Name() + " (original)"
	case PublicDecl:
		return v.Root.Name() + " (final)"
	case BaseMember:
		return "base " + v.Type.Name + "." + v.Member.MemberName()
	case Unchanged:
		return v.Decl.Name()
	}
	return "?"
}
