package aspect

import (
	"fmt"
	"strings"

	"github.com/wippyai/aspect-linker/ast"
)

// Transformation is a code change contributed by an aspect layer. The set of
// variants is closed: MemberIntroduction and InterfaceIntroduction.
type Transformation interface {
	LayerID() ast.LayerID
	TargetType() string
	isTransformation()
}

// IntroductionKind says how an introduced member relates to existing ones.
type IntroductionKind uint8

const (
	// Introduce adds a new member.
	Introduce IntroductionKind = iota
	// Override replaces the behavior of an existing member of the same type.
	// The generated body joins the member's override chain.
	Override
	// IntroduceOverride adds a member overriding a virtual base-type member.
	IntroduceOverride
	// IntroduceNew adds a member hiding a same-signature base-type member.
	IntroduceNew
)

func (k IntroductionKind) String() string {
	switch k {
	case Introduce:
		return "introduce"
	case Override:
		return "override"
	case IntroduceOverride:
		return "introduce-override"
	case IntroduceNew:
		return "introduce-new"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseIntroductionKind converts the textual form produced by String.
func ParseIntroductionKind(s string) (IntroductionKind, bool) {
	for k := Introduce; k <= IntroduceNew; k++ {
		if k.String() == s {
			return k, true
		}
	}
	return 0, false
}

// PositionKind is where an introduced member is inserted.
type PositionKind uint8

const (
	PositionEnd PositionKind = iota
	PositionStart
	PositionBefore
	PositionAfter
)

// Position is an insertion point inside a type. Anchor names the member for
// Before and After.
type Position struct {
	Anchor string
	Kind   PositionKind
}

func (p Position) String() string {
	switch p.Kind {
	case PositionStart:
		return "start"
	case PositionBefore:
		return "before:" + p.Anchor
	case PositionAfter:
		return "after:" + p.Anchor
	}
	return "end"
}

// ParsePosition reads "start", "end", "before:Member" or "after:Member".
// The empty string means end.
func ParsePosition(s string) (Position, error) {
	switch s {
	case "", "end":
		return Position{Kind: PositionEnd}, nil
	case "start":
		return Position{Kind: PositionStart}, nil
	}
	kind, anchor, ok := strings.Cut(s, ":")
	if !ok || anchor == "" {
		return Position{}, fmt.Errorf("invalid position %q", s)
	}
	switch kind {
	case "before":
		return Position{Kind: PositionBefore, Anchor: anchor}, nil
	case "after":
		return Position{Kind: PositionAfter, Anchor: anchor}, nil
	}
	return Position{}, fmt.Errorf("invalid position %q", s)
}

// MemberIntroduction adds or overrides a member of Type. For Override, Target
// names the overridden member; an optional parameter list ("Name(int,string)")
// selects among overloads.
type MemberIntroduction struct {
	Generator Generator
	Layer     ast.LayerID
	Type      string
	Target    string
	Position  Position
	Options   Options
	Kind      IntroductionKind
}

func (m *MemberIntroduction) LayerID() ast.LayerID { return m.Layer }
func (m *MemberIntroduction) TargetType() string   { return m.Type }
func (*MemberIntroduction) isTransformation()      {}

// InterfaceIntroduction adds interfaces to the base list of Type.
type InterfaceIntroduction struct {
	Layer      ast.LayerID
	Type       string
	Interfaces []string
}

func (i *InterfaceIntroduction) LayerID() ast.LayerID { return i.Layer }
func (i *InterfaceIntroduction) TargetType() string   { return i.Type }
func (*InterfaceIntroduction) isTransformation()      {}
