package ast

import "strings"

// Program is the root of the host model: an ordered list of types.
type Program struct {
	Types []*TypeDecl
}

// Type returns the type with the given name, or nil.
func (p *Program) Type(name string) *TypeDecl {
	for _, t := range p.Types {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// Ancestors returns the base types of t declared in the program, nearest
// first. Types outside the program end the walk. Cycles are cut.
func (p *Program) Ancestors(t *TypeDecl) []*TypeDecl {
	var out []*TypeDecl
	seen := map[string]bool{t.Name: true}
	for cur := t; cur.Base != ""; {
		if seen[cur.Base] {
			break
		}
		seen[cur.Base] = true
		next := p.Type(cur.Base)
		if next == nil {
			break
		}
		out = append(out, next)
		cur = next
	}
	return out
}

// TypeDecl is a class-like type.
type TypeDecl struct {
	Meta
	Name       string
	Base       string
	Interfaces []string
	Members    []Member
}

// MemberKind distinguishes member declarations.
type MemberKind uint8

const (
	KindMethod MemberKind = iota
	KindProperty
	KindEvent
	KindField
)

func (k MemberKind) String() string {
	switch k {
	case KindMethod:
		return "method"
	case KindProperty:
		return "property"
	case KindEvent:
		return "event"
	case KindField:
		return "field"
	}
	return "unknown"
}

// Member is a declaration inside a type.
type Member interface {
	Node
	MemberName() string
	Kind() MemberKind
	Modifiers() Modifiers
	memberNode()
}

// Modifiers is a bit set of declaration modifiers.
type Modifiers uint16

const (
	ModPublic Modifiers = 1 << iota
	ModPrivate
	ModProtected
	ModStatic
	ModVirtual
	ModOverride
	ModNew
	ModAbstract
)

var modifierNames = []struct {
	mod  Modifiers
	name string
}{
	{ModPublic, "public"},
	{ModPrivate, "private"},
	{ModProtected, "protected"},
	{ModStatic, "static"},
	{ModVirtual, "virtual"},
	{ModOverride, "override"},
	{ModNew, "new"},
	{ModAbstract, "abstract"},
}

// Has reports whether all bits of m2 are set.
func (m Modifiers) Has(m2 Modifiers) bool { return m&m2 == m2 }

// Words returns the modifier keywords in canonical order.
func (m Modifiers) Words() []string {
	var out []string
	for _, mn := range modifierNames {
		if m.Has(mn.mod) {
			out = append(out, mn.name)
		}
	}
	return out
}

func (m Modifiers) String() string { return strings.Join(m.Words(), " ") }

// ParseModifier maps a keyword to its modifier bit.
func ParseModifier(word string) (Modifiers, bool) {
	for _, mn := range modifierNames {
		if mn.name == word {
			return mn.mod, true
		}
	}
	return 0, false
}

// WithAccess replaces the accessibility bits of m.
func (m Modifiers) WithAccess(access Modifiers) Modifiers {
	return m&^(ModPublic|ModPrivate|ModProtected) | access
}

// Param is a formal parameter.
type Param struct {
	Name string
	Type string
}

// Method is a method declaration. Body is nil for abstract methods.
type Method struct {
	Meta
	Body   *Block
	Name   string
	Result string
	Params []Param
	Mods   Modifiers
}

// IsVoid reports whether the method returns no value.
func (m *Method) IsVoid() bool { return m.Result == "" || m.Result == "void" }

// Accessor is a property or event accessor. A nil Body marks an
// auto-implemented accessor.
type Accessor struct {
	Meta
	Body *Block
	Kind AccessorKind
}

// Property is a property declaration.
type Property struct {
	Meta
	Getter *Accessor
	Setter *Accessor
	Init   Expr
	Name   string
	Type   string
	Mods   Modifiers
}

// IsAuto reports whether every declared accessor is auto-implemented.
func (p *Property) IsAuto() bool {
	if p.Getter == nil && p.Setter == nil {
		return false
	}
	return (p.Getter == nil || p.Getter.Body == nil) && (p.Setter == nil || p.Setter.Body == nil)
}

// Event is an event declaration. An event without explicit accessors is
// field-like.
type Event struct {
	Meta
	Adder   *Accessor
	Remover *Accessor
	Name    string
	Type    string
	Mods    Modifiers
}

// IsFieldLike reports whether the event has compiler-generated accessors.
func (e *Event) IsFieldLike() bool {
	return (e.Adder == nil || e.Adder.Body == nil) && (e.Remover == nil || e.Remover.Body == nil)
}

// Field is a field declaration.
type Field struct {
	Meta
	Init Expr
	Name string
	Type string
	Mods Modifiers
}

func (m *Method) MemberName() string   { return m.Name }
func (p *Property) MemberName() string { return p.Name }
func (e *Event) MemberName() string    { return e.Name }
func (f *Field) MemberName() string    { return f.Name }

func (*Method) Kind() MemberKind   { return KindMethod }
func (*Property) Kind() MemberKind { return KindProperty }
func (*Event) Kind() MemberKind    { return KindEvent }
func (*Field) Kind() MemberKind    { return KindField }

func (m *Method) Modifiers() Modifiers   { return m.Mods }
func (p *Property) Modifiers() Modifiers { return p.Mods }
func (e *Event) Modifiers() Modifiers    { return e.Mods }
func (f *Field) Modifiers() Modifiers    { return f.Mods }

func (*Method) memberNode()   {}
func (*Property) memberNode() {}
func (*Event) memberNode()    {}
func (*Field) memberNode()    {}

// Accessors returns the accessors of a member in canonical order. Methods
// report a single AccessorNone entry with their body.
func Accessors(m Member) []*Accessor {
	switch d := m.(type) {
	case *Method:
		return []*Accessor{{Meta: d.Meta, Kind: AccessorNone, Body: d.Body}}
	case *Property:
		return nonNil(d.Getter, d.Setter)
	case *Event:
		return nonNil(d.Adder, d.Remover)
	}
	return nil
}

func nonNil(as ...*Accessor) []*Accessor {
	var out []*Accessor
	for _, a := range as {
		if a != nil {
			out = append(out, a)
		}
	}
	return out
}

// BodyOf returns the body of the given accessor of m, or nil.
func BodyOf(m Member, kind AccessorKind) *Block {
	switch d := m.(type) {
	case *Method:
		if kind == AccessorNone {
			return d.Body
		}
	case *Property:
		switch kind {
		case AccessorGet:
			if d.Getter != nil {
				return d.Getter.Body
			}
		case AccessorSet:
			if d.Setter != nil {
				return d.Setter.Body
			}
		}
	case *Event:
		switch kind {
		case AccessorAdd:
			if d.Adder != nil {
				return d.Adder.Body
			}
		case AccessorRemove:
			if d.Remover != nil {
				return d.Remover.Body
			}
		}
	}
	return nil
}

// HasAccessor reports whether m declares the given accessor. Methods only
// have AccessorNone.
func HasAccessor(m Member, kind AccessorKind) bool {
	switch d := m.(type) {
	case *Method:
		return kind == AccessorNone
	case *Property:
		return (kind == AccessorGet && d.Getter != nil) || (kind == AccessorSet && d.Setter != nil)
	case *Event:
		return kind == AccessorAdd || kind == AccessorRemove
	}
	return false
}

// ValueType returns the declared value type of a property, event or field,
// or the result type of a method.
func ValueType(m Member) string {
	switch d := m.(type) {
	case *Method:
		return d.Result
	case *Property:
		return d.Type
	case *Event:
		return d.Type
	case *Field:
		return d.Type
	}
	return ""
}

// ParamsOf returns the parameters visible in the given body of m. Setters,
// adders and removers see an implicit `value` parameter.
func ParamsOf(m Member, kind AccessorKind) []Param {
	switch d := m.(type) {
	case *Method:
		return d.Params
	case *Property:
		if kind == AccessorSet {
			return []Param{{Name: "value", Type: d.Type}}
		}
	case *Event:
		return []Param{{Name: "value", Type: d.Type}}
	}
	return nil
}

// Signature is the structural identity of a member used when comparing
// declarations across types.
type Signature struct {
	Name   string
	Params string
	Kind   MemberKind
}

// SignatureOf computes the signature of m.
func SignatureOf(m Member) Signature {
	sig := Signature{Kind: m.Kind(), Name: m.MemberName()}
	if meth, ok := m.(*Method); ok {
		types := make([]string, len(meth.Params))
		for i, p := range meth.Params {
			types[i] = p.Type
		}
		sig.Params = strings.Join(types, ",")
	}
	return sig
}

func (s Signature) String() string {
	if s.Kind == KindMethod {
		return s.Name + "(" + s.Params + ")"
	}
	return s.Name
}

// FindMembers returns the members of t with the given name, in order.
func (t *TypeDecl) FindMembers(name string) []Member {
	var out []Member
	for _, m := range t.Members {
		if m.MemberName() == name {
			out = append(out, m)
		}
	}
	return out
}

// IndexOf returns the position of m in t.Members, or -1.
func (t *TypeDecl) IndexOf(m Member) int {
	for i, cand := range t.Members {
		if cand == m {
			return i
		}
	}
	return -1
}
