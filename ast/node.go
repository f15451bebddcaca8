package ast

import "fmt"

// TrackingID identifies a declaration across tree copies. Zero means untracked.
type TrackingID uint64

// LayerID identifies an aspect layer ("Aspect" or "Aspect:Part").
type LayerID string

// Order selects which version of a declaration a placeholder refers to.
type Order uint8

const (
	OrderDefault Order = iota
	OrderOriginal
	OrderFinal
	OrderBase
)

func (o Order) String() string {
	switch o {
	case OrderDefault:
		return "default"
	case OrderOriginal:
		return "original"
	case OrderFinal:
		return "final"
	case OrderBase:
		return "base"
	}
	return fmt.Sprintf("order(%d)", uint8(o))
}

// ParseOrder converts the textual form produced by Order.String.
func ParseOrder(s string) (Order, bool) {
	switch s {
	case "default":
		return OrderDefault, true
	case "original":
		return OrderOriginal, true
	case "final":
		return OrderFinal, true
	case "base":
		return OrderBase, true
	}
	return 0, false
}

// AccessorKind names a body of a declaration. AccessorNone is a method body.
type AccessorKind uint8

const (
	AccessorNone AccessorKind = iota
	AccessorGet
	AccessorSet
	AccessorAdd
	AccessorRemove
)

func (k AccessorKind) String() string {
	switch k {
	case AccessorNone:
		return "self"
	case AccessorGet:
		return "get"
	case AccessorSet:
		return "set"
	case AccessorAdd:
		return "add"
	case AccessorRemove:
		return "remove"
	}
	return fmt.Sprintf("accessor(%d)", uint8(k))
}

// ParseAccessorKind converts the textual form produced by AccessorKind.String.
func ParseAccessorKind(s string) (AccessorKind, bool) {
	switch s {
	case "self", "":
		return AccessorNone, true
	case "get":
		return AccessorGet, true
	case "set":
		return AccessorSet, true
	case "add":
		return AccessorAdd, true
	case "remove":
		return AccessorRemove, true
	}
	return 0, false
}

// AspectRef is the placeholder left by template expansion on an expression
// that must be linked to a concrete version of the referenced declaration.
// Identity of the pointer is the identity of the placeholder site.
type AspectRef struct {
	Layer    LayerID
	Order    Order
	Accessor AccessorKind
}

func (r *AspectRef) String() string {
	return fmt.Sprintf("ref(%s %s %s)", r.Layer, r.Order, r.Accessor)
}

// Meta is out-of-band metadata carried by every node. Clones copy it by value,
// so tracking ids and placeholder identity survive tree rewrites.
type Meta struct {
	Ref       *AspectRef
	Tracking  TrackingID
	Mergeable bool
}

func (m *Meta) meta() *Meta { return m }

// Node is implemented by every syntax node.
type Node interface {
	meta() *Meta
}

// MetaOf returns the metadata of n.
func MetaOf(n Node) *Meta {
	return n.meta()
}

// Stmt is a statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is an expression node.
type Expr interface {
	Node
	exprNode()
}

// Block is a braced statement list. A mergeable block was produced by
// splicing and may be flattened into an enclosing block.
type Block struct {
	Meta
	Stmts []Stmt
}

// ExprStmt evaluates an expression for its effects.
type ExprStmt struct {
	Meta
	X Expr
}

// Return exits the enclosing body. X is nil for void returns.
type Return struct {
	Meta
	X Expr
}

// LocalDecl declares a local variable. Init may be nil.
type LocalDecl struct {
	Meta
	Init Expr
	Name string
	Type string
}

// If is a conditional. Else may be nil.
type If struct {
	Meta
	Cond Expr
	Then Stmt
	Else Stmt
}

// While is a pre-tested loop.
type While struct {
	Meta
	Cond Expr
	Body Stmt
}

// Goto jumps to a label in an enclosing block.
type Goto struct {
	Meta
	Label string
}

// Labeled attaches a label to a statement.
type Labeled struct {
	Meta
	Stmt  Stmt
	Label string
}

// Empty is the empty statement.
type Empty struct {
	Meta
}

// Throw raises an exception value.
type Throw struct {
	Meta
	X Expr
}

func (*Block) stmtNode()     {}
func (*ExprStmt) stmtNode()  {}
func (*Return) stmtNode()    {}
func (*LocalDecl) stmtNode() {}
func (*If) stmtNode()        {}
func (*While) stmtNode()     {}
func (*Goto) stmtNode()      {}
func (*Labeled) stmtNode()   {}
func (*Empty) stmtNode()     {}
func (*Throw) stmtNode()     {}

// LitKind is the kind of a literal.
type LitKind uint8

const (
	LitInt LitKind = iota
	LitString
	LitBool
	LitNull
)

// Ident is a simple name: local, parameter, or implicit-receiver member.
type Ident struct {
	Meta
	Name string
}

// Literal is a constant.
type Literal struct {
	Meta
	Value string
	Kind  LitKind
}

// This is the implicit receiver.
type This struct {
	Meta
}

// BaseRef is the base-class receiver (C# `base`).
type BaseRef struct {
	Meta
}

// Selector is a member access X.Name.
type Selector struct {
	Meta
	X    Expr
	Name string
}

// Call invokes Fun with Args.
type Call struct {
	Meta
	Fun  Expr
	Args []Expr
}

// Binary is an infix operation.
type Binary struct {
	Meta
	X  Expr
	Y  Expr
	Op string
}

// Unary is a prefix operation ("!" or "-").
type Unary struct {
	Meta
	X  Expr
	Op string
}

// Cast converts X to Type.
type Cast struct {
	Meta
	X    Expr
	Type string
}

// Assign is an assignment expression; Op is "=", "+=" or "-=".
type Assign struct {
	Meta
	L  Expr
	R  Expr
	Op string
}

func (*Ident) exprNode()   {}
func (*Literal) exprNode() {}
func (*This) exprNode()    {}
func (*BaseRef) exprNode() {}
func (*Selector) exprNode() {}
func (*Call) exprNode()    {}
func (*Binary) exprNode()  {}
func (*Unary) exprNode()   {}
func (*Cast) exprNode()    {}
func (*Assign) exprNode()  {}
