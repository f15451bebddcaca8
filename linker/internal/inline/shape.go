// Package inline classifies the call sites an override can be inlined into
// and splices callee bodies at those sites.
//
// The set of shapes is closed. Every shape names the statement form that
// contains the call and, where the call produces a value, where that value
// goes.
package inline

import (
	"github.com/wippyai/aspect-linker/ast"
)

// Shape is a supported call site form.
type Shape interface {
	Name() string
	isShape()
}

// StatementCall is `f(args);`.
type StatementCall struct{}

// AssignmentCall is `local = f(args);`.
type AssignmentCall struct {
	Target string
}

// ReturnCall is `return f(args);`.
type ReturnCall struct{}

// CastReturnCall is `return (T)f(args);`.
type CastReturnCall struct {
	Type string
}

// LocalDeclarationCall is `T local = f(args);`.
type LocalDeclarationCall struct {
	Local string
	Type  string
}

// EventAssignment is `this.E += value;` or `this.E -= value;`.
type EventAssignment struct {
	Op string
}

// PropertyAssignment is `this.P = value;`.
type PropertyAssignment struct{}

func (StatementCall) Name() string        { return "statement" }
func (AssignmentCall) Name() string       { return "assignment" }
func (ReturnCall) Name() string           { return "return" }
func (CastReturnCall) Name() string       { return "cast-return" }
func (LocalDeclarationCall) Name() string { return "local-declaration" }
func (EventAssignment) Name() string      { return "event-assignment" }
func (PropertyAssignment) Name() string   { return "property-assignment" }

func (StatementCall) isShape()        {}
func (AssignmentCall) isShape()       {}
func (ReturnCall) isShape()           {}
func (CastReturnCall) isShape()       {}
func (LocalDeclarationCall) isShape() {}
func (EventAssignment) isShape()      {}
func (PropertyAssignment) isShape()   {}

// Classify returns the shape of stmt when ref is the whole call it contains
// and the call passes exactly params, the caller's parameters, in order.
// Member reads (property getters) count as calls without arguments. locals
// lists the names an assignment target may have.
func Classify(stmt ast.Stmt, ref ast.Expr, params []ast.Param, locals map[string]bool) (Shape, bool) {
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		if s.X == ref {
			switch x := ref.(type) {
			case *ast.Call:
				if argsMatch(x.Args, params) {
					return StatementCall{}, true
				}
			case *ast.Assign:
				if !valueMatches(x.R, params) {
					return nil, false
				}
				switch x.Op {
				case "=":
					return PropertyAssignment{}, true
				case "+=", "-=":
					return EventAssignment{Op: x.Op}, true
				}
			}
			return nil, false
		}
		if a, ok := s.X.(*ast.Assign); ok && a.Op == "=" && a.R == ref {
			id, ok := a.L.(*ast.Ident)
			if ok && locals[id.Name] && isCall(ref, params) {
				return AssignmentCall{Target: id.Name}, true
			}
		}
	case *ast.Return:
		if s.X == ref && isCall(ref, params) {
			return ReturnCall{}, true
		}
		if c, ok := s.X.(*ast.Cast); ok && c.X == ref && isCall(ref, params) {
			return CastReturnCall{Type: c.Type}, true
		}
	case *ast.LocalDecl:
		if s.Init == ref && isCall(ref, params) {
			return LocalDeclarationCall{Local: s.Name, Type: s.Type}, true
		}
	}
	return nil, false
}

// isCall accepts a call passing params, or a member read.
func isCall(e ast.Expr, params []ast.Param) bool {
	switch x := e.(type) {
	case *ast.Call:
		return argsMatch(x.Args, params)
	case *ast.Selector, *ast.Ident:
		return true
	}
	return false
}

func argsMatch(args []ast.Expr, params []ast.Param) bool {
	if len(args) != len(params) {
		return false
	}
	for i, a := range args {
		id, ok := a.(*ast.Ident)
		if !ok || id.Name != params[i].Name || ast.MetaOf(a).Ref != nil {
			return false
		}
	}
	return true
}

func valueMatches(e ast.Expr, params []ast.Param) bool {
	id, ok := e.(*ast.Ident)
	return ok && len(params) == 1 && id.Name == params[0].Name && ast.MetaOf(e).Ref == nil
}

// Args returns the argument names passed at a classified site.
func Args(ref ast.Expr) []string {
	switch x := ref.(type) {
	case *ast.Call:
		out := make([]string, len(x.Args))
		for i, a := range x.Args {
			out[i] = a.(*ast.Ident).Name
		}
		return out
	case *ast.Assign:
		return []string{x.R.(*ast.Ident).Name}
	}
	return nil
}
