package analysis

import (
	"github.com/wippyai/aspect-linker/ast"
)

// receiver returns the access of name on the current instance, or the bare
// name for static members.
func receiver(m ast.Member, name string) ast.Expr {
	if m.Modifiers().Has(ast.ModStatic) {
		return ast.Id(name)
	}
	return ast.ThisDot(name)
}

// accessExpr builds the expression running the given accessor of member name.
func accessExpr(m ast.Member, kind ast.AccessorKind, name string) ast.Expr {
	target := receiver(m, name)
	switch kind {
	case ast.AccessorGet:
		return target
	case ast.AccessorSet:
		return &ast.Assign{Op: "=", L: target, R: ast.Id("value")}
	case ast.AccessorAdd:
		return &ast.Assign{Op: "+=", L: target, R: ast.Id("value")}
	case ast.AccessorRemove:
		return &ast.Assign{Op: "-=", L: target, R: ast.Id("value")}
	}
	return ast.CallOf(target, ast.ParamRefs(ast.ParamsOf(m, kind))...)
}

// forward wraps an access in the statement that returns its value, if any.
func forward(m ast.Member, kind ast.AccessorKind, expr ast.Expr) ast.Stmt {
	if meth, ok := m.(*ast.Method); ok && !meth.IsVoid() || kind == ast.AccessorGet {
		return &ast.Return{X: expr}
	}
	return &ast.ExprStmt{X: expr}
}

// backingBody is the implementation of an auto accessor.
func backingBody(m ast.Member, kind ast.AccessorKind) *ast.Block {
	expr := accessExpr(m, kind, BackingField(m.MemberName()))
	return ast.Stmts(forward(m, kind, expr))
}
