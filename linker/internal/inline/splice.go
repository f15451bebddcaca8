package inline

import (
	"github.com/wippyai/aspect-linker/ast"
)

// Exit is what the caller knows about the exits of a callee body.
type Exit uint8

const (
	// ExitUnknown derives the exit shape from the body at splice time.
	ExitUnknown Exit = iota
	// ExitSimple bodies have at most one return, in tail position.
	ExitSimple
	// ExitComplex bodies need their exits normalized into jumps.
	ExitComplex
)

// ExitOf converts a simple-exit flag.
func ExitOf(simple bool) Exit {
	if simple {
		return ExitSimple
	}
	return ExitComplex
}

// Callee is the body being spliced. Body is consumed, so callers pass a copy.
type Callee struct {
	Body   *ast.Block
	Params []ast.Param
	Exit   Exit
}

// Site is a classified call site.
type Site struct {
	Shape Shape
	Args  []string
}

// SimpleExit reports whether b has at most one return and that return is the
// last statement executed, possibly inside trailing blocks.
func SimpleExit(b *ast.Block) bool {
	switch ast.CountReturns(b) {
	case 0:
		return true
	case 1:
		return tailReturn(b) != nil
	}
	return false
}

func tailReturn(b *ast.Block) *ast.Return {
	if b == nil || len(b.Stmts) == 0 {
		return nil
	}
	switch last := b.Stmts[len(b.Stmts)-1].(type) {
	case *ast.Return:
		return last
	case *ast.Block:
		return tailReturn(last)
	}
	return nil
}

// Splice returns the statements replacing the call site. The spliced body is
// a mergeable block. nextLabel is asked for a label only when exits must be
// normalized into jumps.
func Splice(site Site, callee Callee, nextLabel func() string) []ast.Stmt {
	body := callee.Body
	if body == nil {
		body = &ast.Block{}
	}
	renames := map[string]string{}
	for i, p := range callee.Params {
		if i < len(site.Args) && p.Name != site.Args[i] {
			renames[p.Name] = site.Args[i]
		}
	}
	ast.RenameLocals(body, renames)
	body.Mergeable = true

	switch s := site.Shape.(type) {
	case ReturnCall:
		return []ast.Stmt{body}
	case CastReturnCall:
		mapReturns(body, func(r *ast.Return) ast.Stmt {
			if r.X != nil {
				r.X = &ast.Cast{Type: s.Type, X: r.X}
			}
			return r
		})
		return []ast.Stmt{body}
	case AssignmentCall:
		return []ast.Stmt{normalize(body, s.Target, callee.Exit, nextLabel)}
	case LocalDeclarationCall:
		decl := &ast.LocalDecl{Name: s.Local, Type: s.Type}
		return []ast.Stmt{decl, normalize(body, s.Local, callee.Exit, nextLabel)}
	}
	return []ast.Stmt{normalize(body, "", callee.Exit, nextLabel)}
}

// normalize rewrites the exits of body so control falls through to the
// statement after the splice, storing the result in target.
func normalize(body *ast.Block, target string, exit Exit, nextLabel func() string) *ast.Block {
	if exit == ExitUnknown {
		exit = ExitOf(SimpleExit(body))
	}
	if exit == ExitSimple {
		replaceTail(body, target)
		return body
	}
	label := nextLabel()
	mapReturns(body, func(r *ast.Return) ast.Stmt {
		exit := &ast.Block{Meta: ast.Meta{Mergeable: true}}
		if s := exitValue(r.X, target); s != nil {
			exit.Stmts = append(exit.Stmts, s)
		}
		exit.Stmts = append(exit.Stmts, &ast.Goto{Label: label})
		return exit
	})
	body.Stmts = append(body.Stmts, &ast.Labeled{Label: label, Stmt: &ast.Empty{}})
	return body
}

func replaceTail(b *ast.Block, target string) {
	if len(b.Stmts) == 0 {
		return
	}
	i := len(b.Stmts) - 1
	switch last := b.Stmts[i].(type) {
	case *ast.Return:
		if s := exitValue(last.X, target); s != nil {
			b.Stmts[i] = s
		} else {
			b.Stmts = b.Stmts[:i]
		}
	case *ast.Block:
		replaceTail(last, target)
	}
}

// exitValue is what remains of `return x` once control falls through.
func exitValue(x ast.Expr, target string) ast.Stmt {
	switch {
	case x == nil:
		return nil
	case target != "":
		return &ast.ExprStmt{X: &ast.Assign{Op: "=", L: ast.Id(target), R: x}}
	case ast.HasSideEffects(x):
		return &ast.ExprStmt{X: x}
	}
	return nil
}

// mapReturns replaces every return statement reachable from b.
func mapReturns(b *ast.Block, f func(*ast.Return) ast.Stmt) {
	for i, s := range b.Stmts {
		b.Stmts[i] = mapStmtReturns(s, f)
	}
}

func mapStmtReturns(s ast.Stmt, f func(*ast.Return) ast.Stmt) ast.Stmt {
	switch n := s.(type) {
	case *ast.Return:
		return f(n)
	case *ast.Block:
		mapReturns(n, f)
	case *ast.If:
		n.Then = mapStmtReturns(n.Then, f)
		if n.Else != nil {
			n.Else = mapStmtReturns(n.Else, f)
		}
	case *ast.While:
		n.Body = mapStmtReturns(n.Body, f)
	case *ast.Labeled:
		if n.Stmt != nil {
			n.Stmt = mapStmtReturns(n.Stmt, f)
		}
	}
	return s
}
