package rewrite

import (
	"fmt"

	"github.com/wippyai/aspect-linker/ast"
	"github.com/wippyai/aspect-linker/errors"
	"github.com/wippyai/aspect-linker/linker/internal/analysis"
	"github.com/wippyai/aspect-linker/linker/internal/inline"
	"github.com/wippyai/aspect-linker/linker/internal/resolve"
)

// emitter builds the final body of one emitted accessor. Labels are numbered
// per emitted body.
type emitter struct {
	d       *driver
	name    string
	labels  int
	splices int
}

func (d *driver) emit(b *analysis.Body, name string) (*ast.Block, error) {
	e := &emitter{d: d, name: name}
	blk, err := e.build(b, 0)
	if err != nil {
		return nil, err
	}
	if events := d.events[b.Decl.Type]; len(events) > 0 {
		redirectEvents(blk, events)
	}
	return blk, nil
}

func (e *emitter) nextLabel() string {
	e.labels++
	return fmt.Sprintf("__%s_exit%d", e.name, e.labels)
}

func (e *emitter) build(b *analysis.Body, depth int) (*ast.Block, error) {
	if depth > len(e.d.inlined) {
		return nil, errors.UnsupportedShape(b.Name(), "splice depth exceeded")
	}
	blk := ast.CloneBlock(b.Block)
	if blk == nil {
		blk = &ast.Block{}
	}
	if err := e.block(blk, b, depth); err != nil {
		return nil, err
	}
	return blk, nil
}

func (e *emitter) block(blk *ast.Block, b *analysis.Body, depth int) error {
	out := make([]ast.Stmt, 0, len(blk.Stmts))
	for _, s := range blk.Stmts {
		ss, err := e.stmt(s, b, depth)
		if err != nil {
			return err
		}
		out = append(out, ss...)
	}
	blk.Stmts = out
	return nil
}

// nested rewrites a statement that must stay a single statement.
func (e *emitter) nested(s ast.Stmt, b *analysis.Body, depth int) (ast.Stmt, error) {
	ss, err := e.stmt(s, b, depth)
	if err != nil {
		return nil, err
	}
	if len(ss) == 1 {
		return ss[0], nil
	}
	return &ast.Block{Stmts: ss}, nil
}

func (e *emitter) stmt(s ast.Stmt, b *analysis.Body, depth int) ([]ast.Stmt, error) {
	var err error
	switch n := s.(type) {
	case *ast.Block:
		err = e.block(n, b, depth)
	case *ast.If:
		n.Cond, err = e.expr(n.Cond, b)
		if err == nil {
			n.Then, err = e.nested(n.Then, b, depth)
		}
		if err == nil && n.Else != nil {
			n.Else, err = e.nested(n.Else, b, depth)
		}
	case *ast.While:
		n.Cond, err = e.expr(n.Cond, b)
		if err == nil {
			n.Body, err = e.nested(n.Body, b, depth)
		}
	case *ast.Labeled:
		if n.Stmt != nil {
			n.Stmt, err = e.nested(n.Stmt, b, depth)
		}
	case *ast.ExprStmt, *ast.Return, *ast.LocalDecl, *ast.Throw:
		if ref := e.spliceSite(s); ref != nil {
			return e.splice(ref, b, depth)
		}
		ast.MapStmtExprs(s, func(x ast.Expr) ast.Expr {
			if err != nil {
				return x
			}
			var out ast.Expr
			out, err = e.substitute(x, b)
			return out
		})
	}
	if err != nil {
		return nil, err
	}
	return []ast.Stmt{s}, nil
}

func (e *emitter) expr(x ast.Expr, b *analysis.Body) (ast.Expr, error) {
	var err error
	out := ast.MapExpr(x, func(n ast.Expr) ast.Expr {
		if err != nil {
			return n
		}
		var r ast.Expr
		r, err = e.substitute(n, b)
		return r
	})
	return out, err
}

// spliceSite returns the reference of s whose target is inlined there.
func (e *emitter) spliceSite(s ast.Stmt) *analysis.Reference {
	var found *analysis.Reference
	ast.Inspect(s, func(n ast.Node) bool {
		if found != nil {
			return false
		}
		site := ast.MetaOf(n).Ref
		if site == nil {
			return true
		}
		if ref := e.d.sites[site]; ref != nil && e.d.inlined[ref.To] == ref {
			found = ref
		}
		return found == nil
	})
	return found
}

func (e *emitter) splice(ref *analysis.Reference, caller *analysis.Body, depth int) ([]ast.Stmt, error) {
	callee, ok := e.d.an.Body(ref.To)
	if !ok {
		return nil, errors.MissingChainEntry(errors.PhaseRewrite, caller.Name(), "inlined body "+ref.To.String()+" not found")
	}
	before := e.splices
	blk, err := e.build(callee, depth+1)
	if err != nil {
		return nil, err
	}
	// The analyzed exit shape holds until something is spliced into the
	// callee; after that it is derived from the built body.
	exit := inline.ExitUnknown
	if e.splices == before {
		exit = inline.ExitOf(callee.SimpleExit)
	}
	e.splices++
	site := inline.Site{Shape: ref.Shape, Args: ref.Args}
	return inline.Splice(site, inline.Callee{Body: blk, Params: callee.Params, Exit: exit}, e.nextLabel), nil
}

// substitute replaces a retained placeholder by a direct reference to its
// target. Expressions without a placeholder are returned unchanged.
func (e *emitter) substitute(x ast.Expr, b *analysis.Body) (ast.Expr, error) {
	meta := ast.MetaOf(x)
	if meta.Ref == nil {
		return x, nil
	}
	ref := e.d.sites[meta.Ref]
	if ref == nil {
		return nil, errors.MissingChainEntry(errors.PhaseRewrite, b.Name(), "unresolved placeholder "+meta.Ref.String())
	}
	meta.Ref = nil
	if ref.Untouched {
		return x, nil
	}
	if ref.Linked && !e.d.emitted(ref.To) {
		return nil, errors.New(errors.PhaseRewrite, errors.KindMissingChainEntry).
			Decl(b.Name()).Layer(string(ref.Ref.Layer)).
			Detail("%s targets %s, which is not emitted", ref.Site, resolve.Describe(ref.Target)).Build()
	}

	switch t := ref.Target.(type) {
	case resolve.ChainEntry:
		return retarget(x, self(t.Entry.Member), t.Entry.Member.MemberName()), nil
	case resolve.OriginalBody:
		return retarget(x, self(t.Root.Member), e.d.source[t.Root.ID]), nil
	case resolve.PublicDecl:
		return retarget(x, self(t.Root.Member), t.Root.Member.MemberName()), nil
	case resolve.BaseMember:
		if t.Member.Modifiers().Has(ast.ModStatic) {
			return retarget(x, func(name string) ast.Expr { return &ast.Selector{X: ast.Id(t.Type.Name), Name: name} }, t.Member.MemberName()), nil
		}
		return retarget(x, func(name string) ast.Expr { return ast.BaseDot(name) }, t.Member.MemberName()), nil
	case resolve.Unchanged:
		return x, nil
	}
	return nil, errors.UnhandledKind(errors.PhaseRewrite, b.Name(), fmt.Sprintf("%T", ref.Target))
}

// self returns the access to a member of the current type.
func self(m ast.Member) func(string) ast.Expr {
	if m.Modifiers().Has(ast.ModStatic) {
		return func(name string) ast.Expr { return ast.Id(name) }
	}
	return func(name string) ast.Expr { return ast.ThisDot(name) }
}

// retarget points the member access of x at name.
func retarget(x ast.Expr, access func(string) ast.Expr, name string) ast.Expr {
	switch n := x.(type) {
	case *ast.Call:
		n.Fun = access(name)
		return n
	case *ast.Assign:
		n.L = access(name)
		return n
	case *ast.Selector, *ast.Ident:
		return access(name)
	}
	return x
}

// redirectEvents makes every use of an overridden field-like event other
// than a subscription read its backing field.
func redirectEvents(blk *ast.Block, events map[string]string) {
	subscriptions := map[ast.Expr]bool{}
	ast.Inspect(blk, func(n ast.Node) bool {
		if a, ok := n.(*ast.Assign); ok && (a.Op == "+=" || a.Op == "-=") {
			subscriptions[a.L] = true
		}
		return true
	})
	ast.MapStmtExprs(blk, func(x ast.Expr) ast.Expr {
		if subscriptions[x] {
			return x
		}
		switch n := x.(type) {
		case *ast.Selector:
			if _, ok := n.X.(*ast.This); ok {
				if field, ok := events[n.Name]; ok {
					n.Name = field
				}
			}
		case *ast.Ident:
			if field, ok := events[n.Name]; ok {
				n.Name = field
			}
		}
		return x
	})
}
