package analysis

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wippyai/aspect-linker/ast"
	"github.com/wippyai/aspect-linker/errors"
	"github.com/wippyai/aspect-linker/linker/internal/inline"
	"github.com/wippyai/aspect-linker/linker/internal/introduce"
	"github.com/wippyai/aspect-linker/linker/internal/resolve"
)

// Config carries the collaborators of Run.
type Config struct {
	Logger *zap.Logger

	// Concurrency bounds the declarations analyzed at once. Zero or less
	// means unbounded.
	Concurrency int
}

type unit struct {
	decl   introduce.Declaration
	bodies []*Body
	diags  []Diagnostic
}

// Run analyzes every declaration of the intermediate program. Declarations
// are analyzed in parallel; the result is ordered as the program is.
func Run(ctx context.Context, reg *introduce.Registry, res *resolve.Resolver, cfg Config) (*Registry, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.PhaseAnalyze, errors.KindCanceled, err, "analysis canceled")
	}
	start := time.Now()

	var units []*unit
	for _, t := range reg.Program().Types {
		for _, m := range t.Members {
			d, ok := reg.DeclOf(m)
			if !ok {
				return nil, errors.MissingChainEntry(errors.PhaseAnalyze, t.Name+"."+m.MemberName(), "untracked member")
			}
			units = append(units, &unit{decl: d})
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	if cfg.Concurrency > 0 {
		g.SetLimit(cfg.Concurrency)
	}
	for _, u := range units {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			a := &analyzer{reg: reg, res: res, u: u}
			return a.declaration()
		})
	}
	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrap(errors.PhaseAnalyze, errors.KindCanceled, ctx.Err(), "analysis canceled")
		}
		return nil, err
	}

	out := &Registry{bodies: make(map[Key]*Body)}
	refs := 0
	for _, u := range units {
		for _, b := range u.bodies {
			out.bodies[b.Key] = b
			out.order = append(out.order, b.Key)
			refs += len(b.Refs)
		}
		out.diags = append(out.diags, u.diags...)
	}
	log.Debug("analysis complete",
		zap.Int("bodies", len(out.order)),
		zap.Int("references", refs),
		zap.Int("diagnostics", len(out.diags)),
		zap.Duration("elapsed", time.Since(start)))
	return out, nil
}

type analyzer struct {
	reg *introduce.Registry
	res *resolve.Resolver
	u   *unit
}

func (a *analyzer) declaration() error {
	d := a.u.decl
	switch m := d.Member.(type) {
	case *ast.Field:
		return noPlaceholders(d, m.Init)
	case *ast.Property:
		if err := noPlaceholders(d, m.Init); err != nil {
			return err
		}
	case *ast.Method, *ast.Event:
	default:
		return errors.UnhandledKind(errors.PhaseAnalyze, d.Name(), fmt.Sprintf("%T", d.Member))
	}

	root := ast.TrackingID(0)
	switch {
	case a.reg.IsRoot(d.ID):
		root = d.ID
	case a.reg.IsOverride(d.ID):
		im, _ := a.reg.Introduced(d.ID)
		root = im.Root
	}
	opts := a.reg.Options(d.ID)

	for _, kind := range accessorKinds(d.Member) {
		params := ast.ParamsOf(d.Member, kind)
		block := ast.BodyOf(d.Member, kind)

		if root != d.ID {
			if block == nil {
				continue
			}
			b := &Body{
				Key:     Key{Decl: d.ID, Accessor: kind, Semantic: SemanticDefault},
				Decl:    d,
				Root:    root,
				Block:   block,
				Params:  params,
				Options: opts,
			}
			if err := a.collect(b); err != nil {
				return err
			}
			continue
		}

		synthetic := false
		if block == nil {
			if _, ok := d.Member.(*ast.Method); ok {
				return errors.Unsupported(errors.PhaseAnalyze, "overridden method without body: "+d.Name())
			}
			block = backingBody(d.Member, kind)
			synthetic = true
		}
		orig := &Body{
			Key:       Key{Decl: d.ID, Accessor: kind, Semantic: SemanticOriginal},
			Decl:      d,
			Root:      root,
			Block:     block,
			Params:    params,
			Options:   opts,
			Synthetic: synthetic,
		}
		if err := a.collect(orig); err != nil {
			return err
		}
		if err := a.public(d, kind, params); err != nil {
			return err
		}
	}
	return nil
}

// public synthesizes the body of the root's visible declaration: a single
// statement forwarding to the outermost version of the accessor.
func (a *analyzer) public(d introduce.Declaration, kind ast.AccessorKind, params []ast.Param) error {
	key := Key{Decl: d.ID, Accessor: kind, Semantic: SemanticPublic}
	site := &ast.AspectRef{Order: ast.OrderDefault, Accessor: kind}
	expr := accessExpr(d.Member, kind, d.Member.MemberName())
	ast.MetaOf(expr).Ref = site
	stmt := forward(d.Member, kind, expr)

	ref := &Reference{
		Site:       site,
		Ref:        *site,
		From:       key,
		Expr:       expr,
		Stmt:       stmt,
		Referenced: d,
		Linked:     true,
		Counted:    true,
	}
	chain := a.reg.AccessorChain(d.ID, kind)
	if len(chain) > 0 {
		head := chain[len(chain)-1]
		ref.Target = resolve.ChainEntry{Entry: head}
		ref.To = Key{Decl: head.ID, Accessor: kind, Semantic: SemanticDefault}
	} else {
		ref.Target = resolve.OriginalBody{Root: d}
		ref.To = Key{Decl: d.ID, Accessor: kind, Semantic: SemanticOriginal}
	}
	ref.Shape, _ = inline.Classify(stmt, expr, params, nil)
	if ref.Shape != nil {
		ref.Args = inline.Args(expr)
	}

	block := ast.Stmts(stmt)
	a.u.bodies = append(a.u.bodies, &Body{
		Key:        key,
		Decl:       d,
		Root:       d.ID,
		Block:      block,
		Params:     params,
		Options:    a.reg.Options(d.ID),
		Refs:       []*Reference{ref},
		SimpleExit: true,
		Synthetic:  true,
	})
	return nil
}

// collect resolves every placeholder of b and registers it.
func (a *analyzer) collect(b *Body) error {
	b.SimpleExit = inline.SimpleExit(b.Block)
	locals := map[string]bool{}
	for _, p := range b.Params {
		locals[p.Name] = true
	}
	for _, n := range ast.DeclaredLocals(b.Block) {
		locals[n] = true
	}

	var err error
	walkStmt(b.Block, func(stmt ast.Stmt, expr ast.Expr) {
		if err != nil {
			return
		}
		var ref *Reference
		ref, err = a.reference(b, stmt, expr, locals)
		if ref != nil {
			b.Refs = append(b.Refs, ref)
		}
	})
	if err != nil {
		return err
	}
	a.u.bodies = append(a.u.bodies, b)
	return nil
}

func (a *analyzer) reference(b *Body, stmt ast.Stmt, expr ast.Expr, locals map[string]bool) (*Reference, error) {
	site := ast.MetaOf(expr).Ref
	ref := &Reference{Site: site, Ref: *site, From: b.Key, Expr: expr, Stmt: stmt, Counted: true}

	acc, err := accessAt(expr)
	if err != nil {
		return nil, errors.New(errors.PhaseAnalyze, errors.KindUnsupportedShape).
			Decl(b.Name()).Layer(string(site.Layer)).Cause(err).Detail("placeholder on " + ast.FormatExpr(expr)).Build()
	}
	if site.Order == ast.OrderBase && acc.explicit() {
		ref.Untouched = true
		a.u.diags = append(a.u.diags, Diagnostic{
			Code:     CodeBaseReceiver,
			Severity: SeverityWarning,
			Message: fmt.Sprintf("aspect %s invokes the base version of %s on %s; only the implicit receiver is linked",
				site.Layer, acc.name, ast.FormatExpr(acc.recv)),
			Declaration: b.Decl.Name(),
		})
		return ref, nil
	}

	referenced, err := a.lookup(b, acc)
	if err != nil {
		return nil, errors.New(errors.PhaseAnalyze, errors.KindNotFound).
			Decl(b.Name()).Layer(string(site.Layer)).Cause(err).Detail(site.String()).Build()
	}
	ref.Referenced = referenced
	if ref.Ref.Accessor == ast.AccessorNone {
		ref.Ref.Accessor = inferAccessor(referenced.Member, expr)
	}

	ref.Target, err = a.res.Resolve(b.Decl, referenced, &ref.Ref)
	if err != nil {
		return nil, err
	}
	switch t := ref.Target.(type) {
	case resolve.ChainEntry:
		ref.To = Key{Decl: t.Entry.ID, Accessor: ref.Ref.Accessor, Semantic: SemanticDefault}
		ref.Linked = true
	case resolve.OriginalBody:
		ref.To = Key{Decl: t.Root.ID, Accessor: ref.Ref.Accessor, Semantic: SemanticOriginal}
		ref.Linked = true
	case resolve.PublicDecl:
		ref.To = Key{Decl: t.Root.ID, Accessor: ref.Ref.Accessor, Semantic: SemanticPublic}
		ref.Linked = true
		ref.Counted = false
	}
	if ref.Linked {
		if ref.Shape, _ = inline.Classify(stmt, expr, b.Params, locals); ref.Shape != nil {
			ref.Args = inline.Args(expr)
		}
	}
	return ref, nil
}

func (a *analyzer) lookup(b *Body, acc access) (introduce.Declaration, error) {
	t := b.Decl.Type
	types := []*ast.TypeDecl{t}
	if _, ok := acc.recv.(*ast.BaseRef); ok {
		types = nil
	}
	types = append(types, a.reg.Program().Ancestors(t)...)

	var want *ast.Signature
	if b.Participating() {
		if root, ok := a.reg.Decl(b.Root); ok {
			sig := ast.SignatureOf(root.Member)
			want = &sig
		}
	}
	for _, typ := range types {
		if m := match(typ, acc, b.Params, want); m != nil {
			if d, ok := a.reg.DeclOf(m); ok {
				return d, nil
			}
		}
	}
	return introduce.Declaration{}, fmt.Errorf("no member %s visible from %s", acc.name, t.Name)
}

// match finds the member an access names: for calls, a method with the right
// arity whose parameter types accept the arguments, preferring the overload
// with the signature of the containing chain root; else a non-method member,
// else a method group.
func match(t *ast.TypeDecl, acc access, params []ast.Param, want *ast.Signature) ast.Member {
	var group, first, typed ast.Member
	for _, m := range t.FindMembers(acc.name) {
		meth, isMethod := m.(*ast.Method)
		switch {
		case acc.call && isMethod && len(meth.Params) == acc.argc:
			if first == nil {
				first = m
			}
			if !accepts(meth, acc.args, params) {
				continue
			}
			if want != nil && ast.SignatureOf(m) == *want {
				return m
			}
			if typed == nil {
				typed = m
			}
		case !acc.call && !isMethod:
			return m
		case !acc.call && group == nil:
			group = m
		}
	}
	switch {
	case typed != nil:
		return typed
	case first != nil:
		return first
	}
	return group
}

// accepts reports whether every argument whose type is evident from the
// body (a literal or a parameter) has the declared parameter type of meth.
func accepts(meth *ast.Method, args []ast.Expr, params []ast.Param) bool {
	for i, arg := range args {
		if typ := typeOf(arg, params); typ != "" && typ != meth.Params[i].Type {
			return false
		}
	}
	return true
}

func typeOf(e ast.Expr, params []ast.Param) string {
	switch x := e.(type) {
	case *ast.Literal:
		switch x.Kind {
		case ast.LitInt:
			return "int"
		case ast.LitString:
			return "string"
		case ast.LitBool:
			return "bool"
		}
	case *ast.Ident:
		for _, p := range params {
			if p.Name == x.Name {
				return p.Type
			}
		}
	}
	return ""
}

// inferAccessor picks the accessor a property or event access runs.
func inferAccessor(m ast.Member, expr ast.Expr) ast.AccessorKind {
	switch m.(type) {
	case *ast.Property:
		if as, ok := expr.(*ast.Assign); ok && as.Op == "=" {
			return ast.AccessorSet
		}
		return ast.AccessorGet
	case *ast.Event:
		if as, ok := expr.(*ast.Assign); ok && as.Op == "-=" {
			return ast.AccessorRemove
		}
		return ast.AccessorAdd
	}
	return ast.AccessorNone
}

// access describes the member access a placeholder sits on.
type access struct {
	recv ast.Expr // nil for the implicit receiver
	name string
	argc int
	args []ast.Expr
	call bool
}

func (acc access) explicit() bool {
	switch acc.recv.(type) {
	case nil, *ast.This, *ast.BaseRef:
		return false
	}
	return true
}

func accessOf(e ast.Expr) (access, error) {
	switch x := e.(type) {
	case *ast.Ident:
		return access{name: x.Name}, nil
	case *ast.Selector:
		return access{recv: x.X, name: x.Name}, nil
	}
	return access{}, fmt.Errorf("%T is not a member access", e)
}

func accessAt(e ast.Expr) (access, error) {
	switch x := e.(type) {
	case *ast.Call:
		acc, err := accessOf(x.Fun)
		acc.call = true
		acc.argc = len(x.Args)
		acc.args = x.Args
		return acc, err
	case *ast.Assign:
		return accessOf(x.L)
	}
	return accessOf(e)
}

func noPlaceholders(d introduce.Declaration, e ast.Expr) error {
	if e == nil {
		return nil
	}
	found := false
	ast.Inspect(e, func(n ast.Node) bool {
		if ast.MetaOf(n).Ref != nil {
			found = true
		}
		return !found
	})
	if found {
		return errors.New(errors.PhaseAnalyze, errors.KindUnsupportedShape).
			Decl(d.Name()).Detail("placeholder in initializer").Build()
	}
	return nil
}

// accessorKinds lists the bodies a member owns. Events always own an adder
// and a remover, declared or not.
func accessorKinds(m ast.Member) []ast.AccessorKind {
	switch d := m.(type) {
	case *ast.Method:
		return []ast.AccessorKind{ast.AccessorNone}
	case *ast.Property:
		var out []ast.AccessorKind
		if d.Getter != nil {
			out = append(out, ast.AccessorGet)
		}
		if d.Setter != nil {
			out = append(out, ast.AccessorSet)
		}
		return out
	case *ast.Event:
		return []ast.AccessorKind{ast.AccessorAdd, ast.AccessorRemove}
	}
	return nil
}

// walkStmt calls visit for every placeholder expression of s together with
// the innermost statement containing it.
func walkStmt(s ast.Stmt, visit func(ast.Stmt, ast.Expr)) {
	own := func(e ast.Expr) {
		if e == nil {
			return
		}
		ast.Inspect(e, func(n ast.Node) bool {
			if x, ok := n.(ast.Expr); ok && ast.MetaOf(x).Ref != nil {
				visit(s, x)
			}
			return true
		})
	}
	switch n := s.(type) {
	case *ast.Block:
		for _, c := range n.Stmts {
			walkStmt(c, visit)
		}
	case *ast.ExprStmt:
		own(n.X)
	case *ast.Return:
		own(n.X)
	case *ast.LocalDecl:
		own(n.Init)
	case *ast.Throw:
		own(n.X)
	case *ast.If:
		own(n.Cond)
		walkStmt(n.Then, visit)
		if n.Else != nil {
			walkStmt(n.Else, visit)
		}
	case *ast.While:
		own(n.Cond)
		walkStmt(n.Body, visit)
	case *ast.Labeled:
		if n.Stmt != nil {
			walkStmt(n.Stmt, visit)
		}
	}
}
