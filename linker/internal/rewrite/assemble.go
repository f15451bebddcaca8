package rewrite

import (
	"github.com/wippyai/aspect-linker/ast"
	"github.com/wippyai/aspect-linker/errors"
	"github.com/wippyai/aspect-linker/linker/internal/analysis"
	"github.com/wippyai/aspect-linker/linker/internal/introduce"
)

// assemble builds the final member list of t. Types are independent, so
// assemble runs concurrently across types; it never writes to the driver.
func (d *driver) assemble(t *ast.TypeDecl) (*ast.TypeDecl, error) {
	out := &ast.TypeDecl{
		Meta:       t.Meta,
		Name:       t.Name,
		Base:       t.Base,
		Interfaces: append([]string(nil), t.Interfaces...),
	}
	for _, m := range t.Members {
		decl, ok := d.intro.DeclOf(m)
		if !ok {
			return nil, errors.MissingChainEntry(errors.PhaseRewrite, t.Name+"."+m.MemberName(), "untracked member")
		}
		var (
			members []ast.Member
			err     error
		)
		switch {
		case d.intro.IsRoot(decl.ID):
			members, err = d.root(decl)
		case d.intro.IsOverride(decl.ID):
			members, err = d.entry(decl)
		default:
			members, err = d.plain(decl)
		}
		if err != nil {
			return nil, err
		}
		out.Members = append(out.Members, members...)
	}
	return out, nil
}

// plain emits a declaration that takes no part in any chain.
func (d *driver) plain(decl introduce.Declaration) ([]ast.Member, error) {
	m := ast.CloneMember(decl.Member)
	for _, kind := range kinds(m) {
		b, ok := d.an.Body(analysis.Key{Decl: decl.ID, Accessor: kind})
		if !ok {
			continue
		}
		blk, err := d.emit(b, m.MemberName())
		if err != nil {
			return nil, err
		}
		setBody(m, kind, blk)
	}
	return []ast.Member{m}, nil
}

// entry emits the accessors of an override that survive linking.
func (d *driver) entry(decl introduce.Declaration) ([]ast.Member, error) {
	return d.versioned(decl, analysis.SemanticDefault, decl.Member.MemberName(), decl.Member.Modifiers())
}

// root emits the backing field of an auto-implemented root, its public
// declaration and the alias of its original implementation.
func (d *driver) root(decl introduce.Declaration) ([]ast.Member, error) {
	var out []ast.Member
	if field := backingField(decl.Member); field != nil {
		out = append(out, field)
	}

	pub := ast.CloneMember(decl.Member)
	for _, kind := range kinds(pub) {
		b, ok := d.an.Body(analysis.Key{Decl: decl.ID, Accessor: kind, Semantic: analysis.SemanticPublic})
		if !ok {
			return nil, errors.MissingChainEntry(errors.PhaseRewrite, decl.Name(), "no public body for "+kind.String())
		}
		blk, err := d.emit(b, pub.MemberName())
		if err != nil {
			return nil, err
		}
		setBody(pub, kind, blk)
	}
	if p, ok := pub.(*ast.Property); ok {
		p.Init = nil
	}
	out = append(out, pub)

	mods := ast.ModPrivate
	if decl.Member.Modifiers().Has(ast.ModStatic) {
		mods |= ast.ModStatic
	}
	alias, err := d.versioned(decl, analysis.SemanticOriginal, d.source[decl.ID], mods)
	if err != nil {
		return nil, err
	}
	return append(out, alias...), nil
}

// versioned emits a copy of decl named name holding the emitted bodies of the
// given semantic, or nothing when no body is emitted. Properties keep only
// emitted accessors; events keep both, with an empty body for the one that
// is not emitted.
func (d *driver) versioned(decl introduce.Declaration, sem analysis.Semantic, name string, mods ast.Modifiers) ([]ast.Member, error) {
	m := ast.CloneMember(decl.Member)
	kept := false
	for _, kind := range kinds(m) {
		key := analysis.Key{Decl: decl.ID, Accessor: kind, Semantic: sem}
		b, ok := d.an.Body(key)
		if !ok || !d.emitted(key) {
			if _, isEvent := m.(*ast.Event); isEvent {
				setBody(m, kind, &ast.Block{})
			} else {
				dropAccessor(m, kind)
			}
			continue
		}
		blk, err := d.emit(b, name)
		if err != nil {
			return nil, err
		}
		setBody(m, kind, blk)
		kept = true
	}
	if !kept {
		return nil, nil
	}
	rename(m, name, mods)
	return []ast.Member{m}, nil
}

// kinds lists the accessors a member has in the final program. Events always
// have an adder and a remover.
func kinds(m ast.Member) []ast.AccessorKind {
	switch x := m.(type) {
	case *ast.Method:
		return []ast.AccessorKind{ast.AccessorNone}
	case *ast.Property:
		var out []ast.AccessorKind
		if x.Getter != nil {
			out = append(out, ast.AccessorGet)
		}
		if x.Setter != nil {
			out = append(out, ast.AccessorSet)
		}
		return out
	case *ast.Event:
		return []ast.AccessorKind{ast.AccessorAdd, ast.AccessorRemove}
	}
	return nil
}

func backingField(m ast.Member) *ast.Field {
	var init ast.Expr
	switch x := m.(type) {
	case *ast.Property:
		if !x.IsAuto() {
			return nil
		}
		if x.Init != nil {
			init = ast.CloneExpr(x.Init)
		}
	case *ast.Event:
		if !x.IsFieldLike() {
			return nil
		}
	default:
		return nil
	}
	mods := ast.ModPrivate
	if m.Modifiers().Has(ast.ModStatic) {
		mods |= ast.ModStatic
	}
	return &ast.Field{
		Name: analysis.BackingField(m.MemberName()),
		Type: ast.ValueType(m),
		Mods: mods,
		Init: init,
	}
}

func setBody(m ast.Member, kind ast.AccessorKind, blk *ast.Block) {
	switch x := m.(type) {
	case *ast.Method:
		x.Body = blk
	case *ast.Property:
		switch kind {
		case ast.AccessorGet:
			x.Getter = withBody(x.Getter, kind, blk)
		case ast.AccessorSet:
			x.Setter = withBody(x.Setter, kind, blk)
		}
	case *ast.Event:
		switch kind {
		case ast.AccessorAdd:
			x.Adder = withBody(x.Adder, kind, blk)
		case ast.AccessorRemove:
			x.Remover = withBody(x.Remover, kind, blk)
		}
	}
}

func withBody(a *ast.Accessor, kind ast.AccessorKind, blk *ast.Block) *ast.Accessor {
	if a == nil {
		a = &ast.Accessor{Kind: kind}
	}
	a.Body = blk
	return a
}

func dropAccessor(m ast.Member, kind ast.AccessorKind) {
	if p, ok := m.(*ast.Property); ok {
		switch kind {
		case ast.AccessorGet:
			p.Getter = nil
		case ast.AccessorSet:
			p.Setter = nil
		}
	}
}

func rename(m ast.Member, name string, mods ast.Modifiers) {
	switch x := m.(type) {
	case *ast.Method:
		x.Name, x.Mods = name, mods
	case *ast.Property:
		x.Name, x.Mods, x.Init = name, mods, nil
	case *ast.Event:
		x.Name, x.Mods = name, mods
	}
}
