package ast

// CloneProgram deep-copies a program. Metadata is copied by value.
func CloneProgram(p *Program) *Program {
	if p == nil {
		return nil
	}
	out := &Program{Types: make([]*TypeDecl, len(p.Types))}
	for i, t := range p.Types {
		out.Types[i] = CloneType(t)
	}
	return out
}

// CloneType deep-copies a type declaration.
func CloneType(t *TypeDecl) *TypeDecl {
	out := &TypeDecl{
		Meta:       t.Meta,
		Name:       t.Name,
		Base:       t.Base,
		Interfaces: append([]string(nil), t.Interfaces...),
		Members:    make([]Member, len(t.Members)),
	}
	for i, m := range t.Members {
		out.Members[i] = CloneMember(m)
	}
	return out
}

// CloneMember deep-copies a member declaration.
func CloneMember(m Member) Member {
	switch d := m.(type) {
	case *Method:
		return &Method{
			Meta:   d.Meta,
			Name:   d.Name,
			Mods:   d.Mods,
			Params: append([]Param(nil), d.Params...),
			Result: d.Result,
			Body:   CloneBlock(d.Body),
		}
	case *Property:
		return &Property{
			Meta:   d.Meta,
			Name:   d.Name,
			Mods:   d.Mods,
			Type:   d.Type,
			Getter: CloneAccessor(d.Getter),
			Setter: CloneAccessor(d.Setter),
			Init:   CloneExpr(d.Init),
		}
	case *Event:
		return &Event{
			Meta:    d.Meta,
			Name:    d.Name,
			Mods:    d.Mods,
			Type:    d.Type,
			Adder:   CloneAccessor(d.Adder),
			Remover: CloneAccessor(d.Remover),
		}
	case *Field:
		return &Field{
			Meta: d.Meta,
			Name: d.Name,
			Mods: d.Mods,
			Type: d.Type,
			Init: CloneExpr(d.Init),
		}
	}
	return nil
}

// CloneAccessor deep-copies an accessor; nil stays nil.
func CloneAccessor(a *Accessor) *Accessor {
	if a == nil {
		return nil
	}
	return &Accessor{Meta: a.Meta, Kind: a.Kind, Body: CloneBlock(a.Body)}
}

// CloneBlock deep-copies a block; nil stays nil.
func CloneBlock(b *Block) *Block {
	if b == nil {
		return nil
	}
	out := &Block{Meta: b.Meta, Stmts: make([]Stmt, len(b.Stmts))}
	for i, s := range b.Stmts {
		out.Stmts[i] = CloneStmt(s)
	}
	return out
}

// CloneStmt deep-copies a statement; nil stays nil.
func CloneStmt(s Stmt) Stmt {
	switch n := s.(type) {
	case nil:
		return nil
	case *Block:
		return CloneBlock(n)
	case *ExprStmt:
		return &ExprStmt{Meta: n.Meta, X: CloneExpr(n.X)}
	case *Return:
		return &Return{Meta: n.Meta, X: CloneExpr(n.X)}
	case *LocalDecl:
		return &LocalDecl{Meta: n.Meta, Name: n.Name, Type: n.Type, Init: CloneExpr(n.Init)}
	case *If:
		return &If{Meta: n.Meta, Cond: CloneExpr(n.Cond), Then: CloneStmt(n.Then), Else: CloneStmt(n.Else)}
	case *While:
		return &While{Meta: n.Meta, Cond: CloneExpr(n.Cond), Body: CloneStmt(n.Body)}
	case *Goto:
		return &Goto{Meta: n.Meta, Label: n.Label}
	case *Labeled:
		return &Labeled{Meta: n.Meta, Label: n.Label, Stmt: CloneStmt(n.Stmt)}
	case *Empty:
		return &Empty{Meta: n.Meta}
	case *Throw:
		return &Throw{Meta: n.Meta, X: CloneExpr(n.X)}
	}
	return nil
}

// CloneExpr deep-copies an expression; nil stays nil.
func CloneExpr(e Expr) Expr {
	switch n := e.(type) {
	case nil:
		return nil
	case *Ident:
		return &Ident{Meta: n.Meta, Name: n.Name}
	case *Literal:
		return &Literal{Meta: n.Meta, Kind: n.Kind, Value: n.Value}
	case *This:
		return &This{Meta: n.Meta}
	case *BaseRef:
		return &BaseRef{Meta: n.Meta}
	case *Selector:
		return &Selector{Meta: n.Meta, X: CloneExpr(n.X), Name: n.Name}
	case *Call:
		args := make([]Expr, len(n.Args))
		for i, a := range n.Args {
			args[i] = CloneExpr(a)
		}
		return &Call{Meta: n.Meta, Fun: CloneExpr(n.Fun), Args: args}
	case *Binary:
		return &Binary{Meta: n.Meta, Op: n.Op, X: CloneExpr(n.X), Y: CloneExpr(n.Y)}
	case *Unary:
		return &Unary{Meta: n.Meta, Op: n.Op, X: CloneExpr(n.X)}
	case *Cast:
		return &Cast{Meta: n.Meta, Type: n.Type, X: CloneExpr(n.X)}
	case *Assign:
		return &Assign{Meta: n.Meta, Op: n.Op, L: CloneExpr(n.L), R: CloneExpr(n.R)}
	}
	return nil
}
