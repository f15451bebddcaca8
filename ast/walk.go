package ast

// Inspect traverses n in depth-first order, calling f for every node. If f
// returns false the children of that node are skipped. Members, blocks,
// statements and expressions are supported.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}
	switch x := n.(type) {
	case *Method:
		if x.Body != nil {
			Inspect(x.Body, f)
		}
	case *Property:
		inspectAccessor(x.Getter, f)
		inspectAccessor(x.Setter, f)
		if x.Init != nil {
			Inspect(x.Init, f)
		}
	case *Event:
		inspectAccessor(x.Adder, f)
		inspectAccessor(x.Remover, f)
	case *Field:
		if x.Init != nil {
			Inspect(x.Init, f)
		}
	case *Accessor:
		if x.Body != nil {
			Inspect(x.Body, f)
		}
	case *Block:
		for _, s := range x.Stmts {
			Inspect(s, f)
		}
	case *ExprStmt:
		Inspect(x.X, f)
	case *Return:
		if x.X != nil {
			Inspect(x.X, f)
		}
	case *LocalDecl:
		if x.Init != nil {
			Inspect(x.Init, f)
		}
	case *If:
		Inspect(x.Cond, f)
		Inspect(x.Then, f)
		if x.Else != nil {
			Inspect(x.Else, f)
		}
	case *While:
		Inspect(x.Cond, f)
		Inspect(x.Body, f)
	case *Labeled:
		if x.Stmt != nil {
			Inspect(x.Stmt, f)
		}
	case *Throw:
		Inspect(x.X, f)
	case *Selector:
		Inspect(x.X, f)
	case *Call:
		Inspect(x.Fun, f)
		for _, a := range x.Args {
			Inspect(a, f)
		}
	case *Binary:
		Inspect(x.X, f)
		Inspect(x.Y, f)
	case *Unary:
		Inspect(x.X, f)
	case *Cast:
		Inspect(x.X, f)
	case *Assign:
		Inspect(x.L, f)
		Inspect(x.R, f)
	}
}

func inspectAccessor(a *Accessor, f func(Node) bool) {
	if a != nil {
		Inspect(a, f)
	}
}

// MapExpr rebuilds e bottom-up, replacing every node by f(node). Children are
// replaced in place, so callers pass trees they own.
func MapExpr(e Expr, f func(Expr) Expr) Expr {
	if e == nil {
		return nil
	}
	switch x := e.(type) {
	case *Selector:
		x.X = MapExpr(x.X, f)
	case *Call:
		x.Fun = MapExpr(x.Fun, f)
		for i, a := range x.Args {
			x.Args[i] = MapExpr(a, f)
		}
	case *Binary:
		x.X = MapExpr(x.X, f)
		x.Y = MapExpr(x.Y, f)
	case *Unary:
		x.X = MapExpr(x.X, f)
	case *Cast:
		x.X = MapExpr(x.X, f)
	case *Assign:
		x.L = MapExpr(x.L, f)
		x.R = MapExpr(x.R, f)
	}
	return f(e)
}

// MapStmtExprs applies MapExpr to every expression reachable from s.
func MapStmtExprs(s Stmt, f func(Expr) Expr) {
	switch x := s.(type) {
	case *Block:
		for _, c := range x.Stmts {
			MapStmtExprs(c, f)
		}
	case *ExprStmt:
		x.X = MapExpr(x.X, f)
	case *Return:
		x.X = MapExpr(x.X, f)
	case *LocalDecl:
		x.Init = MapExpr(x.Init, f)
	case *If:
		x.Cond = MapExpr(x.Cond, f)
		MapStmtExprs(x.Then, f)
		if x.Else != nil {
			MapStmtExprs(x.Else, f)
		}
	case *While:
		x.Cond = MapExpr(x.Cond, f)
		MapStmtExprs(x.Body, f)
	case *Labeled:
		if x.Stmt != nil {
			MapStmtExprs(x.Stmt, f)
		}
	case *Throw:
		x.X = MapExpr(x.X, f)
	}
}

// RenameLocals renames identifiers and local declarations of b according to
// names. The block is modified in place.
func RenameLocals(b *Block, names map[string]string) {
	if b == nil || len(names) == 0 {
		return
	}
	Inspect(b, func(n Node) bool {
		switch x := n.(type) {
		case *LocalDecl:
			if to, ok := names[x.Name]; ok {
				x.Name = to
			}
		case *Ident:
			if to, ok := names[x.Name]; ok {
				x.Name = to
			}
		}
		return true
	})
}

// DeclaredLocals returns the names of locals declared in b, in order of
// appearance, without duplicates.
func DeclaredLocals(b *Block) []string {
	var out []string
	seen := map[string]bool{}
	Inspect(b, func(n Node) bool {
		if d, ok := n.(*LocalDecl); ok && !seen[d.Name] {
			seen[d.Name] = true
			out = append(out, d.Name)
		}
		return true
	})
	return out
}

// UsedNames returns every identifier, local and label name appearing in b.
func UsedNames(b *Block) map[string]bool {
	out := map[string]bool{}
	Inspect(b, func(n Node) bool {
		switch x := n.(type) {
		case *LocalDecl:
			out[x.Name] = true
		case *Ident:
			out[x.Name] = true
		case *Labeled:
			out[x.Label] = true
		case *Goto:
			out[x.Label] = true
		}
		return true
	})
	return out
}

// CountReturns returns the number of return statements in s.
func CountReturns(s Stmt) int {
	n := 0
	Inspect(s, func(node Node) bool {
		if _, ok := node.(*Return); ok {
			n++
		}
		return true
	})
	return n
}

// HasSideEffects reports whether evaluating e may have observable effects.
// Calls and assignments are assumed effectful.
func HasSideEffects(e Expr) bool {
	effect := false
	Inspect(e, func(n Node) bool {
		switch n.(type) {
		case *Call, *Assign:
			effect = true
			return false
		}
		return true
	})
	return effect
}
