package source

import (
	"strconv"
	"strings"

	"github.com/wippyai/aspect-linker/ast"
)

// Print renders p in the s-expression form accepted by Parse.
func Print(p *ast.Program) string {
	pr := &printer{}
	pr.line("(program")
	pr.depth++
	for _, t := range p.Types {
		pr.typeDecl(t)
	}
	pr.depth--
	pr.line(")")
	return pr.sb.String()
}

// PrintMember renders a single member in the form accepted by ParseMember.
func PrintMember(m ast.Member) string {
	pr := &printer{}
	pr.member(m)
	return pr.sb.String()
}

// PrintStmt renders a statement on one line.
func PrintStmt(s ast.Stmt) string { return stmt(s) }

// PrintExpr renders an expression on one line.
func PrintExpr(e ast.Expr) string { return expr(e) }

type printer struct {
	sb    strings.Builder
	depth int
}

func (pr *printer) line(parts ...string) {
	pr.sb.WriteString(strings.Repeat("  ", pr.depth))
	for _, p := range parts {
		pr.sb.WriteString(p)
	}
	pr.sb.WriteByte('\n')
}

func (pr *printer) typeDecl(t *ast.TypeDecl) {
	head := "(type " + t.Name
	if t.Base != "" {
		head += " (base " + t.Base + ")"
	}
	if len(t.Interfaces) > 0 {
		head += " (implements " + strings.Join(t.Interfaces, " ") + ")"
	}
	pr.line(head)
	pr.depth++
	for _, m := range t.Members {
		pr.member(m)
	}
	pr.depth--
	pr.line(")")
}

func mods(m ast.Modifiers) string {
	if w := m.Words(); len(w) > 0 {
		return " " + strings.Join(w, " ")
	}
	return ""
}

func (pr *printer) member(m ast.Member) {
	switch d := m.(type) {
	case *ast.Method:
		head := "(method " + d.Name + mods(d.Mods)
		for _, p := range d.Params {
			head += " (param " + p.Name + " " + p.Type + ")"
		}
		if d.Result != "" {
			head += " (result " + d.Result + ")"
		}
		if d.Body == nil {
			pr.line(head, ")")
			return
		}
		pr.line(head)
		pr.depth++
		pr.body("body", d.Body)
		pr.depth--
		pr.line(")")
	case *ast.Property:
		pr.line("(property ", d.Name, mods(d.Mods), " (type ", d.Type, ")")
		pr.depth++
		pr.accessor("get", d.Getter)
		pr.accessor("set", d.Setter)
		if d.Init != nil {
			pr.line("(init ", expr(d.Init), ")")
		}
		pr.depth--
		pr.line(")")
	case *ast.Event:
		if d.IsFieldLike() {
			pr.line("(event ", d.Name, mods(d.Mods), " (type ", d.Type, "))")
			return
		}
		pr.line("(event ", d.Name, mods(d.Mods), " (type ", d.Type, ")")
		pr.depth++
		pr.accessor("add", d.Adder)
		pr.accessor("remove", d.Remover)
		pr.depth--
		pr.line(")")
	case *ast.Field:
		tail := ""
		if d.Init != nil {
			tail = " (init " + expr(d.Init) + ")"
		}
		pr.line("(field ", d.Name, mods(d.Mods), " (type ", d.Type, ")", tail, ")")
	}
}

func (pr *printer) accessor(kw string, a *ast.Accessor) {
	if a == nil {
		return
	}
	if a.Body == nil {
		pr.line("(", kw, ")")
		return
	}
	pr.body(kw, a.Body)
}

func (pr *printer) body(kw string, b *ast.Block) {
	if len(b.Stmts) == 0 {
		pr.line("(", kw, " (block))")
		return
	}
	pr.line("(", kw)
	pr.depth++
	for _, s := range b.Stmts {
		pr.line(stmt(s))
	}
	pr.depth--
	pr.line(")")
}

func stmt(s ast.Stmt) string {
	switch n := s.(type) {
	case *ast.Block:
		parts := []string{"(block"}
		for _, c := range n.Stmts {
			parts = append(parts, stmt(c))
		}
		return strings.Join(parts, " ") + ")"
	case *ast.ExprStmt:
		return "(expr " + expr(n.X) + ")"
	case *ast.Return:
		if n.X == nil {
			return "(return)"
		}
		return "(return " + expr(n.X) + ")"
	case *ast.LocalDecl:
		if n.Init == nil {
			return "(local " + n.Name + " " + n.Type + ")"
		}
		return "(local " + n.Name + " " + n.Type + " " + expr(n.Init) + ")"
	case *ast.If:
		out := "(if " + expr(n.Cond) + " " + stmt(n.Then)
		if n.Else != nil {
			out += " " + stmt(n.Else)
		}
		return out + ")"
	case *ast.While:
		return "(while " + expr(n.Cond) + " " + stmt(n.Body) + ")"
	case *ast.Goto:
		return "(goto " + n.Label + ")"
	case *ast.Labeled:
		if n.Stmt == nil {
			return "(label " + n.Label + ")"
		}
		return "(label " + n.Label + " " + stmt(n.Stmt) + ")"
	case *ast.Empty:
		return "(empty)"
	case *ast.Throw:
		return "(throw " + expr(n.X) + ")"
	}
	return "(empty)"
}

func expr(e ast.Expr) string {
	out := bareExpr(e)
	if r := ast.MetaOf(e).Ref; r != nil {
		return "(ref " + strconv.Quote(string(r.Layer)) + " " + r.Order.String() + " " + r.Accessor.String() + " " + out + ")"
	}
	return out
}

func bareExpr(e ast.Expr) string {
	switch n := e.(type) {
	case *ast.Ident:
		return n.Name
	case *ast.Literal:
		switch n.Kind {
		case ast.LitString:
			return strconv.Quote(n.Value)
		case ast.LitNull:
			return "null"
		}
		return n.Value
	case *ast.This:
		return "this"
	case *ast.BaseRef:
		return "base"
	case *ast.Selector:
		return "(. " + expr(n.X) + " " + n.Name + ")"
	case *ast.Call:
		parts := []string{"(call", expr(n.Fun)}
		for _, a := range n.Args {
			parts = append(parts, expr(a))
		}
		return strings.Join(parts, " ") + ")"
	case *ast.Binary:
		return "(" + n.Op + " " + expr(n.X) + " " + expr(n.Y) + ")"
	case *ast.Unary:
		op := n.Op
		if op == "-" {
			op = "neg"
		}
		return "(" + op + " " + expr(n.X) + ")"
	case *ast.Cast:
		return "(cast " + n.Type + " " + expr(n.X) + ")"
	case *ast.Assign:
		return "(" + n.Op + " " + expr(n.L) + " " + expr(n.R) + ")"
	}
	return "null"
}
