package ast

import (
	"strconv"
	"strings"
)

// Format renders p as C#-like source. The output is deterministic and meant
// for humans; use source.Print for a round-trippable form.
func Format(p *Program) string {
	w := &writer{}
	for i, t := range p.Types {
		if i > 0 {
			w.nl()
		}
		w.typeDecl(t)
	}
	return w.sb.String()
}

// FormatMember renders a single member declaration.
func FormatMember(m Member) string {
	w := &writer{}
	w.member(m)
	return w.sb.String()
}

// FormatStmt renders a statement.
func FormatStmt(s Stmt) string {
	w := &writer{}
	w.stmt(s)
	return strings.TrimRight(w.sb.String(), "\n")
}

// FormatExpr renders an expression on one line.
func FormatExpr(e Expr) string {
	w := &writer{}
	w.expr(e)
	return w.sb.String()
}

type writer struct {
	sb     strings.Builder
	indent int
}

func (w *writer) line(parts ...string) {
	w.sb.WriteString(strings.Repeat("    ", max(w.indent, 0)))
	for _, p := range parts {
		w.sb.WriteString(p)
	}
	w.sb.WriteByte('\n')
}

func (w *writer) nl() { w.sb.WriteByte('\n') }

func (w *writer) typeDecl(t *TypeDecl) {
	head := "class " + t.Name
	var bases []string
	if t.Base != "" {
		bases = append(bases, t.Base)
	}
	bases = append(bases, t.Interfaces...)
	if len(bases) > 0 {
		head += " : " + strings.Join(bases, ", ")
	}
	w.line(head)
	w.line("{")
	w.indent++
	for i, m := range t.Members {
		if i > 0 {
			w.nl()
		}
		w.member(m)
	}
	w.indent--
	w.line("}")
}

func prefix(mods Modifiers, typ string) string {
	words := mods.Words()
	if typ != "" {
		words = append(words, typ)
	}
	if len(words) == 0 {
		return ""
	}
	return strings.Join(words, " ") + " "
}

func (w *writer) member(m Member) {
	switch d := m.(type) {
	case *Method:
		result := d.Result
		if result == "" {
			result = "void"
		}
		params := make([]string, len(d.Params))
		for i, p := range d.Params {
			params[i] = p.Type + " " + p.Name
		}
		sig := prefix(d.Mods, result) + d.Name + "(" + strings.Join(params, ", ") + ")"
		if d.Body == nil {
			w.line(sig, ";")
			return
		}
		w.line(sig)
		w.block(d.Body)
	case *Property:
		head := prefix(d.Mods, d.Type) + d.Name
		if d.IsAuto() {
			var acc []string
			if d.Getter != nil {
				acc = append(acc, "get;")
			}
			if d.Setter != nil {
				acc = append(acc, "set;")
			}
			tail := ""
			if d.Init != nil {
				tail = " = " + FormatExpr(d.Init) + ";"
			}
			w.line(head, " { ", strings.Join(acc, " "), " }", tail)
			return
		}
		w.line(head)
		w.line("{")
		w.indent++
		w.accessor("get", d.Getter)
		w.accessor("set", d.Setter)
		w.indent--
		w.line("}")
	case *Event:
		head := prefix(d.Mods, "event "+d.Type) + d.Name
		if d.IsFieldLike() {
			w.line(head, ";")
			return
		}
		w.line(head)
		w.line("{")
		w.indent++
		w.accessor("add", d.Adder)
		w.accessor("remove", d.Remover)
		w.indent--
		w.line("}")
	case *Field:
		tail := ""
		if d.Init != nil {
			tail = " = " + FormatExpr(d.Init)
		}
		w.line(prefix(d.Mods, d.Type), d.Name, tail, ";")
	}
}

func (w *writer) accessor(kw string, a *Accessor) {
	if a == nil {
		return
	}
	if a.Body == nil {
		w.line(kw, ";")
		return
	}
	w.line(kw)
	w.block(a.Body)
}

func (w *writer) block(b *Block) {
	w.line("{")
	w.indent++
	for _, s := range b.Stmts {
		w.stmt(s)
	}
	w.indent--
	w.line("}")
}

func (w *writer) stmt(s Stmt) {
	switch n := s.(type) {
	case *Block:
		w.block(n)
	case *ExprStmt:
		w.line(FormatExpr(n.X), ";")
	case *Return:
		if n.X == nil {
			w.line("return;")
		} else {
			w.line("return ", FormatExpr(n.X), ";")
		}
	case *LocalDecl:
		if n.Init == nil {
			w.line(n.Type, " ", n.Name, ";")
		} else {
			w.line(n.Type, " ", n.Name, " = ", FormatExpr(n.Init), ";")
		}
	case *If:
		w.line("if (", FormatExpr(n.Cond), ")")
		w.nested(n.Then)
		if n.Else != nil {
			w.line("else")
			w.nested(n.Else)
		}
	case *While:
		w.line("while (", FormatExpr(n.Cond), ")")
		w.nested(n.Body)
	case *Goto:
		w.line("goto ", n.Label, ";")
	case *Labeled:
		w.indent--
		w.line(n.Label, ":")
		w.indent++
		if n.Stmt != nil {
			w.stmt(n.Stmt)
		}
	case *Empty:
		w.line(";")
	case *Throw:
		w.line("throw ", FormatExpr(n.X), ";")
	}
}

func (w *writer) nested(s Stmt) {
	if b, ok := s.(*Block); ok {
		w.block(b)
		return
	}
	w.indent++
	w.stmt(s)
	w.indent--
}

func (w *writer) expr(e Expr) {
	if r := MetaOf(e).Ref; r != nil {
		w.sb.WriteString("/*" + r.String() + "*/")
	}
	switch n := e.(type) {
	case *Ident:
		w.sb.WriteString(n.Name)
	case *Literal:
		switch n.Kind {
		case LitString:
			w.sb.WriteString(strconv.Quote(n.Value))
		case LitNull:
			w.sb.WriteString("null")
		default:
			w.sb.WriteString(n.Value)
		}
	case *This:
		w.sb.WriteString("this")
	case *BaseRef:
		w.sb.WriteString("base")
	case *Selector:
		w.operand(n.X)
		w.sb.WriteString("." + n.Name)
	case *Call:
		w.operand(n.Fun)
		w.sb.WriteByte('(')
		for i, a := range n.Args {
			if i > 0 {
				w.sb.WriteString(", ")
			}
			w.expr(a)
		}
		w.sb.WriteByte(')')
	case *Binary:
		w.operand(n.X)
		w.sb.WriteString(" " + n.Op + " ")
		w.operand(n.Y)
	case *Unary:
		w.sb.WriteString(n.Op)
		w.operand(n.X)
	case *Cast:
		w.sb.WriteString("(" + n.Type + ")")
		w.operand(n.X)
	case *Assign:
		w.expr(n.L)
		w.sb.WriteString(" " + n.Op + " ")
		w.expr(n.R)
	}
}

// operand parenthesizes compound sub-expressions.
func (w *writer) operand(e Expr) {
	switch e.(type) {
	case *Binary, *Assign, *Cast, *Unary:
		w.sb.WriteByte('(')
		w.expr(e)
		w.sb.WriteByte(')')
	default:
		w.expr(e)
	}
}
