package parser

import (
	"fmt"
	"strconv"

	"github.com/wippyai/aspect-linker/ast"
	"github.com/wippyai/aspect-linker/errors"
	"github.com/wippyai/aspect-linker/source/internal/token"
)

type Parser struct {
	tokens []token.Token
	pos    int
}

func New(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens}
}

func (p *Parser) peek() *token.Token {
	if p.pos >= len(p.tokens) {
		return nil
	}
	return &p.tokens[p.pos]
}

// peekHead returns the keyword following a '(' without consuming it.
func (p *Parser) peekHead() string {
	if p.pos+1 >= len(p.tokens) || p.tokens[p.pos].Type != token.LParen {
		return ""
	}
	if t := p.tokens[p.pos+1]; t.Type == token.Ident {
		return t.Value
	}
	return ""
}

func (p *Parser) next() *token.Token {
	if p.pos >= len(p.tokens) {
		return nil
	}
	t := &p.tokens[p.pos]
	p.pos++
	return t
}

func (p *Parser) line() int {
	if t := p.peek(); t != nil {
		return t.Line
	}
	if len(p.tokens) > 0 {
		return p.tokens[len(p.tokens)-1].Line
	}
	return 1
}

func (p *Parser) fail(format string, args ...any) error {
	return errors.Syntax(p.line(), fmt.Sprintf(format, args...))
}

func (p *Parser) expect(typ token.Type) (*token.Token, error) {
	t := p.next()
	if t == nil {
		return nil, errors.Syntax(p.line(), "unexpected end of input")
	}
	if t.Type != typ {
		return nil, errors.Syntax(t.Line, fmt.Sprintf("expected %v, got %q", typ, t.Value))
	}
	return t, nil
}

func (p *Parser) expectKeyword(kw string) error {
	t, err := p.expect(token.Ident)
	if err != nil {
		return err
	}
	if t.Value != kw {
		return errors.Syntax(t.Line, fmt.Sprintf("expected %q, got %q", kw, t.Value))
	}
	return nil
}

// name accepts an identifier or a string.
func (p *Parser) name() (string, error) {
	t := p.next()
	if t == nil {
		return "", errors.Syntax(p.line(), "unexpected end of input")
	}
	if t.Type != token.Ident && t.Type != token.String {
		return "", errors.Syntax(t.Line, fmt.Sprintf("expected name, got %q", t.Value))
	}
	return t.Value, nil
}

func (p *Parser) atClose() bool {
	t := p.peek()
	return t == nil || t.Type == token.RParen
}

// Done reports whether all tokens were consumed.
func (p *Parser) Done() error {
	if t := p.peek(); t != nil {
		return errors.Syntax(t.Line, fmt.Sprintf("unexpected trailing %q", t.Value))
	}
	return nil
}

// ParseProgram parses `(program TYPE*)`.
func (p *Parser) ParseProgram() (*ast.Program, error) {
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("program"); err != nil {
		return nil, err
	}
	prog := &ast.Program{}
	for !p.atClose() {
		t, err := p.ParseType()
		if err != nil {
			return nil, err
		}
		if prog.Type(t.Name) != nil {
			return nil, p.fail("duplicate type %s", t.Name)
		}
		prog.Types = append(prog.Types, t)
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	return prog, nil
}

// ParseType parses `(type NAME (base B)? (implements I*)? MEMBER*)`.
func (p *Parser) ParseType() (*ast.TypeDecl, error) {
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("type"); err != nil {
		return nil, err
	}
	name, err := p.name()
	if err != nil {
		return nil, err
	}
	t := &ast.TypeDecl{Name: name}
	for !p.atClose() {
		switch p.peekHead() {
		case "base":
			p.pos += 2
			if t.Base, err = p.name(); err != nil {
				return nil, err
			}
			if _, err := p.expect(token.RParen); err != nil {
				return nil, err
			}
		case "implements":
			p.pos += 2
			for !p.atClose() {
				iface, err := p.name()
				if err != nil {
					return nil, err
				}
				t.Interfaces = append(t.Interfaces, iface)
			}
			if _, err := p.expect(token.RParen); err != nil {
				return nil, err
			}
		default:
			m, err := p.ParseMember()
			if err != nil {
				return nil, err
			}
			t.Members = append(t.Members, m)
		}
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	return t, nil
}

// ParseMember parses a method, property, event or field declaration.
func (p *Parser) ParseMember() (ast.Member, error) {
	head := p.peekHead()
	if head == "" {
		return nil, p.fail("expected member declaration")
	}
	p.pos += 2
	name, err := p.name()
	if err != nil {
		return nil, err
	}
	var m ast.Member
	switch head {
	case "method":
		m, err = p.parseMethod(name)
	case "property":
		m, err = p.parseProperty(name)
	case "event":
		m, err = p.parseEvent(name)
	case "field":
		m, err = p.parseField(name)
	default:
		return nil, p.fail("unknown member kind %q", head)
	}
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	return m, nil
}

// modifiers consumes bare modifier keywords.
func (p *Parser) modifiers() ast.Modifiers {
	var mods ast.Modifiers
	for {
		t := p.peek()
		if t == nil || t.Type != token.Ident {
			return mods
		}
		mod, ok := ast.ParseModifier(t.Value)
		if !ok {
			return mods
		}
		mods |= mod
		p.pos++
	}
}

func (p *Parser) parseMethod(name string) (*ast.Method, error) {
	m := &ast.Method{Name: name, Mods: p.modifiers()}
	for !p.atClose() {
		switch head := p.peekHead(); head {
		case "param":
			p.pos += 2
			pn, err := p.name()
			if err != nil {
				return nil, err
			}
			pt, err := p.name()
			if err != nil {
				return nil, err
			}
			m.Params = append(m.Params, ast.Param{Name: pn, Type: pt})
			if _, err := p.expect(token.RParen); err != nil {
				return nil, err
			}
		case "result":
			p.pos += 2
			r, err := p.name()
			if err != nil {
				return nil, err
			}
			m.Result = r
			if _, err := p.expect(token.RParen); err != nil {
				return nil, err
			}
		case "body":
			p.pos += 2
			b, err := p.stmtsUntilClose()
			if err != nil {
				return nil, err
			}
			m.Body = b
		default:
			return nil, p.fail("unexpected %q in method %s", head, name)
		}
	}
	return m, nil
}

func (p *Parser) parseProperty(name string) (*ast.Property, error) {
	prop := &ast.Property{Name: name, Mods: p.modifiers()}
	for !p.atClose() {
		switch head := p.peekHead(); head {
		case "type":
			typ, err := p.typeClause()
			if err != nil {
				return nil, err
			}
			prop.Type = typ
		case "get", "set":
			acc, err := p.accessor()
			if err != nil {
				return nil, err
			}
			if head == "get" {
				acc.Kind = ast.AccessorGet
				prop.Getter = acc
			} else {
				acc.Kind = ast.AccessorSet
				prop.Setter = acc
			}
		case "init":
			p.pos += 2
			e, err := p.ParseExpr()
			if err != nil {
				return nil, err
			}
			prop.Init = e
			if _, err := p.expect(token.RParen); err != nil {
				return nil, err
			}
		default:
			return nil, p.fail("unexpected %q in property %s", head, name)
		}
	}
	return prop, nil
}

func (p *Parser) parseEvent(name string) (*ast.Event, error) {
	ev := &ast.Event{Name: name, Mods: p.modifiers()}
	for !p.atClose() {
		switch head := p.peekHead(); head {
		case "type":
			typ, err := p.typeClause()
			if err != nil {
				return nil, err
			}
			ev.Type = typ
		case "add", "remove":
			acc, err := p.accessor()
			if err != nil {
				return nil, err
			}
			if head == "add" {
				acc.Kind = ast.AccessorAdd
				ev.Adder = acc
			} else {
				acc.Kind = ast.AccessorRemove
				ev.Remover = acc
			}
		default:
			return nil, p.fail("unexpected %q in event %s", head, name)
		}
	}
	if ev.Adder == nil && ev.Remover == nil {
		ev.Adder = &ast.Accessor{Kind: ast.AccessorAdd}
		ev.Remover = &ast.Accessor{Kind: ast.AccessorRemove}
	}
	return ev, nil
}

func (p *Parser) parseField(name string) (*ast.Field, error) {
	f := &ast.Field{Name: name, Mods: p.modifiers()}
	for !p.atClose() {
		switch head := p.peekHead(); head {
		case "type":
			typ, err := p.typeClause()
			if err != nil {
				return nil, err
			}
			f.Type = typ
		case "init":
			p.pos += 2
			e, err := p.ParseExpr()
			if err != nil {
				return nil, err
			}
			f.Init = e
			if _, err := p.expect(token.RParen); err != nil {
				return nil, err
			}
		default:
			return nil, p.fail("unexpected %q in field %s", head, name)
		}
	}
	return f, nil
}

func (p *Parser) typeClause() (string, error) {
	p.pos += 2
	typ, err := p.name()
	if err != nil {
		return "", err
	}
	if _, err := p.expect(token.RParen); err != nil {
		return "", err
	}
	return typ, nil
}

// accessor parses `(get STMT*)`; an empty accessor is auto-implemented.
func (p *Parser) accessor() (*ast.Accessor, error) {
	p.pos += 2
	if p.atClose() {
		p.pos++
		return &ast.Accessor{}, nil
	}
	b, err := p.stmtsUntilClose()
	if err != nil {
		return nil, err
	}
	return &ast.Accessor{Body: b}, nil
}

// stmtsUntilClose parses statements up to and including the closing paren.
func (p *Parser) stmtsUntilClose() (*ast.Block, error) {
	b := &ast.Block{}
	for !p.atClose() {
		s, err := p.ParseStmt()
		if err != nil {
			return nil, err
		}
		b.Stmts = append(b.Stmts, s)
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	return b, nil
}

// ParseStatements parses statements until the input ends.
func (p *Parser) ParseStatements() (*ast.Block, error) {
	b := &ast.Block{}
	for p.peek() != nil {
		s, err := p.ParseStmt()
		if err != nil {
			return nil, err
		}
		b.Stmts = append(b.Stmts, s)
	}
	return b, nil
}

// ParseStmt parses a statement. Any form that is not a statement keyword is
// parsed as an expression statement.
func (p *Parser) ParseStmt() (ast.Stmt, error) {
	head := p.peekHead()
	switch head {
	case "block":
		p.pos += 2
		return p.stmtsUntilClose()
	case "expr":
		p.pos += 2
		e, err := p.ParseExpr()
		if err != nil {
			return nil, err
		}
		return p.closeWith(&ast.ExprStmt{X: e})
	case "return":
		p.pos += 2
		r := &ast.Return{}
		if !p.atClose() {
			e, err := p.ParseExpr()
			if err != nil {
				return nil, err
			}
			r.X = e
		}
		return p.closeWith(r)
	case "local":
		p.pos += 2
		name, err := p.name()
		if err != nil {
			return nil, err
		}
		typ, err := p.name()
		if err != nil {
			return nil, err
		}
		d := &ast.LocalDecl{Name: name, Type: typ}
		if !p.atClose() {
			if d.Init, err = p.ParseExpr(); err != nil {
				return nil, err
			}
		}
		return p.closeWith(d)
	case "if":
		p.pos += 2
		cond, err := p.ParseExpr()
		if err != nil {
			return nil, err
		}
		then, err := p.ParseStmt()
		if err != nil {
			return nil, err
		}
		n := &ast.If{Cond: cond, Then: then}
		if !p.atClose() {
			if n.Else, err = p.ParseStmt(); err != nil {
				return nil, err
			}
		}
		return p.closeWith(n)
	case "while":
		p.pos += 2
		cond, err := p.ParseExpr()
		if err != nil {
			return nil, err
		}
		body, err := p.ParseStmt()
		if err != nil {
			return nil, err
		}
		return p.closeWith(&ast.While{Cond: cond, Body: body})
	case "goto":
		p.pos += 2
		l, err := p.name()
		if err != nil {
			return nil, err
		}
		return p.closeWith(&ast.Goto{Label: l})
	case "label":
		p.pos += 2
		l, err := p.name()
		if err != nil {
			return nil, err
		}
		n := &ast.Labeled{Label: l}
		if p.atClose() {
			n.Stmt = &ast.Empty{}
		} else if n.Stmt, err = p.ParseStmt(); err != nil {
			return nil, err
		}
		return p.closeWith(n)
	case "throw":
		p.pos += 2
		e, err := p.ParseExpr()
		if err != nil {
			return nil, err
		}
		return p.closeWith(&ast.Throw{X: e})
	case "empty":
		p.pos += 2
		return p.closeWith(&ast.Empty{})
	}
	e, err := p.ParseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.ExprStmt{X: e}, nil
}

func (p *Parser) closeWith(s ast.Stmt) (ast.Stmt, error) {
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	return s, nil
}

var binaryOps = map[string]bool{
	"+": true, "-": true, "*": true, "/": true, "%": true,
	"<": true, ">": true, "<=": true, ">=": true, "==": true, "!=": true,
	"&&": true, "||": true,
}

// ParseExpr parses an expression.
func (p *Parser) ParseExpr() (ast.Expr, error) {
	t := p.next()
	if t == nil {
		return nil, errors.Syntax(p.line(), "unexpected end of input, expected expression")
	}
	switch t.Type {
	case token.Number:
		if _, err := strconv.ParseInt(t.Value, 10, 64); err != nil {
			return nil, errors.Syntax(t.Line, fmt.Sprintf("invalid integer %q", t.Value))
		}
		return &ast.Literal{Kind: ast.LitInt, Value: t.Value}, nil
	case token.String:
		return ast.Str(t.Value), nil
	case token.Ident:
		switch t.Value {
		case "this":
			return &ast.This{}, nil
		case "base":
			return &ast.BaseRef{}, nil
		case "null":
			return ast.Null(), nil
		case "true", "false":
			return &ast.Literal{Kind: ast.LitBool, Value: t.Value}, nil
		}
		return ast.Id(t.Value), nil
	case token.RParen:
		return nil, errors.Syntax(t.Line, "unexpected ')', expected expression")
	}

	head, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	var e ast.Expr
	switch op := head.Value; {
	case op == "call":
		fun, err := p.ParseExpr()
		if err != nil {
			return nil, err
		}
		c := &ast.Call{Fun: fun}
		for !p.atClose() {
			a, err := p.ParseExpr()
			if err != nil {
				return nil, err
			}
			c.Args = append(c.Args, a)
		}
		e = c
	case op == ".":
		x, err := p.ParseExpr()
		if err != nil {
			return nil, err
		}
		n, err := p.name()
		if err != nil {
			return nil, err
		}
		e = &ast.Selector{X: x, Name: n}
	case op == "cast":
		typ, err := p.name()
		if err != nil {
			return nil, err
		}
		x, err := p.ParseExpr()
		if err != nil {
			return nil, err
		}
		e = &ast.Cast{Type: typ, X: x}
	case op == "=" || op == "+=" || op == "-=":
		l, r, err := p.pair()
		if err != nil {
			return nil, err
		}
		e = &ast.Assign{Op: op, L: l, R: r}
	case binaryOps[op]:
		l, r, err := p.pair()
		if err != nil {
			return nil, err
		}
		e = &ast.Binary{Op: op, X: l, Y: r}
	case op == "!" || op == "neg":
		x, err := p.ParseExpr()
		if err != nil {
			return nil, err
		}
		sym := op
		if op == "neg" {
			sym = "-"
		}
		e = &ast.Unary{Op: sym, X: x}
	case op == "ref":
		return p.parseRef()
	default:
		return nil, errors.Syntax(head.Line, fmt.Sprintf("unknown expression form %q", op))
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	return e, nil
}

func (p *Parser) pair() (ast.Expr, ast.Expr, error) {
	l, err := p.ParseExpr()
	if err != nil {
		return nil, nil, err
	}
	r, err := p.ParseExpr()
	if err != nil {
		return nil, nil, err
	}
	return l, r, nil
}

// parseRef parses `(ref LAYER ORDER [ACCESSOR] EXPR)` after the head and
// attaches a placeholder to EXPR.
func (p *Parser) parseRef() (ast.Expr, error) {
	layer, err := p.name()
	if err != nil {
		return nil, err
	}
	ot, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	order, ok := ast.ParseOrder(ot.Value)
	if !ok {
		return nil, errors.Syntax(ot.Line, fmt.Sprintf("unknown order %q", ot.Value))
	}
	ref := &ast.AspectRef{Layer: ast.LayerID(layer), Order: order}
	if t := p.peek(); t != nil && t.Type == token.Ident && p.pos+1 < len(p.tokens) && p.tokens[p.pos+1].Type != token.RParen {
		if kind, ok := ast.ParseAccessorKind(t.Value); ok {
			p.pos++
			ref.Accessor = kind
		}
	}
	e, err := p.ParseExpr()
	if err != nil {
		return nil, err
	}
	ast.MetaOf(e).Ref = ref
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	return e, nil
}
