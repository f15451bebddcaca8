package ast

import "strconv"

// Id returns an identifier expression.
func Id(name string) *Ident { return &Ident{Name: name} }

// ThisDot returns `this.name`.
func ThisDot(name string) *Selector { return &Selector{X: &This{}, Name: name} }

// BaseDot returns `base.name`.
func BaseDot(name string) *Selector { return &Selector{X: &BaseRef{}, Name: name} }

// Int returns an integer literal.
func Int(v int64) *Literal { return &Literal{Kind: LitInt, Value: strconv.FormatInt(v, 10)} }

// Str returns a string literal.
func Str(v string) *Literal { return &Literal{Kind: LitString, Value: v} }

// Bool returns a boolean literal.
func Bool(v bool) *Literal { return &Literal{Kind: LitBool, Value: strconv.FormatBool(v)} }

// Null returns the null literal.
func Null() *Literal { return &Literal{Kind: LitNull, Value: "null"} }

// CallOf returns fun(args...).
func CallOf(fun Expr, args ...Expr) *Call { return &Call{Fun: fun, Args: args} }

// ParamRefs returns identifiers for params, in order.
func ParamRefs(params []Param) []Expr {
	out := make([]Expr, len(params))
	for i, p := range params {
		out[i] = Id(p.Name)
	}
	return out
}

// Stmts wraps statements in a block.
func Stmts(s ...Stmt) *Block { return &Block{Stmts: s} }
