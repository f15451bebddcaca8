package interp

import (
	"fmt"
	"strconv"

	"github.com/wippyai/aspect-linker/ast"
	"github.com/wippyai/aspect-linker/errors"
)

func (f *frame) eval(e ast.Expr) (Value, error) {
	switch n := e.(type) {
	case *ast.Literal:
		return literal(n)
	case *ast.Ident:
		if v, ok := f.env.get(n.Name); ok {
			return v, nil
		}
		if _, m := f.c.find(f.typ, n.Name, notMethod); m != nil {
			return f.c.read(f.self, f.typ, n.Name, false)
		}
		return Null, f.fail("undefined name %s", n.Name)
	case *ast.This:
		if f.self.Kind != KindObject {
			return Null, f.fail("this used in a static member")
		}
		return f.self, nil
	case *ast.BaseRef:
		return Null, f.fail("base used without member access")
	case *ast.Selector:
		recv, static, nonVirtual, err := f.receiver(n.X)
		if err != nil {
			return Null, err
		}
		return f.c.read(recv, static, n.Name, nonVirtual)
	case *ast.Call:
		return f.call(n)
	case *ast.Binary:
		return f.binary(n)
	case *ast.Unary:
		x, err := f.eval(n.X)
		if err != nil {
			return Null, err
		}
		switch n.Op {
		case "!":
			if b, ok := x.AsBool(); ok {
				return Bool(!b), nil
			}
		case "-":
			if i, ok := x.AsInt(); ok {
				return Int(-i), nil
			}
		}
		return Null, f.fail("operator %s not defined on %s", n.Op, x.Kind)
	case *ast.Cast:
		x, err := f.eval(n.X)
		if err != nil || n.Type != "string" {
			return x, err
		}
		return Str(x.display()), nil
	case *ast.Assign:
		return f.assign(n)
	}
	return Null, errors.UnhandledKind(errors.PhaseEval, f.name, fmt.Sprintf("%T", e))
}

func literal(l *ast.Literal) (Value, error) {
	switch l.Kind {
	case ast.LitInt:
		n, err := strconv.ParseInt(l.Value, 10, 64)
		if err != nil {
			return Null, errors.New(errors.PhaseEval, errors.KindRuntime).Cause(err).Detail("invalid integer %q", l.Value).Build()
		}
		return Int(n), nil
	case ast.LitBool:
		return Bool(l.Value == "true"), nil
	case ast.LitString:
		return Str(l.Value), nil
	}
	return Null, nil
}

// receiver evaluates the left side of a member access: the receiver value,
// the type member lookup starts from, and whether dispatch is suppressed.
func (f *frame) receiver(x ast.Expr) (Value, *ast.TypeDecl, bool, error) {
	switch n := x.(type) {
	case *ast.This:
		if f.self.Kind != KindObject {
			return Null, nil, false, f.fail("this used in a static member")
		}
		return f.self, f.typ, false, nil
	case *ast.BaseRef:
		base := f.c.r.program.Type(f.typ.Base)
		if base == nil {
			return Null, nil, false, f.fail("type %s has no base type", f.typ.Name)
		}
		return f.self, base, true, nil
	case *ast.Ident:
		if _, ok := f.env.get(n.Name); !ok {
			if _, m := f.c.find(f.typ, n.Name, notMethod); m == nil {
				if t := f.c.r.program.Type(n.Name); t != nil {
					return Null, t, false, nil
				}
			}
		}
	}
	v, err := f.eval(x)
	if err != nil {
		return Null, nil, false, err
	}
	o, ok := v.AsObject()
	if !ok {
		return Null, nil, false, f.fail("member access on %s", v.Kind)
	}
	return v, o.Type, false, nil
}

func (f *frame) args(es []ast.Expr) ([]Value, error) {
	out := make([]Value, len(es))
	for i, e := range es {
		v, err := f.eval(e)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (f *frame) call(n *ast.Call) (Value, error) {
	switch fun := n.Fun.(type) {
	case *ast.Selector:
		recv, static, nonVirtual, err := f.receiver(fun.X)
		if err != nil {
			return Null, err
		}
		args, err := f.args(n.Args)
		if err != nil {
			return Null, err
		}
		if _, m := f.c.find(static, fun.Name, isMethod); m != nil {
			return f.c.invoke(recv, static, fun.Name, args, nonVirtual)
		}
		hs, err := f.c.read(recv, static, fun.Name, nonVirtual)
		if err != nil {
			return Null, err
		}
		return f.c.raise(hs, args)

	case *ast.Ident:
		args, err := f.args(n.Args)
		if err != nil {
			return Null, err
		}
		if v, ok := f.env.get(fun.Name); ok {
			return f.c.raise(v, args)
		}
		if _, m := f.c.find(f.typ, fun.Name, isMethod); m != nil {
			return f.c.invoke(f.self, f.typ, fun.Name, args, false)
		}
		if _, m := f.c.find(f.typ, fun.Name, notMethod); m != nil {
			hs, err := f.c.read(f.self, f.typ, fun.Name, false)
			if err != nil {
				return Null, err
			}
			return f.c.raise(hs, args)
		}
		return f.c.builtin(fun.Name, args)
	}
	return Null, f.fail("call of %s", ast.FormatExpr(n.Fun))
}

func (f *frame) binary(n *ast.Binary) (Value, error) {
	x, err := f.eval(n.X)
	if err != nil {
		return Null, err
	}
	switch n.Op {
	case "&&", "||":
		l, ok := x.AsBool()
		if !ok {
			return Null, f.fail("operator %s not defined on %s", n.Op, x.Kind)
		}
		if l == (n.Op == "||") {
			return Bool(l), nil
		}
		y, err := f.eval(n.Y)
		if err != nil {
			return Null, err
		}
		if r, ok := y.AsBool(); ok {
			return Bool(r), nil
		}
		return Null, f.fail("operator %s not defined on %s", n.Op, y.Kind)
	}
	y, err := f.eval(n.Y)
	if err != nil {
		return Null, err
	}
	v, err := arith(n.Op, x, y)
	if err != nil {
		return Null, f.fail("%v", err)
	}
	return v, nil
}

// arith applies a binary operator. Handler lists support + and - for
// subscription; null is the empty list.
func arith(op string, x, y Value) (Value, error) {
	switch op {
	case "==":
		return Bool(Equal(x, y)), nil
	case "!=":
		return Bool(!Equal(x, y)), nil
	}
	if x.Kind == KindHandlers || (x.Kind == KindNull && y.Kind != KindInt && y.Kind != KindNull) {
		switch op {
		case "+":
			hs := append(append([]Value(nil), x.handlers()...), y)
			return handlers(hs), nil
		case "-":
			hs := append([]Value(nil), x.handlers()...)
			for i := len(hs) - 1; i >= 0; i-- {
				if Equal(hs[i], y) {
					hs = append(hs[:i], hs[i+1:]...)
					break
				}
			}
			return handlers(hs), nil
		}
	}
	if op == "+" && (x.Kind == KindString || y.Kind == KindString) {
		return Str(x.display() + y.display()), nil
	}
	a, aok := x.AsInt()
	b, bok := y.AsInt()
	if !aok || !bok {
		return Null, fmt.Errorf("operator %s not defined on %s and %s", op, x.Kind, y.Kind)
	}
	switch op {
	case "+":
		return Int(a + b), nil
	case "-":
		return Int(a - b), nil
	case "*":
		return Int(a * b), nil
	case "/", "%":
		if b == 0 {
			return Null, fmt.Errorf("division by zero")
		}
		if op == "/" {
			return Int(a / b), nil
		}
		return Int(a % b), nil
	case "<":
		return Bool(a < b), nil
	case ">":
		return Bool(a > b), nil
	case "<=":
		return Bool(a <= b), nil
	case ">=":
		return Bool(a >= b), nil
	}
	return Null, fmt.Errorf("unknown operator %s", op)
}

func (f *frame) assign(n *ast.Assign) (Value, error) {
	v, err := f.eval(n.R)
	if err != nil {
		return Null, err
	}
	switch l := n.L.(type) {
	case *ast.Ident:
		if cur, ok := f.env.get(l.Name); ok {
			if n.Op != "=" {
				if v, err = arith(n.Op[:1], cur, v); err != nil {
					return Null, f.fail("%v", err)
				}
			}
			f.env.set(l.Name, v)
			return v, nil
		}
		if n.Op == "=" {
			return v, f.c.write(f.self, f.typ, l.Name, v, false)
		}
		return Null, f.c.compound(f.self, f.typ, l.Name, n.Op, v, false)
	case *ast.Selector:
		recv, static, nonVirtual, err := f.receiver(l.X)
		if err != nil {
			return Null, err
		}
		if n.Op == "=" {
			return v, f.c.write(recv, static, l.Name, v, nonVirtual)
		}
		return Null, f.c.compound(recv, static, l.Name, n.Op, v, nonVirtual)
	}
	return Null, f.fail("cannot assign to %s", ast.FormatExpr(n.L))
}
