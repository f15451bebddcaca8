package interp

import (
	"context"
	"fmt"

	"github.com/wippyai/aspect-linker/ast"
	"github.com/wippyai/aspect-linker/errors"
)

const maxDepth = 4096

// call is the state of one top-level invocation.
type call struct {
	r     *Runtime
	ctx   context.Context
	steps int
	depth int
}

func (r *Runtime) call(ctx context.Context) *call {
	if ctx == nil {
		ctx = context.Background()
	}
	return &call{r: r, ctx: ctx}
}

func (c *call) step() error {
	c.steps++
	if c.steps > c.r.maxSteps {
		return errors.New(errors.PhaseEval, errors.KindRuntime).Detail("step limit %d exceeded", c.r.maxSteps).Build()
	}
	if c.steps%1024 == 0 {
		if err := c.ctx.Err(); err != nil {
			return errors.Wrap(errors.PhaseEval, errors.KindCanceled, err, "evaluation canceled")
		}
	}
	return nil
}

// env is a lexical scope.
type env struct {
	parent *env
	vars   map[string]Value
}

func newEnv(parent *env) *env { return &env{parent: parent, vars: make(map[string]Value)} }

func (e *env) define(name string, v Value) { e.vars[name] = v }

func (e *env) get(name string) (Value, bool) {
	for s := e; s != nil; s = s.parent {
		if v, ok := s.vars[name]; ok {
			return v, true
		}
	}
	return Null, false
}

func (e *env) set(name string, v Value) bool {
	for s := e; s != nil; s = s.parent {
		if _, ok := s.vars[name]; ok {
			s.vars[name] = v
			return true
		}
	}
	return false
}

// frame runs one body.
type frame struct {
	c    *call
	self Value
	typ  *ast.TypeDecl
	name string
	env  *env
}

type ctlKind uint8

const (
	ctlNone ctlKind = iota
	ctlReturn
	ctlGoto
)

type control struct {
	value Value
	label string
	kind  ctlKind
}

// run executes body as member name of t with params bound to args.
func (c *call) run(self Value, t *ast.TypeDecl, name string, body *ast.Block, params []ast.Param, args []Value) (Value, error) {
	if err := c.step(); err != nil {
		return Null, err
	}
	if len(args) != len(params) {
		return Null, errors.New(errors.PhaseEval, errors.KindRuntime).Decl(name).
			Detail("expected %d arguments, got %d", len(params), len(args)).Build()
	}
	c.depth++
	defer func() { c.depth-- }()
	if c.depth > maxDepth {
		return Null, errors.New(errors.PhaseEval, errors.KindRuntime).Decl(name).Detail("call depth exceeded").Build()
	}

	f := &frame{c: c, self: self, typ: t, name: name, env: newEnv(nil)}
	for i, p := range params {
		f.env.define(p.Name, args[i])
	}
	if body == nil {
		return Null, f.fail("member has no body")
	}
	ctl, err := f.block(body)
	if err != nil {
		return Null, err
	}
	if ctl.kind == ctlGoto {
		return Null, f.fail("label %s not found", ctl.label)
	}
	return ctl.value, nil
}

func (f *frame) fail(format string, args ...any) error {
	return errors.New(errors.PhaseEval, errors.KindRuntime).Decl(f.name).Detail(format, args...).Build()
}

func (f *frame) block(b *ast.Block) (control, error) {
	saved := f.env
	f.env = newEnv(saved)
	defer func() { f.env = saved }()

	for i := 0; i < len(b.Stmts); {
		ctl, err := f.stmt(b.Stmts[i])
		if err != nil {
			return control{}, err
		}
		switch ctl.kind {
		case ctlNone:
			i++
		case ctlGoto:
			j := labelIndex(b, ctl.label)
			if j < 0 {
				return ctl, nil
			}
			i = j
		default:
			return ctl, nil
		}
	}
	return control{}, nil
}

func labelIndex(b *ast.Block, label string) int {
	for i, s := range b.Stmts {
		if l, ok := s.(*ast.Labeled); ok && l.Label == label {
			return i
		}
	}
	return -1
}

func (f *frame) stmt(s ast.Stmt) (control, error) {
	if err := f.c.step(); err != nil {
		return control{}, err
	}
	switch n := s.(type) {
	case *ast.Block:
		return f.block(n)
	case *ast.ExprStmt:
		_, err := f.eval(n.X)
		return control{}, err
	case *ast.Return:
		if n.X == nil {
			return control{kind: ctlReturn}, nil
		}
		v, err := f.eval(n.X)
		return control{kind: ctlReturn, value: v}, err
	case *ast.LocalDecl:
		v := zero(n.Type)
		if n.Init != nil {
			var err error
			if v, err = f.eval(n.Init); err != nil {
				return control{}, err
			}
		}
		f.env.define(n.Name, v)
		return control{}, nil
	case *ast.If:
		cond, err := f.cond(n.Cond)
		if err != nil {
			return control{}, err
		}
		if cond {
			return f.stmt(n.Then)
		}
		if n.Else != nil {
			return f.stmt(n.Else)
		}
		return control{}, nil
	case *ast.While:
		for {
			cond, err := f.cond(n.Cond)
			if err != nil || !cond {
				return control{}, err
			}
			ctl, err := f.stmt(n.Body)
			if err != nil || ctl.kind != ctlNone {
				return ctl, err
			}
		}
	case *ast.Goto:
		return control{kind: ctlGoto, label: n.Label}, nil
	case *ast.Labeled:
		if n.Stmt == nil {
			return control{}, nil
		}
		return f.stmt(n.Stmt)
	case *ast.Empty:
		return control{}, nil
	case *ast.Throw:
		v, err := f.eval(n.X)
		if err != nil {
			return control{}, err
		}
		return control{}, f.fail("thrown %s", v.display())
	}
	return control{}, errors.UnhandledKind(errors.PhaseEval, f.name, fmt.Sprintf("%T", s))
}

func (f *frame) cond(e ast.Expr) (bool, error) {
	v, err := f.eval(e)
	if err != nil {
		return false, err
	}
	b, ok := v.AsBool()
	if !ok {
		return false, f.fail("condition is %s, not bool", v.Kind)
	}
	return b, nil
}
