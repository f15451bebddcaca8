package interp

import (
	"github.com/wippyai/aspect-linker/ast"
	"github.com/wippyai/aspect-linker/errors"
)

func isMethod(m ast.Member) bool { return m.Kind() == ast.KindMethod }

func notMethod(m ast.Member) bool { return m.Kind() != ast.KindMethod }

func withArity(n int) func(ast.Member) bool {
	return func(m ast.Member) bool {
		meth, ok := m.(*ast.Method)
		return ok && len(meth.Params) == n
	}
}

// chain returns t followed by its base types.
func (c *call) chain(t *ast.TypeDecl) []*ast.TypeDecl {
	return append([]*ast.TypeDecl{t}, c.r.program.Ancestors(t)...)
}

// find returns the first member named name visible from t, nearest type
// first.
func (c *call) find(t *ast.TypeDecl, name string, match func(ast.Member) bool) (*ast.TypeDecl, ast.Member) {
	if t == nil {
		return nil, nil
	}
	for _, cur := range c.chain(t) {
		for _, m := range cur.Members {
			if m.MemberName() == name && match(m) {
				return cur, m
			}
		}
	}
	return nil, nil
}

// dispatch replaces a virtual member by the override closest to the
// receiver's runtime type.
func (c *call) dispatch(recv Value, decl *ast.TypeDecl, m ast.Member, match func(ast.Member) bool, nonVirtual bool) (*ast.TypeDecl, ast.Member) {
	mods := m.Modifiers()
	if nonVirtual || mods.Has(ast.ModStatic) || !(mods.Has(ast.ModVirtual) || mods.Has(ast.ModAbstract) || mods.Has(ast.ModOverride)) {
		return decl, m
	}
	o, ok := recv.AsObject()
	if !ok {
		return decl, m
	}
	for _, t := range c.chain(o.Type) {
		if t == decl {
			break
		}
		for _, cand := range t.Members {
			if cand.MemberName() == m.MemberName() && cand.Kind() == m.Kind() && match(cand) && cand.Modifiers().Has(ast.ModOverride) {
				return t, cand
			}
		}
	}
	return decl, m
}

// receiverFor returns the receiver a member runs with.
func receiverFor(recv Value, m ast.Member) Value {
	if m.Modifiers().Has(ast.ModStatic) {
		return Null
	}
	return recv
}

func memberName(t *ast.TypeDecl, m ast.Member) string {
	return t.Name + "." + m.MemberName()
}

func (c *call) invoke(recv Value, static *ast.TypeDecl, name string, args []Value, nonVirtual bool) (Value, error) {
	match := withArity(len(args))
	decl, m := c.find(static, name, match)
	if m == nil {
		return Null, errors.NotFound(errors.PhaseEval, "method "+static.Name+"."+name)
	}
	decl, m = c.dispatch(recv, decl, m, match, nonVirtual)
	meth := m.(*ast.Method)
	self := receiverFor(recv, m)
	if self.Kind == KindNull && !meth.Mods.Has(ast.ModStatic) {
		return Null, errors.New(errors.PhaseEval, errors.KindRuntime).Decl(memberName(decl, m)).Detail("instance method called without receiver").Build()
	}
	return c.run(self, decl, memberName(decl, m), meth.Body, meth.Params, args)
}

// slot returns the storage map of a member declared by t.
func (c *call) slot(recv Value, t *ast.TypeDecl, m ast.Member) (map[string]Value, error) {
	if m.Modifiers().Has(ast.ModStatic) {
		return c.r.statics, nil
	}
	o, ok := recv.AsObject()
	if !ok {
		return nil, errors.New(errors.PhaseEval, errors.KindRuntime).Decl(memberName(t, m)).Detail("instance member used without receiver").Build()
	}
	return o.slots, nil
}

func (c *call) read(recv Value, static *ast.TypeDecl, name string, nonVirtual bool) (Value, error) {
	decl, m := c.find(static, name, notMethod)
	if m == nil {
		return Null, errors.NotFound(errors.PhaseEval, "member "+static.Name+"."+name)
	}
	decl, m = c.dispatch(recv, decl, m, notMethod, nonVirtual)
	if p, ok := m.(*ast.Property); ok && !p.IsAuto() {
		if p.Getter == nil {
			return Null, errors.New(errors.PhaseEval, errors.KindRuntime).Decl(memberName(decl, m)).Detail("property has no getter").Build()
		}
		return c.run(receiverFor(recv, m), decl, memberName(decl, m)+".get", p.Getter.Body, nil, nil)
	}
	if ev, ok := m.(*ast.Event); ok && !ev.IsFieldLike() {
		return Null, errors.New(errors.PhaseEval, errors.KindRuntime).Decl(memberName(decl, m)).Detail("event with accessors read as a value").Build()
	}
	slots, err := c.slot(recv, decl, m)
	if err != nil {
		return Null, err
	}
	return slots[slotKey(decl, name)], nil
}

func (c *call) write(recv Value, static *ast.TypeDecl, name string, v Value, nonVirtual bool) error {
	decl, m := c.find(static, name, notMethod)
	if m == nil {
		return errors.NotFound(errors.PhaseEval, "member "+static.Name+"."+name)
	}
	decl, m = c.dispatch(recv, decl, m, notMethod, nonVirtual)
	if p, ok := m.(*ast.Property); ok && !p.IsAuto() {
		if p.Setter == nil {
			return errors.New(errors.PhaseEval, errors.KindRuntime).Decl(memberName(decl, m)).Detail("property has no setter").Build()
		}
		_, err := c.run(receiverFor(recv, m), decl, memberName(decl, m)+".set", p.Setter.Body, ast.ParamsOf(p, ast.AccessorSet), []Value{v})
		return err
	}
	if ev, ok := m.(*ast.Event); ok && !ev.IsFieldLike() {
		return errors.New(errors.PhaseEval, errors.KindRuntime).Decl(memberName(decl, m)).Detail("event with accessors assigned").Build()
	}
	slots, err := c.slot(recv, decl, m)
	if err != nil {
		return err
	}
	slots[slotKey(decl, name)] = v
	return nil
}

// compound applies += or -=. Events with accessors run the adder or the
// remover; everything else is read, combined and written back.
func (c *call) compound(recv Value, static *ast.TypeDecl, name, op string, v Value, nonVirtual bool) error {
	decl, m := c.find(static, name, notMethod)
	if m == nil {
		return errors.NotFound(errors.PhaseEval, "member "+static.Name+"."+name)
	}
	decl, m = c.dispatch(recv, decl, m, notMethod, nonVirtual)
	if ev, ok := m.(*ast.Event); ok && !ev.IsFieldLike() {
		acc, kind := ev.Adder, ast.AccessorAdd
		if op == "-=" {
			acc, kind = ev.Remover, ast.AccessorRemove
		}
		if acc == nil {
			return errors.New(errors.PhaseEval, errors.KindRuntime).Decl(memberName(decl, m)).Detail("event has no %s accessor", kind).Build()
		}
		_, err := c.run(receiverFor(recv, m), decl, memberName(decl, m)+"."+kind.String(), acc.Body, ast.ParamsOf(ev, kind), []Value{v})
		return err
	}
	cur, err := c.read(recv, decl, name, true)
	if err != nil {
		return err
	}
	nv, err := arith(op[:1], cur, v)
	if err != nil {
		return errors.New(errors.PhaseEval, errors.KindRuntime).Decl(memberName(decl, m)).Cause(err).Detail("compound assignment").Build()
	}
	return c.write(recv, decl, name, nv, true)
}

// raise invokes every handler of a handler list in order.
func (c *call) raise(hs Value, args []Value) (Value, error) {
	switch hs.Kind {
	case KindNull:
		return Null, nil
	case KindHandlers:
	default:
		return Null, errors.New(errors.PhaseEval, errors.KindRuntime).Detail("%s is not invocable", hs.Kind).Build()
	}
	for _, h := range hs.handlers() {
		name, ok := h.AsString()
		if !ok {
			return Null, errors.New(errors.PhaseEval, errors.KindRuntime).Detail("handler %s is not a function name", h).Build()
		}
		if _, err := c.builtin(name, args); err != nil {
			return Null, err
		}
	}
	return Null, nil
}

func (c *call) builtin(name string, args []Value) (Value, error) {
	if fn, ok := c.r.funcs[name]; ok {
		if err := c.step(); err != nil {
			return Null, err
		}
		return fn(c.ctx, args)
	}
	if name == "log" {
		c.r.record(args)
		return Null, nil
	}
	return Null, errors.NotFound(errors.PhaseEval, "function "+name)
}

// initial returns the starting value of the storage m owns, or nil when m
// owns none.
func (c *call) initial(t *ast.TypeDecl, o *Object, m ast.Member) (*Value, error) {
	var init ast.Expr
	switch d := m.(type) {
	case *ast.Field:
		init = d.Init
	case *ast.Property:
		if !d.IsAuto() {
			return nil, nil
		}
		init = d.Init
	case *ast.Event:
		if !d.IsFieldLike() {
			return nil, nil
		}
		v := handlers(nil)
		return &v, nil
	default:
		return nil, nil
	}
	v := zero(ast.ValueType(m))
	if init != nil {
		self := Null
		if o != nil {
			self = Obj(o)
		}
		f := &frame{c: c, self: self, typ: t, name: memberName(t, m), env: newEnv(nil)}
		var err error
		if v, err = f.eval(init); err != nil {
			return nil, err
		}
	}
	return &v, nil
}
