package ast

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleType() *TypeDecl {
	ref := &AspectRef{Layer: "Log", Order: OrderDefault}
	call := CallOf(Id("Foo"), Id("x"))
	call.Ref = ref
	return &TypeDecl{
		Name: "C",
		Base: "B",
		Members: []Member{
			&Method{
				Meta:   Meta{Tracking: 7},
				Name:   "Foo",
				Mods:   ModPublic | ModVirtual,
				Result: "int",
				Params: []Param{{Name: "x", Type: "int"}},
				Body: Stmts(
					&LocalDecl{Name: "y", Type: "int", Init: &Binary{Op: "+", X: Id("x"), Y: Int(1)}},
					&Return{X: call},
				),
			},
			&Property{Name: "P", Type: "int", Mods: ModPublic, Getter: &Accessor{Kind: AccessorGet}, Setter: &Accessor{Kind: AccessorSet}},
			&Event{Name: "E", Type: "Handler", Mods: ModPublic},
			&Field{Name: "f", Type: "int", Mods: ModPrivate, Init: Int(3)},
		},
	}
}

func TestCloneIsDeepAndKeepsMeta(t *testing.T) {
	orig := &Program{Types: []*TypeDecl{sampleType()}}
	cl := CloneProgram(orig)

	require.Len(t, cl.Types, 1)
	m := cl.Types[0].Members[0].(*Method)
	om := orig.Types[0].Members[0].(*Method)
	assert.Equal(t, TrackingID(7), m.Tracking)
	assert.NotSame(t, om.Body, m.Body)

	ret := m.Body.Stmts[1].(*Return)
	oret := om.Body.Stmts[1].(*Return)
	assert.Same(t, MetaOf(oret.X).Ref, MetaOf(ret.X).Ref, "placeholder identity survives clones")

	m.Body.Stmts[0].(*LocalDecl).Name = "z"
	assert.Equal(t, "y", om.Body.Stmts[0].(*LocalDecl).Name)
}

func TestFormat(t *testing.T) {
	p := &Program{Types: []*TypeDecl{sampleType()}}
	want := `class C : B
{
    public virtual int Foo(int x)
    {
        int y = x + 1;
        return /*ref(Log default self)*/Foo(x);
    }

    public int P { get; set; }

    public event Handler E;

    private int f = 3;
}
`
	if diff := cmp.Diff(want, Format(p)); diff != "" {
		t.Fatalf("Format mismatch (-want +got):\n%s", diff)
	}
}

func TestFormatLabelsAndNesting(t *testing.T) {
	b := Stmts(
		&If{Cond: &Unary{Op: "!", X: Id("ok")}, Then: &Goto{Label: "done"}},
		&ExprStmt{X: &Assign{Op: "=", L: Id("r"), R: &Binary{Op: "*", X: &Binary{Op: "+", X: Id("a"), Y: Id("b")}, Y: Int(2)}}},
		&Labeled{Label: "done", Stmt: &Empty{}},
	)
	got := FormatStmt(b)
	want := "{\n    if (!ok)\n        goto done;\n    r = (a + b) * 2;\ndone:\n    ;\n}"
	assert.Equal(t, want, got)
}

func TestRenameLocals(t *testing.T) {
	b := Stmts(
		&LocalDecl{Name: "tmp", Type: "int", Init: Id("x")},
		&Return{X: &Binary{Op: "+", X: Id("tmp"), Y: Id("x")}},
	)
	RenameLocals(b, map[string]string{"tmp": "tmp1", "x": "value"})
	assert.Equal(t, "{\n    int tmp1 = value;\n    return tmp1 + value;\n}", FormatStmt(b))
	assert.Equal(t, []string{"tmp1"}, DeclaredLocals(b))
}

func TestUsedNamesAndReturns(t *testing.T) {
	b := Stmts(
		&If{Cond: Id("c"), Then: &Return{X: Int(1)}},
		&Labeled{Label: "L", Stmt: &Return{X: Id("v")}},
	)
	names := UsedNames(b)
	assert.True(t, names["c"])
	assert.True(t, names["v"])
	assert.True(t, names["L"])
	assert.Equal(t, 2, CountReturns(b))
}

func TestHasSideEffects(t *testing.T) {
	tests := []struct {
		name string
		expr Expr
		want bool
	}{
		{"ident", Id("x"), false},
		{"binary", &Binary{Op: "+", X: Id("x"), Y: Int(1)}, false},
		{"call", CallOf(Id("f")), true},
		{"nested_assign", &Cast{Type: "int", X: &Assign{Op: "=", L: Id("a"), R: Int(1)}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasSideEffects(tt.expr))
		})
	}
}

func TestMapExprPostOrder(t *testing.T) {
	e := &Binary{Op: "+", X: Id("a"), Y: CallOf(ThisDot("F"), Id("a"))}
	var order []string
	out := MapExpr(e, func(x Expr) Expr {
		order = append(order, FormatExpr(x))
		if id, ok := x.(*Ident); ok && id.Name == "a" {
			return Id("b")
		}
		return x
	})
	assert.Equal(t, "b + this.F(b)", FormatExpr(out))
	assert.Equal(t, "a", order[0])
	assert.Equal(t, "b + this.F(b)", order[len(order)-1])
}

func TestAncestorsCutsCycles(t *testing.T) {
	p := &Program{Types: []*TypeDecl{
		{Name: "A", Base: "C"},
		{Name: "B", Base: "A"},
		{Name: "C", Base: "B"},
	}}
	anc := p.Ancestors(p.Type("C"))
	var names []string
	for _, a := range anc {
		names = append(names, a.Name)
	}
	assert.Equal(t, []string{"B", "A"}, names)
}

func TestSignatureAndParams(t *testing.T) {
	m := &Method{Name: "F", Params: []Param{{Name: "a", Type: "int"}, {Name: "b", Type: "string"}}}
	assert.Equal(t, "F(int,string)", SignatureOf(m).String())

	p := &Property{Name: "P", Type: "int", Setter: &Accessor{Kind: AccessorSet}}
	assert.Equal(t, []Param{{Name: "value", Type: "int"}}, ParamsOf(p, AccessorSet))
	assert.Nil(t, ParamsOf(p, AccessorGet))
	assert.True(t, p.IsAuto())
	assert.False(t, HasAccessor(p, AccessorGet))
}

func TestModifiers(t *testing.T) {
	m := ModPrivate | ModOverride
	assert.Equal(t, "private override", m.String())
	assert.Equal(t, "public override", m.WithAccess(ModPublic).String())
	mod, ok := ParseModifier("virtual")
	require.True(t, ok)
	assert.Equal(t, ModVirtual, mod)
}
