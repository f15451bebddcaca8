package analysis_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/aspect-linker/aspect"
	"github.com/wippyai/aspect-linker/ast"
	"github.com/wippyai/aspect-linker/errors"
	"github.com/wippyai/aspect-linker/linker/internal/analysis"
	"github.com/wippyai/aspect-linker/linker/internal/inline"
	"github.com/wippyai/aspect-linker/linker/internal/introduce"
	"github.com/wippyai/aspect-linker/linker/internal/linktest"
	"github.com/wippyai/aspect-linker/linker/internal/resolve"
)

const calc = `(program
  (type Calc
    (method Add public (param a int) (param b int) (result int) (body (return (+ a b))))
    (property Size public (type int) (get) (set))
    (event Changed public (type Handler))
    (method Sum public (param a int) (result int)
      (body (if (< a 0) (return 0)) (return a)))))`

func analyze(t *testing.T, cfg analysis.Config, trs ...aspect.Transformation) (*introduce.Registry, *analysis.Registry) {
	t.Helper()
	reg := linktest.Run(t, calc, []ast.LayerID{"L1", "L2"}, trs...)
	an, err := analysis.Run(context.Background(), reg, resolve.New(reg), cfg)
	require.NoError(t, err)
	return reg, an
}

func body(t *testing.T, an *analysis.Registry, d introduce.Declaration, acc ast.AccessorKind, sem analysis.Semantic) *analysis.Body {
	t.Helper()
	b, ok := an.Body(analysis.Key{Decl: d.ID, Accessor: acc, Semantic: sem})
	require.True(t, ok, "no %s body for %s", sem, d.Name())
	return b
}

const doubling = `(method Add (param a int) (param b int) (result int)
  (body (return (* (ref L1 default (call Add a b)) 2))))`

func TestRunMethodChain(t *testing.T) {
	reg, an := analyze(t, analysis.Config{}, linktest.Override(t, "L1", "Calc", "Add", doubling))
	add := linktest.Member(t, reg, "Calc", "Add")
	entry := linktest.Member(t, reg, "Calc", "Add_L1")

	orig := body(t, an, add, ast.AccessorNone, analysis.SemanticOriginal)
	assert.True(t, orig.Participating())
	assert.False(t, orig.Synthetic)
	assert.True(t, orig.SimpleExit)
	assert.Empty(t, orig.Refs)

	pub := body(t, an, add, ast.AccessorNone, analysis.SemanticPublic)
	assert.True(t, pub.Synthetic)
	require.Len(t, pub.Refs, 1)
	assert.Equal(t, "{\n    return /*ref( default self)*/this.Add(a, b);\n}", ast.FormatStmt(pub.Block))
	head := pub.Refs[0]
	assert.Equal(t, analysis.Key{Decl: entry.ID, Semantic: analysis.SemanticDefault}, head.To)
	assert.Equal(t, inline.ReturnCall{}, head.Shape)
	assert.Equal(t, []string{"a", "b"}, head.Args)
	assert.True(t, head.Inlineable())

	e := body(t, an, entry, ast.AccessorNone, analysis.SemanticDefault)
	assert.Equal(t, add.ID, e.Root)
	require.Len(t, e.Refs, 1)
	ref := e.Refs[0]
	assert.Equal(t, resolve.OriginalBody{Root: add}, ref.Target)
	assert.Equal(t, orig.Key, ref.To)
	assert.Nil(t, ref.Shape, "a call inside a multiplication is not a call shape")
	assert.False(t, ref.Inlineable())
	assert.True(t, ref.Counted)

	sum := body(t, an, linktest.Member(t, reg, "Calc", "Sum"), ast.AccessorNone, analysis.SemanticDefault)
	assert.False(t, sum.Participating())
	assert.False(t, sum.SimpleExit)

	var keys []analysis.Key
	for _, b := range an.Bodies() {
		keys = append(keys, b.Key)
	}
	assert.Equal(t, []analysis.Key{orig.Key, pub.Key, e.Key, sum.Key}, keys)
}

const overloads = `(program
  (type Calc
    (method Add public (param a int) (param b int) (result int) (body (return (+ a b))))
    (method Add public (param a string) (param b string) (result string) (body (return (+ a b))))))`

func overload(t *testing.T, reg *introduce.Registry, params string) introduce.Declaration {
	t.Helper()
	for _, m := range reg.Program().Type("Calc").FindMembers("Add") {
		if ast.SignatureOf(m).Params == params {
			d, ok := reg.DeclOf(m)
			require.True(t, ok)
			return d
		}
	}
	t.Fatalf("no overload Add(%s)", params)
	return introduce.Declaration{}
}

func TestRunOverloadedTarget(t *testing.T) {
	reg := linktest.Run(t, overloads, []ast.LayerID{"L1"},
		linktest.Override(t, "L1", "Calc", "Add(string,string)",
			`(method Add (param a string) (param b string) (result string)
			   (body (ref L1 default (call Add 1 2)) (return (ref L1 default (call Add a b)))))`))
	an, err := analysis.Run(context.Background(), reg, resolve.New(reg), analysis.Config{})
	require.NoError(t, err)

	ints, strs := overload(t, reg, "int,int"), overload(t, reg, "string,string")
	e := body(t, an, linktest.Member(t, reg, "Calc", "Add_L1"), ast.AccessorNone, analysis.SemanticDefault)
	assert.Equal(t, strs.ID, e.Root)
	require.Len(t, e.Refs, 2)

	// literal arguments select the int overload
	assert.Equal(t, ints.ID, e.Refs[0].Referenced.ID)

	// parameters typed like the chain root select the root
	assert.Equal(t, strs.ID, e.Refs[1].Referenced.ID)
	assert.Equal(t, resolve.OriginalBody{Root: strs}, e.Refs[1].Target)
	assert.Equal(t, body(t, an, strs, ast.AccessorNone, analysis.SemanticOriginal).Key, e.Refs[1].To)
}

func TestRunPropertyGetterOnly(t *testing.T) {
	reg, an := analyze(t, analysis.Config{},
		linktest.Override(t, "L1", "Calc", "Size",
			`(property Size (type int) (get (return (+ (ref L1 default (. this Size)) 1))))`))
	size := linktest.Member(t, reg, "Calc", "Size")
	entry := linktest.Member(t, reg, "Calc", "Size_L1")

	getter := body(t, an, size, ast.AccessorGet, analysis.SemanticOriginal)
	assert.True(t, getter.Synthetic)
	assert.Equal(t, "{\n    return this.__Size_BackingField;\n}", ast.FormatStmt(getter.Block))

	setter := body(t, an, size, ast.AccessorSet, analysis.SemanticOriginal)
	assert.Equal(t, "{\n    this.__Size_BackingField = value;\n}", ast.FormatStmt(setter.Block))
	assert.Equal(t, []ast.Param{{Name: "value", Type: "int"}}, setter.Params)

	pubSet := body(t, an, size, ast.AccessorSet, analysis.SemanticPublic)
	require.Len(t, pubSet.Refs, 1)
	assert.Equal(t, setter.Key, pubSet.Refs[0].To)
	assert.Equal(t, inline.PropertyAssignment{}, pubSet.Refs[0].Shape)

	pubGet := body(t, an, size, ast.AccessorGet, analysis.SemanticPublic)
	require.Len(t, pubGet.Refs, 1)
	assert.Equal(t, analysis.Key{Decl: entry.ID, Accessor: ast.AccessorGet}, pubGet.Refs[0].To)

	// accessor inferred from the read
	e := body(t, an, entry, ast.AccessorGet, analysis.SemanticDefault)
	require.Len(t, e.Refs, 1)
	assert.Equal(t, ast.AccessorGet, e.Refs[0].Ref.Accessor)
	assert.Equal(t, ast.AccessorNone, e.Refs[0].Site.Accessor)
	assert.Equal(t, getter.Key, e.Refs[0].To)
}

func TestRunInfersSetterAndEventAccessors(t *testing.T) {
	reg, an := analyze(t, analysis.Config{},
		linktest.Override(t, "L1", "Calc", "Size",
			`(property Size (type int) (set (call log "set") (ref L1 default (= (. this Size) value))))`),
		linktest.Override(t, "L1", "Calc", "Changed",
			`(event Changed (type Handler)
			   (add (ref L1 default (+= (. this Changed) value)))
			   (remove (ref L1 default (-= (. this Changed) value))))`),
	)
	size := linktest.Member(t, reg, "Calc", "Size")
	changed := linktest.Member(t, reg, "Calc", "Changed")

	set := body(t, an, linktest.Member(t, reg, "Calc", "Size_L1"), ast.AccessorSet, analysis.SemanticDefault)
	require.Len(t, set.Refs, 1)
	assert.Equal(t, ast.AccessorSet, set.Refs[0].Ref.Accessor)
	assert.Equal(t, analysis.Key{Decl: size.ID, Accessor: ast.AccessorSet, Semantic: analysis.SemanticOriginal}, set.Refs[0].To)
	assert.Equal(t, inline.PropertyAssignment{}, set.Refs[0].Shape)

	ev := linktest.Member(t, reg, "Calc", "Changed_L1")
	for _, tc := range []struct {
		acc ast.AccessorKind
		op  string
	}{{ast.AccessorAdd, "+="}, {ast.AccessorRemove, "-="}} {
		b := body(t, an, ev, tc.acc, analysis.SemanticDefault)
		require.Len(t, b.Refs, 1)
		assert.Equal(t, tc.acc, b.Refs[0].Ref.Accessor)
		assert.Equal(t, inline.EventAssignment{Op: tc.op}, b.Refs[0].Shape)

		orig := body(t, an, changed, tc.acc, analysis.SemanticOriginal)
		assert.Equal(t, "{\n    this.__Changed_BackingField "+tc.op+" value;\n}", ast.FormatStmt(orig.Block))
	}
}

func TestRunFinalReferencesAreNotCounted(t *testing.T) {
	reg, an := analyze(t, analysis.Config{},
		linktest.Override(t, "L1", "Calc", "Add", doubling),
		linktest.Introduce(t, "L2", "Calc",
			`(method Twice public (param a int) (result int) (body (return (ref L2 final (call Add a a)))))`),
	)
	add := linktest.Member(t, reg, "Calc", "Add")
	twice := body(t, an, linktest.Member(t, reg, "Calc", "Twice"), ast.AccessorNone, analysis.SemanticDefault)
	require.Len(t, twice.Refs, 1)

	ref := twice.Refs[0]
	assert.Equal(t, analysis.Key{Decl: add.ID, Semantic: analysis.SemanticPublic}, ref.To)
	assert.True(t, ref.Linked)
	assert.False(t, ref.Counted)
	assert.False(t, ref.Inlineable())
}

func TestRunBaseReceiverDiagnostic(t *testing.T) {
	_, an := analyze(t, analysis.Config{},
		linktest.Override(t, "L1", "Calc", "Add",
			`(method Add (param a int) (param b int) (result int)
			   (body (return (ref L1 base (call (. other Add) a b)))))`))

	diags := an.Diagnostics()
	require.Len(t, diags, 1)
	assert.Equal(t, analysis.CodeBaseReceiver, diags[0].Code)
	assert.Equal(t, analysis.SeverityWarning, diags[0].Severity)
	assert.Equal(t, "Calc.Add_L1", diags[0].Declaration)
	assert.Contains(t, diags[0].Message, "L1")

	for _, b := range an.Bodies() {
		for _, r := range b.Refs {
			if r.From.Semantic == analysis.SemanticDefault {
				assert.True(t, r.Untouched)
				assert.False(t, r.Linked)
			}
		}
	}
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name     string
		template string
		kind     errors.Kind
	}{
		{
			name:     "unknown member",
			template: `(method Add (param a int) (param b int) (result int) (body (return (ref L1 default (call Missing a)))))`,
			kind:     errors.KindNotFound,
		},
		{
			name:     "arity mismatch",
			template: `(method Add (param a int) (param b int) (result int) (body (return (ref L1 default (call Add a)))))`,
			kind:     errors.KindNotFound,
		},
		{
			name:     "placeholder on a literal",
			template: `(method Add (param a int) (param b int) (result int) (body (return (ref L1 default 1))))`,
			kind:     errors.KindUnsupportedShape,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := linktest.Run(t, calc, []ast.LayerID{"L1"}, linktest.Override(t, "L1", "Calc", "Add", tt.template))
			_, err := analysis.Run(context.Background(), reg, resolve.New(reg), analysis.Config{})
			var e *errors.Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, tt.kind, e.Kind)
			assert.Equal(t, errors.PhaseAnalyze, e.Phase)
		})
	}
}

func TestRunIsDeterministic(t *testing.T) {
	trs := func() []aspect.Transformation {
		return []aspect.Transformation{
			linktest.Override(t, "L1", "Calc", "Add", doubling),
			linktest.Override(t, "L2", "Calc", "Add",
				`(method Add (param a int) (param b int) (result int) (body (call log "L2") (return (ref L2 default (call Add a b)))))`),
			linktest.Override(t, "L1", "Calc", "Size", `(property Size (type int) (get (return (ref L1 default (. this Size)))))`),
		}
	}
	keys := func(an *analysis.Registry) []string {
		var out []string
		for _, b := range an.Bodies() {
			out = append(out, b.Name()+" "+b.Key.Semantic.String())
		}
		return out
	}

	_, serial := analyze(t, analysis.Config{Concurrency: 1}, trs()...)
	for i := 0; i < 5; i++ {
		_, parallel := analyze(t, analysis.Config{Concurrency: 8}, trs()...)
		assert.Equal(t, keys(serial), keys(parallel))
	}
}

func TestRunCanceled(t *testing.T) {
	reg := linktest.Run(t, calc, []ast.LayerID{"L1"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := analysis.Run(ctx, reg, resolve.New(reg), analysis.Config{})
	var e *errors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, errors.KindCanceled, e.Kind)
}
