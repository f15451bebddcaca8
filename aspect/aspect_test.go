package aspect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/aspect-linker/ast"
	"github.com/wippyai/aspect-linker/errors"
)

func TestLayerID(t *testing.T) {
	assert.Equal(t, ast.LayerID("Log"), Layer{Aspect: "Log"}.ID())
	assert.Equal(t, ast.LayerID("Log:Pre"), Layer{Aspect: "Log", Part: "Pre"}.ID())
	assert.Equal(t, Layer{Aspect: "Log", Part: "Pre"}, ParseLayer("Log:Pre"))
}

func TestLayerOrder(t *testing.T) {
	o, err := NewLayerOrder("A", "B:1", "B:2")
	require.NoError(t, err)
	assert.Equal(t, 3, o.Len())

	i, ok := o.Index("B:2")
	require.True(t, ok)
	assert.Equal(t, 2, i)

	_, ok = o.Index("C")
	assert.False(t, ok)

	_, err = NewLayerOrder("A", "A")
	require.Error(t, err)
	assert.ErrorIs(t, err, &errors.Error{Phase: errors.PhaseLoad, Kind: errors.KindInvalidInput})
}

func TestParsePosition(t *testing.T) {
	tests := []struct {
		in      string
		want    Position
		wantErr bool
	}{
		{"", Position{Kind: PositionEnd}, false},
		{"start", Position{Kind: PositionStart}, false},
		{"before:Foo", Position{Kind: PositionBefore, Anchor: "Foo"}, false},
		{"after:Foo", Position{Kind: PositionAfter, Anchor: "Foo"}, false},
		{"after:", Position{}, true},
		{"middle", Position{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePosition(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			if tt.in != "" {
				assert.Equal(t, tt.in, got.String())
			}
		})
	}
}

func TestIntroductionKindRoundTrip(t *testing.T) {
	for k := Introduce; k <= IntroduceNew; k++ {
		got, ok := ParseIntroductionKind(k.String())
		require.True(t, ok)
		assert.Equal(t, k, got)
	}
	_, ok := ParseIntroductionKind("replace")
	assert.False(t, ok)
}

func TestTemplateGeneratorRenames(t *testing.T) {
	target := &ast.Method{Name: "Deposit", Params: []ast.Param{{Name: "amount", Type: "int"}}}
	tmpl := &ast.Method{
		Name:   "Template",
		Params: []ast.Param{{Name: "x", Type: "int"}},
		Body: ast.Stmts(
			&ast.LocalDecl{Name: "tmp", Type: "int", Init: ast.Id("x")},
			&ast.LocalDecl{Name: "amount", Type: "int", Init: ast.Int(0)},
			&ast.Return{X: &ast.Binary{Op: "+", X: ast.Id("tmp"), Y: ast.Id("amount")}},
		),
	}
	ctx := NewGenerationContext(&ast.TypeDecl{Name: "Account"}, target, "Log", "Deposit_Log", map[string]bool{"tmp": true})

	m, err := TemplateGenerator{Template: tmpl}.Generate(ctx)
	require.NoError(t, err)

	meth := m.(*ast.Method)
	assert.Equal(t, "Deposit_Log", meth.Name)
	assert.Equal(t, []ast.Param{{Name: "amount", Type: "int"}}, meth.Params)
	assert.Equal(t, "{\n    int tmp1 = amount;\n    int amount1 = 0;\n    return tmp1 + amount1;\n}", ast.FormatStmt(meth.Body))
	assert.Equal(t, "Template", tmpl.Name, "template is not modified")
	assert.True(t, ctx.IsUsed("tmp1"))
	assert.True(t, ctx.IsUsed("amount1"))
}

func TestFreshName(t *testing.T) {
	ctx := NewGenerationContext(nil, nil, "L", "", map[string]bool{"a": true, "a1": true})
	assert.Equal(t, "a2", ctx.FreshName("a"))
	assert.Equal(t, "b", ctx.FreshName("b"))
	assert.Equal(t, []string{"a", "a1", "a2", "b"}, ctx.UsedNames())
}

func TestWildcardMatcher(t *testing.T) {
	m := NewWildcardMatcher([]string{"Account.Deposit", "Withdraw", "Audit.*", "*.Close"})
	tests := []struct {
		typ, member string
		want        bool
	}{
		{"Account", "Deposit", true},
		{"Other", "Deposit", false},
		{"Other", "Withdraw", true},
		{"Audit", "Anything", true},
		{"Any", "Close", true},
		{"Account", "Balance", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, m.Match(tt.typ, tt.member), "%s.%s", tt.typ, tt.member)
	}
	assert.True(t, NewWildcardMatcher([]string{"*"}).Match("X", "Y"))
}

func TestExactMatcher(t *testing.T) {
	m := NewExactMatcher([]string{"Account.Deposit", "Close"})
	assert.True(t, m.Match("Account", "Deposit"))
	assert.True(t, m.Match("Any", "Close"))
	assert.False(t, m.Match("Other", "Deposit"))
}

func TestPatternMatcherPrefix(t *testing.T) {
	m := NewPatternMatcher([]string{"Account.Dep*", "Log.*"})
	assert.True(t, m.Match("Account", "Deposit"))
	assert.True(t, m.Match("Account", "Depth"))
	assert.False(t, m.Match("Account", "Withdraw"))
	assert.True(t, m.Match("Log", "Write"))
}

func TestOptionSetLookup(t *testing.T) {
	set := OptionSet{
		{Matcher: NewPatternMatcher([]string{"Account.*"}), Options: Options{ForceNotInlineable: true}},
		{Matcher: NewPatternMatcher([]string{"Deposit"}), Options: Options{ForceNotDiscardable: true}},
	}
	assert.Equal(t, Options{ForceNotInlineable: true, ForceNotDiscardable: true}, set.Lookup("Account", "Deposit"))
	assert.Equal(t, Options{ForceNotInlineable: true}, set.Lookup("Account", "Withdraw"))
	assert.Equal(t, Options{}, set.Lookup("Other", "Withdraw"))
}
