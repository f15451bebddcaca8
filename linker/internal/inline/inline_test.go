package inline

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/aspect-linker/ast"
	"github.com/wippyai/aspect-linker/source"
)

func block(t *testing.T, text string) *ast.Block {
	t.Helper()
	b, err := source.ParseBlock(text)
	require.NoError(t, err)
	return b
}

// refExpr returns the first expression of s carrying a placeholder.
func refExpr(s ast.Stmt) ast.Expr {
	var found ast.Expr
	ast.Inspect(s, func(n ast.Node) bool {
		if found != nil {
			return false
		}
		if e, ok := n.(ast.Expr); ok && ast.MetaOf(e).Ref != nil {
			found = e
			return false
		}
		return true
	})
	return found
}

func TestClassify(t *testing.T) {
	params := []ast.Param{{Name: "a", Type: "int"}, {Name: "b", Type: "int"}}
	value := []ast.Param{{Name: "value", Type: "int"}}
	locals := map[string]bool{"r": true}

	tests := []struct {
		name   string
		stmt   string
		params []ast.Param
		want   Shape
	}{
		{"statement", `(ref L default (call F a b))`, params, StatementCall{}},
		{"return", `(return (ref L default (call F a b)))`, params, ReturnCall{}},
		{"cast return", `(return (cast long (ref L default (call F a b))))`, params, CastReturnCall{Type: "long"}},
		{"local declaration", `(local x int (ref L default (call F a b)))`, params, LocalDeclarationCall{Local: "x", Type: "int"}},
		{"assignment", `(= r (ref L default (call F a b)))`, params, AssignmentCall{Target: "r"}},
		{"property read", `(return (ref L default get (. this P)))`, nil, ReturnCall{}},
		{"property write", `(ref L default set (= (. this P) value))`, value, PropertyAssignment{}},
		{"event add", `(ref L default add (+= (. this E) value))`, value, EventAssignment{Op: "+="}},
		{"event remove", `(ref L default remove (-= (. this E) value))`, value, EventAssignment{Op: "-="}},
		{"reordered args", `(ref L default (call F b a))`, params, nil},
		{"computed arg", `(ref L default (call F a (+ b 1)))`, params, nil},
		{"nested call", `(return (+ 1 (ref L default (call F a b))))`, params, nil},
		{"assignment to member", `(= (. this r) (ref L default (call F a b)))`, params, nil},
		{"assignment to unknown local", `(= q (ref L default (call F a b)))`, params, nil},
		{"if condition", `(if (ref L default (call F a b)) (return))`, params, nil},
		{"write of other value", `(ref L default set (= (. this P) 3))`, value, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := block(t, tt.stmt)
			require.Len(t, b.Stmts, 1)
			s := b.Stmts[0]
			ref := refExpr(s)
			require.NotNil(t, ref)

			got, ok := Classify(s, ref, tt.params, locals)
			if tt.want == nil {
				if ok {
					t.Fatalf("Classify = %s, want unsupported", got.Name())
				}
				return
			}
			if !ok {
				t.Fatalf("Classify unsupported, want %s", tt.want.Name())
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestArgs(t *testing.T) {
	e, err := source.ParseExpr(`(call F x y)`)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, Args(e))

	e, err = source.ParseExpr(`(+= (. this E) h)`)
	require.NoError(t, err)
	assert.Equal(t, []string{"h"}, Args(e))

	e, err = source.ParseExpr(`(. this P)`)
	require.NoError(t, err)
	assert.Nil(t, Args(e))
}

func TestSimpleExit(t *testing.T) {
	tests := []struct {
		body string
		want bool
	}{
		{`(call log "x")`, true},
		{`(call log "x") (return 1)`, true},
		{`(block (call log "x") (return 1))`, true},
		{`(if c (return 1)) (return 2)`, false},
		{`(return 1) (call log "x")`, false},
		{`(while c (return 1))`, false},
	}
	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			assert.Equal(t, tt.want, SimpleExit(block(t, tt.body)))
		})
	}
}

func labels() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("__F_exit%d", n)
	}
}

func splice(t *testing.T, shape Shape, args []string, body string, params []ast.Param) string {
	t.Helper()
	out := Splice(Site{Shape: shape, Args: args}, Callee{Body: block(t, body), Params: params}, labels())
	var s string
	for i, st := range out {
		if i > 0 {
			s += "\n"
		}
		s += ast.FormatStmt(st)
	}
	return s
}

func TestSpliceReturnCall(t *testing.T) {
	got := splice(t, ReturnCall{}, []string{"y"}, `(call log "in") (return (* x 2))`,
		[]ast.Param{{Name: "x", Type: "int"}})
	assert.Equal(t, "{\n    log(\"in\");\n    return y * 2;\n}", got)
}

func TestSpliceCastReturnCall(t *testing.T) {
	got := splice(t, CastReturnCall{Type: "long"}, nil, `(if c (return 1)) (return 2)`, nil)
	assert.Equal(t, "{\n    if (c)\n        return (long)1;\n    return (long)2;\n}", got)
}

func TestSpliceStatementCallDropsPureResult(t *testing.T) {
	got := splice(t, StatementCall{}, nil, `(call log "in") (return (+ a 1))`, nil)
	assert.Equal(t, "{\n    log(\"in\");\n}", got)

	got = splice(t, StatementCall{}, nil, `(return (call Next))`, nil)
	assert.Equal(t, "{\n    Next();\n}", got)
}

func TestSpliceAssignmentCall(t *testing.T) {
	got := splice(t, AssignmentCall{Target: "r"}, nil, `(call log "in") (return 5)`, nil)
	assert.Equal(t, "{\n    log(\"in\");\n    r = 5;\n}", got)
}

func TestSpliceLocalDeclarationWithJumps(t *testing.T) {
	got := splice(t, LocalDeclarationCall{Local: "v", Type: "int"}, nil,
		`(if c (return 1)) (return 2)`, nil)
	want := "int v;\n" +
		"{\n" +
		"    if (c)\n" +
		"    {\n" +
		"        v = 1;\n" +
		"        goto __F_exit1;\n" +
		"    }\n" +
		"    {\n" +
		"        v = 2;\n" +
		"        goto __F_exit1;\n" +
		"    }\n" +
		"__F_exit1:\n" +
		"    ;\n" +
		"}"
	assert.Equal(t, want, got)
}

func TestSpliceMarksMergeable(t *testing.T) {
	out := Splice(Site{Shape: StatementCall{}}, Callee{Body: block(t, `(call f)`)}, labels())
	require.Len(t, out, 1)
	b, ok := out[0].(*ast.Block)
	require.True(t, ok)
	assert.True(t, b.Mergeable)
}

func TestSpliceRenamesParameters(t *testing.T) {
	got := splice(t, PropertyAssignment{}, []string{"v"},
		`(= (. this __P_BackingField) value)`, []ast.Param{{Name: "value", Type: "int"}})
	assert.Equal(t, "{\n    this.__P_BackingField = v;\n}", got)
}

func TestSpliceVoidEarlyReturn(t *testing.T) {
	got := splice(t, StatementCall{}, nil, `(if c (return)) (call f)`, nil)
	want := "{\n" +
		"    if (c)\n" +
		"    {\n" +
		"        goto __F_exit1;\n" +
		"    }\n" +
		"    f();\n" +
		"__F_exit1:\n" +
		"    ;\n" +
		"}"
	assert.Equal(t, want, got)
}

func TestSpliceUsesKnownExitShape(t *testing.T) {
	const body = `(call log "in") (return 5)`
	site := Site{Shape: AssignmentCall{Target: "r"}}

	out := Splice(site, Callee{Body: block(t, body), Exit: ExitSimple}, labels())
	require.Len(t, out, 1)
	assert.Equal(t, "{\n    log(\"in\");\n    r = 5;\n}", ast.FormatStmt(out[0]))

	out = Splice(site, Callee{Body: block(t, body), Exit: ExitComplex}, labels())
	require.Len(t, out, 1)
	want := "{\n" +
		"    log(\"in\");\n" +
		"    {\n" +
		"        r = 5;\n" +
		"        goto __F_exit1;\n" +
		"    }\n" +
		"__F_exit1:\n" +
		"    ;\n" +
		"}"
	assert.Equal(t, want, ast.FormatStmt(out[0]))
}

func TestExitOf(t *testing.T) {
	assert.Equal(t, ExitSimple, ExitOf(true))
	assert.Equal(t, ExitComplex, ExitOf(false))
}
