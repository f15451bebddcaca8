package cleanup

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wippyai/aspect-linker/ast"
)

func mergeable(s ...ast.Stmt) *ast.Block {
	b := ast.Stmts(s...)
	b.Mergeable = true
	return b
}

func call(name string) ast.Stmt {
	return &ast.ExprStmt{X: ast.CallOf(ast.Id(name))}
}

func TestFlattenBlock(t *testing.T) {
	tests := []struct {
		name string
		in   *ast.Block
		want string
	}{
		{
			name: "nested mergeable blocks",
			in:   ast.Stmts(call("a"), mergeable(call("b"), mergeable(call("c"))), call("d")),
			want: "{\n    a();\n    b();\n    c();\n    d();\n}",
		},
		{
			name: "scopes are preserved",
			in:   ast.Stmts(ast.Stmts(call("a")), mergeable(call("b"))),
			want: "{\n    {\n        a();\n    }\n    b();\n}",
		},
		{
			name: "mergeable block under if stays braced",
			in: ast.Stmts(&ast.If{
				Cond: ast.Id("c"),
				Then: mergeable(call("a"), &ast.Goto{Label: "done"}),
			}),
			want: "{\n    if (c)\n    {\n        a();\n        goto done;\n    }\n}",
		},
		{
			name: "inside a plain block",
			in:   ast.Stmts(ast.Stmts(mergeable(call("a")), call("b"))),
			want: "{\n    {\n        a();\n        b();\n    }\n}",
		},
		{
			name: "clashing local keeps scope",
			in: ast.Stmts(
				&ast.LocalDecl{Name: "x", Type: "int", Init: ast.Int(1)},
				mergeable(&ast.LocalDecl{Name: "x", Type: "int", Init: ast.Int(2)}, call("a")),
			),
			want: "{\n    int x = 1;\n    {\n        int x = 2;\n        a();\n    }\n}",
		},
		{
			name: "local declared later keeps scope",
			in: ast.Stmts(
				mergeable(&ast.LocalDecl{Name: "x", Type: "int", Init: ast.Int(2)}, call("a")),
				&ast.LocalDecl{Name: "x", Type: "int", Init: ast.Int(1)},
			),
			want: "{\n    {\n        int x = 2;\n        a();\n    }\n    int x = 1;\n}",
		},
		{
			name: "local of a nested scope keeps scope",
			in: ast.Stmts(
				mergeable(&ast.LocalDecl{Name: "x", Type: "int"}),
				ast.Stmts(&ast.LocalDecl{Name: "x", Type: "int"}),
			),
			want: "{\n    {\n        int x;\n    }\n    {\n        int x;\n    }\n}",
		},
		{
			name: "distinct locals merge",
			in: ast.Stmts(
				mergeable(&ast.LocalDecl{Name: "x", Type: "int"}),
				&ast.LocalDecl{Name: "y", Type: "int"},
			),
			want: "{\n    int x;\n    int y;\n}",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			FlattenBlock(tt.in)
			assert.Equal(t, tt.want, ast.FormatStmt(tt.in))
		})
	}
}

func TestFlattenIsIdempotent(t *testing.T) {
	build := func() *ast.Block {
		return ast.Stmts(
			&ast.LocalDecl{Name: "r", Type: "int"},
			mergeable(
				&ast.If{Cond: ast.Id("c"), Then: mergeable(
					&ast.ExprStmt{X: &ast.Assign{Op: "=", L: ast.Id("r"), R: ast.Int(1)}},
					&ast.Goto{Label: "__M_exit1"},
				)},
				mergeable(call("log")),
				&ast.Labeled{Label: "__M_exit1", Stmt: &ast.Empty{}},
			),
			&ast.Return{X: ast.Id("r")},
		)
	}
	once := build()
	FlattenBlock(once)
	twice := build()
	FlattenBlock(twice)
	FlattenBlock(twice)
	assert.Equal(t, ast.FormatStmt(once), ast.FormatStmt(twice))
}

func TestFlattenProgram(t *testing.T) {
	p := &ast.Program{Types: []*ast.TypeDecl{{
		Name: "T",
		Members: []ast.Member{
			&ast.Method{Name: "M", Body: ast.Stmts(mergeable(call("a")))},
			&ast.Property{Name: "P", Type: "int",
				Getter: &ast.Accessor{Kind: ast.AccessorGet, Body: ast.Stmts(mergeable(&ast.Return{X: ast.Int(1)}))},
				Setter: &ast.Accessor{Kind: ast.AccessorSet}},
			&ast.Event{Name: "E", Type: "H",
				Adder:   &ast.Accessor{Kind: ast.AccessorAdd, Body: ast.Stmts(mergeable(call("add")))},
				Remover: &ast.Accessor{Kind: ast.AccessorRemove, Body: ast.Stmts(mergeable(call("remove")))}},
		},
	}}}
	Flatten(p)

	m := p.Types[0].Members[0].(*ast.Method)
	assert.Equal(t, "{\n    a();\n}", ast.FormatStmt(m.Body))
	prop := p.Types[0].Members[1].(*ast.Property)
	assert.Equal(t, "{\n    return 1;\n}", ast.FormatStmt(prop.Getter.Body))
	ev := p.Types[0].Members[2].(*ast.Event)
	assert.Equal(t, "{\n    add();\n}", ast.FormatStmt(ev.Adder.Body))
	assert.Equal(t, "{\n    remove();\n}", ast.FormatStmt(ev.Remover.Body))
}
