// Package cleanup flattens the blocks splicing leaves behind.
package cleanup

import (
	"github.com/wippyai/aspect-linker/ast"
)

// Flatten merges, in every body of p, each mergeable block that is a direct
// statement of another block into that block. Blocks whose locals would
// clash with other locals of the enclosing block stay nested.
// The program is modified in place.
func Flatten(p *ast.Program) {
	for _, t := range p.Types {
		for _, m := range t.Members {
			switch d := m.(type) {
			case *ast.Method:
				FlattenBlock(d.Body)
			case *ast.Property:
				flattenAccessor(d.Getter)
				flattenAccessor(d.Setter)
			case *ast.Event:
				flattenAccessor(d.Adder)
				flattenAccessor(d.Remover)
			}
		}
	}
}

func flattenAccessor(a *ast.Accessor) {
	if a != nil {
		FlattenBlock(a.Body)
	}
}

// FlattenBlock flattens b and every block nested in it.
func FlattenBlock(b *ast.Block) {
	if b == nil {
		return
	}
	// A local is in scope across its whole block, so a merged local must not
	// share a name with any other local of b, before or after it.
	declared := countLocals(b)
	out := make([]ast.Stmt, 0, len(b.Stmts))
	for _, s := range b.Stmts {
		flattenStmt(s)
		if inner, ok := s.(*ast.Block); ok && inner.Mergeable && !clashes(inner, declared) {
			out = append(out, inner.Stmts...)
			continue
		}
		out = append(out, s)
	}
	b.Stmts = out
}

func flattenStmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.Block:
		FlattenBlock(n)
	case *ast.If:
		flattenStmt(n.Then)
		if n.Else != nil {
			flattenStmt(n.Else)
		}
	case *ast.While:
		flattenStmt(n.Body)
	case *ast.Labeled:
		if n.Stmt != nil {
			flattenStmt(n.Stmt)
		}
	}
}

// countLocals counts the local declarations of every name in n.
func countLocals(n ast.Node) map[string]int {
	out := map[string]int{}
	ast.Inspect(n, func(n ast.Node) bool {
		if d, ok := n.(*ast.LocalDecl); ok {
			out[d.Name]++
		}
		return true
	})
	return out
}

// clashes reports whether a local declared directly by b is also declared
// somewhere in the enclosing block outside b.
func clashes(b *ast.Block, declared map[string]int) bool {
	own := countLocals(b)
	for _, s := range b.Stmts {
		if d, ok := s.(*ast.LocalDecl); ok && declared[d.Name] > own[d.Name] {
			return true
		}
	}
	return false
}
