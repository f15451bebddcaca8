package source

import (
	"github.com/wippyai/aspect-linker/ast"
	"github.com/wippyai/aspect-linker/source/internal/parser"
	"github.com/wippyai/aspect-linker/source/internal/token"
)

// Parse parses a complete `(program ...)` form.
func Parse(text string) (*ast.Program, error) {
	p := parser.New(token.Tokenize(text))
	prog, err := p.ParseProgram()
	if err != nil {
		return nil, err
	}
	if err := p.Done(); err != nil {
		return nil, err
	}
	return prog, nil
}

// ParseMember parses a single member declaration.
func ParseMember(text string) (ast.Member, error) {
	p := parser.New(token.Tokenize(text))
	m, err := p.ParseMember()
	if err != nil {
		return nil, err
	}
	if err := p.Done(); err != nil {
		return nil, err
	}
	return m, nil
}

// ParseBlock parses a sequence of statements into a block.
func ParseBlock(text string) (*ast.Block, error) {
	return parser.New(token.Tokenize(text)).ParseStatements()
}

// ParseExpr parses a single expression.
func ParseExpr(text string) (ast.Expr, error) {
	p := parser.New(token.Tokenize(text))
	e, err := p.ParseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.Done(); err != nil {
		return nil, err
	}
	return e, nil
}
