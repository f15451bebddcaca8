// Package linktest builds intermediate programs for the linker phase tests.
package linktest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wippyai/aspect-linker/aspect"
	"github.com/wippyai/aspect-linker/ast"
	"github.com/wippyai/aspect-linker/linker/internal/introduce"
	"github.com/wippyai/aspect-linker/source"
)

// Program parses a program or fails the test.
func Program(t testing.TB, text string) *ast.Program {
	t.Helper()
	p, err := source.Parse(text)
	require.NoError(t, err)
	return p
}

// Layers builds a layer order or fails the test.
func Layers(t testing.TB, ids ...ast.LayerID) *aspect.LayerOrder {
	t.Helper()
	o, err := aspect.NewLayerOrder(ids...)
	require.NoError(t, err)
	return o
}

// Template parses a member template or fails the test.
func Template(t testing.TB, text string) ast.Member {
	t.Helper()
	m, err := source.ParseMember(text)
	require.NoError(t, err)
	return m
}

// Override returns an override of typ.target generated from template.
func Override(t testing.TB, layer ast.LayerID, typ, target, template string) *aspect.MemberIntroduction {
	t.Helper()
	return &aspect.MemberIntroduction{
		Generator: aspect.TemplateGenerator{Template: Template(t, template)},
		Layer:     layer,
		Type:      typ,
		Target:    target,
		Kind:      aspect.Override,
	}
}

// Introduce returns an introduction of a new member at the end of typ.
func Introduce(t testing.TB, layer ast.LayerID, typ, template string) *aspect.MemberIntroduction {
	t.Helper()
	return &aspect.MemberIntroduction{
		Generator: aspect.TemplateGenerator{Template: Template(t, template)},
		Layer:     layer,
		Type:      typ,
		Kind:      aspect.Introduce,
	}
}

// Run applies transformations to program and fails the test on error.
func Run(t testing.TB, program string, layers []ast.LayerID, trs ...aspect.Transformation) *introduce.Registry {
	t.Helper()
	reg, err := introduce.Run(context.Background(), Program(t, program), Layers(t, layers...), trs, introduce.Config{})
	require.NoError(t, err)
	return reg
}

// Member returns the declaration named member of typ.
func Member(t testing.TB, reg *introduce.Registry, typ, member string) introduce.Declaration {
	t.Helper()
	td := reg.Program().Type(typ)
	require.NotNil(t, td, "type %s", typ)
	ms := td.FindMembers(member)
	require.Len(t, ms, 1, "member %s.%s", typ, member)
	d, ok := reg.DeclOf(ms[0])
	require.True(t, ok)
	return d
}
