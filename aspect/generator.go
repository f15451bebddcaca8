package aspect

import (
	"sort"
	"strconv"

	"github.com/wippyai/aspect-linker/ast"
)

// Generator produces the member of an introduction.
type Generator interface {
	Generate(ctx *GenerationContext) (ast.Member, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx *GenerationContext) (ast.Member, error)

// Generate calls f(ctx).
func (f GeneratorFunc) Generate(ctx *GenerationContext) (ast.Member, error) {
	return f(ctx)
}

// GenerationContext is handed to generators. Its private-name scope holds
// every name already used by the bodies the generated member will be
// combined with, so generated locals never collide after inlining.
type GenerationContext struct {
	// Type is the target type as it stands when the introduction runs.
	Type *ast.TypeDecl
	// Target is the overridden declaration, or nil.
	Target ast.Member
	// Name is the member name the generated declaration must carry.
	Name  string
	Layer ast.LayerID
	used  map[string]bool
}

// NewGenerationContext creates a context with the given used names.
func NewGenerationContext(t *ast.TypeDecl, target ast.Member, layer ast.LayerID, name string, used map[string]bool) *GenerationContext {
	scope := make(map[string]bool, len(used))
	for n := range used {
		scope[n] = true
	}
	return &GenerationContext{Type: t, Target: target, Layer: layer, Name: name, used: scope}
}

// IsUsed reports whether name is taken in the private scope.
func (c *GenerationContext) IsUsed(name string) bool { return c.used[name] }

// Reserve marks name as taken.
func (c *GenerationContext) Reserve(name string) { c.used[name] = true }

// FreshName returns base, or base followed by the smallest counter that is
// not taken, and reserves it.
func (c *GenerationContext) FreshName(base string) string {
	name := base
	for i := 1; c.used[name]; i++ {
		name = base + strconv.Itoa(i)
	}
	c.used[name] = true
	return name
}

// UsedNames returns the private scope in sorted order.
func (c *GenerationContext) UsedNames() []string {
	out := make([]string, 0, len(c.used))
	for n := range c.used {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// TemplateGenerator instantiates a member template. The copy is renamed to
// the context name, its parameters are aligned with the overridden method,
// and locals colliding with the private scope are renamed.
type TemplateGenerator struct {
	Template ast.Member
}

// Generate implements Generator.
func (g TemplateGenerator) Generate(ctx *GenerationContext) (ast.Member, error) {
	m := ast.CloneMember(g.Template)
	renames := map[string]string{}

	if meth, ok := m.(*ast.Method); ok {
		if target, ok := ctx.Target.(*ast.Method); ok && len(target.Params) == len(meth.Params) {
			for i := range meth.Params {
				if from, to := meth.Params[i].Name, target.Params[i].Name; from != to {
					renames[from] = to
					meth.Params[i].Name = to
				}
			}
		}
		if ctx.Name != "" {
			meth.Name = ctx.Name
		}
	}

	for _, acc := range ast.Accessors(m) {
		for _, p := range ast.ParamsOf(m, acc.Kind) {
			ctx.Reserve(p.Name)
		}
	}
	for _, acc := range ast.Accessors(m) {
		if acc.Body == nil {
			continue
		}
		for _, local := range ast.DeclaredLocals(acc.Body) {
			if _, done := renames[local]; done {
				continue
			}
			if ctx.IsUsed(local) {
				renames[local] = ctx.FreshName(local)
			} else {
				ctx.Reserve(local)
			}
		}
	}

	rename(m, renames, ctx.Name)
	return m, nil
}

func rename(m ast.Member, renames map[string]string, name string) {
	switch d := m.(type) {
	case *ast.Method:
		ast.RenameLocals(d.Body, renames)
	case *ast.Property:
		if name != "" {
			d.Name = name
		}
		for _, a := range []*ast.Accessor{d.Getter, d.Setter} {
			if a != nil {
				ast.RenameLocals(a.Body, renames)
			}
		}
	case *ast.Event:
		if name != "" {
			d.Name = name
		}
		for _, a := range []*ast.Accessor{d.Adder, d.Remover} {
			if a != nil {
				ast.RenameLocals(a.Body, renames)
			}
		}
	case *ast.Field:
		if name != "" {
			d.Name = name
		}
	}
}
