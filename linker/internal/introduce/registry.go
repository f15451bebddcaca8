package introduce

import (
	"sync/atomic"

	"github.com/wippyai/aspect-linker/aspect"
	"github.com/wippyai/aspect-linker/ast"
)

// Declaration is a member of the intermediate program with its owning type.
type Declaration struct {
	Type   *ast.TypeDecl
	Member ast.Member
	ID     ast.TrackingID
}

// Name returns "Type.Member".
func (d Declaration) Name() string {
	if d.Type == nil || d.Member == nil {
		return ""
	}
	return d.Type.Name + "." + d.Member.MemberName()
}

// IntroducedMember is the metadata of a member generated by a transformation.
// It is never modified after Run returns.
type IntroducedMember struct {
	Member     ast.Member
	Type       *ast.TypeDecl
	Layer      ast.LayerID
	Position   aspect.Position
	Options    aspect.Options
	LayerIndex int
	Root       ast.TrackingID
	ID         ast.TrackingID
	Kind       aspect.IntroductionKind
}

// Declaration returns the intermediate declaration of the member.
func (m *IntroducedMember) Declaration() Declaration {
	return Declaration{Type: m.Type, Member: m.Member, ID: m.ID}
}

// Registry is the frozen result of introduction: the intermediate program,
// its override chains and the metadata of every tracked declaration.
type Registry struct {
	program   *ast.Program
	layers    *aspect.LayerOrder
	rules     aspect.OptionSet
	decls     map[ast.TrackingID]Declaration
	members   map[ast.TrackingID]*IntroducedMember
	chains    map[ast.TrackingID][]*IntroducedMember
	rootLayer map[ast.TrackingID]int
	origin    map[ast.Member]ast.TrackingID
	roots     []ast.TrackingID
	ids       atomic.Uint64
}

func newRegistry(layers *aspect.LayerOrder, rules aspect.OptionSet) *Registry {
	return &Registry{
		layers:    layers,
		rules:     rules,
		decls:     make(map[ast.TrackingID]Declaration),
		members:   make(map[ast.TrackingID]*IntroducedMember),
		chains:    make(map[ast.TrackingID][]*IntroducedMember),
		rootLayer: make(map[ast.TrackingID]int),
		origin:    make(map[ast.Member]ast.TrackingID),
	}
}

func (r *Registry) nextID() ast.TrackingID {
	return ast.TrackingID(r.ids.Add(1))
}

// Program returns the intermediate program. Callers must not modify it.
func (r *Registry) Program() *ast.Program { return r.program }

// Layers returns the layer order.
func (r *Registry) Layers() *aspect.LayerOrder { return r.layers }

// Decl returns the declaration with the given tracking id.
func (r *Registry) Decl(id ast.TrackingID) (Declaration, bool) {
	d, ok := r.decls[id]
	return d, ok
}

// DeclOf returns the declaration of an intermediate member.
func (r *Registry) DeclOf(m ast.Member) (Declaration, bool) {
	return r.Decl(ast.MetaOf(m).Tracking)
}

// Introduced returns the metadata of an introduced member.
func (r *Registry) Introduced(id ast.TrackingID) (*IntroducedMember, bool) {
	m, ok := r.members[id]
	return m, ok
}

// Chain returns the override chain of root in layer order. The slice is
// shared and must not be modified.
func (r *Registry) Chain(root ast.TrackingID) []*IntroducedMember {
	return r.chains[root]
}

// AccessorChain returns the entries of root's chain that declare accessor kind.
func (r *Registry) AccessorChain(root ast.TrackingID, kind ast.AccessorKind) []*IntroducedMember {
	var out []*IntroducedMember
	for _, e := range r.chains[root] {
		if ast.HasAccessor(e.Member, kind) {
			out = append(out, e)
		}
	}
	return out
}

// Roots returns every overridden declaration in program order.
func (r *Registry) Roots() []ast.TrackingID {
	return append([]ast.TrackingID(nil), r.roots...)
}

// IsRoot reports whether id has a non-empty override chain.
func (r *Registry) IsRoot(id ast.TrackingID) bool { return len(r.chains[id]) > 0 }

// IsOverride reports whether id is an entry of some override chain.
func (r *Registry) IsOverride(id ast.TrackingID) bool {
	m, ok := r.members[id]
	return ok && m.Kind == aspect.Override
}

// RootLayerIndex returns the index of the layer that introduced the
// declaration, or -1 for declarations of the input program.
func (r *Registry) RootLayerIndex(id ast.TrackingID) int {
	if i, ok := r.rootLayer[id]; ok {
		return i
	}
	return -1
}

// Options returns the linker options of a declaration: those carried by its
// introduction merged with every matching rule.
func (r *Registry) Options(id ast.TrackingID) aspect.Options {
	d, ok := r.decls[id]
	if !ok {
		return aspect.Options{}
	}
	opts := r.rules.Lookup(d.Type.Name, d.Member.MemberName())
	if m, ok := r.members[id]; ok {
		opts = opts.Merge(m.Options)
	}
	return opts
}

// Intermediate maps a member of the input program to its intermediate copy.
func (r *Registry) Intermediate(orig ast.Member) (Declaration, bool) {
	id, ok := r.origin[orig]
	if !ok {
		return Declaration{}, false
	}
	return r.Decl(id)
}
