package resolve

import (
	"github.com/wippyai/aspect-linker/ast"
	"github.com/wippyai/aspect-linker/errors"
	"github.com/wippyai/aspect-linker/linker/internal/introduce"
)

// Resolver maps placeholders to targets. It is safe for concurrent use.
type Resolver struct {
	reg *introduce.Registry
	// byName indexes declared members per type so the ancestor scan
	// compares signatures only for members with the right name.
	byName map[*ast.TypeDecl]map[string][]ast.Member
}

// New creates a resolver over a frozen introduction registry.
func New(reg *introduce.Registry) *Resolver {
	r := &Resolver{reg: reg, byName: make(map[*ast.TypeDecl]map[string][]ast.Member)}
	for _, t := range reg.Program().Types {
		idx := make(map[string][]ast.Member)
		for _, m := range t.Members {
			idx[m.MemberName()] = append(idx[m.MemberName()], m)
		}
		r.byName[t] = idx
	}
	return r
}

// Resolve returns the version of referenced that a placeholder written in
// containing must reach.
//
//   - Default: the newest version below the placeholder's layer. Inside a
//     chain entry this is the previous entry. With no such version the
//     original implementation runs.
//   - Base: like Default, but when the declaration did not exist below the
//     placeholder's layer it falls back to the ancestor member it overrides
//     or hides, else to the declaration unchanged.
//   - Original: the original implementation.
//   - Final: the public declaration, which runs the outermost version.
func (r *Resolver) Resolve(containing, referenced introduce.Declaration, ref *ast.AspectRef) (Target, error) {
	lp, ok := r.reg.Layers().Index(ref.Layer)
	if !ok {
		e := errors.UnknownLayer(errors.PhaseResolve, string(ref.Layer))
		e.Decl = containing.Name()
		return nil, e
	}

	root := referenced
	if r.reg.IsOverride(referenced.ID) {
		im, _ := r.reg.Introduced(referenced.ID)
		d, ok := r.reg.Decl(im.Root)
		if !ok {
			return nil, errors.MissingChainEntry(errors.PhaseResolve, referenced.Name(), "override without root")
		}
		root = d
	}
	participating := r.reg.IsRoot(root.ID)
	chain := r.reg.AccessorChain(root.ID, ref.Accessor)

	switch ref.Order {
	case ast.OrderOriginal:
		if !participating {
			return Unchanged{Decl: root}, nil
		}
		return OriginalBody{Root: root}, nil

	case ast.OrderFinal:
		if !participating {
			return Unchanged{Decl: root}, nil
		}
		pd := PublicDecl{Root: root}
		if len(chain) > 0 {
			pd.Outermost = chain[len(chain)-1]
		}
		return pd, nil

	case ast.OrderDefault:
		if e := below(chain, containing.ID, lp); e != nil {
			return ChainEntry{Entry: e}, nil
		}
		if !participating {
			return Unchanged{Decl: root}, nil
		}
		return OriginalBody{Root: root}, nil

	case ast.OrderBase:
		if e := below(chain, containing.ID, lp); e != nil {
			return ChainEntry{Entry: e}, nil
		}
		if r.reg.RootLayerIndex(root.ID) < lp {
			if !participating {
				return Unchanged{Decl: root}, nil
			}
			return OriginalBody{Root: root}, nil
		}
		if t, m := r.ancestorMember(root); m != nil {
			return BaseMember{Type: t, Member: m}, nil
		}
		return Unchanged{Decl: root}, nil
	}
	return nil, errors.UnhandledKind(errors.PhaseResolve, containing.Name(), ref.Order)
}

// below returns the chain entry visible under layer lp. When the containing
// declaration is itself in the chain, its predecessor is returned.
func below(chain []*introduce.IntroducedMember, containing ast.TrackingID, lp int) *introduce.IntroducedMember {
	for i, e := range chain {
		if e.ID == containing {
			if i == 0 {
				return nil
			}
			return chain[i-1]
		}
	}
	for i := len(chain) - 1; i >= 0; i-- {
		if chain[i].LayerIndex < lp {
			return chain[i]
		}
	}
	return nil
}

// ancestorMember finds the base-type member root overrides, else the nearest
// same-signature member it hides. Ancestors are scanned nearest first.
func (r *Resolver) ancestorMember(root introduce.Declaration) (*ast.TypeDecl, ast.Member) {
	sig := ast.SignatureOf(root.Member)
	ancestors := r.reg.Program().Ancestors(root.Type)
	if root.Member.Modifiers().Has(ast.ModOverride) {
		for _, anc := range ancestors {
			for _, m := range r.byName[anc][sig.Name] {
				mods := m.Modifiers()
				if ast.SignatureOf(m) == sig && (mods.Has(ast.ModVirtual) || mods.Has(ast.ModAbstract) || mods.Has(ast.ModOverride)) {
					return anc, m
				}
			}
		}
	}
	for _, anc := range ancestors {
		for _, m := range r.byName[anc][sig.Name] {
			if ast.SignatureOf(m) == sig {
				return anc, m
			}
		}
	}
	return nil, nil
}
