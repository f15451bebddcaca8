// Package rewrite decides what happens to every linked body and produces the
// final program.
//
// Each body of an override chain is discarded, inlined into its single
// caller, emitted as a trampoline or kept as a linked declaration. The
// decision is a pure function of the analysis registry: references form a
// graph, bodies unreachable from an emitted declaration are dead, and a body
// with exactly one live reference in a supported call shape is spliced at
// that reference.
package rewrite

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wippyai/aspect-linker/ast"
	"github.com/wippyai/aspect-linker/errors"
	"github.com/wippyai/aspect-linker/linker/internal/analysis"
	"github.com/wippyai/aspect-linker/linker/internal/graph"
	"github.com/wippyai/aspect-linker/linker/internal/introduce"
)

// Disposition is what happens to a body of an override chain.
type Disposition uint8

const (
	KeptLinked Disposition = iota
	InlinedIntoCaller
	Trampoline
	Discarded
)

func (d Disposition) String() string {
	switch d {
	case KeptLinked:
		return "kept-linked"
	case InlinedIntoCaller:
		return "inlined"
	case Trampoline:
		return "trampoline"
	case Discarded:
		return "discarded"
	}
	return fmt.Sprintf("disposition(%d)", uint8(d))
}

// Decision records the disposition of one body.
type Decision struct {
	Key         analysis.Key
	Body        string
	Disposition Disposition

	// Retained is set when an inlined body is also emitted standalone
	// because it must not be discarded.
	Retained bool

	// Into is the caller an inlined body was spliced into.
	Into     analysis.Key
	IntoName string

	// Emitted is the name of the emitted declaration, empty when the body
	// is not emitted.
	Emitted string
}

// Config carries the collaborators of Run.
type Config struct {
	Logger *zap.Logger

	// Concurrency bounds the types assembled at once. Zero or less means
	// unbounded.
	Concurrency int
}

// Result is the final program with the decision of every chain body.
type Result struct {
	Program   *ast.Program
	Decisions []Decision
}

type driver struct {
	intro *introduce.Registry
	an    *analysis.Registry
	refs  *graph.Graph[analysis.Key]

	// sites maps every placeholder to its reference
	sites map[*ast.AspectRef]*analysis.Reference

	// inlined maps a body to the reference it is spliced at
	inlined map[analysis.Key]*analysis.Reference

	decisions map[analysis.Key]*Decision

	// source is the name of the original implementation alias per root
	source map[ast.TrackingID]string

	// events maps a type to its overridden field-like events and their
	// backing fields
	events map[*ast.TypeDecl]map[string]string
}

// Run links every body and assembles the final program. The registries are
// only read.
func Run(ctx context.Context, intro *introduce.Registry, an *analysis.Registry, cfg Config) (*Result, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.PhaseRewrite, errors.KindCanceled, err, "rewrite canceled")
	}
	start := time.Now()

	d := &driver{
		intro:     intro,
		an:        an,
		sites:     make(map[*ast.AspectRef]*analysis.Reference),
		inlined:   make(map[analysis.Key]*analysis.Reference),
		decisions: make(map[analysis.Key]*Decision),
		source:    make(map[ast.TrackingID]string),
		events:    make(map[*ast.TypeDecl]map[string]string),
	}
	if err := d.buildGraph(); err != nil {
		return nil, err
	}
	d.chooseInlining()
	d.decide()
	d.nameRoots()

	for _, b := range an.Bodies() {
		dec, ok := d.decisions[b.Key]
		if !ok {
			continue
		}
		log.Debug("disposition",
			zap.String("body", dec.Body),
			zap.Stringer("semantic", dec.Key.Semantic),
			zap.Stringer("disposition", dec.Disposition),
			zap.Bool("retained", dec.Retained))
	}

	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.PhaseRewrite, errors.KindCanceled, err, "rewrite canceled")
	}

	types := intro.Program().Types
	out := make([]*ast.TypeDecl, len(types))
	g, gctx := errgroup.WithContext(ctx)
	if cfg.Concurrency > 0 {
		g.SetLimit(cfg.Concurrency)
	}
	for i, t := range types {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			nt, err := d.assemble(t)
			if err != nil {
				return err
			}
			out[i] = nt
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrap(errors.PhaseRewrite, errors.KindCanceled, ctx.Err(), "rewrite canceled")
		}
		return nil, err
	}

	res := &Result{Program: &ast.Program{Types: out}}
	for _, b := range an.Bodies() {
		if dec, ok := d.decisions[b.Key]; ok {
			res.Decisions = append(res.Decisions, *dec)
		}
	}
	log.Debug("rewrite complete",
		zap.Int("types", len(out)),
		zap.Int("decisions", len(res.Decisions)),
		zap.Int("inlined", len(d.inlined)),
		zap.Duration("elapsed", time.Since(start)))
	return res, nil
}

func (d *driver) buildGraph() error {
	d.refs = graph.New[analysis.Key]()
	bodies := d.an.Bodies()
	for _, b := range bodies {
		root := !b.Participating() || b.Key.Semantic == analysis.SemanticPublic || b.Options.ForceNotDiscardable
		d.refs.AddNode(b.Key, root)
	}
	for _, b := range bodies {
		for _, r := range b.Refs {
			d.sites[r.Site] = r
			if !r.Linked {
				continue
			}
			if _, ok := d.an.Body(r.To); !ok {
				return errors.New(errors.PhaseRewrite, errors.KindMissingChainEntry).
					Decl(b.Name()).Layer(string(r.Ref.Layer)).
					Detail("%s resolves to %s %s, which has no body", r.Site, r.To.Semantic, r.Ref.Accessor).Build()
			}
			d.refs.AddEdge(b.Key, r.To, r.Counted)
		}
	}
	d.refs.Freeze()
	return nil
}

// chooseInlining selects the bodies spliced at their single live reference.
func (d *driver) chooseInlining() {
	bodies := d.an.Bodies()
	for _, b := range bodies {
		if !b.Participating() || b.Key.Semantic == analysis.SemanticPublic {
			continue
		}
		if b.Options.ForceNotInlineable || !d.refs.IsLive(b.Key) {
			continue
		}
		in := d.refs.LiveIncoming(b.Key)
		if len(in) != 1 {
			continue
		}
		ref := d.incoming(in[0].From, b.Key)
		if ref == nil || !ref.Inlineable() || writesParams(b.Block, b.Params) {
			continue
		}
		d.inlined[b.Key] = ref
	}

	// A body cannot be spliced into itself through a cycle of splices.
	for _, b := range bodies {
		ref, ok := d.inlined[b.Key]
		if !ok {
			continue
		}
		seen := map[analysis.Key]bool{}
		for cur := ref.From; !seen[cur]; {
			if cur == b.Key {
				delete(d.inlined, b.Key)
				break
			}
			seen[cur] = true
			next, ok := d.inlined[cur]
			if !ok {
				break
			}
			cur = next.From
		}
	}
}

// incoming returns the counted reference of from to to.
func (d *driver) incoming(from, to analysis.Key) *analysis.Reference {
	b, ok := d.an.Body(from)
	if !ok {
		return nil
	}
	for _, r := range b.Refs {
		if r.Linked && r.Counted && r.To == to {
			return r
		}
	}
	return nil
}

func (d *driver) decide() {
	for _, b := range d.an.Bodies() {
		if !b.Participating() {
			continue
		}
		dec := &Decision{Key: b.Key, Body: b.Name()}
		switch {
		case b.Key.Semantic == analysis.SemanticPublic:
			dec.Disposition = Trampoline
			if head, ok := d.inlined[b.Refs[0].To]; ok && head.From == b.Key {
				dec.Disposition = KeptLinked
			}
		case d.inlined[b.Key] != nil:
			ref := d.inlined[b.Key]
			dec.Disposition = InlinedIntoCaller
			dec.Retained = b.Options.ForceNotDiscardable
			dec.Into = ref.From
			if caller, ok := d.an.Body(ref.From); ok {
				dec.IntoName = caller.Name()
			}
		case !d.refs.IsLive(b.Key):
			dec.Disposition = Discarded
		default:
			dec.Disposition = KeptLinked
		}
		d.decisions[b.Key] = dec
	}
}

// nameRoots picks the alias of every root's original implementation and
// records which field-like events move to a backing field.
func (d *driver) nameRoots() {
	for _, id := range d.intro.Roots() {
		root, _ := d.intro.Decl(id)
		taken := map[string]bool{}
		for _, m := range root.Type.Members {
			taken[m.MemberName()] = true
		}
		base := root.Member.MemberName() + "_Source"
		name := base
		for i := 2; taken[name]; i++ {
			name = fmt.Sprintf("%s%d", base, i)
		}
		d.source[id] = name

		if ev, ok := root.Member.(*ast.Event); ok && ev.IsFieldLike() {
			if d.events[root.Type] == nil {
				d.events[root.Type] = map[string]string{}
			}
			d.events[root.Type][ev.Name] = analysis.BackingField(ev.Name)
		}
	}
	for key, dec := range d.decisions {
		b, _ := d.an.Body(key)
		if !d.emitted(key) {
			continue
		}
		switch key.Semantic {
		case analysis.SemanticPublic:
			dec.Emitted = b.Decl.Member.MemberName()
		case analysis.SemanticOriginal:
			dec.Emitted = d.source[b.Root]
		default:
			dec.Emitted = b.Decl.Member.MemberName()
		}
	}
}

// emitted reports whether a chain body is emitted as a declaration.
func (d *driver) emitted(k analysis.Key) bool {
	dec, ok := d.decisions[k]
	if !ok {
		return true
	}
	switch dec.Disposition {
	case KeptLinked, Trampoline:
		return true
	case InlinedIntoCaller:
		return dec.Retained
	}
	return false
}

// writesParams reports whether b assigns to or redeclares a parameter. Once
// spliced, parameters are the caller's arguments.
func writesParams(b *ast.Block, params []ast.Param) bool {
	if len(params) == 0 {
		return false
	}
	names := make(map[string]bool, len(params))
	for _, p := range params {
		names[p.Name] = true
	}
	found := false
	ast.Inspect(b, func(n ast.Node) bool {
		switch x := n.(type) {
		case *ast.Assign:
			if id, ok := x.L.(*ast.Ident); ok && names[id.Name] {
				found = true
			}
		case *ast.LocalDecl:
			if names[x.Name] {
				found = true
			}
		}
		return !found
	})
	return found
}
