package introduce

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/aspect-linker/aspect"
	"github.com/wippyai/aspect-linker/ast"
	"github.com/wippyai/aspect-linker/errors"
)

// Config carries the collaborators of Run.
type Config struct {
	Logger *zap.Logger
	Rules  aspect.OptionSet
}

// Run clones program, applies every transformation in layer order and
// freezes the resulting chains. The input program is not modified.
func Run(ctx context.Context, program *ast.Program, layers *aspect.LayerOrder, transformations []aspect.Transformation, cfg Config) (*Registry, error) {
	if program == nil {
		return nil, errors.InvalidInput(errors.PhaseIntroduce, []string{"program"}, "program is nil")
	}
	if layers == nil {
		return nil, errors.InvalidInput(errors.PhaseIntroduce, []string{"layers"}, "layer order is nil")
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := newRegistry(layers, cfg.Rules)
	r.program = ast.CloneProgram(program)
	for ti, t := range r.program.Types {
		t.Tracking = r.nextID()
		for mi, m := range t.Members {
			id := r.nextID()
			ast.MetaOf(m).Tracking = id
			r.decls[id] = Declaration{Type: t, Member: m, ID: id}
			r.origin[program.Types[ti].Members[mi]] = id
			reissueRefs(m)
		}
	}

	ordered, err := sortByLayer(layers, transformations)
	if err != nil {
		return nil, err
	}

	for _, step := range ordered {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(errors.PhaseIntroduce, errors.KindCanceled, err, "introduction canceled")
		}
		switch tr := step.t.(type) {
		case *aspect.InterfaceIntroduction:
			if err := r.introduceInterfaces(tr); err != nil {
				return nil, err
			}
		case *aspect.MemberIntroduction:
			if err := r.introduceMember(tr, step.index); err != nil {
				return nil, err
			}
			log.Debug("member introduced",
				zap.String("layer", string(tr.Layer)),
				zap.String("type", tr.Type),
				zap.Stringer("kind", tr.Kind),
				zap.String("target", tr.Target))
		default:
			return nil, errors.UnhandledKind(errors.PhaseIntroduce, "", fmt.Sprintf("%T", step.t))
		}
	}

	r.collectRoots()
	log.Debug("introduction complete",
		zap.Int("types", len(r.program.Types)),
		zap.Int("introduced", len(r.members)),
		zap.Int("chains", len(r.roots)))
	return r, nil
}

type step struct {
	t     aspect.Transformation
	index int
}

// sortByLayer validates layer ids and orders transformations by layer,
// keeping the supplied order within a layer.
func sortByLayer(layers *aspect.LayerOrder, ts []aspect.Transformation) ([]step, error) {
	out := make([]step, 0, len(ts))
	for _, t := range ts {
		if t == nil {
			return nil, errors.InvalidInput(errors.PhaseIntroduce, []string{"transformations"}, "nil transformation")
		}
		i, ok := layers.Index(t.LayerID())
		if !ok {
			return nil, errors.UnknownLayer(errors.PhaseIntroduce, string(t.LayerID()))
		}
		out = append(out, step{t: t, index: i})
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].index < out[b].index })
	return out, nil
}

func (r *Registry) introduceInterfaces(tr *aspect.InterfaceIntroduction) error {
	t := r.program.Type(tr.Type)
	if t == nil {
		return errors.InsertionPoint(string(tr.Layer), tr.Type, "unknown type")
	}
	for _, iface := range tr.Interfaces {
		present := false
		for _, have := range t.Interfaces {
			if have == iface {
				present = true
				break
			}
		}
		if !present {
			t.Interfaces = append(t.Interfaces, iface)
		}
	}
	return nil
}

func (r *Registry) introduceMember(tr *aspect.MemberIntroduction, layerIndex int) error {
	if tr.Generator == nil {
		return errors.InvalidInput(errors.PhaseIntroduce, []string{tr.Type}, "introduction without generator")
	}
	t := r.program.Type(tr.Type)
	if t == nil {
		return errors.InsertionPoint(string(tr.Layer), tr.Type, "unknown type")
	}
	if tr.Kind == aspect.Override {
		return r.introduceOverride(tr, t, layerIndex)
	}

	var target ast.Member
	if tr.Kind == aspect.IntroduceOverride || tr.Kind == aspect.IntroduceNew {
		target = r.findHidden(t, tr.Target)
		if target == nil {
			return errors.InsertionPoint(string(tr.Layer), tr.Type+"."+tr.Target, "no base member to override or hide")
		}
	}
	gctx := aspect.NewGenerationContext(t, target, tr.Layer, tr.Target, memberNames(t))
	m, err := tr.Generator.Generate(gctx)
	if err != nil {
		return errors.New(errors.PhaseIntroduce, errors.KindInvalidInput).
			Layer(string(tr.Layer)).Decl(tr.Type).Cause(err).Detail("generator failed").Build()
	}
	if m == nil {
		return errors.InvalidInput(errors.PhaseIntroduce, []string{tr.Type}, "generator returned no member")
	}
	switch tr.Kind {
	case aspect.IntroduceOverride:
		if target.Kind() != m.Kind() {
			return errors.InsertionPoint(string(tr.Layer), tr.Type+"."+tr.Target, "kind mismatch with overridden base member")
		}
		setModifiers(m, (m.Modifiers()&^ast.ModNew)|ast.ModOverride)
	case aspect.IntroduceNew:
		setModifiers(m, (m.Modifiers()&^(ast.ModOverride|ast.ModVirtual))|ast.ModNew)
	}
	for _, existing := range t.FindMembers(m.MemberName()) {
		if ast.SignatureOf(existing) == ast.SignatureOf(m) {
			return errors.InsertionPoint(string(tr.Layer), tr.Type+"."+m.MemberName(), "member already declared")
		}
	}

	at, err := r.insertionIndex(t, tr)
	if err != nil {
		return err
	}
	im := r.track(tr, t, m, layerIndex, 0)
	insertMember(t, at, m)
	r.rootLayer[im.ID] = layerIndex
	return nil
}

func (r *Registry) introduceOverride(tr *aspect.MemberIntroduction, t *ast.TypeDecl, layerIndex int) error {
	target, err := r.findTarget(t, tr)
	if err != nil {
		return err
	}
	rootID := ast.MetaOf(target).Tracking
	chain := r.chains[rootID]

	name := r.overrideName(t, target.MemberName(), tr.Layer)
	gctx := aspect.NewGenerationContext(t, target, tr.Layer, name, r.chainScope(t, target, chain))
	m, err := tr.Generator.Generate(gctx)
	if err != nil {
		return errors.New(errors.PhaseIntroduce, errors.KindInvalidInput).
			Layer(string(tr.Layer)).Decl(t.Name + "." + target.MemberName()).Cause(err).Detail("generator failed").Build()
	}
	if m == nil {
		return errors.InvalidInput(errors.PhaseIntroduce, []string{t.Name, target.MemberName()}, "generator returned no member")
	}
	if m.Kind() != target.Kind() || m.Kind() == ast.KindField {
		return errors.InsertionPoint(string(tr.Layer), t.Name+"."+target.MemberName(),
			fmt.Sprintf("cannot override %s with %s", target.Kind(), m.Kind()))
	}
	for _, acc := range ast.Accessors(m) {
		if !ast.HasAccessor(target, acc.Kind) {
			return errors.InsertionPoint(string(tr.Layer), t.Name+"."+target.MemberName(),
				fmt.Sprintf("target declares no %s accessor", acc.Kind))
		}
		if acc.Body == nil {
			return errors.InsertionPoint(string(tr.Layer), t.Name+"."+target.MemberName(),
				fmt.Sprintf("override %s accessor has no body", acc.Kind))
		}
	}
	setName(m, name)
	mods := ast.ModPrivate
	if target.Modifiers().Has(ast.ModStatic) {
		mods |= ast.ModStatic
	}
	setModifiers(m, mods)

	prev := target
	if len(chain) > 0 {
		prev = chain[len(chain)-1].Member
	}
	im := r.track(tr, t, m, layerIndex, rootID)
	insertMember(t, t.IndexOf(prev)+1, m)
	r.chains[rootID] = append(chain, im)
	return nil
}

func (r *Registry) track(tr *aspect.MemberIntroduction, t *ast.TypeDecl, m ast.Member, layerIndex int, root ast.TrackingID) *IntroducedMember {
	id := r.nextID()
	ast.MetaOf(m).Tracking = id
	reissueRefs(m)
	im := &IntroducedMember{
		Member:     m,
		Type:       t,
		Layer:      tr.Layer,
		Position:   tr.Position,
		Options:    tr.Options,
		LayerIndex: layerIndex,
		Root:       root,
		ID:         id,
		Kind:       tr.Kind,
	}
	r.members[id] = im
	r.decls[id] = Declaration{Type: t, Member: m, ID: id}
	return im
}

// findTarget locates the declaration an override targets. Overrides of
// overrides are not allowed, so chain entries are skipped.
func (r *Registry) findTarget(t *ast.TypeDecl, tr *aspect.MemberIntroduction) (ast.Member, error) {
	name, params, hasParams := strings.Cut(tr.Target, "(")
	params = strings.TrimSuffix(params, ")")
	var found []ast.Member
	for _, m := range t.FindMembers(name) {
		if r.IsOverride(ast.MetaOf(m).Tracking) {
			continue
		}
		if hasParams && ast.SignatureOf(m).Params != strings.ReplaceAll(params, " ", "") {
			continue
		}
		found = append(found, m)
	}
	switch len(found) {
	case 0:
		return nil, errors.InsertionPoint(string(tr.Layer), t.Name+"."+tr.Target, "overridden declaration not found")
	case 1:
		return found[0], nil
	}
	return nil, errors.InsertionPoint(string(tr.Layer), t.Name+"."+tr.Target, "overridden declaration is ambiguous")
}

// findHidden returns the nearest ancestor member named name, or nil.
func (r *Registry) findHidden(t *ast.TypeDecl, name string) ast.Member {
	for _, anc := range r.program.Ancestors(t) {
		if ms := anc.FindMembers(name); len(ms) > 0 {
			return ms[0]
		}
	}
	return nil
}

func (r *Registry) insertionIndex(t *ast.TypeDecl, tr *aspect.MemberIntroduction) (int, error) {
	switch tr.Position.Kind {
	case aspect.PositionStart:
		return 0, nil
	case aspect.PositionEnd:
		return len(t.Members), nil
	}
	anchors := t.FindMembers(tr.Position.Anchor)
	switch len(anchors) {
	case 0:
		return 0, errors.InsertionPoint(string(tr.Layer), t.Name+"."+tr.Position.Anchor, "insertion anchor not found")
	case 1:
	default:
		return 0, errors.InsertionPoint(string(tr.Layer), t.Name+"."+tr.Position.Anchor, "insertion anchor is ambiguous")
	}
	i := t.IndexOf(anchors[0])
	if tr.Position.Kind == aspect.PositionAfter {
		i++
	}
	return i, nil
}

// overrideName returns "<Target>_<Aspect>[_<Part>]", made unique in t.
func (r *Registry) overrideName(t *ast.TypeDecl, target string, layer ast.LayerID) string {
	l := aspect.ParseLayer(layer)
	base := target + "_" + l.Aspect
	if l.Part != "" {
		base += "_" + l.Part
	}
	name := base
	for i := 2; len(t.FindMembers(name)) > 0; i++ {
		name = fmt.Sprintf("%s%d", base, i)
	}
	return name
}

// chainScope collects every name a new chain entry must not reuse: member
// names of the type, and the names used by the root and every earlier entry.
func (r *Registry) chainScope(t *ast.TypeDecl, root ast.Member, chain []*IntroducedMember) map[string]bool {
	used := memberNames(t)
	add := func(m ast.Member) {
		for _, acc := range ast.Accessors(m) {
			for _, p := range ast.ParamsOf(m, acc.Kind) {
				used[p.Name] = true
			}
			if acc.Body != nil {
				for n := range ast.UsedNames(acc.Body) {
					used[n] = true
				}
			}
		}
	}
	add(root)
	for _, e := range chain {
		add(e.Member)
	}
	return used
}

func (r *Registry) collectRoots() {
	for _, t := range r.program.Types {
		for _, m := range t.Members {
			if id := ast.MetaOf(m).Tracking; len(r.chains[id]) > 0 {
				r.roots = append(r.roots, id)
			}
		}
	}
}

func memberNames(t *ast.TypeDecl) map[string]bool {
	out := make(map[string]bool, len(t.Members))
	for _, m := range t.Members {
		out[m.MemberName()] = true
	}
	return out
}

func insertMember(t *ast.TypeDecl, at int, m ast.Member) {
	t.Members = append(t.Members, nil)
	copy(t.Members[at+1:], t.Members[at:])
	t.Members[at] = m
}

// reissueRefs gives every placeholder in m a fresh identity.
func reissueRefs(m ast.Member) {
	ast.Inspect(m, func(n ast.Node) bool {
		meta := ast.MetaOf(n)
		if meta.Ref != nil {
			ref := *meta.Ref
			meta.Ref = &ref
		}
		return true
	})
}

func setName(m ast.Member, name string) {
	switch d := m.(type) {
	case *ast.Method:
		d.Name = name
	case *ast.Property:
		d.Name = name
	case *ast.Event:
		d.Name = name
	case *ast.Field:
		d.Name = name
	}
}

func setModifiers(m ast.Member, mods ast.Modifiers) {
	switch d := m.(type) {
	case *ast.Method:
		d.Mods = mods
	case *ast.Property:
		d.Mods = mods
	case *ast.Event:
		d.Mods = mods
	case *ast.Field:
		d.Mods = mods
	}
}
