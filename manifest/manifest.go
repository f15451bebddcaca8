// Package manifest reads the YAML documents that describe a link: the
// program, its layer order and the transformations each layer contributes.
//
//	layers: [Logging, Caching]
//	program: |
//	  (program (type Calc ...))
//	transformations:
//	  - layer: Logging
//	    kind: override
//	    type: Calc
//	    target: Add
//	    template: |
//	      (method Add (param a int) (param b int) (result int)
//	        (body (call log "add") (return (ref Logging default (call Add a b)))))
//	  - layer: Caching
//	    kind: interface
//	    type: Calc
//	    interfaces: [ICached]
//
// Program and templates may live in separate files (program_file,
// template_file), resolved relative to the manifest.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/wippyai/aspect-linker/aspect"
	"github.com/wippyai/aspect-linker/ast"
	"github.com/wippyai/aspect-linker/errors"
	"github.com/wippyai/aspect-linker/linker"
	"github.com/wippyai/aspect-linker/source"
)

// KindInterface marks an interface introduction.
const KindInterface = "interface"

// Manifest is the YAML form of a link.
type Manifest struct {
	Layers          []string         `yaml:"layers"`
	Program         string           `yaml:"program,omitempty"`
	ProgramFile     string           `yaml:"program_file,omitempty"`
	Transformations []Transformation `yaml:"transformations"`

	// dir resolves relative file references
	dir string
}

// Transformation is one entry of the transformations list.
type Transformation struct {
	Layer        string   `yaml:"layer"`
	Kind         string   `yaml:"kind"`
	Type         string   `yaml:"type"`
	Target       string   `yaml:"target,omitempty"`
	Position     string   `yaml:"position,omitempty"`
	Template     string   `yaml:"template,omitempty"`
	TemplateFile string   `yaml:"template_file,omitempty"`
	Interfaces   []string `yaml:"interfaces,omitempty"`
	Options      Options  `yaml:"options,omitempty"`
}

// Options are the linker options of one transformation.
type Options struct {
	ForceNotInlineable  bool `yaml:"force_not_inlineable,omitempty"`
	ForceNotDiscardable bool `yaml:"force_not_discardable,omitempty"`
}

// Load reads and decodes the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseLoad, errors.KindNotFound, err, "read manifest")
	}
	m, err := Parse(data)
	if err != nil {
		return nil, err
	}
	m.dir = filepath.Dir(path)
	return m, nil
}

// Parse decodes a manifest. File references are resolved against the
// working directory.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(errors.PhaseLoad, errors.KindSyntax, err, "decode manifest")
	}
	return &m, nil
}

// Input builds the linker input described by m.
func (m *Manifest) Input() (linker.Input, error) {
	var in linker.Input

	ids := make([]ast.LayerID, len(m.Layers))
	for i, l := range m.Layers {
		ids[i] = ast.LayerID(l)
	}
	layers, err := aspect.NewLayerOrder(ids...)
	if err != nil {
		return in, errors.Wrap(errors.PhaseLoad, errors.KindInvalidInput, err, "layers")
	}

	text, err := m.text(m.Program, m.ProgramFile, "program")
	if err != nil {
		return in, err
	}
	prog, err := source.Parse(text)
	if err != nil {
		return in, fmt.Errorf("program: %w", err)
	}

	trs := make([]aspect.Transformation, 0, len(m.Transformations))
	for i, t := range m.Transformations {
		tr, err := m.transformation(t)
		if err != nil {
			return in, fmt.Errorf("transformations[%d]: %w", i, err)
		}
		trs = append(trs, tr)
	}

	in.Program = prog
	in.Layers = layers
	in.Transformations = trs
	return in, nil
}

func (m *Manifest) transformation(t Transformation) (aspect.Transformation, error) {
	path := []string{"layer " + t.Layer, t.Type}
	if t.Layer == "" || t.Type == "" {
		return nil, errors.InvalidInput(errors.PhaseLoad, path, "layer and type are required")
	}
	if t.Kind == KindInterface {
		if len(t.Interfaces) == 0 {
			return nil, errors.InvalidInput(errors.PhaseLoad, path, "interface introduction names no interfaces")
		}
		return &aspect.InterfaceIntroduction{
			Layer:      ast.LayerID(t.Layer),
			Type:       t.Type,
			Interfaces: append([]string(nil), t.Interfaces...),
		}, nil
	}

	kind, ok := aspect.ParseIntroductionKind(t.Kind)
	if !ok {
		return nil, errors.InvalidInput(errors.PhaseLoad, path, fmt.Sprintf("unknown kind %q", t.Kind))
	}
	if kind == aspect.Override && t.Target == "" {
		return nil, errors.InvalidInput(errors.PhaseLoad, path, "override names no target")
	}
	pos, err := aspect.ParsePosition(t.Position)
	if err != nil {
		return nil, errors.InvalidInput(errors.PhaseLoad, path, err.Error())
	}
	text, err := m.text(t.Template, t.TemplateFile, "template")
	if err != nil {
		return nil, err
	}
	tmpl, err := source.ParseMember(text)
	if err != nil {
		return nil, fmt.Errorf("template: %w", err)
	}
	return &aspect.MemberIntroduction{
		Generator: aspect.TemplateGenerator{Template: tmpl},
		Layer:     ast.LayerID(t.Layer),
		Type:      t.Type,
		Target:    t.Target,
		Position:  pos,
		Kind:      kind,
		Options: aspect.Options{
			ForceNotInlineable:  t.Options.ForceNotInlineable,
			ForceNotDiscardable: t.Options.ForceNotDiscardable,
		},
	}, nil
}

// text returns inline text or the contents of file, exactly one of which
// must be set.
func (m *Manifest) text(inline, file, what string) (string, error) {
	switch {
	case inline != "" && file != "":
		return "", errors.InvalidInput(errors.PhaseLoad, []string{what}, "both inline text and file given")
	case inline != "":
		return inline, nil
	case file == "":
		return "", errors.InvalidInput(errors.PhaseLoad, []string{what}, "missing")
	}
	if !filepath.IsAbs(file) && m.dir != "" {
		file = filepath.Join(m.dir, file)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return "", errors.Wrap(errors.PhaseLoad, errors.KindNotFound, err, "read "+what)
	}
	return string(data), nil
}
