package aspect

import (
	"strings"

	"github.com/wippyai/aspect-linker/ast"
	"github.com/wippyai/aspect-linker/errors"
)

// Layer is one ordered application step of an aspect. Part is empty for
// aspects that contribute a single layer.
type Layer struct {
	Aspect string
	Part   string
}

// ID returns "Aspect" or "Aspect:Part".
func (l Layer) ID() ast.LayerID {
	if l.Part == "" {
		return ast.LayerID(l.Aspect)
	}
	return ast.LayerID(l.Aspect + ":" + l.Part)
}

// ParseLayer splits a layer id into its aspect and part.
func ParseLayer(id ast.LayerID) Layer {
	aspect, part, _ := strings.Cut(string(id), ":")
	return Layer{Aspect: aspect, Part: part}
}

// LayerOrder is the total order in which layers apply. Index 0 applies
// first and sits innermost in every override chain.
type LayerOrder struct {
	index map[ast.LayerID]int
	ids   []ast.LayerID
}

// NewLayerOrder builds a layer order. Duplicate or empty ids are rejected.
func NewLayerOrder(ids ...ast.LayerID) (*LayerOrder, error) {
	o := &LayerOrder{index: make(map[ast.LayerID]int, len(ids))}
	for i, id := range ids {
		if id == "" {
			return nil, errors.InvalidInput(errors.PhaseLoad, []string{"layers"}, "empty layer id")
		}
		if _, dup := o.index[id]; dup {
			return nil, errors.New(errors.PhaseLoad, errors.KindInvalidInput).
				Layer(string(id)).
				Detail("duplicate layer at position %d", i).
				Build()
		}
		o.index[id] = i
		o.ids = append(o.ids, id)
	}
	return o, nil
}

// Index returns the position of id in the order.
func (o *LayerOrder) Index(id ast.LayerID) (int, bool) {
	i, ok := o.index[id]
	return i, ok
}

// Len returns the number of layers.
func (o *LayerOrder) Len() int { return len(o.ids) }

// IDs returns the layer ids in application order.
func (o *LayerOrder) IDs() []ast.LayerID { return append([]ast.LayerID(nil), o.ids...) }
