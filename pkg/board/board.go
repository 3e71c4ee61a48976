// Package board models the subset of a PCB layout that silkscreen placement
// needs: footprints with their reference and value fields, vias, pads,
// graphic drawings, solder-mask regions, and the board outline. The model is
// built once by a loader (see kicadio) and mutated only through
// TextField.SetPosition.
package board

import (
	"errors"

	"github.com/silkworks/autosilk/pkg/geom"
)

// ErrOverflow is returned when a position falls outside the representable
// coordinate range. Callers treat the candidate as infeasible.
var ErrOverflow = errors.New("board: position outside representable range")

// FieldKind distinguishes the two text fields every footprint carries.
type FieldKind int

const (
	// Reference is the designator field (e.g. "R12").
	Reference FieldKind = iota
	// Value is the value field (e.g. "10k").
	Value
)

// String returns a short human-readable name for the field kind.
func (k FieldKind) String() string {
	if k == Reference {
		return "reference"
	}
	return "value"
}

// TextField is a positioned text item on a footprint. Its position is the
// only thing the placement engine mutates; everything else is fixed by the
// board file.
type TextField struct {
	Kind    FieldKind
	Text    string
	Layer   Layer
	Visible bool

	// Size is the rendered text extent (width, height) in internal units.
	// The field's bounding box is Size centered on its position.
	Size geom.Point

	pos geom.Point
}

// NewTextField builds a field at pos with the given rendered extent.
func NewTextField(kind FieldKind, text string, pos, size geom.Point, layer Layer, visible bool) *TextField {
	return &TextField{
		Kind:    kind,
		Text:    text,
		Layer:   layer,
		Visible: visible,
		Size:    size,
		pos:     pos,
	}
}

// Position returns the field's current center position.
func (t *TextField) Position() geom.Point { return t.pos }

// SetPosition moves the field. Positions outside the representable
// coordinate range are rejected with ErrOverflow and leave the field
// unchanged.
func (t *TextField) SetPosition(p geom.Point) error {
	if !p.InRange() {
		return ErrOverflow
	}
	t.pos = p
	return nil
}

// BBox returns the field's bounding box at its current position.
func (t *TextField) BBox() geom.BBox {
	return geom.NewBBox(t.pos, t.Size.X, t.Size.Y)
}

// IsSilkscreen reports whether the field is an eligible silkscreen label:
// present, on a silkscreen layer, and visible.
func (t *TextField) IsSilkscreen() bool {
	return t != nil && t.Layer.IsSilk() && t.Visible
}

// Footprint is one placed component. Its two text fields are mutable through
// their own setters; everything else is read-only during a run.
type Footprint struct {
	Ref      string // reference designator, for logging
	Pos      geom.Point
	Angle    float64 // orientation in degrees
	Selected bool

	// BodyBBox is the bounding box of pads and graphics, text excluded.
	BodyBBox geom.BBox

	Reference *TextField
	Value     *TextField

	// Courtyards maps courtyard layers to keep-out polygons.
	Courtyards map[Layer]geom.Poly
}

// Field returns the text field of the given kind.
func (f *Footprint) Field(kind FieldKind) *TextField {
	if kind == Reference {
		return f.Reference
	}
	return f.Value
}

// Courtyard returns the keep-out polygon for the side carrying the given
// silkscreen layer. Footprints without courtyard geometry fall back to their
// body bounding box, so they still repel labels.
func (f *Footprint) Courtyard(silk Layer) geom.Poly {
	if p, ok := f.Courtyards[silk.CourtyardFor()]; ok && !p.IsEmpty() {
		return p
	}
	return geom.RectPoly(f.BodyBBox)
}

// Via is a plated hole connecting copper layers.
type Via struct {
	Pos      geom.Point
	Diameter float64
	Top      Layer // topmost copper layer
	Bottom   Layer // bottommost copper layer
}

// BBox returns the via's bounding box.
func (v *Via) BBox() geom.BBox {
	return geom.NewBBox(v.Pos, v.Diameter, v.Diameter)
}

// OnOuterCopper reports whether the via reaches either outer copper layer.
// Buried vias never obstruct silkscreen.
func (v *Via) OnOuterCopper() bool {
	return v.Top == LayerFCu || v.Bottom == LayerBCu
}

// Pad is a footprint pad. Only pads with a drilled hole obstruct silkscreen.
type Pad struct {
	Pos     geom.Point
	Size    geom.Point
	HasHole bool
}

// BBox returns the pad's bounding box.
func (p *Pad) BBox() geom.BBox {
	return geom.NewBBox(p.Pos, p.Size.X, p.Size.Y)
}

// Drawing is graphic geometry on a single layer: either stroked segments or
// a filled polygon. Used for both silkscreen art and mask regions.
type Drawing struct {
	Layer    Layer
	Segments []geom.Segment
	Polygon  geom.Poly
}

// BBox returns the bounding box covering all the drawing's geometry.
func (d *Drawing) BBox() geom.BBox {
	var (
		box geom.BBox
		set bool
	)
	grow := func(b geom.BBox) {
		if !set {
			box, set = b, true
			return
		}
		box = box.Union(b)
	}
	for _, s := range d.Segments {
		grow(s.BBox())
	}
	if !d.Polygon.IsEmpty() {
		grow(d.Polygon.BBox())
	}
	return box
}

// CollidesBox reports whether any of the drawing's geometry overlaps b.
func (d *Drawing) CollidesBox(b geom.BBox) bool {
	for _, s := range d.Segments {
		if s.IntersectsBox(b) {
			return true
		}
	}
	return !d.Polygon.IsEmpty() && d.Polygon.IntersectsBox(b)
}

// Board is a loaded layout. Slices preserve document order so runs are
// reproducible.
type Board struct {
	Footprints []*Footprint
	Vias       []*Via
	Pads       []*Pad
	Drawings   []*Drawing
	Outline    *geom.Outline
}

// ThroughHolePads returns the pads that obstruct silkscreen on both sides.
func (b *Board) ThroughHolePads() []*Pad {
	out := make([]*Pad, 0, len(b.Pads))
	for _, p := range b.Pads {
		if p.HasHole {
			out = append(out, p)
		}
	}
	return out
}

// SilkDrawings returns drawings on either silkscreen layer.
func (b *Board) SilkDrawings() []*Drawing {
	var out []*Drawing
	for _, d := range b.Drawings {
		if d.Layer.IsSilk() {
			out = append(out, d)
		}
	}
	return out
}

// MaskRegions returns drawings on either solder-mask layer.
func (b *Board) MaskRegions() []*Drawing {
	var out []*Drawing
	for _, d := range b.Drawings {
		if d.Layer == LayerFMask || d.Layer == LayerBMask {
			out = append(out, d)
		}
	}
	return out
}
