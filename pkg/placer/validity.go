package placer

import (
	charmlog "github.com/charmbracelet/log"

	"github.com/silkworks/autosilk/pkg/board"
	"github.com/silkworks/autosilk/pkg/geom"
)

// engine carries the state shared by both strategies: the board outline, the
// resolved configuration, and the logger handed in by the caller.
type engine struct {
	outline *geom.Outline
	cfg     Config
	log     *charmlog.Logger
}

// positionValid decides whether field, at its current position, is an
// acceptable silkscreen placement. Checks run in a fixed order and
// short-circuit on the first failure:
//
//  1. deflated bounding box inside the board outline
//  2. no overlap with other footprints' visible reference/value labels on
//     the same layer, and no collision with any courtyard (the owning
//     footprint's included)
//  3. no overlap with vias whose outer copper matches the field's side
//  4. no overlap with through-hole pads
//  5. no collision with mask regions on the matching side
//  6. no collision with silkscreen drawings on the same layer
//
// The label-vs-label checks carry a deliberate asymmetry: when placing a
// Reference, the owning footprint's own Reference is skipped (it is the item
// being placed) but its Value is still checked, and symmetrically for
// Values. Do not "fix" this; it is what keeps sibling fields from stacking
// while letting them sit close.
func (e *engine) positionValid(field *board.TextField, owner *board.Footprint, obs *obstacles) bool {
	bb := field.BBox().Deflate(e.cfg.DeflateFactor)

	if !e.outline.ContainsBox(bb) {
		return false
	}

	// The undeflated box is the field's effective collision shape; the
	// deflation tolerance applies to containment and box-vs-box tests only.
	shape := field.BBox()
	isRef := field.Kind == board.Reference

	for _, other := range obs.footprints {
		ref := other.Reference
		if ((isRef && owner != other) || !isRef) &&
			ref.IsSilkscreen() && ref.Layer == field.Layer &&
			bb.Intersects(ref.BBox()) {
			return false
		}
		val := other.Value
		if ((!isRef && owner != other) || isRef) &&
			val.IsSilkscreen() && val.Layer == field.Layer &&
			bb.Intersects(val.BBox()) {
			return false
		}
		if other.Courtyard(field.Layer).IntersectsBox(shape) {
			return false
		}
	}

	for _, v := range obs.vias {
		if (v.Top == board.LayerFCu && field.Layer == board.LayerFSilk) ||
			(v.Bottom == board.LayerBCu && field.Layer == board.LayerBSilk) {
			if bb.Intersects(v.BBox()) {
				return false
			}
		}
	}

	for _, p := range obs.pads {
		if bb.Intersects(p.BBox()) {
			return false
		}
	}

	for _, m := range obs.masks {
		if m.Layer == field.Layer.MaskFor() && m.CollidesBox(shape) {
			return false
		}
	}

	for _, d := range obs.drawings {
		if d.Layer == field.Layer && d.CollidesBox(shape) {
			return false
		}
	}

	return true
}
