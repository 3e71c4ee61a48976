package placer

import (
	"github.com/silkworks/autosilk/pkg/board"
	"github.com/silkworks/autosilk/pkg/geom"
)

// bounded is anything with an axis-aligned bounding box.
type bounded interface {
	BBox() geom.BBox
}

// pruneByDistance keeps the candidates whose bounding-box center lies within
// radius plus the candidate's own bounding diagonal of center. The bound
// over-approximates: it may keep items that cannot collide, but it never
// drops one that could, so the exact checks downstream see every relevant
// obstacle.
func pruneByDistance[T bounded](center geom.Point, radius float64, items []T) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		bb := it.BBox()
		if center.Distance(bb.Center()) < radius+bb.Diagonal() {
			out = append(out, it)
		}
	}
	return out
}

// pruneFootprints is pruneByDistance over footprint body boxes. Footprints
// expose BodyBBox as a field rather than a method, so they get their own
// helper instead of the generic one.
func pruneFootprints(center geom.Point, radius float64, items []*board.Footprint) []*board.Footprint {
	out := make([]*board.Footprint, 0, len(items))
	for _, fp := range items {
		if center.Distance(fp.BodyBBox.Center()) < radius+fp.BodyBBox.Diagonal() {
			out = append(out, fp)
		}
	}
	return out
}

// obstacles is the per-footprint snapshot of locally relevant board items.
// It is computed once per footprint and shared by the Reference and Value
// placements; moves made for earlier footprints in the same run are visible
// only up to that snapshot boundary.
type obstacles struct {
	footprints []*board.Footprint
	vias       []*board.Via
	pads       []*board.Pad
	masks      []*board.Drawing
	drawings   []*board.Drawing
}
