package geom

import (
	"fmt"

	"zappem.net/pub/math/polygon"
)

// Outline is the legal placement region of the board: one or more closed
// rings from the Edge.Cuts layer, possibly with holes (cutouts). The rings
// are held as polygon.Shapes so overlapping edge-cut fragments can be
// normalized with Union; containment queries run against a cached copy of
// the ring points since the polygon package provides only constructive ops.
type Outline struct {
	shapes *polygon.Shapes
	rings  []outlineRing
}

type outlineRing struct {
	bbox BBox
	pts  []Point
	hole bool
}

// NewOutline returns an empty outline. An empty outline contains nothing, so
// a board without edge cuts rejects every placement.
func NewOutline() *Outline { return &Outline{} }

// AddRing appends a closed ring. hole marks the ring as a cutout subtracted
// from the board area. Rings with fewer than three points are rejected.
func (o *Outline) AddRing(pts []Point, hole bool) error {
	if len(pts) < 3 {
		return fmt.Errorf("outline ring needs at least 3 points, got %d", len(pts))
	}
	ring := make([]polygon.Point, len(pts))
	for i, p := range pts {
		ring[i] = polygon.Point{X: p.X, Y: p.Y}
	}
	shapes, err := o.shapes.Append(ring...)
	if err != nil {
		return fmt.Errorf("outline ring: %w", err)
	}
	o.shapes = shapes
	i := len(shapes.P) - 1
	if shapes.P[i].Hole != hole {
		if err := shapes.Invert(i); err != nil {
			return fmt.Errorf("outline ring: %w", err)
		}
	}
	o.rebuild()
	return nil
}

// Normalize merges overlapping rings. Board outlines drawn as several
// touching primitives collapse into single perimeters.
func (o *Outline) Normalize() {
	if o.shapes == nil {
		return
	}
	o.shapes.Union()
	o.rebuild()
}

// rebuild refreshes the query cache from the polygon shapes.
func (o *Outline) rebuild() {
	o.rings = o.rings[:0]
	for _, s := range o.shapes.P {
		pts := make([]Point, len(s.PS))
		for i, sp := range s.PS {
			pts[i] = Point{X: sp.X, Y: sp.Y}
		}
		o.rings = append(o.rings, outlineRing{
			bbox: BBox{MinX: s.MinX, MinY: s.MinY, MaxX: s.MaxX, MaxY: s.MaxY},
			pts:  pts,
			hole: s.Hole,
		})
	}
}

// RingCount returns the number of rings held.
func (o *Outline) RingCount() int { return len(o.rings) }

// Contains reports whether p lies inside the board area: inside at least one
// additive ring and inside no hole.
func (o *Outline) Contains(p Point) bool {
	inside := false
	for _, r := range o.rings {
		if !r.bbox.Contains(p) || !pointInRing(p, r.pts) {
			continue
		}
		if r.hole {
			return false
		}
		inside = true
	}
	return inside
}

// ContainsBox reports whether box b is inside the outline. It samples the
// four corners and the center, mirroring KiCad's cheap containment test for
// rectangular text boxes; a box smaller than any outline concavity between
// those five points is accepted.
func (o *Outline) ContainsBox(b BBox) bool {
	for _, c := range b.Corners() {
		if !o.Contains(c) {
			return false
		}
	}
	return o.Contains(b.Center())
}
