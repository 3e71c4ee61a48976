package geom

import "math"

// The moving silkscreen label is always an axis-aligned rectangle, so every
// collision the engine needs reduces to rect-vs-something. Obstacles present
// themselves as circles (vias, round pads), width-stroked segments (graphic
// lines), or polygons (courtyards, filled zones).

// Circle is a disc obstacle.
type Circle struct {
	Center Point
	Radius float64
}

// BBox returns the bounding box of the circle.
func (c Circle) BBox() BBox {
	return NewBBox(c.Center, 2*c.Radius, 2*c.Radius)
}

// IntersectsBox reports whether the circle overlaps box b.
func (c Circle) IntersectsBox(b BBox) bool {
	// Distance from the center to the nearest point of the box.
	dx := math.Max(0, math.Max(b.MinX-c.Center.X, c.Center.X-b.MaxX))
	dy := math.Max(0, math.Max(b.MinY-c.Center.Y, c.Center.Y-b.MaxY))
	return dx*dx+dy*dy <= c.Radius*c.Radius
}

// Segment is a straight stroke with a width, as drawn on a graphic layer.
type Segment struct {
	Start, End Point
	Width      float64
}

// BBox returns the bounding box of the stroked segment.
func (s Segment) BBox() BBox {
	return BBoxFromPoints(s.Start, s.End).Expand(s.Width / 2)
}

// IntersectsBox reports whether the stroked segment overlaps box b. The
// stroke is approximated by the segment's centerline inflated by half the
// width on the box side, which is exact for axis-aligned boxes up to the
// rounded stroke caps.
func (s Segment) IntersectsBox(b BBox) bool {
	grown := b.Expand(s.Width / 2)
	if !grown.Intersects(s.BBox()) {
		return false
	}
	if grown.Contains(s.Start) || grown.Contains(s.End) {
		return true
	}
	corners := grown.Corners()
	edges := [4][2]Point{
		{corners[0], corners[1]},
		{corners[1], corners[3]},
		{corners[3], corners[2]},
		{corners[2], corners[0]},
	}
	for _, e := range edges {
		if segmentsCross(s.Start, s.End, e[0], e[1]) {
			return true
		}
	}
	return false
}

// segmentsCross reports whether segments ab and cd intersect.
func segmentsCross(a, b, c, d Point) bool {
	o1 := orient(a, b, c)
	o2 := orient(a, b, d)
	o3 := orient(c, d, a)
	o4 := orient(c, d, b)
	if ((o1 > 0) != (o2 > 0)) && ((o3 > 0) != (o4 > 0)) {
		return true
	}
	// Collinear touches.
	return (o1 == 0 && onSegment(a, b, c)) ||
		(o2 == 0 && onSegment(a, b, d)) ||
		(o3 == 0 && onSegment(c, d, a)) ||
		(o4 == 0 && onSegment(c, d, b))
}

// orient returns the signed area of the triangle abc.
func orient(a, b, c Point) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

// onSegment reports whether c lies on the segment ab, assuming collinearity.
func onSegment(a, b, c Point) bool {
	return c.X >= math.Min(a.X, b.X) && c.X <= math.Max(a.X, b.X) &&
		c.Y >= math.Min(a.Y, b.Y) && c.Y <= math.Max(a.Y, b.Y)
}

// Poly is a simple polygon obstacle (courtyard, filled mask zone). Points
// trace the perimeter; the closing edge is implicit.
type Poly struct {
	Points []Point
}

// RectPoly builds a polygon from a bounding box.
func RectPoly(b BBox) Poly {
	return Poly{Points: []Point{
		{b.MinX, b.MinY},
		{b.MaxX, b.MinY},
		{b.MaxX, b.MaxY},
		{b.MinX, b.MaxY},
	}}
}

// BBox returns the bounding box of the polygon.
func (p Poly) BBox() BBox {
	if len(p.Points) == 0 {
		return BBox{}
	}
	b := BBox{p.Points[0].X, p.Points[0].Y, p.Points[0].X, p.Points[0].Y}
	for _, pt := range p.Points[1:] {
		b.MinX = math.Min(b.MinX, pt.X)
		b.MinY = math.Min(b.MinY, pt.Y)
		b.MaxX = math.Max(b.MaxX, pt.X)
		b.MaxY = math.Max(b.MaxY, pt.Y)
	}
	return b
}

// IsEmpty reports whether the polygon has fewer than three vertices.
func (p Poly) IsEmpty() bool { return len(p.Points) < 3 }

// ContainsPoint reports whether pt lies inside the polygon (even-odd rule).
func (p Poly) ContainsPoint(pt Point) bool {
	return pointInRing(pt, p.Points)
}

// IntersectsBox reports whether the polygon and box b share interior area.
// Touching boundaries do not collide: a label resting exactly against a
// courtyard edge is a legal placement. Detected as any polygon vertex
// strictly inside the box, any proper edge crossing, or the box center
// inside the polygon (box swallowed whole).
func (p Poly) IntersectsBox(b BBox) bool {
	if p.IsEmpty() || !p.BBox().Intersects(b) {
		return false
	}
	n := len(p.Points)
	corners := b.Corners()
	boxEdges := [4][2]Point{
		{corners[0], corners[1]},
		{corners[1], corners[3]},
		{corners[3], corners[2]},
		{corners[2], corners[0]},
	}
	for i := 0; i < n; i++ {
		v0 := p.Points[i]
		v1 := p.Points[(i+1)%n]
		if v0.X > b.MinX && v0.X < b.MaxX && v0.Y > b.MinY && v0.Y < b.MaxY {
			return true
		}
		for _, e := range boxEdges {
			if segmentsProperCross(v0, v1, e[0], e[1]) {
				return true
			}
		}
	}
	return p.ContainsPoint(b.Center())
}

// segmentsProperCross reports whether ab and cd cross at a single interior
// point. Collinear overlaps and endpoint touches do not count.
func segmentsProperCross(a, b, c, d Point) bool {
	o1 := orient(a, b, c)
	o2 := orient(a, b, d)
	o3 := orient(c, d, a)
	o4 := orient(c, d, b)
	return ((o1 > 0 && o2 < 0) || (o1 < 0 && o2 > 0)) &&
		((o3 > 0 && o4 < 0) || (o3 < 0 && o4 > 0))
}

// pointInRing is an even-odd ray cast against one closed ring.
func pointInRing(pt Point, ring []Point) bool {
	n := len(ring)
	if n < 3 {
		return false
	}
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := ring[i].X, ring[i].Y
		xj, yj := ring[j].X, ring[j].Y
		if (yi > pt.Y) != (yj > pt.Y) &&
			pt.X < (xj-xi)*(pt.Y-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}
