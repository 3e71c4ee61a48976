// Package geom provides the planar geometry used by the placement engine.
//
// All coordinates are in KiCad internal units (nanometers, 1 mm = 1e6 IU)
// stored as float64. Board files carry millimeters; FromMM/ToMM convert at
// the I/O boundary. The y axis grows downward, following KiCad.
package geom

import "math"

// IUPerMM is the number of internal units per millimeter.
const IUPerMM = 1e6

// MaxCoord is the largest representable coordinate magnitude. KiCad encodes
// positions as 32-bit integers of internal units; anything beyond this range
// is a geometric overflow and must be treated as infeasible, not fatal.
const MaxCoord = float64(math.MaxInt32)

// FromMM converts millimeters to internal units.
func FromMM(mm float64) float64 { return mm * IUPerMM }

// ToMM converts internal units to millimeters.
func ToMM(iu float64) float64 { return iu / IUPerMM }

// Point is a 2-D coordinate in internal units.
type Point struct {
	X, Y float64
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns p minus q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Distance returns the Euclidean distance between p and q.
func (p Point) Distance(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// InRange reports whether both coordinates fit the representable range.
func (p Point) InRange() bool {
	return math.Abs(p.X) <= MaxCoord && math.Abs(p.Y) <= MaxCoord
}

// Rotate returns p rotated by angle degrees about the origin. Positive
// angles rotate counter-clockwise in KiCad's screen coordinates.
func (p Point) Rotate(degrees float64) Point {
	rad := degrees * math.Pi / 180
	sin, cos := math.Sincos(rad)
	return Point{
		X: p.X*cos + p.Y*sin,
		Y: -p.X*sin + p.Y*cos,
	}
}

// BBox is an axis-aligned bounding box. Top < Bottom because y grows down.
type BBox struct {
	MinX, MinY, MaxX, MaxY float64
}

// NewBBox builds a box from a center point and a width/height.
func NewBBox(center Point, width, height float64) BBox {
	return BBox{
		MinX: center.X - width/2,
		MinY: center.Y - height/2,
		MaxX: center.X + width/2,
		MaxY: center.Y + height/2,
	}
}

// BBoxFromPoints builds the smallest box covering both points.
func BBoxFromPoints(a, b Point) BBox {
	return BBox{
		MinX: math.Min(a.X, b.X),
		MinY: math.Min(a.Y, b.Y),
		MaxX: math.Max(a.X, b.X),
		MaxY: math.Max(a.Y, b.Y),
	}
}

// Width returns the horizontal span of the box.
func (b BBox) Width() float64 { return b.MaxX - b.MinX }

// Height returns the vertical span of the box.
func (b BBox) Height() float64 { return b.MaxY - b.MinY }

// Center returns the center point of the box.
func (b BBox) Center() Point {
	return Point{(b.MinX + b.MaxX) / 2, (b.MinY + b.MaxY) / 2}
}

// Diagonal returns the length of the box diagonal.
func (b BBox) Diagonal() float64 { return math.Hypot(b.Width(), b.Height()) }

// Corners returns the four corner points in reading order.
func (b BBox) Corners() [4]Point {
	return [4]Point{
		{b.MinX, b.MinY},
		{b.MaxX, b.MinY},
		{b.MinX, b.MaxY},
		{b.MaxX, b.MaxY},
	}
}

// Contains reports whether p lies inside or on the boundary of b.
func (b BBox) Contains(p Point) bool {
	return p.X >= b.MinX && p.X <= b.MaxX && p.Y >= b.MinY && p.Y <= b.MaxY
}

// Intersects reports whether b and o overlap. Boxes sharing only an edge are
// considered intersecting, matching KiCad's BOX2I::Intersects.
func (b BBox) Intersects(o BBox) bool {
	return b.MinX <= o.MaxX && b.MaxX >= o.MinX &&
		b.MinY <= o.MaxY && b.MaxY >= o.MinY
}

// Union returns the smallest box covering both b and o.
func (b BBox) Union(o BBox) BBox {
	return BBox{
		MinX: math.Min(b.MinX, o.MinX),
		MinY: math.Min(b.MinY, o.MinY),
		MaxX: math.Max(b.MaxX, o.MaxX),
		MaxY: math.Max(b.MaxY, o.MaxY),
	}
}

// Expand returns b grown by margin on every side.
func (b BBox) Expand(margin float64) BBox {
	return BBox{
		MinX: b.MinX - margin,
		MinY: b.MinY - margin,
		MaxX: b.MaxX + margin,
		MaxY: b.MaxY + margin,
	}
}

// Deflate scales the box width and height by factor, preserving the center.
// A factor of 1 returns the box unchanged; 0.9 shrinks it by 10%.
func (b BBox) Deflate(factor float64) BBox {
	return NewBBox(b.Center(), b.Width()*factor, b.Height()*factor)
}

// Translate returns b shifted by d.
func (b BBox) Translate(d Point) BBox {
	return BBox{b.MinX + d.X, b.MinY + d.Y, b.MaxX + d.X, b.MaxY + d.Y}
}

// IsEmpty reports whether the box has no area.
func (b BBox) IsEmpty() bool { return b.MaxX <= b.MinX || b.MaxY <= b.MinY }
