package kicadio

import (
	"math"
	"os"

	"github.com/silkworks/autosilk/pkg/board"
	"github.com/silkworks/autosilk/pkg/errors"
	"github.com/silkworks/autosilk/pkg/geom"
)

// Stroke-font metrics used to estimate text extents. KiCad computes exact
// glyph bounds; for collision purposes an average advance per character and
// a line-height factor are close enough.
const (
	charAdvanceFactor  = 1.06
	lineHeightFactor   = 1.3
	defaultThicknessMM = 0.15
)

// endpointTolMM is how close two edge-cut endpoints must be to chain into
// one outline ring.
const endpointTolMM = 0.01

// Read loads a .kicad_pcb file. The returned Document keeps the parsed tree
// and the text-field bindings needed to write moved positions back.
func Read(path string) (*board.Board, *Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "board file %s", path)
		}
		return nil, nil, errors.Wrap(errors.ErrCodeParse, err, "reading %s", path)
	}
	return Decode(string(data))
}

// Decode parses board file text.
func Decode(src string) (*board.Board, *Document, error) {
	root, err := Parse(src)
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeParse, err, "parsing board")
	}
	if root.Name() != "kicad_pcb" {
		return nil, nil, errors.New(errors.ErrCodeParse, "not a board file: top-level node is %q", root.Name())
	}

	d := &decoder{doc: &Document{root: root}}
	brd := &board.Board{Outline: geom.NewOutline()}

	var edges []geom.Segment
	var edgeRings [][]geom.Point

	for _, n := range root.List {
		if !n.IsList() {
			continue
		}
		switch n.Name() {
		case "footprint", "module":
			fp := d.footprint(n)
			brd.Footprints = append(brd.Footprints, fp.fp)
			brd.Pads = append(brd.Pads, fp.pads...)
		case "via":
			if v := parseVia(n); v != nil {
				brd.Vias = append(brd.Vias, v)
			}
		case "gr_line", "gr_rect", "gr_poly", "gr_circle", "gr_arc":
			g := parseGraphic(n)
			if g == nil {
				continue
			}
			if g.layer == board.LayerEdgeCuts {
				if len(g.ring) > 0 {
					edgeRings = append(edgeRings, g.ring)
				}
				edges = append(edges, g.segments...)
			} else if g.layer != board.LayerOther {
				brd.Drawings = append(brd.Drawings, g.drawing())
			}
		case "zone":
			if z := parseMaskZone(n); z != nil {
				brd.Drawings = append(brd.Drawings, z)
			}
		}
	}

	rings := append(edgeRings, chainRings(edges)...)
	for i, ring := range rings {
		if err := brd.Outline.AddRing(ring, ringIsHole(i, rings)); err != nil {
			return nil, nil, errors.Wrap(errors.ErrCodeParse, err, "board outline")
		}
	}
	brd.Outline.Normalize()

	return brd, d.doc, nil
}

type decoder struct {
	doc *Document
}

type parsedFootprint struct {
	fp   *board.Footprint
	pads []*board.Pad
}

// point reads an (at X Y [angle]) or (start/end/center X Y) child in mm and
// converts to internal units.
func nodePoint(n *Node) (geom.Point, bool) {
	if n == nil {
		return geom.Point{}, false
	}
	x, errX := n.FloatArg(0)
	y, errY := n.FloatArg(1)
	if errX != nil || errY != nil {
		return geom.Point{}, false
	}
	return geom.Point{X: geom.FromMM(x), Y: geom.FromMM(y)}, true
}

func nodeAngle(n *Node) float64 {
	if n == nil {
		return 0
	}
	if a, err := n.FloatArg(2); err == nil {
		return a
	}
	return 0
}

// footprint parses one footprint node: anchor, text fields, pads, courtyard
// and body geometry. Pad and graphic positions are footprint-relative in the
// file and are transformed to absolute here.
func (d *decoder) footprint(n *Node) parsedFootprint {
	fp := &board.Footprint{Courtyards: map[board.Layer]geom.Poly{}}
	fpPos, _ := nodePoint(n.Child("at"))
	fp.Pos = fpPos
	fp.Angle = nodeAngle(n.Child("at"))

	toAbs := func(rel geom.Point) geom.Point {
		return fpPos.Add(rel.Rotate(fp.Angle))
	}

	var (
		bodySet   bool
		body      geom.BBox
		courtyard = map[board.Layer]geom.BBox{}
		crtPoly   = map[board.Layer]geom.Poly{}
	)
	growBody := func(b geom.BBox) {
		if !bodySet {
			body, bodySet = b, true
			return
		}
		body = body.Union(b)
	}

	var pads []*board.Pad

	for _, c := range n.List {
		if !c.IsList() {
			continue
		}
		switch c.Name() {
		case "property":
			d.property(fp, c, toAbs)
		case "fp_text":
			d.fpText(fp, c, toAbs)
		case "pad":
			if p := parsePad(c, toAbs); p != nil {
				pads = append(pads, p)
				growBody(p.BBox())
			}
		case "fp_line", "fp_rect", "fp_circle", "fp_arc", "fp_poly":
			layer := board.LayerOther
			if ln := c.Child("layer"); ln != nil {
				layer = board.ParseLayer(ln.Arg(0))
			}
			bb, poly, ok := fpGraphicBounds(c, toAbs)
			if !ok {
				continue
			}
			switch layer {
			case board.LayerFCourtyard, board.LayerBCourtyard:
				if !poly.IsEmpty() {
					crtPoly[layer] = poly
				} else if cur, ok := courtyard[layer]; ok {
					courtyard[layer] = cur.Union(bb)
				} else {
					courtyard[layer] = bb
				}
			default:
				growBody(bb)
			}
		}
	}

	if !bodySet {
		body = geom.NewBBox(fpPos, geom.FromMM(1), geom.FromMM(1))
	}
	fp.BodyBBox = body
	for layer, poly := range crtPoly {
		fp.Courtyards[layer] = poly
	}
	for layer, bb := range courtyard {
		if _, ok := fp.Courtyards[layer]; !ok {
			fp.Courtyards[layer] = geom.RectPoly(bb)
		}
	}
	if fp.Reference == nil {
		fp.Reference = board.NewTextField(board.Reference, "", fpPos, geom.Point{}, board.LayerOther, false)
	}
	if fp.Value == nil {
		fp.Value = board.NewTextField(board.Value, "", fpPos, geom.Point{}, board.LayerOther, false)
	}

	return parsedFootprint{fp: fp, pads: pads}
}

// property handles the KiCad 7+ style (property "Reference" "R1" ...).
func (d *decoder) property(fp *board.Footprint, n *Node, toAbs func(geom.Point) geom.Point) {
	kindName := n.Arg(0)
	text := n.Arg(1)
	var kind board.FieldKind
	switch kindName {
	case "Reference":
		kind = board.Reference
	case "Value":
		kind = board.Value
	default:
		return
	}
	d.textField(fp, n, kind, text, toAbs)
}

// fpText handles the legacy style (fp_text reference "R1" ...).
func (d *decoder) fpText(fp *board.Footprint, n *Node, toAbs func(geom.Point) geom.Point) {
	var kind board.FieldKind
	switch n.Arg(0) {
	case "reference":
		kind = board.Reference
	case "value":
		kind = board.Value
	default:
		return
	}
	d.textField(fp, n, kind, n.Arg(1), toAbs)
}

func (d *decoder) textField(fp *board.Footprint, n *Node, kind board.FieldKind, text string, toAbs func(geom.Point) geom.Point) {
	atNode := n.Child("at")
	rel, _ := nodePoint(atNode)
	pos := toAbs(rel)

	layer := board.LayerOther
	if ln := n.Child("layer"); ln != nil {
		layer = board.ParseLayer(ln.Arg(0))
	}
	visible := !n.HasFlag("hide")

	size := textExtent(text, n.Child("effects"))
	if quarterTurn(nodeAngle(atNode)) {
		size.X, size.Y = size.Y, size.X
	}
	field := board.NewTextField(kind, text, pos, size, layer, visible)
	if kind == board.Reference {
		fp.Reference = field
		fp.Ref = text
	} else {
		fp.Value = field
	}

	if atNode != nil {
		d.doc.bindings = append(d.doc.bindings, fieldBinding{
			field:   field,
			atNode:  atNode,
			fpPos:   fp.Pos,
			fpAngle: fp.Angle,
		})
	}
}

// textExtent estimates the rendered text box from the font effects.
func textExtent(text string, effects *Node) geom.Point {
	h := 1.0 // KiCad default text size, mm
	w := 1.0
	thickness := defaultThicknessMM
	if effects != nil {
		if font := effects.Child("font"); font != nil {
			if sz := font.Child("size"); sz != nil {
				if v, err := sz.FloatArg(0); err == nil {
					h = v
				}
				if v, err := sz.FloatArg(1); err == nil {
					w = v
				}
			}
			if th := font.Child("thickness"); th != nil {
				if v, err := th.FloatArg(0); err == nil {
					thickness = v
				}
			}
		}
	}
	n := len([]rune(text))
	if n == 0 {
		n = 1
	}
	return geom.Point{
		X: geom.FromMM(float64(n)*w*charAdvanceFactor + thickness),
		Y: geom.FromMM(h*lineHeightFactor + thickness),
	}
}

// quarterTurn reports whether an angle in degrees is closer to a quarter
// turn than to upright. A quarter-turned text box swaps width and height.
func quarterTurn(deg float64) bool {
	a := math.Mod(math.Abs(deg), 180)
	return a > 45 && a < 135
}

func parsePad(n *Node, toAbs func(geom.Point) geom.Point) *board.Pad {
	rel, ok := nodePoint(n.Child("at"))
	if !ok {
		return nil
	}
	size := geom.Point{X: geom.FromMM(1), Y: geom.FromMM(1)}
	if sz := n.Child("size"); sz != nil {
		if v, err := sz.FloatArg(0); err == nil {
			size.X = geom.FromMM(v)
		}
		if v, err := sz.FloatArg(1); err == nil {
			size.Y = geom.FromMM(v)
		}
	}
	padType := n.Arg(1)
	hasHole := n.Child("drill") != nil || padType == "thru_hole" || padType == "np_thru_hole"
	return &board.Pad{Pos: toAbs(rel), Size: size, HasHole: hasHole}
}

func parseVia(n *Node) *board.Via {
	pos, ok := nodePoint(n.Child("at"))
	if !ok {
		return nil
	}
	v := &board.Via{Pos: pos, Top: board.LayerFCu, Bottom: board.LayerBCu}
	if sz := n.Child("size"); sz != nil {
		if d, err := sz.FloatArg(0); err == nil {
			v.Diameter = geom.FromMM(d)
		}
	}
	if layers := n.Child("layers"); layers != nil {
		v.Top = board.ParseLayer(layers.Arg(0))
		v.Bottom = board.ParseLayer(layers.Arg(1))
	}
	return v
}

// graphic is one parsed gr_* node, routed by layer to either the outline or
// the drawing list.
type graphic struct {
	layer    board.Layer
	segments []geom.Segment
	ring     []geom.Point
}

func (g *graphic) drawing() *board.Drawing {
	d := &board.Drawing{Layer: g.layer, Segments: g.segments}
	if len(g.ring) >= 3 {
		d.Polygon = geom.Poly{Points: g.ring}
	}
	return d
}

func parseGraphic(n *Node) *graphic {
	g := &graphic{layer: board.LayerOther}
	if ln := n.Child("layer"); ln != nil {
		g.layer = board.ParseLayer(ln.Arg(0))
	}
	width := geom.FromMM(0.12)
	if stroke := n.Child("stroke"); stroke != nil {
		if wn := stroke.Child("width"); wn != nil {
			if v, err := wn.FloatArg(0); err == nil {
				width = geom.FromMM(v)
			}
		}
	} else if wn := n.Child("width"); wn != nil {
		if v, err := wn.FloatArg(0); err == nil {
			width = geom.FromMM(v)
		}
	}

	switch n.Name() {
	case "gr_line":
		start, ok1 := nodePoint(n.Child("start"))
		end, ok2 := nodePoint(n.Child("end"))
		if !ok1 || !ok2 {
			return nil
		}
		g.segments = []geom.Segment{{Start: start, End: end, Width: width}}
	case "gr_rect":
		start, ok1 := nodePoint(n.Child("start"))
		end, ok2 := nodePoint(n.Child("end"))
		if !ok1 || !ok2 {
			return nil
		}
		b := geom.BBoxFromPoints(start, end)
		g.ring = geom.RectPoly(b).Points
	case "gr_poly":
		g.ring = parsePts(n.Child("pts"))
		if len(g.ring) < 3 {
			return nil
		}
	case "gr_circle":
		center, ok1 := nodePoint(n.Child("center"))
		end, ok2 := nodePoint(n.Child("end"))
		if !ok1 || !ok2 {
			return nil
		}
		g.ring = circleRing(center, center.Distance(end), 32)
	case "gr_arc":
		start, ok1 := nodePoint(n.Child("start"))
		mid, ok2 := nodePoint(n.Child("mid"))
		end, ok3 := nodePoint(n.Child("end"))
		if !ok1 || !ok2 || !ok3 {
			return nil
		}
		// Two chords approximate the arc; enough for obstacle checks and
		// for closing outline loops.
		g.segments = []geom.Segment{
			{Start: start, End: mid, Width: width},
			{Start: mid, End: end, Width: width},
		}
	}
	return g
}

// fpGraphicBounds computes the absolute bounding box of one fp_* graphic
// node, plus the transformed polygon for fp_poly. Used for courtyard capture
// and for growing the footprint body box.
func fpGraphicBounds(n *Node, toAbs func(geom.Point) geom.Point) (geom.BBox, geom.Poly, bool) {
	width := 0.0
	if stroke := n.Child("stroke"); stroke != nil {
		if wn := stroke.Child("width"); wn != nil {
			if v, err := wn.FloatArg(0); err == nil {
				width = geom.FromMM(v)
			}
		}
	} else if wn := n.Child("width"); wn != nil {
		if v, err := wn.FloatArg(0); err == nil {
			width = geom.FromMM(v)
		}
	}

	switch n.Name() {
	case "fp_line", "fp_rect":
		start, ok1 := nodePoint(n.Child("start"))
		end, ok2 := nodePoint(n.Child("end"))
		if !ok1 || !ok2 {
			return geom.BBox{}, geom.Poly{}, false
		}
		bb := geom.BBoxFromPoints(toAbs(start), toAbs(end)).Expand(width / 2)
		return bb, geom.Poly{}, true
	case "fp_circle":
		center, ok1 := nodePoint(n.Child("center"))
		end, ok2 := nodePoint(n.Child("end"))
		if !ok1 || !ok2 {
			return geom.BBox{}, geom.Poly{}, false
		}
		r := center.Distance(end) + width/2
		return geom.NewBBox(toAbs(center), 2*r, 2*r), geom.Poly{}, true
	case "fp_arc":
		start, ok1 := nodePoint(n.Child("start"))
		mid, ok2 := nodePoint(n.Child("mid"))
		end, ok3 := nodePoint(n.Child("end"))
		if !ok1 || !ok2 || !ok3 {
			return geom.BBox{}, geom.Poly{}, false
		}
		bb := geom.BBoxFromPoints(toAbs(start), toAbs(mid)).
			Union(geom.BBoxFromPoints(toAbs(mid), toAbs(end))).
			Expand(width / 2)
		return bb, geom.Poly{}, true
	case "fp_poly":
		pts := parsePts(n.Child("pts"))
		if len(pts) < 3 {
			return geom.BBox{}, geom.Poly{}, false
		}
		abs := make([]geom.Point, len(pts))
		for i, p := range pts {
			abs[i] = toAbs(p)
		}
		poly := geom.Poly{Points: abs}
		return poly.BBox(), poly, true
	}
	return geom.BBox{}, geom.Poly{}, false
}

func parsePts(n *Node) []geom.Point {
	if n == nil {
		return nil
	}
	var pts []geom.Point
	for _, xy := range n.Children("xy") {
		if p, ok := nodePoint(xy); ok {
			pts = append(pts, p)
		}
	}
	return pts
}

func circleRing(center geom.Point, radius float64, segments int) []geom.Point {
	ring := make([]geom.Point, segments)
	for i := range ring {
		a := 2 * math.Pi * float64(i) / float64(segments)
		ring[i] = geom.Point{
			X: center.X + radius*math.Cos(a),
			Y: center.Y + radius*math.Sin(a),
		}
	}
	return ring
}

// parseMaskZone extracts filled zones on a mask layer as mask-region
// drawings.
func parseMaskZone(n *Node) *board.Drawing {
	layer := board.LayerOther
	if ln := n.Child("layer"); ln != nil {
		layer = board.ParseLayer(ln.Arg(0))
	}
	if layer != board.LayerFMask && layer != board.LayerBMask {
		return nil
	}
	var pts []geom.Point
	if poly := n.Child("polygon"); poly != nil {
		pts = parsePts(poly.Child("pts"))
	}
	if len(pts) < 3 {
		if filled := n.Child("filled_polygon"); filled != nil {
			pts = parsePts(filled.Child("pts"))
		}
	}
	if len(pts) < 3 {
		return nil
	}
	return &board.Drawing{Layer: layer, Polygon: geom.Poly{Points: pts}}
}

// ringIsHole reports whether rings[i] is nested inside an odd number of the
// other edge-cut rings. Such a ring is a cutout (mounting slot, hole)
// subtracted from the board area rather than another perimeter.
func ringIsHole(i int, rings [][]geom.Point) bool {
	depth := 0
	pt := rings[i][0]
	for j, other := range rings {
		if j == i {
			continue
		}
		if (geom.Poly{Points: other}).ContainsPoint(pt) {
			depth++
		}
	}
	return depth%2 == 1
}

// chainRings assembles loose edge-cut segments into closed rings by walking
// matching endpoints. Open chains (malformed outlines) are dropped; the
// engine then rejects placements in that area rather than guessing.
func chainRings(segs []geom.Segment) [][]geom.Point {
	tol := geom.FromMM(endpointTolMM)
	used := make([]bool, len(segs))
	var rings [][]geom.Point

	near := func(a, b geom.Point) bool { return a.Distance(b) <= tol }

	for i := range segs {
		if used[i] {
			continue
		}
		used[i] = true
		ring := []geom.Point{segs[i].Start, segs[i].End}
		closed := false
		for !closed {
			tail := ring[len(ring)-1]
			if len(ring) > 2 && near(tail, ring[0]) {
				ring = ring[:len(ring)-1]
				closed = true
				break
			}
			found := false
			for j := range segs {
				if used[j] {
					continue
				}
				switch {
				case near(segs[j].Start, tail):
					ring = append(ring, segs[j].End)
				case near(segs[j].End, tail):
					ring = append(ring, segs[j].Start)
				default:
					continue
				}
				used[j] = true
				found = true
				break
			}
			if !found {
				break
			}
		}
		if closed && len(ring) >= 3 {
			rings = append(rings, ring)
		}
	}
	return rings
}
