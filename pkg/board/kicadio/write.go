package kicadio

import (
	"os"

	"github.com/silkworks/autosilk/pkg/board"
	"github.com/silkworks/autosilk/pkg/errors"
	"github.com/silkworks/autosilk/pkg/geom"
)

// Document is the parsed board file plus the bindings between model text
// fields and their position nodes in the tree. Apply pushes moved positions
// back into the tree; Write serializes it.
type Document struct {
	root     *Node
	bindings []fieldBinding
}

// fieldBinding ties a model text field to its (at ...) node. Positions in
// the file are footprint-relative and rotated by the footprint orientation,
// so writing back applies the inverse of the read transform.
type fieldBinding struct {
	field   *board.TextField
	atNode  *Node
	fpPos   geom.Point
	fpAngle float64
}

// Apply patches every bound field's current position into the tree. Fields
// that did not move still round-trip to their original coordinates.
func (d *Document) Apply() {
	for _, b := range d.bindings {
		rel := b.field.Position().Sub(b.fpPos).Rotate(-b.fpAngle)

		// Keep a trailing angle argument if the node had one.
		var angle *Node
		if len(b.atNode.List) >= 4 && !b.atNode.List[3].IsList() {
			angle = b.atNode.List[3]
		}
		list := []*Node{
			atom("at"),
			atom(formatMM(geom.ToMM(rel.X))),
			atom(formatMM(geom.ToMM(rel.Y))),
		}
		if angle != nil {
			list = append(list, angle)
		}
		b.atNode.List = list
	}
}

// Write applies pending field moves and writes the document to path.
func (d *Document) Write(path string) error {
	d.Apply()
	if err := os.WriteFile(path, []byte(Serialize(d.root)), 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeWrite, err, "writing %s", path)
	}
	return nil
}
