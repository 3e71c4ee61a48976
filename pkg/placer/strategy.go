package placer

import (
	"github.com/silkworks/autosilk/pkg/board"
	"github.com/silkworks/autosilk/pkg/geom"
)

// strategy is one placement search variant. place either commits a valid
// position for the field and returns true, or restores the field's starting
// position and returns false. Implementations must leave no residual
// mutation on failure.
type strategy interface {
	place(field *board.TextField, owner *board.Footprint, obs *obstacles) bool
	name() string
}

// restore puts a field back where it was. Restoring a previously held
// position cannot overflow, so the error is impossible by construction.
func restore(field *board.TextField, pos geom.Point) {
	_ = field.SetPosition(pos)
}
