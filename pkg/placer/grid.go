package placer

import (
	"github.com/silkworks/autosilk/pkg/board"
	"github.com/silkworks/autosilk/pkg/geom"
)

// gridSearch is the deterministic strategy: an exhaustive sweep of candidate
// positions in expanding rings around the footprint body, from touching the
// body out to the configured maximum standoff. First fit wins; the outward
// sweep order already encodes "closest to the footprint".
type gridSearch struct {
	*engine
}

func (g *gridSearch) name() string { return string(StrategyGrid) }

// place sweeps rings of candidates and commits the first valid one.
//
// The outer loop i is the standoff distance from the footprint edge, in
// step-size increments up to the maximum allowed distance. The inner loop j
// is the lateral offset from the footprint center line. Each (i, j) pair
// yields up to eight candidates: the label resting against the top or
// bottom edge shifted left/right by j, and against the left or right edge
// shifted up/down by j. The candidate order is fixed; two runs on the same
// board produce identical results.
func (g *gridSearch) place(field *board.TextField, owner *board.Footprint, obs *obstacles) bool {
	initial := field.Position()
	body := owner.BodyBBox
	center := body.Center()

	maxDist := g.cfg.MaxAllowedDistance // mm
	step := g.cfg.StepSize              // mm
	halfWidth := geom.ToMM(body.Width()) / 2
	halfW := field.Size.X / 2
	halfH := field.Size.Y / 2

	// A zero search distance means no candidate ring exists at all.
	if maxDist <= 0 {
		restore(field, initial)
		g.log.Debugf("%s %s couldn't be moved", owner.Ref, field.Kind)
		return false
	}

	const eps = 1e-9
	for i := 0.0; i <= maxDist+eps; i += step {
		standoff := geom.FromMM(i)
		maxJ := halfWidth + i
		for j := 0.0; j <= maxJ+eps; j += step {
			lateral := geom.FromMM(j)
			candidates := [8]geom.Point{
				{X: center.X - lateral, Y: body.MinY - standoff - halfH}, // above, left
				{X: center.X + lateral, Y: body.MinY - standoff - halfH}, // above, right
				{X: center.X - lateral, Y: body.MaxY + standoff + halfH}, // below, left
				{X: center.X + lateral, Y: body.MaxY + standoff + halfH}, // below, right
				{X: body.MinX - standoff - halfW, Y: center.Y - lateral}, // left, up
				{X: body.MaxX + standoff + halfW, Y: center.Y - lateral}, // right, up
				{X: body.MinX - standoff - halfW, Y: center.Y + lateral}, // left, down
				{X: body.MaxX + standoff + halfW, Y: center.Y + lateral}, // right, down
			}
			for _, cand := range candidates {
				if err := field.SetPosition(cand); err != nil {
					continue // out of range, infeasible candidate
				}
				if g.positionValid(field, owner, obs) {
					g.log.Debugf("%s %s moved to (%.2f, %.2f)",
						owner.Ref, field.Kind, geom.ToMM(cand.X), geom.ToMM(cand.Y))
					return true
				}
			}
		}
	}

	restore(field, initial)
	g.log.Debugf("%s %s couldn't be moved", owner.Ref, field.Kind)
	return false
}
