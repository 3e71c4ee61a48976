package placer

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/silkworks/autosilk/pkg/board"
	"github.com/silkworks/autosilk/pkg/geom"
)

const (
	// infPenalty is the objective value for infeasible candidates.
	infPenalty = 1e6
	// acceptThreshold separates feasible results from penalized ones. Any
	// best value below it corresponds to a genuinely valid position.
	acceptThreshold = 1e5
	// annealEvalsPerIter converts the configured iteration cap into objective
	// evaluations.
	annealEvalsPerIter = 20
	// annealStartTemp and annealEndTemp bound the geometric cooling schedule.
	annealStartTemp = 1.0
	annealEndTemp   = 1e-3
)

// annealSearch is the stochastic strategy: simulated annealing over a
// continuous square of half-width MaxAllowedDistance around the footprint
// center, minimizing distance-to-center with a large penalty for infeasible
// positions. Faster than the grid on dense boards, at the cost of
// first-fit-quality guarantees.
type annealSearch struct {
	*engine
	normal  distuv.Normal
	uniform distuv.Uniform
}

func newAnnealSearch(e *engine) *annealSearch {
	src := rand.NewSource(e.cfg.Seed)
	return &annealSearch{
		engine:  e,
		normal:  distuv.Normal{Mu: 0, Sigma: 1, Src: src},
		uniform: distuv.Uniform{Min: 0, Max: 1, Src: src},
	}
}

func (a *annealSearch) name() string { return string(StrategyAnneal) }

// place anneals the field position and commits the best found position if it
// is feasible.
func (a *annealSearch) place(field *board.TextField, owner *board.Footprint, obs *obstacles) bool {
	initial := field.Position()
	center := owner.BodyBBox.Center()
	cx, cy := geom.ToMM(center.X), geom.ToMM(center.Y)
	maxDist := a.cfg.MaxAllowedDistance

	lo := [2]float64{cx - maxDist, cy - maxDist}
	hi := [2]float64{cx + maxDist, cy + maxDist}

	// Objective: distance to the footprint center for valid positions,
	// penalized by infPenalty for invalid ones (with the distance term kept
	// as guidance), and a flat infPenalty when the candidate overflows the
	// coordinate range or leaves the board outline entirely. The field is
	// always restored before returning, so evaluation has no lasting effect.
	objective := func(x, y float64) float64 {
		prev := field.Position()
		defer restore(field, prev)

		if err := field.SetPosition(geom.Point{X: geom.FromMM(x), Y: geom.FromMM(y)}); err != nil {
			return infPenalty
		}
		if !a.outline.ContainsBox(field.BBox()) {
			return infPenalty
		}
		dist := math.Hypot(x-cx, y-cy)
		if !a.positionValid(field, owner, obs) {
			return infPenalty + dist
		}
		return dist
	}

	clamp := func(v, lo, hi float64) float64 {
		return math.Min(hi, math.Max(lo, v))
	}

	cur := [2]float64{cx, cy}
	curF := objective(cur[0], cur[1])
	best, bestF := cur, curF

	evals := a.cfg.MaxIterations * annealEvalsPerIter
	for k := 0; k < evals; k++ {
		frac := float64(k) / float64(evals)
		temp := annealStartTemp * math.Pow(annealEndTemp/annealStartTemp, frac)
		sigma := maxDist * temp

		cand := [2]float64{
			clamp(cur[0]+a.normal.Rand()*sigma, lo[0], hi[0]),
			clamp(cur[1]+a.normal.Rand()*sigma, lo[1], hi[1]),
		}
		candF := objective(cand[0], cand[1])

		if delta := candF - curF; delta <= 0 || a.uniform.Rand() < math.Exp(-delta/temp) {
			cur, curF = cand, candF
		}
		if candF < bestF {
			best, bestF = cand, candF
		}
	}

	if bestF < acceptThreshold {
		pos := geom.Point{X: geom.FromMM(best[0]), Y: geom.FromMM(best[1])}
		if err := field.SetPosition(pos); err == nil {
			a.log.Debugf("%s %s moved to (%.2f, %.2f)", owner.Ref, field.Kind, best[0], best[1])
			return true
		}
	}

	restore(field, initial)
	a.log.Debugf("%s %s couldn't be moved", owner.Ref, field.Kind)
	return false
}
