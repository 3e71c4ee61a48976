// Package placer implements automatic silkscreen label placement. For every
// footprint on a board it searches for positions where the reference and
// value fields fit inside the board outline without overlapping other
// labels, courtyards, through-hole pads, vias, mask openings, or silkscreen
// art, and moves the fields there. Labels with no valid position within the
// configured distance are left exactly where they started.
package placer

import (
	"context"
	"math"
	"time"

	charmlog "github.com/charmbracelet/log"

	"github.com/silkworks/autosilk/pkg/board"
	"github.com/silkworks/autosilk/pkg/geom"
)

// Result summarizes a placement run.
type Result struct {
	Moved   int // labels moved to a new valid position
	Total   int // labels considered
	Elapsed time.Duration
}

// LabelStatus reports one label's validity at its current position, as
// returned by Audit.
type LabelStatus struct {
	Ref   string
	Kind  board.FieldKind
	Valid bool
}

// Placer runs the placement engine over one board. Construct with New; the
// zero value is not usable.
type Placer struct {
	brd   *board.Board
	eng   *engine
	strat strategy
}

// New builds a Placer for the given board. The configuration is validated
// and the strategy resolved once, up front. The logger is required; pass a
// logger writing to io.Discard to silence the engine.
func New(b *board.Board, cfg Config, logger *charmlog.Logger) (*Placer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	eng := &engine{outline: b.Outline, cfg: cfg, log: logger}
	var strat strategy
	if cfg.Strategy == StrategyAnneal {
		strat = newAnnealSearch(eng)
	} else {
		strat = &gridSearch{engine: eng}
	}
	logger.Debugf("using %s strategy, max distance %.2f mm", strat.name(), cfg.MaxAllowedDistance)
	return &Placer{brd: b, eng: eng, strat: strat}, nil
}

// Run places every eligible label on the board, in document order, and
// returns the moved/considered counts. The context is checked between
// footprints; cancellation returns ctx.Err with the partial result. Labels
// that cannot be placed are restored and counted as not moved, never
// reported as errors.
func (p *Placer) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	var res Result

	pools := p.buildPools()
	maxDist := geom.FromMM(p.eng.cfg.MaxAllowedDistance)

	for _, fp := range p.brd.Footprints {
		if err := ctx.Err(); err != nil {
			res.Elapsed = time.Since(start)
			return res, err
		}
		if p.eng.cfg.OnlyProcessSelection && !fp.Selected {
			continue
		}
		refOK := fp.Reference.IsSilkscreen()
		valOK := fp.Value.IsSilkscreen()
		if !refOK && !valOK {
			continue
		}

		obs := p.pruneFor(fp, maxDist, refOK, valOK, pools)

		if refOK {
			res.Total++
			if p.strat.place(fp.Reference, fp, obs) {
				res.Moved++
			}
		}
		if valOK {
			res.Total++
			if p.strat.place(fp.Value, fp, obs) {
				res.Moved++
			}
		}
	}

	res.Elapsed = time.Since(start)
	p.eng.log.Infof("finished (%d/%d moved) in %s", res.Moved, res.Total, res.Elapsed.Round(time.Millisecond))
	return res, nil
}

// Audit reports, without moving anything, whether each eligible label is
// valid at its current position.
func (p *Placer) Audit(ctx context.Context) ([]LabelStatus, error) {
	pools := p.buildPools()
	maxDist := geom.FromMM(p.eng.cfg.MaxAllowedDistance)

	var out []LabelStatus
	for _, fp := range p.brd.Footprints {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		if p.eng.cfg.OnlyProcessSelection && !fp.Selected {
			continue
		}
		refOK := fp.Reference.IsSilkscreen()
		valOK := fp.Value.IsSilkscreen()
		if !refOK && !valOK {
			continue
		}
		obs := p.pruneFor(fp, maxDist, refOK, valOK, pools)
		if refOK {
			out = append(out, LabelStatus{
				Ref:   fp.Ref,
				Kind:  board.Reference,
				Valid: p.eng.positionValid(fp.Reference, fp, obs),
			})
		}
		if valOK {
			out = append(out, LabelStatus{
				Ref:   fp.Ref,
				Kind:  board.Value,
				Valid: p.eng.positionValid(fp.Value, fp, obs),
			})
		}
	}
	return out, nil
}

// pools holds the whole-board obstacle lists a run filters per footprint.
type pools struct {
	vias     []*board.Via
	pads     []*board.Pad
	drawings []*board.Drawing
	masks    []*board.Drawing
}

// buildPools snapshots the board-wide obstacle lists once per run. Vias are
// excluded wholesale when configured to be ignored, and buried vias never
// count.
func (p *Placer) buildPools() pools {
	var vias []*board.Via
	if !p.eng.cfg.IgnoreVias {
		for _, v := range p.brd.Vias {
			if v.OnOuterCopper() {
				vias = append(vias, v)
			}
		}
	}
	return pools{
		vias:     vias,
		pads:     p.brd.ThroughHolePads(),
		drawings: p.brd.SilkDrawings(),
		masks:    p.brd.MaskRegions(),
	}
}

// pruneFor narrows the board-wide pools to what could plausibly collide with
// either of fp's labels. The radius covers the whole candidate envelope: the
// grid sweep reaches corner candidates offset by up to the body half-size
// plus the maximum travel on both axes at once, hence the sqrt(2) on the
// additive terms, and the larger eligible label's full diagonal covers its
// box extent at any candidate. The bound over-approximates but never
// under-approximates, so pruning can never change a placement verdict.
func (p *Placer) pruneFor(fp *board.Footprint, maxDist float64, refOK, valOK bool, all pools) *obstacles {
	half := math.Max(fp.BodyBBox.Width(), fp.BodyBBox.Height()) / 2
	radius := math.Sqrt2 * (half + maxDist)
	switch {
	case refOK && valOK:
		radius += math.Max(fp.Reference.BBox().Diagonal(), fp.Value.BBox().Diagonal())
	case refOK:
		radius += fp.Reference.BBox().Diagonal()
	case valOK:
		radius += fp.Value.BBox().Diagonal()
	}

	center := fp.BodyBBox.Center()
	return &obstacles{
		footprints: pruneFootprints(center, radius, p.brd.Footprints),
		vias:       pruneByDistance(center, radius, all.vias),
		pads:       pruneByDistance(center, radius, all.pads),
		masks:      pruneByDistance(center, radius, all.masks),
		drawings:   pruneByDistance(center, radius, all.drawings),
	}
}
