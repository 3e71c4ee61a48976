package placer

import "github.com/silkworks/autosilk/pkg/errors"

// StrategyKind selects the placement search strategy. The choice is resolved
// once when the Placer is built, not re-dispatched per label.
type StrategyKind string

const (
	// StrategyGrid is the deterministic expanding-ring sweep.
	StrategyGrid StrategyKind = "grid"
	// StrategyAnneal is the stochastic simulated-annealing search.
	StrategyAnneal StrategyKind = "anneal"
)

// ParseStrategy maps a user-supplied strategy name to a StrategyKind.
// "stochastic" is accepted as an alias for "anneal".
func ParseStrategy(s string) (StrategyKind, error) {
	switch s {
	case "grid", "":
		return StrategyGrid, nil
	case "anneal", "stochastic":
		return StrategyAnneal, nil
	}
	return "", errors.New(errors.ErrCodeInvalidStrategy, "unknown strategy %q (want grid or anneal)", s)
}

// Config holds all placement parameters. Distances are in millimeters; the
// engine converts to internal units once at the start of a run. The zero
// value is not usable; start from DefaultConfig.
type Config struct {
	// MaxAllowedDistance is how far from the footprint center a label may
	// wander, in mm.
	MaxAllowedDistance float64

	// StepSize is the grid strategy's sweep increment in mm.
	StepSize float64

	// OnlyProcessSelection restricts the run to selected footprints.
	OnlyProcessSelection bool

	// IgnoreVias drops vias from the obstacle set entirely.
	IgnoreVias bool

	// DeflateFactor shrinks the label's bounding box about its center
	// before checks, in (0, 1]. 1 means no shrink.
	DeflateFactor float64

	// Strategy selects the search strategy.
	Strategy StrategyKind

	// MaxIterations caps the annealing schedule length. Ignored by the
	// grid strategy.
	MaxIterations int

	// Seed fixes the annealing random source so runs are reproducible.
	Seed uint64
}

// DefaultConfig returns the documented defaults, matching a conservative
// 5 mm search with a 0.1 mm grid.
func DefaultConfig() Config {
	return Config{
		MaxAllowedDistance:   5.0,
		StepSize:             0.1,
		OnlyProcessSelection: false,
		IgnoreVias:           true,
		DeflateFactor:        1.0,
		Strategy:             StrategyGrid,
		MaxIterations:        100,
		Seed:                 1,
	}
}

// Validate checks the configuration and reports the first problem found.
func (c Config) Validate() error {
	if c.MaxAllowedDistance < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "max allowed distance must be >= 0 mm, got %g", c.MaxAllowedDistance)
	}
	if c.StepSize <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "step size must be > 0 mm, got %g", c.StepSize)
	}
	if c.DeflateFactor <= 0 || c.DeflateFactor > 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "deflate factor must be in (0, 1], got %g", c.DeflateFactor)
	}
	if c.Strategy != StrategyGrid && c.Strategy != StrategyAnneal {
		return errors.New(errors.ErrCodeInvalidStrategy, "unknown strategy %q", string(c.Strategy))
	}
	if c.Strategy == StrategyAnneal && c.MaxIterations <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "iteration cap must be > 0, got %d", c.MaxIterations)
	}
	return nil
}
