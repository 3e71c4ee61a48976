package cli

import (
	"os"

	"github.com/BurntSushi/toml"

	"github.com/silkworks/autosilk/pkg/errors"
	"github.com/silkworks/autosilk/pkg/placer"
)

// fileConfig is the TOML configuration file schema. Every key is optional;
// set keys override the engine defaults and are in turn overridden by flags
// given explicitly on the command line.
//
//	[placement]
//	max_distance = 5.0    # mm
//	step_size = 0.1       # mm, grid strategy only
//	strategy = "grid"     # grid | anneal
//	deflate_factor = 1.0  # (0, 1]
//	ignore_vias = true
//	selection_only = false
//	iterations = 100      # anneal strategy only
//	seed = 1
type fileConfig struct {
	Placement placementTable `toml:"placement"`
}

type placementTable struct {
	MaxDistance   *float64 `toml:"max_distance"`
	StepSize      *float64 `toml:"step_size"`
	Strategy      *string  `toml:"strategy"`
	DeflateFactor *float64 `toml:"deflate_factor"`
	IgnoreVias    *bool    `toml:"ignore_vias"`
	SelectionOnly *bool    `toml:"selection_only"`
	Iterations    *int     `toml:"iterations"`
	Seed          *uint64  `toml:"seed"`
}

// loadConfigFile reads a TOML config file and applies its set keys to cfg.
func loadConfigFile(path string, cfg *placer.Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
		}
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "config file %s", path)
	}
	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "config file %s", path)
	}

	p := fc.Placement
	if p.MaxDistance != nil {
		cfg.MaxAllowedDistance = *p.MaxDistance
	}
	if p.StepSize != nil {
		cfg.StepSize = *p.StepSize
	}
	if p.Strategy != nil {
		kind, err := placer.ParseStrategy(*p.Strategy)
		if err != nil {
			return err
		}
		cfg.Strategy = kind
	}
	if p.DeflateFactor != nil {
		cfg.DeflateFactor = *p.DeflateFactor
	}
	if p.IgnoreVias != nil {
		cfg.IgnoreVias = *p.IgnoreVias
	}
	if p.SelectionOnly != nil {
		cfg.OnlyProcessSelection = *p.SelectionOnly
	}
	if p.Iterations != nil {
		cfg.MaxIterations = *p.Iterations
	}
	if p.Seed != nil {
		cfg.Seed = *p.Seed
	}
	return nil
}
