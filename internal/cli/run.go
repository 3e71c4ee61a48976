package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/silkworks/autosilk/pkg/board/kicadio"
	"github.com/silkworks/autosilk/pkg/placer"
)

// runFlags holds the raw flag values for the run command. They are merged
// into the effective config after the optional config file, so explicit
// flags always win over file keys.
type runFlags struct {
	output        string
	configFile    string
	dryRun        bool
	maxDistance   float64
	step          float64
	strategy      string
	deflate       float64
	ignoreVias    bool
	selectionOnly bool
	iterations    int
	seed          uint64
}

// runCommand creates the run command that places labels and writes the
// result.
func (c *CLI) runCommand() *cobra.Command {
	var f runFlags
	defaults := placer.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "run [board.kicad_pcb]",
		Short: "Place silkscreen labels on a board",
		Long: `Place silkscreen labels on a board.

The run command loads a KiCad board file, searches for a valid position near
each footprint for its reference and value silkscreen labels, and writes the
modified board. Labels with no valid position within the allowed distance
stay exactly where they were.

Configuration can come from a TOML file (--config); flags given explicitly
on the command line take precedence over the file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.effectiveConfig(cmd)
			if err != nil {
				return err
			}
			return c.runPlace(cmd.Context(), args[0], f.output, cfg, f.dryRun)
		},
	}

	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output board file (default: overwrite input)")
	cmd.Flags().StringVar(&f.configFile, "config", "", "TOML configuration file")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "search and report, but write nothing")

	cmd.Flags().Float64Var(&f.maxDistance, "max-distance", defaults.MaxAllowedDistance, "maximum label travel from the footprint center (mm)")
	cmd.Flags().Float64Var(&f.step, "step", defaults.StepSize, "grid sweep increment (mm)")
	cmd.Flags().StringVar(&f.strategy, "strategy", string(defaults.Strategy), "search strategy: grid (default), anneal")
	cmd.Flags().Float64Var(&f.deflate, "deflate", defaults.DeflateFactor, "label box shrink factor for the outline check (0-1]")
	cmd.Flags().BoolVar(&f.ignoreVias, "ignore-vias", defaults.IgnoreVias, "do not treat vias as obstacles")
	cmd.Flags().BoolVar(&f.selectionOnly, "selection-only", defaults.OnlyProcessSelection, "only process selected footprints")
	cmd.Flags().IntVar(&f.iterations, "iterations", defaults.MaxIterations, "annealing iteration cap")
	cmd.Flags().Uint64Var(&f.seed, "seed", defaults.Seed, "annealing random seed")

	return cmd
}

// effectiveConfig resolves precedence: engine defaults, then the config
// file, then any flags the user set explicitly.
func (f *runFlags) effectiveConfig(cmd *cobra.Command) (placer.Config, error) {
	cfg := placer.DefaultConfig()
	if f.configFile != "" {
		if err := loadConfigFile(f.configFile, &cfg); err != nil {
			return cfg, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("max-distance") {
		cfg.MaxAllowedDistance = f.maxDistance
	}
	if flags.Changed("step") {
		cfg.StepSize = f.step
	}
	if flags.Changed("strategy") {
		kind, err := placer.ParseStrategy(f.strategy)
		if err != nil {
			return cfg, err
		}
		cfg.Strategy = kind
	}
	if flags.Changed("deflate") {
		cfg.DeflateFactor = f.deflate
	}
	if flags.Changed("ignore-vias") {
		cfg.IgnoreVias = f.ignoreVias
	}
	if flags.Changed("selection-only") {
		cfg.OnlyProcessSelection = f.selectionOnly
	}
	if flags.Changed("iterations") {
		cfg.MaxIterations = f.iterations
	}
	if flags.Changed("seed") {
		cfg.Seed = f.seed
	}
	return cfg, nil
}

// runPlace loads the board, runs the engine, prints the summary, and writes
// the output file.
func (c *CLI) runPlace(ctx context.Context, input, output string, cfg placer.Config, dryRun bool) error {
	brd, doc, err := kicadio.Read(input)
	if err != nil {
		return err
	}
	c.Logger.Debugf("loaded %s: %d footprints, %d vias, %d drawings",
		input, len(brd.Footprints), len(brd.Vias), len(brd.Drawings))

	p, err := placer.New(brd, cfg, c.Logger)
	if err != nil {
		return err
	}
	res, err := p.Run(ctx)
	if err != nil {
		return err
	}

	printRunSummary(res)

	if dryRun {
		printInfo("dry run, nothing written")
		return nil
	}
	if output == "" {
		output = input
	}
	if err := doc.Write(output); err != nil {
		return err
	}
	printFile(output)
	return nil
}

// checkFlags holds the raw flag values for the check command, merged with
// the same precedence as the run command: defaults, then the config file,
// then flags the user set explicitly.
type checkFlags struct {
	configFile string
	deflate    float64
	ignoreVias bool
}

func (f *checkFlags) effectiveConfig(cmd *cobra.Command) (placer.Config, error) {
	cfg := placer.DefaultConfig()
	if f.configFile != "" {
		if err := loadConfigFile(f.configFile, &cfg); err != nil {
			return cfg, err
		}
	}
	flags := cmd.Flags()
	if flags.Changed("deflate") {
		cfg.DeflateFactor = f.deflate
	}
	if flags.Changed("ignore-vias") {
		cfg.IgnoreVias = f.ignoreVias
	}
	return cfg, nil
}

// checkCommand creates the check command that audits current label
// positions without moving anything.
func (c *CLI) checkCommand() *cobra.Command {
	var f checkFlags
	defaults := placer.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "check [board.kicad_pcb]",
		Short: "Report which silkscreen labels are valid where they are",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.effectiveConfig(cmd)
			if err != nil {
				return err
			}
			return c.runCheck(cmd.Context(), args[0], cfg)
		},
	}

	cmd.Flags().StringVar(&f.configFile, "config", "", "TOML configuration file")
	cmd.Flags().Float64Var(&f.deflate, "deflate", defaults.DeflateFactor, "label box shrink factor for the outline check (0-1]")
	cmd.Flags().BoolVar(&f.ignoreVias, "ignore-vias", defaults.IgnoreVias, "do not treat vias as obstacles")

	return cmd
}

func (c *CLI) runCheck(ctx context.Context, input string, cfg placer.Config) error {
	brd, _, err := kicadio.Read(input)
	if err != nil {
		return err
	}
	p, err := placer.New(brd, cfg, c.Logger)
	if err != nil {
		return err
	}
	statuses, err := p.Audit(ctx)
	if err != nil {
		return err
	}

	bad := 0
	for _, s := range statuses {
		if !s.Valid {
			bad++
			printWarning("%s %s overlaps or leaves the board", s.Ref, s.Kind)
		}
	}
	if bad == 0 {
		printSuccess("all %d silkscreen labels are valid", len(statuses))
	} else {
		printInfo("%d of %d labels need attention", bad, len(statuses))
	}
	return nil
}
