// Package cli implements the autosilk command-line interface.
//
// This package provides commands for running the silkscreen placement engine
// over a KiCad board file and for auditing a board's current label
// positions. The CLI is built using cobra and supports verbose logging via
// the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - run: place silkscreen reference/value labels and write the result
//   - check: report which labels are valid at their current position
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The logger is
// owned by the CLI struct and handed explicitly to the engine; there is no
// process-wide logging state.
package cli

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/silkworks/autosilk/pkg/buildinfo"
)

// appName is the application name used for display and config lookup.
const appName = "autosilk"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Autosilk repositions silkscreen labels on KiCad boards",
		Long:         `Autosilk is a CLI tool that automatically moves the silkscreen reference and value labels on a KiCad board so each one sits inside the board outline without overlapping pads, vias, courtyards, other labels, or silkscreen art.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	// Register all subcommands
	root.AddCommand(c.runCommand())
	root.AddCommand(c.checkCommand())
	root.AddCommand(c.completionCommand())

	return root
}
