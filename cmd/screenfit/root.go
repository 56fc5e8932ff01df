// Command screenfit converts a directory of screenshots to App Store
// screenshot sizes.
//
// Every PNG or JPEG in the input directory is written to the output
// directory under the same name. Images that already have an allowed size
// are re-encoded unchanged; all others are shrunk to fit the allowed size
// with the closest aspect ratio and centred on a padded canvas.
//
// With no arguments it reads ./captures and writes ./captures_resized.
// A YAML or TOML file given with --config replaces the defaults, and the
// flags below override both.
//
// Usage:
//
//	screenfit [--config file] [--input dir] [--output dir] [--keep-going] [-v]
package main

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/nvr-ai/screenfit/config"
	"github.com/nvr-ai/screenfit/resizer"
)

type rootOptions struct {
	configPath string
	inputDir   string
	outputDir  string
	keepGoing  bool
	verbose    bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var opts rootOptions

	cmd := &cobra.Command{
		Use:           "screenfit",
		Short:         "Fit screenshots onto App Store screenshot sizes",
		Long:          `screenfit converts every PNG and JPEG in a directory to the closest allowed App Store screenshot size, padding instead of cropping.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			level := log.InfoLevel
			if opts.verbose {
				level = log.DebugLevel
			}
			logger := newLogger(stderr, level)

			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			logger.Debug("Using config",
				"input", cfg.InputDir,
				"output", cfg.OutputDir,
				"targets", len(cfg.Targets),
				"filter", cfg.Filter,
				"keep_going", cfg.KeepGoing,
			)

			r, err := resizer.New(cfg, resizer.WithLogger(logger), resizer.WithProgress(stdout))
			if err != nil {
				return err
			}

			start := time.Now()
			summary, err := r.Run(cmd.Context())
			if summary != nil {
				logger.Debug("Run finished",
					"copied", summary.Copied,
					"resized", summary.Resized,
					"failed", len(summary.Failures),
					"elapsed", elapsed(start),
				)
			}
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "YAML or TOML config file")
	flags.StringVarP(&opts.inputDir, "input", "i", config.DefaultInputDir, "directory to read screenshots from")
	flags.StringVarP(&opts.outputDir, "output", "o", config.DefaultOutputDir, "directory to write results to")
	flags.BoolVar(&opts.keepGoing, "keep-going", false, "report failing files and continue")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose logging")

	return cmd
}

// loadConfig layers explicitly set flags over the config file, or over the
// defaults when no file is given.
func loadConfig(cmd *cobra.Command, opts rootOptions) (*config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.Load(opts.configPath); err != nil {
			return nil, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("input") {
		cfg.InputDir = opts.inputDir
	}
	if flags.Changed("output") {
		cfg.OutputDir = opts.outputDir
	}
	if flags.Changed("keep-going") {
		cfg.KeepGoing = opts.keepGoing
	}
	return cfg, nil
}
