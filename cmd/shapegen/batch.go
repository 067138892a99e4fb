package main

import (
	"fmt"

	"github.com/artpar/shapegen/adapters/source"
	"github.com/artpar/shapegen/app"
	"github.com/artpar/shapegen/bootstrap"
	"github.com/artpar/shapegen/core/formatter"
	"github.com/artpar/shapegen/core/schema"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	batchTargets        []string
	batchOutDir         string
	batchFormat         string
	batchNoInherited    bool
	batchEnumerableOnly bool
	batchNoCallbacks    bool
)

var batchCmd = &cobra.Command{
	Use:   "batch INPUT",
	Short: "Generate documents for several targets",
	Long: `Analyze targets one after another and write DIR/NAME.yaml for each success.

Without --target every declared target is analyzed. A failing target does not
stop the batch; the outcome report lists every target in input order and the
command exits non-zero if any failed.

Examples:
  shapegen batch browser.yaml --out-dir schemas
  shapegen batch shapes.js --target Shape --target Circle --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringArrayVarP(&batchTargets, "target", "t", nil, "target name (repeatable; default: all targets)")
	batchCmd.Flags().StringVarP(&batchOutDir, "out-dir", "o", "", "output directory (default: output.dir from config)")
	batchCmd.Flags().StringVarP(&batchFormat, "format", "f", "", "report format: table, json or yaml")
	batchCmd.Flags().BoolVar(&batchNoInherited, "no-inherited", false, "only read the first prototype link")
	batchCmd.Flags().BoolVar(&batchEnumerableOnly, "enumerable-only", false, "skip non-enumerable properties")
	batchCmd.Flags().BoolVar(&batchNoCallbacks, "no-callbacks", false, "omit synthesized callback names")
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	opts := applyOptionFlags(cfg.Options(), batchNoInherited, batchEnumerableOnly, batchNoCallbacks)

	f, err := reportFormatter(batchFormat, cfg.Output.SummaryFormat)
	if err != nil {
		return err
	}

	outDir := batchOutDir
	if outDir == "" {
		outDir = cfg.Output.Dir
	}

	gen := bootstrap.NewGenerator(logger, nil)
	result, err := runBatchOnce(cmd, gen, args[0], batchTargets, outDir, opts, logger)
	if err != nil {
		return err
	}

	if err := f.FormatList(cmd.OutOrStdout(), app.OutcomeTable, result.Records(), formatter.FormatOptions{}); err != nil {
		return err
	}

	if n := result.Failed(); n > 0 {
		return fmt.Errorf("%d of %d targets failed", n, len(result.Outcomes))
	}
	return nil
}

// runBatchOnce loads input, analyzes targets and writes each successful
// document to outDir.
func runBatchOnce(cmd *cobra.Command, gen *app.Generator, input string, targets []string, outDir string, opts schema.Options, logger zerolog.Logger) (app.BatchResult, error) {
	graph, err := source.Open(cmd.Context(), input)
	if err != nil {
		return app.BatchResult{}, err
	}

	names := targets
	if len(names) == 0 {
		names = graph.Targets()
	}
	paths, err := documentPaths(outDir, names)
	if err != nil {
		return app.BatchResult{}, err
	}

	result := gen.BatchSource(graph, names, opts)

	for i, o := range result.Outcomes {
		if !o.Success {
			continue
		}
		if err := writeFile(paths[i], []byte(o.Document)); err != nil {
			return result, err
		}
		logger.Debug().Str("target", names[i]).Str("path", paths[i]).Msg("document written")
	}
	return result, nil
}
