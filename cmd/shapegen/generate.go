package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/artpar/shapegen/adapters/jsclass"
	"github.com/artpar/shapegen/adapters/source"
	"github.com/artpar/shapegen/bootstrap"
	"github.com/artpar/shapegen/core/formatter"
	"github.com/artpar/shapegen/core/schema"
	"github.com/artpar/shapegen/domain/object"
	"github.com/spf13/cobra"
)

// errStale is returned by generate --check when the file on disk differs.
var errStale = errors.New("schema document is out of date")

// summaryTable describes the per-target summary record.
var summaryTable = formatter.Table{
	Title:   "summary",
	Columns: schema.SummaryColumns,
}

var (
	generateTarget         string
	generateName           string
	generateInstance       bool
	generateOut            string
	generateCheck          bool
	generateFormat         string
	generateNoInherited    bool
	generateEnumerableOnly bool
	generateNoCallbacks    bool
)

var generateCmd = &cobra.Command{
	Use:   "generate INPUT",
	Short: "Generate the schema document for one target",
	Long: `Analyze one target of an input file and write its schema document.

The document goes to stdout, or to --out. A summary of the emitted members is
printed to stderr.

Examples:
  shapegen generate browser.yaml --target Location
  shapegen generate shapes.js --target Circle --instance
  shapegen generate shapes.js --target Circle --out schemas/Circle.yaml
  shapegen generate shapes.js --target Circle --out schemas/Circle.yaml --check`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVarP(&generateTarget, "target", "t", "", "target name (optional when the input declares one target)")
	generateCmd.Flags().StringVar(&generateName, "name", "", "type name to use instead of the derived class name")
	generateCmd.Flags().BoolVar(&generateInstance, "instance", false, "analyze an instance of the target class (JavaScript input)")
	generateCmd.Flags().StringVarP(&generateOut, "out", "o", "", "write the document to this file")
	generateCmd.Flags().BoolVar(&generateCheck, "check", false, "fail if --out differs from the generated document")
	generateCmd.Flags().StringVarP(&generateFormat, "format", "f", "", "summary format: table, json or yaml")
	generateCmd.Flags().BoolVar(&generateNoInherited, "no-inherited", false, "only read the first prototype link")
	generateCmd.Flags().BoolVar(&generateEnumerableOnly, "enumerable-only", false, "skip non-enumerable properties")
	generateCmd.Flags().BoolVar(&generateNoCallbacks, "no-callbacks", false, "omit synthesized callback names")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if generateCheck && generateOut == "" {
		return fmt.Errorf("--check requires --out")
	}

	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	opts := applyOptionFlags(cfg.Options(), generateNoInherited, generateEnumerableOnly, generateNoCallbacks)

	f, err := reportFormatter(generateFormat, cfg.Output.SummaryFormat)
	if err != nil {
		return err
	}

	graph, err := source.Open(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	name, err := pickTarget(graph, generateTarget)
	if err != nil {
		return err
	}
	if generateInstance {
		name += jsclass.InstanceSuffix
	}

	target, err := graph.Resolve(name)
	if err != nil {
		return fmt.Errorf("%w (declared: %s)", err, strings.Join(graph.Targets(), ", "))
	}

	res, err := bootstrap.NewGenerator(logger, nil).Analyze(target, generateName, opts)
	if err != nil {
		return fmt.Errorf("generate %s: %w", name, err)
	}

	switch {
	case generateCheck:
		existing, err := os.ReadFile(generateOut)
		if err != nil {
			return fmt.Errorf("check: %w", err)
		}
		if !schema.Equivalent(string(existing), res.Text) {
			return fmt.Errorf("%w: %s", errStale, generateOut)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%s is up to date\n", generateOut)
		return nil
	case generateOut != "":
		if err := writeFile(generateOut, []byte(res.Text)); err != nil {
			return err
		}
	default:
		fmt.Fprint(cmd.OutOrStdout(), res.Text)
	}

	return writeRecord(cmd.ErrOrStderr(), f, summaryTable, res.Summary.Record(res.ClassName))
}

// pickTarget returns the requested target, or the only declared one.
func pickTarget(graph *object.Graph, requested string) (string, error) {
	if requested != "" {
		return requested, nil
	}
	targets := graph.Targets()
	if len(targets) != 1 {
		return "", fmt.Errorf("--target is required when the input declares %d targets (%s)",
			len(targets), strings.Join(targets, ", "))
	}
	return targets[0], nil
}

func applyOptionFlags(opts schema.Options, noInherited, enumerableOnly, noCallbacks bool) schema.Options {
	if noInherited {
		opts.IncludeInherited = false
	}
	if enumerableOnly {
		opts.IncludeNonEnumerable = false
	}
	if noCallbacks {
		opts.GenerateCallbacks = false
	}
	return opts
}
