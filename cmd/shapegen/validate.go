package main

import (
	"fmt"
	"os"

	"github.com/artpar/shapegen/bootstrap"
	"github.com/artpar/shapegen/core/schema"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [FILE]",
	Short: "Check a schema document or the configuration",
	Long: `Check that FILE is a well formed schema document: the top-level keys
are present and in order, and every member entry carries a name.

Without FILE the configuration file is validated instead.

Examples:
  shapegen validate schemas/Location.yaml
  shapegen validate --config /etc/shapegen/shapegen.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if len(args) == 0 {
		return validateConfig(cmd)
	}

	path := args[0]
	fmt.Fprintf(out, "Validating %s...\n\n", path)

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(out, "  %s Document readable\n", crossMark)
		return fmt.Errorf("read document: %w", err)
	}
	fmt.Fprintf(out, "  %s Document readable\n", checkMark)

	if err := schema.Validate(data); err != nil {
		fmt.Fprintf(out, "  %s Document structure\n", crossMark)
		return err
	}
	fmt.Fprintf(out, "  %s Document structure\n", checkMark)

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Document is valid.")
	return nil
}

func validateConfig(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	holder, err := bootstrap.OpenConfig(cfgFile, zerolog.Nop())
	if err != nil {
		fmt.Fprintf(out, "  %s Config valid\n", crossMark)
		return fmt.Errorf("config error: %w", err)
	}
	cfg := holder.Get()

	source := holder.Path()
	if source == "" {
		source = "environment"
	}
	fmt.Fprintf(out, "  %s Config valid (%s)\n", checkMark, source)

	opts := cfg.Options()
	fmt.Fprintf(out, "  %s Include inherited: %t\n", checkMark, opts.IncludeInherited)
	fmt.Fprintf(out, "  %s Include non-enumerable: %t\n", checkMark, opts.IncludeNonEnumerable)
	fmt.Fprintf(out, "  %s Generate callbacks: %t\n", checkMark, opts.GenerateCallbacks)
	fmt.Fprintf(out, "  %s Server: %s\n", checkMark, cfg.Server.Addr())
	fmt.Fprintf(out, "  %s Summary format: %s\n", checkMark, cfg.Output.SummaryFormat)

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Configuration is valid.")
	return nil
}

const (
	checkMark = "\033[32m✓\033[0m"
	crossMark = "\033[31m✗\033[0m"
)
