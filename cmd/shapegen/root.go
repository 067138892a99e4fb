package main

import (
	"fmt"
	"os"

	"github.com/artpar/shapegen/bootstrap"
	"github.com/artpar/shapegen/config"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile   string
	logLevel  string
	logFormat string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "shapegen",
	Short: "Generate schema documents from live object graphs",
	Long: `shapegen inspects classes and objects and writes a YAML schema document
describing their constructor, inheritance, and instance, prototype, and static
members.

Input is either an object graph snapshot (.yaml, .yml, .json) or JavaScript
source containing class declarations (.js, .mjs, .cjs).

Quick start:
  shapegen generate browser.yaml --target Location
  shapegen batch shapes.js --out-dir schemas
  shapegen serve

Configuration is read from shapegen.yaml (or --config) with SHAPEGEN_*
environment variables layered on top.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default: shapegen.yaml when present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: json or console")
}

// loadConfig loads the configuration and builds a logger that honors the
// global flags.
func loadConfig(cmd *cobra.Command) (*config.Config, zerolog.Logger, error) {
	holder, err := bootstrap.OpenConfig(cfgFile, zerolog.Nop())
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("load config: %w", err)
	}
	cfg := holder.Get()

	level, format := cfg.Logging.Level, cfg.Logging.Format
	if logLevel != "" {
		level = logLevel
	}
	if logFormat != "" {
		format = logFormat
	}
	return cfg, bootstrap.NewLogger(level, format, cmd.ErrOrStderr()), nil
}
