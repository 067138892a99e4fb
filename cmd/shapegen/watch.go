package main

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/artpar/shapegen/bootstrap"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

// watchDebounce collapses the burst of events editors emit for one save.
const watchDebounce = 100 * time.Millisecond

var (
	watchOutDir  string
	watchTargets []string
)

var watchCmd = &cobra.Command{
	Use:   "watch INPUT",
	Short: "Regenerate documents whenever the input changes",
	Long: `Run a batch for INPUT, then run it again each time the file is saved.

Stops on SIGINT or SIGTERM.

Examples:
  shapegen watch shapes.js --out-dir schemas`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVarP(&watchOutDir, "out-dir", "o", "", "output directory (default: output.dir from config)")
	watchCmd.Flags().StringArrayVarP(&watchTargets, "target", "t", nil, "target name (repeatable; default: all targets)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return watchInput(ctx, cmd, args[0], nil)
}

// watchInput regenerates on every change to input until ctx is done. ran,
// when set, is signaled after each run.
func watchInput(ctx context.Context, cmd *cobra.Command, input string, ran chan<- error) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	outDir := watchOutDir
	if outDir == "" {
		outDir = cfg.Output.Dir
	}
	gen := bootstrap.NewGenerator(logger, nil)

	abs, err := filepath.Abs(input)
	if err != nil {
		return fmt.Errorf("absolute path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory (more reliable for editors that do atomic saves)
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch directory: %w", err)
	}

	regenerate := func() {
		result, err := runBatchOnce(cmd, gen, abs, watchTargets, outDir, cfg.Options(), logger)
		if err != nil {
			logger.Error().Err(err).Str("input", abs).Msg("regeneration failed")
		} else {
			logger.Info().
				Str("input", abs).
				Int("succeeded", result.Succeeded()).
				Int("failed", result.Failed()).
				Msg("documents regenerated")
		}
		if ran != nil {
			select {
			case ran <- err:
			case <-ctx.Done():
			}
		}
	}

	regenerate()
	logger.Info().Str("input", abs).Str("out_dir", outDir).Msg("watching input for changes")

	filename := filepath.Base(abs)
	var debounce <-chan time.Time

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				logger.Debug().
					Str("event", event.Op.String()).
					Str("file", event.Name).
					Msg("input changed")
				debounce = time.After(watchDebounce)
			}

		case <-debounce:
			debounce = nil
			regenerate()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error().Err(err).Msg("file watcher error")

		case <-ctx.Done():
			return nil
		}
	}
}
