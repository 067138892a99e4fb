package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/artpar/shapegen/core/formatter"
)

var fileNameReplacer = strings.NewReplacer("/", "_", "\\", "_", "#", ".", ":", "_")

// errPathCollision is returned when distinct targets map to one output file.
var errPathCollision = errors.New("output path collision")

// documentPath returns where a target's document is written inside dir.
func documentPath(dir, target string) string {
	return filepath.Join(dir, fileNameReplacer.Replace(target)+".yaml")
}

// documentPaths returns the output path of each target, failing when two
// distinct targets would write the same file.
func documentPaths(dir string, targets []string) ([]string, error) {
	paths := make([]string, len(targets))
	owners := make(map[string]string, len(targets))
	for i, target := range targets {
		path := documentPath(dir, target)
		if owner, taken := owners[path]; taken && owner != target {
			return nil, fmt.Errorf("%w: targets %q and %q both write %s", errPathCollision, owner, target, path)
		}
		owners[path] = target
		paths[i] = path
	}
	return paths, nil
}

// writeFile writes data through a temporary file so readers never observe a
// partial document.
func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// reportFormatter resolves a formatter by name, falling back to the
// configured one.
func reportFormatter(name, configured string) (formatter.Formatter, error) {
	if name == "" {
		name = configured
	}
	f, ok := formatter.Get(name)
	if !ok {
		return nil, fmt.Errorf("unknown format %q (available: %s)", name, strings.Join(formatter.List(), ", "))
	}
	return f, nil
}

func writeRecord(w io.Writer, f formatter.Formatter, t formatter.Table, record map[string]any) error {
	return f.FormatRecord(w, t, record, formatter.FormatOptions{})
}
