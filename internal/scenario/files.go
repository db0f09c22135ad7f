package scenario

import (
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ParseFile reads and parses a single feature file. SourceFile is set to the
// file's base name on every definition.
func ParseFile(path string) ([]Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening feature file: %w", err)
	}
	defer func() { _ = f.Close() }()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("error reading feature file: %w", err)
	}

	defs := Parse(string(content))
	name := filepath.Base(path)
	for i := range defs {
		defs[i].SourceFile = name
	}

	slog.Debug("Parsed feature file", "path", path, "scenario_count", len(defs))
	return defs, nil
}

// Walk returns every regular file below root whose name ends with ext, sorted
// by path. Unreadable subdirectories are logged and skipped.
func Walk(root, ext string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("error reading features directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("features path is not a directory: %s", root)
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			slog.Warn("Skipping unreadable path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && strings.HasSuffix(d.Name(), ext) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking features directory: %w", err)
	}

	sort.Strings(files)
	return files, nil
}
