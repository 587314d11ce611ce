package driver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Source is the text of one resolved include.
type Source struct {
	Name string
	Path string
	Text string
}

// IncludeSources reads every include of m in declaration order. Git includes
// are read from their checkout under cacheDir.
func IncludeSources(m *Manifest, cacheDir string) ([]Source, error) {
	if m == nil {
		return nil, nil
	}
	sources := make([]Source, 0, len(m.IncludeOrder))
	for _, name := range m.IncludeOrder {
		spec := m.Includes[name]
		path, err := includePath(m, spec, cacheDir)
		if err != nil {
			return nil, err
		}
		text, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("include %q: %w", name, err)
		}
		sources = append(sources, Source{Name: name, Path: path, Text: string(text)})
	}
	return sources, nil
}

func includePath(m *Manifest, spec *IncludeSpec, cacheDir string) (string, error) {
	if !spec.IsGit() {
		return m.Resolve(spec.Path), nil
	}
	dir := checkoutDir(cacheDir, spec)
	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("include %q not installed; run `scrum deps install`", spec.Name)
		}
		return "", err
	}
	return filepath.Join(dir, filepath.FromSlash(spec.File)), nil
}
