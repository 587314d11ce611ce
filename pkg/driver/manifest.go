// Package driver loads backlog.yml project manifests and installs the shared
// SCRUM sources they include.
package driver

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ManifestFile is the file name FindManifest looks for.
const ManifestFile = "backlog.yml"

// ErrManifestNotFound is returned by FindManifest when no directory from the
// start upwards holds a manifest.
var ErrManifestNotFound = errors.New(ManifestFile + " not found")

// Manifest represents the parsed contents of backlog.yml.
type Manifest struct {
	Path  string
	Name  string
	Entry string
	// Includes are loaded before the entry program, in IncludeOrder.
	Includes     map[string]*IncludeSpec
	IncludeOrder []string
	LLM          LLMSettings
}

// IncludeSpec names one shared source file, either on disk relative to the
// manifest or inside a git repository.
type IncludeSpec struct {
	Name   string
	Path   string
	Git    string
	Tag    string
	Branch string
	Rev    string
	File   string
}

// IsGit reports whether the include is fetched from a repository.
func (s *IncludeSpec) IsGit() bool {
	return s != nil && s.Git != ""
}

// LLMSettings override the SCRUM_* environment for intent processing.
type LLMSettings struct {
	Provider string
	Chain    []string
	Model    string
	// Timeout is in seconds; zero keeps the environment value.
	Timeout int
}

// ValidationError aggregates manifest validation failures.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "manifest: invalid configuration"
	}
	var b strings.Builder
	b.WriteString("manifest validation failed:")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

// LoadManifest parses backlog.yml from disk, returning a validated manifest.
func LoadManifest(path string) (*Manifest, error) {
	if path == "" {
		return nil, fmt.Errorf("manifest: empty path")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: resolve %s: %w", path, err)
	}
	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("manifest: open %s: %w", absPath, err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	var raw manifestFile
	if err := decoder.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("manifest: %s is empty", absPath)
		}
		return nil, fmt.Errorf("manifest: parse %s: %w", absPath, err)
	}

	manifest := raw.toManifest(absPath)
	if err := manifest.validate(); err != nil {
		return nil, err
	}
	return manifest, nil
}

// FindManifest walks from start up to the filesystem root and returns the
// path of the first backlog.yml it finds.
func FindManifest(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolve start directory %q: %w", start, err)
	}
	if info, statErr := os.Stat(dir); statErr == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}
	origin := dir
	for {
		candidate := filepath.Join(dir, ManifestFile)
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate, nil
		}
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no %s found from %s upwards: %w", ManifestFile, origin, ErrManifestNotFound)
		}
		dir = parent
	}
}

// Resolve returns path relative to the manifest's directory. Absolute paths
// are returned cleaned.
func (m *Manifest) Resolve(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(filepath.Dir(m.Path), filepath.FromSlash(path))
}

// EntryPath resolves the manifest's entry program.
func (m *Manifest) EntryPath() (string, error) {
	if m == nil {
		return "", fmt.Errorf("missing manifest")
	}
	if m.Entry == "" {
		return "", fmt.Errorf("manifest %s declares no entry", m.Path)
	}
	return m.Resolve(m.Entry), nil
}

// GitIncludes returns the repository-backed includes in declaration order.
func (m *Manifest) GitIncludes() []*IncludeSpec {
	var out []*IncludeSpec
	for _, name := range m.IncludeOrder {
		if spec := m.Includes[name]; spec.IsGit() {
			out = append(out, spec)
		}
	}
	return out
}

func (m *Manifest) validate() error {
	var errs ValidationError
	if m.Name == "" {
		errs.Issues = append(errs.Issues, "name must be provided")
	}
	if m.Entry != "" && filepath.Ext(m.Entry) == "" {
		errs.Issues = append(errs.Issues, fmt.Sprintf("entry %q must name a source file", m.Entry))
	}
	for _, name := range m.IncludeOrder {
		for _, issue := range m.Includes[name].validate() {
			errs.Issues = append(errs.Issues, fmt.Sprintf("includes.%s: %s", name, issue))
		}
	}
	if m.LLM.Timeout < 0 {
		errs.Issues = append(errs.Issues, "llm.timeout must not be negative")
	}
	if len(errs.Issues) > 0 {
		return &errs
	}
	return nil
}

func (s *IncludeSpec) validate() []string {
	var issues []string
	switch {
	case s.Path == "" && s.Git == "":
		issues = append(issues, "one of path or git is required")
	case s.Path != "" && s.Git != "":
		issues = append(issues, "path and git are mutually exclusive")
	}
	if s.Git == "" {
		if s.Tag != "" || s.Branch != "" || s.Rev != "" || s.File != "" {
			issues = append(issues, "tag, branch, rev and file require git")
		}
		return issues
	}
	refs := 0
	for _, ref := range []string{s.Tag, s.Branch, s.Rev} {
		if ref != "" {
			refs++
		}
	}
	if refs != 1 {
		issues = append(issues, "git includes require exactly one of tag, branch or rev")
	}
	if s.File == "" {
		issues = append(issues, "git includes require file")
	} else if filepath.IsAbs(s.File) || strings.HasPrefix(filepath.Clean(s.File), "..") {
		issues = append(issues, fmt.Sprintf("file %q must stay inside the repository", s.File))
	}
	return issues
}

type manifestFile struct {
	Name     string     `yaml:"name"`
	Entry    string     `yaml:"entry"`
	Includes includeMap `yaml:"includes"`
	LLM      struct {
		Provider string     `yaml:"provider"`
		Chain    stringList `yaml:"chain"`
		Model    string     `yaml:"model"`
		Timeout  int        `yaml:"timeout"`
	} `yaml:"llm"`
}

type stringList []string

type includeMap struct {
	order []string
	specs map[string]*IncludeSpec
}

func (mf manifestFile) toManifest(path string) *Manifest {
	m := &Manifest{
		Path:         path,
		Name:         strings.TrimSpace(mf.Name),
		Entry:        strings.TrimSpace(mf.Entry),
		Includes:     make(map[string]*IncludeSpec, len(mf.Includes.order)),
		IncludeOrder: append([]string(nil), mf.Includes.order...),
		LLM: LLMSettings{
			Provider: strings.ToLower(strings.TrimSpace(mf.LLM.Provider)),
			Chain:    mf.LLM.Chain.Clone(),
			Model:    strings.TrimSpace(mf.LLM.Model),
			Timeout:  mf.LLM.Timeout,
		},
	}
	for name, spec := range mf.Includes.specs {
		m.Includes[name] = spec
	}
	return m
}

func (l stringList) Clone() []string {
	if len(l) == 0 {
		return nil
	}
	out := make([]string, 0, len(l))
	for _, item := range l {
		item = strings.ToLower(strings.TrimSpace(item))
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}

func (l *stringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag == "!!null" || strings.TrimSpace(value.Value) == "" {
			*l = nil
			return nil
		}
		*l = stringList(strings.Split(value.Value, ","))
		return nil
	case yaml.SequenceNode:
		items := make([]string, 0, len(value.Content))
		for _, node := range value.Content {
			var str string
			if err := node.Decode(&str); err != nil {
				return err
			}
			items = append(items, str)
		}
		*l = stringList(items)
		return nil
	case yaml.AliasNode:
		return l.UnmarshalYAML(value.Alias)
	case 0:
		*l = nil
		return nil
	default:
		return fmt.Errorf("manifest: expected string or sequence for list but found %s", value.ShortTag())
	}
}

func (im *includeMap) UnmarshalYAML(value *yaml.Node) error {
	*im = includeMap{specs: make(map[string]*IncludeSpec)}
	if value.Kind == 0 || (value.Kind == yaml.ScalarNode && value.Tag == "!!null") {
		return nil
	}
	if value.Kind == yaml.AliasNode {
		return im.UnmarshalYAML(value.Alias)
	}
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("manifest: includes must be a mapping")
	}
	for i := 0; i < len(value.Content); i += 2 {
		var key string
		if err := value.Content[i].Decode(&key); err != nil {
			return err
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return fmt.Errorf("manifest: include names must be non-empty")
		}
		if _, dup := im.specs[key]; dup {
			return fmt.Errorf("manifest: include %q declared twice", key)
		}
		spec := &IncludeSpec{Name: key}
		if err := spec.unmarshalYAML(value.Content[i+1]); err != nil {
			return fmt.Errorf("manifest: include %q: %w", key, err)
		}
		im.specs[key] = spec
		im.order = append(im.order, key)
	}
	return nil
}

// unmarshalYAML accepts a bare path or a mapping.
func (s *IncludeSpec) unmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag == "!!null" {
			return nil
		}
		s.Path = strings.TrimSpace(value.Value)
		return nil
	case yaml.MappingNode:
		var raw struct {
			Path   string `yaml:"path"`
			Git    string `yaml:"git"`
			Tag    string `yaml:"tag"`
			Branch string `yaml:"branch"`
			Rev    string `yaml:"rev"`
			File   string `yaml:"file"`
		}
		if err := value.Decode(&raw); err != nil {
			return err
		}
		s.Path = strings.TrimSpace(raw.Path)
		s.Git = strings.TrimSpace(raw.Git)
		s.Tag = strings.TrimSpace(raw.Tag)
		s.Branch = strings.TrimSpace(raw.Branch)
		s.Rev = strings.TrimSpace(raw.Rev)
		s.File = strings.TrimSpace(raw.File)
		return nil
	case yaml.AliasNode:
		return s.unmarshalYAML(value.Alias)
	default:
		return fmt.Errorf("expected string or mapping, found %s", value.ShortTag())
	}
}
