package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
)

var (
	// ErrProjectSectionMissing indicates that [project] is missing.
	ErrProjectSectionMissing = errors.New("missing [project]")
	// ErrProjectNameMissing indicates that [project].name is missing.
	ErrProjectNameMissing = errors.New("missing [project].name")
	// ErrNoMatch indicates that a libraries or recipes entry matched no file.
	ErrNoMatch = errors.New("pattern matches no file")
)

// Default values of the [build] section.
const (
	DefaultMaxDiagnostics = 100
	DefaultCacheDir       = ".typeweave/cache"
)

// Manifest is a decoded typeweave.toml.
type Manifest struct {
	// Path is the absolute path of the manifest; Root its directory.
	Path string
	Root string

	Name      string
	Libraries []string
	Recipes   []string
	Build     BuildSettings
}

// BuildSettings is the [build] section.
type BuildSettings struct {
	// Jobs bounds the number of concurrent sessions; 0 means GOMAXPROCS.
	Jobs           int
	AllowPartial   bool
	MaxDiagnostics int
	// CacheDir holds decoded libraries, relative to Root. Empty disables it.
	CacheDir string
	NoCache  bool
}

type manifestFile struct {
	Project struct {
		Name      string   `toml:"name"`
		Libraries []string `toml:"libraries"`
		Recipes   []string `toml:"recipes"`
	} `toml:"project"`
	Build struct {
		Jobs           int    `toml:"jobs"`
		AllowPartial   bool   `toml:"allow_partial"`
		MaxDiagnostics int    `toml:"max_diagnostics"`
		CacheDir       string `toml:"cache_dir"`
		NoCache        bool   `toml:"no_cache"`
	} `toml:"build"`
}

// LoadManifest parses and validates a typeweave.toml.
func LoadManifest(path string) (*Manifest, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve manifest path: %w", err)
	}
	var cfg manifestFile
	meta, err := toml.DecodeFile(abs, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", abs, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%s: unknown keys: %s", abs, strings.Join(keys, ", "))
	}
	if !meta.IsDefined("project") {
		return nil, fmt.Errorf("%s: %w", abs, ErrProjectSectionMissing)
	}
	name := strings.TrimSpace(cfg.Project.Name)
	if name == "" {
		return nil, fmt.Errorf("%s: %w", abs, ErrProjectNameMissing)
	}
	if cfg.Build.Jobs < 0 {
		return nil, fmt.Errorf("%s: [build].jobs must not be negative", abs)
	}
	m := &Manifest{
		Path:      abs,
		Root:      filepath.Dir(abs),
		Name:      name,
		Libraries: cfg.Project.Libraries,
		Recipes:   cfg.Project.Recipes,
		Build: BuildSettings{
			Jobs:           cfg.Build.Jobs,
			AllowPartial:   cfg.Build.AllowPartial,
			MaxDiagnostics: cfg.Build.MaxDiagnostics,
			CacheDir:       cfg.Build.CacheDir,
			NoCache:        cfg.Build.NoCache,
		},
	}
	if m.Build.MaxDiagnostics <= 0 {
		m.Build.MaxDiagnostics = DefaultMaxDiagnostics
	}
	if m.Build.CacheDir == "" {
		m.Build.CacheDir = DefaultCacheDir
	}
	for _, entry := range slices.Concat(m.Libraries, m.Recipes, []string{m.Build.CacheDir}) {
		if err := checkRelative(m.Root, entry); err != nil {
			return nil, fmt.Errorf("%s: %w", abs, err)
		}
	}
	return m, nil
}

// Load finds the manifest above startDir and loads it.
func Load(startDir string) (*Manifest, error) {
	path, ok, err := FindManifest(startDir)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%s not found in %s or any parent directory", ManifestName, startDir)
	}
	return LoadManifest(path)
}

// LibraryFiles expands the libraries patterns, sorted and without duplicates.
func (m *Manifest) LibraryFiles() ([]string, error) { return m.expand(m.Libraries) }

// RecipeFiles expands the recipes patterns, sorted and without duplicates.
func (m *Manifest) RecipeFiles() ([]string, error) { return m.expand(m.Recipes) }

// CachePath returns the absolute cache directory, or "" when caching is off.
func (m *Manifest) CachePath() string {
	if m.Build.NoCache {
		return ""
	}
	return filepath.Join(m.Root, filepath.FromSlash(m.Build.CacheDir))
}

func (m *Manifest) expand(patterns []string) ([]string, error) {
	var out []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(m.Root, filepath.FromSlash(pattern)))
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("%q: %w", pattern, ErrNoMatch)
		}
		out = append(out, matches...)
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}

// Rel renders path relative to the project root for diagnostics.
func (m *Manifest) Rel(path string) string {
	rel, err := filepath.Rel(m.Root, path)
	if err != nil || !pathWithin(m.Root, path) {
		return path
	}
	return filepath.ToSlash(rel)
}

func checkRelative(root, entry string) error {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return fmt.Errorf("empty path entry")
	}
	if filepath.IsAbs(entry) {
		return fmt.Errorf("invalid path %q: must be relative", entry)
	}
	if !pathWithin(root, filepath.Join(root, filepath.FromSlash(entry))) {
		return fmt.Errorf("invalid path %q: escapes project root", entry)
	}
	return nil
}

func pathWithin(root, path string) bool {
	if root == "" || path == "" {
		return false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Write saves a manifest for a new project under dir. It refuses to
// overwrite an existing one.
func Write(dir, name string, libraries, recipes []string) (string, error) {
	path := filepath.Join(dir, ManifestName)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("%s already exists", path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}
	var cfg manifestFile
	cfg.Project.Name = name
	cfg.Project.Libraries = libraries
	cfg.Project.Recipes = recipes
	cfg.Build.MaxDiagnostics = DefaultMaxDiagnostics
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		_ = f.Close()
		return "", err
	}
	return path, f.Close()
}
