package project

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestFindManifestWalksUp(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ManifestName), "[project]\nname = \"demo\"\n")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	got, ok, err := FindProjectRoot(nested)
	if err != nil || !ok {
		t.Fatalf("FindProjectRoot = %q, %v, %v", got, ok, err)
	}
	want, _ := filepath.EvalSymlinks(root)
	if resolved, _ := filepath.EvalSymlinks(got); resolved != want {
		t.Fatalf("root = %q, want %q", resolved, want)
	}
}

func TestLoadManifest(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ManifestName), `
[project]
name = "demo"
libraries = ["libs/*.lib.toml"]
recipes = ["recipes/proxy.recipe.toml"]

[build]
jobs = 2
allow_partial = true
`)
	writeFile(t, filepath.Join(root, "libs", "b.lib.toml"), "")
	writeFile(t, filepath.Join(root, "libs", "a.lib.toml"), "")
	writeFile(t, filepath.Join(root, "recipes", "proxy.recipe.toml"), "")

	m, err := LoadManifest(filepath.Join(root, ManifestName))
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if m.Name != "demo" || m.Build.Jobs != 2 || !m.Build.AllowPartial {
		t.Fatalf("manifest = %+v", m)
	}
	if m.Build.MaxDiagnostics != DefaultMaxDiagnostics {
		t.Fatalf("MaxDiagnostics = %d", m.Build.MaxDiagnostics)
	}
	libs, err := m.LibraryFiles()
	if err != nil {
		t.Fatalf("LibraryFiles: %v", err)
	}
	if len(libs) != 2 || m.Rel(libs[0]) != "libs/a.lib.toml" || m.Rel(libs[1]) != "libs/b.lib.toml" {
		t.Fatalf("libraries = %v", libs)
	}
	if m.CachePath() != filepath.Join(m.Root, ".typeweave", "cache") {
		t.Fatalf("CachePath = %q", m.CachePath())
	}
}

func TestLoadManifestErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
		is      error
	}{
		{"no project", "[build]\njobs = 1\n", "", ErrProjectSectionMissing},
		{"no name", "[project]\nname = \"  \"\n", "", ErrProjectNameMissing},
		{"unknown key", "[project]\nname = \"x\"\ncolour = 1\n", "unknown keys: project.colour", nil},
		{"escape", "[project]\nname = \"x\"\nrecipes = [\"../evil.recipe.toml\"]\n", "escapes project root", nil},
		{"absolute", "[project]\nname = \"x\"\nlibraries = [\"/etc/x.lib.toml\"]\n", "must be relative", nil},
		{"negative jobs", "[project]\nname = \"x\"\n[build]\njobs = -1\n", "must not be negative", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			path := filepath.Join(root, ManifestName)
			writeFile(t, path, tt.content)
			_, err := LoadManifest(path)
			if err == nil {
				t.Fatalf("expected error")
			}
			if tt.is != nil && !errors.Is(err, tt.is) {
				t.Fatalf("error = %v, want %v", err, tt.is)
			}
			if tt.want != "" && !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error = %v, want substring %q", err, tt.want)
			}
		})
	}
}

func TestRecipeFilesNoMatch(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ManifestName), "[project]\nname = \"x\"\nrecipes = [\"missing/*.recipe.toml\"]\n")
	m, err := LoadManifest(filepath.Join(root, ManifestName))
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if _, err := m.RecipeFiles(); !errors.Is(err, ErrNoMatch) {
		t.Fatalf("RecipeFiles error = %v, want ErrNoMatch", err)
	}
}

func TestWriteRoundTrip(t *testing.T) {
	root := t.TempDir()
	path, err := Write(root, "fresh", []string{"libs/*.lib.toml"}, []string{"recipes/*.recipe.toml"})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if m.Name != "fresh" || len(m.Libraries) != 1 || len(m.Recipes) != 1 {
		t.Fatalf("manifest = %+v", m)
	}
	if _, err := Write(root, "again", nil, nil); err == nil {
		t.Fatalf("expected error when the manifest exists")
	}
}

func TestCombineOrderMatters(t *testing.T) {
	a, b := HashBytes([]byte("a")), HashBytes([]byte("b"))
	if Combine(a, b) == Combine(b, a) {
		t.Fatalf("Combine ignores order")
	}
	if (Digest{}).IsZero() != true || a.IsZero() {
		t.Fatalf("IsZero mismatch")
	}
	if len(a.String()) != 64 {
		t.Fatalf("String = %q", a.String())
	}
}
