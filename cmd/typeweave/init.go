package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"typeweave/internal/project"
)

var initCmd = &cobra.Command{
	Use:   "init [path|name]",
	Short: "Initialize a new typeweave project",
	Long: `Initialize a new typeweave project by creating a manifest (typeweave.toml),
a sample type library and a recipe deriving a type from it. If [path|name] is
omitted, initializes the current directory. A non-existing name creates the
directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

const (
	sampleLibraryPath = "libs/core.lib.toml"
	sampleRecipePath  = "recipes/hello.recipe.toml"
)

func runInit(cmd *cobra.Command, args []string) error {
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	target := wd
	if len(args) == 1 && args[0] != "." {
		target = args[0]
		if !filepath.IsAbs(target) {
			target = filepath.Join(wd, target)
		}
	}

	created, err := scaffoldProject(target)
	if err != nil {
		return err
	}

	rel := target
	if r, err := filepath.Rel(wd, target); err == nil {
		rel = r
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Initialized typeweave project in %s\n", rel)
	for _, f := range created {
		fmt.Fprintf(out, "  - %s\n", f)
	}
	return nil
}

// scaffoldProject writes a manifest plus the sample library and recipe into
// target, creating it when missing. Existing sample files are kept.
func scaffoldProject(target string) ([]string, error) {
	if st, err := os.Stat(target); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		if err = os.MkdirAll(target, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %q: %w", target, err)
		}
	} else if !st.IsDir() {
		return nil, fmt.Errorf("%q is not a directory", target)
	}

	name := strings.TrimSpace(filepath.Base(target))
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "typeweave-project"
	}
	if _, err := project.Write(target, name, []string{"libs/*.lib.toml"}, []string{"recipes/*.recipe.toml"}); err != nil {
		return nil, fmt.Errorf("project already initialized: %w", err)
	}
	created := []string{project.ManifestName}

	samples := []struct {
		rel, content string
	}{
		{sampleLibraryPath, defaultLibrary},
		{sampleRecipePath, defaultRecipe},
	}
	for _, s := range samples {
		path := filepath.Join(target, filepath.FromSlash(s.rel))
		if _, err := os.Stat(path); err == nil {
			created = append(created, s.rel+" (existing)")
			continue
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return created, err
		}
		if err := os.WriteFile(path, []byte(s.content), 0o600); err != nil {
			return created, fmt.Errorf("failed to write %s: %w", s.rel, err)
		}
		created = append(created, s.rel)
	}
	return created, nil
}

const defaultLibrary = `# Types the recipes build on. System.Object and the primitives are built in.
[library]
name = "core"

[[type]]
namespace = "Demo"
name = "IGreeter"
kind = "interface"
attributes = ["public"]

  [[type.method]]
  name = "Greet"
  returns = "string"
  attributes = ["public"]

[[type]]
namespace = "Demo"
name = "Base"
attributes = ["public"]

  [[type.constructor]]
  attributes = ["public"]

  [[type.method]]
  name = "Name"
  returns = "string"
  attributes = ["public", "virtual", "newslot", "hidebysig"]
`

const defaultRecipe = `# Builds Gen.Hello from Demo.Base. Try "typeweave plan".
[type]
namespace = "Gen"
name = "Hello"
base = "Demo.Base"
attributes = ["public"]
interfaces = ["Demo.IGreeter"]

[[method]]
name = "Greet"
returns = "string"
attributes = ["public", "virtual", "final", "newslot", "hidebysig"]
body = { kind = "return-const", value = "Hello, typeweave!" }

[[override]]
method = "Demo.Base.Name"
`
