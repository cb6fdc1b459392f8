package pipeline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"typeweave/internal/diag"
	"typeweave/internal/observ"
	"typeweave/internal/project"
)

const greeterLibrary = `
[library]
name = "greeter"

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

func greeterRecipe(name string) string {
	return `
[type]
namespace = "Gen"
name = "` + name + `"
base = "Demo.Base"
attributes = ["public"]
interfaces = ["Demo.IGreeter"]

[[method]]
name = "Greet"
returns = "string"
attributes = ["public", "virtual", "final", "newslot", "hidebysig"]
body = { kind = "return-const", value = "hi" }

[[override]]
method = "Demo.Base.Name"
`
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// newProject lays out a project with one library and the given recipes,
// keyed by file name under recipes/.
func newProject(t *testing.T, recipes map[string]string) *project.Manifest {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "libs", "greeter.lib.toml"), greeterLibrary)
	for name, content := range recipes {
		writeFile(t, filepath.Join(dir, "recipes", name), content)
	}
	path, err := project.Write(dir, "demo", []string{"libs/*.lib.toml"}, []string{"recipes/*.recipe.toml"})
	if err != nil {
		t.Fatalf("Write manifest: %v", err)
	}
	m, err := project.LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	return m
}

func codes(bag *diag.Bag) []diag.Code {
	out := make([]diag.Code, 0, bag.Len())
	for _, d := range bag.Items() {
		out = append(out, d.Code)
	}
	return out
}

func TestBuildPlan(t *testing.T) {
	m := newProject(t, map[string]string{
		"one.recipe.toml": greeterRecipe("One"),
		"two.recipe.toml": greeterRecipe("Two"),
	})
	var out bytes.Buffer
	sink := &RecordingSink{}
	timer := observ.NewTimer()
	res, err := Build(context.Background(), &Request{Manifest: m, Mode: ModePlan, Jobs: 2, Output: &out, Progress: sink, Timer: timer})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if res.Bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics:\n%s", diag.FormatGoldenDiagnostics(res.Bag.Items(), true))
	}
	if len(res.Sessions) != 2 || res.Sessions[0].TypeName != "Gen.One" || res.Sessions[1].TypeName != "Gen.Two" {
		t.Fatalf("sessions = %+v", res.Sessions)
	}

	plan := out.String()
	one := strings.Index(plan, "class Gen.One : Demo.Base")
	two := strings.Index(plan, "class Gen.Two : Demo.Base")
	if one < 0 || two < 0 || one > two {
		t.Fatalf("plans missing or out of recipe order:\n%s", plan)
	}
	if !strings.Contains(plan, "Demo.IGreeter.Greet -> Greet") || !strings.Contains(plan, `return "hi"`) {
		t.Fatalf("plan lacks mapping or body:\n%s", plan)
	}

	var emitted []string
	for _, ev := range sink.Events() {
		if ev.Stage == StageEmit && ev.Status == StatusDone && ev.File != "" {
			emitted = append(emitted, ev.File)
		}
	}
	if !slices.Equal(emitted, []string{"recipes/one.recipe.toml", "recipes/two.recipe.toml"}) {
		t.Fatalf("emit events = %v", emitted)
	}
	if len(timer.Report().Phases) == 0 {
		t.Fatalf("timer recorded no phases")
	}
	for _, stage := range []Stage{StageLoad, StageApply, StageEmit} {
		if !res.Timings.Has(stage) {
			t.Fatalf("no timing for %s", stage)
		}
	}
}

func TestBuildWritesPlanFiles(t *testing.T) {
	m := newProject(t, map[string]string{"one.recipe.toml": greeterRecipe("One")})
	res, err := Build(context.Background(), &Request{Manifest: m, Mode: ModeBuild})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := filepath.Join(m.Root, "build", "Gen.One"+PlanExtension)
	if len(res.Sessions) != 1 || res.Sessions[0].Output != want {
		t.Fatalf("sessions = %+v", res.Sessions)
	}
	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("read plan: %v", err)
	}
	if !strings.Contains(string(data), "class Gen.One") {
		t.Fatalf("plan file = %q", data)
	}
}

func TestBuildRejectsPathLikeTypeNames(t *testing.T) {
	m := newProject(t, map[string]string{
		"bad.recipe.toml": greeterRecipe("../../escape"),
		"one.recipe.toml": greeterRecipe("One"),
	})
	res, err := Build(context.Background(), &Request{Manifest: m, Mode: ModeBuild})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !slices.Contains(codes(res.Bag), diag.RcpInvalidName) {
		t.Fatalf("codes = %v, want %v", codes(res.Bag), diag.RcpInvalidName)
	}
	entries, err := os.ReadDir(filepath.Join(m.Root, "build"))
	if err != nil {
		t.Fatalf("read build dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "Gen.One"+PlanExtension {
		t.Fatalf("build dir holds %v", entries)
	}
	for _, dir := range []string{m.Root, filepath.Dir(m.Root)} {
		if _, err := os.Stat(filepath.Join(dir, "escape"+PlanExtension)); !os.IsNotExist(err) {
			t.Fatalf("plan written outside the build directory in %s", dir)
		}
	}
}

func TestBuildCheckWritesNothing(t *testing.T) {
	m := newProject(t, map[string]string{"one.recipe.toml": greeterRecipe("One")})
	var out bytes.Buffer
	res, err := Build(context.Background(), &Request{Manifest: m, Mode: ModeCheck, Output: &out})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if out.Len() != 0 || res.Bag.HasErrors() {
		t.Fatalf("check produced output %q or errors", out.String())
	}
	if _, err := os.Stat(filepath.Join(m.Root, "build")); !os.IsNotExist(err) {
		t.Fatalf("check created the build directory")
	}
	if res.Sessions[0].Model == nil {
		t.Fatalf("check did not build the model")
	}
}

func TestBuildDiagnostics(t *testing.T) {
	tests := []struct {
		name    string
		recipes map[string]string
		code    diag.Code
	}{
		{
			name: "duplicate recipe",
			recipes: map[string]string{
				"a.recipe.toml": greeterRecipe("Same"),
				"b.recipe.toml": greeterRecipe("Same"),
			},
			code: diag.RcpDuplicateRecipe,
		},
		{
			name:    "unknown base",
			recipes: map[string]string{"a.recipe.toml": "[type]\nname = \"X\"\nbase = \"Demo.Nope\"\n"},
			code:    diag.RcpUnknownType,
		},
		{
			name:    "unimplemented interface",
			recipes: map[string]string{"a.recipe.toml": "[type]\nname = \"X\"\ninterfaces = [\"Demo.IGreeter\"]\n"},
			code:    diag.MapUnimplemented,
		},
		{
			name:    "syntax error",
			recipes: map[string]string{"a.recipe.toml": "[type\n"},
			code:    diag.RcpParseError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newProject(t, tt.recipes)
			var out bytes.Buffer
			res, err := Build(context.Background(), &Request{Manifest: m, Mode: ModePlan, Output: &out})
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			if !slices.Contains(codes(res.Bag), tt.code) {
				t.Fatalf("codes = %v, want %v", codes(res.Bag), tt.code)
			}
			failed := 0
			for _, s := range res.Sessions {
				if s.Err != nil {
					failed++
				}
			}
			if failed == 0 {
				t.Fatalf("no failed session in %+v", res.Sessions)
			}
		})
	}
}

func TestBuildMissingRecipes(t *testing.T) {
	m := newProject(t, nil)
	res, err := Build(context.Background(), &Request{Manifest: m, Mode: ModeCheck})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := codes(res.Bag); !slices.Equal(got, []diag.Code{diag.ProjMissingRecipe}) {
		t.Fatalf("codes = %v", got)
	}
}

func TestBuildReusesLibraryCache(t *testing.T) {
	m := newProject(t, map[string]string{"one.recipe.toml": greeterRecipe("One")})
	for i := range 2 {
		res, err := Build(context.Background(), &Request{Manifest: m, Mode: ModeCheck})
		if err != nil || res.Bag.Len() != 0 {
			t.Fatalf("run %d: err=%v diagnostics:\n%s", i, err, diag.FormatGoldenDiagnostics(res.Bag.Items(), true))
		}
	}
	entries, err := os.ReadDir(filepath.Join(m.CachePath(), "libs"))
	if err != nil || len(entries) != 1 {
		t.Fatalf("cache entries = %d, err = %v", len(entries), err)
	}
}

func TestBuildCancelled(t *testing.T) {
	m := newProject(t, map[string]string{"one.recipe.toml": greeterRecipe("One")})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Build(ctx, &Request{Manifest: m, Mode: ModeCheck}); err == nil {
		t.Fatalf("Build succeeded with a cancelled context")
	}
}
