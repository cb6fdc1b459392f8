package diagfmt

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"typeweave/internal/diag"
)

func sampleBag() *diag.Bag {
	bag := diag.NewBag(10)
	r := diag.BagReporter{Bag: bag}
	diag.ReportError(r, diag.RcpDuplicateRecipe, diag.Location{Path: "recipes/b.recipe.toml", Subject: "Gen.P"}, "type Gen.P is already built by another recipe").
		WithNote(diag.Location{Path: "recipes/a.recipe.toml", Subject: "Gen.P"}, "first recipe is here").
		Emit()
	diag.ReportWarning(r, diag.LibCacheCorrupted, diag.Location{Path: "libs/core.lib.toml"}, "ignoring cached library").Emit()
	return bag
}

func TestPretty(t *testing.T) {
	tests := []struct {
		name string
		opts PrettyOpts
		want string
	}{
		{
			name: "plain",
			want: "recipes/b.recipe.toml: ERROR RCP2007: Gen.P: type Gen.P is already built by another recipe\n" +
				"libs/core.lib.toml: WARNING LIB1009: ignoring cached library\n",
		},
		{
			name: "notes and basenames",
			opts: PrettyOpts{ShowNotes: true, PathMode: PathModeBasename},
			want: "b.recipe.toml: ERROR RCP2007: Gen.P: type Gen.P is already built by another recipe\n" +
				"  note: a.recipe.toml Gen.P: first recipe is here\n" +
				"core.lib.toml: WARNING LIB1009: ignoring cached library\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := Pretty(&buf, sampleBag(), tt.opts); err != nil {
				t.Fatalf("Pretty: %v", err)
			}
			if got := buf.String(); got != tt.want {
				t.Fatalf("Pretty output:\n%s\nwant:\n%s", got, tt.want)
			}
		})
	}
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	base := filepath.FromSlash("/work/demo")
	if err := JSON(&buf, sampleBag(), JSONOpts{IncludeNotes: true, PathMode: PathModeAbsolute, BaseDir: base, Max: 1}); err != nil {
		t.Fatalf("JSON: %v", err)
	}
	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Count != 1 || len(out.Diagnostics) != 1 {
		t.Fatalf("count = %d", out.Count)
	}
	d := out.Diagnostics[0]
	if d.Code != "RCP2007" || d.Severity != "ERROR" || d.Location.Subject != "Gen.P" {
		t.Fatalf("diagnostic = %+v", d)
	}
	if want := filepath.Join(base, "recipes", "b.recipe.toml"); d.Location.File != want {
		t.Fatalf("file = %q, want %q", d.Location.File, want)
	}
	if len(d.Notes) != 1 || d.Notes[0].Message != "first recipe is here" {
		t.Fatalf("notes = %+v", d.Notes)
	}
}

func TestSummary(t *testing.T) {
	if got := Summary(sampleBag()); got != "1 error, 1 warning" {
		t.Fatalf("Summary = %q", got)
	}
	if got := Summary(diag.NewBag(1)); got != "" {
		t.Fatalf("Summary of empty bag = %q", got)
	}
}
