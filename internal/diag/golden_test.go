package diag

import "testing"

func TestFormatGoldenDiagnostics(t *testing.T) {
	diags := []Diagnostic{
		{
			Severity: SevWarning,
			Code:     MapUnimplemented,
			Message:  "another",
			Primary:  Location{Path: "recipes/widget.recipe.toml", Subject: "Demo.Widget"},
		},
		{
			Severity: SevError,
			Code:     ModelDuplicateMember,
			Message:  "first line\nsecond",
			Primary:  Location{Path: "./recipes/widget.recipe.toml", Subject: "Demo.Widget::_x"},
			Notes: []Note{
				{At: Location{Subject: "Demo.Widget::_x"}, Msg: "previous field"},
			},
		},
	}

	expected := "note MDL3002 Demo.Widget::_x: previous field\n" +
		"warning MAP4003 recipes/widget.recipe.toml Demo.Widget: another\n" +
		"error MDL3002 recipes/widget.recipe.toml Demo.Widget::_x: first line second"

	if got := FormatGoldenDiagnostics(diags, true); got != expected {
		t.Fatalf("unexpected golden diagnostics:\nwant:\n%s\n\ngot:\n%s", expected, got)
	}
}

func TestBagLimitAndDedup(t *testing.T) {
	bag := NewBag(2)
	loc := Location{Subject: "Demo.Widget"}
	if !bag.Add(NewError(ModelDuplicateMember, loc, "dup")) || !bag.Add(NewError(ModelDuplicateMember, loc, "dup")) {
		t.Fatalf("bag should accept up to its limit")
	}
	if bag.Add(NewError(ModelInvalidAttributes, loc, "third")) {
		t.Fatalf("bag must reject diagnostics past its limit")
	}
	bag.Dedup()
	if bag.Len() != 1 || !bag.HasErrors() || bag.CountErrors() != 1 {
		t.Fatalf("dedup left %d items", bag.Len())
	}
}

func TestDedupReporter(t *testing.T) {
	bag := NewBag(10)
	r := NewDedupReporter(BagReporter{Bag: bag})
	for range 3 {
		ReportError(r, MapNotInterface, Location{Subject: "Demo.A"}, "not an interface").Emit()
	}
	ReportWarning(r, MapNotInterface, Location{Subject: "Demo.B"}, "not an interface").Emit()
	if bag.Len() != 2 {
		t.Fatalf("expected 2 unique diagnostics, got %d", bag.Len())
	}
}

func TestCodeID(t *testing.T) {
	tests := map[Code]string{
		LibParseError:        "LIB1001",
		RcpUnknownType:       "RCP2002",
		ModelFinalOverride:   "MDL3004",
		MapUnimplemented:     "MAP4003",
		ProjManifestNotFound: "PRJ6001",
		UnknownCode:          "E0000",
	}
	for code, want := range tests {
		if got := code.ID(); got != want {
			t.Fatalf("%d.ID() = %q, want %q", code, got, want)
		}
	}
}
