package diag

import (
	"testing"

	"github.com/otabekoff/flux/internal/source"
)

// silent returns an engine whose handler swallows output.
func silent() *Engine {
	e := NewEngine()
	e.SetHandler(func(Diagnostic) {})
	return e
}

func TestCounts(t *testing.T) {
	e := silent()
	pos := source.NewPos("f", 1, 1, 0)

	e.Notef(pos, "a note")
	e.Warningf(pos, "a warning")
	e.Errorf(pos, "an error")
	e.Fatalf(pos, "a fatal")

	if got := e.ErrorCount(); got != 2 {
		t.Errorf("ErrorCount = %d, want 2 (error + fatal)", got)
	}
	if got := e.WarningCount(); got != 1 {
		t.Errorf("WarningCount = %d, want 1", got)
	}
	if !e.HasErrors() {
		t.Error("HasErrors should be true")
	}
	if got := len(e.Diagnostics()); got != 4 {
		t.Errorf("len(Diagnostics) = %d, want 4", got)
	}
}

func TestEmissionOrder(t *testing.T) {
	e := silent()
	pos := source.NewPos("f", 1, 1, 0)

	msgs := []string{"first", "second", "third"}
	for _, m := range msgs {
		e.Errorf(pos, "%s", m)
	}

	for i, d := range e.Diagnostics() {
		if d.Message != msgs[i] {
			t.Errorf("diagnostic %d = %q, want %q", i, d.Message, msgs[i])
		}
	}
}

func TestHandler(t *testing.T) {
	e := NewEngine()
	var seen []Diagnostic
	e.SetHandler(func(d Diagnostic) { seen = append(seen, d) })

	pos := source.NewPos("f", 2, 3, 10)
	e.Errorf(pos, "boom")

	if len(seen) != 1 {
		t.Fatalf("handler saw %d diagnostics, want 1", len(seen))
	}
	if seen[0].Severity != Error || seen[0].Message != "boom" {
		t.Errorf("handler saw %v %q", seen[0].Severity, seen[0].Message)
	}
	if seen[0].Pos.Line() != 2 {
		t.Errorf("handler saw line %d, want 2", seen[0].Pos.Line())
	}
}

func TestEmitFullDiagnostic(t *testing.T) {
	e := silent()
	pos := source.NewPos("f", 1, 1, 0)

	e.Emit(Diagnostic{
		Severity: Error,
		Pos:      pos,
		Message:  "mismatched types",
		Notes:    []DiagNote{{Pos: pos, Message: "expected Int32"}},
		Fixes:    []Fix{{Pos: pos, Replacement: "0", Description: "use an integer literal"}},
	})

	d := e.Diagnostics()[0]
	if len(d.Notes) != 1 || len(d.Fixes) != 1 {
		t.Errorf("notes/fixes not preserved: %d/%d", len(d.Notes), len(d.Fixes))
	}
	if e.ErrorCount() != 1 {
		t.Errorf("ErrorCount = %d, want 1", e.ErrorCount())
	}
}

func TestReset(t *testing.T) {
	e := silent()
	e.Errorf(source.NoPos, "x")
	e.Warningf(source.NoPos, "y")

	e.Reset()

	if e.ErrorCount() != 0 || e.WarningCount() != 0 || len(e.Diagnostics()) != 0 {
		t.Error("Reset did not clear state")
	}
}

func TestSeverityString(t *testing.T) {
	tests := []struct {
		sev  Severity
		want string
	}{
		{Note, "note"},
		{Warning, "warning"},
		{Error, "error"},
		{Fatal, "fatal error"},
	}
	for _, tt := range tests {
		if got := tt.sev.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.sev, got, tt.want)
		}
	}
}
