// Package diag implements diagnostic collection and reporting for the
// Flux compiler.
package diag

import (
	"fmt"
	"os"

	"github.com/otabekoff/flux/internal/source"
)

// Severity is the severity level of a diagnostic.
type Severity uint8

const (
	Note Severity = iota
	Warning
	Error
	Fatal
)

// severityNames maps severities to their string representation.
var severityNames = [...]string{
	Note:    "note",
	Warning: "warning",
	Error:   "error",
	Fatal:   "fatal error",
}

// String returns the string representation of the severity.
func (s Severity) String() string {
	if int(s) < len(severityNames) {
		return severityNames[s]
	}
	return fmt.Sprintf("Severity(%d)", uint8(s))
}

// DiagNote is an auxiliary note attached to a diagnostic.
type DiagNote struct {
	Pos     source.Pos
	Message string
}

// Fix is a suggested replacement attached to a diagnostic.
type Fix struct {
	Pos         source.Pos
	Replacement string
	Description string
}

// Diagnostic is a single severity-tagged message with source location and
// optional notes and fix hints.
type Diagnostic struct {
	Severity Severity
	Pos      source.Pos
	Message  string
	Notes    []DiagNote
	Fixes    []Fix
}

// Handler renders one diagnostic. The engine calls it for every emission.
type Handler func(d Diagnostic)

// Engine collects diagnostics and tracks error/warning counts.
// The default handler prints to stderr; a custom handler may be installed
// for collection or alternative rendering.
type Engine struct {
	handler  Handler
	diags    []Diagnostic
	errors   uint32
	warnings uint32
}

// NewEngine creates a diagnostic engine with the default stderr handler.
func NewEngine() *Engine {
	e := &Engine{}
	e.handler = e.defaultHandler
	return e
}

// SetHandler installs a custom handler. A nil handler restores the default.
func (e *Engine) SetHandler(h Handler) {
	if h == nil {
		h = e.defaultHandler
	}
	e.handler = h
}

// Emit records a diagnostic with full detail.
func (e *Engine) Emit(d Diagnostic) {
	switch d.Severity {
	case Error, Fatal:
		e.errors++
	case Warning:
		e.warnings++
	}
	e.diags = append(e.diags, d)
	e.handler(d)
}

// Errorf emits an error diagnostic at pos.
func (e *Engine) Errorf(pos source.Pos, format string, args ...interface{}) {
	e.Emit(Diagnostic{Severity: Error, Pos: pos, Message: fmt.Sprintf(format, args...)})
}

// Warningf emits a warning diagnostic at pos.
func (e *Engine) Warningf(pos source.Pos, format string, args ...interface{}) {
	e.Emit(Diagnostic{Severity: Warning, Pos: pos, Message: fmt.Sprintf(format, args...)})
}

// Notef emits a note diagnostic at pos.
func (e *Engine) Notef(pos source.Pos, format string, args ...interface{}) {
	e.Emit(Diagnostic{Severity: Note, Pos: pos, Message: fmt.Sprintf(format, args...)})
}

// Fatalf emits a fatal diagnostic at pos.
func (e *Engine) Fatalf(pos source.Pos, format string, args ...interface{}) {
	e.Emit(Diagnostic{Severity: Fatal, Pos: pos, Message: fmt.Sprintf(format, args...)})
}

// HasErrors reports whether any error or fatal diagnostics were emitted.
func (e *Engine) HasErrors() bool {
	return e.errors > 0
}

// ErrorCount returns the number of error and fatal diagnostics emitted.
func (e *Engine) ErrorCount() uint32 {
	return e.errors
}

// WarningCount returns the number of warning diagnostics emitted.
func (e *Engine) WarningCount() uint32 {
	return e.warnings
}

// Diagnostics returns all diagnostics collected so far, in emission order.
func (e *Engine) Diagnostics() []Diagnostic {
	return e.diags
}

// Reset clears all collected diagnostics and counters.
// The installed handler is kept.
func (e *Engine) Reset() {
	e.diags = nil
	e.errors = 0
	e.warnings = 0
}

// defaultHandler prints the diagnostic to stderr, with notes and fix hints
// rendered beneath the primary message.
func (e *Engine) defaultHandler(d Diagnostic) {
	if d.Pos.IsValid() {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", d.Pos, d.Severity, d.Message)
	} else {
		fmt.Fprintf(os.Stderr, "%s: %s\n", d.Severity, d.Message)
	}
	for _, n := range d.Notes {
		if n.Pos.IsValid() {
			fmt.Fprintf(os.Stderr, "  %s: note: %s\n", n.Pos, n.Message)
		} else {
			fmt.Fprintf(os.Stderr, "  note: %s\n", n.Message)
		}
	}
	for _, f := range d.Fixes {
		fmt.Fprintf(os.Stderr, "  help: %s\n", f.Description)
	}
}
