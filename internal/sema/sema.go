package sema

import (
	"github.com/otabekoff/flux/internal/diag"
	"github.com/otabekoff/flux/internal/syntax"
)

// Analyze runs semantic analysis over a parsed module: name resolution
// into the given global scope, then type checking. Type checking is
// skipped when resolution raised errors. Reports whether the whole
// analysis completed without new errors.
func Analyze(m *syntax.Module, global *Scope, eng *diag.Engine) bool {
	before := eng.ErrorCount()

	NewResolver(eng, global).Resolve(m)
	if eng.ErrorCount() > before {
		return false
	}

	NewChecker(eng, global).Check(m)
	return eng.ErrorCount() == before
}
