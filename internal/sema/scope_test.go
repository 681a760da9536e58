package sema

import (
	"testing"

	"github.com/otabekoff/flux/internal/source"
)

func sym(kind SymbolKind, name string) *Symbol {
	return &Symbol{Kind: kind, Name: name, Pos: source.NewPos("t", 1, 1, 0)}
}

func TestScopeInsertLookup(t *testing.T) {
	global := NewScope("global", nil)

	if existing := global.Insert(sym(SymFunction, "main")); existing != nil {
		t.Fatal("first insert should succeed")
	}
	if got := global.Lookup("main"); got == nil || got.Kind != SymFunction {
		t.Errorf("Lookup(main) = %v", got)
	}
	if global.Lookup("missing") != nil {
		t.Error("Lookup of unknown name should be nil")
	}
}

func TestScopeDuplicateInsert(t *testing.T) {
	global := NewScope("global", nil)
	first := sym(SymFunction, "foo")
	global.Insert(first)

	existing := global.Insert(sym(SymStruct, "foo"))
	if existing != first {
		t.Fatal("duplicate insert should return the existing symbol")
	}
	// The duplicate insert is a no-op.
	if global.Lookup("foo").Kind != SymFunction {
		t.Error("duplicate insert replaced the original symbol")
	}
	if global.NumSymbols() != 1 {
		t.Errorf("NumSymbols = %d, want 1", global.NumSymbols())
	}
}

func TestScopeLookupWalksOutward(t *testing.T) {
	global := NewScope("global", nil)
	fn := NewScope("f", global)
	block := NewScope("block", fn)

	global.Insert(sym(SymFunction, "helper"))
	fn.Insert(sym(SymVariable, "param"))
	block.Insert(sym(SymVariable, "local"))

	// Innermost scope sees all three.
	for _, name := range []string{"local", "param", "helper"} {
		if block.Lookup(name) == nil {
			t.Errorf("block.Lookup(%s) = nil", name)
		}
	}
	// Outer scopes do not see inner bindings.
	if global.Lookup("local") != nil {
		t.Error("global should not see block-local bindings")
	}
	if fn.Lookup("local") != nil {
		t.Error("function scope should not see block-local bindings")
	}
}

func TestScopeShadowing(t *testing.T) {
	global := NewScope("global", nil)
	inner := NewScope("inner", global)

	outer := sym(SymVariable, "x")
	outer.TypeName = "Int32"
	global.Insert(outer)

	shadow := sym(SymVariable, "x")
	shadow.TypeName = "String"
	if inner.Insert(shadow) != nil {
		t.Fatal("shadowing in a child scope is a fresh namespace, not a duplicate")
	}

	if inner.Lookup("x").TypeName != "String" {
		t.Error("inner lookup should find the shadowing binding")
	}
	if global.Lookup("x").TypeName != "Int32" {
		t.Error("outer binding must be untouched")
	}
}

func TestScopeTreeStructure(t *testing.T) {
	global := NewScope("global", nil)
	a := NewScope("a", global)
	NewScope("b", global)

	if global.Parent() != nil {
		t.Error("global scope has no parent")
	}
	if a.Parent() != global {
		t.Error("child must reference its parent")
	}
	if len(global.Children()) != 2 {
		t.Errorf("global has %d children, want 2", len(global.Children()))
	}
	if global.Child("a") != a {
		t.Error("Child(a) should find the first child named a")
	}
	if global.Child("zzz") != nil {
		t.Error("Child of unknown name should be nil")
	}
}

func TestScopeNamesSorted(t *testing.T) {
	s := NewScope("s", nil)
	for _, n := range []string{"c", "a", "b"} {
		s.Insert(sym(SymVariable, n))
	}
	names := s.Names()
	if len(names) != 3 || names[0] != "a" || names[1] != "b" || names[2] != "c" {
		t.Errorf("Names() = %v, want sorted", names)
	}
}
