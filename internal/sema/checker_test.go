package sema

import (
	"strings"
	"testing"

	"github.com/otabekoff/flux/internal/diag"
)

// analyze parses src and runs the full semantic pipeline.
func analyze(t *testing.T, src string) (*diag.Engine, bool) {
	t.Helper()
	m := parse(t, src)
	eng := silentEngine()
	global := NewScope("global", nil)
	ok := Analyze(m, global, eng)
	return eng, ok
}

func TestCheckSimpleFunctionClean(t *testing.T) {
	eng, ok := analyze(t, "func add(a: Int32, b: Int32) -> Int32 { return a + b; }")
	if !ok || eng.HasErrors() {
		t.Errorf("expected clean analysis, got: %v", errorMessages(eng))
	}
}

func TestCheckNonBoolCondition(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"if_int", "func f() -> Void { if 1 { } }"},
		{"while_int", "func f() -> Void { while 1 { } }"},
		{"if_string", `func f() -> Void { if "yes" { } }`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng, ok := analyze(t, tt.src)
			if ok {
				t.Fatal("expected analysis to fail")
			}
			msgs := errorMessages(eng)
			if len(msgs) != 1 || !strings.Contains(msgs[0], "condition must be of type 'Bool'") {
				t.Errorf("errors = %v", msgs)
			}
		})
	}
}

func TestCheckBoolConditionsClean(t *testing.T) {
	// Note: an identifier condition directly followed by an empty block
	// would speculate as an empty struct literal, so the bodies here are
	// non-empty.
	eng, ok := analyze(t, `
func f(flag: Bool, n: Int32) -> Void {
	if flag { let a: Int32 = 1; }
	if n > 0 { }
	while flag and n == 0 { let b: Int32 = 2; }
}`)
	if !ok {
		t.Errorf("expected clean analysis, got: %v", errorMessages(eng))
	}
}

func TestCheckLetMismatch(t *testing.T) {
	eng, _ := analyze(t, `func f() -> Void { let x: Int32 = "hello"; }`)

	msgs := errorMessages(eng)
	if len(msgs) != 1 || !strings.Contains(msgs[0], "expected 'Int32', got 'String'") {
		t.Errorf("errors = %v", msgs)
	}
}

func TestCheckLiteralNarrowing(t *testing.T) {
	// Int64 (the integer literal type) narrows into any integer target;
	// Float64 narrows into Float32.
	eng, ok := analyze(t, `
func f() -> Void {
	let a: Int8 = 1;
	let b: Int16 = 2;
	let c: Int32 = 3;
	let d: Int64 = 4;
	let e: UInt8 = 5;
	let g: UInt64 = 6;
	let h: Float32 = 1.5;
	let i: Float64 = 2.5;
}`)
	if !ok {
		t.Errorf("narrowing should be compatible, got: %v", errorMessages(eng))
	}
}

func TestCheckNoFloatToInt(t *testing.T) {
	eng, _ := analyze(t, "func f() -> Void { let x: Int32 = 1.5; }")
	msgs := errorMessages(eng)
	if len(msgs) != 1 || !strings.Contains(msgs[0], "expected 'Int32', got 'Float64'") {
		t.Errorf("errors = %v", msgs)
	}
}

func TestCheckReturnMismatch(t *testing.T) {
	eng, _ := analyze(t, `func f() -> Int32 { return "nope"; }`)
	msgs := errorMessages(eng)
	if len(msgs) != 1 || !strings.Contains(msgs[0], "return type mismatch") {
		t.Errorf("errors = %v", msgs)
	}
}

func TestCheckBareReturnInNonVoid(t *testing.T) {
	eng, _ := analyze(t, "func f() -> Int32 { return; }")
	msgs := errorMessages(eng)
	if len(msgs) != 1 || !strings.Contains(msgs[0], "non-void function must return a value") {
		t.Errorf("errors = %v", msgs)
	}
}

func TestCheckBareReturnInVoid(t *testing.T) {
	eng, ok := analyze(t, "func f() -> Void { return; }\nfunc g() -> Void { }")
	if !ok {
		t.Errorf("bare return in void function should be clean: %v", errorMessages(eng))
	}
}

func TestCheckReturnThroughParams(t *testing.T) {
	// Parameter types flow through identifier lookups into the return
	// compatibility check.
	eng, _ := analyze(t, "func f(s: String) -> Int32 { return s; }")
	msgs := errorMessages(eng)
	if len(msgs) != 1 || !strings.Contains(msgs[0], "expected 'Int32', got 'String'") {
		t.Errorf("errors = %v", msgs)
	}
}

func TestCheckUnknownTypes(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"return_type", "func f() -> Zorp { }", "unknown return type 'Zorp'"},
		{"param_type", "func f(x: Zorp) -> Void { }", "unknown parameter type 'Zorp'"},
		{"let_type", "func f() -> Void { let x: Zorp = 1; }", "unknown type 'Zorp' in let binding"},
		{"struct_field", "struct S { x: Zorp }", "unknown field type 'Zorp'"},
		{"class_field", "class C { x: Zorp }", "unknown field type 'Zorp'"},
		{"enum_tuple_field", "enum E { V(Zorp) }", "unknown type 'Zorp' in enum variant 'V'"},
		{"enum_struct_field", "enum E { V { f: Zorp } }", "unknown type 'Zorp' in enum variant 'V'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng, _ := analyze(t, tt.src)
			found := false
			for _, msg := range errorMessages(eng) {
				if strings.Contains(msg, tt.want) {
					found = true
				}
			}
			if !found {
				t.Errorf("errors = %v, want one containing %q", errorMessages(eng), tt.want)
			}
		})
	}
}

func TestCheckUserDefinedTypesKnown(t *testing.T) {
	eng, ok := analyze(t, `
struct Point { x: Float64, y: Float64 }
enum Shape { Dot, Box }
type Alias = Int32;
func make() -> Point { return Point { x: 0.0, y: 0.0 }; }
func pick(s: Shape) -> Void { }
func count(a: Alias) -> Void { }
`)
	if !ok {
		t.Errorf("user-defined types should be known: %v", errorMessages(eng))
	}
}

func TestCheckBuiltinTypesKnown(t *testing.T) {
	eng, ok := analyze(t, `
func f(v: Vec<Int32>, m: Map<String, Int32>, o: Option<Int32>, b: Box<Int32>) -> Void {
	let ch: Channel<Int32> = make_channel();
}
func make_channel() -> Channel<Int32> { }
`)
	if !ok {
		t.Errorf("builtin generic bases should be known: %v", errorMessages(eng))
	}
}

func TestCheckBinaryMismatch(t *testing.T) {
	eng, _ := analyze(t, `func f(a: Int32, s: String) -> Void { let x: Int32 = a + s; }`)
	found := false
	for _, msg := range errorMessages(eng) {
		if strings.Contains(msg, "binary expression type mismatch") {
			found = true
		}
	}
	if !found {
		t.Errorf("errors = %v, want a binary mismatch", errorMessages(eng))
	}
}

func TestCheckComparisonYieldsBool(t *testing.T) {
	eng, ok := analyze(t, `
func f(a: Int32, b: Int32) -> Bool {
	let both: Bool = a == b and a < b;
	return both;
}`)
	if !ok {
		t.Errorf("comparison/logical results are Bool: %v", errorMessages(eng))
	}
}

func TestCheckSkippedAfterResolutionErrors(t *testing.T) {
	// Name resolution fails here, so the checker must not run and the
	// non-Bool condition must not be reported.
	eng, ok := analyze(t, "func f() -> Void { let x: Int32 = y; if 1 { } }")
	if ok {
		t.Fatal("analysis should fail")
	}

	for _, msg := range errorMessages(eng) {
		if strings.Contains(msg, "condition must be") {
			t.Error("type checking ran despite resolution errors")
		}
	}
	if len(errorMessages(eng)) != 1 {
		t.Errorf("errors = %v, want only the resolution error", errorMessages(eng))
	}
}

func TestCheckDiagnosticCountsMonotonic(t *testing.T) {
	m := parse(t, "func f() -> Void { let x: Int32 = y; if 1 { } }")
	eng := silentEngine()

	afterParse := eng.ErrorCount()
	global := NewScope("global", nil)
	NewResolver(eng, global).Resolve(m)
	afterResolve := eng.ErrorCount()
	NewChecker(eng, global).Check(m)
	afterCheck := eng.ErrorCount()

	if afterResolve < afterParse || afterCheck < afterResolve {
		t.Errorf("counts must be monotonic: %d, %d, %d", afterParse, afterResolve, afterCheck)
	}
}

func TestCheckConstMismatch(t *testing.T) {
	eng, _ := analyze(t, `func f() -> Void { const N: Int32 = "x"; }`)
	msgs := errorMessages(eng)
	if len(msgs) != 1 || !strings.Contains(msgs[0], "expected 'Int32', got 'String'") {
		t.Errorf("errors = %v", msgs)
	}
}

func TestCheckImplMethodBodies(t *testing.T) {
	eng, _ := analyze(t, `
struct Circle { radius: Float64 }
impl Circle {
	func bad(self: Self) -> Int32 { return "s"; }
}`)
	found := false
	for _, msg := range errorMessages(eng) {
		if strings.Contains(msg, "return type mismatch") {
			found = true
		}
	}
	if !found {
		t.Errorf("errors = %v, want a return mismatch inside the impl", errorMessages(eng))
	}
}

func TestTypeString(t *testing.T) {
	m := parse(t, `
func f(
	a: Int32,
	b: std::fs::File,
	c: Vec<Int32>,
	d: ref String,
	e: mut ref String,
	g: (Int32, Bool),
	h: (Int32) -> Bool,
	i: [Int32],
) -> Void { }`)
	eng := silentEngine()
	global := NewScope("global", nil)
	NewResolver(eng, global).Resolve(m)

	want := []string{
		"Int32",
		"std::fs::File",
		"Vec",
		"&String",
		"&mut String",
		"(tuple)",
		"(func)",
		"[Int32]",
	}
	got := global.Lookup("f").ParamTypes
	if len(got) != len(want) {
		t.Fatalf("param types = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("param %d rendered %q, want %q", i, got[i], want[i])
		}
	}
}

func TestTypesCompatible(t *testing.T) {
	tests := []struct {
		expected string
		actual   string
		want     bool
	}{
		{"Int32", "Int32", true},
		{"Int8", "Int64", true},
		{"UInt64", "Int64", true},
		{"Float32", "Float64", true},
		{"Int32", "Float64", false},
		{"Float64", "Int64", false},
		{"String", "Int64", false},
		{"Int64", "Int32", false}, // narrowing is one-directional
	}
	for _, tt := range tests {
		if got := typesCompatible(tt.expected, tt.actual); got != tt.want {
			t.Errorf("typesCompatible(%q, %q) = %v, want %v", tt.expected, tt.actual, got, tt.want)
		}
	}
}
