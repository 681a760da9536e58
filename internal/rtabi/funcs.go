// Package rtabi defines the runtime ABI shared between the compiler and
// the Flux runtime library. The front-end never calls the runtime; the
// back-end emits these names and the linker resolves them against
// runtime/flux_runtime.
package rtabi

// Runtime function names.
const (
	// Error handling
	FnPanic  = "flux_panic"
	FnAssert = "flux_assert"

	// Memory allocation
	FnAlloc       = "flux_alloc"
	FnAllocZeroed = "flux_alloc_zeroed"
	FnRealloc     = "flux_realloc"
	FnFree        = "flux_free"

	// I/O functions
	FnPrint      = "flux_print"
	FnPrintln    = "flux_println"
	FnPrintInt   = "flux_print_int"
	FnPrintFloat = "flux_print_float"
	FnPrintBool  = "flux_print_bool"

	// String primitives
	FnStrlen = "flux_strlen"
	FnStrcat = "flux_strcat"
	FnStrcmp = "flux_strcmp"
)

// FluxMain is the symbol name of the user program's entry point.
const FluxMain = "flux_main"

// FuncSignature describes a runtime function's signature for code
// generation. Types are LLVM type names.
type FuncSignature struct {
	Name       string   // function name
	ReturnType string   // LLVM return type ("void", "ptr", "i64", ...)
	ParamTypes []string // LLVM parameter types
	NoReturn   bool     // whether the function has the noreturn attribute
}

// RuntimeFunctions returns the signatures of all runtime functions.
func RuntimeFunctions() []FuncSignature {
	return []FuncSignature{
		// Error handling: panic/assert carry (message, file, line).
		{Name: FnPanic, ReturnType: "void", ParamTypes: []string{"ptr", "ptr", "i32"}, NoReturn: true},
		{Name: FnAssert, ReturnType: "void", ParamTypes: []string{"i1", "ptr", "ptr", "i32"}},

		// Memory allocation
		{Name: FnAlloc, ReturnType: "ptr", ParamTypes: []string{"i64"}},
		{Name: FnAllocZeroed, ReturnType: "ptr", ParamTypes: []string{"i64", "i64"}},
		{Name: FnRealloc, ReturnType: "ptr", ParamTypes: []string{"ptr", "i64"}},
		{Name: FnFree, ReturnType: "void", ParamTypes: []string{"ptr"}},

		// I/O
		{Name: FnPrint, ReturnType: "void", ParamTypes: []string{"ptr"}},
		{Name: FnPrintln, ReturnType: "void", ParamTypes: []string{"ptr"}},
		{Name: FnPrintInt, ReturnType: "void", ParamTypes: []string{"i64"}},
		{Name: FnPrintFloat, ReturnType: "void", ParamTypes: []string{"double"}},
		{Name: FnPrintBool, ReturnType: "void", ParamTypes: []string{"i1"}},

		// String primitives
		{Name: FnStrlen, ReturnType: "i64", ParamTypes: []string{"ptr"}},
		{Name: FnStrcat, ReturnType: "ptr", ParamTypes: []string{"ptr", "ptr"}},
		{Name: FnStrcmp, ReturnType: "i32", ParamTypes: []string{"ptr", "ptr"}},
	}
}
