package sema

// builtinTypes is the fixed set of type names known to the checker
// before any user declarations are considered. It is immutable.
var builtinTypes = map[string]bool{
	// Primitive types
	"Int8":    true,
	"Int16":   true,
	"Int32":   true,
	"Int64":   true,
	"UInt8":   true,
	"UInt16":  true,
	"UInt32":  true,
	"UInt64":  true,
	"Float32": true,
	"Float64": true,
	"Bool":    true,
	"Char":    true,
	"String":  true,
	"Void":    true,

	// Standard library types
	"Option":  true,
	"Result":  true,
	"Vec":     true,
	"Map":     true,
	"Set":     true,
	"Box":     true,
	"Rc":      true,
	"Arc":     true,
	"Mutex":   true,
	"Channel": true,
	"Future":  true,
}

// IsBuiltinType reports whether name is one of the predeclared types.
func IsBuiltinType(name string) bool {
	return builtinTypes[name]
}
