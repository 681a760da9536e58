package sema

import (
	"fmt"

	"github.com/otabekoff/flux/internal/source"
	"github.com/otabekoff/flux/internal/syntax"
)

// SymbolKind classifies a scope-resident binding.
type SymbolKind uint8

const (
	SymVariable SymbolKind = iota
	SymFunction
	SymStruct
	SymClass
	SymEnum
	SymTrait
	SymTypeAlias
	SymGenericParam
	SymModule
	SymEnumVariant
)

var symbolKindNames = [...]string{
	SymVariable:     "variable",
	SymFunction:     "function",
	SymStruct:       "struct",
	SymClass:        "class",
	SymEnum:         "enum",
	SymTrait:        "trait",
	SymTypeAlias:    "type alias",
	SymGenericParam: "generic parameter",
	SymModule:       "module",
	SymEnumVariant:  "enum variant",
}

// String returns the string representation of the symbol kind.
func (k SymbolKind) String() string {
	if int(k) < len(symbolKindNames) {
		return symbolKindNames[k]
	}
	return fmt.Sprintf("SymbolKind(%d)", uint8(k))
}

// IsType reports whether the symbol kind names a type.
func (k SymbolKind) IsType() bool {
	switch k {
	case SymStruct, SymClass, SymEnum, SymTrait, SymTypeAlias:
		return true
	}
	return false
}

// Symbol is a scope-resident record describing a bound name.
// Type information is carried as rendered type strings; the checker's
// type model is the string form.
type Symbol struct {
	Kind          SymbolKind
	Name          string
	QualifiedName string // e.g. EnumName::VariantName
	Pos           source.Pos
	Vis           syntax.Visibility
	IsMut         bool
	IsConst       bool
	TypeName      string   // rendered type of a variable, "" if unknown
	ParamTypes    []string // rendered parameter types of a function
	ReturnType    string   // rendered return type of a function
	GenericParams []string // generic parameter names
	IsAsync       bool
}
