package sema

import (
	"strings"

	"github.com/otabekoff/flux/internal/diag"
	"github.com/otabekoff/flux/internal/syntax"
)

// Checker validates type references and expression-level compatibility.
// Its type model is the rendered string form of types; the scope tree
// built by the resolver is consulted read-only.
type Checker struct {
	diag  *diag.Engine
	scope *Scope // current lookup scope

	knownTypes    map[string]bool
	currentReturn string // rendered return type of the enclosing function
}

// NewChecker creates a checker over the given resolved global scope.
// The known-type set is the builtin names plus every user-defined
// struct, class, enum, trait, and type alias in the global scope.
func NewChecker(eng *diag.Engine, global *Scope) *Checker {
	c := &Checker{
		diag:       eng,
		scope:      global,
		knownTypes: make(map[string]bool, len(builtinTypes)),
	}
	for name := range builtinTypes {
		c.knownTypes[name] = true
	}
	for _, name := range global.Names() {
		if sym := global.LookupLocal(name); sym != nil && sym.Kind.IsType() {
			c.knownTypes[name] = true
		}
	}
	return c
}

// Check walks the module and reports unknown type references and type
// mismatches.
func (c *Checker) Check(m *syntax.Module) {
	for _, d := range m.Decls {
		c.checkDecl(d)
	}
}

// ----------------------------------------------------------------------------
// Declarations

func (c *Checker) checkDecl(d syntax.Decl) {
	switch d := d.(type) {
	case *syntax.FuncDecl:
		c.checkFuncDecl(d)
	case *syntax.StructDecl:
		c.checkStructDecl(d)
	case *syntax.ClassDecl:
		c.checkClassDecl(d)
	case *syntax.EnumDecl:
		c.checkEnumDecl(d)
	case *syntax.TraitDecl:
		c.checkTraitDecl(d)
	case *syntax.ImplDecl:
		c.checkImplDecl(d)
	}
}

func (c *Checker) checkFuncDecl(d *syntax.FuncDecl) {
	if d.Return != nil {
		ret := TypeString(d.Return)
		if !c.validTypeRef(d.Return) {
			c.diag.Errorf(d.Pos(), "unknown return type '%s' in function '%s'", ret, d.Name)
		}
		c.currentReturn = ret
	} else {
		c.currentReturn = "Void"
	}

	for _, param := range d.Params {
		if param.Type == nil {
			c.diag.Errorf(param.Pos, "parameter '%s' must have an explicit type annotation", param.Name)
			continue
		}
		if !c.validTypeRef(param.Type) {
			c.diag.Errorf(param.Pos, "unknown parameter type '%s' for parameter '%s'",
				TypeString(param.Type), param.Name)
		}
	}

	if d.Body != nil {
		saved := c.scope
		if child := c.scope.Child(d.Name); child != nil {
			c.scope = child
		}
		for _, s := range d.Body.Stmts {
			c.checkStmt(s)
		}
		c.scope = saved
	}

	c.currentReturn = ""
}

func (c *Checker) checkStructDecl(d *syntax.StructDecl) {
	for _, field := range d.Fields {
		if field.Type != nil && !c.validTypeRef(field.Type) {
			c.diag.Errorf(field.Pos, "unknown field type '%s' for field '%s' in struct '%s'",
				TypeString(field.Type), field.Name, d.Name)
		}
	}
}

func (c *Checker) checkClassDecl(d *syntax.ClassDecl) {
	for _, field := range d.Fields {
		if field.Type != nil && !c.validTypeRef(field.Type) {
			c.diag.Errorf(field.Pos, "unknown field type '%s' for field '%s' in class '%s'",
				TypeString(field.Type), field.Name, d.Name)
		}
	}
	saved := c.scope
	if child := c.scope.Child(d.Name); child != nil {
		c.scope = child
	}
	for _, method := range d.Methods {
		c.checkFuncDecl(method)
	}
	c.scope = saved
}

func (c *Checker) checkEnumDecl(d *syntax.EnumDecl) {
	for _, variant := range d.Variants {
		for _, t := range variant.TupleFields {
			if t != nil && !c.validTypeRef(t) {
				c.diag.Errorf(variant.Pos, "unknown type '%s' in enum variant '%s'",
					TypeString(t), variant.Name)
			}
		}
		for _, field := range variant.StructFields {
			if field.Type != nil && !c.validTypeRef(field.Type) {
				c.diag.Errorf(field.Pos, "unknown type '%s' in enum variant '%s'",
					TypeString(field.Type), variant.Name)
			}
		}
	}
}

func (c *Checker) checkTraitDecl(d *syntax.TraitDecl) {
	saved := c.scope
	if child := c.scope.Child(d.Name); child != nil {
		c.scope = child
	}
	for _, method := range d.Methods {
		c.checkFuncDecl(method)
	}
	c.scope = saved
}

func (c *Checker) checkImplDecl(d *syntax.ImplDecl) {
	saved := c.scope
	if child := c.scope.Child("impl"); child != nil {
		c.scope = child
	}
	for _, method := range d.Methods {
		c.checkFuncDecl(method)
	}
	c.scope = saved
}

// ----------------------------------------------------------------------------
// Statements

func (c *Checker) checkStmt(s syntax.Stmt) {
	switch s := s.(type) {
	case *syntax.LetStmt:
		c.checkLetStmt(s)

	case *syntax.ConstStmt:
		c.checkConstStmt(s)

	case *syntax.ReturnStmt:
		c.checkReturnStmt(s)

	case *syntax.IfStmt:
		c.checkIfStmt(s)

	case *syntax.MatchStmt:
		c.checkExpr(s.Scrutinee)

	case *syntax.ForStmt:
		c.checkExpr(s.Iter)
		c.checkStmt(s.Body)

	case *syntax.WhileStmt:
		cond := c.checkExpr(s.Cond)
		if cond != "" && cond != "Bool" {
			c.diag.Errorf(s.Cond.Pos(), "condition must be of type 'Bool', got '%s'", cond)
		}
		c.checkStmt(s.Body)

	case *syntax.LoopStmt:
		c.checkStmt(s.Body)

	case *syntax.BlockStmt:
		for _, stmt := range s.Stmts {
			c.checkStmt(stmt)
		}

	case *syntax.ExprStmt:
		c.checkExpr(s.X)
	}
}

// checkLetStmt validates the mandatory type annotation and, if an
// initializer is present, its compatibility with the declared type.
func (c *Checker) checkLetStmt(s *syntax.LetStmt) {
	if s.Type == nil {
		c.diag.Errorf(s.Pos(), "variable '%s' must have an explicit type annotation", s.Name)
		return
	}

	declType := TypeString(s.Type)
	if !c.validTypeRef(s.Type) {
		c.diag.Errorf(s.Pos(), "unknown type '%s' in let binding", declType)
	}

	if s.Init != nil {
		initType := c.checkExpr(s.Init)
		if initType != "" && !typesCompatible(declType, initType) {
			c.diag.Errorf(s.Pos(), "type mismatch: expected '%s', got '%s'", declType, initType)
		}
	}
}

func (c *Checker) checkConstStmt(s *syntax.ConstStmt) {
	if s.Type == nil {
		c.diag.Errorf(s.Pos(), "constant '%s' must have an explicit type annotation", s.Name)
		return
	}

	declType := TypeString(s.Type)
	if !c.validTypeRef(s.Type) {
		c.diag.Errorf(s.Pos(), "unknown type '%s' in constant declaration", declType)
	}

	if s.Value != nil {
		valType := c.checkExpr(s.Value)
		if valType != "" && !typesCompatible(declType, valType) {
			c.diag.Errorf(s.Pos(), "type mismatch: expected '%s', got '%s'", declType, valType)
		}
	}
}

func (c *Checker) checkReturnStmt(s *syntax.ReturnStmt) {
	if s.Value != nil {
		ret := c.checkExpr(s.Value)
		if c.currentReturn != "" && ret != "" && !typesCompatible(c.currentReturn, ret) {
			c.diag.Errorf(s.Pos(), "return type mismatch: expected '%s', got '%s'",
				c.currentReturn, ret)
		}
		return
	}
	if c.currentReturn != "" && c.currentReturn != "Void" {
		c.diag.Errorf(s.Pos(), "non-void function must return a value")
	}
}

func (c *Checker) checkIfStmt(s *syntax.IfStmt) {
	cond := c.checkExpr(s.Cond)
	if cond != "" && cond != "Bool" {
		c.diag.Errorf(s.Cond.Pos(), "condition must be of type 'Bool', got '%s'", cond)
	}
	c.checkStmt(s.Then)
	if s.Else != nil {
		c.checkStmt(s.Else)
	}
}

// ----------------------------------------------------------------------------
// Expressions

// checkExpr returns the rendered type of an expression, or "" when the
// type is unknown. Unknown never produces a mismatch.
func (c *Checker) checkExpr(e syntax.Expr) string {
	switch e := e.(type) {
	case *syntax.IntLitExpr:
		return "Int64"
	case *syntax.FloatLitExpr:
		return "Float64"
	case *syntax.StringLitExpr:
		return "String"
	case *syntax.CharLitExpr:
		return "Char"
	case *syntax.BoolLitExpr:
		return "Bool"

	case *syntax.IdentExpr:
		if sym := c.scope.Lookup(e.Name); sym != nil {
			return sym.TypeName
		}
		return ""

	case *syntax.BinaryExpr:
		return c.checkBinaryExpr(e)

	case *syntax.CallExpr:
		c.checkExpr(e.Callee)
		for _, arg := range e.Args {
			c.checkExpr(arg)
		}
		// Full overload resolution is deferred.
		return ""
	}

	return ""
}

// checkBinaryExpr types a binary expression: comparison and logical
// operators yield Bool; arithmetic and bitwise operators require both
// sides to agree and propagate the non-empty side.
func (c *Checker) checkBinaryExpr(e *syntax.BinaryExpr) string {
	lhs := c.checkExpr(e.Lhs)
	rhs := c.checkExpr(e.Rhs)

	if e.Op.IsComparison() || e.Op.IsLogical() {
		return "Bool"
	}

	if lhs != "" && rhs != "" && !typesCompatible(lhs, rhs) {
		c.diag.Errorf(e.Pos(), "binary expression type mismatch: '%s' vs '%s'", lhs, rhs)
	}
	if lhs == "" {
		return rhs
	}
	return lhs
}

// ----------------------------------------------------------------------------
// Type utilities

// validTypeRef reports whether a type reference is valid: its rendered
// string form must be in the known-type set. Tuple and function types
// bypass the lookup.
func (c *Checker) validTypeRef(t syntax.TypeNode) bool {
	switch t.(type) {
	case *syntax.TupleTypeNode, *syntax.FuncTypeNode:
		return true
	}
	return c.knownTypes[TypeString(t)]
}

// typesCompatible is the compatibility relation between rendered types.
// It is reflexive; Int64 (the integer literal type) is compatible with
// any integer target, and Float64 with Float32, to permit literal
// narrowing.
func typesCompatible(expected, actual string) bool {
	if expected == actual {
		return true
	}

	if actual == "Int64" {
		switch expected {
		case "Int8", "Int16", "Int32", "UInt8", "UInt16", "UInt32", "UInt64":
			return true
		}
	}

	if actual == "Float64" && expected == "Float32" {
		return true
	}

	return false
}

// TypeString renders a type node to its canonical string form.
// Named types join their path segments with "::"; generic types use
// only the base (type arguments are trusted); tuples and function
// types render placeholders.
func TypeString(t syntax.TypeNode) string {
	switch t := t.(type) {
	case *syntax.NamedTypeNode:
		return strings.Join(t.Path, "::")
	case *syntax.GenericTypeNode:
		return TypeString(t.Base)
	case *syntax.RefTypeNode:
		return "&" + TypeString(t.Elem)
	case *syntax.MutRefTypeNode:
		return "&mut " + TypeString(t.Elem)
	case *syntax.ArrayTypeNode:
		return "[" + TypeString(t.Elem) + "]"
	case *syntax.OptionTypeNode:
		return "Option"
	case *syntax.ResultTypeNode:
		return "Result"
	case *syntax.TupleTypeNode:
		return "(tuple)"
	case *syntax.FuncTypeNode:
		return "(func)"
	}
	return "<unknown>"
}
