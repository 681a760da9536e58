package sema

import (
	"github.com/otabekoff/flux/internal/diag"
	"github.com/otabekoff/flux/internal/syntax"
)

// Resolver performs name resolution over a module.
// It mutates the provided global scope tree (inserting symbols and
// attaching child scopes) and reports undeclared identifiers and
// redefinitions. AST nodes are not annotated; resolution is validated
// by presence in scope at lookup time.
type Resolver struct {
	diag  *diag.Engine
	scope *Scope // current scope
}

// NewResolver creates a resolver rooted at the given global scope.
func NewResolver(eng *diag.Engine, global *Scope) *Resolver {
	return &Resolver{diag: eng, scope: global}
}

// Resolve runs both resolution passes over the module:
// first every top-level declaration is registered so declarations may
// reference each other forward, then every body is resolved.
func (r *Resolver) Resolve(m *syntax.Module) {
	for _, d := range m.Decls {
		r.registerDecl(d)
	}
	for _, d := range m.Decls {
		r.resolveDecl(d)
	}
}

// ----------------------------------------------------------------------------
// Scope management

func (r *Resolver) enterScope(name string) {
	r.scope = NewScope(name, r.scope)
}

func (r *Resolver) exitScope() {
	r.scope = r.scope.Parent()
}

// declare inserts a symbol into the current scope, reporting a
// redefinition if the name is already bound there.
func (r *Resolver) declare(sym *Symbol) {
	if existing := r.scope.Insert(sym); existing != nil {
		r.diag.Errorf(sym.Pos, "redefinition of '%s'", sym.Name)
	}
}

// ----------------------------------------------------------------------------
// Pass 1: registration

// registerDecl inserts the top-level symbol for a declaration.
// Modules, imports, and impls do not register names directly.
func (r *Resolver) registerDecl(d syntax.Decl) {
	switch d := d.(type) {
	case *syntax.FuncDecl:
		r.declare(funcSymbol(d))

	case *syntax.StructDecl:
		r.declare(&Symbol{
			Kind:          SymStruct,
			Name:          d.Name,
			Pos:           d.Pos(),
			Vis:           d.Vis,
			GenericParams: genericNames(d.GenericParams),
		})

	case *syntax.ClassDecl:
		r.declare(&Symbol{
			Kind:          SymClass,
			Name:          d.Name,
			Pos:           d.Pos(),
			Vis:           d.Vis,
			GenericParams: genericNames(d.GenericParams),
		})

	case *syntax.EnumDecl:
		r.declare(&Symbol{
			Kind:          SymEnum,
			Name:          d.Name,
			Pos:           d.Pos(),
			Vis:           d.Vis,
			GenericParams: genericNames(d.GenericParams),
		})

	case *syntax.TraitDecl:
		r.declare(&Symbol{
			Kind:          SymTrait,
			Name:          d.Name,
			Pos:           d.Pos(),
			Vis:           d.Vis,
			GenericParams: genericNames(d.GenericParams),
		})

	case *syntax.TypeAliasDecl:
		r.declare(&Symbol{
			Kind: SymTypeAlias,
			Name: d.Name,
			Pos:  d.Pos(),
			Vis:  d.Vis,
		})
	}
}

// funcSymbol builds the symbol for a function declaration, including
// its rendered signature strings.
func funcSymbol(d *syntax.FuncDecl) *Symbol {
	sym := &Symbol{
		Kind:          SymFunction,
		Name:          d.Name,
		Pos:           d.Pos(),
		Vis:           d.Vis,
		IsAsync:       d.IsAsync,
		GenericParams: genericNames(d.GenericParams),
		ReturnType:    "Void",
	}
	if d.Return != nil {
		sym.ReturnType = TypeString(d.Return)
	}
	for _, param := range d.Params {
		if param.Type != nil {
			sym.ParamTypes = append(sym.ParamTypes, TypeString(param.Type))
		} else {
			sym.ParamTypes = append(sym.ParamTypes, "")
		}
	}
	return sym
}

func genericNames(params []syntax.GenericParam) []string {
	var names []string
	for _, gp := range params {
		if gp.Name != "" {
			names = append(names, gp.Name)
		}
	}
	return names
}

// ----------------------------------------------------------------------------
// Pass 2: resolution

func (r *Resolver) resolveDecl(d syntax.Decl) {
	switch d := d.(type) {
	case *syntax.FuncDecl:
		r.resolveFunc(d)
	case *syntax.StructDecl:
		r.resolveStruct(d)
	case *syntax.ClassDecl:
		r.resolveClass(d)
	case *syntax.EnumDecl:
		r.resolveEnum(d)
	case *syntax.TraitDecl:
		r.resolveTrait(d)
	case *syntax.ImplDecl:
		r.resolveImpl(d)
	case *syntax.TypeAliasDecl:
		// The aliased type is validated by the type checker.
	}
}

// resolveFunc opens a scope named after the function, inserts its
// generic and value parameters, and resolves the body.
func (r *Resolver) resolveFunc(d *syntax.FuncDecl) {
	r.enterScope(d.Name)

	for _, gp := range d.GenericParams {
		if gp.Name == "" {
			continue
		}
		r.scope.Insert(&Symbol{
			Kind: SymGenericParam,
			Name: gp.Name,
			Pos:  gp.Pos,
		})
	}

	for _, param := range d.Params {
		sym := &Symbol{
			Kind:  SymVariable,
			Name:  param.Name,
			Pos:   param.Pos,
			IsMut: param.IsMut,
		}
		if param.Type != nil {
			sym.TypeName = TypeString(param.Type)
		}
		r.scope.Insert(sym)
	}

	if d.Body != nil {
		for _, s := range d.Body.Stmts {
			r.resolveStmt(s)
		}
	}

	r.exitScope()
}

func (r *Resolver) resolveStruct(d *syntax.StructDecl) {
	r.enterScope(d.Name)
	for _, gp := range d.GenericParams {
		if gp.Name == "" {
			continue
		}
		r.scope.Insert(&Symbol{Kind: SymGenericParam, Name: gp.Name, Pos: gp.Pos})
	}
	r.exitScope()
}

func (r *Resolver) resolveClass(d *syntax.ClassDecl) {
	r.enterScope(d.Name)
	for _, gp := range d.GenericParams {
		if gp.Name == "" {
			continue
		}
		r.scope.Insert(&Symbol{Kind: SymGenericParam, Name: gp.Name, Pos: gp.Pos})
	}
	for _, method := range d.Methods {
		r.resolveFunc(method)
	}
	r.exitScope()
}

// resolveEnum inserts each variant into the enum's enclosing scope
// under its unqualified name, with the qualified name recorded.
func (r *Resolver) resolveEnum(d *syntax.EnumDecl) {
	for _, variant := range d.Variants {
		r.scope.Insert(&Symbol{
			Kind:          SymEnumVariant,
			Name:          variant.Name,
			QualifiedName: d.Name + "::" + variant.Name,
			Pos:           variant.Pos,
		})
	}
}

func (r *Resolver) resolveTrait(d *syntax.TraitDecl) {
	r.enterScope(d.Name)
	for _, method := range d.Methods {
		r.declare(funcSymbol(method))
	}
	r.exitScope()
}

func (r *Resolver) resolveImpl(d *syntax.ImplDecl) {
	r.enterScope("impl")
	for _, method := range d.Methods {
		r.resolveFunc(method)
	}
	r.exitScope()
}

// ----------------------------------------------------------------------------
// Statements

func (r *Resolver) resolveStmt(s syntax.Stmt) {
	switch s := s.(type) {
	case *syntax.LetStmt:
		// Resolve the initializer before inserting the binding so a
		// variable cannot reference itself.
		if s.Init != nil {
			r.resolveExpr(s.Init)
		}
		sym := &Symbol{
			Kind:  SymVariable,
			Name:  s.Name,
			Pos:   s.Pos(),
			IsMut: s.IsMut,
		}
		if s.Type != nil {
			sym.TypeName = TypeString(s.Type)
		}
		if existing := r.scope.Insert(sym); existing != nil {
			r.diag.Errorf(s.Pos(), "redefinition of variable '%s'", s.Name)
		}

	case *syntax.ConstStmt:
		if s.Value != nil {
			r.resolveExpr(s.Value)
		}
		sym := &Symbol{
			Kind:    SymVariable,
			Name:    s.Name,
			Pos:     s.Pos(),
			IsConst: true,
		}
		if s.Type != nil {
			sym.TypeName = TypeString(s.Type)
		}
		if existing := r.scope.Insert(sym); existing != nil {
			r.diag.Errorf(s.Pos(), "redefinition of constant '%s'", s.Name)
		}

	case *syntax.ReturnStmt:
		if s.Value != nil {
			r.resolveExpr(s.Value)
		}

	case *syntax.IfStmt:
		r.resolveExpr(s.Cond)
		r.resolveStmt(s.Then)
		if s.Else != nil {
			r.resolveStmt(s.Else)
		}

	case *syntax.MatchStmt:
		r.resolveExpr(s.Scrutinee)
		for _, arm := range s.Arms {
			r.resolveArm(arm)
		}

	case *syntax.ForStmt:
		r.resolveExpr(s.Iter)
		r.enterScope("for")
		sym := &Symbol{Kind: SymVariable, Name: s.Var, Pos: s.Pos()}
		if s.VarType != nil {
			sym.TypeName = TypeString(s.VarType)
		}
		r.scope.Insert(sym)
		r.resolveStmt(s.Body)
		r.exitScope()

	case *syntax.WhileStmt:
		r.resolveExpr(s.Cond)
		r.resolveStmt(s.Body)

	case *syntax.LoopStmt:
		r.resolveStmt(s.Body)

	case *syntax.BlockStmt:
		r.enterScope("block")
		for _, stmt := range s.Stmts {
			r.resolveStmt(stmt)
		}
		r.exitScope()

	case *syntax.ExprStmt:
		r.resolveExpr(s.X)
	}
}

// resolveArm opens a fresh scope for a match arm, binds the pattern's
// identifiers, and resolves the guard and body inside it.
func (r *Resolver) resolveArm(arm syntax.MatchArm) {
	r.enterScope("match_arm")
	r.bindPattern(arm.Pattern)
	if arm.Guard != nil {
		r.resolveExpr(arm.Guard)
	}
	if arm.Body != nil {
		r.resolveExpr(arm.Body)
	}
	r.exitScope()
}

// bindPattern inserts the identifiers bound by a pattern into the
// current scope.
func (r *Resolver) bindPattern(pat syntax.Pattern) {
	switch pat := pat.(type) {
	case *syntax.IdentPat:
		r.scope.Insert(&Symbol{
			Kind:  SymVariable,
			Name:  pat.Name,
			Pos:   pat.Pos(),
			IsMut: pat.IsMut,
		})
	case *syntax.TuplePat:
		for _, elem := range pat.Elems {
			r.bindPattern(elem)
		}
	case *syntax.ConstructorPat:
		for _, elem := range pat.Positional {
			r.bindPattern(elem)
		}
		for _, field := range pat.Named {
			r.bindPattern(field.Pattern)
		}
	case *syntax.OrPat:
		for _, alt := range pat.Alts {
			r.bindPattern(alt)
		}
	}
}

// ----------------------------------------------------------------------------
// Expressions

func (r *Resolver) resolveExpr(e syntax.Expr) {
	switch e := e.(type) {
	case *syntax.IdentExpr:
		if r.scope.Lookup(e.Name) == nil {
			r.diag.Errorf(e.Pos(), "use of undeclared identifier '%s'", e.Name)
		}

	case *syntax.BinaryExpr:
		r.resolveExpr(e.Lhs)
		r.resolveExpr(e.Rhs)

	case *syntax.UnaryExpr:
		r.resolveExpr(e.Operand)

	case *syntax.CallExpr:
		r.resolveExpr(e.Callee)
		for _, arg := range e.Args {
			r.resolveExpr(arg)
		}

	case *syntax.MethodCallExpr:
		r.resolveExpr(e.Object)
		for _, arg := range e.Args {
			r.resolveExpr(arg)
		}

	case *syntax.MemberExpr:
		r.resolveExpr(e.Object)

	case *syntax.IndexExpr:
		r.resolveExpr(e.Object)
		r.resolveExpr(e.Index)

	case *syntax.BlockExpr:
		r.enterScope("block_expr")
		for _, s := range e.Stmts {
			r.resolveStmt(s)
		}
		if e.Tail != nil {
			r.resolveExpr(e.Tail)
		}
		r.exitScope()

	case *syntax.IfExpr:
		r.resolveExpr(e.Cond)
		r.resolveExpr(e.Then)
		if e.Else != nil {
			r.resolveExpr(e.Else)
		}

	case *syntax.MatchExpr:
		r.resolveExpr(e.Scrutinee)
		for _, arm := range e.Arms {
			r.resolveArm(arm)
		}

	case *syntax.ClosureExpr:
		r.enterScope("closure")
		for _, param := range e.Params {
			sym := &Symbol{Kind: SymVariable, Name: param.Name, Pos: param.Pos}
			if param.Type != nil {
				sym.TypeName = TypeString(param.Type)
			}
			r.scope.Insert(sym)
		}
		r.resolveExpr(e.Body)
		r.exitScope()

	case *syntax.ConstructExpr:
		if e.TypePath != nil {
			r.resolveExpr(e.TypePath)
		}
		for _, field := range e.Fields {
			r.resolveExpr(field.Value)
		}

	case *syntax.StructLitExpr:
		// The type is referenced by name only and need not resolve;
		// the field values do.
		for _, field := range e.Fields {
			r.resolveExpr(field.Value)
		}

	case *syntax.TupleExpr:
		for _, elem := range e.Elems {
			r.resolveExpr(elem)
		}

	case *syntax.ArrayExpr:
		for _, elem := range e.Elems {
			r.resolveExpr(elem)
		}

	case *syntax.RangeExpr:
		if e.Start != nil {
			r.resolveExpr(e.Start)
		}
		if e.End != nil {
			r.resolveExpr(e.End)
		}

	case *syntax.RefExpr:
		r.resolveExpr(e.Operand)
	case *syntax.MutRefExpr:
		r.resolveExpr(e.Operand)
	case *syntax.MoveExpr:
		r.resolveExpr(e.Operand)
	case *syntax.AwaitExpr:
		r.resolveExpr(e.Operand)
	case *syntax.TryExpr:
		r.resolveExpr(e.Operand)

	case *syntax.CastExpr:
		r.resolveExpr(e.X)

	case *syntax.AssignExpr:
		r.resolveExpr(e.Target)
		r.resolveExpr(e.Value)

	case *syntax.CompoundAssignExpr:
		r.resolveExpr(e.Target)
		r.resolveExpr(e.Value)

		// Literals and paths require no resolution.
	}
}
