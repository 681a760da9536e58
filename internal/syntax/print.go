package syntax

import (
	"fmt"
	"io"
	"strings"
)

// Fprint writes a textual representation of the AST to w.
func Fprint(w io.Writer, node Node) {
	p := &printer{w: w}
	p.print(node)
}

type printer struct {
	w      io.Writer
	indent int
}

func (p *printer) printf(format string, args ...interface{}) {
	fmt.Fprintf(p.w, "%s%s", strings.Repeat("  ", p.indent), fmt.Sprintf(format, args...))
}

func (p *printer) nested(label string, node Node) {
	if node == nil {
		return
	}
	p.printf("%s:\n", label)
	p.indent++
	p.print(node)
	p.indent--
}

func (p *printer) print(node Node) {
	if node == nil {
		return
	}

	switch n := node.(type) {
	case *Module:
		p.printf("Module %s\n", n.Pos())
		p.indent++
		if n.Name != "" {
			p.printf("Name: %s\n", n.Name)
		}
		for _, imp := range n.Imports {
			p.print(imp)
		}
		for _, d := range n.Decls {
			p.print(d)
		}
		p.indent--

	case *ImportDecl:
		p.printf("ImportDecl %s\n", strings.Join(n.Path, "::"))

	case *FuncDecl:
		p.printf("FuncDecl %s\n", n.Pos())
		p.indent++
		p.printf("Name: %s\n", n.Name)
		if n.IsAsync {
			p.printf("Async: true\n")
		}
		p.genericParams(n.GenericParams)
		for _, param := range n.Params {
			flags := ""
			if param.IsMutRef {
				flags = " mut ref"
			} else if param.IsRef {
				flags = " ref"
			} else if param.IsMut {
				flags = " mut"
			}
			p.printf("Param: %s%s\n", param.Name, flags)
			if param.Type != nil {
				p.indent++
				p.print(param.Type)
				p.indent--
			}
		}
		p.nested("Return", n.Return)
		p.nested("Body", n.Body)
		p.indent--

	case *StructDecl:
		p.printf("StructDecl %s\n", n.Pos())
		p.indent++
		p.printf("Name: %s\n", n.Name)
		p.genericParams(n.GenericParams)
		p.fields(n.Fields)
		p.indent--

	case *ClassDecl:
		p.printf("ClassDecl %s\n", n.Pos())
		p.indent++
		p.printf("Name: %s\n", n.Name)
		p.genericParams(n.GenericParams)
		p.fields(n.Fields)
		for _, m := range n.Methods {
			p.print(m)
		}
		p.indent--

	case *EnumDecl:
		p.printf("EnumDecl %s\n", n.Pos())
		p.indent++
		p.printf("Name: %s\n", n.Name)
		p.genericParams(n.GenericParams)
		for _, variant := range n.Variants {
			p.printf("Variant: %s\n", variant.Name)
			p.indent++
			for _, t := range variant.TupleFields {
				p.print(t)
			}
			p.fields(variant.StructFields)
			p.indent--
		}
		p.indent--

	case *TraitDecl:
		p.printf("TraitDecl %s\n", n.Pos())
		p.indent++
		p.printf("Name: %s\n", n.Name)
		if len(n.SuperTraits) > 0 {
			p.printf("Super: %s\n", strings.Join(n.SuperTraits, " + "))
		}
		for _, m := range n.Methods {
			p.print(m)
		}
		p.indent--

	case *ImplDecl:
		p.printf("ImplDecl %s\n", n.Pos())
		p.indent++
		if n.TraitName != "" {
			p.printf("Trait: %s\n", n.TraitName)
		}
		p.nested("Target", n.Target)
		for _, m := range n.Methods {
			p.print(m)
		}
		p.indent--

	case *TypeAliasDecl:
		p.printf("TypeAliasDecl %s\n", n.Pos())
		p.indent++
		p.printf("Name: %s\n", n.Name)
		p.nested("Aliased", n.Aliased)
		p.indent--

	case *LetStmt:
		p.printf("LetStmt %s\n", n.Pos())
		p.indent++
		p.printf("Name: %s mut=%v\n", n.Name, n.IsMut)
		p.nested("Type", n.Type)
		p.nested("Init", n.Init)
		p.indent--

	case *ConstStmt:
		p.printf("ConstStmt %s\n", n.Pos())
		p.indent++
		p.printf("Name: %s\n", n.Name)
		p.nested("Type", n.Type)
		p.nested("Value", n.Value)
		p.indent--

	case *ReturnStmt:
		p.printf("ReturnStmt %s\n", n.Pos())
		p.indent++
		p.nested("Value", n.Value)
		p.indent--

	case *IfStmt:
		p.printf("IfStmt %s\n", n.Pos())
		p.indent++
		p.nested("Cond", n.Cond)
		p.nested("Then", n.Then)
		p.nested("Else", n.Else)
		p.indent--

	case *MatchStmt:
		p.printf("MatchStmt %s\n", n.Pos())
		p.indent++
		p.nested("Scrutinee", n.Scrutinee)
		p.arms(n.Arms)
		p.indent--

	case *ForStmt:
		p.printf("ForStmt %s\n", n.Pos())
		p.indent++
		p.printf("Var: %s\n", n.Var)
		p.nested("VarType", n.VarType)
		p.nested("Iter", n.Iter)
		p.nested("Body", n.Body)
		p.indent--

	case *WhileStmt:
		p.printf("WhileStmt %s\n", n.Pos())
		p.indent++
		p.nested("Cond", n.Cond)
		p.nested("Body", n.Body)
		p.indent--

	case *LoopStmt:
		p.printf("LoopStmt %s\n", n.Pos())
		p.indent++
		p.nested("Body", n.Body)
		p.indent--

	case *BreakStmt:
		p.printf("BreakStmt %s\n", n.Pos())

	case *ContinueStmt:
		p.printf("ContinueStmt %s\n", n.Pos())

	case *BlockStmt:
		p.printf("BlockStmt %s\n", n.Pos())
		p.indent++
		for _, s := range n.Stmts {
			p.print(s)
		}
		p.indent--

	case *ExprStmt:
		p.printf("ExprStmt %s\n", n.Pos())
		p.indent++
		p.print(n.X)
		p.indent--

	case *IntLitExpr:
		p.printf("IntLit %d\n", n.Value)

	case *FloatLitExpr:
		p.printf("FloatLit %g\n", n.Value)

	case *StringLitExpr:
		p.printf("StringLit %q\n", n.Value)

	case *CharLitExpr:
		p.printf("CharLit %q\n", n.Value)

	case *BoolLitExpr:
		p.printf("BoolLit %v\n", n.Value)

	case *IdentExpr:
		p.printf("Ident %s\n", n.Name)

	case *PathExpr:
		p.printf("Path %s\n", strings.Join(n.Segments, "::"))

	case *BinaryExpr:
		p.printf("Binary %s\n", n.Op)
		p.indent++
		p.print(n.Lhs)
		p.print(n.Rhs)
		p.indent--

	case *UnaryExpr:
		p.printf("Unary %s\n", n.Op)
		p.indent++
		p.print(n.Operand)
		p.indent--

	case *CallExpr:
		p.printf("Call\n")
		p.indent++
		p.nested("Callee", n.Callee)
		for _, a := range n.Args {
			p.print(a)
		}
		p.indent--

	case *MethodCallExpr:
		p.printf("MethodCall .%s\n", n.Method)
		p.indent++
		p.nested("Object", n.Object)
		for _, a := range n.Args {
			p.print(a)
		}
		p.indent--

	case *MemberExpr:
		p.printf("Member .%s\n", n.Member)
		p.indent++
		p.print(n.Object)
		p.indent--

	case *IndexExpr:
		p.printf("Index\n")
		p.indent++
		p.print(n.Object)
		p.print(n.Index)
		p.indent--

	case *CastExpr:
		p.printf("Cast\n")
		p.indent++
		p.print(n.X)
		p.nested("Type", n.Type)
		p.indent--

	case *BlockExpr:
		p.printf("BlockExpr %s\n", n.Pos())
		p.indent++
		for _, s := range n.Stmts {
			p.print(s)
		}
		p.nested("Tail", n.Tail)
		p.indent--

	case *IfExpr:
		p.printf("IfExpr %s\n", n.Pos())
		p.indent++
		p.nested("Cond", n.Cond)
		p.nested("Then", n.Then)
		p.nested("Else", n.Else)
		p.indent--

	case *MatchExpr:
		p.printf("MatchExpr %s\n", n.Pos())
		p.indent++
		p.nested("Scrutinee", n.Scrutinee)
		p.arms(n.Arms)
		p.indent--

	case *ClosureExpr:
		p.printf("Closure\n")
		p.indent++
		for _, param := range n.Params {
			p.printf("Param: %s\n", param.Name)
			if param.Type != nil {
				p.indent++
				p.print(param.Type)
				p.indent--
			}
		}
		p.nested("Return", n.Return)
		p.nested("Body", n.Body)
		p.indent--

	case *ConstructExpr:
		p.printf("Construct\n")
		p.indent++
		p.nested("Type", n.TypePath)
		p.fieldInits(n.Fields)
		p.indent--

	case *StructLitExpr:
		p.printf("StructLit %s\n", n.TypeName)
		p.indent++
		p.fieldInits(n.Fields)
		p.indent--

	case *TupleExpr:
		p.printf("Tuple\n")
		p.indent++
		for _, e := range n.Elems {
			p.print(e)
		}
		p.indent--

	case *ArrayExpr:
		p.printf("Array\n")
		p.indent++
		for _, e := range n.Elems {
			p.print(e)
		}
		p.indent--

	case *RangeExpr:
		p.printf("Range inclusive=%v\n", n.Inclusive)
		p.indent++
		p.nested("Start", n.Start)
		p.nested("End", n.End)
		p.indent--

	case *RefExpr:
		p.printf("Ref\n")
		p.indent++
		p.print(n.Operand)
		p.indent--

	case *MutRefExpr:
		p.printf("MutRef\n")
		p.indent++
		p.print(n.Operand)
		p.indent--

	case *MoveExpr:
		p.printf("Move\n")
		p.indent++
		p.print(n.Operand)
		p.indent--

	case *AwaitExpr:
		p.printf("Await\n")
		p.indent++
		p.print(n.Operand)
		p.indent--

	case *TryExpr:
		p.printf("Try\n")
		p.indent++
		p.print(n.Operand)
		p.indent--

	case *AssignExpr:
		p.printf("Assign\n")
		p.indent++
		p.print(n.Target)
		p.print(n.Value)
		p.indent--

	case *CompoundAssignExpr:
		p.printf("CompoundAssign %s=\n", n.Op)
		p.indent++
		p.print(n.Target)
		p.print(n.Value)
		p.indent--

	case *WildcardPat:
		p.printf("WildcardPat\n")

	case *IdentPat:
		p.printf("IdentPat %s mut=%v\n", n.Name, n.IsMut)

	case *LitPat:
		p.printf("LitPat\n")
		p.indent++
		p.print(n.Lit)
		p.indent--

	case *TuplePat:
		p.printf("TuplePat\n")
		p.indent++
		for _, e := range n.Elems {
			p.print(e)
		}
		p.indent--

	case *ConstructorPat:
		p.printf("ConstructorPat %s\n", strings.Join(n.Path, "::"))
		p.indent++
		for _, e := range n.Positional {
			p.print(e)
		}
		for _, f := range n.Named {
			p.printf("Field: %s\n", f.Name)
			p.indent++
			p.print(f.Pattern)
			p.indent--
		}
		p.indent--

	case *OrPat:
		p.printf("OrPat\n")
		p.indent++
		for _, a := range n.Alts {
			p.print(a)
		}
		p.indent--

	case *NamedTypeNode:
		p.printf("NamedType %s\n", strings.Join(n.Path, "::"))

	case *GenericTypeNode:
		p.printf("GenericType\n")
		p.indent++
		p.nested("Base", n.Base)
		for _, a := range n.Args {
			p.print(a)
		}
		p.indent--

	case *RefTypeNode:
		if n.Lifetime != "" {
			p.printf("RefType '%s\n", n.Lifetime)
		} else {
			p.printf("RefType\n")
		}
		p.indent++
		p.print(n.Elem)
		p.indent--

	case *MutRefTypeNode:
		p.printf("MutRefType\n")
		p.indent++
		p.print(n.Elem)
		p.indent--

	case *TupleTypeNode:
		p.printf("TupleType\n")
		p.indent++
		for _, e := range n.Elems {
			p.print(e)
		}
		p.indent--

	case *FuncTypeNode:
		p.printf("FuncType\n")
		p.indent++
		for _, e := range n.Params {
			p.print(e)
		}
		p.nested("Return", n.Return)
		p.indent--

	case *ArrayTypeNode:
		p.printf("ArrayType\n")
		p.indent++
		p.print(n.Elem)
		p.nested("Len", n.Len)
		p.indent--

	case *OptionTypeNode:
		p.printf("OptionType\n")
		p.indent++
		p.print(n.Elem)
		p.indent--

	case *ResultTypeNode:
		p.printf("ResultType\n")
		p.indent++
		p.print(n.Ok)
		p.print(n.Err)
		p.indent--

	case *InferredTypeNode:
		p.printf("InferredType\n")

	default:
		p.printf("%T\n", node)
	}
}

func (p *printer) genericParams(params []GenericParam) {
	for _, gp := range params {
		if gp.Lifetime != "" {
			p.printf("Lifetime: '%s\n", gp.Lifetime)
			continue
		}
		if len(gp.TraitBounds) > 0 {
			p.printf("GenericParam: %s: %s\n", gp.Name, strings.Join(gp.TraitBounds, " + "))
		} else {
			p.printf("GenericParam: %s\n", gp.Name)
		}
	}
}

func (p *printer) fields(fields []FieldDecl) {
	for _, f := range fields {
		p.printf("Field: %s (%s)\n", f.Name, f.Vis)
		if f.Type != nil {
			p.indent++
			p.print(f.Type)
			p.indent--
		}
	}
}

func (p *printer) fieldInits(fields []FieldInit) {
	for _, f := range fields {
		p.printf("Field: %s\n", f.Name)
		if f.Value != nil {
			p.indent++
			p.print(f.Value)
			p.indent--
		}
	}
}

func (p *printer) arms(arms []MatchArm) {
	for _, arm := range arms {
		p.printf("Arm:\n")
		p.indent++
		p.nested("Pattern", arm.Pattern)
		p.nested("Guard", arm.Guard)
		p.nested("Body", arm.Body)
		p.indent--
	}
}
