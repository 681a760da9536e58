package syntax

// Visitor is called for each node during Walk.
// If it returns false, the children of the node are not visited.
type Visitor func(node Node) bool

// Walk traverses an AST in depth-first order across all five node
// families. If visitor returns false, children are not visited.
func Walk(node Node, v Visitor) {
	if node == nil || !v(node) {
		return
	}

	switch n := node.(type) {
	case *Module:
		for _, imp := range n.Imports {
			Walk(imp, v)
		}
		for _, d := range n.Decls {
			Walk(d, v)
		}

	case *FuncDecl:
		for _, param := range n.Params {
			if param.Type != nil {
				Walk(param.Type, v)
			}
		}
		if n.Return != nil {
			Walk(n.Return, v)
		}
		if n.Body != nil {
			Walk(n.Body, v)
		}

	case *StructDecl:
		for _, f := range n.Fields {
			if f.Type != nil {
				Walk(f.Type, v)
			}
		}

	case *ClassDecl:
		for _, f := range n.Fields {
			if f.Type != nil {
				Walk(f.Type, v)
			}
		}
		for _, m := range n.Methods {
			Walk(m, v)
		}

	case *EnumDecl:
		for _, variant := range n.Variants {
			for _, t := range variant.TupleFields {
				Walk(t, v)
			}
			for _, f := range variant.StructFields {
				if f.Type != nil {
					Walk(f.Type, v)
				}
			}
		}

	case *TraitDecl:
		for _, m := range n.Methods {
			Walk(m, v)
		}

	case *ImplDecl:
		if n.Target != nil {
			Walk(n.Target, v)
		}
		for _, m := range n.Methods {
			Walk(m, v)
		}

	case *TypeAliasDecl:
		if n.Aliased != nil {
			Walk(n.Aliased, v)
		}

	case *LetStmt:
		if n.Type != nil {
			Walk(n.Type, v)
		}
		if n.Init != nil {
			Walk(n.Init, v)
		}

	case *ConstStmt:
		if n.Type != nil {
			Walk(n.Type, v)
		}
		if n.Value != nil {
			Walk(n.Value, v)
		}

	case *ReturnStmt:
		if n.Value != nil {
			Walk(n.Value, v)
		}

	case *IfStmt:
		Walk(n.Cond, v)
		Walk(n.Then, v)
		if n.Else != nil {
			Walk(n.Else, v)
		}

	case *MatchStmt:
		Walk(n.Scrutinee, v)
		for _, arm := range n.Arms {
			walkArm(arm, v)
		}

	case *ForStmt:
		if n.VarType != nil {
			Walk(n.VarType, v)
		}
		Walk(n.Iter, v)
		Walk(n.Body, v)

	case *WhileStmt:
		Walk(n.Cond, v)
		Walk(n.Body, v)

	case *LoopStmt:
		Walk(n.Body, v)

	case *BlockStmt:
		for _, s := range n.Stmts {
			Walk(s, v)
		}

	case *ExprStmt:
		Walk(n.X, v)

	case *BinaryExpr:
		Walk(n.Lhs, v)
		Walk(n.Rhs, v)

	case *UnaryExpr:
		Walk(n.Operand, v)

	case *CallExpr:
		Walk(n.Callee, v)
		for _, a := range n.Args {
			Walk(a, v)
		}

	case *MethodCallExpr:
		Walk(n.Object, v)
		for _, a := range n.Args {
			Walk(a, v)
		}

	case *MemberExpr:
		Walk(n.Object, v)

	case *IndexExpr:
		Walk(n.Object, v)
		Walk(n.Index, v)

	case *CastExpr:
		Walk(n.X, v)
		if n.Type != nil {
			Walk(n.Type, v)
		}

	case *BlockExpr:
		for _, s := range n.Stmts {
			Walk(s, v)
		}
		if n.Tail != nil {
			Walk(n.Tail, v)
		}

	case *IfExpr:
		Walk(n.Cond, v)
		Walk(n.Then, v)
		if n.Else != nil {
			Walk(n.Else, v)
		}

	case *MatchExpr:
		Walk(n.Scrutinee, v)
		for _, arm := range n.Arms {
			walkArm(arm, v)
		}

	case *ClosureExpr:
		for _, param := range n.Params {
			if param.Type != nil {
				Walk(param.Type, v)
			}
		}
		if n.Return != nil {
			Walk(n.Return, v)
		}
		Walk(n.Body, v)

	case *ConstructExpr:
		Walk(n.TypePath, v)
		for _, f := range n.Fields {
			Walk(f.Value, v)
		}

	case *StructLitExpr:
		for _, f := range n.Fields {
			Walk(f.Value, v)
		}

	case *TupleExpr:
		for _, e := range n.Elems {
			Walk(e, v)
		}

	case *ArrayExpr:
		for _, e := range n.Elems {
			Walk(e, v)
		}

	case *RangeExpr:
		if n.Start != nil {
			Walk(n.Start, v)
		}
		if n.End != nil {
			Walk(n.End, v)
		}

	case *RefExpr:
		Walk(n.Operand, v)

	case *MutRefExpr:
		Walk(n.Operand, v)

	case *MoveExpr:
		Walk(n.Operand, v)

	case *AwaitExpr:
		Walk(n.Operand, v)

	case *TryExpr:
		Walk(n.Operand, v)

	case *AssignExpr:
		Walk(n.Target, v)
		Walk(n.Value, v)

	case *CompoundAssignExpr:
		Walk(n.Target, v)
		Walk(n.Value, v)

	case *LitPat:
		Walk(n.Lit, v)

	case *TuplePat:
		for _, e := range n.Elems {
			Walk(e, v)
		}

	case *ConstructorPat:
		for _, e := range n.Positional {
			Walk(e, v)
		}
		for _, f := range n.Named {
			Walk(f.Pattern, v)
		}

	case *OrPat:
		for _, a := range n.Alts {
			Walk(a, v)
		}

	case *GenericTypeNode:
		Walk(n.Base, v)
		for _, a := range n.Args {
			Walk(a, v)
		}

	case *RefTypeNode:
		Walk(n.Elem, v)

	case *MutRefTypeNode:
		Walk(n.Elem, v)

	case *TupleTypeNode:
		for _, e := range n.Elems {
			Walk(e, v)
		}

	case *FuncTypeNode:
		for _, e := range n.Params {
			Walk(e, v)
		}
		if n.Return != nil {
			Walk(n.Return, v)
		}

	case *ArrayTypeNode:
		Walk(n.Elem, v)
		if n.Len != nil {
			Walk(n.Len, v)
		}

	case *OptionTypeNode:
		Walk(n.Elem, v)

	case *ResultTypeNode:
		Walk(n.Ok, v)
		Walk(n.Err, v)

		// Leaf nodes: ImportDecl, literals, IdentExpr, PathExpr,
		// BreakStmt, ContinueStmt, WildcardPat, IdentPat,
		// NamedTypeNode, InferredTypeNode.
	}
}

// walkArm visits one match arm's pattern, guard, and body.
func walkArm(arm MatchArm, v Visitor) {
	Walk(arm.Pattern, v)
	if arm.Guard != nil {
		Walk(arm.Guard, v)
	}
	Walk(arm.Body, v)
}

// Inspect traverses an AST and calls f for each node.
// Convenience wrapper around Walk.
func Inspect(node Node, f func(Node) bool) {
	Walk(node, Visitor(f))
}
