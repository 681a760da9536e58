package syntax

import (
	"github.com/otabekoff/flux/internal/diag"
	"github.com/otabekoff/flux/internal/source"
	"strings"
)

// Parser performs syntax analysis on Flux source code.
// Errors are reported through the diagnostic engine; the parser recovers
// at statement and declaration boundaries and always returns a best-effort
// partial tree.
type Parser struct {
	lexer *Lexer
	diag  *diag.Engine

	tok  Token // current token
	prev Token // previous token
}

// parserState is the parser's own part of a speculation snapshot; it is
// composed with a LexerState to rewind both together.
type parserState struct {
	tok  Token
	prev Token
}

// NewParser creates a new Parser over the given source buffer.
func NewParser(filename, src string, eng *diag.Engine) *Parser {
	p := &Parser{
		lexer: NewLexer(filename, src, eng),
		diag:  eng,
	}
	p.tok = p.lexer.Next() // prime the parser with the first token
	return p
}

// ----------------------------------------------------------------------------
// Token navigation

// next advances to the next token.
func (p *Parser) next() {
	p.prev = p.tok
	p.tok = p.lexer.Next()
}

// got reports whether the current token is kind.
// If so, it consumes the token and returns true.
func (p *Parser) got(kind TokenKind) bool {
	if p.tok.Kind == kind {
		p.next()
		return true
	}
	return false
}

// expect consumes and returns the current token if it matches kind.
// Otherwise it reports an error and returns the current token unconsumed.
func (p *Parser) expect(kind TokenKind, msg string) Token {
	if p.tok.Kind == kind {
		tok := p.tok
		p.next()
		return tok
	}
	p.diag.Errorf(p.tok.Pos, "%s, got '%s'", msg, p.tok.Text)
	return p.tok
}

// expectSemi consumes a statement-terminating semicolon.
func (p *Parser) expectSemi() {
	p.expect(_Semi, "expected ';'")
}

// save captures the parser's token window; the caller pairs it with a
// lexer snapshot for speculation.
func (p *Parser) save() parserState {
	return parserState{tok: p.tok, prev: p.prev}
}

// restore rewinds the parser's token window.
func (p *Parser) restore(s parserState) {
	p.tok = s.tok
	p.prev = s.prev
}

// synchronize advances until the previous token is a semicolon or the
// current token begins a declaration or statement.
func (p *Parser) synchronize() {
	for p.tok.Kind != _Eof {
		if p.prev.Kind == _Semi {
			return
		}
		switch p.tok.Kind {
		case _Func, _Let, _Const, _Struct, _Class, _Enum, _Trait, _Impl,
			_Return, _If, _For, _While, _Loop, _Module, _Import:
			return
		}
		p.next()
	}
}

// ----------------------------------------------------------------------------
// Module parsing

// ParseModule parses a complete source file and returns the AST module.
func (p *Parser) ParseModule() *Module {
	m := &Module{}
	m.pos = p.tok.Pos

	// Optional module declaration
	if p.tok.Kind == _Module {
		p.next()
		path := p.parsePath()
		p.expectSemi()
		m.Name = strings.Join(path, "::")
	}

	// Import declarations
	for p.tok.Kind == _Import {
		d := &ImportDecl{}
		d.pos = p.tok.Pos
		p.next()
		d.Path = p.parsePath()
		p.expectSemi()
		m.Imports = append(m.Imports, d)
	}

	// Top-level declarations
	for p.tok.Kind != _Eof {
		if d := p.parseDecl(); d != nil {
			m.Decls = append(m.Decls, d)
		} else if p.tok.Kind != _Eof {
			// Error recovery: skip at most one token per iteration.
			p.next()
		}
	}

	return m
}

// parsePath parses Ident (:: Ident)* and returns the segments.
func (p *Parser) parsePath() []string {
	var segments []string
	tok := p.expect(_Name, "expected identifier in path")
	segments = append(segments, tok.Text)
	for p.got(_ColonColon) {
		tok = p.expect(_Name, "expected identifier after '::'")
		segments = append(segments, tok.Text)
	}
	return segments
}

// ----------------------------------------------------------------------------
// Declarations

// parseDecl parses one top-level declaration.
func (p *Parser) parseDecl() Decl {
	p.skipAnnotations()

	switch p.tok.Kind {
	case _Func:
		return p.parseFuncDecl(false)
	case _Async:
		p.next()
		return p.parseFuncDecl(true)
	case _Struct:
		return p.parseStructDecl()
	case _Class:
		return p.parseClassDecl()
	case _Enum:
		return p.parseEnumDecl()
	case _Trait:
		return p.parseTraitDecl()
	case _Impl:
		return p.parseImplDecl()
	case _Type:
		return p.parseTypeAliasDecl()
	case _Pub, _Public:
		p.next()
		d := p.parseDecl()
		applyVis(d, Public)
		return d
	case _Private:
		p.next()
		d := p.parseDecl()
		applyVis(d, Private)
		return d
	case _Let, _Const:
		p.diag.Errorf(p.tok.Pos, "top-level let/const statements are not supported outside functions")
		p.synchronize()
		return nil
	}

	p.diag.Errorf(p.tok.Pos, "expected declaration (func, struct, class, enum, trait, impl, type)")
	p.synchronize()
	return nil
}

// skipAnnotations consumes leading annotations and their argument lists.
func (p *Parser) skipAnnotations() {
	for {
		switch p.tok.Kind {
		case _At:
			p.next()
			// The lexer leaves an unknown annotation's name as the next token.
			p.got(_Name)
		case _Doc, _Deprecated, _Test, _Hash, _HashBang:
			p.next()
		default:
			return
		}
		// Skip a balanced-paren argument list if present.
		if p.tok.Kind == _Lparen {
			p.next()
			depth := 1
			for depth > 0 && p.tok.Kind != _Eof {
				switch p.tok.Kind {
				case _Lparen:
					depth++
				case _Rparen:
					depth--
				}
				p.next()
			}
		}
	}
}

// applyVis applies a visibility prefix to a parsed declaration.
func applyVis(d Decl, v Visibility) {
	switch d := d.(type) {
	case *FuncDecl:
		d.Vis = v
	case *StructDecl:
		d.Vis = v
	case *ClassDecl:
		d.Vis = v
	case *EnumDecl:
		d.Vis = v
	case *TraitDecl:
		d.Vis = v
	case *ImplDecl:
		d.Vis = v
	case *TypeAliasDecl:
		d.Vis = v
	}
}

// parseFuncDecl parses: func Name GenericParams? (Params) (-> Type)? (Block | ;)
// A function without a body is a trait-method declaration.
func (p *Parser) parseFuncDecl(isAsync bool) *FuncDecl {
	d := &FuncDecl{IsAsync: isAsync}
	d.pos = p.tok.Pos

	p.expect(_Func, "expected 'func'")
	d.Name = p.expect(_Name, "expected function name").Text
	d.GenericParams = p.parseGenericParams()

	p.expect(_Lparen, "expected '(' in function declaration")
	d.Params = p.parseFuncParams()
	p.expect(_Rparen, "expected ')' after parameters")

	if p.got(_Arrow) {
		d.Return = p.parseType()
	}

	if p.tok.Kind == _Lbrace {
		d.Body = p.parseBlockStmt()
	} else {
		p.expectSemi()
	}

	return d
}

// parseGenericParams parses < (Ident (: Bound (+ Bound)*)? | 'lifetime),* >
// if present.
func (p *Parser) parseGenericParams() []GenericParam {
	if !p.got(_Lss) {
		return nil
	}

	var params []GenericParam
	for p.tok.Kind != _Gtr && p.tok.Kind != _Eof {
		param := GenericParam{Pos: p.tok.Pos}

		if p.tok.Kind == _Apostrophe {
			// Lifetime parameter: the token text is 'name.
			param.Lifetime = strings.TrimPrefix(p.tok.Text, "'")
			p.next()
		} else {
			param.Name = p.expect(_Name, "expected type parameter name").Text
			if p.got(_Colon) {
				bound := p.expect(_Name, "expected trait bound")
				param.TraitBounds = append(param.TraitBounds, bound.Text)
				for p.got(_Add) {
					bound = p.expect(_Name, "expected trait bound")
					param.TraitBounds = append(param.TraitBounds, bound.Text)
				}
			}
		}

		params = append(params, param)
		if !p.got(_Comma) {
			break
		}
	}

	p.expect(_Gtr, "expected '>' after generic parameters")
	return params
}

// parseFuncParams parses a comma-separated parameter list.
func (p *Parser) parseFuncParams() []FuncParam {
	var params []FuncParam
	if p.tok.Kind == _Rparen {
		return params
	}

	params = append(params, p.parseFuncParam())
	for p.got(_Comma) {
		if p.tok.Kind == _Rparen {
			break
		}
		params = append(params, p.parseFuncParam())
	}
	return params
}

// parseFuncParam parses: mut? (ref | mut ref)? (self | Ident) : Type
func (p *Parser) parseFuncParam() FuncParam {
	param := FuncParam{Pos: p.tok.Pos}

	if p.got(_Mut) {
		param.IsMut = true
		if p.got(_Ref) {
			param.IsMutRef = true
		}
	}
	if !param.IsMutRef && p.got(_Ref) {
		param.IsRef = true
	}

	if p.tok.Kind == _Self {
		param.Name = p.tok.Text
		param.IsSelf = true
		p.next()
	} else {
		param.Name = p.expect(_Name, "expected parameter name").Text
	}

	p.expect(_Colon, "expected ':' after parameter name")
	param.Type = p.parseType()
	return param
}

// parseStructDecl parses: struct Name GenericParams? { Field,* }
func (p *Parser) parseStructDecl() *StructDecl {
	d := &StructDecl{}
	d.pos = p.tok.Pos

	p.expect(_Struct, "expected 'struct'")
	d.Name = p.expect(_Name, "expected struct name").Text
	d.GenericParams = p.parseGenericParams()

	p.expect(_Lbrace, "expected '{' in struct declaration")
	d.Fields = p.parseFieldDecls(false)
	p.expect(_Rbrace, "expected '}' after struct fields")
	return d
}

// parseClassDecl parses: class Name GenericParams? { Field,* }
// Class fields may carry visibility prefixes.
func (p *Parser) parseClassDecl() *ClassDecl {
	d := &ClassDecl{}
	d.pos = p.tok.Pos

	p.expect(_Class, "expected 'class'")
	d.Name = p.expect(_Name, "expected class name").Text
	d.GenericParams = p.parseGenericParams()

	p.expect(_Lbrace, "expected '{' in class declaration")
	d.Fields = p.parseFieldDecls(true)
	p.expect(_Rbrace, "expected '}' after class fields")
	return d
}

// parseFieldDecls parses Name : Type pairs separated by commas.
// Struct fields are public by default; class fields accept visibility
// prefixes and default to private.
func (p *Parser) parseFieldDecls(classFields bool) []FieldDecl {
	var fields []FieldDecl

	for p.tok.Kind != _Rbrace && p.tok.Kind != _Eof {
		field := FieldDecl{Pos: p.tok.Pos}
		if classFields {
			switch p.tok.Kind {
			case _Public, _Pub:
				field.Vis = Public
				p.next()
			case _Private:
				field.Vis = Private
				p.next()
			}
		} else {
			field.Vis = Public
		}

		field.Name = p.expect(_Name, "expected field name").Text
		p.expect(_Colon, "expected ':' after field name")
		field.Type = p.parseType()
		fields = append(fields, field)

		if !p.got(_Comma) {
			break
		}
	}

	return fields
}

// parseEnumDecl parses: enum Name GenericParams? { Variant,* }
func (p *Parser) parseEnumDecl() *EnumDecl {
	d := &EnumDecl{}
	d.pos = p.tok.Pos

	p.expect(_Enum, "expected 'enum'")
	d.Name = p.expect(_Name, "expected enum name").Text
	d.GenericParams = p.parseGenericParams()

	p.expect(_Lbrace, "expected '{' in enum declaration")
	for p.tok.Kind != _Rbrace && p.tok.Kind != _Eof {
		d.Variants = append(d.Variants, p.parseEnumVariant())
		if !p.got(_Comma) {
			break
		}
	}
	p.expect(_Rbrace, "expected '}' after enum variants")
	return d
}

// parseEnumVariant parses a unit, tuple, or struct variant.
func (p *Parser) parseEnumVariant() EnumVariant {
	variant := EnumVariant{Pos: p.tok.Pos}
	variant.Name = p.expect(_Name, "expected variant name").Text

	switch {
	case p.got(_Lparen):
		variant.Kind = TupleVariant
		for p.tok.Kind != _Rparen && p.tok.Kind != _Eof {
			variant.TupleFields = append(variant.TupleFields, p.parseType())
			if !p.got(_Comma) {
				break
			}
		}
		p.expect(_Rparen, "expected ')' after tuple variant fields")

	case p.got(_Lbrace):
		variant.Kind = StructVariant
		for p.tok.Kind != _Rbrace && p.tok.Kind != _Eof {
			field := FieldDecl{Pos: p.tok.Pos, Vis: Public}
			field.Name = p.expect(_Name, "expected field name").Text
			p.expect(_Colon, "expected ':' after field name")
			field.Type = p.parseType()
			variant.StructFields = append(variant.StructFields, field)
			if !p.got(_Comma) {
				break
			}
		}
		p.expect(_Rbrace, "expected '}' after struct variant fields")

	default:
		variant.Kind = UnitVariant
	}

	return variant
}

// parseTraitDecl parses: trait Name GenericParams? (: Super (+ Super)*)? { methods }
func (p *Parser) parseTraitDecl() *TraitDecl {
	d := &TraitDecl{}
	d.pos = p.tok.Pos

	p.expect(_Trait, "expected 'trait'")
	d.Name = p.expect(_Name, "expected trait name").Text
	d.GenericParams = p.parseGenericParams()

	if p.got(_Colon) {
		tok := p.expect(_Name, "expected super trait name")
		d.SuperTraits = append(d.SuperTraits, tok.Text)
		for p.got(_Add) {
			tok = p.expect(_Name, "expected trait name")
			d.SuperTraits = append(d.SuperTraits, tok.Text)
		}
	}

	p.expect(_Lbrace, "expected '{' in trait declaration")
	d.Methods = p.parseMethods("trait")
	p.expect(_Rbrace, "expected '}' after trait methods")
	return d
}

// parseImplDecl parses: impl GenericParams? Type (for Type)? { methods }
// With 'for', the first type was the trait name (its last path segment is
// retained) and the second is the target.
func (p *Parser) parseImplDecl() *ImplDecl {
	d := &ImplDecl{}
	d.pos = p.tok.Pos

	p.expect(_Impl, "expected 'impl'")
	d.GenericParams = p.parseGenericParams()

	first := p.parseType()
	if p.got(_For) {
		if named, ok := first.(*NamedTypeNode); ok && len(named.Path) > 0 {
			d.TraitName = named.Path[len(named.Path)-1]
		}
		d.Target = p.parseType()
	} else {
		d.Target = first
	}

	p.expect(_Lbrace, "expected '{' in impl block")
	d.Methods = p.parseMethods("impl block")
	p.expect(_Rbrace, "expected '}' after impl block")
	return d
}

// parseMethods parses async? func declarations until the closing brace.
func (p *Parser) parseMethods(where string) []*FuncDecl {
	var methods []*FuncDecl
	for p.tok.Kind != _Rbrace && p.tok.Kind != _Eof {
		async := false
		if p.tok.Kind == _Async {
			async = true
			p.next()
		}
		if p.tok.Kind == _Func {
			methods = append(methods, p.parseFuncDecl(async))
		} else {
			p.diag.Errorf(p.tok.Pos, "expected method declaration in %s", where)
			p.next()
		}
	}
	return methods
}

// parseTypeAliasDecl parses: type Name GenericParams? = Type;
func (p *Parser) parseTypeAliasDecl() *TypeAliasDecl {
	d := &TypeAliasDecl{}
	d.pos = p.tok.Pos

	p.expect(_Type, "expected 'type'")
	d.Name = p.expect(_Name, "expected type alias name").Text
	d.GenericParams = p.parseGenericParams()
	p.expect(_Assign, "expected '=' in type alias")
	d.Aliased = p.parseType()
	p.expectSemi()
	return d
}

// ----------------------------------------------------------------------------
// Statements

// parseStatement parses one statement.
func (p *Parser) parseStatement() Stmt {
	switch p.tok.Kind {
	case _Let:
		return p.parseLetStmt()
	case _Const:
		return p.parseConstStmt()
	case _Return:
		return p.parseReturnStmt()
	case _If:
		return p.parseIfStmt()
	case _Match:
		return p.parseMatchStmt()
	case _For:
		return p.parseForStmt()
	case _While:
		return p.parseWhileStmt()
	case _Loop:
		return p.parseLoopStmt()
	case _Break:
		s := &BreakStmt{}
		s.pos = p.tok.Pos
		p.next()
		p.expectSemi()
		return s
	case _Continue:
		s := &ContinueStmt{}
		s.pos = p.tok.Pos
		p.next()
		p.expectSemi()
		return s
	case _Lbrace:
		return p.parseBlockStmt()
	}

	// Expression statement
	pos := p.tok.Pos
	x := p.parseExpression()
	if x == nil {
		p.synchronize()
		return nil
	}
	p.expectSemi()
	s := &ExprStmt{X: x}
	s.pos = pos
	return s
}

// parseLetStmt parses: let mut? Ident : Type (= Expr)? ;
// The type annotation is mandatory.
func (p *Parser) parseLetStmt() *LetStmt {
	s := &LetStmt{}
	s.pos = p.tok.Pos

	p.expect(_Let, "expected 'let'")
	s.IsMut = p.got(_Mut)
	s.Name = p.expect(_Name, "expected variable name").Text

	if p.got(_Colon) {
		s.Type = p.parseType()
	} else {
		p.diag.Errorf(p.tok.Pos, "expected ':' after variable name (Flux requires explicit type annotations)")
	}

	if p.got(_Assign) {
		s.Init = p.parseExpression()
	}

	p.expectSemi()
	return s
}

// parseConstStmt parses: const Ident : Type = Expr ;
func (p *Parser) parseConstStmt() *ConstStmt {
	s := &ConstStmt{}
	s.pos = p.tok.Pos

	p.expect(_Const, "expected 'const'")
	s.Name = p.expect(_Name, "expected constant name").Text
	p.expect(_Colon, "expected ':' after constant name")
	s.Type = p.parseType()
	p.expect(_Assign, "expected '=' in constant declaration")
	s.Value = p.parseExpression()
	p.expectSemi()
	return s
}

// parseReturnStmt parses: return Expr? ;
func (p *Parser) parseReturnStmt() *ReturnStmt {
	s := &ReturnStmt{}
	s.pos = p.tok.Pos

	p.expect(_Return, "expected 'return'")
	if p.tok.Kind != _Semi && p.tok.Kind != _Rbrace {
		s.Value = p.parseExpression()
	}
	p.expectSemi()
	return s
}

// parseIfStmt parses: if Cond Block (else (if ... | Block))?
func (p *Parser) parseIfStmt() *IfStmt {
	s := &IfStmt{}
	s.pos = p.tok.Pos

	p.expect(_If, "expected 'if'")
	s.Cond = p.parseExpression()
	s.Then = p.parseBlockStmt()

	if p.got(_Else) {
		if p.tok.Kind == _If {
			s.Else = p.parseIfStmt()
		} else {
			s.Else = p.parseBlockStmt()
		}
	}

	return s
}

// parseMatchStmt parses: match Expr { Arm,* }
func (p *Parser) parseMatchStmt() *MatchStmt {
	s := &MatchStmt{}
	s.pos = p.tok.Pos

	p.expect(_Match, "expected 'match'")
	s.Scrutinee = p.parseExpression()
	s.Arms = p.parseMatchArms()
	return s
}

// parseMatchArms parses { Pattern (if guard)? => body ,* }
func (p *Parser) parseMatchArms() []MatchArm {
	p.expect(_Lbrace, "expected '{' in match")

	var arms []MatchArm
	for p.tok.Kind != _Rbrace && p.tok.Kind != _Eof {
		start := p.tok.Pos.Offset()
		arms = append(arms, p.parseMatchArm())
		p.got(_Comma) // optional comma between arms
		if p.tok.Pos.Offset() == start && p.tok.Kind != _Rbrace {
			p.next() // guarantee progress on malformed arms
		}
	}

	p.expect(_Rbrace, "expected '}' after match arms")
	return arms
}

// parseMatchArm parses one arm: Pattern (if guard)? => (Block | Expr)
func (p *Parser) parseMatchArm() MatchArm {
	arm := MatchArm{Pos: p.tok.Pos}
	arm.Pattern = p.parsePattern()

	if p.got(_If) {
		arm.Guard = p.parseExpression()
	}

	p.expect(_FatArrow, "expected '=>' in match arm")

	if p.tok.Kind == _Lbrace {
		arm.Body = p.parseBlockExpr()
	} else {
		arm.Body = p.parseExpression()
	}
	return arm
}

// parseForStmt parses: for Ident : Type in Expr Block
func (p *Parser) parseForStmt() *ForStmt {
	s := &ForStmt{}
	s.pos = p.tok.Pos

	p.expect(_For, "expected 'for'")
	s.Var = p.expect(_Name, "expected loop variable name").Text
	p.expect(_Colon, "expected ':' after loop variable name")
	s.VarType = p.parseType()
	p.expect(_In, "expected 'in' in for loop")
	s.Iter = p.parseExpression()
	s.Body = p.parseBlockStmt()
	return s
}

// parseWhileStmt parses: while Cond Block
func (p *Parser) parseWhileStmt() *WhileStmt {
	s := &WhileStmt{}
	s.pos = p.tok.Pos

	p.expect(_While, "expected 'while'")
	s.Cond = p.parseExpression()
	s.Body = p.parseBlockStmt()
	return s
}

// parseLoopStmt parses: loop Block
func (p *Parser) parseLoopStmt() *LoopStmt {
	s := &LoopStmt{}
	s.pos = p.tok.Pos

	p.expect(_Loop, "expected 'loop'")
	s.Body = p.parseBlockStmt()
	return s
}

// parseBlockStmt parses: { Stmt* }
func (p *Parser) parseBlockStmt() *BlockStmt {
	b := &BlockStmt{}
	b.pos = p.tok.Pos

	p.expect(_Lbrace, "expected '{'")
	for p.tok.Kind != _Rbrace && p.tok.Kind != _Eof {
		start := p.tok.Pos.Offset()
		if s := p.parseStatement(); s != nil {
			b.Stmts = append(b.Stmts, s)
		}
		if p.tok.Pos.Offset() == start && p.tok.Kind != _Rbrace {
			p.next() // guarantee progress after failed recovery
		}
	}
	p.expect(_Rbrace, "expected '}'")
	return b
}

// ----------------------------------------------------------------------------
// Expressions

// parseExpression parses an expression at the lowest precedence level.
func (p *Parser) parseExpression() Expr {
	return p.parseAssignment()
}

// parseAssignment parses assignment and compound assignment expressions
// (right-associative).
func (p *Parser) parseAssignment() Expr {
	x := p.parseRange()
	if x == nil {
		return nil
	}

	if p.tok.Kind == _Assign {
		pos := p.tok.Pos
		p.next()
		value := p.parseAssignment()
		e := &AssignExpr{Target: x, Value: value}
		e.pos = pos
		return e
	}

	if op, ok := compoundOp(p.tok.Kind); ok {
		pos := p.tok.Pos
		p.next()
		value := p.parseAssignment()
		e := &CompoundAssignExpr{Op: op, Target: x, Value: value}
		e.pos = pos
		return e
	}

	return x
}

// compoundOp maps a compound-assignment token to its underlying operator.
func compoundOp(k TokenKind) (BinOp, bool) {
	switch k {
	case _AddAssign:
		return OpAdd, true
	case _SubAssign:
		return OpSub, true
	case _MulAssign:
		return OpMul, true
	case _DivAssign:
		return OpDiv, true
	case _RemAssign:
		return OpRem, true
	case _AmpAssign:
		return OpBitAnd, true
	case _PipeAssign:
		return OpBitOr, true
	case _CaretAssign:
		return OpBitXor, true
	}
	return 0, false
}

// parseRange parses start..end and start..=end range expressions.
func (p *Parser) parseRange() Expr {
	x := p.parseBinary(0)
	if x == nil {
		return nil
	}

	if p.tok.Kind == _DotDot || p.tok.Kind == _DotDotEq {
		e := &RangeExpr{Start: x, Inclusive: p.tok.Kind == _DotDotEq}
		e.pos = x.Pos()
		p.next()
		if startsExpr(p.tok.Kind) {
			e.End = p.parseBinary(0)
		}
		return e
	}

	return x
}

// startsExpr reports whether kind can begin an expression.
func startsExpr(k TokenKind) bool {
	switch k {
	case _IntLit, _FloatLit, _StringLit, _CharLit, _True, _False,
		_Name, _Lparen, _Lbrace, _If, _Match, _Pipe, _Underscore,
		_Sub, _Not, _Tilde, _Ref, _Mut, _Move, _Await, _Self, _Panic, _Assert:
		return true
	}
	return false
}

// binOpFor maps a binary operator token to its AST operator.
func binOpFor(k TokenKind) BinOp {
	switch k {
	case _Or:
		return OpOr
	case _And:
		return OpAnd
	case _Eql:
		return OpEql
	case _Neq:
		return OpNeq
	case _Lss:
		return OpLss
	case _Leq:
		return OpLeq
	case _Gtr:
		return OpGtr
	case _Geq:
		return OpGeq
	case _Pipe:
		return OpBitOr
	case _Caret:
		return OpBitXor
	case _Amp:
		return OpBitAnd
	case _Shl:
		return OpShl
	case _Shr:
		return OpShr
	case _Add:
		return OpAdd
	case _Sub:
		return OpSub
	case _Mul:
		return OpMul
	case _Div:
		return OpDiv
	case _Rem:
		return OpRem
	}
	return OpAdd // unreachable for tokens with nonzero precedence
}

// parseBinary parses a binary expression with minimum precedence prec
// using precedence climbing (left-associative).
func (p *Parser) parseBinary(prec int) Expr {
	x := p.parseUnary()
	if x == nil {
		return nil
	}

	for {
		oprec := p.tok.Kind.Precedence()
		if oprec <= prec {
			return x
		}

		op := &BinaryExpr{Op: binOpFor(p.tok.Kind), Lhs: x}
		op.pos = x.Pos()
		p.next()

		op.Rhs = p.parseBinary(oprec)
		if op.Rhs == nil {
			return x
		}
		x = op
	}
}

// parseUnary parses unary prefix expressions (right-associative).
func (p *Parser) parseUnary() Expr {
	pos := p.tok.Pos

	switch p.tok.Kind {
	case _Sub:
		p.next()
		return p.unaryNode(OpNegate, pos)
	case _Not:
		p.next()
		return p.unaryNode(OpNot, pos)
	case _Tilde:
		p.next()
		return p.unaryNode(OpBitNot, pos)

	case _Ref:
		p.next()
		operand := p.parseUnary()
		if operand == nil {
			return nil
		}
		e := &RefExpr{Operand: operand}
		e.pos = pos
		return e

	case _Mut:
		// mut ref expr is a two-token prefix: confirm with a one-token
		// peek at the lexer before committing.
		if p.lexer.Peek().Kind != _Ref {
			break
		}
		p.next() // mut
		p.next() // ref
		operand := p.parseUnary()
		if operand == nil {
			return nil
		}
		e := &MutRefExpr{Operand: operand}
		e.pos = pos
		return e

	case _Move:
		p.next()
		operand := p.parseUnary()
		if operand == nil {
			return nil
		}
		e := &MoveExpr{Operand: operand}
		e.pos = pos
		return e

	case _Await:
		p.next()
		operand := p.parseUnary()
		if operand == nil {
			return nil
		}
		e := &AwaitExpr{Operand: operand}
		e.pos = pos
		return e
	}

	x := p.parsePrimary()
	if x == nil {
		return nil
	}
	return p.parsePostfix(x)
}

func (p *Parser) unaryNode(op UnOp, pos source.Pos) Expr {
	operand := p.parseUnary()
	if operand == nil {
		return nil
	}
	e := &UnaryExpr{Op: op, Operand: operand}
	e.pos = pos
	return e
}

// parsePostfix parses postfix operations (left-associative, repeated):
// calls, indexing, member access, path continuation, try, and casts.
func (p *Parser) parsePostfix(x Expr) Expr {
	for {
		switch p.tok.Kind {
		case _Lparen:
			x = p.parseCallArgs(x)

		case _Lbrack:
			idx := &IndexExpr{Object: x}
			idx.pos = x.Pos()
			p.next()
			idx.Index = p.parseExpression()
			p.expect(_Rbrack, "expected ']'")
			x = idx

		case _Dot:
			p.next()
			pos := p.tok.Pos
			member := p.expect(_Name, "expected member name after '.'").Text
			if p.tok.Kind == _Lparen {
				// Member access promotes to a method call.
				call := &MethodCallExpr{Object: x, Method: member}
				call.pos = pos
				p.next()
				for p.tok.Kind != _Rparen && p.tok.Kind != _Eof {
					if arg := p.parseExpression(); arg != nil {
						call.Args = append(call.Args, arg)
					}
					if !p.got(_Comma) {
						break
					}
				}
				p.expect(_Rparen, "expected ')' after method arguments")
				x = call
			} else {
				m := &MemberExpr{Object: x, Member: member}
				m.pos = pos
				x = m
			}

		case _ColonColon:
			// Path continuation promotes the left operand to a Path,
			// flattening any existing Ident or Path segments.
			var segments []string
			switch left := x.(type) {
			case *IdentExpr:
				segments = []string{left.Name}
			case *PathExpr:
				segments = left.Segments
			}
			for p.got(_ColonColon) {
				seg := p.expect(_Name, "expected identifier after '::'")
				segments = append(segments, seg.Text)
			}
			path := &PathExpr{Segments: segments}
			path.pos = x.Pos()
			x = path

		case _Question:
			e := &TryExpr{Operand: x}
			e.pos = x.Pos()
			p.next()
			x = e

		case _As:
			p.next()
			e := &CastExpr{X: x, Type: p.parseType()}
			e.pos = x.Pos()
			x = e

		default:
			return x
		}
	}
}

// parseCallArgs parses callee(arg,*).
func (p *Parser) parseCallArgs(callee Expr) Expr {
	call := &CallExpr{Callee: callee}
	call.pos = callee.Pos()

	p.expect(_Lparen, "expected '('")
	for p.tok.Kind != _Rparen && p.tok.Kind != _Eof {
		if arg := p.parseExpression(); arg != nil {
			call.Args = append(call.Args, arg)
		} else {
			break
		}
		if !p.got(_Comma) {
			break
		}
	}
	p.expect(_Rparen, "expected ')' after arguments")
	return call
}

// parsePrimary parses primary expressions.
func (p *Parser) parsePrimary() Expr {
	pos := p.tok.Pos

	switch p.tok.Kind {
	case _IntLit:
		e := &IntLitExpr{Value: p.tok.IntVal}
		e.pos = pos
		p.next()
		return e

	case _FloatLit:
		e := &FloatLitExpr{Value: p.tok.FloatVal}
		e.pos = pos
		p.next()
		return e

	case _StringLit:
		e := &StringLitExpr{Value: p.tok.Text}
		e.pos = pos
		p.next()
		return e

	case _CharLit:
		e := &CharLitExpr{Value: charValue(p.tok.Text)}
		e.pos = pos
		p.next()
		return e

	case _True, _False:
		e := &BoolLitExpr{Value: p.tok.Kind == _True}
		e.pos = pos
		p.next()
		return e

	case _Name:
		return p.parseIdentLike()

	case _Self:
		e := &IdentExpr{Name: "self"}
		e.pos = pos
		p.next()
		return e

	case _Panic, _Assert:
		// Lexically keywords, syntactically builtin functions.
		e := &IdentExpr{Name: p.tok.Text}
		e.pos = pos
		p.next()
		return e

	case _Lparen:
		return p.parseParenOrTuple()

	case _Lbrace:
		return p.parseBlockExpr()

	case _If:
		return p.parseIfExpr()

	case _Match:
		return p.parseMatchExpr()

	case _Pipe:
		return p.parseClosureExpr()

	case _Underscore:
		e := &IdentExpr{Name: "_"}
		e.pos = pos
		p.next()
		return e
	}

	p.diag.Errorf(pos, "expected expression, got '%s'", p.tok.Text)
	return nil
}

// charValue extracts the rune from a character literal lexeme like 'a'
// or '\n'. Escapes keep their source form's second character decoded.
func charValue(text string) rune {
	// Strip the quotes.
	if len(text) >= 2 && text[0] == '\'' && text[len(text)-1] == '\'' {
		text = text[1 : len(text)-1]
	}
	if len(text) == 0 {
		return 0
	}
	if text[0] == '\\' && len(text) >= 2 {
		switch text[1] {
		case 'n':
			return '\n'
		case 't':
			return '\t'
		case 'r':
			return '\r'
		case '0':
			return 0
		case '\\':
			return '\\'
		case '\'':
			return '\''
		default:
			return rune(text[1])
		}
	}
	return []rune(text)[0]
}

// parseIdentLike parses an identifier and its extensions: a qualified
// path, or a struct literal.
func (p *Parser) parseIdentLike() Expr {
	pos := p.tok.Pos
	name := p.tok.Text
	p.next()

	// Qualified path: a::b::c
	if p.tok.Kind == _ColonColon {
		segments := []string{name}
		for p.got(_ColonColon) {
			seg := p.expect(_Name, "expected identifier after '::'")
			segments = append(segments, seg.Text)
		}
		e := &PathExpr{Segments: segments}
		e.pos = pos
		return e
	}

	// Struct literal: TypeName { field: value, ... }
	// Speculate to tell a struct literal from an enclosing block.
	if p.tok.Kind == _Lbrace && p.isStructLiteral() {
		return p.parseStructLiteral(name, pos)
	}

	e := &IdentExpr{Name: name}
	e.pos = pos
	return e
}

// isStructLiteral speculates past the '{' to decide whether it opens a
// struct literal: it does if followed by '}' (empty literal) or by an
// identifier and ':'. Both parser and lexer state are restored.
func (p *Parser) isStructLiteral() bool {
	ls := p.lexer.SaveState()
	ps := p.save()

	p.next() // consume '{'
	isLit := false
	if p.tok.Kind == _Rbrace {
		isLit = true
	} else if p.tok.Kind == _Name {
		p.next()
		if p.tok.Kind == _Colon {
			isLit = true
		}
	}

	p.lexer.RestoreState(ls)
	p.restore(ps)
	return isLit
}

// parseStructLiteral parses TypeName { field: value ,* } after the name.
func (p *Parser) parseStructLiteral(name string, pos source.Pos) Expr {
	lit := &StructLitExpr{TypeName: name}
	lit.pos = pos

	p.expect(_Lbrace, "expected '{'")
	for p.tok.Kind != _Rbrace && p.tok.Kind != _Eof {
		field := FieldInit{Pos: p.tok.Pos}
		field.Name = p.expect(_Name, "expected field name").Text
		p.expect(_Colon, "expected ':' after field name")
		field.Value = p.parseExpression()
		lit.Fields = append(lit.Fields, field)
		if !p.got(_Comma) {
			break
		}
	}
	p.expect(_Rbrace, "expected '}' after struct literal")
	return lit
}

// parseParenOrTuple parses (expr), (), or (a, b, ...).
// A trailing comma or two or more elements yields a tuple.
func (p *Parser) parseParenOrTuple() Expr {
	pos := p.tok.Pos
	p.expect(_Lparen, "expected '('")

	if p.got(_Rparen) {
		e := &TupleExpr{}
		e.pos = pos
		return e
	}

	first := p.parseExpression()
	if first == nil {
		p.expect(_Rparen, "expected ')'")
		return nil
	}

	if p.tok.Kind == _Comma {
		elems := []Expr{first}
		for p.got(_Comma) {
			if p.tok.Kind == _Rparen {
				break
			}
			if e := p.parseExpression(); e != nil {
				elems = append(elems, e)
			} else {
				break
			}
		}
		p.expect(_Rparen, "expected ')' after tuple")
		e := &TupleExpr{Elems: elems}
		e.pos = pos
		return e
	}

	p.expect(_Rparen, "expected ')'")
	return first
}

// parseBlockExpr parses { stmts; tail? } as an expression. An expression
// before the closing brace with no semicolon becomes the block's value.
func (p *Parser) parseBlockExpr() Expr {
	b := &BlockExpr{}
	b.pos = p.tok.Pos

	p.expect(_Lbrace, "expected '{'")
	for p.tok.Kind != _Rbrace && p.tok.Kind != _Eof {
		start := p.tok.Pos.Offset()

		if startsStmtHead(p.tok.Kind) {
			if s := p.parseStatement(); s != nil {
				b.Stmts = append(b.Stmts, s)
			}
		} else {
			pos := p.tok.Pos
			x := p.parseExpression()
			if x == nil {
				p.synchronize()
			} else if p.tok.Kind == _Rbrace {
				b.Tail = x
				break
			} else {
				p.expectSemi()
				s := &ExprStmt{X: x}
				s.pos = pos
				b.Stmts = append(b.Stmts, s)
			}
		}

		if p.tok.Pos.Offset() == start && p.tok.Kind != _Rbrace {
			p.next()
		}
	}
	p.expect(_Rbrace, "expected '}'")
	return b
}

// startsStmtHead reports whether kind is a reserved statement head.
func startsStmtHead(k TokenKind) bool {
	switch k {
	case _Let, _Const, _Return, _If, _Match, _For, _While, _Loop,
		_Break, _Continue, _Lbrace:
		return true
	}
	return false
}

// parseIfExpr parses if cond { then } (else (if | block))? as an expression.
func (p *Parser) parseIfExpr() Expr {
	e := &IfExpr{}
	e.pos = p.tok.Pos

	p.expect(_If, "expected 'if'")
	e.Cond = p.parseExpression()
	e.Then = p.parseBlockExpr()

	if p.got(_Else) {
		if p.tok.Kind == _If {
			e.Else = p.parseIfExpr()
		} else {
			e.Else = p.parseBlockExpr()
		}
	}
	return e
}

// parseMatchExpr parses match scrutinee { arms } as an expression.
func (p *Parser) parseMatchExpr() Expr {
	e := &MatchExpr{}
	e.pos = p.tok.Pos

	p.expect(_Match, "expected 'match'")
	e.Scrutinee = p.parseExpression()
	e.Arms = p.parseMatchArms()
	return e
}

// parseClosureExpr parses |param,*| (-> Type)? Block.
func (p *Parser) parseClosureExpr() Expr {
	e := &ClosureExpr{}
	e.pos = p.tok.Pos

	p.expect(_Pipe, "expected '|' for closure")
	for p.tok.Kind != _Pipe && p.tok.Kind != _Eof {
		param := ClosureParam{Pos: p.tok.Pos}
		param.Name = p.expect(_Name, "expected parameter name").Text
		if p.got(_Colon) {
			param.Type = p.parseType()
		}
		e.Params = append(e.Params, param)
		if !p.got(_Comma) {
			break
		}
	}
	p.expect(_Pipe, "expected '|' after closure parameters")

	if p.got(_Arrow) {
		e.Return = p.parseType()
	}

	e.Body = p.parseBlockExpr()
	return e
}

// ----------------------------------------------------------------------------
// Patterns

// parsePattern parses a pattern, including | alternatives.
func (p *Parser) parsePattern() Pattern {
	first := p.parseSinglePattern()
	if p.tok.Kind != _Pipe {
		return first
	}

	or := &OrPat{Alts: []Pattern{first}}
	or.pos = first.Pos()
	for p.got(_Pipe) {
		or.Alts = append(or.Alts, p.parseSinglePattern())
	}
	return or
}

// parseSinglePattern parses one pattern alternative.
func (p *Parser) parseSinglePattern() Pattern {
	pos := p.tok.Pos

	switch p.tok.Kind {
	case _Underscore:
		p.next()
		pat := &WildcardPat{}
		pat.pos = pos
		return pat

	case _IntLit:
		lit := &IntLitExpr{Value: p.tok.IntVal}
		lit.pos = pos
		p.next()
		pat := &LitPat{Lit: lit}
		pat.pos = pos
		return pat

	case _StringLit:
		lit := &StringLitExpr{Value: p.tok.Text}
		lit.pos = pos
		p.next()
		pat := &LitPat{Lit: lit}
		pat.pos = pos
		return pat

	case _True, _False:
		lit := &BoolLitExpr{Value: p.tok.Kind == _True}
		lit.pos = pos
		p.next()
		pat := &LitPat{Lit: lit}
		pat.pos = pos
		return pat

	case _Lparen:
		p.next()
		pat := &TuplePat{}
		pat.pos = pos
		for p.tok.Kind != _Rparen && p.tok.Kind != _Eof {
			pat.Elems = append(pat.Elems, p.parsePattern())
			if !p.got(_Comma) {
				break
			}
		}
		p.expect(_Rparen, "expected ')' after tuple pattern")
		return pat

	case _Mut:
		p.next()
		name := p.expect(_Name, "expected identifier after 'mut' in pattern")
		pat := &IdentPat{Name: name.Text, IsMut: true}
		pat.pos = pos
		return pat

	case _Name:
		name := p.tok.Text
		p.next()

		path := []string{name}
		for p.got(_ColonColon) {
			seg := p.expect(_Name, "expected identifier after '::'")
			path = append(path, seg.Text)
		}

		// A qualified name or a following ( or { makes this a
		// constructor pattern; a lone identifier binds a name.
		if len(path) == 1 && p.tok.Kind != _Lparen && p.tok.Kind != _Lbrace {
			pat := &IdentPat{Name: name}
			pat.pos = pos
			return pat
		}
		return p.parseConstructorPattern(path, pos)
	}

	p.diag.Errorf(pos, "expected pattern")
	pat := &WildcardPat{}
	pat.pos = pos
	return pat
}

// parseConstructorPattern parses the positional and named forms after a
// constructor path.
func (p *Parser) parseConstructorPattern(path []string, pos source.Pos) Pattern {
	pat := &ConstructorPat{Path: path}
	pat.pos = pos

	if p.got(_Lparen) {
		for p.tok.Kind != _Rparen && p.tok.Kind != _Eof {
			pat.Positional = append(pat.Positional, p.parsePattern())
			if !p.got(_Comma) {
				break
			}
		}
		p.expect(_Rparen, "expected ')' after constructor pattern")
	}

	if p.got(_Lbrace) {
		for p.tok.Kind != _Rbrace && p.tok.Kind != _Eof {
			fieldTok := p.expect(_Name, "expected field name")
			field := NamedFieldPat{Pos: fieldTok.Pos, Name: fieldTok.Text}

			if p.got(_Colon) {
				field.Pattern = p.parsePattern()
			} else {
				// Shorthand: { x } means { x: x }
				ident := &IdentPat{Name: fieldTok.Text}
				ident.pos = fieldTok.Pos
				field.Pattern = ident
			}
			pat.Named = append(pat.Named, field)
			if !p.got(_Comma) {
				break
			}
		}
		p.expect(_Rbrace, "expected '}' after struct pattern")
	}

	return pat
}

// ----------------------------------------------------------------------------
// Types

// parseType parses a type expression.
func (p *Parser) parseType() TypeNode {
	pos := p.tok.Pos

	switch p.tok.Kind {
	case _Ref:
		return p.parseRefType()

	case _Amp:
		p.next()
		if p.got(_Mut) {
			t := &MutRefTypeNode{Elem: p.parseType()}
			t.pos = pos
			return t
		}
		t := &RefTypeNode{Elem: p.parseType()}
		t.pos = pos
		return t

	case _Mut:
		p.next()
		if p.got(_Ref) {
			t := &MutRefTypeNode{Elem: p.parseType()}
			t.pos = pos
			return t
		}
		p.diag.Errorf(pos, "expected 'ref' after 'mut' in type")
		t := &NamedTypeNode{Path: []string{"_"}}
		t.pos = pos
		return t

	case _Lparen:
		return p.parseTupleOrFuncType()

	case _Lbrack:
		p.next()
		t := &ArrayTypeNode{Elem: p.parseType()}
		t.pos = pos
		if p.got(_Semi) {
			t.Len = p.parseExpression()
		}
		p.expect(_Rbrack, "expected ']' in array type")
		return t
	}

	return p.parseNamedOrGenericType()
}

// parseRefType parses ref ('lifetime)? Type.
func (p *Parser) parseRefType() TypeNode {
	pos := p.tok.Pos
	p.expect(_Ref, "expected 'ref'")

	t := &RefTypeNode{}
	t.pos = pos
	if p.tok.Kind == _Apostrophe {
		t.Lifetime = strings.TrimPrefix(p.tok.Text, "'")
		p.next()
	}
	t.Elem = p.parseType()
	return t
}

// parseTupleOrFuncType parses (T,*) and (T,*) -> R.
func (p *Parser) parseTupleOrFuncType() TypeNode {
	pos := p.tok.Pos
	p.expect(_Lparen, "expected '('")

	var elems []TypeNode
	for p.tok.Kind != _Rparen && p.tok.Kind != _Eof {
		elems = append(elems, p.parseType())
		if !p.got(_Comma) {
			break
		}
	}
	p.expect(_Rparen, "expected ')' after tuple type")

	if p.got(_Arrow) {
		t := &FuncTypeNode{Params: elems, Return: p.parseType()}
		t.pos = pos
		return t
	}

	t := &TupleTypeNode{Elems: elems}
	t.pos = pos
	return t
}

// parseNamedOrGenericType parses Ident (:: Ident)* (< Type,* >)?.
// Void and Self are recognized as named-type shortcuts.
func (p *Parser) parseNamedOrGenericType() TypeNode {
	pos := p.tok.Pos

	switch p.tok.Kind {
	case _Void:
		p.next()
		t := &NamedTypeNode{Path: []string{"Void"}}
		t.pos = pos
		return t
	case _SelfType:
		p.next()
		t := &NamedTypeNode{Path: []string{"Self"}}
		t.pos = pos
		return t
	}

	var path []string
	tok := p.expect(_Name, "expected type name")
	path = append(path, tok.Text)
	for p.got(_ColonColon) {
		tok = p.expect(_Name, "expected type name after '::'")
		path = append(path, tok.Text)
	}

	named := &NamedTypeNode{Path: path}
	named.pos = pos

	if p.got(_Lss) {
		var args []TypeNode
		for p.tok.Kind != _Gtr && p.tok.Kind != _Eof {
			args = append(args, p.parseType())
			if !p.got(_Comma) {
				break
			}
		}
		p.expect(_Gtr, "expected '>' after type arguments")

		t := &GenericTypeNode{Base: named, Args: args}
		t.pos = pos
		return t
	}

	return named
}
