package syntax

import (
	"testing"

	"github.com/otabekoff/flux/internal/diag"
)

// silentEngine returns a diagnostic engine that swallows output.
func silentEngine() *diag.Engine {
	e := diag.NewEngine()
	e.SetHandler(func(diag.Diagnostic) {})
	return e
}

func lexKinds(t *testing.T, src string) ([]Token, *diag.Engine) {
	t.Helper()
	eng := silentEngine()
	return NewLexer("test.fl", src, eng).LexAll(), eng
}

func TestLexTokens(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		kinds []TokenKind
		texts []string
	}{
		// Identifiers
		{"ident", "foo", []TokenKind{_Name}, []string{"foo"}},
		{"ident_underscore", "_bar", []TokenKind{_Name}, []string{"_bar"}},
		{"ident_mixed", "foo123", []TokenKind{_Name}, []string{"foo123"}},
		{"lone_underscore", "_", []TokenKind{_Underscore}, []string{"_"}},

		// Keywords vs identifiers (case sensitive)
		{"kw_func", "func", []TokenKind{_Func}, []string{"func"}},
		{"kw_self", "self", []TokenKind{_Self}, []string{"self"}},
		{"kw_self_type", "Self", []TokenKind{_SelfType}, []string{"Self"}},
		{"not_kw", "Func", []TokenKind{_Name}, []string{"Func"}},

		// Integer literals
		{"int_dec", "123", []TokenKind{_IntLit}, []string{"123"}},
		{"int_hex", "0xFF", []TokenKind{_IntLit}, []string{"0xFF"}},
		{"int_bin", "0b1010", []TokenKind{_IntLit}, []string{"0b1010"}},
		{"int_oct", "0o77", []TokenKind{_IntLit}, []string{"0o77"}},
		{"int_underscores", "1_000_000", []TokenKind{_IntLit}, []string{"1_000_000"}},

		// Float literals
		{"float_simple", "3.14", []TokenKind{_FloatLit}, []string{"3.14"}},
		{"float_exp", "1e10", []TokenKind{_FloatLit}, []string{"1e10"}},
		{"float_exp_neg", "2.5e-3", []TokenKind{_FloatLit}, []string{"2.5e-3"}},
		{"int_dot_not_float", "3..5", []TokenKind{_IntLit, _DotDot, _IntLit}, []string{"3", "..", "5"}},

		// String literals (text holds the content)
		{"string", `"hello"`, []TokenKind{_StringLit}, []string{"hello"}},
		{"string_empty", `""`, []TokenKind{_StringLit}, []string{""}},
		{"string_escape", `"a\"b"`, []TokenKind{_StringLit}, []string{`a\"b`}},

		// Characters and lifetimes
		{"char", "'a'", []TokenKind{_CharLit}, []string{"'a'"}},
		{"char_escape", `'\n'`, []TokenKind{_CharLit}, []string{`'\n'`}},
		{"char_digit", "'1'", []TokenKind{_CharLit}, []string{"'1'"}},
		{"lifetime", "'a", []TokenKind{_Apostrophe}, []string{"'a"}},
		{"lifetime_long", "'static", []TokenKind{_Apostrophe}, []string{"'static"}},

		// Annotations
		{"at_doc", "@doc", []TokenKind{_Doc}, []string{"@doc"}},
		{"at_deprecated", "@deprecated", []TokenKind{_Deprecated}, []string{"@deprecated"}},
		{"at_test", "@test", []TokenKind{_Test}, []string{"@test"}},
		{"at_unknown", "@inline", []TokenKind{_At, _Name}, []string{"@", "inline"}},

		// Multi-character operators: longest match
		{"op_eq", "= ==", []TokenKind{_Assign, _Eql}, []string{"=", "=="}},
		{"op_colons", ": ::", []TokenKind{_Colon, _ColonColon}, []string{":", "::"}},
		{"op_dots", ". .. ..= ...", []TokenKind{_Dot, _DotDot, _DotDotEq, _DotDotDot}, []string{".", "..", "..=", "..."}},
		{"op_arrow", "-> -= -", []TokenKind{_Arrow, _SubAssign, _Sub}, []string{"->", "-=", "-"}},
		{"op_shifts", "<< <= <", []TokenKind{_Shl, _Leq, _Lss}, []string{"<<", "<=", "<"}},
		{"op_shr", ">> >= >", []TokenKind{_Shr, _Geq, _Gtr}, []string{">>", ">=", ">"}},
		{"op_neq", "!=", []TokenKind{_Neq}, []string{"!="}},
		{"op_fat_arrow", "=>", []TokenKind{_FatArrow}, []string{"=>"}},
		{"op_compound", "+= -= *= /= %= &= |= ^=",
			[]TokenKind{_AddAssign, _SubAssign, _MulAssign, _DivAssign, _RemAssign, _AmpAssign, _PipeAssign, _CaretAssign},
			[]string{"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^="}},
		{"op_hash", "# #!", []TokenKind{_Hash, _HashBang}, []string{"#", "#!"}},

		// Comments
		{"line_comment", "a // comment\nb", []TokenKind{_Name, _Name}, []string{"a", "b"}},
		{"block_comment", "a /* x */ b", []TokenKind{_Name, _Name}, []string{"a", "b"}},
		{"nested_block_comment", "a /* x /* y */ z */ b", []TokenKind{_Name, _Name}, []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, eng := lexKinds(t, tt.src)

			if len(tokens) != len(tt.kinds)+1 {
				t.Fatalf("got %d tokens, want %d (+EOF): %v", len(tokens)-1, len(tt.kinds), tokens)
			}
			for i, want := range tt.kinds {
				if tokens[i].Kind != want {
					t.Errorf("token %d kind = %v, want %v", i, tokens[i].Kind, want)
				}
				if tokens[i].Text != tt.texts[i] {
					t.Errorf("token %d text = %q, want %q", i, tokens[i].Text, tt.texts[i])
				}
			}
			if tokens[len(tokens)-1].Kind != _Eof {
				t.Error("token stream must end in EOF")
			}
			if eng.HasErrors() {
				t.Errorf("unexpected lexical errors: %d", eng.ErrorCount())
			}
		})
	}
}

func TestLexNumericPayloads(t *testing.T) {
	tokens, eng := lexKinds(t, "0xFF 0b1010 0o77 1_000_000")
	if eng.HasErrors() {
		t.Fatalf("unexpected errors: %d", eng.ErrorCount())
	}

	want := []int64{255, 10, 63, 1000000}
	if len(tokens) != len(want)+1 {
		t.Fatalf("got %d tokens, want %d (+EOF)", len(tokens)-1, len(want))
	}
	for i, w := range want {
		if tokens[i].Kind != _IntLit {
			t.Errorf("token %d kind = %v, want IntLit", i, tokens[i].Kind)
		}
		if tokens[i].IntVal != w {
			t.Errorf("token %d payload = %d, want %d", i, tokens[i].IntVal, w)
		}
	}
}

func TestLexFloatPayload(t *testing.T) {
	tokens, eng := lexKinds(t, "3.5 1_0.2_5")
	if eng.HasErrors() {
		t.Fatalf("unexpected errors: %d", eng.ErrorCount())
	}
	if tokens[0].FloatVal != 3.5 {
		t.Errorf("payload = %g, want 3.5", tokens[0].FloatVal)
	}
	if tokens[1].FloatVal != 10.25 {
		t.Errorf("payload = %g, want 10.25", tokens[1].FloatVal)
	}
}

func TestLexErrors(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		errors uint32
	}{
		{"unterminated_block_comment", "/* never closed", 1},
		{"bare_bang", "!", 1},
		{"bad_hex", "0x", 1},
		{"bad_binary", "0bzz", 1},
		{"bad_octal", "0o", 1},
		{"bad_exponent", "1e+", 1},
		{"unterminated_string", "\"abc\nx", 1},
		{"unterminated_char", "'", 1},
		{"unexpected_char", "$", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, eng := lexKinds(t, tt.src)
			if got := eng.ErrorCount(); got != tt.errors {
				t.Errorf("error count = %d, want %d", got, tt.errors)
			}
		})
	}
}

func TestLexEmptySource(t *testing.T) {
	tokens, eng := lexKinds(t, "")
	if len(tokens) != 1 || tokens[0].Kind != _Eof {
		t.Fatalf("empty source should yield exactly one EOF token, got %v", tokens)
	}
	if eng.HasErrors() {
		t.Error("empty source should produce zero errors")
	}
}

func TestLexPositions(t *testing.T) {
	src := "let x\n  = 1;"
	tokens, _ := lexKinds(t, src)

	wants := []struct {
		line, col uint32
	}{
		{1, 1}, // let
		{1, 5}, // x
		{2, 3}, // =
		{2, 5}, // 1
		{2, 6}, // ;
		{2, 7}, // EOF
	}
	for i, w := range wants {
		pos := tokens[i].Pos
		if pos.Line() != w.line || pos.Col() != w.col {
			t.Errorf("token %d at %d:%d, want %d:%d", i, pos.Line(), pos.Col(), w.line, w.col)
		}
		if int(pos.Offset()) > len(src) {
			t.Errorf("token %d offset %d beyond source length %d", i, pos.Offset(), len(src))
		}
	}
}

func TestLexPeek(t *testing.T) {
	eng := silentEngine()
	l := NewLexer("t", "a b", eng)

	p1 := l.Peek()
	p2 := l.Peek()
	if p1 != p2 {
		t.Error("repeated Peek must return the same token")
	}
	n := l.Next()
	if n != p1 {
		t.Error("Next after Peek must return the peeked token")
	}
	if l.Next().Text != "b" {
		t.Error("peek consumed a token")
	}
}

func TestLexSnapshotRestore(t *testing.T) {
	eng := silentEngine()
	l := NewLexer("t", "a b c d", eng)

	if l.Next().Text != "a" {
		t.Fatal("setup")
	}

	state := l.SaveState()
	b1 := l.Next()
	c1 := l.Next()

	l.RestoreState(state)
	b2 := l.Next()
	c2 := l.Next()

	if b1 != b2 || c1 != c2 {
		t.Error("restore did not rewind the token stream")
	}
}

func TestLexSnapshotWithPeek(t *testing.T) {
	eng := silentEngine()
	l := NewLexer("t", "x y z", eng)

	l.Peek() // populate the peek cache
	state := l.SaveState()
	first := l.Next()
	l.Next()

	l.RestoreState(state)
	if got := l.Next(); got != first {
		t.Errorf("restore lost the peek cache: got %q, want %q", got.Text, first.Text)
	}
}
