package lexer

import "testing"

func TestTokenizesDeclarationAndExpression(t *testing.T) {
	l := New(`fun f() > X { return X.y; }`)
	var kinds []TokenKind
	for {
		tok := l.Next()
		if tok.Kind == TokEOF {
			break
		}
		kinds = append(kinds, tok.Kind)
	}
	want := []TokenKind{
		TokFun, TokIdent, TokLParen, TokRParen, TokGreater, TokIdent, TokLBrace,
		TokReturn, TokIdent, TokDot, TokIdent, TokSemicolon, TokRBrace,
	}
	if len(kinds) != len(want) {
		t.Fatalf("expected %d tokens, got %d: %v", len(want), len(kinds), kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("token %d: expected %d, got %d", i, want[i], kinds[i])
		}
	}
}

func TestStringLiteral(t *testing.T) {
	l := New(`"ok"`)
	tok := l.Next()
	if tok.Kind != TokString || tok.Text != "ok" {
		t.Fatalf("expected string token \"ok\", got %+v", tok)
	}
}

func TestLineComment(t *testing.T) {
	l := New("1 // ignored\n2")
	a := l.Next()
	b := l.Next()
	if a.Text != "1" || b.Text != "2" {
		t.Fatalf("expected 1 then 2 skipping the comment, got %q then %q", a.Text, b.Text)
	}
}

func TestListAndMapLiteralTokens(t *testing.T) {
	l := New(`[1, 2] {"a": 1}`)
	var kinds []TokenKind
	for {
		tok := l.Next()
		if tok.Kind == TokEOF {
			break
		}
		kinds = append(kinds, tok.Kind)
	}
	want := []TokenKind{
		TokLBracket, TokNumber, TokComma, TokNumber, TokRBracket,
		TokLBrace, TokString, TokColon, TokNumber, TokRBrace,
	}
	if len(kinds) != len(want) {
		t.Fatalf("expected %d tokens, got %d: %v", len(want), len(kinds), kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("token %d: expected %d, got %d", i, want[i], kinds[i])
		}
	}
}

func TestAmpAndFiberCreation(t *testing.T) {
	l := New(`&f()`)
	if tok := l.Next(); tok.Kind != TokAmp {
		t.Fatalf("expected TokAmp, got %+v", tok)
	}
}

func TestPatternLiteral(t *testing.T) {
	l := New(`/a.b/`)
	tok := l.Next()
	if tok.Kind != TokPattern || tok.Text != "a.b" {
		t.Fatalf("expected pattern literal \"a.b\", got %+v", tok)
	}
}

func TestSlashAfterIdentifierIsDivision(t *testing.T) {
	l := New(`a / b`)
	var kinds []TokenKind
	for i := 0; i < 3; i++ {
		kinds = append(kinds, l.Next().Kind)
	}
	want := []TokenKind{TokIdent, TokSlash, TokIdent}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("token %d: expected %d, got %d", i, want[i], kinds[i])
		}
	}
}
