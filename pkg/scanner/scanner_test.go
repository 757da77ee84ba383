package scanner_test

import (
	"testing"

	"github.com/ember-lang/ember/pkg/scanner"
)

func collect(source string) []scanner.Token {
	s := scanner.New(source)
	var tokens []scanner.Token
	for {
		tok := s.ScanToken()
		tokens = append(tokens, tok)
		if tok.Type == scanner.EOF {
			return tokens
		}
	}
}

func TestScansSingleAndTwoCharacterOperators(t *testing.T) {
	tokens := collect("! != = == < <= > >=")
	want := []scanner.TokenType{
		scanner.Bang, scanner.BangEqual, scanner.Equal, scanner.EqualEqual,
		scanner.Less, scanner.LessEqual, scanner.Greater, scanner.GreaterEqual,
		scanner.EOF,
	}
	if len(tokens) != len(want) {
		t.Fatalf("got %d tokens, want %d: %+v", len(tokens), len(want), tokens)
	}
	for i, tok := range tokens {
		if tok.Type != want[i] {
			t.Errorf("token %d: got %v, want %v", i, tok.Type, want[i])
		}
	}
}

func TestKeywordsAreNotIdentifiers(t *testing.T) {
	tokens := collect("var print nil true false")
	want := []scanner.TokenType{scanner.Var, scanner.Print, scanner.Nil, scanner.True, scanner.False, scanner.EOF}
	for i, tok := range tokens {
		if tok.Type != want[i] {
			t.Errorf("token %d (%q): got %v, want %v", i, tok.Lexeme, tok.Type, want[i])
		}
	}
}

func TestStringLiteralLexemeIncludesQuotes(t *testing.T) {
	tokens := collect(`"hello"`)
	if tokens[0].Type != scanner.String {
		t.Fatalf("got %v, want String", tokens[0].Type)
	}
	if tokens[0].Lexeme != `"hello"` {
		t.Errorf("got lexeme %q, want %q", tokens[0].Lexeme, `"hello"`)
	}
}

func TestUnterminatedStringIsAnErrorToken(t *testing.T) {
	tokens := collect(`"hello`)
	if tokens[0].Type != scanner.Error {
		t.Fatalf("got %v, want Error", tokens[0].Type)
	}
	if tokens[0].Lexeme != "Unterminated string." {
		t.Errorf("got message %q", tokens[0].Lexeme)
	}
}

func TestNumberLiteralAllowsOneDecimalPoint(t *testing.T) {
	tokens := collect("1.5 2")
	if tokens[0].Type != scanner.Number || tokens[0].Lexeme != "1.5" {
		t.Errorf("got %v %q", tokens[0].Type, tokens[0].Lexeme)
	}
	if tokens[1].Type != scanner.Number || tokens[1].Lexeme != "2" {
		t.Errorf("got %v %q", tokens[1].Type, tokens[1].Lexeme)
	}
}

func TestLineCommentsAreSkipped(t *testing.T) {
	tokens := collect("1 // a comment\n2")
	if tokens[0].Lexeme != "1" || tokens[1].Lexeme != "2" {
		t.Fatalf("comment leaked into tokens: %+v", tokens)
	}
	if tokens[1].Line != 2 {
		t.Errorf("got line %d, want 2", tokens[1].Line)
	}
}

func TestUnexpectedCharacterIsAnErrorToken(t *testing.T) {
	tokens := collect("@")
	if tokens[0].Type != scanner.Error {
		t.Fatalf("got %v, want Error", tokens[0].Type)
	}
}
