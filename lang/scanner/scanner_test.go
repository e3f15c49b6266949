package scanner_test

import (
	"testing"

	"github.com/mna/ember/lang/scanner"
	"github.com/mna/ember/lang/token"
	"github.com/stretchr/testify/require"
)

func scanAll(t *testing.T, src string) []token.Token {
	t.Helper()
	s := scanner.New([]byte(src))
	var toks []token.Token
	for {
		tok := s.Scan()
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			return toks
		}
	}
}

func TestScanPunctuationAndOperators(t *testing.T) {
	toks := scanAll(t, "( ) { } , . - + ; / * ! != = == < <= > >=")
	want := []token.Type{
		token.LPAREN, token.RPAREN, token.LBRACE, token.RBRACE, token.COMMA,
		token.DOT, token.MINUS, token.PLUS, token.SEMICOLON, token.SLASH,
		token.STAR, token.BANG, token.BANG_EQ, token.EQ, token.EQ_EQ,
		token.LT, token.LT_EQ, token.GT, token.GT_EQ, token.EOF,
	}
	require.Len(t, toks, len(want))
	for i, typ := range want {
		require.Equalf(t, typ, toks[i].Type, "token %d", i)
	}
}

func TestScanKeywordsAndIdentifiers(t *testing.T) {
	toks := scanAll(t, "and class else false for fun if nil or print return super this true var while foo _bar42")
	want := []token.Type{
		token.AND, token.CLASS, token.ELSE, token.FALSE, token.FOR, token.FUN,
		token.IF, token.NIL, token.OR, token.PRINT, token.RETURN, token.SUPER,
		token.THIS, token.TRUE, token.VAR, token.WHILE, token.IDENT, token.IDENT,
		token.EOF,
	}
	require.Len(t, toks, len(want))
	for i, typ := range want {
		require.Equalf(t, typ, toks[i].Type, "token %d", i)
	}
	require.Equal(t, "foo", toks[16].Lexeme)
	require.Equal(t, "_bar42", toks[17].Lexeme)
}

func TestScanNumbers(t *testing.T) {
	toks := scanAll(t, "123 1.5 0.25")
	require.Equal(t, []string{"123", "1.5", "0.25"}, []string{toks[0].Lexeme, toks[1].Lexeme, toks[2].Lexeme})
	for _, tok := range toks[:3] {
		require.Equal(t, token.NUMBER, tok.Type)
	}
}

func TestScanNumberTrailingDotIsNotConsumed(t *testing.T) {
	// "1." with no digit after the dot: the number stops at 1, the dot is its
	// own token, matching the grammar's rule that DOT is never part of a
	// number literal without a following digit.
	toks := scanAll(t, "1.")
	require.Equal(t, token.NUMBER, toks[0].Type)
	require.Equal(t, "1", toks[0].Lexeme)
	require.Equal(t, token.DOT, toks[1].Type)
}

func TestScanStrings(t *testing.T) {
	toks := scanAll(t, `"hello" "multi
line"`)
	require.Equal(t, token.STRING, toks[0].Type)
	require.Equal(t, `"hello"`, toks[0].Lexeme)
	require.Equal(t, 1, toks[0].Line)
	require.Equal(t, token.STRING, toks[1].Type)
	require.Equal(t, 1, toks[1].Line, "string literal line is where it starts")
}

func TestScanUnterminatedString(t *testing.T) {
	toks := scanAll(t, `"oops`)
	require.Equal(t, token.ILLEGAL, toks[0].Type)
	require.Contains(t, toks[0].Lexeme, "unterminated")
}

func TestScanUnexpectedCharacter(t *testing.T) {
	toks := scanAll(t, "@")
	require.Equal(t, token.ILLEGAL, toks[0].Type)
	require.Contains(t, toks[0].Lexeme, "unexpected character")
}

func TestScanSkipsCommentsAndWhitespace(t *testing.T) {
	toks := scanAll(t, "// a comment\n  \tvar\n// another\nx")
	require.Equal(t, token.VAR, toks[0].Type)
	require.Equal(t, 2, toks[0].Line)
	require.Equal(t, token.IDENT, toks[1].Type)
	require.Equal(t, 4, toks[1].Line)
}

func TestScanTracksLineNumbersAcrossTokens(t *testing.T) {
	toks := scanAll(t, "var a\n= 1;\n")
	lines := make([]int, len(toks))
	for i, tok := range toks {
		lines[i] = tok.Line
	}
	require.Equal(t, []int{1, 1, 2, 2, 2, 3}, lines)
}

func TestScanIsDeterministic(t *testing.T) {
	src := `fun add(a, b) { return a + b; }`
	first := scanAll(t, src)
	second := scanAll(t, src)
	require.Equal(t, first, second)
}
