// Package scanner tokenizes ember source text on demand for the compiler.
package scanner

import (
	"fmt"

	"github.com/mna/ember/lang/token"
)

// Scanner produces tokens one at a time from a UTF-8 byte source. It is
// stateless between tokens apart from a cursor and a line counter. Each
// token's lexeme is a copy of its source bytes.
type Scanner struct {
	src     []byte
	start   int // start of the lexeme currently being scanned
	current int // offset of the next byte to read
	line    int
}

// New creates a Scanner over source, ready to produce tokens with Scan.
func New(source []byte) *Scanner {
	return &Scanner{src: source, line: 1}
}

// Scan returns the next token in the source. Once EOF is returned, every
// subsequent call keeps returning EOF.
func (s *Scanner) Scan() token.Token {
	s.skipWhitespace()
	s.start = s.current

	if s.atEnd() {
		return s.make(token.EOF)
	}

	c := s.advance()
	switch {
	case isAlpha(c):
		return s.identifier()
	case isDigit(c):
		return s.number()
	}

	switch c {
	case '(':
		return s.make(token.LPAREN)
	case ')':
		return s.make(token.RPAREN)
	case '{':
		return s.make(token.LBRACE)
	case '}':
		return s.make(token.RBRACE)
	case ';':
		return s.make(token.SEMICOLON)
	case ',':
		return s.make(token.COMMA)
	case '.':
		return s.make(token.DOT)
	case '-':
		return s.make(token.MINUS)
	case '+':
		return s.make(token.PLUS)
	case '/':
		return s.make(token.SLASH)
	case '*':
		return s.make(token.STAR)
	case '!':
		return s.make(s.ifMatch('=', token.BANG_EQ, token.BANG))
	case '=':
		return s.make(s.ifMatch('=', token.EQ_EQ, token.EQ))
	case '<':
		return s.make(s.ifMatch('=', token.LT_EQ, token.LT))
	case '>':
		return s.make(s.ifMatch('=', token.GT_EQ, token.GT))
	case '"':
		return s.string()
	}

	return s.errorf("unexpected character '%c'", c)
}

func (s *Scanner) atEnd() bool {
	return s.current >= len(s.src)
}

func (s *Scanner) advance() byte {
	c := s.src[s.current]
	s.current++
	return c
}

func (s *Scanner) peek() byte {
	if s.atEnd() {
		return 0
	}
	return s.src[s.current]
}

func (s *Scanner) peekNext() byte {
	if s.current+1 >= len(s.src) {
		return 0
	}
	return s.src[s.current+1]
}

func (s *Scanner) ifMatch(want byte, then, otherwise token.Type) token.Type {
	if s.atEnd() || s.src[s.current] != want {
		return otherwise
	}
	s.current++
	return then
}

func (s *Scanner) skipWhitespace() {
	for {
		switch s.peek() {
		case ' ', '\t', '\r':
			s.current++
		case '\n':
			s.line++
			s.current++
		case '/':
			if s.peekNext() == '/' {
				for s.peek() != '\n' && !s.atEnd() {
					s.current++
				}
			} else {
				return
			}
		default:
			return
		}
	}
}

func (s *Scanner) make(typ token.Type) token.Token {
	return token.Token{Type: typ, Lexeme: string(s.src[s.start:s.current]), Line: s.line}
}

// errorf produces an ILLEGAL token whose lexeme carries the error message,
// per spec.md's "ERROR" token category.
func (s *Scanner) errorf(format string, args ...any) token.Token {
	return token.Token{Type: token.ILLEGAL, Lexeme: fmt.Sprintf(format, args...), Line: s.line}
}

func (s *Scanner) string() token.Token {
	startLine := s.line
	for s.peek() != '"' && !s.atEnd() {
		if s.peek() == '\n' {
			s.line++
		}
		s.current++
	}
	if s.atEnd() {
		return token.Token{Type: token.ILLEGAL, Lexeme: "unterminated string", Line: startLine}
	}
	s.current++ // closing quote
	return token.Token{Type: token.STRING, Lexeme: string(s.src[s.start:s.current]), Line: startLine}
}

func (s *Scanner) number() token.Token {
	for isDigit(s.peek()) {
		s.current++
	}
	if s.peek() == '.' && isDigit(s.peekNext()) {
		s.current++ // consume the '.'
		for isDigit(s.peek()) {
			s.current++
		}
	}
	return s.make(token.NUMBER)
}

func (s *Scanner) identifier() token.Token {
	for isAlpha(s.peek()) || isDigit(s.peek()) {
		s.current++
	}
	lexeme := string(s.src[s.start:s.current])
	return token.Token{Type: token.Lookup(lexeme), Lexeme: lexeme, Line: s.line}
}

func isAlpha(c byte) bool {
	return c == '_' || 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}
