package query

import (
	"fmt"
	"strings"
	"unicode"
)

// TokenType represents the type of a query token
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenIRI
	TokenVar
	TokenString
	TokenAtom
	TokenLeftBrace
	TokenRightBrace
	TokenLeftParen
	TokenRightParen
	TokenDot
	TokenComma
	TokenEquals
	TokenOr
)

var tokenNames = map[TokenType]string{
	TokenEOF:        "EOF",
	TokenIRI:        "IRI",
	TokenVar:        "Var",
	TokenString:     "String",
	TokenAtom:       "Atom",
	TokenLeftBrace:  "LeftBrace",
	TokenRightBrace: "RightBrace",
	TokenLeftParen:  "LeftParen",
	TokenRightParen: "RightParen",
	TokenDot:        "Dot",
	TokenComma:      "Comma",
	TokenEquals:     "Equals",
	TokenOr:         "Or",
}

// Token represents a lexical token of the query text syntax.
// String tokens carry their language tag or raw datatype reference.
type Token struct {
	Type     TokenType
	Value    string
	Lang     string
	Datatype string
	Pos      int
	Line     int
	Col      int
}

// String returns a string representation of the token
func (t Token) String() string {
	name, ok := tokenNames[t.Type]
	if !ok {
		name = "Unknown"
	}
	if t.Value == "" {
		return fmt.Sprintf("%s[%d:%d]", name, t.Line, t.Col)
	}
	return fmt.Sprintf("%s[%d:%d]:%q", name, t.Line, t.Col, t.Value)
}

// Lexer tokenizes query text
type Lexer struct {
	input   string
	pos     int
	line    int
	col     int
	tokens  []Token
	current int
}

// NewLexer creates a new lexer for the given input
func NewLexer(input string) *Lexer {
	return &Lexer{
		input: input,
		line:  1,
		col:   1,
	}
}

// Lex tokenizes the entire input
func (l *Lexer) Lex() error {
	for l.pos < len(l.input) {
		l.skipWhitespaceAndComments()
		if l.pos >= len(l.input) {
			break
		}

		start := Token{Pos: l.pos, Line: l.line, Col: l.col}
		ch := l.peek()
		switch ch {
		case '"', '\'':
			if err := l.readString(start); err != nil {
				return err
			}
		case '<':
			iri, err := l.readIRI()
			if err != nil {
				return err
			}
			start.Type, start.Value = TokenIRI, iri
			l.tokens = append(l.tokens, start)
		case '?':
			l.advance()
			name := l.readName()
			if name == "" {
				return l.errorf("empty variable name")
			}
			start.Type, start.Value = TokenVar, "?"+name
			l.tokens = append(l.tokens, start)
		case '{', '}', '(', ')', ',', '=':
			l.advance()
			start.Type = punctuation[ch]
			l.tokens = append(l.tokens, start)
		case '.':
			l.advance()
			start.Type = TokenDot
			l.tokens = append(l.tokens, start)
		case '|':
			l.advance()
			if l.peek() != '|' {
				return l.errorf("expected '||'")
			}
			l.advance()
			start.Type = TokenOr
			l.tokens = append(l.tokens, start)
		default:
			atom := l.readAtom()
			if atom == "" {
				return l.errorf("unexpected character '%c'", ch)
			}
			start.Type, start.Value = TokenAtom, atom
			l.tokens = append(l.tokens, start)
		}
	}

	l.tokens = append(l.tokens, Token{Type: TokenEOF, Pos: l.pos, Line: l.line, Col: l.col})
	return nil
}

var punctuation = map[byte]TokenType{
	'{': TokenLeftBrace,
	'}': TokenRightBrace,
	'(': TokenLeftParen,
	')': TokenRightParen,
	',': TokenComma,
	'=': TokenEquals,
}

// NextToken returns the next token
func (l *Lexer) NextToken() Token {
	if l.current >= len(l.tokens) {
		return Token{Type: TokenEOF, Pos: l.pos, Line: l.line, Col: l.col}
	}
	token := l.tokens[l.current]
	l.current++
	return token
}

// PeekToken returns the next token without advancing
func (l *Lexer) PeekToken() Token {
	if l.current >= len(l.tokens) {
		return Token{Type: TokenEOF, Pos: l.pos, Line: l.line, Col: l.col}
	}
	return l.tokens[l.current]
}

func (l *Lexer) peek() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

func (l *Lexer) peekAt(offset int) byte {
	if l.pos+offset >= len(l.input) {
		return 0
	}
	return l.input[l.pos+offset]
}

func (l *Lexer) advance() {
	if l.pos < len(l.input) {
		if l.input[l.pos] == '\n' {
			l.line++
			l.col = 1
		} else {
			l.col++
		}
		l.pos++
	}
}

func (l *Lexer) errorf(format string, args ...interface{}) error {
	return &lexError{pos: l.pos, msg: fmt.Sprintf(format, args...) + fmt.Sprintf(" at %d:%d", l.line, l.col)}
}

type lexError struct {
	pos int
	msg string
}

func (e *lexError) Error() string { return e.msg }

// skipWhitespaceAndComments skips whitespace and # comments
func (l *Lexer) skipWhitespaceAndComments() {
	for l.pos < len(l.input) {
		ch := l.peek()
		if unicode.IsSpace(rune(ch)) {
			l.advance()
		} else if ch == '#' {
			for l.pos < len(l.input) && l.peek() != '\n' {
				l.advance()
			}
		} else {
			break
		}
	}
}

func (l *Lexer) readString(tok Token) error {
	quote := l.peek()
	l.advance()

	var result strings.Builder
	closed := false
	for l.pos < len(l.input) {
		ch := l.peek()
		if ch == quote {
			l.advance()
			closed = true
			break
		}
		if ch == '\\' {
			l.advance()
			if l.pos >= len(l.input) {
				break
			}
			switch esc := l.peek(); esc {
			case 't':
				result.WriteByte('\t')
			case 'r':
				result.WriteByte('\r')
			case 'n':
				result.WriteByte('\n')
			default:
				result.WriteByte(esc)
			}
			l.advance()
			continue
		}
		result.WriteByte(ch)
		l.advance()
	}
	if !closed {
		return l.errorf("unterminated string")
	}

	tok.Type, tok.Value = TokenString, result.String()
	switch {
	case l.peek() == '@':
		l.advance()
		tok.Lang = l.readName()
		if tok.Lang == "" {
			return l.errorf("empty language tag")
		}
	case l.peek() == '^' && l.peekAt(1) == '^':
		l.advance()
		l.advance()
		if l.peek() == '<' {
			iri, err := l.readIRI()
			if err != nil {
				return err
			}
			tok.Datatype = "<" + iri + ">"
		} else {
			tok.Datatype = l.readAtom()
		}
		if tok.Datatype == "" {
			return l.errorf("empty datatype")
		}
	}
	l.tokens = append(l.tokens, tok)
	return nil
}

func (l *Lexer) readIRI() (string, error) {
	l.advance() // skip <
	start := l.pos
	for l.pos < len(l.input) {
		ch := l.peek()
		if ch == '>' {
			iri := l.input[start:l.pos]
			l.advance()
			return iri, nil
		}
		if ch == ' ' || ch == '\n' || ch == '\t' || ch == '<' {
			break
		}
		l.advance()
	}
	return "", l.errorf("unterminated IRI")
}

// readName reads variable names and language tags
func (l *Lexer) readName() string {
	start := l.pos
	for l.pos < len(l.input) {
		ch := rune(l.peek())
		if unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_' || ch == '-' {
			l.advance()
			continue
		}
		break
	}
	return l.input[start:l.pos]
}

// readAtom reads keywords, prefixed names, numbers and wildcards.
// A trailing '.' ends the statement rather than the name.
func (l *Lexer) readAtom() string {
	start := l.pos
	for l.pos < len(l.input) {
		ch := l.peek()
		if unicode.IsSpace(rune(ch)) || strings.IndexByte("{}(),=|\"'<#", ch) >= 0 {
			break
		}
		if ch == '.' {
			next := l.peekAt(1)
			if next == 0 || unicode.IsSpace(rune(next)) || next == '}' || next == '#' {
				break
			}
		}
		l.advance()
	}
	return l.input[start:l.pos]
}
