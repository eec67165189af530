package query

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/wbrown/janus-ontology/ontology"
)

// Parser turns the text syntax into a Group:
//
//	?c rdf:type owl:Class .
//	OPTIONAL { ?c rdfs:label ?label FILTER lang(?label) in ("en", "") }
//	{ ?p rdfs:domain ?c } UNION { ?p rdfs:range ?c }
//
// Prefixed names resolve through the parser's prefix table, which always
// contains rdf, rdfs, owl and xsd. The keyword "a" stands for rdf:type.
type Parser struct {
	input    string
	lexer    *Lexer
	prefixes map[string]string
}

// NewParser creates a parser. Extra prefixes override the well-known ones.
func NewParser(input string, prefixes map[string]string) *Parser {
	all := make(map[string]string, len(ontology.WellKnownPrefixes)+len(prefixes))
	for k, v := range ontology.WellKnownPrefixes {
		all[k] = v
	}
	for k, v := range prefixes {
		all[k] = v
	}
	return &Parser{input: input, lexer: NewLexer(input), prefixes: all}
}

// Parse parses query text. Errors are *ontology.QueryError.
func Parse(input string, prefixes map[string]string) (*Group, error) {
	return NewParser(input, prefixes).Parse()
}

// Parse lexes and parses the whole input, then validates the result
func (p *Parser) Parse() (*Group, error) {
	if err := p.lexer.Lex(); err != nil {
		var le *lexError
		if errors.As(err, &le) {
			return nil, &ontology.QueryError{Query: p.input, Pos: le.pos, Msg: le.msg}
		}
		return nil, &ontology.QueryError{Query: p.input, Msg: err.Error()}
	}
	g, err := p.parseGroupBody(TokenEOF)
	if err != nil {
		return nil, err
	}
	if len(g.Elements) == 0 {
		return nil, p.errorAt(p.lexer.PeekToken(), "query has no patterns")
	}
	if err := Validate(g); err != nil {
		var qe *ontology.QueryError
		if errors.As(err, &qe) {
			qe.Query = p.input
		}
		return nil, err
	}
	return g, nil
}

func (p *Parser) parseGroupBody(closing TokenType) (*Group, error) {
	g := &Group{}
	for {
		tok := p.lexer.PeekToken()
		switch {
		case tok.Type == closing:
			p.lexer.NextToken()
			return g, nil
		case tok.Type == TokenEOF:
			return nil, p.errorAt(tok, "unterminated group, expected '}'")
		case tok.Type == TokenDot:
			p.lexer.NextToken()
		case tok.Type == TokenLeftBrace:
			p.lexer.NextToken()
			first, err := p.parseGroupBody(TokenRightBrace)
			if err != nil {
				return nil, err
			}
			alts := []*Group{first}
			for isKeyword(p.lexer.PeekToken(), "UNION") {
				p.lexer.NextToken()
				if err := p.expect(TokenLeftBrace); err != nil {
					return nil, err
				}
				alt, err := p.parseGroupBody(TokenRightBrace)
				if err != nil {
					return nil, err
				}
				alts = append(alts, alt)
			}
			if len(alts) == 1 {
				g.Elements = append(g.Elements, first)
			} else {
				g.Elements = append(g.Elements, &Union{Alternatives: alts})
			}
		case isKeyword(tok, "OPTIONAL"):
			p.lexer.NextToken()
			if err := p.expect(TokenLeftBrace); err != nil {
				return nil, err
			}
			inner, err := p.parseGroupBody(TokenRightBrace)
			if err != nil {
				return nil, err
			}
			g.Elements = append(g.Elements, &Optional{Group: inner})
		case isKeyword(tok, "FILTER"):
			p.lexer.NextToken()
			f, err := p.parseFilter()
			if err != nil {
				return nil, err
			}
			g.Filters = append(g.Filters, f)
		default:
			pat, err := p.parsePattern()
			if err != nil {
				return nil, err
			}
			g.Elements = append(g.Elements, pat)
		}
	}
}

func (p *Parser) parsePattern() (*Pattern, error) {
	var elems [3]PatternElement
	for i := range elems {
		e, err := p.parseElement()
		if err != nil {
			return nil, err
		}
		elems[i] = e
	}
	return T(elems[0], elems[1], elems[2]), nil
}

func (p *Parser) parseElement() (PatternElement, error) {
	tok := p.lexer.NextToken()
	switch tok.Type {
	case TokenVar:
		return Variable{Name: Symbol(tok.Value)}, nil
	case TokenIRI:
		return C(ontology.IRI(tok.Value)), nil
	case TokenString:
		lit, err := p.literal(tok)
		if err != nil {
			return nil, err
		}
		return C(lit), nil
	case TokenAtom:
		switch {
		case tok.Value == "a":
			return C(ontology.RDFType), nil
		case tok.Value == "_":
			return Any(), nil
		case strings.HasPrefix(tok.Value, "_:"):
			return C(ontology.Blank(tok.Value[2:])), nil
		case strings.Contains(tok.Value, ":"):
			iri, err := p.expand(tok, tok.Value)
			if err != nil {
				return nil, err
			}
			return C(iri), nil
		}
		if _, err := strconv.ParseInt(tok.Value, 10, 64); err == nil {
			return C(ontology.NewTypedLiteral(tok.Value, ontology.XSDNamespace+"integer")), nil
		}
		return nil, p.errorAt(tok, fmt.Sprintf("unexpected %q in pattern", tok.Value))
	}
	return nil, p.errorAt(tok, fmt.Sprintf("unexpected %s in pattern", tok))
}

func (p *Parser) literal(tok Token) (ontology.Literal, error) {
	switch {
	case tok.Lang != "":
		return ontology.NewLangLiteral(tok.Value, tok.Lang), nil
	case tok.Datatype != "":
		if strings.HasPrefix(tok.Datatype, "<") {
			return ontology.NewTypedLiteral(tok.Value, ontology.IRI(strings.Trim(tok.Datatype, "<>"))), nil
		}
		dt, err := p.expand(tok, tok.Datatype)
		if err != nil {
			return ontology.Literal{}, err
		}
		return ontology.NewTypedLiteral(tok.Value, dt), nil
	}
	return ontology.NewLiteral(tok.Value), nil
}

func (p *Parser) expand(tok Token, pname string) (ontology.IRI, error) {
	prefix, local, _ := strings.Cut(pname, ":")
	ns, ok := p.prefixes[prefix]
	if !ok {
		return "", p.errorAt(tok, fmt.Sprintf("unknown prefix %q", prefix))
	}
	return ontology.IRI(ns + local), nil
}

// parseFilter accepts
//
//	lang(?v) in ("en", "")
//	(lang(?v) = 'en' || lang(?v) = '')
func (p *Parser) parseFilter() (Filter, error) {
	wrapped := false
	if p.lexer.PeekToken().Type == TokenLeftParen {
		p.lexer.NextToken()
		wrapped = true
	}

	v, err := p.parseLangCall()
	if err != nil {
		return nil, err
	}
	var langs []string

	tok := p.lexer.NextToken()
	switch {
	case isKeyword(tok, "IN"):
		if err := p.expect(TokenLeftParen); err != nil {
			return nil, err
		}
		for {
			t := p.lexer.NextToken()
			switch t.Type {
			case TokenString, TokenAtom:
				langs = append(langs, t.Value)
			default:
				return nil, p.errorAt(t, "expected language tag")
			}
			next := p.lexer.NextToken()
			if next.Type == TokenRightParen {
				break
			}
			if next.Type != TokenComma {
				return nil, p.errorAt(next, "expected ',' or ')'")
			}
		}
	case tok.Type == TokenEquals:
		for {
			t := p.lexer.NextToken()
			if t.Type != TokenString {
				return nil, p.errorAt(t, "expected quoted language tag")
			}
			langs = append(langs, t.Value)
			if p.lexer.PeekToken().Type != TokenOr {
				break
			}
			p.lexer.NextToken()
			other, err := p.parseLangCall()
			if err != nil {
				return nil, err
			}
			if other != v {
				return nil, p.errorAt(tok, fmt.Sprintf("filter mixes %s and %s", v, other))
			}
			if err := p.expect(TokenEquals); err != nil {
				return nil, err
			}
		}
	default:
		return nil, p.errorAt(tok, "expected 'in' or '=' after lang()")
	}

	if wrapped {
		if err := p.expect(TokenRightParen); err != nil {
			return nil, err
		}
	}
	return Lang(string(v), langs...), nil
}

func (p *Parser) parseLangCall() (Symbol, error) {
	tok := p.lexer.NextToken()
	if !isKeyword(tok, "LANG") {
		return "", p.errorAt(tok, "only lang() filters are supported")
	}
	if err := p.expect(TokenLeftParen); err != nil {
		return "", err
	}
	v := p.lexer.NextToken()
	if v.Type != TokenVar {
		return "", p.errorAt(v, "lang() takes a variable")
	}
	if err := p.expect(TokenRightParen); err != nil {
		return "", err
	}
	return Symbol(v.Value), nil
}

func (p *Parser) expect(tt TokenType) error {
	tok := p.lexer.NextToken()
	if tok.Type != tt {
		return p.errorAt(tok, fmt.Sprintf("expected %s, got %s", tokenNames[tt], tok))
	}
	return nil
}

func (p *Parser) errorAt(tok Token, msg string) error {
	return &ontology.QueryError{
		Query: p.input,
		Pos:   tok.Pos,
		Msg:   fmt.Sprintf("%s at %d:%d", msg, tok.Line, tok.Col),
	}
}

func isKeyword(tok Token, kw string) bool {
	return tok.Type == TokenAtom && strings.EqualFold(tok.Value, kw)
}
