package codec

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/knakk/rdf"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/wbrown/janus-ontology/ontology"
)

var (
	entityDecl  = regexp.MustCompile(`<!ENTITY\s+([^\s%]+)\s+(?:"([^"]*)"|'([^']*)')\s*>`)
	xmlDecl     = regexp.MustCompile(`^\s*<\?xml[^?]*\?>`)
	encodingAtt = regexp.MustCompile(`encoding\s*=\s*["']([^"']+)["']`)
)

func decodeRDFXML(data []byte, base string) ([]ontology.Triple, error) {
	data = trimBOM(data)
	blanks := newBlankLabels(data)
	body, err := prepareRDFXML(data, base)
	if err != nil {
		return nil, err
	}

	dec := rdf.NewTripleDecoder(bytes.NewReader(body), rdf.RDFXML)
	var out []ontology.Triple
	for n := 1; ; n++ {
		tr, err := dec.Decode()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, &ontology.ParseError{Format: string(FormatRDFXML), Msg: fmt.Sprintf("statement %d", n), Err: err}
		}
		t, err := fromRDF(tr, blanks)
		if err != nil {
			return nil, &ontology.ParseError{Format: string(FormatRDFXML), Msg: fmt.Sprintf("statement %d: %v", n, err)}
		}
		out = append(out, t)
	}
}

// prepareRDFXML returns the document from its root element on, in UTF-8,
// with DOCTYPE entities expanded and base declared on the root when the
// document names none
func prepareRDFXML(data []byte, base string) ([]byte, error) {
	if m := xmlDecl.Find(data); m != nil {
		if enc := encodingAtt.FindSubmatch(m); enc != nil && !strings.EqualFold(string(enc[1]), "utf-8") {
			e, err := htmlindex.Get(string(enc[1]))
			if err != nil {
				return nil, &ontology.ParseError{Format: string(FormatRDFXML), Line: 1, Msg: "unsupported encoding", Err: err}
			}
			if data, err = e.NewDecoder().Bytes(data); err != nil {
				return nil, &ontology.ParseError{Format: string(FormatRDFXML), Line: 1, Msg: "invalid " + string(enc[1]) + " text", Err: err}
			}
		}
		data = data[len(xmlDecl.Find(data)):]
	}

	dec := xml.NewDecoder(bytes.NewReader(data))
	entities := make(map[string]string)
	dec.Strict = false
	for {
		offset := dec.InputOffset()
		tok, err := dec.RawToken()
		if err == io.EOF {
			return nil, prologError(dec, "document has no root element")
		}
		if err != nil {
			var se *xml.SyntaxError
			if errors.As(err, &se) {
				return nil, &ontology.ParseError{Format: string(FormatRDFXML), Line: se.Line, Msg: se.Msg}
			}
			return nil, &ontology.ParseError{Format: string(FormatRDFXML), Msg: "malformed XML", Err: err}
		}
		switch t := tok.(type) {
		case xml.Directive:
			declareEntities(entities, t)
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return nil, prologError(dec, "text before root element")
			}
		case xml.StartElement:
			root := data[offset:]
			if base != "" && !hasBase(t) {
				root = withBase(root, stripFragment(base))
			}
			return expandEntities(root, entities), nil
		}
	}
}

func prologError(dec *xml.Decoder, msg string) error {
	line, col := dec.InputPos()
	return &ontology.ParseError{Format: string(FormatRDFXML), Line: line, Column: col, Msg: msg}
}

// declareEntities registers <!ENTITY> declarations from the DOCTYPE
func declareEntities(entities map[string]string, dir xml.Directive) {
	for _, m := range entityDecl.FindAllStringSubmatch(string(dir), -1) {
		value := m[2]
		if value == "" {
			value = m[3]
		}
		for name, v := range entities {
			value = strings.ReplaceAll(value, "&"+name+";", v)
		}
		entities[m[1]] = value
	}
}

func expandEntities(body []byte, entities map[string]string) []byte {
	if len(entities) == 0 {
		return body
	}
	pairs := make([]string, 0, 2*len(entities))
	for name, v := range entities {
		var esc bytes.Buffer
		_ = xml.EscapeText(&esc, []byte(v))
		pairs = append(pairs, "&"+name+";", esc.String())
	}
	return []byte(strings.NewReplacer(pairs...).Replace(string(body)))
}

// hasBase reports whether a raw start element carries xml:base
func hasBase(t xml.StartElement) bool {
	for _, a := range t.Attr {
		if a.Name.Space == "xml" && a.Name.Local == "base" {
			return true
		}
	}
	return false
}

// withBase inserts an xml:base attribute after the root element's name
func withBase(root []byte, base string) []byte {
	end := bytes.IndexAny(root, " \t\r\n/>")
	if end < 0 {
		return root
	}
	var attr bytes.Buffer
	attr.WriteString(` xml:base="`)
	_ = xml.EscapeText(&attr, []byte(base))
	attr.WriteByte('"')

	out := make([]byte, 0, len(root)+attr.Len())
	out = append(out, root[:end]...)
	out = append(out, attr.Bytes()...)
	return append(out, root[end:]...)
}

func fromRDF(tr rdf.Triple, blanks *blankLabels) (ontology.Triple, error) {
	var t ontology.Triple
	s, err := fromRDFTerm(tr.Subj, blanks)
	if err != nil {
		return t, err
	}
	if s.Kind() == ontology.KindLiteral {
		return t, fmt.Errorf("subject %v must be an IRI or blank node", tr.Subj)
	}
	p, ok := tr.Pred.(rdf.IRI)
	if !ok {
		return t, fmt.Errorf("predicate %v must be an IRI", tr.Pred)
	}
	o, err := fromRDFTerm(tr.Obj, blanks)
	if err != nil {
		return t, err
	}
	return ontology.Triple{Subject: s, Predicate: ontology.IRI(p.String()), Object: o}, nil
}

func fromRDFTerm(term rdf.Term, blanks *blankLabels) (ontology.Term, error) {
	switch v := term.(type) {
	case rdf.IRI:
		return ontology.IRI(v.String()), nil
	case rdf.Blank:
		return blanks.label(strings.TrimPrefix(v.String(), "_:")), nil
	case rdf.Literal:
		if v.Lang() != "" {
			return ontology.NewLangLiteral(v.String(), v.Lang()), nil
		}
		if dt := v.DataType.String(); dt != "" {
			return ontology.NewTypedLiteral(v.String(), ontology.IRI(dt)), nil
		}
		return ontology.NewLiteral(v.String()), nil
	}
	return nil, fmt.Errorf("unsupported term %v", term)
}

func stripFragment(iri string) string {
	if i := strings.IndexByte(iri, '#'); i >= 0 {
		return iri[:i]
	}
	return iri
}
