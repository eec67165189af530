package codec

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/cayleygraph/quad"
	"github.com/cayleygraph/quad/nquads"

	"github.com/wbrown/janus-ontology/ontology"
)

func decodeNQuads(data []byte, f Format) ([]ontology.Triple, error) {
	data = trimBOM(data)
	blanks := newBlankLabels(data)
	r := nquads.NewReader(bytes.NewReader(data), true)

	var out []ontology.Triple
	for n := 1; ; n++ {
		q, err := r.ReadQuad()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, &ontology.ParseError{Format: string(f), Msg: fmt.Sprintf("statement %d", n), Err: err}
		}
		t, err := fromQuad(q, blanks)
		if err != nil {
			return nil, &ontology.ParseError{Format: string(f), Msg: fmt.Sprintf("statement %d: %v", n, err)}
		}
		out = append(out, t)
	}
}

func fromQuad(q quad.Quad, blanks *blankLabels) (ontology.Triple, error) {
	var t ontology.Triple
	switch s := q.Subject.(type) {
	case quad.IRI:
		t.Subject = ontology.IRI(s)
	case quad.BNode:
		t.Subject = blanks.label(string(s))
	default:
		return t, fmt.Errorf("subject %v must be an IRI or blank node", q.Subject)
	}
	p, ok := q.Predicate.(quad.IRI)
	if !ok {
		return t, fmt.Errorf("predicate %v must be an IRI", q.Predicate)
	}
	t.Predicate = ontology.IRI(p)

	switch o := q.Object.(type) {
	case quad.IRI:
		t.Object = ontology.IRI(o)
	case quad.BNode:
		t.Object = blanks.label(string(o))
	case quad.String:
		t.Object = ontology.NewLiteral(string(o))
	case quad.LangString:
		t.Object = ontology.NewLangLiteral(string(o.Value), o.Lang)
	case quad.TypedString:
		t.Object = ontology.NewTypedLiteral(string(o.Value), ontology.IRI(o.Type))
	default:
		return t, fmt.Errorf("unsupported object %v", q.Object)
	}
	return t, nil
}

func encodeNQuads(w io.Writer, triples []ontology.Triple) error {
	var buf bytes.Buffer
	qw := nquads.NewWriter(&buf)
	for i := range triples {
		t := triples[i]
		q, err := toQuad(t)
		if err != nil {
			return &ontology.SerializationError{Format: string(FormatNTriples), Triple: &t, Msg: err.Error()}
		}
		if err := qw.WriteQuad(q); err != nil {
			return err
		}
	}
	if err := qw.Close(); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func toQuad(t ontology.Triple) (quad.Quad, error) {
	s, err := toValue(t.Subject)
	if err != nil {
		return quad.Quad{}, err
	}
	o, err := toValue(t.Object)
	if err != nil {
		return quad.Quad{}, err
	}
	p, err := toValue(t.Predicate)
	if err != nil {
		return quad.Quad{}, err
	}
	return quad.Quad{Subject: s, Predicate: p, Object: o}, nil
}

// iriUnsafe lists characters that cannot appear inside <...> in N-Triples
const iriUnsafe = "<>\"{}|^`\\ "

func toValue(term ontology.Term) (quad.Value, error) {
	switch v := term.(type) {
	case ontology.IRI:
		if strings.ContainsAny(string(v), iriUnsafe) || strings.ContainsFunc(string(v), isControl) {
			return nil, fmt.Errorf("IRI %q contains characters not allowed in N-Triples", string(v))
		}
		return quad.IRI(v), nil
	case ontology.Blank:
		return quad.BNode(v), nil
	case ontology.Literal:
		switch {
		case v.Lang != "":
			return quad.LangString{Value: quad.String(v.Text), Lang: v.Lang}, nil
		case v.Datatype != "":
			return quad.TypedString{Value: quad.String(v.Text), Type: quad.IRI(v.Datatype)}, nil
		}
		return quad.String(v.Text), nil
	}
	return nil, fmt.Errorf("unsupported term %v", term)
}

func isControl(r rune) bool {
	return r < 0x20
}
