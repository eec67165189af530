package codec

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"unicode"
	"unicode/utf8"

	"github.com/wbrown/janus-ontology/ontology"
)

var knownPrefixes = map[string]string{
	ontology.RDFNamespace:                  "rdf",
	ontology.RDFSNamespace:                 "rdfs",
	ontology.OWLNamespace:                  "owl",
	ontology.XSDNamespace:                  "xsd",
	"http://purl.org/dc/elements/1.1/":     "dc",
	"http://purl.org/dc/terms/":            "dcterms",
	"http://www.w3.org/2004/02/skos/core#": "skos",
	"http://xmlns.com/foaf/0.1/":           "foaf",
	"http://www.w3.org/ns/prov#":           "prov",
}

// namespaces assigns prefixes in first-seen order, rdf first
type namespaces struct {
	order    []string
	prefixes map[string]string
	used     map[string]bool
}

func newNamespaces() *namespaces {
	ns := &namespaces{prefixes: make(map[string]string), used: make(map[string]bool)}
	ns.prefix(ontology.RDFNamespace)
	return ns
}

func (n *namespaces) prefix(uri string) string {
	if p, ok := n.prefixes[uri]; ok {
		return p
	}
	p, ok := knownPrefixes[uri]
	if !ok || n.used[p] {
		for i := len(n.order); ; i++ {
			p = fmt.Sprintf("ns%d", i)
			if !n.used[p] {
				break
			}
		}
	}
	n.prefixes[uri] = p
	n.used[p] = true
	n.order = append(n.order, uri)
	return p
}

type qname struct {
	prefix string
	local  string
}

func encodeRDFXML(w io.Writer, triples []ontology.Triple) error {
	ns := newNamespaces()
	names := make([]qname, len(triples))
	for i := range triples {
		t := triples[i]
		if err := checkXMLTriple(t); err != nil {
			return err
		}
		uri, local, ok := splitIRI(string(t.Predicate))
		if !ok {
			return &ontology.SerializationError{
				Format: string(FormatRDFXML),
				Triple: &t,
				Msg:    "predicate has no valid XML local name",
			}
		}
		names[i] = qname{prefix: ns.prefix(uri), local: local}
	}

	// the store's blank labels are not guaranteed to be NCNames
	blanks := make(map[ontology.Blank]string)
	nodeID := func(b ontology.Blank) string {
		id, ok := blanks[b]
		if !ok {
			id = fmt.Sprintf("n%d", len(blanks))
			blanks[b] = id
		}
		return id
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.WriteString("<rdf:RDF")
	for _, uri := range ns.order {
		fmt.Fprintf(&buf, "\n    xmlns:%s=\"", ns.prefixes[uri])
		escape(&buf, uri)
		buf.WriteByte('"')
	}
	buf.WriteString(">\n")

	var current ontology.Term
	for i, t := range triples {
		if t.Subject != current {
			if current != nil {
				buf.WriteString("  </rdf:Description>\n")
			}
			current = t.Subject
			buf.WriteString("  <rdf:Description ")
			switch s := t.Subject.(type) {
			case ontology.IRI:
				buf.WriteString(`rdf:about="`)
				escape(&buf, string(s))
			case ontology.Blank:
				buf.WriteString(`rdf:nodeID="`)
				buf.WriteString(nodeID(s))
			}
			buf.WriteString("\">\n")
		}

		name := names[i].prefix + ":" + names[i].local
		buf.WriteString("    <")
		buf.WriteString(name)
		switch o := t.Object.(type) {
		case ontology.IRI:
			buf.WriteString(` rdf:resource="`)
			escape(&buf, string(o))
			buf.WriteString("\"/>\n")
			continue
		case ontology.Blank:
			buf.WriteString(` rdf:nodeID="`)
			buf.WriteString(nodeID(o))
			buf.WriteString("\"/>\n")
			continue
		case ontology.Literal:
			switch {
			case o.Lang != "":
				buf.WriteString(` xml:lang="`)
				escape(&buf, o.Lang)
				buf.WriteByte('"')
			case o.Datatype != "":
				buf.WriteString(` rdf:datatype="`)
				escape(&buf, string(o.Datatype))
				buf.WriteByte('"')
			}
			buf.WriteByte('>')
			escape(&buf, o.Text)
			buf.WriteString("</")
			buf.WriteString(name)
			buf.WriteString(">\n")
		}
	}
	if current != nil {
		buf.WriteString("  </rdf:Description>\n")
	}
	buf.WriteString("</rdf:RDF>\n")

	_, err := w.Write(buf.Bytes())
	return err
}

func escape(buf *bytes.Buffer, s string) {
	// EscapeText only fails on write errors; bytes.Buffer never returns one
	_ = xml.EscapeText(buf, []byte(s))
}

// checkXMLTriple rejects terms that cannot appear in an XML document
func checkXMLTriple(t ontology.Triple) error {
	fail := func(msg string) error {
		return &ontology.SerializationError{Format: string(FormatRDFXML), Triple: &t, Msg: msg}
	}
	switch t.Subject.(type) {
	case ontology.IRI, ontology.Blank:
	default:
		return fail("subject must be an IRI or blank node")
	}
	for _, term := range []ontology.Term{t.Subject, t.Predicate, t.Object} {
		if term == nil {
			return fail("missing term")
		}
		if !validXMLString(term.Value()) {
			return fail(fmt.Sprintf("%q contains characters not allowed in XML", term.Value()))
		}
		if lit, ok := term.(ontology.Literal); ok && !validXMLString(lit.Lang+string(lit.Datatype)) {
			return fail("literal tag contains characters not allowed in XML")
		}
	}
	return nil
}

func validXMLString(s string) bool {
	if !utf8.ValidString(s) {
		return false
	}
	for _, r := range s {
		if !validXMLChar(r) {
			return false
		}
	}
	return true
}

func validXMLChar(r rune) bool {
	return r == 0x09 || r == 0x0A || r == 0x0D ||
		(r >= 0x20 && r <= 0xD7FF) ||
		(r >= 0xE000 && r <= 0xFFFD) ||
		(r >= 0x10000 && r <= 0x10FFFF)
}

// splitIRI splits an IRI into a namespace and the longest NCName suffix
func splitIRI(iri string) (string, string, bool) {
	i := len(iri)
	for i > 0 {
		r, size := utf8.DecodeLastRuneInString(iri[:i])
		if !isNCNameChar(r) {
			break
		}
		i -= size
	}
	for i < len(iri) {
		r, size := utf8.DecodeRuneInString(iri[i:])
		if isNCNameStart(r) {
			break
		}
		i += size
	}
	if i == 0 || i >= len(iri) {
		return "", "", false
	}
	return iri[:i], iri[i:], true
}

func isNCNameStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isNCNameChar(r rune) bool {
	return isNCNameStart(r) || unicode.IsDigit(r) || r == '-' || r == '.' || unicode.Is(unicode.Mn, r)
}
