// Package codec reads and writes serialized ontologies: RDF/XML,
// N-Triples and N-Quads.
package codec

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/wbrown/janus-ontology/ontology"
)

// Format specifies a serialization format.
type Format string

const (
	// FormatRDFXML is RDF/XML (.owl, .rdf, .xml).
	FormatRDFXML Format = "rdfxml"

	// FormatNTriples is N-Triples (.nt).
	FormatNTriples Format = "ntriples"

	// FormatNQuads is N-Quads (.nq). Graph labels are dropped on read.
	FormatNQuads Format = "nquads"
)

// Info describes a supported format
type Info struct {
	Format     Format
	Extensions []string
	MIMEType   string
	Aliases    []string
}

var formats = []Info{
	{Format: FormatRDFXML, Extensions: []string{".owl", ".rdf", ".xml"}, MIMEType: "application/rdf+xml", Aliases: []string{"xml", "rdf/xml", "rdf", "owl"}},
	{Format: FormatNTriples, Extensions: []string{".nt"}, MIMEType: "application/n-triples", Aliases: []string{"nt", "n-triples"}},
	{Format: FormatNQuads, Extensions: []string{".nq"}, MIMEType: "application/n-quads", Aliases: []string{"nq", "n-quads"}},
}

// Formats lists the supported formats
func Formats() []Info {
	out := make([]Info, len(formats))
	copy(out, formats)
	return out
}

// ParseFormat resolves a format name or alias, case-insensitively
func ParseFormat(name string) (Format, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, info := range formats {
		if n == string(info.Format) {
			return info.Format, nil
		}
		for _, a := range info.Aliases {
			if n == a {
				return info.Format, nil
			}
		}
	}
	return "", fmt.Errorf("unsupported format: %q", name)
}

// FormatFromPath picks a format from a file extension
func FormatFromPath(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	for _, info := range formats {
		for _, e := range info.Extensions {
			if ext == e {
				return info.Format, nil
			}
		}
	}
	return "", fmt.Errorf("no format registered for extension %q", ext)
}

// FileBase returns the file:// IRI of path, the base for documents read
// from disk
func FileBase(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), nil
}

// Decode parses a document. Relative IRIs resolve against base when the
// document does not declare its own. Errors are *ontology.ParseError.
func Decode(data []byte, f Format, base string) ([]ontology.Triple, error) {
	switch f {
	case FormatRDFXML:
		return decodeRDFXML(data, base)
	case FormatNTriples, FormatNQuads:
		return decodeNQuads(data, f)
	default:
		return nil, &ontology.ParseError{Format: string(f), Msg: "unsupported format"}
	}
}

// Encode writes triples. Errors are *ontology.SerializationError or write errors.
func Encode(w io.Writer, f Format, triples []ontology.Triple) error {
	switch f {
	case FormatRDFXML:
		return encodeRDFXML(w, triples)
	case FormatNTriples, FormatNQuads:
		return encodeNQuads(w, triples)
	default:
		return &ontology.SerializationError{Format: string(f), Msg: "unsupported format"}
	}
}

// Codec adapts the package functions to the fact store's codec interface,
// which names formats by string
type Codec struct{}

// New creates a codec
func New() *Codec {
	return &Codec{}
}

// Decode parses data in the named format, resolving relative IRIs against
// base when the document declares none
func (c *Codec) Decode(data []byte, format, base string) ([]ontology.Triple, error) {
	f, err := ParseFormat(format)
	if err != nil {
		return nil, &ontology.ParseError{Format: format, Msg: err.Error()}
	}
	return Decode(data, f, base)
}

// Encode writes triples in the named format
func (c *Codec) Encode(w io.Writer, format string, triples []ontology.Triple) error {
	f, err := ParseFormat(format)
	if err != nil {
		return &ontology.SerializationError{Format: format, Msg: err.Error()}
	}
	return Encode(w, f, triples)
}

// documentScope derives a blank node prefix from the document bytes, so
// blank nodes from different documents stay distinct while loading the
// same document twice yields the same labels
func documentScope(data []byte) string {
	sum := sha1.Sum(data)
	return "b" + hex.EncodeToString(sum[:4])
}

// blankLabels allocates document-scoped blank node labels
type blankLabels struct {
	scope string
	next  int
	named map[string]ontology.Blank
}

func newBlankLabels(data []byte) *blankLabels {
	return &blankLabels{scope: documentScope(data), named: make(map[string]ontology.Blank)}
}

// fresh returns a new anonymous node
func (b *blankLabels) fresh() ontology.Blank {
	b.next++
	return ontology.Blank(fmt.Sprintf("%s-%d", b.scope, b.next))
}

// label returns the node for a document-local label
func (b *blankLabels) label(id string) ontology.Blank {
	if n, ok := b.named[id]; ok {
		return n
	}
	n := ontology.Blank(b.scope + "_" + id)
	b.named[id] = n
	return n
}

func trimBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
}
