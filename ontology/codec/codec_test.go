package codec

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wbrown/janus-ontology/ontology"
)

const zoo = "http://ex.org/zoo#"

func z(local string) ontology.IRI { return ontology.IRI(zoo + local) }

// doc wraps body in an rdf:RDF root declaring rdf, rdfs, owl and ex
func doc(attrs, body string) []byte {
	return []byte(`<?xml version="1.0"?>
<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
         xmlns:rdfs="http://www.w3.org/2000/01/rdf-schema#"
         xmlns:owl="http://www.w3.org/2002/07/owl#"
         xmlns:ex="http://ex.org/zoo#" ` + attrs + `>
` + body + `
</rdf:RDF>`)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"rdfxml", FormatRDFXML},
		{"OWL", FormatRDFXML},
		{" rdf/xml ", FormatRDFXML},
		{"nt", FormatNTriples},
		{"N-Quads", FormatNQuads},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
	_, err := ParseFormat("turtle")
	assert.Error(t, err)

	f, err := FormatFromPath("/tmp/pizza.OWL")
	require.NoError(t, err)
	assert.Equal(t, FormatRDFXML, f)
	f, err = FormatFromPath("dump.nq")
	require.NoError(t, err)
	assert.Equal(t, FormatNQuads, f)
	_, err = FormatFromPath("notes.txt")
	assert.Error(t, err)
}

func TestDecodeRDFXML(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want []ontology.Triple
	}{
		{
			name: "typed node with base",
			data: doc(`xml:base="http://ex.org/zoo"`, `
  <owl:Class rdf:about="#Dog">
    <rdfs:subClassOf rdf:resource="#Mammal"/>
    <rdfs:label xml:lang="EN">Dog</rdfs:label>
  </owl:Class>`),
			want: []ontology.Triple{
				ontology.NewTriple(z("Dog"), ontology.RDFType, ontology.OWLClass),
				ontology.NewTriple(z("Dog"), ontology.RDFSSubClassOf, z("Mammal")),
				ontology.NewTriple(z("Dog"), ontology.RDFSLabel, ontology.NewLangLiteral("Dog", "en")),
			},
		},
		{
			name: "rdf:ID",
			data: doc(`xml:base="http://ex.org/zoo"`, `
  <rdf:Description rdf:ID="rex">
    <rdf:type rdf:resource="http://ex.org/zoo#Dog"/>
  </rdf:Description>`),
			want: []ontology.Triple{
				ontology.NewTriple(z("rex"), ontology.RDFType, z("Dog")),
			},
		},
		{
			name: "typed and plain literals",
			data: doc("", `
  <rdf:Description rdf:about="http://ex.org/zoo#rex">
    <ex:age rdf:datatype="http://www.w3.org/2001/XMLSchema#integer">3</ex:age>
    <ex:name>Rex</ex:name>
  </rdf:Description>`),
			want: []ontology.Triple{
				ontology.NewTriple(z("rex"), z("age"), ontology.NewTypedLiteral("3", ontology.XSDNamespace+"integer")),
				ontology.NewTriple(z("rex"), z("name"), ontology.NewLiteral("Rex")),
			},
		},
		{
			name: "nested node element",
			data: doc("", `
  <rdf:Description rdf:about="http://ex.org/zoo#rex">
    <ex:owner>
      <ex:Person rdf:about="http://ex.org/zoo#alice"/>
    </ex:owner>
  </rdf:Description>`),
			want: []ontology.Triple{
				ontology.NewTriple(z("alice"), ontology.RDFType, z("Person")),
				ontology.NewTriple(z("rex"), z("owner"), z("alice")),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.data, FormatRDFXML, "")
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, got)
		})
	}
}

func TestDecodeRDFXMLBase(t *testing.T) {
	const base = "file:///srv/onto/zoo.owl"
	data := doc("", `
  <owl:Class rdf:ID="Dog"/>
  <owl:Class rdf:about="#Cat"/>`)

	got, err := Decode(data, FormatRDFXML, base)
	require.NoError(t, err)
	assert.ElementsMatch(t, []ontology.Triple{
		ontology.NewTriple(ontology.IRI(base+"#Dog"), ontology.RDFType, ontology.OWLClass),
		ontology.NewTriple(ontology.IRI(base+"#Cat"), ontology.RDFType, ontology.OWLClass),
	}, got)

	got, err = New().Decode(data, "rdfxml", base+"#ignored")
	require.NoError(t, err)
	assert.Contains(t, got, ontology.NewTriple(ontology.IRI(base+"#Dog"), ontology.RDFType, ontology.OWLClass),
		"the fragment of the load base is dropped")

	declared := doc(`xml:base="http://ex.org/zoo"`, `<owl:Class rdf:ID="Dog"/>`)
	got, err = Decode(declared, FormatRDFXML, base)
	require.NoError(t, err)
	assert.Equal(t, []ontology.Triple{ontology.NewTriple(z("Dog"), ontology.RDFType, ontology.OWLClass)}, got,
		"a declared xml:base wins over the load base")
}

func TestFileBase(t *testing.T) {
	got, err := FileBase("testdata/zoo.owl")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "file:///"), got)
	assert.True(t, strings.HasSuffix(got, "/testdata/zoo.owl"), got)

	got, err = FileBase("/srv/my onto/a.owl")
	require.NoError(t, err)
	assert.Equal(t, "file:///srv/my%20onto/a.owl", got)
}

func TestDecodeRDFXMLEntities(t *testing.T) {
	data := []byte(`<?xml version="1.0"?>
<!DOCTYPE rdf:RDF [
  <!ENTITY zoo "http://ex.org/zoo#">
  <!ENTITY owl "http://www.w3.org/2002/07/owl#">
]>
<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
         xmlns:rdfs="http://www.w3.org/2000/01/rdf-schema#">
  <rdf:Description rdf:about="&zoo;Cat">
    <rdf:type rdf:resource="&owl;Class"/>
    <rdfs:subClassOf rdf:resource="&zoo;Mammal"/>
  </rdf:Description>
</rdf:RDF>`)
	got, err := Decode(data, FormatRDFXML, "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []ontology.Triple{
		ontology.NewTriple(z("Cat"), ontology.RDFType, ontology.OWLClass),
		ontology.NewTriple(z("Cat"), ontology.RDFSSubClassOf, z("Mammal")),
	}, got)
}

func TestDecodeRDFXMLCharset(t *testing.T) {
	data := []byte("<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?>\n" + string(doc("", `
  <rdf:Description rdf:about="http://ex.org/zoo#rex">
    <rdfs:label>caf`+"\xe9"+`</rdfs:label>
  </rdf:Description>`)[len(`<?xml version="1.0"?>`):]))

	got, err := Decode(data, FormatRDFXML, "")
	require.NoError(t, err)
	assert.Equal(t, []ontology.Triple{
		ontology.NewTriple(z("rex"), ontology.RDFSLabel, ontology.NewLiteral("café")),
	}, got)
}

// objectOf returns the object of the first triple matching subject and predicate
func objectOf(triples []ontology.Triple, s ontology.Term, p ontology.IRI) ontology.Term {
	for _, t := range triples {
		if t.Subject == s && t.Predicate == p {
			return t.Object
		}
	}
	return nil
}

func TestDecodeRDFXMLBlankNodes(t *testing.T) {
	data := doc("", `
  <owl:Class rdf:about="http://ex.org/zoo#Pet">
    <owl:unionOf rdf:parseType="Collection">
      <rdf:Description rdf:about="http://ex.org/zoo#Dog"/>
      <rdf:Description rdf:about="http://ex.org/zoo#Cat"/>
    </owl:unionOf>
    <ex:keeper rdf:parseType="Resource">
      <rdfs:label>anyone</rdfs:label>
    </ex:keeper>
  </owl:Class>`)

	got, err := Decode(data, FormatRDFXML, "")
	require.NoError(t, err)
	require.Len(t, got, 8)
	assert.Contains(t, got, ontology.NewTriple(z("Pet"), ontology.RDFType, ontology.OWLClass))

	c1, ok := objectOf(got, z("Pet"), ontology.IRI(ontology.OWLNamespace+"unionOf")).(ontology.Blank)
	require.True(t, ok)
	c2, ok := objectOf(got, c1, ontology.RDFRest).(ontology.Blank)
	require.True(t, ok)
	assert.Equal(t, z("Dog"), objectOf(got, c1, ontology.RDFFirst))
	assert.Equal(t, z("Cat"), objectOf(got, c2, ontology.RDFFirst))
	assert.Equal(t, ontology.RDFNil, objectOf(got, c2, ontology.RDFRest))

	keeper, ok := objectOf(got, z("Pet"), z("keeper")).(ontology.Blank)
	require.True(t, ok)
	assert.NotEqual(t, c1, keeper)
	assert.Equal(t, ontology.NewLiteral("anyone"), objectOf(got, keeper, ontology.RDFSLabel))

	again, err := Decode(data, FormatRDFXML, "")
	require.NoError(t, err)
	assert.Equal(t, got, again, "the same document yields the same blank labels")

	other, err := Decode(append(data, '\n'), FormatRDFXML, "")
	require.NoError(t, err)
	assert.NotEqual(t, keeper, objectOf(other, z("Pet"), z("keeper")), "blank labels are scoped to the document")
}

func TestDecodeRDFXMLErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"only a declaration", []byte(`<?xml version="1.0"?>`)},
		{"text before root", []byte(`hello <rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"/>`)},
		{"unclosed", doc("", `<rdf:Description rdf:about="http://ex.org/zoo#a">`)},
		{"unknown encoding", []byte(`<?xml version="1.0" encoding="x-no-such"?><rdf:RDF/>`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.data, FormatRDFXML, "")
			var perr *ontology.ParseError
			require.True(t, errors.As(err, &perr), "got %v", err)
			assert.Equal(t, "rdfxml", perr.Format)
			assert.Nil(t, got, "nothing is returned from a failed document")
		})
	}
}

func TestEncodeRDFXMLRoundTrip(t *testing.T) {
	triples := []ontology.Triple{
		ontology.NewTriple(z("Dog"), ontology.RDFType, ontology.OWLClass),
		ontology.NewTriple(z("Dog"), ontology.RDFSLabel, ontology.NewLangLiteral("Dog", "en")),
		ontology.NewTriple(z("rex"), ontology.RDFType, z("Dog")),
		ontology.NewTriple(z("rex"), z("note"), ontology.NewLiteral(`likes <bones> & "sticks"`)),
		ontology.NewTriple(z("rex"), z("age"), ontology.NewTypedLiteral("3", ontology.XSDNamespace+"integer")),
		ontology.NewTriple(z("rex"), ontology.IRI("http://ex.org/other/owner"), z("alice")),
	}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, FormatRDFXML, triples))
	out := buf.String()
	assert.Contains(t, out, `xmlns:owl="http://www.w3.org/2002/07/owl#"`)
	assert.Contains(t, out, `<rdfs:label xml:lang="en">Dog</rdfs:label>`)
	assert.Equal(t, 2, strings.Count(out, "<rdf:Description "))

	got, err := Decode(buf.Bytes(), FormatRDFXML, "")
	require.NoError(t, err)
	assert.ElementsMatch(t, triples, got)
}

func TestEncodeRDFXMLBlankNodes(t *testing.T) {
	triples := []ontology.Triple{
		ontology.NewTriple(z("Pet"), z("keeper"), ontology.Blank("b1234-7")),
		ontology.NewTriple(ontology.Blank("b1234-7"), ontology.RDFSLabel, ontology.NewLiteral("anyone")),
	}
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, FormatRDFXML, triples))
	assert.Contains(t, buf.String(), `rdf:nodeID="n0"`)

	got, err := Decode(buf.Bytes(), FormatRDFXML, "")
	require.NoError(t, err)
	require.Len(t, got, 2)
	keeper := objectOf(got, z("Pet"), z("keeper"))
	require.NotNil(t, keeper)
	assert.Equal(t, ontology.KindBlank, keeper.Kind())
	assert.Equal(t, ontology.NewLiteral("anyone"), objectOf(got, keeper, ontology.RDFSLabel))
}

func TestEncodeRDFXMLErrors(t *testing.T) {
	tests := []struct {
		name   string
		triple ontology.Triple
	}{
		{"no local name", ontology.NewTriple(z("a"), ontology.IRI("http://ex.org/p/"), z("b"))},
		{"local name starts with digit", ontology.NewTriple(z("a"), ontology.IRI("http://ex.org/123"), z("b"))},
		{"control character", ontology.NewTriple(z("a"), z("p"), ontology.NewLiteral("bell\x07"))},
		{"literal subject", ontology.Triple{Subject: ontology.NewLiteral("x"), Predicate: z("p"), Object: z("b")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := Encode(&buf, FormatRDFXML, []ontology.Triple{tt.triple})
			var serr *ontology.SerializationError
			require.True(t, errors.As(err, &serr), "got %v", err)
			assert.Zero(t, buf.Len(), "nothing is written on failure")
		})
	}
}

func TestNTriples(t *testing.T) {
	data := []byte(`<http://ex.org/zoo#rex> <http://www.w3.org/2000/01/rdf-schema#label> "Rex"@en .
<http://ex.org/zoo#rex> <http://ex.org/zoo#age> "3"^^<http://www.w3.org/2001/XMLSchema#integer> .
_:k <http://ex.org/zoo#keeps> <http://ex.org/zoo#rex> .
_:k <http://www.w3.org/2000/01/rdf-schema#label> "keeper" .
`)
	got, err := Decode(data, FormatNTriples, "")
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, ontology.NewTriple(z("rex"), ontology.RDFSLabel, ontology.NewLangLiteral("Rex", "en")), got[0])
	assert.Equal(t, ontology.NewTriple(z("rex"), z("age"), ontology.NewTypedLiteral("3", ontology.XSDNamespace+"integer")), got[1])
	assert.Equal(t, ontology.KindBlank, got[2].Subject.Kind())
	assert.Equal(t, got[2].Subject, got[3].Subject)
	assert.Equal(t, ontology.NewLiteral("keeper"), got[3].Object)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, FormatNTriples, got))
	assert.Contains(t, buf.String(), `"Rex"@en`)

	back, err := Decode(buf.Bytes(), FormatNTriples, "")
	require.NoError(t, err)
	assert.Equal(t, got[:2], back[:2])
	assert.Equal(t, back[2].Subject, back[3].Subject)
}

func TestNQuadsDropsGraph(t *testing.T) {
	data := []byte(`<http://ex.org/zoo#a> <http://ex.org/zoo#p> <http://ex.org/zoo#b> <http://ex.org/graph> .
<http://ex.org/zoo#a> <http://ex.org/zoo#p> "x" .
`)
	got, err := Decode(data, FormatNQuads, "")
	require.NoError(t, err)
	assert.Equal(t, []ontology.Triple{
		ontology.NewTriple(z("a"), z("p"), z("b")),
		ontology.NewTriple(z("a"), z("p"), ontology.NewLiteral("x")),
	}, got)
}

func TestNTriplesErrors(t *testing.T) {
	_, err := Decode([]byte("this is not a triple .\n"), FormatNTriples, "")
	var perr *ontology.ParseError
	require.True(t, errors.As(err, &perr), "got %v", err)
	assert.Equal(t, "ntriples", perr.Format)

	var buf bytes.Buffer
	err = Encode(&buf, FormatNTriples, []ontology.Triple{
		ontology.NewTriple(ontology.IRI("http://ex.org/a b"), z("p"), z("o")),
	})
	var serr *ontology.SerializationError
	require.True(t, errors.As(err, &serr), "got %v", err)
	assert.Zero(t, buf.Len())
}

func TestCodecByName(t *testing.T) {
	c := New()
	_, err := c.Decode([]byte("x"), "turtle", "")
	var perr *ontology.ParseError
	require.True(t, errors.As(err, &perr))

	err = c.Encode(&bytes.Buffer{}, "turtle", nil)
	var serr *ontology.SerializationError
	require.True(t, errors.As(err, &serr))

	got, err := c.Decode([]byte("<http://ex.org/zoo#a> <http://ex.org/zoo#p> <http://ex.org/zoo#b> .\n"), "nt", "")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
