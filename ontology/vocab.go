package ontology

// Namespaces
const (
	RDFNamespace  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	RDFSNamespace = "http://www.w3.org/2000/01/rdf-schema#"
	OWLNamespace  = "http://www.w3.org/2002/07/owl#"
	XSDNamespace  = "http://www.w3.org/2001/XMLSchema#"
	XMLNamespace  = "http://www.w3.org/XML/1998/namespace"
)

// RDF
const (
	RDFType       IRI = RDFNamespace + "type"
	RDFFirst      IRI = RDFNamespace + "first"
	RDFRest       IRI = RDFNamespace + "rest"
	RDFNil        IRI = RDFNamespace + "nil"
	RDFXMLLiteral IRI = RDFNamespace + "XMLLiteral"
	RDFLangString IRI = RDFNamespace + "langString"
)

// RDFS
const (
	RDFSClass      IRI = RDFSNamespace + "Class"
	RDFSSubClassOf IRI = RDFSNamespace + "subClassOf"
	RDFSLabel      IRI = RDFSNamespace + "label"
	RDFSComment    IRI = RDFSNamespace + "comment"
	RDFSDomain     IRI = RDFSNamespace + "domain"
	RDFSRange      IRI = RDFSNamespace + "range"
)

// OWL
const (
	OWLClass            IRI = OWLNamespace + "Class"
	OWLObjectProperty   IRI = OWLNamespace + "ObjectProperty"
	OWLDatatypeProperty IRI = OWLNamespace + "DatatypeProperty"
	OWLOntology         IRI = OWLNamespace + "Ontology"
	OWLThing            IRI = OWLNamespace + "Thing"
	OWLNamedIndividual  IRI = OWLNamespace + "NamedIndividual"
)

// XSD
const (
	XSDString IRI = XSDNamespace + "string"
)

// WellKnownPrefixes maps the conventional prefixes to their namespaces.
// Callers must not modify it.
var WellKnownPrefixes = map[string]string{
	"rdf":  RDFNamespace,
	"rdfs": RDFSNamespace,
	"owl":  OWLNamespace,
	"xsd":  XSDNamespace,
}
