package session

import (
	"github.com/wbrown/janus-ontology/ontology"
	"github.com/wbrown/janus-ontology/ontology/editor"
	"github.com/wbrown/janus-ontology/ontology/executor"
	"github.com/wbrown/janus-ontology/ontology/reasoner"
	"github.com/wbrown/janus-ontology/ontology/search"
)

// Kind identifies a command
type Kind string

const (
	KindLoad           Kind = "load"
	KindSave           Kind = "save"
	KindSelectClass    Kind = "select-class"
	KindSelectProperty Kind = "select-property"
	KindSelectInstance Kind = "select-instance"
	KindOpen           Kind = "open"
	KindSearch         Kind = "search"
	KindReason         Kind = "reason"
	KindAddInstance    Kind = "add-instance"
	KindAddTriple      Kind = "add-triple"
	KindQuery          Kind = "query"
	KindSuggest        Kind = "suggest"
)

// Kinds lists every command kind
func Kinds() []Kind {
	return []Kind{
		KindLoad, KindSave, KindSelectClass, KindSelectProperty, KindSelectInstance, KindOpen,
		KindSearch, KindReason, KindAddInstance, KindAddTriple, KindQuery, KindSuggest,
	}
}

// Command is one user action. The set of implementations is closed.
type Command interface {
	Kind() Kind
	command()
}

// Load merges a serialized document into the store
type Load struct {
	Data   []byte
	Format string
	Source string // display name, e.g. the file name
	Base   string // IRI of the document's location, e.g. a file:// URL
}

// Save serializes the whole store
type Save struct {
	Format string
}

// SelectClass shows a class by short name
type SelectClass struct{ Name string }

// SelectProperty shows an object property by short name
type SelectProperty struct{ Name string }

// SelectInstance shows an instance by short name
type SelectInstance struct{ Name string }

// Open shows whatever entity a full identifier names
type Open struct{ ID ontology.IRI }

// Search looks up short names containing Text
type Search struct{ Text string }

// Reason runs subclass inference to a fixed point
type Reason struct{}

// AddInstance creates an instance of a class. Class may be a short name or
// a full identifier. A short Instance name is placed in the class's
// namespace; an empty one is minted when Mint is set.
type AddInstance struct {
	Class    string
	Instance string
	Label    string
	Lang     string
	Mint     bool
}

// AddTriple adds an arbitrary fact
type AddTriple struct {
	editor.TripleRequest
}

// Query runs a text pattern query
type Query struct{ Text string }

// SuggestMode selects what Suggest proposes
type SuggestMode string

const (
	SuggestPredicates SuggestMode = "predicates" // properties whose domain is the class
	SuggestProperties SuggestMode = "properties" // properties whose domain or range is the class
	SuggestClasses    SuggestMode = "classes"    // domain and range classes of the property
)

// Suggest proposes wizard values for a class or property short name
type Suggest struct {
	Mode SuggestMode
	Name string
}

func (Load) Kind() Kind           { return KindLoad }
func (Save) Kind() Kind           { return KindSave }
func (SelectClass) Kind() Kind    { return KindSelectClass }
func (SelectProperty) Kind() Kind { return KindSelectProperty }
func (SelectInstance) Kind() Kind { return KindSelectInstance }
func (Open) Kind() Kind           { return KindOpen }
func (Search) Kind() Kind         { return KindSearch }
func (Reason) Kind() Kind         { return KindReason }
func (AddInstance) Kind() Kind    { return KindAddInstance }
func (AddTriple) Kind() Kind      { return KindAddTriple }
func (Query) Kind() Kind          { return KindQuery }
func (Suggest) Kind() Kind        { return KindSuggest }

func (Load) command()           {}
func (Save) command()           {}
func (SelectClass) command()    {}
func (SelectProperty) command() {}
func (SelectInstance) command() {}
func (Open) command()           {}
func (Search) command()         {}
func (Reason) command()         {}
func (AddInstance) command()    {}
func (AddTriple) command()      {}
func (Query) command()          {}
func (Suggest) command()        {}

// Diagnostic reports a derived view that could not be rebuilt
type Diagnostic struct {
	View string
	Err  error
}

func (d Diagnostic) String() string {
	return d.View + ": " + d.Err.Error()
}

// Response carries whatever the command produced. Fields irrelevant to the
// command are left zero. Refreshed is set when the command changed the
// store and the views were rebuilt.
type Response struct {
	Kind        Kind
	Added       int
	Data        []byte
	Detail      *Detail
	Results     *search.Results
	Report      *reasoner.Report
	Rows        *executor.Rows
	Suggestions []ontology.IRI
	Triple      *ontology.Triple
	Instance    ontology.IRI
	Refreshed   bool
	Diagnostics []Diagnostic
}
