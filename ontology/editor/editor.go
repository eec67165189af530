// Package editor applies validated user mutations to the fact store.
package editor

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/wbrown/janus-ontology/ontology"
	"github.com/wbrown/janus-ontology/ontology/annotations"
)

// InstanceRequest asks for a new instance of a class with a label
type InstanceRequest struct {
	Class    string `json:"class" validate:"required,iri"`
	Instance string `json:"instance" validate:"required,iri"`
	Label    string `json:"label" validate:"required"`
	Lang     string `json:"lang" validate:"omitempty,bcp47_language_tag"`
}

// TripleRequest asks for an arbitrary fact. The object is an identifier
// unless Literal is set.
type TripleRequest struct {
	Subject   string `json:"subject" validate:"required"`
	Predicate string `json:"predicate" validate:"required"`
	Object    string `json:"object" validate:"required"`
	Literal   bool   `json:"literal"`
	Lang      string `json:"lang" validate:"omitempty,bcp47_language_tag"`
	Datatype  string `json:"datatype" validate:"omitempty,iri"`
}

// Store is the write side of the fact store
type Store interface {
	AddAll(triples []ontology.Triple) (int, error)
}

// Options configures an Editor
type Options struct {
	// DefaultLang tags instance labels when the request names no language
	DefaultLang string
	Logger      *zap.Logger
	Collector   *annotations.Collector
}

// Editor validates requests and appends the resulting facts
type Editor struct {
	store       Store
	validate    *validator.Validate
	defaultLang string
	logger      *zap.Logger
	collector   *annotations.Collector
}

// New creates an editor over store
func New(store Store, opts Options) *Editor {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	lang := opts.DefaultLang
	if lang == "" {
		lang = "en"
	}
	v, err := newValidator(rules)
	if err != nil {
		panic(err)
	}
	return &Editor{
		store:       store,
		validate:    v,
		defaultLang: lang,
		logger:      logger,
		collector:   opts.Collector,
	}
}

// rules are the custom tags request structs may use
var rules = map[string]validator.Func{
	"iri": func(fl validator.FieldLevel) bool {
		return IsIRI(fl.Field().String())
	},
}

func newValidator(rules map[string]validator.Func) (*validator.Validate, error) {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return nil, fmt.Errorf("register %q rule: %w", tag, err)
		}
	}
	return v, nil
}

// IsIRI reports whether s is an absolute identifier with a scheme and no
// whitespace
func IsIRI(s string) bool {
	if s == "" || strings.ContainsAny(s, " \t\r\n<>\"") {
		return false
	}
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && (u.Opaque != "" || u.Host != "" || u.Path != "")
}

// AddInstance adds (instance rdf:type class) and (instance rdfs:label label).
// Fields are trimmed first; a missing or invalid field returns
// *ontology.ValidationError and leaves the store untouched.
func (e *Editor) AddInstance(req InstanceRequest) (int, error) {
	req.Class = strings.TrimSpace(req.Class)
	req.Instance = strings.TrimSpace(req.Instance)
	req.Label = strings.TrimSpace(req.Label)
	req.Lang = strings.TrimSpace(req.Lang)
	if err := e.check("add instance", &req); err != nil {
		return 0, err
	}

	lang := req.Lang
	if lang == "" {
		lang = e.defaultLang
	}
	inst := ontology.IRI(req.Instance)
	triples := []ontology.Triple{
		ontology.NewTriple(inst, ontology.RDFType, ontology.IRI(req.Class)),
		ontology.NewTriple(inst, ontology.RDFSLabel, ontology.NewLangLiteral(req.Label, lang)),
	}
	return e.add("add instance", triples)
}

// AddTriple adds one fact without any semantic check
func (e *Editor) AddTriple(req TripleRequest) (ontology.Triple, int, error) {
	req.Subject = strings.TrimSpace(req.Subject)
	req.Predicate = strings.TrimSpace(req.Predicate)
	req.Lang = strings.TrimSpace(req.Lang)
	req.Datatype = strings.TrimSpace(req.Datatype)
	if !req.Literal {
		req.Object = strings.TrimSpace(req.Object)
	} else if strings.TrimSpace(req.Object) == "" {
		req.Object = ""
	}
	if err := e.check("add triple", &req); err != nil {
		return ontology.Triple{}, 0, err
	}

	var subject ontology.Term = ontology.IRI(req.Subject)
	if strings.HasPrefix(req.Subject, "_:") {
		subject = ontology.Blank(strings.TrimPrefix(req.Subject, "_:"))
	}
	var object ontology.Term
	switch {
	case !req.Literal:
		object = ontology.IRI(req.Object)
	case req.Lang != "":
		object = ontology.NewLangLiteral(req.Object, req.Lang)
	case req.Datatype != "":
		object = ontology.NewTypedLiteral(req.Object, ontology.IRI(req.Datatype))
	default:
		object = ontology.NewLiteral(req.Object)
	}
	t := ontology.NewTriple(subject, ontology.IRI(req.Predicate), object)
	n, err := e.add("add triple", []ontology.Triple{t})
	return t, n, err
}

func (e *Editor) check(op string, req interface{}) error {
	err := e.validate.Struct(req)
	if err == nil {
		return nil
	}
	verr := &ontology.ValidationError{Op: op, Err: err}
	var fields validator.ValidationErrors
	if errors.As(err, &fields) {
		for _, f := range fields {
			verr.Fields = append(verr.Fields, ontology.FieldError{Field: f.Field(), Rule: f.Tag()})
		}
	}
	e.collector.AddError(annotations.ErrorValidation, op, verr)
	return verr
}

func (e *Editor) add(op string, triples []ontology.Triple) (int, error) {
	start := time.Now()
	n, err := e.store.AddAll(triples)
	if err != nil {
		return n, err
	}
	e.logger.Debug("mutation applied", zap.String("op", op), zap.Int("added", n))
	e.collector.AddTiming(annotations.EditorAdded, start, map[string]interface{}{
		"op":    op,
		"added": n,
	})
	return n, nil
}
