package session

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/wbrown/janus-ontology/ontology"
	"github.com/wbrown/janus-ontology/ontology/annotations"
	"github.com/wbrown/janus-ontology/ontology/editor"
	"github.com/wbrown/janus-ontology/ontology/executor"
	"github.com/wbrown/janus-ontology/ontology/query"
	"github.com/wbrown/janus-ontology/ontology/registry"
)

func (s *Session) load(cmd Command) (*Response, error) {
	c := cmd.(Load)
	n, err := s.db.Load(c.Data, c.Format, c.Base)
	if err != nil {
		if c.Source != "" {
			return nil, fmt.Errorf("%s: %w", c.Source, err)
		}
		return nil, err
	}
	s.logger.Info("ontology loaded",
		zap.String("source", c.Source),
		zap.Int("added", n),
		zap.Int("size", s.db.Size()))
	return s.mutated(&Response{Added: n}), nil
}

func (s *Session) save(cmd Command) (*Response, error) {
	c := cmd.(Save)
	data, err := s.db.Serialize(c.Format)
	if err != nil {
		return nil, err
	}
	return &Response{Data: data}, nil
}

func (s *Session) selectClass(cmd Command) (*Response, error) {
	id, err := s.resolve(s.classes, cmd.(SelectClass).Name)
	if err != nil {
		return nil, err
	}
	return s.show(EntityClass, id)
}

func (s *Session) selectProperty(cmd Command) (*Response, error) {
	id, err := s.resolve(s.properties, cmd.(SelectProperty).Name)
	if err != nil {
		return nil, err
	}
	return s.show(EntityProperty, id)
}

func (s *Session) selectInstance(cmd Command) (*Response, error) {
	id, err := s.resolve(s.instances, cmd.(SelectInstance).Name)
	if err != nil {
		return nil, err
	}
	return s.show(EntityInstance, id)
}

// open follows a link: the identifier is shown as whichever kind of
// entity it is registered as, classes first
func (s *Session) open(cmd Command) (*Response, error) {
	id := cmd.(Open).ID
	kind := s.linkKind(id)
	if kind == "" {
		err := &ontology.LookupError{Kind: "entity", Name: string(id)}
		s.collector.AddError(annotations.ErrorLookup, "open", err)
		return nil, err
	}
	return s.show(kind, id)
}

func (s *Session) show(kind EntityKind, id ontology.IRI) (*Response, error) {
	d, err := s.detail(kind, id)
	if err != nil {
		return nil, err
	}
	return &Response{Detail: d}, nil
}

func (s *Session) search(cmd Command) (*Response, error) {
	res := s.index.Search(cmd.(Search).Text)
	return &Response{Results: &res}, nil
}

// reason applies the reasoner. Facts written before a failure stay in the
// store, so the views are rebuilt for them before the error is returned.
func (s *Session) reason(Command) (*Response, error) {
	report, err := s.engine.Apply()
	if err != nil {
		if report.Inferred > 0 {
			s.refresh()
		}
		return nil, err
	}
	return s.mutated(&Response{Added: report.Inferred, Report: &report}), nil
}

func (s *Session) addInstance(cmd Command) (*Response, error) {
	c := cmd.(AddInstance)

	class := strings.TrimSpace(c.Class)
	if class != "" && !editor.IsIRI(class) {
		id, err := s.resolve(s.classes, class)
		if err != nil {
			return nil, err
		}
		class = string(id)
	}

	inst := strings.TrimSpace(c.Instance)
	ns := s.opts.Namespace
	if ns == "" && class != "" {
		ns = editor.Namespace(ontology.IRI(class))
	}
	switch {
	case inst == "" && c.Mint && ns != "":
		inst = string(editor.MintIRI(ns))
	case inst != "" && ns != "" && !editor.IsIRI(inst) && !strings.ContainsAny(inst, " \t/#:"):
		inst = joinNamespace(ns, inst)
	}

	n, err := s.editor.AddInstance(editor.InstanceRequest{
		Class:    class,
		Instance: inst,
		Label:    c.Label,
		Lang:     c.Lang,
	})
	if err != nil {
		return nil, err
	}
	return s.mutated(&Response{Added: n, Instance: ontology.IRI(inst)}), nil
}

func (s *Session) addTriple(cmd Command) (*Response, error) {
	req := cmd.(AddTriple).TripleRequest
	req.Subject = s.expand(req.Subject)
	req.Predicate = s.expand(req.Predicate)
	if !req.Literal {
		req.Object = s.expand(req.Object)
	}
	if req.Datatype != "" {
		req.Datatype = s.expand(req.Datatype)
	}
	t, n, err := s.editor.AddTriple(req)
	if err != nil {
		return nil, err
	}
	return s.mutated(&Response{Added: n, Triple: &t}), nil
}

func (s *Session) query(cmd Command) (*Response, error) {
	g, err := query.Parse(cmd.(Query).Text, s.prefixes())
	if err != nil {
		return nil, err
	}
	res, err := s.db.Query(g)
	if err != nil {
		return nil, err
	}
	defer res.Close()
	rows, err := executor.Collect(res)
	if err != nil {
		return nil, err
	}
	return &Response{Rows: rows}, nil
}

func (s *Session) suggest(cmd Command) (*Response, error) {
	c := cmd.(Suggest)
	var (
		out []ontology.IRI
		err error
	)
	switch c.Mode {
	case SuggestPredicates, SuggestProperties:
		id, rerr := s.resolve(s.classes, c.Name)
		if rerr != nil {
			return nil, rerr
		}
		if c.Mode == SuggestPredicates {
			out, err = s.suggester.PredicatesFor(id)
		} else {
			out, err = s.suggester.PropertiesFor(id)
		}
	case SuggestClasses:
		id, rerr := s.resolve(s.properties, c.Name)
		if rerr != nil {
			return nil, rerr
		}
		out, err = s.suggester.ClassesFor(id)
	default:
		return nil, fmt.Errorf("unknown suggestion mode %q", c.Mode)
	}
	if err != nil {
		return nil, err
	}
	return &Response{Suggestions: out}, nil
}

// mutated refreshes the views when the command added anything
func (s *Session) mutated(resp *Response) *Response {
	if resp.Added == 0 {
		return resp
	}
	return s.changed(resp)
}

// resolve accepts a short name or a full identifier
func (s *Session) resolve(r *registry.Registry, name string) (ontology.IRI, error) {
	name = strings.TrimSpace(name)
	if editor.IsIRI(name) {
		return ontology.IRI(name), nil
	}
	id, err := r.Resolve(name)
	if err != nil {
		s.collector.AddError(annotations.ErrorLookup, r.Kind(), err)
		return "", err
	}
	return id, nil
}

func (s *Session) prefixes() map[string]string {
	out := make(map[string]string, len(ontology.WellKnownPrefixes)+len(s.opts.Prefixes))
	for k, v := range ontology.WellKnownPrefixes {
		out[k] = v
	}
	for k, v := range s.opts.Prefixes {
		out[k] = v
	}
	return out
}

// expand rewrites a prefixed name such as rdfs:label; anything else is
// returned trimmed
func (s *Session) expand(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.IndexByte(name, ':'); i > 0 && !strings.Contains(name, "://") {
		if ns, ok := s.prefixes()[name[:i]]; ok {
			return ns + name[i+1:]
		}
	}
	return name
}

func joinNamespace(ns, local string) string {
	if !strings.HasSuffix(ns, "/") && !strings.HasSuffix(ns, "#") {
		ns += "#"
	}
	return ns + local
}
