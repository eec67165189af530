// Package search finds classes, properties and instances whose short name
// contains a piece of text.
package search

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/wbrown/janus-ontology/ontology"
	"github.com/wbrown/janus-ontology/ontology/registry"
)

// Group names the kind of entity a match belongs to
type Group string

const (
	Classes    Group = "classes"
	Properties Group = "properties"
	Instances  Group = "instances"
)

// Match is one hit
type Match struct {
	Group Group
	ID    ontology.IRI
	Name  string
}

// Results holds the hits of one search, grouped
type Results struct {
	Classes    []Match
	Properties []Match
	Instances  []Match
}

// All returns the hits in group order: classes, properties, instances
func (r Results) All() []Match {
	out := make([]Match, 0, r.Len())
	out = append(out, r.Classes...)
	out = append(out, r.Properties...)
	return append(out, r.Instances...)
}

// Len returns the total number of hits
func (r Results) Len() int {
	return len(r.Classes) + len(r.Properties) + len(r.Instances)
}

// Index searches the short names held by three registries. It reads them
// at search time, so it always reflects their latest rebuild.
type Index struct {
	classes    *registry.Registry
	properties *registry.Registry
	instances  *registry.Registry
}

// New creates an index over the given registries
func New(classes, properties, instances *registry.Registry) *Index {
	return &Index{classes: classes, properties: properties, instances: instances}
}

// Search returns every entity whose short name contains text, compared
// under Unicode case folding. Empty text matches nothing. An identifier
// appears at most once per group but may appear in several groups.
func (x *Index) Search(text string) Results {
	if strings.TrimSpace(text) == "" {
		return Results{}
	}
	fold := cases.Fold()
	needle := fold.String(text)
	return Results{
		Classes:    scan(x.classes, Classes, needle, fold),
		Properties: scan(x.properties, Properties, needle, fold),
		Instances:  scan(x.instances, Instances, needle, fold),
	}
}

func scan(r *registry.Registry, group Group, needle string, fold cases.Caser) []Match {
	if r == nil {
		return nil
	}
	var out []Match
	seen := make(map[ontology.IRI]bool)
	for _, id := range r.Entries() {
		if seen[id] {
			continue
		}
		seen[id] = true
		name := registry.ShortName(id)
		if strings.Contains(fold.String(name), needle) {
			out = append(out, Match{Group: group, ID: id, Name: name})
		}
	}
	return out
}
