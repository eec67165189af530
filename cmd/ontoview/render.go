package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/wbrown/janus-ontology/ontology"
	"github.com/wbrown/janus-ontology/ontology/hierarchy"
	"github.com/wbrown/janus-ontology/ontology/registry"
	"github.com/wbrown/janus-ontology/ontology/search"
	"github.com/wbrown/janus-ontology/ontology/session"
	"github.com/wbrown/janus-ontology/preload"
)

// palette colors terminal output. Colors are off unless enabled.
type palette struct {
	class    *color.Color
	instance *color.Color
	property *color.Color
	muted    *color.Color
	warn     *color.Color
}

func newPalette(on bool) palette {
	p := palette{
		class:    color.New(color.FgCyan, color.Bold),
		instance: color.New(color.FgGreen),
		property: color.New(color.FgMagenta),
		muted:    color.New(color.Faint),
		warn:     color.New(color.FgYellow),
	}
	for _, c := range []*color.Color{p.class, p.instance, p.property, p.muted, p.warn} {
		if on {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) kind(k session.EntityKind) *color.Color {
	switch k {
	case session.EntityClass:
		return p.class
	case session.EntityProperty:
		return p.property
	case session.EntityInstance:
		return p.instance
	}
	return p.muted
}

// printForest draws the class forest with box-drawing guides. Instances
// attached by the populator are listed under their class.
func printForest(w io.Writer, f *hierarchy.Forest, p palette) {
	if f == nil || len(f.Roots) == 0 {
		fmt.Fprintln(w, p.muted.Sprint("(no classes)"))
		return
	}
	for _, root := range f.Roots {
		fmt.Fprintln(w, p.class.Sprint(root.Name))
		printChildren(w, root, "", p)
	}
}

func printChildren(w io.Writer, n *hierarchy.Node, indent string, p palette) {
	type line struct {
		text string
		node *hierarchy.Node
	}
	var lines []line
	for _, c := range n.Children {
		lines = append(lines, line{p.class.Sprint(c.Name), c})
	}
	for _, inst := range n.Instances {
		lines = append(lines, line{p.instance.Sprint(registry.ShortName(inst)), nil})
	}
	for i, l := range lines {
		branch, next := "├── ", "│   "
		if i == len(lines)-1 {
			branch, next = "└── ", "    "
		}
		fmt.Fprintln(w, indent+branch+l.text)
		if l.node != nil {
			printChildren(w, l.node, indent+next, p)
		}
	}
}

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithHeaderAutoFormat(tw.Off))
}

// printProperties lists the object property catalog
func printProperties(w io.Writer, props []hierarchy.Property) {
	if len(props) == 0 {
		fmt.Fprintln(w, "(no object properties)")
		return
	}
	table := newTable(w)
	table.Header([]string{"property", "label", "domain", "range"})
	for _, prop := range props {
		table.Append([]string{prop.Name, prop.Label, shortOrEmpty(prop.Domain), shortOrEmpty(prop.Range)})
	}
	table.Render()
}

// printDetail shows one entity and its facts
func printDetail(w io.Writer, d *session.Detail, p palette) {
	title := d.Name
	if d.Label != "" && d.Label != d.Name {
		title += " (" + d.Label + ")"
	}
	fmt.Fprintf(w, "%s %s\n", p.kind(d.Kind).Sprint(title), p.muted.Sprintf("<%s>", d.ID))

	list := func(label string, ids []ontology.IRI, c *color.Color) {
		if len(ids) == 0 {
			return
		}
		names := make([]string, len(ids))
		for i, id := range ids {
			names[i] = c.Sprint(registry.ShortName(id))
		}
		fmt.Fprintf(w, "  %s: %s\n", label, strings.Join(names, ", "))
	}
	list("parents", d.Parents, p.class)
	list("children", d.Children, p.class)
	list("members", d.Members, p.instance)
	list("types", d.Types, p.class)
	if prop := d.Property; prop != nil {
		if prop.Domain != "" {
			fmt.Fprintf(w, "  domain: %s\n", p.class.Sprint(registry.ShortName(prop.Domain)))
		}
		if prop.Range != "" {
			fmt.Fprintf(w, "  range: %s\n", p.class.Sprint(registry.ShortName(prop.Range)))
		}
	}

	if len(d.Facts) == 0 {
		return
	}
	table := newTable(w)
	table.Header([]string{"property", "value"})
	for _, f := range d.Facts {
		value := f.Display()
		if lit, ok := f.Value.(ontology.Literal); ok && lit.Lang != "" {
			value += "@" + lit.Lang
		}
		if f.Link != "" {
			value = p.kind(f.Link).Sprint(value)
		}
		table.Append([]string{registry.ShortName(f.Predicate), value})
	}
	table.Render()
}

// printSearch lists hits grouped by kind
func printSearch(w io.Writer, text string, res *search.Results, p palette) {
	if res == nil || res.Len() == 0 {
		fmt.Fprintf(w, "No matches for %q\n", text)
		return
	}
	group := func(name string, matches []search.Match, c *color.Color) {
		if len(matches) == 0 {
			return
		}
		fmt.Fprintf(w, "%s (%d)\n", name, len(matches))
		for _, m := range matches {
			fmt.Fprintf(w, "  %s %s\n", c.Sprint(m.Name), p.muted.Sprintf("<%s>", m.ID))
		}
	}
	group("Classes", res.Classes, p.class)
	group("Properties", res.Properties, p.property)
	group("Instances", res.Instances, p.instance)
}

// printCatalog lists preloaded ontology files
func printCatalog(w io.Writer, entries []preload.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "(no preloaded ontologies)")
		return
	}
	table := newTable(w)
	table.Header([]string{"name", "format", "size", "modified"})
	for _, e := range entries {
		table.Append([]string{e.Name, string(e.Format), fmt.Sprint(e.Size), e.ModTime.Format("2006-01-02 15:04")})
	}
	table.Render()
}

// printStats renders the current value of every registered instrument
func printStats(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	table := newTable(w)
	table.Header([]string{"metric", "labels", "value"})
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			table.Append([]string{mf.GetName(), labels(m), metricValue(mf.GetType(), m)})
		}
	}
	table.Render()
	return nil
}

func labels(m *dto.Metric) string {
	pairs := make([]string, 0, len(m.GetLabel()))
	for _, l := range m.GetLabel() {
		pairs = append(pairs, l.GetName()+"="+l.GetValue())
	}
	sort.Strings(pairs)
	return strings.Join(pairs, ",")
}

func metricValue(t dto.MetricType, m *dto.Metric) string {
	switch t {
	case dto.MetricType_COUNTER:
		return fmt.Sprint(m.GetCounter().GetValue())
	case dto.MetricType_GAUGE:
		return fmt.Sprint(m.GetGauge().GetValue())
	case dto.MetricType_HISTOGRAM:
		h := m.GetHistogram()
		return fmt.Sprintf("count=%d sum=%g", h.GetSampleCount(), h.GetSampleSum())
	}
	return ""
}

func printDiagnostics(w io.Writer, diags []session.Diagnostic, p palette) {
	for _, d := range diags {
		fmt.Fprintln(w, p.warn.Sprint("warning: "+d.String()))
	}
}

func printIRIs(w io.Writer, ids []ontology.IRI) {
	if len(ids) == 0 {
		fmt.Fprintln(w, "(none)")
		return
	}
	for _, id := range ids {
		fmt.Fprintf(w, "%s <%s>\n", registry.ShortName(id), id)
	}
}

func shortOrEmpty(id ontology.IRI) string {
	if id == "" {
		return ""
	}
	return registry.ShortName(id)
}
