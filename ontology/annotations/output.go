package annotations

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// OutputFormatter formats events for human-readable display.
type OutputFormatter struct {
	useColor bool
	writer   io.Writer
}

// NewOutputFormatter creates a formatter with color support detection.
func NewOutputFormatter(w io.Writer) *OutputFormatter {
	if w == nil {
		w = os.Stderr
	}

	useColor := false
	if f, ok := w.(*os.File); ok {
		useColor = isTerminal(f.Fd())
	}

	return &OutputFormatter{
		useColor: useColor,
		writer:   w,
	}
}

// WithColor forces color on or off
func (f *OutputFormatter) WithColor(on bool) *OutputFormatter {
	f.useColor = on
	return f
}

// Handle implements the Handler interface - prints events as they occur
func (f *OutputFormatter) Handle(event Event) {
	output := f.Format(event)
	if output != "" {
		fmt.Fprintln(f.writer, output)
	}
}

// Format converts an event to a human-readable string.
func (f *OutputFormatter) Format(event Event) string {
	latency := f.formatLatency(event.Latency)

	switch event.Name {
	case StoreLoaded:
		return fmt.Sprintf("%s %s Loaded %s from %v (%s)",
			latency,
			f.colorize("+", color.FgGreen),
			f.colorizeCount("triples", intField(event, "added")),
			event.Data["source"],
			event.Data["format"])

	case StoreAsserted:
		return fmt.Sprintf("%s Asserted %s, store now holds %s",
			latency,
			f.colorizeCount("triples", intField(event, "added")),
			f.colorizeCount("triples", intField(event, "size")))

	case StoreSerialized:
		return fmt.Sprintf("%s Serialized %s as %s (%d bytes)",
			latency,
			f.colorizeCount("triples", intField(event, "triples")),
			event.Data["format"],
			intField(event, "bytes"))

	case QueryInvoked:
		return fmt.Sprintf("%s Query: %s", latency, truncateQuery(fmt.Sprint(event.Data["query"])))

	case QueryComplete:
		if err, ok := event.Data["error"]; ok && err != nil {
			return fmt.Sprintf("%s %s Query failed: %v",
				latency,
				f.colorize("✗", color.FgRed),
				err)
		}
		return fmt.Sprintf("%s %s Query done with %s",
			latency,
			f.colorize("===", color.FgGreen),
			f.colorizeCount("rows", intField(event, "rows")))

	case HierarchyBuilt:
		return fmt.Sprintf("%s Hierarchy: %s, %s",
			latency,
			f.colorizeCount("roots", intField(event, "roots")),
			f.colorizeCount("classes", intField(event, "classes")))

	case CatalogBuilt:
		return fmt.Sprintf("%s Catalog: %s", latency, f.colorizeCount("properties", intField(event, "properties")))

	case PopulatedBuilt:
		return fmt.Sprintf("%s Populated hierarchy: %s", latency, f.colorizeCount("instances", intField(event, "instances")))

	case SearchIndexed:
		return fmt.Sprintf("%s Search index: %s", latency, f.colorizeCount("entries", intField(event, "entries")))

	case ReasoningPass:
		return fmt.Sprintf("%s Reasoning pass %d inferred %s",
			latency,
			intField(event, "pass"),
			f.colorizeCount("triples", intField(event, "inferred")))

	case ReasoningComplete:
		return fmt.Sprintf("%s %s Reasoning done: %s in %d passes",
			latency,
			f.colorize("===", color.FgGreen),
			f.colorizeCount("triples", intField(event, "inferred")),
			intField(event, "passes"))

	case EditorAdded:
		return fmt.Sprintf("%s %s %v added %s",
			latency,
			f.colorize("+", color.FgGreen),
			event.Data["op"],
			f.colorizeCount("triples", intField(event, "added")))

	case ErrorParse, ErrorView, ErrorCycle, ErrorLookup, ErrorValidation, ErrorBackend:
		return fmt.Sprintf("%s %s %v: %v",
			latency,
			f.colorize("✗", color.FgRed),
			event.Data["source"],
			event.Data["error"])

	default:
		return fmt.Sprintf("%s %s %v", latency, event.Name, event.Data)
	}
}

func intField(event Event, key string) int {
	switch v := event.Data[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	}
	return 0
}

// latencyBands colors a latency by how long the step took
var latencyBands = []struct {
	below time.Duration
	attr  color.Attribute
}{
	{50 * time.Millisecond, color.FgGreen},
	{200 * time.Millisecond, color.FgYellow},
}

// formatLatency renders d as [12µs] below a millisecond and [1.5ms] above
func (f *OutputFormatter) formatLatency(d time.Duration) string {
	var s string
	if d < time.Millisecond {
		s = fmt.Sprintf("[%dµs]", d.Microseconds())
	} else {
		s = fmt.Sprintf("[%.1fms]", float64(d.Microseconds())/1000)
	}
	attr := color.FgRed
	for _, b := range latencyBands {
		if d < b.below {
			attr = b.attr
			break
		}
	}
	return f.colorize(s, attr)
}

// countColors picks the color of a count by what is counted
var countColors = map[string]color.Attribute{
	"triples": color.FgBlue,
	"rows":    color.FgMagenta,
}

func (f *OutputFormatter) colorizeCount(label string, count int) string {
	attr, ok := countColors[label]
	if !ok {
		attr = color.FgCyan
	}
	return f.colorize(fmt.Sprintf("%d %s", count, label), attr)
}

func (f *OutputFormatter) colorize(text string, attrs ...color.Attribute) string {
	if !f.useColor {
		return text
	}
	c := color.New(attrs...)
	c.EnableColor()
	return c.Sprint(text)
}

// truncateQuery collapses whitespace and cuts the text at 80 bytes
func truncateQuery(query string) string {
	const maxLen = 80
	if query = strings.Join(strings.Fields(query), " "); len(query) > maxLen {
		query = query[:maxLen-3] + "..."
	}
	return query
}

// ConsoleHandler prints events to stderr
func ConsoleHandler() Handler {
	return NewOutputFormatter(os.Stderr).Handle
}

func isTerminal(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
