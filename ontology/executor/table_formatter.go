package executor

import (
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/wbrown/janus-ontology/ontology"
	"github.com/wbrown/janus-ontology/ontology/query"
)

// TableFormatter renders query rows as markdown tables
type TableFormatter struct {
	// MaxWidth is the maximum width for a column
	MaxWidth int
	// TruncateString is the string to append when truncating
	TruncateString string
	// Shorten replaces IRIs with a display name when set
	Shorten func(ontology.IRI) string
}

// NewTableFormatter creates a new table formatter with default settings
func NewTableFormatter() *TableFormatter {
	return &TableFormatter{
		MaxWidth:       60,
		TruncateString: "...",
	}
}

// FormatResult collects and formats a result
func (tf *TableFormatter) FormatResult(r *Result) (string, error) {
	rows, err := Collect(r)
	if err != nil {
		return "", err
	}
	return tf.FormatRows(rows), nil
}

// FormatRows formats materialized rows as a markdown table
func (tf *TableFormatter) FormatRows(rows *Rows) string {
	if rows == nil || len(rows.Tuples) == 0 {
		cols := []query.Symbol(nil)
		if rows != nil {
			cols = rows.Columns
		}
		return fmt.Sprintf("_Columns: %v_\n\n_No rows_", cols)
	}

	tableString := &strings.Builder{}

	alignment := make([]tw.Align, len(rows.Columns))
	for i := range alignment {
		alignment[i] = tw.AlignNone
	}

	table := tablewriter.NewTable(tableString,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithAlignment(alignment),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)

	headers := make([]string, len(rows.Columns))
	for i, col := range rows.Columns {
		headers[i] = string(col)
	}
	table.Header(headers)

	for _, tuple := range rows.Tuples {
		row := make([]string, len(tuple))
		for j, val := range tuple {
			row[j] = tf.formatValue(val)
		}
		table.Append(row)
	}

	table.Render()

	tableString.WriteString(fmt.Sprintf("\n_%d rows_\n", len(rows.Tuples)))

	return tableString.String()
}

// formatValue converts a term to its display string
func (tf *TableFormatter) formatValue(val ontology.Term) string {
	var s string
	switch v := val.(type) {
	case nil:
		return ""
	case ontology.IRI:
		if tf.Shorten != nil {
			s = tf.Shorten(v)
		} else {
			s = string(v)
		}
	default:
		s = v.String()
	}
	if r := []rune(s); tf.MaxWidth > 0 && len(r) > tf.MaxWidth {
		s = string(r[:tf.MaxWidth]) + tf.TruncateString
	}
	return s
}
