package resource

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
)

// DescribeRow is one adapter's (or one manager's) human-oriented
// introspection output, keyed by field name.
type DescribeRow struct {
	Name   string
	Fields map[string]string
}

// DescribeTable is the aggregate getDebug() result over every adapter a
// ResourcesManager owns.
type DescribeTable struct {
	Columns []string
	Rows    []DescribeRow
}

// NewDescribeTable builds a table with a fixed column order; rows missing a
// field render an empty cell rather than shifting columns.
func NewDescribeTable(columns []string, rows []DescribeRow) DescribeTable {
	sorted := append([]DescribeRow(nil), rows...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	return DescribeTable{Columns: columns, Rows: sorted}
}

// Render writes the table in aligned columns, the way an operator CLI would
// print it.
func (t DescribeTable) Render(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)

	fmt.Fprint(tw, "NAME")
	for _, col := range t.Columns {
		fmt.Fprintf(tw, "\t%s", col)
	}
	fmt.Fprintln(tw)

	for _, row := range t.Rows {
		fmt.Fprint(tw, row.Name)
		for _, col := range t.Columns {
			fmt.Fprintf(tw, "\t%s", row.Fields[col])
		}
		fmt.Fprintln(tw)
	}

	return tw.Flush()
}
