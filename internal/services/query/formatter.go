package query

import (
	"fmt"
	"math"
	"strings"
)

// Output shapes for formatted results.
const (
	FormatDefault = "default"
	FormatTable   = "table"
	FormatObjects = "objects"
)

// DefaultPageSize bounds how many rows one page carries.
const DefaultPageSize = 50

// Metadata describes the pagination of a formatted result.
type Metadata struct {
	TotalRows   int    `json:"total_rows"`
	Page        int    `json:"page"`
	TotalPages  int    `json:"total_pages"`
	RowsPerPage int    `json:"rows_per_page"`
	Format      string `json:"format_type"`
}

// Formatted is a presentation-ready page of query results.
type Formatted struct {
	Data        any      `json:"data"`
	Metadata    Metadata `json:"metadata"`
	Explanation string   `json:"explanation,omitempty"`
}

// FormatOptions control pagination, shape, and the optional explanation.
type FormatOptions struct {
	Page     int
	PageSize int
	Format   string
	Question string
}

// Format shapes a raw result for presentation. Errors and notices pass
// through unchanged, so formatting an already-failed result is a no-op.
func Format(res Result, opts FormatOptions) any {
	if res.Err != nil {
		return res.Err
	}
	if res.Notice != "" {
		return res.Notice
	}

	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.PageSize < 1 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Format == "" {
		opts.Format = FormatDefault
	}

	total := len(res.Rows)
	start := (opts.Page - 1) * opts.PageSize
	end := start + opts.PageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}
	page := res.Rows[start:end]

	var data any
	switch opts.Format {
	case FormatTable:
		data = formatAsTable(page)
	case FormatObjects:
		data = formatAsObjects(page)
	default:
		data = formatDefault(page)
	}

	formatted := Formatted{
		Data: data,
		Metadata: Metadata{
			TotalRows:   total,
			Page:        opts.Page,
			TotalPages:  int(math.Ceil(float64(total) / float64(opts.PageSize))),
			RowsPerPage: opts.PageSize,
			Format:      opts.Format,
		},
	}

	if opts.Question != "" {
		formatted.Explanation = explain(page, opts.Question)
	}

	return formatted
}

// formatAsTable renders rows as a markdown table with positional
// headers.
func formatAsTable(rows [][]any) string {
	if len(rows) == 0 {
		return "No results found."
	}

	headers := make([]string, len(rows[0]))
	for i := range headers {
		headers[i] = fmt.Sprintf("Column %d", i+1)
	}

	var b strings.Builder
	b.WriteString("| " + strings.Join(headers, " | ") + " |\n")
	b.WriteString("| " + strings.Join(repeat("---", len(headers)), " | ") + " |\n")

	for _, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = fmt.Sprint(cell)
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}

	return b.String()
}

// formatAsObjects renders rows as maps keyed by column position.
func formatAsObjects(rows [][]any) []map[string]any {
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		obj := make(map[string]any, len(row))
		for i, cell := range row {
			obj[fmt.Sprintf("column_%d", i+1)] = cell
		}
		out = append(out, obj)
	}
	return out
}

// RenderRows renders raw rows as plain text, one comma-joined line per
// row. Used when a result feeds a prompt instead of an API response.
func RenderRows(rows [][]any) string {
	return formatDefault(rows)
}

// formatDefault renders each row as one comma-joined line.
func formatDefault(rows [][]any) string {
	if len(rows) == 0 {
		return "No results found."
	}

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = fmt.Sprint(cell)
		}
		lines = append(lines, strings.Join(cells, ", "))
	}
	return strings.Join(lines, "\n")
}

func explain(rows [][]any, question string) string {
	if len(rows) == 0 {
		return "No data was found that matches your query."
	}
	return fmt.Sprintf("Found %d results that answer your question about '%s'.", len(rows), question)
}

func repeat(s string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = s
	}
	return out
}
