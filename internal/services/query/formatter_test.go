package query

import (
	"fmt"
	"strings"
	"testing"
)

func makeRows(n int) [][]any {
	rows := make([][]any, n)
	for i := range rows {
		rows[i] = []any{i, fmt.Sprintf("row-%d", i)}
	}
	return rows
}

func TestFormatPagination(t *testing.T) {
	res := Result{Rows: makeRows(120)}

	page1 := Format(res, FormatOptions{Page: 1, PageSize: 50, Format: FormatObjects}).(Formatted)
	if page1.Metadata.TotalRows != 120 || page1.Metadata.TotalPages != 3 {
		t.Fatalf("unexpected metadata: %+v", page1.Metadata)
	}
	if got := len(page1.Data.([]map[string]any)); got != 50 {
		t.Fatalf("page 1 has %d rows, want 50", got)
	}

	page3 := Format(res, FormatOptions{Page: 3, PageSize: 50, Format: FormatObjects}).(Formatted)
	if got := len(page3.Data.([]map[string]any)); got != 20 {
		t.Fatalf("page 3 has %d rows, want 20", got)
	}

	page4 := Format(res, FormatOptions{Page: 4, PageSize: 50, Format: FormatObjects}).(Formatted)
	if got := len(page4.Data.([]map[string]any)); got != 0 {
		t.Fatalf("page past the end has %d rows, want 0", got)
	}
}

func TestFormatErrorPassThrough(t *testing.T) {
	resErr := &ResultError{Kind: KindPermission, Summary: "Permission denied"}
	res := Result{Err: resErr}

	got := Format(res, FormatOptions{})
	if got != resErr {
		t.Fatalf("error must pass through unchanged, got %+v", got)
	}

	// Formatting twice yields the identical structure.
	if again := Format(res, FormatOptions{Page: 9, Format: FormatTable}); again != resErr {
		t.Fatalf("formatting an error twice changed it: %+v", again)
	}
}

func TestFormatNoticePassThrough(t *testing.T) {
	got := Format(Result{Notice: NoDataNotice}, FormatOptions{})
	if got != NoDataNotice {
		t.Fatalf("notice must pass through unchanged, got %v", got)
	}
}

func TestFormatTableShape(t *testing.T) {
	res := Result{Rows: [][]any{{"Dr. Ali", "Cairo"}, {"Dr. Mona", "Giza"}}}
	out := Format(res, FormatOptions{Format: FormatTable}).(Formatted)

	table := out.Data.(string)
	lines := strings.Split(strings.TrimSpace(table), "\n")
	if len(lines) != 4 {
		t.Fatalf("table has %d lines, want header + separator + 2 rows", len(lines))
	}
	if !strings.Contains(lines[0], "Column 1") || !strings.Contains(lines[0], "Column 2") {
		t.Fatalf("bad header row: %s", lines[0])
	}
	if !strings.Contains(lines[1], "---") {
		t.Fatalf("bad separator row: %s", lines[1])
	}
	if !strings.Contains(lines[2], "Dr. Ali | Cairo") {
		t.Fatalf("bad data row: %s", lines[2])
	}
}

func TestFormatDefaultShape(t *testing.T) {
	res := Result{Rows: [][]any{{"Dr. Ali", "Cardiology"}}}
	out := Format(res, FormatOptions{}).(Formatted)

	if out.Data.(string) != "Dr. Ali, Cardiology" {
		t.Fatalf("unexpected default rendering: %q", out.Data)
	}
	if out.Metadata.Format != FormatDefault {
		t.Fatalf("default format tag missing: %+v", out.Metadata)
	}
}

func TestFormatEmptyRows(t *testing.T) {
	out := Format(Result{Rows: [][]any{}}, FormatOptions{Question: "who is on call?"}).(Formatted)
	if out.Data.(string) != "No results found." {
		t.Fatalf("unexpected empty rendering: %q", out.Data)
	}
	if out.Explanation != "No data was found that matches your query." {
		t.Fatalf("unexpected empty explanation: %q", out.Explanation)
	}
}

func TestFormatExplanation(t *testing.T) {
	out := Format(Result{Rows: makeRows(3)}, FormatOptions{Question: "list doctors"}).(Formatted)
	if !strings.Contains(out.Explanation, "Found 3 results") || !strings.Contains(out.Explanation, "list doctors") {
		t.Fatalf("unexpected explanation: %q", out.Explanation)
	}

	noQuestion := Format(Result{Rows: makeRows(3)}, FormatOptions{}).(Formatted)
	if noQuestion.Explanation != "" {
		t.Fatalf("explanation should be empty without a question, got %q", noQuestion.Explanation)
	}
}
