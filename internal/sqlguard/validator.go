// Package sqlguard is the static safety policy applied to every
// model-generated SQL string before it can reach a connection. It is an
// allow-list of shape (single read-only SELECT) plus a deny-list of
// keywords and injection patterns, not a SQL parser.
package sqlguard

import (
	"fmt"
	"regexp"
	"strings"
)

// Verdict is the outcome of validating a candidate query. Derived
// purely from the query text; no side effects.
type Verdict struct {
	Safe   bool
	Reason string
}

var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`;\s*select`),
	regexp.MustCompile(`;\s*insert`),
	regexp.MustCompile(`;\s*update`),
	regexp.MustCompile(`;\s*delete`),
	regexp.MustCompile(`--`),
	regexp.MustCompile(`/\*`),
	regexp.MustCompile(`\*/`),
	regexp.MustCompile(`xp_`),
	regexp.MustCompile(`sp_`),
	regexp.MustCompile(`exec\s+`),
	regexp.MustCompile(`execute\s+`),
}

// forbiddenOperations maps each blocked DML/DDL keyword, matched as a
// case-insensitive whole word, to its rejection message.
var forbiddenOperations = []struct {
	re      *regexp.Regexp
	message string
}{
	{regexp.MustCompile(`\bdelete\b`), "DELETE operations are not allowed"},
	{regexp.MustCompile(`\bdrop\b`), "DROP operations are not allowed"},
	{regexp.MustCompile(`\balter\b`), "ALTER operations are not allowed"},
	{regexp.MustCompile(`\btruncate\b`), "TRUNCATE operations are not allowed"},
	{regexp.MustCompile(`\bupdate\b`), "UPDATE operations are not allowed"},
	{regexp.MustCompile(`\binsert\b`), "INSERT operations are not allowed"},
	{regexp.MustCompile(`\bcreate\b`), "CREATE operations are not allowed"},
	{regexp.MustCompile(`\bexec\b`), "EXEC operations are not allowed"},
}

// Validate checks a candidate query against the safety policy. Only a
// single-statement, parenthesis-balanced SELECT passes.
func Validate(query string) Verdict {
	lower := strings.ToLower(strings.TrimSpace(query))

	for _, pattern := range injectionPatterns {
		if pattern.MatchString(lower) {
			return Verdict{Safe: false, Reason: fmt.Sprintf("potential SQL injection detected: %s", pattern.String())}
		}
	}

	for _, op := range forbiddenOperations {
		if op.re.MatchString(lower) {
			return Verdict{Safe: false, Reason: op.message}
		}
	}

	if !strings.HasPrefix(lower, "select") {
		return Verdict{Safe: false, Reason: "only SELECT queries are allowed"}
	}

	if strings.Count(query, "(") != strings.Count(query, ")") {
		return Verdict{Safe: false, Reason: "unbalanced parentheses in query"}
	}

	return Verdict{Safe: true, Reason: "query is safe to execute"}
}

// StripFence removes a triple-backtick code fence from a generated
// query. Models are asked to answer inside a ```sql fence; both the
// tagged and the bare fence form are stripped symmetrically. Input that
// is not fenced is returned unchanged.
func StripFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if strings.HasPrefix(trimmed, "```sql") && strings.HasSuffix(trimmed, "```") {
		return strings.TrimSpace(trimmed[6 : len(trimmed)-3])
	}
	if strings.HasPrefix(trimmed, "```") && strings.HasSuffix(trimmed, "```") && len(trimmed) >= 6 {
		return strings.TrimSpace(trimmed[3 : len(trimmed)-3])
	}
	return trimmed
}
