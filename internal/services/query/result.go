package query

// ErrorKind is the taxonomy tag for a failed query execution.
type ErrorKind string

const (
	KindTransient       ErrorKind = "TRANSIENT"
	KindPermission      ErrorKind = "PERMISSION"
	KindSyntax          ErrorKind = "SYNTAX"
	KindConnection      ErrorKind = "CONNECTION"
	KindDatabaseObject  ErrorKind = "DATABASE_OBJECT"
	KindUnknown         ErrorKind = "UNKNOWN"
	KindPolicyViolation ErrorKind = "POLICY_VIOLATION"
)

// ResultError is a structured, user-presentable execution failure.
type ResultError struct {
	Kind        ErrorKind `json:"kind"`
	Summary     string    `json:"error"`
	Details     string    `json:"details"`
	Suggestions []string  `json:"suggestions"`
}

// Result is the outcome of executing a candidate query: row tuples, a
// plain notice (sentinel/no-data paths), or a structured error. Never
// more than one of the three is set.
type Result struct {
	Rows   [][]any      `json:"rows,omitempty"`
	Notice string       `json:"notice,omitempty"`
	Err    *ResultError `json:"error,omitempty"`
}

// OK reports whether the result carries usable rows.
func (r Result) OK() bool {
	return r.Err == nil && r.Notice == ""
}
