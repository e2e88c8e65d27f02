package query

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	mssql "github.com/microsoft/go-mssqldb"
)

// SQL Server error code tables, by failure class. Keyword fallbacks
// below cover providers that do not surface numeric codes.
var (
	transientCodes  = map[int]bool{4060: true, 40197: true, 40501: true, 40613: true, 49918: true, 49919: true, 49920: true}
	permissionCodes = map[int]bool{229: true, 230: true, 262: true, 300: true, 301: true, 378: true}
	syntaxCodes     = map[int]bool{102: true, 103: true, 104: true, 105: true, 156: true, 170: true}
	connectionCodes = map[int]bool{53: true, 67: true, 10054: true, 10060: true}
	objectCodes     = map[int]bool{208: true, 1: true, 207: true, 4902: true}
)

var errorCodeRE = regexp.MustCompile(`[(\[](\d+)[)\]]`)

// ExtractErrorCode pulls a numeric code out of a provider error message,
// matching patterns like (4060) or [4060]. Returns 0 when no code is
// present.
func ExtractErrorCode(message string) int {
	m := errorCodeRE.FindStringSubmatch(message)
	if m == nil {
		return 0
	}
	code, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return code
}

// ClassifyError maps a connection-layer error to a taxonomy tag. It
// never fails; anything unrecognized is UNKNOWN.
func ClassifyError(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}
	message := err.Error()
	code := ExtractErrorCode(message)
	// The driver carries the server error number as a field, not in the
	// message text.
	var sqlErr mssql.Error
	if errors.As(err, &sqlErr) {
		code = int(sqlErr.Number)
	}
	lower := strings.ToLower(message)

	switch {
	case transientCodes[code] || strings.Contains(lower, "timeout"):
		return KindTransient
	case permissionCodes[code] || strings.Contains(lower, "permission") || strings.Contains(lower, "access"):
		return KindPermission
	case syntaxCodes[code] || strings.Contains(lower, "syntax"):
		return KindSyntax
	case connectionCodes[code] || strings.Contains(lower, "connection"):
		return KindConnection
	case objectCodes[code] || strings.Contains(lower, "invalid object") || strings.Contains(lower, "not found"):
		return KindDatabaseObject
	default:
		return KindUnknown
	}
}

// errorResult converts a classified failure into the structured result
// surfaced to the caller. Raw detail strings are for logs and internal
// consumers; route handlers translate these into user-facing prose.
func errorResult(kind ErrorKind, err error) *ResultError {
	raw := ""
	if err != nil {
		raw = err.Error()
	}

	switch kind {
	case KindTransient:
		return &ResultError{
			Kind:        KindTransient,
			Summary:     "Service temporarily unavailable",
			Details:     "The database did not respond in time and retries were exhausted.",
			Suggestions: []string{"Try again in a few moments", "Contact support if the issue persists"},
		}
	case KindPermission:
		return &ResultError{
			Kind:        KindPermission,
			Summary:     "Permission denied",
			Details:     "You don't have sufficient permissions to access this data.",
			Suggestions: []string{"Check your user role", "Request access from administrator"},
		}
	case KindSyntax:
		return &ResultError{
			Kind:        KindSyntax,
			Summary:     "Invalid query syntax",
			Details:     fmt.Sprintf("The query contains syntax errors: %s", raw),
			Suggestions: []string{"Check column and table names", "Verify SQL syntax"},
		}
	case KindConnection:
		return &ResultError{
			Kind:        KindConnection,
			Summary:     "Database connection issue",
			Details:     "Unable to connect to the database at this time.",
			Suggestions: []string{"Try again later", "Contact support if the issue persists"},
		}
	case KindDatabaseObject:
		return &ResultError{
			Kind:        KindDatabaseObject,
			Summary:     "Database object not found",
			Details:     fmt.Sprintf("The requested table or view does not exist: %s", raw),
			Suggestions: []string{"Check table names", "Verify database schema"},
		}
	default:
		return &ResultError{
			Kind:        KindUnknown,
			Summary:     "Query execution failed",
			Details:     raw,
			Suggestions: []string{"Try simplifying your request", "Contact support for assistance"},
		}
	}
}
