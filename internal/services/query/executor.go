package query

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/mosefak/medchat/internal/models"
	"github.com/mosefak/medchat/internal/services/cache"
	"github.com/mosefak/medchat/internal/sqlguard"
	"github.com/sirupsen/logrus"
)

// Sentinel is the canonical candidate-query value meaning "no query can
// answer this request".
const Sentinel = "Not Available"

// NoDataNotice is the fixed result returned for the sentinel.
const NoDataNotice = "No data available."

const defaultMaxRetries = 3

// CacheMetrics records result-cache effectiveness. A nil value disables
// recording.
type CacheMetrics interface {
	RecordCacheHit()
	RecordCacheMiss()
}

// Executor runs validated candidate queries against the pooled
// connection: sentinel short-circuit, cache lookup, safety validation,
// execution with bounded retry, and error classification. It never
// propagates a raw connection error.
type Executor struct {
	db          *sql.DB
	cache       cache.Service
	metrics     CacheMetrics
	logger      *logrus.Logger
	maxRetries  int
	backoffBase time.Duration
}

// NewExecutor creates a query executor
func NewExecutor(db *sql.DB, cacheService cache.Service, metrics CacheMetrics, logger *logrus.Logger) *Executor {
	return &Executor{
		db:          db,
		cache:       cacheService,
		metrics:     metrics,
		logger:      logger,
		maxRetries:  defaultMaxRetries,
		backoffBase: time.Second,
	}
}

// Execute runs one candidate query for the given identity.
func (e *Executor) Execute(ctx context.Context, candidate string, identity models.Identity) Result {
	trimmed := strings.TrimSpace(candidate)
	if strings.EqualFold(trimmed, Sentinel) {
		return Result{Notice: NoDataNotice}
	}

	if rows, found := e.cache.Get(ctx, candidate, nil, identity); found {
		if e.metrics != nil {
			e.metrics.RecordCacheHit()
		}
		return Result{Rows: rows}
	}
	if e.metrics != nil {
		e.metrics.RecordCacheMiss()
	}

	if verdict := sqlguard.Validate(candidate); !verdict.Safe {
		e.logger.WithFields(logrus.Fields{
			"reason": verdict.Reason,
			"role":   identity.Role,
		}).Warn("Candidate query blocked by security policy")
		return Result{Err: &ResultError{
			Kind:        KindPolicyViolation,
			Summary:     "Blocked due to security policy",
			Details:     verdict.Reason,
			Suggestions: []string{"Rephrase your request as a data question", "Only read-only lookups are supported"},
		}}
	}

	rows, err := e.runWithRetry(ctx, candidate)
	if err != nil {
		kind := ClassifyError(err)
		e.logger.WithError(err).WithField("kind", kind).Warn("Query execution failed")
		return Result{Err: errorResult(kind, err)}
	}

	if err := e.cache.Set(ctx, candidate, nil, identity, rows); err != nil {
		e.logger.WithError(err).Warn("Failed to cache query result")
	}

	return Result{Rows: rows}
}

// runWithRetry retries transient failures with exponential backoff
// (1s, 2s, 4s) up to maxRetries extra attempts. Non-transient failures
// surface immediately.
func (e *Executor) runWithRetry(ctx context.Context, q string) ([][]any, error) {
	var lastErr error

	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := e.backoffBase << uint(attempt-1)
			e.logger.WithFields(logrus.Fields{
				"attempt": attempt,
				"backoff": backoff,
			}).Warn("Transient database error, retrying")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		rows, err := e.fetchAll(ctx, q)
		if err == nil {
			return rows, nil
		}
		lastErr = err

		if ClassifyError(err) != KindTransient {
			return nil, err
		}
	}

	return nil, lastErr
}

// fetchAll executes the query and materializes every row as a tuple.
// Connection checkout and release are scoped to this call on every exit
// path.
func (e *Executor) fetchAll(ctx context.Context, q string) ([][]any, error) {
	rows, err := e.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	out := make([][]any, 0)
	for rows.Next() {
		values := make([]any, len(cols))
		scanTargets := make([]any, len(cols))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return nil, err
		}
		for i, v := range values {
			// Drivers hand back []byte for text columns; normalize so
			// cached tuples serialize cleanly.
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		out = append(out, values)
	}

	return out, rows.Err()
}
