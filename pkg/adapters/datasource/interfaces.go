package datasource

import "context"

// MaxQueryLimit is the hard cap on rows returned by QueryWithParams.
// This protects against unbounded report queries.
const MaxQueryLimit = 1000

// QueryExecutor executes parameterized SELECT statements against a datasource.
// Each implementation owns its connection and must be closed when done.
type QueryExecutor interface {
	// QueryWithParams runs a parameterized SELECT with bounded results.
	// The SQL uses $1, $2, etc. for parameter placeholders; adapters rewrite
	// them to their dialect. The query is always wrapped with a
	// dialect-specific limit:
	//   - PostgreSQL: SELECT * FROM (query) AS _limited LIMIT n
	//   - SQL Server: SELECT TOP (n) * FROM (query) AS _limited
	//
	// limit <= 0 or limit > MaxQueryLimit uses MaxQueryLimit.
	QueryWithParams(ctx context.Context, sqlQuery string, params []any, limit int) (*QueryExecutionResult, error)

	// Close releases any resources held by the executor.
	Close() error
}

// ColumnInfo describes a result column with database-agnostic type information.
type ColumnInfo struct {
	Name string `json:"name"`
	Type string `json:"type"` // Database type name (e.g., "TEXT", "INT4", "VARCHAR")
}

// QueryExecutionResult holds the results from executing a query.
type QueryExecutionResult struct {
	Columns  []ColumnInfo     `json:"columns"`
	Rows     []map[string]any `json:"rows"`
	RowCount int              `json:"row_count"`
}

// ColumnNames returns the result column names in order.
func (r *QueryExecutionResult) ColumnNames() []string {
	names := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		names[i] = c.Name
	}
	return names
}

// EffectiveLimit clamps a requested row limit to (0, MaxQueryLimit].
func EffectiveLimit(limit int) int {
	if limit <= 0 || limit > MaxQueryLimit {
		return MaxQueryLimit
	}
	return limit
}
