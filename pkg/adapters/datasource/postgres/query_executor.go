package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/getredash/redash-sub002/pkg/adapters/datasource"
	"github.com/getredash/redash-sub002/pkg/logging"
)

// QueryExecutor provides PostgreSQL query execution.
type QueryExecutor struct {
	pool *pgxpool.Pool
}

// NewQueryExecutor opens a connection pool for cfg.
func NewQueryExecutor(ctx context.Context, cfg *Config) (*QueryExecutor, error) {
	pool, err := pgxpool.New(ctx, cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %s", logging.SanitizeError(err))
	}
	// pgxpool connects lazily; ping so connection errors surface here.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	return &QueryExecutor{pool: pool}, nil
}

// QueryWithParams runs a parameterized SQL query with positional parameters.
// pgx binds the values natively; slices bind as arrays.
func (e *QueryExecutor) QueryWithParams(ctx context.Context, sqlQuery string, params []any, limit int) (*datasource.QueryExecutionResult, error) {
	queryToRun := fmt.Sprintf("SELECT * FROM (%s) AS _limited LIMIT %d", sqlQuery, datasource.EffectiveLimit(limit))

	rows, err := e.pool.Query(ctx, queryToRun, params...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute parameterized query: %w", err)
	}
	defer rows.Close()

	typeMap := rows.Conn().TypeMap()
	fieldDescs := rows.FieldDescriptions()
	columns := make([]datasource.ColumnInfo, len(fieldDescs))
	for i, fd := range fieldDescs {
		columns[i] = datasource.ColumnInfo{
			Name: fd.Name,
			Type: typeName(typeMap, fd.DataTypeOID),
		}
	}

	resultRows := make([]map[string]any, 0)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to read row values: %w", err)
		}

		rowMap := make(map[string]any, len(columns))
		for i, col := range columns {
			rowMap[col.Name] = values[i]
		}
		resultRows = append(resultRows, rowMap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return &datasource.QueryExecutionResult{
		Columns:  columns,
		Rows:     resultRows,
		RowCount: len(resultRows),
	}, nil
}

// Close releases the connection pool.
func (e *QueryExecutor) Close() error {
	e.pool.Close()
	return nil
}

// typeName resolves a column type OID through the connection's type map,
// e.g. "INT4", "NUMERIC" or "TEXT[]".
func typeName(typeMap *pgtype.Map, oid uint32) string {
	t, ok := typeMap.TypeForOID(oid)
	if !ok {
		return "UNKNOWN"
	}
	if elem, isArray := strings.CutPrefix(t.Name, "_"); isArray {
		return strings.ToUpper(elem) + "[]"
	}
	return strings.ToUpper(t.Name)
}

var _ datasource.QueryExecutor = (*QueryExecutor)(nil)
