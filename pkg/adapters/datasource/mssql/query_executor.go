package mssql

import (
	"context"
	dbsql "database/sql"
	"fmt"
	"regexp"
	"strings"

	_ "github.com/microsoft/go-mssqldb" // registers the "sqlserver" driver

	"github.com/getredash/redash-sub002/pkg/adapters/datasource"
	"github.com/getredash/redash-sub002/pkg/logging"
)

// positionalParamRegex matches PostgreSQL-style $N placeholders.
var positionalParamRegex = regexp.MustCompile(`\$(\d+)`)

// QueryExecutor provides SQL Server query execution.
type QueryExecutor struct {
	db *dbsql.DB
}

// NewQueryExecutor opens a SQL Server connection pool and verifies it.
func NewQueryExecutor(ctx context.Context, cfg *Config) (*QueryExecutor, error) {
	db, err := dbsql.Open("sqlserver", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("open SQL Server connection: %s", logging.SanitizeError(err))
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to SQL Server: %s", logging.SanitizeError(err))
	}
	return &QueryExecutor{db: db}, nil
}

// QueryWithParams runs a parameterized SELECT with bounded results.
// $N placeholders are rewritten to @pN and values are passed positionally.
func (e *QueryExecutor) QueryWithParams(ctx context.Context, sqlQuery string, params []any, limit int) (*datasource.QueryExecutionResult, error) {
	queryToRun := fmt.Sprintf("SELECT TOP (%d) * FROM (%s) AS _limited",
		datasource.EffectiveLimit(limit), convertPositionalParams(sqlQuery))

	args := make([]any, len(params))
	for i, p := range params {
		args[i] = dbsql.Named(fmt.Sprintf("p%d", i+1), p)
	}

	rows, err := e.db.QueryContext(ctx, queryToRun, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute parameterized query: %w", err)
	}
	defer rows.Close()

	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to get column types: %w", err)
	}

	columns := make([]datasource.ColumnInfo, len(columnTypes))
	for i, ct := range columnTypes {
		columns[i] = datasource.ColumnInfo{
			Name: ct.Name(),
			Type: mapSQLServerType(ct.DatabaseTypeName()),
		}
	}

	resultRows := make([]map[string]any, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		rowMap := make(map[string]any, len(columns))
		for i, col := range columns {
			val := values[i]
			// Character data comes back as []byte
			if b, ok := val.([]byte); ok && isStringType(columnTypes[i].DatabaseTypeName()) {
				val = string(b)
			}
			rowMap[col.Name] = val
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
	return e.db.Close()
}

// convertPositionalParams converts $1, $2, ... to SQL Server named parameters @p1, @p2, ...
func convertPositionalParams(query string) string {
	return positionalParamRegex.ReplaceAllString(query, "@p$1")
}

// mapSQLServerType maps SQL Server type names to standard type names.
func mapSQLServerType(sqlServerType string) string {
	switch t := strings.ToUpper(sqlServerType); t {
	case "INT":
		return "INTEGER"
	case "DECIMAL", "NUMERIC":
		return "NUMERIC"
	case "MONEY", "SMALLMONEY":
		return "MONEY"
	case "FLOAT":
		return "DOUBLE PRECISION"
	case "CHAR", "NCHAR":
		return "CHAR"
	case "VARCHAR", "NVARCHAR":
		return "VARCHAR"
	case "TEXT", "NTEXT":
		return "TEXT"
	case "BINARY", "VARBINARY":
		return "BYTEA"
	case "DATETIME", "DATETIME2", "SMALLDATETIME":
		return "TIMESTAMP"
	case "DATETIMEOFFSET":
		return "TIMESTAMP WITH TIME ZONE"
	case "BIT":
		return "BOOLEAN"
	case "UNIQUEIDENTIFIER":
		return "UUID"
	default:
		return t
	}
}

func isStringType(sqlType string) bool {
	switch strings.ToUpper(sqlType) {
	case "CHAR", "VARCHAR", "NCHAR", "NVARCHAR", "TEXT", "NTEXT", "XML":
		return true
	}
	return false
}

var _ datasource.QueryExecutor = (*QueryExecutor)(nil)
