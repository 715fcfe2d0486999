//go:build integration

package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getredash/redash-sub002/pkg/adapters/datasource"
	_ "github.com/getredash/redash-sub002/pkg/adapters/datasource/postgres"
	"github.com/getredash/redash-sub002/pkg/testhelpers"
)

func newExecutor(t *testing.T) datasource.QueryExecutor {
	t.Helper()
	testDB := testhelpers.GetTestDB(t)

	exec, err := datasource.NewQueryExecutor(context.Background(), "postgres", testDB.AdapterConfig)
	require.NoError(t, err)
	t.Cleanup(func() { _ = exec.Close() })
	return exec
}

func TestQueryExecutor_BindsPositionalParameters(t *testing.T) {
	exec := newExecutor(t)

	result, err := exec.QueryWithParams(context.Background(),
		"SELECT customer, amount FROM orders WHERE status = $1 AND created_at BETWEEN $2 AND $3 ORDER BY id",
		[]any{"pending", "2024-02-01", "2024-02-29"}, 0)
	require.NoError(t, err)

	assert.Equal(t, []string{"customer", "amount"}, result.ColumnNames())
	assert.Equal(t, "NUMERIC", result.Columns[1].Type)
	require.Equal(t, 2, result.RowCount)
	assert.Equal(t, "acme", result.Rows[0]["customer"])
	assert.Equal(t, "initech", result.Rows[1]["customer"])
}

func TestQueryExecutor_BindsListsAsArrays(t *testing.T) {
	exec := newExecutor(t)

	result, err := exec.QueryWithParams(context.Background(),
		"SELECT DISTINCT customer FROM orders WHERE customer = ANY($1) ORDER BY customer",
		[]any{[]string{"globex", "initech"}}, 0)
	require.NoError(t, err)

	require.Equal(t, 2, result.RowCount)
	assert.Equal(t, "globex", result.Rows[0]["customer"])
}

func TestQueryExecutor_AppliesLimit(t *testing.T) {
	exec := newExecutor(t)

	result, err := exec.QueryWithParams(context.Background(), "SELECT id FROM orders ORDER BY id", nil, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, result.RowCount)
}

func TestQueryExecutor_ReportsSQLErrors(t *testing.T) {
	exec := newExecutor(t)

	_, err := exec.QueryWithParams(context.Background(), "SELECT * FROM no_such_table", nil, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to execute parameterized query")
}
