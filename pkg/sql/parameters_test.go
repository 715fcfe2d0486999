package sql

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getredash/redash-sub002/pkg/apperrors"
)

func TestSubstituteParameters(t *testing.T) {
	tests := []struct {
		name           string
		sql            string
		values         map[string]any
		expectedSQL    string
		expectedValues []any
	}{
		{
			name:           "no placeholders",
			sql:            "SELECT * FROM users",
			values:         map[string]any{},
			expectedSQL:    "SELECT * FROM users",
			expectedValues: nil,
		},
		{
			name:           "single placeholder",
			sql:            "SELECT * FROM users WHERE id = {{user_id}}",
			values:         map[string]any{"user_id": "123"},
			expectedSQL:    "SELECT * FROM users WHERE id = $1",
			expectedValues: []any{"123"},
		},
		{
			name:           "whitespace and unescaped tags",
			sql:            "SELECT * FROM users WHERE id = {{ user_id }} AND name = {{& name }}",
			values:         map[string]any{"user_id": float64(7), "name": "Ada"},
			expectedSQL:    "SELECT * FROM users WHERE id = $1 AND name = $2",
			expectedValues: []any{float64(7), "Ada"},
		},
		{
			name:           "reused placeholder keeps its position",
			sql:            "SELECT * FROM transfers WHERE sender = {{ user }} OR receiver = {{user}} AND amount > {{ min }}",
			values:         map[string]any{"user": "u1", "min": float64(10)},
			expectedSQL:    "SELECT * FROM transfers WHERE sender = $1 OR receiver = $1 AND amount > $2",
			expectedValues: []any{"u1", float64(10)},
		},
		{
			name:           "range members",
			sql:            "SELECT * FROM orders WHERE created_at BETWEEN {{ period.start }} AND {{ period.end }}",
			values:         map[string]any{"period": testRange{start: "2024-01-01", end: "2024-01-31"}},
			expectedSQL:    "SELECT * FROM orders WHERE created_at BETWEEN $1 AND $2",
			expectedValues: []any{"2024-01-01", "2024-01-31"},
		},
		{
			name:           "map members",
			sql:            "SELECT {{ filter.column }}",
			values:         map[string]any{"filter": map[string]any{"column": "name"}},
			expectedSQL:    "SELECT $1",
			expectedValues: []any{"name"},
		},
		{
			name:           "dropdown value unwrapped",
			sql:            "SELECT * FROM orders WHERE customer = ANY({{ customers }})",
			values:         map[string]any{"customers": testDropdownValue{value: []any{"a", "b"}}},
			expectedSQL:    "SELECT * FROM orders WHERE customer = ANY($1)",
			expectedValues: []any{[]any{"a", "b"}},
		},
		{
			name:           "nil value is bound",
			sql:            "SELECT {{ a }}",
			values:         map[string]any{"a": nil},
			expectedSQL:    "SELECT $1",
			expectedValues: []any{nil},
		},
		{
			name:           "order of first appearance",
			sql:            "SELECT * FROM t WHERE c = {{ c }} AND a = {{ a }} AND b = {{ b }} AND a2 = {{ a }}",
			values:         map[string]any{"a": 1, "b": 2, "c": 3},
			expectedSQL:    "SELECT * FROM t WHERE c = $1 AND a = $2 AND b = $3 AND a2 = $2",
			expectedValues: []any{3, 1, 2},
		},
		{
			name:           "triple mustache",
			sql:            "SELECT * FROM t WHERE a = {{{ raw }}} AND b = {{{raw}}}",
			values:         map[string]any{"raw": "x"},
			expectedSQL:    "SELECT * FROM t WHERE a = $1 AND b = $1",
			expectedValues: []any{"x"},
		},
		{
			name:           "non-identifier names",
			sql:            "SELECT * FROM t WHERE a = {{ my-param }} AND b = {{ 1st }} AND c = {{ order status }}",
			values:         map[string]any{"my-param": "m", "1st": "f", "order status": "s"},
			expectedSQL:    "SELECT * FROM t WHERE a = $1 AND b = $2 AND c = $3",
			expectedValues: []any{"m", "f", "s"},
		},
		{
			name:           "comments dropped",
			sql:            "SELECT {{! pick\n one }}{{ a }}",
			values:         map[string]any{"a": 1},
			expectedSQL:    "SELECT $1",
			expectedValues: []any{1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, values, err := SubstituteParameters(tt.sql, tt.values)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedSQL, sql)
			assert.Equal(t, tt.expectedValues, values)
		})
	}
}

func TestSubstituteParameters_Errors(t *testing.T) {
	tests := []struct {
		name     string
		sql      string
		values   map[string]any
		wantErr  error
		contains string
	}{
		{
			name:     "missing value",
			sql:      "SELECT * FROM users WHERE id = {{ user_id }} AND org = {{ org }}",
			values:   map[string]any{"user_id": "1"},
			wantErr:  apperrors.ErrMissingParameters,
			contains: "org",
		},
		{
			name:     "unknown member",
			sql:      "SELECT {{ period.middle }}",
			values:   map[string]any{"period": testRange{start: "a", end: "b"}},
			wantErr:  apperrors.ErrMissingParameters,
			contains: "period.middle",
		},
		{
			name:     "member of scalar",
			sql:      "SELECT {{ name.first }}",
			values:   map[string]any{"name": "Ada"},
			wantErr:  apperrors.ErrMissingParameters,
			contains: "name.first",
		},
		{
			name:    "section",
			sql:     "SELECT 1 {{#archived}}AND archived{{/archived}}",
			values:  map[string]any{"archived": true},
			wantErr: apperrors.ErrUnsupportedTemplate,
		},
		{
			name:    "partial",
			sql:     "SELECT {{> filters }}",
			values:  map[string]any{},
			wantErr: apperrors.ErrUnsupportedTemplate,
		},
		{
			name:    "delimiter change",
			sql:     "SELECT {{=<% %>=}} <% a %>",
			values:  map[string]any{"a": 1},
			wantErr: apperrors.ErrUnsupportedTemplate,
		},
		{
			name:     "missing non-identifier name",
			sql:      "SELECT {{ my-param }}",
			values:   map[string]any{},
			wantErr:  apperrors.ErrMissingParameters,
			contains: "my-param",
		},
		{
			name:    "inverted section",
			sql:     "SELECT 1 {{^ archived }}AND NOT archived{{/ archived }}",
			values:  map[string]any{},
			wantErr: apperrors.ErrUnsupportedTemplate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := SubstituteParameters(tt.sql, tt.values)
			require.ErrorIs(t, err, tt.wantErr)
			if tt.contains != "" {
				assert.Contains(t, err.Error(), tt.contains)
			}
		})
	}
}

func TestSubstituteParameters_BindsEveryParsedName(t *testing.T) {
	texts := []string{
		"SELECT * FROM t WHERE a = {{{ raw }}}",
		"SELECT * FROM t WHERE a = {{ my-param }}",
		"SELECT * FROM t WHERE a = {{ 1st }}",
		"SELECT * FROM t WHERE a = {{& amp }} AND b = {{ period.start }} AND c = {{ x }}",
	}

	for _, text := range texts {
		t.Run(text, func(t *testing.T) {
			names, err := ParseParameterNames(text)
			require.NoError(t, err)
			require.NotEmpty(t, names)

			values := make(map[string]any, len(names))
			for _, name := range names {
				values[name] = map[string]any{"start": "s"}
			}
			sql, args, err := SubstituteParameters(text, values)
			require.NoError(t, err)
			assert.NotContains(t, sql, "{")
			assert.Len(t, args, strings.Count(sql, "$"))
		})
	}
}

func TestFindParametersInStringLiterals(t *testing.T) {
	tests := []struct {
		name     string
		sql      string
		expected []string
	}{
		{name: "no parameters", sql: "SELECT * FROM users"},
		{name: "outside string", sql: "SELECT * FROM users WHERE name = {{ name }}"},
		{name: "inside string", sql: "SELECT 'Hello {{name}}' FROM users", expected: []string{"name"}},
		{name: "inside and outside", sql: "SELECT 'Hello {{ name }}' FROM users WHERE id = {{ user_id }}", expected: []string{"name"}},
		{name: "several inside", sql: "SELECT '{{greeting}} {{ name }}!' FROM users", expected: []string{"greeting", "name"}},
		{name: "LIKE pattern", sql: "SELECT * FROM logs WHERE message LIKE '%{{ search }}%'", expected: []string{"search"}},
		{name: "escaped quotes", sql: "SELECT 'It''s {{name}}''s turn' FROM users", expected: []string{"name"}},
		{name: "empty literal", sql: "SELECT '' FROM users WHERE id = {{ user_id }}"},
		{name: "dotted reference reports root", sql: "SELECT 'from {{ period.start }}'", expected: []string{"period"}},
		{name: "reported once", sql: "SELECT '{{name}} says hello to {{name}}' FROM users", expected: []string{"name"}},
		{name: "triple mustache", sql: "SELECT 'Hi {{{ name }}}'", expected: []string{"name"}},
		{name: "concatenation", sql: "SELECT 'Hello ' || {{ name }} FROM users"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FindParametersInStringLiterals(tt.sql))
		})
	}
}
