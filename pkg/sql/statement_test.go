package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeStatement(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{name: "plain select", input: "SELECT 1", expected: "SELECT 1"},
		{name: "trailing semicolon", input: "SELECT 1;", expected: "SELECT 1"},
		{name: "trailing semicolon and whitespace", input: "  SELECT 1 ;\n\t", expected: "SELECT 1"},
		{name: "semicolon in literal", input: "SELECT * FROM t WHERE a = 'x;y'", expected: "SELECT * FROM t WHERE a = 'x;y'"},
		{name: "semicolon in quoted identifier", input: `SELECT * FROM "a;b"`, expected: `SELECT * FROM "a;b"`},
		{name: "escaped quote", input: "SELECT 'O''Brien;'", expected: "SELECT 'O''Brien;'"},
		{name: "semicolon in line comment", input: "SELECT 1 -- a; b\nFROM t", expected: "SELECT 1 -- a; b\nFROM t"},
		{name: "semicolon in block comment", input: "SELECT /* a; b */ 1", expected: "SELECT /* a; b */ 1"},
		{name: "placeholders untouched", input: "SELECT * FROM t WHERE id = {{ id }};", expected: "SELECT * FROM t WHERE id = {{ id }}"},
		{name: "two statements", input: "SELECT 1; SELECT 2", wantErr: true},
		{name: "two statements with trailing semicolon", input: "SELECT 1; DROP TABLE t;", wantErr: true},
		{name: "double trailing semicolon", input: "SELECT 1;;", wantErr: true},
		{name: "separator after comment ends", input: "SELECT 1 /* c */; SELECT 2", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeStatement(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrMultipleStatements)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}
