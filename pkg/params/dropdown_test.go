package params

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getredash/redash-sub002/pkg/apperrors"
	"github.com/getredash/redash-sub002/pkg/models"
)

type mockDropdownLookup struct {
	rows *DropdownRows
	err  error

	asDropdownCalls []uuid.UUID
	associatedCalls [][2]uuid.UUID
}

func (m *mockDropdownLookup) AsDropdown(_ context.Context, queryID uuid.UUID) (*DropdownRows, error) {
	m.asDropdownCalls = append(m.asDropdownCalls, queryID)
	return m.rows, m.err
}

func (m *mockDropdownLookup) AssociatedDropdown(_ context.Context, parentQueryID, dropdownQueryID uuid.UUID) (*DropdownRows, error) {
	m.associatedCalls = append(m.associatedCalls, [2]uuid.UUID{parentQueryID, dropdownQueryID})
	return m.rows, m.err
}

func TestLoadDropdownValues(t *testing.T) {
	dropdownID := uuid.New()
	parentID := uuid.New()
	rows := &DropdownRows{
		Columns: []string{"value", "name"},
		Rows: []map[string]any{
			{"value": 1, "name": "One"},
			{"value": 2, "name": "Two"},
		},
	}
	expected := []models.DropdownOption{{Name: "One", Value: 1}, {Name: "Two", Value: 2}}

	t.Run("standalone", func(t *testing.T) {
		lookup := &mockDropdownLookup{rows: rows}
		p := New(models.ParameterDefinition{Name: "n", Type: "query", QueryID: dropdownID}, uuid.Nil)

		options, err := p.LoadDropdownValues(context.Background(), lookup)
		require.NoError(t, err)
		assert.Equal(t, expected, options)
		assert.Equal(t, []uuid.UUID{dropdownID}, lookup.asDropdownCalls)
		assert.Empty(t, lookup.associatedCalls)
	})

	t.Run("scoped to parent query", func(t *testing.T) {
		lookup := &mockDropdownLookup{rows: rows}
		p := New(models.ParameterDefinition{Name: "n", Type: "query", QueryID: dropdownID}, parentID)

		options, err := p.LoadDropdownValues(context.Background(), lookup)
		require.NoError(t, err)
		assert.Equal(t, expected, options)
		assert.Equal(t, [][2]uuid.UUID{{parentID, dropdownID}}, lookup.associatedCalls)
		assert.Empty(t, lookup.asDropdownCalls)
	})

	t.Run("lookup error", func(t *testing.T) {
		lookup := &mockDropdownLookup{err: errors.New("boom")}
		p := New(models.ParameterDefinition{Name: "n", Type: "query", QueryID: dropdownID}, uuid.Nil)

		_, err := p.LoadDropdownValues(context.Background(), lookup)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "boom")
	})

	t.Run("no dropdown query", func(t *testing.T) {
		p := New(models.ParameterDefinition{Name: "n", Type: "query"}, uuid.Nil)
		_, err := p.LoadDropdownValues(context.Background(), &mockDropdownLookup{})
		assert.ErrorIs(t, err, apperrors.ErrNoDropdownQuery)
	})

	t.Run("not a dropdown", func(t *testing.T) {
		p := New(models.ParameterDefinition{Name: "n", Type: "enum"}, uuid.Nil)
		_, err := p.LoadDropdownValues(context.Background(), &mockDropdownLookup{})
		assert.Error(t, err)
	})
}

func TestMapDropdownRows(t *testing.T) {
	tests := []struct {
		name     string
		rows     *DropdownRows
		expected []models.DropdownOption
	}{
		{
			name:     "nil rows",
			rows:     nil,
			expected: []models.DropdownOption{},
		},
		{
			name:     "no columns",
			rows:     &DropdownRows{},
			expected: []models.DropdownOption{},
		},
		{
			name: "first column supplies name and value",
			rows: &DropdownRows{
				Columns: []string{"code", "other"},
				Rows:    []map[string]any{{"code": "A", "other": "x"}, {"code": 2.5, "other": "y"}},
			},
			expected: []models.DropdownOption{{Name: "A", Value: "A"}, {Name: "2.5", Value: 2.5}},
		},
		{
			name: "value column only",
			rows: &DropdownRows{
				Columns: []string{"label", "value"},
				Rows:    []map[string]any{{"label": "L", "value": "v"}},
			},
			expected: []models.DropdownOption{{Name: "L", Value: "v"}},
		},
		{
			name: "name column only",
			rows: &DropdownRows{
				Columns: []string{"id", "name"},
				Rows:    []map[string]any{{"id": 3, "name": "Three"}},
			},
			expected: []models.DropdownOption{{Name: "Three", Value: 3}},
		},
		{
			name: "null cells",
			rows: &DropdownRows{
				Columns: []string{"value"},
				Rows:    []map[string]any{{"value": nil}},
			},
			expected: []models.DropdownOption{{Name: "", Value: nil}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MapDropdownRows(tt.rows))
		})
	}
}
