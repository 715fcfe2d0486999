package params

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/getredash/redash-sub002/pkg/apperrors"
	"github.com/getredash/redash-sub002/pkg/models"
)

// DropdownRows is the result of a dropdown lookup query.
type DropdownRows struct {
	Columns []string
	Rows    []map[string]any
}

// DropdownLookup runs the query that backs a query-based dropdown.
type DropdownLookup interface {
	// AsDropdown runs the dropdown query on its own.
	AsDropdown(ctx context.Context, queryID uuid.UUID) (*DropdownRows, error)
	// AssociatedDropdown runs the dropdown query in the scope of the query
	// that owns the parameter.
	AssociatedDropdown(ctx context.Context, parentQueryID, dropdownQueryID uuid.UUID) (*DropdownRows, error)
}

// LoadDropdownValues fetches the selectable options of a query-based dropdown.
func (p *Parameter) LoadDropdownValues(ctx context.Context, lookup DropdownLookup) ([]models.DropdownOption, error) {
	if p.Kind != KindQuery {
		return nil, fmt.Errorf("parameter %q is not a query-based dropdown", p.Name)
	}
	if p.DropdownQueryID == uuid.Nil {
		return nil, fmt.Errorf("parameter %q: %w", p.Name, apperrors.ErrNoDropdownQuery)
	}

	var (
		rows *DropdownRows
		err  error
	)
	if p.ParentQueryID != uuid.Nil {
		rows, err = lookup.AssociatedDropdown(ctx, p.ParentQueryID, p.DropdownQueryID)
	} else {
		rows, err = lookup.AsDropdown(ctx, p.DropdownQueryID)
	}
	if err != nil {
		return nil, fmt.Errorf("load dropdown values for %q: %w", p.Name, err)
	}
	return MapDropdownRows(rows), nil
}

// MapDropdownRows turns lookup rows into options. Columns named "name" and
// "value" are used when present; otherwise the first column supplies both.
func MapDropdownRows(rows *DropdownRows) []models.DropdownOption {
	if rows == nil || len(rows.Columns) == 0 {
		return []models.DropdownOption{}
	}

	nameCol, valueCol := rows.Columns[0], rows.Columns[0]
	if slices.Contains(rows.Columns, "name") {
		nameCol = "name"
	}
	if slices.Contains(rows.Columns, "value") {
		valueCol = "value"
	}

	options := make([]models.DropdownOption, 0, len(rows.Rows))
	for _, row := range rows.Rows {
		options = append(options, models.DropdownOption{
			Name:  toString(row[nameCol]),
			Value: row[valueCol],
		})
	}
	return options
}
