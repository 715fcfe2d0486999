package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/getredash/redash-sub002/pkg/apperrors"
	"github.com/getredash/redash-sub002/pkg/params"
)

// dropdownLookup runs dropdown queries through the report service's executor
// using each dropdown query's saved default values.
type dropdownLookup struct {
	svc *reportService
}

var _ params.DropdownLookup = (*dropdownLookup)(nil)

func newDropdownLookup(svc *reportService) *dropdownLookup {
	return &dropdownLookup{svc: svc}
}

func (l *dropdownLookup) AsDropdown(ctx context.Context, queryID uuid.UUID) (*params.DropdownRows, error) {
	query, err := l.svc.getQuery(ctx, queryID)
	if err != nil {
		return nil, err
	}

	prepared, err := l.svc.prepare(query, &ReportRequest{})
	if err != nil {
		return nil, err
	}

	result, err := l.svc.executor.QueryWithParams(ctx, prepared.SQL, prepared.Args, l.svc.maxRows)
	if err != nil {
		return nil, fmt.Errorf("failed to run dropdown query %s: %w", queryID, err)
	}

	l.svc.logger.Debug("Loaded dropdown rows",
		zap.String("dropdown_query_id", queryID.String()),
		zap.Int("rows", result.RowCount),
	)
	return &params.DropdownRows{
		Columns: result.ColumnNames(),
		Rows:    result.Rows,
	}, nil
}

// AssociatedDropdown only runs dropdown queries that one of the parent
// query's parameters actually references.
func (l *dropdownLookup) AssociatedDropdown(ctx context.Context, parentQueryID, dropdownQueryID uuid.UUID) (*params.DropdownRows, error) {
	parent, err := l.svc.getQuery(ctx, parentQueryID)
	if err != nil {
		return nil, err
	}

	associated := false
	for _, def := range parent.Parameters {
		if params.ParseKind(def.Type) == params.KindQuery && def.QueryID == dropdownQueryID {
			associated = true
			break
		}
	}
	if !associated {
		return nil, fmt.Errorf("dropdown query %s is not associated with query %s: %w",
			dropdownQueryID, parentQueryID, apperrors.ErrNotFound)
	}

	return l.AsDropdown(ctx, dropdownQueryID)
}
