package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/getredash/redash-sub002/pkg/adapters/datasource"
	"github.com/getredash/redash-sub002/pkg/apperrors"
	"github.com/getredash/redash-sub002/pkg/audit"
	"github.com/getredash/redash-sub002/pkg/config"
	"github.com/getredash/redash-sub002/pkg/logging"
	"github.com/getredash/redash-sub002/pkg/models"
	"github.com/getredash/redash-sub002/pkg/params"
	"github.com/getredash/redash-sub002/pkg/repositories"
	"github.com/getredash/redash-sub002/pkg/sql"
)

// ReportService resolves saved query parameters and runs the queries.
type ReportService interface {
	// Parameters returns the reconciled parameters of a query with values
	// taken from the URL query map (p_ keys) over the saved defaults.
	Parameters(ctx context.Context, queryID uuid.UUID, urlParams map[string]string) (*params.Parameters, error)

	// Prepare resolves parameter values and turns the query text into
	// positional SQL ready for binding.
	Prepare(ctx context.Context, queryID uuid.UUID, req *ReportRequest) (*PreparedQuery, error)

	// Execute prepares and runs a saved query.
	Execute(ctx context.Context, queryID uuid.UUID, req *ReportRequest) (*datasource.QueryExecutionResult, error)

	// DropdownOptions loads the options of a query-based dropdown parameter.
	DropdownOptions(ctx context.Context, queryID uuid.UUID, paramName string) ([]models.DropdownOption, error)

	// SaveDefaults stores the URL-supplied values as the query's defaults.
	SaveDefaults(ctx context.Context, queryID uuid.UUID, urlParams map[string]string) (*models.Query, error)
}

// ReportRequest carries the caller-supplied inputs of one execution.
type ReportRequest struct {
	URLParams map[string]string `json:"url_params,omitempty"`
	// JoinListValues joins multi-select values into one string instead of
	// binding them as arrays.
	JoinListValues bool `json:"join_list_values,omitempty"`
	Limit          int  `json:"limit,omitempty"` // 0 = configured maximum
	// Now pins dynamic date resolution (zero = current time).
	Now time.Time `json:"-"`
}

// PreparedQuery is a query with its parameters resolved.
type PreparedQuery struct {
	Query     *models.Query  `json:"-"`
	SQL       string         `json:"sql"`
	Args      []any          `json:"args"`
	Values    map[string]any `json:"values"`
	URLParams string         `json:"url_params"`
	// Warnings lists placeholders that sit inside string literals.
	Warnings []string `json:"warnings,omitempty"`
}

type reportService struct {
	queryRepo  repositories.QueryRepository
	executor   datasource.QueryExecutor
	paramOpts  []params.Option
	scanValues bool
	maxRows    int
	auditor    *audit.SecurityAuditor
	logger     *zap.Logger
}

var _ ReportService = (*reportService)(nil)

// NewReportService creates a report service. The executor is shared and is
// not closed by the service.
func NewReportService(
	queryRepo repositories.QueryRepository,
	executor datasource.QueryExecutor,
	cfg *config.Config,
	logger *zap.Logger,
) (ReportService, error) {
	opts, err := ParameterOptions(&cfg.Parameters)
	if err != nil {
		return nil, err
	}
	return &reportService{
		queryRepo:  queryRepo,
		executor:   executor,
		paramOpts:  opts,
		scanValues: cfg.Parameters.ScanValues,
		maxRows:    cfg.Datasource.MaxRows,
		auditor:    audit.NewSecurityAuditor(logger),
		logger:     logger.Named("report"),
	}, nil
}

// ParameterOptions translates parameter configuration into params options.
func ParameterOptions(cfg *config.ParametersConfig) ([]params.Option, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	weekStart, err := cfg.FirstWeekday()
	if err != nil {
		return nil, err
	}
	opts := []params.Option{
		params.WithLocation(loc),
		params.WithWeekStart(weekStart),
	}
	if cfg.EnumFirstOptionFallback {
		opts = append(opts, params.WithFirstOptionFallback())
	}
	return opts, nil
}

func (s *reportService) getQuery(ctx context.Context, queryID uuid.UUID) (*models.Query, error) {
	query, err := s.queryRepo.GetByID(ctx, queryID)
	if err != nil {
		return nil, fmt.Errorf("failed to get query: %w", err)
	}
	return query, nil
}

func (s *reportService) Parameters(ctx context.Context, queryID uuid.UUID, urlParams map[string]string) (*params.Parameters, error) {
	query, err := s.getQuery(ctx, queryID)
	if err != nil {
		return nil, err
	}
	return s.parameters(query, urlParams), nil
}

func (s *reportService) parameters(query *models.Query, urlParams map[string]string) *params.Parameters {
	collection := params.NewParameters(query, s.logger, s.paramOpts...)
	if len(urlParams) > 0 {
		collection.InitFromQueryString(urlParams)
	}
	return collection
}

func (s *reportService) Prepare(ctx context.Context, queryID uuid.UUID, req *ReportRequest) (*PreparedQuery, error) {
	query, err := s.getQuery(ctx, queryID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		req = &ReportRequest{}
	}
	return s.prepare(query, req)
}

func (s *reportService) prepare(query *models.Query, req *ReportRequest) (*PreparedQuery, error) {
	collection := s.parameters(query, req.URLParams)

	if missing := collection.GetMissing(); len(missing) > 0 {
		s.auditor.LogParameterValidation(query.ID, query.Name, missing)
		return nil, fmt.Errorf("%w: %s", apperrors.ErrMissingParameters, strings.Join(missing, ", "))
	}

	values := collection.ExecutionValues(params.ExecutionOptions{
		JoinListValues: req.JoinListValues,
		Now:            req.Now,
	})

	if s.scanValues {
		if results := sql.CheckAllParameters(values); len(results) > 0 {
			for _, r := range results {
				s.auditor.LogInjectionAttempt(query.ID, query.Name, audit.SQLInjectionDetails{
					ParamName:   r.ParamName,
					ParamValue:  fmt.Sprint(r.ParamValue),
					Fingerprint: r.Fingerprint,
				})
			}
			return nil, fmt.Errorf("parameter %q: %w", results[0].ParamName, apperrors.ErrInjectionDetected)
		}
	}

	warnings := sql.FindParametersInStringLiterals(query.QueryText)
	if len(warnings) > 0 {
		s.logger.Warn("Placeholders inside string literals will not be bound",
			zap.String("query_id", query.ID.String()),
			zap.Strings("params", warnings),
		)
	}

	stmt, err := sql.NormalizeStatement(query.QueryText)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", query.ID, err)
	}

	preparedSQL, args, err := sql.SubstituteParameters(stmt, values)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare query %s: %w", query.ID, err)
	}

	return &PreparedQuery{
		Query:     query,
		SQL:       preparedSQL,
		Args:      args,
		Values:    values,
		URLParams: collection.ToURLParams(),
		Warnings:  warnings,
	}, nil
}

func (s *reportService) Execute(ctx context.Context, queryID uuid.UUID, req *ReportRequest) (*datasource.QueryExecutionResult, error) {
	if req == nil {
		req = &ReportRequest{}
	}
	prepared, err := s.Prepare(ctx, queryID, req)
	if err != nil {
		return nil, err
	}

	limit := s.maxRows
	if req.Limit > 0 && (limit <= 0 || req.Limit < limit) {
		limit = req.Limit
	}

	start := time.Now()
	result, err := s.executor.QueryWithParams(ctx, prepared.SQL, prepared.Args, limit)
	if err != nil {
		s.logger.Error("Query execution failed",
			zap.String("query_id", queryID.String()),
			zap.String("query", logging.SanitizeQuery(prepared.SQL)),
			zap.String("error", logging.SanitizeError(err)),
		)
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}

	s.logger.Debug("Executed query",
		zap.String("query_id", queryID.String()),
		zap.Int("rows", result.RowCount),
		zap.Duration("elapsed", time.Since(start)),
	)
	s.auditor.LogQueryExecution(queryID, prepared.Query.Name, prepared.URLParams, result.RowCount)
	return result, nil
}

func (s *reportService) DropdownOptions(ctx context.Context, queryID uuid.UUID, paramName string) ([]models.DropdownOption, error) {
	collection, err := s.Parameters(ctx, queryID, nil)
	if err != nil {
		return nil, err
	}
	for _, p := range collection.Get(true) {
		if p.Name == paramName {
			return p.LoadDropdownValues(ctx, newDropdownLookup(s))
		}
	}
	return nil, fmt.Errorf("parameter %q: %w", paramName, apperrors.ErrNotFound)
}

func (s *reportService) SaveDefaults(ctx context.Context, queryID uuid.UUID, urlParams map[string]string) (*models.Query, error) {
	query, err := s.getQuery(ctx, queryID)
	if err != nil {
		return nil, err
	}

	query.Parameters = s.parameters(query, urlParams).ToDefinitions()
	if err := s.queryRepo.Update(ctx, query); err != nil {
		return nil, fmt.Errorf("failed to update query: %w", err)
	}

	s.logger.Info("Saved parameter defaults",
		zap.String("query_id", queryID.String()),
		zap.Int("params", len(query.Parameters)),
	)
	return query, nil
}
