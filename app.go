package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/getredash/redash-sub002/pkg/adapters/datasource"
	"github.com/getredash/redash-sub002/pkg/config"
	"github.com/getredash/redash-sub002/pkg/logging"
	"github.com/getredash/redash-sub002/pkg/params"
	"github.com/getredash/redash-sub002/pkg/repositories"
	"github.com/getredash/redash-sub002/pkg/retry"
	"github.com/getredash/redash-sub002/pkg/services"
)

// app holds the wired dependencies of one command invocation.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	queries  repositories.QueryRepository
	executor datasource.QueryExecutor
	reports  services.ReportService
}

func newApp(opts *rootOptions) (*app, error) {
	cfg, err := config.Load(opts.configPath, Version)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	queries, err := repositories.NewFileQueryRepository(cfg.QueriesFile)
	if err != nil {
		return nil, err
	}

	retryCfg := retry.DefaultConfig()
	retryCfg.MaxRetries = cfg.Datasource.ConnectRetries
	executor := datasource.NewLazyQueryExecutor(cfg.Datasource.Type, cfg.Datasource.AdapterConfig(), retryCfg, logger)

	reports, err := services.NewReportService(queries, executor, cfg, logger)
	if err != nil {
		_ = executor.Close()
		return nil, err
	}

	logger.Debug("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("version", cfg.Version),
		zap.String("queries_file", cfg.QueriesFile),
		zap.String("datasource", cfg.Datasource.Type),
		zap.String("timezone", cfg.Parameters.Timezone),
		zap.String("week_start", cfg.Parameters.WeekStart),
	)

	return &app{
		cfg:      cfg,
		logger:   logger,
		queries:  queries,
		executor: executor,
		reports:  reports,
	}, nil
}

func (a *app) Close() {
	if err := a.executor.Close(); err != nil {
		a.logger.Warn("Failed to close datasource", zap.Error(err))
	}
	_ = a.logger.Sync()
}

func parseQueryID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid query id %q: %w", s, err)
	}
	return id, nil
}

// parseURLArgs merges URL query fragments ("p_a=1&p_b=2", "?p_c=3") into one
// map. Later arguments win.
func parseURLArgs(args []string) (map[string]string, error) {
	merged := make(map[string]string)
	for _, arg := range args {
		values, err := url.ParseQuery(strings.TrimPrefix(arg, "?"))
		if err != nil {
			return nil, fmt.Errorf("invalid parameter argument %q: %w", arg, err)
		}
		for k, v := range params.FlattenQuery(values) {
			merged[k] = v
		}
	}
	return merged, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
