package datasource

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/getredash/redash-sub002/pkg/retry"
)

// lazyExecutor connects on first use, so commands that never run SQL never
// open a connection.
type lazyExecutor struct {
	dsType   string
	config   map[string]any
	retryCfg *retry.Config
	logger   *zap.Logger

	mu   sync.Mutex
	exec QueryExecutor
}

var _ QueryExecutor = (*lazyExecutor)(nil)

// NewLazyQueryExecutor returns an executor that creates the real one through
// the registry on the first query. Transient connection failures are retried
// per retryCfg; a failed connect is attempted again on the next query.
func NewLazyQueryExecutor(dsType string, config map[string]any, retryCfg *retry.Config, logger *zap.Logger) QueryExecutor {
	return &lazyExecutor{
		dsType:   dsType,
		config:   config,
		retryCfg: retryCfg,
		logger:   logger.Named("datasource"),
	}
}

func (l *lazyExecutor) connect(ctx context.Context) (QueryExecutor, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.exec != nil {
		return l.exec, nil
	}

	attempt := 0
	exec, err := retry.DoWithResult(ctx, l.retryCfg, func() (QueryExecutor, error) {
		attempt++
		exec, err := NewQueryExecutor(ctx, l.dsType, l.config)
		if err != nil {
			l.logger.Warn("Datasource connection failed",
				zap.String("type", l.dsType),
				zap.Int("attempt", attempt),
				zap.Error(err))
		}
		return exec, err
	})
	if err != nil {
		return nil, err
	}

	l.logger.Debug("Datasource connected", zap.String("type", l.dsType), zap.Int("attempts", attempt))
	l.exec = exec
	return exec, nil
}

func (l *lazyExecutor) QueryWithParams(ctx context.Context, sqlQuery string, params []any, limit int) (*QueryExecutionResult, error) {
	exec, err := l.connect(ctx)
	if err != nil {
		return nil, err
	}
	return exec.QueryWithParams(ctx, sqlQuery, params, limit)
}

func (l *lazyExecutor) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.exec == nil {
		return nil
	}
	err := l.exec.Close()
	l.exec = nil
	return err
}
