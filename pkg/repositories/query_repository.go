package repositories

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/getredash/redash-sub002/pkg/apperrors"
	"github.com/getredash/redash-sub002/pkg/models"
)

// QueryRepository provides data access for saved queries.
type QueryRepository interface {
	GetByID(ctx context.Context, queryID uuid.UUID) (*models.Query, error)
	List(ctx context.Context) ([]*models.Query, error)
	// Update replaces a saved query, e.g. after its parameters were reconciled.
	Update(ctx context.Context, query *models.Query) error
}

// queryCatalog is the on-disk layout of the queries file.
type queryCatalog struct {
	Queries []*models.Query `yaml:"queries"`
}

type fileQueryRepository struct {
	path string

	mu      sync.RWMutex
	queries map[uuid.UUID]*models.Query
}

// NewFileQueryRepository loads the YAML query catalog at path.
// A missing file yields an empty catalog.
func NewFileQueryRepository(path string) (QueryRepository, error) {
	r := &fileQueryRepository{
		path:    path,
		queries: make(map[uuid.UUID]*models.Query),
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return r, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read query catalog: %w", err)
	}

	var catalog queryCatalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse query catalog %s: %w", path, err)
	}
	for i, q := range catalog.Queries {
		if q.ID == uuid.Nil {
			return nil, fmt.Errorf("query #%d (%q) has no id", i+1, q.Name)
		}
		if _, dup := r.queries[q.ID]; dup {
			return nil, fmt.Errorf("query %s: %w", q.ID, apperrors.ErrConflict)
		}
		r.queries[q.ID] = q
	}
	return r, nil
}

var _ QueryRepository = (*fileQueryRepository)(nil)

func (r *fileQueryRepository) GetByID(ctx context.Context, queryID uuid.UUID) (*models.Query, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q, ok := r.queries[queryID]
	if !ok {
		return nil, fmt.Errorf("query %s: %w", queryID, apperrors.ErrNotFound)
	}
	return cloneQuery(q), nil
}

func (r *fileQueryRepository) List(ctx context.Context) ([]*models.Query, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*models.Query, 0, len(r.queries))
	for _, q := range r.queries {
		result = append(result, cloneQuery(q))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (r *fileQueryRepository) Update(ctx context.Context, query *models.Query) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.queries[query.ID]; !ok {
		return fmt.Errorf("query %s: %w", query.ID, apperrors.ErrNotFound)
	}

	updated := cloneQuery(query)
	updated.UpdatedAt = time.Now().UTC()
	previous := r.queries[query.ID]
	r.queries[query.ID] = updated

	if err := r.save(); err != nil {
		r.queries[query.ID] = previous
		return err
	}
	query.UpdatedAt = updated.UpdatedAt
	return nil
}

// save writes the catalog atomically. Caller holds the write lock.
func (r *fileQueryRepository) save() error {
	catalog := queryCatalog{Queries: make([]*models.Query, 0, len(r.queries))}
	for _, q := range r.queries {
		catalog.Queries = append(catalog.Queries, q)
	}
	sort.Slice(catalog.Queries, func(i, j int) bool {
		return catalog.Queries[i].ID.String() < catalog.Queries[j].ID.String()
	})

	data, err := yaml.Marshal(&catalog)
	if err != nil {
		return fmt.Errorf("failed to encode query catalog: %w", err)
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write query catalog: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("failed to replace query catalog: %w", err)
	}
	return nil
}

func cloneQuery(q *models.Query) *models.Query {
	c := *q
	c.Parameters = append([]models.ParameterDefinition(nil), q.Parameters...)
	return &c
}
