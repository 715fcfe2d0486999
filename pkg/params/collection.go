package params

import (
	"net/url"
	"slices"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/getredash/redash-sub002/pkg/logging"
	"github.com/getredash/redash-sub002/pkg/models"
	"github.com/getredash/redash-sub002/pkg/sql"
)

// Parameters is the set of parameters bound to one query. The list is kept in
// sync with the placeholders in the query text each time it is read.
type Parameters struct {
	query  *models.Query
	params []*Parameter
	opts   []Option
	logger *zap.Logger

	// reconciledText is the query text the current list was derived from.
	reconciledText string
	reconciled     bool
}

// NewParameters creates the collection for query from its saved definitions.
// The collection reads query.QueryText on every Get; callers change the text
// on the query itself.
func NewParameters(query *models.Query, logger *zap.Logger, opts ...Option) *Parameters {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Parameters{
		query:  query,
		opts:   opts,
		logger: logger.Named("parameters"),
	}
	for _, def := range query.Parameters {
		c.params = append(c.params, New(def, query.ID, opts...))
	}
	return c
}

// Get returns the current parameters. When updateFromText is true, names are
// re-derived from the query text; otherwise the current names are kept.
// Reconciliation is skipped when the text has not changed since the last call.
func (c *Parameters) Get(updateFromText bool) []*Parameter {
	c.update(updateFromText)
	return c.params
}

func (c *Parameters) update(fromText bool) {
	if c.reconciled && c.reconciledText == c.query.QueryText {
		return
	}
	c.reconciledText = c.query.QueryText
	c.reconciled = true

	names := c.names()
	if fromText {
		names = c.parseNames()
	}

	existing := make(map[string]bool, len(c.params))
	for _, p := range c.params {
		existing[p.Name] = true
	}

	kept := make([]*Parameter, 0, len(names))
	for _, p := range c.params {
		if slices.Contains(names, p.Name) {
			kept = append(kept, p)
		}
	}
	for _, name := range names {
		if !existing[name] {
			kept = append(kept, New(models.ParameterDefinition{
				Name: name,
				Type: string(KindText),
			}, c.query.ID, c.opts...))
		}
	}
	c.params = kept
}

// parseNames reads placeholder names from the query text, falling back to the
// current names when the text cannot be parsed.
func (c *Parameters) parseNames() []string {
	names, err := sql.ParseParameterNames(c.query.QueryText)
	if err != nil {
		c.logger.Warn("Failed parsing parameters, keeping current list",
			zap.String("query_id", c.query.ID.String()),
			zap.String("query", logging.SanitizeQuery(c.query.QueryText)),
			zap.Error(err))
		return c.names()
	}
	return names
}

func (c *Parameters) names() []string {
	names := make([]string, len(c.params))
	for i, p := range c.params {
		names[i] = p.Name
	}
	return names
}

// Add creates a parameter that the query text does not reference yet,
// replacing any parameter with the same name.
func (c *Parameters) Add(def models.ParameterDefinition) *Parameter {
	c.params = slices.DeleteFunc(slices.Clone(c.params), func(p *Parameter) bool {
		return p.Name == def.Name
	})
	p := New(def, c.query.ID, c.opts...)
	c.params = append(c.params, p)
	return p
}

// GetMissing returns the titles of parameters that have no value.
func (c *Parameters) GetMissing() []string {
	var missing []string
	for _, p := range c.Get(true) {
		if p.IsEmpty() {
			missing = append(missing, p.Title)
		}
	}
	return missing
}

// IsRequired reports whether the query has any parameters.
func (c *Parameters) IsRequired() bool {
	return len(c.Get(true)) > 0
}

// ExecutionValues maps each parameter name to its execution value.
func (c *Parameters) ExecutionValues(opts ExecutionOptions) map[string]any {
	params := c.Get(true)
	values := make(map[string]any, len(params))
	for _, p := range params {
		values[p.Name] = p.ExecutionValue(opts)
	}
	return values
}

// HasPendingValues reports whether any parameter has a staged value.
func (c *Parameters) HasPendingValues() bool {
	return slices.ContainsFunc(c.Get(true), (*Parameter).HasPendingValue)
}

// ApplyPendingValues commits every staged value.
func (c *Parameters) ApplyPendingValues() {
	for _, p := range c.Get(true) {
		p.ApplyPendingValue()
	}
}

// InitFromQueryString sets parameter values from a flat URL query map.
func (c *Parameters) InitFromQueryString(query map[string]string) {
	for _, p := range c.Get(true) {
		p.FromURLParams(query)
	}
}

// ToURLParams encodes every non-empty parameter as a URL query string.
func (c *Parameters) ToURLParams() string {
	var pairs []string
	for _, p := range c.Get(true) {
		entries := p.ToURLParams()
		keys := make([]string, 0, len(entries))
		for k := range entries {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if v := entries[k]; v != nil {
				pairs = append(pairs, encodeURIComponent(k)+"="+encodeURIComponent(*v))
			}
		}
	}
	return strings.Join(pairs, "&")
}

// ToDefinitions returns the persisted form of every parameter.
func (c *Parameters) ToDefinitions() []models.ParameterDefinition {
	params := c.Get(true)
	defs := make([]models.ParameterDefinition, len(params))
	for i, p := range params {
		defs[i] = p.ToDefinition()
	}
	return defs
}

func encodeURIComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
