package models

import (
	"time"

	"github.com/google/uuid"
)

// MultiValuesOptions enables multi-select on enum and query-based dropdown
// parameters. Prefix, Suffix and Separator are used when list values are
// joined into a single execution value.
type MultiValuesOptions struct {
	Prefix    string `json:"prefix" yaml:"prefix"`
	Suffix    string `json:"suffix" yaml:"suffix"`
	Separator string `json:"separator,omitempty" yaml:"separator,omitempty"`
}

// ParameterDefinition is the persisted form of a query parameter.
type ParameterDefinition struct {
	Name  string `json:"name" yaml:"name"`
	Title string `json:"title,omitempty" yaml:"title,omitempty"`
	Type  string `json:"type" yaml:"type"` // text, number, enum, query, date, date-range, ...
	Value any    `json:"value" yaml:"value"`
	// Global is kept for saved queries created before dashboard-level parameters.
	Global bool `json:"global,omitempty" yaml:"global,omitempty"`

	// text-pattern
	Regex string `json:"regex,omitempty" yaml:"regex,omitempty"`

	// enum: newline-delimited list of allowed values
	EnumOptions string `json:"enumOptions,omitempty" yaml:"enum_options,omitempty"`

	// query-based dropdown
	QueryID      uuid.UUID      `json:"queryId,omitempty" yaml:"query_id,omitempty"`
	SearchColumn string         `json:"searchColumn,omitempty" yaml:"search_column,omitempty"`
	StaticParams map[string]any `json:"staticParams,omitempty" yaml:"static_params,omitempty"`

	// date, datetime-local, datetime-with-seconds
	UseCurrentDateTime bool `json:"useCurrentDateTime,omitempty" yaml:"use_current_date_time,omitempty"`

	MultiValuesOptions *MultiValuesOptions `json:"multiValuesOptions,omitempty" yaml:"multi_values_options,omitempty"`
}

// DropdownOption is a single selectable entry for an enum-like parameter.
type DropdownOption struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// Query represents a saved query and the parameters bound to it.
type Query struct {
	ID           uuid.UUID             `json:"id" yaml:"id"`
	Name         string                `json:"name" yaml:"name"`
	DatasourceID string                `json:"datasource_id,omitempty" yaml:"datasource,omitempty"`
	QueryText    string                `json:"query" yaml:"query"`
	Parameters   []ParameterDefinition `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	CreatedAt    time.Time             `json:"created_at" yaml:"created_at,omitempty"`
	UpdatedAt    time.Time             `json:"updated_at" yaml:"updated_at,omitempty"`
}
