package params

import (
	"maps"

	"github.com/google/uuid"

	"github.com/getredash/redash-sub002/pkg/models"
)

// New builds the parameter variant selected by def.Type and sets its initial
// value. Unknown or empty types produce a text parameter.
func New(def models.ParameterDefinition, parentQueryID uuid.UUID, opts ...Option) *Parameter {
	p := &Parameter{
		Name:          def.Name,
		Title:         def.Title,
		Kind:          ParseKind(def.Type),
		Global:        def.Global,
		ParentQueryID: parentQueryID,
		opts:          defaultOptions(),
	}
	for _, opt := range opts {
		opt(&p.opts)
	}
	if p.Title == "" {
		p.Title = humanize(p.Name)
	}

	switch p.Kind {
	case KindTextPattern:
		p.Regex = def.Regex
	case KindEnum:
		p.EnumOptions = def.EnumOptions
		p.MultiValuesOptions = cloneMultiValues(def.MultiValuesOptions)
	case KindQuery:
		p.DropdownQueryID = def.QueryID
		p.SearchColumn = def.SearchColumn
		p.StaticParams = maps.Clone(def.StaticParams)
		p.MultiValuesOptions = cloneMultiValues(def.MultiValuesOptions)
	case KindDate, KindDateTime, KindDateTimeWithSeconds:
		p.UseCurrentDateTime = def.UseCurrentDateTime
	}

	p.SetValue(def.Value)
	return p
}

func cloneMultiValues(mv *models.MultiValuesOptions) *models.MultiValuesOptions {
	if mv == nil {
		return nil
	}
	c := *mv
	return &c
}
