package params

import (
	"maps"
	"strings"
	"time"
)

// ExecutionOptions tunes how execution values are produced.
type ExecutionOptions struct {
	// JoinListValues joins multi-select values into a single string using
	// the parameter's MultiValuesOptions.
	JoinListValues bool
	// Now overrides the time dynamic values are resolved against.
	Now time.Time
}

// DropdownExecutionValue is the execution value of a query-based dropdown that
// carries a search column or static parameters for its lookup query.
type DropdownExecutionValue struct {
	Value                any            `json:"value"`
	ExecutionParamValues map[string]any `json:"executionParamValues"`
}

// ExecutionValue returns the value substituted into query text. Dynamic values
// are resolved at call time; the parameter is never modified.
func (p *Parameter) ExecutionValue(opts ExecutionOptions) any {
	switch p.Kind {
	case KindDate, KindDateTime, KindDateTimeWithSeconds:
		if d, ok := p.normalized.(*DynamicDate); ok {
			return d.Value(p.now(opts)).Format(p.Kind.layout())
		}
		if p.IsEmpty() && p.UseCurrentDateTime {
			return p.now(opts).Format(p.Kind.layout())
		}
		return p.value

	case KindDateRange, KindDateTimeRange, KindDateTimeRangeWithSeconds:
		if r, ok := p.normalized.(*DynamicDateRange); ok {
			start, end := r.Value(p.now(opts), p.opts.weekStart)
			return RangeValue{
				Start: start.Format(p.Kind.layout()),
				End:   end.Format(p.Kind.layout()),
			}
		}
		return p.value

	case KindEnum:
		return p.listExecutionValue(opts)

	case KindQuery:
		value := p.listExecutionValue(opts)
		if p.SearchColumn == "" && len(p.StaticParams) == 0 {
			return value
		}
		execParams := maps.Clone(p.StaticParams)
		if execParams == nil {
			execParams = make(map[string]any)
		}
		if p.SearchColumn != "" && p.SearchTerm != "" {
			execParams[p.SearchColumn] = p.SearchTerm
		}
		return DropdownExecutionValue{Value: value, ExecutionParamValues: execParams}

	default:
		return p.value
	}
}

func (p *Parameter) listExecutionValue(opts ExecutionOptions) any {
	if !opts.JoinListValues {
		return p.value
	}
	list, ok := asList(p.value)
	if !ok {
		return p.value
	}

	separator, prefix, suffix := ",", "", ""
	if mv := p.MultiValuesOptions; mv != nil {
		if mv.Separator != "" {
			separator = mv.Separator
		}
		prefix, suffix = mv.Prefix, mv.Suffix
	}

	parts := make([]string, len(list))
	for i, v := range list {
		parts[i] = prefix + toString(v) + suffix
	}
	return strings.Join(parts, separator)
}

func (p *Parameter) now(opts ExecutionOptions) time.Time {
	now := opts.Now
	if now.IsZero() {
		now = p.opts.now()
	}
	return now.In(p.opts.location)
}

// Field returns the "start" or "end" member of the range.
func (r RangeValue) Field(name string) (any, bool) {
	switch name {
	case "start":
		return r.Start, true
	case "end":
		return r.End, true
	}
	return nil, false
}

// BindValue returns the selected value without its lookup context.
func (d DropdownExecutionValue) BindValue() any {
	return d.Value
}
