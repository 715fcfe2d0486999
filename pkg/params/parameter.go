package params

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/getredash/redash-sub002/pkg/models"
)

// URLPrefix namespaces parameter keys in a URL query string.
const URLPrefix = "p_"

// DateRange is the normalized form of a range parameter.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// RangeValue is the persisted and execution form of a range parameter.
type RangeValue struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Parameter is a named, typed input slot referenced by query text.
//
// The persisted value and its normalized form are always derived together by
// SetValue; the normalized value is never assigned directly.
type Parameter struct {
	Name          string
	Title         string
	Kind          Kind
	Global        bool
	ParentQueryID uuid.UUID

	// KindTextPattern
	Regex string

	// KindEnum
	EnumOptions string

	// KindEnum, KindQuery
	MultiValuesOptions *models.MultiValuesOptions

	// KindQuery
	DropdownQueryID uuid.UUID
	SearchColumn    string
	StaticParams    map[string]any
	SearchTerm      string

	// KindDate, KindDateTime, KindDateTimeWithSeconds
	UseCurrentDateTime bool

	value      any
	normalized any
	pending    any
	hasPending bool

	regex *regexp.Regexp
	opts  options
}

type options struct {
	location            *time.Location
	now                 func() time.Time
	weekStart           time.Weekday
	firstOptionFallback bool
}

func defaultOptions() options {
	return options{
		location:  time.UTC,
		now:       time.Now,
		weekStart: time.Sunday,
	}
}

// Option configures how parameters parse and resolve values.
type Option func(*options)

// WithLocation sets the time zone used to parse dates and resolve dynamic values.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.location = loc
		}
	}
}

// WithClock overrides the clock used to resolve dynamic values.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithWeekStart sets the first day of the week for week-based ranges.
func WithWeekStart(d time.Weekday) Option {
	return func(o *options) {
		o.weekStart = d
	}
}

// WithFirstOptionFallback makes single-select enums fall back to their first
// option when given a value outside the allowed set, instead of becoming empty.
func WithFirstOptionFallback() Option {
	return func(o *options) {
		o.firstOptionFallback = true
	}
}

// Value returns the persisted representation.
func (p *Parameter) Value() any {
	return p.value
}

// NormalizedValue returns the semantic representation: a string, float64,
// []string, []any, time.Time, DateRange, *DynamicDate or *DynamicDateRange.
func (p *Parameter) NormalizedValue() any {
	return p.normalized
}

// IsEmpty reports whether the parameter has no usable value.
func (p *Parameter) IsEmpty() bool {
	return p.normalized == nil
}

// IsEmptyValue reports whether raw would normalize to an empty value.
func (p *Parameter) IsEmptyValue(raw any) bool {
	return p.NormalizeValue(raw) == nil
}

// HasDynamicValue reports whether the value resolves at execution time.
func (p *Parameter) HasDynamicValue() bool {
	switch p.normalized.(type) {
	case *DynamicDate, *DynamicDateRange:
		return true
	}
	return false
}

// SetValue normalizes raw and stores both the persisted and normalized forms.
// Any pending value is discarded.
func (p *Parameter) SetValue(raw any) *Parameter {
	normalized := p.NormalizeValue(raw)
	p.normalized = normalized
	p.value = p.persist(normalized)
	p.ClearPendingValue()
	return p
}

// PendingValue returns the staged value and whether one is staged.
func (p *Parameter) PendingValue() (any, bool) {
	return p.pending, p.hasPending
}

// SetPendingValue stages raw without committing it.
func (p *Parameter) SetPendingValue(raw any) {
	p.pending = p.NormalizeValue(raw)
	p.hasPending = true
}

// HasPendingValue reports whether a staged value differs from the current one.
func (p *Parameter) HasPendingValue() bool {
	return p.hasPending && !valuesEqual(p.pending, p.normalized)
}

// ApplyPendingValue commits the staged value if it differs from the current one.
func (p *Parameter) ApplyPendingValue() {
	if p.HasPendingValue() {
		p.SetValue(p.pending)
	}
}

// ClearPendingValue drops the staged value.
func (p *Parameter) ClearPendingValue() {
	p.pending = nil
	p.hasPending = false
}

// QueryTextFragment returns the placeholder syntax to insert into query text.
func (p *Parameter) QueryTextFragment() string {
	if p.Kind.IsDateRange() {
		return "{{ " + p.Name + ".start }} {{ " + p.Name + ".end }}"
	}
	return "{{ " + p.Name + " }}"
}

// ToDefinition returns the persisted form of the parameter.
func (p *Parameter) ToDefinition() models.ParameterDefinition {
	def := models.ParameterDefinition{
		Name:   p.Name,
		Title:  p.Title,
		Type:   string(p.Kind),
		Value:  p.value,
		Global: p.Global,
	}
	switch p.Kind {
	case KindTextPattern:
		def.Regex = p.Regex
	case KindEnum:
		def.EnumOptions = p.EnumOptions
		def.MultiValuesOptions = p.MultiValuesOptions
	case KindQuery:
		def.QueryID = p.DropdownQueryID
		def.SearchColumn = p.SearchColumn
		def.StaticParams = p.StaticParams
		def.MultiValuesOptions = p.MultiValuesOptions
	case KindDate, KindDateTime, KindDateTimeWithSeconds:
		def.UseCurrentDateTime = p.UseCurrentDateTime
	}
	return def
}

// persist converts a normalized value into the form stored in Value.
func (p *Parameter) persist(normalized any) any {
	switch v := normalized.(type) {
	case *DynamicDate:
		return DynamicPrefix + v.Key
	case *DynamicDateRange:
		return DynamicPrefix + v.Key
	case time.Time:
		return v.Format(p.Kind.layout())
	case DateRange:
		return RangeValue{
			Start: v.Start.Format(p.Kind.layout()),
			End:   v.End.Format(p.Kind.layout()),
		}
	default:
		return normalized
	}
}

func (p *Parameter) isMulti() bool {
	return p.MultiValuesOptions != nil
}

// humanize turns "start_date" into "Start Date".
func humanize(name string) string {
	words := strings.Fields(strings.ReplaceAll(name, "_", " "))
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
