// Package params implements typed query parameters: value normalization,
// pending values, URL (de)serialization, execution values and the
// collection that keeps a query's parameters in sync with its text.
package params

// Kind selects the behavior of a Parameter.
type Kind string

const (
	KindText                     Kind = "text"
	KindTextPattern              Kind = "text-pattern"
	KindNumber                   Kind = "number"
	KindEnum                     Kind = "enum"
	KindQuery                    Kind = "query"
	KindDate                     Kind = "date"
	KindDateTime                 Kind = "datetime-local"
	KindDateTimeWithSeconds      Kind = "datetime-with-seconds"
	KindDateRange                Kind = "date-range"
	KindDateTimeRange            Kind = "datetime-range"
	KindDateTimeRangeWithSeconds Kind = "datetime-range-with-seconds"
)

// ParseKind maps a declared type string to a Kind. Unknown or empty types
// are treated as text.
func ParseKind(s string) Kind {
	switch k := Kind(s); k {
	case KindText, KindTextPattern, KindNumber, KindEnum, KindQuery,
		KindDate, KindDateTime, KindDateTimeWithSeconds,
		KindDateRange, KindDateTimeRange, KindDateTimeRangeWithSeconds:
		return k
	default:
		return KindText
	}
}

// IsDate reports whether k holds a single date or datetime.
func (k Kind) IsDate() bool {
	return k == KindDate || k == KindDateTime || k == KindDateTimeWithSeconds
}

// IsDateRange reports whether k holds a start/end pair.
func (k Kind) IsDateRange() bool {
	return k == KindDateRange || k == KindDateTimeRange || k == KindDateTimeRangeWithSeconds
}

// layout returns the Go time layout used to persist and execute values of k.
func (k Kind) layout() string {
	switch k {
	case KindDateTime, KindDateTimeRange:
		return "2006-01-02 15:04"
	case KindDateTimeWithSeconds, KindDateTimeRangeWithSeconds:
		return "2006-01-02 15:04:05"
	default:
		return "2006-01-02"
	}
}
