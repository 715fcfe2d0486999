package params

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
)

// dateLayouts are tried in order when parsing date input.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.000",
	"2006-01-02T15:04:05.000",
	time.RFC3339,
	time.RFC3339Nano,
}

// NormalizeValue converts raw into the parameter's semantic form, or nil when
// raw is not a valid value for the parameter. It has no side effects.
func (p *Parameter) NormalizeValue(raw any) any {
	switch p.Kind {
	case KindText:
		return p.normalizeText(raw)
	case KindTextPattern:
		return p.normalizeTextPattern(raw)
	case KindNumber:
		return normalizeNumber(raw)
	case KindEnum:
		return p.normalizeEnum(raw)
	case KindQuery:
		return p.normalizeQuery(raw)
	case KindDate, KindDateTime, KindDateTimeWithSeconds:
		return p.normalizeDate(raw)
	case KindDateRange, KindDateTimeRange, KindDateTimeRangeWithSeconds:
		return p.normalizeDateRange(raw)
	default:
		return raw
	}
}

func (p *Parameter) normalizeText(raw any) any {
	s := toString(raw)
	if s == "" {
		return nil
	}
	return s
}

func (p *Parameter) normalizeTextPattern(raw any) any {
	s := toString(raw)
	if s == "" {
		return nil
	}
	re := p.compiledRegex()
	if re == nil || !re.MatchString(s) {
		return nil
	}
	return s
}

func (p *Parameter) compiledRegex() *regexp.Regexp {
	if p.regex != nil && p.regex.String() == p.Regex {
		return p.regex
	}
	re, err := regexp.Compile(p.Regex)
	if err != nil {
		return nil
	}
	p.regex = re
	return re
}

func normalizeNumber(raw any) any {
	var f float64
	switch v := raw.(type) {
	case nil:
		return nil
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return nil
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}

// enumOptions splits the newline-delimited option list.
func (p *Parameter) enumOptions() []string {
	if p.EnumOptions == "" {
		return nil
	}
	lines := strings.Split(p.EnumOptions, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

func (p *Parameter) normalizeEnum(raw any) any {
	allowed := p.enumOptions()

	if p.isMulti() {
		var values []string
		for _, v := range toList(raw) {
			s := toString(v)
			if slices.Contains(allowed, s) && !slices.Contains(values, s) {
				values = append(values, s)
			}
		}
		if len(values) == 0 {
			return nil
		}
		return values
	}

	if s, ok := raw.(string); ok && slices.Contains(allowed, s) {
		return s
	}
	if p.opts.firstOptionFallback && len(allowed) > 0 {
		return allowed[0]
	}
	return nil
}

func (p *Parameter) normalizeQuery(raw any) any {
	if raw == nil {
		return nil
	}
	list, isList := asList(raw)
	if isList && len(list) == 0 {
		return nil
	}
	if p.isMulti() {
		if isList {
			return list
		}
		return []any{raw}
	}
	if isList {
		return list[0]
	}
	return raw
}

func (p *Parameter) normalizeDate(raw any) any {
	switch v := raw.(type) {
	case *DynamicDate:
		if v == nil {
			return nil
		}
		return v
	case time.Time:
		if v.IsZero() {
			return nil
		}
		return v.In(p.opts.location)
	case string:
		if d := lookupDynamicDate(v); d != nil {
			return d
		}
		if t, ok := p.parseTime(v); ok {
			return t
		}
	}
	return nil
}

func (p *Parameter) normalizeDateRange(raw any) any {
	var start, end any
	switch v := raw.(type) {
	case *DynamicDateRange:
		if v == nil {
			return nil
		}
		return v
	case string:
		if r := lookupDynamicDateRange(v); r != nil {
			return r
		}
		return nil
	case DateRange:
		start, end = v.Start, v.End
	case RangeValue:
		start, end = v.Start, v.End
	case *RangeValue:
		if v == nil {
			return nil
		}
		start, end = v.Start, v.End
	case map[string]any:
		start, end = v["start"], v["end"]
	case map[string]string:
		start, end = v["start"], v["end"]
	default:
		list, ok := asList(raw)
		if !ok || len(list) != 2 {
			return nil
		}
		start, end = list[0], list[1]
	}

	s, ok := p.toTime(start)
	if !ok {
		return nil
	}
	e, ok := p.toTime(end)
	if !ok {
		return nil
	}
	return DateRange{Start: s, End: e}
}

func (p *Parameter) toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t.In(p.opts.location), !t.IsZero()
	case string:
		return p.parseTime(t)
	}
	return time.Time{}, false
}

func (p *Parameter) parseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, p.opts.location); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// toString mirrors loose string conversion: nil becomes "".
func toString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(s), 'f', -1, 32)
	case fmt.Stringer:
		return s.String()
	default:
		return fmt.Sprint(v)
	}
}

// toList wraps scalars into a single-element list; nil yields nil.
func toList(v any) []any {
	if v == nil {
		return nil
	}
	if list, ok := asList(v); ok {
		return list
	}
	return []any{v}
}

// asList converts any slice or array value into []any.
func asList(v any) ([]any, bool) {
	switch l := v.(type) {
	case []any:
		return slices.Clone(l), true
	case []string:
		out := make([]any, len(l))
		for i, s := range l {
			out[i] = s
		}
		return out, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// valuesEqual compares normalized values, treating times as equal instants.
func valuesEqual(a, b any) bool {
	switch x := a.(type) {
	case time.Time:
		y, ok := b.(time.Time)
		return ok && x.Equal(y)
	case DateRange:
		y, ok := b.(DateRange)
		return ok && x.Start.Equal(y.Start) && x.End.Equal(y.End)
	}
	return reflect.DeepEqual(a, b)
}
