package params

import (
	"encoding/json"
	"net/url"
	"strings"
)

// SearchTermSeparator splits a dropdown search term from its value in URLs.
const SearchTermSeparator = "|-|"

// rangeSeparator joins range ends in the combined URL key.
const rangeSeparator = "--"

// URLKey returns the query-string key for the parameter.
func (p *Parameter) URLKey() string {
	return URLPrefix + p.Name
}

// ToURLParams returns the URL entries for the parameter. A nil value means
// the key should be removed from the URL.
func (p *Parameter) ToURLParams() map[string]*string {
	key := p.URLKey()
	if p.IsEmpty() {
		return map[string]*string{key: nil}
	}

	var encoded string
	switch p.Kind {
	case KindDateRange, KindDateTimeRange, KindDateTimeRangeWithSeconds:
		if r, ok := p.value.(RangeValue); ok {
			encoded = r.Start + rangeSeparator + r.End
		} else {
			encoded = toString(p.value)
		}

	case KindEnum, KindQuery:
		encoded = p.encodeList()
		if p.Kind == KindQuery && p.SearchColumn != "" && p.SearchTerm != "" {
			encoded = p.SearchTerm + SearchTermSeparator + encoded
		}

	default:
		encoded = toString(p.value)
	}
	return map[string]*string{key: &encoded}
}

func (p *Parameter) encodeList() string {
	if !p.isMulti() {
		return toString(p.value)
	}
	if _, ok := asList(p.value); !ok {
		return toString(p.value)
	}
	b, err := json.Marshal(p.value)
	if err != nil {
		return toString(p.value)
	}
	return string(b)
}

// FromURLParams reads the parameter's keys out of a flat query map and sets
// the value when present. Absent keys leave the parameter unchanged.
func (p *Parameter) FromURLParams(query map[string]string) {
	key := p.URLKey()

	switch p.Kind {
	case KindDateRange, KindDateTimeRange, KindDateTimeRangeWithSeconds:
		if raw, ok := query[key]; ok {
			if dates := strings.Split(raw, rangeSeparator); len(dates) == 2 {
				p.SetValue(dates)
			} else {
				p.SetValue(raw)
			}
			return
		}
		start, hasStart := query[key+".start"]
		end, hasEnd := query[key+".end"]
		if hasStart && hasEnd {
			p.SetValue([]string{start, end})
		}

	case KindEnum, KindQuery:
		raw, ok := query[key]
		if !ok {
			return
		}
		if p.Kind == KindQuery && p.SearchColumn != "" {
			p.SearchTerm = ""
			if term, rest, found := strings.Cut(raw, SearchTermSeparator); found {
				p.SearchTerm, raw = term, rest
			}
		}
		p.SetValue(p.decodeList(raw))

	default:
		if raw, ok := query[key]; ok {
			p.SetValue(raw)
		}
	}
}

func (p *Parameter) decodeList(raw string) any {
	if !p.isMulti() {
		return raw
	}
	var decoded any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return raw
	}
	if list, ok := decoded.([]any); ok {
		return list
	}
	return raw
}

// FlattenQuery converts url.Values into the flat map read by FromURLParams,
// keeping the first value of each key.
func FlattenQuery(values url.Values) map[string]string {
	flat := make(map[string]string, len(values))
	for k, v := range values {
		if len(v) > 0 {
			flat[k] = v[0]
		}
	}
	return flat
}
