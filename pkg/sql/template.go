package sql

import (
	"fmt"
	"strings"

	"github.com/cbroglie/mustache"
)

// ParseParameterNames parses query text as a Mustache template and returns the
// parameter names it references, deduplicated in order of first appearance.
//
// Variables ({{name}}, {{&name}}) and the tags nested inside sections
// ({{#name}}...{{/name}}) are collected. Dotted references contribute their
// root name, so {{ period.start }} and {{ period.end }} both yield "period".
//
// An error is returned when the text is not a valid template, for example
// when a section is never closed.
func ParseParameterNames(text string) ([]string, error) {
	tmpl, err := mustache.ParseString(text)
	if err != nil {
		return nil, fmt.Errorf("parse query parameters: %w", err)
	}

	seen := make(map[string]bool)
	var names []string
	collectTags(tmpl.Tags(), seen, &names)
	return names, nil
}

func collectTags(tags []mustache.Tag, seen map[string]bool, names *[]string) {
	for _, tag := range tags {
		switch tag.Type() {
		case mustache.Variable:
			name, _, _ := strings.Cut(strings.TrimSpace(tag.Name()), ".")
			if name != "" && !seen[name] {
				seen[name] = true
				*names = append(*names, name)
			}
		case mustache.Section:
			collectTags(tag.Tags(), seen, names)
		}
	}
}
