package sql

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/getredash/redash-sub002/pkg/apperrors"
)

// placeholderRegex matches variable placeholders such as {{name}}, {{ name }},
// {{&name}}, {{{name}}} and dotted references like {{ period.start }}. Names
// follow the template parser: anything up to the closing braces, trimmed.
var placeholderRegex = regexp.MustCompile(
	`\{\{\{\s*([^{}\s][^{}]*?)\s*\}\}\}|\{\{\s*&?\s*([^{}\s!#^/>=&][^{}]*?)\s*\}\}`)

// sectionRegex matches section, inverted section and closing tags.
var sectionRegex = regexp.MustCompile(`\{\{\s*[#^/]`)

// commentRegex matches template comments, which render as nothing.
var commentRegex = regexp.MustCompile(`(?s)\{\{!.*?\}\}`)

// placeholderPath returns the path captured by either placeholder form.
func placeholderPath(match []string) string {
	if match[1] != "" {
		return match[1]
	}
	return match[2]
}

// Fielder is implemented by composite execution values (such as date ranges)
// whose members are addressed with dotted placeholders.
type Fielder interface {
	Field(name string) (any, bool)
}

// Binder is implemented by execution values that wrap the value to bind.
type Binder interface {
	BindValue() any
}

// FindParametersInStringLiterals checks for placeholders that appear inside
// SQL string literals (single quotes). Such placeholders are bound as $N,
// which the database treats as literal text, so they never receive a value.
//
// Example:
//
//	sql := "SELECT 'Hello {{name}}' FROM users"
//	problems := FindParametersInStringLiterals(sql)
//	// problems == []string{"name"}
func FindParametersInStringLiterals(sqlQuery string) []string {
	var problems []string
	seen := make(map[string]bool)

	inString := false
	stringStart := 0
	i := 0

	for i < len(sqlQuery) {
		ch := sqlQuery[i]

		if ch == '\'' {
			if inString {
				// Escaped quote ('')
				if i+1 < len(sqlQuery) && sqlQuery[i+1] == '\'' {
					i += 2
					continue
				}
				stringContent := sqlQuery[stringStart+1 : i]
				for _, match := range placeholderRegex.FindAllStringSubmatch(stringContent, -1) {
					name, _, _ := strings.Cut(placeholderPath(match), ".")
					if !seen[name] {
						seen[name] = true
						problems = append(problems, name)
					}
				}
				inString = false
			} else {
				inString = true
				stringStart = i
			}
		}
		i++
	}

	return problems
}

// SubstituteParameters replaces placeholders with PostgreSQL positional
// parameters ($1, $2, etc.) and returns the prepared SQL along with ordered
// values for binding.
//
// The function:
//  1. Replaces each unique placeholder path with $N
//  2. Reuses the same $N for paths that appear multiple times
//  3. Resolves dotted paths through Fielder values ({{ period.start }})
//  4. Unwraps Binder values to the value they carry
//
// Section tags cannot be expressed as bind parameters and are rejected, as is
// any other tag (partials, delimiter changes) left after substitution.
// Comments are dropped.
//
// Example:
//
//	sql := "SELECT * FROM orders WHERE created_at BETWEEN {{ period.start }} AND {{ period.end }} AND status = {{status}}"
//	values := map[string]any{
//	    "period": params.RangeValue{Start: "2024-01-01", End: "2024-01-31"},
//	    "status": "shipped",
//	}
//	preparedSQL, orderedValues, err := SubstituteParameters(sql, values)
//	// preparedSQL == "SELECT * FROM orders WHERE created_at BETWEEN $1 AND $2 AND status = $3"
//	// orderedValues == []any{"2024-01-01", "2024-01-31", "shipped"}
func SubstituteParameters(sqlQuery string, values map[string]any) (string, []any, error) {
	sqlQuery = commentRegex.ReplaceAllString(sqlQuery, "")
	if loc := sectionRegex.FindStringIndex(sqlQuery); loc != nil {
		return "", nil, fmt.Errorf("section tag at offset %d: %w", loc[0], apperrors.ErrUnsupportedTemplate)
	}

	var (
		orderedValues []any
		missing       []string
	)
	paramIndex := 1
	paramPositions := make(map[string]int)

	result := placeholderRegex.ReplaceAllStringFunc(sqlQuery, func(match string) string {
		path := placeholderPath(placeholderRegex.FindStringSubmatch(match))

		// Same path used multiple times
		if pos, exists := paramPositions[path]; exists {
			return fmt.Sprintf("$%d", pos)
		}

		value, ok := resolvePath(values, path)
		if !ok {
			missing = append(missing, path)
			return match
		}

		paramPositions[path] = paramIndex
		orderedValues = append(orderedValues, value)
		pos := paramIndex
		paramIndex++

		return fmt.Sprintf("$%d", pos)
	})

	if len(missing) > 0 {
		return "", nil, fmt.Errorf("%w: %s", apperrors.ErrMissingParameters, strings.Join(missing, ", "))
	}
	if i := strings.Index(result, "{{"); i >= 0 {
		return "", nil, fmt.Errorf("unsubstituted tag at offset %d: %w", i, apperrors.ErrUnsupportedTemplate)
	}
	return result, orderedValues, nil
}

func resolvePath(values map[string]any, path string) (any, bool) {
	segments := strings.Split(path, ".")
	value, ok := values[segments[0]]
	if !ok {
		return nil, false
	}
	for _, seg := range segments[1:] {
		switch v := value.(type) {
		case Fielder:
			value, ok = v.Field(seg)
		case map[string]any:
			value, ok = v[seg]
		default:
			ok = false
		}
		if !ok {
			return nil, false
		}
	}
	if b, isBinder := value.(Binder); isBinder {
		value = b.BindValue()
	}
	return value, true
}
