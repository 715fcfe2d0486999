package sql

import (
	"sort"

	libinjection "github.com/corazawaf/libinjection-go"
)

// InjectionCheckResult contains the result of an injection check on a parameter value.
type InjectionCheckResult struct {
	IsSQLi      bool   // True if SQL injection pattern detected
	Fingerprint string // libinjection fingerprint of the detected pattern
	ParamName   string // Name of the parameter that failed the check
	ParamValue  any    // The value that was checked
}

// CheckParameterForInjection uses libinjection to detect SQL injection patterns
// in an execution value.
//
// Strings are checked directly. Lists, maps and composite values (ranges,
// dropdown values) are walked and every string member is checked. Numbers,
// booleans and nil cannot carry injection and return nil.
//
// Example:
//
//	result := CheckParameterForInjection("search", "'; DROP TABLE users--")
//	// result.IsSQLi == true
//	// result.ParamName == "search"
func CheckParameterForInjection(paramName string, value any) *InjectionCheckResult {
	for _, s := range stringMembers(value) {
		isSQLi, fingerprint := libinjection.IsSQLi(s)
		if isSQLi {
			return &InjectionCheckResult{
				IsSQLi:      true,
				Fingerprint: string(fingerprint),
				ParamName:   paramName,
				ParamValue:  value,
			}
		}
	}
	return nil
}

// CheckAllParameters validates all execution values for SQL injection attempts.
// Results are ordered by parameter name.
func CheckAllParameters(values map[string]any) []*InjectionCheckResult {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	var results []*InjectionCheckResult
	for _, name := range names {
		if result := CheckParameterForInjection(name, values[name]); result != nil {
			results = append(results, result)
		}
	}
	return results
}

func stringMembers(value any) []string {
	switch v := value.(type) {
	case string:
		return []string{v}
	case []string:
		return v
	case []any:
		var out []string
		for _, item := range v {
			out = append(out, stringMembers(item)...)
		}
		return out
	case map[string]any:
		var out []string
		for _, item := range v {
			out = append(out, stringMembers(item)...)
		}
		return out
	case Fielder:
		var out []string
		for _, field := range []string{"start", "end"} {
			if item, ok := v.Field(field); ok {
				out = append(out, stringMembers(item)...)
			}
		}
		return out
	case Binder:
		return stringMembers(v.BindValue())
	}
	return nil
}
