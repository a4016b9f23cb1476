// Package template resolves step parameters against run variables. It is a
// plain key substitution: a {{name}} placeholder is replaced by the named
// variable's value. There is deliberately no expression language here;
// workflow configuration stays pure data.
package template

import (
	"regexp"
	"strings"

	"github.com/opsmith/agentforge/pkg/models"
)

var placeholderPattern = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)

// ResolveString substitutes every {{name}} placeholder in input with the
// named variable rendered as a string. Unknown names resolve to the empty
// string so identical input state always produces identical output.
func ResolveString(input string, variables models.Variables) string {
	return placeholderPattern.ReplaceAllStringFunc(input, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]

		value, ok := variables[name]
		if !ok {
			return ""
		}

		return value.String()
	})
}

// ResolveValue resolves one configuration value. A string that is exactly a
// single placeholder keeps the variable's type; any other string is
// interpolated. Nested maps and lists are resolved recursively.
func ResolveValue(raw any, variables models.Variables) any {
	switch typed := raw.(type) {
	case string:
		if name, ok := solePlaceholder(typed); ok {
			if value, found := variables[name]; found {
				return value.ToAny()
			}

			return nil
		}

		return ResolveString(typed, variables)
	case map[string]any:
		resolved := make(map[string]any, len(typed))
		for key, item := range typed {
			resolved[key] = ResolveValue(item, variables)
		}

		return resolved
	case []any:
		resolved := make([]any, 0, len(typed))
		for _, item := range typed {
			resolved = append(resolved, ResolveValue(item, variables))
		}

		return resolved
	default:
		return raw
	}
}

// ResolveParams resolves a whole parameter map.
func ResolveParams(params map[string]any, variables models.Variables) map[string]any {
	resolved := make(map[string]any, len(params))
	for key, raw := range params {
		resolved[key] = ResolveValue(raw, variables)
	}

	return resolved
}

// solePlaceholder reports whether input is exactly one placeholder and
// returns the variable name it references.
func solePlaceholder(input string) (string, bool) {
	trimmed := strings.TrimSpace(input)

	match := placeholderPattern.FindStringSubmatch(trimmed)
	if match == nil || match[0] != trimmed {
		return "", false
	}

	return match[1], true
}
