// Package template provides placeholder substitution for dynamic workflow
// configuration. Node parameters may reference run context values with
// {{identifier}} placeholders; unresolved identifiers are left as literal
// placeholder text so partially-populated contexts never fail a run.
package template

import (
	"fmt"
	"regexp"
)

var placeholderPattern = regexp.MustCompile(`\{\{(\w+)\}\}`)

// maxDepth bounds recursion over user-supplied definitions. Values nested
// deeper than this are passed through unresolved.
const maxDepth = 64

// Resolve walks a value of arbitrary shape, substituting {{identifier}}
// occurrences in strings from the given scope. Maps and slices are resolved
// element-wise preserving structure; all other types pass through unchanged.
// Resolution has no side effects and never fails.
func Resolve(value any, scope map[string]any) any {
	return resolve(value, scope, 0)
}

// ResolveString substitutes placeholders in a single string.
func ResolveString(input string, scope map[string]any) string {
	return placeholderPattern.ReplaceAllStringFunc(input, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]

		resolved, ok := scope[name]
		if !ok {
			return match
		}

		return fmt.Sprintf("%v", resolved)
	})
}

func resolve(value any, scope map[string]any, depth int) any {
	if depth > maxDepth {
		return value
	}

	switch v := value.(type) {
	case string:
		return ResolveString(v, scope)
	case map[string]any:
		resolved := make(map[string]any, len(v))
		for key, elem := range v {
			resolved[key] = resolve(elem, scope, depth+1)
		}

		return resolved
	case []any:
		resolved := make([]any, len(v))
		for i, elem := range v {
			resolved[i] = resolve(elem, scope, depth+1)
		}

		return resolved
	default:
		return value
	}
}
