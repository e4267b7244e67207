package template

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveString_RoundTrip(t *testing.T) {
	result := ResolveString("{{x}}", map[string]any{"x": "5"})
	assert.Equal(t, "5", result)
}

func TestResolveString_MixedText(t *testing.T) {
	scope := map[string]any{
		"name":  "Alice",
		"count": 3,
	}

	result := ResolveString("hello {{name}}, you have {{count}} items", scope)
	assert.Equal(t, "hello Alice, you have 3 items", result)
}

func TestResolveString_UnresolvedLeftVerbatim(t *testing.T) {
	result := ResolveString("value is {{missing}}", map[string]any{})
	assert.Equal(t, "value is {{missing}}", result)
}

func TestResolve_IdempotentWithoutPlaceholders(t *testing.T) {
	scope := map[string]any{"x": "unused"}

	cases := []any{
		"plain string",
		42,
		3.14,
		true,
		nil,
	}

	for _, value := range cases {
		assert.Equal(t, value, Resolve(value, scope))
	}
}

func TestResolve_MapPreservesStructure(t *testing.T) {
	scope := map[string]any{"user": "bob", "id": 7}

	value := map[string]any{
		"greeting": "hi {{user}}",
		"nested": map[string]any{
			"path": "/users/{{id}}",
		},
		"untouched": 99,
	}

	resolved, ok := Resolve(value, scope).(map[string]any)
	assert.True(t, ok)
	assert.Equal(t, "hi bob", resolved["greeting"])
	assert.Equal(t, 99, resolved["untouched"])

	nested, ok := resolved["nested"].(map[string]any)
	assert.True(t, ok)
	assert.Equal(t, "/users/7", nested["path"])
}

func TestResolve_SlicePreservesStructure(t *testing.T) {
	scope := map[string]any{"env": "prod"}

	value := []any{"{{env}}-1", "{{env}}-2", 10}

	resolved, ok := Resolve(value, scope).([]any)
	assert.True(t, ok)
	assert.Equal(t, []any{"prod-1", "prod-2", 10}, resolved)
}

func TestResolve_DepthGuard(t *testing.T) {
	// Build a map nested far beyond maxDepth; resolution must return without
	// recursing to the bottom.
	leaf := map[string]any{"value": "{{x}}"}

	current := any(leaf)
	for range 200 {
		current = map[string]any{"next": current}
	}

	resolved := Resolve(current, map[string]any{"x": "deep"})
	assert.NotNil(t, resolved)
}

func TestResolveString_NonStringContextValue(t *testing.T) {
	result := ResolveString("{{data}}", map[string]any{
		"data": map[string]any{"a": 1},
	})
	assert.True(t, strings.HasPrefix(result, "map["))
}
