// Package condition provides the constrained expression language used by
// condition nodes. It is deliberately a fixed operator list over substring
// splitting, not a parser: comparisons and truthiness checks are all a
// workflow condition can express.
package condition

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nodeflow/nodeflow/pkg/template"
)

// Operators in match precedence order. The first operator found as a
// substring decides how the expression is split and compared.
const (
	opEquals       = " == "
	opNotEquals    = " != "
	opGreaterThan  = " > "
	opLessThan     = " < "
)

// Evaluate resolves {{name}} placeholders in the expression against the given
// scope, then evaluates it: equality operators compare trimmed operand
// strings, ordering operators compare float64 operands (false when either
// side fails to parse), and an expression with no operator is the truthiness
// of the trimmed resolved string. Evaluation never aborts a run; internal
// panics are recovered and reported as false with an error.
func Evaluate(expr string, scope map[string]any) (result bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = false
			err = fmt.Errorf("condition evaluation panicked: %v", r)
		}
	}()

	resolved := template.ResolveString(expr, scope)

	switch {
	case strings.Contains(resolved, opEquals):
		left, right := splitOperands(resolved, opEquals)

		return left == right, nil
	case strings.Contains(resolved, opNotEquals):
		left, right := splitOperands(resolved, opNotEquals)

		return left != right, nil
	case strings.Contains(resolved, opGreaterThan):
		left, right := splitOperands(resolved, opGreaterThan)

		return compareNumeric(left, right, func(l, r float64) bool { return l > r }), nil
	case strings.Contains(resolved, opLessThan):
		left, right := splitOperands(resolved, opLessThan)

		return compareNumeric(left, right, func(l, r float64) bool { return l < r }), nil
	default:
		return strings.TrimSpace(resolved) != "", nil
	}
}

func splitOperands(expr, op string) (string, string) {
	parts := strings.SplitN(expr, op, 2)

	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
}

// compareNumeric returns false, not an error, when either operand is not a
// number.
func compareNumeric(left, right string, cmp func(float64, float64) bool) bool {
	l, err := strconv.ParseFloat(left, 64)
	if err != nil {
		return false
	}

	r, err := strconv.ParseFloat(right, 64)
	if err != nil {
		return false
	}

	return cmp(l, r)
}
