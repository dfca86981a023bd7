package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// Operator is one of the router's safe comparison operators. Arbitrary
// expressions are deliberately not supported.
type Operator string

const (
	OpContains      Operator = "contains"
	OpEquals        Operator = "equals"
	OpNumberEquals  Operator = "number_equals"
	OpGreaterThan   Operator = "greater_than"
	OpLessThan      Operator = "less_than"
	OpStartsWith    Operator = "starts_with"
	OpNotStartsWith Operator = "not_starts_with"
	OpIsEmpty       Operator = "is_empty"
	OpIsNotEmpty    Operator = "is_not_empty"
)

// LogicalOperator joins a condition to the one preceding it within a group.
type LogicalOperator string

const (
	LogicalAnd LogicalOperator = "AND"
	LogicalOr  LogicalOperator = "OR"
)

// Condition is one comparison in a route's condition group.
type Condition struct {
	Variable        string          `json:"variable"                   yaml:"variable"`
	Operator        Operator        `json:"operator"                   yaml:"operator"`
	Value           any             `json:"value,omitempty"            yaml:"value,omitempty"`
	LogicalOperator LogicalOperator `json:"logicalOperator,omitempty" yaml:"logicalOperator,omitempty"`
}

// RouteMap is a router node's full set of named routes, evaluated in
// declared (map iteration is not used for this reason — see Route.Order).
type RouteMap map[string]Route

// Route is a single named branch: a condition group that activates the
// route's source handle when every condition (combined by its
// LogicalOperator chain) evaluates true.
type Route struct {
	Conditions []Condition `json:"conditions" yaml:"conditions"`
	Order      int         `json:"-"          yaml:"-"`
}

// EvaluateConditions folds a condition list left to right. The first
// condition's LogicalOperator is ignored; each subsequent condition is
// combined with the running result using its own LogicalOperator.
func EvaluateConditions(conditions []Condition, input map[string]any) (bool, error) {
	if len(conditions) == 0 {
		return false, nil
	}
	result, err := evaluateOne(conditions[0], input)
	if err != nil {
		return false, err
	}
	for _, c := range conditions[1:] {
		next, err := evaluateOne(c, input)
		if err != nil {
			return false, err
		}
		switch c.LogicalOperator {
		case LogicalOr:
			result = result || next
		default:
			result = result && next
		}
	}
	return result, nil
}

func evaluateOne(c Condition, input map[string]any) (bool, error) {
	actual, present := lookupVariable(c.Variable, input)
	switch c.Operator {
	case OpIsEmpty:
		return !present || isEmptyValue(actual), nil
	case OpIsNotEmpty:
		return present && !isEmptyValue(actual), nil
	case OpContains:
		return strings.Contains(toString(actual), toString(c.Value)), nil
	case OpEquals:
		return toString(actual) == toString(c.Value), nil
	case OpStartsWith:
		return strings.HasPrefix(toString(actual), toString(c.Value)), nil
	case OpNotStartsWith:
		return !strings.HasPrefix(toString(actual), toString(c.Value)), nil
	case OpNumberEquals, OpGreaterThan, OpLessThan:
		a, aok := toFloat(actual)
		b, bok := toFloat(c.Value)
		if !aok || !bok {
			return false, nil
		}
		switch c.Operator {
		case OpNumberEquals:
			return a == b, nil
		case OpGreaterThan:
			return a > b, nil
		case OpLessThan:
			return a < b, nil
		}
	}
	return false, fmt.Errorf("schema: unknown router operator %q", c.Operator)
}

// lookupVariable resolves a dotted path ("node.field") against the input
// map assembled by the scheduler for the router's node.
func lookupVariable(path string, input map[string]any) (any, bool) {
	parts := strings.Split(path, ".")
	var cur any = input
	for _, p := range parts {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func isEmptyValue(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case []any:
		return len(val) == 0
	case map[string]any:
		return len(val) == 0
	default:
		return false
	}
}

func toString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}

func toFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case string:
		f, err := strconv.ParseFloat(val, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
