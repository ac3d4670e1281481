package pagedsql

import (
	"fmt"
	"strings"
)

// Operator names a comparison. Matching is case-insensitive.
type Operator string

const (
	Equal          Operator = "equal"
	NotEqual       Operator = "notequal"
	Less           Operator = "less"
	LessOrEqual    Operator = "lessorequal"
	Greater        Operator = "greater"
	GreaterOrEqual Operator = "greaterorequal"
)

var operatorSQL = map[Operator]string{
	Equal:          "=",
	NotEqual:       "!=",
	Less:           "<",
	LessOrEqual:    "<=",
	Greater:        ">",
	GreaterOrEqual: ">=",
}

// SQL returns the comparison symbol. Unknown operators render as "=".
func (o Operator) SQL() string {
	if s, ok := operatorSQL[o.Normalize()]; ok {
		return s
	}
	return "="
}

// Normalize lowercases o and maps anything unrecognized to Equal.
func (o Operator) Normalize() Operator {
	n := Operator(strings.ToLower(strings.TrimSpace(string(o))))
	if _, ok := operatorSQL[n]; ok {
		return n
	}
	return Equal
}

// FilterRule is one comparison predicate.
type FilterRule struct {
	Key     string   `json:"key"`
	Operate Operator `json:"operate"`
	Value   string   `json:"value"`
}

// Active reports whether the rule contributes to a WHERE clause.
// Rules with a blank value are ignored.
func (r FilterRule) Active() bool {
	return strings.TrimSpace(r.Value) != ""
}

// active returns the rules that render, in input order, with normalized operators.
func active(rules []FilterRule) []FilterRule {
	out := make([]FilterRule, 0, len(rules))
	for _, r := range rules {
		if !r.Active() {
			continue
		}
		r.Operate = r.Operate.Normalize()
		out = append(out, r)
	}
	return out
}

// ParseFilter reads "key:operator:value" or "key:value" (equal). The value
// may itself contain colons.
func ParseFilter(s string) (FilterRule, error) {
	parts := strings.SplitN(s, ":", 3)
	switch len(parts) {
	case 2:
		return FilterRule{Key: parts[0], Operate: Equal, Value: parts[1]}, nil
	case 3:
		if _, ok := operatorSQL[Operator(strings.ToLower(parts[1]))]; ok {
			return FilterRule{Key: parts[0], Operate: Operator(parts[1]).Normalize(), Value: parts[2]}, nil
		}
		return FilterRule{Key: parts[0], Operate: Equal, Value: parts[1] + ":" + parts[2]}, nil
	}
	return FilterRule{}, fmt.Errorf("pagedsql: filter %q: want key:operator:value", s)
}
