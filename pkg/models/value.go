// Package models defines the core domain models for the agent builder workflow engine.
package models

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// ValueKind identifies which variant a Value holds.
type ValueKind string

const (
	KindNull   ValueKind = "null"
	KindString ValueKind = "string"
	KindNumber ValueKind = "number"
	KindBool   ValueKind = "bool"
	KindList   ValueKind = "list"
	KindMap    ValueKind = "map"
)

// Value is a closed tagged union over the JSON-like types a workflow variable
// may hold. Workflow content is pure data: a Value is never executable.
type Value struct {
	kind ValueKind
	str  string
	num  float64
	b    bool
	list []Value
	m    map[string]Value
}

func Null() Value               { return Value{kind: KindNull} }
func StringValue(s string) Value { return Value{kind: KindString, str: s} }
func NumberValue(n float64) Value { return Value{kind: KindNumber, num: n} }
func BoolValue(b bool) Value    { return Value{kind: KindBool, b: b} }

func ListValue(items ...Value) Value {
	return Value{kind: KindList, list: items}
}

func MapValue(entries map[string]Value) Value {
	if entries == nil {
		entries = make(map[string]Value)
	}

	return Value{kind: KindMap, m: entries}
}

func (v Value) Kind() ValueKind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull || v.kind == "" }

func (v Value) AsString() (string, bool) {
	return v.str, v.kind == KindString
}

func (v Value) AsNumber() (float64, bool) {
	return v.num, v.kind == KindNumber
}

func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

func (v Value) AsList() ([]Value, bool) {
	return v.list, v.kind == KindList
}

func (v Value) AsMap() (map[string]Value, bool) {
	return v.m, v.kind == KindMap
}

// String renders the value for logging and parameter interpolation.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindList, KindMap:
		data, err := json.Marshal(v)
		if err != nil {
			return ""
		}

		return string(data)
	default:
		return ""
	}
}

// FromAny converts a decoded JSON value into a Value. Unsupported Go types
// are rejected so that arbitrary host objects can never leak into a
// variable bag.
func FromAny(raw any) (Value, error) {
	switch typed := raw.(type) {
	case nil:
		return Null(), nil
	case string:
		return StringValue(typed), nil
	case bool:
		return BoolValue(typed), nil
	case float64:
		return NumberValue(typed), nil
	case float32:
		return NumberValue(float64(typed)), nil
	case int:
		return NumberValue(float64(typed)), nil
	case int32:
		return NumberValue(float64(typed)), nil
	case int64:
		return NumberValue(float64(typed)), nil
	case json.Number:
		num, err := typed.Float64()
		if err != nil {
			return Null(), fmt.Errorf("invalid number %q: %w", typed.String(), err)
		}

		return NumberValue(num), nil
	case []any:
		items := make([]Value, 0, len(typed))

		for _, item := range typed {
			value, err := FromAny(item)
			if err != nil {
				return Null(), err
			}

			items = append(items, value)
		}

		return ListValue(items...), nil
	case map[string]any:
		entries := make(map[string]Value, len(typed))

		for key, item := range typed {
			value, err := FromAny(item)
			if err != nil {
				return Null(), err
			}

			entries[key] = value
		}

		return MapValue(entries), nil
	case Value:
		return typed, nil
	default:
		return Null(), fmt.Errorf("unsupported variable type %T", raw)
	}
}

// ToAny converts a Value back into plain JSON-shaped Go data.
func (v Value) ToAny() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindBool:
		return v.b
	case KindList:
		items := make([]any, 0, len(v.list))
		for _, item := range v.list {
			items = append(items, item.ToAny())
		}

		return items
	case KindMap:
		entries := make(map[string]any, len(v.m))
		for key, item := range v.m {
			entries[key] = item.ToAny()
		}

		return entries
	default:
		return nil
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.ToAny())
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	value, err := FromAny(raw)
	if err != nil {
		return err
	}

	*v = value

	return nil
}

// Clone returns a deep copy so one run can never mutate another run's state.
func (v Value) Clone() Value {
	switch v.kind {
	case KindList:
		items := make([]Value, 0, len(v.list))
		for _, item := range v.list {
			items = append(items, item.Clone())
		}

		return ListValue(items...)
	case KindMap:
		entries := make(map[string]Value, len(v.m))
		for key, item := range v.m {
			entries[key] = item.Clone()
		}

		return MapValue(entries)
	default:
		return v
	}
}

// Variables is the mutable key/value state of a single run.
type Variables map[string]Value

// Clone deep-copies the variable bag.
func (vars Variables) Clone() Variables {
	cloned := make(Variables, len(vars))
	for key, value := range vars {
		cloned[key] = value.Clone()
	}

	return cloned
}

// ComparisonOperator is the closed set of operators a condition step may use.
type ComparisonOperator string

const (
	OpEqual          ComparisonOperator = "=="
	OpNotEqual       ComparisonOperator = "!="
	OpGreater        ComparisonOperator = ">"
	OpLess           ComparisonOperator = "<"
	OpGreaterOrEqual ComparisonOperator = ">="
	OpLessOrEqual    ComparisonOperator = "<="
)

// KnownOperator reports whether op is one of the supported comparison operators.
func KnownOperator(op ComparisonOperator) bool {
	switch op {
	case OpEqual, OpNotEqual, OpGreater, OpLess, OpGreaterOrEqual, OpLessOrEqual:
		return true
	default:
		return false
	}
}

// Equal compares two values for equality. Values of different kinds are
// always unequal; there is no implicit cross-type coercion for equality.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}

	switch v.kind {
	case KindString:
		return v.str == other.str
	case KindNumber:
		return v.num == other.num
	case KindBool:
		return v.b == other.b
	case KindList:
		if len(v.list) != len(other.list) {
			return false
		}

		for i := range v.list {
			if !v.list[i].Equal(other.list[i]) {
				return false
			}
		}

		return true
	case KindMap:
		if len(v.m) != len(other.m) {
			return false
		}

		for key, item := range v.m {
			counterpart, ok := other.m[key]
			if !ok || !item.Equal(counterpart) {
				return false
			}
		}

		return true
	default:
		return other.IsNull()
	}
}

// numeric coerces a value for ordering comparisons: numbers pass through and
// numeric strings are parsed. Everything else does not order numerically.
func (v Value) numeric() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindString:
		num, err := strconv.ParseFloat(v.str, 64)
		if err != nil {
			return 0, false
		}

		return num, true
	default:
		return 0, false
	}
}

// Compare applies op to left and right. Ordering operators compare
// numerically when both sides coerce to numbers, lexicographically when
// both sides are strings, and evaluate false otherwise. The result is
// deterministic for any pair of operands; Compare never fails.
func Compare(left Value, op ComparisonOperator, right Value) bool {
	switch op {
	case OpEqual:
		return left.Equal(right)
	case OpNotEqual:
		return !left.Equal(right)
	case OpGreater, OpLess, OpGreaterOrEqual, OpLessOrEqual:
	default:
		return false
	}

	if ln, lok := left.numeric(); lok {
		if rn, rok := right.numeric(); rok {
			return applyOrdering(op, compareFloats(ln, rn))
		}
	}

	ls, lok := left.AsString()
	rs, rok := right.AsString()

	if lok && rok {
		switch {
		case ls < rs:
			return applyOrdering(op, -1)
		case ls > rs:
			return applyOrdering(op, 1)
		default:
			return applyOrdering(op, 0)
		}
	}

	return false
}

func compareFloats(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func applyOrdering(op ComparisonOperator, cmp int) bool {
	switch op {
	case OpGreater:
		return cmp > 0
	case OpLess:
		return cmp < 0
	case OpGreaterOrEqual:
		return cmp >= 0
	case OpLessOrEqual:
		return cmp <= 0
	default:
		return false
	}
}
