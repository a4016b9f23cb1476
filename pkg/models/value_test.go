package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_Equal_DifferentKindsNeverEqual(t *testing.T) {
	assert.False(t, StringValue("5").Equal(NumberValue(5)))
	assert.False(t, BoolValue(true).Equal(StringValue("true")))
	assert.False(t, NumberValue(0).Equal(Null()))
}

func TestValue_Equal_SameKind(t *testing.T) {
	assert.True(t, StringValue("a").Equal(StringValue("a")))
	assert.True(t, NumberValue(3.5).Equal(NumberValue(3.5)))
	assert.True(t, Null().Equal(Null()))
	assert.True(t, ListValue(NumberValue(1), NumberValue(2)).Equal(ListValue(NumberValue(1), NumberValue(2))))
	assert.False(t, ListValue(NumberValue(1)).Equal(ListValue(NumberValue(2))))

	left := MapValue(map[string]Value{"a": NumberValue(1)})
	right := MapValue(map[string]Value{"a": NumberValue(1)})
	assert.True(t, left.Equal(right))
}

func TestCompare_NumericCoercion(t *testing.T) {
	// A numeric string orders against a number.
	assert.True(t, Compare(StringValue("10"), OpGreater, NumberValue(5)))
	assert.True(t, Compare(NumberValue(5), OpLessOrEqual, StringValue("5")))
	assert.False(t, Compare(StringValue("3"), OpGreaterOrEqual, NumberValue(4)))
}

func TestCompare_LexicographicStrings(t *testing.T) {
	assert.True(t, Compare(StringValue("apple"), OpLess, StringValue("banana")))
	assert.False(t, Compare(StringValue("banana"), OpLess, StringValue("apple")))
	assert.True(t, Compare(StringValue("same"), OpGreaterOrEqual, StringValue("same")))
}

func TestCompare_IncomparableOperandsAreFalse(t *testing.T) {
	// Ordering a bool or a map is always false, never an error.
	assert.False(t, Compare(BoolValue(true), OpGreater, NumberValue(0)))
	assert.False(t, Compare(MapValue(nil), OpLess, NumberValue(1)))
	assert.False(t, Compare(StringValue("abc"), OpGreater, NumberValue(1)))
}

func TestCompare_EqualityHasNoCoercion(t *testing.T) {
	assert.False(t, Compare(StringValue("5"), OpEqual, NumberValue(5)))
	assert.True(t, Compare(StringValue("5"), OpNotEqual, NumberValue(5)))
}

func TestCompare_UnknownOperator(t *testing.T) {
	assert.False(t, Compare(NumberValue(1), ComparisonOperator("~="), NumberValue(1)))
}

func TestKnownOperator(t *testing.T) {
	assert.True(t, KnownOperator(OpEqual))
	assert.True(t, KnownOperator(OpLessOrEqual))
	assert.False(t, KnownOperator(ComparisonOperator("contains")))
}

func TestFromAny_SupportedTypes(t *testing.T) {
	value, err := FromAny(map[string]any{
		"name":    "order-7",
		"total":   float64(42),
		"urgent":  true,
		"tags":    []any{"a", "b"},
		"comment": nil,
	})
	require.NoError(t, err)

	entries, ok := value.AsMap()
	require.True(t, ok)

	name, _ := entries["name"].AsString()
	assert.Equal(t, "order-7", name)

	total, _ := entries["total"].AsNumber()
	assert.InEpsilon(t, 42.0, total, 0.0001)

	urgent, _ := entries["urgent"].AsBool()
	assert.True(t, urgent)

	tags, _ := entries["tags"].AsList()
	assert.Len(t, tags, 2)

	assert.True(t, entries["comment"].IsNull())
}

func TestFromAny_RejectsHostObjects(t *testing.T) {
	type hostObject struct{ fn func() }

	_, err := FromAny(hostObject{})
	require.Error(t, err)

	_, err = FromAny(make(chan int))
	require.Error(t, err)
}

func TestValue_JSONRoundTrip(t *testing.T) {
	original := MapValue(map[string]Value{
		"count": NumberValue(3),
		"items": ListValue(StringValue("x"), BoolValue(false)),
	})

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded Value
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.True(t, original.Equal(decoded))
}

func TestValue_CloneIsolation(t *testing.T) {
	inner := map[string]Value{"n": NumberValue(1)}
	original := MapValue(inner)

	cloned := original.Clone()

	inner["n"] = NumberValue(99)

	entries, _ := cloned.AsMap()
	n, _ := entries["n"].AsNumber()
	assert.InEpsilon(t, 1.0, n, 0.0001)
}

func TestVariables_CloneIsolation(t *testing.T) {
	vars := Variables{"counter": NumberValue(1)}

	cloned := vars.Clone()
	cloned["counter"] = NumberValue(2)
	cloned["extra"] = StringValue("new")

	n, _ := vars["counter"].AsNumber()
	assert.InEpsilon(t, 1.0, n, 0.0001)
	assert.NotContains(t, vars, "extra")
}
