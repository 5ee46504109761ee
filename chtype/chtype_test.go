package chtype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nativedb/chclient/errs"
)

func TestParse_RoundTrip(t *testing.T) {
	inputs := []string{
		"Int8", "UInt64", "Float64", "String", "UUID", "IPv4", "IPv6",
		"Date", "Date32", "Dynamic", "JSON", "Nothing",
		"FixedString(16)",
		"Decimal(18, 4)",
		"DateTime",
		"DateTime('UTC')",
		"DateTime64(3)",
		"DateTime64(6, 'UTC')",
		"Array(String)",
		"Array(Nullable(UInt32))",
		"Tuple(UInt8, String, Float64)",
		"Map(String, UInt64)",
		"Nullable(Int32)",
		"LowCardinality(String)",
		"LowCardinality(Nullable(String))",
		"Enum8('a' = 1, 'b' = 2)",
		"Enum16('x' = -1, 'y' = 1000)",
		"Variant(String, UInt64, Float64)",
		"Array(Tuple(UInt8, Map(String, Array(Int64))))",
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			parsed, err := Parse(in)
			require.NoError(t, err)
			assert.Equal(t, in, Format(parsed))

			reparsed, err := Parse(Format(parsed))
			require.NoError(t, err)
			assert.Equal(t, parsed, reparsed)
		})
	}
}

func TestParse_WhitespaceInsideParamListsIgnored(t *testing.T) {
	got, err := Parse("Tuple( UInt8 ,  String )")
	require.NoError(t, err)
	assert.Equal(t, "Tuple(UInt8, String)", Format(got))
}

func TestParse_UnknownTypeName(t *testing.T) {
	_, err := Parse("NotARealType")
	require.Error(t, err)
	assert.Equal(t, errs.KindMalformedFrame, errs.KindOf(err))
}

func TestParse_TrailingGarbage(t *testing.T) {
	_, err := Parse("Int32 garbage")
	require.Error(t, err)
}

func TestNullable_RejectsNestedNullable(t *testing.T) {
	_, err := NewNullable(Nullable{Inner: Int32})
	require.Error(t, err)
	assert.Equal(t, errs.KindSchemaIncompatible, errs.KindOf(err))
}

func TestNullable_RejectsArray(t *testing.T) {
	_, err := NewNullable(Array{Inner: Int32})
	require.Error(t, err)
}

func TestNullable_RejectsLowCardinality(t *testing.T) {
	lc, err := NewLowCardinality(String_)
	require.NoError(t, err)

	_, err = NewNullable(lc)
	require.Error(t, err)
}

func TestLowCardinality_RejectsIneligibleInner(t *testing.T) {
	_, err := NewLowCardinality(Array{Inner: Int32})
	require.Error(t, err)
	assert.Equal(t, errs.KindSchemaIncompatible, errs.KindOf(err))
}

func TestLowCardinality_AcceptsNullableOfEligibleInner(t *testing.T) {
	nullableString, err := NewNullable(String_)
	require.NoError(t, err)

	_, err = NewLowCardinality(nullableString)
	require.NoError(t, err)
}

func TestDecimal_BackingWidthSelection(t *testing.T) {
	cases := []struct {
		precision int
		wantBits  int
	}{
		{1, 32}, {9, 32}, {10, 64}, {18, 64}, {19, 128}, {38, 128}, {39, 256}, {76, 256},
	}

	for _, c := range cases {
		d, err := NewDecimal(c.precision, 0)
		require.NoError(t, err)
		assert.Equal(t, c.wantBits, d.BackingBits)
	}
}

func TestDecimal_RejectsOutOfRangePrecision(t *testing.T) {
	_, err := NewDecimal(77, 0)
	require.Error(t, err)

	_, err = NewDecimal(0, 0)
	require.Error(t, err)
}

func TestDecimal_RejectsScaleExceedingPrecision(t *testing.T) {
	_, err := NewDecimal(5, 6)
	require.Error(t, err)
}

func TestEnum_RejectsDuplicateNameOrCode(t *testing.T) {
	_, err := NewEnum8([]EnumPair{{Name: "a", Code: 1}, {Name: "a", Code: 2}})
	require.Error(t, err)

	_, err = NewEnum8([]EnumPair{{Name: "a", Code: 1}, {Name: "b", Code: 1}})
	require.Error(t, err)
}

func TestEnum_EscapesQuotesInNames(t *testing.T) {
	e, err := NewEnum8([]EnumPair{{Name: `o'brien`, Code: 1}})
	require.NoError(t, err)

	formatted := Format(e)
	assert.Contains(t, formatted, `\'`)

	reparsed, err := Parse(formatted)
	require.NoError(t, err)
	assert.Equal(t, e, reparsed)
}

func TestFixedString_RejectsOutOfRangeWidth(t *testing.T) {
	_, err := NewFixedString(0)
	require.Error(t, err)

	_, err = NewFixedString(1 << 20)
	require.Error(t, err)
}
