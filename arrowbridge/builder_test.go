package arrowbridge

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nativedb/chclient/chtype"
	"github.com/nativedb/chclient/column"
)

func buildSingleFieldRecord(t *testing.T, name string, typ chtype.ServerType, col column.Column, opts *ConversionOptions) arrow.Record {
	t.Helper()

	f, err := ServerTypeToField(name, typ, opts)
	require.NoError(t, err)
	schema := arrow.NewSchema([]arrow.Field{f}, nil)

	rb := array.NewRecordBuilder(memory.NewGoAllocator(), schema)
	defer rb.Release()
	require.NoError(t, appendColumn(rb.Field(0), typ, col))

	return rb.NewRecord()
}

func TestAppendColumn_FixedWidthValues(t *testing.T) {
	col, err := column.NewFixedWidthColumn(chtype.Int32, []byte{
		1, 0, 0, 0,
		2, 0, 0, 0,
		255, 255, 255, 255, // -1
	})
	require.NoError(t, err)

	opts, err := NewConversionOptions()
	require.NoError(t, err)

	rec := buildSingleFieldRecord(t, "n", chtype.Int32, col, opts)
	defer rec.Release()

	got := rec.Column(0).(*array.Int32)
	require.Equal(t, 3, got.Len())
	assert.Equal(t, int32(1), got.Value(0))
	assert.Equal(t, int32(2), got.Value(1))
	assert.Equal(t, int32(-1), got.Value(2))
}

func TestAppendColumn_NullableMarksValidity(t *testing.T) {
	typ, err := chtype.NewNullable(chtype.Int32)
	require.NoError(t, err)

	inner, err := column.NewFixedWidthColumn(chtype.Int32, []byte{
		0, 0, 0, 0,
		9, 0, 0, 0,
		0, 0, 0, 0,
	})
	require.NoError(t, err)
	col := column.NewNullableColumn(typ, []bool{true, false, true}, inner)

	opts, err := NewConversionOptions()
	require.NoError(t, err)

	rec := buildSingleFieldRecord(t, "n", typ, col, opts)
	defer rec.Release()

	got := rec.Column(0).(*array.Int32)
	require.Equal(t, 3, got.Len())
	assert.True(t, got.IsNull(0))
	assert.False(t, got.IsNull(1))
	assert.Equal(t, int32(9), got.Value(1))
	assert.True(t, got.IsNull(2))
}

func TestAppendColumn_LowCardinalityNullAppendsDictionaryNull(t *testing.T) {
	nullableStr, err := chtype.NewNullable(chtype.String_)
	require.NoError(t, err)
	typ, err := chtype.NewLowCardinality(nullableStr)
	require.NoError(t, err)

	dict := &column.StringColumn{Data: [][]byte{[]byte("only")}}
	col := column.NewLowCardinalityColumn(typ, dict, []uint64{0, 1})

	opts, err := NewConversionOptions()
	require.NoError(t, err)

	rec := buildSingleFieldRecord(t, "lc", typ, col, opts)
	defer rec.Release()

	got := rec.Column(0).(*array.Dictionary)
	require.Equal(t, 2, got.Len())
	assert.True(t, got.IsNull(0))
	assert.False(t, got.IsNull(1))

	values := got.Dictionary().(*array.Binary)
	assert.Equal(t, "only", values.ValueString(got.GetValueIndex(1)))
}
