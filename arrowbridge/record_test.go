package arrowbridge

import (
	"math/big"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/decimal128"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nativedb/chclient/chtype"
	"github.com/nativedb/chclient/column"
)

// bridgeRoundTrip drives col through appendColumn -> arrow.Record ->
// RecordToBlock -> BlockToRecord -> RecordToBlock, the same two hops
// BlockToRecord(RecordToBlock(...)) composes in production, and
// returns both decoded blocks so callers can assert structure at each
// hop plus that the second hop reproduces the first exactly.
func bridgeRoundTrip(t *testing.T, name string, typ chtype.ServerType, col column.Column, opts *ConversionOptions) (first, second column.Column) {
	t.Helper()

	mem := memory.NewGoAllocator()

	f, err := ServerTypeToField(name, typ, opts)
	require.NoError(t, err)
	schema := arrow.NewSchema([]arrow.Field{f}, nil)

	rb := array.NewRecordBuilder(mem, schema)
	defer rb.Release()
	require.NoError(t, appendColumn(rb.Field(0), typ, col))

	rec := rb.NewRecord()
	defer rec.Release()

	blk, err := RecordToBlock(schema, rec, opts)
	require.NoError(t, err)
	require.Len(t, blk.Columns, 1)

	rec2, err := BlockToRecord(mem, blk, opts)
	require.NoError(t, err)
	defer rec2.Release()

	blk2, err := RecordToBlock(schema, rec2, opts)
	require.NoError(t, err)
	require.Len(t, blk2.Columns, 1)

	return blk.Columns[0].Data, blk2.Columns[0].Data
}

func TestBridge_DecimalRoundTrip(t *testing.T) {
	typ, err := chtype.NewDecimal(9, 2) // BackingBits=32, width=4, limit=2^31
	require.NoError(t, err)

	data := make([]byte, 3*4)
	putBigIntLE(data[0:4], big.NewInt(0))
	putBigIntLE(data[4:8], big.NewInt(2147483647))   // max int32: limit-1
	putBigIntLE(data[8:12], big.NewInt(-2147483648)) // min int32: -limit, the legitimate boundary
	col := column.NewDecimalColumn(typ, data)

	opts, err := NewConversionOptions()
	require.NoError(t, err)

	first, second := bridgeRoundTrip(t, "d", typ, col, opts)

	fd := first.(*column.DecimalColumn)
	assert.Equal(t, typ, fd.Type())
	assert.Equal(t, data, fd.Data)

	sd := second.(*column.DecimalColumn)
	assert.Equal(t, fd.Data, sd.Data)
}

func TestDecimalArrayToColumn_RejectsValueAtBackingLimit(t *testing.T) {
	typ, err := chtype.NewDecimal(9, 2)
	require.NoError(t, err)

	opts, err := NewConversionOptions()
	require.NoError(t, err)

	f, err := ServerTypeToField("d", typ, opts)
	require.NoError(t, err)
	schema := arrow.NewSchema([]arrow.Field{f}, nil)

	mem := memory.NewGoAllocator()
	rb := array.NewRecordBuilder(mem, schema)
	defer rb.Release()

	n, err := decimal128.FromBigInt(big.NewInt(1 << 31)) // exactly the backing limit, not representable
	require.NoError(t, err)
	rb.Field(0).(*array.Decimal128Builder).Append(n)

	rec := rb.NewRecord()
	defer rec.Release()

	_, err = RecordToBlock(schema, rec, opts)
	require.Error(t, err)
}

func TestBridge_LowCardinalityNullableStringRoundTrip(t *testing.T) {
	nullableStr, err := chtype.NewNullable(chtype.String_)
	require.NoError(t, err)
	typ, err := chtype.NewLowCardinality(nullableStr)
	require.NoError(t, err)

	dict := &column.StringColumn{Data: [][]byte{[]byte("a"), []byte("b")}}
	// rows: NULL, "a", "b", "a" -- index 0 means NULL, real entries shift by one.
	col := column.NewLowCardinalityColumn(typ, dict, []uint64{0, 1, 2, 1})

	opts, err := NewConversionOptions()
	require.NoError(t, err)

	first, second := bridgeRoundTrip(t, "lc", typ, col, opts)

	fl := first.(*column.LowCardinalityColumn)
	assert.Equal(t, typ, fl.Type())
	assert.Equal(t, []uint64{0, 1, 2, 1}, fl.Indices)
	assert.Equal(t, dict.Data, fl.Dict.(*column.StringColumn).Data)

	sl := second.(*column.LowCardinalityColumn)
	assert.Equal(t, fl.Indices, sl.Indices)
	assert.Equal(t, fl.Dict.(*column.StringColumn).Data, sl.Dict.(*column.StringColumn).Data)
}

func TestBridge_NestedArrayRoundTrip(t *testing.T) {
	// rows: [[1,2],[3]], [], [[],[4,5,6]]
	leaf, err := column.NewFixedWidthColumn(chtype.Int32, []byte{
		1, 0, 0, 0, 2, 0, 0, 0, 3, 0, 0, 0,
		4, 0, 0, 0, 5, 0, 0, 0, 6, 0, 0, 0,
	})
	require.NoError(t, err)

	innerType := chtype.Array{Inner: chtype.Int32}
	inner := column.NewArrayColumn(innerType, []uint64{2, 3, 3, 6}, leaf)

	outerType := chtype.Array{Inner: innerType}
	outer := column.NewArrayColumn(outerType, []uint64{2, 2, 3}, inner)

	opts, err := NewConversionOptions()
	require.NoError(t, err)

	first, second := bridgeRoundTrip(t, "arr", outerType, outer, opts)

	fo := first.(*column.ArrayColumn)
	assert.Equal(t, []uint64{2, 2, 3}, fo.Offsets)
	assert.Equal(t, outerType, fo.Type())

	fm := fo.Inner.(*column.ArrayColumn)
	assert.Equal(t, []uint64{2, 3, 3, 6}, fm.Offsets)
	assert.Equal(t, innerType, fm.Type())

	fl := fm.Inner.(*column.FixedWidthColumn)
	assert.Equal(t, leaf.Data, fl.Data)

	so := second.(*column.ArrayColumn)
	assert.Equal(t, fo.Offsets, so.Offsets)
	sm := so.Inner.(*column.ArrayColumn)
	assert.Equal(t, fm.Offsets, sm.Offsets)
	sl := sm.Inner.(*column.FixedWidthColumn)
	assert.Equal(t, fl.Data, sl.Data)
}

func TestBridge_TupleRoundTrip(t *testing.T) {
	nums, err := column.NewFixedWidthColumn(chtype.Int32, []byte{
		1, 0, 0, 0, 2, 0, 0, 0, 3, 0, 0, 0,
	})
	require.NoError(t, err)
	strs := &column.StringColumn{Data: [][]byte{[]byte("x"), []byte("yy"), []byte("zzz")}}

	typ := chtype.Tuple{Fields: []chtype.ServerType{chtype.Int32, chtype.String_}}
	col := column.NewTupleColumn(typ, []column.Column{nums, strs}, 3)

	opts, err := NewConversionOptions()
	require.NoError(t, err)

	first, second := bridgeRoundTrip(t, "t", typ, col, opts)

	ft := first.(*column.TupleColumn)
	require.Equal(t, 3, ft.Len())
	assert.Equal(t, typ, ft.Type())
	assert.Equal(t, nums.Data, ft.Fields[0].(*column.FixedWidthColumn).Data)
	assert.Equal(t, strs.Data, ft.Fields[1].(*column.StringColumn).Data)

	st := second.(*column.TupleColumn)
	require.Equal(t, 3, st.Len())
	assert.Equal(t, ft.Fields[0].(*column.FixedWidthColumn).Data, st.Fields[0].(*column.FixedWidthColumn).Data)
	assert.Equal(t, ft.Fields[1].(*column.StringColumn).Data, st.Fields[1].(*column.StringColumn).Data)
}

func TestBridge_MapRoundTrip(t *testing.T) {
	// rows: {"a":1,"b":2}, {}, {"c":3}
	keys := &column.StringColumn{Data: [][]byte{[]byte("a"), []byte("b"), []byte("c")}}
	values, err := column.NewFixedWidthColumn(chtype.Int32, []byte{
		1, 0, 0, 0, 2, 0, 0, 0, 3, 0, 0, 0,
	})
	require.NoError(t, err)

	typ := chtype.Map{Key: chtype.String_, Value: chtype.Int32}
	col := column.NewMapColumn(typ, []uint64{2, 2, 3}, keys, values)

	opts, err := NewConversionOptions()
	require.NoError(t, err)

	first, second := bridgeRoundTrip(t, "m", typ, col, opts)

	fm := first.(*column.MapColumn)
	assert.Equal(t, []uint64{2, 2, 3}, fm.Offsets)
	assert.Equal(t, typ, fm.Type())
	assert.Equal(t, keys.Data, fm.Keys.(*column.StringColumn).Data)
	assert.Equal(t, values.Data, fm.Values.(*column.FixedWidthColumn).Data)

	sm := second.(*column.MapColumn)
	assert.Equal(t, fm.Offsets, sm.Offsets)
	assert.Equal(t, fm.Keys.(*column.StringColumn).Data, sm.Keys.(*column.StringColumn).Data)
	assert.Equal(t, fm.Values.(*column.FixedWidthColumn).Data, sm.Values.(*column.FixedWidthColumn).Data)
}
