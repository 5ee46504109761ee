package column

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nativedb/chclient/chtype"
	"github.com/nativedb/chclient/pool"
	"github.com/nativedb/chclient/wire"
)

func roundTrip(t *testing.T, typ chtype.ServerType, col Column, n int) Column {
	t.Helper()

	w := wire.NewWriter(pool.New(), 256)
	require.NoError(t, Encode(w, typ, col, n))

	r := wire.NewReader(bytes.NewReader(w.Bytes()))
	got, err := Decode(r, typ, n)
	require.NoError(t, err)
	assert.Equal(t, n, got.Len())

	return got
}

func TestFixedWidth_Int32RoundTrip(t *testing.T) {
	col, err := NewFixedWidthColumn(chtype.Int32, []byte{
		1, 0, 0, 0,
		2, 0, 0, 0,
		3, 0, 0, 0,
	})
	require.NoError(t, err)

	got := roundTrip(t, chtype.Int32, col, 3)
	fw := got.(*FixedWidthColumn)
	assert.Equal(t, col.Data, fw.Data)
}

func TestFixedWidth_Float64RoundTrip(t *testing.T) {
	w := wire.NewWriter(pool.New(), 64)
	w.Float64(3.14)
	w.Float64(-2.5)

	col, err := NewFixedWidthColumn(chtype.Float64, w.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 2, col.Len())
}

func TestString_RoundTrip(t *testing.T) {
	col := &StringColumn{Data: [][]byte{[]byte("hello"), []byte(""), []byte("world")}}

	got := roundTrip(t, chtype.String_, col, 3)
	sc := got.(*StringColumn)
	assert.Equal(t, col.Data, sc.Data)
}

func TestFixedString_PadsShortValueRoundTrip(t *testing.T) {
	typ, err := chtype.NewFixedString(8)
	require.NoError(t, err)

	col := &FixedStringColumn{typ: typ, Data: [][]byte{[]byte("ab"), []byte("12345678")}}

	got := roundTrip(t, typ, col, 2)
	fc := got.(*FixedStringColumn)
	assert.Equal(t, []byte("ab\x00\x00\x00\x00\x00\x00"), fc.Data[0])
	assert.Equal(t, []byte("12345678"), fc.Data[1])
}

func TestFixedString_RejectsOverlongValue(t *testing.T) {
	typ, err := chtype.NewFixedString(4)
	require.NoError(t, err)

	col := &FixedStringColumn{typ: typ, Data: [][]byte{[]byte("toolong")}}

	w := wire.NewWriter(pool.New(), 64)
	err = Encode(w, typ, col, 1)
	require.Error(t, err)
}

func TestNullable_RoundTrip(t *testing.T) {
	typ, err := chtype.NewNullable(chtype.Int32)
	require.NoError(t, err)

	inner, err := NewFixedWidthColumn(chtype.Int32, []byte{
		0, 0, 0, 0,
		9, 0, 0, 0,
		0, 0, 0, 0,
	})
	require.NoError(t, err)

	col := &NullableColumn{typ: typ, Null: []bool{true, false, true}, Inner: inner}

	got := roundTrip(t, typ, col, 3)
	nc := got.(*NullableColumn)
	assert.Equal(t, []bool{true, false, true}, nc.Null)
}

func TestArray_RoundTrip(t *testing.T) {
	// rows: [1,2], [], [3]
	inner, err := NewFixedWidthColumn(chtype.Int32, []byte{
		1, 0, 0, 0,
		2, 0, 0, 0,
		3, 0, 0, 0,
	})
	require.NoError(t, err)

	typ := chtype.Array{Inner: chtype.Int32}
	col := &ArrayColumn{typ: typ, Offsets: []uint64{2, 2, 3}, Inner: inner}

	got := roundTrip(t, typ, col, 3)
	ac := got.(*ArrayColumn)
	assert.Equal(t, []uint64{2, 2, 3}, ac.Offsets)
	assert.Equal(t, 3, ac.Inner.Len())
}

func TestArray_NestedRoundTrip(t *testing.T) {
	// rows: [[1,2],[3]], [], [[],[4,5,6]]
	leaf, err := NewFixedWidthColumn(chtype.Int32, []byte{
		1, 0, 0, 0,
		2, 0, 0, 0,
		3, 0, 0, 0,
		4, 0, 0, 0,
		5, 0, 0, 0,
		6, 0, 0, 0,
	})
	require.NoError(t, err)

	innerType := chtype.Array{Inner: chtype.Int32}
	inner := &ArrayColumn{typ: innerType, Offsets: []uint64{2, 3, 3, 6}, Inner: leaf}

	outerType := chtype.Array{Inner: innerType}
	col := &ArrayColumn{typ: outerType, Offsets: []uint64{2, 2, 3}, Inner: inner}

	got := roundTrip(t, outerType, col, 3)
	outer := got.(*ArrayColumn)
	require.Equal(t, []uint64{2, 2, 3}, outer.Offsets)

	middle := outer.Inner.(*ArrayColumn)
	assert.Equal(t, []uint64{2, 3, 3, 6}, middle.Offsets)
	assert.Equal(t, 6, middle.Inner.Len())

	leafGot := middle.Inner.(*FixedWidthColumn)
	assert.Equal(t, leaf.Data, leafGot.Data)
}

func TestTuple_RoundTrip(t *testing.T) {
	typ := chtype.Tuple{Fields: []chtype.ServerType{chtype.UInt8, chtype.String_}}

	f0, err := NewFixedWidthColumn(chtype.UInt8, []byte{1, 2})
	require.NoError(t, err)
	f1 := &StringColumn{Data: [][]byte{[]byte("a"), []byte("bb")}}

	col := &TupleColumn{typ: typ, Fields: []Column{f0, f1}, rows: 2}

	got := roundTrip(t, typ, col, 2)
	tc := got.(*TupleColumn)
	assert.Len(t, tc.Fields, 2)
}

func TestMap_RoundTrip(t *testing.T) {
	typ := chtype.Map{Key: chtype.String_, Value: chtype.UInt32}

	keys := &StringColumn{Data: [][]byte{[]byte("a"), []byte("b")}}
	values, err := NewFixedWidthColumn(chtype.UInt32, []byte{1, 0, 0, 0, 2, 0, 0, 0})
	require.NoError(t, err)

	col := &MapColumn{typ: typ, Offsets: []uint64{2}, Keys: keys, Values: values}

	got := roundTrip(t, typ, col, 1)
	mc := got.(*MapColumn)
	assert.Equal(t, []uint64{2}, mc.Offsets)
}

func TestEnum8_RoundTrip(t *testing.T) {
	typ, err := chtype.NewEnum8([]chtype.EnumPair{{Name: "a", Code: 1}, {Name: "b", Code: 2}})
	require.NoError(t, err)

	col := &Enum8Column{typ: typ, Data: []int8{1, 2, 1}}

	got := roundTrip(t, typ, col, 3)
	ec := got.(*Enum8Column)
	assert.Equal(t, []int8{1, 2, 1}, ec.Data)
}

func TestDecimal_RoundTrip(t *testing.T) {
	typ, err := chtype.NewDecimal(18, 4)
	require.NoError(t, err)

	col := &DecimalColumn{typ: typ, Data: make([]byte, 16)}

	got := roundTrip(t, typ, col, 2)
	dc := got.(*DecimalColumn)
	assert.Equal(t, 2, dc.Len())
}

func TestDateTime64_RoundTrip(t *testing.T) {
	typ, err := chtype.NewDateTime64(3, "UTC")
	require.NoError(t, err)

	col := &DateTime64Column{typ: typ, Data: []int64{1000, -500, 0}}

	got := roundTrip(t, typ, col, 3)
	dc := got.(*DateTime64Column)
	assert.Equal(t, []int64{1000, -500, 0}, dc.Data)
}

func TestUUID_RoundTrip_HighHalfFirst(t *testing.T) {
	var u uuid.UUID
	for i := range u {
		u[i] = byte(i + 1)
	}
	col := &UUIDColumn{Data: []uuid.UUID{u}}

	w := wire.NewWriter(pool.New(), 32)
	require.NoError(t, Encode(w, chtype.UUID, col, 1))

	// high half (bytes 0-7 of u) must be written first, as a
	// little-endian 64-bit word like every fixed-width wire value.
	wantHigh := uint64(0x0102030405060708)
	gotHigh := uint64(0)
	for i := 0; i < 8; i++ {
		gotHigh |= uint64(w.Bytes()[i]) << (8 * i)
	}
	assert.Equal(t, wantHigh, gotHigh)

	r := wire.NewReader(bytes.NewReader(w.Bytes()))
	decoded, err := Decode(r, chtype.UUID, 1)
	require.NoError(t, err)
	uc := decoded.(*UUIDColumn)
	assert.Equal(t, u, uc.Data[0])
}

func TestLowCardinality_RoundTripWithNulls(t *testing.T) {
	nullableString, err := chtype.NewNullable(chtype.String_)
	require.NoError(t, err)
	typ, err := chtype.NewLowCardinality(nullableString)
	require.NoError(t, err)

	dict := &StringColumn{Data: [][]byte{[]byte("red"), []byte("green"), []byte("blue")}}
	// index 0 reserved for null; rows: NULL, "red"(1), "blue"(3), "green"(2)
	col := &LowCardinalityColumn{typ: typ, Dict: dict, Indices: []uint64{0, 1, 3, 2}}

	got := roundTrip(t, typ, col, 4)
	lc := got.(*LowCardinalityColumn)
	assert.Equal(t, []uint64{0, 1, 3, 2}, lc.Indices)
	assert.Equal(t, 3, lc.Dict.Len())
}

func TestLowCardinality_WidensKeyBeyondOneByte(t *testing.T) {
	n := 300
	dict := make([][]byte, n)
	indices := make([]uint64, n)
	for i := range dict {
		dict[i] = []byte{byte(i)}
		indices[i] = uint64(i)
	}

	typ, err := chtype.NewLowCardinality(chtype.String_)
	require.NoError(t, err)

	col := &LowCardinalityColumn{typ: typ, Dict: &StringColumn{Data: dict}, Indices: indices}

	got := roundTrip(t, typ, col, n)
	lc := got.(*LowCardinalityColumn)
	assert.Equal(t, indices, lc.Indices)
}

func TestNewLowCardinalityFromStrings_Dedupes(t *testing.T) {
	col, err := NewLowCardinalityFromStrings([]string{"red", "green", "red", "blue", "green", "red"})
	require.NoError(t, err)

	assert.Equal(t, 3, col.Dict.Len())
	assert.Equal(t, col.Indices[0], col.Indices[2])
	assert.Equal(t, col.Indices[2], col.Indices[5])
	assert.Equal(t, col.Indices[1], col.Indices[4])
	assert.NotEqual(t, col.Indices[0], col.Indices[1])
	assert.NotEqual(t, col.Indices[0], col.Indices[3])

	got := roundTrip(t, col.typ, col, 6)
	lc := got.(*LowCardinalityColumn)
	assert.Equal(t, col.Indices, lc.Indices)
	assert.Equal(t, 3, lc.Dict.Len())
}

func TestOpaque_RoundTrip(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04}
	col := NewOpaqueColumn(chtype.JSON, 2, data)

	got := roundTrip(t, chtype.JSON, col, 2)
	oc := got.(*OpaqueColumn)
	assert.Equal(t, data, oc.Data)
}

func TestNothing_RoundTrip(t *testing.T) {
	col := nothingColumn{n: 5}

	got := roundTrip(t, chtype.Nothing, col, 5)
	assert.Equal(t, 5, got.Len())
}

func TestEncode_RejectsMismatchedColumnType(t *testing.T) {
	w := wire.NewWriter(pool.New(), 64)
	err := Encode(w, chtype.Int32, &StringColumn{Data: [][]byte{[]byte("x")}}, 1)
	require.Error(t, err)
}
