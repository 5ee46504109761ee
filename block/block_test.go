package block

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nativedb/chclient/chtype"
	"github.com/nativedb/chclient/column"
	"github.com/nativedb/chclient/errs"
	"github.com/nativedb/chclient/pool"
	"github.com/nativedb/chclient/wire"
)

func encodeDecode(t *testing.T, b *Block) *Block {
	t.Helper()

	w := wire.NewWriter(pool.New(), 256)
	require.NoError(t, Encode(w, b))

	r := wire.NewReader(bytes.NewReader(w.Bytes()))
	got, err := Decode(r)
	require.NoError(t, err)

	return got
}

func TestBlock_RoundTrip(t *testing.T) {
	col, err := column.NewFixedWidthColumn(chtype.Int32, []byte{
		1, 0, 0, 0,
		2, 0, 0, 0,
		3, 0, 0, 0,
	})
	require.NoError(t, err)

	b := &Block{
		TableName: "",
		Info:      Info{IsOverflow: true, BucketNum: 7},
		Columns: []Column{
			{Name: "n", Type: chtype.Int32, Data: col},
		},
	}

	got := encodeDecode(t, b)
	assert.Equal(t, b.TableName, got.TableName)
	assert.Equal(t, b.Info, got.Info)
	assert.Equal(t, 3, got.Rows())
	require.Len(t, got.Columns, 1)
	assert.Equal(t, "n", got.Columns[0].Name)
	assert.Equal(t, chtype.Int32, got.Columns[0].Type)
	assert.Equal(t, 3, got.Columns[0].Data.Len())
}

func TestBlock_HeaderBlockRoundTrip(t *testing.T) {
	b := NewHeader()

	got := encodeDecode(t, b)
	assert.True(t, got.IsHeader())
	assert.Equal(t, 0, got.Rows())
	assert.Empty(t, got.Columns)
}

func TestBlock_SchemaOnlyBlockWithColumnsAndZeroRows(t *testing.T) {
	col, err := column.NewFixedWidthColumn(chtype.UInt8, nil)
	require.NoError(t, err)

	b := &Block{
		Columns: []Column{{Name: "x", Type: chtype.UInt8, Data: col}},
	}

	got := encodeDecode(t, b)
	assert.True(t, got.IsHeader())
	require.Len(t, got.Columns, 1)
	assert.Equal(t, 0, got.Columns[0].Data.Len())
}

func TestBlock_MultipleColumnsPreserveOrder(t *testing.T) {
	ints, err := column.NewFixedWidthColumn(chtype.UInt8, []byte{1, 2})
	require.NoError(t, err)
	strs := &column.StringColumn{Data: [][]byte{[]byte("a"), []byte("b")}}

	b := &Block{
		Columns: []Column{
			{Name: "id", Type: chtype.UInt8, Data: ints},
			{Name: "label", Type: chtype.String_, Data: strs},
		},
	}

	got := encodeDecode(t, b)
	require.Len(t, got.Columns, 2)
	assert.Equal(t, "id", got.Columns[0].Name)
	assert.Equal(t, "label", got.Columns[1].Name)
}

func TestBlock_Decode_RejectsNonZeroInfoTerminator(t *testing.T) {
	w := wire.NewWriter(pool.New(), 64)
	w.String("")
	w.Bool(false)
	w.Int32(0)
	w.Varuint(1) // terminator must be 0
	w.Varuint(0)
	w.Varuint(0)

	r := wire.NewReader(bytes.NewReader(w.Bytes()))
	_, err := Decode(r)
	require.Error(t, err)
	assert.Equal(t, errs.KindMalformedFrame, errs.KindOf(err))
}

func TestBlock_Decode_RejectsUnknownTypeString(t *testing.T) {
	w := wire.NewWriter(pool.New(), 64)
	w.String("")
	(&Info{}).Bytes(w)
	w.Varuint(1)
	w.Varuint(0)
	w.String("col")
	w.String("NotARealType")

	r := wire.NewReader(bytes.NewReader(w.Bytes()))
	_, err := Decode(r)
	require.Error(t, err)
}
