package column

import (
	"github.com/nativedb/chclient/chtype"
	"github.com/nativedb/chclient/errs"
	"github.com/nativedb/chclient/internal/hash"
	"github.com/nativedb/chclient/wire"
)

// LowCardinality flags word layout (SPEC_FULL §4.4): key-width code in
// bits 0-1 (0=1 byte, 1=2 bytes, 2=4 bytes, 3=8 bytes), serialization
// version 1 at bit 8, HAS_ADDITIONAL_KEYS_BIT at bit 9,
// NEEDS_GLOBAL_DICT_BIT at bit 10. This implementation never shares a
// global dictionary across blocks, so NEEDS_GLOBAL_DICT_BIT is always
// clear and HAS_ADDITIONAL_KEYS_BIT is always set.
const (
	lcVersion1Bit       uint64 = 1 << 8
	lcHasAdditionalKeys uint64 = 1 << 9
	lcNeedsGlobalDict   uint64 = 1 << 10
	lcKeyWidthCodeMask  uint64 = 0x3
)

var lcKeyWidths = [4]int{1, 2, 4, 8}

func lcKeyWidthCode(width int) uint64 {
	for code, w := range lcKeyWidths {
		if w == width {
			return uint64(code)
		}
	}

	panic("column: invalid LowCardinality key width")
}

func selectKeyWidth(maxIndex uint64) int {
	switch {
	case maxIndex <= 0xFF:
		return 1
	case maxIndex <= 0xFFFF:
		return 2
	case maxIndex <= 0xFFFFFFFF:
		return 4
	default:
		return 8
	}
}

// LowCardinalityColumn holds a dictionary of Len(Dict) distinct
// non-null values and N per-row indices into it. When the wrapped
// type is Nullable, index 0 means NULL and real dictionary entries
// are indices 1..Len(Dict) (SPEC_FULL §4.4, §8 law 9).
type LowCardinalityColumn struct {
	typ     chtype.LowCardinality
	Dict    Column
	Indices []uint64
}

func (c *LowCardinalityColumn) Type() chtype.ServerType { return c.typ }
func (c *LowCardinalityColumn) Len() int                { return len(c.Indices) }

// NewLowCardinalityColumn builds a LowCardinalityColumn from an
// already-constructed dictionary and index array, for callers outside
// this package (the Arrow bridge) that assemble both independently
// and need typ set so Type() satisfies the Column interface.
func NewLowCardinalityColumn(t chtype.LowCardinality, dict Column, indices []uint64) *LowCardinalityColumn {
	return &LowCardinalityColumn{typ: t, Dict: dict, Indices: indices}
}

// NewLowCardinalityFromStrings builds a LowCardinalityColumn over
// String_ by deduplicating values into a dictionary, keyed by their
// xxHash64 for fast lookup during construction the way the teacher's
// metric-name hashing avoids a string-keyed map on its hot path.
// A hash collision cannot merge two distinct values here: on a hash
// match the candidate's bytes are compared before reusing the
// dictionary entry, unlike a
// metric ID where the hash stands in for the name permanently.
func NewLowCardinalityFromStrings(values []string) (*LowCardinalityColumn, error) {
	type entry struct {
		value string
		index uint64
	}

	byHash := make(map[uint64][]entry, len(values))
	dict := &StringColumn{}
	indices := make([]uint64, len(values))

	for i, v := range values {
		h := hash.ID(v)

		idx := uint64(0)
		found := false
		for _, e := range byHash[h] {
			if e.value == v {
				idx = e.index
				found = true
				break
			}
		}

		if !found {
			idx = uint64(len(dict.Data))
			dict.Data = append(dict.Data, []byte(v))
			byHash[h] = append(byHash[h], entry{value: v, index: idx})
		}

		indices[i] = idx
	}

	typ, err := chtype.NewLowCardinality(chtype.String_)
	if err != nil {
		return nil, err
	}

	return &LowCardinalityColumn{typ: typ, Dict: dict, Indices: indices}, nil
}

func unwrapNullable(t chtype.ServerType) (inner chtype.ServerType, nullable bool) {
	if n, ok := t.(chtype.Nullable); ok {
		return n.Inner, true
	}

	return t, false
}

func encodeLowCardinality(w *wire.Writer, t chtype.LowCardinality, col Column, n int) error {
	lc, ok := col.(*LowCardinalityColumn)
	if !ok {
		return errs.MalformedFramef("column.encodeLowCardinality", "column is %T, want *LowCardinalityColumn", col)
	}
	if len(lc.Indices) != n {
		return errs.MalformedFramef("column.encodeLowCardinality", "column holds %d rows, want %d", len(lc.Indices), n)
	}

	nonNullInner, hasNull := unwrapNullable(t.Inner)
	dictSize := lc.Dict.Len()

	maxIndex := uint64(dictSize)
	if hasNull {
		maxIndex++
	}
	keyWidth := selectKeyWidth(maxIndex)

	flags := lcKeyWidthCode(keyWidth) | lcVersion1Bit | lcHasAdditionalKeys
	w.Uint64(flags)
	w.Uint64(uint64(dictSize))

	if err := Encode(w, nonNullInner, lc.Dict, dictSize); err != nil {
		return err
	}

	w.Uint64(uint64(n))
	for _, idx := range lc.Indices {
		writeKey(w, keyWidth, idx)
	}

	return nil
}

func decodeLowCardinality(r *wire.Reader, t chtype.LowCardinality, n int) (Column, error) {
	flags, err := r.Uint64()
	if err != nil {
		return nil, err
	}
	if flags&lcNeedsGlobalDict != 0 {
		return nil, errs.MalformedFramef("column.decodeLowCardinality", "shared global dictionaries are not supported")
	}

	code := flags & lcKeyWidthCodeMask
	if code >= uint64(len(lcKeyWidths)) {
		return nil, errs.MalformedFramef("column.decodeLowCardinality", "invalid key width code %d", code)
	}
	keyWidth := lcKeyWidths[code]

	dictSize, err := r.Uint64()
	if err != nil {
		return nil, err
	}

	nonNullInner, _ := unwrapNullable(t.Inner)

	dict, err := Decode(r, nonNullInner, int(dictSize))
	if err != nil {
		return nil, err
	}

	rowCount, err := r.Uint64()
	if err != nil {
		return nil, err
	}
	if int(rowCount) != n {
		return nil, errs.MalformedFramef("column.decodeLowCardinality", "row count %d does not match expected %d", rowCount, n)
	}

	indices := make([]uint64, n)
	for i := range indices {
		idx, err := readKey(r, keyWidth)
		if err != nil {
			return nil, err
		}
		indices[i] = idx
	}

	return &LowCardinalityColumn{typ: t, Dict: dict, Indices: indices}, nil
}

func writeKey(w *wire.Writer, width int, v uint64) {
	switch width {
	case 1:
		w.Uint8(uint8(v))
	case 2:
		w.Uint16(uint16(v))
	case 4:
		w.Uint32(uint32(v))
	default:
		w.Uint64(v)
	}
}

func readKey(r *wire.Reader, width int) (uint64, error) {
	switch width {
	case 1:
		v, err := r.Uint8()
		return uint64(v), err
	case 2:
		v, err := r.Uint16()
		return uint64(v), err
	case 4:
		v, err := r.Uint32()
		return uint64(v), err
	default:
		return r.Uint64()
	}
}
