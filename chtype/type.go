// Package chtype implements the server type algebra: a closed set of
// ServerType values, a recursive-descent parser for their textual
// form, and an inverse formatter. See SPEC_FULL §3.1 and §4.3.
package chtype

import (
	"fmt"

	"github.com/nativedb/chclient/errs"
)

// Kind tags the closed set of ServerType variants. It is never
// exported as an open interface hierarchy — every variant is one of
// these, and a type switch on Kind is exhaustive.
type Kind uint8

const (
	KindInt8 Kind = iota + 1
	KindInt16
	KindInt32
	KindInt64
	KindInt128
	KindInt256
	KindUInt8
	KindUInt16
	KindUInt32
	KindUInt64
	KindUInt128
	KindUInt256
	KindFloat32
	KindFloat64
	KindDecimal
	KindString
	KindFixedString
	KindDate
	KindDate32
	KindDateTime
	KindDateTime64
	KindUUID
	KindIPv4
	KindIPv6
	KindEnum8
	KindEnum16
	KindArray
	KindTuple
	KindMap
	KindNullable
	KindLowCardinality
	KindVariant
	KindDynamic
	KindJSON
	KindNothing
)

// ServerType is the closed interface every type algebra value
// implements. Kind identifies the concrete variant; String renders
// the canonical type-string form such that Parse(t.String()) == t.
type ServerType interface {
	Kind() Kind
	String() string
}

// simple is a ServerType with no parameters: the integer, float, and
// other zero-arity kinds.
type simple struct {
	kind Kind
	name string
}

func (s simple) Kind() Kind     { return s.kind }
func (s simple) String() string { return s.name }

var (
	Int8    ServerType = simple{KindInt8, "Int8"}
	Int16   ServerType = simple{KindInt16, "Int16"}
	Int32   ServerType = simple{KindInt32, "Int32"}
	Int64   ServerType = simple{KindInt64, "Int64"}
	Int128  ServerType = simple{KindInt128, "Int128"}
	Int256  ServerType = simple{KindInt256, "Int256"}
	UInt8   ServerType = simple{KindUInt8, "UInt8"}
	UInt16  ServerType = simple{KindUInt16, "UInt16"}
	UInt32  ServerType = simple{KindUInt32, "UInt32"}
	UInt64  ServerType = simple{KindUInt64, "UInt64"}
	UInt128 ServerType = simple{KindUInt128, "UInt128"}
	UInt256 ServerType = simple{KindUInt256, "UInt256"}
	Float32 ServerType = simple{KindFloat32, "Float32"}
	Float64 ServerType = simple{KindFloat64, "Float64"}
	String_ ServerType = simple{KindString, "String"}
	Date    ServerType = simple{KindDate, "Date"}
	Date32  ServerType = simple{KindDate32, "Date32"}
	UUID    ServerType = simple{KindUUID, "UUID"}
	IPv4    ServerType = simple{KindIPv4, "IPv4"}
	IPv6    ServerType = simple{KindIPv6, "IPv6"}
	Dynamic ServerType = simple{KindDynamic, "Dynamic"}
	JSON    ServerType = simple{KindJSON, "JSON"}
	Nothing ServerType = simple{KindNothing, "Nothing"}
)

// simpleByName is the dispatch table Parse uses for zero-arity kinds.
var simpleByName = map[string]ServerType{
	"Int8": Int8, "Int16": Int16, "Int32": Int32, "Int64": Int64,
	"Int128": Int128, "Int256": Int256,
	"UInt8": UInt8, "UInt16": UInt16, "UInt32": UInt32, "UInt64": UInt64,
	"UInt128": UInt128, "UInt256": UInt256,
	"Float32": Float32, "Float64": Float64,
	"String": String_, "Date": Date, "Date32": Date32,
	"UUID": UUID, "IPv4": IPv4, "IPv6": IPv6,
	"Dynamic": Dynamic, "JSON": JSON, "Nothing": Nothing,
}

// FixedString is a fixed-width byte string of N bytes, N ∈ [1, 2²⁰).
type FixedString struct {
	N int
}

// NewFixedString validates N and constructs a FixedString.
func NewFixedString(n int) (FixedString, error) {
	const maxN = 1 << 20
	if n < 1 || n >= maxN {
		return FixedString{}, errs.SchemaIncompatiblef("chtype.NewFixedString", "N=%d out of range [1, %d)", n, maxN)
	}

	return FixedString{N: n}, nil
}

func (t FixedString) Kind() Kind     { return KindFixedString }
func (t FixedString) String() string { return fmt.Sprintf("FixedString(%d)", t.N) }

// decimalWidths are the backing integer widths a Decimal may use, in
// ascending order; NewDecimal picks the smallest that fits P.
var decimalWidths = [...]struct {
	maxPrecision int
	bits         int
}{
	{9, 32}, {18, 64}, {38, 128}, {76, 256},
}

// Decimal is a fixed-point number with precision P ∈ [1, 76] and
// scale S ∈ [0, P]. BackingBits is derived, not stored independently.
type Decimal struct {
	Precision   int
	Scale       int
	BackingBits int
}

// NewDecimal validates P and S and derives the backing width.
func NewDecimal(precision, scale int) (Decimal, error) {
	if precision < 1 || precision > 76 {
		return Decimal{}, errs.SchemaIncompatiblef("chtype.NewDecimal", "precision %d out of range [1, 76]", precision)
	}
	if scale < 0 || scale > precision {
		return Decimal{}, errs.SchemaIncompatiblef("chtype.NewDecimal", "scale %d out of range [0, %d]", scale, precision)
	}

	for _, w := range decimalWidths {
		if precision <= w.maxPrecision {
			return Decimal{Precision: precision, Scale: scale, BackingBits: w.bits}, nil
		}
	}

	// unreachable: precision <= 76 always matches the last tier
	return Decimal{}, errs.SchemaIncompatiblef("chtype.NewDecimal", "precision %d has no backing width", precision)
}

func (t Decimal) Kind() Kind { return KindDecimal }
func (t Decimal) String() string {
	return fmt.Sprintf("Decimal(%d, %d)", t.Precision, t.Scale)
}

// DateTime is unsigned 32-bit seconds since epoch, with an optional
// timezone name.
type DateTime struct {
	TZ string
}

func (t DateTime) Kind() Kind { return KindDateTime }
func (t DateTime) String() string {
	if t.TZ == "" {
		return "DateTime"
	}

	return fmt.Sprintf("DateTime('%s')", escapeEnumName(t.TZ))
}

// DateTime64 is signed 64-bit ticks of 10⁻ᵖ seconds since epoch, with
// precision ∈ [0, 9] and an optional timezone name.
type DateTime64 struct {
	Precision int
	TZ        string
}

// NewDateTime64 validates precision.
func NewDateTime64(precision int, tz string) (DateTime64, error) {
	if precision < 0 || precision > 9 {
		return DateTime64{}, errs.SchemaIncompatiblef("chtype.NewDateTime64", "precision %d out of range [0, 9]", precision)
	}

	return DateTime64{Precision: precision, TZ: tz}, nil
}

func (t DateTime64) Kind() Kind { return KindDateTime64 }
func (t DateTime64) String() string {
	if t.TZ == "" {
		return fmt.Sprintf("DateTime64(%d)", t.Precision)
	}

	return fmt.Sprintf("DateTime64(%d, '%s')", t.Precision, escapeEnumName(t.TZ))
}

// EnumPair is one (name, code) entry of an Enum8/Enum16.
type EnumPair struct {
	Name string
	Code int32
}

// Enum8 holds an ordered list of (name, code) pairs with 8-bit codes.
type Enum8 struct {
	Pairs []EnumPair
}

// Enum16 holds an ordered list of (name, code) pairs with 16-bit codes.
type Enum16 struct {
	Pairs []EnumPair
}

// NewEnum8 validates that names and codes are each unique and codes
// fit in an int8.
func NewEnum8(pairs []EnumPair) (Enum8, error) {
	if err := validateEnumPairs(pairs, 8); err != nil {
		return Enum8{}, err
	}

	return Enum8{Pairs: pairs}, nil
}

// NewEnum16 validates that names and codes are each unique and codes
// fit in an int16.
func NewEnum16(pairs []EnumPair) (Enum16, error) {
	if err := validateEnumPairs(pairs, 16); err != nil {
		return Enum16{}, err
	}

	return Enum16{Pairs: pairs}, nil
}

func validateEnumPairs(pairs []EnumPair, width int) error {
	if len(pairs) == 0 {
		return errs.SchemaIncompatiblef("chtype.validateEnumPairs", "enum%d must have at least one pair", width)
	}

	names := make(map[string]struct{}, len(pairs))
	codes := make(map[int32]struct{}, len(pairs))

	var lo, hi int64
	if width == 8 {
		lo, hi = -128, 127
	} else {
		lo, hi = -32768, 32767
	}

	for _, p := range pairs {
		if _, dup := names[p.Name]; dup {
			return errs.SchemaIncompatiblef("chtype.validateEnumPairs", "duplicate enum name %q", p.Name)
		}
		if _, dup := codes[p.Code]; dup {
			return errs.SchemaIncompatiblef("chtype.validateEnumPairs", "duplicate enum code %d", p.Code)
		}
		if int64(p.Code) < lo || int64(p.Code) > hi {
			return errs.SchemaIncompatiblef("chtype.validateEnumPairs", "code %d out of range for enum%d", p.Code, width)
		}

		names[p.Name] = struct{}{}
		codes[p.Code] = struct{}{}
	}

	return nil
}

func (t Enum8) Kind() Kind     { return KindEnum8 }
func (t Enum8) String() string { return formatEnum("Enum8", t.Pairs) }

func (t Enum16) Kind() Kind     { return KindEnum16 }
func (t Enum16) String() string { return formatEnum("Enum16", t.Pairs) }

// Array is a variable-length sequence of Inner.
type Array struct {
	Inner ServerType
}

func (t Array) Kind() Kind     { return KindArray }
func (t Array) String() string { return fmt.Sprintf("Array(%s)", t.Inner.String()) }

// Tuple is a fixed-arity heterogeneous record.
type Tuple struct {
	Fields []ServerType
}

func (t Tuple) Kind() Kind { return KindTuple }
func (t Tuple) String() string {
	s := "Tuple("
	for i, f := range t.Fields {
		if i > 0 {
			s += ", "
		}
		s += f.String()
	}

	return s + ")"
}

// Map is Key→Value, encoded on the wire as Array(Tuple(Key, Value)).
type Map struct {
	Key   ServerType
	Value ServerType
}

func (t Map) Kind() Kind { return KindMap }
func (t Map) String() string {
	return fmt.Sprintf("Map(%s, %s)", t.Key.String(), t.Value.String())
}

// Nullable wraps Inner to admit a NULL value. Nullable(Nullable(_))
// is forbidden; NewNullable enforces it, along with the server's
// Nullable(Array(_)) / Nullable(LowCardinality(_)) prohibition.
type Nullable struct {
	Inner ServerType
}

// NewNullable validates Inner against the invariants in SPEC_FULL §3.1.
func NewNullable(inner ServerType) (Nullable, error) {
	switch inner.Kind() {
	case KindNullable:
		return Nullable{}, errs.SchemaIncompatiblef("chtype.NewNullable", "Nullable(Nullable(_)) is forbidden")
	case KindArray:
		return Nullable{}, errs.SchemaIncompatiblef("chtype.NewNullable", "Nullable(Array(_)) is forbidden")
	case KindLowCardinality:
		return Nullable{}, errs.SchemaIncompatiblef("chtype.NewNullable", "Nullable(LowCardinality(_)) is forbidden")
	}

	return Nullable{Inner: inner}, nil
}

func (t Nullable) Kind() Kind     { return KindNullable }
func (t Nullable) String() string { return fmt.Sprintf("Nullable(%s)", t.Inner.String()) }

// LowCardinality wraps Inner with a dictionary-encoded layout (§4.4).
// Inner must be String, FixedString, a numeric, Date, DateTime, or a
// Nullable of one of those.
type LowCardinality struct {
	Inner ServerType
}

// NewLowCardinality validates Inner against the whitelist in
// SPEC_FULL §3.1.
func NewLowCardinality(inner ServerType) (LowCardinality, error) {
	unwrapped := inner
	if n, ok := inner.(Nullable); ok {
		unwrapped = n.Inner
	}

	if !lowCardinalityEligible(unwrapped) {
		return LowCardinality{}, errs.SchemaIncompatiblef("chtype.NewLowCardinality", "inner type %s is not eligible for LowCardinality", inner.String())
	}

	return LowCardinality{Inner: inner}, nil
}

func lowCardinalityEligible(t ServerType) bool {
	switch t.Kind() {
	case KindString, KindFixedString, KindDate, KindDateTime,
		KindInt8, KindInt16, KindInt32, KindInt64, KindInt128, KindInt256,
		KindUInt8, KindUInt16, KindUInt32, KindUInt64, KindUInt128, KindUInt256,
		KindFloat32, KindFloat64:
		return true
	default:
		return false
	}
}

func (t LowCardinality) Kind() Kind { return KindLowCardinality }
func (t LowCardinality) String() string {
	return fmt.Sprintf("LowCardinality(%s)", t.Inner.String())
}

// Variant is a closed union of alternative types; the active
// alternative is picked per row (§4.4).
type Variant struct {
	Alts []ServerType
}

func (t Variant) Kind() Kind { return KindVariant }
func (t Variant) String() string {
	s := "Variant("
	for i, a := range t.Alts {
		if i > 0 {
			s += ", "
		}
		s += a.String()
	}

	return s + ")"
}

func formatEnum(name string, pairs []EnumPair) string {
	s := name + "("
	for i, p := range pairs {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("'%s' = %d", escapeEnumName(p.Name), p.Code)
	}

	return s + ")"
}
