// Package arrowbridge maps server types and columns (packages chtype,
// column) to and from Arrow's interchange representation
// (github.com/apache/arrow-go/v18), per SPEC_FULL §4.6. Arrow usage is
// grounded on the arrowarc managed-writer reference
// (other_examples/...managed_writer.go.go), the only pack file that
// actually builds arrow.Schema/array.Builder values; ConversionOptions
// reuses the teacher's generic functional-options pattern
// (internal/options) the same way blob.NumericEncoderConfig does.
package arrowbridge

import (
	"github.com/nativedb/chclient/chtype"
	"github.com/nativedb/chclient/internal/options"
)

// EnumOverride forces a dictionary-encoded Arrow column to map to
// Enum8 or Enum16 with an explicit (name, code) table instead of the
// default LowCardinality mapping.
type EnumOverride struct {
	Width int // 8 or 16
	Pairs []chtype.EnumPair
}

// ConversionOptions is the policy record SPEC_FULL §4.6 names:
// strings_as_strings, array_nullable_error, low_cardinality_nullable_error,
// enum_i8/enum_i16 per-column overrides, date_as_date32.
type ConversionOptions struct {
	stringsAsStrings         bool
	arrayNullableError       bool
	lowCardinalityNullError  bool
	dateAsDate32             bool
	enumOverrides            map[string]EnumOverride
}

// NewConversionOptions builds a ConversionOptions from zero or more
// Option values, applied in order.
func NewConversionOptions(opts ...Option) (*ConversionOptions, error) {
	c := &ConversionOptions{enumOverrides: make(map[string]EnumOverride)}
	if err := options.Apply(c, opts...); err != nil {
		return nil, err
	}

	return c, nil
}

// Option configures a ConversionOptions.
type Option = options.Option[*ConversionOptions]

// WithStringsAsStrings maps server String to an interchange UTF-8
// string column instead of binary.
func WithStringsAsStrings() Option {
	return options.NoError(func(c *ConversionOptions) {
		c.stringsAsStrings = true
	})
}

// WithArrayNullableError rejects a nullable array field at bridge
// time instead of pushing nullability down to the element type.
func WithArrayNullableError() Option {
	return options.NoError(func(c *ConversionOptions) {
		c.arrayNullableError = true
	})
}

// WithLowCardinalityNullableError is the LowCardinality analog of
// WithArrayNullableError.
func WithLowCardinalityNullableError() Option {
	return options.NoError(func(c *ConversionOptions) {
		c.lowCardinalityNullError = true
	})
}

// WithDateAsDate32 prefers Date32 over Date for 32-bit date fields on
// the outbound (interchange → server) path.
func WithDateAsDate32() Option {
	return options.NoError(func(c *ConversionOptions) {
		c.dateAsDate32 = true
	})
}

// WithEnumI8 forces column to map to Enum8 with the given (name, code)
// table instead of the default LowCardinality mapping.
func WithEnumI8(column string, pairs []chtype.EnumPair) Option {
	return options.NoError(func(c *ConversionOptions) {
		c.enumOverrides[column] = EnumOverride{Width: 8, Pairs: pairs}
	})
}

// WithEnumI16 is the 16-bit analog of WithEnumI8.
func WithEnumI16(column string, pairs []chtype.EnumPair) Option {
	return options.NoError(func(c *ConversionOptions) {
		c.enumOverrides[column] = EnumOverride{Width: 16, Pairs: pairs}
	})
}
