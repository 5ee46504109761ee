// Package column implements SPEC_FULL §4.4: the encode/decode pair
// for every type the chtype algebra can name, over a fixed row count N.
//
// Layout follows the teacher's blob/numeric_blob.go (fixed-width,
// contiguous-byte payloads) and blob/text_blob.go (variable-length,
// length-prefixed payloads) split: [FixedWidthColumn] covers every
// fixed-width scalar the same way, [StringColumn]/[FixedStringColumn]
// cover the two text shapes, and every composite ([NullableColumn],
// [ArrayColumn], [TupleColumn], [MapColumn], [LowCardinalityColumn])
// recurses into [Encode]/[Decode] for its element type rather than
// duplicating the scalar codecs.
package column
