// Package protocol implements SPEC_FULL §4.7: the session state
// machine that drives a single bidirectional stream through the
// Unconnected -> Hello -> Idle -> InQuery -> Terminated phases,
// encoding client packets (Hello, Query, Data, Cancel, Ping) and
// dispatching the tagged server response stream (Hello, Data,
// Exception, Progress, EndOfStream, ProfileInfo, Totals, Extremes,
// Log, TableColumns, ProfileEvents) onto it.
//
// Grounded on the other_examples reference kokizzu-ch/query.go (the
// real native-protocol client this spec describes) for packet tags,
// phase names, and the cancel-then-drain idiom, re-expressed in the
// teacher's encoder/decoder composition style: Session owns a
// negotiated-revision struct the way blob.NumericEncoder owns an
// immutable config, and moves through construct -> feed/drain ->
// Close exactly once, never reused after Close.
package protocol
