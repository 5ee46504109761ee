// Package chclient is a native-protocol client for a ClickHouse-style
// columnar analytic database.
//
// The package covers three concerns: a binary wire codec and revision-
// gated protocol state machine (package protocol), a closed type
// system with a columnar block codec (packages chtype, column, block),
// and a bridge from that columnar representation to Apache Arrow
// records (package arrowbridge). This top package is a thin facade
// over protocol.Session, the way the blob package's encoders and
// decoders are wrapped by convenience constructors at the module root.
//
// # Basic usage
//
// Connecting and running a query:
//
//	client, err := chclient.Connect(ctx, "localhost:9000", chclient.Auth{
//	    User:     "default",
//	    Database: "default",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	stream, err := client.Query(ctx, chclient.Query{Body: "SELECT number FROM system.numbers LIMIT 10"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	mem := memory.NewGoAllocator()
//	for stream.Next() {
//	    rec, err := arrowbridge.BlockToRecord(mem, stream.Block(), nil)
//	    // ...
//	}
//	if err := stream.Err(); err != nil {
//	    log.Fatal(err)
//	}
//
// Inserting rows streams batches lazily through Query.Input, keyed off
// the schema the server reports in its empty probe block:
//
//	report, err := client.Insert(ctx, chclient.Query{
//	    Body: "INSERT INTO events VALUES",
//	    Input: func(ctx context.Context, schema *block.Block) (*block.Block, error) {
//	        return nextBatch(schema)
//	    },
//	})
//
// # Package structure
//
// Connect dials a net.Conn, adapts it to protocol.StreamAdapter, and
// drives protocol.Session through its Hello handshake. Query and
// Insert build a protocol.Query from the caller's request and drive
// protocol.Session.Do; advanced callers who need fields this facade
// doesn't expose (custom settings, typed parameters, side-channel
// callbacks) can use package protocol directly.
package chclient
