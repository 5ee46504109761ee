package chclient

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nativedb/chclient/block"
	"github.com/nativedb/chclient/chtype"
	"github.com/nativedb/chclient/column"
	"github.com/nativedb/chclient/pool"
	"github.com/nativedb/chclient/protocol"
	"github.com/nativedb/chclient/wire"
)

// newTestClient builds a Client over an in-memory net.Pipe and runs a
// scripted Hello handshake against it, returning the Client alongside
// the server-side reader/writer so a test can script the rest of the
// conversation.
func newTestClient(t *testing.T) (client *Client, srvReader *wire.Reader, srvWrite func([]byte)) {
	t.Helper()

	clientConn, srvConn := net.Pipe()
	srvReader = wire.NewReader(srvConn)
	srvWrite = func(b []byte) {
		go func() { _, _ = srvConn.Write(b) }()
	}

	go func() {
		_, _ = srvReader.Varuint() // Hello tag
		_, _ = srvReader.String()  // client name
		_, _ = srvReader.Varuint() // major
		_, _ = srvReader.Varuint() // minor
		_, _ = srvReader.Varuint() // protocol revision
		_, _ = srvReader.String()  // database
		_, _ = srvReader.String()  // user
		_, _ = srvReader.String()  // password

		w := wire.NewWriter(pool.New(), 256)
		w.Varuint(0) // serverCodeHello
		w.String("testdb")
		w.Varuint(23)
		w.Varuint(8)
		w.Varuint(54460)
		w.String("UTC")
		w.String("testdb display")
		w.Varuint(1)
		srvWrite(w.Bytes())
	}()

	opts, err := protocol.NewOptions(
		protocol.WithDatabase("default"),
		protocol.WithCredentials("default", ""),
		protocol.WithCompression(false),
	)
	require.NoError(t, err)

	session := protocol.New(newNetConnAdapter(clientConn), opts)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, session.Hello(ctx))

	return &Client{conn: clientConn, session: session}, srvReader, srvWrite
}

func drainClientQueryPacket(t *testing.T, r *wire.Reader) {
	t.Helper()

	code, err := r.Varuint()
	require.NoError(t, err)
	require.EqualValues(t, 1, code) // clientCodeQuery

	_, _ = r.String() // query id
	_, _ = r.Uint8()
	_, _ = r.String()
	_, _ = r.String()
	_, _ = r.String()
	_, _ = r.Uint8()
	_, _ = r.String()
	_, _ = r.String()
	_, _ = r.String()
	_, _ = r.Varuint()
	_, _ = r.Varuint()
	_, _ = r.Varuint()
	_, _ = r.String() // quota key
	_, _ = r.String() // settings terminator
	_, _ = r.String() // secret
	_, _ = r.Varuint()
	_, _ = r.Bool()
	_, _ = r.String()
	_, _ = r.String() // parameters terminator
}

func drainClientDataBlock(t *testing.T, r *wire.Reader) {
	t.Helper()

	code, err := r.Varuint()
	require.NoError(t, err)
	require.EqualValues(t, 2, code) // clientCodeData

	_, err = block.Decode(r)
	require.NoError(t, err)
}

func serverBlockBytes(t *testing.T, b *block.Block) []byte {
	t.Helper()

	w := wire.NewWriter(pool.New(), 4096)
	w.Varuint(1) // serverCodeData
	require.NoError(t, block.Encode(w, b))

	return w.Bytes()
}

func TestClient_Query_TinySelect(t *testing.T) {
	client, srvReader, srvWrite := newTestClient(t)
	defer client.Close()

	go func() {
		drainClientQueryPacket(t, srvReader)
		drainClientDataBlock(t, srvReader) // header delimiter

		numberCol, err := column.NewFixedWidthColumn(chtype.UInt8, []byte{1})
		require.NoError(t, err)
		data := &block.Block{Columns: []block.Column{{Name: "number", Type: chtype.UInt8, Data: numberCol}}}
		srvWrite(serverBlockBytes(t, data))

		w := wire.NewWriter(pool.New(), 8)
		w.Varuint(5) // serverCodeEndOfStream
		srvWrite(w.Bytes())
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	stream, err := client.Query(ctx, Query{Body: "SELECT number FROM system.numbers LIMIT 1"})
	require.NoError(t, err)

	var got []*block.Block
	for stream.Next() {
		got = append(got, stream.Block())
	}
	require.NoError(t, stream.Err())
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].Rows())
}

func TestClient_Insert_AccumulatesProgress(t *testing.T) {
	client, srvReader, srvWrite := newTestClient(t)
	defer client.Close()

	go func() {
		drainClientQueryPacket(t, srvReader)
		drainClientDataBlock(t, srvReader) // header delimiter

		emptyCol, err := column.NewFixedWidthColumn(chtype.UInt8, []byte{})
		require.NoError(t, err)
		schema := &block.Block{Columns: []block.Column{{Name: "n", Type: chtype.UInt8, Data: emptyCol}}}
		srvWrite(serverBlockBytes(t, schema))

		drainClientDataBlock(t, srvReader) // the one batch Input produces
		drainClientDataBlock(t, srvReader) // terminating empty block

		w := wire.NewWriter(pool.New(), 32)
		w.Varuint(3) // serverCodeProgress
		w.Varuint(0)
		w.Varuint(0)
		w.Varuint(0)
		w.Varuint(3) // written rows
		w.Varuint(24)
		w.Varuint(1000)
		srvWrite(w.Bytes())

		w2 := wire.NewWriter(pool.New(), 8)
		w2.Varuint(5) // serverCodeEndOfStream
		srvWrite(w2.Bytes())
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	sent := false
	report, err := client.Insert(ctx, Query{
		Body: "INSERT INTO events VALUES",
		Input: func(_ context.Context, schema *block.Block) (*block.Block, error) {
			if sent {
				return nil, io.EOF
			}
			sent = true

			col, cerr := column.NewFixedWidthColumn(chtype.UInt8, []byte{1, 2, 3})
			require.NoError(t, cerr)

			return &block.Block{Columns: []block.Column{{Name: "n", Type: chtype.UInt8, Data: col}}}, nil
		},
	})

	require.NoError(t, err)
	assert.Equal(t, uint64(3), report.RowsWritten)
	assert.Equal(t, uint64(24), report.BytesWritten)
}

func TestClient_Insert_RequiresInput(t *testing.T) {
	client, _, _ := newTestClient(t)
	defer client.Close()

	_, err := client.Insert(context.Background(), Query{Body: "INSERT INTO events VALUES"})
	require.Error(t, err)
}
