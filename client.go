package chclient

import (
	"context"
	"net"

	"github.com/nativedb/chclient/errs"
	"github.com/nativedb/chclient/protocol"
)

// Auth carries the authentication inputs SPEC_FULL §6 lists: username,
// password, default database, and quota key.
type Auth struct {
	User     string
	Password string
	Database string
	QuotaKey string
}

// Query is the caller-facing request type for both Query and Insert;
// see protocol.Query for the full field set (settings, parameters,
// side-channel callbacks).
type Query = protocol.Query

// Client owns one negotiated session over one connection. It is not
// reusable once Terminated; check Phase before issuing another
// operation after an error.
type Client struct {
	conn    net.Conn
	session *protocol.Session
}

// Connect dials addr, negotiates the Hello handshake, and returns a
// Client ready for Query/Insert/Ping. ctx bounds the dial and the
// handshake only; Query, Insert, and Ping each take their own context.
func Connect(ctx context.Context, addr string, auth Auth, opts ...protocol.Option) (*Client, error) {
	conn, err := (&net.Dialer{}).DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, errs.IO("chclient.Connect", err)
	}

	allOpts := append([]protocol.Option{
		protocol.WithDatabase(auth.Database),
		protocol.WithCredentials(auth.User, auth.Password),
		protocol.WithQuotaKey(auth.QuotaKey),
	}, opts...)

	o, err := protocol.NewOptions(allOpts...)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	session := protocol.New(newNetConnAdapter(conn), o)

	stop := watchCancel(ctx, conn)
	defer stop()

	if err := session.Hello(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return &Client{conn: conn, session: session}, nil
}

// Phase reports the session's current protocol phase.
func (c *Client) Phase() protocol.Phase { return c.session.Phase() }

// Ping sends a Ping and waits for Pong; legal only in the Idle phase.
func (c *Client) Ping(ctx context.Context) error {
	stop := watchCancel(ctx, c.conn)
	defer stop()

	return c.session.Ping(ctx)
}

// Close terminates the session, which closes the underlying
// connection as part of its own teardown.
func (c *Client) Close() error { return c.session.Close() }
