package chclient

import (
	"context"

	"github.com/nativedb/chclient/errs"
	"github.com/nativedb/chclient/protocol"
)

// InsertReport summarizes one Insert call's accumulated progress
// deltas, per SPEC_FULL §6's progress event fields.
type InsertReport struct {
	RowsWritten  uint64
	BytesWritten uint64
	ElapsedNs    uint64
}

// Insert runs q as an INSERT; q.Input must be set, and is called
// repeatedly with the server's reported schema until it returns
// io.EOF. Insert blocks until the server reports EndOfStream or an
// error occurs.
func (c *Client) Insert(ctx context.Context, q Query) (InsertReport, error) {
	if q.Input == nil {
		return InsertReport{}, errs.ProtocolViolationf("chclient.Client.Insert", "Query.Input is nil")
	}

	var report InsertReport

	onProgress := q.OnProgress
	q.OnProgress = func(ctx context.Context, p protocol.Progress) error {
		report.RowsWritten += p.WrittenRows
		report.BytesWritten += p.WrittenBytes
		report.ElapsedNs += p.ElapsedNs

		if onProgress != nil {
			return onProgress(ctx, p)
		}

		return nil
	}

	stop := watchCancel(ctx, c.conn)
	defer stop()

	err := c.session.Do(ctx, q)

	return report, err
}
