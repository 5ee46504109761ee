package protocol

import (
	"time"

	"go.uber.org/zap"

	"github.com/nativedb/chclient/internal/options"
)

// ProtocolRevision is the revision this client implements and offers
// to the server during Hello, per SPEC_FULL §4.7 "the exact revision
// this client implements". The negotiated session revision is
// min(ProtocolRevision, server revision).
const ProtocolRevision = 54460

// Revision gating thresholds named by SPEC_FULL §4.7. A server (or
// client) revision below a threshold omits the corresponding field
// entirely rather than sending a zero value.
const (
	// revisionQuotaKey gates the quota key in a Query's ClientInfo and
	// the Query packet's secret field.
	revisionQuotaKey = 54409
	// revisionSettingsAsStrings gates the textual settings encoding
	// (key, important flag, value-as-string) used by Query.
	revisionSettingsAsStrings = 54429
	// revisionQueryParameters gates typed query parameters.
	revisionQueryParameters = 54459
)

// MetricsSink receives counters a caller can export, injected the way
// the logger is: optional, defaulting to a no-op. SPEC_FULL §1.1 names
// this alongside the injected logger as ambient configuration.
type MetricsSink interface {
	IncBlocksSent(n int)
	IncBlocksReceived(n int)
	IncRowsReceived(n int)
	IncBytes(rows, bytes int)
}

type noopMetricsSink struct{}

func (noopMetricsSink) IncBlocksSent(int)     {}
func (noopMetricsSink) IncBlocksReceived(int) {}
func (noopMetricsSink) IncRowsReceived(int)   {}
func (noopMetricsSink) IncBytes(int, int)     {}

// Options configures a Session. It is immutable once built by New,
// matching the teacher's NumericEncoderConfig: a value every codec in
// the session reads, nobody mutates after construction.
type Options struct {
	clientName  string
	clientMajor uint64
	clientMinor uint64

	database string
	user     string
	password string
	quotaKey string

	compression bool
	dialTimeout time.Duration

	logger  *zap.Logger
	metrics MetricsSink
}

// Option configures a Session via the functional-options pattern
// shared with arrowbridge.ConversionOptions (internal/options).
type Option = options.Option[*Options]

// NewOptions builds an Options from defaults plus the given Option
// values, applied in order.
func NewOptions(opts ...Option) (*Options, error) {
	o := &Options{
		clientName:  "chclient",
		clientMajor: 1,
		clientMinor: 0,
		compression: true,
		dialTimeout: 10 * time.Second,
		logger:      zap.NewNop(),
		metrics:     noopMetricsSink{},
	}

	if err := options.Apply[*Options](o, opts...); err != nil {
		return nil, err
	}

	return o, nil
}

// WithClientName sets the name and major/minor version the session
// reports in Hello/Query ClientInfo.
func WithClientName(name string, major, minor uint64) Option {
	return options.NoError[*Options](func(o *Options) {
		o.clientName = name
		o.clientMajor = major
		o.clientMinor = minor
	})
}

// WithDatabase sets the default database sent in Hello.
func WithDatabase(db string) Option {
	return options.NoError[*Options](func(o *Options) { o.database = db })
}

// WithCredentials sets the username and password sent in Hello.
func WithCredentials(user, password string) Option {
	return options.NoError[*Options](func(o *Options) {
		o.user = user
		o.password = password
	})
}

// WithQuotaKey sets the per-session quota key sent in each Query
// packet's ClientInfo when the negotiated revision supports it.
func WithQuotaKey(key string) Option {
	return options.NoError[*Options](func(o *Options) { o.quotaKey = key })
}

// WithCompression toggles transport-frame compression for data
// blocks. Enabled by default.
func WithCompression(enabled bool) Option {
	return options.NoError[*Options](func(o *Options) { o.compression = enabled })
}

// WithDialTimeout bounds the Hello handshake, not the lifetime of a
// query; query deadlines are the caller's context.
func WithDialTimeout(d time.Duration) Option {
	return options.NoError[*Options](func(o *Options) { o.dialTimeout = d })
}

// WithLogger injects a structured logger. Defaults to zap.NewNop().
func WithLogger(l *zap.Logger) Option {
	return options.New[*Options](func(o *Options) error {
		if l != nil {
			o.logger = l
		}

		return nil
	})
}

// WithMetricsSink injects a metrics sink. Defaults to a no-op.
func WithMetricsSink(m MetricsSink) Option {
	return options.New[*Options](func(o *Options) error {
		if m != nil {
			o.metrics = m
		}

		return nil
	})
}
