package protocol

import "github.com/nativedb/chclient/wire"

// clientCode is a client-to-server packet tag, per SPEC_FULL §4.7
// "Client->server tags: Hello(0), Query(1), Data(2), Cancel(3),
// Ping(4)".
type clientCode uint8

const (
	clientCodeHello  clientCode = 0
	clientCodeQuery  clientCode = 1
	clientCodeData   clientCode = 2
	clientCodeCancel clientCode = 3
	clientCodePing   clientCode = 4
)

// Encode writes the packet's tag as a single varuint.
func (c clientCode) Encode(w *wire.Writer) { w.Varuint(uint64(c)) }

// Interface values for ClientInfo.Interface, matching the native
// protocol's own small enumeration.
const (
	InterfaceTCP uint8 = 1
)

// QueryKind distinguishes an initial client query from one forwarded
// by another server in a distributed query, per ClientInfo.Query in
// the real protocol this spec models.
type QueryKind uint8

const (
	QueryInitial QueryKind = 1
)

// ClientInfo mirrors SPEC_FULL §3.5's field set, sent inside every
// Query packet.
type ClientInfo struct {
	Name     string
	Major    uint64
	Minor    uint64
	Revision uint64

	Interface      uint8
	Query          QueryKind
	InitialUser    string
	InitialQueryID string
	InitialAddress string
	OSUser         string
	ClientHostname string

	Timezone string
	QuotaKey string
}

func (ci ClientInfo) encode(w *wire.Writer, revision uint64) {
	w.Uint8(ci.Interface)
	w.String(ci.InitialUser)
	w.String(ci.InitialQueryID)
	w.String(ci.InitialAddress)
	w.Uint8(uint8(ci.Query))
	w.String(ci.OSUser)
	w.String(ci.ClientHostname)
	w.String(ci.Name)
	w.Varuint(ci.Major)
	w.Varuint(ci.Minor)
	w.Varuint(ci.Revision)

	if revisionQuotaKey <= revision {
		w.String(ci.QuotaKey)
	}
}

// Setting is a wire-visible query or client setting, per SPEC_FULL
// §3.5: a key/value pair with an importance bit the server uses to
// decide whether an unrecognized setting is an error.
type Setting struct {
	Key       string
	Value     string
	Important bool
}

func encodeSettings(w *wire.Writer, settings []Setting, revision uint64) {
	if revision < revisionSettingsAsStrings {
		// The legacy typed-settings wire format is out of scope: every
		// session this package builds negotiates at least
		// revisionSettingsAsStrings, since ProtocolRevision is far above
		// it and the negotiated revision is a min() of two recent values.
		w.Varuint(0)
		return
	}

	for _, s := range settings {
		w.String(s.Key)
		w.Bool(s.Important)
		w.String(s.Value)
	}
	w.String("") // empty key terminates the settings list
}

// Parameter is a typed query parameter (EXPERIMENTAL per SPEC_FULL
// §3.4), gated on revisionQueryParameters.
type Parameter struct {
	Name  string
	Value string
}

func encodeParameters(w *wire.Writer, params []Parameter, revision uint64) {
	if revision < revisionQueryParameters {
		return
	}

	for _, p := range params {
		w.String(p.Name)
		w.Bool(false) // important
		w.String(p.Value)
	}
	w.String("")
}

// QueryStage selects how far the server carries query processing
// before replying. StageComplete, the zero value, is the default
// named in SPEC_FULL §4.7.
type QueryStage uint8

const (
	StageComplete QueryStage = iota
	StageFetchColumns
	StageWithMergeableState
	StageWithMergeableStateAfterAggregation
)

// helloPacket writes the client Hello: client name, major/minor,
// protocol revision, default database, user, password.
func helloPacket(w *wire.Writer, o *Options) {
	clientCodeHello.Encode(w)
	w.String(o.clientName)
	w.Varuint(o.clientMajor)
	w.Varuint(o.clientMinor)
	w.Varuint(ProtocolRevision)
	w.String(o.database)
	w.String(o.user)
	w.String(o.password)
}

// queryRequest carries everything the caller-visible Query struct
// needs to produce a wire Query packet, once the session has resolved
// a query ID and the negotiated revision.
type queryRequest struct {
	id         string
	body       string
	secret     string
	stage      QueryStage
	compressed bool
	settings   []Setting
	parameters []Parameter
}

// queryPacket writes the client Query packet: query id, client info,
// settings, secret (if gated), stage, compression flag, query text,
// parameters (if gated).
func queryPacket(w *wire.Writer, o *Options, revision uint64, info ClientInfo, q queryRequest) {
	clientCodeQuery.Encode(w)
	w.String(q.id)
	info.encode(w, revision)
	encodeSettings(w, q.settings, revision)

	if revision >= revisionQuotaKey {
		w.String(q.secret)
	}

	w.Varuint(uint64(q.stage))
	w.Bool(q.compressed)
	w.String(q.body)
	encodeParameters(w, q.parameters, revision)
}

// cancelPacket writes the client Cancel packet: the tag alone.
func cancelPacket(w *wire.Writer) { clientCodeCancel.Encode(w) }

// pingPacket writes the client Ping packet: the tag alone, legal only
// in Idle per SPEC_FULL §4.7.
func pingPacket(w *wire.Writer) { clientCodePing.Encode(w) }

// dataPacketTag writes the Data packet's tag; the block itself is
// encoded by package block and optionally wrapped by package compress
// before being appended to the same frame.
func dataPacketTag(w *wire.Writer) { clientCodeData.Encode(w) }
