package mqttcore

import (
	"log/slog"
	"time"
)

// Protocol and tunable constants grounded on the IOTX_MC_* constants in
// the original C implementation (see SPEC_FULL.md §3).
const (
	// ProtocolVersion is the MQTT protocol level byte sent in CONNECT; this
	// client only speaks MQTT 3.1.1.
	ProtocolVersion uint8 = 4

	// PacketIDMax is the highest value the 16-bit packet-id counter takes
	// before wrapping back to 1 (0 is reserved).
	PacketIDMax uint16 = 65535

	// MaxTopicLength is the maximum encoded length, in bytes, of a topic
	// name or topic filter (IOTX_MC_TOPIC_NAME_MAX_LEN).
	MaxTopicLength = 64

	// RequestTimeoutMin, RequestTimeoutMax, RequestTimeoutDefault bound the
	// configurable per-request ack timeout (IOTX_MC_REQUEST_TIMEOUT_*_MS).
	RequestTimeoutMin     = 500 * time.Millisecond
	RequestTimeoutMax     = 5000 * time.Millisecond
	RequestTimeoutDefault = 2000 * time.Millisecond

	// KeepAliveMin, KeepAliveMax bound the configurable keep-alive interval.
	KeepAliveMin     = 30 * time.Second
	KeepAliveMax     = 1200 * time.Second
	KeepAliveDefault = 60 * time.Second

	// ReconnectIntervalMin, ReconnectIntervalMax bound the exponential
	// reconnect backoff (IOTX_MC_RECONNECT_INTERVAL_{MIN,MAX}_MS).
	ReconnectIntervalMin = 1 * time.Second
	ReconnectIntervalMax = 60 * time.Second

	// SubInflightCap is the fixed capacity of the sub/unsub ack-tracking
	// table (IOTX_MC_SUB_REQUEST_NUM_MAX), independent of PubInflightCap
	// per spec.md §9.
	SubInflightCap = 10

	// DefaultPubInflightCap is the default capacity of the pub-ack table
	// (REPUB_NUM_MAX in the source; left tunable via Config).
	DefaultPubInflightCap = 20

	// DefaultSubTableCap is the default capacity of the subscription
	// (topic-filter, handler) table (SUB_NUM_MAX in the source).
	DefaultSubTableCap = 32

	// DefaultWriteBufferSize, DefaultReadBufferSize size the module-owned
	// send/read slabs (spec.md §9 permits replacing caller-provided
	// pointers with owned, configurably-sized buffers).
	DefaultWriteBufferSize = 1024
	DefaultReadBufferSize  = 1024
)

// Config holds the construction-time parameters for a Client, matching the
// field list in spec.md §6 one-to-one. Mandatory-looking fields (ClientID,
// Transport) are plain fields, as the teacher's DialContext treats its own
// Server/ClientID fields; everything with a sane zero-value default can
// alternatively be set through a With... Option (options.go).
type Config struct {
	// ClientID is the MQTT client identifier sent in CONNECT.
	ClientID string
	// Username, Password are optional CONNECT credentials. If Authenticator
	// is set, it supplies these instead (and refreshes them on reconnect).
	Username string
	Password string

	// Transport is the byte transport the client drives. connect() calls
	// Transport.Connect itself for the initial connection and again for
	// every reconnect attempt; the caller must not pre-connect it.
	Transport Transport

	// Authenticator optionally refreshes credentials before each reconnect
	// attempt (spec.md §4.8, §9).
	Authenticator Authenticator

	// EventHandler receives lifecycle and delivery events (spec.md §4.7).
	EventHandler EventHandler

	// KeepAlive is clamped to [KeepAliveMin, KeepAliveMax].
	KeepAlive time.Duration
	// RequestTimeout is clamped to [RequestTimeoutMin, RequestTimeoutMax];
	// zero means RequestTimeoutDefault.
	RequestTimeout time.Duration

	// WriteBufferSize, ReadBufferSize size the module-owned send/read
	// slabs; zero means the Default*BufferSize constants.
	WriteBufferSize int
	ReadBufferSize  int

	// PubInflightCap, SubTableCap override the default table capacities;
	// zero means the Default* constants. SubInflightCap is fixed.
	PubInflightCap int
	SubTableCap    int

	// Logger receives structured diagnostic output; nil discards logs.
	Logger *slog.Logger
}

func clamp(d, lo, hi time.Duration) time.Duration {
	if d < lo {
		return lo
	}
	if d > hi {
		return hi
	}
	return d
}

func (cfg *Config) normalize() {
	if cfg.KeepAlive == 0 {
		cfg.KeepAlive = KeepAliveDefault
	}
	cfg.KeepAlive = clamp(cfg.KeepAlive, KeepAliveMin, KeepAliveMax)

	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = RequestTimeoutDefault
	} else {
		cfg.RequestTimeout = clamp(cfg.RequestTimeout, RequestTimeoutMin, RequestTimeoutMax)
	}

	if cfg.WriteBufferSize <= 0 {
		cfg.WriteBufferSize = DefaultWriteBufferSize
	}
	if cfg.ReadBufferSize <= 0 {
		cfg.ReadBufferSize = DefaultReadBufferSize
	}
	if cfg.PubInflightCap <= 0 {
		cfg.PubInflightCap = DefaultPubInflightCap
	}
	if cfg.SubTableCap <= 0 {
		cfg.SubTableCap = DefaultSubTableCap
	}
}
