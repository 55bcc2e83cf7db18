package mqttcore

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fogwing/mqttcore/internal/codec"
	"github.com/fogwing/mqttcore/internal/inflight"
)

// State is the Client's connection lifecycle state (spec.md §3, grounded
// on the original's IOTX_MC_STATE_* enum).
type State int32

const (
	StateInvalid State = iota
	StateInitialized
	StateConnected
	StateDisconnected
	StateReconnecting
)

func (s State) String() string {
	switch s {
	case StateInvalid:
		return "invalid"
	case StateInitialized:
		return "initialized"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

// Client is the caller-driven MQTT 3.1.1 client core (spec.md §2, C4). It
// runs no goroutines of its own: the owner must call Yield periodically to
// drive reads, acks, keepalive, and reconnect, while any goroutine may
// concurrently call Publish/Subscribe/Unsubscribe/State/Close.
//
// Lock ordering (spec.md §5): writeMu and generalMu are never held at the
// same time (publish/subscribe/unsubscribe take generalMu only briefly to
// allocate a packet id, push their in-flight entry under that table's own
// lock, and only then acquire writeMu to send); the two inflight tables
// each guard themselves independently and are never held across a call
// into generalMu or writeMu.
type Client struct {
	cfg Config

	writeMu  sync.Mutex
	writeBuf []byte

	readBuf []byte // owned by the Yield caller only; never touched concurrently

	generalMu        sync.Mutex
	state            State
	nextPacketID     uint16
	subs             *subscriptionTable
	pingOutstanding  bool
	nextPingDeadline time.Time
	reconnectBackoff time.Duration
	reconnectAt      time.Time

	pubTable *inflight.PubTable
	subTable *inflight.SubTable
}

// New constructs a Client and performs the initial synchronous connect:
// Transport.Connect, send CONNECT, wait for CONNACK (spec.md §4.1
// construct()). On any failure the transport is disconnected and a non-nil
// error is returned; the Client is otherwise ready for Yield.
func New(cfg Config, opts ...Option) (*Client, error) {
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("%w: ClientID", ErrNullValue)
	}
	if cfg.Transport == nil {
		return nil, fmt.Errorf("%w: Transport", ErrNullValue)
	}
	cfg.normalize()
	if cfg.Logger == nil {
		cfg.Logger = defaultLogger()
	}
	if cfg.Authenticator == nil {
		cfg.Authenticator = StaticAuthenticator{Credentials{cfg.Username, cfg.Password}}
	}

	c := &Client{
		cfg:          cfg,
		writeBuf:     make([]byte, 0, cfg.WriteBufferSize),
		readBuf:      make([]byte, cfg.ReadBufferSize),
		state:        StateInitialized,
		nextPacketID: 1,
		subs:         newSubscriptionTable(cfg.SubTableCap),
		pubTable:     inflight.NewPubTable(cfg.PubInflightCap),
		subTable:     inflight.NewSubTable(SubInflightCap),
	}

	deadline := time.Now().Add(cfg.RequestTimeout)
	if err := c.connect(deadline); err != nil {
		return nil, err
	}
	return c, nil
}

// connect performs the Transport.Connect + CONNECT + CONNACK handshake and,
// on success, arms keepalive state and sets state to Connected. Used both
// by New (initial connect) and keepaliveTick (reconnect, spec.md §4.8).
func (c *Client) connect(deadline time.Time) error {
	creds, err := c.cfg.Authenticator.Authenticate(context.Background())
	if err != nil {
		return fmt.Errorf("%w: %v", errAuthFailed, err)
	}

	if err := c.cfg.Transport.Connect(deadline); err != nil {
		return fmt.Errorf("%w: %v", ErrNetworkConnect, err)
	}

	c.writeMu.Lock()
	c.writeBuf = c.writeBuf[:0]
	c.writeBuf = codec.EncodeConnect(c.writeBuf, codec.ConnectParams{
		ClientID:     c.cfg.ClientID,
		Username:     creds.Username,
		Password:     creds.Password,
		CleanSession: true,
		KeepAlive:    uint16(c.cfg.KeepAlive / time.Second),
	})
	writeErr := c.writePacket(c.writeBuf, deadline)
	c.writeMu.Unlock()
	if writeErr != nil {
		c.cfg.Transport.Disconnect()
		return fmt.Errorf("%w: %v", ErrConnectPacket, writeErr)
	}

	for {
		if !time.Now().Before(deadline) {
			c.cfg.Transport.Disconnect()
			return fmt.Errorf("%w: no CONNACK before deadline", ErrNetworkConnect)
		}
		outcome, kind, _, body, err := c.readPacket(deadline)
		if err != nil {
			c.cfg.Transport.Disconnect()
			return err
		}
		if outcome == readTimeout || outcome == readOverrun {
			continue
		}
		if kind != codec.CONNACK {
			continue
		}
		ack, err := codec.DecodeConnack(body)
		if err != nil {
			c.cfg.Transport.Disconnect()
			return fmt.Errorf("%w: %v", ErrConnackPacket, err)
		}
		if err := connackError(ack.ReturnCode); err != nil {
			c.cfg.Transport.Disconnect()
			return err
		}
		break
	}

	c.generalMu.Lock()
	c.state = StateConnected
	c.pingOutstanding = false
	c.nextPingDeadline = time.Now().Add(c.cfg.KeepAlive)
	c.reconnectBackoff = 0
	c.generalMu.Unlock()
	return nil
}

// State reports the Client's current lifecycle state.
func (c *Client) State() State {
	c.generalMu.Lock()
	defer c.generalMu.Unlock()
	return c.state
}

// CheckStateNormal reports whether the Client is connected and able to
// accept new publish/subscribe requests (spec.md §4.1
// iotx_mqtt_check_state_normal).
func (c *Client) CheckStateNormal() bool {
	return c.State() == StateConnected
}

func (c *Client) nextID() uint16 {
	c.generalMu.Lock()
	defer c.generalMu.Unlock()
	id := c.nextPacketID
	c.nextPacketID++
	if c.nextPacketID == 0 {
		c.nextPacketID = 1
	}
	return id
}

func (c *Client) emit(ev Event) {
	if c.cfg.EventHandler == nil {
		return
	}
	c.cfg.EventHandler.OnEvent(c, ev)
}

func (c *Client) logger() *slog.Logger {
	if c.cfg.Logger == nil {
		return defaultLogger()
	}
	return c.cfg.Logger
}

// Close releases the Client: it sends DISCONNECT best-effort, closes the
// transport, and marks the state Invalid (spec.md §4.1 deconstruct()).
// Further calls to Publish/Subscribe/Unsubscribe/Yield after Close return
// ErrState.
func (c *Client) Close() error {
	c.generalMu.Lock()
	if c.state == StateInvalid {
		c.generalMu.Unlock()
		return nil
	}
	connected := c.state == StateConnected
	c.state = StateInvalid
	c.generalMu.Unlock()

	if connected {
		c.writeMu.Lock()
		c.writeBuf = c.writeBuf[:0]
		c.writeBuf = codec.EncodeDisconnect(c.writeBuf)
		c.writePacket(c.writeBuf, time.Now().Add(c.cfg.RequestTimeout))
		c.writeMu.Unlock()
	}
	return c.cfg.Transport.Disconnect()
}
