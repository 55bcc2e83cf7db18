package mqttcore

import (
	"errors"
	"time"

	"github.com/fogwing/mqttcore/internal/codec"
	"github.com/fogwing/mqttcore/internal/inflight"
)

// Yield drives the Client for up to timeout: it reads and dispatches at
// most one inbound packet per iteration, sweeps both in-flight tables on a
// successful iteration, and always runs the keepalive/reconnect tick,
// looping until timeout elapses or a cycle fails (spec.md §4.9, C9).
// Grounded directly on the original's iotx_mqtt_yield do-while loop
// (mqtt_client.c): cycle, then on success only sweep both tables, then
// keepalive unconditionally, repeat while not expired and the last cycle
// succeeded.
//
// Yield must be called by a single owner goroutine at a time; Publish,
// Subscribe, Unsubscribe, State, and Close may be called concurrently from
// other goroutines while Yield runs (spec.md §5).
func (c *Client) Yield(timeout time.Duration) error {
	if c.State() == StateInvalid {
		return ErrState
	}

	deadline := time.Now().Add(timeout)
	for {
		ok := c.cycle(deadline)
		if ok {
			c.sweepPub()
			c.sweepSub()
		}
		c.keepaliveTick()

		if !ok {
			return nil
		}
		if !time.Now().Before(deadline) {
			return nil
		}
	}
}

// cycle reads and dispatches at most one packet, reporting whether the
// iteration completed without a hard network/framing failure. A timeout
// (nothing arrived) or a drained buffer overrun both count as success:
// neither indicates the connection is unusable (spec.md §9).
func (c *Client) cycle(deadline time.Time) bool {
	if c.State() != StateConnected {
		return true
	}

	outcome, kind, flags, body, err := c.readPacket(deadline)
	if err != nil {
		c.markDisconnected()
		return false
	}
	switch outcome {
	case readTimeout, readOverrun:
		return true
	}

	if kind == codec.PINGRESP || kind == codec.CONNACK || kind == codec.PUBACK ||
		kind == codec.PUBREC || kind == codec.PUBLISH || kind == codec.SUBACK ||
		kind == codec.UNSUBACK {
		c.generalMu.Lock()
		c.nextPingDeadline = time.Now().Add(c.cfg.KeepAlive)
		c.generalMu.Unlock()
	}

	c.dispatch(kind, flags, body)
	return true
}

// sweepPub resends any pub-inflight entry that has waited longer than
// 2*RequestTimeout for its PUBACK, mirroring the original's
// MQTTRePublish (resend the same serialized bytes, reset the entry's
// start time on success; spec.md has no pub-inflight timeout event,
// only republish). A resend that fails at the network level marks the
// connection disconnected, same as Publish's own send path.
func (c *Client) sweepPub() {
	c.pubTable.Sweep(time.Now(), c.cfg.RequestTimeout, func(e inflight.PubEntry) error {
		c.writeMu.Lock()
		err := c.writePacket(e.Serialized, time.Now().Add(c.cfg.RequestTimeout))
		c.writeMu.Unlock()
		if err != nil && errors.Is(err, ErrNetwork) {
			c.markDisconnected()
		}
		return err
	})
}

func (c *Client) sweepSub() {
	c.subTable.Sweep(time.Now(), c.cfg.RequestTimeout, func(e inflight.SubEntry) {
		switch e.Kind {
		case inflight.Subscribe:
			c.emit(Event{Kind: EventSubscribeTimeout, MsgID: e.PacketID, Err: ErrSubscribeTimeout})
		default:
			c.emit(Event{Kind: EventUnsubscribeTimeout, MsgID: e.PacketID, Err: ErrUnsubscribeTimeout})
		}
	})
}
