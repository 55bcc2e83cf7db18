package mqttcore

import (
	"errors"
	"time"

	"github.com/fogwing/mqttcore/internal/codec"
)

// keepaliveTick implements spec.md §4.8 (C8), grounded on the original's
// iotx_mc_keepalive / iotx_mc_keepalive_sub: send PINGREQ when idle past
// the keep-alive interval, and drive exponential-backoff reconnect once
// disconnected. Called on every Yield loop iteration regardless of that
// iteration's read outcome (iotx_mqtt_yield calls keepalive unconditionally).
func (c *Client) keepaliveTick() {
	c.generalMu.Lock()
	state := c.state
	c.generalMu.Unlock()

	switch state {
	case StateConnected:
		c.pingIfDue()
	case StateDisconnected:
		c.beginReconnect()
	case StateReconnecting:
		c.attemptReconnect()
	}
}

func (c *Client) pingIfDue() {
	c.generalMu.Lock()
	due := time.Now().After(c.nextPingDeadline)
	alreadyOutstanding := c.pingOutstanding
	c.generalMu.Unlock()
	if !due {
		return
	}
	if alreadyOutstanding {
		// No PINGRESP arrived before the next keep-alive boundary: the
		// broker is presumed gone (spec.md §4.8).
		c.markDisconnected()
		return
	}

	c.writeMu.Lock()
	c.writeBuf = c.writeBuf[:0]
	c.writeBuf = codec.EncodePingreq(c.writeBuf)
	err := c.writePacket(c.writeBuf, time.Now().Add(c.cfg.RequestTimeout))
	c.writeMu.Unlock()
	if err != nil {
		c.markDisconnected()
		return
	}

	c.generalMu.Lock()
	c.pingOutstanding = true
	c.nextPingDeadline = time.Now().Add(c.cfg.KeepAlive)
	c.generalMu.Unlock()
}

func (c *Client) beginReconnect() {
	c.cfg.Transport.Disconnect()
	c.emit(Event{Kind: EventDisconnect})

	c.generalMu.Lock()
	c.state = StateReconnecting
	c.reconnectBackoff = ReconnectIntervalMin
	c.reconnectAt = time.Now().Add(c.reconnectBackoff)
	c.generalMu.Unlock()
}

func (c *Client) attemptReconnect() {
	c.generalMu.Lock()
	due := time.Now().After(c.reconnectAt)
	backoff := c.reconnectBackoff
	c.generalMu.Unlock()
	if !due {
		return
	}

	deadline := time.Now().Add(c.cfg.RequestTimeout)
	if err := c.connect(deadline); err != nil {
		c.logger().Debug("mqttcore: reconnect attempt failed", "error", err)
		if errors.Is(err, errAuthFailed) {
			// Credentials aren't ready yet: retry at the same backoff on
			// the next Yield instead of widening the interval (spec.md §4.8).
			return
		}
		next := backoff * 2
		if next > ReconnectIntervalMax {
			next = ReconnectIntervalMax
		}
		c.generalMu.Lock()
		c.reconnectBackoff = next
		c.reconnectAt = time.Now().Add(next)
		c.generalMu.Unlock()
		return
	}

	c.emit(Event{Kind: EventReconnect})
}
