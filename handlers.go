package mqttcore

import (
	"time"

	"github.com/fogwing/mqttcore/internal/codec"
)

// dispatch handles one decoded inbound packet (spec.md §4.6, C6), grounded
// on the teacher's handlePacket switch (client.go) and the original's
// iotx_mc_handle_recv_mqtt_packet. It is called from the Yield loop's
// cycle step with no lock held; it acquires generalMu only for the brief
// bookkeeping each case needs and always releases it before invoking any
// user callback (spec.md §3 invariant 6).
func (c *Client) dispatch(kind byte, flags byte, body []byte) {
	switch kind {
	case codec.CONNACK:
		// A CONNACK while already connected has no protocol meaning here;
		// the handshake is handled synchronously by connect(). Ignore.

	case codec.PUBACK:
		id, err := codec.DecodePacketID(body)
		if err != nil {
			return
		}
		if found := c.pubTable.MarkInvalidByID(id); found {
			c.emit(Event{Kind: EventPublishSuccess, MsgID: id})
		}

	case codec.PUBREC:
		// QoS 2 outbound is not supported (ErrQoS2Unsupported at the API
		// boundary); a PUBREC should never arrive for a request this client
		// made. Ignore rather than disconnect (spec.md §9).

	case codec.PUBLISH:
		c.handlePublish(flags, body)

	case codec.SUBACK:
		c.handleSuback(body)

	case codec.UNSUBACK:
		c.handleUnsuback(body)

	case codec.PINGRESP:
		c.generalMu.Lock()
		c.pingOutstanding = false
		c.nextPingDeadline = time.Now().Add(c.cfg.KeepAlive)
		c.generalMu.Unlock()
	}
}

func (c *Client) handlePublish(flags byte, body []byte) {
	pub, err := codec.DecodePublish(flags, body)
	if err != nil {
		return
	}

	msg := Message{
		Topic:     pub.Topic,
		Payload:   pub.Payload,
		QoS:       QoS(pub.QoS),
		Retained:  pub.Retain,
		Duplicate: pub.Dup,
	}

	c.generalMu.Lock()
	matched := c.subs.matchAndInvoke(pub.Topic)
	c.generalMu.Unlock()

	if len(matched) == 0 {
		// No registered filter matched: fall back to the generic handler
		// (spec.md §4.4 match_and_invoke, mirrors the original's
		// flag_matched == 0 check in iotx_mc_deliver_message).
		c.emit(Event{Kind: EventPublishReceived, Message: msg})
	} else {
		for _, binding := range matched {
			binding.Handler(msg, binding.Ctx)
		}
	}

	switch QoS(pub.QoS) {
	case QoS1:
		c.writeMu.Lock()
		c.writeBuf = c.writeBuf[:0]
		c.writeBuf = codec.EncodePuback(c.writeBuf, pub.PacketID)
		err := c.writePacket(c.writeBuf, time.Now().Add(c.cfg.RequestTimeout))
		c.writeMu.Unlock()
		if err != nil {
			c.markDisconnected()
		}
	case QoS2:
		// Inbound QoS 2 is acknowledged with PUBREC only; PUBREL/PUBCOMP are
		// intentionally not implemented (spec.md §9, mirrors the original's
		// truncated QoS 2 handling).
		c.writeMu.Lock()
		c.writeBuf = c.writeBuf[:0]
		c.writeBuf = codec.EncodePubrec(c.writeBuf, pub.PacketID)
		err := c.writePacket(c.writeBuf, time.Now().Add(c.cfg.RequestTimeout))
		c.writeMu.Unlock()
		if err != nil {
			c.markDisconnected()
		}
	}
}

func (c *Client) handleSuback(body []byte) {
	ack, err := codec.DecodeSuback(body)
	if err != nil {
		return
	}

	entry, found := c.subTable.MarkInvalidByID(ack.PacketID)
	if !found {
		c.emit(Event{Kind: EventSubscribeNack, MsgID: ack.PacketID, Err: ErrSubInfoNotFound})
		return
	}

	if ack.ReturnCode == codec.SubackFailure {
		c.emit(Event{Kind: EventSubscribeNack, MsgID: ack.PacketID, Err: ErrSubscribeAckFailure})
		return
	}

	binding, _ := entry.Binding.(TopicBinding)
	c.generalMu.Lock()
	c.subs.install(binding)
	c.generalMu.Unlock()
	c.emit(Event{Kind: EventSubscribeSuccess, MsgID: ack.PacketID})
}

func (c *Client) handleUnsuback(body []byte) {
	ack, err := codec.DecodeUnsuback(body)
	if err != nil {
		return
	}

	entry, found := c.subTable.MarkInvalidByID(ack.PacketID)
	if !found {
		return
	}

	binding, _ := entry.Binding.(TopicBinding)
	c.generalMu.Lock()
	c.subs.removeByFilter(binding.Filter)
	c.generalMu.Unlock()
	c.emit(Event{Kind: EventUnsubscribeSuccess, MsgID: ack.PacketID})
}

// markDisconnected transitions to Disconnected so the next keepaliveTick
// begins the reconnect sequence (spec.md §4.8).
func (c *Client) markDisconnected() {
	c.generalMu.Lock()
	if c.state == StateConnected {
		c.state = StateDisconnected
	}
	c.generalMu.Unlock()
}
