package mqttcore

import (
	"errors"
	"fmt"
	"time"

	"github.com/fogwing/mqttcore/internal/codec"
	"github.com/fogwing/mqttcore/internal/inflight"
)

// Publish sends a PUBLISH (spec.md §4.9, C7). QoS 0 returns msgID 0 and no
// tracking entry is created. QoS 1 allocates a packet id, registers a
// pub-inflight entry before the send (so a racing Yield-driven ack can
// never arrive before the table knows to expect it), and sends. QoS 2 is
// not supported outbound (SPEC_FULL.md §9) and fails fast with
// ErrQoS2Unsupported, grounded on the original's silent truncation of
// QoS 2 completion, made visible here instead of silently downgrading.
func (c *Client) Publish(topic string, payload []byte, qos QoS, retain bool) (uint16, error) {
	if !c.CheckStateNormal() {
		return 0, ErrState
	}
	if err := validateTopicName(topic); err != nil {
		return 0, err
	}
	if qos == QoS2 {
		return 0, ErrQoS2Unsupported
	}
	if qos != QoS0 && qos != QoS1 {
		return 0, ErrPublishQoS
	}

	var id uint16
	if qos == QoS1 {
		id = c.nextID()
	}

	serialized := codec.EncodePublish(nil, codec.PublishParams{
		Topic:    topic,
		Payload:  payload,
		QoS:      uint8(qos),
		Retain:   retain,
		PacketID: id,
	})

	if qos == QoS1 {
		if err := c.pubTable.Push(id, time.Now(), serialized); err != nil {
			if errors.Is(err, inflight.ErrFull) {
				return 0, ErrPushToListFull
			}
			return 0, err
		}
	}

	c.writeMu.Lock()
	err := c.writePacket(serialized, time.Now().Add(c.cfg.RequestTimeout))
	c.writeMu.Unlock()

	if err != nil {
		if qos == QoS1 {
			c.pubTable.Remove(id)
		}
		if errors.Is(err, ErrNetwork) {
			c.markDisconnected()
		}
		return 0, fmt.Errorf("%w: %v", ErrPublishPacket, err)
	}

	return id, nil
}
