package mqttcore

import (
	"errors"
	"fmt"
	"time"

	"github.com/fogwing/mqttcore/internal/codec"
	"github.com/fogwing/mqttcore/internal/inflight"
)

// Subscribe sends a SUBSCRIBE for filter (spec.md §4.9, C7). The binding
// (filter, handler, ctx) is not installed into the live subscription table
// until the matching SUBACK arrives (handleSuback); until then it travels
// as the sub-inflight entry's opaque Binding so dispatch can recover the
// identical TopicBinding value to pass to subscriptionTable.install.
func (c *Client) Subscribe(filter string, qos QoS, handler MessageHandler, ctx any) (uint16, error) {
	if !c.CheckStateNormal() {
		return 0, ErrState
	}
	if err := validateTopicFilter(filter); err != nil {
		return 0, err
	}
	if handler == nil {
		return 0, fmt.Errorf("%w: handler", ErrNullValue)
	}

	id := c.nextID()
	serialized := codec.EncodeSubscribe(nil, id, filter, uint8(qos))

	binding := TopicBinding{Filter: filter, Handler: handler, Ctx: ctx}
	entry := inflight.SubEntry{
		PacketID:   id,
		Start:      time.Now(),
		Kind:       inflight.Subscribe,
		Binding:    binding,
		Serialized: serialized,
	}
	if err := c.subTable.Push(entry); err != nil {
		if errors.Is(err, inflight.ErrFull) {
			return 0, ErrPushToListFull
		}
		return 0, err
	}

	c.writeMu.Lock()
	err := c.writePacket(serialized, time.Now().Add(c.cfg.RequestTimeout))
	c.writeMu.Unlock()

	if err != nil {
		c.subTable.Remove(id)
		if errors.Is(err, ErrNetwork) {
			c.markDisconnected()
		}
		return 0, fmt.Errorf("%w: %v", ErrSubscribePacket, err)
	}

	return id, nil
}

// Unsubscribe sends an UNSUBSCRIBE for filter. Matching installed bindings
// are removed from the live subscription table only once UNSUBACK arrives
// (handleUnsuback), not at call time — spec.md §4.9 treats the ack as the
// point at which delivery for that filter is guaranteed to have stopped.
func (c *Client) Unsubscribe(filter string) (uint16, error) {
	if !c.CheckStateNormal() {
		return 0, ErrState
	}
	if err := validateTopicFilter(filter); err != nil {
		return 0, err
	}

	id := c.nextID()
	serialized := codec.EncodeUnsubscribe(nil, id, filter)

	entry := inflight.SubEntry{
		PacketID:   id,
		Start:      time.Now(),
		Kind:       inflight.Unsubscribe,
		Binding:    TopicBinding{Filter: filter},
		Serialized: serialized,
	}
	if err := c.subTable.Push(entry); err != nil {
		if errors.Is(err, inflight.ErrFull) {
			return 0, ErrPushToListFull
		}
		return 0, err
	}

	c.writeMu.Lock()
	err := c.writePacket(serialized, time.Now().Add(c.cfg.RequestTimeout))
	c.writeMu.Unlock()

	if err != nil {
		c.subTable.Remove(id)
		if errors.Is(err, ErrNetwork) {
			c.markDisconnected()
		}
		return 0, fmt.Errorf("%w: %v", ErrUnsubscribePacket, err)
	}

	return id, nil
}
