package mqttcore

import (
	"testing"
	"time"

	"github.com/fogwing/mqttcore/internal/codec"
)

func TestNewConnectsAndAccepts(t *testing.T) {
	tr := &scriptedTransport{}
	body := []byte{0x00, codec.ConnAccepted}
	ack := codec.EncodeFixedHeader(nil, codec.CONNACK, 0, len(body))
	ack = append(ack, body...)
	tr.queueFromBroker(ack)

	c, err := New(Config{ClientID: "dev-1", Transport: tr})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := c.State(); got != StateConnected {
		t.Fatalf("state = %v, want Connected", got)
	}
}

func TestNewRejectsBadCredentials(t *testing.T) {
	tr := &scriptedTransport{}
	body := []byte{0x00, codec.ConnRefusedNotAuthorized}
	ack := codec.EncodeFixedHeader(nil, codec.CONNACK, 0, len(body))
	ack = append(ack, body...)
	tr.queueFromBroker(ack)

	_, err := New(Config{ClientID: "dev-1", Transport: tr})
	if err == nil {
		t.Fatal("want error for CONNACK not-authorized")
	}
}

func TestNewRequiresClientID(t *testing.T) {
	tr := &scriptedTransport{}
	if _, err := New(Config{Transport: tr}); err == nil {
		t.Fatal("want error for empty ClientID")
	}
}

func TestPublishQoS1RoundTrip(t *testing.T) {
	c, tr := newConnectedClientT(t)

	var events []Event
	c.cfg.EventHandler = EventHandlerFunc(func(_ *Client, ev Event) { events = append(events, ev) })

	id, err := c.Publish("/devices/1/data", []byte("payload"), QoS1, false)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if c.pubTable.Len() != 1 {
		t.Fatalf("pubTable.Len() = %d, want 1", c.pubTable.Len())
	}

	puback := codec.EncodeFixedHeader(nil, codec.PUBACK, 0, 2)
	puback = append(puback, byte(id>>8), byte(id))
	tr.queueFromBroker(puback)

	if err := c.Yield(100 * time.Millisecond); err != nil {
		t.Fatalf("Yield: %v", err)
	}

	if c.pubTable.Len() != 0 {
		t.Fatalf("pubTable.Len() after ack = %d, want 0", c.pubTable.Len())
	}
	if len(events) != 1 || events[0].Kind != EventPublishSuccess || events[0].MsgID != id {
		t.Fatalf("events = %+v, want single PublishSuccess for id %d", events, id)
	}
}

func TestPublishRejectsQoS2(t *testing.T) {
	c, _ := newConnectedClientT(t)
	if _, err := c.Publish("/a", nil, QoS2, false); err != ErrQoS2Unsupported {
		t.Fatalf("err = %v, want ErrQoS2Unsupported", err)
	}
}

func TestSubscribeWildcardDelivery(t *testing.T) {
	c, tr := newConnectedClientT(t)

	var received []Message
	id, err := c.Subscribe("/devices/+/data", QoS0, func(msg Message, ctx any) {
		received = append(received, msg)
	}, nil)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	suback := codec.EncodeFixedHeader(nil, codec.SUBACK, 0, 3)
	suback = append(suback, byte(id>>8), byte(id), codec.SubackQoS0)
	tr.queueFromBroker(suback)
	if err := c.Yield(100 * time.Millisecond); err != nil {
		t.Fatalf("Yield (suback): %v", err)
	}

	pub := codec.EncodePublish(nil, codec.PublishParams{Topic: "/devices/42/data", Payload: []byte("hi")})
	tr.queueFromBroker(pub)
	if err := c.Yield(100 * time.Millisecond); err != nil {
		t.Fatalf("Yield (publish): %v", err)
	}

	if len(received) != 1 || received[0].Topic != "/devices/42/data" || string(received[0].Payload) != "hi" {
		t.Fatalf("received = %+v", received)
	}
}

func TestSubscribeTimeoutEvent(t *testing.T) {
	c, _ := newConnectedClientT(t)
	c.cfg.RequestTimeout = RequestTimeoutMin

	var events []Event
	c.cfg.EventHandler = EventHandlerFunc(func(_ *Client, ev Event) { events = append(events, ev) })

	if _, err := c.Subscribe("/a/b", QoS0, func(Message, any) {}, nil); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	// No SUBACK is ever queued; advance time past 2*RequestTimeout by
	// sleeping, then sweep the sub-inflight table directly.
	time.Sleep(2 * c.cfg.RequestTimeout)
	c.sweepSub()

	found := false
	for _, ev := range events {
		if ev.Kind == EventSubscribeTimeout {
			found = true
		}
	}
	if !found {
		t.Fatalf("events = %+v, want an EventSubscribeTimeout", events)
	}
}

func newConnectedClientT(t *testing.T) (*Client, *scriptedTransport) {
	t.Helper()
	tr := &scriptedTransport{}
	body := []byte{0x00, codec.ConnAccepted}
	ack := codec.EncodeFixedHeader(nil, codec.CONNACK, 0, len(body))
	ack = append(ack, body...)
	tr.queueFromBroker(ack)

	c, err := New(Config{ClientID: "dev-1", Transport: tr})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c, tr
}
