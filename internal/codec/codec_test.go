package codec

import (
	"bytes"
	"testing"
)

func TestVarIntRoundTrip(t *testing.T) {
	cases := []int{0, 1, 127, 128, 16383, 16384, 2097151, 2097152, maxVarInt}
	for _, v := range cases {
		buf := appendVarInt(nil, v)
		got, n, err := DecodeVarInt(buf)
		if err != nil {
			t.Fatalf("DecodeVarInt(%v) for value %d: %v", buf, v, err)
		}
		if got != v || n != len(buf) {
			t.Fatalf("value %d: round-trip got (%d, %d), want (%d, %d)", v, got, n, v, len(buf))
		}
	}
}

func TestDecodeVarIntTooLong(t *testing.T) {
	// Four continuation bytes: the terminating fifth byte lies beyond the
	// 4-byte budget.
	buf := []byte{0x80, 0x80, 0x80, 0x80, 0x01}
	if _, _, err := DecodeVarInt(buf); err != ErrMalformed {
		t.Fatalf("want ErrMalformed, got %v", err)
	}
}

func TestConnectRoundTrip(t *testing.T) {
	p := ConnectParams{
		ClientID:     "dev-1",
		Username:     "alice",
		Password:     "s3cret",
		CleanSession: true,
		KeepAlive:    60,
	}
	buf := EncodeConnect(nil, p)

	if buf[0] != CONNECT<<4 {
		t.Fatalf("unexpected first byte %x", buf[0])
	}
	// Fixed header is 1 type/flags byte + 1 varint length byte (small packet).
	body := buf[2:]
	if string(body[0:2]) != "\x00\x04" || string(body[2:6]) != "MQTT" {
		t.Fatalf("unexpected protocol name field: %q", body[:6])
	}
	if body[6] != ProtocolLevel {
		t.Fatalf("protocol level = %d, want %d", body[6], ProtocolLevel)
	}
	flags := body[7]
	if flags&0x02 == 0 {
		t.Fatalf("clean session flag not set")
	}
	if flags&0x80 == 0 || flags&0x40 == 0 {
		t.Fatalf("username/password flags not set: %08b", flags)
	}
}

func TestConnackDecode(t *testing.T) {
	buf := []byte{0x01, 0x00}
	ack, err := DecodeConnack(buf)
	if err != nil {
		t.Fatal(err)
	}
	if !ack.SessionPresent || ack.ReturnCode != ConnAccepted {
		t.Fatalf("got %+v", ack)
	}
}

func TestPublishRoundTrip(t *testing.T) {
	p := PublishParams{
		Topic:    "/a/b",
		Payload:  []byte("hello"),
		QoS:      1,
		PacketID: 42,
	}
	buf := EncodePublish(nil, p)

	fh, n, err := decodeFixedHeaderForTest(buf)
	if err != nil {
		t.Fatal(err)
	}
	body := buf[n : n+fh.RemainingLength]

	got, err := DecodePublish(fh.Flags, body)
	if err != nil {
		t.Fatal(err)
	}
	if got.Topic != p.Topic || !bytes.Equal(got.Payload, p.Payload) || got.QoS != 1 || got.PacketID != 42 {
		t.Fatalf("got %+v", got)
	}
}

func TestPublishQoS0HasNoPacketID(t *testing.T) {
	buf := EncodePublish(nil, PublishParams{Topic: "/a", Payload: []byte("x"), QoS: 0})
	fh, n, err := decodeFixedHeaderForTest(buf)
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodePublish(fh.Flags, buf[n:n+fh.RemainingLength])
	if err != nil {
		t.Fatal(err)
	}
	if got.PacketID != 0 || string(got.Payload) != "x" {
		t.Fatalf("got %+v", got)
	}
}

func TestSubackDecode(t *testing.T) {
	body := []byte{0x00, 0x07, SubackQoS1}
	sa, err := DecodeSuback(body)
	if err != nil {
		t.Fatal(err)
	}
	if sa.PacketID != 7 || sa.ReturnCode != SubackQoS1 {
		t.Fatalf("got %+v", sa)
	}
}

func TestSubscribeEncodeHasReservedFlags(t *testing.T) {
	buf := EncodeSubscribe(nil, 5, "/a/+", 1)
	if buf[0]&0x0F != 0x02 {
		t.Fatalf("SUBSCRIBE flags = %x, want 0x02", buf[0]&0x0F)
	}
}

// decodeFixedHeaderForTest decodes a fixed header from an in-memory buffer
// (the production path reads it byte-by-byte off a Transport; see
// client's packetio.go).
func decodeFixedHeaderForTest(buf []byte) (FixedHeader, int, error) {
	value, multiplier := 0, 1
	i := 1
	for ; i < 5; i++ {
		var done bool
		var err error
		value, multiplier, done, err = DecodeVarIntStep(value, multiplier, buf[i])
		if err != nil {
			return FixedHeader{}, 0, err
		}
		if done {
			i++
			break
		}
	}
	return FixedHeader{
		Type:            buf[0] >> 4,
		Flags:           buf[0] & 0x0F,
		RemainingLength: value,
	}, i, nil
}
