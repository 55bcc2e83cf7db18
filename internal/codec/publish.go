package codec

// PublishParams holds the fields needed to encode a PUBLISH packet
// (grounded on the teacher's PublishPacket, publish.go).
type PublishParams struct {
	Topic     string
	Payload   []byte
	QoS       uint8
	Retain    bool
	Dup       bool
	PacketID  uint16 // ignored when QoS == 0
}

// EncodePublish appends a PUBLISH packet to dst.
func EncodePublish(dst []byte, p PublishParams) []byte {
	var flags byte
	flags |= (p.QoS & 0x03) << 1
	if p.Retain {
		flags |= 0x01
	}
	if p.Dup {
		flags |= 0x08
	}

	var varHeader []byte
	varHeader = appendString(varHeader, p.Topic)
	if p.QoS > 0 {
		varHeader = append(varHeader, byte(p.PacketID>>8), byte(p.PacketID))
	}

	dst = EncodeFixedHeader(dst, PUBLISH, flags, len(varHeader)+len(p.Payload))
	dst = append(dst, varHeader...)
	dst = append(dst, p.Payload...)
	return dst
}

// Publish is a decoded PUBLISH packet. Payload aliases the caller's
// buffer — spec.md §4.6 requires the payload pointer to alias the read
// buffer until dispatch returns, so the decoder does not copy it.
type Publish struct {
	Topic    string
	Payload  []byte
	QoS      uint8
	Retain   bool
	Dup      bool
	PacketID uint16
}

// DecodePublish decodes a PUBLISH packet body given its fixed-header
// flags and body bytes.
func DecodePublish(flags byte, body []byte) (Publish, error) {
	qos := (flags >> 1) & 0x03
	topic, n, err := decodeString(body)
	if err != nil {
		return Publish{}, err
	}
	body = body[n:]

	var packetID uint16
	if qos > 0 {
		if len(body) < 2 {
			return Publish{}, ErrMalformed
		}
		packetID = uint16(body[0])<<8 | uint16(body[1])
		body = body[2:]
	}

	return Publish{
		Topic:    topic,
		Payload:  body,
		QoS:      qos,
		Retain:   flags&0x01 != 0,
		Dup:      flags&0x08 != 0,
		PacketID: packetID,
	}, nil
}
