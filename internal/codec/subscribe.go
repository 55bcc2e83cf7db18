package codec

// EncodeSubscribe appends a SUBSCRIBE packet requesting filter at qos to
// dst. This client only ever subscribes to one filter per request (spec.md
// §4.9 subscribe(handle, filter, qos, ...)), unlike the teacher's
// multi-filter SubscribePacket.
func EncodeSubscribe(dst []byte, packetID uint16, filter string, qos uint8) []byte {
	var varHeader []byte
	varHeader = append(varHeader, byte(packetID>>8), byte(packetID))
	varHeader = appendString(varHeader, filter)
	varHeader = append(varHeader, qos&0x03)

	dst = EncodeFixedHeader(dst, SUBSCRIBE, 0x02, len(varHeader))
	return append(dst, varHeader...)
}

// EncodeUnsubscribe appends an UNSUBSCRIBE packet for filter to dst.
func EncodeUnsubscribe(dst []byte, packetID uint16, filter string) []byte {
	var varHeader []byte
	varHeader = append(varHeader, byte(packetID>>8), byte(packetID))
	varHeader = appendString(varHeader, filter)

	dst = EncodeFixedHeader(dst, UNSUBSCRIBE, 0x02, len(varHeader))
	return append(dst, varHeader...)
}

// Suback is a decoded SUBACK packet.
type Suback struct {
	PacketID   uint16
	ReturnCode byte // SubackQoS0/1/2 or SubackFailure
}

// DecodeSuback decodes a SUBACK packet body. Only the first granted-QoS
// byte is read: this client issues one filter per SUBSCRIBE, so the
// server's reply carries exactly one return code.
func DecodeSuback(body []byte) (Suback, error) {
	if len(body) < 3 {
		return Suback{}, ErrMalformed
	}
	return Suback{
		PacketID:   uint16(body[0])<<8 | uint16(body[1]),
		ReturnCode: body[2],
	}, nil
}

// Unsuback is a decoded UNSUBACK packet.
type Unsuback struct {
	PacketID uint16
}

// DecodeUnsuback decodes an UNSUBACK packet body.
func DecodeUnsuback(body []byte) (Unsuback, error) {
	id, err := DecodePacketID(body)
	if err != nil {
		return Unsuback{}, err
	}
	return Unsuback{PacketID: id}, nil
}
