package codec

// ConnectParams holds the fields needed to encode a CONNECT packet
// (grounded on the teacher's ConnectPacket, connect.go, trimmed to the
// v3.1.1 fields this client uses — no Will message, no v5.0 properties).
type ConnectParams struct {
	ClientID     string
	Username     string
	Password     string
	CleanSession bool
	KeepAlive    uint16 // seconds
}

// EncodeConnect appends a CONNECT packet to dst and returns the extended
// slice. Protocol name/level are fixed at "MQTT"/4 (MQTT 3.1.1).
func EncodeConnect(dst []byte, p ConnectParams) []byte {
	var flags byte
	if p.CleanSession {
		flags |= 0x02
	}
	if p.Password != "" {
		flags |= 0x40
	}
	if p.Username != "" {
		flags |= 0x80
	}

	var varHeader []byte
	varHeader = appendString(varHeader, "MQTT")
	varHeader = append(varHeader, ProtocolLevel)
	varHeader = append(varHeader, flags)
	varHeader = append(varHeader, byte(p.KeepAlive>>8), byte(p.KeepAlive))

	var payload []byte
	payload = appendString(payload, p.ClientID)
	if p.Username != "" {
		payload = appendString(payload, p.Username)
	}
	if p.Password != "" {
		payload = appendString(payload, p.Password)
	}

	dst = EncodeFixedHeader(dst, CONNECT, 0, len(varHeader)+len(payload))
	dst = append(dst, varHeader...)
	dst = append(dst, payload...)
	return dst
}

// ProtocolLevel is the MQTT protocol level byte for v3.1.1.
const ProtocolLevel = 4

// Connack is the decoded variable header of a CONNACK packet.
type Connack struct {
	SessionPresent bool
	ReturnCode     byte
}

// DecodeConnack decodes a CONNACK packet body (everything after the fixed
// header) from buf.
func DecodeConnack(buf []byte) (Connack, error) {
	if len(buf) < 2 {
		return Connack{}, ErrMalformed
	}
	return Connack{
		SessionPresent: buf[0]&0x01 != 0,
		ReturnCode:     buf[1],
	}, nil
}
